package jobs

import (
	"context"
	"fmt"

	"github.com/luheng/fupan/internal/external/eastmoney"
	"github.com/luheng/fupan/internal/store"
	"github.com/luheng/fupan/pkg/logger"
)

// NamesRefreshJob rewrites the name table from the quote provider,
// picking up new listings and ST marker changes.
type NamesRefreshJob struct {
	client *eastmoney.Client
	path   string
	logger *logger.Logger
}

// NewNamesRefreshJob creates a name refresh job writing to path.
func NewNamesRefreshJob(client *eastmoney.Client, path string, log *logger.Logger) *NamesRefreshJob {
	return &NamesRefreshJob{
		client: client,
		path:   path,
		logger: log,
	}
}

// Name returns the job name.
func (j *NamesRefreshJob) Name() string {
	return "names:refresh"
}

// Schedule returns the cron schedule, Mondays 08:30 before the open.
func (j *NamesRefreshJob) Schedule() string {
	return "0 30 8 * * 1"
}

// Run fetches the full instrument list and rewrites the name table.
func (j *NamesRefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting name table refresh")

	ids, err := j.client.FetchAllNames(ctx)
	if err != nil {
		return fmt.Errorf("fetch names: %w", err)
	}

	if err := store.SaveNames(j.path, ids); err != nil {
		return fmt.Errorf("save names: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"count": len(ids),
		"path":  j.path,
	}).Info("Name table refreshed")

	return nil
}
