package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/luheng/fupan/internal/store"
	"github.com/luheng/fupan/pkg/logger"
)

// DefaultRetention is how long run history is kept before pruning.
const DefaultRetention = 90 * 24 * time.Hour

// HistoryPruneJob deletes run records older than the retention window.
type HistoryPruneJob struct {
	history   *store.History
	retention time.Duration
	logger    *logger.Logger
}

// NewHistoryPruneJob creates a prune job. A non-positive retention
// falls back to DefaultRetention.
func NewHistoryPruneJob(history *store.History, retention time.Duration, log *logger.Logger) *HistoryPruneJob {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &HistoryPruneJob{
		history:   history,
		retention: retention,
		logger:    log,
	}
}

// Name returns the job name.
func (j *HistoryPruneJob) Name() string {
	return "history:prune"
}

// Schedule returns the cron schedule, daily at 03:00.
func (j *HistoryPruneJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run prunes history older than the retention window.
func (j *HistoryPruneJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.retention)

	pruned, err := j.history.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"pruned": pruned,
		"cutoff": cutoff.Format("2006-01-02"),
	}).Info("Run history pruned")

	return nil
}
