// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"
	"fmt"

	"github.com/luheng/fupan/internal/scan"
	"github.com/luheng/fupan/internal/strategy"
	"github.com/luheng/fupan/pkg/logger"
)

// Weekday schedules bracket the mainland close: the support-retest scan
// fires at 15:30 CST once the day's bars are final, the contraction
// scan half an hour later.
const (
	ScheduleDragonBack   = "0 30 15 * * 1-5"
	ScheduleVolumeBottom = "0 0 16 * * 1-5"
)

// ScanJob runs one screening profile on a fixed schedule.
type ScanJob struct {
	scanner  *scan.Scanner
	profile  *strategy.Profile
	schedule string
	logger   *logger.Logger
}

// NewScanJob creates a scan job for one profile.
func NewScanJob(scanner *scan.Scanner, p *strategy.Profile, schedule string, log *logger.Logger) *ScanJob {
	return &ScanJob{
		scanner:  scanner,
		profile:  p,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name.
func (j *ScanJob) Name() string {
	return "scan:" + j.profile.Name
}

// Schedule returns the cron schedule.
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan.
func (j *ScanJob) Run(ctx context.Context) error {
	j.logger.WithField("profile", j.profile.Name).Info("Starting scheduled scan")

	rs, err := j.scanner.Run(ctx, j.profile)
	if err != nil {
		return fmt.Errorf("scan %s: %w", j.profile.Name, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"profile":  j.profile.Name,
		"scanned":  rs.Scanned,
		"matched":  rs.Matched,
		"artifact": rs.ArtifactPath,
	}).Info("Scheduled scan completed")

	return nil
}
