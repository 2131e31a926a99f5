// Package scan orchestrates one screening pass: list the bar files,
// pre-filter by code, fan the survivors out to evaluation workers,
// rank what matched and persist the artifact plus the run history.
package scan

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luheng/fupan/internal/contracts"
	"github.com/luheng/fupan/internal/selection"
	"github.com/luheng/fupan/internal/store"
	"github.com/luheng/fupan/internal/strategy"
	"github.com/luheng/fupan/pkg/logger"
)

// Config holds the scan inputs and tuning.
type Config struct {
	// DataDir holds one bar CSV per instrument.
	DataDir string
	// OutputDir is the root the dated artifact tree is written under.
	OutputDir string
	// NamesFile is the code-to-name CSV. Whether a missing file aborts
	// the run depends on the profile kind.
	NamesFile string
	// Workers sizes the evaluation pool. Zero means NumCPU*2.
	Workers int
}

// Scanner runs screening profiles over a directory of bar histories.
type Scanner struct {
	cfg     Config
	history *store.History
	logger  *logger.Logger
}

// New builds a Scanner. history may be nil; runs are then not recorded.
func New(cfg Config, history *store.History, log *logger.Logger) *Scanner {
	return &Scanner{
		cfg:     cfg,
		history: history,
		logger:  log.WithField("module", "scan"),
	}
}

// task is one instrument admitted past the filename pre-filter.
type task struct {
	path string
	code string
}

// Run executes profile p once and returns the ranked result set.
//
// Per-instrument problems never abort the batch; they surface as failed
// tallies. The errors returned here are batch-level: an invalid
// profile, an empty data directory, a required name table missing, an
// unwritable artifact or a cancelled context.
func (s *Scanner) Run(ctx context.Context, p *strategy.Profile) (*contracts.ResultSet, error) {
	if errs := p.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("profile %s invalid: %s (%d problem(s))", p.Name, errs[0], len(errs))
	}
	for _, w := range p.Warn() {
		s.logger.WithFields(map[string]interface{}{
			"profile": p.Name,
			"code":    w.Code,
		}).Warn(w.Message)
	}

	runAt := time.Now()

	files, err := store.ListBarFiles(s.cfg.DataDir)
	if err != nil {
		// The contraction scan files every run, even one that saw no
		// data, so downstream sheets notice the gap.
		if errors.Is(err, store.ErrNoBarFiles) && p.Kind == strategy.KindContractionAtLow {
			if path, werr := store.WriteArtifact(s.cfg.OutputDir, p, nil, runAt); werr != nil {
				s.logger.WithError(werr).Error("Failed to write empty artifact")
			} else {
				s.logger.WithField("artifact", path).Warn("No bar files; wrote empty artifact")
			}
		}
		return nil, err
	}

	names, err := s.loadNames(p)
	if err != nil {
		return nil, err
	}

	tasks := make([]task, 0, len(files))
	prefiltered := 0
	for _, path := range files {
		code := store.CodeFromFilename(path)
		if reason := p.Eligibility.CheckCode(code); reason != "" {
			prefiltered++
			continue
		}
		tasks = append(tasks, task{path: path, code: code})
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	s.logger.WithFields(map[string]interface{}{
		"profile":     p.Name,
		"files":       len(files),
		"prefiltered": prefiltered,
		"workers":     workers,
	}).Info("Starting scan")

	taskCh := make(chan task, len(tasks))
	outcomeCh := make(chan contracts.Outcome, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID, taskCh, outcomeCh, names, p)
		}(i)
	}

	for _, t := range tasks {
		taskCh <- t
	}
	close(taskCh)

	go func() {
		wg.Wait()
		close(outcomeCh)
	}()

	var verdicts []contracts.Verdict
	matched, excluded, failed := 0, prefiltered, 0
	processed := 0
	for out := range outcomeCh {
		processed++
		switch out.Status {
		case contracts.StatusMatched:
			matched++
			verdicts = append(verdicts, *out.Verdict)
		case contracts.StatusExcluded:
			excluded++
		case contracts.StatusFailed:
			failed++
			s.logger.WithError(out.Err).WithField("code", out.Code).Warn("Instrument failed evaluation")
		}
		if processed%500 == 0 {
			s.logger.WithFields(map[string]interface{}{
				"processed": processed,
				"total":     len(tasks),
			}).Info("Scan progress")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	ranked := selection.Rank(verdicts, p)

	rs := &contracts.ResultSet{
		RunID:    uuid.NewString(),
		Profile:  p.Name,
		RunAt:    runAt,
		Verdicts: ranked,
		Scanned:  len(files),
		Matched:  matched,
		Excluded: excluded,
		Failed:   failed,
	}

	// Support-retest runs only leave a file when something matched;
	// contraction runs always do.
	if p.Kind == strategy.KindContractionAtLow || len(ranked) > 0 {
		path, err := store.WriteArtifact(s.cfg.OutputDir, p, ranked, runAt)
		if err != nil {
			return nil, fmt.Errorf("write artifact: %w", err)
		}
		rs.ArtifactPath = path
	}

	if s.history != nil {
		if err := s.history.RecordRun(ctx, rs, p.Hash()); err != nil {
			s.logger.WithError(err).Warn("Failed to record run history")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id":   rs.RunID,
		"profile":  p.Name,
		"scanned":  rs.Scanned,
		"matched":  matched,
		"excluded": excluded,
		"failed":   failed,
		"duration": time.Since(runAt).Round(time.Millisecond).String(),
	}).Info("Scan completed")

	return rs, nil
}

// loadNames applies the per-profile name table policy: support-retest
// runs need real names in their report and abort without the table,
// contraction runs degrade to placeholder names.
func (s *Scanner) loadNames(p *strategy.Profile) (store.Names, error) {
	names, err := store.LoadNames(s.cfg.NamesFile)
	if err == nil {
		return names, nil
	}
	if p.Kind == strategy.KindSupportRetest {
		return nil, fmt.Errorf("load name table: %w", err)
	}
	s.logger.WithError(err).Warn("Name table unavailable; using placeholder names")
	return store.Names{}, nil
}

func (s *Scanner) worker(ctx context.Context, workerID int, taskCh <-chan task, outcomeCh chan<- contracts.Outcome, names store.Names, p *strategy.Profile) {
	for t := range taskCh {
		select {
		case <-ctx.Done():
			outcomeCh <- contracts.Failed(t.code, ctx.Err())
			return
		default:
		}

		series, err := store.LoadBarSeries(t.path)
		if err != nil {
			outcomeCh <- contracts.Failed(t.code, err)
			continue
		}

		id := contracts.Identity{Code: t.code, Name: names.Lookup(t.code)}
		out := strategy.Evaluate(series, id, p)
		if out.Status == contracts.StatusExcluded {
			s.logger.WithFields(map[string]interface{}{
				"worker": workerID,
				"code":   t.code,
				"reason": out.Reason,
			}).Debug("Instrument excluded")
		}
		outcomeCh <- out
	}
}
