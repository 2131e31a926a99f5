package store

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/luheng/fupan/internal/contracts"
	"github.com/luheng/fupan/internal/strategy"
)

// utf8BOM prefixes every artifact so Excel decodes the Chinese names
// correctly when the file is opened by double-click.
const utf8BOM = "\xef\xbb\xbf"

// Artifact column sets, fixed per evaluation kind. The contraction
// layout keeps the historical capitalized headers; downstream sheets
// key on them.
var (
	supportRetestColumns = []string{
		"code", "name", "latest_close", "support_price", "signal_score", "operation_advice",
	}
	contractionColumns = []string{
		"Code", "Name", "Latest_Close", "Latest_Volume", "Max_Volume_120d", "Low_Price_40d_Threshold",
	}
)

// ArtifactPath returns where a run started at ts writes its result CSV.
// Support-retest runs group by month (<out>/2026-01/prefix_ts.csv);
// contraction runs nest year/month (<out>/2026/01/prefix_ts.csv). Both
// layouts match the existing result archives.
func ArtifactPath(outRoot string, p *strategy.Profile, ts time.Time) string {
	var dir string
	switch p.Kind {
	case strategy.KindContractionAtLow:
		dir = filepath.Join(outRoot, ts.Format("2006"), ts.Format("01"))
	default:
		dir = filepath.Join(outRoot, ts.Format("2006-01"))
	}
	name := fmt.Sprintf("%s_%s.csv", p.ArtifactPrefix, ts.Format("20060102_150405"))
	return filepath.Join(dir, name)
}

// WriteArtifact persists the ranked verdicts of one run and returns the
// path written. An empty verdict slice still writes the header row;
// callers decide whether a run without matches warrants a file at all.
func WriteArtifact(outRoot string, p *strategy.Profile, verdicts []contracts.Verdict, ts time.Time) (string, error) {
	path := ArtifactPath(outRoot, p, ts)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := bw.WriteString(utf8BOM); err != nil {
		return "", fmt.Errorf("write artifact BOM: %w", err)
	}

	w := csv.NewWriter(bw)
	var writeErr error
	switch p.Kind {
	case strategy.KindContractionAtLow:
		writeErr = writeContractionRows(w, verdicts)
	default:
		writeErr = writeSupportRetestRows(w, verdicts)
	}
	if writeErr != nil {
		return "", fmt.Errorf("write artifact rows: %w", writeErr)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush artifact: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("flush artifact: %w", err)
	}
	return path, nil
}

func writeSupportRetestRows(w *csv.Writer, verdicts []contracts.Verdict) error {
	if err := w.Write(supportRetestColumns); err != nil {
		return err
	}
	for _, v := range verdicts {
		row := []string{
			v.Code,
			v.Name,
			formatPrice(v.LatestClose),
			formatPrice(v.SupportPrice),
			strconv.Itoa(v.Score),
			v.Advice,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeContractionRows(w *csv.Writer, verdicts []contracts.Verdict) error {
	if err := w.Write(contractionColumns); err != nil {
		return err
	}
	for _, v := range verdicts {
		row := []string{
			v.Code,
			v.Name,
			formatPrice(v.LatestClose),
			formatVolume(v.LatestVolume),
			formatVolume(v.MaxVolume),
			formatThreshold(v.LowThreshold),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Prices print with the exchange's two decimals; volumes are whole
// share counts. The low threshold is a derived level, not a quote, so
// it keeps four decimals for manual comparison against intraday lows.
func formatPrice(v float64) string     { return strconv.FormatFloat(v, 'f', 2, 64) }
func formatVolume(v float64) string    { return strconv.FormatFloat(v, 'f', 0, 64) }
func formatThreshold(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
