// Package store is the I/O layer of the scanner: per-instrument bar
// histories and the name table come in as CSV files, scan results go
// out as dated CSV artifacts, and past runs are recorded in a local
// SQLite database. Nothing here interprets the data; the screening
// rules live in internal/strategy.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/luheng/fupan/internal/contracts"
)

// ErrNoBarFiles is returned when the data directory holds no bar
// histories at all. This is the one per-run error a scan cannot absorb.
var ErrNoBarFiles = errors.New("no bar files found")

// Column header variants accepted in bar CSVs. Exports from the usual
// Chinese data vendors carry the Chinese set; hand-built fixtures and
// converted data carry the English one. Extra columns are ignored.
var (
	dateHeaders   = []string{"日期", "date"}
	openHeaders   = []string{"开盘", "open"}
	closeHeaders  = []string{"收盘", "close"}
	volumeHeaders = []string{"成交量", "volume"}
)

// ListBarFiles returns every bar CSV under dir, sorted by path. An
// absent directory or one without CSVs yields ErrNoBarFiles.
func ListBarFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list bar files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoBarFiles, dir)
	}
	sort.Strings(files)
	return files, nil
}

// CodeFromFilename derives the instrument code from a bar file path:
// the base name up to the first dot, left-padded to six digits, so
// both "1.csv" and "600519.SS.csv" resolve cleanly.
func CodeFromFilename(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return contracts.NormalizeCode(base)
}

// LoadBarSeries reads one instrument's daily bars from a CSV file and
// returns them ascending by date. Bad rows are not skipped: any missing
// column, unparsable value or duplicate date fails the whole file, and
// the caller records the instrument as failed.
func LoadBarSeries(path string) (contracts.BarSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()

	series, err := ParseBarCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return series, nil
}

// ParseBarCSV decodes a bar history from r. Exposed separately so tests
// and future non-file sources can reuse the parser.
func ParseBarCSV(r io.Reader) (contracts.BarSeries, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	dateIdx, err := findColumn(header, dateHeaders)
	if err != nil {
		return nil, err
	}
	openIdx, err := findColumn(header, openHeaders)
	if err != nil {
		return nil, err
	}
	closeIdx, err := findColumn(header, closeHeaders)
	if err != nil {
		return nil, err
	}
	volumeIdx, err := findColumn(header, volumeHeaders)
	if err != nil {
		return nil, err
	}

	var series contracts.BarSeries
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bar, err := parseBar(record, dateIdx, openIdx, closeIdx, volumeIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		series = append(series, bar)
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	for i := 1; i < len(series); i++ {
		if series[i].Date.Equal(series[i-1].Date) {
			return nil, fmt.Errorf("duplicate date %s", series[i].Date.Format("2006-01-02"))
		}
	}
	return series, nil
}

func parseBar(record []string, dateIdx, openIdx, closeIdx, volumeIdx int) (contracts.Bar, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(record[dateIdx]))
	if err != nil {
		return contracts.Bar{}, fmt.Errorf("parse date: %w", err)
	}
	open, err := parseField(record[openIdx], "open")
	if err != nil {
		return contracts.Bar{}, err
	}
	cls, err := parseField(record[closeIdx], "close")
	if err != nil {
		return contracts.Bar{}, err
	}
	volume, err := parseField(record[volumeIdx], "volume")
	if err != nil {
		return contracts.Bar{}, err
	}
	return contracts.Bar{Date: date, Open: open, Close: cls, Volume: volume}, nil
}

func parseField(s, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative %s %v", name, v)
	}
	return v, nil
}

// findColumn locates the first header cell matching any accepted name.
// English names match case-insensitively.
func findColumn(header, names []string) (int, error) {
	for i, cell := range header {
		cell = strings.TrimSpace(cell)
		for _, name := range names {
			if cell == name || strings.EqualFold(cell, name) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("missing column %q", names[0])
}
