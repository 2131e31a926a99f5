package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestListBarFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "600519.csv", "x")
	writeFile(t, dir, "000001.csv", "x")
	writeFile(t, dir, "notes.txt", "x")

	files, err := ListBarFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "000001.csv", filepath.Base(files[0]))
	assert.Equal(t, "600519.csv", filepath.Base(files[1]))
}

func TestListBarFilesEmpty(t *testing.T) {
	_, err := ListBarFiles(t.TempDir())
	assert.ErrorIs(t, err, ErrNoBarFiles)

	_, err = ListBarFiles(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, ErrNoBarFiles)
}

func TestCodeFromFilename(t *testing.T) {
	assert.Equal(t, "600519", CodeFromFilename("/data/600519.csv"))
	assert.Equal(t, "600519", CodeFromFilename("600519.SS.csv"))
	assert.Equal(t, "000001", CodeFromFilename("1.csv"))
}

func TestParseBarCSVChineseHeaders(t *testing.T) {
	csv := "日期,开盘,收盘,最高,最低,成交量\n" +
		"2026-01-06,10.2,10.5,10.8,10.1,120000\n" +
		"2026-01-05,10.0,10.2,10.4,9.9,100000\n"

	series, err := ParseBarCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, series, 2)

	// Rows come back ascending regardless of file order.
	assert.Equal(t, "2026-01-05", series[0].Date.Format("2006-01-02"))
	assert.InDelta(t, 10.0, series[0].Open, 1e-9)
	assert.InDelta(t, 10.2, series[0].Close, 1e-9)
	assert.InDelta(t, 100000, series[0].Volume, 1e-9)
	assert.Equal(t, "2026-01-06", series[1].Date.Format("2006-01-02"))
}

func TestParseBarCSVEnglishHeadersWithBOM(t *testing.T) {
	csv := "\xef\xbb\xbfDate,Open,Close,Volume\n" +
		"2026-01-05,10.0,10.2,100000\n"

	series, err := ParseBarCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.InDelta(t, 10.2, series[0].Close, 1e-9)
}

func TestParseBarCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{
			name:    "missing volume column",
			csv:     "日期,开盘,收盘\n2026-01-05,10.0,10.2\n",
			wantErr: "missing column",
		},
		{
			name:    "bad price",
			csv:     "日期,开盘,收盘,成交量\n2026-01-05,abc,10.2,100000\n",
			wantErr: "line 2",
		},
		{
			name:    "negative volume",
			csv:     "日期,开盘,收盘,成交量\n2026-01-05,10.0,10.2,-5\n",
			wantErr: "negative volume",
		},
		{
			name: "duplicate date",
			csv: "日期,开盘,收盘,成交量\n" +
				"2026-01-05,10.0,10.2,100000\n" +
				"2026-01-05,10.1,10.3,110000\n",
			wantErr: "duplicate date 2026-01-05",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBarCSV(strings.NewReader(tt.csv))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadBarSeries(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "600519.csv",
		"日期,开盘,收盘,成交量\n2026-01-05,10.0,10.2,100000\n")

	series, err := LoadBarSeries(path)
	require.NoError(t, err)
	assert.Len(t, series, 1)

	// Failures name the file so batch logs stay readable.
	bad := writeFile(t, dir, "000001.csv", "日期,开盘,收盘,成交量\n2026-01-05,x,1,1\n")
	_, err = LoadBarSeries(bad)
	assert.ErrorContains(t, err, "000001.csv")
}
