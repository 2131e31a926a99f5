package jobs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luheng/fupan/internal/contracts"
	"github.com/luheng/fupan/internal/external/eastmoney"
	"github.com/luheng/fupan/internal/scan"
	"github.com/luheng/fupan/internal/store"
	"github.com/luheng/fupan/internal/strategy"
	"github.com/luheng/fupan/pkg/config"
	"github.com/luheng/fupan/pkg/httputil"
	"github.com/luheng/fupan/pkg/logger"
)

func TestScanJobNameAndSchedule(t *testing.T) {
	j := NewScanJob(nil, strategy.DragonBack(), ScheduleDragonBack, logger.Nop())
	assert.Equal(t, "scan:dragonback", j.Name())
	assert.Equal(t, "0 30 15 * * 1-5", j.Schedule())

	j = NewScanJob(nil, strategy.VolumeBottom(), ScheduleVolumeBottom, logger.Nop())
	assert.Equal(t, "scan:volumebottom", j.Name())
	assert.Equal(t, "0 0 16 * * 1-5", j.Schedule())
}

func TestScanJobRun(t *testing.T) {
	dataDir := t.TempDir()

	var b strings.Builder
	b.WriteString("日期,开盘,收盘,成交量\n")
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		volume := 50000
		if i == 20 {
			volume = 100000
		}
		if i == 29 {
			volume = 40000
		}
		fmt.Fprintf(&b, "%s,10.00,10.00,%d\n", base.AddDate(0, 0, i).Format("2006-01-02"), volume)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "600001.csv"), []byte(b.String()), 0o644))

	namesFile := filepath.Join(t.TempDir(), "stock_names.csv")
	require.NoError(t, os.WriteFile(namesFile, []byte("code,name\n600001,示例股份\n"), 0o644))

	scanner := scan.New(scan.Config{
		DataDir:   dataDir,
		OutputDir: t.TempDir(),
		NamesFile: namesFile,
		Workers:   1,
	}, nil, logger.Nop())

	j := NewScanJob(scanner, strategy.DragonBack(), ScheduleDragonBack, logger.Nop())
	require.NoError(t, j.Run(context.Background()))
}

func TestNamesRefreshJobRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pn") == "1" {
			fmt.Fprint(w, `{"data":{"total":1,"diff":[{"f12":"600519","f14":"贵州茅台"}]}}`)
			return
		}
		fmt.Fprint(w, `{"data":null}`)
	}))
	defer srv.Close()

	client := eastmoney.NewClient(
		httputil.New(&config.Config{Env: "development"}, logger.Nop()).DisableRetry(),
		logger.Nop(), srv.URL)

	path := filepath.Join(t.TempDir(), "stock_names.csv")
	j := NewNamesRefreshJob(client, path, logger.Nop())
	assert.Equal(t, "names:refresh", j.Name())
	require.NoError(t, j.Run(context.Background()))

	names, err := store.LoadNames(path)
	require.NoError(t, err)
	assert.Equal(t, "贵州茅台", names.Lookup("600519"))
}

func TestHistoryPruneJobRun(t *testing.T) {
	h, err := store.OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer h.Close()

	ctx := context.Background()
	old := &contracts.ResultSet{RunID: "run-old", Profile: "dragonback", RunAt: time.Now().AddDate(0, 0, -200)}
	fresh := &contracts.ResultSet{RunID: "run-new", Profile: "dragonback", RunAt: time.Now()}
	require.NoError(t, h.RecordRun(ctx, old, "h"))
	require.NoError(t, h.RecordRun(ctx, fresh, "h"))

	j := NewHistoryPruneJob(h, 0, logger.Nop())
	assert.Equal(t, "history:prune", j.Name())
	assert.Equal(t, DefaultRetention, j.retention)
	require.NoError(t, j.Run(ctx))

	runs, err := h.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-new", runs[0].ID)
}
