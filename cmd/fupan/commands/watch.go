package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luheng/fupan/internal/external/eastmoney"
	"github.com/luheng/fupan/internal/scan"
	"github.com/luheng/fupan/internal/scheduler"
	"github.com/luheng/fupan/internal/scheduler/jobs"
	"github.com/luheng/fupan/internal/store"
	"github.com/luheng/fupan/internal/strategy"
	"github.com/luheng/fupan/pkg/httputil"
	"github.com/luheng/fupan/pkg/logger"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "启动定时复盘守护进程",
	Long: `启动定时任务守护进程，按交易日计划自动复盘。

注册的任务:
- scan:dragonback  - 工作日 15:30 (龙回头复盘)
- scan:volumebottom - 工作日 16:00 (缩量见底扫描)
- names:refresh    - 每周一 08:30 (刷新股票名称表)
- history:prune    - 每天 03:00 (清理过期运行记录)

守护进程可以用 Ctrl+C 终止。

Example:
  go run ./cmd/fupan watch`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Fupan 定时复盘 ===")

	sched, history, err := initWatch()
	if err != nil {
		return fmt.Errorf("init watch: %w", err)
	}
	defer history.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	printJobStats(sched)
	fmt.Println("Scheduler stopped")

	return nil
}

func initWatch() (*scheduler.Scheduler, *store.History, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Open run history
	history, err := store.OpenHistory(cfg.HistoryDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}

	// 4. Create scanner
	scanner := scan.New(scan.Config{
		DataDir:   cfg.DataDir,
		OutputDir: cfg.OutputDir,
		NamesFile: cfg.NamesFile,
		Workers:   cfg.Workers,
	}, history, log)

	// 5. Create HTTP client. The quote provider enforces per-IP limits;
	// 5 req/s stays well under them.
	httpClient := httputil.New(cfg, log).WithRateLimit(5, 1)

	// 6. Create quote provider client
	emClient := eastmoney.NewClient(httpClient, log, cfg.EastmoneyBaseURL)

	// 7. Create scheduler and register jobs
	sched := scheduler.New(log)
	for _, job := range []scheduler.Job{
		jobs.NewScanJob(scanner, strategy.DragonBack(), jobs.ScheduleDragonBack, log),
		jobs.NewScanJob(scanner, strategy.VolumeBottom(), jobs.ScheduleVolumeBottom, log),
		jobs.NewNamesRefreshJob(emClient, cfg.NamesFile, log),
		jobs.NewHistoryPruneJob(history, 0, log),
	} {
		if err := sched.AddJob(job); err != nil {
			history.Close()
			return nil, nil, fmt.Errorf("register job: %w", err)
		}
	}

	return sched, history, nil
}

func printJobStats(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	if len(stats) == 0 {
		return
	}

	fmt.Println("\nJob Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}
}
