package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luheng/fupan/internal/store"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "查询运行历史",
	Long: `列出最近的扫描运行记录。

每条记录包含运行 ID、策略、时间和各项统计。
运行 ID 可用于 API 查询命中明细:
  GET /api/runs/{id}/verdicts

Example:
  go run ./cmd/fupan history
  go run ./cmd/fupan history --limit 10
  go run ./cmd/fupan history prune --days 30`,
	RunE: runHistory,
}

// historyPruneCmd represents the prune subcommand
var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "清理过期运行记录",
	Long: `删除早于保留期的运行记录及其命中明细。

Example:
  go run ./cmd/fupan history prune
  go run ./cmd/fupan history prune --days 30`,
	RunE: runHistoryPrune,
}

var (
	// History flags
	historyLimit int
	pruneDays    int
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPruneCmd)

	// Flags
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "显示的记录条数")
	historyPruneCmd.Flags().IntVar(&pruneDays, "days", 90, "保留天数")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	history, err := store.OpenHistory(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer history.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runs, err := history.RecentRuns(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("暂无运行记录。")
		return nil
	}

	fmt.Printf("%-36s %-14s %-19s %7s %5s %5s %5s  %s\n",
		"RUN ID", "PROFILE", "RUN AT", "SCAN", "HIT", "EXCL", "FAIL", "ARTIFACT")
	for _, r := range runs {
		fmt.Printf("%-36s %-14s %-19s %7d %5d %5d %5d  %s\n",
			r.ID, r.Profile, r.RunAt.Format("2006-01-02 15:04:05"),
			r.Scanned, r.Matched, r.Excluded, r.Failed, r.ArtifactPath)
	}
	fmt.Printf("\n共 %d 条记录\n", len(runs))

	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Fupan 历史清理 ===")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}

	history, err := store.OpenHistory(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("❌ Failed to open history: %w", err)
	}
	defer history.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-time.Duration(pruneDays) * 24 * time.Hour)
	fmt.Printf("📊 保留最近 %d 天，清理 %s 之前的记录\n", pruneDays, cutoff.Format("2006-01-02"))

	pruned, err := history.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("❌ Failed to prune history: %w", err)
	}

	if pruned == 0 {
		fmt.Println("✅ No data to clean up")
		return nil
	}

	fmt.Printf("✅ Deleted %d run(s)\n", pruned)
	fmt.Println("\n✅ Cleanup complete!")

	return nil
}
