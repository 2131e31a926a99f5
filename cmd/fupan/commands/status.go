package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luheng/fupan/internal/store"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "环境自检",
	Long: `检查扫描运行所需的环境并显示摘要。

这个命令会:
- 加载配置
- 统计数据目录里的日线 CSV
- 检查股票名称表
- 打开历史数据库并显示最近一次运行

Example:
  go run ./cmd/fupan status
  go run ./cmd/fupan status --env production`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Fupan 环境自检 ===")

	problems := 0

	// Configuration
	fmt.Println("Loading configuration...")
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Data dir:   %s\n", cfg.DataDir)
	fmt.Printf("   Output dir: %s\n", cfg.OutputDir)
	fmt.Printf("   Names file: %s\n", cfg.NamesFile)
	fmt.Printf("   History DB: %s\n\n", cfg.HistoryDB)

	// Bar data
	fmt.Println("Checking bar data...")
	files, err := store.ListBarFiles(cfg.DataDir)
	if err != nil {
		fmt.Printf("❌ %v\n\n", err)
		problems++
	} else {
		fmt.Printf("✅ %d 个日线 CSV 文件\n\n", len(files))
	}

	// Name table
	fmt.Println("Checking name table...")
	names, err := store.LoadNames(cfg.NamesFile)
	switch {
	case errors.Is(err, store.ErrNamesMissing):
		fmt.Printf("⚠️  名称表不存在 (%s)，可先运行: fupan names\n\n", cfg.NamesFile)
	case err != nil:
		fmt.Printf("❌ %v\n\n", err)
		problems++
	default:
		fmt.Printf("✅ %d 条股票名称记录\n\n", len(names))
	}

	// Run history
	fmt.Println("Checking run history...")
	history, err := store.OpenHistory(cfg.HistoryDB)
	if err != nil {
		fmt.Printf("❌ %v\n\n", err)
		problems++
	} else {
		defer history.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		runs, err := history.RecentRuns(ctx, 1)
		switch {
		case err != nil:
			fmt.Printf("❌ %v\n\n", err)
			problems++
		case len(runs) == 0:
			fmt.Print("✅ 历史库正常，暂无运行记录\n\n")
		default:
			r := runs[0]
			fmt.Printf("✅ 历史库正常，最近一次运行: %s (%s, 命中 %d)\n\n",
				r.RunAt.Format("2006-01-02 15:04:05"), r.Profile, r.Matched)
		}
	}

	if problems > 0 {
		return fmt.Errorf("❌ %d 项检查未通过", problems)
	}

	fmt.Println("✅ All checks passed!")
	return nil
}
