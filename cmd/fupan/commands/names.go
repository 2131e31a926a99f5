package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luheng/fupan/internal/external/eastmoney"
	"github.com/luheng/fupan/internal/store"
	"github.com/luheng/fupan/pkg/httputil"
	"github.com/luheng/fupan/pkg/logger"
)

// namesCmd represents the names command
var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "刷新股票名称表",
	Long: `从行情接口拉取全部 A股代码和名称，保存为扫描用的名称表 CSV。

JSON 接口失效时会自动回退到行情中心页面抓取。

Example:
  go run ./cmd/fupan names
  go run ./cmd/fupan names --out ./stock_names.csv`,
	RunE: runNames,
}

var (
	namesOut string
)

func init() {
	rootCmd.AddCommand(namesCmd)

	// Flags
	namesCmd.Flags().StringVar(&namesOut, "out", "", "名称表输出路径 (默认取 SCAN_NAMES_FILE)")
}

func runNames(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Fupan 名称表刷新 ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}

	out := namesOut
	if out == "" {
		out = cfg.NamesFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Create rate-limited HTTP client
	httpClient := httputil.New(cfg, log).WithRateLimit(5, 1)
	emClient := eastmoney.NewClient(httpClient, log, cfg.EastmoneyBaseURL)

	// 4. Fetch the full listing
	fmt.Println("正在从行情接口拉取股票列表...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ids, err := emClient.FetchAllNames(ctx)
	if err != nil {
		return fmt.Errorf("❌ Failed to fetch names: %w", err)
	}
	fmt.Printf("✅ 共获取 %d 条股票名称记录\n", len(ids))

	// 5. Save the name table
	if err := store.SaveNames(out, ids); err != nil {
		return fmt.Errorf("❌ Failed to save names: %w", err)
	}
	fmt.Printf("✅ 名称表已保存到: %s\n", out)

	return nil
}
