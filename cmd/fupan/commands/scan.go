package commands

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/luheng/fupan/internal/contracts"
	"github.com/luheng/fupan/internal/scan"
	"github.com/luheng/fupan/internal/store"
	"github.com/luheng/fupan/internal/strategy"
	"github.com/luheng/fupan/pkg/config"
	"github.com/luheng/fupan/pkg/logger"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "执行一次复盘扫描",
	Long: `对数据目录里的全部日线 CSV 执行一次复盘扫描。

这个命令会:
- 加载股票名称表
- 并行评估每只股票
- 打印命中结果并写出 CSV 归档
- 将本次运行记入历史数据库

内置策略:
  dragonback   - 龙回头 (支撑位回踩, 取前5名)
  volumebottom - 缩量见底 (全部命中)

Example:
  go run ./cmd/fupan scan
  go run ./cmd/fupan scan --profile volumebottom
  go run ./cmd/fupan scan --data ./stock_data --out ./output
  go run ./cmd/fupan scan --profile-file my_profile.yaml`,
	RunE: runScan,
}

var (
	// Scan flags
	scanProfile     string
	scanDataDir     string
	scanOutputDir   string
	scanNamesFile   string
	scanWorkers     int
	scanProfileFile string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	// Flags
	scanCmd.Flags().StringVar(&scanProfile, "profile", "dragonback", "内置策略名 (dragonback|volumebottom)")
	scanCmd.Flags().StringVar(&scanDataDir, "data", "", "日线 CSV 数据目录")
	scanCmd.Flags().StringVar(&scanOutputDir, "out", "", "结果输出目录")
	scanCmd.Flags().StringVar(&scanNamesFile, "names", "", "股票名称表 CSV")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "并行评估的工作协程数 (0 = CPU*2)")
	scanCmd.Flags().StringVar(&scanProfileFile, "profile-file", "", "YAML 策略文件 (优先于 --profile)")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Fupan 复盘扫描 ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flag overrides
	if scanDataDir != "" {
		cfg.DataDir = scanDataDir
	}
	if scanOutputDir != "" {
		cfg.OutputDir = scanOutputDir
	}
	if scanNamesFile != "" {
		cfg.NamesFile = scanNamesFile
	}
	if scanWorkers > 0 {
		cfg.Workers = scanWorkers
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Resolve the profile
	p, err := resolveProfile(cfg)
	if err != nil {
		return fmt.Errorf("resolve profile: %w", err)
	}

	fmt.Printf("Profile: %s\n", p.Name)
	fmt.Printf("Data:    %s\n", cfg.DataDir)

	// 4. Open run history. A broken history file degrades to an
	// unrecorded run instead of blocking the scan.
	history, err := store.OpenHistory(cfg.HistoryDB)
	if err != nil {
		log.WithError(err).Warn("Run history disabled")
		history = nil
	} else {
		defer history.Close()
	}

	// 5. Create scanner
	scanner := scan.New(scan.Config{
		DataDir:   cfg.DataDir,
		OutputDir: cfg.OutputDir,
		NamesFile: cfg.NamesFile,
		Workers:   cfg.Workers,
	}, history, log)

	// 6. Run
	rs, err := scanner.Run(context.Background(), p)
	if err != nil {
		return err
	}

	printResults(rs, p)
	fmt.Printf("\n📊 扫描 %d | 命中 %d | 排除 %d | 失败 %d\n",
		rs.Scanned, rs.Matched, rs.Excluded, rs.Failed)
	return nil
}

// resolveProfile picks the profile for this run. An explicit YAML file
// (--profile-file, falling back to SCAN_PROFILE_FILE) beats the
// built-in named by --profile.
func resolveProfile(cfg *config.Config) (*strategy.Profile, error) {
	path := scanProfileFile
	if path == "" {
		path = cfg.ProfileFile
	}
	if path != "" {
		return strategy.Load(path)
	}
	return strategy.ByName(scanProfile)
}

func printResults(rs *contracts.ResultSet, p *strategy.Profile) {
	if p.Kind == strategy.KindContractionAtLow {
		printContractionResults(rs)
		return
	}

	if len(rs.Verdicts) == 0 {
		fmt.Println("\n复盘完成：今日没有符合条件的股票。")
		return
	}

	fmt.Println()
	fmt.Printf("%-8s %-10s %10s %10s %6s  %s\n",
		"代码", "名称", "最新价", "支撑价", "评分", "操作建议")
	for _, v := range rs.Verdicts {
		fmt.Printf("%-8s %-10s %10.2f %10.2f %6d  %s\n",
			v.Code, v.Name, v.LatestClose, v.SupportPrice, v.Score, v.Advice)
	}
	fmt.Printf("\n复盘完成，选出 %d 只潜力股。结果已保存至 %s\n",
		len(rs.Verdicts), rs.ArtifactPath)
}

func printContractionResults(rs *contracts.ResultSet) {
	if len(rs.Verdicts) == 0 {
		fmt.Println("\n扫描完成：没有股票满足筛选条件。")
		fmt.Printf("已创建空结果文件: %s\n", rs.ArtifactPath)
		return
	}

	fmt.Println("\n--- 筛选结果 ---")
	fmt.Printf("%-8s %-10s %10s %14s %14s %10s\n",
		"代码", "名称", "最新价", "最新成交量", "120日最大量", "低位阈值")
	for _, v := range rs.Verdicts {
		fmt.Printf("%-8s %-10s %10.2f %14s %14s %10.4f\n",
			v.Code, v.Name, v.LatestClose,
			humanize.Comma(int64(v.LatestVolume)),
			humanize.Comma(int64(v.MaxVolume)),
			v.LowThreshold)
	}
	fmt.Printf("\n扫描完成，共找到 %d 只满足条件的股票。\n", rs.Matched)
	fmt.Printf("结果已保存到: %s\n", rs.ArtifactPath)
}
