package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/luheng/fupan/pkg/config"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fupan",
	Short: "Fupan - A股每日复盘扫描工具",
	Long: `Fupan Unified CLI

基于日线 CSV 数据的 A股复盘扫描工具。
内置"龙回头"和"缩量见底"两个筛选策略，并提供
定时扫描、名称表刷新和结果查询 API。

Usage:
  go run ./cmd/fupan [command]

Examples:
  go run ./cmd/fupan scan
  go run ./cmd/fupan scan --profile volumebottom
  go run ./cmd/fupan watch
  go run ./cmd/fupan serve
  go run ./cmd/fupan history --limit 10`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig applies the global flags and reads the configuration. An
// explicit --config file overrides the inherited environment; --env and
// --verbose are applied after it and win over both.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Overload(configFile); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}
	if env != "" {
		os.Setenv("ENV", env)
	}
	if verbose {
		os.Setenv("LOG_LEVEL", "debug")
	}
	return config.Load()
}
