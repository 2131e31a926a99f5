package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/luheng/fupan/internal/api"
	"github.com/luheng/fupan/internal/api/handlers"
	"github.com/luheng/fupan/internal/scan"
	"github.com/luheng/fupan/internal/store"
	"github.com/luheng/fupan/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动结果查询 API 服务",
	Long: `启动 REST API 服务。

这个命令会:
- 启动 HTTP API 服务
- 提供运行历史查询端点
- 提供手动触发扫描端点

Endpoints:
  GET  /health                  - Health check
  GET  /api/runs                - 最近的运行记录
  GET  /api/runs/{id}/verdicts  - 某次运行的命中明细
  POST /api/scan                - 触发一次扫描

Example:
  go run ./cmd/fupan serve
  go run ./cmd/fupan serve --port 8087`,
	RunE: runServe,
}

var (
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().IntVar(&servePort, "port", 0, "API 服务端口 (默认取 PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Fupan API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if servePort > 0 {
		cfg.Port = servePort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Open run history
	history, err := store.OpenHistory(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer history.Close()

	log.Info("Run history opened")

	// 4. Create scanner (backs POST /api/scan)
	scanner := scan.New(scan.Config{
		DataDir:   cfg.DataDir,
		OutputDir: cfg.OutputDir,
		NamesFile: cfg.NamesFile,
		Workers:   cfg.Workers,
	}, history, log)

	// 5. Create handler
	runsHandler := handlers.NewRunsHandler(scanner, history, log)

	// 6. Create router
	router := api.NewRouter(runsHandler, log)

	// 7. Create server
	server := api.New(cfg, log, router)

	// 8. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%d\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/runs")
	fmt.Println("  GET  /api/runs/{id}/verdicts")
	fmt.Println("  POST /api/scan")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
