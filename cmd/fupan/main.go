package main

import (
	"os"

	"github.com/luheng/fupan/cmd/fupan/commands"
)

// main is the entry point for the fupan CLI
// ⭐ 统一入口: go run ./cmd/fupan [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
