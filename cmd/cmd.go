// Package cmd provides the thoughtline CLI commands.
//
// Commands:
//   - serve: HTTP JSON API server
//   - backfill: embed records that are missing a vector
//   - migrate: run database migrations and exit
//
// Signal handling and graceful shutdown work through context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
)

// Execute is the main entry point for the thoughtline CLI.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "backfill":
		return runBackfill()
	case "migrate":
		return runMigrate()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Thoughtline - personal knowledge journal")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  thoughtline serve [addr]  Start the HTTP API server (default: 127.0.0.1:3001)")
	fmt.Println("  thoughtline backfill      Embed records still missing a vector")
	fmt.Println("  thoughtline migrate       Run database migrations and exit")
	fmt.Println("  thoughtline --version     Show version information")
	fmt.Println("  thoughtline --help        Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY            Required: Gemini API key")
	fmt.Println("  DATABASE_URL              Optional: overrides the postgres settings")
	fmt.Println("  DEBUG                     Optional: enable debug logging")
}
