// jeebot-tui is the interactive study assistant: a dashboard, a quiz
// viewer and a chat with typed-out replies.
//
// Usage:
//
//	jeebot-tui [flags]
//
// Flags:
//
//	--db    Path to SQLite database file (default: ~/.jeebot/jeebot.db)
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/Mr-Dark-debug/jeebot/internal/chat"
	"github.com/Mr-Dark-debug/jeebot/internal/config"
	"github.com/Mr-Dark-debug/jeebot/internal/database"
	"github.com/Mr-Dark-debug/jeebot/internal/ingestion"
	"github.com/Mr-Dark-debug/jeebot/internal/logger"
	"github.com/Mr-Dark-debug/jeebot/internal/ocr"
	"github.com/Mr-Dark-debug/jeebot/internal/tui"
)

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if err := run(os.Args[1:], runProgram); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run sets up the log file, the store and the chat backend, then hands the
// model to launch. Everything it opens is closed before it returns.
func run(args []string, launch func(tea.Model) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("jeebot-tui", flag.ContinueOnError)
	dbPath := fs.String("db", cfg.Database.Path, "Path to SQLite database file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	logger.SetLevel(cfg.Log.Level)
	logFile, err := logger.OpenFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() {
		logger.SetOutput(os.Stderr)
		logFile.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	store, err := database.NewDBService(*dbPath)
	if err != nil {
		return fmt.Errorf("opening database at %s: %w", *dbPath, err)
	}
	defer store.Close()

	if _, err := ingestion.Seed(store); err != nil {
		return err
	}

	responder, err := chat.NewResponder(cfg.Chat)
	if err != nil {
		return err
	}

	model := tui.NewModel(tui.Options{
		Store:       store,
		Responder:   responder,
		Recognizer:  ocr.NewTesseract(cfg.OCR.Command, cfg.OCR.Language, cfg.OCR.Timeout),
		RevealDelay: cfg.Reveal.Delay,
	})

	logger.L.Info("tui started", "db", *dbPath, "provider", cfg.Chat.Provider)
	if err := launch(model); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runProgram(model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
