package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Dark-debug/jeebot/internal/database"
	"github.com/Mr-Dark-debug/jeebot/internal/tui"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JEEBOT_CHAT_PROVIDER", "offline")
	t.Setenv("JEEBOT_LOG_FILE", filepath.Join(dir, "logs", "tui.log"))
	return dir
}

func TestRunReturnsLaunchErrorAfterCleanup(t *testing.T) {
	dir := isolate(t)
	dbPath := filepath.Join(dir, "data", "bank.db")

	boom := errors.New("no terminal")
	var launched tea.Model
	err := run([]string{"--db", dbPath}, func(m tea.Model) error {
		launched = m
		return boom
	})

	require.ErrorIs(t, err, boom)
	require.IsType(t, tui.Model{}, launched)

	store, err := database.NewDBService(dbPath)
	require.NoError(t, err)
	defer store.Close()
	n, err := store.CountQuestions()
	require.NoError(t, err)
	require.Positive(t, n)

	log, err := os.ReadFile(filepath.Join(dir, "logs", "tui.log"))
	require.NoError(t, err)
	require.Contains(t, string(log), "tui started")
}

func TestRunReportsSetupFailure(t *testing.T) {
	dir := isolate(t)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	called := false
	err := run([]string{"--db", filepath.Join(blocker, "bank.db")}, func(tea.Model) error {
		called = true
		return nil
	})

	require.ErrorContains(t, err, "creating database directory")
	require.False(t, called)
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	isolate(t)
	err := run([]string{"--nope"}, func(tea.Model) error { return nil })
	require.Error(t, err)
}
