package ingestion

import (
	_ "embed"
	"fmt"

	"github.com/Mr-Dark-debug/jeebot/internal/database"
	"github.com/Mr-Dark-debug/jeebot/internal/logger"
)

//go:embed seed.json
var seedJSON []byte

// SeedQuestions returns the built-in question set.
func SeedQuestions() ([]*database.Question, error) {
	qs, err := Parse(seedJSON)
	if err != nil {
		return nil, fmt.Errorf("parsing seed questions: %w", err)
	}
	return qs, nil
}

// Seed loads the built-in questions when the bank is empty and reports
// how many were added.
func Seed(store database.Store) (int, error) {
	n, err := store.CountQuestions()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	qs, err := SeedQuestions()
	if err != nil {
		return 0, err
	}
	if err := store.BatchInsertQuestions(qs); err != nil {
		return 0, fmt.Errorf("storing seed questions: %w", err)
	}
	logger.L.Info("seeded question bank", "questions", len(qs))
	return len(qs), nil
}
