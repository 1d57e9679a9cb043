// Package ingestion loads quiz questions into the question bank.
//
// Question files are JSON, either a bare array of questions or an object
// with a "questions" array:
//
//	[{"subject": "Physics", "chapter": "Oscillations", "question": "...",
//	  "options": [{"text": "...", "correct": true}, ...],
//	  "explanation": "...", "difficulty": "easy"}]
//
// A file is validated as a whole and committed in one transaction, so a
// single bad question rejects the file. Questions without an "id" get a
// stable one derived from subject, chapter and text, which makes
// re-importing a file idempotent.
package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Dark-debug/jeebot/internal/database"
	"github.com/Mr-Dark-debug/jeebot/internal/logger"
	"github.com/Mr-Dark-debug/jeebot/pkg/timeutil"
)

// questionNamespace seeds the derived IDs of questions that have none.
var questionNamespace = uuid.MustParse("6f1c7e0a-3b59-4d1e-9a51-6a3f0b8e2c47")

// Importer defines the interface for the question import service.
type Importer interface {
	// ImportFile parses and stores one question file.
	ImportFile(path string) (int, error)
	// ImportDir imports every *.json file directly inside dir.
	ImportDir(dir string) (int, error)
	// Watch imports question files in dir as they are created or changed.
	Watch(ctx context.Context, dir string) error
	// Metrics returns the current import counters.
	Metrics() ImportMetrics
}

// ImportMetrics tracks throughput and error rates.
type ImportMetrics struct {
	FilesImported     int64 `json:"files_imported"`
	QuestionsImported int64 `json:"questions_imported"`
	ErrorCount        int64 `json:"error_count"`
	LastImport        int64 `json:"last_import"` // Unix nanoseconds, 0 if none
	Uptime            int64 `json:"uptime_seconds"`
}

// Config holds configuration for the importer.
type Config struct {
	// Debounce is how long a file must stay unchanged before a watched
	// import picks it up.
	Debounce time.Duration `json:"debounce"`

	// PollInterval is how often pending watched files are checked.
	PollInterval time.Duration `json:"poll_interval"`

	// MaxFileSize rejects question files larger than this many bytes.
	MaxFileSize int64 `json:"max_file_size"`
}

// DefaultConfig returns sensible defaults for the importer.
func DefaultConfig() Config {
	return Config{
		Debounce:     300 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
		MaxFileSize:  10 * 1024 * 1024,
	}
}

// questionFile is the object form of a question file.
type questionFile struct {
	Questions []*database.Question `json:"questions"`
}

// FileImporter is the production implementation of the Importer interface.
type FileImporter struct {
	config  Config
	store   database.Store
	metrics ImportMetrics
	started time.Time
}

// NewFileImporter creates an importer writing into store.
func NewFileImporter(config Config, store database.Store) *FileImporter {
	return &FileImporter{
		config:  config,
		store:   store,
		started: time.Now(),
	}
}

// Parse decodes a question file and validates every question in it.
func Parse(data []byte) ([]*database.Question, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty question file")
	}

	var qs []*database.Question
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &qs); err != nil {
			return nil, fmt.Errorf("decoding question array: %w", err)
		}
	case '{':
		var f questionFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decoding question file: %w", err)
		}
		qs = f.Questions
	default:
		return nil, errors.New("question file must be a JSON array or object")
	}

	for i, q := range qs {
		if q == nil {
			return nil, fmt.Errorf("question %d: null entry", i)
		}
		q.Subject = strings.TrimSpace(q.Subject)
		q.Chapter = strings.TrimSpace(q.Chapter)
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		if q.QuestionID == "" {
			q.QuestionID = questionID(q)
		}
	}
	return qs, nil
}

func questionID(q *database.Question) string {
	key := q.Subject + "\x00" + q.Chapter + "\x00" + q.Text
	return uuid.NewSHA1(questionNamespace, []byte(key)).String()
}

// ImportFile parses path and stores its questions in one batch.
func (im *FileImporter) ImportFile(path string) (int, error) {
	n, err := im.importFile(path)
	if err != nil {
		atomic.AddInt64(&im.metrics.ErrorCount, 1)
		return 0, err
	}
	atomic.AddInt64(&im.metrics.FilesImported, 1)
	atomic.AddInt64(&im.metrics.QuestionsImported, int64(n))
	atomic.StoreInt64(&im.metrics.LastImport, timeutil.NowNano())
	logger.L.Info("imported question file", "path", path, "questions", n)
	return n, nil
}

func (im *FileImporter) importFile(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if im.config.MaxFileSize > 0 && info.Size() > im.config.MaxFileSize {
		return 0, fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), im.config.MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	qs, err := Parse(data)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(qs) == 0 {
		return 0, nil
	}
	if err := im.store.BatchInsertQuestions(qs); err != nil {
		return 0, fmt.Errorf("storing %s: %w", path, err)
	}
	return len(qs), nil
}

// ImportDir imports every *.json file directly inside dir, in name order.
// A bad file is logged and skipped; the returned error joins all failures.
func (im *FileImporter) ImportDir(dir string) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(paths)

	total := 0
	var errs []error
	for _, p := range paths {
		n, err := im.ImportFile(p)
		if err != nil {
			logger.L.Error("skipping question file", "path", p, "error", err)
			errs = append(errs, err)
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}

// Metrics returns a snapshot of the current import metrics.
func (im *FileImporter) Metrics() ImportMetrics {
	return ImportMetrics{
		FilesImported:     atomic.LoadInt64(&im.metrics.FilesImported),
		QuestionsImported: atomic.LoadInt64(&im.metrics.QuestionsImported),
		ErrorCount:        atomic.LoadInt64(&im.metrics.ErrorCount),
		LastImport:        atomic.LoadInt64(&im.metrics.LastImport),
		Uptime:            int64(time.Since(im.started).Seconds()),
	}
}
