// Package database provides the storage layer for the jeebot quiz bank.
//
// It implements the Store interface using SQLite with WAL mode and
// indexes for subject/chapter lookups and chronological attempt scans.
// The DBService struct is the primary entry point for all database
// operations.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound is returned when a question does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for quiz bank persistence.
// This abstraction allows for mocking in tests.
type Store interface {
	// InsertQuestion persists a question, replacing one with the same ID.
	InsertQuestion(q *Question) error
	// BatchInsertQuestions inserts multiple questions in a single transaction.
	BatchInsertQuestions(qs []*Question) error
	// CountQuestions returns the number of stored questions.
	CountQuestions() (int, error)

	// ListSubjects returns every subject with its chapters, alphabetically.
	ListSubjects() ([]Subject, error)
	// QueryQuestions returns questions matching the filter in insertion order.
	QueryQuestions(filter QuestionFilter) ([]*Question, error)
	// GetQuestion returns a single question with its options.
	GetQuestion(questionID string) (*Question, error)
	// SearchQuestions matches query against question text and explanation.
	SearchQuestions(query string, limit int) ([]*Question, error)

	// RecordAttempt grades and stores an answer to a question.
	RecordAttempt(a *Attempt) error
	// QueryAttempts returns attempts matching the filter, oldest first.
	QueryAttempts(filter AttemptFilter) ([]*Attempt, error)
	// GetSubjectStats returns aggregated statistics per subject.
	GetSubjectStats() ([]*SubjectStats, error)

	// Close gracefully shuts down the database connection.
	Close() error
}

// ============================================================
// Domain Models
// ============================================================

// Question is a multiple-choice question with exactly one correct option.
type Question struct {
	QuestionID  string   `json:"id"`
	Subject     string   `json:"subject"`
	Chapter     string   `json:"chapter"`
	Text        string   `json:"question"`
	Options     []Option `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	CreatedAt   int64    `json:"created_at,omitempty"`
}

// Option is one answer choice.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Answer returns the index of the correct option, or -1.
func (q *Question) Answer() int {
	for i, o := range q.Options {
		if o.Correct {
			return i
		}
	}
	return -1
}

// Validate checks that the question can be stored and asked.
func (q *Question) Validate() error {
	switch {
	case strings.TrimSpace(q.Subject) == "":
		return errors.New("question has no subject")
	case strings.TrimSpace(q.Chapter) == "":
		return errors.New("question has no chapter")
	case strings.TrimSpace(q.Text) == "":
		return errors.New("question has no text")
	case len(q.Options) < 2:
		return fmt.Errorf("question needs at least 2 options, has %d", len(q.Options))
	}
	correct := 0
	for _, o := range q.Options {
		if o.Correct {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("question needs exactly one correct option, has %d", correct)
	}
	return nil
}

// Subject is a subject name with its chapters.
type Subject struct {
	Name     string   `json:"name"`
	Chapters []string `json:"chapters"`
}

// Attempt is one graded answer. Subject and Chapter are filled in on reads.
type Attempt struct {
	AttemptID  string `json:"attempt_id"`
	QuestionID string `json:"question_id"`
	Chosen     int    `json:"chosen"`
	Correct    bool   `json:"correct"`
	AnsweredAt int64  `json:"answered_at"` // Unix nanoseconds
	Subject    string `json:"subject,omitempty"`
	Chapter    string `json:"chapter,omitempty"`
}

// QuestionFilter defines query parameters for question listing.
type QuestionFilter struct {
	Subject    *string `json:"subject,omitempty"`
	Chapter    *string `json:"chapter,omitempty"`
	Difficulty *string `json:"difficulty,omitempty"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}

// AttemptFilter defines query parameters for attempt listing.
type AttemptFilter struct {
	Subject *string `json:"subject,omitempty"`
	Chapter *string `json:"chapter,omitempty"`
	Since   *int64  `json:"since,omitempty"` // Unix nanoseconds
	Until   *int64  `json:"until,omitempty"` // Unix nanoseconds
	Limit   int     `json:"limit"`
}

// SubjectStats holds aggregated statistics for a single subject.
type SubjectStats struct {
	Subject   string `json:"subject"`
	Chapters  int    `json:"chapters"`
	Questions int    `json:"questions"`
	Attempts  int    `json:"attempts"`
	Correct   int    `json:"correct"`
}

// Accuracy is the fraction of attempts answered correctly, or 0.
func (s *SubjectStats) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts)
}

// ============================================================
// DBService Implementation
// ============================================================

// DBService implements the Store interface using SQLite.
// It manages the connection, prepared statements, and ensures
// thread-safe access through a read-write mutex.
type DBService struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	now  func() time.Time

	// Prepared statements for hot-path operations
	stmtUpsertQuestion *sql.Stmt
	stmtDeleteOptions  *sql.Stmt
	stmtInsertOption   *sql.Stmt
	stmtInsertAttempt  *sql.Stmt
	stmtCorrectOption  *sql.Stmt
}

// NewDBService creates a new database service, initializes the schema,
// and prepares frequently-used statements.
//
// The path parameter specifies the SQLite database file location.
// Use ":memory:" for in-memory databases (useful for testing).
func NewDBService(path string) (*DBService, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	// SQLite only supports one writer at a time, and an in-memory database
	// lives on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	svc := &DBService{
		db:   db,
		path: path,
		now:  time.Now,
	}

	if err := svc.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	if err := svc.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing statements: %w", err)
	}

	return svc, nil
}

// initSchema executes the embedded schema.sql.
func (s *DBService) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading embedded schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

func (s *DBService) prepareStatements() error {
	var err error

	s.stmtUpsertQuestion, err = s.db.Prepare(`
		INSERT INTO questions (question_id, subject, chapter, text, explanation, difficulty, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(question_id) DO UPDATE SET
			subject = excluded.subject,
			chapter = excluded.chapter,
			text = excluded.text,
			explanation = excluded.explanation,
			difficulty = excluded.difficulty
	`)
	if err != nil {
		return fmt.Errorf("preparing UpsertQuestion: %w", err)
	}

	s.stmtDeleteOptions, err = s.db.Prepare(`DELETE FROM options WHERE question_id = ?`)
	if err != nil {
		return fmt.Errorf("preparing DeleteOptions: %w", err)
	}

	s.stmtInsertOption, err = s.db.Prepare(`
		INSERT INTO options (question_id, position, text, correct) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertOption: %w", err)
	}

	s.stmtInsertAttempt, err = s.db.Prepare(`
		INSERT INTO attempts (attempt_id, question_id, chosen, correct, answered_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertAttempt: %w", err)
	}

	s.stmtCorrectOption, err = s.db.Prepare(`
		SELECT correct FROM options WHERE question_id = ? AND position = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing CorrectOption: %w", err)
	}

	return nil
}

// InsertQuestion persists a question and its options. A question with
// the same ID is replaced; an empty ID is assigned a new UUID.
func (s *DBService) InsertQuestion(q *Question) error {
	return s.BatchInsertQuestions([]*Question{q})
}

// BatchInsertQuestions inserts multiple questions within a single
// transaction. Either every question is stored or none is.
func (s *DBService) BatchInsertQuestions(qs []*Question) error {
	for _, q := range qs {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %q: %w", q.QuestionID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning question transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	upsert := tx.Stmt(s.stmtUpsertQuestion)
	deleteOpts := tx.Stmt(s.stmtDeleteOptions)
	insertOpt := tx.Stmt(s.stmtInsertOption)

	for _, q := range qs {
		if q.QuestionID == "" {
			q.QuestionID = uuid.NewString()
		}
		if q.CreatedAt == 0 {
			q.CreatedAt = s.now().UnixNano()
		}
		if q.Difficulty == "" {
			q.Difficulty = "medium"
		}

		if _, err := upsert.Exec(
			q.QuestionID, q.Subject, q.Chapter, q.Text,
			q.Explanation, q.Difficulty, q.CreatedAt,
		); err != nil {
			return fmt.Errorf("inserting question %s: %w", q.QuestionID, err)
		}
		if _, err := deleteOpts.Exec(q.QuestionID); err != nil {
			return fmt.Errorf("clearing options for %s: %w", q.QuestionID, err)
		}
		for i, o := range q.Options {
			if _, err := insertOpt.Exec(q.QuestionID, i, o.Text, o.Correct); err != nil {
				return fmt.Errorf("inserting option %d for %s: %w", i, q.QuestionID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing question transaction: %w", err)
	}
	return nil
}

// CountQuestions returns how many questions are stored.
func (s *DBService) CountQuestions() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	return n, nil
}

// ListSubjects returns every subject and its chapters, both sorted by name.
func (s *DBService) ListSubjects() ([]Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT DISTINCT subject, chapter FROM questions ORDER BY subject, chapter
	`)
	if err != nil {
		return nil, fmt.Errorf("listing subjects: %w", err)
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var subject, chapter string
		if err := rows.Scan(&subject, &chapter); err != nil {
			return nil, fmt.Errorf("scanning subject row: %w", err)
		}
		if n := len(subjects); n == 0 || subjects[n-1].Name != subject {
			subjects = append(subjects, Subject{Name: subject})
		}
		last := &subjects[len(subjects)-1]
		last.Chapters = append(last.Chapters, chapter)
	}
	return subjects, rows.Err()
}

// QueryQuestions returns questions matching the given filter, in the
// order they were added.
func (s *DBService) QueryQuestions(filter QuestionFilter) ([]*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT question_id, subject, chapter, text, explanation, difficulty, created_at
		FROM questions WHERE 1=1`
	args := make([]any, 0)

	if filter.Subject != nil {
		query += ` AND subject = ?`
		args = append(args, *filter.Subject)
	}
	if filter.Chapter != nil {
		query += ` AND chapter = ?`
		args = append(args, *filter.Chapter)
	}
	if filter.Difficulty != nil {
		query += ` AND difficulty = ?`
		args = append(args, *filter.Difficulty)
	}

	query += ` ORDER BY created_at ASC, rowid ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	return s.queryQuestionsLocked(query, args...)
}

// GetQuestion returns the question with its options, or ErrNotFound.
func (s *DBService) GetQuestion(questionID string) (*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qs, err := s.queryQuestionsLocked(`
		SELECT question_id, subject, chapter, text, explanation, difficulty, created_at
		FROM questions WHERE question_id = ?
	`, questionID)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("question %s: %w", questionID, ErrNotFound)
	}
	return qs[0], nil
}

// SearchQuestions performs a case-insensitive substring search over
// question text and explanations.
func (s *DBService) SearchQuestions(query string, limit int) ([]*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + escapeLike(query) + "%"
	return s.queryQuestionsLocked(`
		SELECT question_id, subject, chapter, text, explanation, difficulty, created_at
		FROM questions
		WHERE text LIKE ? ESCAPE '\' OR explanation LIKE ? ESCAPE '\'
		ORDER BY subject, chapter, created_at
		LIMIT ?
	`, pattern, pattern, limit)
}

// RecordAttempt grades a.Chosen against the stored answer and persists
// the attempt. AttemptID and AnsweredAt are filled in when empty, and
// Correct is always set from the stored options.
func (s *DBService) RecordAttempt(a *Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var correct bool
	err := s.stmtCorrectOption.QueryRow(a.QuestionID, a.Chosen).Scan(&correct)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("attempt on question %s option %d: %w", a.QuestionID, a.Chosen, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("grading attempt on %s: %w", a.QuestionID, err)
	}

	if a.AttemptID == "" {
		a.AttemptID = uuid.NewString()
	}
	if a.AnsweredAt == 0 {
		a.AnsweredAt = s.now().UnixNano()
	}
	a.Correct = correct

	if _, err := s.stmtInsertAttempt.Exec(
		a.AttemptID, a.QuestionID, a.Chosen, a.Correct, a.AnsweredAt,
	); err != nil {
		return fmt.Errorf("inserting attempt %s: %w", a.AttemptID, err)
	}
	return nil
}

// QueryAttempts returns attempts matching the filter, oldest first.
// A positive Limit keeps the most recent attempts.
func (s *DBService) QueryAttempts(filter AttemptFilter) ([]*Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT a.attempt_id, a.question_id, a.chosen, a.correct, a.answered_at,
			q.subject, q.chapter
		FROM attempts a
		INNER JOIN questions q ON q.question_id = a.question_id
		WHERE 1=1`
	args := make([]any, 0)

	if filter.Subject != nil {
		query += ` AND q.subject = ?`
		args = append(args, *filter.Subject)
	}
	if filter.Chapter != nil {
		query += ` AND q.chapter = ?`
		args = append(args, *filter.Chapter)
	}
	if filter.Since != nil {
		query += ` AND a.answered_at >= ?`
		args = append(args, *filter.Since)
	}
	if filter.Until != nil {
		query += ` AND a.answered_at <= ?`
		args = append(args, *filter.Until)
	}

	query += ` ORDER BY a.answered_at DESC, a.rowid DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		a := &Attempt{}
		if err := rows.Scan(
			&a.AttemptID, &a.QuestionID, &a.Chosen, &a.Correct, &a.AnsweredAt,
			&a.Subject, &a.Chapter,
		); err != nil {
			return nil, fmt.Errorf("scanning attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first is what LIMIT needs; callers want chronological order.
	for i, j := 0, len(attempts)-1; i < j; i, j = i+1, j-1 {
		attempts[i], attempts[j] = attempts[j], attempts[i]
	}
	return attempts, nil
}

// GetSubjectStats returns per-subject question and attempt totals,
// ordered by subject name.
func (s *DBService) GetSubjectStats() ([]*SubjectStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT
			q.subject,
			COUNT(DISTINCT q.chapter) AS chapters,
			COUNT(DISTINCT q.question_id) AS questions,
			COUNT(a.attempt_id) AS attempts,
			COALESCE(SUM(a.correct), 0) AS correct
		FROM questions q
		LEFT JOIN attempts a ON a.question_id = q.question_id
		GROUP BY q.subject
		ORDER BY q.subject
	`)
	if err != nil {
		return nil, fmt.Errorf("querying subject stats: %w", err)
	}
	defer rows.Close()

	var stats []*SubjectStats
	for rows.Next() {
		st := &SubjectStats{}
		if err := rows.Scan(&st.Subject, &st.Chapters, &st.Questions, &st.Attempts, &st.Correct); err != nil {
			return nil, fmt.Errorf("scanning subject stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Close gracefully shuts down the database, closing all prepared statements
// and the underlying connection pool.
func (s *DBService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []*sql.Stmt{
		s.stmtUpsertQuestion, s.stmtDeleteOptions, s.stmtInsertOption,
		s.stmtInsertAttempt, s.stmtCorrectOption,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}

	return s.db.Close()
}

// ============================================================
// Scan Helpers
// ============================================================

// queryQuestionsLocked runs a question query and loads the options of
// every returned row. The caller holds s.mu.
func (s *DBService) queryQuestionsLocked(query string, args ...any) ([]*Question, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}

	var qs []*Question
	byID := make(map[string]*Question)
	for rows.Next() {
		q := &Question{}
		if err := rows.Scan(
			&q.QuestionID, &q.Subject, &q.Chapter, &q.Text,
			&q.Explanation, &q.Difficulty, &q.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning question row: %w", err)
		}
		qs = append(qs, q)
		byID[q.QuestionID] = q
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return qs, nil
	}

	// The pool has a single connection, so the question rows must be
	// closed before the options query can run.
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(qs)), ",")
	ids := make([]any, len(qs))
	for i, q := range qs {
		ids[i] = q.QuestionID
	}
	optRows, err := s.db.Query(`
		SELECT question_id, text, correct FROM options
		WHERE question_id IN (`+placeholders+`)
		ORDER BY question_id, position
	`, ids...)
	if err != nil {
		return nil, fmt.Errorf("querying options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var id string
		var o Option
		if err := optRows.Scan(&id, &o.Text, &o.Correct); err != nil {
			return nil, fmt.Errorf("scanning option row: %w", err)
		}
		if q := byID[id]; q != nil {
			q.Options = append(q.Options, o)
		}
	}
	return qs, optRows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
