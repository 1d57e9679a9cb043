package database

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestService(t *testing.T) *DBService {
	t.Helper()
	svc, err := NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func mcq(id, subject, chapter, text string, answer int, opts ...string) *Question {
	q := &Question{QuestionID: id, Subject: subject, Chapter: chapter, Text: text}
	for i, o := range opts {
		q.Options = append(q.Options, Option{Text: o, Correct: i == answer})
	}
	return q
}

// TestNewDBService verifies that the database initializes correctly
// with the embedded schema using an in-memory SQLite instance.
func TestNewDBService(t *testing.T) {
	svc, err := NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService(:memory:) failed: %v", err)
	}
	defer svc.Close()

	n, err := svc.CountQuestions()
	if err != nil {
		t.Fatalf("CountQuestions failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty bank, got %d questions", n)
	}
}

// TestInsertAndGetQuestion verifies the question lifecycle:
// insert → get → verify fields and option order.
func TestInsertAndGetQuestion(t *testing.T) {
	svc := newTestService(t)

	q := mcq("phy-001", "Physics", "Oscillations",
		"What is the time period of a simple pendulum of length $L$?", 1,
		"$2\\pi\\sqrt{g/L}$", "$2\\pi\\sqrt{L/g}$", "$\\pi\\sqrt{L/g}$", "$\\sqrt{L/g}$")
	q.Explanation = "For small angles $T = 2\\pi\\sqrt{L/g}$."

	if err := svc.InsertQuestion(q); err != nil {
		t.Fatalf("InsertQuestion failed: %v", err)
	}

	got, err := svc.GetQuestion("phy-001")
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if got.Subject != "Physics" || got.Chapter != "Oscillations" {
		t.Errorf("expected Physics/Oscillations, got %s/%s", got.Subject, got.Chapter)
	}
	if len(got.Options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(got.Options))
	}
	if got.Options[0].Text != "$2\\pi\\sqrt{g/L}$" {
		t.Errorf("options out of order: first is %q", got.Options[0].Text)
	}
	if got.Answer() != 1 {
		t.Errorf("expected answer 1, got %d", got.Answer())
	}
	if got.Difficulty != "medium" {
		t.Errorf("expected default difficulty medium, got %q", got.Difficulty)
	}
	if got.CreatedAt == 0 {
		t.Error("expected CreatedAt to be set")
	}
}

// TestInsertQuestionReplacesOptions verifies that re-importing a question
// with the same ID replaces it rather than duplicating options.
func TestInsertQuestionReplacesOptions(t *testing.T) {
	svc := newTestService(t)

	if err := svc.InsertQuestion(mcq("q1", "Chemistry", "Mole Concept", "v1", 0, "a", "b", "c")); err != nil {
		t.Fatalf("InsertQuestion v1 failed: %v", err)
	}
	if err := svc.InsertQuestion(mcq("q1", "Chemistry", "Mole Concept", "v2", 1, "x", "y")); err != nil {
		t.Fatalf("InsertQuestion v2 failed: %v", err)
	}

	got, err := svc.GetQuestion("q1")
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if got.Text != "v2" || len(got.Options) != 2 || got.Answer() != 1 {
		t.Errorf("expected replaced question, got %+v", got)
	}
	if n, _ := svc.CountQuestions(); n != 1 {
		t.Errorf("expected 1 question, got %d", n)
	}
}

// TestInsertQuestionValidation verifies that malformed questions are rejected.
func TestInsertQuestionValidation(t *testing.T) {
	svc := newTestService(t)

	cases := map[string]*Question{
		"no subject":    mcq("", "", "Ch", "text", 0, "a", "b"),
		"one option":    mcq("", "Physics", "Ch", "text", 0, "a"),
		"no answer":     mcq("", "Physics", "Ch", "text", -1, "a", "b"),
		"blank text":    mcq("", "Physics", "Ch", "  ", 0, "a", "b"),
		"blank chapter": mcq("", "Physics", "", "text", 0, "a", "b"),
	}
	for name, q := range cases {
		if err := svc.InsertQuestion(q); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	two := mcq("", "Physics", "Ch", "text", 0, "a", "b")
	two.Options[1].Correct = true
	if err := svc.InsertQuestion(two); err == nil {
		t.Error("two correct options: expected validation error")
	}
}

// TestBatchInsertQuestions verifies that batch insertion works correctly
// and that a bad question rolls back the whole batch.
func TestBatchInsertQuestions(t *testing.T) {
	svc := newTestService(t)

	qs := make([]*Question, 100)
	for i := 0; i < 100; i++ {
		qs[i] = mcq("", "Biology", fmt.Sprintf("Chapter %d", i%5), fmt.Sprintf("Question %d", i), i%4,
			"a", "b", "c", "d")
	}
	if err := svc.BatchInsertQuestions(qs); err != nil {
		t.Fatalf("BatchInsertQuestions failed: %v", err)
	}
	for _, q := range qs {
		if q.QuestionID == "" {
			t.Fatal("expected generated question IDs")
		}
	}

	bad := []*Question{
		mcq("ok", "Biology", "Genetics", "fine", 0, "a", "b"),
		mcq("bad", "Biology", "Genetics", "broken", 0, "only one"),
	}
	if err := svc.BatchInsertQuestions(bad); err == nil {
		t.Fatal("expected batch with invalid question to fail")
	}

	n, err := svc.CountQuestions()
	if err != nil {
		t.Fatalf("CountQuestions failed: %v", err)
	}
	if n != 100 {
		t.Errorf("expected 100 questions after rejected batch, got %d", n)
	}
}

// TestListSubjectsAndQuery verifies subject listing and question filters.
func TestListSubjectsAndQuery(t *testing.T) {
	svc := newTestService(t)

	qs := []*Question{
		mcq("p1", "Physics", "Oscillations", "p1", 0, "a", "b"),
		mcq("c1", "Chemistry", "Mole Concept", "c1", 0, "a", "b"),
		mcq("p2", "Physics", "Kinematics", "p2", 0, "a", "b"),
		mcq("p3", "Physics", "Oscillations", "p3", 0, "a", "b"),
	}
	for i, q := range qs {
		q.CreatedAt = int64(i + 1)
	}
	qs[2].Difficulty = "hard"
	if err := svc.BatchInsertQuestions(qs); err != nil {
		t.Fatalf("BatchInsertQuestions failed: %v", err)
	}

	subjects, err := svc.ListSubjects()
	if err != nil {
		t.Fatalf("ListSubjects failed: %v", err)
	}
	if len(subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(subjects))
	}
	if subjects[0].Name != "Chemistry" || subjects[1].Name != "Physics" {
		t.Errorf("subjects not sorted: %+v", subjects)
	}
	if fmt.Sprint(subjects[1].Chapters) != "[Kinematics Oscillations]" {
		t.Errorf("unexpected physics chapters: %v", subjects[1].Chapters)
	}

	subject, chapter := "Physics", "Oscillations"
	got, err := svc.QueryQuestions(QuestionFilter{Subject: &subject, Chapter: &chapter})
	if err != nil {
		t.Fatalf("QueryQuestions failed: %v", err)
	}
	if len(got) != 2 || got[0].QuestionID != "p1" || got[1].QuestionID != "p3" {
		t.Errorf("expected [p1 p3] in insertion order, got %v", ids(got))
	}
	for _, q := range got {
		if len(q.Options) != 2 {
			t.Errorf("question %s: expected options to be loaded", q.QuestionID)
		}
	}

	hard := "hard"
	got, err = svc.QueryQuestions(QuestionFilter{Difficulty: &hard})
	if err != nil {
		t.Fatalf("QueryQuestions by difficulty failed: %v", err)
	}
	if len(got) != 1 || got[0].QuestionID != "p2" {
		t.Errorf("expected [p2], got %v", ids(got))
	}

	got, err = svc.QueryQuestions(QuestionFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("QueryQuestions with paging failed: %v", err)
	}
	if len(got) != 2 || got[0].QuestionID != "c1" {
		t.Errorf("expected [c1 p2], got %v", ids(got))
	}
}

// TestGetQuestionNotFound verifies the not-found error.
func TestGetQuestionNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetQuestion("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestSearchQuestions verifies substring search over text and explanation.
func TestSearchQuestions(t *testing.T) {
	svc := newTestService(t)

	a := mcq("s1", "Physics", "Oscillations", "Time period of a simple pendulum", 0, "a", "b")
	b := mcq("s2", "Chemistry", "Thermodynamics", "Enthalpy of formation", 0, "a", "b")
	b.Explanation = "Uses Hess's law, not the pendulum."
	c := mcq("s3", "Biology", "Genetics", "100% dominant trait", 0, "a", "b")
	if err := svc.BatchInsertQuestions([]*Question{a, b, c}); err != nil {
		t.Fatalf("BatchInsertQuestions failed: %v", err)
	}

	results, err := svc.SearchQuestions("PENDULUM", 10)
	if err != nil {
		t.Fatalf("SearchQuestions failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results for 'pendulum', got %v", ids(results))
	}

	results, err = svc.SearchQuestions("0%", 10)
	if err != nil {
		t.Fatalf("SearchQuestions('0%%') failed: %v", err)
	}
	if len(results) != 1 || results[0].QuestionID != "s3" {
		t.Errorf("expected literal %% match on s3, got %v", ids(results))
	}
}

// TestRecordAttempt verifies grading and chronological attempt queries.
func TestRecordAttempt(t *testing.T) {
	svc := newTestService(t)

	if err := svc.BatchInsertQuestions([]*Question{
		mcq("p1", "Physics", "Oscillations", "p1", 1, "a", "b", "c"),
		mcq("c1", "Chemistry", "Mole Concept", "c1", 0, "a", "b"),
	}); err != nil {
		t.Fatalf("BatchInsertQuestions failed: %v", err)
	}

	now := time.Now().UnixNano()
	attempts := []*Attempt{
		{QuestionID: "p1", Chosen: 1, AnsweredAt: now},
		{QuestionID: "p1", Chosen: 2, AnsweredAt: now + 1000},
		{QuestionID: "c1", Chosen: 0, AnsweredAt: now + 2000},
	}
	for _, a := range attempts {
		if err := svc.RecordAttempt(a); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
		if a.AttemptID == "" {
			t.Error("expected generated attempt ID")
		}
	}
	if !attempts[0].Correct || attempts[1].Correct || !attempts[2].Correct {
		t.Errorf("unexpected grading: %v %v %v", attempts[0].Correct, attempts[1].Correct, attempts[2].Correct)
	}

	all, err := svc.QueryAttempts(AttemptFilter{})
	if err != nil {
		t.Fatalf("QueryAttempts failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].AnsweredAt < all[i-1].AnsweredAt {
			t.Errorf("attempts not in chronological order at %d", i)
		}
	}
	if all[2].Subject != "Chemistry" || all[2].Chapter != "Mole Concept" {
		t.Errorf("expected joined subject/chapter, got %s/%s", all[2].Subject, all[2].Chapter)
	}

	recent, err := svc.QueryAttempts(AttemptFilter{Limit: 2})
	if err != nil {
		t.Fatalf("QueryAttempts with limit failed: %v", err)
	}
	if len(recent) != 2 || recent[0].AnsweredAt != now+1000 || recent[1].AnsweredAt != now+2000 {
		t.Errorf("expected the two most recent attempts oldest first, got %+v", recent)
	}

	physics := "Physics"
	filtered, err := svc.QueryAttempts(AttemptFilter{Subject: &physics})
	if err != nil {
		t.Fatalf("QueryAttempts by subject failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 physics attempts, got %d", len(filtered))
	}
}

// TestRecordAttemptUnknownOption verifies that attempts on missing
// questions or options are rejected.
func TestRecordAttemptUnknownOption(t *testing.T) {
	svc := newTestService(t)
	if err := svc.InsertQuestion(mcq("p1", "Physics", "Optics", "p1", 0, "a", "b")); err != nil {
		t.Fatalf("InsertQuestion failed: %v", err)
	}

	for _, a := range []*Attempt{
		{QuestionID: "p1", Chosen: 5},
		{QuestionID: "nope", Chosen: 0},
	} {
		if err := svc.RecordAttempt(a); !errors.Is(err, ErrNotFound) {
			t.Errorf("RecordAttempt(%s, %d): expected ErrNotFound, got %v", a.QuestionID, a.Chosen, err)
		}
	}
}

// TestGetSubjectStats verifies aggregated statistics computation.
func TestGetSubjectStats(t *testing.T) {
	svc := newTestService(t)

	if err := svc.BatchInsertQuestions([]*Question{
		mcq("p1", "Physics", "Oscillations", "p1", 0, "a", "b"),
		mcq("p2", "Physics", "Kinematics", "p2", 0, "a", "b"),
		mcq("b1", "Biology", "Genetics", "b1", 0, "a", "b"),
	}); err != nil {
		t.Fatalf("BatchInsertQuestions failed: %v", err)
	}
	for _, a := range []*Attempt{
		{QuestionID: "p1", Chosen: 0},
		{QuestionID: "p1", Chosen: 1},
		{QuestionID: "p2", Chosen: 0},
	} {
		if err := svc.RecordAttempt(a); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
	}

	stats, err := svc.GetSubjectStats()
	if err != nil {
		t.Fatalf("GetSubjectStats failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(stats))
	}

	bio, phy := stats[0], stats[1]
	if bio.Subject != "Biology" || bio.Attempts != 0 || bio.Accuracy() != 0 {
		t.Errorf("unexpected biology stats: %+v", bio)
	}
	if phy.Chapters != 2 || phy.Questions != 2 || phy.Attempts != 3 || phy.Correct != 2 {
		t.Errorf("unexpected physics stats: %+v", phy)
	}
	if acc := phy.Accuracy(); acc < 0.66 || acc > 0.67 {
		t.Errorf("expected physics accuracy 2/3, got %f", acc)
	}
}

func ids(qs []*Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.QuestionID
	}
	return out
}

// BenchmarkBatchInsert measures the throughput of batch question insertion.
func BenchmarkBatchInsert(b *testing.B) {
	svc, err := NewDBService(":memory:")
	if err != nil {
		b.Fatalf("NewDBService failed: %v", err)
	}
	defer svc.Close()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		qs := make([]*Question, 1000)
		for i := 0; i < 1000; i++ {
			qs[i] = mcq(fmt.Sprintf("bench-%d-%d", n, i), "Physics", "Bench",
				"question", i%4, "a", "b", "c", "d")
		}
		if err := svc.BatchInsertQuestions(qs); err != nil {
			b.Fatalf("BatchInsertQuestions failed: %v", err)
		}
	}
}
