// Package analysis turns recorded quiz attempts into the dashboard's
// performance summary. Everything is plain arithmetic over the attempt
// history:
//
//   - overall and per-subject scores
//   - weak chapter detection via Z-score against the student's average
//   - score trend via linear regression over attempts in order
//   - recent history and a quote of the day
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Mr-Dark-debug/jeebot/internal/database"
	"github.com/Mr-Dark-debug/jeebot/pkg/timeutil"
)

// MinChapterAttempts is how many attempts a chapter needs before it can be
// called weak.
const MinChapterAttempts = 2

// Analyzer computes performance reports from the question bank.
type Analyzer struct {
	store database.Store
	now   func() time.Time
}

// NewAnalyzer creates a new analysis engine backed by the given store.
func NewAnalyzer(store database.Store) *Analyzer {
	return &Analyzer{store: store, now: time.Now}
}

// ============================================================
// Scores
// ============================================================

// Score is a correct/attempted tally.
type Score struct {
	Name     string  `json:"name"`
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Percent  float64 `json:"percent"`
}

func newScore(name string, attempts, correct int) Score {
	s := Score{Name: name, Attempts: attempts, Correct: correct}
	if attempts > 0 {
		s.Percent = math.Round(float64(correct)/float64(attempts)*1000) / 10
	}
	return s
}

// SubjectScores returns the overall score and one score per subject.
// Subjects without attempts are included with a zero score.
func (a *Analyzer) SubjectScores() (Score, []Score, error) {
	stats, err := a.store.GetSubjectStats()
	if err != nil {
		return Score{}, nil, fmt.Errorf("querying subject stats: %w", err)
	}

	var attempts, correct int
	scores := make([]Score, 0, len(stats))
	for _, st := range stats {
		scores = append(scores, newScore(st.Subject, st.Attempts, st.Correct))
		attempts += st.Attempts
		correct += st.Correct
	}
	return newScore("Overall", attempts, correct), scores, nil
}

// ============================================================
// Weak Chapter Detection
// ============================================================

// WeakChapter is a chapter where the student scores well below their
// own average.
type WeakChapter struct {
	Subject  string  `json:"subject"`
	Chapter  string  `json:"chapter"`
	Attempts int     `json:"attempts"`
	Percent  float64 `json:"percent"`
	ZScore   float64 `json:"z_score"`
	Severity string  `json:"severity"` // "low", "medium", "high"
}

// DetectWeakChapters computes the accuracy of every chapter with at least
// MinChapterAttempts attempts and flags the ones whose Z-score is below
// -1.0. Severity is "medium" below -1.5 and "high" below -2.0.
//
// When every chapter scores the same there is nothing to compare, so a
// chapter under 50% is reported as "high" on its own.
func (a *Analyzer) DetectWeakChapters() ([]WeakChapter, error) {
	attempts, err := a.store.QueryAttempts(database.AttemptFilter{})
	if err != nil {
		return nil, fmt.Errorf("querying attempts for chapter analysis: %w", err)
	}

	type tally struct {
		subject, chapter string
		attempts, right  int
	}
	byChapter := make(map[string]*tally)
	for _, at := range attempts {
		key := at.Subject + "\x00" + at.Chapter
		t := byChapter[key]
		if t == nil {
			t = &tally{subject: at.Subject, chapter: at.Chapter}
			byChapter[key] = t
		}
		t.attempts++
		if at.Correct {
			t.right++
		}
	}

	var chapters []*tally
	for _, t := range byChapter {
		if t.attempts >= MinChapterAttempts {
			chapters = append(chapters, t)
		}
	}
	if len(chapters) == 0 {
		return nil, nil
	}

	accs := make([]float64, len(chapters))
	var sum, sumSq float64
	for i, t := range chapters {
		acc := float64(t.right) / float64(t.attempts)
		accs[i] = acc
		sum += acc
		sumSq += acc * acc
	}
	n := float64(len(chapters))
	mean := sum / n
	stddev := math.Sqrt(math.Max(0, sumSq/n-mean*mean))

	var weak []WeakChapter
	for i, t := range chapters {
		w := WeakChapter{
			Subject:  t.subject,
			Chapter:  t.chapter,
			Attempts: t.attempts,
			Percent:  math.Round(accs[i]*1000) / 10,
		}
		if stddev < 1e-9 {
			if accs[i] < 0.5 {
				w.Severity = "high"
				weak = append(weak, w)
			}
			continue
		}

		z := (accs[i] - mean) / stddev
		if z >= -1.0 {
			continue
		}
		w.ZScore = math.Round(z*100) / 100
		switch {
		case z < -2.0:
			w.Severity = "high"
		case z < -1.5:
			w.Severity = "medium"
		default:
			w.Severity = "low"
		}
		weak = append(weak, w)
	}

	sort.Slice(weak, func(i, j int) bool {
		if weak[i].Percent != weak[j].Percent {
			return weak[i].Percent < weak[j].Percent
		}
		return weak[i].Subject+weak[i].Chapter < weak[j].Subject+weak[j].Chapter
	})
	return weak, nil
}

// ============================================================
// Score Trend
// ============================================================

// TrendWindow is the number of attempts averaged into each trend point.
const TrendWindow = 5

// TrendReport describes how the rolling score moves over time.
type TrendReport struct {
	Attempts  int     `json:"attempts"`
	Slope     float64 `json:"slope"`     // Percentage points per attempt
	Intercept float64 `json:"intercept"` // Percent at the first point
	RSquared  float64 `json:"r_squared"` // Goodness of fit
	Direction string  `json:"direction"` // "improving", "declining", "steady", "not enough data"
}

// dataPoint is a single observation for regression analysis.
type dataPoint struct {
	x float64 // Attempt index
	y float64 // Rolling score in percent
}

// AnalyzeTrend fits a line through the rolling score of the attempt
// history. The direction is only called when the fit explains at least
// a third of the variance.
func (a *Analyzer) AnalyzeTrend() (*TrendReport, error) {
	attempts, err := a.store.QueryAttempts(database.AttemptFilter{})
	if err != nil {
		return nil, fmt.Errorf("querying attempts for trend analysis: %w", err)
	}

	report := &TrendReport{Attempts: len(attempts), Direction: "not enough data"}
	if len(attempts) < TrendWindow+1 {
		return report, nil
	}

	points := rollingScores(attempts, TrendWindow)
	slope, intercept, rSquared := linearRegression(points)

	report.Slope = math.Round(slope*100) / 100
	report.Intercept = math.Round(intercept*10) / 10
	report.RSquared = math.Round(rSquared*1000) / 1000

	switch {
	case slope > 0.5 && rSquared >= 0.33:
		report.Direction = "improving"
	case slope < -0.5 && rSquared >= 0.33:
		report.Direction = "declining"
	default:
		report.Direction = "steady"
	}
	return report, nil
}

// rollingScores returns the mean score of each window of attempts.
func rollingScores(attempts []*database.Attempt, window int) []dataPoint {
	var points []dataPoint
	right := 0
	for i, at := range attempts {
		if at.Correct {
			right++
		}
		if i >= window && attempts[i-window].Correct {
			right--
		}
		if i >= window-1 {
			points = append(points, dataPoint{
				x: float64(i),
				y: float64(right) / float64(window) * 100,
			})
		}
	}
	return points
}

// linearRegression computes ordinary least squares regression.
// Returns slope (m), intercept (b), and R-squared goodness of fit.
func linearRegression(points []dataPoint) (slope, intercept, rSquared float64) {
	n := float64(len(points))
	if n < 2 {
		return 0, 0, 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range points {
		sumX += p.x
		sumY += p.y
		sumXY += p.x * p.y
		sumX2 += p.x * p.x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, sumY / n, 0
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssRes, ssTot float64
	for _, p := range points {
		predicted := slope*p.x + intercept
		ssRes += (p.y - predicted) * (p.y - predicted)
		ssTot += (p.y - meanY) * (p.y - meanY)
	}

	if ssTot == 0 {
		rSquared = 1.0
	} else {
		rSquared = 1 - ssRes/ssTot
	}

	return slope, intercept, rSquared
}

// ============================================================
// History and Quotes
// ============================================================

// HistoryEntry is one session of practice: consecutive attempts on the
// same subject and chapter.
type HistoryEntry struct {
	Subject  string  `json:"subject"`
	Chapter  string  `json:"chapter"`
	Attempts int     `json:"attempts"`
	Percent  float64 `json:"percent"`
	When     string  `json:"when"`
	At       int64   `json:"at"` // Unix nanoseconds of the last attempt
}

// RecentHistory groups the attempt log into practice sessions and returns
// the latest limit of them, newest first.
func (a *Analyzer) RecentHistory(limit int) ([]HistoryEntry, error) {
	attempts, err := a.store.QueryAttempts(database.AttemptFilter{})
	if err != nil {
		return nil, fmt.Errorf("querying attempts for history: %w", err)
	}

	var entries []HistoryEntry
	var right int
	for i, at := range attempts {
		n := len(entries)
		if n == 0 || entries[n-1].Subject != at.Subject || entries[n-1].Chapter != at.Chapter {
			entries = append(entries, HistoryEntry{Subject: at.Subject, Chapter: at.Chapter})
			right = 0
			n++
		}
		e := &entries[n-1]
		e.Attempts++
		if at.Correct {
			right++
		}
		e.Percent = math.Round(float64(right)/float64(e.Attempts)*1000) / 10
		e.At = attempts[i].AnsweredAt
		e.When = timeutil.FormatDate(e.At)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Quote is a motivational line for the dashboard.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

var quotes = []Quote{
	{"Success is the sum of small efforts, repeated day in and day out.", "Robert Collier"},
	{"It always seems impossible until it's done.", "Nelson Mandela"},
	{"The expert in anything was once a beginner.", "Helen Hayes"},
	{"Don't watch the clock; do what it does. Keep going.", "Sam Levenson"},
	{"Nothing in life is to be feared, it is only to be understood.", "Marie Curie"},
	{"I have not failed. I've just found 10,000 ways that won't work.", "Thomas Edison"},
	{"Study hard what interests you the most in the most undisciplined, irreverent and original manner possible.", "Richard Feynman"},
}

// QuoteFor returns the quote of the day for t.
func QuoteFor(t time.Time) Quote {
	return quotes[t.YearDay()%len(quotes)]
}

// ============================================================
// Full Report
// ============================================================

// Report is the complete dashboard summary and the output of
// `jeebot report`.
type Report struct {
	GeneratedAt  string         `json:"generated_at"`
	Overall      Score          `json:"overall"`
	Subjects     []Score        `json:"subjects"`
	WeakChapters []WeakChapter  `json:"weak_chapters"`
	Trend        *TrendReport   `json:"trend"`
	History      []HistoryEntry `json:"history"`
	Quote        Quote          `json:"quote"`
	Warnings     []string       `json:"warnings"`
}

// FullAnalysis runs every analysis pass and assembles the report. Only a
// failure to read the subject totals is fatal; the other passes degrade
// to warnings.
func (a *Analyzer) FullAnalysis() (*Report, error) {
	now := a.now()
	report := &Report{
		GeneratedAt: now.Format(time.RFC3339),
		Quote:       QuoteFor(now),
	}

	overall, subjects, err := a.SubjectScores()
	if err != nil {
		return nil, err
	}
	report.Overall = overall
	report.Subjects = subjects

	weak, err := a.DetectWeakChapters()
	if err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Weak chapter analysis failed: %v", err))
	} else {
		report.WeakChapters = weak
	}

	trend, err := a.AnalyzeTrend()
	if err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Trend analysis failed: %v", err))
	} else {
		report.Trend = trend
	}

	history, err := a.RecentHistory(5)
	if err != nil {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("History failed: %v", err))
	} else {
		report.History = history
	}

	if trend != nil && trend.Direction == "declining" {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Your rolling score is dropping by %.1f points per question. Time for a revision break?",
				-trend.Slope))
	}
	for _, w := range weak {
		if w.Severity == "high" {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s / %s needs attention: %.0f%% over %d attempts.",
					w.Subject, w.Chapter, w.Percent, w.Attempts))
		}
	}

	return report, nil
}

// FormatReport generates a human-readable markdown report.
func FormatReport(report *Report) string {
	var b strings.Builder

	b.WriteString("# Performance Overview\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", report.GeneratedAt)

	b.WriteString("## Scores\n\n")
	b.WriteString("| Subject | Attempts | Correct | Score |\n")
	b.WriteString("|---------|----------|---------|-------|\n")
	fmt.Fprintf(&b, "| **%s** | %d | %d | **%.1f%%** |\n",
		report.Overall.Name, report.Overall.Attempts, report.Overall.Correct, report.Overall.Percent)
	for _, s := range report.Subjects {
		fmt.Fprintf(&b, "| %s | %d | %d | %.1f%% |\n", s.Name, s.Attempts, s.Correct, s.Percent)
	}
	b.WriteString("\n")

	if len(report.WeakChapters) > 0 {
		b.WriteString("## Chapters to Revise\n\n")
		b.WriteString("| Subject | Chapter | Attempts | Score | Severity |\n")
		b.WriteString("|---------|---------|----------|-------|----------|\n")
		for _, w := range report.WeakChapters {
			fmt.Fprintf(&b, "| %s | %s | %d | %.1f%% | %s |\n",
				w.Subject, w.Chapter, w.Attempts, w.Percent, w.Severity)
		}
		b.WriteString("\n")
	}

	if t := report.Trend; t != nil {
		b.WriteString("## Trend\n\n")
		fmt.Fprintf(&b, "- **Direction:** %s\n", t.Direction)
		fmt.Fprintf(&b, "- **Attempts:** %d\n", t.Attempts)
		if t.Direction != "not enough data" {
			fmt.Fprintf(&b, "- **Slope:** %+.2f points per question\n", t.Slope)
			fmt.Fprintf(&b, "- **R² Fit:** %.3f\n", t.RSquared)
		}
		b.WriteString("\n")
	}

	if len(report.History) > 0 {
		b.WriteString("## Test History\n\n")
		for _, h := range report.History {
			fmt.Fprintf(&b, "- **%s / %s**: %.0f%% over %d questions, %s\n",
				h.Subject, h.Chapter, h.Percent, h.Attempts, h.When)
		}
		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Notifications\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "> %s\n>\n> %s\n", report.Quote.Text, report.Quote.Author)
	return b.String()
}
