package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

var genericReplies = []string{
	"Hello! How can I assist you today?",
	"I'm here to help! Let me know what you need.",
	"Sure, I'd love to assist you! Can you tell me more?",
	"That's interesting! I'm curious to know more.",
	"Feel free to ask me anything. I'm listening.",
	"You're doing great! Keep going.",
	"Have you checked the latest updates in the field?",
	"Let me know if you'd like any tips or advice!",
}

var syllabus = []string{
	"1. Physics: Mechanics, Thermodynamics, Electrostatics, Optics, Modern Physics",
	"2. Chemistry: Physical, Organic and Inorganic Chemistry",
	"3. Biology: Cell Biology, Genetics, Human Physiology, Ecology",
	"4. Mathematics: Algebra, Calculus, Coordinate Geometry, Vectors",
	"5. Revision and mock tests",
}

var references = []string{
	"Book: 'Concepts of Physics' by H. C. Verma",
	"Book: 'Physical Chemistry' by O. P. Tandon",
	"Book: NCERT Biology, Classes 11 and 12",
	"Website: https://ncert.nic.in/textbook.php",
}

// OfflineResponder answers from canned text without any network access.
// Each reply raises the tracked progress by 10%, up to 100%.
type OfflineResponder struct {
	mu       sync.Mutex
	progress int
	turn     int
}

// NewOfflineResponder returns a responder starting at 0% progress.
func NewOfflineResponder() *OfflineResponder {
	return &OfflineResponder{}
}

func (r *OfflineResponder) Reply(_ context.Context, input string) (string, error) {
	if Blank(input) {
		return "", ErrEmptyInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.bump()

	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "syllabus"):
		return "Here's the syllabus:\n" + strings.Join(syllabus, "\n"), nil
	case strings.Contains(lower, "references"):
		return "Here are some references:\n" + strings.Join(references, "\n"), nil
	case strings.Contains(lower, "progress"):
		return fmt.Sprintf("Your current progress is: %d%%", r.progress), nil
	}

	reply := genericReplies[r.turn%len(genericReplies)]
	r.turn++
	return reply, nil
}

// Progress returns the current progress percentage.
func (r *OfflineResponder) Progress() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (r *OfflineResponder) bump() {
	r.progress = min(r.progress+10, 100)
}
