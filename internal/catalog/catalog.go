// Package catalog holds the static subject and quick action data offered to
// the user. The lists are fixed at process start and never mutated.
package catalog

import (
	"strconv"
	"strings"
)

// Subject is a context domain that can be attached to a prompt.
type Subject string

const (
	Mathematics     Subject = "Mathematics"
	Physics         Subject = "Physics"
	Chemistry       Subject = "Chemistry"
	Biology         Subject = "Biology"
	ComputerScience Subject = "Computer Science"
	English         Subject = "English"
	History         Subject = "History"
	Geography       Subject = "Geography"
)

// QuickAction is a one-click prompt template
type QuickAction struct {
	Label string
	Icon  string // opaque token for the presentation layer
}

var subjects = []Subject{
	Mathematics,
	Physics,
	Chemistry,
	Biology,
	ComputerScience,
	English,
	History,
	Geography,
}

var quickActions = []QuickAction{
	{Label: "Help with Homework", Icon: "assignment"},
	{Label: "Study Tips", Icon: "school"},
	{Label: "Practice Problems", Icon: "calculate"},
	{Label: "Concept Explanation", Icon: "lightbulb"},
	{Label: "Exam Preparation", Icon: "quiz"},
	{Label: "Project Ideas", Icon: "science"},
}

// Subjects returns a copy of the subject catalog in display order
func Subjects() []Subject {
	out := make([]Subject, len(subjects))
	copy(out, subjects)
	return out
}

// QuickActions returns a copy of the quick action catalog in display order
func QuickActions() []QuickAction {
	out := make([]QuickAction, len(quickActions))
	copy(out, quickActions)
	return out
}

// ParseSubject finds a subject by name, ignoring case and surrounding space.
func ParseSubject(name string) (Subject, bool) {
	name = strings.TrimSpace(name)
	for _, s := range subjects {
		if strings.EqualFold(string(s), name) {
			return s, true
		}
	}
	return "", false
}

// FindQuickAction resolves a quick action either by its 1-based position in
// the catalog or by label (case-insensitive).
func FindQuickAction(ref string) (QuickAction, bool) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(quickActions) {
			return quickActions[n-1], true
		}
		return QuickAction{}, false
	}
	for _, a := range quickActions {
		if strings.EqualFold(a.Label, ref) {
			return a, true
		}
	}
	return QuickAction{}, false
}
