package prompt

import (
	"errors"
	"fmt"
	"strings"

	"StudyChat/internal/catalog"
)

// ErrEmptyInput is returned when there is nothing to send
var ErrEmptyInput = errors.New("empty input")

// Compose builds the outbound prompt from the user's text and the active
// subject. An empty subject means no context clause.
func Compose(rawText string, subject catalog.Subject) (string, error) {
	if strings.TrimSpace(rawText) == "" {
		return "", ErrEmptyInput
	}
	if subject == "" {
		return rawText, nil
	}
	return fmt.Sprintf("Context: Helping with %s. %s", subject, rawText), nil
}

// QuickActionText is the synthetic user text for a quick action.
func QuickActionText(action catalog.QuickAction, subject catalog.Subject) string {
	if subject == "" {
		return action.Label
	}
	return fmt.Sprintf("%s for %s", action.Label, subject)
}
