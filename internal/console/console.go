// Package console is the terminal front-end. It renders controller snapshots
// and turns input lines into controller calls; it holds no conversation state
// of its own.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"StudyChat/internal/catalog"
	"StudyChat/internal/chatbot"
	"StudyChat/internal/prompt"
	"StudyChat/internal/session"
	"StudyChat/internal/store"
)

// Controller is the part of the chat controller the console drives
type Controller interface {
	Snapshot() session.Snapshot
	Submit(ctx context.Context, rawText string) error
	SelectSubject(subject catalog.Subject) catalog.Subject
	RunQuickAction(ctx context.Context, action catalog.QuickAction) error
	SetPendingInput(text string)
}

// FailureLister lists journaled failures for /failures
type FailureLister interface {
	Recent(ctx context.Context, limit int) ([]store.Failure, error)
}

// Console is a line-oriented REPL over a Controller
type Console struct {
	ctrl     Controller
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger
	failures FailureLister
	theme    theme

	rendered int // transcript messages already written to out
}

// New creates a console. failures may be nil.
func New(ctrl Controller, in io.Reader, out io.Writer, logger *slog.Logger, failures FailureLister) *Console {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Console{
		ctrl:     ctrl,
		in:       in,
		out:      out,
		logger:   logger,
		failures: failures,
		theme:    newTheme(out),
	}
}

// Run reads lines until EOF, /quit, or ctx is done
func (c *Console) Run(ctx context.Context) error {
	snap := c.ctrl.Snapshot()
	fmt.Fprintln(c.out, c.theme.title.Render("=== AI Learning Assistant ==="))
	fmt.Fprintf(c.out, "Session: %s\n", snap.ID)
	fmt.Fprintln(c.out, c.theme.helpText.Render("Type /help for commands, /quit to exit"))
	fmt.Fprintln(c.out)
	c.render(snap, true)

	stop := make(chan struct{})
	defer close(stop)
	lines, readErr := c.readLines(stop)

	for {
		c.printPrompt()

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				fmt.Fprintln(c.out, "Goodbye!")
				return nil
			}
			line = l
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := c.handleCommand(ctx, input)
			if err != nil {
				fmt.Fprintf(c.out, "%s %v\n", c.theme.errorText.Render("Error:"), err)
				c.logger.Warn("command error", "command", input, "error", err)
			}
			if shouldQuit {
				fmt.Fprintln(c.out, "Goodbye!")
				return nil
			}
			continue
		}

		c.ctrl.SetPendingInput(input)
		if err := c.ctrl.Submit(ctx, input); err != nil {
			c.reportSubmitError(err)
			continue
		}
		c.render(c.ctrl.Snapshot(), false)
	}
}

// readLines scans c.in on its own goroutine so a blocked read never holds up
// cancellation. lines is closed at EOF, after the scan error is sent on errc.
// The goroutine exits once stop is closed and its pending read returns.
func (c *Console) readLines(stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		errc <- scanner.Err()
	}()

	return lines, errc
}

func (c *Console) printPrompt() {
	label := "You"
	if subject := c.ctrl.Snapshot().ActiveSubject; subject != "" {
		label += " " + c.theme.subject.Render("["+string(subject)+"]")
	}
	fmt.Fprintf(c.out, "%s: ", c.theme.user.Render(label))
}

// render writes transcript messages not yet shown. Typed user messages are
// already on screen, so they are skipped unless showUser is set.
func (c *Console) render(snap session.Snapshot, showUser bool) {
	for _, msg := range snap.Transcript {
		if msg.Sequence <= c.rendered {
			continue
		}
		c.rendered = msg.Sequence

		switch msg.Role {
		case session.RoleUser:
			if showUser {
				fmt.Fprintf(c.out, "%s %s\n", c.theme.user.Render("You:"), msg.Content)
			}
		case session.RoleAssistant:
			content := msg.Content
			isLast := msg.Sequence == len(snap.Transcript)
			if isLast && snap.LastError != nil {
				content = c.theme.errorText.Render(content)
			}
			fmt.Fprintf(c.out, "%s %s\n\n", c.theme.bot.Render("Bot:"), content)
		}
	}
}

func (c *Console) reportSubmitError(err error) {
	switch {
	case errors.Is(err, prompt.ErrEmptyInput), errors.Is(err, chatbot.ErrBusy):
		// nothing was sent
	default:
		fmt.Fprintf(c.out, "%s %v\n", c.theme.errorText.Render("Error:"), err)
		c.logger.Error("failed to submit message", "error", err)
	}
}

// handleCommand handles slash commands
func (c *Console) handleCommand(ctx context.Context, cmd string) (bool, error) {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true, nil

	case "/subjects":
		active := c.ctrl.Snapshot().ActiveSubject
		fmt.Fprintln(c.out, "Subjects:")
		for _, s := range catalog.Subjects() {
			marker := ""
			if s == active {
				marker = " (active)"
			}
			fmt.Fprintf(c.out, "  %s%s\n", s, marker)
		}
		return false, nil

	case "/subject":
		if arg == "" {
			active := c.ctrl.Snapshot().ActiveSubject
			if active == "" {
				return false, fmt.Errorf("usage: /subject <name>")
			}
			c.ctrl.SelectSubject(active)
			fmt.Fprintln(c.out, "Subject cleared")
			return false, nil
		}
		subject, ok := catalog.ParseSubject(arg)
		if !ok {
			return false, fmt.Errorf("unknown subject: %s", arg)
		}
		if active := c.ctrl.SelectSubject(subject); active == "" {
			fmt.Fprintln(c.out, "Subject cleared")
		} else {
			fmt.Fprintf(c.out, "Subject set to %s\n", c.theme.subject.Render(string(active)))
		}
		return false, nil

	case "/actions":
		fmt.Fprintln(c.out, "Quick actions:")
		for i, a := range catalog.QuickActions() {
			fmt.Fprintf(c.out, "  %d. %s\n", i+1, a.Label)
		}
		return false, nil

	case "/quick":
		if arg == "" {
			return false, fmt.Errorf("usage: /quick <number|label>")
		}
		action, ok := catalog.FindQuickAction(arg)
		if !ok {
			return false, fmt.Errorf("unknown quick action: %s", arg)
		}
		if err := c.ctrl.RunQuickAction(ctx, action); err != nil {
			c.reportSubmitError(err)
			return false, nil
		}
		c.render(c.ctrl.Snapshot(), true)
		return false, nil

	case "/status":
		snap := c.ctrl.Snapshot()
		subject := string(snap.ActiveSubject)
		if subject == "" {
			subject = "none"
		}
		fmt.Fprintf(c.out, "Session: %s\nStatus: %s\nSubject: %s\nMessages: %d\n", snap.ID, snap.Status, subject, len(snap.Transcript))
		if snap.LastError != nil {
			fmt.Fprintf(c.out, "Last error: %s\n", snap.LastError.Category)
		}
		return false, nil

	case "/failures":
		if c.failures == nil {
			fmt.Fprintln(c.out, "Failure journal is not enabled. Set STUDYCHAT_FAILURE_DB to enable it.")
			return false, nil
		}
		recent, err := c.failures.Recent(ctx, 10)
		if err != nil {
			return false, fmt.Errorf("failed to list failures: %w", err)
		}
		if len(recent) == 0 {
			fmt.Fprintln(c.out, "No failures recorded.")
			return false, nil
		}
		fmt.Fprintln(c.out, "Recent failures:")
		for _, f := range recent {
			fmt.Fprintf(c.out, "  %s  %-14s %3d  %s\n", f.OccurredAt.Format("2006-01-02 15:04:05"), f.Category, f.StatusCode, f.Message)
		}
		return false, nil

	case "/help":
		fmt.Fprintln(c.out, "Available commands:")
		fmt.Fprintln(c.out, "  /subjects            - List subjects")
		fmt.Fprintln(c.out, "  /subject <name>      - Toggle the subject context")
		fmt.Fprintln(c.out, "  /actions             - List quick actions")
		fmt.Fprintln(c.out, "  /quick <n|label>     - Run a quick action")
		fmt.Fprintln(c.out, "  /status              - Show session status")
		fmt.Fprintln(c.out, "  /failures            - Show recent failures")
		fmt.Fprintln(c.out, "  /quit, /exit         - Exit")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s (try /help)", name)
	}
}
