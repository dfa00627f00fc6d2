package chatbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"StudyChat/internal/catalog"
	"StudyChat/internal/classify"
	"StudyChat/internal/prompt"
	"StudyChat/internal/session"
	"StudyChat/internal/store"
)

var (
	// ErrBusy is returned when a request is already in flight. The call is a
	// no-op.
	ErrBusy = errors.New("a request is already in flight")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("chat session closed")
)

// Completer sends a prompt to the completion service
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// FailureJournal receives every classified failure
type FailureJournal interface {
	Record(ctx context.Context, f store.Failure) error
}

// Options configures a ChatBot. Every field is optional.
type Options struct {
	Logger *slog.Logger
	Tracer trace.Tracer
	Meter  metric.Meter

	// Classifier turns completion failures into transcript text. The default,
	// classify.New(), knows no secrets and redacts nothing from service error
	// messages; callers holding a credential pass classify.New(apiKey).
	Classifier *classify.Classifier
	Journal    FailureJournal

	// OnChange is called with a fresh snapshot after every state transition,
	// on the goroutine that caused it. Calls are serialised and arrive in the
	// order the transitions happened. OnChange may call Snapshot or LastError
	// but must not call back into methods that change the session.
	OnChange func(session.Snapshot)
}

// ChatBot owns one session and drives the request lifecycle
type ChatBot struct {
	client     Completer
	classifier *classify.Classifier
	journal    FailureJournal
	logger     *slog.Logger
	tracer     trace.Tracer
	onChange   func(session.Snapshot)

	submissions metric.Int64Counter
	failures    metric.Int64Counter

	notifyMu sync.Mutex // held around mu and OnChange delivery
	mu       sync.Mutex
	session  *session.Session
	closed   bool
}

// NewChatBot creates a controller with a freshly seeded session
func NewChatBot(client Completer, opts Options) (*ChatBot, error) {
	if client == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("studychat")
	}
	if opts.Meter == nil {
		opts.Meter = otel.Meter("studychat")
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.New()
	}

	submissions, err := opts.Meter.Int64Counter(
		"chat.submissions",
		metric.WithDescription("Prompts sent to the completion service"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create submissions counter: %w", err)
	}
	failures, err := opts.Meter.Int64Counter(
		"chat.failures",
		metric.WithDescription("Classified completion failures"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create failures counter: %w", err)
	}

	cb := &ChatBot{
		client:      client,
		classifier:  opts.Classifier,
		journal:     opts.Journal,
		logger:      opts.Logger,
		tracer:      opts.Tracer,
		onChange:    opts.OnChange,
		submissions: submissions,
		failures:    failures,
		session:     session.New(),
	}
	cb.logger.Info("created new session", "session_id", cb.session.ID)
	return cb, nil
}

// request is a submission that has been accepted and is waiting on the network
type request struct {
	sessionID string
	prompt    string
	subject   catalog.Subject
}

// Submit sends rawText. The user message is appended before the network call;
// the assistant reply (or the classified failure text) after it. Completion
// failures are not returned: they land in the transcript and in LastError.
func (cb *ChatBot) Submit(ctx context.Context, rawText string) error {
	req, err := cb.begin(rawText)
	if err != nil {
		return err
	}
	cb.finish(ctx, req)
	return nil
}

// SubmitAsync is Submit for callers that must not block. The user message is
// appended before it returns; the channel yields the outcome once the reply
// has been appended.
func (cb *ChatBot) SubmitAsync(ctx context.Context, rawText string) <-chan error {
	done := make(chan error, 1)

	req, err := cb.begin(rawText)
	if err != nil {
		done <- err
		return done
	}

	go func() {
		cb.finish(ctx, req)
		done <- nil
	}()
	return done
}

// RunQuickAction submits the action's synthetic text, composed against the
// active subject.
func (cb *ChatBot) RunQuickAction(ctx context.Context, action catalog.QuickAction) error {
	var req request
	var err error
	cb.update(func() []session.Snapshot {
		if err = cb.checkLocked(); err != nil {
			return nil
		}
		text := prompt.QuickActionText(action, cb.session.ActiveSubject)
		if strings.TrimSpace(text) == "" {
			err = prompt.ErrEmptyInput
			return nil
		}
		cb.session.PendingInput = text
		pending := cb.session.Snapshot()

		if req, err = cb.beginLocked(text); err != nil {
			return []session.Snapshot{pending}
		}
		return []session.Snapshot{pending, cb.session.Snapshot()}
	})
	if err != nil {
		return err
	}

	cb.logger.Info("running quick action", "session_id", req.sessionID, "action", action.Label)
	cb.finish(ctx, req)
	return nil
}

// SelectSubject toggles the active subject: selecting the active one clears
// it. It returns the subject now active.
func (cb *ChatBot) SelectSubject(subject catalog.Subject) catalog.Subject {
	var active catalog.Subject
	var id string
	cb.update(func() []session.Snapshot {
		if cb.session.ActiveSubject == subject {
			cb.session.ActiveSubject = ""
		} else {
			cb.session.ActiveSubject = subject
		}
		active = cb.session.ActiveSubject
		id = cb.session.ID
		return []session.Snapshot{cb.session.Snapshot()}
	})

	cb.logger.Info("subject changed", "session_id", id, "subject", string(active))
	return active
}

// SetPendingInput records the text currently being typed
func (cb *ChatBot) SetPendingInput(text string) {
	cb.update(func() []session.Snapshot {
		cb.session.PendingInput = text
		return []session.Snapshot{cb.session.Snapshot()}
	})
}

// Snapshot returns a copy of the session state
func (cb *ChatBot) Snapshot() session.Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.session.Snapshot()
}

// LastError returns the classification of the most recent failed submission,
// or nil if the last submission succeeded.
func (cb *ChatBot) LastError() *classify.Result {
	return cb.Snapshot().LastError
}

// Close tears the session down. In-flight requests still complete.
func (cb *ChatBot) Close() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.closed {
		return nil
	}
	cb.closed = true
	cb.logger.Info("session closed", "session_id", cb.session.ID, "message_count", cb.session.Len())
	return nil
}

func (cb *ChatBot) checkLocked() error {
	if cb.closed {
		return ErrClosed
	}
	if cb.session.Status == session.StatusSending {
		cb.logger.Debug("submission ignored, request in flight", "session_id", cb.session.ID)
		return ErrBusy
	}
	return nil
}

// beginLocked validates rawText and moves the session into Sending. On error
// the session is untouched.
func (cb *ChatBot) beginLocked(rawText string) (request, error) {
	if err := cb.checkLocked(); err != nil {
		return request{}, err
	}

	fullPrompt, err := prompt.Compose(rawText, cb.session.ActiveSubject)
	if err != nil {
		return request{}, err
	}

	cb.session.Append(session.RoleUser, rawText)
	cb.session.PendingInput = ""
	cb.session.Status = session.StatusSending
	cb.session.LastError = nil

	return request{
		sessionID: cb.session.ID,
		prompt:    fullPrompt,
		subject:   cb.session.ActiveSubject,
	}, nil
}

// finish performs the network call and records its outcome
func (cb *ChatBot) finish(ctx context.Context, req request) {
	ctx, span := cb.tracer.Start(ctx, "chat_submit",
		trace.WithAttributes(attribute.String("chat.subject", string(req.subject))),
	)
	defer span.End()

	cb.submissions.Add(ctx, 1)
	cb.logger.Info("message submitted", "session_id", req.sessionID, "subject", string(req.subject), "prompt_len", len(req.prompt))

	reply, err := cb.client.Complete(ctx, req.prompt)
	if err != nil {
		cb.recordFailure(ctx, span, req, err)
		return
	}

	cb.update(func() []session.Snapshot {
		cb.session.Append(session.RoleAssistant, reply)
		cb.session.Status = session.StatusIdle
		return []session.Snapshot{cb.session.Snapshot()}
	})

	span.SetAttributes(attribute.String("chat.outcome", "ok"))
	cb.logger.Info("reply appended", "session_id", req.sessionID, "response_len", len(reply))
}

func (cb *ChatBot) recordFailure(ctx context.Context, span trace.Span, req request, err error) {
	result := cb.classifier.Classify(err)

	span.SetAttributes(attribute.String("chat.outcome", string(result.Category)))
	cb.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("category", string(result.Category))))
	cb.logger.Warn("completion failed",
		"session_id", req.sessionID,
		"category", string(result.Category),
		"status_code", result.StatusCode,
	)

	cb.update(func() []session.Snapshot {
		cb.session.Append(session.RoleAssistant, result.Message)
		cb.session.LastError = &result
		cb.session.Status = session.StatusFailed
		failed := cb.session.Snapshot()
		cb.session.Status = session.StatusIdle
		return []session.Snapshot{failed, cb.session.Snapshot()}
	})

	if cb.journal == nil {
		return
	}
	entry := store.Failure{
		SessionID:  req.sessionID,
		Category:   result.Category,
		StatusCode: result.StatusCode,
		Message:    result.Message,
	}
	// Record even when the request context was cancelled.
	if err := cb.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		cb.logger.Error("failed to record failure", "session_id", req.sessionID, "error", err)
	}
}

// begin accepts rawText as the next submission and announces the Sending state
func (cb *ChatBot) begin(rawText string) (request, error) {
	var req request
	var err error
	cb.update(func() []session.Snapshot {
		if req, err = cb.beginLocked(rawText); err != nil {
			return nil
		}
		return []session.Snapshot{cb.session.Snapshot()}
	})
	return req, err
}

// update applies fn under the state lock, then hands the snapshots it returns
// to OnChange. notifyMu is held across both steps so observers see snapshots
// in the order the state changed.
func (cb *ChatBot) update(fn func() []session.Snapshot) {
	cb.notifyMu.Lock()
	defer cb.notifyMu.Unlock()

	cb.mu.Lock()
	snaps := fn()
	cb.mu.Unlock()

	if cb.onChange == nil {
		return
	}
	for _, snap := range snaps {
		cb.onChange(snap)
	}
}
