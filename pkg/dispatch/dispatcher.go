// Package dispatch routes transcription lines to exactly one handler while
// the client is listening. Matching is plain lower-cased substring
// containment in a fixed priority order, with suppression of immediately
// repeated commands.
package dispatch

import (
	"context"
	"strings"

	"github.com/notedhq/noted/pkg/trigger"
)

// Handler receives dispatched commands. The orchestrator implements this;
// tests use a recording fake.
type Handler interface {
	HandleQuestion(ctx context.Context, text string)
	HandleHelp(ctx context.Context)
	HandleAnalyzePhoto(ctx context.Context)
	HandleMarkMoment(ctx context.Context)
	HandleSummarize(ctx context.Context)
	HandleExportSession(ctx context.Context)
	HandleStartSession(ctx context.Context, command string)
	HandleEndSession(ctx context.Context)
	HandleToggleAutoCapture(ctx context.Context)
	HandleNote(ctx context.Context, text string)
}

// fillerWords never become notes on their own.
var fillerWords = []string{"um", "uh", "ah", "er", "so", "like", "you know", "actually", "basically"}

// Dispatcher routes one transcription line to exactly one handler. It keeps
// the normalized text of the last dispatched command and swallows an exact
// repeat entirely; two matching commands separated by any other line both
// fire.
type Dispatcher struct {
	handler     Handler
	matcher     *trigger.Matcher
	lastCommand string
}

// NewDispatcher creates a dispatcher routing to the given handler. The
// matcher is used to keep wake phrases out of the note path.
func NewDispatcher(handler Handler, matcher *trigger.Matcher) *Dispatcher {
	return &Dispatcher{handler: handler, matcher: matcher}
}

// Reset clears duplicate-suppression state. Called on the wake transition so
// a fresh listening period starts with no remembered command.
func (d *Dispatcher) Reset() {
	d.lastCommand = ""
}

// Dispatch routes one line. Returns true when a command handler ran, false
// when the line was suppressed, recorded as a note, or discarded.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) bool {
	lower := strings.ToLower(text)

	// Exact repeat of the previous command is a no-op: no handler, no note.
	if d.lastCommand != "" && d.lastCommand == lower {
		return false
	}

	if cmd := d.match(lower); cmd != nil {
		d.lastCommand = lower
		cmd(ctx, text)
		return true
	}

	// Any non-command line clears suppression: only an immediately repeated
	// command is swallowed, so "help" / other speech / "help" fires twice.
	d.lastCommand = ""

	if d.isMeaningful(text) && !d.matcher.IsWake(text) {
		d.handler.HandleNote(ctx, text)
	}
	return false
}

// match returns the handler invocation for the first matching command
// pattern, or nil. Order is fixed and load-bearing: a question outranks
// every named command.
func (d *Dispatcher) match(lower string) func(context.Context, string) {
	switch {
	case IsQuestion(lower):
		return func(ctx context.Context, text string) { d.handler.HandleQuestion(ctx, text) }
	case strings.Contains(lower, "help"):
		return func(ctx context.Context, _ string) { d.handler.HandleHelp(ctx) }
	case strings.Contains(lower, "analyze photo") || strings.Contains(lower, "describe photo"):
		return func(ctx context.Context, _ string) { d.handler.HandleAnalyzePhoto(ctx) }
	case strings.Contains(lower, "mark this") || strings.Contains(lower, "bookmark"):
		return func(ctx context.Context, _ string) { d.handler.HandleMarkMoment(ctx) }
	case strings.Contains(lower, "summarize") || strings.Contains(lower, "summary"):
		return func(ctx context.Context, _ string) { d.handler.HandleSummarize(ctx) }
	case strings.Contains(lower, "export") || strings.Contains(lower, "save session"):
		return func(ctx context.Context, _ string) { d.handler.HandleExportSession(ctx) }
	case strings.Contains(lower, "start session") || strings.Contains(lower, "start lecture") || strings.Contains(lower, "start meeting"):
		return func(ctx context.Context, _ string) { d.handler.HandleStartSession(ctx, lower) }
	case strings.Contains(lower, "end session") || strings.Contains(lower, "stop session"):
		return func(ctx context.Context, _ string) { d.handler.HandleEndSession(ctx) }
	case strings.Contains(lower, "toggle auto capture") || strings.Contains(lower, "auto capture"):
		return func(ctx context.Context, _ string) { d.handler.HandleToggleAutoCapture(ctx) }
	}
	return nil
}

// isMeaningful filters out lines too thin to record as notes: very short
// text, single letters, and bare filler words.
func (d *Dispatcher) isMeaningful(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, filler := range fillerWords {
		if lower == filler {
			return false
		}
	}

	return true
}
