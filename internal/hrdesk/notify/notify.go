// Package notify carries transient user-facing notifications (title,
// description, severity). Nothing blocks on them.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Notification struct {
	Title       string
	Description string
	Severity    Severity
}

func Info(title, desc string) Notification    { return Notification{title, desc, SeverityInfo} }
func Success(title, desc string) Notification { return Notification{title, desc, SeveritySuccess} }
func Warning(title, desc string) Notification { return Notification{title, desc, SeverityWarning} }
func Error(title, desc string) Notification   { return Notification{title, desc, SeverityError} }

// Notifier shows a notification to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// ============================================================================
// LogNotifier
// ============================================================================

// LogNotifier writes notifications to a structured logger. Errors log at
// Warn since they're user facing, not operational failures.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) {
	level := slog.LevelInfo
	if n.Severity == SeverityError || n.Severity == SeverityWarning {
		level = slog.LevelWarn
	}
	l.Logger.Log(ctx, level, "notification",
		"title", n.Title,
		"description", n.Description,
		"severity", string(n.Severity),
	)
}

// ============================================================================
// WriterNotifier
// ============================================================================

// WriterNotifier prints one line per notification, for the console.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (wn *WriterNotifier) Notify(_ context.Context, n Notification) {
	wn.mu.Lock()
	defer wn.mu.Unlock()

	if n.Description == "" {
		fmt.Fprintf(wn.w, "[%s] %s\n", n.Severity, n.Title)
		return
	}
	fmt.Fprintf(wn.w, "[%s] %s: %s\n", n.Severity, n.Title, n.Description)
}

// ============================================================================
// Fan-out and recording
// ============================================================================

// Multi sends every notification to each notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		nt.Notify(ctx, n)
	}
}

// Recorder keeps every notification. Handy in tests.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, n)
}

// All returns a copy of what was recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Last returns the most recent notification, or false if none.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}
