package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Security event kinds
const (
	EventExternalRedirect = "external_redirect_rejected"
	EventPathEscape       = "media_path_escape"
)

// SecurityLogger records events an operator must review. Security events
// are kept out of migration results.
type SecurityLogger interface {
	Event(ctx context.Context, kind string, attrs ...slog.Attr)
}

// SlogSecurityLogger writes security events through slog with channel=security.
type SlogSecurityLogger struct {
	logger *slog.Logger
	closer io.Closer
}

// NewSecurityLogger returns a logger that writes to the default slog
// handler and, when file is set, also to that file as JSON lines.
func NewSecurityLogger(file string) (*SlogSecurityLogger, error) {
	l := &SlogSecurityLogger{}
	handler := slog.Default().Handler()
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, err
		}
		l.closer = f
		handler = &teeHandler{
			handlers: []slog.Handler{handler, slog.NewJSONHandler(f, nil)},
		}
	}
	l.logger = slog.New(handler).With("channel", "security")
	return l, nil
}

// NewSecurityLoggerFrom wraps an existing logger.
func NewSecurityLoggerFrom(logger *slog.Logger) *SlogSecurityLogger {
	return &SlogSecurityLogger{logger: logger.With("channel", "security")}
}

// Event logs one security event at warn level.
func (l *SlogSecurityLogger) Event(ctx context.Context, kind string, attrs ...slog.Attr) {
	all := append([]slog.Attr{slog.String("event", kind)}, attrs...)
	l.logger.LogAttrs(ctx, slog.LevelWarn, "Security event", all...)
}

// Close releases the event file, if any.
func (l *SlogSecurityLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// RecordingSecurityLogger keeps events in memory.
type RecordingSecurityLogger struct {
	mu     sync.Mutex
	events []SecurityEvent
}

// SecurityEvent is one recorded event.
type SecurityEvent struct {
	Kind  string
	Attrs map[string]string
}

// Event records an event.
func (r *RecordingSecurityLogger) Event(_ context.Context, kind string, attrs ...slog.Attr) {
	ev := SecurityEvent{Kind: kind, Attrs: make(map[string]string, len(attrs))}
	for _, a := range attrs {
		ev.Attrs[a.Key] = a.Value.String()
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *RecordingSecurityLogger) Events() []SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SecurityEvent(nil), r.events...)
}

type teeHandler struct {
	handlers []slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &teeHandler{handlers: make([]slog.Handler, len(h.handlers))}
	for i, hh := range h.handlers {
		out.handlers[i] = hh.WithAttrs(attrs)
	}
	return out
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	out := &teeHandler{handlers: make([]slog.Handler, len(h.handlers))}
	for i, hh := range h.handlers {
		out.handlers[i] = hh.WithGroup(name)
	}
	return out
}
