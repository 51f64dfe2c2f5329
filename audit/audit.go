// Package audit defines the append-only audit sink the team services
// report into. Audit records are observability, not a correctness input:
// sinks must return quickly and must not fail the operation that emitted
// the record.
package audit

import (
	"context"
	"log/slog"
)

// Entry describes a single recorded action.
type Entry struct {
	ActorID    string
	ActorType  string
	EntityType string
	EntityID   string
	Action     string
	TargetID   string
	Metadata   map[string]any
}

// Logger receives audit entries. Implementations are called after the
// operation's transaction has committed and must not block the caller.
type Logger interface {
	Log(ctx context.Context, e Entry)
}

// Slog is a Logger that writes entries through a slog.Logger.
type Slog struct {
	L *slog.Logger
}

// NewSlog returns a Slog sink. A nil logger falls back to slog.Default.
func NewSlog(l *slog.Logger) *Slog {
	if l == nil {
		l = slog.Default()
	}
	return &Slog{L: l}
}

// Log writes the entry at info level.
func (s *Slog) Log(ctx context.Context, e Entry) {
	attrs := []any{
		"actor_id", e.ActorID,
		"actor_type", e.ActorType,
		"entity_type", e.EntityType,
		"entity_id", e.EntityID,
		"action", e.Action,
	}
	if e.TargetID != "" {
		attrs = append(attrs, "target_id", e.TargetID)
	}
	if len(e.Metadata) > 0 {
		attrs = append(attrs, "metadata", e.Metadata)
	}
	s.L.InfoContext(ctx, "audit", attrs...)
}

// Nop is a Logger that discards every entry.
type Nop struct{}

func (Nop) Log(context.Context, Entry) {}
