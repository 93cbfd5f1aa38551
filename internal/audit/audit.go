package audit

import (
	"context"
	"log/slog"
)

// Event types recorded during a run.
const (
	TypeRunStart       = "run_start"
	TypeAgentSubmitted = "agent_submitted"
	TypeAgentCompleted = "agent_completed"
	TypeAgentFailed    = "agent_failed"
	TypeRunAborted     = "run_aborted"
	TypeRunDone        = "run_done"
)

// Event represents an audit entry for agent executions.
type Event struct {
	// Type describes the event kind.
	Type string
	// CorrelationID links events of one run.
	CorrelationID string
	// Agent is the remote agent name.
	Agent string
	// Item is the input item index; -1 for run-level events.
	Item int
	// ExecutionID is the remote execution id, when known.
	ExecutionID int64
	// Kind is the failure kind for failed items.
	Kind string
	// Reason provides additional context.
	Reason string
}

// Logger records audit events.
type Logger interface {
	// Record stores an audit event.
	Record(ctx context.Context, event Event)
}

// StdLogger writes audit events to slog.
type StdLogger struct {
	logger *slog.Logger
}

// New returns a StdLogger.
func New(logger *slog.Logger) *StdLogger {
	return &StdLogger{logger: logger}
}

// Record logs an audit event.
func (l *StdLogger) Record(ctx context.Context, event Event) {
	if l == nil || l.logger == nil {
		return
	}
	attrs := []any{
		"type", event.Type,
		"correlation_id", event.CorrelationID,
	}
	if event.Agent != "" {
		attrs = append(attrs, "agent", event.Agent)
	}
	if event.Item >= 0 {
		attrs = append(attrs, "item", event.Item)
	}
	if event.ExecutionID != 0 {
		attrs = append(attrs, "execution_id", event.ExecutionID)
	}
	if event.Kind != "" {
		attrs = append(attrs, "kind", event.Kind)
	}
	if event.Reason != "" {
		attrs = append(attrs, "reason", event.Reason)
	}
	l.logger.InfoContext(ctx, "audit", attrs...)
}
