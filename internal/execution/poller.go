package execution

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/codex-k8s/agent-runner/internal/agentapi"
)

// DefaultPollInterval is the fixed delay between two polls of a pending execution.
const DefaultPollInterval = 5 * time.Second

// State is a state of the polling loop.
type State int

// Polling loop states. StatePolling is the only non-terminal state.
const (
	StatePolling State = iota
	StateCompleted
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Poller drives a submitted execution to a terminal state.
type Poller struct {
	// API serves the results endpoint.
	API API
	// Clock provides time and suspension.
	Clock Clock
	// Interval is the delay after a pending poll.
	Interval time.Duration
	// Logger is used for structured logging.
	Logger *slog.Logger
}

// Transition is the outcome of one loop iteration.
type Transition struct {
	State State
	// Body is set when State is StateCompleted.
	Body json.RawMessage
	// Err is set when State is StateFailed or StateTimedOut.
	Err error
}

// Step runs one iteration from the Polling state: it checks the elapsed time
// budget, then issues a single poll and maps the HTTP status code.
func (p Poller) Step(ctx context.Context, h Handle, returnAllOutputs bool, timeout time.Duration) Transition {
	elapsed := p.clock().Now().Sub(h.IssuedAt)
	if elapsed >= timeout {
		return Transition{State: StateTimedOut, Err: &Error{Kind: KindTimedOut}}
	}

	outcome, err := p.API.Results(ctx, h.ExecutionID, returnAllOutputs)
	if err != nil {
		return Transition{State: StateFailed, Err: &Error{Kind: KindTransport, Err: err}}
	}
	switch outcome.State {
	case agentapi.PollCompleted:
		return Transition{State: StateCompleted, Body: outcome.Body}
	case agentapi.PollPending:
		return Transition{State: StatePolling}
	default:
		return Transition{State: StateFailed, Err: &Error{Kind: KindUnexpectedStatus, StatusCode: outcome.StatusCode}}
	}
}

// Await polls until the execution completes, fails, or exceeds timeout
// measured from the handle's issue time.
func (p Poller) Await(ctx context.Context, h Handle, returnAllOutputs bool, timeout time.Duration) (json.RawMessage, error) {
	for attempt := 1; ; attempt++ {
		tr := p.Step(ctx, h, returnAllOutputs, timeout)
		if p.Logger != nil {
			p.Logger.Debug("poll", "execution_id", h.ExecutionID, "attempt", attempt, "state", tr.State.String())
		}
		switch tr.State {
		case StateCompleted:
			return tr.Body, nil
		case StateFailed, StateTimedOut:
			return nil, tr.Err
		}

		if err := p.clock().Sleep(ctx, p.interval()); err != nil {
			return nil, &Error{Kind: KindTransport, Err: err}
		}
	}
}

func (p Poller) clock() Clock {
	if p.Clock == nil {
		return SystemClock{}
	}
	return p.Clock
}

func (p Poller) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultPollInterval
	}
	return p.Interval
}
