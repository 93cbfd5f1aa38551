package execution

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codex-k8s/agent-runner/internal/agentapi"
)

// DefaultTimeoutMinutes applies when an item does not set a timeout.
const DefaultTimeoutMinutes = 10

// Params are the raw per-item values supplied by the host.
type Params struct {
	// AgentName is the remote agent to run.
	AgentName string `json:"agent_name"`
	// VersionNumber pins an explicit version.
	VersionNumber *int `json:"version_number,omitempty"`
	// LabelName pins a named label.
	LabelName string `json:"label_name,omitempty"`
	// InputVariables is a JSON object encoded as a string.
	InputVariables string `json:"input_variables,omitempty"`
	// Metadata is an optional JSON object encoded as a string.
	Metadata string `json:"metadata,omitempty"`
	// ReturnAllOutputs asks for every node output.
	ReturnAllOutputs bool `json:"return_all_outputs,omitempty"`
	// TimeoutMinutes is the polling budget in minutes.
	TimeoutMinutes int `json:"timeout_minutes,omitempty"`
}

type selectorKind int

const (
	selectorNone selectorKind = iota
	selectorNumber
	selectorLabel
)

// VersionSelector pins which revision of an agent runs. The zero value selects none.
type VersionSelector struct {
	kind   selectorKind
	number int
	label  string
}

// VersionNumber selects an explicit version.
func VersionNumber(n int) VersionSelector {
	return VersionSelector{kind: selectorNumber, number: n}
}

// LabelName selects a named label.
func LabelName(label string) VersionSelector {
	return VersionSelector{kind: selectorLabel, label: label}
}

// Number returns the pinned version number, if any.
func (v VersionSelector) Number() (int, bool) {
	return v.number, v.kind == selectorNumber
}

// Label returns the pinned label, if any.
func (v VersionSelector) Label() (string, bool) {
	return v.label, v.kind == selectorLabel
}

func (v VersionSelector) String() string {
	switch v.kind {
	case selectorNumber:
		return fmt.Sprintf("version %d", v.number)
	case selectorLabel:
		return "label " + v.label
	default:
		return "latest"
	}
}

// Request is a validated agent execution request.
type Request struct {
	// AgentName is the trimmed remote agent name.
	AgentName string
	// Version pins the agent revision; the zero value runs the latest.
	Version VersionSelector
	// InputVariables is never nil.
	InputVariables map[string]any
	// Metadata is nil when not supplied and then omitted from the body.
	Metadata map[string]any
	// ReturnAllOutputs asks for every node output.
	ReturnAllOutputs bool
	// Timeout is the polling budget measured from submission.
	Timeout time.Duration
}

// Build validates raw params and assembles a Request. It has no side effects.
func Build(p Params) (Request, error) {
	name := strings.TrimSpace(p.AgentName)
	if name == "" {
		return Request{}, malformed("agent_name", errors.New("agent name is required"))
	}

	var version VersionSelector
	label := strings.TrimSpace(p.LabelName)
	switch {
	case p.VersionNumber != nil && label != "":
		return Request{}, malformed("version", errors.New("version_number and label_name are mutually exclusive"))
	case p.VersionNumber != nil:
		version = VersionNumber(*p.VersionNumber)
	case label != "":
		version = LabelName(label)
	}

	if p.TimeoutMinutes < 0 {
		return Request{}, malformed("timeout_minutes", fmt.Errorf("must be at least 1, got %d", p.TimeoutMinutes))
	}
	minutes := p.TimeoutMinutes
	if minutes == 0 {
		minutes = DefaultTimeoutMinutes
	}

	inputs, err := parseObject(p.InputVariables)
	if err != nil {
		return Request{}, malformed("input_variables", err)
	}
	if inputs == nil {
		inputs = map[string]any{}
	}
	metadata, err := parseObject(p.Metadata)
	if err != nil {
		return Request{}, malformed("metadata", err)
	}

	return Request{
		AgentName:        name,
		Version:          version,
		InputVariables:   inputs,
		Metadata:         metadata,
		ReturnAllOutputs: p.ReturnAllOutputs,
		Timeout:          time.Duration(minutes) * time.Minute,
	}, nil
}

// Body returns the submission payload for the request.
func (r Request) Body() agentapi.RunRequest {
	body := agentapi.RunRequest{
		InputVariables:   r.InputVariables,
		Metadata:         r.Metadata,
		ReturnAllOutputs: r.ReturnAllOutputs,
	}
	if body.InputVariables == nil {
		body.InputVariables = map[string]any{}
	}
	if n, ok := r.Version.Number(); ok {
		body.WorkflowVersionNumber = &n
	}
	if label, ok := r.Version.Label(); ok {
		body.WorkflowLabelName = label
	}
	return body
}

// parseObject decodes a JSON object; a blank string yields nil.
func parseObject(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if out == nil {
		return nil, errors.New("expected a json object")
	}
	return out, nil
}
