package execution

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func bodyJSON(t *testing.T, req Request) map[string]any {
	t.Helper()
	data, err := json.Marshal(req.Body())
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestBuildDefaults(t *testing.T) {
	req, err := Build(Params{AgentName: "  summarizer "})
	require.NoError(t, err)
	assert.Equal(t, "summarizer", req.AgentName)
	assert.Equal(t, 10*time.Minute, req.Timeout)
	assert.Equal(t, "latest", req.Version.String())

	body := bodyJSON(t, req)
	assert.Equal(t, map[string]any{}, body["input_variables"])
	assert.Equal(t, false, body["return_all_outputs"])
	assert.NotContains(t, body, "metadata")
	assert.NotContains(t, body, "workflow_version_number")
	assert.NotContains(t, body, "workflow_label_name")
}

func TestBuildBodyShapes(t *testing.T) {
	cases := []struct {
		name   string
		params Params
		want   map[string]any
	}{
		{
			name: "version number",
			params: Params{
				AgentName:      "a",
				VersionNumber:  intPtr(4),
				InputVariables: `{"q":"hello","n":2}`,
			},
			want: map[string]any{
				"input_variables":         map[string]any{"q": "hello", "n": float64(2)},
				"workflow_version_number": float64(4),
				"return_all_outputs":      false,
			},
		},
		{
			name: "label with metadata",
			params: Params{
				AgentName:        "a",
				LabelName:        "prod",
				InputVariables:   `{}`,
				Metadata:         `{"user":"u1"}`,
				ReturnAllOutputs: true,
			},
			want: map[string]any{
				"input_variables":     map[string]any{},
				"workflow_label_name": "prod",
				"metadata":            map[string]any{"user": "u1"},
				"return_all_outputs":  true,
			},
		},
		{
			name:   "version zero is still a version",
			params: Params{AgentName: "a", VersionNumber: intPtr(0)},
			want: map[string]any{
				"input_variables":         map[string]any{},
				"workflow_version_number": float64(0),
				"return_all_outputs":      false,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := Build(tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.want, bodyJSON(t, req))
		})
	}
}

func TestBuildMalformedInput(t *testing.T) {
	cases := []struct {
		name   string
		params Params
		field  string
	}{
		{"missing agent", Params{}, "agent_name"},
		{"both selectors", Params{AgentName: "a", VersionNumber: intPtr(1), LabelName: "prod"}, "version"},
		{"bad variables", Params{AgentName: "a", InputVariables: `{"q":`}, "input_variables"},
		{"variables not an object", Params{AgentName: "a", InputVariables: `[1,2]`}, "input_variables"},
		{"null variables", Params{AgentName: "a", InputVariables: `null`}, "input_variables"},
		{"bad metadata", Params{AgentName: "a", Metadata: `nope`}, "metadata"},
		{"negative timeout", Params{AgentName: "a", TimeoutMinutes: -1}, "timeout_minutes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.params)
			require.Error(t, err)
			var typed *Error
			require.ErrorAs(t, err, &typed)
			assert.Equal(t, KindMalformedInput, typed.Kind)
			assert.Equal(t, tc.field, typed.Field)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestBuildNeverSendsBothSelectors(t *testing.T) {
	inputs := []string{"", `{}`, `{"a":1}`, `{"nested":{"x":[1,2,3]}}`}
	metas := []string{"", `{}`, `{"m":true}`}
	selectors := []Params{
		{},
		{VersionNumber: intPtr(2)},
		{LabelName: "staging"},
	}
	for _, in := range inputs {
		for _, meta := range metas {
			for _, sel := range selectors {
				sel.AgentName = "agent"
				sel.InputVariables = in
				sel.Metadata = meta
				req, err := Build(sel)
				require.NoError(t, err)
				body := bodyJSON(t, req)
				assert.Contains(t, body, "input_variables")
				assert.Contains(t, body, "return_all_outputs")
				_, hasNumber := body["workflow_version_number"]
				_, hasLabel := body["workflow_label_name"]
				assert.False(t, hasNumber && hasLabel)
			}
		}
	}
}

func TestBuildCustomTimeout(t *testing.T) {
	req, err := Build(Params{AgentName: "a", TimeoutMinutes: 3})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, req.Timeout)
}
