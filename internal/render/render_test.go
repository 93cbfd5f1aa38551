package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBytesEnvHelpers(t *testing.T) {
	t.Setenv("AR_TEST_LISTEN", ":9000")
	t.Setenv("AR_TEST_EMPTY", "")

	out, err := RenderBytes("cfg.yaml", []byte(`listen: {{ env "AR_TEST_LISTEN" }}
transport: {{ envOr "AR_TEST_EMPTY" "stdio" }}
name: {{ default "agent-runner" "" | quote }}`))
	require.NoError(t, err)
	assert.Equal(t, "listen: :9000\ntransport: stdio\nname: \"agent-runner\"", string(out))
}

func TestRenderBytesReportsMissingEnv(t *testing.T) {
	_, err := RenderBytes("", []byte(`a: {{ env "AR_TEST_UNSET_B" }}
b: {{ env "AR_TEST_UNSET_A" }}`))
	assert.EqualError(t, err, "missing env vars: AR_TEST_UNSET_A, AR_TEST_UNSET_B")
}

func TestRenderBytesRequired(t *testing.T) {
	_, err := RenderBytes("cfg", []byte(`k: {{ required "api base url is required" "" }}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api base url is required")
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`v: {{ upper "x" }}`), 0o600))
	out, err := RenderFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v: X", string(out))

	_, err = RenderFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
