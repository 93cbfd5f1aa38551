package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationOrDefault(t *testing.T) {
	assert.Equal(t, 3*time.Second, ParseDurationOrDefault(" 3s ", time.Minute))
	assert.Equal(t, time.Minute, ParseDurationOrDefault("", time.Minute))
	assert.Equal(t, time.Minute, ParseDurationOrDefault("later", time.Minute))
}

func TestPerMinute(t *testing.T) {
	assert.Equal(t, time.Second, PerMinute(60))
	assert.Zero(t, PerMinute(0))
}
