package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"local", "production"} {
		logger, err := New(env)
		require.NoError(t, err)
		require.NotNil(t, logger)
	}
}

func TestTruncateQuestion(t *testing.T) {
	short := "list states"
	assert.Equal(t, short, TruncateQuestion(short))

	long := strings.Repeat("a", MaxQuestionLogLength+50)
	got := TruncateQuestion(long)
	assert.Len(t, got, MaxQuestionLogLength+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}
