package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	cases := []struct {
		level string
		debug bool
		want  zapcore.Level
	}{
		{"", false, zapcore.InfoLevel},
		{"warn", false, zapcore.WarnLevel},
		{" ERROR ", false, zapcore.ErrorLevel},
		{"error", true, zapcore.DebugLevel},
	}
	for _, tc := range cases {
		l, err := New(tc.level, tc.debug)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(tc.want), "level %q", tc.level)
		if tc.want > zapcore.DebugLevel {
			assert.False(t, l.Core().Enabled(tc.want-1), "level %q", tc.level)
		}
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", false)
	require.Error(t, err)
}
