package logx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Level(t *testing.T) {
	t.Parallel()
	l, err := New("WARN")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))
	require.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = New("loud")
	require.Error(t, err)
}

func TestContextIDs(t *testing.T) {
	t.Parallel()
	ctx := WithTraceID(WithRequestID(context.Background(), "rid-1"), "tid-1")
	require.Equal(t, "rid-1", RequestID(ctx))
	require.Equal(t, "tid-1", TraceID(ctx))
	require.Empty(t, RequestID(context.Background()))
	require.NotNil(t, WithFields(ctx))
}
