package settings

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eugenenazirov/stac-search-settings/internal/metrics"
)

func TestWarnDirectResponseEnabled(t *testing.T) {
	clearFlags(t)
	t.Setenv(EnableDirectResponseEnv, "true")

	core, logs := observer.New(zapcore.DebugLevel)
	warned := WarnDirectResponse(zap.New(core), NewClientSettings(), NewTypedClientSettings())

	assert.True(t, warned)
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "authentication")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DirectResponseEnabled))
}

func TestWarnDirectResponseDisabled(t *testing.T) {
	clearFlags(t)

	core, logs := observer.New(zapcore.DebugLevel)
	warned := WarnDirectResponse(zap.New(core), NewClientSettings(), NewTypedClientSettings())

	assert.False(t, warned)
	assert.Equal(t, 0, logs.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.DirectResponseEnabled))
}

func TestWarnDirectResponseRepeatable(t *testing.T) {
	clearFlags(t)
	t.Setenv(EnableDirectResponseEnv, "1")

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	views := []View{NewClientSettings(), NewTypedClientSettings()}

	WarnDirectResponse(logger, views...)
	WarnDirectResponse(logger, views...)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].Message, entries[1].Message)
}

func TestWarnDirectResponseToleratesNil(t *testing.T) {
	clearFlags(t)

	var typedNil *Settings[*fakeClient]
	assert.NotPanics(t, func() {
		assert.False(t, WarnDirectResponse(nil, nil, typedNil))
	})
}
