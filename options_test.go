package lwp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOptionsDefaults(t *testing.T) {
	cfg := resolveOptions(nil)
	require.NotNil(t, cfg.scheduler)
	require.NotNil(t, cfg.logger)
	require.NotNil(t, cfg.metrics)
	assert.False(t, cfg.metrics.enabled)
}

func TestWithSchedulerRejectsNil(t *testing.T) {
	opt := WithScheduler(nil)
	cfg := &runtimeOptions{}
	err := opt.applyRuntime(cfg)
	assert.Error(t, err)
}

func TestWithLoggerRejectsNil(t *testing.T) {
	opt := WithLogger(nil)
	cfg := &runtimeOptions{}
	err := opt.applyRuntime(cfg)
	assert.Error(t, err)
}

func TestWithMetricsEnabled(t *testing.T) {
	cfg := resolveOptions([]Option{WithMetricsEnabled(true)})
	assert.True(t, cfg.metrics.enabled)
}

func TestWithStackSize(t *testing.T) {
	cfg := resolveOptions([]Option{WithStackSize(4096)})
	assert.Equal(t, 4096, cfg.stackSize)
}
