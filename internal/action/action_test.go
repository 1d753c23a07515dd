package action

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bezmoradi/keygrab/internal/logging"
)

func TestRunSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	c := NewCommand("  echo pressed > "+out+"  ", logging.Discard())

	require.NoError(t, c.Run(context.Background()))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "pressed\n", string(data))
}

func TestRunFailureIncludesOutput(t *testing.T) {
	c := NewCommand("echo nope >&2; exit 3", logging.Discard())

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Contains(t, err.Error(), "nope")
}

func TestEmptyCommandIsNoop(t *testing.T) {
	c := NewCommand("   ", logging.Discard())
	assert.True(t, c.Empty())
	assert.NoError(t, c.Run(context.Background()))

	var missing *Command
	assert.True(t, missing.Empty())
}

func TestWithAddsEnvironment(t *testing.T) {
	base := NewCommand(`test "$KEYGRAB_SHORTCUT" = f9 && test "$KEYGRAB_PHASE" = press`, logging.Discard())
	bound := base.With("KEYGRAB_SHORTCUT=f9", "KEYGRAB_PHASE=press")

	assert.Empty(t, base.Env)
	assert.Error(t, base.Run(context.Background()))
	assert.NoError(t, bound.Run(context.Background()))
}

func TestTimeout(t *testing.T) {
	c := NewCommand("sleep 5", logging.Discard())
	c.Timeout = 50 * time.Millisecond

	start := time.Now()
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCancelledContextDoesNotKill(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCommand("true", logging.Discard())
	assert.NoError(t, c.Run(ctx))
}

func TestBackgroundChildDoesNotBlock(t *testing.T) {
	c := NewCommand("sleep 5 &", logging.Discard())

	start := time.Now()
	assert.NoError(t, c.Run(context.Background()))
	assert.Less(t, time.Since(start), 4*time.Second)
}
