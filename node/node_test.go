package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpaflow/engine/automation"
	"github.com/rpaflow/engine/runtime"
	"github.com/rpaflow/engine/value"
	"github.com/rpaflow/engine/variable"
)

func newTestContext(data map[string]any) (*Context, *runtime.Coordinator, *variable.Store) {
	vars := variable.New()
	rt := runtime.New("wf1")
	hc := &Context{
		Ctx:       context.Background(),
		NodeID:    "n1",
		Data:      data,
		Variables: vars,
		Runtime:   rt,
	}
	return hc, rt, vars
}

func TestSetVariableHandlerNumberCoercion(t *testing.T) {
	hc, _, vars := newTestContext(map[string]any{
		"name": "x", "value": "42", "type": "number",
	})
	require.NoError(t, setVariableHandler(hc))
	v, ok := vars.Get("x")
	require.True(t, ok)
	n, ok := v.AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(42), n)
}

func TestSetVariableHandlerInterpolatesValue(t *testing.T) {
	hc, _, vars := newTestContext(map[string]any{
		"name": "x", "value": "${a}b", "type": "string",
	})
	vars.Set("a", value.String("z"), variable.ScopeGlobal)
	require.NoError(t, setVariableHandler(hc))
	v, _ := vars.Get("x")
	s, _ := v.AsString()
	assert.Equal(t, "zb", s)
}

func TestLogHandlerLevels(t *testing.T) {
	hc, rt, _ := newTestContext(map[string]any{"message": "hi", "level": "warn"})
	require.NoError(t, logHandler(hc))
	snap := rt.Snapshot()
	require.Len(t, snap.Logs, 1)
	assert.Equal(t, runtime.LevelWarn, snap.Logs[0].Level)
	assert.Equal(t, "hi", snap.Logs[0].Message)
}

func TestDispatcherUnknownTypeIsUnhandled(t *testing.T) {
	d := NewDispatcher()
	hc, _, _ := newTestContext(nil)
	unhandled, err := d.Dispatch("totallyUnknown", hc)
	require.NoError(t, err)
	assert.True(t, unhandled)
}

func TestDispatcherKnownTypeHandled(t *testing.T) {
	d := NewDispatcher()
	hc, rt, _ := newTestContext(map[string]any{"message": "x"})
	unhandled, err := d.Dispatch("log", hc)
	require.NoError(t, err)
	assert.False(t, unhandled)
	assert.Len(t, rt.Snapshot().Logs, 1)
}

func TestClickHandlerWithoutDriverReturnsErrNoDriver(t *testing.T) {
	hc, _, _ := newTestContext(map[string]any{"element": "btn"})
	err := clickHandler(hc)
	assert.ErrorIs(t, err, ErrNoDriver)
}

func TestClickHandlerWithMemoryDriver(t *testing.T) {
	hc, rt, _ := newTestContext(map[string]any{"element": "btn", "clickType": "double"})
	hc.Drivers.Desktop = automation.NewMemoryDesktop()
	require.NoError(t, clickHandler(hc))
	assert.Len(t, rt.Snapshot().Logs, 1)
}

func TestGetTextHandlerWritesResultVariable(t *testing.T) {
	desktop := automation.NewMemoryDesktop()
	desktop.ElemText["btn"] = "Submit"
	hc, _, vars := newTestContext(map[string]any{"element": "btn", "resultVariable": "out"})
	hc.Drivers.Desktop = desktop

	require.NoError(t, getTextHandler(hc))
	v, ok := vars.Get("out")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "Submit", s)
}
