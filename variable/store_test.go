package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpaflow/engine/value"
)

func TestSetGetRemove(t *testing.T) {
	s := New()
	s.Set("x", value.String("hi"), ScopeGlobal)

	v, ok := s.Get("x")
	require.True(t, ok)
	str, _ := v.AsString()
	assert.Equal(t, "hi", str)

	s.Remove("x")
	_, ok = s.Get("x")
	assert.False(t, ok)
}

func TestClearLocalRetainsGlobal(t *testing.T) {
	s := New()
	s.Set("g", value.String("global"), ScopeGlobal)
	s.Set("l", value.String("local"), ScopeLocal)

	s.ClearLocal()

	_, ok := s.Get("g")
	assert.True(t, ok)
	_, ok = s.Get("l")
	assert.False(t, ok)
}

func TestInterpolateIdempotentForLiteralText(t *testing.T) {
	s := New()
	text := "no tokens here"
	assert.Equal(t, text, s.Interpolate(text))
}

func TestInterpolateCorrectness(t *testing.T) {
	s := New()
	s.Set("a", value.String("x"), ScopeGlobal)
	s.Set("b", value.String("y"), ScopeGlobal)
	assert.Equal(t, "xy", s.Interpolate("${a}${b}"))
}

func TestInterpolateMissingVariableLeavesPlaceholder(t *testing.T) {
	s := New()
	assert.Equal(t, "${missing}", s.Interpolate("${missing}"))
}

func TestInterpolateNoRecursiveExpansion(t *testing.T) {
	s := New()
	s.Set("a", value.String("${b}"), ScopeGlobal)
	s.Set("b", value.String("never"), ScopeGlobal)
	assert.Equal(t, "${b}", s.Interpolate("${a}"))
}

func TestAllSnapshotSortedByName(t *testing.T) {
	s := New()
	s.Set("z", value.Number(1), ScopeGlobal)
	s.Set("a", value.Number(2), ScopeGlobal)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "z", all[1].Name)
}
