package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irx/internal/ir"
)

func TestWorklist_LIFO(t *testing.T) {
	w := newWorklist()
	a, b, c := newConst(1), newConst(2), newConst(3)

	assert.True(t, w.push(a))
	assert.True(t, w.push(b))
	assert.True(t, w.push(c))

	for _, want := range []*ir.Operation{c, b, a} {
		got, ok := w.pop()
		require.True(t, ok)
		assert.Same(t, want, got)
	}
	_, ok := w.pop()
	assert.False(t, ok)
}

func TestWorklist_Deduplicates(t *testing.T) {
	w := newWorklist()
	a, b := newConst(1), newConst(2)

	w.push(a)
	w.push(b)
	assert.False(t, w.push(a), "already waiting")
	assert.Equal(t, 2, w.len())

	got, _ := w.pop()
	assert.Same(t, b, got)
	got, _ = w.pop()
	assert.Same(t, a, got)

	// Once popped it can be scheduled again.
	assert.True(t, w.push(a))
}

func TestWorklist_SkipsErased(t *testing.T) {
	w := newWorklist()
	a, b := newConst(1), newConst(2)
	w.push(a)
	w.push(b)
	require.NoError(t, ir.Erase(b))

	got, ok := w.pop()
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.False(t, w.push(b))
	assert.False(t, w.push(nil))
}
