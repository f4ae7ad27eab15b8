package callstack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderedStack(order *[]int, count int) *CallStack {
	cs := NewCallStack()
	for i := 0; i < count; i++ {
		i := i
		cs.Add(func() error {
			*order = append(*order, i)
			return nil
		})
	}
	return cs
}

func TestRunReverseOrder(t *testing.T) {
	var order []int
	cs := newOrderedStack(&order, 3)

	require.NoError(t, cs.Run(false))
	assert.Equal(t, []int{2, 1, 0}, order)
}

func TestRunLinearOrder(t *testing.T) {
	var order []int
	cs := newOrderedStack(&order, 3)

	require.NoError(t, cs.RunLinear(false))
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestRunAbortOnError(t *testing.T) {
	failure := errors.New("expected error")

	var order []int
	cs := newOrderedStack(&order, 2)
	cs.Add(func() error { return failure })

	// Run executes in reverse order, so the failing callback runs first and
	// aborts before the others
	err := cs.Run(true)
	assert.ErrorIs(t, err, failure)
	assert.Empty(t, order)

	// RunLinear reaches the failing callback last
	order = nil
	err = cs.RunLinear(true)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, []int{0, 1}, order)
}

func TestRunCollectsAllWhenNotAborting(t *testing.T) {
	var order []int
	cs := newOrderedStack(&order, 2)
	cs.Add(func() error { return errors.New("ignored") })

	require.NoError(t, cs.Run(false))
	assert.Equal(t, []int{1, 0}, order)
}

func TestEmptyStack(t *testing.T) {
	cs := NewCallStack()
	assert.NoError(t, cs.Run(true))
	assert.NoError(t, cs.RunLinear(true))
}

func TestIsCalling(t *testing.T) {
	cs := NewCallStack()
	assert.False(t, cs.IsCalling())

	observed := false
	cs.Add(func() error {
		observed = cs.IsCalling()
		return nil
	})
	require.NoError(t, cs.Run(false))
	assert.True(t, observed)
	assert.False(t, cs.IsCalling())
}