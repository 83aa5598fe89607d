package kernel

import (
	"testing"

	"github.com/corevx-run/corevx/meta"
	"github.com/corevx-run/corevx/refs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKernel_FinalizeRequiresWorkAndValidator(t *testing.T) {
	k := New("copy_scalar", 1, Signature{
		{Direction: Input, Type: refs.TypeScalar, State: Required},
		{Direction: Output, Type: refs.TypeScalar, State: Required},
	})

	err := k.Finalize()
	require.Error(t, err)
	assert.False(t, k.IsFinalized())

	k.Work = func(Binding) (Action, error) { return Continue, nil }
	err = k.Finalize()
	require.Error(t, err)

	k.Validator = func(Binding, []*meta.Format) error { return nil }
	require.NoError(t, k.Finalize())
	assert.True(t, k.IsFinalized())
}

func TestKernel_OutputIndexes(t *testing.T) {
	k := New("blend", 2, Signature{
		{Direction: Input, Type: refs.TypeImage},
		{Direction: Input, Type: refs.TypeImage},
		{Direction: Output, Type: refs.TypeImage},
		{Direction: Bidirectional, Type: refs.TypeScalar},
	})

	assert.Equal(t, []int{2, 3}, k.OutputIndexes())
}

func TestKernel_IsLegacy(t *testing.T) {
	whole := New("a", 1, nil)
	whole.Validator = func(Binding, []*meta.Format) error { return nil }
	assert.False(t, whole.IsLegacy())

	legacy := New("b", 2, nil)
	legacy.LegacyOutputs = []LegacyOutputValidator{func(Binding, int, *meta.Format) error { return nil }}
	assert.True(t, legacy.IsLegacy())
}

func TestRegistry_NextKernelEnumMonotonicNeverReused(t *testing.T) {
	r := NewRegistry()
	seen := make(map[int]bool)
	var last int
	for i := 0; i < 100; i++ {
		e := r.NextKernelEnum()
		assert.False(t, seen[e], "enum %d reused", e)
		assert.Greater(t, e, last)
		seen[e] = true
		last = e
	}
}
