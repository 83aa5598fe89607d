package node

import (
	"testing"

	"github.com/corevx-run/corevx/kernel"
	"github.com/corevx-run/corevx/meta"
	"github.com/corevx-run/corevx/refs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scalarKernel(t *testing.T) *kernel.Kernel {
	k := kernel.New("passthrough", 1, kernel.Signature{
		{Direction: kernel.Input, Type: refs.TypeScalar, State: kernel.Required},
		{Direction: kernel.Output, Type: refs.TypeScalar, State: kernel.Required},
	})
	k.Validator = func(kernel.Binding, []*meta.Format) error { return nil }
	k.Work = func(b kernel.Binding) (kernel.Action, error) { return kernel.Continue, nil }
	require.NoError(t, k.Finalize())
	return k
}

func TestNode_SetParameterRetainsAndReleases(t *testing.T) {
	k := scalarKernel(t)
	n := New("n0", k)

	in := refs.NewReference(refs.TypeScalar, refs.Nil, nil)
	require.NoError(t, n.SetParameter(0, in))
	assert.EqualValues(t, 1, in.InternalCount())
	assert.Same(t, in, n.Param(0))

	other := refs.NewReference(refs.TypeScalar, refs.Nil, nil)
	require.NoError(t, n.SetParameter(0, other))
	assert.EqualValues(t, 0, in.InternalCount())
	assert.EqualValues(t, 1, other.InternalCount())
}

func TestNode_SetParameterTypeMismatch(t *testing.T) {
	k := scalarKernel(t)
	n := New("n0", k)

	img := refs.NewReference(refs.TypeImage, refs.Nil, nil)
	err := n.SetParameter(0, img)
	require.Error(t, err)
}

func TestNode_SetParameterOutOfRange(t *testing.T) {
	k := scalarKernel(t)
	n := New("n0", k)
	err := n.SetParameter(5, nil)
	require.Error(t, err)
}

func TestNode_RunRecordsStatusAndFiresCallback(t *testing.T) {
	k := scalarKernel(t)
	n := New("n0", k)

	var gotStatus Status
	n.SetCompletionCallback(func(got *Node, status Status) {
		assert.Same(t, n, got)
		gotStatus = status
	})

	_, err := n.Run()
	require.NoError(t, err)
	assert.True(t, n.Executed())
	assert.Equal(t, StatusSuccess, n.Status())
	assert.Equal(t, StatusSuccess, gotStatus)
}

func TestNode_ResetExecutionState(t *testing.T) {
	k := scalarKernel(t)
	n := New("n0", k)
	n.SetVisited(true)
	_, _ = n.Run()

	n.ResetExecutionState()
	assert.False(t, n.Visited())
	assert.False(t, n.Executed())
	assert.Equal(t, StatusNotRun, n.Status())
}

func TestDelay_AgeRotatesSlots(t *testing.T) {
	v0 := refs.NewReference(refs.TypeImage, refs.Nil, nil)
	d, err := NewDelay(v0, 3)
	require.NoError(t, err)

	v1 := refs.NewReference(refs.TypeImage, refs.Nil, nil)
	d.Age(v1)

	s0, _ := d.Slot(0)
	s1, _ := d.Slot(1)
	assert.Same(t, v1, s0)
	assert.Same(t, v0, s1)
}

func TestDelay_InvalidDepth(t *testing.T) {
	v0 := refs.NewReference(refs.TypeImage, refs.Nil, nil)
	_, err := NewDelay(v0, 0)
	require.Error(t, err)
}
