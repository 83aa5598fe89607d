package corevx

import (
	"testing"

	"github.com/corevx-run/corevx/kernel"
	"github.com/corevx-run/corevx/refs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	name     string
	priority int
	kernels  map[string]int
}

func (f *fakeTarget) Name() string     { return f.name }
func (f *fakeTarget) Priority() int    { return f.priority }
func (f *fakeTarget) SupportsParallelDispatch() bool { return false }
func (f *fakeTarget) Supports(kernelName string) (int, bool) {
	idx, ok := f.kernels[kernelName]
	return idx, ok
}
func (f *fakeTarget) Verify(kernel.Binding) error { return nil }
func (f *fakeTarget) Process(nodes []kernel.Binding, start, count int) (kernel.Action, error) {
	action := kernel.Continue
	for i := start; i < start+count; i++ {
		b := nodes[i]
		a, err := b.Kernel().Work(b)
		if err != nil {
			return a, err
		}
		action = a
	}
	return action, nil
}

func TestNew_UsesDefaultsWhenConfigNil(t *testing.T) {
	ctx := New(nil)
	assert.Equal(t, 4096, ctx.Config().ReferenceTableCapacity)
}

func TestContext_RegisterUnregisterReference(t *testing.T) {
	ctx := New(nil)
	ref := refs.NewReference(refs.TypeScalar, refs.Nil, nil)

	h, err := ctx.Register(ref)
	require.NoError(t, err)
	assert.Equal(t, ctx.self.Self, ref.Context, "ref.Context must identify the owning Context, not ref's own handle")
	assert.NotEqual(t, h, ref.Context, "ref.Context must not just be ref's own slot handle")

	got, ok := ctx.Lookup(h)
	require.True(t, ok)
	assert.Same(t, ref, got)
	assert.True(t, ctx.Validate(h, refs.TypeScalar))
	assert.False(t, ctx.Validate(h, refs.TypeImage))

	ctx.Unregister(h)
	_, ok = ctx.Lookup(h)
	assert.False(t, ok)
}

func TestContext_LoadTargetPriorityOrder(t *testing.T) {
	ctx := New(nil)
	low := &fakeTarget{name: "cpu", priority: 10, kernels: map[string]int{"blur": 0}}
	high := &fakeTarget{name: "gpu", priority: 1, kernels: map[string]int{"blur": 0}}

	require.NoError(t, ctx.LoadTarget(low))
	require.NoError(t, ctx.LoadTarget(high))

	targets := ctx.Targets()
	require.Len(t, targets, 2)
	assert.Equal(t, "gpu", targets[0].Name())
	assert.Equal(t, "cpu", targets[1].Name())

	t1, _, ok := ctx.Supports("blur")
	require.True(t, ok)
	assert.Equal(t, "gpu", t1.Name())
}

func TestContext_LoadTargetDuplicateRejected(t *testing.T) {
	ctx := New(nil)
	t1 := &fakeTarget{name: "cpu", priority: 1}
	require.NoError(t, ctx.LoadTarget(t1))
	err := ctx.LoadTarget(&fakeTarget{name: "cpu", priority: 2})
	require.Error(t, err)
}

func TestContext_UnloadTarget(t *testing.T) {
	ctx := New(nil)
	require.NoError(t, ctx.LoadTarget(&fakeTarget{name: "cpu", priority: 1}))
	require.NoError(t, ctx.UnloadTarget("cpu"))
	assert.Empty(t, ctx.Targets())
	assert.Error(t, ctx.UnloadTarget("cpu"))
}

func TestContext_RegisterUserStruct(t *testing.T) {
	ctx := New(nil)
	code1, err := ctx.RegisterUserStruct(16, "point3d")
	require.NoError(t, err)
	code2, err := ctx.RegisterUserStruct(32, "matrix4x4")
	require.NoError(t, err)
	assert.NotEqual(t, code1, code2)

	s, ok := ctx.UserStructByCode(code1)
	require.True(t, ok)
	assert.Equal(t, "point3d", s.Name)
	assert.Equal(t, 16, s.Size)

	_, err = ctx.RegisterUserStruct(0, "bad")
	assert.Error(t, err)
}

func TestContext_AccessorLifecycle(t *testing.T) {
	ctx := New(nil)
	ref := refs.NewReference(refs.TypeImage, refs.Nil, nil)

	h := ctx.AddAccessor(ref, "read", "hostptr")
	a, ok := ctx.FindAccessor(h)
	require.True(t, ok)
	assert.Equal(t, "read", a.Usage)

	require.NoError(t, ctx.RemoveAccessor(h))
	_, ok = ctx.FindAccessor(h)
	assert.False(t, ok)
	assert.Error(t, ctx.RemoveAccessor(h))
}

func TestContext_MemoryMapUnmapReturnsPointerThenRejectsSecondUnmap(t *testing.T) {
	ctx := New(nil)
	ref := refs.NewReference(refs.TypeTensor, refs.Nil, nil)

	h := ctx.MapMemory(ref, "write", "host", map[string]any{"plane": 0}, "hostptr")
	ptr, err := ctx.UnmapMemory(h)
	require.NoError(t, err)
	assert.Equal(t, "hostptr", ptr)

	_, err = ctx.UnmapMemory(h)
	assert.Error(t, err)
}
