package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type diagnosticPayload struct {
	KernelName string
	DurationMS int64
}

func TestTypeRegistry_RegisterTypeWithValue(t *testing.T) {
	require.NoError(t, RegisterTypeWithValue(diagnosticPayload{}, "diagnosticPayload"))

	typ, ok := GlobalTypeRegistry().GetTypeByName("diagnosticPayload")
	require.True(t, ok)
	assert.Equal(t, "diagnosticPayload", typ.Name())

	name, ok := GlobalTypeRegistry().GetTypeName(typ)
	require.True(t, ok)
	assert.Equal(t, "diagnosticPayload", name)
}

func TestTypeRegistry_RegisterRejectsNonStruct(t *testing.T) {
	err := RegisterTypeWithValue(42, "int")
	assert.Error(t, err)
}

func TestTypeRegistry_RegisterRejectsConflictingName(t *testing.T) {
	require.NoError(t, RegisterTypeWithValue(diagnosticPayload{}, "diagnosticPayload"))
	err := RegisterTypeWithValue(diagnosticPayload{}, "somethingElse")
	assert.Error(t, err)
}

func TestTypeRegistry_MarshalUnmarshalRoundTripsRegisteredType(t *testing.T) {
	require.NoError(t, RegisterTypeWithValue(diagnosticPayload{}, "diagnosticPayload"))

	want := diagnosticPayload{KernelName: "blur", DurationMS: 42}
	data, err := GlobalTypeRegistry().MarshalPhase(want)
	require.NoError(t, err)

	got, err := GlobalTypeRegistry().UnmarshalPhase(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTypeRegistry_MarshalUnmarshalFallsBackForUnregisteredType(t *testing.T) {
	data, err := GlobalTypeRegistry().MarshalPhase("executed")
	require.NoError(t, err)

	got, err := GlobalTypeRegistry().UnmarshalPhase(data)
	require.NoError(t, err)
	assert.Equal(t, "executed", got)
}

func TestTypeRegistry_CreateInstanceUnknownType(t *testing.T) {
	_, err := GlobalTypeRegistry().CreateInstance("no-such-type")
	assert.Error(t, err)
}
