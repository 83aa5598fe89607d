package telemetry

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// TypeRegistry lets callers register the concrete types they stash in a
// RunRecord's Phase field (a kernel's custom diagnostic payload, say) so
// backends can round-trip them through JSON without losing the concrete
// type on Load.
type TypeRegistry struct {
	mu             sync.RWMutex
	typeNameToType map[string]reflect.Type
	typeToName     map[reflect.Type]string
	typeCreators   map[string]func() any
}

var globalTypeRegistry = &TypeRegistry{
	typeNameToType: make(map[string]reflect.Type),
	typeToName:     make(map[reflect.Type]string),
	typeCreators:   make(map[string]func() any),
}

// GlobalTypeRegistry returns the package-wide type registry instance.
func GlobalTypeRegistry() *TypeRegistry {
	return globalTypeRegistry
}

// RegisterTypeWithValue registers a value's type under typeName.
func RegisterTypeWithValue(value any, typeName string) error {
	return globalTypeRegistry.registerType(reflect.TypeOf(value), typeName)
}

func (r *TypeRegistry) registerType(t reflect.Type, typeName string) error {
	if t.Kind() != reflect.Struct {
		if t.Kind() == reflect.Ptr {
			if t.Elem().Kind() != reflect.Struct {
				return fmt.Errorf("type %s must be a struct or pointer to struct", t)
			}
		} else {
			return fmt.Errorf("type %s must be a struct", t)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.typeToName[t]; ok && existing != typeName {
		return fmt.Errorf("type %v already registered as %s", t, existing)
	}

	r.typeNameToType[typeName] = t
	r.typeToName[t] = typeName
	r.typeCreators[typeName] = func() any {
		return reflect.New(t).Elem().Interface()
	}
	return nil
}

// GetTypeByName returns the reflect.Type registered under typeName.
func (r *TypeRegistry) GetTypeByName(typeName string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.typeNameToType[typeName]
	return t, ok
}

// GetTypeName returns the name a type was registered under.
func (r *TypeRegistry) GetTypeName(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.typeToName[t]
	return name, ok
}

// CreateInstance returns a fresh zero value of the named registered type.
func (r *TypeRegistry) CreateInstance(typeName string) (any, error) {
	r.mu.RLock()
	creator, ok := r.typeCreators[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("type %s not registered", typeName)
	}
	return creator(), nil
}

// phasePayload is the wire form of RunRecord.Phase when its concrete type
// is registered: it round-trips through Load with the type intact instead
// of collapsing to map[string]any.
type phasePayload struct {
	TypeName string          `json:"_type"`
	Data     json.RawMessage `json:"_data"`
}

// MarshalPhase encodes a RunRecord's Phase value, tagging it with its
// registered type name when one is known.
func (r *TypeRegistry) MarshalPhase(value any) ([]byte, error) {
	if value == nil {
		return json.Marshal(nil)
	}

	t := reflect.TypeOf(value)
	typeName, ok := r.GetTypeName(t)
	if !ok {
		return json.Marshal(value)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(phasePayload{TypeName: typeName, Data: data})
}

// UnmarshalPhase decodes a Phase value, restoring its registered
// concrete type when the payload carries one.
func (r *TypeRegistry) UnmarshalPhase(data []byte) (any, error) {
	var payload phasePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.TypeName == "" {
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, err
		}
		return result, nil
	}

	instance, err := r.CreateInstance(payload.TypeName)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(reflect.TypeOf(instance))
	if err := json.Unmarshal(payload.Data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal phase payload: %w", err)
	}
	return ptr.Elem().Interface(), nil
}
