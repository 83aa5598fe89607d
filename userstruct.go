package corevx

import (
	"fmt"
	"unsafe"

	"github.com/google/jsonschema-go/jsonschema"
)

// UserStruct describes a user-registered struct's byte layout: a small
// integer type code maps to a fixed size and an optional diagnostic
// name, registered against a fresh type code. Schema is nil unless the
// struct was registered through RegisterUserStructType, which derives
// it from the Go type itself.
type UserStruct struct {
	Code   int
	Size   int
	Name   string
	Schema *jsonschema.Schema
}

// RegisterUserStruct assigns a fresh type code to a struct of the given
// byte size and optional name.
func (c *Context) RegisterUserStruct(size int, name string) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("user struct size must be positive, got %d", size)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	code := c.nextStructCode
	c.nextStructCode++
	c.userStructs[code] = UserStruct{Code: code, Size: size, Name: name}
	return code, nil
}

// RegisterUserStructType is RegisterUserStruct for callers who have a
// concrete Go type to describe: it derives both the byte size and a
// JSON schema from T via reflection, so a kernel's validator can
// describe the shape it expects on a UserDataObject parameter rather
// than only its raw size.
func RegisterUserStructType[T any](c *Context, name string) (int, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return 0, fmt.Errorf("register user struct %q: derive schema: %w", name, err)
	}

	var zero T
	size := int(unsafe.Sizeof(zero))
	code, err := c.RegisterUserStruct(size, name)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	s := c.userStructs[code]
	s.Schema = schema
	c.userStructs[code] = s
	c.mu.Unlock()
	return code, nil
}

// UserStructByCode looks up a previously registered user struct.
func (c *Context) UserStructByCode(code int) (UserStruct, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.userStructs[code]
	return s, ok
}
