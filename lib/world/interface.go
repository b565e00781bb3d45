package world

import (
	"fmt"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IWorld is an in-memory object graph: entities with generational keys, each
// holding at most one component per type, plus global resources.
// Write operations return only a *Error (nil on success), read operations
// return the requested data along with a found flag.
type IWorld interface {
	// Spawn allocates a new entity with the given components and returns its key.
	// Indices of despawned entities are reused with a higher generation.
	Spawn(components ...registry.Value) scene.EntityKey
	// Despawn removes an entity and all its components. It returns false if the
	// key does not refer to a live entity.
	Despawn(key scene.EntityKey) bool
	// Contains returns whether the key refers to a live entity.
	Contains(key scene.EntityKey) bool
	// Insert adds or replaces components of a live entity.
	Insert(key scene.EntityKey, components ...registry.Value) (err error)
	// Get returns the component with the given type name.
	Get(key scene.EntityKey, typeName string) (value registry.Value, loaded bool)
	// Components returns all components of an entity sorted by type name.
	Components(key scene.EntityKey) (values []registry.Value, loaded bool)
	// Entities returns the keys of all live entities in ascending order.
	Entities() []scene.EntityKey
	// InsertResource adds or replaces a resource.
	InsertResource(value registry.Value)
	// Resource returns the resource with the given type name.
	Resource(typeName string) (value registry.Value, loaded bool)
	// Resources returns all resources sorted by type name.
	Resources() []registry.Value
	// Len returns the number of live entities.
	Len() int
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCNoSuchEntity:
		errorCode = "NoSuchEntity"
	case RetCInvalidValue:
		errorCode = "InvalidValue"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("WorldError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new WorldError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess      RetCode = iota // 0: Operation executed successfully.
	RetCNoSuchEntity                // 1: The key does not refer to a live entity.
	RetCInvalidValue                // 2: A value could not be stored.
)
