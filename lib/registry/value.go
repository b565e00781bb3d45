package registry

import (
	"fmt"
	"reflect"
)

// Value is a type-erased handle to one instance of a registered type.
// Codec layers only ever ask a Value for its type name and hand Interface()
// to the descriptor of that name.
type Value interface {
	// TypeName returns the registered name of the value's type.
	TypeName() string
	// Interface returns the wrapped instance.
	Interface() any
}

// boxed is the Value produced by the registry and by decoding.
type boxed struct {
	desc *Descriptor
	v    any
}

func (b *boxed) TypeName() string { return b.desc.name }

func (b *boxed) Interface() any { return b.v }

// Descriptor returns the descriptor the value was boxed with.
func (b *boxed) Descriptor() *Descriptor { return b.desc }

func (b *boxed) String() string {
	return fmt.Sprintf("%s(%+v)", b.desc.name, b.v)
}

// ValueOf wraps v into a Value using the descriptor registered for v's Go type.
// A v that already is a Value is returned unchanged.
func (r *TypeRegistry) ValueOf(v any) (Value, error) {
	if val, ok := v.(Value); ok {
		return val, nil
	}
	d, err := r.DescriptorOf(v)
	if err != nil {
		return nil, err
	}
	return d.Box(v), nil
}

// NewValue wraps a statically typed v into a Value.
func NewValue[T any](r *TypeRegistry, v T) (Value, error) {
	return r.ValueOf(v)
}

// MustValueOf is like ValueOf but panics on error.
func (r *TypeRegistry) MustValueOf(v any) Value {
	val, err := r.ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

// NamedValue wraps v into a Value of the type registered under name.
// This is the only way to build values of dynamic types.
func (r *TypeRegistry) NamedValue(name string, v any) (Value, error) {
	d, err := r.ResolveName(name)
	if err != nil {
		return nil, err
	}
	if d.typ != nil && reflect.TypeOf(v) != d.typ {
		return nil, fmt.Errorf("registry: value of type %T is not a `%s` (%s)", v, name, d.typ)
	}
	return d.Box(v), nil
}

// ValuesEqual reports whether two values have the same type name and deeply
// equal contents.
func ValuesEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.TypeName() == b.TypeName() && reflect.DeepEqual(a.Interface(), b.Interface())
}
