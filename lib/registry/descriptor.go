package registry

import (
	"fmt"
	"reflect"

	"github.com/ValentinKolb/dScene/lib/serde"
)

// TypeID is the opaque identity of a registered type. It is assigned by the
// registry at registration time and is only meaningful within that registry
// (and its snapshots).
type TypeID uint64

// Descriptor describes one registered type: its identity, its wire names and
// the capabilities used to encode, decode and canonicalize its values.
type Descriptor struct {
	id   TypeID
	name string
	tag  uint32
	typ  reflect.Type // nil for dynamic types

	encode       func(enc serde.Encoder, v any) error
	decode       func(dec serde.Decoder) (any, error)
	canonicalize func(v any) (any, error) // optional
}

// ID returns the type identity.
func (d *Descriptor) ID() TypeID { return d.id }

// Name returns the stable type name used as wire discriminator.
func (d *Descriptor) Name() string { return d.name }

// Tag returns the compact registry tag used by formats that write tags.
func (d *Descriptor) Tag() uint32 { return d.tag }

// Type returns the Go type of the values, or nil for dynamic types.
func (d *Descriptor) Type() reflect.Type { return d.typ }

// IsDynamic reports whether the type was registered without a Go type.
func (d *Descriptor) IsDynamic() bool { return d.typ == nil }

// HasCanonicalizer reports whether the type declares a canonicalization hook.
func (d *Descriptor) HasCanonicalizer() bool { return d.canonicalize != nil }

// Encode writes v with the type's encode capability.
func (d *Descriptor) Encode(enc serde.Encoder, v any) error {
	return d.encode(enc, v)
}

// Decode reads one value with the type's decode capability.
func (d *Descriptor) Decode(dec serde.Decoder) (any, error) {
	return d.decode(dec)
}

// Canonicalize runs the canonicalization hook on a freshly decoded value.
// ok is false if the type has no hook.
func (d *Descriptor) Canonicalize(raw any) (v any, ok bool, err error) {
	if d.canonicalize == nil {
		return nil, false, nil
	}
	v, err = d.canonicalize(raw)
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

// Box wraps v into a Value of this type without any type check.
func (d *Descriptor) Box(v any) Value {
	return &boxed{desc: d, v: v}
}

func (d *Descriptor) String() string {
	if d.typ == nil {
		return fmt.Sprintf("Descriptor{Name: %s, Tag: %d, Dynamic}", d.name, d.tag)
	}
	return fmt.Sprintf("Descriptor{Name: %s, Tag: %d, Type: %s}", d.name, d.tag, d.typ)
}

// --------------------------------------------------------------------------
// Registration Options
// --------------------------------------------------------------------------

// Option configures a registration.
type Option func(*options)

type options struct {
	tag          uint32
	hasTag       bool
	canonicalize any
	encode       any
	decode       any
}

// WithTag overrides the default tag derived from the type name.
func WithTag(tag uint32) Option {
	return func(o *options) {
		o.tag = tag
		o.hasTag = true
	}
}

// WithCanonicalizer declares a hook that turns a raw decoded value into its
// canonical form. A failing hook never fails a decode, the raw value is kept.
func WithCanonicalizer[T any](fn func(raw T) (T, error)) Option {
	return func(o *options) {
		o.canonicalize = fn
	}
}

// WithCodec replaces the format's native value codec for this type.
func WithCodec[T any](encode func(enc serde.Encoder, v T) error, decode func(dec serde.Decoder) (T, error)) Option {
	return func(o *options) {
		o.encode = encode
		o.decode = decode
	}
}

// --------------------------------------------------------------------------
// Registration
// --------------------------------------------------------------------------

// Register adds the Go type T under name.
//
// Usage:
//
//	desc, err := registry.Register[Health](reg, "game::Health",
//		registry.WithCanonicalizer(func(h Health) (Health, error) {
//			return h.Clamp(), nil
//		}),
//	)
func Register[T any](r *TypeRegistry, name string, opts ...Option) (*Descriptor, error) {
	o := collectOptions(name, opts)
	typ := reflect.TypeOf((*T)(nil)).Elem()

	d := &Descriptor{
		name: name,
		tag:  o.tag,
		typ:  typ,
	}

	// encode
	var encodeFn func(serde.Encoder, T) error
	if o.encode != nil {
		fn, ok := o.encode.(func(serde.Encoder, T) error)
		if !ok {
			return nil, fmt.Errorf("registry: codec for `%s` does not match type %s", name, typ)
		}
		encodeFn = fn
	}
	d.encode = func(enc serde.Encoder, v any) error {
		t, ok := v.(T)
		if !ok {
			return fmt.Errorf("registry: value of type %T is not a `%s` (%s)", v, name, typ)
		}
		if encodeFn != nil {
			return encodeFn(enc, t)
		}
		return enc.EncodeValue(t)
	}

	// decode
	var decodeFn func(serde.Decoder) (T, error)
	if o.decode != nil {
		fn, ok := o.decode.(func(serde.Decoder) (T, error))
		if !ok {
			return nil, fmt.Errorf("registry: codec for `%s` does not match type %s", name, typ)
		}
		decodeFn = fn
	}
	d.decode = func(dec serde.Decoder) (any, error) {
		if decodeFn != nil {
			return decodeFn(dec)
		}
		var t T
		if err := dec.DecodeValue(&t); err != nil {
			return nil, err
		}
		return t, nil
	}

	// canonicalize
	if o.canonicalize != nil {
		fn, ok := o.canonicalize.(func(T) (T, error))
		if !ok {
			return nil, fmt.Errorf("registry: canonicalizer for `%s` does not match type %s", name, typ)
		}
		d.canonicalize = func(v any) (any, error) {
			t, ok := v.(T)
			if !ok {
				return nil, fmt.Errorf("registry: value of type %T is not a `%s`", v, name)
			}
			return fn(t)
		}
	}

	if err := r.add(d); err != nil {
		return nil, err
	}
	return d, nil
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](r *TypeRegistry, name string, opts ...Option) *Descriptor {
	d, err := Register[T](r, name, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// RegisterDynamic adds a type that has no Go counterpart. Its values decode
// into whatever the format produces for untyped data (maps, slices, scalars)
// and are encoded back as-is. Canonicalizers take and return any.
func RegisterDynamic(r *TypeRegistry, name string, opts ...Option) (*Descriptor, error) {
	o := collectOptions(name, opts)
	if o.encode != nil || o.decode != nil {
		return nil, fmt.Errorf("registry: dynamic type `%s` cannot have a custom codec", name)
	}

	d := &Descriptor{
		name: name,
		tag:  o.tag,
		encode: func(enc serde.Encoder, v any) error {
			return enc.EncodeDynamic(v)
		},
		decode: func(dec serde.Decoder) (any, error) {
			return dec.DecodeDynamic()
		},
	}

	if o.canonicalize != nil {
		fn, ok := o.canonicalize.(func(any) (any, error))
		if !ok {
			return nil, fmt.Errorf("registry: canonicalizer for dynamic type `%s` must take any", name)
		}
		d.canonicalize = fn
	}

	if err := r.add(d); err != nil {
		return nil, err
	}
	return d, nil
}

func collectOptions(name string, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasTag {
		o.tag = TagOf(name)
	}
	return o
}
