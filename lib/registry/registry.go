package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dScene/lib/serde"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("registry")

// ErrAlreadyRegistered is returned when a name, tag or Go type is registered twice.
var ErrAlreadyRegistered = errors.New("registry: already registered")

// TypeRegistry maps stable type names (and tags, and Go types) to descriptors.
//
// Lookups are lock-free and safe to run concurrently with each other.
// A registry must not be modified while a serialize or deserialize call is
// using it; use Snapshot to hand an immutable copy to long running work.
type TypeRegistry struct {
	mu     sync.Mutex // serializes registration so the indexes stay consistent
	nextID atomic.Uint64

	byName *xsync.MapOf[string, *Descriptor]
	byTag  *xsync.MapOf[uint32, *Descriptor]
	byType *xsync.MapOf[reflect.Type, *Descriptor]
	byID   *xsync.MapOf[TypeID, *Descriptor]
}

// New creates an empty registry.
func New() *TypeRegistry {
	return &TypeRegistry{
		byName: xsync.NewMapOf[string, *Descriptor](),
		byTag:  xsync.NewMapOf[uint32, *Descriptor](),
		byType: xsync.NewMapOf[reflect.Type, *Descriptor](),
		byID:   xsync.NewMapOf[TypeID, *Descriptor](),
	}
}

// add stores a fully built descriptor and assigns its identity.
func (r *TypeRegistry) add(d *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.name == "" {
		return fmt.Errorf("registry: empty type name")
	}
	if _, ok := r.byName.Load(d.name); ok {
		return fmt.Errorf("%w: name `%s`", ErrAlreadyRegistered, d.name)
	}
	if other, ok := r.byTag.Load(d.tag); ok {
		return fmt.Errorf("%w: tag %d of `%s` is taken by `%s`", ErrAlreadyRegistered, d.tag, d.name, other.name)
	}
	if d.typ != nil {
		if other, ok := r.byType.Load(d.typ); ok {
			return fmt.Errorf("%w: Go type %s is registered as `%s`", ErrAlreadyRegistered, d.typ, other.name)
		}
	}

	d.id = TypeID(r.nextID.Add(1))
	r.byID.Store(d.id, d)
	r.byName.Store(d.name, d)
	r.byTag.Store(d.tag, d)
	if d.typ != nil {
		r.byType.Store(d.typ, d)
	}

	Logger.Debugf("registered %s", d)
	return nil
}

// Snapshot returns an independent copy of the registry. Descriptors (and
// therefore type identities) are shared with the original.
func (r *TypeRegistry) Snapshot() *TypeRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := New()
	snap.nextID.Store(r.nextID.Load())
	r.byID.Range(func(id TypeID, d *Descriptor) bool {
		snap.byID.Store(id, d)
		snap.byName.Store(d.name, d)
		snap.byTag.Store(d.tag, d)
		if d.typ != nil {
			snap.byType.Store(d.typ, d)
		}
		return true
	})
	return snap
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// ResolveName returns the descriptor registered under name.
func (r *TypeRegistry) ResolveName(name string) (*Descriptor, error) {
	d, ok := r.byName.Load(name)
	if !ok {
		return nil, serde.NewError(serde.RetCUnknownType, name, nil)
	}
	return d, nil
}

// ResolveTag returns the descriptor registered under tag.
func (r *TypeRegistry) ResolveTag(tag uint32) (*Descriptor, error) {
	d, ok := r.byTag.Load(tag)
	if !ok {
		return nil, serde.NewError(serde.RetCUnknownType, serde.TagKey(tag).String(), nil)
	}
	return d, nil
}

// Resolve returns the descriptor for a type key read from a stream.
func (r *TypeRegistry) Resolve(key serde.TypeKey) (*Descriptor, error) {
	if key.Tagged {
		return r.ResolveTag(key.Tag)
	}
	return r.ResolveName(key.Name)
}

// Describe returns the type name for an identity.
func (r *TypeRegistry) Describe(id TypeID) (string, bool) {
	d, ok := r.byID.Load(id)
	if !ok {
		return "", false
	}
	return d.name, true
}

// Get returns the descriptor for an identity.
func (r *TypeRegistry) Get(id TypeID) (*Descriptor, bool) {
	return r.byID.Load(id)
}

// Canonicalize runs the canonicalization hook of the type with the given
// identity. ok is false if the type is unknown or declares no hook.
func (r *TypeRegistry) Canonicalize(id TypeID, raw any) (v any, ok bool, err error) {
	d, found := r.byID.Load(id)
	if !found {
		return nil, false, nil
	}
	return d.Canonicalize(raw)
}

// DescriptorOf returns the descriptor registered for the Go type of v.
func (r *TypeRegistry) DescriptorOf(v any) (*Descriptor, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, serde.NewError(serde.RetCUnknownType, "<nil>", nil)
	}
	d, ok := r.byType.Load(t)
	if !ok {
		return nil, serde.NewError(serde.RetCUnknownType, t.String(), nil)
	}
	return d, nil
}

// Len returns the number of registered types.
func (r *TypeRegistry) Len() int {
	return r.byID.Size()
}

// Names returns all registered type names in ascending order.
func (r *TypeRegistry) Names() []string {
	names := make([]string, 0, r.byName.Size())
	r.byName.Range(func(name string, _ *Descriptor) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}
