package scene

import (
	"fmt"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("scene")

// Structural names shared by every encoder/decoder pairing.
const (
	SceneStruct           = "Scene"
	SceneResources        = "resources"
	SceneEntities         = "entities"
	EntityStruct          = "Entity"
	EntityFieldComponents = "components"
)

var (
	sceneFields  = []string{SceneResources, SceneEntities}
	entityFields = []string{EntityFieldComponents}
)

// --------------------------------------------------------------------------
// Entity Keys
// --------------------------------------------------------------------------

// EntityKey identifies an entity. The low 32 bits hold the index, the high
// 32 bits the generation. The codecs only use it as a map key and write it
// back verbatim.
type EntityKey uint64

// NewEntityKey combines an index and a generation into a key.
func NewEntityKey(index, generation uint32) EntityKey {
	return EntityKey(uint64(generation)<<32 | uint64(index))
}

// Index returns the index part of the key.
func (k EntityKey) Index() uint32 { return uint32(k) }

// Generation returns the generation part of the key.
func (k EntityKey) Generation() uint32 { return uint32(k >> 32) }

func (k EntityKey) String() string {
	return fmt.Sprintf("%dv%d", k.Index(), k.Generation())
}

// EntityMapper is implemented by component and resource values that hold
// references to other entities. MapEntities returns a copy of the value with
// every reference replaced by mapper(ref).
type EntityMapper interface {
	MapEntities(mapper func(EntityKey) EntityKey) any
}

// --------------------------------------------------------------------------
// Scene
// --------------------------------------------------------------------------

// Entity is one keyed record of a scene. Components hold at most one value
// per type.
type Entity struct {
	Key        EntityKey
	Components []registry.Value
}

// Scene is a collection of resources (global values, at most one per type)
// and entities.
type Scene struct {
	Resources []registry.Value
	Entities  []Entity
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{
		Resources: []registry.Value{},
		Entities:  []Entity{},
	}
}

// AddEntity appends an entity with the given components and returns it.
func (s *Scene) AddEntity(key EntityKey, components ...registry.Value) *Entity {
	s.Entities = append(s.Entities, Entity{Key: key, Components: components})
	return &s.Entities[len(s.Entities)-1]
}

// AddResource appends a resource value.
func (s *Scene) AddResource(v registry.Value) {
	s.Resources = append(s.Resources, v)
}

// Entity returns the first entity with the given key.
func (s *Scene) Entity(key EntityKey) (*Entity, bool) {
	for i := range s.Entities {
		if s.Entities[i].Key == key {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

// Component returns the component of the given type name.
func (e *Entity) Component(typeName string) (registry.Value, bool) {
	return find(e.Components, typeName)
}

// Resource returns the resource of the given type name.
func (s *Scene) Resource(typeName string) (registry.Value, bool) {
	return find(s.Resources, typeName)
}

func find(values []registry.Value, typeName string) (registry.Value, bool) {
	for _, v := range values {
		if v.TypeName() == typeName {
			return v, true
		}
	}
	return nil, false
}

// --------------------------------------------------------------------------
// Comparison
// --------------------------------------------------------------------------

// Equal reports whether two scenes hold the same resources and the same
// entities. Resource and component order is ignored, entities are matched by
// key.
func Equal(a, b *Scene) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !collectionsEqual(a.Resources, b.Resources) || len(a.Entities) != len(b.Entities) {
		return false
	}
	for _, ea := range a.Entities {
		eb, ok := b.Entity(ea.Key)
		if !ok || !collectionsEqual(ea.Components, eb.Components) {
			return false
		}
	}
	return true
}

func collectionsEqual(a, b []registry.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for _, va := range a {
		vb, ok := find(b, va.TypeName())
		if !ok || !registry.ValuesEqual(va, vb) {
			return false
		}
	}
	return true
}
