package scene

import (
	"sort"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/serde"
)

// Serialize writes s into enc, resolving every value through reg.
func Serialize(enc serde.Encoder, s *Scene, reg *registry.TypeRegistry) error {
	return SceneSerializer{Scene: s, Registry: reg}.Serialize(enc)
}

// SceneSerializer writes a scene as a struct with the fields "resources"
// and "entities", in that order.
type SceneSerializer struct {
	Scene    *Scene
	Registry *registry.TypeRegistry
}

func (s SceneSerializer) Serialize(enc serde.Encoder) error {
	st, err := enc.EncodeStruct(SceneStruct, len(sceneFields))
	if err != nil {
		return err
	}
	if err := st.EncodeField(SceneResources, MapSerializer{Values: s.Scene.Resources, Registry: s.Registry}); err != nil {
		return err
	}
	if err := st.EncodeField(SceneEntities, EntitiesSerializer{Entities: s.Scene.Entities, Registry: s.Registry}); err != nil {
		return err
	}
	return st.End()
}

// EntitiesSerializer writes entities as a map of key to entity. The caller's
// order is kept.
type EntitiesSerializer struct {
	Entities []Entity
	Registry *registry.TypeRegistry
}

func (s EntitiesSerializer) Serialize(enc serde.Encoder) error {
	m, err := enc.EncodeMap(len(s.Entities))
	if err != nil {
		return err
	}
	for i := range s.Entities {
		entity := &s.Entities[i]
		if err := m.EncodeEntry(serde.Uint64(uint64(entity.Key)), EntitySerializer{Entity: entity, Registry: s.Registry}); err != nil {
			return err
		}
	}
	return m.End()
}

// EntitySerializer writes the payload of one entity. The key is written by
// the enclosing EntitiesSerializer.
type EntitySerializer struct {
	Entity   *Entity
	Registry *registry.TypeRegistry
}

func (s EntitySerializer) Serialize(enc serde.Encoder) error {
	st, err := enc.EncodeStruct(EntityStruct, len(entityFields))
	if err != nil {
		return err
	}
	if err := st.EncodeField(EntityFieldComponents, MapSerializer{Values: s.Entity.Components, Registry: s.Registry}); err != nil {
		return err
	}
	return st.End()
}

// MapSerializer writes a uniquely typed collection as a map of type key to
// value, sorted by type name. Duplicates are not checked here.
type MapSerializer struct {
	Values   []registry.Value
	Registry *registry.TypeRegistry
}

type namedValue struct {
	desc  *registry.Descriptor
	value any
}

func (s MapSerializer) Serialize(enc serde.Encoder) error {
	entries := make([]namedValue, 0, len(s.Values))
	for _, v := range s.Values {
		desc, err := s.Registry.ResolveName(v.TypeName())
		if err != nil {
			return err
		}
		entries = append(entries, namedValue{desc: desc, value: v.Interface()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].desc.Name() < entries[j].desc.Name()
	})

	m, err := enc.EncodeMap(len(entries))
	if err != nil {
		return err
	}
	for _, e := range entries {
		e := e
		value := serde.SerializeFunc(func(enc serde.Encoder) error {
			return e.desc.Encode(enc, e.value)
		})
		if err := m.EncodeEntry(serde.TypeKeyOf(e.desc.Name(), e.desc.Tag()), value); err != nil {
			return err
		}
	}
	return m.End()
}
