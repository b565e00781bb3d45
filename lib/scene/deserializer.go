package scene

import (
	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/serde"
)

// Deserialize reads a scene from dec, resolving every type through reg.
// Decoding is all or nothing: on error no scene is returned.
func Deserialize(dec serde.Decoder, reg *registry.TypeRegistry) (*Scene, error) {
	return SceneDeserializer{Registry: reg}.Deserialize(dec)
}

// --------------------------------------------------------------------------
// Scene
// --------------------------------------------------------------------------

// SceneDeserializer reads a scene written by SceneSerializer. It accepts the
// two fields either positionally or by name in any order.
type SceneDeserializer struct {
	Registry *registry.TypeRegistry
}

func (d SceneDeserializer) Deserialize(dec serde.Decoder) (*Scene, error) {
	v := &sceneVisitor{registry: d.Registry}
	if err := dec.DecodeStruct(SceneStruct, sceneFields, v); err != nil {
		return nil, err
	}
	return &Scene{Resources: v.resources, Entities: v.entities}, nil
}

type sceneVisitor struct {
	registry  *registry.TypeRegistry
	resources []registry.Value
	entities  []Entity
}

func (v *sceneVisitor) readResources(dec serde.Decoder) (err error) {
	v.resources, err = MapDeserializer{Registry: v.registry}.Deserialize(dec)
	return err
}

func (v *sceneVisitor) readEntities(dec serde.Decoder) (err error) {
	v.entities, err = EntitiesDeserializer{Registry: v.registry}.Deserialize(dec)
	return err
}

func (v *sceneVisitor) VisitSeq(seq serde.SeqAccess) error {
	ok, err := seq.NextElement(v.readResources)
	if err != nil {
		return err
	}
	if !ok {
		return serde.NewError(serde.RetCMissingField, SceneResources, nil)
	}

	ok, err = seq.NextElement(v.readEntities)
	if err != nil {
		return err
	}
	if !ok {
		return serde.NewError(serde.RetCMissingField, SceneEntities, nil)
	}
	return nil
}

func (v *sceneVisitor) VisitMap(m serde.MapAccess) error {
	var hasResources, hasEntities bool
	for {
		var field string
		ok, err := m.NextKey(func(dec serde.Decoder) (err error) {
			field, err = dec.DecodeString()
			return err
		})
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		switch field {
		case SceneResources:
			if hasResources {
				return serde.NewError(serde.RetCDuplicateField, SceneResources, nil)
			}
			hasResources = true
			err = m.NextValue(v.readResources)
		case SceneEntities:
			if hasEntities {
				return serde.NewError(serde.RetCDuplicateField, SceneEntities, nil)
			}
			hasEntities = true
			err = m.NextValue(v.readEntities)
		default:
			return serde.NewError(serde.RetCUnknownField, field, nil)
		}
		if err != nil {
			return err
		}
	}

	if !hasResources {
		return serde.NewError(serde.RetCMissingField, SceneResources, nil)
	}
	if !hasEntities {
		return serde.NewError(serde.RetCMissingField, SceneEntities, nil)
	}
	return nil
}

// --------------------------------------------------------------------------
// Entities
// --------------------------------------------------------------------------

// EntitiesDeserializer reads the map of entity key to entity. Repeated keys
// are kept as separate entries in wire order.
type EntitiesDeserializer struct {
	Registry *registry.TypeRegistry
}

func (d EntitiesDeserializer) Deserialize(dec serde.Decoder) ([]Entity, error) {
	v := &entitiesVisitor{registry: d.Registry, entities: []Entity{}}
	if err := dec.DecodeMap(v); err != nil {
		return nil, err
	}
	return v.entities, nil
}

type entitiesVisitor struct {
	registry *registry.TypeRegistry
	entities []Entity
}

func (v *entitiesVisitor) VisitSeq(serde.SeqAccess) error {
	return serde.Errorf("expected a map of entities, found a sequence")
}

func (v *entitiesVisitor) VisitMap(m serde.MapAccess) error {
	for {
		var key uint64
		ok, err := m.NextKey(func(dec serde.Decoder) (err error) {
			key, err = dec.DecodeUint64()
			return err
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		var entity Entity
		err = m.NextValue(func(dec serde.Decoder) (err error) {
			entity, err = EntityDeserializer{Key: EntityKey(key), Registry: v.registry}.Deserialize(dec)
			return err
		})
		if err != nil {
			return err
		}
		v.entities = append(v.entities, entity)
	}
}

// --------------------------------------------------------------------------
// Entity
// --------------------------------------------------------------------------

// EntityDeserializer reads the payload of one entity and attaches Key to it.
type EntityDeserializer struct {
	Key      EntityKey
	Registry *registry.TypeRegistry
}

func (d EntityDeserializer) Deserialize(dec serde.Decoder) (Entity, error) {
	v := &entityVisitor{registry: d.Registry}
	if err := dec.DecodeStruct(EntityStruct, entityFields, v); err != nil {
		return Entity{}, err
	}
	return Entity{Key: d.Key, Components: v.components}, nil
}

type entityVisitor struct {
	registry   *registry.TypeRegistry
	components []registry.Value
}

func (v *entityVisitor) readComponents(dec serde.Decoder) (err error) {
	v.components, err = MapDeserializer{Registry: v.registry}.Deserialize(dec)
	return err
}

func (v *entityVisitor) VisitSeq(seq serde.SeqAccess) error {
	ok, err := seq.NextElement(v.readComponents)
	if err != nil {
		return err
	}
	if !ok {
		return serde.NewError(serde.RetCMissingField, EntityFieldComponents, nil)
	}
	return nil
}

func (v *entityVisitor) VisitMap(m serde.MapAccess) error {
	var hasComponents bool
	for {
		var field string
		ok, err := m.NextKey(func(dec serde.Decoder) (err error) {
			field, err = dec.DecodeString()
			return err
		})
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		if field != EntityFieldComponents {
			return serde.NewError(serde.RetCUnknownField, field, nil)
		}
		if hasComponents {
			return serde.NewError(serde.RetCDuplicateField, EntityFieldComponents, nil)
		}
		hasComponents = true
		if err := m.NextValue(v.readComponents); err != nil {
			return err
		}
	}

	if !hasComponents {
		return serde.NewError(serde.RetCMissingField, EntityFieldComponents, nil)
	}
	return nil
}

// --------------------------------------------------------------------------
// Uniquely Typed Collections
// --------------------------------------------------------------------------

// MapDeserializer reads a uniquely typed collection. It accepts a map of type
// key to value, or a sequence of single entry maps. Both forms reject a type
// that appears twice.
type MapDeserializer struct {
	Registry *registry.TypeRegistry
}

func (d MapDeserializer) Deserialize(dec serde.Decoder) ([]registry.Value, error) {
	v := &mapVisitor{
		registry: d.Registry,
		seen:     make(map[registry.TypeID]struct{}),
		values:   []registry.Value{},
	}
	if err := dec.DecodeMap(v); err != nil {
		return nil, err
	}
	return v.values, nil
}

type mapVisitor struct {
	registry *registry.TypeRegistry
	seen     map[registry.TypeID]struct{}
	values   []registry.Value
}

// next reads one type key and its value from m and appends the result.
// ok is false once m is exhausted.
func (v *mapVisitor) next(m serde.MapAccess) (ok bool, err error) {
	var desc *registry.Descriptor
	ok, err = m.NextKey(func(dec serde.Decoder) error {
		key, err := dec.DecodeTypeKey()
		if err != nil {
			return err
		}
		desc, err = v.registry.Resolve(key)
		return err
	})
	if err != nil || !ok {
		return ok, err
	}

	if _, dup := v.seen[desc.ID()]; dup {
		return false, serde.NewError(serde.RetCDuplicateType, desc.Name(), nil)
	}
	v.seen[desc.ID()] = struct{}{}

	var raw any
	err = m.NextValue(func(dec serde.Decoder) (err error) {
		raw, err = desc.Decode(dec)
		return err
	})
	if err != nil {
		if serde.IsCode(err, serde.RetCInvalidInput) {
			return false, err
		}
		return false, serde.NewError(serde.RetCValueDecode, desc.Name(), err)
	}

	v.values = append(v.values, desc.Box(canonicalize(v.registry, desc, raw)))
	return true, nil
}

func (v *mapVisitor) VisitMap(m serde.MapAccess) error {
	for {
		ok, err := v.next(m)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

func (v *mapVisitor) VisitSeq(seq serde.SeqAccess) error {
	for {
		ok, err := seq.NextElement(func(dec serde.Decoder) error {
			return dec.DecodeMap(singleEntryVisitor{v})
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// singleEntryVisitor reads one self-describing element of the sequential
// form: a map holding exactly one type key and its value.
type singleEntryVisitor struct {
	parent *mapVisitor
}

func (s singleEntryVisitor) VisitSeq(serde.SeqAccess) error {
	return serde.Errorf("expected a single entry map, found a sequence")
}

func (s singleEntryVisitor) VisitMap(m serde.MapAccess) error {
	ok, err := s.parent.next(m)
	if err != nil {
		return err
	}
	if !ok {
		return serde.Errorf("expected a single entry map, found an empty map")
	}

	// a second entry is not allowed
	extra, err := m.NextKey(func(dec serde.Decoder) error {
		key, err := dec.DecodeTypeKey()
		if err != nil {
			return err
		}
		return serde.Errorf("expected a single entry map, found a second key `%s`", key)
	})
	if err != nil {
		return err
	}
	if extra {
		return serde.Errorf("expected a single entry map")
	}
	return nil
}

// canonicalize applies the canonicalization hook registered for desc, if
// any. A failing hook is logged and the raw value is kept.
func canonicalize(reg *registry.TypeRegistry, desc *registry.Descriptor, raw any) any {
	v, ok, err := reg.Canonicalize(desc.ID(), raw)
	if !ok {
		return raw
	}
	if err != nil {
		Logger.Warningf("%v", serde.NewError(serde.RetCCanonicalization, desc.Name(), err))
		return raw
	}
	return v
}
