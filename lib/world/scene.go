package world

import (
	"fmt"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
)

// EntityMap maps entity keys of a scene to entity keys of a world.
type EntityMap map[scene.EntityKey]scene.EntityKey

// WriteScene applies s to w. For every scene entity the key recorded in
// entityMap is reused, otherwise a new entity is spawned and the mapping is
// recorded. Entities that appear more than once in s are merged onto one
// target, later components replace earlier ones of the same type.
//
// Values implementing scene.EntityMapper get their entity references
// rewritten through entityMap. A reference to an entity that is not part of
// the scene is mapped to a reserved dead key, so it never points at an
// unrelated live entity. These mappings are recorded in entityMap as well.
func WriteScene(w IWorld, s *scene.Scene, entityMap EntityMap) error {
	if entityMap == nil {
		return NewError(RetCInvalidValue, "entity map must not be nil")
	}
	impl, ok := w.(*worldImpl)
	if !ok {
		return NewError(RetCInvalidValue, fmt.Sprintf("unsupported world implementation %T", w))
	}

	// mapped targets must exist before anything is spawned
	for _, e := range s.Entities {
		if target, ok := entityMap[e.Key]; ok && !w.Contains(target) {
			return NewError(RetCNoSuchEntity, fmt.Sprintf("entity %s is mapped to %s, which does not exist", e.Key, target))
		}
	}

	// first pass: resolve the target of every scene entity
	for _, e := range s.Entities {
		if _, ok := entityMap[e.Key]; !ok {
			entityMap[e.Key] = w.Spawn()
		}
	}

	mapper := func(ref scene.EntityKey) scene.EntityKey {
		if target, ok := entityMap[ref]; ok {
			return target
		}
		dead := impl.alloc.reserveDead()
		entityMap[ref] = dead
		Logger.Debugf("reference to %s outside the scene mapped to dead entity %s", ref, dead)
		return dead
	}

	// second pass: insert the (mapped) values
	for _, r := range s.Resources {
		v, err := mapEntities(r, mapper)
		if err != nil {
			return err
		}
		w.InsertResource(v)
	}
	for _, e := range s.Entities {
		components := make([]registry.Value, 0, len(e.Components))
		for _, c := range e.Components {
			v, err := mapEntities(c, mapper)
			if err != nil {
				return err
			}
			components = append(components, v)
		}
		if err := w.Insert(entityMap[e.Key], components...); err != nil {
			return err
		}
	}
	return nil
}

// described is implemented by values boxed by a registry.
type described interface {
	Descriptor() *registry.Descriptor
}

func mapEntities(v registry.Value, mapper func(scene.EntityKey) scene.EntityKey) (registry.Value, error) {
	m, ok := v.Interface().(scene.EntityMapper)
	if !ok {
		return v, nil
	}
	d, ok := v.(described)
	if !ok {
		return nil, NewError(RetCInvalidValue, fmt.Sprintf("value of type `%s` holds entity references but was not created by a registry", v.TypeName()))
	}
	return d.Descriptor().Box(m.MapEntities(mapper)), nil
}

// ExtractScene builds a scene holding all resources and entities of w.
// Entities are sorted by key, resources and components by type name.
func ExtractScene(w IWorld) *scene.Scene {
	s := scene.New()
	s.Resources = append(s.Resources, w.Resources()...)
	for _, key := range w.Entities() {
		components, ok := w.Components(key)
		if !ok {
			continue
		}
		s.AddEntity(key, components...)
	}
	return s
}
