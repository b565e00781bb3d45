package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("world")

type worldImpl struct {
	alloc     allocator
	entities  *xsync.MapOf[scene.EntityKey, *xsync.MapOf[string, registry.Value]]
	resources *xsync.MapOf[string, registry.Value]
}

// NewWorld creates a new empty world.
func NewWorld() IWorld {
	return &worldImpl{
		entities:  xsync.NewMapOf[scene.EntityKey, *xsync.MapOf[string, registry.Value]](),
		resources: xsync.NewMapOf[string, registry.Value](),
	}
}

// --------------------------------------------------------------------------
// Entity Allocation
// --------------------------------------------------------------------------

// allocator hands out entity keys. Despawning bumps the generation of an
// index and puts the index on the free list.
//
// Thread-safety: all methods lock mu.
type allocator struct {
	mu          sync.Mutex
	generations []uint32
	alive       []bool
	free        []uint32
}

func (a *allocator) alloc() scene.EntityKey {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		index := a.free[n-1]
		a.free = a.free[:n-1]
		a.alive[index] = true
		return scene.NewEntityKey(index, a.generations[index])
	}

	index := uint32(len(a.generations))
	a.generations = append(a.generations, 0)
	a.alive = append(a.alive, true)
	return scene.NewEntityKey(index, 0)
}

func (a *allocator) release(key scene.EntityKey) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isAlive(key) {
		return false
	}
	index := key.Index()
	a.alive[index] = false
	a.generations[index]++
	a.free = append(a.free, index)
	return true
}

func (a *allocator) contains(key scene.EntityKey) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isAlive(key)
}

func (a *allocator) isAlive(key scene.EntityKey) bool {
	index := key.Index()
	return int(index) < len(a.alive) && a.alive[index] && a.generations[index] == key.Generation()
}

// reserveDead returns a key that refers to no live entity and will not be
// handed out again until its index wraps around a full generation.
func (a *allocator) reserveDead() scene.EntityKey {
	key := a.alloc()
	a.release(key)
	return key
}

// --------------------------------------------------------------------------
// Interface Methods (docu see world/interface.go)
// --------------------------------------------------------------------------

func (w *worldImpl) Spawn(components ...registry.Value) scene.EntityKey {
	key := w.alloc.alloc()
	table := xsync.NewMapOf[string, registry.Value]()
	for _, c := range components {
		table.Store(c.TypeName(), c)
	}
	w.entities.Store(key, table)
	return key
}

func (w *worldImpl) Despawn(key scene.EntityKey) bool {
	if !w.alloc.release(key) {
		return false
	}
	w.entities.Delete(key)
	return true
}

func (w *worldImpl) Contains(key scene.EntityKey) bool {
	return w.alloc.contains(key)
}

func (w *worldImpl) Insert(key scene.EntityKey, components ...registry.Value) error {
	table, ok := w.entities.Load(key)
	if !ok {
		return NewError(RetCNoSuchEntity, fmt.Sprintf("entity %s does not exist", key))
	}
	for _, c := range components {
		if c == nil {
			return NewError(RetCInvalidValue, fmt.Sprintf("nil component for entity %s", key))
		}
		table.Store(c.TypeName(), c)
	}
	return nil
}

func (w *worldImpl) Get(key scene.EntityKey, typeName string) (registry.Value, bool) {
	table, ok := w.entities.Load(key)
	if !ok {
		return nil, false
	}
	return table.Load(typeName)
}

func (w *worldImpl) Components(key scene.EntityKey) ([]registry.Value, bool) {
	table, ok := w.entities.Load(key)
	if !ok {
		return nil, false
	}
	return sortedValues(table), true
}

func (w *worldImpl) Entities() []scene.EntityKey {
	keys := make([]scene.EntityKey, 0, w.entities.Size())
	w.entities.Range(func(key scene.EntityKey, _ *xsync.MapOf[string, registry.Value]) bool {
		keys = append(keys, key)
		return true
	})
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (w *worldImpl) InsertResource(value registry.Value) {
	w.resources.Store(value.TypeName(), value)
}

func (w *worldImpl) Resource(typeName string) (registry.Value, bool) {
	return w.resources.Load(typeName)
}

func (w *worldImpl) Resources() []registry.Value {
	return sortedValues(w.resources)
}

func (w *worldImpl) Len() int {
	return w.entities.Size()
}

func sortedValues(table *xsync.MapOf[string, registry.Value]) []registry.Value {
	values := make([]registry.Value, 0, table.Size())
	table.Range(func(_ string, v registry.Value) bool {
		values = append(values, v)
		return true
	})
	sort.Slice(values, func(i, j int) bool { return values[i].TypeName() < values[j].TypeName() })
	return values
}
