package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/dScene/lib/serde"
	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

type position struct {
	X, Y float32
}

type health struct {
	Current, Max int
}

func newTestRegistry(t *testing.T) *TypeRegistry {
	t.Helper()
	reg := New()
	_, err := Register[position](reg, "game::Position")
	require.NoError(t, err)
	_, err = Register[health](reg, "game::Health", WithTag(7),
		WithCanonicalizer(func(h health) (health, error) {
			if h.Current > h.Max {
				h.Current = h.Max
			}
			return h, nil
		}),
	)
	require.NoError(t, err)
	return reg
}

func TestResolve(t *testing.T) {
	reg := newTestRegistry(t)

	byName, err := reg.ResolveName("game::Position")
	require.NoError(t, err)
	require.Equal(t, "game::Position", byName.Name())
	require.Equal(t, TagOf("game::Position"), byName.Tag())

	byTag, err := reg.ResolveTag(7)
	require.NoError(t, err)
	require.Equal(t, "game::Health", byTag.Name())

	viaKey, err := reg.Resolve(serde.TagKey(7))
	require.NoError(t, err)
	require.Same(t, byTag, viaKey)

	viaKey, err = reg.Resolve(serde.NameKey("game::Position"))
	require.NoError(t, err)
	require.Same(t, byName, viaKey)

	name, ok := reg.Describe(byTag.ID())
	require.True(t, ok)
	require.Equal(t, "game::Health", name)
}

func TestResolveUnknown(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.ResolveName("game::Missing")
	require.True(t, errors.Is(err, &serde.Error{Code: serde.RetCUnknownType, Name: "game::Missing"}))

	_, err = reg.ResolveTag(99)
	require.True(t, errors.Is(err, &serde.Error{Code: serde.RetCUnknownType, Name: "#99"}))

	_, err = reg.DescriptorOf(struct{}{})
	require.True(t, serde.IsCode(err, serde.RetCUnknownType))
}

func TestRegisterConflicts(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := Register[struct{ A int }](reg, "game::Position")
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = Register[struct{ B int }](reg, "game::Other", WithTag(7))
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = Register[position](reg, "game::Position2")
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = Register[int](reg, "")
	require.Error(t, err)

	require.Equal(t, 2, reg.Len())
}

func TestCanonicalize(t *testing.T) {
	reg := newTestRegistry(t)
	d, err := reg.ResolveName("game::Health")
	require.NoError(t, err)

	v, ok, err := reg.Canonicalize(d.ID(), health{Current: 150, Max: 100})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, health{Current: 100, Max: 100}, v)

	p, err := reg.ResolveName("game::Position")
	require.NoError(t, err)
	_, ok, err = reg.Canonicalize(p.ID(), position{})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCanonicalizerTypeMismatch(t *testing.T) {
	reg := New()
	_, err := Register[position](reg, "game::Position",
		WithCanonicalizer(func(h health) (health, error) { return h, nil }),
	)
	require.Error(t, err)
	require.Equal(t, 0, reg.Len())
}

func TestValueOf(t *testing.T) {
	reg := newTestRegistry(t)

	v, err := reg.ValueOf(position{X: 1, Y: 2})
	require.NoError(t, err)
	require.Equal(t, "game::Position", v.TypeName())
	require.Equal(t, position{X: 1, Y: 2}, v.Interface())

	same, err := reg.ValueOf(v)
	require.NoError(t, err)
	require.Same(t, v, same)

	_, err = reg.NamedValue("game::Position", health{})
	require.Error(t, err)

	require.True(t, ValuesEqual(v, reg.MustValueOf(position{X: 1, Y: 2})))
	require.False(t, ValuesEqual(v, reg.MustValueOf(position{X: 2, Y: 2})))
}

func TestDynamic(t *testing.T) {
	reg := New()
	d, err := RegisterDynamic(reg, "editor::Note")
	require.NoError(t, err)
	require.True(t, d.IsDynamic())

	v, err := reg.NamedValue("editor::Note", map[string]any{"text": "hello"})
	require.NoError(t, err)
	require.Equal(t, "editor::Note", v.TypeName())

	_, err = RegisterDynamic(reg, "editor::Other", WithCodec(
		func(enc serde.Encoder, v int) error { return nil },
		func(dec serde.Decoder) (int, error) { return 0, nil },
	))
	require.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	reg := newTestRegistry(t)
	snap := reg.Snapshot()

	_, err := Register[int](reg, "builtin::int")
	require.NoError(t, err)

	require.Equal(t, 3, reg.Len())
	require.Equal(t, 2, snap.Len())
	require.Equal(t, []string{"game::Health", "game::Position"}, snap.Names())

	orig, _ := reg.ResolveName("game::Health")
	copied, _ := snap.ResolveName("game::Health")
	require.Equal(t, orig.ID(), copied.ID())
}

func TestConcurrentLookup(t *testing.T) {
	reg := New()
	for i := 0; i < 64; i++ {
		_, err := RegisterDynamic(reg, fmt.Sprintf("dyn::T%d", i))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 64; i++ {
				name := fmt.Sprintf("dyn::T%d", i)
				d, err := reg.ResolveName(name)
				if err != nil || d.Name() != name {
					t.Errorf("lookup of %s failed: %v", name, err)
				}
			}
		}()
	}
	wg.Wait()
}

func TestTagOfStable(t *testing.T) {
	require.Equal(t, TagOf("game::Position"), TagOf("game::Position"))
	require.NotEqual(t, TagOf("A"), TagOf("B"))
	h := xxhash.Sum64String("game::Position")
	require.Equal(t, uint32(h^(h>>32)), TagOf("game::Position"))
}
