package scene_test

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/ValentinKolb/dScene/lib/serde"
	"github.com/ValentinKolb/dScene/lib/serializer"
	"github.com/stretchr/testify/require"
)

type position struct {
	X, Y float32
}

type velocity struct {
	DX, DY float32
}

type clock struct {
	Tick uint64
}

func newRegistry(t *testing.T) *registry.TypeRegistry {
	t.Helper()
	reg := registry.New()
	_, err := registry.Register[position](reg, "physics::Position")
	require.NoError(t, err)
	_, err = registry.Register[velocity](reg, "physics::Velocity")
	require.NoError(t, err)
	_, err = registry.Register[clock](reg, "time::Clock",
		registry.WithCanonicalizer(func(c clock) (clock, error) {
			if c.Tick == 0 {
				return c, errors.New("clock never started")
			}
			return clock{Tick: c.Tick - c.Tick%60}, nil
		}),
	)
	require.NoError(t, err)
	return reg
}

func TestEntityKey(t *testing.T) {
	k := scene.NewEntityKey(42, 7)
	require.Equal(t, uint32(42), k.Index())
	require.Equal(t, uint32(7), k.Generation())
	require.Equal(t, "42v7", k.String())
	require.Equal(t, scene.EntityKey(42), scene.NewEntityKey(42, 0))
}

func TestSceneAccessors(t *testing.T) {
	reg := newRegistry(t)
	s := scene.New()
	require.NotNil(t, s.Resources)
	require.NotNil(t, s.Entities)

	s.AddResource(reg.MustValueOf(clock{Tick: 120}))
	e := s.AddEntity(3, reg.MustValueOf(position{X: 1}))
	require.Equal(t, scene.EntityKey(3), e.Key)

	got, ok := s.Entity(3)
	require.True(t, ok)
	pos, ok := got.Component("physics::Position")
	require.True(t, ok)
	require.Equal(t, position{X: 1}, pos.Interface())

	_, ok = got.Component("physics::Velocity")
	require.False(t, ok)
	_, ok = s.Entity(4)
	require.False(t, ok)

	res, ok := s.Resource("time::Clock")
	require.True(t, ok)
	require.Equal(t, clock{Tick: 120}, res.Interface())
}

func TestEqual(t *testing.T) {
	reg := newRegistry(t)

	a := scene.New()
	a.AddEntity(1, reg.MustValueOf(position{X: 1}), reg.MustValueOf(velocity{DX: 2}))
	a.AddEntity(2)

	// different entity and component order
	b := scene.New()
	b.AddEntity(2)
	b.AddEntity(1, reg.MustValueOf(velocity{DX: 2}), reg.MustValueOf(position{X: 1}))
	require.True(t, scene.Equal(a, b))

	c := scene.New()
	c.AddEntity(1, reg.MustValueOf(position{X: 1}), reg.MustValueOf(velocity{DX: 3}))
	c.AddEntity(2)
	require.False(t, scene.Equal(a, c))

	d := scene.New()
	d.AddResource(reg.MustValueOf(clock{Tick: 60}))
	d.Entities = a.Entities
	require.False(t, scene.Equal(a, d))

	require.True(t, scene.Equal(nil, nil))
	require.False(t, scene.Equal(a, nil))
}

func TestSerializeUnregistered(t *testing.T) {
	reg := newRegistry(t)

	other := registry.New()
	_, err := registry.Register[struct{ Name string }](other, "Name")
	require.NoError(t, err)

	s := scene.New()
	s.AddEntity(1, other.MustValueOf(struct{ Name string }{"x"}))

	_, err = serializer.NewJSONSerializer(nil).Serialize(s, reg)
	require.True(t, serde.IsCode(err, serde.RetCUnknownType), "got %v", err)
}

func TestCanonicalizationOnDecode(t *testing.T) {
	reg := newRegistry(t)
	codec := serializer.NewJSONSerializer(nil)

	got, err := codec.Deserialize([]byte(`{"resources":{"time::Clock":{"Tick":125}},"entities":{}}`), reg)
	require.NoError(t, err)
	res, ok := got.Resource("time::Clock")
	require.True(t, ok)
	require.Equal(t, clock{Tick: 120}, res.Interface())

	// a failing hook keeps the raw value
	got, err = codec.Deserialize([]byte(`{"resources":{"time::Clock":{"Tick":0}},"entities":{}}`), reg)
	require.NoError(t, err)
	res, ok = got.Resource("time::Clock")
	require.True(t, ok)
	require.Equal(t, clock{Tick: 0}, res.Interface())
}

func TestDeserializeAllOrNothing(t *testing.T) {
	reg := newRegistry(t)

	for _, name := range serializer.Names() {
		codec, err := serializer.NewSerializer(name, nil)
		require.NoError(t, err)

		s := scene.New()
		s.AddEntity(1, reg.MustValueOf(position{X: 1}))
		s.AddEntity(2, reg.MustValueOf(velocity{DX: 1}))
		data, err := codec.Serialize(s, reg)
		require.NoError(t, err)

		// velocity is unknown to the reader, the first entity must not leak out
		reader := registry.New()
		_, err = registry.Register[position](reader, "physics::Position")
		require.NoError(t, err)

		got, err := codec.Deserialize(data, reader)
		require.Nil(t, got, name)
		require.Truef(t, errors.Is(err, &serde.Error{Code: serde.RetCUnknownType, Name: "physics::Velocity"}), "%s: %v", name, err)
	}
}
