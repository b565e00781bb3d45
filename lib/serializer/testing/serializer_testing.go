package testing

import (
	"bytes"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/ValentinKolb/dScene/lib/serde"
	"github.com/ValentinKolb/dScene/lib/serializer"
)

// SerializerFactory is a function that creates a new instance of an ISceneSerializer implementation
type SerializerFactory func() serializer.ISceneSerializer

// RunSceneSerializerTests runs the conformance test suite for an ISceneSerializer implementation.
func RunSceneSerializerTests(t *testing.T, name string, factory SerializerFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, factory())
		})

		t.Run("EmptyScene", func(t *testing.T) {
			testEmptyScene(t, factory())
		})

		t.Run("ExampleScene", func(t *testing.T) {
			testExampleScene(t, factory())
		})

		t.Run("SortedTypeKeys", func(t *testing.T) {
			testSortedTypeKeys(t, factory())
		})

		t.Run("Deterministic", func(t *testing.T) {
			testDeterministic(t, factory())
		})

		t.Run("DuplicateType", func(t *testing.T) {
			testDuplicateType(t, factory())
		})

		t.Run("DuplicateResource", func(t *testing.T) {
			testDuplicateResource(t, factory())
		})

		t.Run("UnknownType", func(t *testing.T) {
			testUnknownType(t, factory())
		})

		t.Run("Canonicalization", func(t *testing.T) {
			testCanonicalization(t, factory())
		})

		t.Run("CustomCodec", func(t *testing.T) {
			testCustomCodec(t, factory())
		})

		t.Run("DuplicateEntityKeys", func(t *testing.T) {
			testDuplicateEntityKeys(t, factory())
		})

		t.Run("Concurrent", func(t *testing.T) {
			testConcurrent(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func roundTrip(t *testing.T, s serializer.ISceneSerializer, sc *scene.Scene, reg *registry.TypeRegistry) *scene.Scene {
	t.Helper()

	data, err := s.Serialize(sc, reg)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	decoded, err := s.Deserialize(data, reg)
	if err != nil {
		t.Fatalf("Failed to deserialize: %v\n%s", err, data)
	}
	return decoded
}

// requireCode fails the test unless err is a *serde.Error with the given code and name
func requireCode(t *testing.T, err error, code serde.RetCode, name string) {
	t.Helper()

	if err == nil {
		t.Fatalf("Expected a %s error, got none", code)
	}
	if !errors.Is(err, &serde.Error{Code: code, Name: name}) {
		t.Fatalf("Expected a %s error for %q, got: %v", code, name, err)
	}
}

func componentNames(e scene.Entity) []string {
	names := make([]string, 0, len(e.Components))
	for _, c := range e.Components {
		names = append(names, c.TypeName())
	}
	return names
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testRoundTrip(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	for name, build := range map[string]func(*registry.TypeRegistry) *scene.Scene{
		"Example": ExampleScene,
		"Rich":    RichScene,
	} {
		original := build(reg)
		decoded := roundTrip(t, s, original, reg)
		if !scene.Equal(original, decoded) {
			t.Errorf("%s scene doesn't match after round trip:\nOriginal: %+v\nResult: %+v", name, original, decoded)
		}
	}
}

func testEmptyScene(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	decoded := roundTrip(t, s, scene.New(), reg)
	if len(decoded.Resources) != 0 || len(decoded.Entities) != 0 {
		t.Errorf("Expected an empty scene, got %+v", decoded)
	}
	if decoded.Resources == nil || decoded.Entities == nil {
		t.Errorf("Expected empty, non-nil collections")
	}
}

func testExampleScene(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	decoded := roundTrip(t, s, ExampleScene(reg), reg)

	if len(decoded.Resources) != 0 {
		t.Errorf("Expected no resources, got %d", len(decoded.Resources))
	}
	if len(decoded.Entities) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(decoded.Entities))
	}

	// entity order is kept
	if decoded.Entities[0].Key != 7 || decoded.Entities[1].Key != 3 {
		t.Errorf("Expected entity keys [7 3], got [%d %d]", decoded.Entities[0].Key, decoded.Entities[1].Key)
	}

	e3 := decoded.Entities[1]
	if names := componentNames(e3); !reflect.DeepEqual(names, []string{NameA, NameB}) {
		t.Errorf("Expected components [A B], got %v", names)
	}
	a, _ := e3.Component(NameA)
	b, _ := e3.Component(NameB)
	if a.Interface() != (A{X: 2}) || b.Interface() != (B{Y: 5}) {
		t.Errorf("Unexpected component values: %v, %v", a, b)
	}
}

func testSortedTypeKeys(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	sc := scene.New()
	sc.AddResource(reg.MustValueOf(Gravity{Y: -1}))
	sc.AddResource(reg.MustValueOf(A{X: 1}))
	sc.AddEntity(1,
		reg.MustValueOf(Health{Current: 1, Max: 2}),
		reg.MustValueOf(B{Y: 2}),
		reg.MustValueOf(A{X: 3}),
	)

	decoded := roundTrip(t, s, sc, reg)

	want := []string{NameA, NameB, NameHealth}
	if names := componentNames(decoded.Entities[0]); !reflect.DeepEqual(names, want) {
		t.Errorf("Expected components in order %v, got %v", want, names)
	}
	if decoded.Resources[0].TypeName() != NameA || decoded.Resources[1].TypeName() != NameGravity {
		t.Errorf("Expected resources sorted by type name, got %v", decoded.Resources)
	}
}

func testDeterministic(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	forward := scene.New()
	forward.AddResource(reg.MustValueOf(A{X: 9}))
	forward.AddResource(reg.MustValueOf(Gravity{Y: -9.81}))
	forward.AddEntity(3, reg.MustValueOf(A{X: 2}), reg.MustValueOf(B{Y: 5}), reg.MustValueOf(Color(0xabcdef)))

	backward := scene.New()
	backward.AddResource(reg.MustValueOf(Gravity{Y: -9.81}))
	backward.AddResource(reg.MustValueOf(A{X: 9}))
	backward.AddEntity(3, reg.MustValueOf(Color(0xabcdef)), reg.MustValueOf(B{Y: 5}), reg.MustValueOf(A{X: 2}))

	first, err := s.Serialize(forward, reg)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	second, err := s.Serialize(backward, reg)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("Encodings differ for different insertion orders:\n%x\n%x", first, second)
	}
	if serializer.Fingerprint(first) != serializer.Fingerprint(second) {
		t.Errorf("Fingerprints differ for equal encodings")
	}
}

func testDuplicateType(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	// the encoder does not check for duplicates, so it can produce the invalid input
	sc := scene.New()
	sc.AddEntity(7, reg.MustValueOf(A{X: 1}))
	sc.AddEntity(3, reg.MustValueOf(A{X: 2}), reg.MustValueOf(A{X: 3}), reg.MustValueOf(B{Y: 5}))

	data, err := s.Serialize(sc, reg)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	decoded, err := s.Deserialize(data, reg)
	requireCode(t, err, serde.RetCDuplicateType, NameA)
	if decoded != nil {
		t.Errorf("Expected no partial scene on error")
	}
}

func testDuplicateResource(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	sc := scene.New()
	sc.AddResource(reg.MustValueOf(Gravity{Y: -1}))
	sc.AddResource(reg.MustValueOf(Gravity{Y: -2}))

	data, err := s.Serialize(sc, reg)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	_, err = s.Deserialize(data, reg)
	requireCode(t, err, serde.RetCDuplicateType, NameGravity)
}

func testUnknownType(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	data, err := s.Serialize(ExampleScene(reg), reg)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	_, err = s.Deserialize(data, NewFixtureRegistryWithout(NameB))
	requireCode(t, err, serde.RetCUnknownType, "")

	// the full registry still decodes the same bytes
	if _, err := s.Deserialize(data, reg); err != nil {
		t.Errorf("Failed to deserialize with the full registry: %v", err)
	}

	// unregistered values cannot be encoded either
	sc := ExampleScene(reg)
	if _, err := s.Serialize(sc, NewFixtureRegistryWithout(NameA)); !serde.IsCode(err, serde.RetCUnknownType) {
		t.Errorf("Expected an UnknownType error on encode, got: %v", err)
	}
}

func testCanonicalization(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	sc := scene.New()
	sc.AddEntity(1,
		reg.MustValueOf(Health{Current: 250, Max: 100}), // hook clamps
		reg.MustValueOf(Label{Text: "raw"}),             // hook fails
		reg.MustValueOf(A{X: 5}),                        // no hook
	)

	decoded := roundTrip(t, s, sc, reg)
	e := decoded.Entities[0]

	health, _ := e.Component(NameHealth)
	if health.Interface() != (Health{Current: 100, Max: 100}) {
		t.Errorf("Expected canonical health {100 100}, got %v", health.Interface())
	}

	label, _ := e.Component(NameLabel)
	if label.Interface() != (Label{Text: "raw"}) {
		t.Errorf("Expected the raw label after a failing hook, got %v", label.Interface())
	}

	a, _ := e.Component(NameA)
	if a.Interface() != (A{X: 5}) {
		t.Errorf("Expected the raw value without a hook, got %v", a.Interface())
	}
}

func testCustomCodec(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	sc := scene.New()
	sc.AddEntity(1, reg.MustValueOf(Color(0x12ab34)))

	decoded := roundTrip(t, s, sc, reg)
	c, ok := decoded.Entities[0].Component(NameColor)
	if !ok || c.Interface() != Color(0x12ab34) {
		t.Errorf("Expected color 0x12ab34, got %v", c)
	}
}

func testDuplicateEntityKeys(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()

	sc := scene.New()
	sc.AddEntity(5, reg.MustValueOf(A{X: 1}))
	sc.AddEntity(5, reg.MustValueOf(B{Y: 2}))

	decoded := roundTrip(t, s, sc, reg)
	if len(decoded.Entities) != 2 {
		t.Fatalf("Expected repeated entity keys to accumulate, got %d entities", len(decoded.Entities))
	}
	for _, e := range decoded.Entities {
		if e.Key != 5 {
			t.Errorf("Expected key 5, got %d", e.Key)
		}
	}
}

func testConcurrent(t *testing.T, s serializer.ISceneSerializer) {
	reg := NewFixtureRegistry()
	original := RichScene(reg)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 16; j++ {
				data, err := s.Serialize(original, reg)
				if err != nil {
					t.Errorf("Failed to serialize: %v", err)
					return
				}
				decoded, err := s.Deserialize(data, reg)
				if err != nil {
					t.Errorf("Failed to deserialize: %v", err)
					return
				}
				if !scene.Equal(original, decoded) {
					t.Errorf("Scene doesn't match after concurrent round trip")
					return
				}
			}
		}()
	}
	wg.Wait()
}
