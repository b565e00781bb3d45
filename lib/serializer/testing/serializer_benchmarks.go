package testing

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
)

// benchmarkScenes returns scenes of growing size for targeted benchmarking
func benchmarkScenes(reg *registry.TypeRegistry) map[string]*scene.Scene {
	return map[string]*scene.Scene{
		"Empty":   scene.New(),
		"Example": ExampleScene(reg),
		"Rich":    RichScene(reg),
		"1kEntities": func() *scene.Scene {
			s := scene.New()
			s.AddResource(reg.MustValueOf(Gravity{Y: -9.81}))
			for i := 0; i < 1000; i++ {
				s.AddEntity(scene.NewEntityKey(uint32(i), 0),
					reg.MustValueOf(A{X: int32(i)}),
					reg.MustValueOf(B{Y: int32(-i)}),
					reg.MustValueOf(Health{Current: int32(i % 100), Max: 100}),
				)
			}
			return s
		}(),
	}
}

// RunSceneSerializerBenchmarks runs all benchmarks for a scene serializer implementation
func RunSceneSerializerBenchmarks(b *testing.B, name string, factory SerializerFactory) {
	reg := NewFixtureRegistry()

	for sceneName, sc := range benchmarkScenes(reg) {
		b.Run(fmt.Sprintf("%s_Serialize_%s", name, sceneName), func(b *testing.B) {
			benchmarkSerialize(b, factory, sc, reg)
		})

		b.Run(fmt.Sprintf("%s_Deserialize_%s", name, sceneName), func(b *testing.B) {
			benchmarkDeserialize(b, factory, sc, reg)
		})
	}
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkSerialize(b *testing.B, factory SerializerFactory, sc *scene.Scene, reg *registry.TypeRegistry) {
	s := factory()
	b.ReportAllocs()
	b.ResetTimer()

	var size int
	for i := 0; i < b.N; i++ {
		data, err := s.Serialize(sc, reg)
		if err != nil {
			b.Fatalf("Failed to serialize: %v", err)
		}
		size = len(data)
	}
	b.ReportMetric(float64(size), "bytes")
}

func benchmarkDeserialize(b *testing.B, factory SerializerFactory, sc *scene.Scene, reg *registry.TypeRegistry) {
	s := factory()
	data, err := s.Serialize(sc, reg)
	if err != nil {
		b.Fatalf("Failed to serialize: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := s.Deserialize(data, reg); err != nil {
			b.Fatalf("Failed to deserialize: %v", err)
		}
	}
}
