package serializer_test

import (
	"testing"

	"github.com/ValentinKolb/dScene/lib/serializer"
	sertest "github.com/ValentinKolb/dScene/lib/serializer/testing"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() serializer.ISceneSerializer{
	"JSON": func() serializer.ISceneSerializer {
		return serializer.NewJSONSerializer(nil)
	},
	"JSONPretty": func() serializer.ISceneSerializer {
		return serializer.NewJSONSerializer(&serializer.Options{Pretty: true})
	},
	"YAML": func() serializer.ISceneSerializer {
		return serializer.NewYAMLSerializer(nil)
	},
	"CBOR": func() serializer.ISceneSerializer {
		return serializer.NewCBORSerializer(nil)
	},
	"CBORTags": func() serializer.ISceneSerializer {
		return serializer.NewCBORSerializer(&serializer.Options{TypeTags: true})
	},
	"Binary": func() serializer.ISceneSerializer {
		return serializer.NewBinarySerializer(nil)
	},
	"BinaryTags": func() serializer.ISceneSerializer {
		return serializer.NewBinarySerializer(&serializer.Options{TypeTags: true})
	},
	"ZstdYAML": func() serializer.ISceneSerializer {
		return serializer.WithCompression(serializer.NewYAMLSerializer(nil), serializer.CompressionZstd)
	},
	"LZ4Binary": func() serializer.ISceneSerializer {
		return serializer.WithCompression(serializer.NewBinarySerializer(nil), serializer.CompressionLZ4)
	},
	"MeteredJSON": func() serializer.ISceneSerializer {
		return serializer.WithMetrics(serializer.NewJSONSerializer(nil))
	},
}

func TestSerializerConformance(t *testing.T) {
	for name, factory := range testSerializers {
		sertest.RunSceneSerializerTests(t, name, factory)
	}
}

func BenchmarkSerializers(b *testing.B) {
	for name, factory := range testSerializers {
		sertest.RunSceneSerializerBenchmarks(b, name, factory)
	}
}
