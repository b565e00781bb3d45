package serializer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
)

// ISceneSerializer is the interface for all scene wire formats
type ISceneSerializer interface {
	// Name returns the short format name (json, yaml, cbor, binary)
	Name() string
	// Serialize encodes a scene into a byte array
	// Every value is resolved through the registry, which is only read
	Serialize(s *scene.Scene, reg *registry.TypeRegistry) ([]byte, error)
	// Deserialize decodes a byte array into a new scene
	// It returns no scene if any error occurs
	Deserialize(b []byte, reg *registry.TypeRegistry) (*scene.Scene, error)
}

// Options configures the serializers. Options a format does not use are
// ignored.
type Options struct {
	// Pretty indents textual output (json)
	Pretty bool
	// TypeTags writes compact registry tags instead of type names (cbor, binary)
	TypeTags bool
}

// DefaultOptions returns the options used when nil is passed to a constructor
func DefaultOptions() *Options {
	return &Options{}
}

func orDefault(opts *Options) Options {
	if opts == nil {
		return *DefaultOptions()
	}
	return *opts
}

// --------------------------------------------------------------------------
// Factory
// --------------------------------------------------------------------------

var factories = map[string]func(opts *Options) ISceneSerializer{
	"json":   NewJSONSerializer,
	"yaml":   NewYAMLSerializer,
	"cbor":   NewCBORSerializer,
	"binary": NewBinarySerializer,
}

// NewSerializer creates the serializer with the given format name
func NewSerializer(name string, opts *Options) (ISceneSerializer, error) {
	factory, ok := factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown serializer %q, must be one of %s", name, strings.Join(Names(), ", "))
	}
	return factory(opts), nil
}

// Names returns the names of all formats in ascending order
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatForPath guesses the format from a file extension
func FormatForPath(path string) (string, bool) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", false
	}
	switch strings.ToLower(path[i+1:]) {
	case "json":
		return "json", true
	case "yaml", "yml":
		return "yaml", true
	case "cbor":
		return "cbor", true
	case "bin", "scn":
		return "binary", true
	}
	return "", false
}
