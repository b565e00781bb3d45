package serializer

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/ValentinKolb/dScene/lib/serde"
	"github.com/stretchr/testify/require"
)

type compA struct {
	X int32 `json:"x" yaml:"x" cbor:"x"`
}

type compB struct {
	Y int32 `json:"y" yaml:"y" cbor:"y"`
}

func newTestRegistry(t *testing.T) *registry.TypeRegistry {
	t.Helper()
	reg := registry.New()
	_, err := registry.Register[compA](reg, "A")
	require.NoError(t, err)
	_, err = registry.Register[compB](reg, "B")
	require.NoError(t, err)
	return reg
}

// exampleScene holds no resources and the entities 7: {A{x:1}} and
// 3: {B{y:5}, A{x:2}}. The components of 3 are deliberately out of order.
func exampleScene(reg *registry.TypeRegistry) *scene.Scene {
	s := scene.New()
	s.AddEntity(7, reg.MustValueOf(compA{X: 1}))
	s.AddEntity(3, reg.MustValueOf(compB{Y: 5}), reg.MustValueOf(compA{X: 2}))
	return s
}

func requireCode(t *testing.T, err error, code serde.RetCode, name string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, errors.Is(err, &serde.Error{Code: code, Name: name}), "expected %s(%s), got: %v", code, name, err)
}

const exampleJSON = `{"resources":{},"entities":{"7":{"components":{"A":{"x":1}}},"3":{"components":{"A":{"x":2},"B":{"y":5}}}}}`

const exampleYAML = `resources: {}
entities:
  7:
    components:
      A:
        x: 1
  3:
    components:
      A:
        x: 2
      B:
        "y": 5
`

// --------------------------------------------------------------------------
// Golden Output
// --------------------------------------------------------------------------

func TestJSONGolden(t *testing.T) {
	reg := newTestRegistry(t)

	data, err := NewJSONSerializer(nil).Serialize(exampleScene(reg), reg)
	require.NoError(t, err)
	require.Equal(t, exampleJSON, string(data))
}

func TestJSONPretty(t *testing.T) {
	reg := newTestRegistry(t)

	data, err := NewJSONSerializer(&Options{Pretty: true}).Serialize(exampleScene(reg), reg)
	require.NoError(t, err)
	require.Contains(t, string(data), "\n  \"entities\": {")

	var compact bytes.Buffer
	require.NoError(t, json.Compact(&compact, data))
	require.Equal(t, exampleJSON, compact.String())
}

func TestYAMLGolden(t *testing.T) {
	reg := newTestRegistry(t)

	data, err := NewYAMLSerializer(nil).Serialize(exampleScene(reg), reg)
	require.NoError(t, err)
	require.Equal(t, exampleYAML, string(data))
}

func TestGoldenDecode(t *testing.T) {
	reg := newTestRegistry(t)
	want := exampleScene(reg)

	for name, tc := range map[string]struct {
		s    ISceneSerializer
		data string
	}{
		"JSON": {NewJSONSerializer(nil), exampleJSON},
		"YAML": {NewYAMLSerializer(nil), exampleYAML},
		// hand written yaml rarely quotes the key
		"YAMLBareKey": {NewYAMLSerializer(nil), strings.Replace(exampleYAML, `"y"`, "y", 1)},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := tc.s.Deserialize([]byte(tc.data), reg)
			require.NoError(t, err)
			require.True(t, scene.Equal(want, got))
			require.Equal(t, scene.EntityKey(7), got.Entities[0].Key)
			require.Equal(t, scene.EntityKey(3), got.Entities[1].Key)
		})
	}
}

// --------------------------------------------------------------------------
// Structural Errors (json, yaml)
// --------------------------------------------------------------------------

func TestJSONStructure(t *testing.T) {
	reg := newTestRegistry(t)
	s := NewJSONSerializer(nil)

	testCases := []struct {
		name  string
		input string
		code  serde.RetCode
		field string
	}{
		{"MissingEntities", `{"resources":{}}`, serde.RetCMissingField, scene.SceneEntities},
		{"MissingResources", `{"entities":{}}`, serde.RetCMissingField, scene.SceneResources},
		{"DuplicateResources", `{"resources":{},"resources":{},"entities":{}}`, serde.RetCDuplicateField, scene.SceneResources},
		{"DuplicateEntities", `{"entities":{},"resources":{},"entities":{}}`, serde.RetCDuplicateField, scene.SceneEntities},
		{"UnknownSceneField", `{"resources":{},"entities":{},"extra":1}`, serde.RetCUnknownField, "extra"},
		{"MissingComponents", `{"resources":{},"entities":{"1":{}}}`, serde.RetCMissingField, scene.EntityFieldComponents},
		{"DuplicateComponents", `{"resources":{},"entities":{"1":{"components":{},"components":{}}}}`, serde.RetCDuplicateField, scene.EntityFieldComponents},
		{"UnknownEntityField", `{"resources":{},"entities":{"1":{"parts":{}}}}`, serde.RetCUnknownField, "parts"},
		{"PositionalMissing", `[{}]`, serde.RetCMissingField, scene.SceneEntities},
		{"PositionalEntityMissing", `[{},{"1":[]}]`, serde.RetCMissingField, scene.EntityFieldComponents},
		{"UnknownType", `{"resources":{"C":{}},"entities":{}}`, serde.RetCUnknownType, "C"},
		{"DuplicateType", `{"resources":{},"entities":{"3":{"components":{"A":{"x":2},"A":{"x":3}}}}}`, serde.RetCDuplicateType, "A"},
		{"SequentialDuplicateType", `{"resources":[{"A":{"x":2}},{"A":{"x":3}}],"entities":{}}`, serde.RetCDuplicateType, "A"},
		{"ValueDecode", `{"resources":{},"entities":{"1":{"components":{"A":{"x":"one"}}}}}`, serde.RetCValueDecode, "A"},
		{"EntityKey", `{"resources":{},"entities":{"seven":{"components":{}}}}`, serde.RetCInvalidInput, ""},
		{"EntitiesSequence", `{"resources":{},"entities":[]}`, serde.RetCInvalidInput, ""},
		{"SequentialTwoEntries", `{"resources":[{"A":{"x":2},"B":{"y":5}}],"entities":{}}`, serde.RetCInvalidInput, ""},
		{"SequentialEmptyEntry", `{"resources":[{}],"entities":{}}`, serde.RetCInvalidInput, ""},
		{"PositionalTrailing", `[{},{},{}]`, serde.RetCInvalidInput, ""},
		{"TrailingData", `{"resources":{},"entities":{}} {}`, serde.RetCInvalidInput, ""},
		{"NotAnObject", `"scene"`, serde.RetCInvalidInput, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Deserialize([]byte(tc.input), reg)
			require.Nil(t, got)
			requireCode(t, err, tc.code, tc.field)
		})
	}
}

func TestJSONAlternativeForms(t *testing.T) {
	reg := newTestRegistry(t)
	s := NewJSONSerializer(nil)
	want := exampleScene(reg)

	testCases := map[string]string{
		"FieldOrder":           `{"entities":{"7":{"components":{"A":{"x":1}}},"3":{"components":{"B":{"y":5},"A":{"x":2}}}},"resources":{}}`,
		"PositionalScene":      `[{},{"7":{"components":{"A":{"x":1}}},"3":{"components":{"A":{"x":2},"B":{"y":5}}}}]`,
		"PositionalEntity":     `{"resources":{},"entities":{"7":[{"A":{"x":1}}],"3":[{"A":{"x":2},"B":{"y":5}}]}}`,
		"SequentialComponents": `{"resources":[],"entities":{"7":{"components":[{"A":{"x":1}}]},"3":{"components":[{"B":{"y":5}},{"A":{"x":2}}]}}}`,
		"Comments":             "// level 1\n{\"resources\":{},\"entities\":{\"7\":{\"components\":{\"A\":{\"x\":1}}},/* root */\"3\":{\"components\":{\"A\":{\"x\":2},\"B\":{\"y\":5},},},},}",
		"IntegerEntityKeys":    "{\"resources\":{},\"entities\":{\"7\":{\"components\":{\"A\":{\"x\":1}}},\n\"3\":{\"components\":{\"A\":{\"x\":2},\"B\":{\"y\":5}}}}}\n",
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := s.Deserialize([]byte(input), reg)
			require.NoError(t, err)
			require.True(t, scene.Equal(want, got), "got %+v", got)
		})
	}
}

func TestYAMLStructure(t *testing.T) {
	reg := newTestRegistry(t)
	s := NewYAMLSerializer(nil)

	testCases := []struct {
		name  string
		input string
		code  serde.RetCode
		field string
	}{
		{"MissingEntities", "resources: {}\n", serde.RetCMissingField, scene.SceneEntities},
		{"DuplicateResources", "resources: {}\nresources: {}\nentities: {}\n", serde.RetCDuplicateField, scene.SceneResources},
		{"UnknownSceneField", "resources: {}\nentities: {}\nversion: 2\n", serde.RetCUnknownField, "version"},
		{"DuplicateComponents", "resources: {}\nentities:\n  1:\n    components: {}\n    components: {}\n", serde.RetCDuplicateField, scene.EntityFieldComponents},
		{"DuplicateType", "resources: {}\nentities:\n  3:\n    components:\n      A: {x: 2}\n      A: {x: 3}\n", serde.RetCDuplicateType, "A"},
		{"UnknownType", "resources:\n  C: {}\nentities: {}\n", serde.RetCUnknownType, "C"},
		{"ValueDecode", "resources: {}\nentities:\n  1:\n    components:\n      A: {x: [1, 2]}\n", serde.RetCValueDecode, "A"},
		{"Empty", "", serde.RetCInvalidInput, ""},
		{"Scalar", "scene\n", serde.RetCInvalidInput, ""},
		{"PositionalTrailing", "- {}\n- {}\n- {}\n", serde.RetCInvalidInput, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Deserialize([]byte(tc.input), reg)
			require.Nil(t, got)
			requireCode(t, err, tc.code, tc.field)
		})
	}
}

func TestYAMLAlternativeForms(t *testing.T) {
	reg := newTestRegistry(t)
	s := NewYAMLSerializer(nil)
	want := exampleScene(reg)

	testCases := map[string]string{
		"PositionalScene":      "- {}\n- {7: {components: {A: {x: 1}}}, 3: {components: {A: {x: 2}, B: {y: 5}}}}\n",
		"SequentialComponents": "resources: []\nentities:\n  7:\n    components:\n      - A: {x: 1}\n  3:\n    components:\n      - B: {y: 5}\n      - A: {x: 2}\n",
		"PositionalEntity":     "resources: {}\nentities:\n  7: [{A: {x: 1}}]\n  3: [{A: {x: 2}, B: {y: 5}}]\n",
		"Aliases":              "resources: &empty {}\nentities:\n  7: {components: {A: {x: 1}}}\n  3: {components: {A: {x: 2}, B: {y: 5}}}\n",
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := s.Deserialize([]byte(input), reg)
			require.NoError(t, err)
			require.True(t, scene.Equal(want, got), "got %+v", got)
		})
	}

	t.Run("NullResources", func(t *testing.T) {
		got, err := s.Deserialize([]byte("resources:\nentities: {}\n"), reg)
		require.NoError(t, err)
		require.Empty(t, got.Resources)
	})
}

// --------------------------------------------------------------------------
// CBOR
// --------------------------------------------------------------------------

// emptyMap writes a map without entries
var emptyMap = serde.SerializeFunc(func(enc serde.Encoder) error {
	m, err := enc.EncodeMap(0)
	if err != nil {
		return err
	}
	return m.End()
})

// craftCBOR runs build against a raw cbor encoder
func craftCBOR(t *testing.T, build func(enc serde.Encoder) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, build(&cborEncoder{buf: &buf}))
	return buf.Bytes()
}

// namedScene writes a scene as a map of field name to value
func namedScene(fields ...string) func(enc serde.Encoder) error {
	return func(enc serde.Encoder) error {
		m, err := enc.EncodeMap(len(fields))
		if err != nil {
			return err
		}
		for _, f := range fields {
			if err := m.EncodeEntry(serde.String(f), emptyMap); err != nil {
				return err
			}
		}
		return m.End()
	}
}

func TestCBORStructure(t *testing.T) {
	reg := newTestRegistry(t)
	s := NewCBORSerializer(nil)

	t.Run("NamedFields", func(t *testing.T) {
		got, err := s.Deserialize(craftCBOR(t, namedScene(scene.SceneEntities, scene.SceneResources)), reg)
		require.NoError(t, err)
		require.Empty(t, got.Entities)
	})

	t.Run("MissingField", func(t *testing.T) {
		_, err := s.Deserialize(craftCBOR(t, namedScene(scene.SceneResources)), reg)
		requireCode(t, err, serde.RetCMissingField, scene.SceneEntities)
	})

	t.Run("DuplicateField", func(t *testing.T) {
		_, err := s.Deserialize(craftCBOR(t, namedScene(scene.SceneResources, scene.SceneResources, scene.SceneEntities)), reg)
		requireCode(t, err, serde.RetCDuplicateField, scene.SceneResources)
	})

	t.Run("PositionalMissing", func(t *testing.T) {
		data := craftCBOR(t, func(enc serde.Encoder) error {
			st, err := enc.EncodeStruct(scene.SceneStruct, 1)
			if err != nil {
				return err
			}
			if err := st.EncodeField(scene.SceneResources, emptyMap); err != nil {
				return err
			}
			return st.End()
		})
		_, err := s.Deserialize(data, reg)
		requireCode(t, err, serde.RetCMissingField, scene.SceneEntities)
	})

	t.Run("SequentialResources", func(t *testing.T) {
		data := craftCBOR(t, func(enc serde.Encoder) error {
			st, err := enc.EncodeStruct(scene.SceneStruct, 2)
			if err != nil {
				return err
			}
			// resources as an array of single entry maps
			resources := serde.SerializeFunc(func(enc serde.Encoder) error {
				arr, err := enc.EncodeStruct("", 2)
				if err != nil {
					return err
				}
				for _, e := range []struct {
					name  string
					value any
				}{{"B", compB{Y: 5}}, {"A", compA{X: 2}}} {
					e := e
					entry := serde.SerializeFunc(func(enc serde.Encoder) error {
						m, err := enc.EncodeMap(1)
						if err != nil {
							return err
						}
						value := serde.SerializeFunc(func(enc serde.Encoder) error {
							return enc.EncodeValue(e.value)
						})
						if err := m.EncodeEntry(serde.TypeKeyOf(e.name, 0), value); err != nil {
							return err
						}
						return m.End()
					})
					if err := arr.EncodeField("", entry); err != nil {
						return err
					}
				}
				return arr.End()
			})
			if err := st.EncodeField(scene.SceneResources, resources); err != nil {
				return err
			}
			if err := st.EncodeField(scene.SceneEntities, emptyMap); err != nil {
				return err
			}
			return st.End()
		})

		got, err := s.Deserialize(data, reg)
		require.NoError(t, err)
		require.Len(t, got.Resources, 2)
		require.Equal(t, "B", got.Resources[0].TypeName())
		require.Equal(t, compA{X: 2}, got.Resources[1].Interface())
	})

	t.Run("IndefiniteLengthMap", func(t *testing.T) {
		data := craftCBOR(t, func(enc serde.Encoder) error {
			st, err := enc.EncodeStruct(scene.SceneStruct, 2)
			if err != nil {
				return err
			}
			if err := st.EncodeField(scene.SceneResources, emptyMap); err != nil {
				return err
			}
			entities := serde.SerializeFunc(func(enc serde.Encoder) error {
				m, err := enc.EncodeMap(-1)
				if err != nil {
					return err
				}
				entity := scene.EntitySerializer{Entity: &scene.Entity{Key: 4}, Registry: reg}
				if err := m.EncodeEntry(serde.Uint64(4), entity); err != nil {
					return err
				}
				return m.End()
			})
			if err := st.EncodeField(scene.SceneEntities, entities); err != nil {
				return err
			}
			return st.End()
		})

		got, err := s.Deserialize(data, reg)
		require.NoError(t, err)
		require.Len(t, got.Entities, 1)
		require.Equal(t, scene.EntityKey(4), got.Entities[0].Key)
	})

	t.Run("TrailingBytes", func(t *testing.T) {
		data, err := s.Serialize(scene.New(), reg)
		require.NoError(t, err)
		_, err = s.Deserialize(append(data, 0x00), reg)
		requireCode(t, err, serde.RetCInvalidInput, "")
	})
}

// --------------------------------------------------------------------------
// Type Tags
// --------------------------------------------------------------------------

func TestTypeTags(t *testing.T) {
	reg := newTestRegistry(t)
	sc := exampleScene(reg)

	for name, pair := range map[string][2]ISceneSerializer{
		"CBOR":   {NewCBORSerializer(&Options{TypeTags: true}), NewCBORSerializer(nil)},
		"Binary": {NewBinarySerializer(&Options{TypeTags: true}), NewBinarySerializer(nil)},
	} {
		t.Run(name, func(t *testing.T) {
			tagged, plain := pair[0], pair[1]

			withTags, err := tagged.Serialize(sc, reg)
			require.NoError(t, err)
			withNames, err := plain.Serialize(sc, reg)
			require.NoError(t, err)
			require.NotEqual(t, withTags, withNames)

			// decoders accept both kinds of type keys
			got, err := plain.Deserialize(withTags, reg)
			require.NoError(t, err)
			require.True(t, scene.Equal(sc, got))

			// a registry without the tag fails with the tag in the error
			other := registry.New()
			_, err = registry.Register[compA](other, "A")
			require.NoError(t, err)
			_, err = registry.Register[compB](other, "B", registry.WithTag(1))
			require.NoError(t, err)

			_, err = tagged.Deserialize(withTags, other)
			requireCode(t, err, serde.RetCUnknownType, serde.TagKey(registry.TagOf("B")).String())

			// names still resolve
			got, err = plain.Deserialize(withNames, other)
			require.NoError(t, err)
			require.True(t, scene.Equal(sc, got))
		})
	}
}

// --------------------------------------------------------------------------
// Truncation
// --------------------------------------------------------------------------

func TestTruncatedInput(t *testing.T) {
	reg := newTestRegistry(t)
	sc := exampleScene(reg)

	for name, s := range map[string]ISceneSerializer{
		"JSON":   NewJSONSerializer(nil),
		"CBOR":   NewCBORSerializer(nil),
		"Binary": NewBinarySerializer(nil),
	} {
		t.Run(name, func(t *testing.T) {
			data, err := s.Serialize(sc, reg)
			require.NoError(t, err)

			for n := 0; n < len(data); n++ {
				got, err := s.Deserialize(data[:n], reg)
				require.Errorf(t, err, "prefix of %d bytes decoded", n)
				require.Nil(t, got)
			}

			_, err = s.Deserialize(append(append([]byte{}, data...), data...), reg)
			require.Error(t, err)
		})
	}
}

// --------------------------------------------------------------------------
// Factory, Metrics, Fingerprint
// --------------------------------------------------------------------------

func TestNewSerializer(t *testing.T) {
	for _, name := range []string{"json", "YAML", "cbor", "Binary"} {
		s, err := NewSerializer(name, nil)
		require.NoError(t, err)
		require.Equal(t, strings.ToLower(name), s.Name())
	}

	_, err := NewSerializer("ron", nil)
	require.ErrorContains(t, err, "binary, cbor, json, yaml")

	for path, want := range map[string]string{
		"level.json":     "json",
		"level.YML":      "yaml",
		"a/b/level.cbor": "cbor",
		"level.scn":      "binary",
	} {
		got, ok := FormatForPath(path)
		require.True(t, ok, path)
		require.Equal(t, want, got)
	}
	_, ok := FormatForPath("level")
	require.False(t, ok)
}

func TestWithMetrics(t *testing.T) {
	reg := newTestRegistry(t)
	s := WithMetrics(NewYAMLSerializer(nil))
	require.Same(t, s, WithMetrics(s))
	require.Equal(t, "yaml", s.Name())

	data, err := s.Serialize(exampleScene(reg), reg)
	require.NoError(t, err)
	_, err = s.Deserialize(data, reg)
	require.NoError(t, err)
	_, err = s.Deserialize([]byte("- 1\n"), reg)
	require.Error(t, err)

	var out bytes.Buffer
	WriteMetrics(&out)
	require.Contains(t, out.String(), `dscene_serialize_total{format="yaml"}`)
	require.Contains(t, out.String(), `dscene_deserialize_errors_total{format="yaml"}`)
	require.Contains(t, out.String(), `dscene_serialize_bytes_total{format="yaml"}`)
}

func TestFingerprint(t *testing.T) {
	reg := newTestRegistry(t)
	s := NewCBORSerializer(nil)

	first, err := s.Serialize(exampleScene(reg), reg)
	require.NoError(t, err)
	second, err := s.Serialize(exampleScene(reg), reg)
	require.NoError(t, err)

	require.Equal(t, Fingerprint(first), Fingerprint(second))
	require.Len(t, FingerprintString(first), 16)
	require.NotEqual(t, Fingerprint(first), Fingerprint(first[1:]))
}

func TestCompression(t *testing.T) {
	reg := newTestRegistry(t)
	sc := exampleScene(reg)

	plain, err := NewJSONSerializer(nil).Serialize(sc, reg)
	require.NoError(t, err)

	for _, c := range []Compression{CompressionZstd, CompressionLZ4} {
		s := WithCompression(NewJSONSerializer(nil), c)
		require.Equal(t, "json+"+string(c), s.Name())

		data, err := s.Serialize(sc, reg)
		require.NoError(t, err)
		require.NotEqual(t, plain, data)

		got, err := s.Deserialize(data, reg)
		require.NoError(t, err)
		require.True(t, scene.Equal(sc, got))

		_, err = s.Deserialize(plain, reg)
		require.Error(t, err, c)
	}

	base := NewJSONSerializer(nil)
	require.Same(t, base, WithCompression(base, CompressionNone))
}

func TestCompressionForPath(t *testing.T) {
	c, rest := CompressionForPath("maps/level.cbor.ZST")
	require.Equal(t, CompressionZstd, c)
	require.Equal(t, "maps/level.cbor", rest)

	c, rest = CompressionForPath("level.bin.lz4")
	require.Equal(t, CompressionLZ4, c)
	require.Equal(t, "level.bin", rest)

	c, rest = CompressionForPath("level.json")
	require.Equal(t, CompressionNone, c)
	require.Equal(t, "level.json", rest)

	for input, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "ZSTD": CompressionZstd, "lz4": CompressionLZ4} {
		got, err := ParseCompression(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseCompression("gzip")
	require.Error(t, err)
}
