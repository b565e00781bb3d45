package serializer

import (
	"bytes"
	"strconv"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/ValentinKolb/dScene/lib/serde"
	"gopkg.in/yaml.v3"
)

// NewYAMLSerializer creates a new serializer using yaml encoding
func NewYAMLSerializer(opts *Options) ISceneSerializer {
	return &yamlSerializerImpl{opts: orDefault(opts)}
}

// yamlSerializerImpl implements the ISceneSerializer interface using yaml.
// It goes through a yaml.Node tree in both directions: node trees keep key
// order and repeated keys, which plain maps would lose.
type yamlSerializerImpl struct {
	opts Options
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISceneSerializer)
// --------------------------------------------------------------------------

func (y yamlSerializerImpl) Name() string {
	return "yaml"
}

func (y yamlSerializerImpl) Serialize(s *scene.Scene, reg *registry.TypeRegistry) ([]byte, error) {
	root := &yaml.Node{}
	if err := scene.Serialize(&yamlEncoder{node: root}, s, reg); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (y yamlSerializerImpl) Deserialize(b []byte, reg *registry.TypeRegistry) (*scene.Scene, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, serde.Errorf("yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, serde.Errorf("yaml: expected a single document")
	}
	return scene.Deserialize(&yamlDecoder{node: doc.Content[0]}, reg)
}

// --------------------------------------------------------------------------
// Encoder
// --------------------------------------------------------------------------

// yamlEncoder fills exactly one node.
type yamlEncoder struct {
	node *yaml.Node
}

func (e *yamlEncoder) EncodeStruct(_ string, _ int) (serde.StructEncoder, error) {
	e.node.Kind = yaml.MappingNode
	e.node.Tag = "!!map"
	return &yamlMappingEncoder{node: e.node}, nil
}

func (e *yamlEncoder) EncodeMap(_ int) (serde.MapEncoder, error) {
	e.node.Kind = yaml.MappingNode
	e.node.Tag = "!!map"
	return &yamlMappingEncoder{node: e.node}, nil
}

func (e *yamlEncoder) EncodeString(s string) error {
	e.node.SetString(s)
	return nil
}

func (e *yamlEncoder) EncodeUint64(v uint64) error {
	e.node.Kind = yaml.ScalarNode
	e.node.Tag = "!!int"
	e.node.Value = strconv.FormatUint(v, 10)
	return nil
}

func (e *yamlEncoder) EncodeTypeKey(name string, _ uint32) error {
	e.node.SetString(name)
	return nil
}

func (e *yamlEncoder) EncodeValue(v any) error {
	return e.node.Encode(v)
}

func (e *yamlEncoder) EncodeDynamic(v any) error {
	return e.node.Encode(v)
}

// yamlMappingEncoder appends key/value node pairs to a mapping node.
type yamlMappingEncoder struct {
	node *yaml.Node
}

func (m *yamlMappingEncoder) EncodeField(name string, value serde.Serializable) error {
	return m.EncodeEntry(serde.String(name), value)
}

func (m *yamlMappingEncoder) EncodeEntry(key, value serde.Serializable) error {
	k, v := &yaml.Node{}, &yaml.Node{}
	if err := key.Serialize(&yamlEncoder{node: k}); err != nil {
		return err
	}
	if err := value.Serialize(&yamlEncoder{node: v}); err != nil {
		return err
	}
	m.node.Content = append(m.node.Content, k, v)
	return nil
}

func (m *yamlMappingEncoder) End() error {
	return nil
}

// --------------------------------------------------------------------------
// Decoder
// --------------------------------------------------------------------------

// yamlDecoder reads exactly one node.
type yamlDecoder struct {
	node *yaml.Node
}

func (d *yamlDecoder) resolved() *yaml.Node {
	n := d.node
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func (d *yamlDecoder) open(v serde.Visitor) error {
	n := d.resolved()
	switch n.Kind {
	case yaml.MappingNode:
		return v.VisitMap(&yamlMapAccess{content: n.Content})
	case yaml.SequenceNode:
		s := &yamlSeqAccess{content: n.Content}
		if err := v.VisitSeq(s); err != nil {
			return err
		}
		if s.pos < len(s.content) {
			return serde.Errorf("yaml: line %d: unexpected trailing sequence elements", n.Line)
		}
		return nil
	case yaml.ScalarNode:
		// an empty value ("resources:" with nothing after it) is an empty map
		if n.ShortTag() == "!!null" {
			return v.VisitMap(&yamlMapAccess{})
		}
	}
	return serde.Errorf("yaml: line %d: expected mapping or sequence", n.Line)
}

func (d *yamlDecoder) DecodeStruct(_ string, _ []string, v serde.Visitor) error {
	return d.open(v)
}

func (d *yamlDecoder) DecodeMap(v serde.Visitor) error {
	return d.open(v)
}

func (d *yamlDecoder) scalar() (*yaml.Node, error) {
	n := d.resolved()
	if n.Kind != yaml.ScalarNode {
		return nil, serde.Errorf("yaml: line %d: expected scalar", n.Line)
	}
	return n, nil
}

func (d *yamlDecoder) DecodeString() (string, error) {
	n, err := d.scalar()
	if err != nil {
		return "", err
	}
	return n.Value, nil
}

func (d *yamlDecoder) DecodeUint64() (uint64, error) {
	n, err := d.scalar()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(n.Value, 10, 64)
	if err != nil {
		return 0, serde.Errorf("yaml: line %d: invalid unsigned integer %q", n.Line, n.Value)
	}
	return v, nil
}

func (d *yamlDecoder) DecodeTypeKey() (serde.TypeKey, error) {
	s, err := d.DecodeString()
	if err != nil {
		return serde.TypeKey{}, err
	}
	return serde.NameKey(s), nil
}

func (d *yamlDecoder) DecodeValue(ptr any) error {
	return d.node.Decode(ptr)
}

func (d *yamlDecoder) DecodeDynamic() (any, error) {
	var v any
	if err := d.node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// yamlMapAccess walks the key/value pairs of a mapping node.
type yamlMapAccess struct {
	content []*yaml.Node
	pos     int
}

func (m *yamlMapAccess) NextKey(fn func(dec serde.Decoder) error) (bool, error) {
	if m.pos+1 >= len(m.content) {
		return false, nil
	}
	return true, fn(&yamlDecoder{node: m.content[m.pos]})
}

func (m *yamlMapAccess) NextValue(fn func(dec serde.Decoder) error) error {
	v := m.content[m.pos+1]
	m.pos += 2
	return fn(&yamlDecoder{node: v})
}

// yamlSeqAccess walks the elements of a sequence node.
type yamlSeqAccess struct {
	content []*yaml.Node
	pos     int
}

func (s *yamlSeqAccess) NextElement(fn func(dec serde.Decoder) error) (bool, error) {
	if s.pos >= len(s.content) {
		return false, nil
	}
	n := s.content[s.pos]
	s.pos++
	return true, fn(&yamlDecoder{node: n})
}
