package serializer

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/ValentinKolb/dScene/lib/serde"
)

func init() {
	// concrete types behind dynamic values decoded by the other formats
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// NewBinarySerializer creates a new serializer using a custom length-prefixed
// binary format. It is the most compact format but not self-describing:
// structs are positional and the decoder must use the same layout.
func NewBinarySerializer(opts *Options) ISceneSerializer {
	return &binarySerializerImpl{opts: orDefault(opts)}
}

// binarySerializerImpl implements ISceneSerializer using a custom binary format.
//
// Layout (all integers big endian):
//
//	struct:   fields in declaration order, no header
//	map:      u32 entry count, then key and value of each entry
//	string:   u32 length, bytes
//	uint64:   8 bytes
//	type key: marker byte (keyByName or keyByTag), then a string or a u32 tag
//	value:    u32 length, gob payload
type binarySerializerImpl struct {
	opts Options
}

// Markers in front of a type key
const (
	keyByName byte = 0
	keyByTag  byte = 1
)

// gobDynamic boxes dynamic values so gob transmits their concrete type.
type gobDynamic struct {
	V any
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISceneSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Name() string {
	return "binary"
}

func (b binarySerializerImpl) Serialize(s *scene.Scene, reg *registry.TypeRegistry) ([]byte, error) {
	var buf bytes.Buffer
	if err := scene.Serialize(&binaryEncoder{buf: &buf, tags: b.opts.TypeTags}, s, reg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b binarySerializerImpl) Deserialize(data []byte, reg *registry.TypeRegistry) (*scene.Scene, error) {
	d := &binaryDecoder{data: data}
	s, err := scene.Deserialize(d, reg)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, serde.Errorf("binary: %d trailing bytes after scene", len(d.data)-d.pos)
	}
	return s, nil
}

// --------------------------------------------------------------------------
// Encoder
// --------------------------------------------------------------------------

type binaryEncoder struct {
	buf  *bytes.Buffer
	tags bool
}

func (e *binaryEncoder) putUint32(v uint32) {
	var scratch [4]byte
	binary.BigEndian.PutUint32(scratch[:], v)
	e.buf.Write(scratch[:])
}

func (e *binaryEncoder) putBytes(b []byte) {
	e.putUint32(uint32(len(b)))
	e.buf.Write(b)
}

func (e *binaryEncoder) EncodeStruct(_ string, _ int) (serde.StructEncoder, error) {
	return &binaryContainerEncoder{enc: e}, nil
}

func (e *binaryEncoder) EncodeMap(length int) (serde.MapEncoder, error) {
	if length < 0 {
		return nil, fmt.Errorf("binary: maps need a known length")
	}
	e.putUint32(uint32(length))
	return &binaryContainerEncoder{enc: e}, nil
}

func (e *binaryEncoder) EncodeString(s string) error {
	e.putBytes([]byte(s))
	return nil
}

func (e *binaryEncoder) EncodeUint64(v uint64) error {
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], v)
	e.buf.Write(scratch[:])
	return nil
}

func (e *binaryEncoder) EncodeTypeKey(name string, tag uint32) error {
	if e.tags {
		e.buf.WriteByte(keyByTag)
		e.putUint32(tag)
		return nil
	}
	e.buf.WriteByte(keyByName)
	return e.EncodeString(name)
}

func (e *binaryEncoder) EncodeValue(v any) error {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(v); err != nil {
		return err
	}
	e.putBytes(payload.Bytes())
	return nil
}

func (e *binaryEncoder) EncodeDynamic(v any) error {
	return e.EncodeValue(gobDynamic{V: v})
}

// binaryContainerEncoder writes struct fields and map entries back to back.
type binaryContainerEncoder struct {
	enc *binaryEncoder
}

func (c *binaryContainerEncoder) EncodeField(_ string, value serde.Serializable) error {
	return value.Serialize(c.enc)
}

func (c *binaryContainerEncoder) EncodeEntry(key, value serde.Serializable) error {
	if err := key.Serialize(c.enc); err != nil {
		return err
	}
	return value.Serialize(c.enc)
}

func (c *binaryContainerEncoder) End() error {
	return nil
}

// --------------------------------------------------------------------------
// Decoder
// --------------------------------------------------------------------------

type binaryDecoder struct {
	data []byte
	pos  int
}

func (d *binaryDecoder) need(n int, what string) error {
	if n < 0 || d.pos+n > len(d.data) {
		return serde.Errorf("binary: data too short for %s", what)
	}
	return nil
}

func (d *binaryDecoder) readUint32(what string) (uint32, error) {
	if err := d.need(4, what); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(d.data[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

func (d *binaryDecoder) readBytes(what string) ([]byte, error) {
	n, err := d.readUint32(what + " length")
	if err != nil {
		return nil, err
	}
	if err := d.need(int(n), what); err != nil {
		return nil, err
	}
	b := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}

func (d *binaryDecoder) DecodeStruct(name string, fields []string, v serde.Visitor) error {
	s := &binarySeqAccess{d: d, remaining: len(fields)}
	if err := v.VisitSeq(s); err != nil {
		return err
	}
	if s.remaining != 0 {
		return serde.Errorf("binary: %d fields of %s not read", s.remaining, name)
	}
	return nil
}

func (d *binaryDecoder) DecodeMap(v serde.Visitor) error {
	n, err := d.readUint32("map length")
	if err != nil {
		return err
	}
	// every entry takes at least one byte
	if int(n) > len(d.data)-d.pos {
		return serde.Errorf("binary: map length %d exceeds input", n)
	}
	return v.VisitMap(&binaryMapAccess{d: d, remaining: int(n)})
}

func (d *binaryDecoder) DecodeString() (string, error) {
	b, err := d.readBytes("string")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *binaryDecoder) DecodeUint64() (uint64, error) {
	if err := d.need(8, "uint64"); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(d.data[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}

func (d *binaryDecoder) DecodeTypeKey() (serde.TypeKey, error) {
	if err := d.need(1, "type key"); err != nil {
		return serde.TypeKey{}, err
	}
	marker := d.data[d.pos]
	d.pos++

	switch marker {
	case keyByName:
		name, err := d.DecodeString()
		if err != nil {
			return serde.TypeKey{}, err
		}
		return serde.NameKey(name), nil
	case keyByTag:
		tag, err := d.readUint32("type tag")
		if err != nil {
			return serde.TypeKey{}, err
		}
		return serde.TagKey(tag), nil
	}
	return serde.TypeKey{}, serde.Errorf("binary: invalid type key marker %d", marker)
}

func (d *binaryDecoder) DecodeValue(ptr any) error {
	payload, err := d.readBytes("value")
	if err != nil {
		return err
	}
	return gob.NewDecoder(bytes.NewReader(payload)).Decode(ptr)
}

func (d *binaryDecoder) DecodeDynamic() (any, error) {
	var box gobDynamic
	if err := d.DecodeValue(&box); err != nil {
		return nil, err
	}
	return box.V, nil
}

// binarySeqAccess hands out a fixed number of positional fields.
type binarySeqAccess struct {
	d         *binaryDecoder
	remaining int
}

func (s *binarySeqAccess) NextElement(fn func(dec serde.Decoder) error) (bool, error) {
	if s.remaining == 0 {
		return false, nil
	}
	s.remaining--
	return true, fn(s.d)
}

// binaryMapAccess hands out a counted number of entries.
type binaryMapAccess struct {
	d         *binaryDecoder
	remaining int
}

func (m *binaryMapAccess) NextKey(fn func(dec serde.Decoder) error) (bool, error) {
	if m.remaining == 0 {
		return false, nil
	}
	m.remaining--
	return true, fn(m.d)
}

func (m *binaryMapAccess) NextValue(fn func(dec serde.Decoder) error) error {
	return fn(m.d)
}
