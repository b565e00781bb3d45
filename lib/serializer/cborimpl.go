package serializer

import (
	"bytes"
	"encoding/binary"
	"math"
	"reflect"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/ValentinKolb/dScene/lib/serde"
	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

var cborDecMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Types implementing encoding.TextMarshaler travel as text strings.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	cborEncMode, err = encOptions.EncMode()
	if err != nil {
		panic("serializer: CBOR encoder initialization failed: " + err.Error())
	}

	cborDecMode, err = cbor.DecOptions{
		// dynamic values decode into map[string]any like the json and yaml formats
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("serializer: CBOR decoder initialization failed: " + err.Error())
	}
}

// NewCBORSerializer creates a new serializer using CBOR (RFC 8949) with
// Core Deterministic Encoding for all values
func NewCBORSerializer(opts *Options) ISceneSerializer {
	return &cborSerializerImpl{opts: orDefault(opts)}
}

// cborSerializerImpl implements the ISceneSerializer interface using CBOR.
// Structs are written as positional arrays, collections as CBOR maps. With
// Options.TypeTags type keys are unsigned integers instead of text strings.
// The decoder accepts both forms, and named struct fields as maps.
type cborSerializerImpl struct {
	opts Options
}

// CBOR major types used by the structural layer
const (
	cborMajorUint  byte = 0
	cborMajorText  byte = 3
	cborMajorArray byte = 4
	cborMajorMap   byte = 5

	cborIndefinite byte = 31
	cborBreak      byte = 0xff
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISceneSerializer)
// --------------------------------------------------------------------------

func (c cborSerializerImpl) Name() string {
	return "cbor"
}

func (c cborSerializerImpl) Serialize(s *scene.Scene, reg *registry.TypeRegistry) ([]byte, error) {
	var buf bytes.Buffer
	if err := scene.Serialize(&cborEncoder{buf: &buf, tags: c.opts.TypeTags}, s, reg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c cborSerializerImpl) Deserialize(b []byte, reg *registry.TypeRegistry) (*scene.Scene, error) {
	r := &cborReader{data: b}
	s, err := scene.Deserialize(&cborDecoder{r: r}, reg)
	if err != nil {
		return nil, err
	}
	if len(r.data) != 0 {
		return nil, serde.Errorf("cbor: %d trailing bytes after scene", len(r.data))
	}
	return s, nil
}

// --------------------------------------------------------------------------
// Encoder
// --------------------------------------------------------------------------

// writeCBORHead writes the initial byte and argument of a data item.
func writeCBORHead(buf *bytes.Buffer, major byte, n uint64) {
	var scratch [9]byte
	switch {
	case n < 24:
		buf.WriteByte(major<<5 | byte(n))
		return
	case n <= math.MaxUint8:
		scratch[0] = major<<5 | 24
		scratch[1] = byte(n)
		buf.Write(scratch[:2])
	case n <= math.MaxUint16:
		scratch[0] = major<<5 | 25
		binary.BigEndian.PutUint16(scratch[1:], uint16(n))
		buf.Write(scratch[:3])
	case n <= math.MaxUint32:
		scratch[0] = major<<5 | 26
		binary.BigEndian.PutUint32(scratch[1:], uint32(n))
		buf.Write(scratch[:5])
	default:
		scratch[0] = major<<5 | 27
		binary.BigEndian.PutUint64(scratch[1:], n)
		buf.Write(scratch[:9])
	}
}

type cborEncoder struct {
	buf  *bytes.Buffer
	tags bool
}

func (e *cborEncoder) EncodeStruct(_ string, fields int) (serde.StructEncoder, error) {
	writeCBORHead(e.buf, cborMajorArray, uint64(fields))
	return &cborContainerEncoder{enc: e}, nil
}

func (e *cborEncoder) EncodeMap(length int) (serde.MapEncoder, error) {
	if length < 0 {
		e.buf.WriteByte(cborMajorMap<<5 | cborIndefinite)
		return &cborContainerEncoder{enc: e, indefinite: true}, nil
	}
	writeCBORHead(e.buf, cborMajorMap, uint64(length))
	return &cborContainerEncoder{enc: e}, nil
}

func (e *cborEncoder) EncodeString(s string) error {
	return e.write(s)
}

func (e *cborEncoder) EncodeUint64(v uint64) error {
	writeCBORHead(e.buf, cborMajorUint, v)
	return nil
}

func (e *cborEncoder) EncodeTypeKey(name string, tag uint32) error {
	if e.tags {
		writeCBORHead(e.buf, cborMajorUint, uint64(tag))
		return nil
	}
	return e.write(name)
}

func (e *cborEncoder) EncodeValue(v any) error {
	return e.write(v)
}

func (e *cborEncoder) EncodeDynamic(v any) error {
	return e.write(v)
}

func (e *cborEncoder) write(v any) error {
	b, err := cborEncMode.Marshal(v)
	if err != nil {
		return err
	}
	e.buf.Write(b)
	return nil
}

// cborContainerEncoder writes the items of an array or map. Struct fields
// are positional, so their names are not written.
type cborContainerEncoder struct {
	enc        *cborEncoder
	indefinite bool
}

func (c *cborContainerEncoder) EncodeField(_ string, value serde.Serializable) error {
	return value.Serialize(c.enc)
}

func (c *cborContainerEncoder) EncodeEntry(key, value serde.Serializable) error {
	if err := key.Serialize(c.enc); err != nil {
		return err
	}
	return value.Serialize(c.enc)
}

func (c *cborContainerEncoder) End() error {
	if c.indefinite {
		c.enc.buf.WriteByte(cborBreak)
	}
	return nil
}

// --------------------------------------------------------------------------
// Decoder
// --------------------------------------------------------------------------

// cborReader holds the bytes not consumed yet.
type cborReader struct {
	data []byte
}

// head parses the initial byte and argument of the next data item without
// consuming it. n is the size of the head in bytes.
func (r *cborReader) head() (major byte, arg uint64, indefinite bool, n int, err error) {
	if len(r.data) == 0 {
		return 0, 0, false, 0, serde.Errorf("cbor: unexpected end of input")
	}
	major = r.data[0] >> 5
	info := r.data[0] & 0x1f

	switch {
	case info < 24:
		return major, uint64(info), false, 1, nil
	case info == 24:
		n = 2
	case info == 25:
		n = 3
	case info == 26:
		n = 5
	case info == 27:
		n = 9
	case info == cborIndefinite && (major == cborMajorArray || major == cborMajorMap):
		return major, 0, true, 1, nil
	default:
		return 0, 0, false, 0, serde.Errorf("cbor: malformed head 0x%02x", r.data[0])
	}
	if len(r.data) < n {
		return 0, 0, false, 0, serde.Errorf("cbor: unexpected end of input")
	}
	switch n {
	case 2:
		arg = uint64(r.data[1])
	case 3:
		arg = uint64(binary.BigEndian.Uint16(r.data[1:3]))
	case 5:
		arg = uint64(binary.BigEndian.Uint32(r.data[1:5]))
	case 9:
		arg = binary.BigEndian.Uint64(r.data[1:9])
	}
	return major, arg, false, n, nil
}

// atBreak consumes a break marker if it is next.
func (r *cborReader) atBreak() bool {
	if len(r.data) > 0 && r.data[0] == cborBreak {
		r.data = r.data[1:]
		return true
	}
	return false
}

type cborDecoder struct {
	r *cborReader
}

func (d *cborDecoder) open(v serde.Visitor) error {
	major, arg, indefinite, n, err := d.r.head()
	if err != nil {
		return err
	}
	if major != cborMajorArray && major != cborMajorMap {
		return serde.Errorf("cbor: expected array or map, found major type %d", major)
	}
	// every item takes at least one byte
	if !indefinite && arg > uint64(len(d.r.data)) {
		return serde.Errorf("cbor: container length %d exceeds input", arg)
	}
	d.r.data = d.r.data[n:]

	c := &cborContainerAccess{d: d, remaining: int(arg), indefinite: indefinite}
	if major == cborMajorArray {
		err = v.VisitSeq(c)
	} else {
		err = v.VisitMap(c)
	}
	if err != nil {
		return err
	}
	return c.finish()
}

func (d *cborDecoder) DecodeStruct(_ string, _ []string, v serde.Visitor) error {
	return d.open(v)
}

func (d *cborDecoder) DecodeMap(v serde.Visitor) error {
	return d.open(v)
}

func (d *cborDecoder) unmarshal(v any) error {
	rest, err := cborDecMode.UnmarshalFirst(d.r.data, v)
	if err != nil {
		return err
	}
	d.r.data = rest
	return nil
}

func (d *cborDecoder) DecodeString() (string, error) {
	var s string
	if err := d.unmarshal(&s); err != nil {
		return "", serde.Errorf("cbor: %w", err)
	}
	return s, nil
}

func (d *cborDecoder) DecodeUint64() (uint64, error) {
	major, arg, _, n, err := d.r.head()
	if err != nil {
		return 0, err
	}
	if major != cborMajorUint {
		return 0, serde.Errorf("cbor: expected unsigned integer, found major type %d", major)
	}
	d.r.data = d.r.data[n:]
	return arg, nil
}

func (d *cborDecoder) DecodeTypeKey() (serde.TypeKey, error) {
	major, _, _, _, err := d.r.head()
	if err != nil {
		return serde.TypeKey{}, err
	}
	switch major {
	case cborMajorUint:
		tag, err := d.DecodeUint64()
		if err != nil {
			return serde.TypeKey{}, err
		}
		if tag > math.MaxUint32 {
			return serde.TypeKey{}, serde.Errorf("cbor: type tag %d out of range", tag)
		}
		return serde.TagKey(uint32(tag)), nil
	case cborMajorText:
		name, err := d.DecodeString()
		if err != nil {
			return serde.TypeKey{}, err
		}
		return serde.NameKey(name), nil
	}
	return serde.TypeKey{}, serde.Errorf("cbor: expected type name or tag, found major type %d", major)
}

func (d *cborDecoder) DecodeValue(ptr any) error {
	return d.unmarshal(ptr)
}

func (d *cborDecoder) DecodeDynamic() (any, error) {
	var v any
	if err := d.unmarshal(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// cborContainerAccess walks an array (as SeqAccess) or a map (as MapAccess)
// whose head was consumed.
type cborContainerAccess struct {
	d          *cborDecoder
	remaining  int
	indefinite bool
	done       bool
}

func (c *cborContainerAccess) more() bool {
	if c.done {
		return false
	}
	if c.indefinite {
		if c.d.r.atBreak() {
			c.done = true
			return false
		}
		return true
	}
	if c.remaining == 0 {
		c.done = true
		return false
	}
	c.remaining--
	return true
}

func (c *cborContainerAccess) NextElement(fn func(dec serde.Decoder) error) (bool, error) {
	if !c.more() {
		return false, nil
	}
	return true, fn(c.d)
}

func (c *cborContainerAccess) NextKey(fn func(dec serde.Decoder) error) (bool, error) {
	if !c.more() {
		return false, nil
	}
	return true, fn(c.d)
}

func (c *cborContainerAccess) NextValue(fn func(dec serde.Decoder) error) error {
	return fn(c.d)
}

func (c *cborContainerAccess) finish() error {
	if c.done {
		return nil
	}
	if c.indefinite {
		if c.d.r.atBreak() {
			return nil
		}
		return serde.Errorf("cbor: unexpected trailing container items")
	}
	if c.remaining > 0 {
		return serde.Errorf("cbor: %d unexpected trailing container items", c.remaining)
	}
	return nil
}
