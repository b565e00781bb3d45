package serializer

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/ValentinKolb/dScene/lib/serde"
	"github.com/tidwall/jsonc"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer(opts *Options) ISceneSerializer {
	return &jsonSerializerImpl{opts: orDefault(opts)}
}

// jsonSerializerImpl implements the ISceneSerializer interface using json encoding.
// Structs and maps are json objects, type keys are type names.
type jsonSerializerImpl struct {
	opts Options
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISceneSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Name() string {
	return "json"
}

func (j jsonSerializerImpl) Serialize(s *scene.Scene, reg *registry.TypeRegistry) ([]byte, error) {
	var buf bytes.Buffer
	if err := scene.Serialize(&jsonEncoder{buf: &buf}, s, reg); err != nil {
		return nil, err
	}
	if !j.opts.Pretty {
		return buf.Bytes(), nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (j jsonSerializerImpl) Deserialize(b []byte, reg *registry.TypeRegistry) (*scene.Scene, error) {
	// comments and trailing commas are allowed in hand written scenes
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(b)))
	s, err := scene.Deserialize(&jsonDecoder{dec: dec}, reg)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, serde.Errorf("json: trailing data after scene")
	}
	return s, nil
}

// --------------------------------------------------------------------------
// Encoder
// --------------------------------------------------------------------------

type jsonEncoder struct {
	buf *bytes.Buffer
}

func (e *jsonEncoder) EncodeStruct(_ string, _ int) (serde.StructEncoder, error) {
	e.buf.WriteByte('{')
	return &jsonObjectEncoder{enc: e, first: true}, nil
}

func (e *jsonEncoder) EncodeMap(_ int) (serde.MapEncoder, error) {
	e.buf.WriteByte('{')
	return &jsonObjectEncoder{enc: e, first: true}, nil
}

func (e *jsonEncoder) EncodeString(s string) error {
	return e.write(s)
}

func (e *jsonEncoder) EncodeUint64(v uint64) error {
	e.buf.WriteString(strconv.FormatUint(v, 10))
	return nil
}

func (e *jsonEncoder) EncodeTypeKey(name string, _ uint32) error {
	return e.write(name)
}

func (e *jsonEncoder) EncodeValue(v any) error {
	return e.write(v)
}

func (e *jsonEncoder) EncodeDynamic(v any) error {
	return e.write(v)
}

func (e *jsonEncoder) write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.buf.Write(b)
	return nil
}

// jsonObjectEncoder writes the members of a json object. Structs and maps
// share it: struct fields are entries with string keys.
type jsonObjectEncoder struct {
	enc   *jsonEncoder
	first bool
}

func (o *jsonObjectEncoder) EncodeField(name string, value serde.Serializable) error {
	return o.EncodeEntry(serde.String(name), value)
}

func (o *jsonObjectEncoder) EncodeEntry(key, value serde.Serializable) error {
	if !o.first {
		o.enc.buf.WriteByte(',')
	}
	o.first = false

	if err := key.Serialize(jsonKeyEncoder{enc: o.enc}); err != nil {
		return err
	}
	o.enc.buf.WriteByte(':')
	return value.Serialize(o.enc)
}

func (o *jsonObjectEncoder) End() error {
	o.enc.buf.WriteByte('}')
	return nil
}

var errJSONKey = serde.Errorf("json: object keys must be strings or integers")

// jsonKeyEncoder writes object keys. Integers become decimal strings.
type jsonKeyEncoder struct {
	enc *jsonEncoder
}

func (k jsonKeyEncoder) EncodeStruct(string, int) (serde.StructEncoder, error) { return nil, errJSONKey }
func (k jsonKeyEncoder) EncodeMap(int) (serde.MapEncoder, error)               { return nil, errJSONKey }
func (k jsonKeyEncoder) EncodeValue(any) error                                 { return errJSONKey }
func (k jsonKeyEncoder) EncodeDynamic(any) error                               { return errJSONKey }

func (k jsonKeyEncoder) EncodeString(s string) error {
	return k.enc.write(s)
}

func (k jsonKeyEncoder) EncodeUint64(v uint64) error {
	return k.enc.write(strconv.FormatUint(v, 10))
}

func (k jsonKeyEncoder) EncodeTypeKey(name string, _ uint32) error {
	return k.enc.write(name)
}

// --------------------------------------------------------------------------
// Decoder
// --------------------------------------------------------------------------

// jsonDecoder pulls tokens from a json.Decoder. Values are decoded in place
// with json.Decoder.Decode, so no intermediate tree is built and repeated
// object keys stay visible.
type jsonDecoder struct {
	dec *json.Decoder
}

func jsonError(err error) error {
	if errors.Is(err, io.EOF) {
		return serde.Errorf("json: unexpected end of input")
	}
	return serde.Errorf("json: %w", err)
}

func (d *jsonDecoder) open(v serde.Visitor) error {
	tok, err := d.dec.Token()
	if err != nil {
		return jsonError(err)
	}
	switch tok {
	case json.Delim('{'):
		m := &jsonMapAccess{d: d}
		if err := v.VisitMap(m); err != nil {
			return err
		}
		return m.finish()
	case json.Delim('['):
		s := &jsonSeqAccess{d: d}
		if err := v.VisitSeq(s); err != nil {
			return err
		}
		return s.finish()
	}
	return serde.Errorf("json: expected object or array, found %v", tok)
}

func (d *jsonDecoder) DecodeStruct(_ string, _ []string, v serde.Visitor) error {
	return d.open(v)
}

func (d *jsonDecoder) DecodeMap(v serde.Visitor) error {
	return d.open(v)
}

func (d *jsonDecoder) DecodeString() (string, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return "", jsonError(err)
	}
	s, ok := tok.(string)
	if !ok {
		return "", serde.Errorf("json: expected string, found %v", tok)
	}
	return s, nil
}

func (d *jsonDecoder) DecodeUint64() (uint64, error) {
	var raw json.RawMessage
	if err := d.dec.Decode(&raw); err != nil {
		return 0, jsonError(err)
	}
	s := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, jsonError(err)
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, serde.Errorf("json: invalid unsigned integer %s", raw)
	}
	return v, nil
}

func (d *jsonDecoder) DecodeTypeKey() (serde.TypeKey, error) {
	s, err := d.DecodeString()
	if err != nil {
		return serde.TypeKey{}, err
	}
	return serde.NameKey(s), nil
}

func (d *jsonDecoder) DecodeValue(ptr any) error {
	return d.dec.Decode(ptr)
}

func (d *jsonDecoder) DecodeDynamic() (any, error) {
	var v any
	if err := d.dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// jsonMapAccess walks the members of an object whose '{' was consumed.
type jsonMapAccess struct {
	d    *jsonDecoder
	done bool
}

func (m *jsonMapAccess) NextKey(fn func(dec serde.Decoder) error) (bool, error) {
	if m.done {
		return false, nil
	}
	if !m.d.dec.More() {
		return false, m.close()
	}
	return true, fn(jsonKeyDecoder{d: m.d})
}

func (m *jsonMapAccess) NextValue(fn func(dec serde.Decoder) error) error {
	return fn(m.d)
}

func (m *jsonMapAccess) close() error {
	m.done = true
	tok, err := m.d.dec.Token()
	if err != nil {
		return jsonError(err)
	}
	if tok != json.Delim('}') {
		return serde.Errorf("json: expected '}', found %v", tok)
	}
	return nil
}

func (m *jsonMapAccess) finish() error {
	if m.done {
		return nil
	}
	if m.d.dec.More() {
		return serde.Errorf("json: unexpected trailing object members")
	}
	return m.close()
}

// jsonSeqAccess walks the elements of an array whose '[' was consumed.
type jsonSeqAccess struct {
	d    *jsonDecoder
	done bool
}

func (s *jsonSeqAccess) NextElement(fn func(dec serde.Decoder) error) (bool, error) {
	if s.done {
		return false, nil
	}
	if !s.d.dec.More() {
		return false, s.close()
	}
	return true, fn(s.d)
}

func (s *jsonSeqAccess) close() error {
	s.done = true
	tok, err := s.d.dec.Token()
	if err != nil {
		return jsonError(err)
	}
	if tok != json.Delim(']') {
		return serde.Errorf("json: expected ']', found %v", tok)
	}
	return nil
}

func (s *jsonSeqAccess) finish() error {
	if s.done {
		return nil
	}
	if s.d.dec.More() {
		return serde.Errorf("json: unexpected trailing array elements")
	}
	return s.close()
}

var errJSONKeyShape = serde.Errorf("json: object keys cannot hold structured values")

// jsonKeyDecoder reads an object key. Integer keys are parsed from their
// decimal string form.
type jsonKeyDecoder struct {
	d *jsonDecoder
}

func (k jsonKeyDecoder) key() (string, error) {
	tok, err := k.d.dec.Token()
	if err != nil {
		return "", jsonError(err)
	}
	s, ok := tok.(string)
	if !ok {
		return "", serde.Errorf("json: expected object key, found %v", tok)
	}
	return s, nil
}

func (k jsonKeyDecoder) DecodeStruct(string, []string, serde.Visitor) error { return errJSONKeyShape }
func (k jsonKeyDecoder) DecodeMap(serde.Visitor) error                      { return errJSONKeyShape }

func (k jsonKeyDecoder) DecodeString() (string, error) {
	return k.key()
}

func (k jsonKeyDecoder) DecodeUint64() (uint64, error) {
	s, err := k.key()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, serde.Errorf("json: invalid integer key %q", s)
	}
	return v, nil
}

func (k jsonKeyDecoder) DecodeTypeKey() (serde.TypeKey, error) {
	s, err := k.key()
	if err != nil {
		return serde.TypeKey{}, err
	}
	return serde.NameKey(s), nil
}

func (k jsonKeyDecoder) DecodeValue(ptr any) error {
	s, err := k.key()
	if err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ptr)
}

func (k jsonKeyDecoder) DecodeDynamic() (any, error) {
	return k.key()
}
