package serde

// --------------------------------------------------------------------------
// Encoder Side
// --------------------------------------------------------------------------

// Encoder writes exactly one structured value into a wire format.
// Implementations decide how structs, maps and scalars look on the wire,
// the codec layers only describe the shape.
type Encoder interface {
	// EncodeStruct begins a struct with the given name and number of fields.
	// Fields must be written in declaration order.
	EncodeStruct(name string, fields int) (StructEncoder, error)
	// EncodeMap begins an association. A negative length means unknown.
	EncodeMap(length int) (MapEncoder, error)
	// EncodeString writes a string scalar.
	EncodeString(s string) error
	// EncodeUint64 writes an unsigned integer scalar.
	EncodeUint64(v uint64) error
	// EncodeTypeKey writes a type discriminator. The format chooses whether
	// the name or the registry tag goes on the wire.
	EncodeTypeKey(name string, tag uint32) error
	// EncodeValue writes an arbitrary Go value with the format's native value codec.
	EncodeValue(v any) error
	// EncodeDynamic writes a schema-less value (maps, slices, scalars) so that
	// DecodeDynamic can read it back without knowing a Go type.
	EncodeDynamic(v any) error
}

// StructEncoder writes the fields of a struct begun with Encoder.EncodeStruct.
type StructEncoder interface {
	// EncodeField writes one named field.
	EncodeField(name string, value Serializable) error
	// End finishes the struct.
	End() error
}

// MapEncoder writes the entries of a map begun with Encoder.EncodeMap.
type MapEncoder interface {
	// EncodeEntry writes one key/value pair.
	EncodeEntry(key, value Serializable) error
	// End finishes the map.
	End() error
}

// Serializable is anything that can describe itself to an Encoder.
type Serializable interface {
	Serialize(enc Encoder) error
}

// SerializeFunc adapts a plain function to Serializable.
type SerializeFunc func(enc Encoder) error

func (f SerializeFunc) Serialize(enc Encoder) error {
	return f(enc)
}

// String returns a Serializable writing s as a string scalar.
func String(s string) Serializable {
	return SerializeFunc(func(enc Encoder) error { return enc.EncodeString(s) })
}

// Uint64 returns a Serializable writing v as an unsigned integer scalar.
func Uint64(v uint64) Serializable {
	return SerializeFunc(func(enc Encoder) error { return enc.EncodeUint64(v) })
}

// TypeKeyOf returns a Serializable writing a type discriminator.
func TypeKeyOf(name string, tag uint32) Serializable {
	return SerializeFunc(func(enc Encoder) error { return enc.EncodeTypeKey(name, tag) })
}

// --------------------------------------------------------------------------
// Decoder Side
// --------------------------------------------------------------------------

// Decoder reads exactly one structured value from a wire format.
type Decoder interface {
	// DecodeStruct reads a struct. Self-describing formats hand the visitor a
	// MapAccess keyed by field name, positional formats hand it a SeqAccess.
	// fields lists the field names in declaration order.
	DecodeStruct(name string, fields []string, v Visitor) error
	// DecodeMap reads an association. Formats that find a sequence instead
	// hand the visitor a SeqAccess.
	DecodeMap(v Visitor) error
	// DecodeString reads a string scalar.
	DecodeString() (string, error)
	// DecodeUint64 reads an unsigned integer scalar.
	DecodeUint64() (uint64, error)
	// DecodeTypeKey reads a type discriminator written by Encoder.EncodeTypeKey.
	DecodeTypeKey() (TypeKey, error)
	// DecodeValue reads a value into ptr, whose static type is chosen by the caller.
	DecodeValue(ptr any) error
	// DecodeDynamic reads a value written by Encoder.EncodeDynamic.
	DecodeDynamic() (any, error)
}

// Visitor receives the contents of a struct or map node.
type Visitor interface {
	VisitSeq(seq SeqAccess) error
	VisitMap(m MapAccess) error
}

// SeqAccess pulls elements of a sequence node one at a time.
type SeqAccess interface {
	// NextElement decodes the next element with fn.
	// It returns false without calling fn once the sequence is exhausted.
	NextElement(fn func(dec Decoder) error) (ok bool, err error)
}

// MapAccess pulls key/value pairs of a map node one at a time.
type MapAccess interface {
	// NextKey decodes the next key with fn.
	// It returns false without calling fn once the map is exhausted.
	NextKey(fn func(dec Decoder) error) (ok bool, err error)
	// NextValue decodes the value belonging to the key read last.
	NextValue(fn func(dec Decoder) error) error
}

// TypeKey is a type discriminator as read from the stream: either a type
// name or a registry-assigned tag.
type TypeKey struct {
	Name   string
	Tag    uint32
	Tagged bool
}

// String returns the name, or the tag prefixed with '#'.
func (k TypeKey) String() string {
	if k.Tagged {
		return "#" + uitoa(uint64(k.Tag))
	}
	return k.Name
}

// NameKey returns a TypeKey carrying a type name.
func NameKey(name string) TypeKey {
	return TypeKey{Name: name}
}

// TagKey returns a TypeKey carrying a registry tag.
func TagKey(tag uint32) TypeKey {
	return TypeKey{Tag: tag, Tagged: true}
}
