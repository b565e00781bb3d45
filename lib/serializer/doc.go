// Package serializer provides the wire formats for scenes. Every format
// implements the abstract serde.Encoder and serde.Decoder interfaces that the
// scene codec is written against, and is exposed through one common
// interface.
//
// Key Components:
//
//   - ISceneSerializer: Core interface that all serializer implementations must satisfy.
//
//   - jsonSerializerImpl: Self-describing textual format. Structs and collections are
//     json objects, type keys are type names. The decoder streams tokens, so repeated
//     keys are seen (and rejected) instead of being silently merged. Options.Pretty
//     indents the output. Input may contain comments and trailing commas (jsonc).
//
//   - yamlSerializerImpl: Self-describing textual format built on yaml.Node trees.
//     Structs may be mappings (named fields) or sequences (positional fields).
//
//   - cborSerializerImpl: Compact schemaless binary format (RFC 8949). Values use Core
//     Deterministic Encoding. Structs are positional arrays. With Options.TypeTags the
//     type keys are the registry tags instead of names.
//
//   - binarySerializerImpl: Custom length-prefixed binary format in the style of the
//     message framing used elsewhere: big endian integers, u32 length prefixes, gob
//     encoded values. Not self-describing.
//
//   - WithMetrics: Decorator that records VictoriaMetrics counters and histograms.
//
//   - WithCompression: Decorator that compresses the encoding with zstd or lz4.
//
//   - Fingerprint: xxhash64 of an encoding, used to compare encodings cheaply.
//
// Determinism:
//
//	Type keys inside a collection are sorted by type name, entities keep the
//	caller's order. Encoding the same scene twice gives identical bytes in every
//	format, with one exception: the binary format's gob payloads of dynamic
//	(map based) values are not byte stable.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines, as long as the registry is not modified.
//
// Usage:
//
//	s, err := serializer.NewSerializer("json", &serializer.Options{Pretty: true})
//	data, err := s.Serialize(sc, reg)
//	// ... store data ...
//	decoded, err := s.Deserialize(data, reg)
package serializer
