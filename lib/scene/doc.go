// Package scene implements the registry driven codec for scenes: a set of
// resources (global values) and a set of entities, each of which carries a
// collection of components. Every value is type-erased; its type is written
// next to it as a type key and resolved through a registry.TypeRegistry when
// reading it back.
//
// The codecs are written against the abstract serde.Encoder and serde.Decoder
// interfaces. Concrete wire formats live in the serializer package.
//
// Key Components:
//
//   - SceneSerializer / SceneDeserializer: The top level struct with the fields
//     "resources" and "entities". Decoding accepts positional and named fields.
//
//   - EntitiesSerializer / EntitiesDeserializer: The map of entity key to
//     entity. Keys are written in caller order and are not checked for
//     uniqueness.
//
//   - EntitySerializer / EntityDeserializer: One entity with its single field
//     "components".
//
//   - MapSerializer / MapDeserializer: Uniquely typed collections. Entries are
//     written sorted by type name so equal collections encode to equal bytes.
//     Decoding rejects unknown and repeated types and applies the type's
//     canonicalization hook when it declares one.
//
// Errors:
//
//	All decode errors are *serde.Error values. A failing canonicalization hook
//	is not an error, the raw value is kept and a warning is logged.
package scene
