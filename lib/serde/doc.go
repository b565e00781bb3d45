// Package serde defines the abstract structured encoder and decoder the scene
// codec is written against, together with the error taxonomy shared by every
// layer of dScene.
//
// The package focuses on:
//   - Describing values as structs, maps and scalars independent of any byte format
//   - Letting one decode routine serve both self-describing (named field) and
//     purely positional (tuple-like) formats
//   - Carrying type discriminators either as names or as compact registry tags
//
// Key Components:
//
//   - Encoder / StructEncoder / MapEncoder: Write side. Codec layers call
//     EncodeStruct and EncodeMap and hand over Serializable children; scalars
//     and opaque values are written with EncodeString, EncodeUint64,
//     EncodeTypeKey and EncodeValue.
//
//   - Decoder / Visitor / SeqAccess / MapAccess: Read side. A Visitor gets
//     VisitSeq when the wire holds a sequence and VisitMap when it holds a
//     keyed node, so positional and named decoding converge on the same
//     assembly code.
//
//   - Error / RetCode: The fatal error kinds (UnknownType, DuplicateType,
//     MissingField, DuplicateField, UnknownField, ValueDecode, InvalidInput)
//     plus the non-fatal Canonicalization code. Errors compare with errors.Is
//     against an *Error carrying the wanted code.
//
// Thread Safety:
//
//	Encoders and decoders are single use and not safe for concurrent use.
//	Independent encoders and decoders may run concurrently.
package serde
