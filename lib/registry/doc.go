// Package registry provides the runtime type catalog dScene resolves type
// names and tags against while encoding and decoding scenes.
//
// Key Components:
//
//   - TypeRegistry: Maps stable type names, compact tags, Go types and
//     identities to descriptors. Backed by xsync maps so independent encode
//     and decode calls can share one registry without locking.
//
//   - Descriptor: The per-type vtable. It carries the identity, the wire name,
//     the tag, an encode and a decode capability and an optional
//     canonicalization hook that repairs or validates freshly decoded values.
//
//   - Value: A type-erased handle to one instance of a registered type.
//
// Registration:
//
//	reg := registry.New()
//	registry.MustRegister[Position](reg, "game::Position")
//	registry.MustRegister[Health](reg, "game::Health",
//		registry.WithCanonicalizer(func(h Health) (Health, error) {
//			return h.Clamp(), nil
//		}),
//	)
//	registry.RegisterDynamic(reg, "editor::Note")
//
// Tags default to TagOf(name), a 32-bit fold of the xxhash64 of the name.
// Colliding tags are rejected at registration and can be overridden with
// WithTag.
package registry
