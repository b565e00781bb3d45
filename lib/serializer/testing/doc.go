// Package testing provides standardised tests and benchmarks for
// scene serializers that satisfy the serializer.ISceneSerializer interface.
//
// The package contains:
//   - fixtures: A set of registered fixture types (plain, canonicalized, failing
//     canonicalization, custom codec, dynamic) and fixture scenes
//   - testing: A conformance suite covering round trips, determinism, duplicate and
//     unknown type rejection, canonicalization and concurrent use
//   - benchmark: Performance tests for encoding and decoding scenes of various sizes
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() serializer.ISceneSerializer {
//		return NewMySerializer()
//	}
//
//	// Running the standard test suite
//	sertest.RunSceneSerializerTests(t, "MySerializer", factory)
//
//	// Running performance benchmarks
//	sertest.RunSceneSerializerBenchmarks(b, "MySerializer", factory)
package testing
