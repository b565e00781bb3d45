package registry

import "github.com/cespare/xxhash/v2"

// TagOf returns the default registry tag of a type name: the xxhash64 of the
// name folded to 32 bits. It only depends on the name, so two processes
// registering the same names in any order agree on the tags.
func TagOf(name string) uint32 {
	h := xxhash.Sum64String(name)
	return uint32(h ^ (h >> 32))
}
