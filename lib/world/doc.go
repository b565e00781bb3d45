// Package world provides a small in-memory object graph that scenes are
// written into and extracted from. It plays the part of the entity store a
// game engine would own, reduced to what the scene codecs need.
//
// Key Components:
//
//   - IWorld: The interface for entity and resource storage. Entities have
//     generational keys (see scene.EntityKey): despawning an entity bumps the
//     generation of its index, so stale keys never alias a new entity.
//
//   - WriteScene: Applies a decoded scene to a world with an EntityMap that maps
//     scene keys to world keys. Applying the same scene twice with the same map
//     updates the entities in place instead of spawning new ones.
//
//   - ExtractScene: The inverse of WriteScene, used to save a world.
//
//   - Error System: Typed return codes with a message, like the rest of the
//     storage layers.
//
// Thread Safety:
//
//	Entity tables and resources are stored in xsync.MapOf maps and the key
//	allocator is guarded by a mutex, so single operations are safe for
//	concurrent use. WriteScene is not atomic: concurrent writers may observe a
//	partially applied scene.
//
// Usage Example:
//
//	w := world.NewWorld()
//	entityMap := world.EntityMap{}
//	if err := world.WriteScene(w, decoded, entityMap); err != nil {
//		return err
//	}
//	saved := world.ExtractScene(w)
package world
