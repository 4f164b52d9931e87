package ecs

// EntityId encodes both the archetype ID (upper 32 bits) and the slot index (lower 32 bits).
// An id only stays valid while the entity keeps the same component set; use an
// EntityRef to follow an entity across archetype moves.
type EntityId uint64

// NewEntityId creates an EntityId from an archetype ID and slot index
func NewEntityId(archetypeId uint32, index uint32) EntityId {
	return EntityId(uint64(archetypeId)<<32 | uint64(index))
}

// ArchetypeId extracts the archetype ID from the entity ID
func (e EntityId) ArchetypeId() uint32 {
	return uint32(e >> 32)
}

// Index extracts the slot index from the entity ID
func (e EntityId) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// EntityRef is a stable reference to an entity. The storage rewrites Id when the
// entity moves between archetypes and clears Archetype when it is deleted.
type EntityRef struct {
	Id        EntityId
	Archetype *Archetype
}

// Valid reports whether the referenced entity still exists.
func (r *EntityRef) Valid() bool {
	return r != nil && r.Archetype != nil
}

func (r *EntityRef) invalidate() {
	r.Id = 0
	r.Archetype = nil
}
