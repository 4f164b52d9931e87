package ecs

import (
	"fmt"
	"reflect"
	"weak"
)

// Storage is the main ECS storage interface
type Storage struct {
	archetypes map[uint32]*Archetype
	registry   *ComponentRegistry
	singletons map[reflect.Type]any
	onDelete   []func(EntityId)

	// generation changes whenever the archetype set changes, which lets
	// queries drop cached archetype pointers after a Clear.
	generation uint64
}

// NewStorage creates a new ECS storage system with the given component registry
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		archetypes: make(map[uint32]*Archetype),
		registry:   registry,
		singletons: make(map[reflect.Type]any),
	}
}

func componentType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// extractComponentTypes returns the sorted component types of components.
// Components must be value types: structs or named primitives.
func extractComponentTypes(components []any) []reflect.Type {
	types := make([]reflect.Type, 0, len(components))
	for _, comp := range components {
		t := componentType(comp)
		switch t.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func:
			panic("components cannot be pointers, maps, channels, or functions")
		}
		for _, seen := range types {
			if seen == t {
				panic("duplicate component type " + t.String())
			}
		}
		types = append(types, t)
	}
	sortTypes(types)
	return types
}

func (s *Storage) archetypeFor(types []reflect.Type) *Archetype {
	id := archetypeID(types)
	archetype, ok := s.archetypes[id]
	if !ok {
		archetype = newArchetype(id, types, s.registry)
		s.archetypes[id] = archetype
		s.generation++
		return archetype
	}
	if len(archetype.types) != len(types) {
		panic(fmt.Sprintf("archetype id collision: %v vs %v", archetype.types, types))
	}
	for i := range types {
		if archetype.types[i] != types[i] {
			panic(fmt.Sprintf("archetype id collision: %v vs %v", archetype.types, types))
		}
	}
	return archetype
}

// Spawn creates a new entity with the provided components. Components may be
// passed by value or by pointer; the storage always keeps its own copy.
func (s *Storage) Spawn(components ...any) EntityId {
	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}

	archetype := s.archetypeFor(extractComponentTypes(components))
	return NewEntityId(archetype.id, archetype.spawn(components))
}

// OnDelete registers fn to run before an entity's components are released.
// Hooks may still read the entity's components. Clear does not run hooks.
func (s *Storage) OnDelete(fn func(EntityId)) {
	s.onDelete = append(s.onDelete, fn)
}

// Exists reports whether id names a live entity.
func (s *Storage) Exists(id EntityId) bool {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	return ok && archetype.exists(id.Index())
}

// Delete removes all data related to the entity ID. Deleting a missing entity
// is a no-op and returns false.
func (s *Storage) Delete(id EntityId) bool {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !archetype.exists(id.Index()) {
		return false
	}

	for _, fn := range s.onDelete {
		fn(id)
	}
	archetype.remove(id.Index())
	return true
}

// SetComponent stores component on the entity, replacing the existing value of
// the same type in place. When the entity has no component of that type it is
// moved to the archetype that includes it. Returns the entity's current id.
func (s *Storage) SetComponent(id EntityId, component any) EntityId {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !archetype.exists(id.Index()) {
		return 0
	}
	if archetype.set(id.Index(), component) {
		return id
	}
	return s.AddComponent(id, component)
}

// AddComponent moves the entity to the archetype that also contains the
// component's type. Live EntityRefs are updated to the new id.
func (s *Storage) AddComponent(id EntityId, component any) EntityId {
	oldArchetype, ok := s.archetypes[id.ArchetypeId()]
	if !ok || !oldArchetype.exists(id.Index()) {
		return 0
	}

	compType := componentType(component)
	if oldArchetype.HasComponent(compType) {
		oldArchetype.set(id.Index(), component)
		return id
	}

	newTypes := make([]reflect.Type, 0, len(oldArchetype.types)+1)
	newTypes = append(newTypes, oldArchetype.types...)
	newTypes = append(newTypes, compType)
	sortTypes(newTypes)
	newArchetype := s.archetypeFor(newTypes)

	components := make([]any, 0, len(newTypes))
	for _, typ := range newTypes {
		if typ == compType {
			components = append(components, component)
		} else {
			components = append(components, oldArchetype.component(id.Index(), typ))
		}
	}

	newId := NewEntityId(newArchetype.id, newArchetype.spawn(components))

	if weakPtr, hasRef := oldArchetype.refs.Get(id); hasRef {
		if ref := weakPtr.Value(); ref != nil {
			ref.Id = newId
			ref.Archetype = newArchetype
			newArchetype.refs.Put(newId, weakPtr)
		}
		oldArchetype.refs.Del(id)
	}

	for _, storage := range oldArchetype.storages {
		storage.Delete(int(id.Index()))
	}
	return newId
}

// GetComponent returns the component for the given entity ID and component type
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	if !ok {
		return nil
	}
	return archetype.component(id.Index(), compType)
}

// HasComponent checks if a live entity has a specific component type
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	archetype, ok := s.archetypes[id.ArchetypeId()]
	return ok && archetype.exists(id.Index()) && archetype.HasComponent(compType)
}

// CreateEntityRef returns the shared EntityRef for id, creating it on first use.
func (s *Storage) CreateEntityRef(id EntityId) *EntityRef {
	archetype := s.archetypes[id.ArchetypeId()]
	if archetype == nil || !archetype.exists(id.Index()) {
		return nil
	}

	if weakPtr, ok := archetype.refs.Get(id); ok {
		if ref := weakPtr.Value(); ref != nil {
			return ref
		}
		archetype.refs.Del(id)
	}

	ref := &EntityRef{Id: id, Archetype: archetype}
	archetype.refs.Put(id, weak.Make(ref))
	return ref
}

// ResolveEntityRef returns the current id of the referenced entity.
func (s *Storage) ResolveEntityRef(ref *EntityRef) (EntityId, bool) {
	if !ref.Valid() {
		return 0, false
	}
	return ref.Id, true
}

// Count returns the number of live entities across all archetypes.
func (s *Storage) Count() int {
	n := 0
	for _, archetype := range s.archetypes {
		n += archetype.Len()
	}
	return n
}

// Clear drops every entity and archetype and invalidates all EntityRefs.
// Singletons are kept.
func (s *Storage) Clear() {
	for _, archetype := range s.archetypes {
		archetype.invalidateRefs()
	}
	s.archetypes = make(map[uint32]*Archetype)
	s.generation++
}

// AddSingleton stores value as the singleton of its type, replacing any previous one.
func (s *Storage) AddSingleton(value any) {
	t := componentType(value)
	ptr := reflect.New(t)
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	ptr.Elem().Set(v)
	s.singletons[t] = ptr.Interface()
}

func (s *Storage) getSingletonEntry(t reflect.Type) any {
	return s.singletons[t]
}

type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns the entity's T component, or nil if it has none.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	c, _ := reader.GetComponent(entityId, reflect.TypeFor[T]()).(*T)
	return c
}

// ReadSingleton returns the T singleton, or nil if none was added.
func ReadSingleton[T any](s *Storage) *T {
	c, _ := s.getSingletonEntry(reflect.TypeFor[T]()).(*T)
	return c
}
