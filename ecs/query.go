package ecs

import "iter"

// Query wraps a View with a per-frame cache of matching entities.
// The Scheduler executes every registered query right before its system runs,
// so results reflect structural changes flushed by earlier systems.
type Query[T any] struct {
	view       *View[T]
	storage    *Storage
	archetypes []*Archetype
	generation uint64

	entities   []EntityId
	components []T
	valid      bool
}

// NewQuery creates a new Query bound to storage.
func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init binds the Query to a storage and drops all cached state.
// Called by the Scheduler during system registration.
func (q *Query[T]) Init(storage *Storage) {
	q.view = NewView[T](storage)
	q.storage = storage
	q.archetypes = nil
	q.valid = false
}

// Execute rebuilds the entity and component caches.
func (q *Query[T]) Execute() {
	if q.archetypes == nil || q.generation != q.storage.generation {
		q.archetypes = q.archetypes[:0]
		for _, archetype := range q.storage.archetypes {
			if q.view.matchesArchetype(archetype) {
				q.archetypes = append(q.archetypes, archetype)
			}
		}
		q.generation = q.storage.generation
	}

	q.entities = q.entities[:0]
	q.components = q.components[:0]
	for _, archetype := range q.archetypes {
		q.view.iterArchetype(archetype, func(id EntityId, item T) bool {
			q.entities = append(q.entities, id)
			q.components = append(q.components, item)
			return true
		})
	}
	q.valid = true
}

// Len returns the number of entities matched by the last Execute.
func (q *Query[T]) Len() int {
	return len(q.entities)
}

// Iter returns an iterator over entity IDs and component data.
// Panics if Execute() has not been called.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	if !q.valid {
		panic("Query.Iter() called before Query.Execute()")
	}

	return func(yield func(EntityId, T) bool) {
		for i := range q.entities {
			if !yield(q.entities[i], q.components[i]) {
				return
			}
		}
	}
}

// Values returns an iterator over component data only.
// Panics if Execute() has not been called.
func (q *Query[T]) Values() iter.Seq[T] {
	if !q.valid {
		panic("Query.Values() called before Query.Execute()")
	}

	return func(yield func(T) bool) {
		for i := range q.components {
			if !yield(q.components[i]) {
				return
			}
		}
	}
}
