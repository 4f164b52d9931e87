package ecs

import "reflect"

// Singleton provides access to a single component instance that is not
// associated with any entity, such as arena bounds or session rules.
type Singleton[T any] struct {
	storage *Storage
	value   *T
}

// NewSingleton returns an accessor for the T singleton. If the singleton does not
// exist yet it is created from initializer, or from the zero value.
func NewSingleton[T any](storage *Storage, initializer ...T) *Singleton[T] {
	if storage.getSingletonEntry(reflect.TypeFor[T]()) == nil {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		storage.AddSingleton(value)
	}

	s := &Singleton[T]{}
	s.Init(storage)
	return s
}

// Init binds the Singleton to a storage.
// This is called automatically by the Scheduler during system registration.
func (s *Singleton[T]) Init(storage *Storage) {
	s.storage = storage
	s.value = nil
}

// Get returns a pointer to the singleton component, or nil if it has not been
// added to storage.
func (s *Singleton[T]) Get() *T {
	if s.value == nil && s.storage != nil {
		s.value = ReadSingleton[T](s.storage)
	}
	return s.value
}

// Exists returns true if the singleton component has been added to storage
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}
