package ecs

import (
	"iter"
	"reflect"
)

// componentStorage is a type-erased column of components of a single type.
type componentStorage interface {
	Append(item any) int
	Set(index int, item any) bool
	Delete(index int)
	Get(index int) any
	Has(index int) bool
	Len() int
	Iter() iter.Seq[int]
}

// ComponentRegistry manages component type registration for an ECS instance.
// Each Storage owns its registry reference, so independent simulations can share
// a registry while keeping their entities apart.
type ComponentRegistry struct {
	factories map[reflect.Type]func() componentStorage
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() componentStorage),
	}
}

// RegisterComponent registers a component type with the given registry.
// This must be called for each component type before it can be spawned.
func RegisterComponent[T any](r *ComponentRegistry) {
	r.factories[reflect.TypeFor[T]()] = func() componentStorage {
		return &blockStorage[T]{}
	}
}

// Registered reports whether t has been registered.
func (r *ComponentRegistry) Registered(t reflect.Type) bool {
	_, ok := r.factories[t]
	return ok
}

func (r *ComponentRegistry) factory(t reflect.Type) func() componentStorage {
	return r.factories[t]
}

const blockSize = 64

// blockStorage stores components of type T in fixed-size blocks.
// Blocks are allocated one at a time and never copied, so a pointer returned by
// Get stays valid until its slot is deleted.
type blockStorage[T any] struct {
	blocks []*[blockSize]T
	filled []*[blockSize]bool
	free   []int
	next   int
	count  int
}

func unwrap[T any](item any) (T, bool) {
	switch v := item.(type) {
	case *T:
		return *v, true
	case T:
		return v, true
	}
	var zero T
	return zero, false
}

func (cs *blockStorage[T]) slot(index int) (int, int, bool) {
	if index < 0 || index >= cs.next {
		return 0, 0, false
	}
	return index / blockSize, index % blockSize, true
}

// Append adds a component and returns its slot index, reusing freed slots first.
// Returns -1 when item is not a T or *T.
func (cs *blockStorage[T]) Append(item any) int {
	value, ok := unwrap[T](item)
	if !ok {
		return -1
	}

	var index int
	if n := len(cs.free); n > 0 {
		index = cs.free[n-1]
		cs.free = cs.free[:n-1]
	} else {
		index = cs.next
		cs.next++
		if index/blockSize >= len(cs.blocks) {
			cs.blocks = append(cs.blocks, new([blockSize]T))
			cs.filled = append(cs.filled, new([blockSize]bool))
		}
	}

	b, s, _ := cs.slot(index)
	cs.blocks[b][s] = value
	cs.filled[b][s] = true
	cs.count++
	return index
}

// Set overwrites an occupied slot in place.
func (cs *blockStorage[T]) Set(index int, item any) bool {
	value, ok := unwrap[T](item)
	if !ok || !cs.Has(index) {
		return false
	}
	b, s, _ := cs.slot(index)
	cs.blocks[b][s] = value
	return true
}

// Get returns a *T for the slot, or nil when the slot is empty.
func (cs *blockStorage[T]) Get(index int) any {
	if !cs.Has(index) {
		return nil
	}
	b, s, _ := cs.slot(index)
	return &cs.blocks[b][s]
}

// Delete zeroes the slot and puts it on the free list.
func (cs *blockStorage[T]) Delete(index int) {
	if !cs.Has(index) {
		return
	}
	b, s, _ := cs.slot(index)
	var zero T
	cs.blocks[b][s] = zero
	cs.filled[b][s] = false
	cs.free = append(cs.free, index)
	cs.count--
}

func (cs *blockStorage[T]) Has(index int) bool {
	b, s, ok := cs.slot(index)
	return ok && cs.filled[b][s]
}

func (cs *blockStorage[T]) Len() int {
	return cs.count
}

// Iter yields occupied slot indices in ascending order.
func (cs *blockStorage[T]) Iter() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < cs.next; i++ {
			if cs.filled[i/blockSize][i%blockSize] && !yield(i) {
				return
			}
		}
	}
}
