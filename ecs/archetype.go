package ecs

import (
	"iter"
	"reflect"
	"slices"
	"strings"
	"weak"

	"github.com/cespare/xxhash/v2"
	"github.com/kamstrup/intmap"
)

// typeKey names a component type including its package path, so two types
// called Health in different packages never share an archetype.
func typeKey(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

func sortTypes(types []reflect.Type) {
	slices.SortFunc(types, func(a, b reflect.Type) int {
		return strings.Compare(typeKey(a), typeKey(b))
	})
}

// archetypeID hashes a sorted type set. The result depends only on type names,
// so ids are identical from one run to the next.
func archetypeID(types []reflect.Type) uint32 {
	d := xxhash.New()
	for _, t := range types {
		_, _ = d.WriteString(typeKey(t))
		_, _ = d.Write([]byte{0})
	}
	return uint32(d.Sum64())
}

// Archetype holds every entity that has exactly the same set of component types.
type Archetype struct {
	id       uint32
	types    []reflect.Type
	storages []componentStorage
	refs     *intmap.Map[EntityId, weak.Pointer[EntityRef]]
}

func newArchetype(id uint32, types []reflect.Type, registry *ComponentRegistry) *Archetype {
	a := &Archetype{
		id:       id,
		types:    types,
		storages: make([]componentStorage, len(types)),
		refs:     intmap.New[EntityId, weak.Pointer[EntityRef]](64),
	}

	for idx, typ := range types {
		factory := registry.factory(typ)
		if factory == nil {
			panic("component type " + typ.String() + " not registered")
		}
		a.storages[idx] = factory()
	}

	return a
}

// spawn appends one component per column. Every column shares the same
// append/delete history, so they all hand back the same slot index.
func (a *Archetype) spawn(components []any) uint32 {
	index := -1
	for _, comp := range components {
		col := a.column(componentType(comp))
		if col < 0 {
			panic("component " + componentType(comp).String() + " does not belong to archetype")
		}
		index = a.storages[col].Append(comp)
	}
	return uint32(index)
}

func (a *Archetype) column(t reflect.Type) int {
	for i, typ := range a.types {
		if typ == t {
			return i
		}
	}
	return -1
}

func (a *Archetype) component(index uint32, t reflect.Type) any {
	col := a.column(t)
	if col < 0 {
		return nil
	}
	return a.storages[col].Get(int(index))
}

func (a *Archetype) set(index uint32, component any) bool {
	col := a.column(componentType(component))
	if col < 0 {
		return false
	}
	return a.storages[col].Set(int(index), component)
}

func (a *Archetype) exists(index uint32) bool {
	return len(a.storages) > 0 && a.storages[0].Has(int(index))
}

// remove frees the slot in every column and invalidates any live EntityRef.
func (a *Archetype) remove(index uint32) {
	id := NewEntityId(a.id, index)
	if weakPtr, ok := a.refs.Get(id); ok {
		if ref := weakPtr.Value(); ref != nil {
			ref.invalidate()
		}
		a.refs.Del(id)
	}

	for _, storage := range a.storages {
		storage.Delete(int(index))
	}
}

// invalidateRefs detaches every live EntityRef; used when storage is cleared.
func (a *Archetype) invalidateRefs() {
	a.refs.ForEach(func(_ EntityId, weakPtr weak.Pointer[EntityRef]) bool {
		if ref := weakPtr.Value(); ref != nil {
			ref.invalidate()
		}
		return true
	})
	a.refs.Clear()
}

// HasComponent checks if this archetype has the given component type
func (a *Archetype) HasComponent(compType reflect.Type) bool {
	return slices.Contains(a.types, compType)
}

// ID returns the archetype's unique identifier
func (a *Archetype) ID() uint32 {
	return a.id
}

// Types returns the sorted component types for this archetype
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Len returns the number of live entities in this archetype.
func (a *Archetype) Len() int {
	if len(a.storages) == 0 {
		return 0
	}
	return a.storages[0].Len()
}

// Iter returns an iterator over all live EntityIds in this archetype
func (a *Archetype) Iter() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		if len(a.storages) == 0 {
			return
		}
		for index := range a.storages[0].Iter() {
			if !yield(NewEntityId(a.id, uint32(index))) {
				return
			}
		}
	}
}
