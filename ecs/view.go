package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

type viewField struct {
	typ      reflect.Type
	offset   uintptr
	optional bool
}

// View reads entities that have a given combination of components.
// T must be a struct whose fields are pointers to component types. Embedded
// fields are always required; named fields may be tagged `ecs:"optional"`, in
// which case they are nil for entities that lack the component.
type View[T any] struct {
	storage *Storage
	fields  []viewField
}

// NewView creates a view for the struct type T.
func NewView[T any](storage *Storage) *View[T] {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	fields := make([]viewField, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if field.Type.Kind() != reflect.Pointer {
			panic("View struct fields must be pointer types")
		}

		optional := false
		if tag := field.Tag.Get("ecs"); tag != "" {
			if tag != "optional" || field.Anonymous {
				panic("invalid ecs tag on field " + field.Name + ": \"" + tag + "\"")
			}
			optional = true
		}

		fields = append(fields, viewField{
			typ:      field.Type.Elem(),
			offset:   field.Offset,
			optional: optional,
		})
	}

	return &View[T]{storage: storage, fields: fields}
}

// matchesArchetype reports whether the archetype has every required component.
func (v *View[T]) matchesArchetype(archetype *Archetype) bool {
	for _, f := range v.fields {
		if !f.optional && !archetype.HasComponent(f.typ) {
			return false
		}
	}
	return true
}

// columns maps each view field to its archetype column, or -1 when absent.
func (v *View[T]) columns(archetype *Archetype) []int {
	cols := make([]int, len(v.fields))
	for i, f := range v.fields {
		cols[i] = archetype.column(f.typ)
	}
	return cols
}

func (v *View[T]) populate(out *T, archetype *Archetype, index int, cols []int) bool {
	base := unsafe.Pointer(out)
	for i, col := range cols {
		fieldPtr := (*unsafe.Pointer)(unsafe.Add(base, v.fields[i].offset))

		var component any
		if col >= 0 {
			component = archetype.storages[col].Get(index)
		}
		if component == nil {
			if !v.fields[i].optional {
				return false
			}
			*fieldPtr = nil
			continue
		}
		*fieldPtr = reflect.ValueOf(component).UnsafePointer()
	}
	return true
}

// Fill populates ptr with the entity's components.
// Returns false if the entity is missing any required component.
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	archetype, ok := v.storage.archetypes[id.ArchetypeId()]
	if !ok || !v.matchesArchetype(archetype) {
		return false
	}
	return v.populate(ptr, archetype, int(id.Index()), v.columns(archetype))
}

// Get returns a populated view struct for the entity, or nil if the entity
// doesn't have all the required components
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// GetRef returns a populated view struct for the entity ref, or nil if invalid
func (v *View[T]) GetRef(ref *EntityRef) *T {
	id, ok := v.storage.ResolveEntityRef(ref)
	if !ok {
		return nil
	}
	return v.Get(id)
}

// Iter yields every matching entity with its populated view struct.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		for _, archetype := range v.storage.archetypes {
			if !v.iterArchetype(archetype, yield) {
				return
			}
		}
	}
}

func (v *View[T]) iterArchetype(archetype *Archetype, yield func(EntityId, T) bool) bool {
	if !v.matchesArchetype(archetype) || len(archetype.storages) == 0 {
		return true
	}

	cols := v.columns(archetype)
	var result T
	for index := range archetype.storages[0].Iter() {
		if !v.populate(&result, archetype, index, cols) {
			continue
		}
		if !yield(NewEntityId(archetype.id, uint32(index)), result) {
			return false
		}
	}
	return true
}

// Values returns an iterator over just the view structs
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}
