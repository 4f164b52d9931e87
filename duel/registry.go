package duel

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/plus3/arenaduel/ecs"
)

var ErrDuplicateEntity = errors.New("duplicate entity")

// Registry owns the entities of a session and maps EntityIDs onto the
// underlying component storage.
type Registry struct {
	storage *ecs.Storage
	refs    map[EntityID]*ecs.EntityRef
}

func newComponentRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Identity](registry)
	ecs.RegisterComponent[Kind](registry)
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[Kinematics](registry)
	ecs.RegisterComponent[Combat](registry)
	ecs.RegisterComponent[Armor](registry)
	ecs.RegisterComponent[Size](registry)
	ecs.RegisterComponent[Owner](registry)
	return registry
}

// NewRegistry creates an empty registry with its own storage.
func NewRegistry() *Registry {
	r := &Registry{
		storage: ecs.NewStorage(newComponentRegistry()),
		refs:    make(map[EntityID]*ecs.EntityRef),
	}

	// Entities deleted by systems through Commands leave the id map here.
	r.storage.OnDelete(func(entity ecs.EntityId) {
		if identity := ecs.ReadComponent[Identity](r.storage, entity); identity != nil {
			delete(r.refs, identity.ID)
		}
	})
	return r
}

// Storage exposes the component storage for scheduling systems.
func (r *Registry) Storage() *ecs.Storage {
	return r.storage
}

func (r *Registry) spawn(id EntityID, kind Kind, components ...any) error {
	if _, exists := r.refs[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEntity, id)
	}

	components = append(components, Identity{ID: id}, kind)
	entity := r.storage.Spawn(components...)
	r.refs[id] = r.storage.CreateEntityRef(entity)
	return nil
}

// SpawnPlayer creates a player at (x, y) with the stats in cfg.
func (r *Registry) SpawnPlayer(id EntityID, x, y float64, cfg PlayerConfig) error {
	return r.spawn(id, KindPlayer,
		Health{HP: cfg.HP},
		Kinematics{X: x, Y: y, Speed: cfg.Speed},
		Combat{Cooldown: cfg.Cooldown},
		Armor{Value: cfg.Armor},
	)
}

// SpawnObstacle creates a static rectangle with its corner at (x, y).
func (r *Registry) SpawnObstacle(id EntityID, x, y, width, height float64) error {
	return r.spawn(id, KindObstacle,
		Kinematics{X: x, Y: y},
		Size{Width: width, Height: height},
	)
}

// SpawnBullet creates a bullet fired by owner.
func (r *Registry) SpawnBullet(id, owner EntityID, x, y, vx, vy float64) error {
	return r.spawn(id, KindBullet,
		Kinematics{X: x, Y: y, VX: vx, VY: vy},
		Owner{ID: owner},
	)
}

// Attach stores component on the entity, replacing one of the same type.
// Returns false when the entity does not exist.
func (r *Registry) Attach(id EntityID, component any) bool {
	ref, ok := r.refs[id]
	if !ok || !ref.Valid() {
		return false
	}
	return r.storage.SetComponent(ref.Id, component) != 0
}

// Get returns the T component of the entity.
func Get[T any](r *Registry, id EntityID) (*T, bool) {
	ref, ok := r.refs[id]
	if !ok || !ref.Valid() {
		return nil, false
	}
	component := ecs.ReadComponent[T](r.storage, ref.Id)
	return component, component != nil
}

// mustGet is Get for components the caller knows the entity carries.
// A miss is reported through missingComponent and yields nil.
func mustGet[T any](r *Registry, id EntityID) *T {
	component, ok := Get[T](r, id)
	if !ok {
		missingComponent(id, reflect.TypeFor[T]())
		return nil
	}
	return component
}

// Kind returns the variant of the entity.
func (r *Registry) Kind(id EntityID) (Kind, bool) {
	kind, ok := Get[Kind](r, id)
	if !ok {
		return 0, false
	}
	return *kind, true
}

// Has reports whether the entity exists.
func (r *Registry) Has(id EntityID) bool {
	_, ok := r.refs[id]
	return ok
}

// Remove deletes the entity and its components.
func (r *Registry) Remove(id EntityID) bool {
	ref, ok := r.refs[id]
	if !ok {
		return false
	}
	if !ref.Valid() || !r.storage.Delete(ref.Id) {
		delete(r.refs, id)
		return false
	}
	return true
}

// Clear drops every entity. Storage singletons survive.
func (r *Registry) Clear() {
	r.storage.Clear()
	clear(r.refs)
}

func (r *Registry) Len() int {
	return len(r.refs)
}

// IDs returns the ids of all entities in sorted order.
func (r *Registry) IDs() []EntityID {
	ids := make([]EntityID, 0, len(r.refs))
	for id := range r.refs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
