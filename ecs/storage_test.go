package ecs_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/plus3/arenaduel/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test EntityId encoding/decoding
func TestEntityIdEncoding(t *testing.T) {
	tests := []struct {
		archetypeId uint32
		index       uint32
	}{
		{0, 0},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{1, 0},
		{0, 1},
		{0x12345678, 0x9ABCDEF0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("archetype=%d,index=%d", tt.archetypeId, tt.index), func(t *testing.T) {
			entityId := ecs.NewEntityId(tt.archetypeId, tt.index)
			assert.Equal(t, tt.archetypeId, entityId.ArchetypeId())
			assert.Equal(t, tt.index, entityId.Index())
		})
	}
}

func TestSpawnAndGetComponent(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 3, Y: 4}, Name{Value: "Test Entity"})
	assert.True(t, storage.Exists(id))

	pos := ecs.ReadComponent[Position](storage, id)
	require.NotNil(t, pos)
	assert.Equal(t, 3.0, pos.X)
	assert.Equal(t, 4.0, pos.Y)

	name := storage.GetComponent(id, reflect.TypeOf(Name{})).(*Name)
	assert.Equal(t, "Test Entity", name.Value)

	// Missing component
	assert.Nil(t, ecs.ReadComponent[Velocity](storage, id))
	assert.False(t, storage.HasComponent(id, reflect.TypeOf(Velocity{})))
}

func TestSpawnOrderDoesNotChangeArchetype(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	a := storage.Spawn(Position{}, Velocity{})
	b := storage.Spawn(Velocity{}, Position{})

	assert.Equal(t, a.ArchetypeId(), b.ArchetypeId())
	assert.NotEqual(t, a.Index(), b.Index())
}

func TestArchetypeIdsAreStableAcrossStorages(t *testing.T) {
	registry := newTestRegistry()

	a := ecs.NewStorage(registry).Spawn(Position{}, Health{})
	b := ecs.NewStorage(registry).Spawn(Health{}, Position{})

	assert.Equal(t, a.ArchetypeId(), b.ArchetypeId())
}

func TestSpawnPanics(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	assert.Panics(t, func() { storage.Spawn() })
	assert.Panics(t, func() { storage.Spawn(Position{}, Position{}) })
	assert.Panics(t, func() { storage.Spawn(map[string]int{}) })

	type unregistered struct{}
	assert.Panics(t, func() { storage.Spawn(unregistered{}) })
}

func TestDeleteEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 1, Y: 1}, &Health{Current: 100, Max: 100})
	assert.Equal(t, 1, storage.Count())

	assert.True(t, storage.Delete(id))
	assert.False(t, storage.Exists(id))
	assert.Nil(t, ecs.ReadComponent[Position](storage, id))
	assert.Equal(t, 0, storage.Count())

	// Second delete is a no-op
	assert.False(t, storage.Delete(id))
}

func TestDeletedSlotIsReused(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	first := storage.Spawn(Position{X: 1})
	storage.Delete(first)
	second := storage.Spawn(Position{X: 2})

	assert.Equal(t, first, second)
	assert.Equal(t, 2.0, ecs.ReadComponent[Position](storage, second).X)
}

func TestComponentPointersSurviveGrowth(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 7})
	pos := ecs.ReadComponent[Position](storage, id)

	// Force several new blocks to be allocated
	for i := 0; i < 500; i++ {
		storage.Spawn(Position{X: float64(i)})
	}

	pos.X = 42
	assert.Equal(t, 42.0, ecs.ReadComponent[Position](storage, id).X)
}

func TestSetComponentReplacesInPlace(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 1}, Health{Current: 5})
	newId := storage.SetComponent(id, Health{Current: 9, Max: 10})

	assert.Equal(t, id, newId)
	assert.Equal(t, 9, ecs.ReadComponent[Health](storage, id).Current)
	assert.Equal(t, 1.0, ecs.ReadComponent[Position](storage, id).X)
}

func TestSetComponentAddsMissingKind(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{X: 1, Y: 2})
	ref := storage.CreateEntityRef(id)

	newId := storage.SetComponent(id, Velocity{DX: 3})
	assert.NotEqual(t, id.ArchetypeId(), newId.ArchetypeId())
	assert.False(t, storage.Exists(id))

	assert.Equal(t, newId, ref.Id)
	assert.Equal(t, 3.0, ecs.ReadComponent[Velocity](storage, newId).DX)
	assert.Equal(t, 2.0, ecs.ReadComponent[Position](storage, newId).Y)
	assert.Equal(t, 1, storage.Count())
}

func TestSetComponentOnMissingEntity(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(Position{})
	storage.Delete(id)

	assert.Equal(t, ecs.EntityId(0), storage.SetComponent(id, Health{}))
}

func TestOnDeleteHookSeesComponents(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	var seen []string
	storage.OnDelete(func(id ecs.EntityId) {
		seen = append(seen, ecs.ReadComponent[Name](storage, id).Value)
	})

	a := storage.Spawn(Name{Value: "a"})
	storage.Spawn(Name{Value: "b"})
	storage.Delete(a)
	storage.Delete(a)

	assert.Equal(t, []string{"a"}, seen)
}

func TestClearInvalidatesEverything(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	ecs.NewSingleton[Temperature](storage, 21.5)

	id := storage.Spawn(Position{})
	ref := storage.CreateEntityRef(id)
	storage.Spawn(Velocity{})

	storage.Clear()

	assert.Equal(t, 0, storage.Count())
	assert.False(t, ref.Valid())
	assert.False(t, storage.Exists(id))
	assert.Equal(t, Temperature(21.5), *ecs.ReadSingleton[Temperature](storage))
}
