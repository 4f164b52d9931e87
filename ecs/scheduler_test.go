package ecs_test

import (
	"testing"

	"github.com/plus3/arenaduel/ecs"
	"github.com/stretchr/testify/assert"
)

type MovementSystem struct {
	Entities ecs.Query[struct {
		*Position
		*Velocity
	}]
	ExecuteCount int
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	s.ExecuteCount++
	for _, item := range s.Entities.Iter() {
		item.Position.X += item.Velocity.DX
		item.Position.Y += item.Velocity.DY
	}
}

type BoundsSystem struct {
	Entities ecs.Query[struct{ *Position }]
	Bounds   ecs.Singleton[Bounds]
	LastTick uint64
}

func (s *BoundsSystem) Execute(frame *ecs.UpdateFrame) {
	s.LastTick = frame.Tick
	limit := s.Bounds.Get().Size
	for item := range s.Entities.Values() {
		item.Position.X = min(item.Position.X, limit)
		item.Position.Y = min(item.Position.Y, limit)
	}
}

func TestScheduler(t *testing.T) {
	t.Run("systems run in registration order", func(t *testing.T) {
		storage := ecs.NewStorage(newTestRegistry())
		ecs.NewSingleton[Bounds](storage, Bounds{Size: 3})
		scheduler := ecs.NewScheduler(storage)

		movement := &MovementSystem{}
		bounds := &BoundsSystem{}
		scheduler.Register(movement)
		scheduler.Register(bounds)

		id := storage.Spawn(Position{X: 0, Y: 0}, Velocity{DX: 2, DY: 1})

		scheduler.Once(1.0 / 60)
		scheduler.Once(1.0 / 60)

		pos := ecs.ReadComponent[Position](storage, id)
		assert.Equal(t, 3.0, pos.X)
		assert.Equal(t, 2.0, pos.Y)
		assert.Equal(t, 2, movement.ExecuteCount)
		assert.Equal(t, uint64(2), bounds.LastTick)
		assert.Equal(t, uint64(2), scheduler.Ticks())
	})

	t.Run("singleton fields are bound on register", func(t *testing.T) {
		storage := ecs.NewStorage(newTestRegistry())
		scheduler := ecs.NewScheduler(storage)

		bounds := &BoundsSystem{}
		scheduler.Register(bounds)
		assert.False(t, bounds.Bounds.Exists())

		storage.AddSingleton(Bounds{Size: 10})
		assert.Equal(t, 10.0, bounds.Bounds.Get().Size)
	})

	t.Run("entities spawned between passes are picked up", func(t *testing.T) {
		storage := ecs.NewStorage(newTestRegistry())
		scheduler := ecs.NewScheduler(storage)
		movement := &MovementSystem{}
		scheduler.Register(movement)

		scheduler.Once(0)
		id := storage.Spawn(Position{}, Velocity{DX: 5})
		scheduler.Once(0)

		assert.Equal(t, 5.0, ecs.ReadComponent[Position](storage, id).X)
	})
}
