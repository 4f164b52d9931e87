package ecs_test

import (
	"testing"

	"github.com/plus3/arenaduel/ecs"
	"github.com/stretchr/testify/assert"
)

type spawnProjectileSystem struct{}

func (s *spawnProjectileSystem) Execute(frame *ecs.UpdateFrame) {
	frame.Commands.Spawn(Position{X: 1, Y: 2}, Projectile{})
}

type expireProjectileSystem struct {
	Projectiles ecs.Query[struct {
		*Position
		*Projectile
	}]
	seen int
}

func (s *expireProjectileSystem) Execute(frame *ecs.UpdateFrame) {
	for id := range s.Projectiles.Iter() {
		s.seen++
		frame.Commands.Delete(id)
		frame.Commands.Delete(id)
	}
}

func TestCommands(t *testing.T) {
	t.Run("flush applies deletes before spawns", func(t *testing.T) {
		storage := ecs.NewStorage(newTestRegistry())
		doomed := storage.Spawn(Position{})

		var order []string
		storage.OnDelete(func(ecs.EntityId) { order = append(order, "delete") })

		cmds := captureCommands(storage)
		cmds.Delete(doomed)
		cmds.Spawn(Name{Value: "fresh"})
		cmds.Defer(func() { order = append(order, "defer") })
		assert.Equal(t, 3, cmds.Pending())

		cmds.Flush(storage)

		assert.Equal(t, []string{"delete", "defer"}, order)
		assert.False(t, storage.Exists(doomed))
		assert.Equal(t, 1, storage.Count())
		assert.Equal(t, 0, cmds.Pending())
	})

	t.Run("later systems see flushed changes", func(t *testing.T) {
		storage := ecs.NewStorage(newTestRegistry())
		scheduler := ecs.NewScheduler(storage)

		expire := &expireProjectileSystem{}
		scheduler.Register(&spawnProjectileSystem{})
		scheduler.Register(expire)

		scheduler.Once(1)

		// Spawned by the first system, deleted by the second in the same pass
		assert.Equal(t, 1, expire.seen)
		assert.Equal(t, 0, storage.Count())
	})
}

// captureCommands returns the Commands buffer handed out by a single scheduler pass.
func captureCommands(storage *ecs.Storage) *ecs.Commands {
	var captured *ecs.Commands
	scheduler := ecs.NewScheduler(storage)
	scheduler.Register(captureSystem(func(frame *ecs.UpdateFrame) { captured = frame.Commands }))
	scheduler.Once(0)
	return captured
}

type captureSystem func(frame *ecs.UpdateFrame)

func (f captureSystem) Execute(frame *ecs.UpdateFrame) { f(frame) }
