package duel

import (
	"time"

	"github.com/plus3/arenaduel/ecs"
)

var testPlayer = PlayerConfig{
	HP:       10,
	Speed:    5,
	Armor:    5,
	Cooldown: 500 * time.Millisecond,
}

type world struct {
	registry  *Registry
	scheduler *ecs.Scheduler
	combat    *CombatSystem
}

func newWorld(rules Rules) *world {
	registry := NewRegistry()
	registry.Storage().AddSingleton(Arena{Size: 400, Extent: 20})
	registry.Storage().AddSingleton(rules)

	scheduler := ecs.NewScheduler(registry.Storage())
	scheduler.Register(&KinematicsSystem{})
	combat := &CombatSystem{}
	scheduler.Register(combat)

	return &world{registry: registry, scheduler: scheduler, combat: combat}
}

func (w *world) tick() {
	w.scheduler.Once(1.0 / 60)
}

// pullConfig is a deterministic config for engines driven through Update.
func pullConfig() Config {
	cfg := DefaultConfig()
	cfg.Arena.Obstacles = 0
	cfg.Loop.Background = false
	cfg.Seed = 7
	return cfg
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
