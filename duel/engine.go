package duel

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/arenaduel/ecs"
	"github.com/plus3/arenaduel/log"
)

var ErrInvalidPlayers = errors.New("invalid players")

type Option func(*Engine)

func WithLogger(logger log.Log) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock replaces the time source used for shot cooldowns.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithRand replaces the generator used to lay out obstacles.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// Engine runs one duel at a time. All methods are safe for concurrent use.
type Engine struct {
	cfg    Config
	logger log.Log
	clock  func() time.Time
	rng    *rand.Rand

	// mu guards the registry, the ECS storage and everything below it.
	mu        sync.RWMutex
	registry  *Registry
	scheduler *ecs.Scheduler
	combat    *CombatSystem
	actions   *ActionSystem
	players   []EntityID
	session   string
	last      Snapshot

	running   atomic.Bool
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	loop      *errgroup.Group
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		logger:   log.Nop(),
		clock:    time.Now,
		registry: NewRegistry(),
		last:     emptySnapshot(),
		actions: &ActionSystem{
			BulletSpeed:  cfg.Bullet.Speed,
			MuzzleOffset: cfg.Bullet.MuzzleOffset,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}

	storage := e.registry.Storage()
	storage.AddSingleton(Arena{Size: cfg.Arena.Size, Extent: cfg.Arena.Extent})
	storage.AddSingleton(Rules{SelfDamage: cfg.Rules.SelfDamage})

	e.combat = &CombatSystem{Logger: e.logger}
	e.scheduler = ecs.NewScheduler(storage)
	e.scheduler.Register(&KinematicsSystem{})
	e.scheduler.Register(e.combat)
	return e, nil
}

// Start begins a session between p1 and p2. It is a no-op while a session is
// running.
func (e *Engine) Start(p1, p2 EntityID) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.running.Load() {
		return nil
	}
	if p1 == "" || p2 == "" || p1 == p2 {
		return fmt.Errorf("%w: %q and %q", ErrInvalidPlayers, p1, p2)
	}

	e.mu.Lock()
	err := e.populate(p1, p2)
	if err != nil {
		e.registry.Clear()
		e.mu.Unlock()
		return err
	}
	e.players = []EntityID{p1, p2}
	e.session = uuid.NewString()
	e.mu.Unlock()

	e.running.Store(true)
	e.logger.Info("session started",
		log.String("session", e.session),
		log.Strings("players", []string{string(p1), string(p2)}),
		log.Int("obstacles", e.cfg.Arena.Obstacles),
	)

	if e.cfg.Loop.Background {
		ctx, cancel := context.WithCancel(context.Background())
		group, ctx := errgroup.WithContext(ctx)
		group.Go(func() error { return e.run(ctx) })
		e.cancel = cancel
		e.loop = group
	}
	return nil
}

func (e *Engine) populate(p1, p2 EntityID) error {
	e.registry.Clear()

	player := e.cfg.Player
	for i, id := range []EntityID{p1, p2} {
		spawn := player.Spawns[i]
		if err := e.registry.SpawnPlayer(id, spawn.X, spawn.Y, player); err != nil {
			return err
		}
	}

	arena := e.cfg.Arena
	for i := range arena.Obstacles {
		id := EntityID("obs_" + strconv.Itoa(i))
		x := e.uniform(arena.ObstacleMinPos, arena.ObstacleMaxPos)
		y := e.uniform(arena.ObstacleMinPos, arena.ObstacleMaxPos)
		w := e.uniform(arena.ObstacleMinSize, arena.ObstacleMaxSize)
		h := e.uniform(arena.ObstacleMinSize, arena.ObstacleMaxSize)
		if err := e.registry.SpawnObstacle(id, x, y, w, h); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) uniform(lo, hi float64) float64 {
	return lo + e.rng.Float64()*(hi-lo)
}

// run ticks once per elapsed tick duration until ctx is cancelled or the
// game is over.
func (e *Engine) run(ctx context.Context) error {
	poll := time.NewTicker(e.cfg.Loop.Poll)
	defer poll.Stop()

	tick := e.cfg.Loop.Tick
	last := time.Now()
	var accumulator time.Duration

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-poll.C:
			accumulator += now.Sub(last)
			last = now
		}

		for accumulator >= tick && e.running.Load() {
			e.step()
			accumulator -= tick
		}

		if e.IsGameOver() {
			e.logger.Info("game over", log.String("session", e.Session()), log.Uint64("ticks", e.Ticks()))
			return nil
		}
	}
}

func (e *Engine) step() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduler.Once(e.cfg.Loop.Tick.Seconds())
}

// Update runs one tick. It does nothing while stopped.
func (e *Engine) Update() {
	if !e.running.Load() {
		return
	}
	e.step()
}

// ProcessInput applies an action payload for a tracked player. Malformed
// payloads are logged and dropped.
func (e *Engine) ProcessInput(id EntityID, payload []byte) {
	if !e.running.Load() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !slices.Contains(e.players, id) {
		return
	}
	if err := e.actions.Process(e.registry, id, payload, e.clock()); err != nil {
		e.logger.Warn("dropping input",
			log.String("session", e.session),
			log.String("player", string(id)),
			log.Error(err),
		)
	}
}

// End stops the session, waits for the loop to exit and keeps a final
// snapshot for State. Calling End while stopped does nothing.
func (e *Engine) End() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if !e.running.Load() {
		return
	}
	e.running.Store(false)

	if e.cancel != nil {
		e.cancel()
		if err := e.loop.Wait(); err != nil {
			e.logger.Error("tick loop failed", log.Error(err))
		}
		e.cancel = nil
		e.loop = nil
	}

	e.mu.Lock()
	e.last = e.snapshot()
	e.registry.Clear()
	e.players = nil
	session, ticks := e.session, e.scheduler.Ticks()
	e.mu.Unlock()

	e.logger.Info("session ended",
		log.String("session", session),
		log.Uint64("ticks", ticks),
		log.Uint64("bullets", e.BulletsFired()),
	)
}

// State returns the live snapshot while a session runs and the snapshot
// taken by End afterwards.
func (e *Engine) State() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.players == nil {
		return e.last.clone()
	}
	return e.snapshot()
}

// IsGameOver reports whether at most one tracked player is alive. It is false
// when no session has players.
func (e *Engine) IsGameOver() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gameOver()
}

func (e *Engine) gameOver() bool {
	if len(e.players) == 0 {
		return false
	}
	alive := 0
	for _, id := range e.players {
		if health, ok := Get[Health](e.registry, id); ok && health.HP > 0 {
			alive++
		}
	}
	return alive <= 1
}

func (e *Engine) snapshot() Snapshot {
	s := emptySnapshot()
	s.IsRunning = e.running.Load()
	s.Players = append(s.Players, e.players...)
	s.GameOver = e.gameOver()

	if s.GameOver {
		for _, id := range e.players {
			if health, ok := Get[Health](e.registry, id); ok && health.HP > 0 {
				s.Winner = id
				break
			}
		}
	}

	for _, id := range e.registry.IDs() {
		kind, ok := e.registry.Kind(id)
		if !ok {
			continue
		}
		if state, ok := entityState(e.registry, id, kind); ok {
			s.Entities[id] = state
		}
	}
	return s
}

// BulletsFired returns the number of bullets spawned over the engine lifetime.
func (e *Engine) BulletsFired() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.actions.Fired()
}

// Hits returns the number of bullets that struck a player.
func (e *Engine) Hits() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.combat.Hits()
}

func (e *Engine) Ticks() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scheduler.Ticks()
}

// Session returns the id of the current or most recent session.
func (e *Engine) Session() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session
}

func (e *Engine) Stats() *ecs.SchedulerStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scheduler.GetStats()
}

// Running reports whether a session is in progress.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// StorageStats summarises the entity storage of the live session.
func (e *Engine) StorageStats() ecs.StorageStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Storage().CollectStats()
}
