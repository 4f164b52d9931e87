package duel

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plus3/arenaduel/log"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Arena    ArenaConfig  `yaml:"arena"`
	Player   PlayerConfig `yaml:"player"`
	Bullet   BulletConfig `yaml:"bullet"`
	Rules    RulesConfig  `yaml:"rules"`
	Loop     LoopConfig   `yaml:"loop"`
	Seed     uint64       `yaml:"seed"`
	LogLevel string       `yaml:"log_level"`
}

type ArenaConfig struct {
	Size            float64 `yaml:"size"`
	Extent          float64 `yaml:"extent"`
	Obstacles       int     `yaml:"obstacles"`
	ObstacleMinPos  float64 `yaml:"obstacle_min_pos"`
	ObstacleMaxPos  float64 `yaml:"obstacle_max_pos"`
	ObstacleMinSize float64 `yaml:"obstacle_min_size"`
	ObstacleMaxSize float64 `yaml:"obstacle_max_size"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type PlayerConfig struct {
	HP       int           `yaml:"hp"`
	Speed    float64       `yaml:"speed"`
	Armor    int           `yaml:"armor"`
	Cooldown time.Duration `yaml:"cooldown"`
	Spawns   []Point       `yaml:"spawns"`
}

type BulletConfig struct {
	Speed        float64 `yaml:"speed"`
	MuzzleOffset float64 `yaml:"muzzle_offset"`
}

type RulesConfig struct {
	SelfDamage bool `yaml:"self_damage"`
}

// LoopConfig controls ticking. With Background set the engine runs its own
// loop, otherwise the caller drives it through Update.
type LoopConfig struct {
	Tick       time.Duration `yaml:"tick"`
	Poll       time.Duration `yaml:"poll"`
	Background bool          `yaml:"background"`
}

// DefaultConfig returns the classic duel: a 400 unit arena, five obstacles
// and two players facing each other.
func DefaultConfig() Config {
	return Config{
		Arena: ArenaConfig{
			Size:            400,
			Extent:          20,
			Obstacles:       5,
			ObstacleMinPos:  50,
			ObstacleMaxPos:  350,
			ObstacleMinSize: 20,
			ObstacleMaxSize: 50,
		},
		Player: PlayerConfig{
			HP:       10,
			Speed:    5,
			Armor:    5,
			Cooldown: 500 * time.Millisecond,
			Spawns:   []Point{{X: 50, Y: 150}, {X: 350, Y: 150}},
		},
		Bullet: BulletConfig{
			Speed:        10,
			MuzzleOffset: 10,
		},
		Loop: LoopConfig{
			Tick:       time.Second / 60,
			Poll:       time.Millisecond,
			Background: true,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return ParseConfig(f)
}

// ParseConfig decodes YAML from r on top of DefaultConfig and validates the
// result. Unknown keys are rejected.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	a := c.Arena
	check(a.Extent > 0, "arena.extent must be positive")
	check(a.Size > a.Extent, "arena.size must exceed arena.extent")
	check(a.Obstacles >= 0, "arena.obstacles must not be negative")
	check(a.ObstacleMinPos <= a.ObstacleMaxPos, "arena.obstacle_min_pos exceeds obstacle_max_pos")
	check(a.ObstacleMinSize > 0 && a.ObstacleMinSize <= a.ObstacleMaxSize, "arena obstacle sizes must satisfy 0 < min <= max")

	p := c.Player
	check(p.HP > 0, "player.hp must be positive")
	check(p.Speed >= 0, "player.speed must not be negative")
	check(p.Armor >= 0, "player.armor must not be negative")
	check(p.Cooldown >= 0, "player.cooldown must not be negative")
	check(len(p.Spawns) == 2, "player.spawns needs exactly 2 points, got %d", len(p.Spawns))
	for i, pt := range p.Spawns {
		check(pt.X >= 0 && pt.Y >= 0 && pt.X <= a.Size-a.Extent && pt.Y <= a.Size-a.Extent,
			"player.spawns[%d] lies outside the arena", i)
	}

	check(c.Bullet.Speed > 0, "bullet.speed must be positive")
	check(c.Loop.Tick > 0, "loop.tick must be positive")
	check(c.Loop.Poll > 0, "loop.poll must be positive")

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	return errors.Join(errs...)
}
