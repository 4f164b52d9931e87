package duel

import "time"

// EntityID names an entity within an engine. Players use caller-chosen ids,
// obstacles and bullets are named obs_<n> and bullet_<n>.
type EntityID string

// Kind tags the variant of an entity. It is stored as a component so systems
// switch on it instead of probing for component sets.
type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindObstacle
	KindBullet
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindObstacle:
		return "obstacle"
	case KindBullet:
		return "bullet"
	default:
		return "unknown"
	}
}

// Identity maps a storage entity back to its EntityID.
type Identity struct {
	ID EntityID
}

// Health is eliminated at HP <= 0.
type Health struct {
	HP int
}

// Kinematics holds position and per-tick velocity.
type Kinematics struct {
	X, Y   float64
	VX, VY float64
	Speed  float64
}

type Combat struct {
	Cooldown time.Duration
	LastShot time.Time
}

// Ready reports whether a shot at now clears the cooldown. A player that has
// never fired is always ready.
func (c *Combat) Ready(now time.Time) bool {
	return c.LastShot.IsZero() || now.Sub(c.LastShot) >= c.Cooldown
}

// Armor absorbs one hit per point while Blocking is set.
type Armor struct {
	Value    int
	Blocking bool
}

// Size is the extent of an obstacle rectangle.
type Size struct {
	Width, Height float64
}

// Owner records which player fired a bullet.
type Owner struct {
	ID EntityID
}

// Arena is the storage singleton describing the play field.
type Arena struct {
	Size   float64
	Extent float64
}

// Limit is the largest coordinate a moving entity may occupy.
func (a *Arena) Limit() float64 {
	return a.Size - a.Extent
}

// Rules is the storage singleton holding combat switches.
type Rules struct {
	SelfDamage bool
}

// resolveHit applies one bullet hit and reports whether armor absorbed it.
func resolveHit(health *Health, armor *Armor) bool {
	if armor.Blocking && armor.Value > 0 {
		armor.Value--
		return true
	}
	health.HP--
	return false
}
