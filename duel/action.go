package duel

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

var ErrInvalidAction = errors.New("invalid action")

const (
	ActionMove  = "move"
	ActionShoot = "shoot"
	ActionBlock = "block"
)

// action is the wire form of a player input. Optional fields are pointers so a
// missing field can be told apart from its zero value.
type action struct {
	Type      string   `json:"type"`
	Direction *string  `json:"direction"`
	Angle     *float64 `json:"angle"`
	Active    *bool    `json:"active"`
}

func parseAction(payload []byte) (action, error) {
	var a action
	if err := json.Unmarshal(payload, &a); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}

	switch a.Type {
	case "":
		return a, fmt.Errorf("%w: missing type", ErrInvalidAction)
	case ActionMove:
		if a.Direction == nil {
			return a, fmt.Errorf("%w: move without direction", ErrInvalidAction)
		}
	case ActionShoot:
		if a.Angle == nil {
			return a, fmt.Errorf("%w: shoot without angle", ErrInvalidAction)
		}
	case ActionBlock:
		if a.Active == nil {
			return a, fmt.Errorf("%w: block without active", ErrInvalidAction)
		}
	default:
		return a, fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
	return a, nil
}

// ActionSystem applies player inputs between ticks. It owns the bullet id
// counter, which only ever grows.
type ActionSystem struct {
	BulletSpeed  float64
	MuzzleOffset float64

	fired uint64
}

// Process applies payload for the player id. Inputs for unknown ids or
// non-player entities are ignored. Malformed payloads return an error wrapping
// ErrInvalidAction and leave every entity untouched.
func (s *ActionSystem) Process(r *Registry, id EntityID, payload []byte, now time.Time) error {
	if kind, ok := r.Kind(id); !ok || kind != KindPlayer {
		return nil
	}

	a, err := parseAction(payload)
	if err != nil {
		return err
	}

	switch a.Type {
	case ActionMove:
		s.move(r, id, *a.Direction)
	case ActionShoot:
		return s.shoot(r, id, *a.Angle, now)
	case ActionBlock:
		if armor := mustGet[Armor](r, id); armor != nil {
			armor.Blocking = *a.Active
		}
	}
	return nil
}

func (s *ActionSystem) move(r *Registry, id EntityID, direction string) {
	k := mustGet[Kinematics](r, id)
	if k == nil {
		return
	}

	switch direction {
	case "up":
		k.VY = -k.Speed
	case "down":
		k.VY = k.Speed
	case "left":
		k.VX = -k.Speed
	case "right":
		k.VX = k.Speed
	case "stop_x":
		k.VX = 0
	case "stop_y":
		k.VY = 0
	}
}

func (s *ActionSystem) shoot(r *Registry, id EntityID, angle float64, now time.Time) error {
	k := mustGet[Kinematics](r, id)
	combat := mustGet[Combat](r, id)
	if k == nil || combat == nil || !combat.Ready(now) {
		return nil
	}

	bullet := EntityID("bullet_" + strconv.FormatUint(s.fired, 10))
	err := r.SpawnBullet(bullet, id,
		k.X+s.MuzzleOffset, k.Y+s.MuzzleOffset,
		s.BulletSpeed*math.Cos(angle), s.BulletSpeed*math.Sin(angle),
	)
	if err != nil {
		return err
	}
	s.fired++
	combat.LastShot = now
	return nil
}

// Fired returns how many bullets have been spawned.
func (s *ActionSystem) Fired() uint64 {
	return s.fired
}
