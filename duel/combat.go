package duel

import (
	"math"

	"github.com/plus3/arenaduel/ecs"
	"github.com/plus3/arenaduel/log"
)

type target struct {
	*Identity
	*Kinematics
	*Health
	*Armor
}

type projectile struct {
	*Identity
	*Kinematics
	Kind  *Kind
	Owner *Owner `ecs:"optional"`
}

// CombatSystem resolves bullet hits on players. Each bullet hits at most one
// player and is removed once it does.
type CombatSystem struct {
	Players ecs.Query[target]
	Bullets ecs.Query[projectile]
	Arena   ecs.Singleton[Arena]
	Rules   ecs.Singleton[Rules]

	Logger log.Log
	hits   uint64
}

func (s *CombatSystem) Execute(frame *ecs.UpdateFrame) {
	arena := s.Arena.Get()
	if arena == nil {
		return
	}
	selfDamage := false
	if rules := s.Rules.Get(); rules != nil {
		selfDamage = rules.SelfDamage
	}

	for entity, b := range s.Bullets.Iter() {
		if *b.Kind != KindBullet {
			continue
		}
		for p := range s.Players.Values() {
			if p.ID == b.ID {
				continue
			}
			if !selfDamage && b.Owner != nil && b.Owner.ID == p.ID {
				continue
			}
			if math.Abs(b.X-p.X) >= arena.Extent || math.Abs(b.Y-p.Y) >= arena.Extent {
				continue
			}

			absorbed := resolveHit(p.Health, p.Armor)
			s.hits++
			if s.Logger != nil {
				s.Logger.Debug("bullet hit",
					log.String("bullet", string(b.ID)),
					log.String("player", string(p.ID)),
					log.Bool("absorbed", absorbed),
					log.Int("hp", p.HP),
					log.Int("armor", p.Armor.Value),
					log.Uint64("tick", frame.Tick),
				)
			}
			frame.Commands.Delete(entity)
			break
		}
	}
}

// Hits returns the number of bullets that have struck a player.
func (s *CombatSystem) Hits() uint64 {
	return s.hits
}
