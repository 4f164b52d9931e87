package duel

import "github.com/plus3/arenaduel/ecs"

type mover struct {
	*Identity
	*Kinematics
	Kind *Kind
}

type obstacle struct {
	*Identity
	*Kinematics
	*Size
}

type rect struct {
	id         EntityID
	x, y, w, h float64
}

// overlaps reports whether a square of side extent at (x, y) intersects r.
func (r rect) overlaps(x, y, extent float64) bool {
	return x < r.x+r.w && x+extent > r.x &&
		y < r.y+r.h && y+extent > r.y
}

// KinematicsSystem integrates velocity, clamps positions into the arena and
// resolves collisions against obstacles. Velocity is in units per tick.
type KinematicsSystem struct {
	Movers    ecs.Query[mover]
	Obstacles ecs.Query[obstacle]
	Arena     ecs.Singleton[Arena]
}

func (s *KinematicsSystem) Execute(frame *ecs.UpdateFrame) {
	arena := s.Arena.Get()
	if arena == nil {
		return
	}
	limit := arena.Limit()

	rects := make([]rect, 0, s.Obstacles.Len())
	for o := range s.Obstacles.Values() {
		rects = append(rects, rect{id: o.ID, x: o.X, y: o.Y, w: o.Width, h: o.Height})
	}

	for entity, m := range s.Movers.Iter() {
		k := m.Kinematics
		prevX, prevY := k.X, k.Y
		k.X = clamp(k.X+k.VX, 0, limit)
		k.Y = clamp(k.Y+k.VY, 0, limit)

		if *m.Kind == KindObstacle {
			continue
		}
		for _, r := range rects {
			if r.id == m.ID || !r.overlaps(k.X, k.Y, arena.Extent) {
				continue
			}
			switch *m.Kind {
			case KindBullet:
				frame.Commands.Delete(entity)
			case KindPlayer:
				k.X, k.Y = prevX, prevY
				k.VX, k.VY = 0, 0
			}
			break
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
