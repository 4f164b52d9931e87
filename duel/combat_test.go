package duel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombatSystem(t *testing.T) {
	spawnDuel := func(t *testing.T, w *world) {
		t.Helper()
		require.NoError(t, w.registry.SpawnPlayer("1", 100, 100, testPlayer))
		require.NoError(t, w.registry.SpawnPlayer("2", 300, 300, testPlayer))
	}

	t.Run("unblocked hit costs one hp", func(t *testing.T) {
		w := newWorld(Rules{})
		spawnDuel(t, w)
		require.NoError(t, w.registry.SpawnBullet("bullet_0", "2", 105, 110, 0, 0))

		w.tick()

		health, _ := Get[Health](w.registry, "1")
		armor, _ := Get[Armor](w.registry, "1")
		assert.Equal(t, 9, health.HP)
		assert.Equal(t, 5, armor.Value)
		assert.False(t, w.registry.Has("bullet_0"))
		assert.Equal(t, uint64(1), w.combat.Hits())
	})

	t.Run("blocking absorbs one armor point per hit", func(t *testing.T) {
		w := newWorld(Rules{})
		spawnDuel(t, w)
		w.registry.Attach("1", Armor{Value: 2, Blocking: true})

		for i := range 3 {
			id := EntityID("bullet_" + string(rune('0'+i)))
			require.NoError(t, w.registry.SpawnBullet(id, "2", 100, 100, 0, 0))
			w.tick()
			assert.False(t, w.registry.Has(id))
		}

		health, _ := Get[Health](w.registry, "1")
		armor, _ := Get[Armor](w.registry, "1")
		assert.Equal(t, 0, armor.Value)
		assert.Equal(t, 9, health.HP, "the third hit lands once armor is spent")
	})

	t.Run("proximity is checked per axis", func(t *testing.T) {
		w := newWorld(Rules{})
		spawnDuel(t, w)
		require.NoError(t, w.registry.SpawnBullet("bullet_0", "2", 120, 100, 0, 0))
		require.NoError(t, w.registry.SpawnBullet("bullet_1", "2", 100, 81, 0, 0))

		w.tick()

		health, _ := Get[Health](w.registry, "1")
		assert.Equal(t, 9, health.HP)
		assert.True(t, w.registry.Has("bullet_0"), "a gap of exactly 20 misses")
		assert.False(t, w.registry.Has("bullet_1"))
	})

	t.Run("shooters are immune to their own bullets", func(t *testing.T) {
		w := newWorld(Rules{})
		spawnDuel(t, w)
		require.NoError(t, w.registry.SpawnBullet("bullet_0", "1", 100, 100, 0, 0))

		w.tick()

		health, _ := Get[Health](w.registry, "1")
		assert.Equal(t, 10, health.HP)
		assert.True(t, w.registry.Has("bullet_0"))
	})

	t.Run("self damage can be enabled", func(t *testing.T) {
		w := newWorld(Rules{SelfDamage: true})
		spawnDuel(t, w)
		require.NoError(t, w.registry.SpawnBullet("bullet_0", "1", 100, 100, 0, 0))

		w.tick()

		health, _ := Get[Health](w.registry, "1")
		assert.Equal(t, 9, health.HP)
		assert.False(t, w.registry.Has("bullet_0"))
	})

	t.Run("a bullet hits at most one player", func(t *testing.T) {
		w := newWorld(Rules{})
		require.NoError(t, w.registry.SpawnPlayer("1", 100, 100, testPlayer))
		require.NoError(t, w.registry.SpawnPlayer("2", 105, 100, testPlayer))
		require.NoError(t, w.registry.SpawnBullet("bullet_0", "3", 102, 100, 0, 0))

		w.tick()

		h1, _ := Get[Health](w.registry, "1")
		h2, _ := Get[Health](w.registry, "2")
		assert.Equal(t, 19, h1.HP+h2.HP)
		assert.Equal(t, uint64(1), w.combat.Hits())
	})

	t.Run("bullets removed by obstacles never reach combat", func(t *testing.T) {
		w := newWorld(Rules{})
		spawnDuel(t, w)
		require.NoError(t, w.registry.SpawnObstacle("obs_0", 95, 95, 30, 30))
		require.NoError(t, w.registry.SpawnBullet("bullet_0", "2", 100, 100, 0, 0))
		w.registry.Attach("1", Kinematics{X: 100, Y: 100})

		w.tick()

		health, _ := Get[Health](w.registry, "1")
		assert.Equal(t, 10, health.HP)
		assert.False(t, w.registry.Has("bullet_0"))
	})
}

func TestResolveHit(t *testing.T) {
	tests := []struct {
		name       string
		armor      Armor
		wantHP     int
		wantArmor  int
		wantAbsorb bool
	}{
		{"not blocking", Armor{Value: 5}, 9, 5, false},
		{"blocking with armor", Armor{Value: 5, Blocking: true}, 10, 4, true},
		{"blocking without armor", Armor{Value: 0, Blocking: true}, 9, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := Health{HP: 10}
			armor := tt.armor
			assert.Equal(t, tt.wantAbsorb, resolveHit(&health, &armor))
			assert.Equal(t, tt.wantHP, health.HP)
			assert.Equal(t, tt.wantArmor, armor.Value)
		})
	}
}
