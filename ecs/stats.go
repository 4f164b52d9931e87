package ecs

import "sort"

// StorageStats summarises the contents of a Storage.
type StorageStats struct {
	ArchetypeCount     int
	TotalEntityCount   int
	SingletonCount     int
	ArchetypeBreakdown []ArchetypeStats
}

// ArchetypeStats describes one archetype.
type ArchetypeStats struct {
	ID          uint32
	Components  []string
	EntityCount int
}

// CollectStats walks every archetype. Breakdown entries are ordered by id.
func (s *Storage) CollectStats() StorageStats {
	stats := StorageStats{
		ArchetypeCount: len(s.archetypes),
		SingletonCount: len(s.singletons),
	}

	for _, archetype := range s.archetypes {
		names := make([]string, len(archetype.types))
		for i, t := range archetype.types {
			names[i] = t.String()
		}
		n := archetype.Len()
		stats.TotalEntityCount += n
		stats.ArchetypeBreakdown = append(stats.ArchetypeBreakdown, ArchetypeStats{
			ID:          archetype.id,
			Components:  names,
			EntityCount: n,
		})
	}

	sort.Slice(stats.ArchetypeBreakdown, func(i, j int) bool {
		return stats.ArchetypeBreakdown[i].ID < stats.ArchetypeBreakdown[j].ID
	})
	return stats
}
