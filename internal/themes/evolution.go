package themes

import "sort"

// Evolution statuses.
const (
	StatusEmerging  = "emerging"
	StatusDeclining = "declining"
	StatusStable    = "stable"
)

// ThemeChange describes how one theme moved between two periods.
type ThemeChange struct {
	Name         string
	Status       string
	GrowthRate   float64 // (current - historical) / historical; 1 when historical is 0
	OldFrequency int
	NewFrequency int
	Disappeared  bool // present historically, absent now
}

// Evolution partitions theme changes by status. Emerging is sorted by growth
// rate descending, declining by growth rate ascending (steepest drop first),
// stable by current frequency descending.
type Evolution struct {
	Emerging  []ThemeChange
	Declining []ThemeChange
	Stable    []ThemeChange
}

const (
	emergingGrowth  = 0.5
	decliningGrowth = -0.3
)

// TrackEvolution compares two theme sets by exact name. Matching is
// intentionally literal: two wordings of the same concept count as separate
// themes, one disappearing and one emerging. Without history, the current
// top five are reported as emerging.
func TrackEvolution(historical, current []Theme) Evolution {
	if len(historical) == 0 {
		top := current
		if len(top) > 5 {
			top = top[:5]
		}
		var evo Evolution
		for _, t := range top {
			evo.Emerging = append(evo.Emerging, ThemeChange{
				Name:         t.Name,
				Status:       StatusEmerging,
				NewFrequency: t.Frequency,
			})
		}
		return evo
	}

	oldByName := make(map[string]Theme, len(historical))
	for _, t := range historical {
		oldByName[t.Name] = t
	}

	var evo Evolution
	seen := make(map[string]bool, len(current))
	for _, t := range current {
		seen[t.Name] = true

		old, existed := oldByName[t.Name]
		if !existed {
			evo.Emerging = append(evo.Emerging, ThemeChange{
				Name:         t.Name,
				Status:       StatusEmerging,
				NewFrequency: t.Frequency,
			})
			continue
		}

		// A zero historical frequency counts as full growth.
		growth := 1.0
		if old.Frequency > 0 {
			growth = float64(t.Frequency-old.Frequency) / float64(old.Frequency)
		}
		change := ThemeChange{
			Name:         t.Name,
			GrowthRate:   growth,
			OldFrequency: old.Frequency,
			NewFrequency: t.Frequency,
		}
		switch {
		case growth > emergingGrowth:
			change.Status = StatusEmerging
			evo.Emerging = append(evo.Emerging, change)
		case growth < decliningGrowth:
			change.Status = StatusDeclining
			evo.Declining = append(evo.Declining, change)
		default:
			change.Status = StatusStable
			evo.Stable = append(evo.Stable, change)
		}
	}

	for _, t := range historical {
		if seen[t.Name] {
			continue
		}
		evo.Declining = append(evo.Declining, ThemeChange{
			Name:         t.Name,
			Status:       StatusDeclining,
			GrowthRate:   -1.0,
			OldFrequency: t.Frequency,
			Disappeared:  true,
		})
	}

	sort.SliceStable(evo.Emerging, func(i, j int) bool {
		return evo.Emerging[i].GrowthRate > evo.Emerging[j].GrowthRate
	})
	sort.SliceStable(evo.Declining, func(i, j int) bool {
		return evo.Declining[i].GrowthRate < evo.Declining[j].GrowthRate
	})
	sort.SliceStable(evo.Stable, func(i, j int) bool {
		return evo.Stable[i].NewFrequency > evo.Stable[j].NewFrequency
	})

	return evo
}
