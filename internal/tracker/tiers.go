package tracker

import (
	"github.com/Tiliavir/tasker/internal/model"
	"github.com/Tiliavir/tasker/internal/points"
)

// Tiers returns a copy of the tier list in the order the user arranged it.
func (t *Tracker) Tiers() []model.Tier {
	return append([]model.Tier(nil), t.tiers...)
}

// AddTier appends a tier continuing from the last one.
func (t *Tracker) AddTier() model.Tier {
	t.tiers = points.AddTier(t.tiers)
	t.saveTiers()
	return t.tiers[len(t.tiers)-1]
}

// UpdateTier sets one field of the tier at index from raw input; input that
// is not a number is stored as 0.
func (t *Tracker) UpdateTier(index int, field, raw string) error {
	tiers, err := points.UpdateTier(t.tiers, index, field, raw)
	if err != nil {
		return err
	}
	t.tiers = tiers
	t.saveTiers()
	return nil
}

// RemoveTier deletes the tier at index unless it is the last one left.
func (t *Tracker) RemoveTier(index int) bool {
	tiers, ok := points.RemoveTier(t.tiers, index)
	if !ok {
		return false
	}
	t.tiers = tiers
	t.saveTiers()
	return true
}

// ReplaceTiers swaps in a whole tier list, e.g. from an imported file.
func (t *Tracker) ReplaceTiers(tiers []model.Tier) error {
	if len(tiers) == 0 {
		return points.ErrNoTiers
	}
	t.tiers = append([]model.Tier(nil), tiers...)
	t.saveTiers()
	return nil
}
