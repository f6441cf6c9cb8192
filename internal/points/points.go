package points

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Tiliavir/tasker/internal/model"
	"github.com/Tiliavir/tasker/internal/timecalc"
)

// Tier field names accepted by UpdateTier.
const (
	FieldPoints   = "points"
	FieldMinHours = "minHours"
	FieldMaxHours = "maxHours"
)

// openEnded is the max bound the default top tier uses to mean "no limit".
const openEnded = 999

// tierStep is the width in hours of a tier appended by AddTier.
const tierStep = 8

// DefaultTiers returns the built-in tier list.
func DefaultTiers() []model.Tier {
	return []model.Tier{
		{Points: 1, MinHours: 0, MaxHours: 4},
		{Points: 2, MinHours: 4, MaxHours: 8},
		{Points: 3, MinHours: 8, MaxHours: 12},
		{Points: 5, MinHours: 12, MaxHours: 16},
		{Points: 8, MinHours: 16, MaxHours: 24},
		{Points: 13, MinHours: 24, MaxHours: openEnded},
	}
}

// Sorted returns a copy of tiers ordered by MinHours. Ties keep their
// original relative order.
func Sorted(tiers []model.Tier) []model.Tier {
	sorted := append([]model.Tier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinHours < sorted[j].MinHours
	})
	return sorted
}

// Classify returns the story points for d. The first tier (by MinHours)
// whose range contains the duration wins; anything that matches no tier
// gets the points of the highest tier. An empty tier list yields 0.
func Classify(d time.Duration, tiers []model.Tier) int {
	if len(tiers) == 0 {
		return 0
	}
	hours := d.Hours()
	sorted := Sorted(tiers)
	for _, t := range sorted {
		if hours >= t.MinHours && hours < t.MaxHours {
			return t.Points
		}
	}
	return sorted[len(sorted)-1].Points
}

// AddTier appends a tier continuing from the last one in list order.
func AddTier(tiers []model.Tier) []model.Tier {
	out := append([]model.Tier(nil), tiers...)
	if len(out) == 0 {
		return append(out, DefaultTiers()[0])
	}
	last := out[len(out)-1]
	return append(out, model.Tier{
		Points:   last.Points + 1,
		MinHours: last.MaxHours,
		MaxHours: last.MaxHours + tierStep,
	})
}

// RemoveTier drops the tier at index. It refuses to empty the list and
// ignores out-of-range indexes; the bool reports whether anything changed.
func RemoveTier(tiers []model.Tier, index int) ([]model.Tier, bool) {
	if len(tiers) <= 1 || index < 0 || index >= len(tiers) {
		return tiers, false
	}
	out := make([]model.Tier, 0, len(tiers)-1)
	out = append(out, tiers[:index]...)
	out = append(out, tiers[index+1:]...)
	return out, true
}

// UpdateTier sets one field of the tier at index from raw user input.
// Unparseable input becomes 0.
func UpdateTier(tiers []model.Tier, index int, field, raw string) ([]model.Tier, error) {
	if index < 0 || index >= len(tiers) {
		return tiers, fmt.Errorf("tier index %d out of range (have %d)", index, len(tiers))
	}
	out := append([]model.Tier(nil), tiers...)
	v := ParseNumber(raw)
	switch field {
	case FieldPoints:
		out[index].Points = int(v)
	case FieldMinHours:
		out[index].MinHours = v
	case FieldMaxHours:
		out[index].MaxHours = v
	default:
		return tiers, fmt.Errorf("unknown tier field %q", field)
	}
	return out, nil
}

// leadingNumber matches the decimal number at the start of user input, so
// "4h" and "8 hours" read as 4 and 8.
var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseNumber reads the number at the start of raw, ignoring whatever
// follows it. Input without a leading finite number yields 0.
func ParseNumber(raw string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Label renders the hour range of a tier, e.g. "4–8h" or "24h+".
func Label(t model.Tier) string {
	if t.MaxHours >= openEnded {
		return timecalc.FormatHours(t.MinHours) + "h+"
	}
	return fmt.Sprintf("%s–%sh", timecalc.FormatHours(t.MinHours), timecalc.FormatHours(t.MaxHours))
}
