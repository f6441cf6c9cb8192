package tui

import (
	"fmt"
	"strconv"

	"github.com/Tiliavir/tasker/internal/model"
	"github.com/Tiliavir/tasker/internal/points"
	"github.com/Tiliavir/tasker/internal/timecalc"
	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

// tierFields is the tab order of the editable columns.
var tierFields = []string{points.FieldPoints, points.FieldMinHours, points.FieldMaxHours}

var tierFieldTitles = map[string]string{
	points.FieldPoints:   "Points",
	points.FieldMinHours: "Min hours",
	points.FieldMaxHours: "Max hours",
}

func (u *widget) openTiers(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.tiersOpen = true
	u.tierSelected = 0
	u.tierField = 0
	u.status = ""
	return nil
}

func (u *widget) closeTiers(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.tiersOpen = false
	u.status = ""
	return nil
}

func (u *widget) tierDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.tierSelected < len(u.tracker.Tiers())-1 {
		u.tierSelected++
	}
	return nil
}

func (u *widget) tierUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.tierSelected > 0 {
		u.tierSelected--
	}
	return nil
}

func (u *widget) nextTierField(_ *gocui.Gui, _ *gocui.View) error {
	u.tierField = (u.tierField + 1) % len(tierFields)
	return nil
}

func (u *widget) openTierEdit(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	tiers := u.tracker.Tiers()
	if len(tiers) == 0 {
		return nil
	}
	u.tierSelected = clamp(u.tierSelected, len(tiers))
	field := tierFields[u.tierField]
	u.input = &inputState{
		kind:  inputTierField,
		title: fmt.Sprintf("%s, tier %d", tierFieldTitles[field], u.tierSelected+1),
		value: tierValue(tiers[u.tierSelected], field),
	}
	return nil
}

func (u *widget) addTier(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.tracker.AddTier()
	u.tierSelected = len(u.tracker.Tiers()) - 1
	return nil
}

func (u *widget) removeTier(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if !u.tracker.RemoveTier(u.tierSelected) {
		u.status = "at least one tier is required"
		return nil
	}
	u.tierSelected = clamp(u.tierSelected, len(u.tracker.Tiers()))
	u.status = ""
	return nil
}

func (u *widget) showTiers(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	tiers := u.tracker.Tiers()
	width := max(44, maxX/2)
	height := min(len(tiers)+2, maxY-4)
	x0 := (maxX - width) / 2
	y0 := max((maxY-height)/2-1, 1)

	view, err := gui.SetView(viewTiers, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Story points"
	}
	applyViewStyle(view, u.input == nil)
	u.renderTiers(view, tiers)
	_, _ = gui.SetViewOnTop(viewTiers)
	return nil
}

func (u *widget) renderTiers(view *gocui.View, tiers []model.Tier) {
	view.Clear()
	fmt.Fprintln(view, "   points   min h    max h    range")
	u.tierSelected = clamp(u.tierSelected, len(tiers))
	for i, tier := range tiers {
		field := -1
		if i == u.tierSelected {
			field = u.tierField
		}
		fmt.Fprintln(view, tierRow(tier, i == u.tierSelected, field))
	}
}

// tierRow renders a tier with the column at field (an index into
// tierFields, or -1) wrapped in brackets.
func tierRow(tier model.Tier, selected bool, field int) string {
	cells := make([]string, len(tierFields))
	for i, name := range tierFields {
		cell := tierValue(tier, name)
		if i == field {
			cell = "[" + cell + "]"
		}
		cells[i] = cell
	}
	prefix := " "
	if selected {
		prefix = ">"
	}
	return fmt.Sprintf("%s  %-8s %-8s %-8s %s", prefix, cells[0], cells[1], cells[2], points.Label(tier))
}

func tierValue(tier model.Tier, field string) string {
	switch field {
	case points.FieldPoints:
		return strconv.Itoa(tier.Points)
	case points.FieldMinHours:
		return timecalc.FormatHours(tier.MinHours)
	default:
		return timecalc.FormatHours(tier.MaxHours)
	}
}
