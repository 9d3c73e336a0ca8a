package service

import (
	"sort"
	"strings"

	"furnisher/internal/model"
)

// PlanInput is everything the room planner reads for one turn
type PlanInput struct {
	Delta        *model.RequirementDelta
	Hint         *model.FloorPlanHint
	Prior        *model.RoomPlan
	HasQuotation bool
	Excluded     []string
}

// RoomPlanner resolves the set of rooms, size and budget tier of a turn
type RoomPlanner struct{}

// NewRoomPlanner creates a room planner
func NewRoomPlanner() *RoomPlanner {
	return &RoomPlanner{}
}

// SplitExclusions decides what "without X" phrases and whole-room removals
// mean this turn. On an initial turn without modification words they exclude
// rooms from planning; afterwards they remove rooms from the quotation.
func (r *RoomPlanner) SplitExclusions(delta *model.RequirementDelta, hasQuotation bool) ([]string, []model.Command) {
	initial := !hasQuotation && !delta.Modification

	var excluded []string
	var commands []model.Command
	for _, room := range delta.ExcludedRooms {
		if initial {
			excluded = append(excluded, room)
			continue
		}
		commands = append(commands, model.Command{Verb: model.VerbRemove, Room: room, WholeRoom: true})
	}
	for _, cmd := range delta.Commands {
		if cmd.WholeRoom && !hasQuotation {
			excluded = append(excluded, cmd.Room)
			continue
		}
		commands = append(commands, cmd)
	}
	return dedupeStrings(excluded), commands
}

// Resolve produces the room plan for the turn
func (r *RoomPlanner) Resolve(in PlanInput) *model.RoomPlan {
	delta := in.Delta
	if delta == nil {
		delta = &model.RequirementDelta{}
	}
	prior := in.Prior
	hint := in.Hint

	plan := &model.RoomPlan{}

	bhkChanged := false
	switch {
	case delta.BHK != nil:
		plan.BHK = *delta.BHK
		bhkChanged = prior == nil || prior.BHK != plan.BHK
	case hint != nil && hint.BHK != nil:
		plan.BHK = *hint.BHK
		bhkChanged = prior == nil || prior.BHK != plan.BHK
	case prior != nil:
		plan.BHK = prior.BHK
	}

	switch {
	case delta.AreaSqft != nil:
		plan.AreaSqft = delta.AreaSqft
	case hint != nil && hint.AreaSqft != nil:
		plan.AreaSqft = hint.AreaSqft
	case prior != nil:
		plan.AreaSqft = prior.AreaSqft
	}

	switch {
	case delta.Budget != nil:
		b := *delta.Budget
		plan.Budget = &b
	case prior != nil && prior.Budget != nil:
		b := *prior.Budget
		plan.Budget = &b
	}

	plan.RoomDims = mergeDims(prior, hint, delta.RoomDims)

	mentioned, namedBedrooms := planningRooms(delta.Rooms)

	excluded := make(map[string]bool)
	if prior != nil {
		for _, room := range prior.ExcludedRooms {
			excluded[room] = true
		}
	}
	for _, room := range mentioned {
		delete(excluded, room)
	}
	for _, room := range in.Excluded {
		excluded[room] = true
	}

	var rooms []string
	switch {
	case delta.OnlyRooms && len(mentioned) > 0:
		rooms = mentioned
		plan.ExplicitRooms = true
	case prior == nil || bhkChanged:
		var hintRooms []string
		if hint != nil {
			for _, room := range hint.Rooms {
				if name, ok := model.NormalizeRoom(room); ok {
					hintRooms = append(hintRooms, name)
				}
			}
		}
		switch {
		case plan.BHK > 0:
			rooms = bhkRooms(plan.BHK, namedBedrooms)
			rooms = append(rooms, mentioned...)
			rooms = append(rooms, hintRooms...)
			if prior != nil {
				for _, room := range prior.Rooms {
					if model.RoomKindOf(room) != model.RoomBedroom {
						rooms = append(rooms, room)
					}
				}
			}
		case len(mentioned) > 0:
			rooms = mentioned
			plan.ExplicitRooms = true
		case len(hintRooms) > 0:
			rooms = hintRooms
		default:
			plan.BHK = 1
			plan.Defaulted = true
			rooms = bhkRooms(1, nil)
		}
	default:
		rooms = append(append([]string(nil), prior.Rooms...), mentioned...)
		plan.ExplicitRooms = prior.ExplicitRooms
	}

	var kept []string
	for _, room := range dedupeStrings(rooms) {
		if !excluded[room] {
			kept = append(kept, room)
		}
	}
	plan.Rooms = sortRooms(kept)

	for room := range excluded {
		plan.ExcludedRooms = append(plan.ExcludedRooms, room)
	}
	sort.Strings(plan.ExcludedRooms)

	bhkForTier := plan.BHK
	if bhkForTier == 0 {
		bhkForTier = countBedrooms(plan.Rooms)
	}
	plan.Tier = TierFor(bhkForTier, plan.Budget)
	plan.SizeTier = SizeTierFor(plan.AreaSqft, bhkForTier)
	return plan
}

// WithRoomChanges applies rooms added or removed by commands to a plan
func (r *RoomPlanner) WithRoomChanges(plan *model.RoomPlan, added, removed []string) *model.RoomPlan {
	if len(added) == 0 && len(removed) == 0 {
		return plan
	}
	out := *plan
	gone := make(map[string]bool)
	for _, room := range removed {
		gone[room] = true
	}
	var rooms []string
	for _, room := range append(append([]string(nil), plan.Rooms...), added...) {
		if !gone[room] {
			rooms = append(rooms, room)
		}
	}
	out.Rooms = sortRooms(dedupeStrings(rooms))
	out.ExcludedRooms = dedupeStrings(append(append([]string(nil), plan.ExcludedRooms...), removed...))
	sort.Strings(out.ExcludedRooms)
	return &out
}

// PlanChanged reports whether essentials must be re-derived
func PlanChanged(prev, next *model.RoomPlan) bool {
	if prev == nil || next == nil {
		return prev != next
	}
	if prev.BHK != next.BHK || prev.Tier != next.Tier || prev.SizeTier != next.SizeTier {
		return true
	}
	if len(prev.Rooms) != len(next.Rooms) {
		return true
	}
	for i := range prev.Rooms {
		if prev.Rooms[i] != next.Rooms[i] {
			return true
		}
	}
	return false
}

// planningRooms resolves guest and kids aliases into numbered bedrooms and
// reports whether any bedroom was named specifically
func planningRooms(mentions []string) ([]string, []string) {
	var rooms, named []string
	next := 2
	for _, m := range mentions {
		if strings.HasPrefix(m, "bedroom ") {
			next++
		}
	}
	for _, m := range mentions {
		room := m
		if m == roomGuestAlias || m == roomKidsAlias {
			room = model.BedroomName(next)
			next++
		}
		rooms = append(rooms, room)
		if room != model.RoomBedroom && model.RoomKindOf(room) == model.RoomBedroom {
			named = append(named, room)
		}
	}
	return dedupeStrings(rooms), dedupeStrings(named)
}

// bhkRooms is the default room set of an n-BHK home. Explicitly named
// bedrooms replace the BHK-driven bedroom expansion.
func bhkRooms(bhk int, namedBedrooms []string) []string {
	rooms := []string{model.RoomLiving, model.RoomKitchen}
	if len(namedBedrooms) > 0 {
		rooms = append(rooms, namedBedrooms...)
	} else {
		rooms = append(rooms, model.ExpandBedrooms(bhk)...)
	}
	return append(rooms, model.RoomBathroom)
}

func mergeDims(prior *model.RoomPlan, hint *model.FloorPlanHint, fresh []model.RoomDims) []model.RoomDims {
	byRoom := make(map[string]model.RoomDims)
	var order []string
	put := func(d model.RoomDims) {
		room, ok := model.NormalizeRoom(d.Room)
		if !ok {
			room = d.Room
		}
		d.Room = room
		if _, seen := byRoom[room]; !seen {
			order = append(order, room)
		}
		byRoom[room] = d
	}
	if prior != nil {
		for _, d := range prior.RoomDims {
			put(d)
		}
	}
	if hint != nil {
		for _, d := range hint.RoomDimensions {
			put(d)
		}
	}
	for _, d := range fresh {
		put(d)
	}
	out := make([]model.RoomDims, 0, len(order))
	for _, room := range order {
		out = append(out, byRoom[room])
	}
	return out
}

var roomRank = map[string]int{
	model.RoomLiving:   0,
	model.RoomDining:   1,
	model.RoomKitchen:  2,
	model.RoomBedroom:  3,
	model.RoomStudy:    4,
	model.RoomBathroom: 5,
	model.RoomBalcony:  6,
	model.RoomEntrance: 7,
}

// sortRooms orders rooms by kind, bedrooms by number
func sortRooms(rooms []string) []string {
	out := append([]string(nil), rooms...)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := roomRank[model.RoomKindOf(out[i])], roomRank[model.RoomKindOf(out[j])]
		if ki != kj {
			return ki < kj
		}
		return bedroomIndex(out[i]) < bedroomIndex(out[j])
	})
	return out
}

func bedroomIndex(room string) int {
	switch room {
	case model.MasterBedroom:
		return 1
	case model.RoomBedroom:
		return 0
	}
	for i := 2; i < 20; i++ {
		if room == model.BedroomName(i) {
			return i
		}
	}
	return 99
}

func countBedrooms(rooms []string) int {
	n := 0
	for _, room := range rooms {
		if model.RoomKindOf(room) == model.RoomBedroom {
			n++
		}
	}
	return n
}

// TierFor classifies a budget against the size of the home. Without a
// budget large homes default to premium.
func TierFor(bhk int, budget *model.Budget) model.Tier {
	if budget == nil || budget.Amount <= 0 {
		if bhk >= 3 {
			return model.TierPremium
		}
		return model.TierEconomy
	}

	if budget.Scope == model.BudgetPerItem {
		switch {
		case budget.Amount < 25000:
			return model.TierEconomy
		case budget.Amount < 60000:
			return model.TierPremium
		}
		return model.TierLuxury
	}

	var economyBelow, premiumBelow float64
	switch {
	case bhk <= 1:
		economyBelow, premiumBelow = 250000, 500000
	case bhk == 2:
		economyBelow, premiumBelow = 400000, 800000
	case bhk == 3:
		economyBelow, premiumBelow = 600000, 1200000
	default:
		economyBelow, premiumBelow = 900000, 1800000
	}
	switch {
	case budget.Amount < economyBelow:
		return model.TierEconomy
	case budget.Amount < premiumBelow:
		return model.TierPremium
	}
	return model.TierLuxury
}

// SizeTierFor buckets a home by carpet area, falling back to its BHK
func SizeTierFor(area *float64, bhk int) string {
	if area != nil && *area > 0 {
		switch {
		case *area < 700:
			return "small"
		case *area < 1400:
			return "medium"
		}
		return "large"
	}
	switch {
	case bhk <= 1:
		return "small"
	case bhk == 2:
		return "medium"
	}
	return "large"
}
