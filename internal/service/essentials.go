package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"furnisher/internal/model"
	"furnisher/internal/pkg/logger"
)

// EssentialsProposer suggests extra lines for a plan; implemented by the LLM client
type EssentialsProposer interface {
	ProposeEssentials(ctx context.Context, in model.ProposalInput) ([]model.RequestedLine, error)
}

type essential struct {
	typ     model.ItemType
	subtype string
	qty     int
}

// baselineByKind is the deterministic furnishing of each room kind
var baselineByKind = map[string][]essential{
	model.RoomLiving: {
		{model.TypeSofa, "", 1},
		{model.TypeTVBench, "", 1},
		{model.TypeTable, "coffee_table", 1},
		{model.TypeLamp, "floor_lamp", 1},
	},
	model.RoomBedroom: {
		{model.TypeBed, "", 1},
		{model.TypeWardrobe, "", 1},
		{model.TypeTable, "bedside_table", 1},
		{model.TypeMirror, "", 1},
	},
	model.RoomDining: {
		{model.TypeTable, "dining_table", 1},
		{model.TypeChair, "dining_chair", 4},
	},
	model.RoomKitchen: {
		{model.TypeCabinet, "kitchen_cabinet", 1},
		{model.TypeShelf, "wall_shelf", 1},
	},
	model.RoomBathroom: {
		{model.TypeMirrorCabinet, "", 1},
		{model.TypeWashstand, "", 1},
	},
	model.RoomStudy: {
		{model.TypeDesk, "", 1},
		{model.TypeChair, "office_chair", 1},
		{model.TypeBookcase, "", 1},
		{model.TypeLamp, "desk_lamp", 1},
	},
	model.RoomBalcony: {
		{model.TypeChair, "outdoor_chair", 2},
		{model.TypeTable, "side_table", 1},
	},
	model.RoomEntrance: {
		{model.TypeShoeRack, "", 1},
		{model.TypeMirror, "", 1},
	},
}

// EssentialsExpander turns a room plan into requested lines
type EssentialsExpander struct {
	proposer EssentialsProposer
	timeout  time.Duration
	logger   logger.ILogger
	metrics  *Metrics
}

// NewEssentialsExpander creates an expander; proposer may be nil
func NewEssentialsExpander(proposer EssentialsProposer, timeout time.Duration, log logger.ILogger, metrics *Metrics) *EssentialsExpander {
	if log == nil {
		log = logger.NewNop()
	}
	return &EssentialsExpander{proposer: proposer, timeout: timeout, logger: log, metrics: metrics}
}

// Baseline returns the deterministic essentials of every room of the plan
func (e *EssentialsExpander) Baseline(plan *model.RoomPlan) []model.RequestedLine {
	var lines []model.RequestedLine
	for _, room := range plan.Rooms {
		kind := model.RoomKindOf(room)
		for _, ess := range baselineByKind[kind] {
			qty := ess.qty
			switch {
			case ess.subtype == "dining_chair":
				qty = diningChairs(plan.Tier)
			case ess.subtype == "bedside_table" && room == model.MasterBedroom:
				qty = 2
			}
			lines = append(lines, model.RequestedLine{
				Type:       ess.typ,
				Quantity:   qty,
				Room:       room,
				Specs:      model.Specs{Subtype: ess.subtype},
				Origin:     model.OriginEssential,
				BHKContext: plan.BHK,
			})
		}
		if kind == model.RoomLiving && plan.SizeTier == "large" {
			lines = append(lines, model.RequestedLine{
				Type: model.TypeChair, Quantity: 1, Room: room,
				Specs: model.Specs{Subtype: "armchair"}, Origin: model.OriginEssential, BHKContext: plan.BHK,
			})
		}
		if kind == model.RoomKitchen && plan.SizeTier == "large" {
			lines = append(lines, model.RequestedLine{
				Type: model.TypeStool, Quantity: 2, Room: room,
				Specs: model.Specs{Subtype: "bar_stool"}, Origin: model.OriginEssential, BHKContext: plan.BHK,
			})
		}
	}
	return lines
}

// tierQuantity returns the baseline quantity of a slot whose count depends on
// the budget tier
func tierQuantity(l model.RequestedLine, tier model.Tier) (int, bool) {
	if l.Type == model.TypeChair && l.Specs.Subtype == "dining_chair" {
		return diningChairs(tier), true
	}
	return 0, false
}

func diningChairs(tier model.Tier) int {
	switch tier {
	case model.TierLuxury:
		return 8
	case model.TierPremium:
		return 6
	}
	return 4
}

// Expand returns the baseline merged with validated proposals. Any proposer
// failure, including a timeout, yields the baseline alone.
func (e *EssentialsExpander) Expand(ctx context.Context, plan *model.RoomPlan, themes []model.StyleWeight) []model.RequestedLine {
	lines := e.Baseline(plan)
	if e.proposer == nil {
		return lines
	}

	pctx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	proposed, err := e.proposer.ProposeEssentials(pctx, model.ProposalInput{
		Rooms:         plan.Rooms,
		ExcludedRooms: plan.ExcludedRooms,
		BHK:           plan.BHK,
		AreaSqft:      plan.AreaSqft,
		Budget:        plan.Budget,
		Tier:          plan.Tier,
		Themes:        themes,
	})
	if err != nil {
		e.logger.Warn("ESSENTIALS", "Proposal failed, using baseline", map[string]interface{}{"error": err.Error()})
		e.metrics.LLMFallback("essentials")
		return lines
	}

	return mergeProposals(lines, validateProposals(proposed, plan))
}

// validateProposals keeps proposals whose type is in the taxonomy and whose
// room belongs to the plan
func validateProposals(proposed []model.RequestedLine, plan *model.RoomPlan) []model.RequestedLine {
	var out []model.RequestedLine
	for _, p := range proposed {
		t, ok := model.ParseItemType(string(p.Type))
		if !ok {
			continue
		}
		room, ok := model.NormalizeRoom(p.Room)
		if !ok {
			continue
		}
		room = resolveRoomName(room, plan.Rooms)
		if !plan.HasRoom(room) {
			continue
		}
		qty := p.Quantity
		if qty < 1 {
			qty = 1
		}
		if qty > 12 {
			qty = 12
		}
		subtype := strings.ToLower(strings.TrimSpace(p.Specs.Subtype))
		subtype = strings.ReplaceAll(subtype, " ", "_")
		out = append(out, model.RequestedLine{
			Type:       t,
			Quantity:   qty,
			Room:       room,
			Specs:      model.Specs{Subtype: subtype},
			Origin:     model.OriginProposal,
			BHKContext: plan.BHK,
		})
	}
	return out
}

// mergeProposals unions lines by (room, type, subtype), keeping the larger quantity
func mergeProposals(base, proposed []model.RequestedLine) []model.RequestedLine {
	out := model.CloneLines(base)
	index := make(map[string]int, len(out))
	for i, l := range out {
		index[l.Room+"|"+l.TypeKey()] = i
	}
	for _, p := range proposed {
		key := p.Room + "|" + p.TypeKey()
		if i, ok := index[key]; ok {
			if p.Quantity > out[i].Quantity {
				out[i] = out[i].WithQuantity(p.Quantity)
			}
			continue
		}
		index[key] = len(out)
		out = append(out, p)
	}
	return out
}

// carryOver keeps the prior version of every slot that survives a re-plan and
// re-attaches user lines whose room is still planned. An essential slot still
// at the previous tier's baseline quantity follows the new tier.
func carryOver(fresh, prior []model.RequestedLine, plan *model.RoomPlan, priorTier model.Tier) []model.RequestedLine {
	slot := func(l model.RequestedLine) string {
		return l.Room + "|" + l.TypeKey() + "|" + strconv.Itoa(l.Ordinal)
	}
	priorBySlot := make(map[string]model.RequestedLine, len(prior))
	for _, l := range prior {
		if _, seen := priorBySlot[slot(l)]; !seen {
			priorBySlot[slot(l)] = l
		}
	}

	out := make([]model.RequestedLine, 0, len(fresh))
	used := make(map[string]bool)
	for _, l := range fresh {
		if p, ok := priorBySlot[slot(l)]; ok {
			kept := p.Clone()
			kept.BHKContext = l.BHKContext
			if was, ok := tierQuantity(p, priorTier); ok && p.Origin == model.OriginEssential && p.Quantity == was {
				kept.Quantity = l.Quantity
			}
			out = append(out, kept)
			used[slot(l)] = true
			continue
		}
		out = append(out, l)
	}
	for _, l := range prior {
		if l.Origin != model.OriginUser || used[slot(l)] || !plan.HasRoom(l.Room) {
			continue
		}
		used[slot(l)] = true
		out = append(out, l.Clone())
	}
	return out
}
