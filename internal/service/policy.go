package service

import (
	"furnisher/internal/model"
)

// baseCeilings are economy price ceilings in rupees for homes of up to 2, 3
// and 4+ BHK. Keys are "type" or "type/subtype"; the subtype entry wins.
var baseCeilings = map[string][3]float64{
	"sofa":                {35000, 45000, 55000},
	"sofa/corner_sofa":    {55000, 70000, 85000},
	"sofa_bed":            {30000, 38000, 45000},
	"chair":               {6000, 7500, 9000},
	"chair/dining_chair":  {5000, 6500, 8000},
	"chair/office_chair":  {9000, 11000, 13000},
	"chair/armchair":      {14000, 17000, 20000},
	"table":               {10000, 12000, 15000},
	"table/coffee_table":  {12000, 15000, 18000},
	"table/dining_table":  {30000, 38000, 45000},
	"table/bedside_table": {6000, 7000, 8000},
	"table/side_table":    {5000, 6000, 7000},
	"tv_bench":            {15000, 18000, 22000},
	"bed":                 {30000, 38000, 45000},
	"wardrobe":            {35000, 42000, 50000},
	"mirror":              {5000, 6000, 7000},
	"mirror_cabinet":      {8000, 10000, 12000},
	"cabinet":             {15000, 18000, 22000},
	"bookcase":            {12000, 15000, 18000},
	"shelf":               {5000, 6000, 7500},
	"storage_combination": {20000, 25000, 30000},
	"lamp":                {4000, 5000, 6000},
	"stool":               {3000, 3500, 4500},
	"shoe_rack":           {5000, 6000, 7000},
	"washstand":           {15000, 18000, 22000},
	"desk":                {15000, 18000, 22000},
	"drawer":              {10000, 12000, 15000},
}

var tierMultiplier = map[model.Tier]float64{
	model.TierEconomy: 1.0,
	model.TierPremium: 1.4,
	model.TierLuxury:  1.9,
}

// PolicyContext is what the budget policy reads besides the lines
type PolicyContext struct {
	Plan         *model.RoomPlan
	StyleChanged bool
}

// BudgetPolicy attaches price ceilings, minimum seat counts and BHK context
// to requested lines
type BudgetPolicy struct{}

// NewBudgetPolicy creates a budget policy
func NewBudgetPolicy() *BudgetPolicy {
	return &BudgetPolicy{}
}

// BaseCeiling is the unscaled ceiling of a line for a tier and home size
func BaseCeiling(line model.RequestedLine, bhk int, tier model.Tier) float64 {
	band, ok := baseCeilings[line.TypeKey()]
	if !ok {
		band, ok = baseCeilings[string(line.Type)]
	}
	if !ok {
		band = [3]float64{10000, 12000, 15000}
	}

	var base float64
	switch {
	case bhk <= 2:
		base = band[0]
	case bhk == 3:
		base = band[1]
	default:
		base = band[2]
	}

	m, ok := tierMultiplier[tier]
	if !ok {
		m = 1
	}
	base *= m

	if line.Room == model.MasterBedroom && (line.Type == model.TypeBed || line.Type == model.TypeWardrobe) {
		base *= 1.15
	}
	return base
}

// Annotate returns copies of lines with ceilings and seat floors attached.
// A per-item budget caps every ceiling; a total budget scales all ceilings
// down when their quantity-weighted sum exceeds it.
func (p *BudgetPolicy) Annotate(lines []model.RequestedLine, pc PolicyContext) []model.RequestedLine {
	plan := pc.Plan
	if plan == nil {
		plan = &model.RoomPlan{Tier: model.TierEconomy}
	}
	bhk := plan.BHK
	if bhk == 0 {
		bhk = countBedrooms(plan.Rooms)
	}

	out := make([]model.RequestedLine, len(lines))
	sum := 0.0
	for i, l := range lines {
		ceiling := BaseCeiling(l, bhk, plan.Tier)
		if plan.Budget != nil && plan.Budget.Scope == model.BudgetPerItem && plan.Budget.Amount > 0 && ceiling > plan.Budget.Amount {
			ceiling = plan.Budget.Amount
		}
		line := l.WithCeiling(ceiling)
		line.BHKContext = plan.BHK
		line.MinSeats = 0
		if !pc.StyleChanged {
			line.MinSeats = minSeatsFor(line, plan)
		}
		out[i] = line
		sum += ceiling * float64(line.Quantity)
	}

	if plan.Budget != nil && plan.Budget.Scope == model.BudgetTotal && plan.Budget.Amount > 0 && sum > plan.Budget.Amount {
		factor := plan.Budget.Amount / sum
		for i := range out {
			out[i] = out[i].WithCeiling(*out[i].PriceCeiling * factor)
		}
	}
	return out
}

// minSeatsFor derives a sofa seat floor from the living room width. An
// explicit seater request from the user takes precedence.
func minSeatsFor(line model.RequestedLine, plan *model.RoomPlan) int {
	if line.Type != model.TypeSofa || line.Specs.SeaterCount > 0 {
		return 0
	}
	if model.RoomKindOf(line.Room) != model.RoomLiving {
		return 0
	}
	width := 0.0
	for _, d := range plan.RoomDims {
		if model.RoomKindOf(d.Room) == model.RoomLiving {
			width = d.Width
			if d.Length > width {
				width = d.Length
			}
		}
	}
	switch {
	case width >= 14:
		return 5
	case width >= 12:
		return 4
	case width >= 10:
		return 3
	}
	return 0
}
