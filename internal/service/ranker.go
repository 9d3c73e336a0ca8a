package service

import (
	"sort"

	"furnisher/internal/model"
	"furnisher/internal/utils"
)

// Match reason constants
const (
	ReasonRequestedItem = "Requested item"
	ReasonKept          = "Kept from last turn"
	ReasonStyleMatch    = "Style match"
	ReasonWithinBudget  = "Within budget"
	ReasonSeatsMatch    = "Seats for room width"
	ReasonSeaterMatch   = "Seater match"
	ReasonMaterialMatch = "Material match"
	ReasonSizeMatch     = "Size match"
	ReasonShapeMatch    = "Shape match"
	ReasonGeneralMatch  = "General match"
)

// Ranker orders candidates by style affinity and explains selections
type Ranker struct{}

// NewRanker creates a new ranker
func NewRanker() *Ranker {
	return &Ranker{}
}

type scoredItem struct {
	item  model.CatalogItem
	score float64
}

// Rerank scores items against the style profile. Positive scorers are kept
// when there are any; the result is sorted by score desc, then price desc.
// Without a profile the input order is preserved.
func (r *Ranker) Rerank(items []model.CatalogItem, profile *StyleProfile, roomKind string) []model.CatalogItem {
	if profile.Empty() || len(items) == 0 {
		return items
	}

	scored := make([]scoredItem, 0, len(items))
	positive := 0
	for _, it := range items {
		s := profile.Score(it.SearchText(), roomKind)
		if s > 0 {
			positive++
		}
		scored = append(scored, scoredItem{item: it, score: s})
	}

	if positive > 0 {
		kept := scored[:0]
		for _, s := range scored {
			if s.score > 0 {
				kept = append(kept, s)
			}
		}
		scored = kept
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].item.PriceMinor > scored[j].item.PriceMinor
	})

	out := make([]model.CatalogItem, len(scored))
	for i, s := range scored {
		out[i] = s.item
	}
	return out
}

// MatchedReasons generates human-readable reasons for why an item was chosen for a line
func (r *Ranker) MatchedReasons(line model.RequestedLine, item model.CatalogItem, reason model.SelectionReason, profile *StyleProfile) []string {
	reasons := []string{}

	switch reason {
	case model.ReasonPreferred:
		reasons = append(reasons, ReasonRequestedItem)
	case model.ReasonReused:
		reasons = append(reasons, ReasonKept)
	}

	text := item.SearchText()
	if !profile.Empty() && profile.Score(text, model.RoomKindOf(line.Room)) > 0 {
		reasons = append(reasons, ReasonStyleMatch)
	}
	if line.PriceCeiling != nil && item.PriceMinor <= model.MinorUnits(*line.PriceCeiling) {
		reasons = append(reasons, ReasonWithinBudget)
	}
	if line.MinSeats > 0 && SeatCount(item) >= line.MinSeats {
		reasons = append(reasons, ReasonSeatsMatch)
	}
	if line.Specs.SeaterCount > 0 && SeatCount(item) == line.Specs.SeaterCount {
		reasons = append(reasons, ReasonSeaterMatch)
	}
	if line.Specs.Material != "" && utils.FuzzyMatchMaterial(line.Specs.Material, text) {
		reasons = append(reasons, ReasonMaterialMatch)
	}
	if line.Specs.Size != "" && utils.ContainsWord(text, line.Specs.Size) {
		reasons = append(reasons, ReasonSizeMatch)
	}
	if shapeMatches(line.Specs.Shape, text) {
		reasons = append(reasons, ReasonShapeMatch)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}
	return reasons
}
