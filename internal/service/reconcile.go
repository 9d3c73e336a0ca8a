package service

import (
	"furnisher/internal/model"
)

// ReconcileOptions controls forced preservation of prior picks
type ReconcileOptions struct {
	// Preserve is set on turns that carried structural commands: untouched
	// prior lines then keep their item and quantity whatever the selector chose
	Preserve bool
	Touched  map[string]bool
}

// ReconcileResult is the final set of selections and their deltas
type ReconcileResult struct {
	Selections      []model.Selection
	Unmet           []model.UnmetLine
	Deltas          []model.LineDelta
	TotalDeltaMinor int64
}

// Reconciler compares a turn's selections with the previous turn
type Reconciler struct{}

// NewReconciler creates a reconciler
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Reconcile merges fresh results with prior selections and computes per-line
// deltas keyed by line key
func (r *Reconciler) Reconcile(results []LineResult, prior []model.Selection, opts ReconcileOptions) ReconcileResult {
	priorByKey := make(map[string]model.Selection, len(prior))
	for _, s := range prior {
		if _, seen := priorByKey[s.Line.Key()]; !seen {
			priorByKey[s.Line.Key()] = s
		}
	}

	var out ReconcileResult
	seen := make(map[string]bool, len(results))
	for _, res := range results {
		key := res.Line.Key()
		seen[key] = true

		if opts.Preserve && !opts.Touched[key] {
			if p, ok := priorByKey[key]; ok {
				kept := p
				kept.Line = res.Line.WithQuantity(p.Line.Quantity)
				if res.Selection == nil || res.Selection.Item.ID != p.Item.ID {
					kept.Reason = model.ReasonReused
				} else {
					kept.Matched = res.Selection.Matched
				}
				out.Selections = append(out.Selections, kept)
				continue
			}
		}

		if res.Selection != nil {
			out.Selections = append(out.Selections, *res.Selection)
		} else if res.Unmet != nil {
			out.Unmet = append(out.Unmet, *res.Unmet)
		}
	}

	current := make(map[string]bool, len(out.Selections))
	for _, s := range out.Selections {
		key := s.Line.Key()
		current[key] = true
		d := lineDelta(s, priorByKey[key], priorByKey[key].Item.ID != 0)
		out.Deltas = append(out.Deltas, d)
		out.TotalDeltaMinor += d.DeltaMinor
	}
	for _, p := range prior {
		key := p.Line.Key()
		if current[key] {
			continue
		}
		current[key] = true
		prevID := p.Item.ID
		d := model.LineDelta{
			Key:        key,
			Room:       p.Line.Room,
			Type:       p.Line.Type,
			Subtype:    p.Line.Specs.Subtype,
			Reason:     model.DeltaRemoved,
			PrevItemID: &prevID,
			PrevQty:    p.Line.Quantity,
			DeltaMinor: -p.LineTotalMinor(),
		}
		out.Deltas = append(out.Deltas, d)
		out.TotalDeltaMinor += d.DeltaMinor
	}
	return out
}

func lineDelta(next, prev model.Selection, hadPrev bool) model.LineDelta {
	newID := next.Item.ID
	d := model.LineDelta{
		Key:       next.Line.Key(),
		Room:      next.Line.Room,
		Type:      next.Line.Type,
		Subtype:   next.Line.Specs.Subtype,
		NewItemID: &newID,
		NewQty:    next.Line.Quantity,
	}
	if !hadPrev {
		d.Reason = model.DeltaAdded
		d.DeltaMinor = next.LineTotalMinor()
		return d
	}

	prevID := prev.Item.ID
	d.PrevItemID = &prevID
	d.PrevQty = prev.Line.Quantity
	d.DeltaMinor = next.LineTotalMinor() - prev.LineTotalMinor()

	switch {
	case prev.Item.ID != next.Item.ID:
		d.Reason = model.DeltaReplaced
	case prev.Line.Quantity != next.Line.Quantity:
		d.Reason = model.DeltaQty
	case prev.Item.PriceMinor != next.Item.PriceMinor:
		d.Reason = model.DeltaPrice
	default:
		d.Reason = model.DeltaUnchanged
	}
	return d
}

// BuildQuotation prices the selections and checks them against the budget
func BuildQuotation(res ReconcileResult, budget *model.Budget) model.Quotation {
	q := model.Quotation{
		Items:           make([]model.QuotationItem, 0, len(res.Selections)),
		Deltas:          res.Deltas,
		TotalDeltaMinor: res.TotalDeltaMinor,
	}
	var perItemOver int64
	for _, s := range res.Selections {
		total := s.LineTotalMinor()
		q.Items = append(q.Items, model.QuotationItem{
			Room:           s.Line.Room,
			Type:           s.Line.Type,
			Subtype:        s.Line.Specs.Subtype,
			Item:           s.Item,
			Quantity:       s.Line.Quantity,
			UnitPriceMinor: s.Item.PriceMinor,
			LineTotalMinor: total,
			Reason:         s.Reason,
			Matched:        s.Matched,
		})
		q.TotalMinor += total
		if budget != nil && budget.Scope == model.BudgetPerItem && budget.Amount > 0 {
			if over := s.Item.PriceMinor - model.MinorUnits(budget.Amount); over > 0 {
				perItemOver += over * int64(s.Line.Quantity)
			}
		}
	}
	if q.Deltas == nil {
		q.Deltas = []model.LineDelta{}
	}
	q.TotalEstimate = float64(q.TotalMinor) / 100

	if budget != nil && budget.Amount > 0 {
		switch budget.Scope {
		case model.BudgetPerItem:
			if perItemOver > 0 {
				q.OverBudget = true
				q.BudgetOverByMinor = perItemOver
			}
		default:
			if limit := model.MinorUnits(budget.Amount); q.TotalMinor > limit {
				q.OverBudget = true
				q.BudgetOverByMinor = q.TotalMinor - limit
			}
		}
	}
	return q
}
