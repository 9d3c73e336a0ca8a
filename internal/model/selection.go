package model

// SelectionReason explains how a line was resolved
type SelectionReason string

const (
	ReasonOK        SelectionReason = "ok"
	ReasonReused    SelectionReason = "reused"
	ReasonPreferred SelectionReason = "preferred"
	ReasonNoMatch   SelectionReason = "no_match"
	ReasonError     SelectionReason = "error"
)

// Selection binds a requested line to one catalog item
type Selection struct {
	Line    RequestedLine   `json:"line"`
	Item    CatalogItem     `json:"item"`
	Reason  SelectionReason `json:"reason"`
	Matched []string        `json:"matched,omitempty"`
}

// LineTotalMinor returns quantity times unit price
func (s Selection) LineTotalMinor() int64 {
	return int64(s.Line.Quantity) * s.Item.PriceMinor
}

// UnmetLine is a line no catalog item could satisfy
type UnmetLine struct {
	Line   RequestedLine   `json:"line"`
	Reason SelectionReason `json:"reason"`
	Tried  []string        `json:"tried,omitempty"`
}

// DeltaReason classifies a per-line price delta
type DeltaReason string

const (
	DeltaAdded     DeltaReason = "added"
	DeltaRemoved   DeltaReason = "removed"
	DeltaReplaced  DeltaReason = "replaced"
	DeltaQty       DeltaReason = "qty"
	DeltaPrice     DeltaReason = "price"
	DeltaUnchanged DeltaReason = "unchanged"
)

// LineDelta is the change of one line against the previous turn
type LineDelta struct {
	Key        string      `json:"key"`
	Room       string      `json:"room"`
	Type       ItemType    `json:"type"`
	Subtype    string      `json:"subtype,omitempty"`
	Reason     DeltaReason `json:"reason"`
	PrevItemID *int64      `json:"prev_item_id,omitempty"`
	NewItemID  *int64      `json:"new_item_id,omitempty"`
	PrevQty    int         `json:"prev_qty"`
	NewQty     int         `json:"new_qty"`
	DeltaMinor int64       `json:"delta_minor"`
}

// QuotationItem is one priced row of a quotation
type QuotationItem struct {
	Room           string          `json:"room"`
	Type           ItemType        `json:"type"`
	Subtype        string          `json:"subtype,omitempty"`
	Item           CatalogItem     `json:"item"`
	Quantity       int             `json:"quantity"`
	UnitPriceMinor int64           `json:"unit_price_minor"`
	LineTotalMinor int64           `json:"line_total_minor"`
	Reason         SelectionReason `json:"reason"`
	Matched        []string        `json:"matched,omitempty"`
}

// Quotation is derived from selections every turn and never stored
type Quotation struct {
	Items             []QuotationItem `json:"items"`
	TotalMinor        int64           `json:"total_minor"`
	TotalEstimate     float64         `json:"total_estimate"`
	Deltas            []LineDelta     `json:"per_line_delta"`
	TotalDeltaMinor   int64           `json:"total_delta_minor"`
	OverBudget        bool            `json:"over_budget"`
	BudgetOverByMinor int64           `json:"budget_over_by_minor,omitempty"`
}
