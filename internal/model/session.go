package model

import "time"

// Filters are the global selection filters of a turn
type Filters struct {
	PriceCeiling *float64           `json:"price_ceiling,omitempty"`
	Theme        string             `json:"theme,omitempty"`
	StyleBias    map[string]float64 `json:"style_bias,omitempty"`
	Negatives    []string           `json:"negatives,omitempty"`
}

// RichSummary is the structured overview produced by the summarize collaborator
type RichSummary struct {
	Overview        string   `json:"overview"`
	BHK             *int     `json:"bhk,omitempty"`
	Sqft            *float64 `json:"sqft,omitempty"`
	Theme           string   `json:"theme,omitempty"`
	RoomsDetected   []string `json:"rooms_detected,omitempty"`
	Budget          *Budget  `json:"budget,omitempty"`
	MustHaveItems   []string `json:"must_have_items,omitempty"`
	NiceToHaveItems []string `json:"nice_to_have_items,omitempty"`
	ItemsSuggested  []string `json:"items_suggested,omitempty"`
}

// SessionPrior is the persisted state of the previous turn. It is replaced
// wholesale at the end of every turn.
type SessionPrior struct {
	Filters        Filters            `json:"filters"`
	Selections     []Selection        `json:"selections,omitempty"`
	RequestedLines []RequestedLine    `json:"requested_lines,omitempty"`
	LineItems      map[string]int64   `json:"line_items,omitempty"` // line key -> item id
	AltOffsets     map[string]int     `json:"alt_offsets,omitempty"`
	AltServed      map[string][]int64 `json:"alt_served,omitempty"`
	Summary        *RichSummary       `json:"summary,omitempty"`
	Plan           *RoomPlan          `json:"plan,omitempty"`
	Turn           int                `json:"turn"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NewSessionPrior returns an empty prior with initialised maps
func NewSessionPrior() *SessionPrior {
	return &SessionPrior{
		LineItems:  make(map[string]int64),
		AltOffsets: make(map[string]int),
		AltServed:  make(map[string][]int64),
	}
}

// Normalize fills nil maps so a decoded prior is safe to use
func (p *SessionPrior) Normalize() *SessionPrior {
	if p.LineItems == nil {
		p.LineItems = make(map[string]int64)
	}
	if p.AltOffsets == nil {
		p.AltOffsets = make(map[string]int)
	}
	if p.AltServed == nil {
		p.AltServed = make(map[string][]int64)
	}
	return p
}

// HasQuotation reports whether a previous turn produced any priced line
func (p *SessionPrior) HasQuotation() bool {
	return len(p.Selections) > 0 || len(p.RequestedLines) > 0
}

// Validate checks invariants a decoded prior must satisfy
func (p *SessionPrior) Validate() bool {
	for _, l := range p.RequestedLines {
		if l.Quantity < 1 {
			return false
		}
		if _, ok := ParseItemType(string(l.Type)); !ok {
			return false
		}
	}
	for _, s := range p.Selections {
		if s.Line.Quantity < 1 || s.Item.ID == 0 {
			return false
		}
	}
	return true
}
