package model

// IntentResult represents the parsed intent from the intent-parse collaborator
type IntentResult struct {
	Rooms         []string      `json:"rooms,omitempty"`
	OnlyRooms     bool          `json:"only_rooms,omitempty"`
	BHK           *int          `json:"bhk,omitempty"`
	AreaSqft      *float64      `json:"area_sqft,omitempty"`
	Theme         string        `json:"theme,omitempty"`
	Budget        *IntentBudget `json:"budget,omitempty"`
	Constraints   []string      `json:"constraints,omitempty"`
	Priorities    []string      `json:"priorities,omitempty"`
	StyleKeywords []string      `json:"style_keywords,omitempty"`
}

// IntentBudget is a budget as reported by the intent parser
type IntentBudget struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
}

// ProposalInput is what the essentials-propose collaborator is grounded on
type ProposalInput struct {
	Rooms         []string      `json:"rooms"`
	ExcludedRooms []string      `json:"excluded_rooms,omitempty"`
	BHK           int           `json:"bhk"`
	AreaSqft      *float64      `json:"sqft,omitempty"`
	Budget        *Budget       `json:"budget,omitempty"`
	Tier          Tier          `json:"tier"`
	Themes        []StyleWeight `json:"themes,omitempty"`
}
