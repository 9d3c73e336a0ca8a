package model

// BudgetScope tells whether a budget applies to each item or the whole plan
type BudgetScope string

const (
	BudgetPerItem BudgetScope = "per_item"
	BudgetTotal   BudgetScope = "total"
)

// Budget is an amount in major currency units
type Budget struct {
	Scope  BudgetScope `json:"scope"`
	Amount float64     `json:"amount"`
}

// Tier is the budget classification of a plan
type Tier string

const (
	TierEconomy Tier = "economy"
	TierPremium Tier = "premium"
	TierLuxury  Tier = "luxury"
)

// Verb is a structural command kind. The order of the constants is the
// precedence used when one clause matches several patterns.
type Verb string

const (
	VerbReplace    Verb = "replace"
	VerbRemove     Verb = "remove"
	VerbSetQty     Verb = "set_qty"
	VerbIncrease   Verb = "increase"
	VerbDecrease   Verb = "decrease"
	VerbUpdateAttr Verb = "update_attr"
	VerbAdd        Verb = "add"
)

// Command is one structural edit extracted from an utterance
type Command struct {
	Verb        Verb     `json:"verb"`
	Type        ItemType `json:"type,omitempty"`
	Subtype     string   `json:"subtype,omitempty"`
	Room        string   `json:"room,omitempty"`
	Quantity    int      `json:"quantity,omitempty"`
	ItemID      *int64   `json:"item_id,omitempty"`
	ReplaceName string   `json:"replace_name,omitempty"`
	Attr        string   `json:"attr,omitempty"`
	Value       string   `json:"value,omitempty"`
	WholeRoom   bool     `json:"whole_room,omitempty"`
	Specs       Specs    `json:"specs"` // attributes of a line created by add
}

// ChangeReason classifies a ChangeRecord
type ChangeReason string

const (
	ChangeAdded    ChangeReason = "added"
	ChangeRemoved  ChangeReason = "removed"
	ChangeQty      ChangeReason = "qty"
	ChangeModified ChangeReason = "modified"
	ChangeReplaced ChangeReason = "replaced"
)

// ChangeRecord describes the effect of one command on the plan
type ChangeRecord struct {
	Type                ItemType      `json:"type"`
	Room                string        `json:"room,omitempty"`
	LineSignatureBefore LineSignature `json:"line_signature_before,omitempty"`
	LineSignatureAfter  LineSignature `json:"line_signature_after,omitempty"`
	Reason              ChangeReason  `json:"reason"`
}

// StyleWeight is one weighted theme in a blend
type StyleWeight struct {
	Theme  string  `json:"theme"`
	Weight float64 `json:"weight"`
}

// RequirementDelta is the structured reading of one utterance
type RequirementDelta struct {
	Commands      []Command       `json:"commands,omitempty"`
	Changes       []ChangeRecord  `json:"changes,omitempty"`
	Lines         []RequestedLine `json:"lines,omitempty"` // prior lines with Commands applied
	Rooms         []string        `json:"rooms,omitempty"`
	OnlyRooms     bool            `json:"only_rooms,omitempty"`
	ExcludedRooms []string        `json:"excluded_rooms,omitempty"`
	BHK           *int            `json:"bhk,omitempty"`
	AreaSqft      *float64        `json:"area_sqft,omitempty"`
	Budget        *Budget         `json:"budget,omitempty"`
	Themes        []StyleWeight   `json:"themes,omitempty"`
	StyleKeywords []string        `json:"style_keywords,omitempty"`
	AvoidKeywords []string        `json:"avoid_keywords,omitempty"`
	RoomDims      []RoomDims      `json:"room_dims,omitempty"`
	Modification  bool            `json:"modification,omitempty"`
}

// HasFacts reports whether the delta carries any planning information
func (d *RequirementDelta) HasFacts() bool {
	return len(d.Rooms) > 0 || len(d.ExcludedRooms) > 0 || d.BHK != nil ||
		d.AreaSqft != nil || d.Budget != nil || len(d.Themes) > 0 || len(d.RoomDims) > 0 ||
		len(d.StyleKeywords) > 0 || len(d.AvoidKeywords) > 0
}

// RoomPlan is the resolved set of rooms and planning facts for a turn
type RoomPlan struct {
	Rooms         []string   `json:"rooms"`
	ExcludedRooms []string   `json:"excluded_rooms,omitempty"`
	ExplicitRooms bool       `json:"explicit_rooms,omitempty"`
	BHK           int        `json:"bhk"`
	AreaSqft      *float64   `json:"area_sqft,omitempty"`
	SizeTier      string     `json:"size_tier"`
	Budget        *Budget    `json:"budget,omitempty"`
	Tier          Tier       `json:"tier"`
	Theme         string     `json:"theme,omitempty"`
	RoomDims      []RoomDims `json:"room_dims,omitempty"`
	Defaulted     bool       `json:"defaulted,omitempty"` // nothing was known, 1 BHK assumed
}

// HasRoom reports whether the plan contains the named room
func (p *RoomPlan) HasRoom(room string) bool {
	for _, r := range p.Rooms {
		if r == room {
			return true
		}
	}
	return false
}
