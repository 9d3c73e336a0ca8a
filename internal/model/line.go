package model

import (
	"strconv"
	"strings"
)

// ItemType is one entry of the fixed furniture taxonomy
type ItemType string

const (
	TypeSofa               ItemType = "sofa"
	TypeSofaBed            ItemType = "sofa_bed"
	TypeChair              ItemType = "chair"
	TypeTable              ItemType = "table"
	TypeTVBench            ItemType = "tv_bench"
	TypeBed                ItemType = "bed"
	TypeWardrobe           ItemType = "wardrobe"
	TypeMirror             ItemType = "mirror"
	TypeMirrorCabinet      ItemType = "mirror_cabinet"
	TypeCabinet            ItemType = "cabinet"
	TypeBookcase           ItemType = "bookcase"
	TypeShelf              ItemType = "shelf"
	TypeStorageCombination ItemType = "storage_combination"
	TypeLamp               ItemType = "lamp"
	TypeStool              ItemType = "stool"
	TypeShoeRack           ItemType = "shoe_rack"
	TypeWashstand          ItemType = "washstand"
	TypeDesk               ItemType = "desk"
	TypeDrawer             ItemType = "drawer"
)

// Taxonomy lists every valid item type
var Taxonomy = []ItemType{
	TypeSofa, TypeSofaBed, TypeChair, TypeTable, TypeTVBench, TypeBed, TypeWardrobe,
	TypeMirror, TypeMirrorCabinet, TypeCabinet, TypeBookcase, TypeShelf,
	TypeStorageCombination, TypeLamp, TypeStool, TypeShoeRack, TypeWashstand,
	TypeDesk, TypeDrawer,
}

// ParseItemType validates a raw type name against the taxonomy
func ParseItemType(s string) (ItemType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for _, t := range Taxonomy {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Specs is the closed set of typed attributes a line may carry
type Specs struct {
	Subtype     string   `json:"subtype,omitempty"`
	Material    string   `json:"material,omitempty"`
	SeaterCount int      `json:"seater_count,omitempty"`
	Shape       string   `json:"shape,omitempty"`
	Size        string   `json:"size,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// LineOrigin records who introduced a line into the plan
type LineOrigin string

const (
	OriginEssential LineOrigin = "essential"
	OriginProposal  LineOrigin = "proposal"
	OriginUser      LineOrigin = "user"
)

// LineSignature identifies a line across turns independent of room and quantity
type LineSignature string

// RequestedLine is one row of the furnishing plan. Treat it as a value:
// the With* helpers return modified copies.
type RequestedLine struct {
	Type            ItemType   `json:"type"`
	Quantity        int        `json:"quantity"`
	Room            string     `json:"room"`
	Specs           Specs      `json:"specs"`
	Ordinal         int        `json:"ordinal,omitempty"`
	Origin          LineOrigin `json:"origin,omitempty"`
	PreferredItemID *int64     `json:"preferred_item_id,omitempty"`
	PriceCeiling    *float64   `json:"price_ceiling,omitempty"`
	MinSeats        int        `json:"min_seats,omitempty"`
	BHKContext      int        `json:"bhk_context,omitempty"`
}

// Signature returns type:subtype:seater:material, lower-cased
func (l RequestedLine) Signature() LineSignature {
	seater := ""
	if l.Specs.SeaterCount > 0 {
		seater = strconv.Itoa(l.Specs.SeaterCount)
	}
	parts := []string{
		strings.ToLower(string(l.Type)),
		strings.ToLower(l.Specs.Subtype),
		seater,
		strings.ToLower(l.Specs.Material),
	}
	return LineSignature(strings.Join(parts, ":"))
}

// Key pairs a line with its counterpart from the previous turn
func (l RequestedLine) Key() string {
	key := strings.ToLower(l.Room) + "|" + string(l.Signature())
	if l.Ordinal > 0 {
		key += "|" + strconv.Itoa(l.Ordinal)
	}
	return key
}

// TypeKey is the (type, subtype) pair used for diversification
func (l RequestedLine) TypeKey() string {
	return string(l.Type) + "/" + strings.ToLower(l.Specs.Subtype)
}

// DisplayName returns a human readable name for the line
func (l RequestedLine) DisplayName() string {
	if l.Specs.Subtype != "" {
		return strings.ReplaceAll(l.Specs.Subtype, "_", " ")
	}
	return strings.ReplaceAll(string(l.Type), "_", " ")
}

// Clone returns a deep copy
func (l RequestedLine) Clone() RequestedLine {
	out := l
	if l.Specs.Features != nil {
		out.Specs.Features = append([]string(nil), l.Specs.Features...)
	}
	if l.PreferredItemID != nil {
		id := *l.PreferredItemID
		out.PreferredItemID = &id
	}
	if l.PriceCeiling != nil {
		c := *l.PriceCeiling
		out.PriceCeiling = &c
	}
	return out
}

// WithQuantity returns a copy with the quantity replaced (minimum 1)
func (l RequestedLine) WithQuantity(q int) RequestedLine {
	out := l.Clone()
	if q < 1 {
		q = 1
	}
	out.Quantity = q
	return out
}

// WithPreferredItem returns a copy pinned to a catalog id
func (l RequestedLine) WithPreferredItem(id int64) RequestedLine {
	out := l.Clone()
	out.PreferredItemID = &id
	return out
}

// WithCeiling returns a copy with a price ceiling in major units
func (l RequestedLine) WithCeiling(c float64) RequestedLine {
	out := l.Clone()
	out.PriceCeiling = &c
	return out
}

// CloneLines deep-copies a slice of lines
func CloneLines(lines []RequestedLine) []RequestedLine {
	if lines == nil {
		return nil
	}
	out := make([]RequestedLine, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}
