package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Room kinds. Room instances are named after their kind, except bedrooms
// which become "master bedroom", "bedroom 2", ... once there is more than one.
const (
	RoomLiving   = "living"
	RoomDining   = "dining"
	RoomKitchen  = "kitchen"
	RoomBedroom  = "bedroom"
	RoomBathroom = "bathroom"
	RoomStudy    = "study"
	RoomBalcony  = "balcony"
	RoomEntrance = "entrance"

	MasterBedroom = "master bedroom"
)

// RoomKinds is the fixed room enum accepted from collaborators
var RoomKinds = []string{
	RoomLiving, RoomDining, RoomKitchen, RoomBedroom, RoomBathroom,
	RoomStudy, RoomBalcony, RoomEntrance,
}

// RoomKindOf maps a room instance name to its kind; empty when unknown
func RoomKindOf(room string) string {
	r := strings.ToLower(strings.TrimSpace(room))
	switch {
	case strings.Contains(r, "bedroom"), r == "master":
		return RoomBedroom
	case strings.Contains(r, "living"), r == "hall", r == "lounge":
		return RoomLiving
	case strings.Contains(r, "dining"):
		return RoomDining
	case strings.Contains(r, "kitchen"):
		return RoomKitchen
	case strings.Contains(r, "bath"), strings.Contains(r, "washroom"), strings.Contains(r, "toilet"):
		return RoomBathroom
	case strings.Contains(r, "study"), strings.Contains(r, "office"):
		return RoomStudy
	case strings.Contains(r, "balcony"):
		return RoomBalcony
	case strings.Contains(r, "entrance"), strings.Contains(r, "foyer"):
		return RoomEntrance
	}
	return ""
}

// NormalizeRoom canonicalises a collaborator-supplied room name. ok is false
// when the name does not belong to the room enum.
func NormalizeRoom(room string) (string, bool) {
	r := strings.ToLower(strings.TrimSpace(room))
	r = strings.ReplaceAll(r, "_", " ")
	kind := RoomKindOf(r)
	if kind == "" {
		return "", false
	}
	if kind != RoomBedroom {
		return kind, true
	}
	if strings.Contains(r, "master") {
		return MasterBedroom, true
	}
	fields := strings.Fields(r)
	if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil && n > 1 {
		return BedroomName(n), true
	}
	return RoomBedroom, true
}

// BedroomName returns the addressable name of the i-th bedroom (1-based)
func BedroomName(i int) string {
	if i <= 1 {
		return MasterBedroom
	}
	return fmt.Sprintf("bedroom %d", i)
}

// ExpandBedrooms names n bedrooms. A single bedroom stays "bedroom".
func ExpandBedrooms(n int) []string {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []string{RoomBedroom}
	}
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, BedroomName(i))
	}
	return out
}

// RoomDims is a measured room in feet
type RoomDims struct {
	Room   string  `json:"room"`
	Width  float64 `json:"width_ft"`
	Length float64 `json:"length_ft"`
}

// FloorPlanHint is the structured output of the floor-plan analyzer
type FloorPlanHint struct {
	BHK            *int       `json:"bhk,omitempty"`
	AreaSqft       *float64   `json:"sqft,omitempty"`
	PropertyType   string     `json:"property_type,omitempty"`
	Rooms          []string   `json:"rooms,omitempty"`
	RoomDimensions []RoomDims `json:"room_dimensions,omitempty"`
}
