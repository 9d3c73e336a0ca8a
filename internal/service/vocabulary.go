package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"furnisher/internal/model"
	"furnisher/internal/utils"
)

// itemPhrase maps user vocabulary to a taxonomy type and optional subtype
type itemPhrase struct {
	re      *regexp.Regexp
	typ     model.ItemType
	subtype string
}

func phrase(pattern string, t model.ItemType, subtype string) itemPhrase {
	return itemPhrase{re: regexp.MustCompile(`\b(?:` + pattern + `)\b`), typ: t, subtype: subtype}
}

var itemPhrases = []itemPhrase{
	phrase(`sofa[\s-]?cum[\s-]?beds?|sofa[\s-]?beds?|futons?`, model.TypeSofaBed, ""),
	phrase(`corner sofas?|l[\s-]?shaped sofas?|sectional sofas?|sectionals?`, model.TypeSofa, "corner_sofa"),
	phrase(`sofas?|couch(?:es)?|settees?`, model.TypeSofa, ""),
	phrase(`tv[\s-]?(?:bench(?:es)?|units?|stands?|cabinets?|consoles?)|entertainment units?`, model.TypeTVBench, ""),
	phrase(`coffee tables?|cent(?:er|re) tables?`, model.TypeTable, "coffee_table"),
	phrase(`dining tables?`, model.TypeTable, "dining_table"),
	phrase(`bedside tables?|night[\s-]?stands?|bedsides?`, model.TypeTable, "bedside_table"),
	phrase(`side tables?|end tables?`, model.TypeTable, "side_table"),
	phrase(`study tables?|work tables?|writing desks?|desks?`, model.TypeDesk, ""),
	phrase(`dining chairs?`, model.TypeChair, "dining_chair"),
	phrase(`office chairs?|desk chairs?|study chairs?`, model.TypeChair, "office_chair"),
	phrase(`arm[\s-]?chairs?|accent chairs?|lounge chairs?|recliners?`, model.TypeChair, "armchair"),
	phrase(`outdoor chairs?|balcony chairs?`, model.TypeChair, "outdoor_chair"),
	phrase(`chairs?`, model.TypeChair, ""),
	phrase(`bar stools?|counter stools?`, model.TypeStool, "bar_stool"),
	phrase(`stools?|ottomans?|poufs?`, model.TypeStool, ""),
	phrase(`mirror[\s-]?cabinets?|medicine cabinets?`, model.TypeMirrorCabinet, ""),
	phrase(`mirrors?`, model.TypeMirror, ""),
	phrase(`wardrobes?|closets?|almirahs?`, model.TypeWardrobe, ""),
	phrase(`chests? of drawers|dressers?`, model.TypeDrawer, "chest"),
	phrase(`drawer units?|drawers?`, model.TypeDrawer, ""),
	phrase(`bookcases?|book[\s-]?shel(?:f|ves)`, model.TypeBookcase, ""),
	phrase(`wall shel(?:f|ves)|floating shel(?:f|ves)`, model.TypeShelf, "wall_shelf"),
	phrase(`shelving units?|shel(?:f|ves)`, model.TypeShelf, ""),
	phrase(`storage combinations?|storage units?|storage systems?`, model.TypeStorageCombination, ""),
	phrase(`kitchen cabinets?`, model.TypeCabinet, "kitchen_cabinet"),
	phrase(`cabinets?|sideboards?|cupboards?`, model.TypeCabinet, ""),
	phrase(`floor lamps?`, model.TypeLamp, "floor_lamp"),
	phrase(`table lamps?`, model.TypeLamp, "table_lamp"),
	phrase(`desk lamps?|reading lamps?`, model.TypeLamp, "desk_lamp"),
	phrase(`lamps?|lights|lighting`, model.TypeLamp, ""),
	phrase(`shoe[\s-]?racks?|shoe cabinets?|shoe stands?`, model.TypeShoeRack, ""),
	phrase(`wash[\s-]?stands?|vanity units?|vanit(?:y|ies)|wash[\s-]?basins?`, model.TypeWashstand, ""),
	phrase(`bed frames?|beds?`, model.TypeBed, ""),
	phrase(`tables?`, model.TypeTable, ""),
}

// itemMatch is the earliest (then longest) item phrase found in a text
type itemMatch struct {
	typ     model.ItemType
	subtype string
	start   int
	end     int
}

func findItem(text string) (itemMatch, bool) {
	best := itemMatch{start: -1}
	for _, p := range itemPhrases {
		loc := p.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if best.start < 0 || loc[0] < best.start || (loc[0] == best.start && loc[1]-loc[0] > best.end-best.start) {
			best = itemMatch{typ: p.typ, subtype: p.subtype, start: loc[0], end: loc[1]}
		}
	}
	return best, best.start >= 0
}

// roomPhrase maps user vocabulary to a room instance name
type roomPhrase struct {
	re   *regexp.Regexp
	name func(m []string) string
}

func fixedRoom(name string) func([]string) string {
	return func([]string) string { return name }
}

var ordinalWords = map[string]int{
	"first": 1, "1st": 1, "second": 2, "2nd": 2, "third": 3, "3rd": 3,
	"fourth": 4, "4th": 4, "fifth": 5, "5th": 5,
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "single": 1, "two": 2, "pair of": 2, "a pair of": 2, "couple of": 2,
	"a couple of": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8,
	"nine": 9, "ten": 10, "another": 1,
}

// parseCount reads a digit string or a number word
func parseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	n, ok := numberWords[s]
	return n, ok
}

const numberPattern = `\d+|one|two|three|four|five|six|seven|eight|nine|ten`

// Guest and kids rooms are aliases resolved against the plan's bedrooms
const (
	roomGuestAlias = "guest bedroom"
	roomKidsAlias  = "kids bedroom"
)

var roomPhrases = []roomPhrase{
	{regexp.MustCompile(`\bmaster\s+bed\s?rooms?\b|\bmaster\s+room\b`), fixedRoom(model.MasterBedroom)},
	{regexp.MustCompile(`\b(?:bed\s?room|br)\s*(?:no\.?\s*|#\s*)?(\d)\b`), func(m []string) string {
		n, _ := strconv.Atoi(m[1])
		return model.BedroomName(n)
	}},
	{regexp.MustCompile(`\b(first|1st|second|2nd|third|3rd|fourth|4th|fifth|5th)\s+bed\s?room\b`), func(m []string) string {
		return model.BedroomName(ordinalWords[m[1]])
	}},
	{regexp.MustCompile(`\bguest\s+(?:bed\s?)?room\b`), fixedRoom(roomGuestAlias)},
	{regexp.MustCompile(`\b(?:kids?'?s?|children'?s?|child'?s?)\s+(?:bed\s?)?room\b`), fixedRoom(roomKidsAlias)},
	{regexp.MustCompile(`\bliving\s+(?:room|area)\b|\bliving\b|\bhall\b|\blounge\b|\bdrawing\s+room\b`), fixedRoom(model.RoomLiving)},
	{regexp.MustCompile(`\bdining\s+(?:room|area)\b|\bdining\b`), fixedRoom(model.RoomDining)},
	{regexp.MustCompile(`\bkitchen\b`), fixedRoom(model.RoomKitchen)},
	{regexp.MustCompile(`\bbath\s?rooms?\b|\bwashrooms?\b|\btoilets?\b|\brestrooms?\b`), fixedRoom(model.RoomBathroom)},
	{regexp.MustCompile(`\bstudy(?:\s+room)?\b|\bhome\s+office\b|\boffice\s+room\b`), fixedRoom(model.RoomStudy)},
	{regexp.MustCompile(`\bbalcon(?:y|ies)\b`), fixedRoom(model.RoomBalcony)},
	{regexp.MustCompile(`\bentrance\b|\bfoyer\b|\bentryway\b`), fixedRoom(model.RoomEntrance)},
	{regexp.MustCompile(`\bbed\s?rooms?\b`), fixedRoom(model.RoomBedroom)},
}

type roomMatch struct {
	name  string
	start int
	end   int
}

// findRooms returns every room mentioned, in text order, without overlaps
func findRooms(text string) []roomMatch {
	var found []roomMatch
	taken := make([]bool, len(text))
	for _, p := range roomPhrases {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			overlap := false
			for i := loc[0]; i < loc[1]; i++ {
				if taken[i] {
					overlap = true
					break
				}
			}
			if overlap {
				continue
			}
			groups := make([]string, len(loc)/2)
			for g := range groups {
				if loc[2*g] >= 0 {
					groups[g] = text[loc[2*g]:loc[2*g+1]]
				}
			}
			for i := loc[0]; i < loc[1]; i++ {
				taken[i] = true
			}
			found = append(found, roomMatch{name: p.name(groups), start: loc[0], end: loc[1]})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })
	return found
}

// firstRoom returns the first room mentioned in text
func firstRoom(text string) (string, bool) {
	rooms := findRooms(text)
	if len(rooms) == 0 {
		return "", false
	}
	return rooms[0].name, true
}

var (
	seaterRe = regexp.MustCompile(`\b(` + numberPattern + `)\s*-?\s*seat(?:er|s)?\b`)
	sizeRe   = regexp.MustCompile(`\b(king|queen|single|double|twin|small|medium|large|compact|big)\b`)
	shapeRe  = regexp.MustCompile(`\b(round|circular|square|rectangular|oval|l[\s-]shaped|corner)\b`)
)

// colorWords are treated as style keywords
var colorWords = []string{"white", "black", "grey", "gray", "beige", "brown", "blue", "green", "cream", "natural", "walnut", "navy"}

// avoidableWords are style tokens a user can ask to avoid besides materials and colours
var avoidableWords = []string{"glossy", "ornate", "carved", "tufted", "patterned", "floral", "vintage", "antique"}

// extractSpecs reads typed attributes from a text fragment
func extractSpecs(text string) model.Specs {
	var specs model.Specs
	if m := seaterRe.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(m[1]); ok {
			specs.SeaterCount = n
		}
	}
	if m := sizeRe.FindStringSubmatch(text); m != nil {
		specs.Size = normalizeSize(m[1])
	}
	if m := shapeRe.FindStringSubmatch(text); m != nil {
		specs.Shape = normalizeShape(m[1])
	}
	specs.Material = findMaterial(text)
	return specs
}

func normalizeSize(s string) string {
	switch s {
	case "big":
		return "large"
	case "compact":
		return "small"
	}
	return s
}

func normalizeShape(s string) string {
	switch {
	case s == "circular":
		return "round"
	case strings.HasPrefix(s, "l"):
		return "l-shaped"
	}
	return s
}

// findMaterial returns the canonical class of the first material word in text
func findMaterial(text string) string {
	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return !(r >= 'a' && r <= 'z') && r != '-' }) {
		if class := utils.NormalizeMaterial(w); class != "" {
			return class
		}
	}
	if strings.Contains(text, "faux leather") {
		return "leather"
	}
	return ""
}

// isAvoidable reports whether a word may be used as a negative style token
func isAvoidable(w string) bool {
	if utils.NormalizeMaterial(w) != "" {
		return true
	}
	for _, list := range [][]string{colorWords, avoidableWords} {
		for _, c := range list {
			if c == w {
				return true
			}
		}
	}
	return false
}

// defaultRoomKind is where a new line of the given type goes when no room is named
func defaultRoomKind(t model.ItemType, subtype string) string {
	switch subtype {
	case "dining_table", "dining_chair":
		return model.RoomDining
	case "bedside_table", "chest":
		return model.RoomBedroom
	case "office_chair", "desk_lamp":
		return model.RoomStudy
	case "outdoor_chair":
		return model.RoomBalcony
	case "kitchen_cabinet", "bar_stool":
		return model.RoomKitchen
	}
	switch t {
	case model.TypeBed, model.TypeWardrobe, model.TypeDrawer, model.TypeMirror:
		return model.RoomBedroom
	case model.TypeMirrorCabinet, model.TypeWashstand:
		return model.RoomBathroom
	case model.TypeDesk:
		return model.RoomStudy
	case model.TypeCabinet, model.TypeStool:
		return model.RoomKitchen
	case model.TypeShoeRack:
		return model.RoomEntrance
	}
	return model.RoomLiving
}

// resolveRoomName maps a mentioned room onto a concrete room of the plan.
// Generic bedroom mentions pick the first bedroom; guest and kids aliases
// pick the last non-master bedroom.
func resolveRoomName(mention string, rooms []string) string {
	if mention == "" {
		return ""
	}
	for _, r := range rooms {
		if r == mention {
			return r
		}
	}
	var bedrooms []string
	for _, r := range rooms {
		if model.RoomKindOf(r) == model.RoomBedroom {
			bedrooms = append(bedrooms, r)
		}
	}
	switch mention {
	case roomGuestAlias, roomKidsAlias:
		for i := len(bedrooms) - 1; i >= 0; i-- {
			if bedrooms[i] != model.MasterBedroom {
				return bedrooms[i]
			}
		}
		if len(bedrooms) > 0 {
			return bedrooms[0]
		}
		return model.BedroomName(2)
	case model.RoomBedroom, model.MasterBedroom:
		if len(bedrooms) > 0 {
			return bedrooms[0]
		}
	}
	return mention
}

// roomForKind picks the first plan room of a kind, falling back to the kind itself
func roomForKind(kind string, rooms []string) string {
	for _, r := range rooms {
		if model.RoomKindOf(r) == kind {
			return r
		}
	}
	return kind
}
