package utils

import (
	"fmt"
	"sort"
	"strings"
)

// materialAliases maps a canonical material class to the words that imply it
var materialAliases = map[string][]string{
	"wood":    {"wood", "wooden", "oak", "teak", "walnut", "pine", "birch", "sheesham", "acacia", "veneer", "plywood", "beech", "ash"},
	"metal":   {"metal", "steel", "iron", "aluminium", "aluminum", "brass", "chrome"},
	"glass":   {"glass", "tempered glass"},
	"leather": {"leather", "leatherette", "faux leather"},
	"fabric":  {"fabric", "cotton", "linen", "velvet", "polyester", "upholstered", "boucle"},
	"rattan":  {"rattan", "cane", "wicker", "bamboo"},
	"stone":   {"marble", "stone", "granite", "terrazzo"},
	"plastic": {"plastic", "acrylic", "polypropylene"},
}

// materialOrder fixes iteration order so classification is deterministic
var materialOrder = []string{"leather", "rattan", "stone", "glass", "fabric", "metal", "wood", "plastic"}

// subtypeAliases maps a line subtype to the catalog phrases that denote it
var subtypeAliases = map[string][]string{
	"coffee_table":    {"coffee table", "centre table", "center table"},
	"bedside_table":   {"bedside table", "bedside", "nightstand", "night stand"},
	"dining_table":    {"dining table"},
	"side_table":      {"side table", "end table"},
	"dining_chair":    {"dining chair"},
	"office_chair":    {"office chair", "desk chair", "work chair"},
	"armchair":        {"armchair", "accent chair", "lounge chair"},
	"outdoor_chair":   {"outdoor chair", "balcony chair", "garden chair"},
	"floor_lamp":      {"floor lamp", "standing lamp"},
	"table_lamp":      {"table lamp", "bedside lamp"},
	"desk_lamp":       {"desk lamp", "work lamp", "reading lamp"},
	"kitchen_cabinet": {"kitchen cabinet", "base cabinet", "wall cabinet"},
	"wall_shelf":      {"wall shelf", "floating shelf"},
	"corner_sofa":     {"corner sofa", "l-shaped sofa", "sectional"},
	"bar_stool":       {"bar stool", "counter stool"},
	"chest":           {"chest of drawers", "dresser"},
}

// NormalizeMaterial maps a free-form material word to its canonical class.
// Returns "" when the word is not a known material.
func NormalizeMaterial(material string) string {
	m := strings.ToLower(strings.TrimSpace(material))
	if m == "" {
		return ""
	}
	for _, class := range materialOrder {
		for _, alias := range materialAliases[class] {
			if m == alias {
				return class
			}
		}
	}
	return ""
}

// MaterialClass returns the first material class mentioned in text, or "other"
func MaterialClass(text string) string {
	t := strings.ToLower(text)
	for _, class := range materialOrder {
		for _, alias := range materialAliases[class] {
			if ContainsWord(t, alias) {
				return class
			}
		}
	}
	return "other"
}

// FuzzyMatchMaterial reports whether text mentions the wanted material or one of its aliases
func FuzzyMatchMaterial(want, text string) bool {
	w := strings.ToLower(strings.TrimSpace(want))
	if w == "" {
		return false
	}
	t := strings.ToLower(text)
	if ContainsWord(t, w) {
		return true
	}
	class := NormalizeMaterial(w)
	if class == "" {
		return false
	}
	for _, alias := range materialAliases[class] {
		if ContainsWord(t, alias) {
			return true
		}
	}
	return false
}

// SubtypePatterns returns the phrases that identify a subtype in catalog text
func SubtypePatterns(subtype string) []string {
	s := strings.ToLower(strings.TrimSpace(subtype))
	if s == "" {
		return nil
	}
	if aliases, ok := subtypeAliases[s]; ok {
		return aliases
	}
	return []string{strings.ReplaceAll(s, "_", " ")}
}

// FuzzyMatchSubtype reports whether catalog text matches a line subtype
func FuzzyMatchSubtype(subtype, text string) bool {
	t := strings.ToLower(text)
	for _, p := range SubtypePatterns(subtype) {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// KnownSubtypes returns every subtype with an alias list, sorted
func KnownSubtypes() []string {
	out := make([]string, 0, len(subtypeAliases))
	for k := range subtypeAliases {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BuildFuzzySubtypeQuery builds an OR of ILIKE conditions over subcategory and name.
// Returns the SQL condition, its parameters and the next free placeholder index.
func BuildFuzzySubtypeQuery(subtype string, paramIndex int) (string, []interface{}, int) {
	patterns := SubtypePatterns(subtype)
	if len(patterns) == 0 {
		return "", nil, paramIndex
	}

	var orConditions []string
	var params []interface{}
	for _, pattern := range patterns {
		orConditions = append(orConditions,
			fmt.Sprintf("subcategory ILIKE $%d", paramIndex),
			fmt.Sprintf("name ILIKE $%d", paramIndex))
		params = append(params, "%"+pattern+"%")
		paramIndex++
	}

	return "(" + strings.Join(orConditions, " OR ") + ")", params, paramIndex
}

// ContainsWord reports whether word occurs in text delimited by non-letters
func ContainsWord(text, word string) bool {
	if word == "" {
		return false
	}
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		if (start == 0 || !isLetter(text[start-1])) && (end == len(text) || !isLetter(text[end])) {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
