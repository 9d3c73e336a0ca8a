package service

import (
	"sort"
	"strings"

	"furnisher/internal/model"
	"furnisher/internal/utils"
)

// themeDef is the token vocabulary of one interior style
type themeDef struct {
	bias      map[string]float64
	negatives []string
	roomHints map[string][]string // room kind -> tokens
}

var themeDefs = map[string]themeDef{
	"modern": {
		bias:      map[string]float64{"modern": 2, "sleek": 1.5, "minimal": 1, "contemporary": 1, "glossy": 0.5, "metal": 0.5, "glass": 0.5},
		negatives: []string{"ornate", "carved", "vintage", "antique", "rustic"},
		roomHints: map[string][]string{
			model.RoomLiving:  {"modular", "sectional", "low"},
			model.RoomBedroom: {"platform", "upholstered", "sliding"},
			model.RoomDining:  {"glass", "extendable"},
		},
	},
	"minimalist": {
		bias:      map[string]float64{"minimalist": 2, "minimal": 2, "clean": 1, "simple": 1, "white": 0.5, "slim": 0.5},
		negatives: []string{"ornate", "carved", "tufted", "baroque", "patterned"},
		roomHints: map[string][]string{
			model.RoomLiving:  {"low", "slim"},
			model.RoomBedroom: {"platform", "handleless"},
		},
	},
	"scandinavian": {
		bias:      map[string]float64{"scandinavian": 2, "nordic": 1.5, "birch": 1, "oak": 1, "beech": 1, "light": 0.5, "wood": 0.5, "white": 0.5},
		negatives: []string{"ornate", "glossy", "baroque", "velvet"},
		roomHints: map[string][]string{
			model.RoomLiving:  {"tapered", "fabric"},
			model.RoomBedroom: {"oak", "birch"},
			model.RoomDining:  {"extendable", "oak"},
		},
	},
	"industrial": {
		bias:      map[string]float64{"industrial": 2, "metal": 1.5, "steel": 1, "iron": 1, "reclaimed": 1, "loft": 0.5, "leather": 0.5},
		negatives: []string{"ornate", "pastel", "floral"},
		roomHints: map[string][]string{
			model.RoomLiving: {"leather", "metal"},
			model.RoomStudy:  {"metal", "steel"},
		},
	},
	"traditional": {
		bias:      map[string]float64{"traditional": 2, "classic": 1.5, "carved": 1, "ornate": 1, "teak": 1, "sheesham": 1, "solid wood": 0.5},
		negatives: []string{"glossy", "acrylic", "plastic", "industrial"},
		roomHints: map[string][]string{
			model.RoomLiving:  {"carved", "wooden"},
			model.RoomBedroom: {"four-poster", "headboard"},
			model.RoomDining:  {"solid wood"},
		},
	},
	"bohemian": {
		bias:      map[string]float64{"bohemian": 2, "boho": 2, "rattan": 1.5, "cane": 1, "jute": 1, "woven": 1, "colourful": 0.5},
		negatives: []string{"glossy", "chrome", "steel"},
		roomHints: map[string][]string{
			model.RoomLiving:  {"rattan", "floor cushion"},
			model.RoomBalcony: {"rattan", "cane"},
		},
	},
	"rustic": {
		bias:      map[string]float64{"rustic": 2, "reclaimed": 1.5, "farmhouse": 1.5, "distressed": 1, "pine": 1, "wood": 0.5},
		negatives: []string{"glossy", "chrome", "acrylic"},
		roomHints: map[string][]string{
			model.RoomDining:  {"bench", "solid wood"},
			model.RoomKitchen: {"open shelf", "pine"},
		},
	},
	"luxury": {
		bias:      map[string]float64{"luxury": 2, "velvet": 1.5, "marble": 1.5, "brass": 1, "tufted": 1, "gold": 1, "premium": 0.5},
		negatives: []string{"plastic", "basic", "budget"},
		roomHints: map[string][]string{
			model.RoomLiving:  {"velvet", "chesterfield"},
			model.RoomBedroom: {"upholstered", "tufted"},
			model.RoomDining:  {"marble"},
		},
	},
	"mid_century": {
		bias:      map[string]float64{"mid-century": 2, "retro": 1, "walnut": 1.5, "tapered": 1, "teak": 0.5},
		negatives: []string{"ornate", "baroque"},
		roomHints: map[string][]string{
			model.RoomLiving: {"tapered", "walnut"},
		},
	},
	"contemporary": {
		bias:      map[string]float64{"contemporary": 2, "modern": 1, "curved": 1, "neutral": 0.5},
		negatives: []string{"antique", "carved"},
		roomHints: map[string][]string{
			model.RoomLiving: {"curved", "modular"},
		},
	},
}

// themeAliases maps user vocabulary onto a known theme
var themeAliases = map[string]string{
	"modern":       "modern",
	"minimalist":   "minimalist",
	"minimal":      "minimalist",
	"minimalistic": "minimalist",
	"scandinavian": "scandinavian",
	"scandi":       "scandinavian",
	"nordic":       "scandinavian",
	"industrial":   "industrial",
	"traditional":  "traditional",
	"classic":      "traditional",
	"ethnic":       "traditional",
	"bohemian":     "bohemian",
	"boho":         "bohemian",
	"rustic":       "rustic",
	"farmhouse":    "rustic",
	"luxury":       "luxury",
	"luxurious":    "luxury",
	"glam":         "luxury",
	"mid-century":  "mid_century",
	"mid century":  "mid_century",
	"midcentury":   "mid_century",
	"retro":        "mid_century",
	"contemporary": "contemporary",
}

// CanonicalTheme maps a theme word to its canonical name
func CanonicalTheme(word string) (string, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	w = strings.ReplaceAll(w, "_", " ")
	theme, ok := themeAliases[w]
	return theme, ok
}

// themeWordsByLength lists aliases longest first so "mid century" wins over shorter matches
func themeWordsByLength() []string {
	words := make([]string, 0, len(themeAliases))
	for w := range themeAliases {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return words
}

// StyleProfile is a resolved, possibly blended, style
type StyleProfile struct {
	Themes    []model.StyleWeight
	Bias      map[string]float64
	Negatives []string
	RoomHints map[string][]string
}

// Empty reports whether the profile has no influence on ranking
func (p *StyleProfile) Empty() bool {
	return p == nil || (len(p.Bias) == 0 && len(p.Negatives) == 0 && len(p.RoomHints) == 0)
}

// Name is a stable label for the profile, e.g. "modern" or "industrial+modern"
func (p *StyleProfile) Name() string {
	if p == nil || len(p.Themes) == 0 {
		return ""
	}
	names := make([]string, 0, len(p.Themes))
	for _, t := range p.Themes {
		names = append(names, t.Theme)
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}

// Score rates catalog text against the profile: the sum of matched bias weights,
// plus up to 2 for room-specific hints, minus 2 per negative token.
func (p *StyleProfile) Score(text, roomKind string) float64 {
	if p.Empty() {
		return 0
	}
	t := strings.ToLower(text)

	tokens := make([]string, 0, len(p.Bias))
	for token := range p.Bias {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	score := 0.0
	for _, token := range tokens {
		if utils.ContainsWord(t, token) {
			score += p.Bias[token]
		}
	}

	hints := 0
	for _, token := range p.RoomHints[roomKind] {
		if utils.ContainsWord(t, token) {
			hints++
		}
	}
	if hints > 2 {
		hints = 2
	}
	score += float64(hints)

	for _, token := range p.Negatives {
		if utils.ContainsWord(t, token) {
			score -= 2
		}
	}
	return score
}

// StyleResolver turns theme names and keywords into a StyleProfile
type StyleResolver struct{}

// NewStyleResolver creates a style resolver over the built-in theme vocabulary
func NewStyleResolver() *StyleResolver {
	return &StyleResolver{}
}

// Resolve blends weighted themes. Weights are normalised; free keywords add
// weight 1 each and avoided keywords become negatives.
func (r *StyleResolver) Resolve(themes []model.StyleWeight, keywords, avoid []string) *StyleProfile {
	profile := &StyleProfile{
		Bias:      make(map[string]float64),
		RoomHints: make(map[string][]string),
	}

	merged := make(map[string]float64)
	var order []string
	for _, t := range themes {
		name, ok := CanonicalTheme(t.Theme)
		if !ok {
			continue
		}
		if _, seen := merged[name]; !seen {
			order = append(order, name)
		}
		w := t.Weight
		if w <= 0 {
			w = 1
		}
		merged[name] += w
	}

	total := 0.0
	for _, name := range order {
		total += merged[name]
	}

	negatives := make(map[string]bool)
	for _, name := range order {
		weight := merged[name] / total
		profile.Themes = append(profile.Themes, model.StyleWeight{Theme: name, Weight: weight})

		def := themeDefs[name]
		for token, w := range def.bias {
			profile.Bias[token] += w * weight
		}
		for _, n := range def.negatives {
			negatives[n] = true
		}
		for room, hints := range def.roomHints {
			profile.RoomHints[room] = appendUnique(profile.RoomHints[room], hints...)
		}
	}

	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, isTheme := CanonicalTheme(kw); isTheme {
			continue
		}
		profile.Bias[kw] += 1
	}

	// A token a blend member asks for cannot also be penalised by another member.
	for token := range profile.Bias {
		delete(negatives, token)
	}
	for _, a := range avoid {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		negatives[a] = true
		delete(profile.Bias, a)
	}

	for n := range negatives {
		profile.Negatives = append(profile.Negatives, n)
	}
	sort.Strings(profile.Negatives)
	return profile
}

// FromFilters rebuilds a profile from persisted filters
func (r *StyleResolver) FromFilters(f model.Filters) *StyleProfile {
	if f.Theme == "" && len(f.StyleBias) == 0 && len(f.Negatives) == 0 {
		return &StyleProfile{Bias: map[string]float64{}, RoomHints: map[string][]string{}}
	}
	var themes []model.StyleWeight
	for _, name := range strings.Split(f.Theme, "+") {
		if name != "" {
			themes = append(themes, model.StyleWeight{Theme: name, Weight: 1})
		}
	}
	profile := r.Resolve(themes, nil, nil)
	if len(f.StyleBias) > 0 {
		profile.Bias = make(map[string]float64, len(f.StyleBias))
		for k, v := range f.StyleBias {
			profile.Bias[k] = v
		}
	}
	if f.Negatives != nil {
		profile.Negatives = append([]string(nil), f.Negatives...)
	}
	return profile
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
