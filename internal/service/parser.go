package service

import (
	"regexp"
	"strconv"
	"strings"

	"furnisher/internal/model"
)

var (
	digitGroupRe   = regexp.MustCompile(`(\d),(\d)`)
	spaceRe        = regexp.MustCompile(`\s+`)
	abbrevDotRe    = regexp.MustCompile(`\b(rs|no)\.`)
	clauseSplitRe  = regexp.MustCompile(`[;\n!?]+|\.\s+|,\s*|\s+and\s+|\s+then\s+|\s+plus\s+|\s+but\s+|\s+also\s+`)
	fillerRe       = regexp.MustCompile(`^(?:please|pls|kindly|can you|could you|would you|i want to|i'd like to|i would like to|let's|lets|now|also|and|then|just|ok|okay|actually|so|hey|hi)\s+`)
	modificationRe = regexp.MustCompile(`\b(?:now|also|instead|actually|additionally|too|as well|change|update|then)\b`)

	bhkRe          = regexp.MustCompile(`\b(` + numberPattern + `)\s*-?\s*bhk\b`)
	bhkBedRe       = regexp.MustCompile(`\b(` + numberPattern + `)\s*-?\s*bed(?:room)?\s+(?:apartment|flat|house|home|unit|villa|condo)\b`)
	bedroomCountRe = regexp.MustCompile(`\b(` + numberPattern + `)\s+bed\s?rooms\b`)
	areaRe         = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(sq\.?\s*ft|sqft|sft|square\s+f(?:ee|oo)t|sq\.?\s*m(?:tr)?s?|sqm|square\s+met(?:er|re)s?|m2)\b`)

	budgetRe      = regexp.MustCompile(`\bbudget(?:\s*(?:of|is|around|about|approx(?:imately)?|roughly|:|=|-|upto|up to|under|within|max(?:imum)?|total|overall))*\s*(?:rs\.?|inr)?\s*(\d+(?:\.\d+)?)\s*(lakhs?|lacs?|l|k|cr|crores?|mn|m)?\b`)
	budgetAfterRe = regexp.MustCompile(`(?:\brs\.?\s*|\binr\s*)?\b(\d+(?:\.\d+)?)\s*(lakhs?|lacs?|l|k|cr|crores?)?\s+(?:total\s+|overall\s+)?budget\b`)
	currencyRe    = regexp.MustCompile(`(?:\brs\.?|\binr)\s*(\d+(?:\.\d+)?)\s*(lakhs?|lacs?|l|k|cr|crores?)?\b`)
	perItemRe     = regexp.MustCompile(`\bper\s+(?:item|piece|product)\b|\beach\s+(?:item|piece|product)\b|\bfor\s+each\b`)

	blendRe     = regexp.MustCompile(`(\d{1,3})\s*%\s*([a-z][a-z-]*(?:\s+century)?)`)
	exclusionRe = regexp.MustCompile(`\b(?:without|exclude|excluding|except|skip|skipping|minus|no)\s+(?:the\s+|a\s+|an\s+|any\s+)?`)
	avoidRe     = regexp.MustCompile(`\b(?:avoid|no|not|without|hate|dislike)\s+(?:any\s+)?([a-z-]+)`)
	onlyRe      = regexp.MustCompile(`\bonly\b|\bjust\s+(?:the\s+|a\s+)?(?:living|dining|kitchen|bed|bath|study|balcon|master)`)
	idRe        = regexp.MustCompile(`(?:\bitem\s+)?(?:\bid\b|#|\bsku\b|\bitem\s+no\.?|\bproduct\b)\s*[:#]?\s*(\d+)`)

	dimsRe = regexp.MustCompile(roomDimPattern +
		`\s*(?:room\s*)?(?:\s*(?:is|of|:|-|measures|measuring|size|sized|dimensions?))*\s*(\d+(?:\.\d+)?)\s*` + dimUnitPattern +
		`?\s*(?:x|by|\*)\s*(\d+(?:\.\d+)?)\s*` + dimUnitPattern + `?`)
	widthRe = regexp.MustCompile(roomDimPattern +
		`\s*(?:room\s*)?(?:\s*(?:width|wall|is|of|:))*\s*(\d+(?:\.\d+)?)\s*` + dimUnitPattern + `\s*(?:wide|width|long)?`)

	replaceVerbRe = regexp.MustCompile(`\b(replace|swap|switch|substitute|change|exchange)\b`)
	anotherRe     = regexp.MustCompile(`\b(?:show|give|suggest|find|get|try|want|need)\s+(?:me\s+)?(?:an?\s+)?(?:another|different|other|new)\s+$`)
	dislikeRe     = regexp.MustCompile(`\b(?:don'?t|do not)\s+like\s+(?:the\s+|this\s+|that\s+|my\s+)?$`)
	connectorRe   = regexp.MustCompile(`\b(?:with|for|by|to)\s+(.*)$`)
	genericRe     = regexp.MustCompile(`^(?:something|some|another|a different|different|other|any other|a new|new|one|else)\b`)
	articleRe     = regexp.MustCompile(`^(?:a|an|the|one|some)\s+|\s+(?:one|instead|please)$`)
	leadingNumRe  = regexp.MustCompile(`^(?:` + numberPattern + `)\b`)

	removeVerbRe = regexp.MustCompile(`\b(?:remove|delete|drop|get rid of|take out|take away|eliminate|discard|cancel|don'?t need|do not need|no longer need)\b`)
	addVerbRe    = regexp.MustCompile(`\b(?:add|include|need|want|get|put|place|buy|give me|throw in|bring in|would like|i'd like|suggest)\b`)

	setToRe     = regexp.MustCompile(`(?:\b(?:to|as|at)|=)\s*(` + numberPattern + `)\b(\s*-?\s*(?:seat(?:er|s)?|ft|feet|foot|inch(?:es)?|cm|k|l|lakhs?|doors?|drawers?|bhk|%))?`)
	qtyWordRe   = regexp.MustCompile(`\b(?:qty|quantity|count|number of|units)\b`)
	qtyNumRe    = regexp.MustCompile(`\b(\d+)\b(\s*-?\s*(?:seat(?:er|s)?|ft|feet|foot|bhk|%))?`)
	setVerbRe   = regexp.MustCompile(`\b(?:set|make|change|update|keep|adjust|reduce|decrease|increase|raise|lower|bump)\b`)
	incVerbRe   = regexp.MustCompile(`\b(?:increase|raise|bump up|bump)\b`)
	decVerbRe   = regexp.MustCompile(`\b(?:decrease|reduce|lower|cut down)\b`)
	moreRe      = regexp.MustCompile(`\b(?:(` + numberPattern + `)\s+)?(?:more|extra|additional|another)\s+(?:[a-z-]+\s+)?$`)
	fewerRe     = regexp.MustCompile(`\b(?:(` + numberPattern + `)\s+)?(?:fewer|less)\s+(?:[a-z-]+\s+)?$`)
	byRe        = regexp.MustCompile(`\bby\s+(` + numberPattern + `)\b`)
	onlyCountRe = regexp.MustCompile(`\b(?:only|just|instead|in total|total)\b`)
	countRe     = regexp.MustCompile(`(?:^|\s)(a pair of|a couple of|pair of|couple of|another|` + numberPattern + `|an|a)\b\s*(?:x\s+)?(?:(?:more|extra|additional|new|other)\s+)?(?:([a-z-]+)\s+)?$`)

	updateVerbRe = regexp.MustCompile(`\b(?:make|change|set|update|switch|convert|turn|prefer|want|should be|upgrade|go with)\b`)
	subtypeRe    = regexp.MustCompile(`\b(?:subtype|type|kind)\s+(?:to\s+|as\s+|=\s*)?([a-z][a-z ]*)`)
)

const (
	roomDimPattern = `(master\s+bed\s?room|bed\s?room\s*\d?|living(?:\s+room)?|hall|dining(?:\s+room)?|kitchen|study|balcony)`
	dimUnitPattern = `(meters?|metres?|mtrs?|feet|foot|ft|m|')`
)

// CommandParser reads structural commands and planning facts from an utterance.
// It is purely rule based; collaborators only fill facts it leaves empty.
type CommandParser struct{}

// NewCommandParser creates a command parser
func NewCommandParser() *CommandParser {
	return &CommandParser{}
}

// Parse reads text against the prior turn's lines. The returned delta
// carries the commands, the planning facts and the prior lines with the
// commands applied.
func (p *CommandParser) Parse(text string, prior []model.RequestedLine) *model.RequirementDelta {
	delta := &model.RequirementDelta{}
	norm := normalizeUtterance(text)
	if norm == "" {
		delta.Lines = model.CloneLines(prior)
		return delta
	}

	delta.Modification = modificationRe.MatchString(norm)
	p.extractGlobalFacts(norm, delta)

	var inherited model.Verb
	for _, clause := range splitClauses(norm) {
		cmds, ok := p.parseClause(clause, inherited)
		if ok {
			delta.Commands = append(delta.Commands, cmds...)
			inherited = cmds[0].Verb
			continue
		}
		inherited = ""
		p.extractClauseFacts(clause, delta)
	}
	delta.Rooms = dedupeStrings(delta.Rooms)
	delta.ExcludedRooms = dedupeStrings(delta.ExcludedRooms)
	delta.StyleKeywords = dedupeStrings(delta.StyleKeywords)
	delta.AvoidKeywords = dedupeStrings(delta.AvoidKeywords)

	res := ApplyCommands(prior, delta.Commands, ApplyOptions{Rooms: roomsOfLines(prior), Initial: len(prior) == 0})
	delta.Lines = res.Lines
	delta.Changes = res.Changes
	return delta
}

// normalizeUtterance lower-cases text, folds currency symbols and removes
// digit grouping so "₹8,00,000" reads as "rs 800000"
func normalizeUtterance(text string) string {
	s := strings.ToLower(text)
	s = strings.ReplaceAll(s, "₹", " rs ")
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "’", "'")
	s = abbrevDotRe.ReplaceAllString(s, "$1 ")
	for digitGroupRe.MatchString(s) {
		s = digitGroupRe.ReplaceAllString(s, "$1$2")
	}
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func splitClauses(text string) []string {
	var out []string
	for _, c := range clauseSplitRe.Split(text, -1) {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func stripFillers(clause string) string {
	for {
		next := fillerRe.ReplaceAllString(clause, "")
		if next == clause {
			return clause
		}
		clause = next
	}
}

// extractGlobalFacts reads facts that are unambiguous anywhere in the text
func (p *CommandParser) extractGlobalFacts(text string, delta *model.RequirementDelta) {
	if m := bhkRe.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(m[1]); ok && n > 0 {
			delta.BHK = &n
		}
	} else if m := bhkBedRe.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(m[1]); ok && n > 0 {
			delta.BHK = &n
		}
	}

	if m := areaRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			if strings.Contains(m[2], "m") && !strings.Contains(m[2], "ft") && !strings.Contains(m[2], "feet") && !strings.Contains(m[2], "foot") {
				v *= 10.7639
			}
			delta.AreaSqft = &v
		}
	}

	delta.RoomDims = parseRoomDims(text)
}

// extractClauseFacts reads planning facts from a clause that carried no command
func (p *CommandParser) extractClauseFacts(clause string, delta *model.RequirementDelta) {
	if delta.Budget == nil {
		delta.Budget = parseBudget(clause)
	}

	blanked := []byte(clause)
	blank := func(start, end int) {
		for i := start; i < end && i < len(blanked); i++ {
			blanked[i] = ' '
		}
	}

	for _, loc := range exclusionRe.FindAllStringIndex(clause, -1) {
		rest := clause[loc[1]:]
		if rooms := findRooms(rest); len(rooms) > 0 && rooms[0].start == 0 {
			delta.ExcludedRooms = append(delta.ExcludedRooms, rooms[0].name)
			blank(loc[0], loc[1]+rooms[0].end)
			continue
		}
		if item, ok := findItem(rest); ok && item.start == 0 {
			delta.Commands = append(delta.Commands, model.Command{Verb: model.VerbRemove, Type: item.typ, Subtype: item.subtype})
			blank(loc[0], loc[1]+item.end)
		}
	}

	for _, m := range avoidRe.FindAllStringSubmatchIndex(clause, -1) {
		word := clause[m[2]:m[3]]
		if isAvoidable(word) {
			delta.AvoidKeywords = append(delta.AvoidKeywords, word)
			blank(m[0], m[1])
		}
	}

	rest := string(blanked)
	if m := bedroomCountRe.FindStringSubmatchIndex(rest); m != nil {
		if n, ok := parseCount(rest[m[2]:m[3]]); ok {
			delta.Rooms = append(delta.Rooms, model.ExpandBedrooms(n)...)
			blank(m[0], m[1])
			rest = string(blanked)
		}
	}
	for _, r := range findRooms(rest) {
		delta.Rooms = append(delta.Rooms, r.name)
	}
	if len(delta.Rooms) > 0 && onlyRe.MatchString(clause) {
		delta.OnlyRooms = true
	}

	delta.Themes = append(delta.Themes, parseThemes(rest)...)

	for _, w := range strings.Fields(rest) {
		if _, isTheme := CanonicalTheme(w); isTheme {
			continue
		}
		if findMaterial(w) != "" {
			delta.StyleKeywords = append(delta.StyleKeywords, w)
			continue
		}
		for _, c := range colorWords {
			if c == w {
				delta.StyleKeywords = append(delta.StyleKeywords, w)
			}
		}
	}
}

// parseBudget reads an amount in major units from a clause
func parseBudget(clause string) *model.Budget {
	var num, unit string
	if m := budgetRe.FindStringSubmatch(clause); m != nil {
		num, unit = m[1], m[2]
	} else if m := budgetAfterRe.FindStringSubmatch(clause); m != nil {
		num, unit = m[1], m[2]
	} else if m := currencyRe.FindStringSubmatch(clause); m != nil {
		num, unit = m[1], m[2]
	} else {
		return nil
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v <= 0 {
		return nil
	}
	switch {
	case strings.HasPrefix(unit, "l"):
		v *= 100000
	case unit == "k":
		v *= 1000
	case strings.HasPrefix(unit, "cr"):
		v *= 10000000
	case unit == "m" || unit == "mn":
		v *= 1000000
	}

	scope := model.BudgetTotal
	if perItemRe.MatchString(clause) {
		scope = model.BudgetPerItem
	}
	return &model.Budget{Scope: scope, Amount: v}
}

// parseThemes reads explicit blends ("60% modern 40% industrial") or plain theme words
func parseThemes(text string) []model.StyleWeight {
	var out []model.StyleWeight
	for _, m := range blendRe.FindAllStringSubmatch(text, -1) {
		theme, ok := CanonicalTheme(m[2])
		if !ok {
			theme, ok = CanonicalTheme(strings.Fields(m[2])[0])
		}
		if !ok {
			continue
		}
		pct, _ := strconv.Atoi(m[1])
		out = append(out, model.StyleWeight{Theme: theme, Weight: float64(pct) / 100})
	}
	if len(out) > 0 {
		return out
	}

	seen := make(map[string]bool)
	remaining := text
	for _, tw := range themeWordRes {
		if !tw.re.MatchString(remaining) {
			continue
		}
		remaining = tw.re.ReplaceAllString(remaining, " ")
		theme := themeAliases[tw.word]
		if !seen[theme] {
			seen[theme] = true
			out = append(out, model.StyleWeight{Theme: theme, Weight: 1})
		}
	}
	return out
}

type themeWordRe struct {
	word string
	re   *regexp.Regexp
}

var themeWordRes = func() []themeWordRe {
	words := themeWordsByLength()
	out := make([]themeWordRe, 0, len(words))
	for _, w := range words {
		out = append(out, themeWordRe{word: w, re: regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)})
	}
	return out
}()

// parseRoomDims reads "living room 15 x 12 ft" or "bedroom 3.5 m wide"
func parseRoomDims(text string) []model.RoomDims {
	var out []model.RoomDims
	seen := make(map[string]bool)
	for _, m := range dimsRe.FindAllStringSubmatch(text, -1) {
		room, ok := firstRoom(m[1])
		if !ok || seen[room] {
			continue
		}
		a := toFeet(m[2], firstNonEmpty(m[3], m[5]))
		b := toFeet(m[4], firstNonEmpty(m[5], m[3]))
		if a <= 0 || b <= 0 {
			continue
		}
		seen[room] = true
		width, length := a, b
		if b > a {
			width, length = b, a
		}
		out = append(out, model.RoomDims{Room: room, Width: width, Length: length})
	}
	for _, m := range widthRe.FindAllStringSubmatch(text, -1) {
		room, ok := firstRoom(m[1])
		if !ok || seen[room] {
			continue
		}
		w := toFeet(m[2], m[3])
		if w <= 0 {
			continue
		}
		seen[room] = true
		out = append(out, model.RoomDims{Room: room, Width: w})
	}
	return out
}

func toFeet(num, unit string) float64 {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if strings.HasPrefix(unit, "m") {
		return v * 3.28084
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseClause reads at most one structural command kind from a clause.
// Precedence: replace, remove, quantity, attribute update, add.
func (p *CommandParser) parseClause(clause string, inherited model.Verb) ([]model.Command, bool) {
	c := stripFillers(clause)

	item, hasItem := findItem(c)
	if !hasItem {
		if removeVerbRe.MatchString(c) || (inherited == model.VerbRemove && !addVerbRe.MatchString(c)) {
			if rooms := findRooms(c); len(rooms) > 0 {
				return []model.Command{{Verb: model.VerbRemove, Room: rooms[0].name, WholeRoom: true}}, true
			}
		}
		return nil, false
	}

	prefix := c[:item.start]
	explicitVerb := replaceVerbRe.MatchString(prefix) || removeVerbRe.MatchString(prefix) ||
		addVerbRe.MatchString(prefix) || setVerbRe.MatchString(prefix) || updateVerbRe.MatchString(prefix)

	if cmd, ok := parseReplace(c, item, inherited, explicitVerb); ok {
		return []model.Command{cmd}, true
	}

	room := roomOutside(c, item)
	if removeVerbRe.MatchString(prefix) || (!explicitVerb && inherited == model.VerbRemove) {
		cmd := model.Command{Verb: model.VerbRemove, Type: item.typ, Subtype: item.subtype, Room: room}
		if n, ok := countBefore(prefix); ok {
			cmd.Quantity = n
		}
		return []model.Command{cmd}, true
	}

	if cmd, ok := parseQuantity(c, item, room); ok {
		return []model.Command{cmd}, true
	}

	if cmds, ok := parseAttrUpdate(c, item, room); ok {
		return cmds, true
	}

	if addVerbRe.MatchString(prefix) || (!explicitVerb && (inherited == model.VerbAdd || inherited == model.VerbIncrease)) {
		cmd := model.Command{Verb: model.VerbAdd, Type: item.typ, Subtype: item.subtype, Room: room, Quantity: 1}
		if n, ok := countBefore(prefix); ok {
			cmd.Quantity = n
		}
		if m := idRe.FindStringSubmatch(c); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				cmd.ItemID = &id
			}
		}
		cmd.Specs = extractSpecs(blankSpan(c, item.start, item.end))
		cmd.Specs.Subtype = item.subtype
		return []model.Command{cmd}, true
	}

	return nil, false
}

func parseReplace(c string, item itemMatch, inherited model.Verb, explicitVerb bool) (model.Command, bool) {
	prefix := c[:item.start]
	cmd := model.Command{Verb: model.VerbReplace, Type: item.typ, Subtype: item.subtype}

	if anotherRe.MatchString(prefix) || dislikeRe.MatchString(prefix) {
		cmd.Room = roomOutside(c, item)
		return cmd, true
	}

	verb := ""
	if m := replaceVerbRe.FindStringSubmatch(prefix); m != nil {
		verb = m[1]
	} else if !explicitVerb && inherited == model.VerbReplace {
		verb = "replace"
	} else {
		return cmd, false
	}

	tail := c[item.end:]
	scope := c
	repl := ""
	if m := connectorRe.FindStringSubmatchIndex(tail); m != nil {
		repl = strings.TrimSpace(tail[m[2]:m[3]])
		scope = c[:item.end+m[0]]
	}

	if repl != "" {
		if m := idRe.FindStringSubmatch(repl); m != nil {
			id, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return cmd, false
			}
			cmd.ItemID = &id
		} else if leadingNumRe.MatchString(repl) || (verb != "replace" && verb != "swap" && isAttrValue(repl)) {
			// "change the sofa to 2" or "change the sofa to leather" is not a swap
			return cmd, false
		} else if !genericRe.MatchString(repl) {
			cmd.ReplaceName = strings.TrimSpace(articleRe.ReplaceAllString(repl, ""))
		}
	} else if verb == "change" && qtyWordRe.MatchString(c) {
		return cmd, false
	}

	cmd.Room = roomOutside(scope, item)
	return cmd, true
}

func parseQuantity(c string, item itemMatch, room string) (model.Command, bool) {
	prefix := c[:item.start]
	cmd := model.Command{Type: item.typ, Subtype: item.subtype, Room: room}

	if qtyWordRe.MatchString(c) || setVerbRe.MatchString(c) {
		for _, m := range setToRe.FindAllStringSubmatch(c, -1) {
			if m[2] != "" {
				continue
			}
			if n, ok := parseCount(m[1]); ok {
				cmd.Verb = model.VerbSetQty
				cmd.Quantity = n
				return cmd, true
			}
		}
	}
	if qtyWordRe.MatchString(c) {
		for _, m := range qtyNumRe.FindAllStringSubmatch(c, -1) {
			if m[2] != "" {
				continue
			}
			if n, err := strconv.Atoi(m[1]); err == nil {
				cmd.Verb = model.VerbSetQty
				cmd.Quantity = n
				return cmd, true
			}
		}
	}

	by := 1
	if m := byRe.FindStringSubmatch(c); m != nil {
		if n, ok := parseCount(m[1]); ok {
			by = n
		}
	}
	if incVerbRe.MatchString(c) {
		cmd.Verb, cmd.Quantity = model.VerbIncrease, by
		return cmd, true
	}
	if decVerbRe.MatchString(c) {
		cmd.Verb, cmd.Quantity = model.VerbDecrease, by
		return cmd, true
	}
	if m := moreRe.FindStringSubmatch(prefix); m != nil {
		n := 1
		if m[1] != "" {
			n, _ = parseCount(m[1])
		}
		cmd.Verb, cmd.Quantity = model.VerbIncrease, n
		return cmd, true
	}
	if m := fewerRe.FindStringSubmatch(prefix); m != nil {
		n := 1
		if m[1] != "" {
			n, _ = parseCount(m[1])
		}
		cmd.Verb, cmd.Quantity = model.VerbDecrease, n
		return cmd, true
	}

	if onlyCountRe.MatchString(c) {
		if m := countRe.FindStringSubmatch(prefix); m != nil && !isSeatWord(m[2]) {
			if n, ok := parseCount(m[1]); ok && n > 1 {
				cmd.Verb, cmd.Quantity = model.VerbSetQty, n
				return cmd, true
			}
		}
	}
	return cmd, false
}

func parseAttrUpdate(c string, item itemMatch, room string) ([]model.Command, bool) {
	if !updateVerbRe.MatchString(c) {
		return nil, false
	}
	rest := blankSpan(c, item.start, item.end)
	specs := extractSpecs(rest)

	base := model.Command{Verb: model.VerbUpdateAttr, Type: item.typ, Subtype: item.subtype, Room: room}
	var cmds []model.Command
	add := func(attr, value string) {
		cmd := base
		cmd.Attr, cmd.Value = attr, value
		cmds = append(cmds, cmd)
	}

	if m := subtypeRe.FindStringSubmatch(rest); m != nil {
		value := strings.TrimSpace(m[1])
		if other, ok := findItem(value); ok && other.typ == item.typ && other.subtype != "" {
			add("subtype", other.subtype)
		} else if value != "" {
			add("subtype", strings.ReplaceAll(value, " ", "_")+"_"+string(item.typ))
		}
	}
	if specs.Material != "" {
		add("material", specs.Material)
	}
	if specs.SeaterCount > 0 {
		add("seater", strconv.Itoa(specs.SeaterCount))
	}
	if specs.Size != "" {
		add("size", specs.Size)
	}
	if specs.Shape != "" {
		add("shape", specs.Shape)
	}
	return cmds, len(cmds) > 0
}

// countBefore reads an explicit count immediately before an item mention
func countBefore(prefix string) (int, bool) {
	m := countRe.FindStringSubmatch(prefix)
	if m == nil || isSeatWord(m[2]) {
		return 0, false
	}
	return parseCount(m[1])
}

func isSeatWord(w string) bool {
	switch strings.Trim(w, "-") {
	case "seat", "seater", "seats", "door", "doors", "drawer", "bhk", "ft", "feet":
		return true
	}
	return false
}

func isAttrValue(s string) bool {
	specs := extractSpecs(s)
	return specs.Material != "" || specs.SeaterCount > 0 || specs.Size != "" || specs.Shape != ""
}

// roomOutside finds the room mentioned in a clause outside the item phrase
func roomOutside(c string, item itemMatch) string {
	room, _ := firstRoom(blankSpan(c, item.start, item.end))
	return room
}

func blankSpan(s string, start, end int) string {
	if start < 0 || end > len(s) || start >= end {
		return s
	}
	return s[:start] + strings.Repeat(" ", end-start) + s[end:]
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func roomsOfLines(lines []model.RequestedLine) []string {
	var rooms []string
	for _, l := range lines {
		rooms = append(rooms, l.Room)
	}
	return dedupeStrings(rooms)
}
