package service

import (
	"context"
	"errors"
	"strings"

	"furnisher/internal/model"
	"furnisher/internal/pkg/logger"
	"furnisher/internal/repository"
	"furnisher/internal/utils"
)

// poolLimit bounds how many catalog rows one alternatives lookup considers
const poolLimit = 200

// AlternativesService pages through diversified substitutes of a selected line
type AlternativesService struct {
	catalog      CatalogGateway
	sessions     SessionStore
	defaultLimit int
	maxLimit     int
	logger       logger.ILogger
}

// NewAlternativesService creates a new alternatives service
func NewAlternativesService(catalog CatalogGateway, sessions SessionStore, defaultLimit, maxLimit int, log logger.ILogger) *AlternativesService {
	if defaultLimit <= 0 {
		defaultLimit = 6
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AlternativesService{
		catalog:      catalog,
		sessions:     sessions,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       log,
	}
}

// List returns the next page of alternatives for a line of the session's
// quotation. Without ShowAll every id is served at most once per session and
// type; with ShowAll the ceiling is dropped and pages follow the offset.
func (a *AlternativesService) List(ctx context.Context, sessionID string, req model.AlternativesRequest) (*model.AlternativesResponse, error) {
	prior, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrMalformedPrior) {
			return nil, err
		}
		a.logger.Warn("ALTERNATIVES", "Malformed session prior, starting fresh", map[string]interface{}{"session_id": sessionID})
		prior = model.NewSessionPrior()
	}

	sel, ok := findSelection(prior.Selections, req)
	if !ok {
		return nil, ErrUnknownLine
	}

	limit := req.Limit
	if limit <= 0 {
		limit = a.defaultLimit
	}
	if limit > a.maxLimit {
		limit = a.maxLimit
	}

	typeKey := sel.Line.TypeKey()
	exclude := []int64{sel.Item.ID}
	if !req.ShowAll {
		exclude = append(exclude, prior.AltServed[typeKey]...)
	}

	items, err := a.pool(ctx, sel.Line, sel.Item, req.ShowAll, req.Similar, exclude)
	if err != nil {
		return nil, err
	}

	offset := 0
	if req.ShowAll {
		offset = req.Offset
		if offset <= 0 {
			offset = prior.AltOffsets[typeKey]
		}
		if offset >= len(items) {
			offset = 0
		}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	page := append([]model.CatalogItem{}, items[offset:end]...)

	if req.ShowAll {
		prior.AltOffsets[typeKey] = end
	} else {
		for _, it := range page {
			prior.AltServed[typeKey] = append(prior.AltServed[typeKey], it.ID)
		}
	}
	if err := a.sessions.Save(ctx, sessionID, prior); err != nil {
		a.logger.Warn("ALTERNATIVES", "Failed to save served ids", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
	}

	current := sel.Item
	return &model.AlternativesResponse{
		Type:     sel.Line.Type,
		Room:     sel.Line.Room,
		Current:  &current,
		Results:  page,
		Offset:   offset,
		PageSize: limit,
		HasMore:  end < len(items),
	}, nil
}

// Next returns the first alternative for a line, or the first one whose
// name matches when name is set. Name lookups ignore the ceiling.
func (a *AlternativesService) Next(ctx context.Context, line model.RequestedLine, currentID int64, name string, served []int64) (*model.CatalogItem, error) {
	exclude := append([]int64{currentID}, served...)
	current := model.CatalogItem{ID: currentID}
	if line.Specs.Subtype != "" && currentID != 0 {
		if item, err := a.catalog.FetchByID(ctx, currentID); err == nil && item != nil {
			current = *item
		}
	}

	if name != "" {
		items, err := a.pool(ctx, line, current, true, false, []int64{currentID})
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if nameMatches(name, it) {
				found := it
				return &found, nil
			}
		}
		return nil, nil
	}

	for _, showAll := range []bool{false, true} {
		items, err := a.pool(ctx, line, current, showAll, false, exclude)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			found := items[0]
			return &found, nil
		}
	}
	return nil, nil
}

// pool queries the candidates of a line and diversifies them
func (a *AlternativesService) pool(ctx context.Context, line model.RequestedLine, current model.CatalogItem, showAll, similar bool, exclude []int64) ([]model.CatalogItem, error) {
	ceiling := line.PriceCeiling
	if showAll {
		ceiling = nil
	}

	q := baseQuery(line, alternativeSubtype(line, current), ceiling, 1)
	q.ExcludeIDs = exclude
	q.Limit = poolLimit
	if similar && current.ID != 0 {
		q.OrderBy = model.OrderSimilarity
		q.NearItemID = current.ID
	}
	items, err := a.catalog.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	if line.MinSeats > 0 && (line.Type == model.TypeSofa || line.Type == model.TypeSofaBed) {
		items = preferBy(items, func(it model.CatalogItem) bool { return SeatCount(it) >= line.MinSeats })
	}
	if similar {
		return items, nil
	}
	return diversify(items), nil
}

// alternativeSubtype keeps alternatives inside the line's subtype. Only a
// line whose current item was picked after dropping the subtype pages over
// the whole category.
func alternativeSubtype(line model.RequestedLine, current model.CatalogItem) string {
	if line.Specs.Subtype == "" || current.Name == "" {
		return line.Specs.Subtype
	}
	text := current.Name
	if current.Subcategory != nil {
		text += " " + *current.Subcategory
	}
	if !utils.FuzzyMatchSubtype(line.Specs.Subtype, text) {
		return ""
	}
	return line.Specs.Subtype
}

// diversify round-robins over (seat class, material class) buckets so
// consecutive results differ
func diversify(items []model.CatalogItem) []model.CatalogItem {
	var order []string
	buckets := make(map[string][]model.CatalogItem)
	for _, it := range items {
		key := seatClass(SeatCount(it)) + "|" + utils.MaterialClass(materialText(it))
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], it)
	}

	out := make([]model.CatalogItem, 0, len(items))
	for round := 0; len(out) < len(items); round++ {
		for _, key := range order {
			if round < len(buckets[key]) {
				out = append(out, buckets[key][round])
			}
		}
	}
	return out
}

func seatClass(n int) string {
	switch {
	case n == 0:
		return "unknown"
	case n <= 2:
		return "small"
	case n == 3:
		return "medium"
	}
	return "large"
}

func materialText(it model.CatalogItem) string {
	if it.Material != nil && *it.Material != "" {
		return *it.Material
	}
	return it.SearchText()
}

func nameMatches(name string, it model.CatalogItem) bool {
	text := it.SearchText()
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if !utils.ContainsWord(text, w) {
			return false
		}
	}
	return true
}

// findSelection picks the selection a request refers to, preferring an
// exact room and subtype match
func findSelection(selections []model.Selection, req model.AlternativesRequest) (model.Selection, bool) {
	t, ok := model.ParseItemType(string(req.Type))
	if !ok {
		return model.Selection{}, false
	}
	room := ""
	if req.Room != "" {
		if r, ok := model.NormalizeRoom(req.Room); ok {
			room = r
		}
	}
	subtype := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(req.Subtype)), " ", "_")

	best, bestScore := -1, -1
	for i, s := range selections {
		if s.Line.Type != t {
			continue
		}
		if room != "" && !roomMatches(s.Line.Room, room) {
			continue
		}
		if subtype != "" && s.Line.Specs.Subtype != subtype {
			continue
		}
		score := 0
		if s.Line.Room == room {
			score++
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return model.Selection{}, false
	}
	return selections[best], true
}
