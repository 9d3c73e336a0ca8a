package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"furnisher/internal/model"
	"furnisher/internal/pkg/logger"
	"furnisher/internal/utils"

	"golang.org/x/sync/errgroup"
)

// CatalogGateway is the typed query interface over the priced-item store
type CatalogGateway interface {
	Query(ctx context.Context, q model.CatalogQuery) ([]model.CatalogItem, error)
	FetchByID(ctx context.Context, id int64) (*model.CatalogItem, error)
}

// Relaxation rungs recorded on unmet lines
const (
	rungExact        = "exact"
	rungDropSubtype  = "drop_subtype"
	rungWidenCeiling = "widen_ceiling_1.5x"
	rungDropCeiling  = "drop_ceiling"
	rungAllUsed      = "all_candidates_used"
	rungQueryFailed  = "query_failed"

	maxUnmetReasons = 5
)

// SelectionContext is the per-turn state the selector reads
type SelectionContext struct {
	Style        *StyleProfile
	StyleChanged bool
	// Reuse enables re-fetching the previous pick of untouched lines
	Reuse       bool
	Touched     map[string]bool
	PriorItems  map[string]int64 // line key -> item id
	PriorByType map[string]int64 // type key -> item id
	// Held maps item ids kept by preserved lines to the line key holding
	// them; no other line may claim them this turn
	Held map[int64]string
}

// LineResult is the outcome for one requested line; exactly one of
// Selection and Unmet is set
type LineResult struct {
	Line      model.RequestedLine
	Selection *model.Selection
	Unmet     *model.UnmetLine
}

// Selector resolves requested lines to catalog items
type Selector struct {
	catalog      CatalogGateway
	ranker       *Ranker
	workers      int
	limit        int
	queryTimeout time.Duration
	logger       logger.ILogger
	metrics      *Metrics
}

// NewSelector creates a selector running at most workers lookups at once
func NewSelector(catalog CatalogGateway, ranker *Ranker, workers, limit int, queryTimeout time.Duration, log logger.ILogger, metrics *Metrics) *Selector {
	if workers <= 0 {
		workers = 1
	}
	if limit <= 0 {
		limit = 60
	}
	if ranker == nil {
		ranker = NewRanker()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Selector{
		catalog:      catalog,
		ranker:       ranker,
		workers:      workers,
		limit:        limit,
		queryTimeout: queryTimeout,
		logger:       log,
		metrics:      metrics,
	}
}

// pool is what candidate generation found for one line
type pool struct {
	pinned       *model.CatalogItem
	pinnedReason model.SelectionReason
	ranked       []model.CatalogItem
	rung         int // next rung to try when ranked is exhausted
	searched     bool
	tried        []string
	failed       bool
}

// SelectAll resolves every line. Candidate lookups fan out over a bounded
// worker pool; the claim of items runs sequentially in a fixed order so no
// item id is used twice in a turn and results are deterministic. A failure
// on one line never affects its siblings.
func (s *Selector) SelectAll(ctx context.Context, lines []model.RequestedLine, sc SelectionContext) []LineResult {
	pools := make([]*pool, len(lines))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range lines {
		i := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("SELECTOR", "Candidate lookup panicked", map[string]interface{}{
						"line":  lines[i].Key(),
						"panic": fmt.Sprint(r),
					})
					pools[i] = &pool{failed: true, tried: []string{rungQueryFailed}, searched: true, rung: len(rungs)}
				}
			}()
			pools[i] = s.candidates(ctx, lines[i], sc)
			return nil
		})
	}
	_ = g.Wait()

	// pinned lines claim first so an explicit id never loses to a search hit
	order := make([]int, len(lines))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return claimRank(pools[order[a]]) < claimRank(pools[order[b]])
	})

	used := make(map[int64]bool, len(sc.Held))
	for id := range sc.Held {
		used[id] = true
	}
	results := make([]LineResult, len(lines))
	for _, i := range order {
		results[i] = s.claim(ctx, lines[i], pools[i], sc, used)
	}
	return results
}

func claimRank(p *pool) int {
	switch {
	case p.pinned != nil && p.pinnedReason == model.ReasonPreferred:
		return 0
	case p.pinned != nil:
		return 1
	}
	return 2
}

// SelectOne resolves a single line against a set of ids already used this turn
func (s *Selector) SelectOne(ctx context.Context, line model.RequestedLine, sc SelectionContext, used map[int64]bool) LineResult {
	if used == nil {
		used = make(map[int64]bool)
	}
	return s.claim(ctx, line, s.candidates(ctx, line, sc), sc, used)
}

// candidates fetches the pinned item of a line, or the first non-empty rung
func (s *Selector) candidates(ctx context.Context, line model.RequestedLine, sc SelectionContext) *pool {
	p := &pool{}

	if line.PreferredItemID != nil {
		if item := s.fetch(ctx, *line.PreferredItemID); item != nil {
			p.pinned, p.pinnedReason = item, model.ReasonPreferred
			return p
		}
	} else if sc.Reuse && !sc.Touched[line.Key()] {
		if id, ok := sc.PriorItems[line.Key()]; ok {
			if item := s.fetch(ctx, id); item != nil {
				p.pinned, p.pinnedReason = item, model.ReasonReused
				return p
			}
		}
	}

	s.search(ctx, line, sc, p)
	return p
}

// claim picks the first unused candidate, walking further down the ladder
// when every candidate of the current rung is taken
func (s *Selector) claim(ctx context.Context, line model.RequestedLine, p *pool, sc SelectionContext, used map[int64]bool) LineResult {
	free := func(id int64) bool {
		return !used[id] || sc.Held[id] == line.Key()
	}
	if p.pinned != nil && free(p.pinned.ID) {
		used[p.pinned.ID] = true
		return s.selected(line, *p.pinned, p.pinnedReason, sc)
	}

	for {
		if !p.searched {
			s.search(ctx, line, sc, p)
		}
		for _, item := range p.ranked {
			if free(item.ID) {
				used[item.ID] = true
				return s.selected(line, item, model.ReasonOK, sc)
			}
		}
		if len(p.ranked) > 0 {
			p.tried = append(p.tried, rungAllUsed)
		}
		if p.rung >= len(rungs) {
			break
		}
		p.searched = false
	}

	reason := model.ReasonNoMatch
	if p.failed {
		reason = model.ReasonError
	}
	s.metrics.Selection(string(reason))
	tried := dedupeStrings(p.tried)
	if len(tried) > maxUnmetReasons {
		tried = tried[:maxUnmetReasons]
	}
	return LineResult{Line: line, Unmet: &model.UnmetLine{Line: line, Reason: reason, Tried: tried}}
}

func (s *Selector) selected(line model.RequestedLine, item model.CatalogItem, reason model.SelectionReason, sc SelectionContext) LineResult {
	s.metrics.Selection(string(reason))
	return LineResult{
		Line: line,
		Selection: &model.Selection{
			Line:    line,
			Item:    item,
			Reason:  reason,
			Matched: s.ranker.MatchedReasons(line, item, reason, sc.Style),
		},
	}
}

// rung builds the query of one relaxation step; ok is false when the step
// would not relax anything for this line
type rungFunc func(line model.RequestedLine) (model.CatalogQuery, bool)

var rungs = []struct {
	name  string
	build rungFunc
}{
	{rungExact, func(l model.RequestedLine) (model.CatalogQuery, bool) {
		return baseQuery(l, l.Specs.Subtype, l.PriceCeiling, 1), true
	}},
	{rungDropSubtype, func(l model.RequestedLine) (model.CatalogQuery, bool) {
		return baseQuery(l, "", l.PriceCeiling, 1), l.Specs.Subtype != ""
	}},
	{rungWidenCeiling, func(l model.RequestedLine) (model.CatalogQuery, bool) {
		return baseQuery(l, "", l.PriceCeiling, 1.5), l.PriceCeiling != nil
	}},
	{rungDropCeiling, func(l model.RequestedLine) (model.CatalogQuery, bool) {
		return baseQuery(l, "", nil, 1), l.PriceCeiling != nil
	}},
}

// baseQuery orders by price closeness to the ceiling when capped and cheap
// first when not
func baseQuery(line model.RequestedLine, subtype string, ceiling *float64, factor float64) model.CatalogQuery {
	q := model.CatalogQuery{
		Category:        string(line.Type),
		SubcategoryLike: subtype,
		OrderBy:         model.OrderPriceAsc,
	}
	if ceiling != nil {
		c := model.MinorUnits(*ceiling * factor)
		q.PriceCeilingMinor = &c
		q.OrderBy = model.OrderPriceDesc
	}
	return q
}

// search walks the ladder from p.rung until a rung yields candidates,
// then applies the structural filters and the style re-rank
func (s *Selector) search(ctx context.Context, line model.RequestedLine, sc SelectionContext, p *pool) {
	p.searched = true
	p.ranked = nil
	for p.rung < len(rungs) {
		r := rungs[p.rung]
		p.rung++
		q, ok := r.build(line)
		if !ok {
			continue
		}
		p.tried = append(p.tried, r.name)

		items, err := s.query(ctx, q)
		if err != nil {
			p.failed = true
			continue
		}
		if len(items) == 0 {
			continue
		}
		p.failed = false

		items = s.refine(ctx, line, q, items, sc)
		if len(items) > 0 {
			p.ranked = items
			return
		}
	}
}

// refine applies seat floor, preferences, style re-rank and diversification
func (s *Selector) refine(ctx context.Context, line model.RequestedLine, q model.CatalogQuery, items []model.CatalogItem, sc SelectionContext) []model.CatalogItem {
	if line.MinSeats > 0 && (line.Type == model.TypeSofa || line.Type == model.TypeSofaBed) {
		items = s.seatFloor(ctx, line.MinSeats, q, items)
	}
	items = preferBy(items, func(it model.CatalogItem) bool {
		return line.Specs.SeaterCount > 0 && SeatCount(it) == line.Specs.SeaterCount
	})
	items = preferBy(items, func(it model.CatalogItem) bool {
		return sizeMatches(line, it.SearchText())
	})
	items = preferBy(items, func(it model.CatalogItem) bool {
		return line.Specs.Material != "" && utils.FuzzyMatchMaterial(line.Specs.Material, it.SearchText())
	})
	items = preferBy(items, func(it model.CatalogItem) bool {
		return shapeMatches(line.Specs.Shape, it.SearchText())
	})

	items = s.ranker.Rerank(items, sc.Style, model.RoomKindOf(line.Room))

	if sc.StyleChanged && len(items) > 1 {
		if prev, ok := sc.PriorByType[line.TypeKey()]; ok {
			items = withoutID(items, prev)
		}
	}
	return items
}

// seatFloor keeps sofas with at least min seats. It widens the ceiling by
// 1.5x and then drops it when nothing qualifies; failing that it prefers
// sectional shapes and finally the highest seat count on offer.
func (s *Selector) seatFloor(ctx context.Context, floor int, q model.CatalogQuery, items []model.CatalogItem) []model.CatalogItem {
	atLeast := func(it model.CatalogItem) bool { return SeatCount(it) >= floor }
	if kept := filterItems(items, atLeast); len(kept) > 0 {
		return kept
	}

	pool := items
	if q.PriceCeilingMinor != nil {
		wider := q
		c := *q.PriceCeilingMinor * 3 / 2
		wider.PriceCeilingMinor = &c
		if more, err := s.query(ctx, wider); err == nil {
			if kept := filterItems(more, atLeast); len(kept) > 0 {
				return kept
			}
		}

		uncapped := q
		uncapped.PriceCeilingMinor = nil
		uncapped.OrderBy = model.OrderPriceAsc
		if more, err := s.query(ctx, uncapped); err == nil && len(more) > 0 {
			if kept := filterItems(more, atLeast); len(kept) > 0 {
				return kept
			}
			pool = more
		}
	}

	if sectional := filterItems(pool, isSectional); len(sectional) > 0 {
		return sectional
	}

	best := 0
	for _, it := range pool {
		if n := SeatCount(it); n > best {
			best = n
		}
	}
	if best == 0 {
		return pool
	}
	return filterItems(pool, func(it model.CatalogItem) bool { return SeatCount(it) == best })
}

func (s *Selector) query(ctx context.Context, q model.CatalogQuery) ([]model.CatalogItem, error) {
	if q.Limit == 0 {
		q.Limit = s.limit
	}
	qctx := ctx
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	items, err := s.catalog.Query(qctx, q)
	s.metrics.CatalogQuery(time.Since(start))
	if err != nil {
		s.logger.Warn("SELECTOR", "Catalog query failed", map[string]interface{}{
			"category": q.Category,
			"subtype":  q.SubcategoryLike,
			"error":    err.Error(),
		})
		return nil, err
	}
	return items, nil
}

func (s *Selector) fetch(ctx context.Context, id int64) *model.CatalogItem {
	qctx := ctx
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	item, err := s.catalog.FetchByID(qctx, id)
	s.metrics.CatalogQuery(time.Since(start))
	if err != nil {
		s.logger.Warn("SELECTOR", "Catalog fetch failed", map[string]interface{}{"id": id, "error": err.Error()})
		return nil
	}
	return item
}

// SeatCount parses the seating capacity from catalog text; 0 when unknown
func SeatCount(item model.CatalogItem) int {
	text := strings.ToLower(item.Name)
	if item.Subcategory != nil {
		text += " " + strings.ToLower(*item.Subcategory)
	}
	if item.Details != nil {
		text += " " + strings.ToLower(*item.Details)
	}
	if m := seaterRe.FindStringSubmatch(text); m != nil {
		if n, ok := parseCount(m[1]); ok {
			return n
		}
	}
	if strings.Contains(text, "loveseat") || strings.Contains(text, "love seat") {
		return 2
	}
	return 0
}

func isSectional(item model.CatalogItem) bool {
	text := item.SearchText()
	for _, w := range []string{"sectional", "corner", "modular", "l-shaped", "l shaped"} {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// sizeMatches applies the explicit size of a line, or the queen/king rule
// for beds in the master bedroom
func sizeMatches(line model.RequestedLine, text string) bool {
	if line.Specs.Size != "" {
		return utils.ContainsWord(text, line.Specs.Size)
	}
	if line.Type == model.TypeBed && line.Room == model.MasterBedroom {
		return utils.ContainsWord(text, "queen") || utils.ContainsWord(text, "king")
	}
	return false
}

func shapeMatches(shape, text string) bool {
	if shape == "" {
		return false
	}
	return strings.Contains(text, shape) || strings.Contains(text, strings.ReplaceAll(shape, "-", " "))
}

// preferBy narrows items to those matching pred, unless none do
func preferBy(items []model.CatalogItem, pred func(model.CatalogItem) bool) []model.CatalogItem {
	if kept := filterItems(items, pred); len(kept) > 0 {
		return kept
	}
	return items
}

func filterItems(items []model.CatalogItem, pred func(model.CatalogItem) bool) []model.CatalogItem {
	var out []model.CatalogItem
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

func withoutID(items []model.CatalogItem, id int64) []model.CatalogItem {
	out := filterItems(items, func(it model.CatalogItem) bool { return it.ID != id })
	if len(out) == 0 {
		return items
	}
	return out
}
