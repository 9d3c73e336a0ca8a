package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"furnisher/internal/model"
	"furnisher/internal/repository"
)

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func float64Ptr(v float64) *float64 { return &v }

// catalogItem builds an item priced in rupees
func catalogItem(id int64, name string, t model.ItemType, subcategory string, rupees int64) model.CatalogItem {
	it := model.CatalogItem{
		ID:         id,
		Name:       name,
		PriceMinor: rupees * 100,
		Category:   string(t),
	}
	if subcategory != "" {
		it.Subcategory = strPtr(subcategory)
	}
	return it
}

var fixtureSubtypes = map[model.ItemType][]string{
	model.TypeSofa:               {""},
	model.TypeSofaBed:            {""},
	model.TypeTVBench:            {""},
	model.TypeTable:              {"coffee table", "dining table", "bedside table", "side table"},
	model.TypeChair:              {"dining chair", "office chair", "armchair", "outdoor chair"},
	model.TypeLamp:               {"floor lamp", "desk lamp"},
	model.TypeCabinet:            {"kitchen cabinet"},
	model.TypeShelf:              {"wall shelf"},
	model.TypeBed:                {""},
	model.TypeWardrobe:           {""},
	model.TypeMirror:             {""},
	model.TypeMirrorCabinet:      {""},
	model.TypeWashstand:          {""},
	model.TypeDesk:               {""},
	model.TypeBookcase:           {""},
	model.TypeShoeRack:           {""},
	model.TypeStool:              {"bar stool"},
	model.TypeDrawer:             {""},
	model.TypeStorageCombination: {""},
}

var fixturePrices = []int64{900, 2500, 4500, 9000, 18000, 30000}

// fixtureCatalog returns a catalog with six price points per type and
// subtype, alternating modern and classic styling. Sofas carry seat counts.
func fixtureCatalog() []model.CatalogItem {
	var items []model.CatalogItem
	id := int64(1000)
	for _, t := range model.Taxonomy {
		for _, sub := range fixtureSubtypes[t] {
			label := strings.ReplaceAll(string(t), "_", " ")
			if sub != "" {
				label = sub
			}
			for i, price := range fixturePrices {
				style := "classic"
				if i%2 == 0 {
					style = "modern"
				}
				name := fmt.Sprintf("%s %s %d", style, label, price)
				if t == model.TypeSofa || t == model.TypeSofaBed {
					name = fmt.Sprintf("%s %d seater sofa %d", style, []int{2, 3, 3, 4, 5, 6}[i], price)
				}
				id++
				items = append(items, catalogItem(id, name, t, sub, price))
			}
		}
	}
	return items
}

// premiumSofa is priced above every sofa ceiling so no search ever picks it
var premiumSofa = catalogItem(77, "grand leather 3 seater sofa", model.TypeSofa, "", 200000)

func newFixtureCatalog() *repository.MemoryCatalog {
	c := repository.NewMemoryCatalog(fixtureCatalog())
	c.Add(premiumSofa)
	return c
}

// failingCatalog fails every query for the listed categories
type failingCatalog struct {
	CatalogGateway
	failFor map[string]bool
}

func (f *failingCatalog) Query(ctx context.Context, q model.CatalogQuery) ([]model.CatalogItem, error) {
	if f.failFor[q.Category] {
		return nil, errors.New("connection reset")
	}
	return f.CatalogGateway.Query(ctx, q)
}

// recordingTurnLog captures turn and feedback logs
type recordingTurnLog struct {
	mu       sync.Mutex
	turns    []string
	feedback []string
	done     chan struct{}
}

func newRecordingTurnLog() *recordingTurnLog {
	return &recordingTurnLog{done: make(chan struct{}, 16)}
}

func (r *recordingTurnLog) LogTurn(ctx context.Context, sessionID, message string, totalMinor int64, lineCount, unmetCount int, tookMs int64) error {
	r.mu.Lock()
	r.turns = append(r.turns, sessionID+"|"+message)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingTurnLog) LogFeedback(ctx context.Context, sessionID, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = append(r.feedback, sessionID+"|"+action)
	return nil
}

// stubAI is a scriptable LLM collaborator
type stubAI struct {
	intent    *model.IntentResult
	intentErr error
	summary   *model.RichSummary
	sumErr    error
	proposal  []model.RequestedLine
	propErr   error

	mu          sync.Mutex
	intentCalls int
}

func (s *stubAI) IsEnabled() bool { return true }

func (s *stubAI) ParseIntent(ctx context.Context, text string) (*model.IntentResult, error) {
	s.mu.Lock()
	s.intentCalls++
	s.mu.Unlock()
	return s.intent, s.intentErr
}

func (s *stubAI) Summarize(ctx context.Context, text string, hints SummaryHints) (*model.RichSummary, error) {
	if s.sumErr != nil {
		return nil, s.sumErr
	}
	if s.summary == nil {
		return nil, errors.New("no summary scripted")
	}
	return s.summary, nil
}

func (s *stubAI) ProposeEssentials(ctx context.Context, in model.ProposalInput) ([]model.RequestedLine, error) {
	return s.proposal, s.propErr
}

func lineByType(lines []model.RequestedLine, room string, t model.ItemType, subtype string) (model.RequestedLine, bool) {
	for _, l := range lines {
		if l.Room == room && l.Type == t && l.Specs.Subtype == subtype {
			return l, true
		}
	}
	return model.RequestedLine{}, false
}

func itemsByKey(q model.Quotation) map[string]int64 {
	out := make(map[string]int64, len(q.Items))
	for _, it := range q.Items {
		out[it.Room+"|"+string(it.Type)+"|"+it.Subtype] = it.Item.ID
	}
	return out
}
