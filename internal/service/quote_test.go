package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"furnisher/internal/model"
	"furnisher/internal/repository"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteFixture struct {
	svc      *QuoteService
	sessions *repository.MemorySessionStore
	turnLog  *recordingTurnLog
	metrics  *Metrics
}

func newQuoteFixture(t *testing.T, catalog CatalogGateway, ai AIClient) *quoteFixture {
	t.Helper()
	if catalog == nil {
		catalog = newFixtureCatalog()
	}
	f := &quoteFixture{
		sessions: repository.NewMemorySessionStore(time.Hour),
		turnLog:  newRecordingTurnLog(),
		metrics:  NewMetrics(),
	}
	f.svc = NewQuoteService(QuoteDeps{
		Sessions:     f.sessions,
		Catalog:      catalog,
		TurnLog:      f.turnLog,
		AI:           ai,
		Workers:      4,
		QueryLimit:   60,
		QueryTimeout: time.Second,
		LLMTimeout:   time.Second,
		Metrics:      f.metrics,
	})
	return f
}

func (f *quoteFixture) turn(t *testing.T, sessionID, message string) *model.TurnResponse {
	t.Helper()
	resp, err := f.svc.Turn(context.Background(), &model.ChatRequest{SessionID: sessionID, Message: message})
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

func TestQuoteService_FirstTurnWithinBudget(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)

	resp := f.turn(t, "s1", "2 BHK, budget ₹600000, modern")

	require.NotNil(t, resp.Plan)
	assert.Equal(t, 2, resp.Plan.BHK)
	assert.Equal(t, model.TierPremium, resp.Plan.Tier)
	assert.Equal(t, "modern", resp.Plan.Theme)
	assert.Equal(t, []string{"living", "kitchen", "master bedroom", "bedroom 2", "bathroom"}, resp.Plan.Rooms)
	require.NotNil(t, resp.Plan.Budget)
	assert.Equal(t, model.BudgetTotal, resp.Plan.Budget.Scope)
	assert.Equal(t, 600000.0, resp.Plan.Budget.Amount)

	assert.Empty(t, resp.Unmet)
	assert.Len(t, resp.Quotation.Items, 16)
	assert.LessOrEqual(t, resp.Quotation.TotalMinor, int64(600000*100))
	assert.False(t, resp.Quotation.OverBudget)
	assert.Empty(t, resp.Clarification)

	seen := make(map[int64]bool)
	for _, it := range resp.Quotation.Items {
		assert.False(t, seen[it.Item.ID], "item %d used twice", it.Item.ID)
		seen[it.Item.ID] = true
		assert.Equal(t, it.UnitPriceMinor*int64(it.Quantity), it.LineTotalMinor)
	}
	for _, d := range resp.Quotation.Deltas {
		assert.Equal(t, model.DeltaAdded, d.Reason)
	}
	assert.Equal(t, resp.Quotation.TotalMinor, resp.Quotation.TotalDeltaMinor)

	require.NotNil(t, resp.Summary)
	assert.Contains(t, resp.Summary.Overview, "2 BHK")
}

func TestQuoteService_RepeatedTurnIsIdempotent(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	msg := "2 BHK, budget ₹600000, modern"

	first := f.turn(t, "s1", msg)
	second := f.turn(t, "s1", msg)

	assert.Equal(t, itemsByKey(first.Quotation), itemsByKey(second.Quotation))
	assert.Equal(t, first.Quotation.TotalMinor, second.Quotation.TotalMinor)
	assert.Zero(t, second.Quotation.TotalDeltaMinor)
	assert.Empty(t, second.Changes)
	for _, d := range second.Quotation.Deltas {
		assert.Equal(t, model.DeltaUnchanged, d.Reason, d.Key)
	}
}

func TestQuoteService_TargetedReplaceKeepsOtherLines(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)

	first := f.turn(t, "s1", "2 BHK, budget ₹600000, modern")
	second := f.turn(t, "s1", "replace sofa with id 77")

	before := itemsByKey(first.Quotation)
	after := itemsByKey(second.Quotation)
	require.Len(t, after, len(before))

	sofaKey := "living|sofa|"
	assert.Equal(t, int64(77), after[sofaKey])
	for key, id := range before {
		if key == sofaKey {
			continue
		}
		assert.Equal(t, id, after[key], key)
	}

	require.Len(t, second.Changes, 1)
	assert.Equal(t, model.ChangeReplaced, second.Changes[0].Reason)

	for _, d := range second.Quotation.Deltas {
		if d.Type == model.TypeSofa {
			assert.Equal(t, model.DeltaReplaced, d.Reason)
			continue
		}
		assert.Equal(t, model.DeltaUnchanged, d.Reason, d.Key)
	}
}

func TestQuoteService_ExclusionVersusRemoval(t *testing.T) {
	roomsOf := func(q model.Quotation) map[string]bool {
		out := make(map[string]bool)
		for _, it := range q.Items {
			out[it.Room] = true
		}
		return out
	}

	t.Run("without on the first turn excludes from planning", func(t *testing.T) {
		f := newQuoteFixture(t, nil, nil)
		resp := f.turn(t, "s1", "2 BHK without master bedroom")

		assert.NotContains(t, resp.Plan.Rooms, model.MasterBedroom)
		assert.Contains(t, resp.Plan.ExcludedRooms, model.MasterBedroom)
		assert.False(t, roomsOf(resp.Quotation)[model.MasterBedroom])
		assert.True(t, roomsOf(resp.Quotation)["bedroom 2"])
		assert.Empty(t, resp.Changes)
	})

	t.Run("remove after a quotation edits it", func(t *testing.T) {
		f := newQuoteFixture(t, nil, nil)
		first := f.turn(t, "s1", "2 BHK")
		require.True(t, roomsOf(first.Quotation)[model.MasterBedroom])

		resp := f.turn(t, "s1", "now remove the master bedroom")

		assert.False(t, roomsOf(resp.Quotation)[model.MasterBedroom])
		assert.NotContains(t, resp.Plan.Rooms, model.MasterBedroom)
		require.NotEmpty(t, resp.Changes)
		for _, c := range resp.Changes {
			assert.Equal(t, model.ChangeRemoved, c.Reason)
			assert.Equal(t, model.MasterBedroom, c.Room)
		}

		removed := 0
		for _, d := range resp.Quotation.Deltas {
			if d.Room == model.MasterBedroom {
				assert.Equal(t, model.DeltaRemoved, d.Reason)
				removed++
				continue
			}
			assert.Equal(t, model.DeltaUnchanged, d.Reason, d.Key)
		}
		assert.Equal(t, 4, removed)
		assert.Less(t, resp.Quotation.TotalDeltaMinor, int64(0))
	})
}

func TestQuoteService_StyleChangeRefreshesPicks(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)

	first := f.turn(t, "s1", "2 BHK, modern")
	second := f.turn(t, "s1", "make it classic")

	assert.Equal(t, "traditional", second.Plan.Theme)
	sofaKey := "living|sofa|"
	assert.NotEqual(t, itemsByKey(first.Quotation)[sofaKey], itemsByKey(second.Quotation)[sofaKey])
}

func TestQuoteService_CommandOnlyFirstTurn(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)

	resp := f.turn(t, "s1", "add a tv bench with id 1062")

	require.Len(t, resp.Quotation.Items, 1)
	assert.Equal(t, int64(1062), resp.Quotation.Items[0].Item.ID)
	assert.Equal(t, model.ReasonPreferred, resp.Quotation.Items[0].Reason)
	assert.Equal(t, []string{model.RoomLiving}, resp.Plan.Rooms)
	assert.False(t, resp.Plan.Defaulted)
}

func TestQuoteService_CatalogFailureStaysOnItsLine(t *testing.T) {
	catalog := &failingCatalog{CatalogGateway: newFixtureCatalog(), failFor: map[string]bool{"sofa": true}}
	f := newQuoteFixture(t, catalog, nil)

	resp := f.turn(t, "s1", "2 BHK")

	require.Len(t, resp.Unmet, 1)
	assert.Equal(t, model.TypeSofa, resp.Unmet[0].Line.Type)
	assert.Equal(t, model.ReasonError, resp.Unmet[0].Reason)
	assert.NotEmpty(t, resp.Unmet[0].Tried)
	assert.Len(t, resp.Quotation.Items, 15)
	assert.Contains(t, resp.Clarification, "sofa")
}

func TestQuoteService_DefaultedPlanAsksForBedrooms(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)

	resp := f.turn(t, "s1", "furnish my flat")

	assert.True(t, resp.Plan.Defaulted)
	assert.Equal(t, 1, resp.Plan.BHK)
	assert.Contains(t, resp.Clarification, "How many bedrooms")
}

func TestQuoteService_MalformedPriorStartsFresh(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	f.sessions.SetRaw("s1", []byte("{not json"))

	resp := f.turn(t, "s1", "2 BHK")

	assert.Equal(t, "s1", resp.SessionID)
	assert.NotEmpty(t, resp.Quotation.Items)
	for _, d := range resp.Quotation.Deltas {
		assert.Equal(t, model.DeltaAdded, d.Reason)
	}
}

func TestQuoteService_EmptyMessage(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)

	_, err := f.svc.Turn(context.Background(), &model.ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestQuoteService_GeneratesSessionID(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)

	resp := f.turn(t, "", "2 BHK")

	assert.Len(t, resp.SessionID, 36)
	prior, err := f.sessions.Load(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, prior.Turn)
	assert.Len(t, prior.LineItems, len(resp.Quotation.Items))
}

func TestQuoteService_StreamEmitsStages(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)

	var events []string
	resp, err := f.svc.TurnStream(context.Background(), &model.ChatRequest{Message: "2 BHK"}, func(event string, data any) error {
		events = append(events, event)
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, []string{"parsing", "plan", "selecting", "quotation", "done"}, events)
}

func TestQuoteService_StreamStopsOnCallbackError(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	gone := errors.New("client went away")

	_, err := f.svc.TurnStream(context.Background(), &model.ChatRequest{Message: "2 BHK"}, func(event string, data any) error {
		if event == "plan" {
			return gone
		}
		return nil
	})
	assert.ErrorIs(t, err, gone)
}

func TestQuoteService_LLMFailuresFallBack(t *testing.T) {
	ai := &stubAI{
		intentErr: errors.New("timeout"),
		sumErr:    errors.New("bad json"),
		propErr:   errors.New("rate limited"),
	}
	f := newQuoteFixture(t, nil, ai)

	resp := f.turn(t, "s1", "2 BHK, budget 6 lakh")

	assert.Len(t, resp.Quotation.Items, 16)
	require.NotNil(t, resp.Summary)
	assert.Contains(t, resp.Summary.Overview, "2 BHK")

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.llmFallbacks.WithLabelValues("intent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.llmFallbacks.WithLabelValues("essentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.llmFallbacks.WithLabelValues("summary")))
}

func TestQuoteService_LLMFillsMissingFacts(t *testing.T) {
	summary := &model.RichSummary{Overview: "A 3 BHK home"}
	ai := &stubAI{
		intent:  &model.IntentResult{BHK: intPtr(3), Budget: &model.IntentBudget{Amount: 900000}},
		summary: summary,
	}
	f := newQuoteFixture(t, nil, ai)

	resp := f.turn(t, "s1", "furnish my new flat")

	assert.Equal(t, 3, resp.Plan.BHK)
	require.NotNil(t, resp.Plan.Budget)
	assert.Equal(t, 900000.0, resp.Plan.Budget.Amount)
	assert.Equal(t, summary, resp.Summary)
	assert.Equal(t, 1, ai.intentCalls)

	// commands skip the intent collaborator
	f.turn(t, "s1", "remove the mirror")
	assert.Equal(t, 1, ai.intentCalls)
}

func TestQuoteService_LogsTurnsAndFeedback(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	ctx := context.Background()

	f.turn(t, "s1", "2 BHK")
	select {
	case <-f.turnLog.done:
	case <-time.After(2 * time.Second):
		t.Fatal("turn was not logged")
	}
	f.turnLog.mu.Lock()
	assert.Equal(t, []string{"s1|2 BHK"}, f.turnLog.turns)
	f.turnLog.mu.Unlock()

	require.NoError(t, f.svc.LogFeedback(ctx, "s1", "accept"))
	assert.Equal(t, []string{"s1|accept"}, f.turnLog.feedback)
	assert.ErrorIs(t, f.svc.LogFeedback(ctx, "s1", "click"), ErrInvalidAction)
}

func TestQuoteService_GetItemAndReset(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	ctx := context.Background()

	item, err := f.svc.GetItem(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, premiumSofa.Name, item.Name)

	_, err = f.svc.GetItem(ctx, 99999)
	assert.ErrorIs(t, err, ErrItemNotFound)

	f.turn(t, "s1", "2 BHK")
	require.NoError(t, f.svc.Reset(ctx, "s1"))
	prior, err := f.sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, prior.HasQuotation())
}

func TestSameProfile(t *testing.T) {
	r := NewStyleResolver()
	modern := r.Resolve([]model.StyleWeight{{Theme: "modern", Weight: 1}}, nil, nil)
	filters := model.Filters{Theme: modern.Name(), StyleBias: modern.Bias, Negatives: modern.Negatives}

	tests := []struct {
		name string
		b    *StyleProfile
		want bool
	}{
		{"round trip through filters", r.FromFilters(filters), true},
		{"different theme", r.Resolve([]model.StyleWeight{{Theme: "rustic", Weight: 1}}, nil, nil), false},
		{"extra keyword", amendProfile(modern, []string{"walnut"}, nil), false},
		{"repeated keyword", amendProfile(amendProfile(modern, []string{"walnut"}, nil), []string{"walnut"}, nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameProfile(modern, tt.b))
		})
	}

	once := amendProfile(modern, []string{"walnut"}, nil)
	assert.True(t, sameProfile(once, amendProfile(once, []string{"walnut"}, nil)))
}

func TestQuoteService_PinnedItemHeldByPreservedLine(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	first := f.turn(t, "s1", "2 BHK")
	masterBed := itemsByKey(first.Quotation)[model.MasterBedroom+"|bed|"]
	require.NotZero(t, masterBed)

	resp := f.turn(t, "s1", fmt.Sprintf("replace the bed in bedroom 2 with id %d", masterBed))

	byKey := itemsByKey(resp.Quotation)
	assert.Equal(t, masterBed, byKey[model.MasterBedroom+"|bed|"])
	assert.NotZero(t, byKey["bedroom 2|bed|"])
	assert.NotEqual(t, masterBed, byKey["bedroom 2|bed|"])

	owner := make(map[int64]string)
	for _, it := range resp.Quotation.Items {
		key := it.Room + "|" + string(it.Type) + "|" + it.Subtype
		prev, dup := owner[it.Item.ID]
		assert.False(t, dup, "item %d used by %s and %s", it.Item.ID, prev, key)
		owner[it.Item.ID] = key
	}
}
