package service

import (
	"context"
	"testing"

	"furnisher/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlternativesService_NeverRepeats(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	ctx := context.Background()
	first := f.turn(t, "s1", "2 BHK")
	current := itemsByKey(first.Quotation)["living|sofa|"]

	seen := map[int64]bool{current: true}
	for page := 0; page < 3; page++ {
		resp, err := f.svc.Alternatives().List(ctx, "s1", model.AlternativesRequest{Type: model.TypeSofa, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, current, resp.Current.ID)
		for _, it := range resp.Results {
			assert.False(t, seen[it.ID], "item %d served twice", it.ID)
			seen[it.ID] = true
			assert.LessOrEqual(t, it.PriceMinor, int64(35000*100))
		}
	}
	// every sofa under the ceiling has been served
	assert.Len(t, seen, 6)

	resp, err := f.svc.Alternatives().List(ctx, "s1", model.AlternativesRequest{Type: model.TypeSofa, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.False(t, resp.HasMore)
}

func TestAlternativesService_StaysInSubtype(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	ctx := context.Background()
	first := f.turn(t, "s1", "2 BHK")
	current := itemsByKey(first.Quotation)["living|table|coffee_table"]
	require.NotZero(t, current)

	req := model.AlternativesRequest{Type: model.TypeTable, Subtype: "coffee_table", Room: "living", Limit: 4}
	var resp *model.AlternativesResponse
	for page := 0; page < 3; page++ {
		var err error
		resp, err = f.svc.Alternatives().List(ctx, "s1", req)
		require.NoError(t, err)
		for _, it := range resp.Results {
			require.NotNil(t, it.Subcategory)
			assert.Equal(t, "coffee table", *it.Subcategory, "page %d served %q", page, it.Name)
		}
	}
	assert.Empty(t, resp.Results)
	assert.False(t, resp.HasMore)

	t.Run("next never leaves the subtype", func(t *testing.T) {
		line := model.RequestedLine{Type: model.TypeTable, Room: model.RoomLiving, Quantity: 1, Specs: model.Specs{Subtype: "coffee_table"}}
		var served []int64
		for _, it := range fixtureCatalog() {
			if it.Subcategory != nil && *it.Subcategory == "coffee table" && it.ID != current {
				served = append(served, it.ID)
			}
		}

		item, err := f.svc.Alternatives().Next(ctx, line, current, "", served[1:])
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, served[0], item.ID)

		item, err = f.svc.Alternatives().Next(ctx, line, current, "", served)
		require.NoError(t, err)
		assert.Nil(t, item)
	})
}

func TestAlternativesService_DiversifiesSeatClasses(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	f.turn(t, "s1", "2 BHK")

	resp, err := f.svc.Alternatives().List(context.Background(), "s1", model.AlternativesRequest{Type: model.TypeSofa, Limit: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)

	classes := make(map[string]bool)
	for _, it := range resp.Results {
		classes[seatClass(SeatCount(it))] = true
	}
	assert.Len(t, classes, 3)
}

func TestAlternativesService_ShowAllPages(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	ctx := context.Background()
	f.turn(t, "s1", "2 BHK")
	req := model.AlternativesRequest{Type: model.TypeSofa, Limit: 4, ShowAll: true}

	page1, err := f.svc.Alternatives().List(ctx, "s1", req)
	require.NoError(t, err)
	assert.Len(t, page1.Results, 4)
	assert.Equal(t, 0, page1.Offset)
	assert.True(t, page1.HasMore)

	page2, err := f.svc.Alternatives().List(ctx, "s1", req)
	require.NoError(t, err)
	assert.Equal(t, 4, page2.Offset)
	assert.Len(t, page2.Results, 2)
	assert.False(t, page2.HasMore)

	var ids []int64
	for _, it := range append(page1.Results, page2.Results...) {
		ids = append(ids, it.ID)
	}
	// no ceiling applies, so the premium sofa shows up
	assert.Contains(t, ids, premiumSofa.ID)

	page3, err := f.svc.Alternatives().List(ctx, "s1", req)
	require.NoError(t, err)
	assert.Equal(t, 0, page3.Offset)
}

func TestAlternativesService_Lookup(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	ctx := context.Background()
	first := f.turn(t, "s1", "2 BHK")

	tests := []struct {
		name    string
		req     model.AlternativesRequest
		wantErr error
		room    string
	}{
		{"room picks the line", model.AlternativesRequest{Type: model.TypeMirror, Room: "bedroom 2"}, nil, "bedroom 2"},
		{"generic bedroom", model.AlternativesRequest{Type: model.TypeBed, Room: "bedroom"}, nil, model.MasterBedroom},
		{"subtype", model.AlternativesRequest{Type: model.TypeTable, Subtype: "coffee table"}, nil, model.RoomLiving},
		{"type not in quotation", model.AlternativesRequest{Type: model.TypeDesk}, ErrUnknownLine, ""},
		{"unknown type", model.AlternativesRequest{Type: "hammock"}, ErrUnknownLine, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.Alternatives().List(ctx, "s1", tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.room, resp.Room)
			assert.Equal(t, itemsByKey(first.Quotation)[tt.room+"|"+string(tt.req.Type)+"|"+subtypeOf(tt.req)], resp.Current.ID)
		})
	}

	_, err := f.svc.Alternatives().List(ctx, "unknown", model.AlternativesRequest{Type: model.TypeSofa})
	assert.ErrorIs(t, err, ErrUnknownLine)
}

func subtypeOf(req model.AlternativesRequest) string {
	if req.Subtype == "" {
		return ""
	}
	return "coffee_table"
}

func TestQuoteService_BareReplaceShowsAnAlternative(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	first := f.turn(t, "s1", "2 BHK")
	prev := itemsByKey(first.Quotation)["living|sofa|"]

	for i := 0; i < 3; i++ {
		resp := f.turn(t, "s1", "show me another sofa")
		got := itemsByKey(resp.Quotation)["living|sofa|"]
		assert.NotEqual(t, prev, got)
		for _, it := range resp.Quotation.Items {
			if it.Type == model.TypeSofa {
				assert.Equal(t, model.ReasonPreferred, it.Reason)
			}
		}
		prev = got
	}
}

func TestQuoteService_ReplaceByName(t *testing.T) {
	f := newQuoteFixture(t, nil, nil)
	f.turn(t, "s1", "2 BHK")

	resp := f.turn(t, "s1", "swap the sofa for the grand leather one")

	assert.Equal(t, premiumSofa.ID, itemsByKey(resp.Quotation)["living|sofa|"])
}

func TestDiversify(t *testing.T) {
	items := []model.CatalogItem{
		catalogItem(1, "leather 3 seater sofa", model.TypeSofa, "", 1),
		catalogItem(2, "leather 3 seater sofa", model.TypeSofa, "", 1),
		catalogItem(3, "fabric 3 seater sofa", model.TypeSofa, "", 1),
		catalogItem(4, "leather 5 seater sofa", model.TypeSofa, "", 1),
	}

	out := diversify(items)

	var ids []int64
	for _, it := range out {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []int64{1, 3, 4, 2}, ids)
}
