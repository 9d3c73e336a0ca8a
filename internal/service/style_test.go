package service

import (
	"testing"

	"furnisher/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalTheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Modern", "modern", true},
		{"scandi", "scandinavian", true},
		{"classic", "traditional", true},
		{"mid_century", "mid_century", true},
		{" Mid Century ", "mid_century", true},
		{"boho", "bohemian", true},
		{"cyberpunk", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CanonicalTheme(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStyleResolver_Resolve(t *testing.T) {
	r := NewStyleResolver()

	t.Run("single theme", func(t *testing.T) {
		p := r.Resolve([]model.StyleWeight{{Theme: "modern", Weight: 1}}, nil, nil)
		assert.Equal(t, "modern", p.Name())
		assert.Equal(t, 2.0, p.Bias["modern"])
		assert.Contains(t, p.Negatives, "ornate")
	})

	t.Run("blend is normalised", func(t *testing.T) {
		p := r.Resolve([]model.StyleWeight{{Theme: "modern", Weight: 3}, {Theme: "industrial", Weight: 1}, {Theme: "unknown", Weight: 5}}, nil, nil)
		require.Len(t, p.Themes, 2)
		assert.InDelta(t, 0.75, p.Themes[0].Weight, 1e-9)
		assert.InDelta(t, 0.25, p.Themes[1].Weight, 1e-9)
		assert.Equal(t, "industrial+modern", p.Name())
		// metal is asked for by both members
		assert.InDelta(t, 0.5*0.75+1.5*0.25, p.Bias["metal"], 1e-9)
	})

	t.Run("a member's token is never penalised", func(t *testing.T) {
		p := r.Resolve([]model.StyleWeight{{Theme: "modern"}, {Theme: "rustic"}}, nil, nil)
		assert.NotContains(t, p.Negatives, "rustic")
		assert.Contains(t, p.Bias, "rustic")
	})

	t.Run("keywords and avoid", func(t *testing.T) {
		p := r.Resolve(nil, []string{"Walnut", "boho", ""}, []string{"glass", "walnut"})
		assert.Empty(t, p.Themes)
		assert.NotContains(t, p.Bias, "boho")
		assert.NotContains(t, p.Bias, "walnut")
		assert.Equal(t, []string{"glass", "walnut"}, p.Negatives)
		assert.False(t, p.Empty())
	})

	t.Run("nothing", func(t *testing.T) {
		assert.True(t, r.Resolve(nil, nil, nil).Empty())
		var nilProfile *StyleProfile
		assert.True(t, nilProfile.Empty())
		assert.Equal(t, "", nilProfile.Name())
	})
}

func TestStyleProfile_Score(t *testing.T) {
	modern := NewStyleResolver().Resolve([]model.StyleWeight{{Theme: "modern"}}, nil, nil)

	tests := []struct {
		name string
		text string
		room string
		want float64
	}{
		{"bias tokens", "sleek modern sofa", model.RoomBedroom, 3.5},
		{"room hints add", "modern modular sofa", model.RoomLiving, 3},
		{"room hints are capped", "modern modular sectional low sofa", model.RoomLiving, 4},
		{"negatives subtract", "carved vintage cabinet", model.RoomLiving, -4},
		{"whole words only", "modernist sofa", model.RoomLiving, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, modern.Score(tt.text, tt.room), 1e-9)
		})
	}

	assert.Zero(t, (&StyleProfile{}).Score("modern sofa", model.RoomLiving))
}

func TestStyleResolver_FromFilters(t *testing.T) {
	r := NewStyleResolver()

	t.Run("theme blend", func(t *testing.T) {
		p := r.FromFilters(model.Filters{Theme: "industrial+modern"})
		assert.Equal(t, "industrial+modern", p.Name())
		assert.Contains(t, p.Bias, "steel")
	})

	t.Run("persisted bias wins", func(t *testing.T) {
		p := r.FromFilters(model.Filters{Theme: "modern", StyleBias: map[string]float64{"teak": 1}, Negatives: []string{"glass"}})
		assert.Equal(t, map[string]float64{"teak": 1}, p.Bias)
		assert.Equal(t, []string{"glass"}, p.Negatives)
		assert.Equal(t, "modern", p.Name())
	})

	t.Run("empty", func(t *testing.T) {
		assert.True(t, r.FromFilters(model.Filters{}).Empty())
	})
}
