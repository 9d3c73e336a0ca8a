package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"furnisher/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// disabledAI reports itself as unconfigured
type disabledAI struct{ stubAI }

func (d *disabledAI) IsEnabled() bool { return false }

func TestMergeIntent(t *testing.T) {
	intent := &model.IntentResult{
		BHK:           intPtr(3),
		AreaSqft:      float64Ptr(1400),
		Theme:         "Scandi",
		Budget:        &model.IntentBudget{Amount: 1000000},
		Rooms:         []string{"study", "Balcony", "garage"},
		OnlyRooms:     true,
		StyleKeywords: []string{" Oak ", "linen"},
	}

	tests := []struct {
		name  string
		delta *model.RequirementDelta
		check func(t *testing.T, d *model.RequirementDelta)
	}{
		{
			name:  "fills empty slots",
			delta: &model.RequirementDelta{},
			check: func(t *testing.T, d *model.RequirementDelta) {
				assert.Equal(t, 3, *d.BHK)
				assert.Equal(t, 1400.0, *d.AreaSqft)
				assert.Equal(t, &model.Budget{Scope: model.BudgetTotal, Amount: 1000000}, d.Budget)
				assert.Equal(t, []model.StyleWeight{{Theme: "scandinavian", Weight: 1}}, d.Themes)
				assert.Equal(t, []string{"study", "balcony"}, d.Rooms)
				assert.True(t, d.OnlyRooms)
				assert.Equal(t, []string{"oak", "linen"}, d.StyleKeywords)
			},
		},
		{
			name: "regex reading wins",
			delta: &model.RequirementDelta{
				BHK:           intPtr(2),
				Budget:        &model.Budget{Scope: model.BudgetPerItem, Amount: 20000},
				Themes:        []model.StyleWeight{{Theme: "modern", Weight: 1}},
				Rooms:         []string{"living"},
				StyleKeywords: []string{"oak"},
			},
			check: func(t *testing.T, d *model.RequirementDelta) {
				assert.Equal(t, 2, *d.BHK)
				assert.Equal(t, model.BudgetPerItem, d.Budget.Scope)
				assert.Equal(t, "modern", d.Themes[0].Theme)
				assert.Equal(t, []string{"living"}, d.Rooms)
				assert.False(t, d.OnlyRooms)
				assert.Equal(t, []string{"oak", "linen"}, d.StyleKeywords)
				// area was missing, so it is still filled
				assert.Equal(t, 1400.0, *d.AreaSqft)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mergeIntent(tt.delta, intent)
			tt.check(t, tt.delta)
		})
	}

	t.Run("nil result", func(t *testing.T) {
		d := &model.RequirementDelta{}
		mergeIntent(d, nil)
		assert.Equal(t, &model.RequirementDelta{}, d)
	})
}

func TestIntentParser_Enrich(t *testing.T) {
	tests := []struct {
		name      string
		ai        IntentExtractor
		text      string
		delta     *model.RequirementDelta
		want      bool
		calls     int
		fallbacks float64
	}{
		{
			name:  "fills from the model",
			ai:    &stubAI{intent: &model.IntentResult{BHK: intPtr(2)}},
			text:  "a two bedroom flat",
			delta: &model.RequirementDelta{},
			want:  true,
			calls: 1,
		},
		{
			name:  "command turns skip the model",
			ai:    &stubAI{intent: &model.IntentResult{BHK: intPtr(2)}},
			text:  "remove the mirror",
			delta: &model.RequirementDelta{Commands: []model.Command{{Verb: model.VerbRemove, Type: model.TypeMirror}}},
			calls: 0,
		},
		{
			name:  "blank text",
			ai:    &stubAI{},
			text:  "   ",
			delta: &model.RequirementDelta{},
			calls: 0,
		},
		{
			name:      "failure keeps the delta",
			ai:        &stubAI{intentErr: errors.New("validation failed")},
			text:      "something vague",
			delta:     &model.RequirementDelta{},
			calls:     1,
			fallbacks: 1,
		},
		{
			name:  "disabled client",
			ai:    &disabledAI{},
			text:  "2 bhk",
			delta: &model.RequirementDelta{},
			calls: 0,
		},
		{
			name:  "no client",
			text:  "2 bhk",
			delta: &model.RequirementDelta{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := NewMetrics()
			p := NewIntentParser(tt.ai, time.Second, nil, metrics)

			got := p.Enrich(context.Background(), tt.text, tt.delta)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.fallbacks, testutil.ToFloat64(metrics.llmFallbacks.WithLabelValues("intent")))
			switch ai := tt.ai.(type) {
			case *stubAI:
				assert.Equal(t, tt.calls, ai.intentCalls)
			case *disabledAI:
				assert.Equal(t, tt.calls, ai.intentCalls)
			}
			if tt.want {
				require.NotNil(t, tt.delta.BHK)
				assert.Equal(t, 2, *tt.delta.BHK)
			} else {
				assert.Nil(t, tt.delta.BHK)
			}
		})
	}
}
