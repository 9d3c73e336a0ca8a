package service

import (
	"context"
	"strings"
	"time"

	"furnisher/internal/model"
	"furnisher/internal/pkg/logger"
)

// IntentParser enriches a regex-parsed delta with facts read by the LLM.
// The regex reading always wins; the model only fills what is missing.
type IntentParser struct {
	aiClient IntentExtractor
	timeout  time.Duration
	logger   logger.ILogger
	metrics  *Metrics
}

// NewIntentParser creates a new intent parser; aiClient may be nil
func NewIntentParser(aiClient IntentExtractor, timeout time.Duration, log logger.ILogger, metrics *Metrics) *IntentParser {
	if log == nil {
		log = logger.NewNop()
	}
	return &IntentParser{aiClient: aiClient, timeout: timeout, logger: log, metrics: metrics}
}

func (p *IntentParser) enabled() bool {
	if p == nil || p.aiClient == nil {
		return false
	}
	if e, ok := p.aiClient.(interface{ IsEnabled() bool }); ok {
		return e.IsEnabled()
	}
	return true
}

// Enrich fills facts the delta lacks. Turns that carried structural commands
// are left alone. Any failure keeps the delta unchanged.
func (p *IntentParser) Enrich(ctx context.Context, text string, delta *model.RequirementDelta) bool {
	text = strings.TrimSpace(text)
	if text == "" || len(delta.Commands) > 0 || !p.enabled() {
		return false
	}

	pctx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	result, err := p.aiClient.ParseIntent(pctx, text)
	if err != nil {
		p.logger.Warn("INTENT", "AI parsing failed, keeping regex reading", map[string]interface{}{"error": err.Error()})
		p.metrics.LLMFallback("intent")
		return false
	}

	mergeIntent(delta, result)
	return true
}

// mergeIntent copies validated intent fields into empty slots of delta
func mergeIntent(delta *model.RequirementDelta, r *model.IntentResult) {
	if r == nil {
		return
	}
	if delta.BHK == nil && r.BHK != nil {
		bhk := *r.BHK
		delta.BHK = &bhk
	}
	if delta.AreaSqft == nil && r.AreaSqft != nil {
		area := *r.AreaSqft
		delta.AreaSqft = &area
	}
	if delta.Budget == nil && r.Budget != nil && r.Budget.Amount > 0 {
		delta.Budget = &model.Budget{Scope: model.BudgetTotal, Amount: r.Budget.Amount}
	}
	if len(delta.Themes) == 0 && r.Theme != "" {
		if name, ok := CanonicalTheme(r.Theme); ok {
			delta.Themes = []model.StyleWeight{{Theme: name, Weight: 1}}
		}
	}
	if len(delta.Rooms) == 0 && len(r.Rooms) > 0 {
		for _, room := range r.Rooms {
			if name, ok := model.NormalizeRoom(room); ok {
				delta.Rooms = append(delta.Rooms, name)
			}
		}
		delta.Rooms = dedupeStrings(delta.Rooms)
		delta.OnlyRooms = delta.OnlyRooms || (r.OnlyRooms && len(delta.Rooms) > 0)
	}
	delta.StyleKeywords = dedupeStrings(append(delta.StyleKeywords, lowerAll(r.StyleKeywords)...))
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
