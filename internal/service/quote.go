package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"furnisher/internal/model"
	"furnisher/internal/pkg/logger"
	"furnisher/internal/repository"

	"github.com/google/uuid"
)

var (
	// ErrEmptyMessage is returned for a turn without text
	ErrEmptyMessage = errors.New("message is empty")
	// ErrUnknownLine is returned when alternatives are asked for a line the session does not have
	ErrUnknownLine = errors.New("no such line in the session quotation")
	// ErrAIDisabled is returned by the LLM client when no API key is configured
	ErrAIDisabled = errors.New("AI client is not enabled")
	// ErrItemNotFound is returned when a catalog id does not exist
	ErrItemNotFound = errors.New("catalog item not found")
	// ErrInvalidAction is returned for unknown feedback actions
	ErrInvalidAction = errors.New("action must be accept, reject or request_changes")
)

// SessionStore persists the prior of every session
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*model.SessionPrior, error)
	Save(ctx context.Context, sessionID string, prior *model.SessionPrior) error
	Delete(ctx context.Context, sessionID string) error
}

// TurnLogger records turns and feedback for offline analysis
type TurnLogger interface {
	LogTurn(ctx context.Context, sessionID, message string, totalMinor int64, lineCount, unmetCount int, tookMs int64) error
	LogFeedback(ctx context.Context, sessionID, action string) error
}

// TurnEventCallback is called for streaming turn events
type TurnEventCallback func(event string, data any) error

// QuoteDeps are the collaborators and limits of a QuoteService
type QuoteDeps struct {
	Sessions        SessionStore
	Catalog         CatalogGateway
	TurnLog         TurnLogger // optional
	AI              AIClient   // optional
	Workers         int
	QueryLimit      int
	QueryTimeout    time.Duration
	LLMTimeout      time.Duration
	AltDefaultLimit int
	AltMaxLimit     int
	Logger          logger.ILogger
	Metrics         *Metrics
}

// QuoteService runs conversational turns end to end
type QuoteService struct {
	sessions     SessionStore
	catalog      CatalogGateway
	turnLog      TurnLogger
	parser       *CommandParser
	intent       *IntentParser
	planner      *RoomPlanner
	styles       *StyleResolver
	essentials   *EssentialsExpander
	policy       *BudgetPolicy
	selector     *Selector
	reconciler   *Reconciler
	alternatives *AlternativesService
	summarizer   Summarizer
	llmTimeout   time.Duration
	logger       logger.ILogger
	metrics      *Metrics
}

// NewQuoteService wires the pipeline
func NewQuoteService(d QuoteDeps) *QuoteService {
	log := d.Logger
	if log == nil {
		log = logger.NewNop()
	}

	var (
		extractor  IntentExtractor
		summarizer Summarizer
		proposer   EssentialsProposer
	)
	if d.AI != nil && d.AI.IsEnabled() {
		extractor, summarizer, proposer = d.AI, d.AI, d.AI
	}

	return &QuoteService{
		sessions:     d.Sessions,
		catalog:      d.Catalog,
		turnLog:      d.TurnLog,
		parser:       NewCommandParser(),
		intent:       NewIntentParser(extractor, d.LLMTimeout, log, d.Metrics),
		planner:      NewRoomPlanner(),
		styles:       NewStyleResolver(),
		essentials:   NewEssentialsExpander(proposer, d.LLMTimeout, log, d.Metrics),
		policy:       NewBudgetPolicy(),
		selector:     NewSelector(d.Catalog, NewRanker(), d.Workers, d.QueryLimit, d.QueryTimeout, log, d.Metrics),
		reconciler:   NewReconciler(),
		alternatives: NewAlternativesService(d.Catalog, d.Sessions, d.AltDefaultLimit, d.AltMaxLimit, log),
		summarizer:   summarizer,
		llmTimeout:   d.LLMTimeout,
		logger:       log,
		metrics:      d.Metrics,
	}
}

// Alternatives exposes the alternatives lookup
func (s *QuoteService) Alternatives() *AlternativesService {
	return s.alternatives
}

// Turn processes one utterance
func (s *QuoteService) Turn(ctx context.Context, req *model.ChatRequest) (*model.TurnResponse, error) {
	return s.TurnStream(ctx, req, nil)
}

// TurnStream processes one utterance, reporting each stage to callback
func (s *QuoteService) TurnStream(ctx context.Context, req *model.ChatRequest, callback TurnEventCallback) (*model.TurnResponse, error) {
	startTime := time.Now()
	emit := func(event string, data any) error {
		if callback == nil {
			return nil
		}
		return callback(event, data)
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if err := emit("parsing", map[string]any{"status": "Reading your request..."}); err != nil {
		return nil, err
	}

	prior := s.loadPrior(ctx, sessionID)
	hasQuotation := prior.HasQuotation()

	delta := s.parser.Parse(msg, prior.RequestedLines)
	s.intent.Enrich(ctx, msg, delta)

	excluded, cmds := s.planner.SplitExclusions(delta, hasQuotation)
	commandOnlyStart := !hasQuotation && !delta.HasFacts() && len(cmds) > 0 && req.FloorPlan == nil

	plan := s.planner.Resolve(PlanInput{
		Delta:        delta,
		Hint:         req.FloorPlan,
		Prior:        prior.Plan,
		HasQuotation: hasQuotation,
		Excluded:     excluded,
	})
	if commandOnlyStart {
		plan = &model.RoomPlan{Tier: TierFor(0, nil), SizeTier: SizeTierFor(nil, 0)}
	}

	profile, styleChanged := s.resolveStyle(prior, delta, hasQuotation)
	plan.Theme = profile.Name()
	budgetChanged := hasQuotation && delta.Budget != nil && !sameBudget(prior.Plan, delta.Budget)

	var base []model.RequestedLine
	switch {
	case commandOnlyStart:
	case !hasQuotation || PlanChanged(prior.Plan, plan):
		fresh := s.essentials.Expand(ctx, plan, profile.Themes)
		var priorTier model.Tier
		if prior.Plan != nil {
			priorTier = prior.Plan.Tier
		}
		base = carryOver(fresh, prior.RequestedLines, plan, priorTier)
	default:
		base = model.CloneLines(prior.RequestedLines)
	}

	applied := ApplyCommands(base, cmds, ApplyOptions{Rooms: plan.Rooms, Initial: !hasQuotation})
	plan = s.planner.WithRoomChanges(plan, applied.AddedRooms, applied.RemovedRooms)

	if err := emit("plan", plan); err != nil {
		return nil, err
	}

	lines := s.policy.Annotate(applied.Lines, PolicyContext{Plan: plan, StyleChanged: styleChanged})
	lines = s.resolveReplacements(ctx, lines, cmds, plan, prior)

	if err := emit("selecting", map[string]any{"lines": len(lines)}); err != nil {
		return nil, err
	}

	preserve := hasQuotation && len(cmds) > 0
	sc := SelectionContext{
		Style:        profile,
		StyleChanged: styleChanged,
		Reuse:        hasQuotation && !styleChanged && !budgetChanged,
		Touched:      applied.Touched,
		PriorItems:   prior.LineItems,
		PriorByType:  priorByType(prior.Selections),
	}
	if preserve {
		sc.Held = heldItems(lines, prior.Selections, applied.Touched)
	}
	results := s.selector.SelectAll(ctx, lines, sc)

	rec := s.reconciler.Reconcile(results, prior.Selections, ReconcileOptions{
		Preserve: preserve,
		Touched:  applied.Touched,
	})
	quotation := BuildQuotation(rec, plan.Budget)

	if err := emit("quotation", quotation); err != nil {
		return nil, err
	}

	summary := s.summarize(ctx, msg, plan, rec.Selections)
	took := time.Since(startTime).Milliseconds()

	resp := &model.TurnResponse{
		SessionID:     sessionID,
		Quotation:     quotation,
		Unmet:         rec.Unmet,
		Changes:       applied.Changes,
		Clarification: clarification(plan, rec.Unmet, len(quotation.Items)),
		Summary:       summary,
		Plan:          plan,
		Took:          took,
	}

	next := model.NewSessionPrior()
	next.Filters = model.Filters{Theme: profile.Name(), StyleBias: profile.Bias, Negatives: profile.Negatives}
	if plan.Budget != nil && plan.Budget.Scope == model.BudgetPerItem {
		amount := plan.Budget.Amount
		next.Filters.PriceCeiling = &amount
	}
	next.Selections = rec.Selections
	next.RequestedLines = lines
	for _, sel := range rec.Selections {
		next.LineItems[sel.Line.Key()] = sel.Item.ID
	}
	next.AltOffsets = prior.AltOffsets
	next.AltServed = prior.AltServed
	next.Summary = summary
	next.Plan = plan
	next.Turn = prior.Turn + 1
	next.UpdatedAt = time.Now()
	if err := s.sessions.Save(ctx, sessionID, next); err != nil {
		s.logger.Warn("QUOTE", "Failed to save session", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
	}

	outcome := "ok"
	if len(rec.Unmet) > 0 {
		outcome = "partial"
	}
	s.metrics.Turn(outcome, time.Since(startTime))

	// Log turn (non-blocking)
	if s.turnLog != nil {
		go func() {
			if err := s.turnLog.LogTurn(context.Background(), sessionID, msg, quotation.TotalMinor, len(quotation.Items), len(rec.Unmet), took); err != nil {
				s.logger.Warn("QUOTE", "Failed to log turn", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
			}
		}()
	}

	s.logger.Info("QUOTE", "Turn processed", map[string]interface{}{
		"session_id": sessionID,
		"turn":       next.Turn,
		"lines":      len(lines),
		"unmet":      len(rec.Unmet),
		"commands":   len(cmds),
		"took_ms":    took,
	})

	if err := emit("done", resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// loadPrior returns the stored prior, or a fresh one when it is missing or unreadable
func (s *QuoteService) loadPrior(ctx context.Context, sessionID string) *model.SessionPrior {
	prior, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrMalformedPrior) {
			s.logger.Warn("QUOTE", "Malformed session prior, starting fresh", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		} else {
			s.logger.Warn("QUOTE", "Failed to load session, starting fresh", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		}
		return model.NewSessionPrior()
	}
	if prior == nil {
		return model.NewSessionPrior()
	}
	return prior.Normalize()
}

// resolveStyle derives this turn's profile. A new theme replaces the
// previous one; keywords and avoid words amend it.
func (s *QuoteService) resolveStyle(prior *model.SessionPrior, delta *model.RequirementDelta, hasQuotation bool) (*StyleProfile, bool) {
	previous := s.styles.FromFilters(prior.Filters)

	var profile *StyleProfile
	switch {
	case len(delta.Themes) > 0:
		profile = s.styles.Resolve(delta.Themes, delta.StyleKeywords, delta.AvoidKeywords)
	case len(delta.StyleKeywords) > 0 || len(delta.AvoidKeywords) > 0:
		profile = amendProfile(previous, delta.StyleKeywords, delta.AvoidKeywords)
	default:
		return previous, false
	}
	return profile, hasQuotation && !sameProfile(previous, profile)
}

func amendProfile(p *StyleProfile, keywords, avoid []string) *StyleProfile {
	out := &StyleProfile{
		Themes:    append([]model.StyleWeight(nil), p.Themes...),
		Bias:      make(map[string]float64, len(p.Bias)+len(keywords)),
		Negatives: append([]string(nil), p.Negatives...),
		RoomHints: p.RoomHints,
	}
	for k, v := range p.Bias {
		out.Bias[k] = v
	}
	for _, kw := range keywords {
		if _, ok := out.Bias[kw]; !ok {
			out.Bias[kw] = 1
		}
	}
	for _, a := range avoid {
		delete(out.Bias, a)
		out.Negatives = appendUnique(out.Negatives, a)
	}
	return out
}

func sameProfile(a, b *StyleProfile) bool {
	if a.Name() != b.Name() || len(a.Bias) != len(b.Bias) || len(a.Negatives) != len(b.Negatives) {
		return false
	}
	for k, v := range a.Bias {
		if w, ok := b.Bias[k]; !ok || math.Abs(v-w) > 1e-9 {
			return false
		}
	}
	neg := make(map[string]bool, len(a.Negatives))
	for _, n := range a.Negatives {
		neg[n] = true
	}
	for _, n := range b.Negatives {
		if !neg[n] {
			return false
		}
	}
	return true
}

func sameBudget(plan *model.RoomPlan, b *model.Budget) bool {
	if plan == nil || plan.Budget == nil {
		return false
	}
	return plan.Budget.Scope == b.Scope && plan.Budget.Amount == b.Amount
}

// resolveReplacements pins bare and by-name replacements to a concrete
// alternative so the swap is visible
func (s *QuoteService) resolveReplacements(ctx context.Context, lines []model.RequestedLine, cmds []model.Command, plan *model.RoomPlan, prior *model.SessionPrior) []model.RequestedLine {
	out := model.CloneLines(lines)
	a := &applier{lines: out, opts: ApplyOptions{Rooms: plan.Rooms}}
	for _, cmd := range cmds {
		if cmd.Verb != model.VerbReplace || cmd.ItemID != nil || cmd.WholeRoom {
			continue
		}
		i := a.find(cmd)
		if i < 0 {
			continue
		}
		line := out[i]
		typeKey := line.TypeKey()
		item, err := s.alternatives.Next(ctx, line, prior.LineItems[line.Key()], cmd.ReplaceName, prior.AltServed[typeKey])
		if err != nil {
			s.logger.Warn("QUOTE", "Replacement lookup failed", map[string]interface{}{"line": line.Key(), "error": err.Error()})
			continue
		}
		if item == nil {
			continue
		}
		out[i] = line.WithPreferredItem(item.ID)
		prior.AltServed[typeKey] = append(prior.AltServed[typeKey], item.ID)
	}
	return out
}

// heldItems returns the prior items that forced preservation will keep on
// untouched lines, keyed by item id
func heldItems(lines []model.RequestedLine, prior []model.Selection, touched map[string]bool) map[int64]string {
	present := make(map[string]bool, len(lines))
	for _, l := range lines {
		present[l.Key()] = true
	}
	held := make(map[int64]string)
	for _, sel := range prior {
		key := sel.Line.Key()
		if !present[key] || touched[key] {
			continue
		}
		if _, ok := held[sel.Item.ID]; !ok {
			held[sel.Item.ID] = key
		}
	}
	return held
}

func priorByType(selections []model.Selection) map[string]int64 {
	out := make(map[string]int64, len(selections))
	for _, sel := range selections {
		if _, ok := out[sel.Line.TypeKey()]; !ok {
			out[sel.Line.TypeKey()] = sel.Item.ID
		}
	}
	return out
}

// clarification asks at most one question per turn
func clarification(plan *model.RoomPlan, unmet []model.UnmetLine, items int) string {
	if len(unmet) > 0 {
		l := unmet[0].Line
		return fmt.Sprintf("I couldn't find a %s for the %s within budget. Would you like to raise the budget or try a different type?",
			l.DisplayName(), l.Room)
	}
	if plan.Defaulted {
		return "I've assumed a 1 BHK home. How many bedrooms does your home have?"
	}
	if items == 0 {
		return "Which rooms would you like to furnish?"
	}
	return ""
}

// summarize asks the LLM for a rich summary and falls back to a
// deterministic one
func (s *QuoteService) summarize(ctx context.Context, msg string, plan *model.RoomPlan, selections []model.Selection) *model.RichSummary {
	items := make([]string, 0, len(selections))
	for _, sel := range selections {
		items = append(items, sel.Line.DisplayName())
	}
	items = dedupeStrings(items)

	if s.summarizer != nil {
		sctx := ctx
		if s.llmTimeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(ctx, s.llmTimeout)
			defer cancel()
		}
		summary, err := s.summarizer.Summarize(sctx, msg, SummaryHints{Plan: plan, Items: items, Theme: plan.Theme})
		if err == nil {
			return summary
		}
		s.logger.Warn("QUOTE", "Summary failed, using fallback", map[string]interface{}{"error": err.Error()})
		s.metrics.LLMFallback("summary")
	}
	return fallbackSummary(plan, selections, items)
}

func fallbackSummary(plan *model.RoomPlan, selections []model.Selection, items []string) *model.RichSummary {
	var total int64
	for _, sel := range selections {
		total += sel.LineTotalMinor()
	}

	var b strings.Builder
	b.WriteString("Furnishing ")
	if plan.BHK > 0 {
		fmt.Fprintf(&b, "a %d BHK home", plan.BHK)
	} else {
		b.WriteString("your home")
	}
	if len(plan.Rooms) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(plan.Rooms, ", "))
	}
	if plan.Theme != "" {
		fmt.Fprintf(&b, " in %s style", strings.ReplaceAll(plan.Theme, "+", " and "))
	}
	fmt.Fprintf(&b, ": %d items, estimated ₹%.0f.", len(selections), float64(total)/100)

	summary := &model.RichSummary{
		Overview:       b.String(),
		Theme:          plan.Theme,
		RoomsDetected:  plan.Rooms,
		Budget:         plan.Budget,
		ItemsSuggested: items,
	}
	if plan.BHK > 0 {
		bhk := plan.BHK
		summary.BHK = &bhk
	}
	summary.Sqft = plan.AreaSqft
	return summary
}

// GetItem retrieves a single catalog item by id
func (s *QuoteService) GetItem(ctx context.Context, id int64) (*model.CatalogItem, error) {
	item, err := s.catalog.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// Reset forgets a session
func (s *QuoteService) Reset(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// LogFeedback records the user's verdict on the latest quotation
func (s *QuoteService) LogFeedback(ctx context.Context, sessionID, action string) error {
	switch action {
	case "accept", "reject", "request_changes":
	default:
		return ErrInvalidAction
	}
	if s.turnLog == nil {
		s.logger.Info("QUOTE", "Feedback received", map[string]interface{}{"session_id": sessionID, "action": action})
		return nil
	}
	return s.turnLog.LogFeedback(ctx, sessionID, action)
}
