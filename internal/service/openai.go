package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"furnisher/internal/config"
	"furnisher/internal/model"
	"furnisher/internal/pkg/logger"
	"furnisher/internal/utils"
)

// OpenAIClient handles OpenAI-compatible API interactions
type OpenAIClient struct {
	config     *config.OpenAIConfig
	httpClient *http.Client
	logger     logger.ILogger
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(cfg *config.OpenAIConfig, log logger.ILogger) *OpenAIClient {
	if log == nil {
		log = logger.NewNop()
	}
	return &OpenAIClient{
		config: cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *OpenAIClient) IsEnabled() bool {
	return c != nil && c.config.Enabled
}

// ChatCompletionRequest represents a chat completion request
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage represents a single message in the conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat specifies the format of the response
type ResponseFormat struct {
	Type string `json:"type"` // "json_object" or "text"
}

// ChatCompletionResponse represents the API response
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatCompletion performs a chat completion request
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if !c.IsEnabled() {
		return nil, ErrAIDisabled
	}

	if req.Model == "" {
		req.Model = c.config.ChatModel
	}
	if req.Temperature == 0 && c.config.ChatTemperature > 0 {
		req.Temperature = c.config.ChatTemperature
	}
	if req.MaxTokens == 0 && c.config.ChatMaxTokens > 0 {
		req.MaxTokens = c.config.ChatMaxTokens
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.config.APIBase, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}

// completeJSON sends a system/user exchange and decodes the JSON answer into target
func (c *OpenAIClient) completeJSON(ctx context.Context, systemPrompt, user string, target interface{}) error {
	resp, err := c.ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("no response from model")
	}

	content := resp.Choices[0].Message.Content
	if err := utils.ParseAIJSON(content, target); err != nil {
		c.logger.Debug("OPENAI", "Unparseable model output", map[string]interface{}{"content": content})
		return fmt.Errorf("failed to parse AI response: %w", err)
	}
	return nil
}

const intentPrompt = `You read furnishing requests for Indian homes. Extract planning facts as JSON.

Fields (omit anything not mentioned):
- rooms: array of room names, each one of: living, dining, kitchen, bedroom, master bedroom, bedroom 2, bedroom 3, bathroom, study, balcony, entrance
- only_rooms: true when the user wants ONLY the listed rooms furnished
- bhk: number of bedrooms (integer)
- area_sqft: carpet area in square feet
- theme: one design theme, e.g. modern, minimalist, scandinavian, industrial, traditional, bohemian, rustic, luxury, mid_century, contemporary
- budget: {"amount": number in rupees, "currency": "INR"}; "8L" = 800000, "1.2 cr" = 12000000, "50k" = 50000
- constraints: short phrases such as "pet friendly", "no glass"
- priorities: short phrases such as "storage", "seating"
- style_keywords: materials or colours the user likes

Respond ONLY with valid JSON.

Example:
Query: "3bhk 1400 sqft, budget 10 lakh, scandinavian, lots of storage"
Response: {"bhk": 3, "area_sqft": 1400, "budget": {"amount": 1000000, "currency": "INR"}, "theme": "scandinavian", "priorities": ["storage"]}`

// ParseIntent extracts planning facts with strict validation
func (c *OpenAIClient) ParseIntent(ctx context.Context, text string) (*model.IntentResult, error) {
	var result model.IntentResult
	if err := c.completeJSON(ctx, intentPrompt, text, &result); err != nil {
		return nil, err
	}
	if err := validateIntent(&result); err != nil {
		return nil, fmt.Errorf("AI response validation failed: %w", err)
	}
	return &result, nil
}

// validateIntent rejects the whole result on any schema violation
func validateIntent(r *model.IntentResult) error {
	for i, room := range r.Rooms {
		name, ok := model.NormalizeRoom(room)
		if !ok {
			return fmt.Errorf("invalid room: %s", room)
		}
		r.Rooms[i] = name
	}
	if r.BHK != nil && (*r.BHK < 1 || *r.BHK > 10) {
		return fmt.Errorf("bhk must be between 1 and 10")
	}
	if r.AreaSqft != nil && (*r.AreaSqft <= 0 || *r.AreaSqft > 100000) {
		return fmt.Errorf("area_sqft out of range")
	}
	if r.Budget != nil && r.Budget.Amount <= 0 {
		return fmt.Errorf("budget amount must be positive")
	}
	if r.Theme != "" {
		name, ok := CanonicalTheme(strings.ToLower(strings.TrimSpace(r.Theme)))
		if !ok {
			return fmt.Errorf("unknown theme: %s", r.Theme)
		}
		r.Theme = name
	}
	return nil
}

const summaryPrompt = `You summarise a furnishing request. You receive the user's message and the plan the engine resolved.
Respond ONLY with JSON:
{"overview": "one or two sentences", "bhk": int, "sqft": number, "theme": string,
 "rooms_detected": [room names], "budget": {"scope": "total" or "per_item", "amount": number},
 "must_have_items": [item types], "nice_to_have_items": [item types], "items_suggested": [item types]}
Omit unknown fields. Room names must be one of: living, dining, kitchen, bedroom, master bedroom, bedroom 2, bedroom 3, bathroom, study, balcony, entrance.`

// Summarize produces the rich summary of a turn
func (c *OpenAIClient) Summarize(ctx context.Context, text string, hints SummaryHints) (*model.RichSummary, error) {
	hintJSON, err := json.Marshal(hints)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hints: %w", err)
	}
	user := fmt.Sprintf("Message: %s\nPlan: %s", text, hintJSON)

	var summary model.RichSummary
	if err := c.completeJSON(ctx, summaryPrompt, user, &summary); err != nil {
		return nil, err
	}
	if strings.TrimSpace(summary.Overview) == "" {
		return nil, fmt.Errorf("summary without overview")
	}
	for i, room := range summary.RoomsDetected {
		name, ok := model.NormalizeRoom(room)
		if !ok {
			return nil, fmt.Errorf("invalid room: %s", room)
		}
		summary.RoomsDetected[i] = name
	}
	if summary.Budget != nil && summary.Budget.Scope != model.BudgetTotal && summary.Budget.Scope != model.BudgetPerItem {
		return nil, fmt.Errorf("invalid budget scope: %s", summary.Budget.Scope)
	}
	return &summary, nil
}

const essentialsPrompt = `You plan furniture for the rooms of an Indian home. Given rooms, size, budget tier and style, propose the essential items.
Respond ONLY with JSON: {"items": [{"type": string, "subtype": string, "room": string, "quantity": int}]}
type must be one of: sofa, sofa_bed, chair, table, tv_bench, bed, wardrobe, mirror, mirror_cabinet, cabinet, bookcase, shelf, storage_combination, lamp, stool, shoe_rack, washstand, desk, drawer.
room must be one of the rooms given. Never furnish excluded rooms.`

type proposalPayload struct {
	Items []struct {
		Type     string `json:"type"`
		Subtype  string `json:"subtype"`
		Room     string `json:"room"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

// ProposeEssentials asks the model for essential lines. Entries are returned
// as read; the caller validates them against the taxonomy and the plan.
func (c *OpenAIClient) ProposeEssentials(ctx context.Context, in model.ProposalInput) ([]model.RequestedLine, error) {
	inJSON, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal proposal input: %w", err)
	}

	var payload proposalPayload
	if err := c.completeJSON(ctx, essentialsPrompt, string(inJSON), &payload); err != nil {
		return nil, err
	}
	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("empty proposal")
	}

	lines := make([]model.RequestedLine, 0, len(payload.Items))
	for _, it := range payload.Items {
		lines = append(lines, model.RequestedLine{
			Type:     model.ItemType(it.Type),
			Quantity: it.Quantity,
			Room:     it.Room,
			Specs:    model.Specs{Subtype: it.Subtype},
			Origin:   model.OriginProposal,
		})
	}
	return lines, nil
}
