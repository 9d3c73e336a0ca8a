package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"furnisher/internal/config"
	"furnisher/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newModelServer answers every chat completion with content
func newModelServer(t *testing.T, status int, content string) (*httptest.Server, *ChatCompletionRequest) {
	t.Helper()
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"overloaded"}`))
			return
		}
		resp := map[string]interface{}{
			"id":    "chatcmpl-1",
			"model": got.Model,
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newTestOpenAIClient(baseURL string) *OpenAIClient {
	return NewOpenAIClient(&config.OpenAIConfig{
		Enabled:         true,
		APIBase:         baseURL + "/v1/",
		APIKey:          "test-key",
		ChatModel:       "gpt-4o-mini",
		ChatTemperature: 0.2,
		ChatMaxTokens:   800,
		Timeout:         5 * time.Second,
	}, nil)
}

func TestOpenAIClient_ParseIntent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(t *testing.T, r *model.IntentResult)
	}{
		{
			name:    "valid facts",
			content: `{"bhk": 3, "area_sqft": 1400, "theme": "Scandi", "rooms": ["Master Bedroom", "living"], "budget": {"amount": 1000000, "currency": "INR"}}`,
			check: func(t *testing.T, r *model.IntentResult) {
				assert.Equal(t, 3, *r.BHK)
				assert.Equal(t, 1400.0, *r.AreaSqft)
				assert.Equal(t, "scandinavian", r.Theme)
				assert.Equal(t, []string{model.MasterBedroom, model.RoomLiving}, r.Rooms)
				assert.Equal(t, 1000000.0, r.Budget.Amount)
			},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"bhk\": 2}\n```",
			check: func(t *testing.T, r *model.IntentResult) {
				assert.Equal(t, 2, *r.BHK)
			},
		},
		{name: "bhk out of range", content: `{"bhk": 14}`, wantErr: true},
		{name: "unknown theme", content: `{"theme": "cyberpunk"}`, wantErr: true},
		{name: "invalid room", content: `{"rooms": ["garage"]}`, wantErr: true},
		{name: "negative budget", content: `{"budget": {"amount": -5}}`, wantErr: true},
		{name: "not json", content: `I think they want a sofa`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newModelServer(t, http.StatusOK, tt.content)
			client := newTestOpenAIClient(srv.URL)

			result, err := client.ParseIntent(context.Background(), "3bhk scandi")
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			tt.check(t, result)
		})
	}
}

func TestOpenAIClient_RequestDefaults(t *testing.T) {
	srv, got := newModelServer(t, http.StatusOK, `{"bhk": 1}`)
	client := newTestOpenAIClient(srv.URL)

	_, err := client.ParseIntent(context.Background(), "1 bhk")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 0.2, got.Temperature)
	assert.Equal(t, 800, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "1 bhk", got.Messages[1].Content)
}

func TestOpenAIClient_Errors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		client := NewOpenAIClient(&config.OpenAIConfig{}, nil)
		assert.False(t, client.IsEnabled())
		_, err := client.ParseIntent(context.Background(), "2 bhk")
		assert.ErrorIs(t, err, ErrAIDisabled)
	})

	t.Run("upstream status", func(t *testing.T) {
		srv, _ := newModelServer(t, http.StatusServiceUnavailable, "")
		_, err := newTestOpenAIClient(srv.URL).ParseIntent(context.Background(), "2 bhk")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})
}

func TestOpenAIClient_Summarize(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", `{"overview": "A 2 BHK in modern style.", "bhk": 2, "rooms_detected": ["Living"], "budget": {"scope": "total", "amount": 500000}}`, false},
		{"missing overview", `{"bhk": 2}`, true},
		{"invalid room", `{"overview": "ok", "rooms_detected": ["garage"]}`, true},
		{"invalid scope", `{"overview": "ok", "budget": {"scope": "monthly", "amount": 1}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, got := newModelServer(t, http.StatusOK, tt.content)
			hints := SummaryHints{Plan: &model.RoomPlan{BHK: 2, Rooms: []string{"living"}}, Theme: "modern"}

			summary, err := newTestOpenAIClient(srv.URL).Summarize(context.Background(), "2 BHK modern", hints)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "A 2 BHK in modern style.", summary.Overview)
			assert.Equal(t, []string{model.RoomLiving}, summary.RoomsDetected)
			assert.Contains(t, got.Messages[1].Content, `"theme":"modern"`)
		})
	}
}

func TestOpenAIClient_ProposeEssentials(t *testing.T) {
	in := model.ProposalInput{Rooms: []string{"living"}, BHK: 1, Tier: model.TierEconomy}

	t.Run("lines", func(t *testing.T) {
		srv, _ := newModelServer(t, http.StatusOK, `{"items": [{"type": "bookcase", "room": "living", "quantity": 1}, {"type": "lamp", "subtype": "floor_lamp", "room": "living", "quantity": 2}]}`)

		lines, err := newTestOpenAIClient(srv.URL).ProposeEssentials(context.Background(), in)
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, model.TypeBookcase, lines[0].Type)
		assert.Equal(t, "floor_lamp", lines[1].Specs.Subtype)
		assert.Equal(t, 2, lines[1].Quantity)
		assert.Equal(t, model.OriginProposal, lines[1].Origin)
	})

	t.Run("empty", func(t *testing.T) {
		srv, _ := newModelServer(t, http.StatusOK, `{"items": []}`)
		_, err := newTestOpenAIClient(srv.URL).ProposeEssentials(context.Background(), in)
		assert.Error(t, err)
	})
}
