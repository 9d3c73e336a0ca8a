package model

// ChatRequest represents one conversational turn
type ChatRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	Message   string         `json:"message" binding:"required"`
	FloorPlan *FloorPlanHint `json:"floor_plan,omitempty"`
}

// TurnResponse is the result of one turn
type TurnResponse struct {
	SessionID     string         `json:"session_id"`
	Quotation     Quotation      `json:"quotation"`
	Unmet         []UnmetLine    `json:"unmet,omitempty"`
	Changes       []ChangeRecord `json:"changes,omitempty"`
	Clarification string         `json:"clarification,omitempty"`
	Summary       *RichSummary   `json:"summary,omitempty"`
	Plan          *RoomPlan      `json:"plan,omitempty"`
	Took          int64          `json:"took_ms"`
}

// AlternativesRequest asks for substitutes of a selected line
type AlternativesRequest struct {
	Type    ItemType `form:"type" binding:"required"`
	Subtype string   `form:"subtype"`
	Room    string   `form:"room"`
	Limit   int      `form:"limit"`
	Offset  int      `form:"offset"`
	ShowAll bool     `form:"show_all"`
	Similar bool     `form:"similar"` // order by embedding distance to the current item
}

// AlternativesResponse is one page of substitutes
type AlternativesResponse struct {
	Type     ItemType      `json:"type"`
	Room     string        `json:"room,omitempty"`
	Current  *CatalogItem  `json:"current,omitempty"`
	Results  []CatalogItem `json:"results"`
	Offset   int           `json:"offset"`
	PageSize int           `json:"page_size"`
	HasMore  bool          `json:"has_more"`
}

// FeedbackRequest represents a user's verdict on the latest quotation
type FeedbackRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Action    string `json:"action" binding:"required"` // accept, reject, request_changes
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
