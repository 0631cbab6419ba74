package dto

import "time"

// Tipos de sugerencia.
const (
	SuggestionInfo         = "info"
	SuggestionWarning      = "warning"
	SuggestionError        = "error"
	SuggestionSuccess      = "success"
	SuggestionOptimization = "optimization"
)

// Prioridades de sugerencia.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Suggestion recomendación generada por una regla.
type Suggestion struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Priority    string         `json:"priority"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Action      string         `json:"action,omitempty"`
	ActionLabel string         `json:"action_label,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SuggestionRequest escena y contexto libre de la escena.
type SuggestionRequest struct {
	Scene   string         `json:"scene" query:"scene"`
	Context map[string]any `json:"context"`
}
