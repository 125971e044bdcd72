package model

// Buyer actions accepted by the feedback endpoint.
const (
	ActionClick       = "click"
	ActionContact     = "contact"
	ActionViewDetails = "view_details"
)

// ValidFeedbackAction reports whether action is a known buyer action.
func ValidFeedbackAction(action string) bool {
	switch action {
	case ActionClick, ActionContact, ActionViewDetails:
		return true
	}
	return false
}

// SearchRequest represents an open-ended description search
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResponse represents a ranked shortlist
type SearchResponse struct {
	Results          []ScoredCandidate `json:"results"`
	HasRelevantMatch bool              `json:"has_relevant_match"`
	Filters          FilterSet         `json:"filters"`
	Took             int64             `json:"took_ms"` // Response time in milliseconds
}

// TurnRequest is one user message in a search dialogue.
type TurnRequest struct {
	Text string `json:"text" binding:"required"`
}

// DialogueResponse is the state of a dialogue after a turn.
type DialogueResponse struct {
	SessionID  string         `json:"session_id"`
	Reply      string         `json:"reply"`
	Phase      DialoguePhase  `json:"phase"`
	Filters    FilterSet      `json:"filters"`
	Candidates []CatalogEntry `json:"candidates,omitempty"`
	History    []Turn         `json:"history"`
}

// AnswerRequest is one answer to the current intake prompt.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// FeedbackRequest represents user feedback/action
type FeedbackRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	ListingID int64  `json:"listing_id" binding:"required"`
	Action    string `json:"action" binding:"required"` // click, contact, view_details
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
