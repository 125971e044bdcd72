package model

// Speaker identifies who produced a dialogue turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one message in a search dialogue.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// DialoguePhase is the state of the guided search dialogue.
type DialoguePhase string

const (
	PhaseIdle       DialoguePhase = "idle"
	PhaseGreeting   DialoguePhase = "greeting"
	PhaseCollecting DialoguePhase = "collecting"
	PhaseReady      DialoguePhase = "ready"
	PhaseSearching  DialoguePhase = "searching"
	PhaseResults    DialoguePhase = "results"
	PhaseNoResults  DialoguePhase = "no_results"
)

// ConversationState is the whole state of one search dialogue. It is a value:
// reducers return a new state instead of mutating the old one.
type ConversationState struct {
	Phase        DialoguePhase `json:"phase"`
	History      []Turn        `json:"history"`
	Filters      FilterSet     `json:"filters"`
	ResultsShown bool          `json:"results_shown"`
	// Browse is set when the latest turn asked for the unfiltered catalog.
	Browse bool `json:"browse,omitempty"`
}

// NewConversationState returns the state of a freshly opened dialogue.
func NewConversationState() ConversationState {
	return ConversationState{Phase: PhaseIdle}
}

// WithTurn returns a copy of s with the turn appended. The history slice is
// copied so earlier states stay untouched.
func (s ConversationState) WithTurn(speaker Speaker, text string) ConversationState {
	history := make([]Turn, len(s.History), len(s.History)+1)
	copy(history, s.History)
	s.History = append(history, Turn{Speaker: speaker, Text: text})
	return s
}
