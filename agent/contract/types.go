package contract

import (
	"time"

	"github.com/tanpawarit/record-agent/record"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseInterpreting Phase = "interpreting"
	PhaseToolInvoking Phase = "tool_invoking"
	PhaseSummarizing  Phase = "summarizing"
)

type Role string

const (
	RoleInterpreter Role = "interpreter"
	RoleSummarizer  Role = "summarizer"
)

type ToolRequest struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
	CallID string         `json:"call_id,omitempty"`
}

// ToolResult pairs a request with the envelope its capability produced.
type ToolResult struct {
	Tool     string          `json:"tool"`
	CallID   string          `json:"call_id,omitempty"`
	Args     map[string]any  `json:"args,omitempty"`
	Envelope record.Envelope `json:"envelope"`
}

// Interpretation is what the interpreter selected. Reply holds any text the
// model produced alongside (or instead of) tool calls.
type Interpretation struct {
	Requests []ToolRequest `json:"requests,omitempty"`
	Reply    string        `json:"reply,omitempty"`
}

type SummaryRequest struct {
	UserMessage string       `json:"user_message"`
	DraftReply  string       `json:"draft_reply,omitempty"`
	Results     []ToolResult `json:"tool_results"`
}

type Transcript struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Requests []ToolRequest `json:"requests,omitempty"`
	Results  []ToolResult  `json:"results,omitempty"`
	Reply    string        `json:"reply"`
	// SummaryError is set when the reply was built from the envelopes
	// because the summarizer failed.
	SummaryError string    `json:"summary_error,omitempty"`
	Phases       []Phase   `json:"phases"`
	CreatedAt    time.Time `json:"created_at"`
}

// Outcome is what one dispatch returns to its caller.
type Outcome struct {
	TranscriptID string       `json:"transcript_id"`
	Reply        string       `json:"response"`
	Results      []ToolResult `json:"tool_results"`
}
