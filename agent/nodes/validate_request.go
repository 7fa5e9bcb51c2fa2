package dispatchnode

import (
	"strings"
	"time"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
)

type GraphInput struct {
	Text string
}

type GraphOutput = contractx.Outcome

type GraphState struct {
	TranscriptID string
	Text         string
	Now          time.Time

	Interpretation contractx.Interpretation
	Results        []contractx.ToolResult
	Reply          string
	SummaryErr     string
	Phases         []contractx.Phase
}

func (s *GraphState) enter(p contractx.Phase) {
	s.Phases = append(s.Phases, p)
}

// ValidateRequest rejects blank input before anything else in the graph runs.
func ValidateRequest(in GraphInput, nowFn func() time.Time, newID func() string) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, contractx.ErrInvalidMessage
	}

	return &GraphState{
		TranscriptID: newID(),
		Text:         text,
		Now:          nowFn().UTC(),
		Phases:       []contractx.Phase{contractx.PhaseIdle},
	}, nil
}
