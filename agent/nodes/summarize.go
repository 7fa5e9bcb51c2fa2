package dispatchnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
)

// Summarize asks the summarizer for the reply. Once tool calls have run, a
// summarizer failure no longer fails the request: the reply is built from
// the envelope messages instead, so committed changes are still reported.
func Summarize(
	ctx context.Context,
	in *GraphState,
	summarizer contractx.Summarizer,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.enter(contractx.PhaseSummarizing)
	if len(in.Results) == 0 && in.Interpretation.Reply != "" {
		in.Reply = in.Interpretation.Reply
		return in, nil
	}

	reply, err := summarizer.Summarize(ctx, contractx.SummaryRequest{
		UserMessage: in.Text,
		DraftReply:  in.Interpretation.Reply,
		Results:     in.Results,
	})
	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("%w: summarizer returned an empty reply", contractx.ErrSchemaViolation)
	}
	if err != nil {
		if len(in.Results) == 0 {
			return nil, err
		}
		log.Warn().Err(err).Str("transcript_id", in.TranscriptID).Msg("summarizer failed, replying from tool results")
		in.SummaryErr = err.Error()
		in.Reply = FallbackReply(in.Results)
		return in, nil
	}
	in.Reply = reply
	return in, nil
}

// FallbackReply lists every call with its envelope message, in call order.
func FallbackReply(results []contractx.ToolResult) string {
	var b strings.Builder
	b.WriteString("Here is what happened:")
	for _, r := range results {
		status := "done"
		if r.Envelope.Error {
			status = "failed"
		}
		fmt.Fprintf(&b, "\n- %s (%s): %s", r.Tool, status, r.Envelope.Message)
	}
	return b.String()
}
