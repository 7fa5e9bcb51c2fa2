package dispatchnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	"github.com/tanpawarit/record-agent/record"
)

// InvokeTools runs the selected calls one at a time in the order the
// interpreter produced them. Calls past maxCalls are answered with a failed
// envelope and never reach the gateway.
func InvokeTools(
	ctx context.Context,
	in *GraphState,
	tools contractx.ToolGateway,
	maxCalls int,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	requests := in.Interpretation.Requests
	if len(requests) == 0 {
		return in, nil
	}

	in.enter(contractx.PhaseToolInvoking)
	results := make([]contractx.ToolResult, 0, len(requests))
	for i, req := range requests {
		if i >= maxCalls {
			results = append(results, contractx.ToolResult{
				Tool:     req.Tool,
				CallID:   req.CallID,
				Args:     req.Args,
				Envelope: record.Failf(fmt.Sprintf("skipped: at most %d tool calls per request", maxCalls)),
			})
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res := tools.Execute(ctx, req)
		log.Info().
			Str("transcript_id", in.TranscriptID).
			Str("tool", res.Tool).
			Bool("error", res.Envelope.Error).
			Str("message", res.Envelope.Message).
			Msg("tool call finished")
		results = append(results, res)
	}

	in.Results = results
	return in, nil
}
