package dispatchnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
)

// RecordTranscript stores the turn when a store is configured. A failed save
// is logged and does not fail the request: the tool calls already happened.
func RecordTranscript(
	ctx context.Context,
	in *GraphState,
	store contractx.TranscriptStore,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.enter(contractx.PhaseIdle)
	if store == nil {
		return in, nil
	}

	err := store.Save(ctx, &contractx.Transcript{
		ID:           in.TranscriptID,
		Text:         in.Text,
		Requests:     in.Interpretation.Requests,
		Results:      in.Results,
		Reply:        in.Reply,
		SummaryError: in.SummaryErr,
		Phases:       in.Phases,
		CreatedAt:    in.Now,
	})
	if err != nil {
		log.Warn().Err(err).Str("transcript_id", in.TranscriptID).Msg("failed to save transcript")
	}
	return in, nil
}
