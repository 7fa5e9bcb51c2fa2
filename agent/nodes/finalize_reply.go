package dispatchnode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: reply is empty", contractx.ErrSchemaViolation)
	}

	results := in.Results
	if results == nil {
		results = []contractx.ToolResult{}
	}
	return GraphOutput{
		TranscriptID: in.TranscriptID,
		Reply:        reply,
		Results:      results,
	}, nil
}
