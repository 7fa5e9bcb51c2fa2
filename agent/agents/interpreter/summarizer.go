package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
)

type summarizerImpl struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Summarizer = (*summarizerImpl)(nil)

func newSummarizer(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*summarizerImpl, error) {
	runner, err := compileChatGraph(ctx, chatModel, systemPrompt, "summarizer.reply_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &summarizerImpl{runner: runner}, nil
}

func (s *summarizerImpl) Summarize(ctx context.Context, req contractx.SummaryRequest) (string, error) {
	results := req.Results
	if results == nil {
		results = []contractx.ToolResult{}
	}
	payload := map[string]any{
		"user_message": req.UserMessage,
		"draft_reply":  req.DraftReply,
		"tool_results": results,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal summary payload: %v", contractx.ErrValidation, err)
	}

	msg, err := s.runner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return "", fmt.Errorf("%w: summarizer invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: summary is empty", contractx.ErrSchemaViolation)
	}
	return strings.TrimSpace(msg.Content), nil
}
