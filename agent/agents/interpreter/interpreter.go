package interpreter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	toolx "github.com/tanpawarit/record-agent/agent/tool"
)

type interpreterImpl struct {
	chatModel    einomodel.ToolCallingChatModel
	systemPrompt string

	mu      sync.Mutex
	runners map[string]compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Interpreter = (*interpreterImpl)(nil)

func newInterpreter(chatModel einomodel.ToolCallingChatModel, systemPrompt string) (*interpreterImpl, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: interpreter chat model is nil", contractx.ErrValidation)
	}
	return &interpreterImpl{
		chatModel:    chatModel,
		systemPrompt: systemPrompt,
		runners:      make(map[string]compose.Runnable[map[string]any, *schema.Message]),
	}, nil
}

func (i *interpreterImpl) Interpret(ctx context.Context, text string, tools []*schema.ToolInfo) (contractx.Interpretation, error) {
	if strings.TrimSpace(text) == "" {
		return contractx.Interpretation{}, contractx.ErrInvalidMessage
	}

	runner, err := i.runnerFor(ctx, tools)
	if err != nil {
		return contractx.Interpretation{}, err
	}

	msg, err := runner.Invoke(ctx, map[string]any{"input": text})
	if err != nil {
		return contractx.Interpretation{}, fmt.Errorf("%w: interpreter invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.Interpretation{}, fmt.Errorf("%w: empty interpreter response", contractx.ErrSchemaViolation)
	}

	requests, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return contractx.Interpretation{}, err
	}

	reply := strings.TrimSpace(msg.Content)
	if len(requests) == 0 && reply == "" {
		return contractx.Interpretation{}, fmt.Errorf("%w: response has neither tool calls nor text", contractx.ErrSchemaViolation)
	}
	return contractx.Interpretation{Requests: requests, Reply: reply}, nil
}

// runnerFor returns the compiled graph for this exact tool set, binding the
// tools to the model the first time the set is seen.
func (i *interpreterImpl) runnerFor(ctx context.Context, tools []*schema.ToolInfo) (compose.Runnable[map[string]any, *schema.Message], error) {
	key := toolSetKey(tools)

	i.mu.Lock()
	defer i.mu.Unlock()

	if r, ok := i.runners[key]; ok {
		return r, nil
	}

	var bound einomodel.BaseChatModel = i.chatModel
	if len(tools) > 0 {
		m, err := i.chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
		}
		bound = m
	}

	r, err := compileChatGraph(ctx, bound, i.systemPrompt, "interpreter.tool_selection_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	i.runners[key] = r
	return r, nil
}

func toolSetKey(tools []*schema.ToolInfo) string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		if t != nil {
			names = append(names, t.Name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args, err := toolx.ParseArgs(call.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
		}

		reqs = append(reqs, contractx.ToolRequest{
			Tool:   tool,
			Args:   args,
			CallID: call.ID,
		})
	}
	return reqs, nil
}
