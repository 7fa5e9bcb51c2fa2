package interpreter

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	llmx "github.com/tanpawarit/record-agent/agent/llm"
	promptx "github.com/tanpawarit/record-agent/agent/prompt"
)

// Models holds the two language-model roles the dispatcher depends on.
type Models struct {
	Interpreter contractx.Interpreter
	Summarizer  contractx.Summarizer
}

func New(ctx context.Context, cfg llmx.Config) (*Models, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	interpreterCfg := cfg.ProviderFor(contractx.RoleInterpreter)
	interpreterModel, err := interpreterCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create interpreter model: %v", contractx.ErrModelInvoke, err)
	}
	summarizerCfg := cfg.ProviderFor(contractx.RoleSummarizer)
	summarizerModel, err := summarizerCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create summarizer model: %v", contractx.ErrModelInvoke, err)
	}

	interp, err := newInterpreter(interpreterModel, prompts.Interpreter)
	if err != nil {
		return nil, err
	}
	summ, err := newSummarizer(ctx, summarizerModel, prompts.Summarizer)
	if err != nil {
		return nil, err
	}

	return &Models{Interpreter: interp, Summarizer: summ}, nil
}
