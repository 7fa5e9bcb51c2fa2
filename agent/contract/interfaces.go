package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Interpreter turns free text into capability calls drawn from tools.
type Interpreter interface {
	Interpret(ctx context.Context, text string, tools []*schema.ToolInfo) (Interpretation, error)
}

// Summarizer turns executed calls into the reply shown to the user.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// ToolGateway exposes the capability set and executes calls against it.
// Execute never returns an error: every failure is carried in the envelope.
type ToolGateway interface {
	Infos() []*schema.ToolInfo
	Execute(ctx context.Context, req ToolRequest) ToolResult
}

type TranscriptStore interface {
	Save(ctx context.Context, t *Transcript) error
	Load(ctx context.Context, id string) (*Transcript, error)
}
