package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	nodex "github.com/tanpawarit/record-agent/agent/nodes"
	metricsx "github.com/tanpawarit/record-agent/pkg/metrics"
)

const DefaultMaxToolCalls = 8

var ErrInvalidMessage = contractx.ErrInvalidMessage

type Config struct {
	MaxToolCalls int `split_words:"true" default:"8"`
}

// Dispatcher maps one free-text request to a bounded sequence of tool calls
// and a reply describing their outcome.
type Dispatcher struct {
	interpreter contractx.Interpreter
	summarizer  contractx.Summarizer
	tools       contractx.ToolGateway
	transcripts contractx.TranscriptStore

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	maxToolCalls int
	now          func() time.Time
	newID        func() string
}

// New builds a dispatcher. transcripts may be nil.
func New(
	interpreter contractx.Interpreter,
	summarizer contractx.Summarizer,
	tools contractx.ToolGateway,
	transcripts contractx.TranscriptStore,
	cfg Config,
) (*Dispatcher, error) {
	if interpreter == nil {
		return nil, errors.New("interpreter is required")
	}
	if summarizer == nil {
		return nil, errors.New("summarizer is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	maxToolCalls := cfg.MaxToolCalls
	if maxToolCalls <= 0 {
		maxToolCalls = DefaultMaxToolCalls
	}

	d := &Dispatcher{
		interpreter:  interpreter,
		summarizer:   summarizer,
		tools:        tools,
		transcripts:  transcripts,
		maxToolCalls: maxToolCalls,
		now:          time.Now,
		newID:        uuid.NewString,
	}

	graphRunner, err := d.compileHandleGraph(context.Background())
	if err != nil {
		return nil, err
	}
	d.graphRunner = graphRunner

	return d, nil
}

func (d *Dispatcher) Handle(ctx context.Context, text string) (contractx.Outcome, error) {
	out, err := d.graphRunner.Invoke(ctx, nodex.GraphInput{Text: text})
	metricsx.Dispatches.WithLabelValues(metricsx.Outcome(err != nil)).Inc()
	if err != nil {
		if !errors.Is(err, contractx.ErrInvalidMessage) {
			log.Error().Err(err).Msg("dispatch failed")
		}
		return contractx.Outcome{}, err
	}
	return out, nil
}

// Transcript returns a stored turn. It reports false when no transcript
// store is configured.
func (d *Dispatcher) Transcript(ctx context.Context, id string) (*contractx.Transcript, bool, error) {
	if d.transcripts == nil {
		return nil, false, nil
	}
	t, err := d.transcripts.Load(ctx, id)
	return t, true, err
}
