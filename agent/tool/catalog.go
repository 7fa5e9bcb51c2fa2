package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	metricsx "github.com/tanpawarit/record-agent/pkg/metrics"
	"github.com/tanpawarit/record-agent/record"
)

type SideEffect string

const (
	SideEffectRead        SideEffect = "read"
	SideEffectWrite       SideEffect = "write"
	SideEffectDestructive SideEffect = "destructive"
)

// Handler runs a capability with arguments that already passed validation.
type Handler func(ctx context.Context, args Args) record.Envelope

type Param struct {
	Name     string
	Type     schema.DataType
	Desc     string
	Required bool
}

type Tool struct {
	Name       string
	Desc       string
	SideEffect SideEffect
	Params     []Param
	Handler    Handler
}

func (t Tool) Info() *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(t.Params))
	for _, p := range t.Params {
		params[p.Name] = &schema.ParameterInfo{
			Type:     p.Type,
			Desc:     p.Desc,
			Required: p.Required,
		}
	}
	return &schema.ToolInfo{
		Name:        t.Name,
		Desc:        t.Desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

// Catalog is the capability registry: name -> (schema, side effect, handler).
type Catalog struct {
	tools map[string]Tool
	order []string
}

var _ contractx.ToolGateway = (*Catalog)(nil)

func NewCatalog(tools ...Tool) (*Catalog, error) {
	c := &Catalog{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := c.Register(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) Register(t Tool) error {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return fmt.Errorf("%w: tool name is empty", contractx.ErrValidation)
	}
	if t.Handler == nil {
		return fmt.Errorf("%w: tool=%s has no handler", contractx.ErrValidation, name)
	}
	if _, exists := c.tools[name]; exists {
		return fmt.Errorf("%w: tool=%s registered twice", contractx.ErrValidation, name)
	}
	t.Name = name
	c.tools[name] = t
	c.order = append(c.order, name)
	return nil
}

func (c *Catalog) Lookup(name string) (Tool, bool) {
	t, ok := c.tools[strings.TrimSpace(name)]
	return t, ok
}

// Tools returns the registered capabilities in registration order.
func (c *Catalog) Tools() []Tool {
	out := make([]Tool, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tools[name])
	}
	return out
}

func (c *Catalog) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tools[name].Info())
	}
	return out
}

// Execute validates the request against the declared parameters and runs
// the capability. It never returns an error or panics: unknown tools, bad
// arguments, store failures and handler panics all come back as a failed
// envelope.
func (c *Catalog) Execute(ctx context.Context, req contractx.ToolRequest) (res contractx.ToolResult) {
	name := strings.TrimSpace(req.Tool)
	res = contractx.ToolResult{Tool: name, CallID: req.CallID, Args: req.Args}

	label := name
	t, ok := c.tools[name]
	if !ok {
		label = "unknown"
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", name).Interface("panic", r).Msg("tool handler panicked")
			res.Envelope = record.Failf(fmt.Sprintf("tool %s failed: %v", name, r))
		}
		metricsx.ToolDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		metricsx.ToolInvocations.WithLabelValues(label, metricsx.Outcome(res.Envelope.Error)).Inc()
	}()

	if !ok {
		res.Envelope = record.Fail(fmt.Errorf("%w: %s", contractx.ErrUnknownTool, name))
		return res
	}

	args, err := validateArgs(t.Params, req.Args)
	if err != nil {
		res.Envelope = record.Fail(err)
		return res
	}

	res.Envelope = t.Handler(ctx, args)
	log.Debug().
		Str("tool", name).
		Str("side_effect", string(t.SideEffect)).
		Bool("error", res.Envelope.Error).
		Msg("tool executed")
	return res
}
