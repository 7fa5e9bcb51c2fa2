package interpreter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	"github.com/tanpawarit/record-agent/record"
)

type fakeToolCallingModel struct {
	mu        sync.Mutex
	responses []*schema.Message
	err       error
	idx       int
	bound     [][]*schema.ToolInfo
	inputs    [][]*schema.Message
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bound = append(f.bound, tools)
	return f, nil
}

func studentTools() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: "add_student",
			Desc: "Add a new student to the database.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name":  {Type: schema.String, Required: true},
				"age":   {Type: schema.Integer, Required: true},
				"grade": {Type: schema.String, Required: true},
			}),
		},
		{Name: "read_students", Desc: "Fetch all students from the database."},
	}
}

func TestInterpretMapsToolCalls(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{
					{
						ID:   "call_1",
						Type: "function",
						Function: schema.FunctionCall{
							Name:      "add_student",
							Arguments: `{"name":"Alice","age":10,"grade":"5th"}`,
						},
					},
					{
						ID:       "call_2",
						Type:     "function",
						Function: schema.FunctionCall{Name: "read_students"},
					},
				},
			},
		},
	}

	interp, err := newInterpreter(fake, "interpreter prompt")
	if err != nil {
		t.Fatalf("newInterpreter() error = %v", err)
	}

	out, err := interp.Interpret(context.Background(), "add Alice, 10, grade 5th, then show everyone", studentTools())
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if len(out.Requests) != 2 {
		t.Fatalf("expected 2 requests, got %#v", out.Requests)
	}
	first := out.Requests[0]
	if first.Tool != "add_student" || first.CallID != "call_1" || first.Args["name"] != "Alice" {
		t.Fatalf("unexpected first request: %#v", first)
	}
	if out.Requests[1].Tool != "read_students" || len(out.Requests[1].Args) != 0 {
		t.Fatalf("unexpected second request: %#v", out.Requests[1])
	}
	if len(fake.bound) != 1 || len(fake.bound[0]) != 2 {
		t.Fatalf("tools bound = %#v", fake.bound)
	}
}

func TestInterpretReusesBoundToolSet(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Role: schema.Assistant, Content: "Which student?"},
			{Role: schema.Assistant, Content: "Which medicine?"},
		},
	}
	interp, err := newInterpreter(fake, "interpreter prompt")
	if err != nil {
		t.Fatalf("newInterpreter() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := interp.Interpret(context.Background(), "update it", studentTools()); err != nil {
			t.Fatalf("Interpret() #%d error = %v", i, err)
		}
	}
	if len(fake.bound) != 1 {
		t.Fatalf("WithTools called %d times, want 1", len(fake.bound))
	}
}

func TestInterpretTextOnlyReply(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{{Role: schema.Assistant, Content: "  What age should I set?  "}},
	}
	interp, _ := newInterpreter(fake, "interpreter prompt")

	out, err := interp.Interpret(context.Background(), "update Bob", studentTools())
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if len(out.Requests) != 0 || out.Reply != "What age should I set?" {
		t.Fatalf("unexpected interpretation: %#v", out)
	}
}

func TestInterpretInvalidArgumentsViolateSchema(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{
					{ID: "c", Function: schema.FunctionCall{Name: "add_student", Arguments: `{"name":`}},
				},
			},
		},
	}
	interp, _ := newInterpreter(fake, "interpreter prompt")

	_, err := interp.Interpret(context.Background(), "add someone", studentTools())
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestInterpretKeepsIntegerPrecision(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Role: schema.Assistant,
				ToolCalls: []schema.ToolCall{
					{ID: "c", Function: schema.FunctionCall{Name: "update_medicine", Arguments: `{"id":9007199254740993,"price":2.5}`}},
				},
			},
		},
	}
	interp, _ := newInterpreter(fake, "interpreter prompt")

	out, err := interp.Interpret(context.Background(), "update medicine", studentTools())
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	id, ok := out.Requests[0].Args["id"].(json.Number)
	if !ok || id.String() != "9007199254740993" {
		t.Fatalf("id arg = %#v", out.Requests[0].Args["id"])
	}

	fake.responses = append(fake.responses, &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "d", Function: schema.FunctionCall{Name: "read_students", Arguments: `{} {"extra":1}`}},
		},
	})
	if _, err := interp.Interpret(context.Background(), "list", studentTools()); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("trailing data error = %v, want ErrSchemaViolation", err)
	}
}

func TestInterpretEmptyResponseViolatesSchema(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{{Role: schema.Assistant}}}
	interp, _ := newInterpreter(fake, "interpreter prompt")

	_, err := interp.Interpret(context.Background(), "hello", studentTools())
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestInterpretModelFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("quota exceeded")}
	interp, _ := newInterpreter(fake, "interpreter prompt")

	_, err := interp.Interpret(context.Background(), "list students", studentTools())
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestInterpretRejectsBlankText(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{}
	interp, _ := newInterpreter(fake, "interpreter prompt")

	_, err := interp.Interpret(context.Background(), " \t ", studentTools())
	if !errors.Is(err, contractx.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	if len(fake.inputs) != 0 {
		t.Fatal("model must not be called for blank text")
	}
}

func TestSummarizeSendsResultsUnmodified(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{{Role: schema.Assistant, Content: "Student not found, nothing was deleted."}},
	}
	summ, err := newSummarizer(context.Background(), fake, "summarizer prompt")
	if err != nil {
		t.Fatalf("newSummarizer() error = %v", err)
	}

	reply, err := summ.Summarize(context.Background(), contractx.SummaryRequest{
		UserMessage: "delete Zed",
		Results: []contractx.ToolResult{
			{Tool: "delete_student", CallID: "c1", Envelope: record.Failf("student not found")},
		},
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if reply != "Student not found, nothing was deleted." {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if len(fake.inputs) != 1 {
		t.Fatalf("expected one model call, got %d", len(fake.inputs))
	}
	var user string
	for _, m := range fake.inputs[0] {
		if m.Role == schema.User {
			user = m.Content
		}
	}
	if !strings.Contains(user, `"Message":"student not found"`) || !strings.Contains(user, `"Error":true`) {
		t.Fatalf("summarizer input does not carry the envelope: %s", user)
	}
}

func TestSummarizeEmptyReplyViolatesSchema(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{{Role: schema.Assistant, Content: " "}}}
	summ, _ := newSummarizer(context.Background(), fake, "summarizer prompt")

	_, err := summ.Summarize(context.Background(), contractx.SummaryRequest{UserMessage: "hi"})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}
