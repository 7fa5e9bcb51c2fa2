package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	"github.com/tanpawarit/record-agent/pkg/database"
	"github.com/tanpawarit/record-agent/record"
	"github.com/tanpawarit/record-agent/record/medicine"
	"github.com/tanpawarit/record-agent/record/student"
)

type fakeAgent struct {
	out   contractx.Outcome
	err   error
	calls []string
}

func (f *fakeAgent) Handle(ctx context.Context, text string) (contractx.Outcome, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return contractx.Outcome{}, f.err
	}
	return f.out, nil
}

func (f *fakeAgent) Transcript(ctx context.Context, id string) (*contractx.Transcript, bool, error) {
	if id != "turn-1" {
		return nil, true, fmt.Errorf("transcript %w", record.ErrNotFound)
	}
	return &contractx.Transcript{ID: id, Text: "hi", Reply: "hello"}, true, nil
}

type envelopeBody struct {
	Data    json.RawMessage `json:"Data"`
	Error   bool            `json:"Error"`
	Message string          `json:"Message"`
}

func newTestHandler(t *testing.T, agent Agent) http.Handler {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	medicines, err := medicine.NewStore(db)
	if err != nil {
		t.Fatalf("medicine.NewStore() error = %v", err)
	}
	if err := medicines.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema() error = %v", err)
	}
	students, err := student.NewStore(student.NewMemoryCollection())
	if err != nil {
		t.Fatalf("student.NewStore() error = %v", err)
	}

	return NewHandler(Deps{
		Students:  students,
		Medicines: medicines,
		Agent:     agent,
	}, Config{AllowedOrigins: []string{"http://localhost:5173"}})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelopeBody {
	t.Helper()

	var env envelopeBody
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestWelcomeAndHealth(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Welcome") {
		t.Fatalf("GET / = %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d", rec.Code)
	}
}

func TestHealthReportsFailingDependency(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Health: []HealthCheck{
		{Name: "mongo", Check: func(context.Context) error { return errors.New("no reachable servers") }},
	}}, Config{})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "mongo") {
		t.Fatalf("GET /healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestStudentRoutes(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodPost, "/student/add", `{"name":"Alice","age":10,"grade":"5th"}`)
	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusOK || env.Error || env.Message != student.MsgCreated {
		t.Fatalf("POST /student/add = %d %#v", rec.Code, env)
	}

	rec = do(t, h, http.MethodPut, "/student/Alice", `{}`)
	env = decodeEnvelope(t, rec)
	if rec.Code != http.StatusBadRequest || !env.Error || env.Message != "invalid input: no fields to update" {
		t.Fatalf("PUT without fields = %d %#v", rec.Code, env)
	}
	if string(env.Data) != "{}" {
		t.Fatalf("failed envelope data = %s, want {}", env.Data)
	}

	rec = do(t, h, http.MethodPut, "/student/Alice", `{"age":11}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /student/Alice = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/student/Alice", "")
	env = decodeEnvelope(t, rec)
	var got student.Student
	if err := json.Unmarshal(env.Data, &got); err != nil || got.Age != 11 {
		t.Fatalf("GET /student/Alice = %s (%v)", env.Data, err)
	}

	rec = do(t, h, http.MethodDelete, "/student/Alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /student/Alice = %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/student/Alice", "")
	env = decodeEnvelope(t, rec)
	if rec.Code != http.StatusNotFound || env.Message != "student not found" {
		t.Fatalf("GET after delete = %d %#v", rec.Code, env)
	}

	rec = do(t, h, http.MethodGet, "/student", "")
	env = decodeEnvelope(t, rec)
	if rec.Code != http.StatusOK || string(env.Data) != "[]" {
		t.Fatalf("GET /student = %d %s", rec.Code, env.Data)
	}
}

func TestMedicineRoutesResequence(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)

	for _, name := range []string{"A", "B", "C"} {
		rec := do(t, h, http.MethodPost, "/medicine/", fmt.Sprintf(`{"name":%q,"price":1.5,"quantity":3}`, name))
		if rec.Code != http.StatusOK {
			t.Fatalf("POST /medicine/ %s = %d %s", name, rec.Code, rec.Body.String())
		}
	}

	rec := do(t, h, http.MethodDelete, "/medicine/2", "")
	env := decodeEnvelope(t, rec)
	if rec.Code != http.StatusOK || env.Message != medicine.MsgDeleted {
		t.Fatalf("DELETE /medicine/2 = %d %#v", rec.Code, env)
	}
	var items []medicine.Medicine
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 2 || items[1].ID != 2 || items[1].Name != "C" {
		t.Fatalf("resequenced = %#v", items)
	}

	rec = do(t, h, http.MethodGet, "/all", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /all = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPut, "/medicine/2", `{"quantity":9}`)
	env = decodeEnvelope(t, rec)
	if rec.Code != http.StatusOK || env.Message != medicine.MsgUpdated {
		t.Fatalf("PUT /medicine/2 = %d %#v", rec.Code, env)
	}

	rec = do(t, h, http.MethodGet, "/medicine/C", "")
	var m medicine.Medicine
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &m); err != nil || m.Quantity != 9 {
		t.Fatalf("GET /medicine/C = %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodDelete, "/medicine/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("DELETE /medicine/abc = %d", rec.Code)
	}
	rec = do(t, h, http.MethodDelete, "/medicine/7", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("DELETE /medicine/7 = %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/medicine/", `{"name":"","price":1,"quantity":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST invalid medicine = %d", rec.Code)
	}
}

func TestChatRejectsBlankInputBeforeAgent(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{}
	h := newTestHandler(t, agent)

	for _, body := range []string{`{"user_input":"   "}`, `{"message":""}`, `{}`} {
		rec := do(t, h, http.MethodPost, "/chat", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("POST /chat %s = %d", body, rec.Code)
		}
		var got map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &got)
		if got["detail"] != "User input cannot be empty." {
			t.Fatalf("detail = %q", got["detail"])
		}
	}
	if len(agent.calls) != 0 {
		t.Fatalf("agent called %d times for blank input", len(agent.calls))
	}
}

func TestChatSuccessAndFailure(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{out: contractx.Outcome{
		TranscriptID: "turn-1",
		Reply:        "Alice was added.",
		Results:      []contractx.ToolResult{{Tool: "add_student", Envelope: record.OK(map[string]any{"id": "x"}, student.MsgCreated)}},
	}}
	h := newTestHandler(t, agent)

	rec := do(t, h, http.MethodPost, "/chat", `{"message":"add Alice age 10 grade 5th"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /chat = %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Response     string                 `json:"response"`
		TranscriptID string                 `json:"transcript_id"`
		ToolResults  []contractx.ToolResult `json:"tool_results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode chat body: %v", err)
	}
	if body.Response != "Alice was added." || body.TranscriptID != "turn-1" || len(body.ToolResults) != 1 {
		t.Fatalf("chat body = %#v", body)
	}
	if agent.calls[0] != "add Alice age 10 grade 5th" {
		t.Fatalf("agent text = %q", agent.calls[0])
	}

	agent.err = fmt.Errorf("%w: timeout", contractx.ErrModelInvoke)
	rec = do(t, h, http.MethodPost, "/chat", `{"user_input":"list students"}`)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "detail") {
		t.Fatalf("POST /chat failure = %d %s", rec.Code, rec.Body.String())
	}
}

func TestChatWithoutAgent(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)
	rec := do(t, h, http.MethodPost, "/chat", `{"user_input":"hi"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("POST /chat = %d", rec.Code)
	}
}

func TestTranscriptRoute(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeAgent{})
	rec := do(t, h, http.MethodGet, "/chat/transcripts/turn-1", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"reply":"hello"`) {
		t.Fatalf("GET transcript = %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/chat/transcripts/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET missing transcript = %d", rec.Code)
	}
}

func TestCORSAllowList(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("allow-origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("allow-origin for unknown origin = %q", got)
	}
}

func TestUnencodableResponseBecomesServerError(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{out: contractx.Outcome{
		TranscriptID: "turn-1",
		Reply:        "done",
		Results: []contractx.ToolResult{{
			Tool:     "get_medicine",
			Envelope: record.OK(map[string]any{"price": math.Inf(1)}, "ok"),
		}},
	}}
	h := newTestHandler(t, agent)

	rec := do(t, h, http.MethodPost, "/chat", `{"user_input":"show the price"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["detail"] == "" {
		t.Fatalf("body = %q (%v)", rec.Body.String(), err)
	}
}
