package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	"github.com/tanpawarit/record-agent/record/medicine"
	"github.com/tanpawarit/record-agent/record/student"
)

type Config struct {
	Addr              string        `split_words:"true" default:":8000"`
	ReadHeaderTimeout time.Duration `split_words:"true" default:"5s"`
	ShutdownTimeout   time.Duration `split_words:"true" default:"10s"`
	AllowedOrigins    []string      `split_words:"true" default:"http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000,http://127.0.0.1:3000"`
}

// Agent is the chat dispatcher as seen by the HTTP surface.
type Agent interface {
	Handle(ctx context.Context, text string) (contractx.Outcome, error)
	Transcript(ctx context.Context, id string) (*contractx.Transcript, bool, error)
}

type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the collaborators the routes use. Nil stores leave their routes
// unregistered; a nil Agent makes /chat answer 503.
type Deps struct {
	Students  *student.Store
	Medicines *medicine.Store
	Agent     Agent
	MCP       http.Handler
	Metrics   http.Handler
	Health    []HealthCheck
}

type handlers struct {
	deps Deps
}

func NewHandler(deps Deps, cfg Config) http.Handler {
	h := &handlers{deps: deps}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.welcome)
	mux.HandleFunc("GET /healthz", h.healthz)

	if deps.Students != nil {
		mux.HandleFunc("GET /student", h.listStudents)
		mux.HandleFunc("GET /student/{name}", h.getStudent)
		mux.HandleFunc("POST /student/add", h.createStudent)
		mux.HandleFunc("PUT /student/{name}", h.updateStudent)
		mux.HandleFunc("DELETE /student/{name}", h.deleteStudent)
	}

	if deps.Medicines != nil {
		mux.HandleFunc("POST /medicine/{$}", h.createMedicine)
		mux.HandleFunc("GET /all", h.listMedicines)
		mux.HandleFunc("GET /medicine/{name}", h.getMedicine)
		mux.HandleFunc("PUT /medicine/{id}", h.updateMedicine)
		mux.HandleFunc("DELETE /medicine/{id}", h.deleteMedicine)
	}

	mux.HandleFunc("POST /chat", h.chat)
	mux.HandleFunc("GET /chat/transcripts/{id}", h.transcript)

	if deps.MCP != nil {
		mux.Handle("/mcp", deps.MCP)
	}
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	return chain(mux,
		cors(cfg.AllowedOrigins),
		hlog.AccessHandler(accessLog),
		hlog.RequestIDHandler("req_id", "X-Request-Id"),
		hlog.RemoteAddrHandler("ip"),
		hlog.NewHandler(log.Logger),
	)
}

// NewServer wraps the handler with the configured timeouts.
func NewServer(deps Deps, cfg Config) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(deps, cfg),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// chain applies middleware so the last one listed runs first.
func chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range mw {
		h = m(h)
	}
	return h
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	level := zerolog.InfoLevel
	if status >= http.StatusInternalServerError {
		level = zerolog.ErrorLevel
	}
	hlog.FromRequest(r).WithLevel(level).
		Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

func (h *handlers) welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Student API"})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	failing := map[string]string{}
	for _, hc := range h.deps.Health {
		if err := hc.Check(ctx); err != nil {
			failing[hc.Name] = err.Error()
		}
	}
	if len(failing) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "failing": failing})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
