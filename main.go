package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	dispatcherx "github.com/tanpawarit/record-agent/agent/agents/dispatcher"
	interpreterx "github.com/tanpawarit/record-agent/agent/agents/interpreter"
	contractx "github.com/tanpawarit/record-agent/agent/contract"
	llmx "github.com/tanpawarit/record-agent/agent/llm"
	mcpx "github.com/tanpawarit/record-agent/agent/mcp"
	toolx "github.com/tanpawarit/record-agent/agent/tool"
	transcriptx "github.com/tanpawarit/record-agent/agent/transcript"
	"github.com/tanpawarit/record-agent/api"
	configx "github.com/tanpawarit/record-agent/pkg/config"
	"github.com/tanpawarit/record-agent/pkg/database"
	_ "github.com/tanpawarit/record-agent/pkg/logger/autoload"
	metricsx "github.com/tanpawarit/record-agent/pkg/metrics"
	"github.com/tanpawarit/record-agent/pkg/mongox"
	providerx "github.com/tanpawarit/record-agent/pkg/provider"
	qstashx "github.com/tanpawarit/record-agent/pkg/qstash"
	"github.com/tanpawarit/record-agent/record"
	"github.com/tanpawarit/record-agent/record/medicine"
	"github.com/tanpawarit/record-agent/record/student"
)

const version = "0.1.0"

const (
	backendMongo  = "mongo"
	backendMemory = "memory"
	backendNone   = "none"
)

type AppConfig struct {
	ServiceName      string `envconfig:"SERVICE_NAME" default:"record-agent"`
	StudentBackend   string `envconfig:"STUDENT_BACKEND" default:"mongo"`
	MedicinesEnabled bool   `envconfig:"MEDICINES_ENABLED" default:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("record-agent stopped")
	}
}

func run(ctx context.Context) error {
	appCfg := configx.MustNew[AppConfig]("")
	httpCfg := configx.MustNew[api.Config]("HTTP")

	notifier := newNotifier()

	var health []api.HealthCheck

	var medicines *medicine.Store
	if appCfg.MedicinesEnabled {
		db, err := database.Open(ctx, *configx.MustNew[database.Config]("DATABASE"))
		if err != nil {
			return fmt.Errorf("open medicine database: %w", err)
		}
		defer closeDB(db)

		medicines, err = medicine.NewStore(db, medicine.WithNotifier(notifier))
		if err != nil {
			return err
		}
		if err := medicines.CreateSchema(ctx); err != nil {
			return fmt.Errorf("create medicine schema: %w", err)
		}
		health = append(health, api.HealthCheck{Name: "database", Check: db.PingContext})
	}

	students, mongoClient, err := newStudentStore(ctx, appCfg.StudentBackend, notifier)
	if err != nil {
		return err
	}
	if mongoClient != nil {
		defer func() {
			if err := mongoClient.Close(context.Background()); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}()
		health = append(health, api.HealthCheck{Name: "mongo", Check: mongoClient.Ping})
	}

	catalog, err := toolx.BuildForRecords(students, medicines)
	if err != nil {
		return fmt.Errorf("build tool catalog: %w", err)
	}

	agent, err := newAgent(ctx, catalog)
	if err != nil {
		return err
	}

	srv := api.NewServer(api.Deps{
		Students:  students,
		Medicines: medicines,
		Agent:     agent,
		MCP:       mcpx.NewServer(appCfg.ServiceName, version, catalog).Handler(),
		Metrics:   metricsx.Handler(),
		Health:    health,
	}, *httpCfg)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Int("tools", len(catalog.Tools())).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newNotifier() record.Notifier {
	qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
	if !qstashCfg.Enabled() {
		return record.NoopNotifier{}
	}
	client := qstashx.MustNew(*qstashCfg)
	log.Info().Str("destination", qstashCfg.Destination).Msg("publishing record changes to qstash")
	return qstashx.NewChangeNotifier(client, qstashCfg.Destination)
}

func newStudentStore(ctx context.Context, backend string, notifier record.Notifier) (*student.Store, *mongox.Client, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case backendNone:
		return nil, nil, nil
	case backendMemory:
		store, err := student.NewStore(student.NewMemoryCollection(), student.WithNotifier(notifier))
		return store, nil, err
	case backendMongo, "":
		mongoCfg := configx.MustNew[mongox.Config]("MONGO")
		client, err := mongox.Connect(ctx, *mongoCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		coll := student.NewMongoCollection(client.Database(), mongoCfg.Collection)
		if err := coll.EnsureIndexes(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, nil, fmt.Errorf("ensure student indexes: %w", err)
		}
		store, err := student.NewStore(coll, student.WithNotifier(notifier))
		if err != nil {
			_ = client.Close(ctx)
			return nil, nil, err
		}
		return store, client, nil
	default:
		return nil, nil, fmt.Errorf("unknown student backend %q", backend)
	}
}

// newAgent returns nil when no language model is configured; the chat
// route then reports 503 while the record routes keep working.
func newAgent(ctx context.Context, catalog *toolx.Catalog) (api.Agent, error) {
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	if !llmCfg.Enabled() {
		log.Warn().Msg("LLM_API_KEY is not set, chat agent disabled")
		return nil, nil
	}

	if llmCfg.VerifyOnStart {
		providerCfg := llmCfg.ProviderFor(contractx.RoleInterpreter)
		if err := providerx.Verify(ctx, providerx.NewClient(providerCfg), providerCfg.Model); err != nil {
			return nil, err
		}
	}

	models, err := interpreterx.New(ctx, *llmCfg)
	if err != nil {
		return nil, fmt.Errorf("create language models: %w", err)
	}

	var transcripts contractx.TranscriptStore = transcriptx.NewMemoryStore(0)
	upstashCfg := configx.MustNew[transcriptx.UpstashRedisConfig]("UPSTASH_REDIS")
	if upstashCfg.Enabled() {
		store, err := transcriptx.NewUpstashRedisStore(*upstashCfg)
		if err != nil {
			return nil, fmt.Errorf("create transcript store: %w", err)
		}
		transcripts = store
	}

	dispatcher, err := dispatcherx.New(
		models.Interpreter,
		models.Summarizer,
		catalog,
		transcripts,
		*configx.MustNew[dispatcherx.Config]("DISPATCH"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}
	return dispatcher, nil
}

func closeDB(db *bun.DB) {
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("database close failed")
	}
}
