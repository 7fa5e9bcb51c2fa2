package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	"github.com/tanpawarit/record-agent/record"
)

func newTestStore(t *testing.T, handler http.HandlerFunc, opts ...StoreOption) *UpstashRedisStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "token"},
		append([]StoreOption{WithHTTPClient(server.Client())}, opts...)...,
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	return store
}

func TestUpstashRedisStoreRedisKey(t *testing.T) {
	t.Parallel()

	store := &UpstashRedisStore{keyPrefix: defaultStoreKeyPrefix}
	got, err := store.redisKey("abc")
	if err != nil {
		t.Fatalf("redisKey() error = %v", err)
	}
	if got != "records:transcript:abc" {
		t.Fatalf("redisKey() = %q", got)
	}

	if _, err := store.redisKey("   "); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("redisKey(blank) error = %v, want ErrInvalidID", err)
	}
}

func TestUpstashRedisStoreSaveSetsTTL(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	var gotAuth string
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"OK"}`)
	}, WithTTL(90*time.Minute))

	err := store.Save(context.Background(), &contractx.Transcript{ID: "turn-1", Text: "list students", Reply: "none yet"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if gotAuth != "Bearer token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if len(gotCommand) != 5 || gotCommand[0] != "SET" || gotCommand[1] != "records:transcript:turn-1" {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	if gotCommand[3] != "EX" || gotCommand[4] != float64(5400) {
		t.Fatalf("ttl args = %v %v", gotCommand[3], gotCommand[4])
	}
}

func TestUpstashRedisStoreLoadRoundTrip(t *testing.T) {
	t.Parallel()

	seed := contractx.Transcript{
		ID:    "turn-2",
		Text:  "delete Zed",
		Reply: "Zed was not found.",
		Results: []contractx.ToolResult{
			{Tool: "delete_student", Envelope: record.Failf("student not found")},
		},
		Phases: []contractx.Phase{contractx.PhaseIdle, contractx.PhaseInterpreting},
	}
	payload, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	encoded, err := json.Marshal(string(payload))
	if err != nil {
		t.Fatalf("marshal encoded seed: %v", err)
	}

	var gotCommand []any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprintf(w, `{"result":%s}`, encoded)
	})

	got, err := store.Load(context.Background(), "turn-2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if gotCommand[0] != "GET" || gotCommand[1] != "records:transcript:turn-2" {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	if got.Reply != seed.Reply || len(got.Results) != 1 || got.Results[0].Envelope.Message != "student not found" {
		t.Fatalf("Load() = %#v", got)
	}
}

func TestUpstashRedisStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":null}`)
	})

	_, err := store.Load(context.Background(), "nope")
	if !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestUpstashRedisStoreSurfacesRedisErrors(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"WRONGPASS invalid password"}`)
	})

	err := store.Save(context.Background(), &contractx.Transcript{ID: "turn-3"})
	if err == nil || err.Error() != "WRONGPASS invalid password" {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestUpstashRedisStoreUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	store, err := NewUpstashRedisStore(UpstashRedisConfig{URL: url, Token: "token", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	if _, err := store.Load(context.Background(), "turn-4"); !errors.Is(err, record.ErrConnectivity) {
		t.Fatalf("Load() error = %v, want ErrConnectivity", err)
	}
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(2)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(ctx, &contractx.Transcript{ID: id}); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	if _, err := store.Load(ctx, "a"); !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("Load(a) error = %v, want ErrNotFound", err)
	}
	if got, err := store.Load(ctx, "c"); err != nil || got.ID != "c" {
		t.Fatalf("Load(c) = %#v, %v", got, err)
	}
}
