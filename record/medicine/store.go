package medicine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tanpawarit/record-agent/pkg/metrics"
	"github.com/tanpawarit/record-agent/record"
)

const defaultCreateAttempts = 3

// Store owns the medicines table. Every mutation runs inside a transaction
// and behind the collection write lock, so the id space is always {1..N}
// from the point of view of any reader.
type Store struct {
	db             *bun.DB
	mu             sync.RWMutex
	notifier       record.Notifier
	createAttempts int
	now            func() time.Time
}

type Option func(*Store)

func WithNotifier(n record.Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithCreateAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.createAttempts = n
		}
	}
}

func NewStore(db *bun.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("medicine store requires a database handle")
	}
	s := &Store{
		db:             db,
		notifier:       record.NoopNotifier{},
		createAttempts: defaultCreateAttempts,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Medicine)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return classify(fmt.Errorf("create medicines table: %w", err))
	}
	return nil
}

// Create assigns max(id)+1 and inserts. A primary key collision can only come
// from a writer outside this process; it is retried with a fresh max scan.
func (s *Store) Create(ctx context.Context, in Input) (Medicine, error) {
	if err := in.validate(); err != nil {
		return Medicine{}, err
	}

	s.mu.Lock()
	var (
		created Medicine
		err     error
	)
	for attempt := 1; attempt <= s.createAttempts; attempt++ {
		created, err = s.createOnce(ctx, in)
		if err == nil || !errors.Is(err, record.ErrConflict) {
			break
		}
		metrics.IDConflicts.WithLabelValues(Collection).Inc()
		log.Warn().Int("attempt", attempt).Err(err).Msg("medicine id collision, retrying")
	}
	s.mu.Unlock()

	if err != nil {
		return Medicine{}, err
	}
	s.notify(ctx, record.OpCreate, created.ID)
	return created, nil
}

func (s *Store) createOnce(ctx context.Context, in Input) (Medicine, error) {
	m := Medicine{
		Name:     strings.TrimSpace(in.Name),
		Price:    in.Price,
		Quantity: in.Quantity,
	}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.lockTable(ctx, tx); err != nil {
			return err
		}
		var maxID int64
		if err := tx.NewSelect().
			Model((*Medicine)(nil)).
			ColumnExpr("COALESCE(MAX(id), 0)").
			Scan(ctx, &maxID); err != nil {
			return fmt.Errorf("scan max id: %w", err)
		}
		m.ID = maxID + 1
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			return fmt.Errorf("insert medicine id=%d: %w", m.ID, err)
		}
		return nil
	})
	if err != nil {
		return Medicine{}, classify(err)
	}
	return m, nil
}

func (s *Store) List(ctx context.Context) ([]Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(ctx, s.db)
}

func (s *Store) list(ctx context.Context, db bun.IDB) ([]Medicine, error) {
	items := make([]Medicine, 0)
	if err := db.NewSelect().Model(&items).Order("id ASC").Scan(ctx); err != nil {
		return nil, classify(fmt.Errorf("list medicines: %w", err))
	}
	return items, nil
}

// GetByName returns the lowest-id record with the given name.
func (s *Store) GetByName(ctx context.Context, name string) (Medicine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Medicine{}, fmt.Errorf("%w: name is required", record.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var m Medicine
	err := s.db.NewSelect().
		Model(&m).
		Where("name = ?", name).
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return Medicine{}, notFoundOr(err, "name="+strconv.Quote(name))
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, s.db, id)
}

func (s *Store) get(ctx context.Context, db bun.IDB, id int64) (Medicine, error) {
	var m Medicine
	if err := db.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return Medicine{}, notFoundOr(err, "id="+strconv.FormatInt(id, 10))
	}
	return m, nil
}

// Delete removes the record and renumbers the survivors to 1..N in one
// transaction. A failure anywhere in the pass rolls the whole pass back.
func (s *Store) Delete(ctx context.Context, id int64) ([]Medicine, error) {
	s.mu.Lock()
	var (
		remaining []Medicine
		moved     int
	)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.lockTable(ctx, tx); err != nil {
			return err
		}
		if _, err := s.get(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*Medicine)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete medicine id=%d: %w", id, err)
		}

		items, err := s.list(ctx, tx)
		if err != nil {
			return err
		}
		moved, err = resequence(ctx, tx, items)
		if err != nil {
			return err
		}
		remaining = items
		return nil
	})
	s.mu.Unlock()

	if err != nil {
		return nil, classify(err)
	}
	metrics.Resequenced.Add(float64(moved))
	log.Debug().Int64("id", id).Int("moved", moved).Int("remaining", len(remaining)).Msg("medicine deleted")
	s.notify(ctx, record.OpDelete, id)
	return remaining, nil
}

// resequence assigns id i+1 to items[i]. Items must be sorted by ascending id;
// walking upward guarantees the target id is never held by another row.
func resequence(ctx context.Context, tx bun.Tx, items []Medicine) (int, error) {
	moved := 0
	for i := range items {
		want := int64(i + 1)
		if items[i].ID == want {
			continue
		}
		if _, err := tx.NewUpdate().
			Model((*Medicine)(nil)).
			Set("id = ?", want).
			Where("id = ?", items[i].ID).
			Exec(ctx); err != nil {
			return moved, fmt.Errorf("resequence id=%d->%d: %w", items[i].ID, want, err)
		}
		items[i].ID = want
		moved++
	}
	return moved, nil
}

func (s *Store) Update(ctx context.Context, id int64, patch Patch) (Medicine, error) {
	if err := patch.validate(); err != nil {
		return Medicine{}, err
	}

	s.mu.Lock()
	var updated Medicine
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.lockTable(ctx, tx); err != nil {
			return err
		}
		m, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		cols := patch.apply(&m)
		if _, err := tx.NewUpdate().Model(&m).Column(cols...).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update medicine id=%d: %w", id, err)
		}
		updated = m
		return nil
	})
	s.mu.Unlock()

	if err != nil {
		return Medicine{}, classify(err)
	}
	s.notify(ctx, record.OpUpdate, id)
	return updated, nil
}

// lockTable serializes writers across processes on Postgres. SQLite already
// takes a database-wide write lock per transaction.
func (s *Store) lockTable(ctx context.Context, tx bun.Tx) error {
	if s.db.Dialect().Name() != dialect.PG {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "LOCK TABLE medicines IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("lock medicines: %w", err)
	}
	return nil
}

func (s *Store) notify(ctx context.Context, op record.Op, id int64) {
	change := record.Change{
		Collection: Collection,
		Op:         op,
		Key:        strconv.FormatInt(id, 10),
		At:         s.now().UTC(),
	}
	if err := s.notifier.Notify(ctx, change); err != nil {
		log.Warn().Err(err).Str("collection", Collection).Str("op", string(op)).Msg("change notification failed")
	}
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("medicine %w (%s)", record.ErrNotFound, what)
	}
	return classify(err)
}

// classify maps driver failures onto record error kinds.
func classify(err error) error {
	if err == nil || record.IsKnown(err) {
		return err
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		code := pgErr.Field('C')
		switch {
		case code == "23505":
			return fmt.Errorf("%w: %v", record.ErrConflict, err)
		case strings.HasPrefix(code, "08"), code == "57P01", code == "57P03":
			return fmt.Errorf("%w: %v", record.ErrConnectivity, err)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %v", record.ErrConflict, err)
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
			return fmt.Errorf("%w: %v", record.ErrConnectivity, err)
		}
		return err
	}

	if errors.Is(err, sql.ErrConnDone) || record.IsConnectivity(err) {
		return fmt.Errorf("%w: %v", record.ErrConnectivity, err)
	}
	return err
}
