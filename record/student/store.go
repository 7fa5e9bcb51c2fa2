package student

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/record-agent/record"
)

// Store addresses students by name. Names are not unique: a name resolves
// through the collection's name index to the earliest-created student with
// that name, and the operation is then applied to that id. Mutations hold
// the store lock so the resolve and the write cannot interleave with another
// writer in this process.
type Store struct {
	coll     Collection
	mu       sync.RWMutex
	notifier record.Notifier
	now      func() time.Time
}

type Option func(*Store)

func WithNotifier(n record.Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

func NewStore(coll Collection, opts ...Option) (*Store, error) {
	if coll == nil {
		return nil, errors.New("student store requires a collection")
	}
	s := &Store{
		coll:     coll,
		notifier: record.NoopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Store) Create(ctx context.Context, name string, age int, grade string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", record.ErrInvalidInput)
	}
	if age < 0 {
		return "", fmt.Errorf("%w: age must be >= 0", record.ErrInvalidInput)
	}

	s.mu.Lock()
	id, err := s.coll.Insert(ctx, Student{Name: name, Age: age, Grade: strings.TrimSpace(grade)})
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("insert student: %w", err)
	}

	s.notify(ctx, record.OpCreate, id)
	return id, nil
}

func (s *Store) List(ctx context.Context) ([]Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := s.coll.Find(ctx, Filter{}, 0)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	if items == nil {
		items = []Student{}
	}
	return items, nil
}

func (s *Store) GetByName(ctx context.Context, name string) (Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(ctx, name)
}

func (s *Store) Update(ctx context.Context, name string, patch Patch) error {
	fields, err := patch.fields()
	if err != nil {
		return err
	}

	s.mu.Lock()
	st, err := s.resolve(ctx, name)
	if err == nil {
		var matched int64
		matched, err = s.coll.UpdateOne(ctx, Filter{ID: st.ID}, fields)
		if err == nil && matched == 0 {
			err = fmt.Errorf("student %w", record.ErrNotFound)
		}
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(ctx, record.OpUpdate, st.ID)
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	st, err := s.resolve(ctx, name)
	if err == nil {
		var deleted int64
		deleted, err = s.coll.DeleteOne(ctx, Filter{ID: st.ID})
		if err == nil && deleted == 0 {
			err = fmt.Errorf("student %w", record.ErrNotFound)
		}
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(ctx, record.OpDelete, st.ID)
	return nil
}

func (s *Store) resolve(ctx context.Context, name string) (Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Student{}, fmt.Errorf("%w: name is required", record.ErrInvalidInput)
	}
	matches, err := s.coll.Find(ctx, Filter{Name: name}, 1)
	if err != nil {
		return Student{}, fmt.Errorf("find student: %w", err)
	}
	if len(matches) == 0 {
		return Student{}, fmt.Errorf("student %w", record.ErrNotFound)
	}
	return matches[0], nil
}

func (s *Store) notify(ctx context.Context, op record.Op, id string) {
	change := record.Change{Collection: CollectionName, Op: op, Key: id, At: s.now().UTC()}
	if err := s.notifier.Notify(ctx, change); err != nil {
		log.Warn().Err(err).Str("collection", CollectionName).Str("op", string(op)).Msg("change notification failed")
	}
}
