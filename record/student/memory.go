package student

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryCollection keeps students in creation order with a name -> ids
// secondary index. It backs local development and tests.
type MemoryCollection struct {
	mu     sync.RWMutex
	order  []string
	byID   map[string]Student
	byName map[string][]string
}

var _ Collection = (*MemoryCollection)(nil)

func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{
		byID:   make(map[string]Student),
		byName: make(map[string][]string),
	}
}

func (c *MemoryCollection) Find(_ context.Context, filter Filter, limit int) ([]Student, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []string
	switch {
	case filter.ID != "":
		if _, ok := c.byID[filter.ID]; ok {
			ids = []string{filter.ID}
		}
	case filter.Name != "":
		ids = c.byName[filter.Name]
	default:
		ids = c.order
	}

	out := make([]Student, 0, len(ids))
	for _, id := range ids {
		st, ok := c.byID[id]
		if !ok {
			continue
		}
		if filter.Name != "" && st.Name != filter.Name {
			continue
		}
		out = append(out, st)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *MemoryCollection) Insert(_ context.Context, s Student) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s.ID = id.String()
	c.byID[s.ID] = s
	c.order = append(c.order, s.ID)
	c.byName[s.Name] = append(c.byName[s.Name], s.ID)
	return s.ID, nil
}

func (c *MemoryCollection) UpdateOne(_ context.Context, filter Filter, fields Fields) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.first(filter)
	if !ok {
		return 0, nil
	}
	st := c.byID[id]
	if v, ok := fields["age"].(int); ok {
		st.Age = v
	}
	if v, ok := fields["grade"].(string); ok {
		st.Grade = v
	}
	c.byID[id] = st
	return 1, nil
}

func (c *MemoryCollection) DeleteOne(_ context.Context, filter Filter) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.first(filter)
	if !ok {
		return 0, nil
	}
	st := c.byID[id]
	delete(c.byID, id)
	c.order = without(c.order, id)
	if rest := without(c.byName[st.Name], id); len(rest) > 0 {
		c.byName[st.Name] = rest
	} else {
		delete(c.byName, st.Name)
	}
	return 1, nil
}

func (c *MemoryCollection) first(filter Filter) (string, bool) {
	switch {
	case filter.ID != "":
		st, ok := c.byID[filter.ID]
		if !ok || (filter.Name != "" && st.Name != filter.Name) {
			return "", false
		}
		return filter.ID, true
	case filter.Name != "":
		ids := c.byName[filter.Name]
		if len(ids) == 0 {
			return "", false
		}
		return ids[0], true
	default:
		if len(c.order) == 0 {
			return "", false
		}
		return c.order[0], true
	}
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
