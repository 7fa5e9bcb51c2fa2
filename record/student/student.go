package student

import (
	"context"
	"fmt"
	"strings"

	"github.com/tanpawarit/record-agent/record"
)

const CollectionName = "students"

type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Grade string `json:"grade"`
}

// Filter selects students by id or by name. Empty fields match everything.
type Filter struct {
	ID   string
	Name string
}

// Fields is the set of columns an update writes, keyed by stored field name.
type Fields map[string]any

// Collection is the persistence collaborator behind Store. Find returns
// matches in creation order; implementations must report transport failures
// wrapped in record.ErrConnectivity so callers can tell them from a miss.
type Collection interface {
	Find(ctx context.Context, filter Filter, limit int) ([]Student, error)
	Insert(ctx context.Context, s Student) (string, error)
	UpdateOne(ctx context.Context, filter Filter, fields Fields) (int64, error)
	DeleteOne(ctx context.Context, filter Filter) (int64, error)
}

// Patch lists the optional fields of an update.
type Patch struct {
	Age   *int    `json:"age,omitempty"`
	Grade *string `json:"grade,omitempty"`
}

func (p Patch) fields() (Fields, error) {
	fields := Fields{}
	if p.Age != nil {
		if *p.Age < 0 {
			return nil, fmt.Errorf("%w: age must be >= 0", record.ErrInvalidInput)
		}
		fields["age"] = *p.Age
	}
	if p.Grade != nil {
		fields["grade"] = strings.TrimSpace(*p.Grade)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", record.ErrInvalidInput)
	}
	return fields, nil
}

const (
	MsgListed  = "All students data fetched successfully"
	MsgFetched = "Student data fetched successfully"
	MsgCreated = "Student added successfully"
	MsgUpdated = "Student updated successfully"
	MsgDeleted = "Student deleted successfully"
)
