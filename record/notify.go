package record

import (
	"context"
	"time"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes a committed mutation. Notifiers receive it after the
// store's critical section has been released.
type Change struct {
	Collection string    `json:"collection"`
	Op         Op        `json:"op"`
	Key        string    `json:"key"`
	At         time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, change Change) error
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, Change) error {
	return nil
}
