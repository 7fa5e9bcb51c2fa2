package qstash

import (
	"context"
	"fmt"
	"strings"

	"github.com/tanpawarit/record-agent/record"
)

// ChangeNotifier publishes committed record mutations to a fixed destination.
type ChangeNotifier struct {
	client      *Client
	destination string
}

var _ record.Notifier = (*ChangeNotifier)(nil)

func NewChangeNotifier(client *Client, destination string) *ChangeNotifier {
	return &ChangeNotifier{client: client, destination: strings.TrimSpace(destination)}
}

func (n *ChangeNotifier) Notify(ctx context.Context, change record.Change) error {
	dedupID := fmt.Sprintf("%s-%s-%s-%d", change.Collection, change.Op, change.Key, change.At.UnixNano())
	_, err := n.client.Publish(ctx, n.destination, change, dedupID)
	return err
}
