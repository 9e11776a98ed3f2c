package queue

import "context"

var _ SyncEventQueue = (*Noop)(nil)

// Noop drops all events. Used when no kafka brokers are configured.
type Noop struct {
}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) PublishSyncEvent(ctx context.Context, event *SyncEvent) error {
	return nil
}

func (n *Noop) Close() error {
	return nil
}
