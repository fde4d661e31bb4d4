package bundle

import (
	"context"
	"sync"

	"profiling-bundler/core/models"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StateUpdate is one lifecycle message of a run
type StateUpdate struct {
	JobID    string
	Status   models.JobStatus
	Progress int
	Log      string
}

// Notifier receives the lifecycle of a run. Close is called once the run reaches a terminal state.
type Notifier interface {
	Notify(update StateUpdate) error
	Close()
}

// ChannelNotifier publishes updates on a channel that is closed when the run ends
type ChannelNotifier struct {
	updates chan StateUpdate
	once    sync.Once
}

// NewChannelNotifier creates a notifier with the given channel buffer
func NewChannelNotifier(buffer int) *ChannelNotifier {
	return &ChannelNotifier{updates: make(chan StateUpdate, buffer)}
}

// Updates returns the receive side of the channel
func (n *ChannelNotifier) Updates() <-chan StateUpdate {
	return n.updates
}

// Notify implements Notifier; it blocks while the buffer is full
func (n *ChannelNotifier) Notify(update StateUpdate) error {
	n.updates <- update
	return nil
}

// Close implements Notifier
func (n *ChannelNotifier) Close() {
	n.once.Do(func() { close(n.updates) })
}

// LogNotifier writes updates to a zerolog logger
type LogNotifier struct {
	Logger *zerolog.Logger
}

// Notify implements Notifier
func (n LogNotifier) Notify(update StateUpdate) error {
	logger := n.Logger
	if logger == nil {
		logger = &log.Logger
	}

	event := logger.Info()
	if update.Status == models.JobStatusFailed {
		event = logger.Error()
	} else if update.Status == models.JobStatusRunning && update.Progress > 0 {
		event = logger.Debug()
	}
	event.
		Str("job_id", update.JobID).
		Str("status", string(update.Status)).
		Int("progress", update.Progress).
		Msg(update.Log)
	return nil
}

// Close implements Notifier
func (LogNotifier) Close() {}

// StatusStore persists job status changes
type StatusStore interface {
	UpdateJobStatus(ctx context.Context, jobID string, from, to models.JobStatus, progress int, reason string, meta map[string]interface{}) error
}

// StoreNotifier records every update through a StatusStore
type StoreNotifier struct {
	ctx   context.Context
	store StatusStore
	last  models.JobStatus
}

// NewStoreNotifier creates a notifier for a job currently in status from
func NewStoreNotifier(ctx context.Context, store StatusStore, from models.JobStatus) *StoreNotifier {
	return &StoreNotifier{ctx: ctx, store: store, last: from}
}

// Notify implements Notifier
func (n *StoreNotifier) Notify(update StateUpdate) error {
	if err := n.store.UpdateJobStatus(n.ctx, update.JobID, n.last, update.Status, update.Progress, update.Log, nil); err != nil {
		return err
	}
	n.last = update.Status
	return nil
}

// Last returns the status the store last accepted
func (n *StoreNotifier) Last() models.JobStatus {
	return n.last
}

// Close implements Notifier
func (n *StoreNotifier) Close() {}

// MultiNotifier fans updates out to several notifiers; the first error wins
type MultiNotifier []Notifier

// Notify implements Notifier
func (m MultiNotifier) Notify(update StateUpdate) error {
	var first error
	for _, n := range m {
		if err := n.Notify(update); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close implements Notifier
func (m MultiNotifier) Close() {
	for _, n := range m {
		n.Close()
	}
}
