package audit

import (
	"context"
	"sync"
	"time"

	"family-registry-go/pkg/logger"
	"github.com/google/uuid"
)

// Recorder accepts activity entries without reporting failures to the caller.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Sink persists or forwards one entry.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
}

type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

const (
	defaultBuffer       = 256
	defaultWriteTimeout = 5 * time.Second
)

// AsyncRecorder hands entries to a background writer. A full buffer or a sink
// failure is logged and the entry dropped; the caller never sees either.
type AsyncRecorder struct {
	sink    Sink
	log     logger.Logger
	queue   chan Entry
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

func NewAsyncRecorder(sink Sink, log logger.Logger, buffer int) *AsyncRecorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	r := &AsyncRecorder{
		sink:    sink,
		log:     log,
		queue:   make(chan Entry, buffer),
		timeout: defaultWriteTimeout,
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *AsyncRecorder) Record(_ context.Context, entry Entry) {
	entry = prepare(entry)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.log.Warn("audit: recorder closed, entry dropped", "action", entry.Action, "performed_by", entry.PerformedBy)
		return
	}

	select {
	case r.queue <- entry:
	default:
		r.log.Warn("audit: buffer full, entry dropped", "action", entry.Action, "performed_by", entry.PerformedBy)
	}
}

// Close stops accepting entries and waits for the queued ones to be written.
func (r *AsyncRecorder) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
		r.wg.Wait()
	})
}

func (r *AsyncRecorder) run() {
	defer r.wg.Done()
	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.sink.Write(ctx, entry); err != nil {
			r.log.InternalError("audit: write failed", err, "action", entry.Action, "entry_id", entry.ID)
		}
		cancel()
	}
}

func prepare(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return entry
}

// LogSink writes entries to the structured log only.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Write(_ context.Context, entry Entry) error {
	args := []any{
		"entry_id", entry.ID,
		"action", entry.Action,
		"performed_by", entry.PerformedBy,
		"description", entry.Description,
	}
	if entry.TargetAccountID != nil {
		args = append(args, "target_account_id", *entry.TargetAccountID)
	}
	if entry.TargetMemberID != nil {
		args = append(args, "target_member_id", *entry.TargetMemberID)
	}
	s.log.Info("audit: activity", args...)
	return nil
}
