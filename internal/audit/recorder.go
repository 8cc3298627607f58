package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/metrics"
)

const writeTimeout = 2 * time.Second

// Recorder writes events to a sink on a best-effort basis: failures are
// logged and counted, never returned.
type Recorder struct {
	sink   Sink
	logger *zap.Logger
}

// NewRecorder wraps sink. A nil sink records into a fresh MemorySink.
func NewRecorder(sink Sink, logger *zap.Logger) *Recorder {
	if sink == nil {
		sink = NewMemorySink(DefaultMemoryCapacity)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{sink: sink, logger: logger}
}

// Sink returns the underlying sink.
func (r *Recorder) Sink() Sink { return r.sink }

// Record writes e. The caller's cancellation does not abort the write.
func (r *Recorder) Record(ctx context.Context, e Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := r.sink.Write(ctx, e); err != nil {
		metrics.AuditWrites.WithLabelValues(r.sink.Name(), "error").Inc()
		r.logger.Warn("Failed to record audit event",
			zap.String("sink", r.sink.Name()),
			zap.String("event_id", e.ID),
			zap.String("section_id", e.SectionID),
			zap.Error(err),
		)
		return
	}
	metrics.AuditWrites.WithLabelValues(r.sink.Name(), "ok").Inc()
}

// Recent returns recent events when the sink supports reading.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Event, bool, error) {
	reader, ok := r.sink.(Reader)
	if !ok {
		return nil, false, nil
	}
	events, err := reader.Recent(ctx, limit)
	return events, true, err
}
