// internal/app/system/saga/saga.go
package saga

import (
	"context"
	"time"

	"github.com/dalemusser/consultancy/internal/app/system/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// compensationTimeout bounds each undo step. Undo runs on a context that is
// detached from the caller, so a cancelled request still cleans up.
const compensationTimeout = 15 * time.Second

type step struct {
	desc string
	undo func(context.Context) error
}

// Saga sequences writes across MongoDB and the file store, which share no
// transaction. Each successful step registers an undo; Fail runs them in
// reverse order.
//
//	sg := saga.New("gallery.upload", h.Log)
//	if err := h.Files.Put(ctx, key, file, &storage.PutOptions{ContentType: ct}); err != nil { ... }
//	sg.Compensate("delete image "+key, func(ctx context.Context) error { return h.Files.Delete(ctx, key) })
//	if _, err := h.Store.Create(ctx, img); err != nil {
//	    return sg.Fail(ctx, err)
//	}
type Saga struct {
	name  string
	log   *zap.Logger
	steps []step
}

// New starts a saga. name labels logs and metrics.
func New(name string, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{name: name, log: logger}
}

// Compensate registers undo for the step that just succeeded.
func (s *Saga) Compensate(desc string, undo func(context.Context) error) {
	s.steps = append(s.steps, step{desc: desc, undo: undo})
}

// Len reports how many compensations are registered.
func (s *Saga) Len() int {
	return len(s.steps)
}

// Fail runs every registered compensation in reverse and returns cause
// combined with any compensation errors. A failed compensation is logged
// as an irreconcilable state and counted; the remaining ones still run.
func (s *Saga) Fail(ctx context.Context, cause error) error {
	err := cause
	base := context.WithoutCancel(ctx)
	for i := len(s.steps) - 1; i >= 0; i-- {
		st := s.steps[i]
		cctx, cancel := context.WithTimeout(base, compensationTimeout)
		cerr := st.undo(cctx)
		cancel()
		if cerr != nil {
			metrics.SagaCompensationFailures.WithLabelValues(s.name).Inc()
			s.log.Error("saga compensation failed; manual cleanup needed",
				zap.String("saga", s.name),
				zap.String("step", st.desc),
				zap.NamedError("cause", cause),
				zap.Error(cerr))
			err = multierr.Append(err, cerr)
			continue
		}
		s.log.Info("saga step compensated",
			zap.String("saga", s.name),
			zap.String("step", st.desc))
	}
	s.steps = nil
	return err
}
