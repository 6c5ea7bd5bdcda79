package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/grafana/dskit/modules"
	"github.com/grafana/dskit/services"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the recording module: one dskit service driving an
// independent session per configured stream.
type Recorder struct {
	services.Service
	cfg     *Config
	logger  *slog.Logger
	metrics *metrics
}

var module = "recorder"

// New creates and returns a new Recorder.
func New(cfg Config, logger slog.Logger, reg prometheus.Registerer) (*Recorder, error) {
	if cfg.WriteBufferSize == 0 {
		cfg.WriteBufferSize = defaultWriteBufferSize
	}
	if cfg.QueueDepth == 0 {
		cfg.QueueDepth = defaultQueueDepth
	}
	if cfg.ReconnectBackoff == 0 {
		cfg.ReconnectBackoff = defaultReconnectInitial
	}
	if cfg.ReconnectBackoffMax == 0 {
		cfg.ReconnectBackoffMax = defaultReconnectMax
	}

	r := &Recorder{
		cfg:     &cfg,
		logger:  logger.With("module", module),
		metrics: newMetrics(reg),
	}

	r.Service = services.NewBasicService(r.starting, r.running, r.stopping)

	return r, nil
}

func (r *Recorder) starting(_ context.Context) error {
	if err := r.cfg.Validate(); err != nil {
		r.logger.Error("invalid configuration", "err", err)
		return err
	}
	return nil
}

// running records every configured stream concurrently and returns once all
// sessions reach a terminal state. A failing session never interrupts its
// siblings; their errors are joined into the aggregate result.
func (r *Recorder) running(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mtx  sync.Mutex
		errs []error
	)

	for _, sc := range r.cfg.Streams {
		sess := newSession(r.cfg, sc, r.logger, r.metrics)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sess.run(ctx); err != nil {
				mtx.Lock()
				errs = append(errs, err)
				mtx.Unlock()
			}
		}()
	}
	wg.Wait()

	completed := len(r.cfg.Streams) - len(errs)
	r.logger.Info("all sessions finished", "completed", completed, "aborted", len(errs))

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if ctx.Err() != nil {
		return nil
	}
	// Every session finished on its own (duration expiry or stream end);
	// ask the process to shut down instead of idling.
	return modules.ErrStopProcess
}

func (r *Recorder) stopping(_ error) error {
	r.logger.Info("stopping")
	return nil
}
