package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	dispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mycelium",
		Subsystem: "webhook",
		Name:      "dispatch_total",
		Help:      "Webhook delivery attempts by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	batchSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mycelium",
		Subsystem: "webhook",
		Name:      "last_batch_size",
		Help:      "Number of outbox artifacts pulled in the most recent poll.",
	})
)

// MustRegister registers the package's metrics with reg. Call once at
// process startup; a nil reg is a no-op for use in tests.
func MustRegister(reg *prometheus.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(dispatchTotal, batchSize)
}

// Config bounds the worker loop (spec §4.8 step 1/step 5). Outbound
// pacing is configured on the Dispatcher, not here (see dispatcher.go).
type Config struct {
	PollInterval  time.Duration
	BatchSize     int
	MaxAttempts   uint8
	MaxConcurrent int // per-batch fan-out concurrency
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	return c
}

// Worker polls the outbox, dispatches each artifact to every active
// webhook registered for its trigger, and writes the rolled-up result
// back. Grounded on internal/mailer/queue.go's poll-dispatch-persist
// shape, generalized to a multi-target fan-out per artifact.
type Worker struct {
	outbox     ports.WebHookOutbox
	hooks      ports.WebHookFetching
	dispatcher *Dispatcher
	cfg        Config
}

func NewWorker(outbox ports.WebHookOutbox, hooks ports.WebHookFetching, dispatcher *Dispatcher, cfg Config) *Worker {
	cfg = cfg.withDefaults()
	return &Worker{
		outbox:     outbox,
		hooks:      hooks,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// Run blocks, polling until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				return
			}
		}
	}
}

// RunOnce fetches and dispatches a single batch. Exposed for tests and
// for manual/cron-triggered invocations outside the ticker loop.
func (w *Worker) RunOnce(ctx context.Context) error {
	batch, mErr := w.outbox.FetchBatch(ctx, w.cfg.MaxAttempts, w.cfg.BatchSize)
	if mErr != nil {
		return mErr
	}
	batchSize.Set(float64(len(batch.Records)))

	var wg sync.WaitGroup
	sem := make(chan struct{}, w.cfg.MaxConcurrent)

	for _, artifact := range batch.Records {
		wg.Add(1)
		sem <- struct{}{}
		go func(artifact domain.WebHookPayloadArtifact) {
			defer wg.Done()
			defer func() { <-sem }()
			w.dispatchArtifact(ctx, artifact)
		}(artifact)
	}
	wg.Wait()
	return nil
}

func (w *Worker) dispatchArtifact(ctx context.Context, artifact domain.WebHookPayloadArtifact) {
	hooksResult, mErr := w.hooks.ListByTrigger(ctx, artifact.Trigger)
	if mErr != nil {
		w.persistFailure(ctx, artifact)
		return
	}

	var targets []Target
	for _, hook := range hooksResult.Records {
		if !hook.IsActive {
			continue
		}
		secret, err := w.dispatcher.DecryptSecret(hook)
		if err != nil {
			continue
		}
		targets = append(targets, Target{Hook: hook, Secret: secret})
	}

	if len(targets) == 0 {
		artifact.Status = domain.ArtifactUnknown
		w.persist(ctx, artifact)
		return
	}

	// Each fan-out call gets its own timeout detached from the polling
	// loop's ctx (spec §4.8 "Cancellation & timeouts": the webhook loop
	// ignores cancellation of individual calls, every result is recorded).
	responses := make([]domain.HookResponse, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			responses[i] = w.dispatcher.DispatchOne(callCtx, target, artifact)
		}(i, target)
	}
	wg.Wait()

	artifact.Propagations = append(artifact.Propagations, responses...)
	artifact.Attempts++
	now := time.Now()
	artifact.Attempted = &now
	artifact.Status = rollupStatus(responses)

	for _, r := range responses {
		outcome := "failure"
		if r.Status >= 200 && r.Status < 300 {
			outcome = "success"
		}
		dispatchTotal.WithLabelValues(string(artifact.Trigger), outcome).Inc()
	}

	w.persist(ctx, artifact)
}

// rollupStatus derives the artifact-level status from the per-target
// responses (spec §4.8 step 5: Success if all responses are 2xx, Failed
// otherwise). A Failed artifact is still picked up by the next
// FetchBatch as long as attempts < max_attempts; MaxAttemptsReached is
// only consulted by the outbox port's query, not here.
func rollupStatus(responses []domain.HookResponse) domain.ArtifactStatus {
	for _, r := range responses {
		if r.Status < 200 || r.Status >= 300 {
			return domain.ArtifactFailed
		}
	}
	return domain.ArtifactSuccess
}

func (w *Worker) persist(ctx context.Context, artifact domain.WebHookPayloadArtifact) {
	_, _ = w.outbox.UpdateAfterDispatch(ctx, artifact)
}

func (w *Worker) persistFailure(ctx context.Context, artifact domain.WebHookPayloadArtifact) {
	artifact.Attempts++
	if artifact.MaxAttemptsReached(w.cfg.MaxAttempts) {
		artifact.Status = domain.ArtifactFailed
	}
	w.persist(ctx, artifact)
}
