package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"reel/internal/document"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/stage"
	"reel/internal/update"
)

// Phase labels a pipeline's position in its run lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhaseApplying   Phase = "applying"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
)

// Result reports the outcome of one pipeline run.
type Result struct {
	Pipeline string
	Phase    Phase
	Document document.Document
	Err      error
	Duration time.Duration
}

// Failed reports whether the run ended in the failed phase.
func (r Result) Failed() bool { return r.Phase == PhaseFailed }

// Pipeline is a fixed ordered composition: one or more generators feeding a
// transient envelope slot, then exactly one applier.
type Pipeline struct {
	id         string
	generators []stage.Generator
	applier    stage.Applier
	logger     *slog.Logger

	mu    sync.Mutex
	phase Phase
}

// New constructs a pipeline. The generator order fixes the envelope merge
// order.
func New(id string, logger *slog.Logger, applier stage.Applier, generators ...stage.Generator) (*Pipeline, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("pipeline id must be set")
	}
	if applier == nil {
		return nil, fmt.Errorf("pipeline %s requires an applier", id)
	}
	if len(generators) == 0 {
		return nil, fmt.Errorf("pipeline %s requires at least one generator", id)
	}
	for i, gen := range generators {
		if gen == nil {
			return nil, fmt.Errorf("pipeline %s has a nil generator at position %d", id, i)
		}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		id:         id,
		generators: append([]stage.Generator(nil), generators...),
		applier:    applier,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		phase:      PhaseIdle,
	}, nil
}

// ID returns the pipeline identifier.
func (p *Pipeline) ID() string { return p.id }

// Phase returns the most recent lifecycle phase.
func (p *Pipeline) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

func (p *Pipeline) setPhase(phase Phase) {
	p.mu.Lock()
	p.phase = phase
	p.mu.Unlock()
}

// Health probes every generator that exposes a health check.
func (p *Pipeline) Health(ctx context.Context) []stage.Health {
	var out []stage.Health
	for _, gen := range p.generators {
		if checker, ok := gen.(stage.HealthChecker); ok {
			out = append(out, checker.HealthCheck(ctx))
		}
	}
	return out
}

// Run executes the pipeline against state: every generator runs against the
// same snapshot, envelopes are collected in declared generator order, and
// the applier merges them in one commit. The document is untouched unless
// the run completes.
func (p *Pipeline) Run(ctx context.Context, state *document.State, inputs stage.Inputs) Result {
	started := time.Now()
	ctx = services.WithPipeline(ctx, p.id)
	logger := logging.WithContext(ctx, p.logger)

	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.Int("generators", len(p.generators)),
	)

	p.setPhase(PhaseGenerating)
	snapshot := state.Snapshot()
	envelopes, err := p.generate(ctx, logger, snapshot, inputs)
	if err != nil {
		return p.fail(logger, started, err)
	}

	p.setPhase(PhaseApplying)
	next, err := state.Commit(func(doc document.Document) (document.Document, error) {
		return p.applier.Apply(envelopes, doc)
	})
	if err != nil {
		return p.fail(logger, started, err)
	}

	p.setPhase(PhaseComplete)
	duration := time.Since(started)
	logger.Info("pipeline completed",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.Int("scenes", len(next.Scenes)),
		logging.Duration("duration", duration),
	)
	return Result{Pipeline: p.id, Phase: PhaseComplete, Document: next, Duration: duration}
}

// generate runs every generator concurrently against the shared snapshot and
// returns the envelopes in declared generator order. The first failure
// cancels the remaining generators; their partial envelopes are dropped.
func (p *Pipeline) generate(ctx context.Context, logger *slog.Logger, snapshot document.Document, inputs stage.Inputs) ([]update.Envelope, error) {
	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	envelopes := make([]update.Envelope, len(p.generators))
	errs := make([]error, len(p.generators))

	var wg sync.WaitGroup
	wg.Add(len(p.generators))
	for i, gen := range p.generators {
		go func(i int, gen stage.Generator) {
			defer wg.Done()
			stageCtx := services.WithStage(genCtx, gen.Name())
			stageLogger := logging.WithContext(stageCtx, logger)
			stageLogger.Debug("generator started")

			envelope, err := gen.Generate(stageCtx, snapshot, inputs)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					err = markGeneration(gen.Name(), err)
				}
				errs[i] = err
				cancel()
				return
			}
			envelopes[i] = envelope
			stageLogger.Debug("generator finished", logging.Int("mutations", envelope.Len()))
		}(i, gen)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
	}
	// All real failures are reported above; a bare cancellation means the
	// caller gave up on the run.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return envelopes, nil
}

func (p *Pipeline) fail(logger *slog.Logger, started time.Time, err error) Result {
	p.setPhase(PhaseFailed)
	logger.Error("pipeline failed",
		logging.String(logging.FieldEventType, "pipeline_failure"),
		logging.Error(err),
	)
	return Result{Pipeline: p.id, Phase: PhaseFailed, Err: err, Duration: time.Since(started)}
}

// markGeneration tags err as a generation failure unless it already carries a
// classification marker.
func markGeneration(stageName string, err error) error {
	for _, marker := range []error{
		services.ErrGeneration, services.ErrValidation, services.ErrStorage,
		services.ErrNotFound, services.ErrSourceUnavailable, services.ErrConfiguration,
	} {
		if errors.Is(err, marker) {
			return err
		}
	}
	return services.Wrap(services.ErrGeneration, stageName, "generate", "", err)
}
