package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"reel/internal/artifactstore"
	"reel/internal/config"
	"reel/internal/document"
	"reel/internal/logging"
	"reel/internal/pipeline"
	"reel/internal/services"
	"reel/internal/sessionstore"
	"reel/internal/stage"
)

// ErrBusy reports that a pipeline run was rejected because another run is
// already in flight for the session.
var ErrBusy = errors.New("another pipeline is already running")

// Session owns the live document for one piece of work plus the stores that
// back it. A session directory is locked on open to keep concurrent processes
// from sharing the same stores.
type Session struct {
	id     string
	cfg    *config.Config
	logger *slog.Logger

	state     *document.State
	artifacts *artifactstore.Store
	revisions *sessionstore.Store

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	pipelines map[string]*pipeline.Pipeline
	order     []string
	active    string
	closed    bool
}

// Open acquires the session directory and restores the latest persisted
// document revision, if any. An empty sessionID starts a fresh session with a
// generated identifier.
func Open(cfg *config.Config, logger *slog.Logger, sessionID string) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("session requires configuration")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	dir := cfg.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorage, "session", "open", "create session directory", err)
	}

	lockPath := filepath.Join(dir, "session.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "session", "open", "acquire session lock", err)
	}
	if !ok {
		return nil, fmt.Errorf("session %s is already in use", sessionID)
	}

	artifacts, err := artifactstore.Open(cfg, sessionID)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	revisions, err := sessionstore.Open(cfg, sessionID)
	if err != nil {
		artifacts.Close()
		_ = lock.Unlock()
		return nil, err
	}

	state := document.NewState()
	doc, revision, err := revisions.LoadLatest(context.Background())
	switch {
	case err == nil:
		state = document.NewStateFrom(doc)
	case errors.Is(err, services.ErrNotFound):
		// Fresh session, nothing persisted yet.
	default:
		revisions.Close()
		artifacts.Close()
		_ = lock.Unlock()
		return nil, err
	}

	sessionLogger := logging.NewComponentLogger(logger, "session").With(
		logging.String(logging.FieldSessionID, sessionID),
	)
	if revision > 0 {
		sessionLogger.Info("session restored",
			logging.Int64("revision", revision),
			logging.Int("scenes", len(doc.Scenes)),
		)
	}

	return &Session{
		id:        sessionID,
		cfg:       cfg,
		logger:    sessionLogger,
		state:     state,
		artifacts: artifacts,
		revisions: revisions,
		lockPath:  lockPath,
		lock:      lock,
		pipelines: make(map[string]*pipeline.Pipeline),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Dir returns the directory holding the session's stores and lock.
func (s *Session) Dir() string { return s.cfg.SessionDir(s.id) }

// Artifacts exposes the session's artifact store.
func (s *Session) Artifacts() *artifactstore.Store { return s.artifacts }

// Document returns an independent snapshot of the live document.
func (s *Session) Document() document.Document { return s.state.Snapshot() }

// Revisions lists the persisted document revisions, oldest first.
func (s *Session) Revisions(ctx context.Context) ([]sessionstore.Revision, error) {
	return s.revisions.Revisions(ctx)
}

// Register adds a pipeline to the session. Registering two pipelines under
// the same identifier is a programming error.
func (s *Session) Register(p *pipeline.Pipeline) error {
	if p == nil {
		return errors.New("cannot register nil pipeline")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pipelines[p.ID()]; exists {
		return fmt.Errorf("pipeline %q already registered", p.ID())
	}
	s.pipelines[p.ID()] = p
	s.order = append(s.order, p.ID())
	return nil
}

// Pipelines returns the registered pipeline identifiers in registration order.
func (s *Session) Pipelines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Pipeline looks up a registered pipeline by identifier.
func (s *Session) Pipeline(id string) (*pipeline.Pipeline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pipelines[id]
	return p, ok
}

// Run executes the named pipeline against the session document. Only one
// pipeline may run at a time; overlapping calls fail with ErrBusy without
// touching the document. A completed run is persisted as a new revision
// before Run returns.
func (s *Session) Run(ctx context.Context, pipelineID string, inputs stage.Inputs) (pipeline.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return pipeline.Result{}, errors.New("session is closed")
	}
	p, ok := s.pipelines[pipelineID]
	if !ok {
		s.mu.Unlock()
		return pipeline.Result{}, services.Wrap(services.ErrNotFound, "session", "run",
			fmt.Sprintf("pipeline %q is not registered", pipelineID), nil)
	}
	if s.active != "" {
		active := s.active
		s.mu.Unlock()
		return pipeline.Result{}, fmt.Errorf("%w: %s", ErrBusy, active)
	}
	s.active = pipelineID
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active = ""
		s.mu.Unlock()
	}()

	ctx = services.WithSessionID(ctx, s.id)
	result := p.Run(ctx, s.state, inputs)
	if result.Failed() {
		return result, result.Err
	}

	revision, err := s.revisions.SaveRevision(ctx, pipelineID, result.Document)
	if err != nil {
		// The in-memory document already advanced; surface the persistence
		// failure so the caller knows the revision is not durable.
		return result, err
	}
	s.logger.Info("revision persisted",
		logging.String(logging.FieldPipeline, pipelineID),
		logging.Int64("revision", revision),
	)
	return result, nil
}

// Active returns the identifier of the pipeline currently running, if any.
func (s *Session) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

// Health aggregates health reports from every registered pipeline, sorted by
// stage name for stable output.
func (s *Session) Health(ctx context.Context) []stage.Health {
	s.mu.Lock()
	pipelines := make([]*pipeline.Pipeline, 0, len(s.order))
	for _, id := range s.order {
		pipelines = append(pipelines, s.pipelines[id])
	}
	s.mu.Unlock()

	var out []stage.Health
	for _, p := range pipelines {
		out = append(out, p.Health(ctx)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close releases the session stores and lock. Close is not safe to call
// while a pipeline run is in flight.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	if err := s.revisions.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.artifacts.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.lock.Unlock(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
