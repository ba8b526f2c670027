package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reel/internal/document"
	"reel/internal/logging"
	"reel/internal/pipeline"
	"reel/internal/services"
	"reel/internal/session"
	"reel/internal/stage"
	"reel/internal/testsupport"
	"reel/internal/update"
)

type generatorFunc struct {
	name string
	fn   func(ctx context.Context, snapshot document.Document, inputs stage.Inputs) (update.Envelope, error)
}

func (g generatorFunc) Name() string { return g.name }

func (g generatorFunc) Generate(ctx context.Context, snapshot document.Document, inputs stage.Inputs) (update.Envelope, error) {
	return g.fn(ctx, snapshot, inputs)
}

func appendGenerator(t *testing.T, name, speech string) stage.Generator {
	t.Helper()
	return generatorFunc{name: name, fn: func(context.Context, document.Document, stage.Inputs) (update.Envelope, error) {
		mutation, err := update.NewAppendScene(document.Scene{Speech: speech})
		if err != nil {
			t.Fatalf("mutation: %v", err)
		}
		return update.NewEnvelope(mutation)
	}}
}

func mustPipeline(t *testing.T, id string, generators ...stage.Generator) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(id, logging.NewNop(), stage.NewMergeApplier(), generators...)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}

func TestOpenGeneratesIdentifier(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sess, err := session.Open(cfg, logging.NewNop(), "")
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	defer sess.Close()

	if sess.ID() == "" {
		t.Fatal("expected generated session id")
	}
	if doc := sess.Document(); len(doc.Scenes) != 0 {
		t.Fatalf("expected empty document, got %d scenes", len(doc.Scenes))
	}
}

func TestOpenRejectsConcurrentUse(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sess, err := session.Open(cfg, logging.NewNop(), "sess-1")
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	defer sess.Close()

	if _, err := session.Open(cfg, logging.NewNop(), "sess-1"); err == nil {
		t.Fatal("expected second open of the same session to fail")
	}
}

func TestRunPersistsRevision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sess, err := session.Open(cfg, logging.NewNop(), "sess-1")
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	defer sess.Close()

	if err := sess.Register(mustPipeline(t, "script", appendGenerator(t, "writer", "hello"))); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := sess.Run(context.Background(), "script", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Phase != pipeline.PhaseComplete {
		t.Fatalf("unexpected phase: %s", result.Phase)
	}

	revisions, err := sess.Revisions(context.Background())
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revisions) != 1 {
		t.Fatalf("expected 1 revision, got %d", len(revisions))
	}
	if revisions[0].Pipeline != "script" {
		t.Fatalf("unexpected revision pipeline: %q", revisions[0].Pipeline)
	}
}

func TestReopenRestoresLatestRevision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sess, err := session.Open(cfg, logging.NewNop(), "sess-1")
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	if err := sess.Register(mustPipeline(t, "script", appendGenerator(t, "writer", "persisted"))); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := sess.Run(context.Background(), "script", nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	restored, err := session.Open(cfg, logging.NewNop(), "sess-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer restored.Close()

	doc := restored.Document()
	if len(doc.Scenes) != 1 {
		t.Fatalf("expected restored scene, got %d scenes", len(doc.Scenes))
	}
	if doc.Scenes[0].Speech != "persisted" {
		t.Fatalf("unexpected restored speech: %q", doc.Scenes[0].Speech)
	}
}

func TestRunUnknownPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sess, err := session.Open(cfg, logging.NewNop(), "sess-1")
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	defer sess.Close()

	if _, err := sess.Run(context.Background(), "missing", nil); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRunRejectsOverlappingRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sess, err := session.Open(cfg, logging.NewNop(), "sess-1")
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	defer sess.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	blocking := generatorFunc{name: "blocking", fn: func(ctx context.Context, _ document.Document, _ stage.Inputs) (update.Envelope, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return update.Envelope{}, ctx.Err()
		}
		mutation, err := update.NewAppendScene(document.Scene{Speech: "slow"})
		if err != nil {
			return update.Envelope{}, err
		}
		return update.NewEnvelope(mutation)
	}}
	if err := sess.Register(mustPipeline(t, "slow", blocking)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := sess.Register(mustPipeline(t, "other", appendGenerator(t, "writer", "other"))); err != nil {
		t.Fatalf("register: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := sess.Run(context.Background(), "slow", nil)
		done <- err
	}()

	<-started
	if _, err := sess.Run(context.Background(), "other", nil); !errors.Is(err, session.ErrBusy) {
		t.Fatalf("expected busy rejection, got %v", err)
	}
	if id, running := sess.Active(); !running || id != "slow" {
		t.Fatalf("expected slow pipeline active, got %q running=%v", id, running)
	}

	close(release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("blocking run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("blocking run never finished")
	}

	if _, err := sess.Run(context.Background(), "other", nil); err != nil {
		t.Fatalf("run after release: %v", err)
	}
}

func TestFailedRunPersistsNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sess, err := session.Open(cfg, logging.NewNop(), "sess-1")
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	defer sess.Close()

	failing := generatorFunc{name: "failing", fn: func(context.Context, document.Document, stage.Inputs) (update.Envelope, error) {
		return update.Envelope{}, errors.New("backend down")
	}}
	if err := sess.Register(mustPipeline(t, "script", failing)); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := sess.Run(context.Background(), "script", nil); err == nil {
		t.Fatal("expected run to fail")
	}
	revisions, err := sess.Revisions(context.Background())
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revisions) != 0 {
		t.Fatalf("expected no revisions, got %d", len(revisions))
	}
}

func TestRegisterDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sess, err := session.Open(cfg, logging.NewNop(), "sess-1")
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	defer sess.Close()

	p := mustPipeline(t, "script", appendGenerator(t, "writer", "x"))
	if err := sess.Register(p); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := sess.Register(p); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if got := sess.Pipelines(); len(got) != 1 || got[0] != "script" {
		t.Fatalf("unexpected pipeline list: %v", got)
	}
}
