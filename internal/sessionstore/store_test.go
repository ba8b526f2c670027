package sessionstore_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"reel/internal/document"
	"reel/internal/services"
	"reel/internal/sessionstore"
	"reel/internal/testsupport"
)

func TestSaveAndLoadLatestRoundTrips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessionStore(t, cfg, "sess-1")
	ctx := context.Background()

	ref := document.ArtifactRef{Name: "audio/scene-0", Version: 1, MimeType: "audio/mpeg"}
	doc := document.Document{
		Scenes: []document.Scene{
			{Index: 0, Comment: "intro", Speech: "welcome", DurationSeconds: 3.5, Audio: &ref},
		},
		References: map[string]document.ArtifactRef{"voiceover_audio": ref},
	}

	rev, err := store.SaveRevision(ctx, "audio", doc)
	if err != nil {
		t.Fatalf("save revision: %v", err)
	}
	if rev <= 0 {
		t.Fatalf("expected positive revision, got %d", rev)
	}

	loaded, gotRev, err := store.LoadLatest(ctx)
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if gotRev != rev {
		t.Fatalf("revision mismatch: %d vs %d", gotRev, rev)
	}
	if !reflect.DeepEqual(loaded, doc) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, doc)
	}
}

func TestLoadLatestEmptyHistoryReportsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessionStore(t, cfg, "sess-1")

	_, _, err := store.LoadLatest(context.Background())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRevisionsListInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessionStore(t, cfg, "sess-1")
	ctx := context.Background()

	pipelines := []string{"ground", "script", "audio"}
	for _, pipeline := range pipelines {
		if _, err := store.SaveRevision(ctx, pipeline, document.New()); err != nil {
			t.Fatalf("save %s: %v", pipeline, err)
		}
	}

	revs, err := store.Revisions(ctx)
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revs) != len(pipelines) {
		t.Fatalf("expected %d revisions, got %d", len(pipelines), len(revs))
	}
	for i, rev := range revs {
		if rev.Pipeline != pipelines[i] {
			t.Fatalf("position %d: got %q want %q", i, rev.Pipeline, pipelines[i])
		}
		if rev.CreatedAt.IsZero() {
			t.Fatalf("revision %d missing timestamp", rev.Revision)
		}
	}
}

func TestReopenRestoresLatestDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := sessionstore.Open(cfg, "sess-reopen")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	doc := document.Document{Scenes: []document.Scene{{Index: 0, Speech: "persisted"}}}
	if _, err := store.SaveRevision(ctx, "script", doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := sessionstore.Open(cfg, "sess-reopen")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	loaded, _, err := reopened.LoadLatest(ctx)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if loaded.Scenes[0].Speech != "persisted" {
		t.Fatalf("unexpected document: %+v", loaded)
	}
}
