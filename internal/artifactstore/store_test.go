package artifactstore_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"reel/internal/artifactstore"
	"reel/internal/document"
	"reel/internal/services"
	"reel/internal/testsupport"
)

func TestSaveAllocatesNewVersions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "sess-1")
	ctx := context.Background()

	first, err := store.Save(ctx, "audio", []byte("blob-one"), "audio/mpeg")
	if err != nil {
		t.Fatalf("save b1: %v", err)
	}
	second, err := store.Save(ctx, "audio", []byte("blob-two"), "audio/mpeg")
	if err != nil {
		t.Fatalf("save b2: %v", err)
	}
	if first.Version == second.Version {
		t.Fatalf("expected distinct versions, got %d and %d", first.Version, second.Version)
	}

	loaded, err := store.Load(ctx, first)
	if err != nil {
		t.Fatalf("load v1: %v", err)
	}
	if !bytes.Equal(loaded, []byte("blob-one")) {
		t.Fatalf("v1 bytes changed after later save: %q", loaded)
	}
}

func TestLoadMissingReportsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "sess-1")

	_, err := store.Load(context.Background(), document.ArtifactRef{Name: "ghost", Version: 1})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if errors.Is(err, services.ErrStorage) {
		t.Fatal("not-found must be distinct from storage errors")
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "sess-1")
	ctx := context.Background()

	names := []string{"grounding/deck.pdf", "audio/scene-0", "audio/scene-1"}
	for _, name := range names {
		if _, err := store.Save(ctx, name, []byte(name), "application/octet-stream"); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	refs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(refs) != len(names) {
		t.Fatalf("expected %d refs, got %d", len(names), len(refs))
	}
	for i, ref := range refs {
		if ref.Name != names[i] {
			t.Fatalf("position %d: got %q want %q", i, ref.Name, names[i])
		}
	}
}

func TestSaveRejectsEmptyName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "sess-1")

	_, err := store.Save(context.Background(), "", []byte("x"), "text/plain")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConcurrentSavesUnderOneName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "sess-1")
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	wg.Add(writers)
	refs := make([]document.ArtifactRef, writers)
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			refs[i], errs[i] = store.Save(ctx, "audio", []byte{byte(i)}, "audio/mpeg")
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]struct{}, writers)
	for i := 0; i < writers; i++ {
		if errs[i] != nil {
			t.Fatalf("writer %d: %v", i, errs[i])
		}
		if _, dup := seen[refs[i].Version]; dup {
			t.Fatalf("duplicate version %d", refs[i].Version)
		}
		seen[refs[i].Version] = struct{}{}
	}
}

func TestReopenPreservesArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := artifactstore.Open(cfg, "sess-reopen")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ref, err := store.Save(ctx, "final_export", []byte(`{"scenes":[]}`), "application/json")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := artifactstore.Open(cfg, "sess-reopen")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	payload, err := reopened.Load(ctx, ref)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if string(payload) != `{"scenes":[]}` {
		t.Fatalf("unexpected payload: %q", payload)
	}
}
