package grounding_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reel/internal/document"
	"reel/internal/grounding"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/sources"
	"reel/internal/stage"
	"reel/internal/testsupport"
	"reel/internal/update"
)

func TestGenerateStoresMaterialAndReferences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("# Lesson\n\nLoops repeat work."))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "sess-1")
	gen := grounding.NewGenerator(sources.NewFetcher(cfg.Sources), store, logging.NewNop())

	envelope, err := gen.Generate(context.Background(), document.Document{}, stage.Inputs{
		grounding.InputSources: server.URL + "/lesson.md",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if envelope.Len() != 1 {
		t.Fatalf("expected 1 mutation, got %d", envelope.Len())
	}

	doc, err := update.Apply(document.Document{}, envelope)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	ref, ok := doc.Reference(grounding.ReferencePrefix + "lesson.md")
	if !ok {
		t.Fatalf("expected grounding reference, got %v", doc.References)
	}
	body, err := store.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("expected stored bytes")
	}
}

func TestGenerateMultipleSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("content for " + r.URL.Path))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "sess-1")
	gen := grounding.NewGenerator(sources.NewFetcher(cfg.Sources), store, logging.NewNop())

	envelope, err := gen.Generate(context.Background(), document.Document{}, stage.Inputs{
		grounding.InputSources: server.URL + "/a.md, " + server.URL + "/b.md",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if envelope.Len() != 2 {
		t.Fatalf("expected 2 mutations, got %d", envelope.Len())
	}
}

func TestGenerateDisambiguatesSharedBasenames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("page at " + r.URL.Path))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "sess-1")
	gen := grounding.NewGenerator(sources.NewFetcher(cfg.Sources), store, logging.NewNop())

	snapshot := document.Document{References: map[string]document.ArtifactRef{
		grounding.ReferencePrefix + "index.html": {Name: "index.html", Version: 1, MimeType: "text/html"},
	}}
	envelope, err := gen.Generate(context.Background(), snapshot, stage.Inputs{
		grounding.InputSources: server.URL + "/a/index.html, " + server.URL + "/b/index.html",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	doc, err := update.Apply(snapshot, envelope)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	for i, key := range []string{"index.html-2", "index.html-3"} {
		ref, ok := doc.Reference(grounding.ReferencePrefix + key)
		if !ok {
			t.Fatalf("expected reference %q, got %v", key, doc.References)
		}
		body, err := store.Load(context.Background(), ref)
		if err != nil {
			t.Fatalf("load %q: %v", key, err)
		}
		want := []string{"page at /a/index.html", "page at /b/index.html"}[i]
		if string(body) != want {
			t.Fatalf("body for %q = %q, want %q", key, body, want)
		}
	}
	if ref, _ := doc.Reference(grounding.ReferencePrefix + "index.html"); ref.Version != 1 {
		t.Fatalf("pre-existing reference was displaced: %v", ref)
	}
}

func TestGenerateRequiresSources(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "sess-1")
	gen := grounding.NewGenerator(sources.NewFetcher(cfg.Sources), store, logging.NewNop())

	if _, err := gen.Generate(context.Background(), document.Document{}, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateUnreachableSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "sess-1")
	gen := grounding.NewGenerator(sources.NewFetcher(cfg.Sources), store, logging.NewNop())

	_, err := gen.Generate(context.Background(), document.Document{}, stage.Inputs{
		grounding.InputSources: server.URL + "/broken.md",
	})
	if !errors.Is(err, services.ErrSourceUnavailable) {
		t.Fatalf("expected source-unavailable error, got %v", err)
	}
}
