package testsupport

import (
	"testing"

	"reel/internal/artifactstore"
	"reel/internal/config"
	"reel/internal/sessionstore"
)

// MustOpenArtifactStore opens an artifactstore.Store for tests and registers cleanup.
func MustOpenArtifactStore(t testing.TB, cfg *config.Config, sessionID string) *artifactstore.Store {
	t.Helper()

	store, err := artifactstore.Open(cfg, sessionID)
	if err != nil {
		t.Fatalf("artifactstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenSessionStore opens a sessionstore.Store for tests and registers cleanup.
func MustOpenSessionStore(t testing.TB, cfg *config.Config, sessionID string) *sessionstore.Store {
	t.Helper()

	store, err := sessionstore.Open(cfg, sessionID)
	if err != nil {
		t.Fatalf("sessionstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
