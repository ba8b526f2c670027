package update_test

import (
	"errors"
	"strings"
	"testing"

	"reel/internal/document"
	"reel/internal/services"
	"reel/internal/update"
)

func TestSetSceneTextRejectsWrongField(t *testing.T) {
	if _, err := update.SetSceneText(0, update.FieldDuration, "5"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := update.SetSceneText(0, update.FieldAudio, "blob"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetSceneTextRejectsOversizedValue(t *testing.T) {
	big := strings.Repeat("x", update.MaxInlineValueBytes+1)
	if _, err := update.SetSceneText(0, update.FieldSpeech, big); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for oversized value, got %v", err)
	}
}

func TestSetSceneTextRejectsNegativeIndex(t *testing.T) {
	if _, err := update.SetSceneText(-1, update.FieldSpeech, "hi"); !errors.Is(err, services.ErrValidation) {
		t.Fatal("expected validation error for negative index")
	}
}

func TestSetSceneDurationRejectsNegative(t *testing.T) {
	if _, err := update.SetSceneDuration(0, -2); !errors.Is(err, services.ErrValidation) {
		t.Fatal("expected validation error for negative duration")
	}
}

func TestSetSceneArtifactValidatesRef(t *testing.T) {
	bad := document.ArtifactRef{Name: "", Version: 0}
	if _, err := update.SetSceneArtifact(0, update.FieldAudio, bad); !errors.Is(err, services.ErrValidation) {
		t.Fatal("expected validation error for malformed ref")
	}
	good := document.ArtifactRef{Name: "audio/scene-0", Version: 1, MimeType: "audio/mpeg"}
	if _, err := update.SetSceneArtifact(0, update.FieldSpeech, good); !errors.Is(err, services.ErrValidation) {
		t.Fatal("expected validation error for non-artifact field")
	}
	if _, err := update.SetSceneArtifact(0, update.FieldAudio, good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetDocumentReferenceRejectsEmptyKey(t *testing.T) {
	ref := document.ArtifactRef{Name: "final", Version: 1, MimeType: "application/json"}
	if _, err := update.SetDocumentReference("  ", ref); !errors.Is(err, services.ErrValidation) {
		t.Fatal("expected validation error for blank key")
	}
}

func TestNewAppendSceneRejectsOversizedFields(t *testing.T) {
	scene := document.Scene{Speech: strings.Repeat("y", update.MaxInlineValueBytes+1)}
	if _, err := update.NewAppendScene(scene); !errors.Is(err, services.ErrValidation) {
		t.Fatal("expected validation error for oversized scene field")
	}
}

func TestNewEnvelopeRejectsNilMutation(t *testing.T) {
	if _, err := update.NewEnvelope(nil); !errors.Is(err, services.ErrValidation) {
		t.Fatal("expected validation error for nil mutation")
	}
}

func TestEnvelopeIsImmutable(t *testing.T) {
	first, err := update.SetSceneText(0, update.FieldSpeech, "hello")
	if err != nil {
		t.Fatalf("build mutation: %v", err)
	}
	envelope, err := update.NewEnvelope(first)
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}

	leaked := envelope.Mutations()
	leaked[0] = nil

	if envelope.Len() != 1 {
		t.Fatalf("unexpected length: %d", envelope.Len())
	}
	if envelope.Mutations()[0] == nil {
		t.Fatal("caller mutated envelope internals through Mutations()")
	}
}
