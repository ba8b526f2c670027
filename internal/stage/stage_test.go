package stage_test

import (
	"reflect"
	"testing"

	"reel/internal/document"
	"reel/internal/stage"
	"reel/internal/update"
)

func TestInputsRequire(t *testing.T) {
	inputs := stage.Inputs{"source": "  https://example.com/deck.pdf  "}
	got, err := inputs.Require("source")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://example.com/deck.pdf" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if _, err := inputs.Require("voice"); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestInputsKeysSorted(t *testing.T) {
	inputs := stage.Inputs{"voice": "a", "source": "b"}
	if got := inputs.Keys(); !reflect.DeepEqual(got, []string{"source", "voice"}) {
		t.Fatalf("unexpected keys: %v", got)
	}
}

func TestMergeApplierAppliesInOrder(t *testing.T) {
	doc := document.Document{Scenes: []document.Scene{{Index: 0}}}
	first, err := update.SetSceneText(0, update.FieldComment, "one")
	if err != nil {
		t.Fatalf("mutation: %v", err)
	}
	second, err := update.SetSceneText(0, update.FieldComment, "two")
	if err != nil {
		t.Fatalf("mutation: %v", err)
	}
	envA, err := update.NewEnvelope(first)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	envB, err := update.NewEnvelope(second)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}

	applier := stage.NewMergeApplier()
	got, err := applier.Apply([]update.Envelope{envA, envB}, doc)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Scenes[0].Comment != "two" {
		t.Fatalf("expected later envelope to win, got %q", got.Scenes[0].Comment)
	}
}

func TestHealthConstructors(t *testing.T) {
	if h := stage.Healthy("llm"); !h.Ready || h.Name != "llm" {
		t.Fatalf("unexpected health: %+v", h)
	}
	if h := stage.Unhealthy("speech", "no api key"); h.Ready || h.Detail != "no api key" {
		t.Fatalf("unexpected health: %+v", h)
	}
}
