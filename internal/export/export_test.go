package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"reel/internal/document"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/stage"
	"reel/internal/testsupport"
	"reel/internal/update"
	"reel/internal/voiceover"
)

func voicedDocument() document.Document {
	doc := document.New()
	audio0 := document.ArtifactRef{Name: "voiceover_scene_0.mp3", Version: 1, MimeType: "audio/mpeg"}
	audio1 := document.ArtifactRef{Name: "voiceover_scene_1.mp3", Version: 1, MimeType: "audio/mpeg"}
	doc.Scenes = []document.Scene{
		{Index: 0, Comment: "intro", Speech: "Hello.", TaggedSpeech: "Hello.", DurationSeconds: 2.5, VisualHTML: "<h1>Hi</h1>", Audio: &audio0},
		{Index: 1, Speech: "Bye.", DurationSeconds: 1.5, Audio: &audio1},
	}
	doc.References = map[string]document.ArtifactRef{
		voiceover.ReferenceKey: {Name: "voiceover.mp3", Version: 1, MimeType: "audio/mpeg"},
		"grounding/readme.md":  {Name: "grounding/readme.md", Version: 1, MimeType: "text/markdown"},
	}
	return doc
}

func TestGenerateAssemblesDeliverable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "export-assemble")
	gen := NewGenerator(store, logging.NewNop())

	snapshot := voicedDocument()
	envelope, err := gen.Generate(context.Background(), snapshot, stage.Inputs{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	doc, err := update.Apply(snapshot, envelope)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	ref, ok := doc.Reference(ReferenceKey)
	if !ok {
		t.Fatal("document has no final_export reference")
	}

	body, err := store.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("load deliverable: %v", err)
	}
	var out deliverable
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode deliverable: %v", err)
	}
	if len(out.Scenes) != 2 {
		t.Fatalf("scenes = %d, want 2", len(out.Scenes))
	}
	if out.Scenes[0].Speech != "Hello." || out.Scenes[0].DurationSeconds != 2.5 {
		t.Fatalf("scene 0 = %+v", out.Scenes[0])
	}
	if out.Scenes[1].Audio == nil || out.Scenes[1].Audio.Name != "voiceover_scene_1.mp3" {
		t.Fatalf("scene 1 audio = %v", out.Scenes[1].Audio)
	}
	if out.Voiceover == nil || out.Voiceover.Name != "voiceover.mp3" {
		t.Fatalf("voiceover = %v", out.Voiceover)
	}
	if _, ok := out.References["grounding/readme.md"]; !ok {
		t.Fatal("grounding reference missing from deliverable")
	}
	if _, ok := out.References[voiceover.ReferenceKey]; ok {
		t.Fatal("voiceover should not be duplicated in references")
	}
}

func TestGenerateWithoutScenesFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "export-empty")
	gen := NewGenerator(store, logging.NewNop())

	_, err := gen.Generate(context.Background(), document.New(), stage.Inputs{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestGenerateRequiresVoicedScenes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "export-unvoiced")
	gen := NewGenerator(store, logging.NewNop())

	doc := document.New()
	doc.Scenes = []document.Scene{{Index: 0, Speech: "Hello."}}
	_, err := gen.Generate(context.Background(), doc, stage.Inputs{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestGenerateVersionsSuccessiveExports(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifactStore(t, cfg, "export-versions")
	gen := NewGenerator(store, logging.NewNop())

	snapshot := voicedDocument()
	first, err := gen.Generate(context.Background(), snapshot, stage.Inputs{})
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	doc, err := update.Apply(snapshot, first)
	if err != nil {
		t.Fatalf("apply first: %v", err)
	}

	second, err := gen.Generate(context.Background(), doc, stage.Inputs{})
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	doc, err = update.Apply(doc, second)
	if err != nil {
		t.Fatalf("apply second: %v", err)
	}
	ref, _ := doc.Reference(ReferenceKey)
	if ref.Version != 2 {
		t.Fatalf("version = %d, want 2", ref.Version)
	}
}
