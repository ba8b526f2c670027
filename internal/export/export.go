// Package export assembles the final deliverable for a session. It is pure
// assembly: no external services, just the document and the artifact store.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"reel/internal/artifactstore"
	"reel/internal/document"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/stage"
	"reel/internal/update"
	"reel/internal/voiceover"
)

// ReferenceKey names the document reference pointing at the deliverable.
const ReferenceKey = "final_export"

const exportMimeType = "application/json"

// deliverable is the JSON shape written to the artifact store. Artifacts
// appear as references only; consumers resolve blobs through the store.
type deliverable struct {
	Scenes     []exportScene                   `json:"scenes"`
	Voiceover  *document.ArtifactRef           `json:"voiceover,omitempty"`
	References map[string]document.ArtifactRef `json:"references,omitempty"`
}

type exportScene struct {
	Index           int                   `json:"index"`
	Comment         string                `json:"comment,omitempty"`
	Speech          string                `json:"speech"`
	TaggedSpeech    string                `json:"tagged_speech,omitempty"`
	DurationSeconds float64               `json:"duration_seconds"`
	VisualHTML      string                `json:"visual_html,omitempty"`
	Audio           *document.ArtifactRef `json:"audio,omitempty"`
	Slide           *document.ArtifactRef `json:"slide,omitempty"`
}

// Generator builds the deliverable JSON and records it in the store.
type Generator struct {
	store  *artifactstore.Store
	logger *slog.Logger
}

func NewGenerator(store *artifactstore.Store, logger *slog.Logger) *Generator {
	return &Generator{
		store:  store,
		logger: logging.NewComponentLogger(logger, "export"),
	}
}

func (g *Generator) Name() string { return "export" }

// HealthCheck always reports ready; export has no external dependencies.
func (g *Generator) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(g.Name())
}

func (g *Generator) Generate(ctx context.Context, snapshot document.Document, _ stage.Inputs) (update.Envelope, error) {
	logger := logging.WithContext(ctx, g.logger)

	if len(snapshot.Scenes) == 0 {
		return update.Envelope{}, services.Wrap(services.ErrValidation, "export", "generate",
			"document has no scenes; run the script pipeline first", nil)
	}

	scenes := make([]exportScene, 0, len(snapshot.Scenes))
	for _, scene := range snapshot.Scenes {
		if scene.Audio == nil || scene.DurationSeconds <= 0 {
			return update.Envelope{}, services.Wrap(services.ErrValidation, "export", "generate",
				fmt.Sprintf("scene %d has no voiced narration; run the audio pipeline first", scene.Index), nil)
		}
		scenes = append(scenes, exportScene{
			Index:           scene.Index,
			Comment:         scene.Comment,
			Speech:          scene.Speech,
			TaggedSpeech:    scene.TaggedSpeech,
			DurationSeconds: scene.DurationSeconds,
			VisualHTML:      scene.VisualHTML,
			Audio:           scene.Audio,
			Slide:           scene.Slide,
		})
	}

	out := deliverable{Scenes: scenes}
	if ref, ok := snapshot.Reference(voiceover.ReferenceKey); ok {
		out.Voiceover = &ref
	}
	for key, ref := range snapshot.References {
		if key == ReferenceKey || key == voiceover.ReferenceKey {
			continue
		}
		if out.References == nil {
			out.References = make(map[string]document.ArtifactRef)
		}
		out.References[key] = ref
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return update.Envelope{}, services.Wrap(services.ErrStorage, "export", "generate", "encode deliverable", err)
	}
	ref, err := g.store.Save(ctx, ReferenceKey, encoded, exportMimeType)
	if err != nil {
		return update.Envelope{}, err
	}

	mutation, err := update.SetDocumentReference(ReferenceKey, ref)
	if err != nil {
		return update.Envelope{}, err
	}
	logger.Info("deliverable assembled",
		logging.String("artifact", ref.String()),
		logging.Int("scenes", len(scenes)),
		logging.Int("bytes", len(encoded)),
	)
	return update.NewEnvelope(mutation)
}
