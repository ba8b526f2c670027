// Package voiceover synthesizes one audio clip per scene and records clip
// references, per-scene durations, and the combined voiceover artifact.
package voiceover

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reel/internal/artifactstore"
	"reel/internal/document"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/services/speech"
	"reel/internal/stage"
	"reel/internal/update"
)

// ReferenceKey is the document reference holding the combined voiceover.
const ReferenceKey = "voiceover_audio"

// Synthesizer is the slice of the speech client the generator needs.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (speech.Clip, error)
	HealthCheck(ctx context.Context) error
}

// Generator produces voiceover audio for every scene. Audio bytes live in
// the artifact store only; scenes carry references and durations.
type Generator struct {
	synth  Synthesizer
	store  *artifactstore.Store
	logger *slog.Logger
}

// NewGenerator constructs the voiceover generator.
func NewGenerator(synth Synthesizer, store *artifactstore.Store, logger *slog.Logger) *Generator {
	return &Generator{
		synth:  synth,
		store:  store,
		logger: logging.NewComponentLogger(logger, "voiceover"),
	}
}

func (g *Generator) Name() string { return "voiceover" }

// HealthCheck probes the speech synthesis backend.
func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	if err := g.synth.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(g.Name(), err.Error())
	}
	return stage.Healthy(g.Name())
}

func (g *Generator) Generate(ctx context.Context, snapshot document.Document, inputs stage.Inputs) (update.Envelope, error) {
	logger := logging.WithContext(ctx, g.logger)

	if len(snapshot.Scenes) == 0 {
		return update.Envelope{}, services.Wrap(services.ErrValidation, "voiceover", "generate",
			"document has no scenes; run the script pipeline first", nil)
	}

	var mutations []update.Mutation
	combined := make([]byte, 0)
	for _, scene := range snapshot.Scenes {
		text := narrationText(scene)
		if text == "" {
			return update.Envelope{}, services.Wrap(services.ErrValidation, "voiceover", "generate",
				fmt.Sprintf("scene %d has no narration", scene.Index), nil)
		}

		clip, err := g.synth.Synthesize(ctx, text)
		if err != nil {
			return update.Envelope{}, services.Wrap(services.ErrGeneration, "voiceover", "generate",
				fmt.Sprintf("synthesize scene %d", scene.Index), err)
		}
		name := fmt.Sprintf("voiceover_scene_%d.mp3", scene.Index)
		ref, err := g.store.Save(ctx, name, clip.Audio, speech.MimeType)
		if err != nil {
			return update.Envelope{}, err
		}

		audioMutation, err := update.SetSceneArtifact(scene.Index, update.FieldAudio, ref)
		if err != nil {
			return update.Envelope{}, err
		}
		durationMutation, err := update.SetSceneDuration(scene.Index, clip.DurationSeconds)
		if err != nil {
			return update.Envelope{}, err
		}
		mutations = append(mutations, audioMutation, durationMutation)
		combined = append(combined, clip.Audio...)

		logger.Info("scene voiced",
			logging.Int("scene", scene.Index),
			logging.String("artifact", ref.String()),
			logging.Float64("duration_seconds", clip.DurationSeconds),
		)
	}

	// MPEG audio frames concatenate cleanly, so the combined voiceover is
	// just the clips in scene order.
	combinedRef, err := g.store.Save(ctx, "voiceover.mp3", combined, speech.MimeType)
	if err != nil {
		return update.Envelope{}, err
	}
	referenceMutation, err := update.SetDocumentReference(ReferenceKey, combinedRef)
	if err != nil {
		return update.Envelope{}, err
	}
	mutations = append(mutations, referenceMutation)

	return update.NewEnvelope(mutations...)
}

// narrationText prefers tagged speech and falls back to the plain draft.
func narrationText(scene document.Scene) string {
	if tagged := strings.TrimSpace(scene.TaggedSpeech); tagged != "" {
		return tagged
	}
	return strings.TrimSpace(scene.Speech)
}
