// Package visuals produces the slide layer: small HTML markup per scene,
// plus optional AI-generated slide images stored as artifacts.
package visuals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"reel/internal/artifactstore"
	"reel/internal/document"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/services/imagery"
	"reel/internal/services/llm"
	"reel/internal/stage"
	"reel/internal/update"
)

const systemPrompt = `You design minimal HTML slides for tutorial videos.
For each scene you receive, produce a small self-contained HTML snippet
(headings, short bullet lists, no scripts, no external resources, no inline
images) that could back the scene while its narration plays. Keep each
snippet under two kilobytes.
Return ONLY a JSON object of the form
{"updates":[{"index":0,"html":"..."},...]}
with one update per scene, no code fences and no commentary.`

const imagePromptTemplate = `Create a clean, modern educational illustration
for a tutorial video scene. Scene context: %s. Narration: %q. Favor simple
symbolic imagery and diagrams over text.`

// Illustrator is the slice of the imagery client the generator needs.
type Illustrator interface {
	Enabled() bool
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Generator proposes visual markup for every scene and, when imagery is
// configured, a slide image artifact per scene.
type Generator struct {
	client      *llm.Client
	illustrator Illustrator
	store       *artifactstore.Store
	logger      *slog.Logger
}

// NewGenerator constructs the visuals generator. illustrator may be a
// disabled client; markup-only slides are produced in that case.
func NewGenerator(client *llm.Client, illustrator Illustrator, store *artifactstore.Store, logger *slog.Logger) *Generator {
	return &Generator{
		client:      client,
		illustrator: illustrator,
		store:       store,
		logger:      logging.NewComponentLogger(logger, "visuals"),
	}
}

func (g *Generator) Name() string { return "visuals" }

// HealthCheck probes the chat-completion backend.
func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	if err := g.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(g.Name(), err.Error())
	}
	return stage.Healthy(g.Name())
}

type markupUpdate struct {
	Index int    `json:"index"`
	HTML  string `json:"html"`
}

type markupResponse struct {
	Updates []markupUpdate `json:"updates"`
}

type promptScene struct {
	Index   int    `json:"index"`
	Comment string `json:"comment"`
	Speech  string `json:"speech"`
}

func (g *Generator) Generate(ctx context.Context, snapshot document.Document, inputs stage.Inputs) (update.Envelope, error) {
	logger := logging.WithContext(ctx, g.logger)

	if len(snapshot.Scenes) == 0 {
		return update.Envelope{}, services.Wrap(services.ErrValidation, "visuals", "generate",
			"document has no scenes; run the script pipeline first", nil)
	}

	markup, err := g.draftMarkup(ctx, snapshot)
	if err != nil {
		return update.Envelope{}, err
	}

	var mutations []update.Mutation
	for _, scene := range snapshot.Scenes {
		html, ok := markup[scene.Index]
		if !ok {
			return update.Envelope{}, services.Wrap(services.ErrGeneration, "visuals", "generate",
				fmt.Sprintf("model returned no markup for scene %d", scene.Index), nil)
		}
		htmlMutation, err := update.SetSceneText(scene.Index, update.FieldVisualHTML, html)
		if err != nil {
			return update.Envelope{}, err
		}
		mutations = append(mutations, htmlMutation)

		if g.illustrator != nil && g.illustrator.Enabled() {
			image, err := g.illustrator.Generate(ctx, fmt.Sprintf(imagePromptTemplate, scene.Comment, scene.Speech))
			if err != nil {
				return update.Envelope{}, services.Wrap(services.ErrGeneration, "visuals", "generate",
					fmt.Sprintf("illustrate scene %d", scene.Index), err)
			}
			ref, err := g.store.Save(ctx, fmt.Sprintf("slides/%d", scene.Index), image, imagery.MimeType)
			if err != nil {
				return update.Envelope{}, err
			}
			slideMutation, err := update.SetSceneArtifact(scene.Index, update.FieldSlide, ref)
			if err != nil {
				return update.Envelope{}, err
			}
			mutations = append(mutations, slideMutation)
			logger.Info("slide illustrated",
				logging.Int("scene", scene.Index),
				logging.String("artifact", ref.String()),
			)
		}
	}

	logger.Info("visuals generated", logging.Int("scenes", len(snapshot.Scenes)))
	return update.NewEnvelope(mutations...)
}

func (g *Generator) draftMarkup(ctx context.Context, snapshot document.Document) (map[int]string, error) {
	scenes := make([]promptScene, 0, len(snapshot.Scenes))
	for _, scene := range snapshot.Scenes {
		scenes = append(scenes, promptScene{Index: scene.Index, Comment: scene.Comment, Speech: scene.Speech})
	}
	encoded, err := json.Marshal(map[string]any{"scenes": scenes})
	if err != nil {
		return nil, services.Wrap(services.ErrGeneration, "visuals", "generate", "encode scenes", err)
	}
	content, err := g.client.CompleteJSON(ctx, systemPrompt, string(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrGeneration, "visuals", "generate", "draft markup", err)
	}
	var parsed markupResponse
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return nil, services.Wrap(services.ErrGeneration, "visuals", "generate", "parse markup payload", err)
	}

	markup := make(map[int]string, len(parsed.Updates))
	for _, upd := range parsed.Updates {
		html := strings.TrimSpace(upd.HTML)
		if html == "" {
			return nil, services.Wrap(services.ErrGeneration, "visuals", "generate",
				fmt.Sprintf("update for scene %d has no markup", upd.Index), nil)
		}
		markup[upd.Index] = html
	}
	return markup, nil
}
