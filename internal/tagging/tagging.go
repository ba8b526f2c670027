// Package tagging enhances scene narration with delivery tags the speech
// synthesis backend interprets, such as [thoughtfully] or [short pause].
package tagging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"reel/internal/document"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/services/llm"
	"reel/internal/stage"
	"reel/internal/update"
)

const systemPrompt = `You enhance voiceover narration for speech synthesis.
For each scene you receive, produce a tagged version of its "speech" with
inline delivery tags in square brackets, for example [thoughtfully],
[short pause], [slows down]. Integrate tags where the effect should start.
STRICTLY preserve the original wording; only add tags and punctuation.
Return ONLY a JSON object of the form
{"updates":[{"index":0,"tagged_speech":"..."},...]}
with one update per scene, no code fences and no commentary.`

// Generator proposes a tagged_speech value for every scene with speech.
type Generator struct {
	client *llm.Client
	logger *slog.Logger
}

// NewGenerator constructs the tagging generator.
func NewGenerator(client *llm.Client, logger *slog.Logger) *Generator {
	return &Generator{
		client: client,
		logger: logging.NewComponentLogger(logger, "tagging"),
	}
}

func (g *Generator) Name() string { return "tagging" }

// HealthCheck probes the chat-completion backend.
func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	if err := g.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(g.Name(), err.Error())
	}
	return stage.Healthy(g.Name())
}

type taggedUpdate struct {
	Index        int    `json:"index"`
	TaggedSpeech string `json:"tagged_speech"`
}

type taggedResponse struct {
	Updates []taggedUpdate `json:"updates"`
}

type promptScene struct {
	Index  int    `json:"index"`
	Speech string `json:"speech"`
}

func (g *Generator) Generate(ctx context.Context, snapshot document.Document, inputs stage.Inputs) (update.Envelope, error) {
	logger := logging.WithContext(ctx, g.logger)

	scenes := make([]promptScene, 0, len(snapshot.Scenes))
	for _, scene := range snapshot.Scenes {
		if strings.TrimSpace(scene.Speech) != "" {
			scenes = append(scenes, promptScene{Index: scene.Index, Speech: scene.Speech})
		}
	}
	if len(scenes) == 0 {
		return update.Envelope{}, services.Wrap(services.ErrValidation, "tagging", "generate",
			"no scenes with speech; run the script pipeline first", nil)
	}

	encoded, err := json.Marshal(map[string]any{"scenes": scenes})
	if err != nil {
		return update.Envelope{}, services.Wrap(services.ErrGeneration, "tagging", "generate", "encode scenes", err)
	}
	content, err := g.client.CompleteJSON(ctx, systemPrompt, string(encoded))
	if err != nil {
		return update.Envelope{}, services.Wrap(services.ErrGeneration, "tagging", "generate", "tag speech", err)
	}
	var parsed taggedResponse
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return update.Envelope{}, services.Wrap(services.ErrGeneration, "tagging", "generate", "parse tagged payload", err)
	}
	if len(parsed.Updates) == 0 {
		return update.Envelope{}, services.Wrap(services.ErrGeneration, "tagging", "generate", "model returned no updates", nil)
	}

	mutations := make([]update.Mutation, 0, len(parsed.Updates))
	for _, upd := range parsed.Updates {
		tagged := strings.TrimSpace(upd.TaggedSpeech)
		if tagged == "" {
			return update.Envelope{}, services.Wrap(services.ErrGeneration, "tagging", "generate",
				fmt.Sprintf("update for scene %d has no tagged speech", upd.Index), nil)
		}
		mutation, err := update.SetSceneText(upd.Index, update.FieldTaggedSpeech, tagged)
		if err != nil {
			return update.Envelope{}, err
		}
		mutations = append(mutations, mutation)
	}

	logger.Info("speech tagged", logging.Int("scenes", len(mutations)))
	return update.NewEnvelope(mutations...)
}
