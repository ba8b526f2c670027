// Package script drafts voiceover scenes from grounding material using the
// chat-completion backend.
package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reel/internal/artifactstore"
	"reel/internal/document"
	"reel/internal/grounding"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/services/llm"
	"reel/internal/stage"
	"reel/internal/update"
)

// InputGuidance optionally steers the draft (audience, tone, length).
const InputGuidance = "guidance"

const systemPrompt = `You write voiceover scripts for short tutorial videos.
Break the supplied source material into scenes. Each scene carries a one
sentence "comment" describing what is on screen and a "speech" narration of
two to four sentences in plain spoken prose. Cover the material in order and
do not invent facts that are not in it.
Return ONLY a JSON object of the form
{"scenes":[{"comment":"...","speech":"..."},...]}
with no code fences and no commentary.`

// maxPromptBytes caps how much grounding text is packed into one request.
const maxPromptBytes = 48 << 10

// Generator turns stored grounding material into appended scenes.
type Generator struct {
	client *llm.Client
	store  *artifactstore.Store
	logger *slog.Logger
}

// NewGenerator constructs the script generator.
func NewGenerator(client *llm.Client, store *artifactstore.Store, logger *slog.Logger) *Generator {
	return &Generator{
		client: client,
		store:  store,
		logger: logging.NewComponentLogger(logger, "script"),
	}
}

func (g *Generator) Name() string { return "script" }

// HealthCheck probes the chat-completion backend.
func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	if err := g.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(g.Name(), err.Error())
	}
	return stage.Healthy(g.Name())
}

type draftedScene struct {
	Comment string `json:"comment"`
	Speech  string `json:"speech"`
}

type draftResponse struct {
	Scenes []draftedScene `json:"scenes"`
}

func (g *Generator) Generate(ctx context.Context, snapshot document.Document, inputs stage.Inputs) (update.Envelope, error) {
	logger := logging.WithContext(ctx, g.logger)

	material, err := g.collectGrounding(ctx, snapshot)
	if err != nil {
		return update.Envelope{}, err
	}
	if material == "" {
		return update.Envelope{}, services.Wrap(services.ErrValidation, "script", "generate",
			"no grounding material in document; run the ground pipeline first", nil)
	}

	userPrompt := material
	if guidance := inputs.Get(InputGuidance); guidance != "" {
		userPrompt = "Guidance: " + guidance + "\n\n" + userPrompt
	}

	content, err := g.client.CompleteJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return update.Envelope{}, services.Wrap(services.ErrGeneration, "script", "generate", "draft scenes", err)
	}
	var parsed draftResponse
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return update.Envelope{}, services.Wrap(services.ErrGeneration, "script", "generate", "parse draft payload", err)
	}
	if len(parsed.Scenes) == 0 {
		return update.Envelope{}, services.Wrap(services.ErrGeneration, "script", "generate", "model returned no scenes", nil)
	}

	mutations := make([]update.Mutation, 0, len(parsed.Scenes))
	for i, drafted := range parsed.Scenes {
		comment := strings.TrimSpace(drafted.Comment)
		speech := strings.TrimSpace(drafted.Speech)
		if speech == "" {
			return update.Envelope{}, services.Wrap(services.ErrGeneration, "script", "generate",
				fmt.Sprintf("drafted scene %d has no speech", i), nil)
		}
		mutation, err := update.NewAppendScene(document.Scene{Comment: comment, Speech: speech})
		if err != nil {
			return update.Envelope{}, err
		}
		mutations = append(mutations, mutation)
	}

	logger.Info("scenes drafted", logging.Int("scenes", len(mutations)))
	return update.NewEnvelope(mutations...)
}

// collectGrounding loads the text-bearing grounding artifacts referenced by
// the document and joins them into one prompt body, newest last, capped at
// maxPromptBytes.
func (g *Generator) collectGrounding(ctx context.Context, snapshot document.Document) (string, error) {
	keys := snapshot.ReferencesWithPrefix(grounding.ReferencePrefix)
	var builder strings.Builder
	for _, key := range keys {
		ref, ok := snapshot.Reference(key)
		if !ok {
			continue
		}
		if !textMimeType(ref.MimeType) {
			continue
		}
		body, err := g.store.Load(ctx, ref)
		if err != nil {
			return "", err
		}
		section := fmt.Sprintf("--- %s ---\n%s\n", strings.TrimPrefix(key, grounding.ReferencePrefix), strings.TrimSpace(string(body)))
		if builder.Len()+len(section) > maxPromptBytes {
			break
		}
		builder.WriteString(section)
	}
	return strings.TrimSpace(builder.String()), nil
}

func textMimeType(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xhtml+xml", "application/xml":
		return true
	}
	return false
}
