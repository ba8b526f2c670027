// Package grounding fetches source material and registers it in the
// document so downstream pipelines can draft scenes from it.
package grounding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reel/internal/artifactstore"
	"reel/internal/document"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/sources"
	"reel/internal/stage"
	"reel/internal/update"
)

// InputSources is the pipeline input carrying source identifiers, separated
// by commas when there is more than one.
const InputSources = "sources"

// ReferencePrefix namespaces grounding entries in the document references.
const ReferencePrefix = "grounding/"

// Generator downloads grounding material, saves it to the artifact store,
// and proposes one document reference per fetched source.
type Generator struct {
	fetcher *sources.Fetcher
	store   *artifactstore.Store
	logger  *slog.Logger
}

// NewGenerator constructs the grounding generator.
func NewGenerator(fetcher *sources.Fetcher, store *artifactstore.Store, logger *slog.Logger) *Generator {
	return &Generator{
		fetcher: fetcher,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "grounding"),
	}
}

func (g *Generator) Name() string { return "grounding" }

func (g *Generator) Generate(ctx context.Context, snapshot document.Document, inputs stage.Inputs) (update.Envelope, error) {
	logger := logging.WithContext(ctx, g.logger)

	raw, err := inputs.Require(InputSources)
	if err != nil {
		return update.Envelope{}, services.Wrap(services.ErrValidation, "grounding", "generate", err.Error(), nil)
	}
	identifiers := splitIdentifiers(raw)
	if len(identifiers) == 0 {
		return update.Envelope{}, services.Wrap(services.ErrValidation, "grounding", "generate", "no source identifiers supplied", nil)
	}

	// Distinct sources can share a basename (two index.html pages); each
	// fetch must land under its own reference key instead of displacing an
	// earlier one.
	used := make(map[string]bool)
	for _, key := range snapshot.ReferencesWithPrefix(ReferencePrefix) {
		used[strings.TrimPrefix(key, ReferencePrefix)] = true
	}

	mutations := make([]update.Mutation, 0, len(identifiers))
	for _, identifier := range identifiers {
		material, err := g.fetcher.Fetch(ctx, identifier)
		if err != nil {
			return update.Envelope{}, err
		}
		name := uniqueName(used, material.Name)
		used[name] = true
		ref, err := g.store.Save(ctx, name, material.Body, material.MimeType)
		if err != nil {
			return update.Envelope{}, err
		}
		mutation, err := update.SetDocumentReference(ReferencePrefix+name, ref)
		if err != nil {
			return update.Envelope{}, err
		}
		mutations = append(mutations, mutation)
		logger.Info("grounding material stored",
			logging.String("source", identifier),
			logging.String("artifact", ref.String()),
			logging.String("mime_type", material.MimeType),
			logging.Int("bytes", len(material.Body)),
		)
	}

	return update.NewEnvelope(mutations...)
}

func uniqueName(used map[string]bool, name string) string {
	if !used[name] {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", name, n)
		if !used[candidate] {
			return candidate
		}
	}
}

func splitIdentifiers(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
