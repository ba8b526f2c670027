// Package stage defines the contracts pipeline stages implement: generators
// that propose updates and appliers that merge them.
package stage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"reel/internal/document"
	"reel/internal/update"
)

// Inputs carries the external parameters a pipeline run was invoked with,
// such as source identifiers or a voice override.
type Inputs map[string]string

// Get returns the trimmed value for key, or the empty string.
func (in Inputs) Get(key string) string {
	return strings.TrimSpace(in[key])
}

// Require returns the trimmed value for key or an error naming the missing
// input.
func (in Inputs) Require(key string) (string, error) {
	value := in.Get(key)
	if value == "" {
		return "", fmt.Errorf("required input %q is missing", key)
	}
	return value, nil
}

// Keys returns the input keys in sorted order.
func (in Inputs) Keys() []string {
	keys := make([]string, 0, len(in))
	for key := range in {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Generator reads a document snapshot plus external inputs and proposes an
// update envelope. Generators may call external collaborators and take
// arbitrarily long; they never mutate the document.
type Generator interface {
	Name() string
	Generate(ctx context.Context, snapshot document.Document, inputs Inputs) (update.Envelope, error)
}

// Applier merges collected envelopes into the document. Appliers are pure
// functions over their inputs: no external calls, no randomness, so applying
// the same envelopes to the same document twice produces identical output.
type Applier interface {
	Name() string
	Apply(envelopes []update.Envelope, doc document.Document) (document.Document, error)
}

// HealthChecker is optionally implemented by generators whose external
// collaborators can be probed for readiness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) Health
}

type mergeApplier struct{}

// NewMergeApplier returns the standard applier: a deterministic merge of
// envelopes in collection order via update.Apply.
func NewMergeApplier() Applier {
	return mergeApplier{}
}

func (mergeApplier) Name() string { return "merge" }

func (mergeApplier) Apply(envelopes []update.Envelope, doc document.Document) (document.Document, error) {
	return update.Apply(doc, envelopes...)
}
