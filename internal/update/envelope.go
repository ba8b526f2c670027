package update

import (
	"fmt"
	"strings"

	"reel/internal/document"
	"reel/internal/services"
)

// MaxInlineValueBytes caps any single inline text value carried by a
// mutation. Larger payloads belong in the artifact store.
const MaxInlineValueBytes = 8 << 10

// SceneField names a mutable scene field.
type SceneField string

const (
	FieldComment      SceneField = "comment"
	FieldSpeech       SceneField = "speech"
	FieldTaggedSpeech SceneField = "tagged_speech"
	FieldDuration     SceneField = "duration_seconds"
	FieldVisualHTML   SceneField = "visual_html"
	FieldAudio        SceneField = "audio"
	FieldSlide        SceneField = "slide"
)

var textFields = map[SceneField]struct{}{
	FieldComment:      {},
	FieldSpeech:       {},
	FieldTaggedSpeech: {},
	FieldVisualHTML:   {},
}

var artifactFields = map[SceneField]struct{}{
	FieldAudio: {},
	FieldSlide: {},
}

// Mutation is one targeted change to the document. The set of variants is
// closed: SetSceneField, SetReference, and AppendScene.
type Mutation interface {
	mutation()
	// Target describes the mutation destination for logs and errors.
	Target() string
}

// SetSceneField assigns one field of an existing scene. Exactly one of Text,
// Seconds, or Ref is meaningful, selected by Field.
type SetSceneField struct {
	Index   int
	Field   SceneField
	Text    string
	Seconds float64
	Ref     document.ArtifactRef
}

func (SetSceneField) mutation() {}

func (m SetSceneField) Target() string {
	return fmt.Sprintf("scene %d %s", m.Index, m.Field)
}

// SetReference assigns a document-level artifact reference. Keys are created
// when absent.
type SetReference struct {
	Key string
	Ref document.ArtifactRef
}

func (SetReference) mutation() {}

func (m SetReference) Target() string {
	return fmt.Sprintf("reference %s", m.Key)
}

// AppendScene adds a scene at the end of the document. The scene index is
// assigned at apply time so scene order is always preserved.
type AppendScene struct {
	Scene document.Scene
}

func (AppendScene) mutation() {}

func (AppendScene) Target() string {
	return "append scene"
}

// SetSceneText builds a mutation assigning a text field.
func SetSceneText(index int, field SceneField, text string) (Mutation, error) {
	if index < 0 {
		return nil, services.Wrap(services.ErrValidation, "update", "set scene text", fmt.Sprintf("negative scene index %d", index), nil)
	}
	if _, ok := textFields[field]; !ok {
		return nil, services.Wrap(services.ErrValidation, "update", "set scene text", fmt.Sprintf("field %q does not hold text", field), nil)
	}
	if len(text) > MaxInlineValueBytes {
		return nil, services.Wrap(services.ErrValidation, "update", "set scene text",
			fmt.Sprintf("value for %q is %d bytes; inline values are capped at %d", field, len(text), MaxInlineValueBytes), nil)
	}
	return SetSceneField{Index: index, Field: field, Text: text}, nil
}

// SetSceneDuration builds a mutation assigning a scene's duration in seconds.
func SetSceneDuration(index int, seconds float64) (Mutation, error) {
	if index < 0 {
		return nil, services.Wrap(services.ErrValidation, "update", "set scene duration", fmt.Sprintf("negative scene index %d", index), nil)
	}
	if seconds < 0 {
		return nil, services.Wrap(services.ErrValidation, "update", "set scene duration", fmt.Sprintf("negative duration %v", seconds), nil)
	}
	return SetSceneField{Index: index, Field: FieldDuration, Seconds: seconds}, nil
}

// SetSceneArtifact builds a mutation assigning an artifact-valued scene field.
func SetSceneArtifact(index int, field SceneField, ref document.ArtifactRef) (Mutation, error) {
	if index < 0 {
		return nil, services.Wrap(services.ErrValidation, "update", "set scene artifact", fmt.Sprintf("negative scene index %d", index), nil)
	}
	if _, ok := artifactFields[field]; !ok {
		return nil, services.Wrap(services.ErrValidation, "update", "set scene artifact", fmt.Sprintf("field %q does not hold an artifact ref", field), nil)
	}
	if err := ref.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "update", "set scene artifact", "malformed artifact ref", err)
	}
	return SetSceneField{Index: index, Field: field, Ref: ref}, nil
}

// SetDocumentReference builds a mutation assigning a document-level reference.
func SetDocumentReference(key string, ref document.ArtifactRef) (Mutation, error) {
	if strings.TrimSpace(key) == "" {
		return nil, services.Wrap(services.ErrValidation, "update", "set reference", "empty reference key", nil)
	}
	if err := ref.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "update", "set reference", "malformed artifact ref", err)
	}
	return SetReference{Key: key, Ref: ref}, nil
}

// NewAppendScene builds a mutation appending a scene. Any index on the
// supplied scene is ignored; the applier assigns it.
func NewAppendScene(scene document.Scene) (Mutation, error) {
	for field, value := range map[SceneField]string{
		FieldComment:      scene.Comment,
		FieldSpeech:       scene.Speech,
		FieldTaggedSpeech: scene.TaggedSpeech,
		FieldVisualHTML:   scene.VisualHTML,
	} {
		if len(value) > MaxInlineValueBytes {
			return nil, services.Wrap(services.ErrValidation, "update", "append scene",
				fmt.Sprintf("value for %q is %d bytes; inline values are capped at %d", field, len(value), MaxInlineValueBytes), nil)
		}
	}
	if scene.Audio != nil {
		if err := scene.Audio.Validate(); err != nil {
			return nil, services.Wrap(services.ErrValidation, "update", "append scene", "malformed audio ref", err)
		}
	}
	if scene.Slide != nil {
		if err := scene.Slide.Validate(); err != nil {
			return nil, services.Wrap(services.ErrValidation, "update", "append scene", "malformed slide ref", err)
		}
	}
	return AppendScene{Scene: scene}, nil
}

// Envelope is an immutable ordered batch of mutations produced by one
// generator pass. It is consumed exactly once by the paired applier and never
// retained in the document.
type Envelope struct {
	mutations []Mutation
}

// NewEnvelope builds an envelope from the given mutations in order.
func NewEnvelope(mutations ...Mutation) (Envelope, error) {
	for i, m := range mutations {
		if m == nil {
			return Envelope{}, services.Wrap(services.ErrValidation, "update", "new envelope", fmt.Sprintf("nil mutation at position %d", i), nil)
		}
	}
	copied := make([]Mutation, len(mutations))
	copy(copied, mutations)
	return Envelope{mutations: copied}, nil
}

// Mutations returns the batch in order. The returned slice is a copy.
func (e Envelope) Mutations() []Mutation {
	out := make([]Mutation, len(e.mutations))
	copy(out, e.mutations)
	return out
}

// Len reports the number of mutations.
func (e Envelope) Len() int { return len(e.mutations) }

// Empty reports whether the envelope carries no mutations.
func (e Envelope) Empty() bool { return len(e.mutations) == 0 }
