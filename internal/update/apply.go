package update

import (
	"fmt"

	"reel/internal/document"
	"reel/internal/services"
)

// Apply merges envelopes into doc and returns the merged copy. The input
// document is not modified.
//
// Mutations apply in envelope order, envelopes in argument order. A scene
// index outside the current scene range fails the whole merge; no partial
// application of an envelope ever survives. Duplicate writes to the same
// field within one batch resolve to the last write, which lets a generator
// correct an earlier conclusion within the same pass.
//
// Apply performs no external calls and is deterministic over its inputs.
// Re-applying field and reference writes yields an identical document;
// AppendScene is the exception, appending a further scene on each apply.
func Apply(doc document.Document, envelopes ...Envelope) (document.Document, error) {
	next := doc.Clone()
	for _, envelope := range envelopes {
		for _, mutation := range envelope.mutations {
			if err := applyMutation(&next, mutation); err != nil {
				return document.Document{}, err
			}
		}
	}
	return next, nil
}

func applyMutation(doc *document.Document, mutation Mutation) error {
	switch m := mutation.(type) {
	case SetSceneField:
		if m.Index < 0 || m.Index >= len(doc.Scenes) {
			return services.Wrap(services.ErrValidation, "update", "apply",
				fmt.Sprintf("scene index %d out of range (document has %d scenes)", m.Index, len(doc.Scenes)), nil)
		}
		return setField(&doc.Scenes[m.Index], m)
	case SetReference:
		if doc.References == nil {
			doc.References = make(map[string]document.ArtifactRef)
		}
		doc.References[m.Key] = m.Ref
		return nil
	case AppendScene:
		scene := m.Scene
		scene.Index = len(doc.Scenes)
		doc.Scenes = append(doc.Scenes, scene)
		return nil
	default:
		return services.Wrap(services.ErrValidation, "update", "apply", fmt.Sprintf("unknown mutation type %T", mutation), nil)
	}
}

func setField(scene *document.Scene, m SetSceneField) error {
	switch m.Field {
	case FieldComment:
		scene.Comment = m.Text
	case FieldSpeech:
		scene.Speech = m.Text
	case FieldTaggedSpeech:
		scene.TaggedSpeech = m.Text
	case FieldVisualHTML:
		scene.VisualHTML = m.Text
	case FieldDuration:
		scene.DurationSeconds = m.Seconds
	case FieldAudio:
		ref := m.Ref
		scene.Audio = &ref
	case FieldSlide:
		ref := m.Ref
		scene.Slide = &ref
	default:
		return services.Wrap(services.ErrValidation, "update", "apply", fmt.Sprintf("unknown scene field %q", m.Field), nil)
	}
	return nil
}
