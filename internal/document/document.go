package document

import (
	"fmt"
	"sort"
	"strings"
)

// ArtifactRef points at a blob held in the artifact store. It never carries
// the blob bytes.
type ArtifactRef struct {
	Name     string `json:"name"`
	Version  int64  `json:"version"`
	MimeType string `json:"mime_type"`
}

// IsZero reports whether the reference is unset.
func (r ArtifactRef) IsZero() bool {
	return r.Name == "" && r.Version == 0 && r.MimeType == ""
}

// String renders the reference as name@version for logs and tables.
func (r ArtifactRef) String() string {
	return fmt.Sprintf("%s@%d", r.Name, r.Version)
}

// Validate checks that the reference is well formed.
func (r ArtifactRef) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("artifact ref: name must be set")
	}
	if r.Version <= 0 {
		return fmt.Errorf("artifact ref %q: version must be positive", r.Name)
	}
	return nil
}

// Scene is one ordered unit of the eventual output. Fields are populated
// progressively by successive pipelines; Index is stable once assigned.
type Scene struct {
	Index           int          `json:"index"`
	Comment         string       `json:"comment,omitempty"`
	Speech          string       `json:"speech,omitempty"`
	TaggedSpeech    string       `json:"tagged_speech,omitempty"`
	DurationSeconds float64      `json:"duration_seconds,omitempty"`
	VisualHTML      string       `json:"visual_html,omitempty"`
	Audio           *ArtifactRef `json:"audio,omitempty"`
	Slide           *ArtifactRef `json:"slide,omitempty"`
}

// Document is the shared record of scenes and artifact references for one
// session.
type Document struct {
	Scenes     []Scene                `json:"scenes"`
	References map[string]ArtifactRef `json:"references,omitempty"`
}

// New returns an empty document.
func New() Document {
	return Document{}
}

// Clone returns a deep, independent copy.
func (d Document) Clone() Document {
	out := Document{}
	if d.Scenes != nil {
		out.Scenes = make([]Scene, len(d.Scenes))
		for i, scene := range d.Scenes {
			out.Scenes[i] = scene.clone()
		}
	}
	if d.References != nil {
		out.References = make(map[string]ArtifactRef, len(d.References))
		for key, ref := range d.References {
			out.References[key] = ref
		}
	}
	return out
}

func (s Scene) clone() Scene {
	out := s
	if s.Audio != nil {
		audio := *s.Audio
		out.Audio = &audio
	}
	if s.Slide != nil {
		slide := *s.Slide
		out.Slide = &slide
	}
	return out
}

// Validate checks the document's structural invariants: scene order matches
// scene indices and every reference is well formed.
func (d Document) Validate() error {
	for i, scene := range d.Scenes {
		if scene.Index != i {
			return fmt.Errorf("scene at position %d has index %d", i, scene.Index)
		}
		if scene.Audio != nil {
			if err := scene.Audio.Validate(); err != nil {
				return fmt.Errorf("scene %d audio: %w", i, err)
			}
		}
		if scene.Slide != nil {
			if err := scene.Slide.Validate(); err != nil {
				return fmt.Errorf("scene %d slide: %w", i, err)
			}
		}
	}
	for key, ref := range d.References {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("reference with empty key")
		}
		if err := ref.Validate(); err != nil {
			return fmt.Errorf("reference %q: %w", key, err)
		}
	}
	return nil
}

// Reference looks up a document-level artifact reference by key.
func (d Document) Reference(key string) (ArtifactRef, bool) {
	ref, ok := d.References[key]
	return ref, ok
}

// ReferencesWithPrefix returns the keys under the given prefix in sorted
// order, for example all "grounding/" entries.
func (d Document) ReferencesWithPrefix(prefix string) []string {
	keys := make([]string, 0, len(d.References))
	for key := range d.References {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
