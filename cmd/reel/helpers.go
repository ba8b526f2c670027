package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reel/internal/document"
	"reel/internal/session"
)

const timeRounding = 10 * time.Millisecond

// parseArtifactSpec resolves "name@version" to a concrete reference. A bare
// name resolves to the newest stored version.
func parseArtifactSpec(cmd *cobra.Command, sess *session.Session, spec string) (document.ArtifactRef, error) {
	name, versionText, hasVersion := strings.Cut(spec, "@")
	name = strings.TrimSpace(name)
	if name == "" {
		return document.ArtifactRef{}, fmt.Errorf("invalid artifact %q: expected name or name@version", spec)
	}

	refs, err := sess.Artifacts().List(cmd.Context())
	if err != nil {
		return document.ArtifactRef{}, err
	}

	if hasVersion {
		version, err := strconv.ParseInt(strings.TrimSpace(versionText), 10, 64)
		if err != nil {
			return document.ArtifactRef{}, fmt.Errorf("invalid artifact version %q", versionText)
		}
		for _, ref := range refs {
			if ref.Name == name && ref.Version == version {
				return ref, nil
			}
		}
		return document.ArtifactRef{}, fmt.Errorf("artifact %s@%d not found", name, version)
	}

	var latest document.ArtifactRef
	for _, ref := range refs {
		if ref.Name == name && ref.Version > latest.Version {
			latest = ref
		}
	}
	if latest.IsZero() {
		return document.ArtifactRef{}, fmt.Errorf("artifact %q not found", name)
	}
	return latest, nil
}
