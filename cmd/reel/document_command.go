package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"reel/internal/document"
	"reel/internal/session"
)

func newDocumentCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "document",
		Short: "Show the session's scene document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(sess *session.Session) error {
				doc := sess.Document()
				out := cmd.OutOrStdout()

				if jsonFlag {
					encoded, err := json.MarshalIndent(doc, "", "  ")
					if err != nil {
						return fmt.Errorf("encode document: %w", err)
					}
					fmt.Fprintln(out, string(encoded))
					return nil
				}

				fmt.Fprintf(out, "Session: %s\n", sess.ID())
				if len(doc.Scenes) == 0 {
					fmt.Fprintln(out, "Document has no scenes yet; run the ground and script pipelines.")
					return nil
				}

				rows := make([][]string, 0, len(doc.Scenes))
				for _, scene := range doc.Scenes {
					rows = append(rows, []string{
						strconv.Itoa(scene.Index),
						truncate(scene.Comment, 32),
						truncate(scene.Speech, 48),
						formatDuration(scene.DurationSeconds),
						refName(scene.Audio),
						refName(scene.Slide),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Comment", "Speech", "Duration", "Audio", "Slide"}, rows))

				if len(doc.References) > 0 {
					fmt.Fprintln(out, renderTable([]string{"Reference", "Artifact"}, referenceRows(doc)))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw document as JSON")
	return cmd
}

func referenceRows(doc document.Document) [][]string {
	keys := make([]string, 0, len(doc.References))
	for key := range doc.References {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, doc.References[key].String()})
	}
	return rows
}

func refName(ref *document.ArtifactRef) string {
	if ref == nil {
		return "-"
	}
	return ref.String()
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fs", seconds)
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
