package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"reel/internal/session"
)

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "artifacts [name@version]",
		Short: "List session artifacts, or extract one to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(sess *session.Session) error {
				if len(args) == 1 {
					return extractArtifact(cmd, sess, args[0], outputFlag)
				}

				refs, err := sess.Artifacts().List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(refs) == 0 {
					fmt.Fprintln(out, "No artifacts stored yet.")
					return nil
				}
				rows := make([][]string, 0, len(refs))
				for _, ref := range refs {
					rows = append(rows, []string{
						ref.Name,
						strconv.FormatInt(ref.Version, 10),
						ref.MimeType,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Name", "Version", "MIME"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination file for the extracted artifact")
	return cmd
}

func extractArtifact(cmd *cobra.Command, sess *session.Session, spec, output string) error {
	ref, err := parseArtifactSpec(cmd, sess, spec)
	if err != nil {
		return err
	}
	payload, err := sess.Artifacts().Load(cmd.Context(), ref)
	if err != nil {
		return err
	}
	if output == "" {
		_, err := cmd.OutOrStdout().Write(payload)
		return err
	}
	if err := os.WriteFile(output, payload, 0o644); err != nil {
		return fmt.Errorf("write artifact to %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes) to %s\n", ref.String(), len(payload), output)
	return nil
}
