package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reel/internal/session"
)

func newRevisionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "revisions",
		Short: "List persisted document revisions for the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(sess *session.Session) error {
				revisions, err := sess.Revisions(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(revisions) == 0 {
					fmt.Fprintln(out, "No revisions persisted yet.")
					return nil
				}
				rows := make([][]string, 0, len(revisions))
				for _, rev := range revisions {
					rows = append(rows, []string{
						strconv.FormatInt(rev.Revision, 10),
						rev.Pipeline,
						rev.CreatedAt.Format(time.RFC3339),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Revision", "Pipeline", "Created"}, rows))
				return nil
			})
		},
	}
}
