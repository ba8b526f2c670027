package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reel/internal/session"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the readiness of every registered pipeline stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(sess *session.Session) error {
				checks := sess.Health(cmd.Context())
				rows := make([][]string, 0, len(checks))
				allReady := true
				for _, check := range checks {
					status := "ready"
					if !check.Ready {
						status = "unavailable"
						allReady = false
					}
					rows = append(rows, []string{check.Name, status, check.Detail})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"Stage", "Status", "Detail"}, rows))
				if !allReady {
					return fmt.Errorf("one or more stages are unavailable")
				}
				return nil
			})
		},
	}
}
