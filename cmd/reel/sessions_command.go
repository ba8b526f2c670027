package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	return fmt.Sprintf("%d KiB", (info.Size()+1023)/1024)
}

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions present in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := os.ReadDir(cfg.SessionsDir())
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet.")
					return nil
				}
				return fmt.Errorf("read sessions directory: %w", err)
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				dir := cfg.SessionDir(entry.Name())
				rows = append(rows, []string{
					entry.Name(),
					fileSize(filepath.Join(dir, "document.db")),
					fileSize(filepath.Join(dir, "artifacts.db")),
				})
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No sessions yet.")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Session", "Document DB", "Artifact DB"}, rows))
			return nil
		},
	}
}
