package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"reel/internal/grounding"
	"reel/internal/script"
	"reel/internal/session"
	"reel/internal/stage"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var inputFlags []string
	var sourcesFlag string
	var guidanceFlag string

	cmd := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Run one pipeline against the session document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := parseInputs(inputFlags)
			if err != nil {
				return err
			}
			if sourcesFlag != "" {
				inputs[grounding.InputSources] = sourcesFlag
			}
			if guidanceFlag != "" {
				inputs[script.InputGuidance] = guidanceFlag
			}

			return ctx.withSession(func(sess *session.Session) error {
				result, err := sess.Run(cmd.Context(), args[0], stage.Inputs(inputs))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				status := fmt.Sprintf("Pipeline %s completed in %s", result.Pipeline, result.Duration.Round(timeRounding))
				if isTerminal(out) {
					status = text.FgGreen.Sprint(status)
				}
				fmt.Fprintln(out, status)
				fmt.Fprintf(out, "Session: %s\n", sess.ID())
				fmt.Fprintf(out, "Scenes: %d, references: %d\n",
					len(result.Document.Scenes), len(result.Document.References))
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&inputFlags, "input", "i", nil, "Pipeline input as key=value (repeatable)")
	cmd.Flags().StringVar(&sourcesFlag, "sources", "", "Comma-separated source URLs for the ground pipeline")
	cmd.Flags().StringVar(&guidanceFlag, "guidance", "", "Free-form guidance for the script pipeline")
	return cmd
}

func parseInputs(pairs []string) (map[string]string, error) {
	inputs := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q: expected key=value", pair)
		}
		inputs[key] = value
	}
	return inputs, nil
}
