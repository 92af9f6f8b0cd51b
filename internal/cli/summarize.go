package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/equipreport/internal/core"
	"github.com/JonMunkholm/equipreport/internal/equipment"
	"github.com/spf13/cobra"
)

// summaryOutput is what summarize prints.
type summaryOutput struct {
	File    string            `json:"file" yaml:"file"`
	Summary equipment.Summary `json:"summary" yaml:"summary"`
}

// summarizeCmd validates and summarizes a CSV without storing anything.
func summarizeCmd() *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "summarize FILE",
		Short: "Validate a CSV file and print its summary (nothing is stored)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := core.Ingest(f)
			if err != nil {
				return err
			}
			summary, err := core.Summarize(rows)
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}

			return writeStructured(cmd.OutOrStdout(), format, summaryOutput{
				File:    filepath.Base(args[0]),
				Summary: summary,
			})
		},
	}

	c.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return c
}
