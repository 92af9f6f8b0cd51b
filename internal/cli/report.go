package cli

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/equipreport/internal/core"
	"github.com/spf13/cobra"
)

func reportCmd(opts *globalOptions) *cobra.Command {
	var output string

	c := &cobra.Command{
		Use:   "report ID",
		Short: "Render a dataset's PDF report",
		Long:  "Render a dataset's PDF report. Without -o the file is named after the source CSV, e.g. plant.csv_report.pdf. Use -o - for stdout.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			a, err := app.Service.GetArtifact(ctx, opts.owner, args[0])
			if err != nil {
				return err
			}
			rep, err := app.Service.RenderReport(ctx, a, core.DispositionAttachment)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(rep.Body)
				return err
			}
			if output == "" {
				output = rep.Filename
			}
			if err := os.WriteFile(output, rep.Body, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(rep.Body))
			return nil
		},
	}

	c.Flags().StringVarP(&output, "output", "o", "", "output path, or - for stdout")
	return c
}
