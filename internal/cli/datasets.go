package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/JonMunkholm/equipreport/internal/equipment"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

func ingestCmd(opts *globalOptions) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Validate a CSV file and store it as a new dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			app, ctx, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Service.Ingest(ctx, opts.owner, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}

			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			if format != "text" {
				return writeStructured(cmd.OutOrStdout(), format, res)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stored %s (%d rows, %d types)\n", res.Dataset.ID, res.Dataset.EntryCount, res.Dataset.Summary.TotalTypes)
			for _, id := range res.Evicted {
				fmt.Fprintf(out, "evicted %s\n", id)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return c
}

func listCmd(opts *globalOptions) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "list",
		Short: "List stored datasets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, ctx, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			list, err := app.Service.ListArtifacts(ctx, opts.owner)
			if err != nil {
				return err
			}
			if format != "table" {
				if list == nil {
					list = []equipment.ArtifactSummary{}
				}
				return writeStructured(cmd.OutOrStdout(), format, list)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILENAME\tUPLOADED\tROWS\tTYPES")
			for _, a := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
					a.ID, a.Filename, a.CreatedAt.Local().Format(timeLayout), a.EntryCount, a.Summary.TotalTypes)
			}
			return tw.Flush()
		},
	}

	c.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json or yaml")
	return c
}

func showCmd(opts *globalOptions) *cobra.Command {
	var format string
	var withRows bool

	c := &cobra.Command{
		Use:   "show ID",
		Short: "Print one dataset's summary, and optionally its rows",
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
			if !withRows {
				return writeStructured(cmd.OutOrStdout(), format, a.ArtifactSummary)
			}
			return writeStructured(cmd.OutOrStdout(), format, a)
		},
	}

	c.Flags().StringVarP(&format, "format", "f", "yaml", "output format: json or yaml")
	c.Flags().BoolVar(&withRows, "rows", false, "include the data rows")
	return c
}

func deleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ctx, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Service.DeleteArtifact(ctx, opts.owner, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
