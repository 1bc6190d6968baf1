package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/docbridge/internal/compose"
	"github.com/JaimeStill/docbridge/internal/graph"
)

func newSharePointCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sharepoint",
		Short: "Inspect the configured SharePoint document library",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list [folder]",
		Short: "List the files in a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infra, err := a.infrastructure(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if infra.SharePoint == nil {
				return graph.ErrDisabled
			}

			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}

			files, err := infra.SharePoint.ListFiles(cmd.Context(), folder)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, compose.Size(f.Size), f.ModifiedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "fetch <name>",
		Short: "Download a file into the uploads directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infra, err := a.infrastructure(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if infra.SharePoint == nil {
				return graph.ErrDisabled
			}

			if err := infra.Storage.Start(infra.Lifecycle); err != nil {
				return err
			}
			infra.Lifecycle.WaitForStartup()

			att, err := infra.SharePoint.FetchFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", att.Path, compose.Size(att.Size), att.ContentType)
			return nil
		},
	})

	return cmd
}
