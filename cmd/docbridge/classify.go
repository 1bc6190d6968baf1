package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/docbridge/internal/intent"
)

func newClassifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text...>",
		Short: "Print how a chat message would be classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := intent.Classify(strings.Join(args, " "))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(req)
		},
	}
}
