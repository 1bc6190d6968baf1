package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/docbridge/internal/compose"
	"github.com/JaimeStill/docbridge/internal/render"
	"github.com/JaimeStill/docbridge/pkg/logging"
)

type renderOptions struct {
	format string
	in     string
	out    string
	title  string
}

func newRenderCommand(a *app) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a markdown text file as a branded PDF or Word document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, a, afero.NewOsFs(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "pdf", "output format: pdf or docx")
	cmd.Flags().StringVar(&opts.in, "in", "", "input text file")
	cmd.Flags().StringVar(&opts.out, "out", "", "output path (default: generated file name in the current directory)")
	cmd.Flags().StringVar(&opts.title, "title", "", "document title (default: input file name)")
	cmd.MarkFlagRequired("in")

	return cmd
}

func runRender(cmd *cobra.Command, a *app, fs afero.Fs, opts *renderOptions) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	text, err := afero.ReadFile(fs, opts.in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	title := opts.title
	if title == "" {
		base := filepath.Base(opts.in)
		title = base[:len(base)-len(filepath.Ext(base))]
	}

	logger := slog.New(logging.NewHandler(&a.cfg.Logging, cmd.ErrOrStderr()))
	renderer := render.New(fs, logger)

	doc, err := renderer.Render(cmd.Context(), render.FromMarkdown(title, string(text)), format, a.cfg.Branding)
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = doc.Filename
	}
	if err := afero.WriteFile(fs, out, doc.Data, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	for _, w := range doc.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %d pages)\n", out, compose.Size(doc.Size()), doc.Pages)
	return nil
}
