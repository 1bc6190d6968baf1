package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/docbridge/internal/config"
	"github.com/JaimeStill/docbridge/internal/infrastructure"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	envFile    string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "docbridge",
		Short: "SharePoint import and document export for OpenWebUI chats",
		Long: `docbridge intercepts OpenWebUI chat turns. It imports files from a SharePoint
document library into the conversation and exports conversations as branded
PDF or Word documents.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.BaseConfigFile, "path to the base configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before configuration")

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newClassifyCommand(a))
	root.AddCommand(newRenderCommand(a))
	root.AddCommand(newSharePointCommand(a))

	return root
}

// load reads the dotenv file, then the configuration. A missing dotenv file is ignored.
func (a *app) load(cmd *cobra.Command, args []string) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			return err
		}
		cfg = &config.Config{}
	}

	if err := cfg.Finalize(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	a.cfg = cfg
	return nil
}

// infrastructure builds the shared systems for a one-shot command. Logs go to
// stderr so command output stays clean.
func (a *app) infrastructure(w io.Writer) (*infrastructure.Infrastructure, error) {
	if w == nil {
		w = os.Stderr
	}
	return infrastructure.New(a.cfg, w)
}
