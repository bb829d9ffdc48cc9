// Package cli is the notely command line. With no subcommand it starts the
// interactive editor; subcommands work on notes directly.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"notely/internal/app"
	"notely/internal/config"
	"notely/internal/logs"
)

// TUIFunc runs the interactive editor until the user quits
type TUIFunc func(ctx context.Context, cfg *config.Config, s *app.Store) error

// env is the state shared by every command of one invocation
type env struct {
	flags config.CLIFlags
	cfg   *config.Config
}

// Run executes the CLI with the given arguments and returns the exit code.
func Run(args []string, runTUI TUIFunc) int {
	return run(args, runTUI, os.Stdout, os.Stderr)
}

func run(args []string, runTUI TUIFunc, stdout, stderr io.Writer) int {
	cmd := NewRootCmd(runTUI)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree
func NewRootCmd(runTUI TUIFunc) *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "notely",
		Short: "Terminal notes editor with autosave",
		Long: `notely keeps a list of notes in a remote table (PostgREST/Supabase,
Postgres) or a local SQLite file. Running notely without a command opens the
editor; edits are saved automatically after a short pause.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.EnsureConfigFile(); err != nil {
				logs.Logger.Warn().Err(err).Msg("could not create config file")
			}
			s, err := app.OpenStore(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			logs.Logger.Info().Str("backend", s.Backend).Msg("starting TUI")
			return runTUI(cmd.Context(), e.cfg, s)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.flags.ConfigPath, "config", "", "Config file (default ~/.config/notely/config.yaml)")
	pf.StringVarP(&e.flags.Backend, "backend", "b", "", "Store backend: sqlite, postgres, postgrest, memory")
	pf.StringVar(&e.flags.URL, "url", "", "PostgREST/Supabase project URL")
	pf.StringVar(&e.flags.Key, "key", "", "PostgREST/Supabase API key")
	pf.StringVar(&e.flags.DatabaseURL, "database-url", "", "Postgres connection string")
	pf.StringVar(&e.flags.Theme, "theme", "", "Color theme: dark or light")

	root.AddCommand(
		newListCmd(e),
		newNewCmd(e),
		newShowCmd(e),
		newEditCmd(e),
		newRmCmd(e),
		newExportCmd(e),
		newImportCmd(e),
	)
	return root
}

// load reads the configuration and moves the log file next to it
func (e *env) load() error {
	cfg, err := config.Load(e.flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.cfg = cfg

	if err := logs.Initialize(cfg.Dir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not initialize logger: %v\n", err)
	}
	logs.SetLevel(cfg.LogLevel)
	return nil
}

func (e *env) open(ctx context.Context) (*app.Store, error) {
	return app.OpenStore(ctx, e.cfg)
}
