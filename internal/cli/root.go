// Package cli implements the portfolio command line: serve the web page and
// inspect or edit the persisted contact table.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	EnvFile    string
	Store      string
	Locale     string

	// Env replaces the process environment when non-nil.
	Env map[string]string
	// Prompt drives interactive input; nil selects the survey driver.
	Prompt PromptDriver
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOption customises NewRootCommand.
type RootOption func(*RootOptions)

// WithEnv pins the environment seen by config loading.
func WithEnv(env map[string]string) RootOption {
	return func(o *RootOptions) { o.Env = env }
}

// WithPromptDriver replaces the terminal prompt driver.
func WithPromptDriver(d PromptDriver) RootOption {
	return func(o *RootOptions) { o.Prompt = d }
}

// NewRootCommand creates the root command for the portfolio CLI.
func NewRootCommand(fns ...RootOption) *cobra.Command {
	opts := &RootOptions{}
	for _, fn := range fns {
		if fn != nil {
			fn(opts)
		}
	}

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Contact table with validated form, notifications and carousel",
		Long: `Portfolio serves a server-rendered contact table backed by a key-value
store, together with a validated add form, transient notifications and an
auto-playing carousel. The list/add/delete/import commands edit the same
store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.json, .jsonc, .yaml)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file (default .env when present)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "storage DSN (memory://, file://, sqlite://, postgres://)")
	cmd.PersistentFlags().StringVar(&opts.Locale, "locale", "", "message locale (ru, en)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// loadConfig resolves configuration with the global flags applied on top of
// extra command-specific overrides.
func (o *RootOptions) loadConfig(extra config.Overrides) (config.Config, error) {
	extra.Store = firstNonEmpty(o.Store, extra.Store)
	extra.Locale = firstNonEmpty(o.Locale, extra.Locale)
	cfg, err := config.Load(config.LoadInput{
		ConfigPath: o.ConfigPath,
		EnvFile:    o.EnvFile,
		Env:        o.Env,
		Overrides:  extra,
	})
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "load config", err)
	}
	return cfg, nil
}

// logger writes structured logs to w; --verbose lowers the level to debug.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Run executes the CLI with args and returns the process exit code. Errors
// are reported on stderr, or on stdout as a JSON envelope with --format json.
func Run(args []string, stdout, stderr io.Writer, fns ...RootOption) int {
	cmd := NewRootCommand(fns...)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	format := "text"
	if flag := cmd.PersistentFlags().Lookup("format"); flag != nil && flag.Value.String() == "json" {
		format = "json"
	}
	(&OutputFormatter{Format: format, Writer: stdout, ErrWriter: stderr}).Error(err)
	return GetExitCode(err)
}
