package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio"
	"github.com/goliatone/go-portfolio/internal/config"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Listen        string
	BasePath      string
	Theme         string
	ThemeVariant  string
	CorruptPolicy string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the portfolio page and JSON API",
		Long: `Serve the server-rendered page, the JSON API under /api and the
embedded assets. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Listen, "listen", "l", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&opts.BasePath, "base-path", "", "mount path for the page and API")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "theme name")
	cmd.Flags().StringVar(&opts.ThemeVariant, "theme-variant", "", "theme variant (e.g. dark)")
	cmd.Flags().StringVar(&opts.CorruptPolicy, "corrupt-policy", "", "fail or reseed when stored data is corrupt")

	return cmd
}

func runServe(ctx context.Context, rootOpts *RootOptions, opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := rootOpts.loadConfig(config.Overrides{
		Listen:        opts.Listen,
		BasePath:      opts.BasePath,
		Theme:         opts.Theme,
		ThemeVariant:  opts.ThemeVariant,
		CorruptPolicy: opts.CorruptPolicy,
	})
	if err != nil {
		return err
	}

	logger := rootOpts.logger(cmd.ErrOrStderr())
	app, err := portfolio.New(ctx, cfg, portfolio.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "start portfolio", err)
	}
	defer app.Close()

	rootOpts.formatter(cmd).VerboseLog("serving %s on %s (store %s)", cfg.BasePath, cfg.Listen, cfg.Store)
	if err := app.ListenAndServe(ctx); err != nil {
		return WrapExitError(ExitCommandError, "serve", err)
	}
	return nil
}
