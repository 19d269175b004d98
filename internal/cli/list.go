package cli

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio"
	"github.com/goliatone/go-portfolio/internal/config"
	"github.com/goliatone/go-portfolio/pkg/record"
)

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Records []record.Record `json:"records"`
	Count   int             `json:"count"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the stored records in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(rootOpts *RootOptions, cmd *cobra.Command) error {
	cfg, err := rootOpts.loadConfig(config.Overrides{})
	if err != nil {
		return err
	}
	store, backend, err := portfolio.OpenStore(cmd.Context(), cfg, rootOpts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer backend.Close()

	records := store.Records()
	if records == nil {
		records = []record.Record{}
	}
	result := ListResult{Records: records, Count: len(records)}
	return rootOpts.formatter(cmd).Render(result, "list")
}
