package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio"
	"github.com/goliatone/go-portfolio/internal/config"
	"github.com/goliatone/go-portfolio/pkg/formgate"
)

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Store   string                    `json:"store"`
	Key     string                    `json:"key"`
	Count   int                       `json:"count"`
	Sources []string                  `json:"sources,omitempty"`
	Invalid map[int]map[string]string `json:"invalid,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and stored records",
		Long: `Resolve configuration, open the store and re-run the form rules over
every stored record. Records written before a rule change are reported but
not modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd)
		},
	}
}

func runCheck(rootOpts *RootOptions, cmd *cobra.Command) error {
	cfg, err := rootOpts.loadConfig(config.Overrides{})
	if err != nil {
		return err
	}
	logger := rootOpts.logger(cmd.ErrOrStderr())
	store, backend, err := portfolio.OpenStore(cmd.Context(), cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer backend.Close()

	gate, err := formgate.New(store, formgate.WithLocale(cfg.Locale), formgate.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "build validator", err)
	}

	result := CheckResult{
		Store:   cfg.Store,
		Key:     store.Key(),
		Count:   store.Count(),
		Sources: cfg.Sources,
	}
	for _, rec := range store.Records() {
		errs := gate.Validate(formgate.Values{
			formgate.FieldName:  rec.Name,
			formgate.FieldEmail: rec.Email,
			formgate.FieldPhone: rec.Phone,
		})
		if len(errs) == 0 {
			continue
		}
		if result.Invalid == nil {
			result.Invalid = make(map[int]map[string]string)
		}
		result.Invalid[rec.ID] = errs.Messages()
	}

	return rootOpts.formatter(cmd).Success(result, func(w io.Writer) {
		fmt.Fprintln(w, store.Summary())
		for _, src := range result.Sources {
			fmt.Fprintf(w, "config: %s\n", src)
		}
		for _, rec := range store.Records() {
			fields, ok := result.Invalid[rec.ID]
			if !ok {
				continue
			}
			for _, field := range sortedKeys(fields) {
				fmt.Fprintf(w, "record %d: %s: %s\n", rec.ID, field, fields[field])
			}
		}
		if len(result.Invalid) == 0 {
			fmt.Fprintln(w, "all records valid")
		}
	})
}
