package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio"
	"github.com/goliatone/go-portfolio/internal/config"
	"github.com/goliatone/go-portfolio/pkg/record"
)

// ExportResult is the JSON payload of the export command when writing to a
// file.
type ExportResult struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored records as CSV",
		Long: `Write every record as CSV with an id,name,email,phone header. Without
--output the CSV goes to stdout and --format is ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, output, cmd)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default stdout)")
	return cmd
}

func runExport(rootOpts *RootOptions, output string, cmd *cobra.Command) error {
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
	if output == "" {
		if err := writeCSV(cmd.OutOrStdout(), records); err != nil {
			return WrapExitError(ExitCommandError, "export", err)
		}
		return nil
	}

	file, err := os.Create(output)
	if err != nil {
		return WrapExitError(ExitCommandError, "create export file", err)
	}
	if err := writeCSV(file, records); err != nil {
		_ = file.Close()
		return WrapExitError(ExitCommandError, "export", err)
	}
	if err := file.Close(); err != nil {
		return WrapExitError(ExitCommandError, "export", err)
	}

	result := ExportResult{Path: output, Count: len(records)}
	return rootOpts.formatter(cmd).Render(result, "export")
}

// writeCSV encodes records with a header row, which is written even when the
// collection is empty.
func writeCSV(w io.Writer, records []record.Record) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.Tag = "json"
	if err := enc.EncodeHeader(record.Record{}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record %d: %w", rec.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
