package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio"
	"github.com/goliatone/go-portfolio/internal/config"
	"github.com/goliatone/go-portfolio/pkg/formgate"
	"github.com/goliatone/go-portfolio/pkg/record"
)

// importRow is one CSV line. An id column, as written by export, is
// accepted and ignored; imported records always get fresh ids.
type importRow struct {
	Name  string `csv:"name"`
	Email string `csv:"email"`
	Phone string `csv:"phone"`
}

// ImportResult is the JSON payload of the import command.
type ImportResult struct {
	Added    []record.Record   `json:"added"`
	Rejected map[string]string `json:"rejected,omitempty"`
	Count    int               `json:"count"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Validate and append records from CSV",
		Long: `Read name,email,phone rows (with a header line) and submit each through
the same validation as the web form. Valid rows are appended in order; the
command exits 1 when any row was rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	rows, err := parseCSV(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse CSV", err)
	}

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

	result := ImportResult{Added: []record.Record{}}
	rejected := map[string]string{}
	for i, row := range rows {
		res, err := gate.Submit(cmd.Context(), formgate.Values{
			formgate.FieldName:  row.Name,
			formgate.FieldEmail: row.Email,
			formgate.FieldPhone: row.Phone,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("import line %d", i+2), err)
		}
		if !res.Valid() {
			rejected[fmt.Sprintf("line %d", i+2)] = joinMessages(res.Errors)
			continue
		}
		result.Added = append(result.Added, *res.Record)
	}
	result.Count = store.Count()
	logger.Debug("import finished", "added", len(result.Added), "rejected", len(rejected))

	if len(rejected) > 0 {
		exitErr := NewExitError(ExitFailure,
			fmt.Sprintf("imported %d, rejected %d row(s)", len(result.Added), len(rejected)))
		exitErr.Details = rejected
		return exitErr
	}
	return rootOpts.formatter(cmd).Render(result, "import")
}

// parseCSV decodes every row of the file at path. A file with only a header
// yields no rows.
func parseCSV(path string) ([]importRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(file))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("CSV file is empty")
		}
		return nil, fmt.Errorf("failed to create CSV decoder: %w", err)
	}

	var rows []importRow
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode CSV: %w", err)
	}
	return rows, nil
}

func joinMessages(errs formgate.Errors) string {
	parts := make([]string, 0, len(errs))
	for _, field := range errs.Fields() {
		parts = append(parts, field+": "+errs[field].Message)
	}
	return strings.Join(parts, "; ")
}
