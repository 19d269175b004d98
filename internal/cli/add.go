package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio"
	"github.com/goliatone/go-portfolio/internal/config"
	"github.com/goliatone/go-portfolio/pkg/formgate"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	Name        string
	Email       string
	Phone       string
	Interactive bool
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Validate and append a record",
		Long: `Validate name, email and phone with the same rules as the web form and
append the record to the store. With --interactive each missing field is
prompted for and checked as it is typed; invalid flag values are asked again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "contact name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "contact phone")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "prompt for missing fields")

	return cmd
}

func runAdd(rootOpts *RootOptions, opts *AddOptions, cmd *cobra.Command) error {
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

	state := formgate.NewFormState(gate)
	state.Input(formgate.FieldName, opts.Name)
	state.Input(formgate.FieldEmail, opts.Email)
	state.Input(formgate.FieldPhone, opts.Phone)

	res, err := state.Submit(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "add record", err)
	}
	if !res.Valid() && opts.Interactive {
		driver := rootOpts.Prompt
		if driver == nil {
			driver = newSurveyDriver()
		}
		for !res.Valid() {
			if err := promptFailed(cmd.Context(), driver, gate, state); err != nil {
				return WrapExitError(ExitFailure, "prompt", err)
			}
			if res, err = state.Submit(cmd.Context()); err != nil {
				return WrapExitError(ExitCommandError, "add record", err)
			}
		}
	}
	if !res.Valid() {
		exitErr := NewExitError(ExitFailure, "record rejected")
		exitErr.Details = res.Errors.Messages()
		return exitErr
	}

	rec := *res.Record
	return rootOpts.formatter(cmd).Success(rec, func(w io.Writer) {
		fmt.Fprintf(w, "%s (id %d)\n", gate.Message(formgate.KeyAdded), rec.ID)
	})
}

// promptFailed asks again for every field the last submission rejected, in
// form order. Each answer is checked against the gate's rules as it is typed
// and replaces the field value through Input, which clears its error.
func promptFailed(ctx context.Context, driver PromptDriver, gate *formgate.Gate, state *formgate.FormState) error {
	labels := map[string]string{
		formgate.FieldName:  "form.name.label",
		formgate.FieldEmail: "form.email.label",
		formgate.FieldPhone: "form.phone.label",
	}
	for _, field := range []string{formgate.FieldName, formgate.FieldEmail, formgate.FieldPhone} {
		if !state.Errors.Has(field) {
			continue
		}
		answer, err := driver.Input(ctx, InputConfig{
			Message: gate.Message(labels[field]),
			Help:    state.Error(field),
			Validator: func(s string) error {
				errs := gate.Validate(formgate.Values{field: s})
				if fe, ok := errs[field]; ok {
					return fmt.Errorf("%s", fe.Message)
				}
				return nil
			},
		})
		if err != nil {
			return err
		}
		state.Input(field, answer)
	}
	return nil
}
