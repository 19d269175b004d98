package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-portfolio"
	"github.com/goliatone/go-portfolio/internal/config"
)

// DeleteResult is the JSON payload of the delete command.
type DeleteResult struct {
	Deleted []int `json:"deleted"`
	Missing []int `json:"missing"`
	Skipped []int `json:"skipped"`
	Count   int   `json:"count"`
}

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	Interactive bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{}

	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Remove records by id; unknown ids are ignored",
		Long: `Remove the given records. Unknown ids are reported and ignored. With
--interactive each existing record is shown and deleted only once confirmed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, opts, args, cmd)
		},
	}
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "confirm each deletion")
	return cmd
}

func runDelete(rootOpts *RootOptions, opts *DeleteOptions, args []string, cmd *cobra.Command) error {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid id %q", arg), err)
		}
		ids = append(ids, id)
	}

	cfg, err := rootOpts.loadConfig(config.Overrides{})
	if err != nil {
		return err
	}
	store, backend, err := portfolio.OpenStore(cmd.Context(), cfg, rootOpts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer backend.Close()

	var driver PromptDriver
	if opts.Interactive {
		if driver = rootOpts.Prompt; driver == nil {
			driver = newSurveyDriver()
		}
	}

	result := DeleteResult{Deleted: []int{}, Missing: []int{}, Skipped: []int{}}
	for _, id := range ids {
		rec, ok := store.Get(id)
		if ok && driver != nil {
			confirmed, err := driver.Confirm(cmd.Context(), ConfirmConfig{
				Message: fmt.Sprintf("Delete record %d (%s, %s)?", rec.ID, rec.Name, rec.Email),
			})
			if err != nil {
				return WrapExitError(ExitFailure, "prompt", err)
			}
			if !confirmed {
				result.Skipped = append(result.Skipped, id)
				continue
			}
		}
		removed, err := store.Delete(cmd.Context(), id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("delete %d", id), err)
		}
		if removed {
			result.Deleted = append(result.Deleted, id)
		} else {
			result.Missing = append(result.Missing, id)
		}
	}
	result.Count = store.Count()

	return rootOpts.formatter(cmd).Render(result, "delete")
}
