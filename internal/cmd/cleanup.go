// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

type cleanupOptions struct {
	repoOptions
}

// Validates the options in context with arguments
func (co *cleanupOptions) Validate() error {
	errs := []error{}
	if err := co.repoOptions.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AddFlags adds the subcommands flags
func (co *cleanupOptions) AddFlags(cmd *cobra.Command) {
	co.repoOptions.AddFlags(cmd)
}

func addCleanup(parentCmd *cobra.Command) {
	opts := &cleanupOptions{}
	cleanupCommand := &cobra.Command{
		Short: "reconcile the existing fix pull requests",
		Long: fmt.Sprintf(`%s cleanup: reconcile the existing fix pull requests

For each advisory, finds its fix pull requests on the remote host,
updates those that fell behind the base branch and deletes the branches
of merged ones.
`, appname),
		Use:               "cleanup GHSA-xxxx-xxxx-xxxx ...",
		Example:           fmt.Sprintf(`%s cleanup GHSA-c3h9-896r-86jm`, appname),
		Args:              cobra.MinimumNArgs(1),
		SilenceUsage:      false,
		SilenceErrors:     true,
		PersistentPreRunE: initLogging,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := opts.Validate(); err != nil {
				return err
			}

			mgr, err := opts.buildManager()
			if err != nil {
				return err
			}

			return mgr.Cleanup(cmd.Context(), args)
		},
	}
	opts.AddFlags(cleanupCommand)
	parentCmd.AddCommand(cleanupCommand)
}
