// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

type fixOptions struct {
	repoOptions
}

// Validates the options in context with arguments
func (fo *fixOptions) Validate() error {
	errs := []error{}
	if err := fo.repoOptions.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AddFlags adds the subcommands flags
func (fo *fixOptions) AddFlags(cmd *cobra.Command) {
	fo.repoOptions.AddFlags(cmd)
}

func addFix(parentCmd *cobra.Command) {
	opts := &fixOptions{}
	fixCommand := &cobra.Command{
		Short: "open fix pull requests for security advisories",
		Long: fmt.Sprintf(`%s fix: open fix pull requests for security advisories

Takes one or more vulnerability identifiers (GHSA IDs, CVE IDs or
package URLs), resolves them to GHSA advisories and opens a fix pull
request for each one that does not already have one. Fixed advisories
are recorded in the repository ledger so reruns are idempotent.

Outside of a CI environment the command only reports what it would fix.
`, appname),
		Use:               "fix GHSA-xxxx-xxxx-xxxx|CVE-YYYY-NNNN|pkg:type/name@version ...",
		Example:           fmt.Sprintf(`%s fix GHSA-c3h9-896r-86jm CVE-2024-3094`, appname),
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

			return mgr.Fix(cmd.Context(), args)
		},
	}
	opts.AddFlags(fixCommand)
	parentCmd.AddCommand(fixCommand)
}
