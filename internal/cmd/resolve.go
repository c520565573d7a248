// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

type resolveOptions struct {
	outFileOptions
}

// Validates the options in context with arguments
func (ro *resolveOptions) Validate() error {
	errs := []error{}
	if err := ro.outFileOptions.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AddFlags adds the subcommands flags
func (ro *resolveOptions) AddFlags(cmd *cobra.Command) {
	ro.outFileOptions.AddFlags(cmd)
}

func addResolve(parentCmd *cobra.Command) {
	opts := &resolveOptions{}
	resolveCommand := &cobra.Command{
		Short: "resolve vulnerability identifiers to GHSA IDs",
		Long: fmt.Sprintf(`%s resolve: resolve vulnerability identifiers to GHSA IDs

Translates CVE IDs and package URLs to their GHSA advisories using the
OSV.dev API. GHSA IDs pass through after validation. One GHSA per line
is written to the output.
`, appname),
		Use:               "resolve CVE-YYYY-NNNN|pkg:type/name@version ...",
		Example:           fmt.Sprintf(`%s resolve CVE-2024-3094 pkg:npm/left-pad@1.3.0`, appname),
		Args:              cobra.MinimumNArgs(1),
		SilenceUsage:      false,
		SilenceErrors:     true,
		PersistentPreRunE: initLogging,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := opts.Validate(); err != nil {
				return err
			}

			mgr, err := (&repoOptions{}).buildManager()
			if err != nil {
				return err
			}

			ghsas, err := mgr.Resolve(cmd.Context(), args)
			if err != nil {
				return err
			}

			out, closer, err := opts.Writer()
			if err != nil {
				return err
			}
			defer closer()

			for _, ghsa := range ghsas {
				fmt.Fprintln(out, ghsa)
			}
			return nil
		},
	}
	opts.AddFlags(resolveCommand)
	parentCmd.AddCommand(resolveCommand)
}
