// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type outFileOptions struct {
	OutPath string
}

// Validates the options in context with arguments
func (ofo *outFileOptions) Validate() error {
	return nil
}

// AddFlags adds the subcommands flags
func (ofo *outFileOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(
		&ofo.OutPath, "out", "o", "", "path to write output (defaults to STDOUT)",
	)
}

// Writer opens the configured output. The returned closer is a noop
// when writing to STDOUT.
func (ofo *outFileOptions) Writer() (io.Writer, func() error, error) {
	if ofo.OutPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(ofo.OutPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening output file: %w", err)
	}
	return f, f.Close, nil
}
