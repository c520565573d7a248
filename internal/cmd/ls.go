// SPDX-FileCopyrightText: Copyright 2025 Carabiner Systems, Inc
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type lsOptions struct {
	repoOptions
}

// Validates the options in context with arguments
func (lo *lsOptions) Validate() error {
	errs := []error{}
	if err := lo.repoOptions.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// AddFlags adds the subcommands flags
func (lo *lsOptions) AddFlags(cmd *cobra.Command) {
	lo.repoOptions.AddFlags(cmd)
}

func addLs(parentCmd *cobra.Command) {
	opts := &lsOptions{}
	lsCommand := &cobra.Command{
		Short:             "list the advisories fixed in this repository",
		Use:               "ls",
		Example:           fmt.Sprintf(`%s ls`, appname),
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

			records := mgr.FixedRecords()

			purple := lipgloss.Color("99")
			gray := lipgloss.Color("245")
			lightGray := lipgloss.Color("241")

			headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center)
			cellStyle := lipgloss.NewStyle().Padding(0, 3)
			oddRowStyle := cellStyle.Foreground(gray)
			evenRowStyle := cellStyle.Foreground(lightGray)

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(purple)).
				StyleFunc(func(row, col int) lipgloss.Style {
					switch {
					case row == table.HeaderRow:
						return headerStyle
					case row%2 == 0:
						return evenRowStyle
					default:
						return oddRowStyle
					}
				}).
				Headers("ADVISORY", "BRANCH", "PR", "FIXED AT")

			for _, rec := range records {
				pr := ""
				if rec.PrNumber != 0 {
					pr = fmt.Sprintf("#%d", rec.PrNumber)
				}
				t.Row(
					rec.GhsaID, rec.Branch, pr,
					rec.FixedAt.Local().Format("2006-01-02 15:04"),
				)
			}

			fmt.Println(t)

			return nil
		},
	}
	opts.AddFlags(lsCommand)
	parentCmd.AddCommand(lsCommand)
}
