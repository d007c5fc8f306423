package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/insight-ledger/internal/tui"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive passbook dashboard",
		Long: `Open the full-screen dashboard: splash, sign in or register, then
browse, search and filter your transactions. With --source=sample the
dashboard runs on generated data and never touches the network.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			source, closeSource, err := a.dataSource()
			if err != nil {
				return err
			}
			defer closeSource()

			return tui.Run(cmd.Context(), tui.Config{
				Auth:    a.client,
				Source:  source,
				Session: a.session,
			})
		},
	}
}
