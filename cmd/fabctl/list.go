package main

import (
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Compact one-line-per-record rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStore()
			if err != nil {
				return err
			}

			records, err := st.List(cmd.Context(), namespaceFlag)
			if err != nil {
				return err
			}

			renderList(cmd.OutOrStdout(), records)
			return nil
		},
	}
}
