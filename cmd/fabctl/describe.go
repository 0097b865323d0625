package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe NAME",
		Short: "Fetch one record and render its metadata, spec, and status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStore()
			if err != nil {
				return err
			}

			record, err := st.Get(cmd.Context(), namespaceFlag, args[0])
			if err != nil {
				return fmt.Errorf("describe %s: %w", args[0], err)
			}

			return renderRecord(cmd.OutOrStdout(), outputFlag, record)
		},
	}
}
