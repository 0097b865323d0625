package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newGetStatusCmd() *cobra.Command {
	var nameFilter string

	cmd := &cobra.Command{
		Use:   "get-status",
		Short: "List records, optionally filtered by a substring of their name",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStore()
			if err != nil {
				return err
			}

			records, err := st.List(cmd.Context(), namespaceFlag)
			if err != nil {
				return err
			}

			if nameFilter != "" {
				filtered := records[:0]
				for _, r := range records {
					if strings.Contains(r.Name, nameFilter) {
						filtered = append(filtered, r)
					}
				}
				records = filtered
			}

			return renderRecords(cmd.OutOrStdout(), outputFlag, records)
		},
	}

	cmd.Flags().StringVar(&nameFilter, "name", "", "filter records by substring match on name")
	return cmd
}
