package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync NAME",
		Short: "Patch annotations to trigger a reconciliation, then describe the record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStore()
			if err != nil {
				return err
			}

			annotations := map[string]string{
				"fabgitops.io/last-sync-request": time.Now().UTC().Format(time.RFC3339),
			}
			if force {
				annotations["fabgitops.io/force-sync"] = "true"
			}

			if err := st.PatchAnnotations(cmd.Context(), namespaceFlag, args[0], annotations); err != nil {
				return err
			}

			record, err := st.Get(cmd.Context(), namespaceFlag, args[0])
			if err != nil {
				return err
			}

			return renderRecord(cmd.OutOrStdout(), outputFlag, record)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "also set the fabgitops.io/force-sync hint annotation")
	return cmd
}
