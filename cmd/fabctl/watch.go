package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var intervalSecs int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically list and render records until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := buildStore()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigChan
				cancel()
			}()

			ticker := time.NewTicker(time.Duration(intervalSecs) * time.Second)
			defer ticker.Stop()

			for {
				records, err := st.List(ctx, namespaceFlag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "--- %s ---\n", time.Now().Format(time.RFC3339))
				if err := renderRecords(cmd.OutOrStdout(), outputFlag, records); err != nil {
					return err
				}

				select {
				case <-ctx.Done():
					return errInterrupted
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().IntVar(&intervalSecs, "interval", 5, "seconds between renders")
	return cmd
}
