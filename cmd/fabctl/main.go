// Command fabctl is the read-only/trigger-reconcile admin CLI for
// IndustrialPLC records: get-status, describe, sync, watch, list, version.
package main

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if errors.Is(err, errInterrupted) {
			os.Exit(130)
		}
		logrus.WithError(err).Error("fabctl command failed")
		os.Exit(1)
	}
}
