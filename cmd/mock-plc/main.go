// Command mock-plc runs a standalone Modbus/TCP server simulating a single
// PLC holding register, optionally drifting it on a timer via chaos mode.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/fabgitops/operator/common"
	"github.com/fabgitops/operator/internal/mockplc"
	"github.com/fabgitops/operator/logging"
)

func main() {
	bind := pflag.String("bind", "0.0.0.0", "interface to bind to")
	port := pflag.Int("port", 5502, "TCP port to listen on")
	value := pflag.Uint16("value", 2500, "initial holding register value")
	register := pflag.Uint16("register", 4001, "holding register address exposed")
	chaos := pflag.Bool("chaos", false, "periodically drift the register")
	chaosInterval := pflag.Int("chaos-interval", 10, "seconds between chaos drift events")
	maxDrift := pflag.Uint16("max-drift", 500, "maximum absolute drift per chaos event")
	debug := pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	level := common.LevelInfo
	if *debug {
		level = common.LevelDebug
	}
	logger := logging.NewLogger(logging.WithLevel(level))

	var chaosGen *mockplc.ChaosGenerator
	if *chaos {
		chaosGen = mockplc.NewChaosGenerator(
			time.Duration(*chaosInterval)*time.Second,
			*maxDrift,
			mockplc.WithChaosLogger(logger),
		)
	}

	srv := mockplc.NewServer(
		*bind,
		mockplc.WithPort(*port),
		mockplc.WithInitialValue(common.RegisterValue(*value)),
		mockplc.WithRegister(common.Address(*register)),
		mockplc.WithChaos(chaosGen),
		mockplc.WithLogger(logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info(ctx, "received shutdown signal, stopping mock PLC...")
		if err := srv.Stop(ctx); err != nil {
			logger.Error(ctx, "error stopping mock PLC: %v", err)
		}
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to start mock PLC")
	}

	<-ctx.Done()
	logger.Info(ctx, "mock PLC shutdown complete")
}
