// Command operator runs the FabGitOps reconciliation controller against
// either a live Kubernetes API server or, under --demo, an embedded mock
// PLC and in-memory store so the full drift-detect-and-correct loop can be
// exercised without any cluster at all.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	v1 "github.com/fabgitops/operator/api/fabgitops/v1"
	"github.com/fabgitops/operator/common"
	"github.com/fabgitops/operator/internal/controller"
	"github.com/fabgitops/operator/internal/metrics"
	"github.com/fabgitops/operator/internal/mockplc"
	"github.com/fabgitops/operator/internal/store"
	"github.com/fabgitops/operator/logging"
)

func main() {
	namespace := pflag.String("namespace", "default", "namespace to watch")
	workers := pflag.Int("workers", 1, "concurrent reconcile workers")
	metricsAddr := pflag.String("metrics-addr", ":8080", "address to serve /metrics on")
	demo := pflag.Bool("demo", false, "run against an embedded mock PLC and in-memory store instead of a real cluster")
	debug := pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	level := common.LevelInfo
	if *debug {
		level = common.LevelDebug
	}
	logger := logging.NewLogger(logging.WithLevel(level))
	reg := metrics.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	if *demo {
		st = bootstrapDemoStore(ctx, logger)
	} else {
		st = bootstrapK8sStore(logger)
	}

	ctrl := controller.New(st, reg, *namespace,
		controller.WithWorkers(*workers),
		controller.WithLogger(logger),
	)

	go serveMetrics(*metricsAddr, reg, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info(ctx, "received shutdown signal, stopping operator...")
		cancel()
	}()

	logger.Info(ctx, "starting FabGitOps operator in namespace %s", *namespace)
	if err := ctrl.Run(ctx); err != nil {
		logger.Error(ctx, "controller exited with error: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "operator shutdown complete")
}

// bootstrapDemoStore seeds an in-memory store with one IndustrialPLC
// record pointed at an embedded mock PLC, so --demo is runnable without
// any external dependency. This mirrors the original workspace bundling
// the operator and mock-plc binaries for a single local exercise.
func bootstrapDemoStore(ctx context.Context, logger common.LoggerInterface) *store.MemStore {
	mock := mockplc.NewServer("127.0.0.1", mockplc.WithPort(15020), mockplc.WithInitialValue(42), mockplc.WithLogger(logger))
	if err := mock.Start(ctx); err != nil {
		logger.Error(ctx, "failed to start embedded mock PLC: %v", err)
		os.Exit(1)
	}

	autoCorrect := true
	record := v1.IndustrialPLC{}
	record.Namespace = "default"
	record.Name = "demo-plc"
	record.Spec = v1.IndustrialPLCSpec{
		DeviceAddress:    "127.0.0.1",
		Port:             15020,
		TargetRegister:   0,
		TargetValue:      100,
		PollIntervalSecs: 5,
		AutoCorrect:      &autoCorrect,
		Tags:             []string{"demo"},
	}
	record.ApplyDefaults()

	memStore := store.NewMemStore()
	memStore.Seed(record)

	logger.Info(ctx, "demo mode: embedded mock PLC listening on 127.0.0.1:15020, managing demo-plc")
	return memStore
}

// bootstrapK8sStore wires a dynamic client and a typed clientset (for
// event publication) from in-cluster config, the conventional bootstrap
// for an operator running inside the cluster it manages.
func bootstrapK8sStore(logger common.LoggerInterface) *store.K8sStore {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load in-cluster config")
	}

	dynamicClient, err := dynamic.NewForConfig(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build dynamic client")
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build typed clientset")
	}

	return store.NewK8sStore(dynamicClient, clientset)
}

func serveMetrics(addr string, reg *metrics.Registry, logger common.LoggerInterface) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info(context.Background(), "serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error(context.Background(), "metrics server exited: %v", err)
	}
}
