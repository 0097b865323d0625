package main

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/fabgitops/operator/internal/store"
)

// errInterrupted signals that a command (watch) was stopped by SIGINT and
// should exit 130, matching the spec's shell-convention exit code table.
var errInterrupted = errors.New("interrupted")

var (
	namespaceFlag  string
	outputFlag     string
	kubeconfigFlag string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fabctl",
		Short:         "Administer IndustrialPLC GitOps records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&namespaceFlag, "namespace", "default", "namespace to operate in")
	root.PersistentFlags().StringVar(&outputFlag, "output", "table", "output format: table|json|yaml")
	root.PersistentFlags().StringVar(&kubeconfigFlag, "kubeconfig", "", "path to kubeconfig (defaults to in-cluster config)")

	root.AddCommand(
		newGetStatusCmd(),
		newDescribeCmd(),
		newSyncCmd(),
		newWatchCmd(),
		newListCmd(),
		newVersionCmd(),
	)
	return root
}

// buildStore wires a K8sStore from the resolved kubeconfig, wrapping any
// adapter-construction failure with operator-facing context.
func buildStore() (store.Store, error) {
	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfigFlag)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "loading kubeconfig")
	}

	dynamicClient, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "building dynamic client")
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "building typed clientset")
	}

	return store.NewK8sStore(dynamicClient, clientset), nil
}
