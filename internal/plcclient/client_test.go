package plcclient_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/fabgitops/operator/common"
	"github.com/fabgitops/operator/internal/mockplc"
	"github.com/fabgitops/operator/internal/plcclient"
)

func startMockPLC(t *testing.T) (*mockplc.Server, string, int) {
	t.Helper()

	srv := mockplc.NewServer("127.0.0.1", mockplc.WithPort(0))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start mock PLC: %v", err)
	}
	t.Cleanup(func() { srv.Stop(context.Background()) })

	host, portStr, err := net.SplitHostPort(srv.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	return srv, host, port
}

func TestReadHoldingRoundTrip(t *testing.T) {
	srv, host, port := startMockPLC(t)
	srv.Store().Set(777)

	client := plcclient.New(host, plcclient.WithPort(port), plcclient.WithTimeout(2*time.Second))

	got, err := client.ReadHolding(context.Background(), 0)
	if err != nil {
		t.Fatalf("ReadHolding: %v", err)
	}
	if got != 777 {
		t.Fatalf("expected 777, got %d", got)
	}
}

func TestWriteHoldingRoundTrip(t *testing.T) {
	srv, host, port := startMockPLC(t)

	client := plcclient.New(host, plcclient.WithPort(port), plcclient.WithTimeout(2*time.Second))

	if err := client.WriteHolding(context.Background(), 0, 1234); err != nil {
		t.Fatalf("WriteHolding: %v", err)
	}
	if got := srv.Store().Get(); got != common.RegisterValue(1234) {
		t.Fatalf("expected store to hold 1234, got %d", got)
	}
}

func TestReachableReflectsServerState(t *testing.T) {
	srv, host, port := startMockPLC(t)

	client := plcclient.New(host, plcclient.WithPort(port), plcclient.WithTimeout(time.Second))
	if !client.Reachable(context.Background()) {
		t.Fatalf("expected reachable while server is running")
	}

	srv.Stop(context.Background())

	unreachableClient := plcclient.New(host, plcclient.WithPort(port), plcclient.WithTimeout(500*time.Millisecond))
	if unreachableClient.Reachable(context.Background()) {
		t.Fatalf("expected unreachable after server stop")
	}
}

func TestConnectErrorWhenNoServer(t *testing.T) {
	client := plcclient.New("127.0.0.1", plcclient.WithPort(1), plcclient.WithTimeout(200*time.Millisecond))

	_, err := client.ReadHolding(context.Background(), 0)
	if err == nil {
		t.Fatalf("expected error connecting to closed port")
	}
	if _, ok := err.(*plcclient.ConnectError); !ok {
		if _, ok := err.(*plcclient.TimeoutError); !ok {
			t.Fatalf("expected ConnectError or TimeoutError, got %T: %v", err, err)
		}
	}
}
