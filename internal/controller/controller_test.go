package controller

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	v1 "github.com/fabgitops/operator/api/fabgitops/v1"
	"github.com/fabgitops/operator/internal/metrics"
	"github.com/fabgitops/operator/internal/mockplc"
	"github.com/fabgitops/operator/internal/store"
)

func startMockPLC(t *testing.T, initial uint16) (*mockplc.Server, string, int) {
	t.Helper()

	srv := mockplc.NewServer("127.0.0.1", mockplc.WithPort(0), mockplc.WithInitialValue(initial))
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

func waitForPhase(t *testing.T, st *store.MemStore, namespace, name string, phase v1.Phase, timeout time.Duration) v1.IndustrialPLC {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		record, err := st.Get(context.Background(), namespace, name)
		if err == nil && record.Status.Phase == phase {
			return record
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %s", phase)
	return v1.IndustrialPLC{}
}

func TestReconcileConvergesSyncedPLC(t *testing.T) {
	_, host, port := startMockPLC(t, 100)

	st := store.NewMemStore()
	record := v1.IndustrialPLC{}
	record.Namespace = "default"
	record.Name = "line-1"
	record.Spec = v1.IndustrialPLCSpec{DeviceAddress: host, Port: int32(port), TargetRegister: 0, TargetValue: 100, PollIntervalSecs: 60}
	st.Seed(record)

	ctrl := New(st, metrics.NewRegistry(), "default", WithDialTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	final := waitForPhase(t, st, "default", "line-1", v1.PhaseConnected, 2*time.Second)
	if !final.Status.InSync {
		t.Fatalf("expected in-sync status, got %+v", final.Status)
	}
}

func TestReconcileDetectsAndCorrectsDrift(t *testing.T) {
	_, host, port := startMockPLC(t, 42)

	st := store.NewMemStore()
	record := v1.IndustrialPLC{}
	record.Namespace = "default"
	record.Name = "line-1"
	autoCorrect := true
	record.Spec = v1.IndustrialPLCSpec{
		DeviceAddress: host, Port: int32(port), TargetRegister: 0, TargetValue: 999,
		PollIntervalSecs: 60, AutoCorrect: &autoCorrect,
	}
	st.Seed(record)

	ctrl := New(st, metrics.NewRegistry(), "default", WithDialTimeout(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	final := waitForPhase(t, st, "default", "line-1", v1.PhaseConnected, 2*time.Second)
	if final.Status.CorrectionsApplied == 0 {
		t.Fatalf("expected at least one correction, got %+v", final.Status)
	}
	if final.Status.DriftEvents == 0 {
		t.Fatalf("expected at least one recorded drift event, got %+v", final.Status)
	}

	events := st.Events()
	var sawDrift, sawCorrected bool
	for _, e := range events {
		if e.Reason == "DriftDetected" {
			sawDrift = true
		}
		if e.Reason == "DriftCorrected" {
			sawCorrected = true
		}
	}
	if !sawDrift || !sawCorrected {
		t.Fatalf("expected both DriftDetected and DriftCorrected events, got %+v", events)
	}
}

func TestReconcileDriftAccumulatesAcrossTicksWithoutAutoCorrect(t *testing.T) {
	_, host, port := startMockPLC(t, 2499)

	st := store.NewMemStore()
	record := v1.IndustrialPLC{}
	record.Namespace = "default"
	record.Name = "line-1"
	autoCorrect := false
	record.Spec = v1.IndustrialPLCSpec{
		DeviceAddress: host, Port: int32(port), TargetRegister: 0, TargetValue: 2500,
		PollIntervalSecs: 60, AutoCorrect: &autoCorrect,
	}
	st.Seed(record)

	ctrl := New(st, metrics.NewRegistry(), "default", WithDialTimeout(time.Second))
	key := store.ObjectKey{Namespace: "default", Name: "line-1"}

	if err := ctrl.reconcile(context.Background(), key); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	first, err := st.Get(context.Background(), "default", "line-1")
	if err != nil {
		t.Fatalf("get after first tick: %v", err)
	}
	if first.Status.DriftEvents != 1 {
		t.Fatalf("expected drift_events=1 after first tick, got %+v", first.Status)
	}
	if first.Status.CorrectionsApplied != 0 {
		t.Fatalf("expected no corrections with auto_correct=false, got %+v", first.Status)
	}

	if err := ctrl.reconcile(context.Background(), key); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	second, err := st.Get(context.Background(), "default", "line-1")
	if err != nil {
		t.Fatalf("get after second tick: %v", err)
	}
	if second.Status.DriftEvents != 2 {
		t.Fatalf("expected drift_events=2 after a second tick with an unchanged cell, got %+v", second.Status)
	}
	if second.Status.CorrectionsApplied != 0 {
		t.Fatalf("expected no corrections with auto_correct=false, got %+v", second.Status)
	}
	if second.Status.Phase != v1.PhaseDriftDetected {
		t.Fatalf("expected phase DriftDetected to persist, got %+v", second.Status)
	}
}

func TestReconcileUnreachablePLCSetsFailedPhase(t *testing.T) {
	st := store.NewMemStore()
	record := v1.IndustrialPLC{}
	record.Namespace = "default"
	record.Name = "line-1"
	record.Spec = v1.IndustrialPLCSpec{DeviceAddress: "127.0.0.1", Port: 1, TargetRegister: 0, TargetValue: 1, PollIntervalSecs: 60}
	st.Seed(record)

	ctrl := New(st, metrics.NewRegistry(), "default", WithDialTimeout(200*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	final := waitForPhase(t, st, "default", "line-1", v1.PhaseFailed, 2*time.Second)
	if final.Status.LastError == "" {
		t.Fatalf("expected a recorded error, got %+v", final.Status)
	}
}
