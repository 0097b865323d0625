package store

import (
	"context"
	"testing"

	v1 "github.com/fabgitops/operator/api/fabgitops/v1"
)

func TestMemStoreGetNotFound(t *testing.T) {
	s := NewMemStore()
	if _, err := s.Get(context.Background(), "default", "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStoreSeedAndList(t *testing.T) {
	s := NewMemStore()
	record := v1.IndustrialPLC{}
	record.Namespace = "default"
	record.Name = "line-1"
	record.Spec = v1.IndustrialPLCSpec{DeviceAddress: "10.0.0.5", TargetRegister: 1, TargetValue: 100}
	s.Seed(record)

	records, err := s.List(context.Background(), "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "line-1" {
		t.Fatalf("expected to find seeded record, got %+v", records)
	}
}

func TestMemStorePatchStatusAndAnnotations(t *testing.T) {
	s := NewMemStore()
	record := v1.IndustrialPLC{}
	record.Namespace = "default"
	record.Name = "line-1"
	s.Seed(record)

	status := v1.NewStatus()
	status.SetSynced(100)
	if err := s.PatchStatus(context.Background(), "default", "line-1", status); err != nil {
		t.Fatalf("PatchStatus: %v", err)
	}

	got, err := s.Get(context.Background(), "default", "line-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status.Phase != v1.PhaseConnected || !got.Status.InSync {
		t.Fatalf("expected patched status, got %+v", got.Status)
	}

	if err := s.PatchAnnotations(context.Background(), "default", "line-1", map[string]string{"fabgitops.io/last-sync-request": "now"}); err != nil {
		t.Fatalf("PatchAnnotations: %v", err)
	}
	got, _ = s.Get(context.Background(), "default", "line-1")
	if got.Annotations["fabgitops.io/last-sync-request"] != "now" {
		t.Fatalf("expected annotation to be merged, got %+v", got.Annotations)
	}
}

func TestMemStoreWatchReceivesSeedEvents(t *testing.T) {
	s := NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx, "default")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	record := v1.IndustrialPLC{}
	record.Namespace = "default"
	record.Name = "line-1"
	s.Seed(record)

	select {
	case event := <-ch:
		if event.Type != EventAdded || event.Record.Name != "line-1" {
			t.Fatalf("unexpected event: %+v", event)
		}
	default:
		t.Fatalf("expected a buffered watch event")
	}
}

func TestMemStorePublishEventRecordsCall(t *testing.T) {
	s := NewMemStore()
	if err := s.PublishEvent(context.Background(), "default", "line-1", EventWarning, "DriftDetected", "drifted", "Correct"); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}

	events := s.Events()
	if len(events) != 1 || events[0].Reason != "DriftDetected" || events[0].Severity != EventWarning {
		t.Fatalf("unexpected recorded events: %+v", events)
	}
}
