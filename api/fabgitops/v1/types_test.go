package v1

import (
	"errors"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	plc := &IndustrialPLC{
		Spec: IndustrialPLCSpec{DeviceAddress: "10.0.0.5", TargetRegister: 40001, TargetValue: 100},
	}

	plc.ApplyDefaults()

	if plc.Spec.Port != DefaultPort {
		t.Fatalf("expected default port %d, got %d", DefaultPort, plc.Spec.Port)
	}
	if plc.Spec.PollIntervalSecs != DefaultPollIntervalSec {
		t.Fatalf("expected default poll interval %d, got %d", DefaultPollIntervalSec, plc.Spec.PollIntervalSecs)
	}
	if !plc.Spec.AutoCorrectEnabled() {
		t.Fatalf("expected auto-correct to default to true")
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	disabled := false
	plc := &IndustrialPLC{
		Spec: IndustrialPLCSpec{
			DeviceAddress:    "10.0.0.5",
			Port:             1502,
			PollIntervalSecs: 30,
			AutoCorrect:      &disabled,
		},
	}

	plc.ApplyDefaults()

	if plc.Spec.Port != 1502 {
		t.Fatalf("expected explicit port to survive, got %d", plc.Spec.Port)
	}
	if plc.Spec.PollIntervalSecs != 30 {
		t.Fatalf("expected explicit poll interval to survive, got %d", plc.Spec.PollIntervalSecs)
	}
	if plc.Spec.AutoCorrectEnabled() {
		t.Fatalf("expected explicit auto-correct=false to survive")
	}
}

func TestStatusTransitions(t *testing.T) {
	status := NewStatus()
	if status.Phase != PhasePending {
		t.Fatalf("expected initial phase Pending, got %s", status.Phase)
	}

	status.SetDrift(100, 85)
	if status.Phase != PhaseDriftDetected || status.DriftEvents != 1 || status.InSync {
		t.Fatalf("unexpected status after SetDrift: %+v", status)
	}

	status.SetCorrecting()
	if status.Phase != PhaseCorrecting {
		t.Fatalf("expected phase Correcting, got %s", status.Phase)
	}

	status.SetCorrected(100)
	if status.Phase != PhaseConnected || status.CorrectionsApplied != 1 || !status.InSync {
		t.Fatalf("unexpected status after SetCorrected: %+v", status)
	}
	if status.CurrentValue == nil || *status.CurrentValue != 100 {
		t.Fatalf("expected current value 100, got %v", status.CurrentValue)
	}

	status.SetError(errors.New("connect: dial tcp: timeout"))
	if status.Phase != PhaseFailed || status.LastError == "" {
		t.Fatalf("unexpected status after SetError: %+v", status)
	}
}

func TestDeepCopyIsIndependent(t *testing.T) {
	autoCorrect := true
	original := &IndustrialPLC{
		Spec: IndustrialPLCSpec{
			DeviceAddress: "10.0.0.5",
			Tags:          []string{"line-1"},
			AutoCorrect:   &autoCorrect,
		},
	}

	copied := original.DeepCopyObject().(*IndustrialPLC)
	copied.Spec.Tags[0] = "line-2"
	*copied.Spec.AutoCorrect = false

	if original.Spec.Tags[0] != "line-1" {
		t.Fatalf("deep copy mutated original tags")
	}
	if !*original.Spec.AutoCorrect {
		t.Fatalf("deep copy mutated original AutoCorrect")
	}
}
