package v1

import (
	"fmt"
	"time"
)

// NewStatus returns the zero-value status a freshly created IndustrialPLC
// starts reconciliation from.
func NewStatus() IndustrialPLCStatus {
	return IndustrialPLCStatus{
		Phase:   PhasePending,
		Message: "Initializing...",
	}
}

// SetSynced records a successful read that matches the desired value.
func (s *IndustrialPLCStatus) SetSynced(value uint16) {
	s.Phase = PhaseConnected
	v := value
	s.CurrentValue = &v
	s.InSync = true
	s.LastError = ""
	s.Message = fmt.Sprintf("PLC in sync. Current value: %d", value)
	s.touch()
}

// SetDrift records a detected mismatch between the desired and actual
// register value. It increments DriftEvents on every call, so a drift that
// persists across polls is counted once per poll that observes it.
func (s *IndustrialPLCStatus) SetDrift(desired, actual uint16) {
	s.Phase = PhaseDriftDetected
	v := actual
	s.CurrentValue = &v
	s.InSync = false
	s.DriftEvents++
	s.Message = fmt.Sprintf("DRIFT DETECTED! Desired: %d, Actual: %d", desired, actual)
	s.touch()
}

// SetCorrecting marks the controller as actively writing the desired value
// back to the device.
func (s *IndustrialPLCStatus) SetCorrecting() {
	s.Phase = PhaseCorrecting
	s.Message = "Applying correction..."
	s.touch()
}

// SetCorrected records a successful write-back and folds it into a normal
// synced status, incrementing CorrectionsApplied.
func (s *IndustrialPLCStatus) SetCorrected(value uint16) {
	s.CorrectionsApplied++
	s.SetSynced(value)
}

// SetError records a reconciliation failure. The phase moves to Failed
// regardless of which step failed; the error taxonomy distinguishing retry
// delays lives in the controller, not the status.
func (s *IndustrialPLCStatus) SetError(err error) {
	s.Phase = PhaseFailed
	s.LastError = err.Error()
	s.Message = err.Error()
	s.touch()
}

func (s *IndustrialPLCStatus) touch() {
	s.LastUpdate = time.Now().UTC().Format(time.RFC3339)
}
