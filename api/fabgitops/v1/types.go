// Package v1 defines the IndustrialPLC custom resource: the GitOps-managed
// desired state of a single PLC register and the status the controller
// reports back after reconciling it against the live device.
package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GroupName is the API group this resource is registered under.
const GroupName = "fabgitops.io"

// GroupVersion identifies this package's schema.GroupVersion.
var GroupVersion = schema.GroupVersion{Group: GroupName, Version: "v1"}

// Resource returns a GroupResource for the given resource name.
func Resource(resource string) schema.GroupResource {
	return GroupVersion.WithResource(resource).GroupResource()
}

// Kind is the CRD's kind name.
const Kind = "IndustrialPLC"

// Plural is the CRD's plural resource name, used by dynamic clients.
const Plural = "industrialplcs"

// Phase enumerates the reconciliation state machine a PLC moves through.
type Phase string

const (
	PhasePending       Phase = "Pending"
	PhaseConnecting    Phase = "Connecting"
	PhaseConnected     Phase = "Connected"
	PhaseDriftDetected Phase = "DriftDetected"
	PhaseCorrecting    Phase = "Correcting"
	PhaseFailed        Phase = "Failed"
)

// Default values applied by ApplyDefaults when the corresponding spec
// field is left at its zero value.
const (
	DefaultPort            = 502
	DefaultPollIntervalSec = 5
	DefaultAutoCorrect     = true
)

// IndustrialPLCSpec is the desired state of a single PLC holding register,
// declared by a GitOps pipeline.
type IndustrialPLCSpec struct {
	// DeviceAddress is the IP address or hostname of the PLC.
	DeviceAddress string `json:"deviceAddress"`

	// Port is the Modbus/TCP port. Defaults to 502.
	Port int32 `json:"port,omitempty"`

	// TargetRegister is the holding register address to monitor/control.
	TargetRegister uint16 `json:"targetRegister"`

	// TargetValue is the desired value for TargetRegister.
	TargetValue uint16 `json:"targetValue"`

	// PollIntervalSecs is how often the controller resyncs against the
	// device absent any triggering event. Defaults to 5.
	PollIntervalSecs int64 `json:"pollIntervalSecs,omitempty"`

	// AutoCorrect enables writing TargetValue back to the device when
	// drift is detected. Defaults to true.
	AutoCorrect *bool `json:"autoCorrect,omitempty"`

	// Tags categorize the resource; carried through untouched by the
	// controller, surfaced by fabctl for filtering.
	Tags []string `json:"tags,omitempty"`
}

// IndustrialPLCStatus is the controller-owned status subresource.
type IndustrialPLCStatus struct {
	// Phase is the current point in the reconciliation state machine.
	Phase Phase `json:"phase,omitempty"`

	// LastUpdate is the RFC3339 timestamp of the last status mutation.
	LastUpdate string `json:"lastUpdate,omitempty"`

	// CurrentValue is the register value last read from the device.
	CurrentValue *uint16 `json:"currentValue,omitempty"`

	// InSync is true when CurrentValue matches spec.targetValue.
	InSync bool `json:"inSync"`

	// DriftEvents counts every detected mismatch since creation.
	DriftEvents uint32 `json:"driftEvents"`

	// CorrectionsApplied counts every successful write-back since creation.
	CorrectionsApplied uint32 `json:"correctionsApplied"`

	// LastError holds the most recent reconciliation error, if any.
	LastError string `json:"lastError,omitempty"`

	// Message is a short human-readable summary of Phase.
	Message string `json:"message,omitempty"`
}

// IndustrialPLC is the CRD's Go representation: a single namespaced PLC
// register managed via GitOps.
type IndustrialPLC struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   IndustrialPLCSpec   `json:"spec"`
	Status IndustrialPLCStatus `json:"status,omitempty"`
}

// IndustrialPLCList is a list of IndustrialPLC resources, as returned by
// List calls against the API server.
type IndustrialPLCList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`

	Items []IndustrialPLC `json:"items"`
}

// DeepCopyObject implements runtime.Object, required for use with
// client-go's dynamic and typed clients alike.
func (p *IndustrialPLC) DeepCopyObject() runtime.Object {
	if p == nil {
		return nil
	}
	out := new(IndustrialPLC)
	*out = *p
	out.ObjectMeta = *p.ObjectMeta.DeepCopy()
	out.Spec = p.Spec.DeepCopy()
	out.Status = p.Status.DeepCopy()
	return out
}

// DeepCopyObject implements runtime.Object for list responses.
func (l *IndustrialPLCList) DeepCopyObject() runtime.Object {
	if l == nil {
		return nil
	}
	out := new(IndustrialPLCList)
	*out = *l
	out.ListMeta = *l.ListMeta.DeepCopy()
	if l.Items != nil {
		out.Items = make([]IndustrialPLC, len(l.Items))
		for i := range l.Items {
			out.Items[i] = *l.Items[i].DeepCopyObject().(*IndustrialPLC)
		}
	}
	return out
}

// DeepCopy returns a deep copy of the spec, taking care of the Tags slice
// and AutoCorrect pointer.
func (s IndustrialPLCSpec) DeepCopy() IndustrialPLCSpec {
	out := s
	if s.Tags != nil {
		out.Tags = append([]string(nil), s.Tags...)
	}
	if s.AutoCorrect != nil {
		v := *s.AutoCorrect
		out.AutoCorrect = &v
	}
	return out
}

// DeepCopy returns a deep copy of the status, taking care of the
// CurrentValue pointer.
func (s IndustrialPLCStatus) DeepCopy() IndustrialPLCStatus {
	out := s
	if s.CurrentValue != nil {
		v := *s.CurrentValue
		out.CurrentValue = &v
	}
	return out
}

// ApplyDefaults fills in zero-valued spec fields with their documented
// defaults. Mirrors the `#[serde(default = "...")]` fields the schema this
// resource was distilled from declares on Port, PollIntervalSecs and
// AutoCorrect.
func (p *IndustrialPLC) ApplyDefaults() {
	if p.Spec.Port == 0 {
		p.Spec.Port = DefaultPort
	}
	if p.Spec.PollIntervalSecs == 0 {
		p.Spec.PollIntervalSecs = DefaultPollIntervalSec
	}
	if p.Spec.AutoCorrect == nil {
		v := DefaultAutoCorrect
		p.Spec.AutoCorrect = &v
	}
}

// AutoCorrectEnabled reports the effective AutoCorrect value, treating an
// absent field as the default of true.
func (s IndustrialPLCSpec) AutoCorrectEnabled() bool {
	if s.AutoCorrect == nil {
		return DefaultAutoCorrect
	}
	return *s.AutoCorrect
}
