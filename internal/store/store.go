// Package store provides the record-store adapter the reconciliation
// controller depends on: a thin capability surface over IndustrialPLC
// records that can be backed by a real Kubernetes API server or, for tests
// and --demo mode, an in-memory fake.
package store

import (
	"context"
	"errors"

	v1 "github.com/fabgitops/operator/api/fabgitops/v1"
)

// ErrNotFound is returned by Get when no record matches namespace/name.
var ErrNotFound = errors.New("store: record not found")

// EventType enumerates the watch.Interface-style event kinds a Watch
// stream delivers.
type EventType string

const (
	EventAdded   EventType = "Added"
	EventUpdated EventType = "Updated"
	EventDeleted EventType = "Deleted"
)

// WatchEvent is a single change delivered on a Watch channel.
type WatchEvent struct {
	Type   EventType
	Record v1.IndustrialPLC
}

// EventSeverity mirrors Kubernetes' Normal/Warning event typing.
type EventSeverity string

const (
	EventNormal  EventSeverity = "Normal"
	EventWarning EventSeverity = "Warning"
)

// StatusMerge is the status value a caller sends to PatchStatus. It is the
// full IndustrialPLCStatus: the controller sends its whole carried-forward
// status draft on every patch, not a subset of fields.
type StatusMerge = v1.IndustrialPLCStatus

// Store is the capability surface spec.md §4.3 enumerates. The controller
// depends only on this interface, never on a concrete backend.
type Store interface {
	// List returns every IndustrialPLC record in namespace.
	List(ctx context.Context, namespace string) ([]v1.IndustrialPLC, error)

	// Get fetches a single record by namespace/name. Returns ErrNotFound
	// if no such record exists.
	Get(ctx context.Context, namespace, name string) (v1.IndustrialPLC, error)

	// PatchStatus applies status as a merge patch touching only the
	// status subresource. The spec is never touched by this call.
	PatchStatus(ctx context.Context, namespace, name string, status StatusMerge) error

	// PatchAnnotations merges the given annotations into metadata.annotations.
	PatchAnnotations(ctx context.Context, namespace, name string, annotations map[string]string) error

	// Watch returns a channel of change events for namespace. The channel
	// closes when the underlying watch disconnects; callers re-list and
	// call Watch again to resume.
	Watch(ctx context.Context, namespace string) (<-chan WatchEvent, error)

	// PublishEvent records a Normal or Warning event against a record.
	// Publication is best-effort: a failure here must never change
	// reconciliation status semantics.
	PublishEvent(ctx context.Context, namespace, name string, severity EventSeverity, reason, note, action string) error
}

// ObjectKey identifies a record by namespace and name, the work queue's
// unit of coalescing.
type ObjectKey struct {
	Namespace string
	Name      string
}

func (k ObjectKey) String() string {
	if k.Namespace == "" {
		return k.Name
	}
	return k.Namespace + "/" + k.Name
}
