package store

import (
	"context"
	"sync"

	v1 "github.com/fabgitops/operator/api/fabgitops/v1"
)

// MemStore is an in-memory Store, used by cmd/operator --demo and by
// every package's tests to exercise the full reconciliation loop (against
// internal/mockplc) without a real API server.
type MemStore struct {
	mutex   sync.RWMutex
	records map[ObjectKey]v1.IndustrialPLC
	watches []chan WatchEvent
	events  []PublishedEvent
}

// PublishedEvent records a call to PublishEvent, inspectable by tests.
type PublishedEvent struct {
	Key      ObjectKey
	Severity EventSeverity
	Reason   string
	Note     string
	Action   string
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[ObjectKey]v1.IndustrialPLC)}
}

// Seed inserts or replaces a record directly, bypassing the merge-patch
// semantics real mutation paths use. Used to set up test fixtures and
// --demo mode's single managed PLC.
func (m *MemStore) Seed(record v1.IndustrialPLC) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := ObjectKey{Namespace: record.Namespace, Name: record.Name}
	_, existed := m.records[key]
	m.records[key] = record

	evtType := EventAdded
	if existed {
		evtType = EventUpdated
	}
	m.broadcastLocked(WatchEvent{Type: evtType, Record: record})
}

// List implements Store.
func (m *MemStore) List(ctx context.Context, namespace string) ([]v1.IndustrialPLC, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []v1.IndustrialPLC
	for key, record := range m.records {
		if namespace == "" || key.Namespace == namespace {
			out = append(out, record)
		}
	}
	return out, nil
}

// Get implements Store.
func (m *MemStore) Get(ctx context.Context, namespace, name string) (v1.IndustrialPLC, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	record, ok := m.records[ObjectKey{Namespace: namespace, Name: name}]
	if !ok {
		return v1.IndustrialPLC{}, ErrNotFound
	}
	return record, nil
}

// PatchStatus implements Store.
func (m *MemStore) PatchStatus(ctx context.Context, namespace, name string, status StatusMerge) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := ObjectKey{Namespace: namespace, Name: name}
	record, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}
	record.Status = status
	m.records[key] = record
	m.broadcastLocked(WatchEvent{Type: EventUpdated, Record: record})
	return nil
}

// PatchAnnotations implements Store.
func (m *MemStore) PatchAnnotations(ctx context.Context, namespace, name string, annotations map[string]string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := ObjectKey{Namespace: namespace, Name: name}
	record, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}
	if record.Annotations == nil {
		record.Annotations = make(map[string]string, len(annotations))
	}
	for k, v := range annotations {
		record.Annotations[k] = v
	}
	m.records[key] = record
	m.broadcastLocked(WatchEvent{Type: EventUpdated, Record: record})
	return nil
}

// Watch implements Store. The returned channel is closed once ctx is done;
// there is no simulated disconnect, since nothing in this process ever
// drops the in-memory subscription involuntarily.
func (m *MemStore) Watch(ctx context.Context, namespace string) (<-chan WatchEvent, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	ch := make(chan WatchEvent, 64)
	m.watches = append(m.watches, ch)

	go func() {
		<-ctx.Done()
		m.mutex.Lock()
		defer m.mutex.Unlock()
		for i, w := range m.watches {
			if w == ch {
				m.watches = append(m.watches[:i], m.watches[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

// PublishEvent implements Store by recording the event for later
// inspection; nothing is actually broadcast anywhere.
func (m *MemStore) PublishEvent(ctx context.Context, namespace, name string, severity EventSeverity, reason, note, action string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.events = append(m.events, PublishedEvent{
		Key:      ObjectKey{Namespace: namespace, Name: name},
		Severity: severity,
		Reason:   reason,
		Note:     note,
		Action:   action,
	})
	return nil
}

// Events returns every event published so far, for test assertions.
func (m *MemStore) Events() []PublishedEvent {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]PublishedEvent(nil), m.events...)
}

func (m *MemStore) broadcastLocked(event WatchEvent) {
	for _, ch := range m.watches {
		select {
		case ch <- event:
		default:
		}
	}
}
