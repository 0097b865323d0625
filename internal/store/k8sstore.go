package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	typedcorev1 "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/client-go/tools/record"

	v1 "github.com/fabgitops/operator/api/fabgitops/v1"
)

// controllerName is the event-recorder source component name, stable
// across restarts as spec.md §9 requires.
const controllerName = "fabgitops-operator"

// gvr identifies the IndustrialPLC custom resource for the dynamic client.
var gvr = schema.GroupVersionResource{Group: v1.GroupName, Version: "v1", Resource: v1.Plural}

// K8sStore implements Store against a live Kubernetes API server. It uses
// a dynamic client rather than a generated clientset for the custom
// resource, the same unstructured-conversion pattern real operators in
// this ecosystem reach for when they haven't generated a typed client for
// their CRD, plus a typed clientset purely to publish core/v1 Events.
type K8sStore struct {
	dynamicClient dynamic.Interface
	recorder      record.EventRecorder
}

// NewK8sStore wires a dynamic client for the IndustrialPLC resource and an
// event recorder backed by the given typed clientset's core/v1 Events API.
func NewK8sStore(dynamicClient dynamic.Interface, clientset kubernetes.Interface) *K8sStore {
	broadcaster := record.NewBroadcaster()
	broadcaster.StartRecordingToSink(&typedcorev1.EventSinkImpl{
		Interface: clientset.CoreV1().Events(""),
	})

	source := corev1.EventSource{
		Component: controllerName,
		Host:      uuid.NewString(),
	}
	recorder := broadcaster.NewRecorder(scheme.Scheme, source)

	return &K8sStore{dynamicClient: dynamicClient, recorder: recorder}
}

func toRecord(obj *unstructured.Unstructured) (v1.IndustrialPLC, error) {
	var record v1.IndustrialPLC
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &record); err != nil {
		return v1.IndustrialPLC{}, errors.Wrap(err, "convert unstructured to IndustrialPLC")
	}
	return record, nil
}

// List implements Store.
func (s *K8sStore) List(ctx context.Context, namespace string) ([]v1.IndustrialPLC, error) {
	list, err := s.dynamicClient.Resource(gvr).Namespace(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "list IndustrialPLC")
	}

	out := make([]v1.IndustrialPLC, 0, len(list.Items))
	for i := range list.Items {
		record, err := toRecord(&list.Items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// Get implements Store.
func (s *K8sStore) Get(ctx context.Context, namespace, name string) (v1.IndustrialPLC, error) {
	obj, err := s.dynamicClient.Resource(gvr).Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return v1.IndustrialPLC{}, ErrNotFound
		}
		return v1.IndustrialPLC{}, errors.Wrapf(err, "get IndustrialPLC %s/%s", namespace, name)
	}
	return toRecord(obj)
}

// PatchStatus implements Store as a merge patch against the status
// subresource only; the spec is never touched.
func (s *K8sStore) PatchStatus(ctx context.Context, namespace, name string, status StatusMerge) error {
	body, err := statusMergePatch(status)
	if err != nil {
		return errors.Wrap(err, "encode status merge patch")
	}

	_, err = s.dynamicClient.Resource(gvr).Namespace(namespace).Patch(
		ctx, name, types.MergePatchType, body, metav1.PatchOptions{}, "status",
	)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "patch status for IndustrialPLC %s/%s", namespace, name)
	}
	return nil
}

// PatchAnnotations implements Store as a merge patch against
// metadata.annotations.
func (s *K8sStore) PatchAnnotations(ctx context.Context, namespace, name string, annotations map[string]string) error {
	body, err := annotationsMergePatch(annotations)
	if err != nil {
		return errors.Wrap(err, "encode annotations merge patch")
	}

	_, err = s.dynamicClient.Resource(gvr).Namespace(namespace).Patch(
		ctx, name, types.MergePatchType, body, metav1.PatchOptions{},
	)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "patch annotations for IndustrialPLC %s/%s", namespace, name)
	}
	return nil
}

// Watch implements Store. The returned channel closes when the underlying
// watch.Interface disconnects; the controller's watch loop is expected to
// re-list and call Watch again.
func (s *K8sStore) Watch(ctx context.Context, namespace string) (<-chan WatchEvent, error) {
	w, err := s.dynamicClient.Resource(gvr).Namespace(namespace).Watch(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "watch IndustrialPLC")
	}

	out := make(chan WatchEvent)
	go func() {
		defer close(out)
		defer w.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.ResultChan():
				if !ok {
					return
				}
				unstructuredObj, ok := event.Object.(*unstructured.Unstructured)
				if !ok {
					continue
				}
				record, err := toRecord(unstructuredObj)
				if err != nil {
					continue
				}

				var evtType EventType
				switch event.Type {
				case watch.Added:
					evtType = EventAdded
				case watch.Modified:
					evtType = EventUpdated
				case watch.Deleted:
					evtType = EventDeleted
				default:
					continue
				}

				select {
				case out <- WatchEvent{Type: evtType, Record: record}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// PublishEvent implements Store via client-go's EventRecorder.
func (s *K8sStore) PublishEvent(ctx context.Context, namespace, name string, severity EventSeverity, reason, note, action string) error {
	ref := &corev1.ObjectReference{
		Kind:       v1.Kind,
		APIVersion: v1.GroupVersion.String(),
		Namespace:  namespace,
		Name:       name,
	}
	s.recorder.AnnotatedEventf(ref, map[string]string{"action": action}, string(severity), reason, "%s", note)
	return nil
}
