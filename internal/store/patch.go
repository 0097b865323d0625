package store

import "encoding/json"

// statusMergePatch encodes a JSON merge patch body for the status
// subresource, matching the shape the dynamic client's Patch with
// subresource "status" expects.
func statusMergePatch(status StatusMerge) ([]byte, error) {
	return json.Marshal(map[string]interface{}{"status": status})
}

// annotationsMergePatch encodes a JSON merge patch body that merges the
// given keys into metadata.annotations without touching any other field.
func annotationsMergePatch(annotations map[string]string) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"metadata": map[string]interface{}{
			"annotations": annotations,
		},
	})
}
