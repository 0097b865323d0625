package main

import (
	"bytes"
	"strings"
	"testing"

	v1 "github.com/fabgitops/operator/api/fabgitops/v1"
)

func sampleRecord() v1.IndustrialPLC {
	current := uint16(2500)
	record := v1.IndustrialPLC{}
	record.Namespace = "default"
	record.Name = "line-1"
	record.Spec = v1.IndustrialPLCSpec{
		DeviceAddress:    "10.0.0.5",
		Port:             502,
		TargetRegister:   4001,
		TargetValue:      2500,
		PollIntervalSecs: 5,
	}
	record.Status = v1.IndustrialPLCStatus{
		Phase:        v1.PhaseConnected,
		CurrentValue: &current,
		InSync:       true,
	}
	return record
}

func TestRenderTableIncludesKeyFields(t *testing.T) {
	var buf bytes.Buffer
	if err := renderRecords(&buf, "table", []v1.IndustrialPLC{sampleRecord()}); err != nil {
		t.Fatalf("renderRecords: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"line-1", "10.0.0.5", "2500"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	record := sampleRecord()
	if err := renderRecord(&buf, "json", record); err != nil {
		t.Fatalf("renderRecord: %v", err)
	}
	if !strings.Contains(buf.String(), `"name": "line-1"`) {
		t.Fatalf("expected json output to contain record name, got:\n%s", buf.String())
	}
}

func TestRenderYAMLContainsSpecFields(t *testing.T) {
	var buf bytes.Buffer
	record := sampleRecord()
	if err := renderRecord(&buf, "yaml", record); err != nil {
		t.Fatalf("renderRecord: %v", err)
	}
	if !strings.Contains(buf.String(), "targetValue: 2500") {
		t.Fatalf("expected yaml output to contain targetValue, got:\n%s", buf.String())
	}
}

func TestRenderListIsOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	renderList(&buf, []v1.IndustrialPLC{sampleRecord()})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one line, got %d: %v", len(lines), lines)
	}
}
