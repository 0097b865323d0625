package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"sigs.k8s.io/yaml"

	v1 "github.com/fabgitops/operator/api/fabgitops/v1"
)

// phaseColor renders a phase string with the color convention spec.md §6
// implies for the admin tool's terminal UI: green once in sync, yellow
// while mid-transition or drifted, red on failure.
func phaseColor(phase v1.Phase) string {
	switch phase {
	case v1.PhaseConnected:
		return color.GreenString(string(phase))
	case v1.PhaseDriftDetected, v1.PhaseCorrecting, v1.PhaseConnecting, v1.PhasePending:
		return color.YellowString(string(phase))
	case v1.PhaseFailed:
		return color.RedString(string(phase))
	default:
		return string(phase)
	}
}

func renderRecords(w io.Writer, output string, records []v1.IndustrialPLC) error {
	switch output {
	case "json":
		return renderJSON(w, records)
	case "yaml":
		return renderYAML(w, records)
	default:
		return renderTable(w, records)
	}
}

func renderRecord(w io.Writer, output string, record v1.IndustrialPLC) error {
	switch output {
	case "json":
		return renderJSON(w, record)
	case "yaml":
		return renderYAML(w, record)
	default:
		return renderDescribe(w, record)
	}
}

func renderJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderYAML(w io.Writer, v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func renderTable(w io.Writer, records []v1.IndustrialPLC) error {
	sorted := append([]v1.IndustrialPLC(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"NAME", "PHASE", "DEVICE", "REGISTER", "TARGET", "CURRENT", "IN SYNC", "DRIFTS", "CORRECTIONS"})
	table.SetAutoWrapText(false)

	for _, record := range sorted {
		current := "-"
		if record.Status.CurrentValue != nil {
			current = fmt.Sprintf("%d", *record.Status.CurrentValue)
		}
		table.Append([]string{
			record.Name,
			phaseColor(record.Status.Phase),
			fmt.Sprintf("%s:%d", record.Spec.DeviceAddress, record.Spec.Port),
			fmt.Sprintf("%d", record.Spec.TargetRegister),
			fmt.Sprintf("%d", record.Spec.TargetValue),
			current,
			fmt.Sprintf("%t", record.Status.InSync),
			fmt.Sprintf("%d", record.Status.DriftEvents),
			fmt.Sprintf("%d", record.Status.CorrectionsApplied),
		})
	}
	table.Render()
	return nil
}

func renderList(w io.Writer, records []v1.IndustrialPLC) {
	sorted := append([]v1.IndustrialPLC(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, record := range sorted {
		fmt.Fprintf(w, "%s\t%s\t%d\t%t\n", record.Name, phaseColor(record.Status.Phase), record.Spec.TargetValue, record.Status.InSync)
	}
}

func renderDescribe(w io.Writer, record v1.IndustrialPLC) error {
	fmt.Fprintf(w, "Name:      %s\n", record.Name)
	fmt.Fprintf(w, "Namespace: %s\n", record.Namespace)
	fmt.Fprintf(w, "Phase:     %s\n", phaseColor(record.Status.Phase))
	fmt.Fprintln(w, "Spec:")
	fmt.Fprintf(w, "  Device Address:      %s:%d\n", record.Spec.DeviceAddress, record.Spec.Port)
	fmt.Fprintf(w, "  Target Register:     %d\n", record.Spec.TargetRegister)
	fmt.Fprintf(w, "  Target Value:        %d\n", record.Spec.TargetValue)
	fmt.Fprintf(w, "  Poll Interval (s):   %d\n", record.Spec.PollIntervalSecs)
	fmt.Fprintf(w, "  Auto Correct:        %t\n", record.Spec.AutoCorrectEnabled())
	if len(record.Spec.Tags) > 0 {
		fmt.Fprintf(w, "  Tags:                %v\n", record.Spec.Tags)
	}
	fmt.Fprintln(w, "Status:")
	current := "-"
	if record.Status.CurrentValue != nil {
		current = fmt.Sprintf("%d", *record.Status.CurrentValue)
	}
	fmt.Fprintf(w, "  Current Value:       %s\n", current)
	fmt.Fprintf(w, "  In Sync:             %t\n", record.Status.InSync)
	fmt.Fprintf(w, "  Drift Events:        %d\n", record.Status.DriftEvents)
	fmt.Fprintf(w, "  Corrections Applied: %d\n", record.Status.CorrectionsApplied)
	if record.Status.LastError != "" {
		fmt.Fprintf(w, "  Last Error:          %s\n", record.Status.LastError)
	}
	fmt.Fprintf(w, "  Message:             %s\n", record.Status.Message)
	fmt.Fprintf(w, "  Last Update:         %s\n", record.Status.LastUpdate)
	return nil
}
