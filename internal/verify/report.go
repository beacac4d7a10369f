package verify

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Report is the flattened, human-oriented rendering of a Result, suitable
// for YAML export and archival next to deployment records.
type Report struct {
	Title        string           `yaml:"title" json:"title"`
	Timestamp    time.Time        `yaml:"timestamp" json:"timestamp"`
	Contract     string           `yaml:"contract" json:"contract"`
	ChainID      int              `yaml:"chainId" json:"chainId"`
	Status       string           `yaml:"status" json:"status"` // PASSED or FAILED
	Verification string           `yaml:"verification" json:"verification"`
	GUID         string           `yaml:"guid,omitempty" json:"guid,omitempty"`
	Summary      Summary          `yaml:"summary" json:"summary"`
	Details      map[string]Check `yaml:"details" json:"details"`
}

// BuildReport flattens a verification result into a report.
func BuildReport(result *Result) Report {
	status := "FAILED"
	if result.Success {
		status = "PASSED"
	}
	return Report{
		Title:        "Contract Verification Report",
		Timestamp:    result.Timestamp,
		Contract:     result.ContractAddress,
		ChainID:      result.ChainID,
		Status:       status,
		Verification: string(result.Job.Status),
		GUID:         result.Job.GUID,
		Summary:      result.Summary,
		Details:      result.Checks,
	}
}

// WriteYAML serializes the report.
func (r Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}

// RenderText prints the final summary block.
func RenderText(result *Result, w io.Writer) {
	report := BuildReport(result)

	fmt.Fprintf(w, "\n=== %s ===\n", report.Title)
	fmt.Fprintf(w, "Contract: %s (chain %d)\n", report.Contract, report.ChainID)
	fmt.Fprintf(w, "Checks:   %d passed, %d failed, %d warnings\n",
		report.Summary.Passed, report.Summary.Failed, report.Summary.Warnings)
	fmt.Fprintf(w, "Explorer: %s", report.Verification)
	if report.GUID != "" {
		fmt.Fprintf(w, " (GUID %s)", report.GUID)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Verdict:  %s\n", report.Status)
}
