package output

import (
	"fmt"
	"io"

	"github.com/dshills/preflight/internal/audit"
)

// SARIFWriter outputs issues in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *audit.Report) error {
	if err := writeJSON(w, buildSARIF(report)); err != nil {
		return fmt.Errorf("SARIF: %w", err)
	}
	return nil
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool                     sarifTool                `json:"tool"`
	AutomationDetails        sarifAutomationDetails   `json:"automationDetails"`
	Results                  []sarifResult            `json:"results"`
	VersionControlProvenance []sarifVersionControlRef `json:"versionControlProvenance,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties,omitempty"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifAutomationDetails struct {
	ID string `json:"id"`
}

type sarifVersionControlRef struct {
	RevisionID string `json:"revisionId,omitempty"`
	Branch     string `json:"branch,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int           `json:"startLine"`
	Snippet   *sarifMessage `json:"snippet,omitempty"`
}

func buildSARIF(report *audit.Report) sarifLog {
	rules := []sarifRule{}
	seen := make(map[string]bool)
	results := []sarifResult{}

	for _, is := range report.Issues {
		ruleID := sarifRuleID(is)
		if !seen[ruleID] {
			seen[ruleID] = true
			rules = append(rules, sarifRule{
				ID:               ruleID,
				Name:             is.RuleID,
				ShortDescription: sarifMessage{Text: is.Message},
				DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(is.Severity)},
				Properties:       sarifRuleProperties{Tags: []string{string(is.Category)}},
			})
		}

		result := sarifResult{
			RuleID:  ruleID,
			Level:   severityToLevel(is.Severity),
			Message: sarifMessage{Text: is.Message},
		}
		if is.File != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: is.File},
				},
			}
			// Diff positions are not file lines; only real lines get a region.
			if is.FileLine > 0 {
				region := &sarifRegion{StartLine: is.FileLine}
				if is.Snippet != "" {
					region.Snippet = &sarifMessage{Text: is.Snippet}
				}
				loc.PhysicalLocation.Region = region
			}
			result.Locations = append(result.Locations, loc)
		}
		results = append(results, result)
	}

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:    report.Tool,
				Version: report.Version,
				Rules:   rules,
			},
		},
		AutomationDetails: sarifAutomationDetails{ID: fmt.Sprintf("%s/%s/%s", report.Tool, report.Mode, report.RunID)},
		Results:           results,
	}
	if report.Repo.Head != "" {
		run.VersionControlProvenance = []sarifVersionControlRef{{
			RevisionID: report.Repo.Head,
			Branch:     report.Repo.Branch,
		}}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs:    []sarifRun{run},
	}
}

// severityToLevel maps audit severity to SARIF level.
func severityToLevel(s audit.Severity) string {
	switch s {
	case audit.SeverityCritical:
		return "error"
	case audit.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

func sarifRuleID(is audit.Issue) string {
	return fmt.Sprintf("preflight/%s/%s", is.Category, is.RuleID)
}
