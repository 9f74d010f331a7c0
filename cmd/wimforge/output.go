package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/wimforge/wimforge/internal/model"
	"github.com/wimforge/wimforge/internal/tui"
)

var tierLabels = map[model.Tier]string{
	model.Tier1: "Tier 1: Critical environment",
	model.Tier2: "Tier 2: Build feature requirements",
	model.Tier3: "Tier 3: Advisory",
	model.Tier4: "Tier 4: Maintenance",
}

func printReport(w io.Writer, report *model.PreflightReport) {
	fmt.Fprintln(w, "\nPreflight Report:")
	fmt.Fprintln(w, strings.Repeat("=", 80))

	for _, tier := range []model.Tier{model.Tier1, model.Tier2, model.Tier3, model.Tier4} {
		results := report.Results(tier)
		if len(results) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\n", tierLabels[tier])
		for _, result := range results {
			symbol := tui.StatusIcon(result.Status)
			duration := fmt.Sprintf("%.2fs", result.Duration.Seconds())
			fmt.Fprintf(w, "  %s %-24s %-8s %-8s %s\n",
				symbol,
				result.CheckName,
				result.Status,
				duration,
				truncateString(result.Message, 60),
			)
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", 80))

	if len(report.Errors) > 0 {
		fmt.Fprintln(w, "\nBlocking issues:")
		for _, line := range report.Errors {
			fmt.Fprintf(w, "  ✗ %s\n", line)
		}
	}
	if len(report.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, line := range report.Warnings {
			fmt.Fprintf(w, "  ⚠ %s\n", line)
		}
	}
	if len(report.RemediationSteps) > 0 {
		fmt.Fprintln(w, "\nSuggested remediation:")
		for _, step := range report.RemediationSteps {
			fmt.Fprintln(w, indent(step, "  "))
		}
	}

	fmt.Fprintf(w, "\nDuration: %s\n", report.Duration.String())
	if report.IsValid {
		fmt.Fprintln(w, "✅ Environment is ready for the build")
	} else {
		fmt.Fprintln(w, "❌ Environment is not ready; fix the blocking issues and re-run")
	}
}

func printJSONReport(w io.Writer, report *model.PreflightReport, configPath string) {
	type JSONResult struct {
		Name        string         `json:"name"`
		Status      string         `json:"status"`
		Message     string         `json:"message"`
		Details     map[string]any `json:"details,omitempty"`
		Remediation string         `json:"remediation,omitempty"`
		Duration    float64        `json:"duration_seconds"`
	}

	type JSONOutput struct {
		ConfigFile       string                  `json:"config_file"`
		IsValid          bool                    `json:"is_valid"`
		HasWarnings      bool                    `json:"has_warnings"`
		Errors           []string                `json:"errors"`
		Warnings         []string                `json:"warnings"`
		RemediationSteps []string                `json:"remediation_steps"`
		Duration         float64                 `json:"duration_seconds"`
		Tiers            map[string][]JSONResult `json:"tiers"`
	}

	out := JSONOutput{
		ConfigFile:       configPath,
		IsValid:          report.IsValid,
		HasWarnings:      report.HasWarnings,
		Errors:           report.Errors,
		Warnings:         report.Warnings,
		RemediationSteps: report.RemediationSteps,
		Duration:         report.Duration.Seconds(),
		Tiers:            make(map[string][]JSONResult, 4),
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if out.RemediationSteps == nil {
		out.RemediationSteps = []string{}
	}

	tierKeys := map[model.Tier]string{
		model.Tier1: "tier1",
		model.Tier2: "tier2",
		model.Tier3: "tier3",
		model.Tier4: "tier4",
	}
	for tier, key := range tierKeys {
		results := report.Results(tier)
		jsonResults := make([]JSONResult, 0, len(results))
		for _, result := range results {
			entry := JSONResult{
				Name:        result.CheckName,
				Status:      string(result.Status),
				Message:     result.Message,
				Remediation: result.Remediation,
				Duration:    result.Duration.Seconds(),
			}
			if result.Details.Len() > 0 {
				entry.Details = make(map[string]any, result.Details.Len())
				for _, detail := range result.Details {
					entry.Details[detail.Key] = detail.Value
				}
			}
			jsonResults = append(jsonResults, entry)
		}
		out.Tiers[key] = jsonResults
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.Encode(out) //nolint:errcheck
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
