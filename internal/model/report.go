package model

import (
	"fmt"
	"time"
)

// Tier identifies an ordered preflight phase. Tier 1 and 2 results gate the
// build; Tier 3 is advisory and Tier 4 is best-effort maintenance.
type Tier int

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
	Tier4
)

// PreflightReport is the aggregate verdict of one preflight run. It is
// constructed once by ReportBuilder.Finalize and immutable afterwards.
type PreflightReport struct {
	Tier1Results map[string]CheckResult
	Tier2Results map[string]CheckResult
	Tier3Results map[string]CheckResult
	Tier4Results map[string]CheckResult

	// IsValid is false exactly when a Tier 1 or Tier 2 check failed.
	// Warnings, Tier 3 and Tier 4 never flip it.
	IsValid     bool
	HasWarnings bool

	Errors           []string
	Warnings         []string
	RemediationSteps []string

	Duration time.Duration

	order map[Tier][]string
}

// Results returns the results of one tier in execution order.
func (r *PreflightReport) Results(tier Tier) []CheckResult {
	names := r.order[tier]
	results := make([]CheckResult, 0, len(names))
	for _, name := range names {
		results = append(results, r.tierMap(tier)[name])
	}
	return results
}

func (r *PreflightReport) tierMap(tier Tier) map[string]CheckResult {
	switch tier {
	case Tier1:
		return r.Tier1Results
	case Tier2:
		return r.Tier2Results
	case Tier3:
		return r.Tier3Results
	default:
		return r.Tier4Results
	}
}

// ReportBuilder accumulates check results tier by tier and derives the
// aggregate fields when finalized.
type ReportBuilder struct {
	started time.Time
	order   map[Tier][]string
	results map[Tier]map[string]CheckResult
}

// NewReportBuilder starts an empty report and begins timing the run.
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{
		started: time.Now(),
		order:   make(map[Tier][]string),
		results: map[Tier]map[string]CheckResult{
			Tier1: {},
			Tier2: {},
			Tier3: {},
			Tier4: {},
		},
	}
}

// Add records a check result under the given tier.
func (b *ReportBuilder) Add(tier Tier, result CheckResult) {
	if _, exists := b.results[tier][result.CheckName]; !exists {
		b.order[tier] = append(b.order[tier], result.CheckName)
	}
	b.results[tier][result.CheckName] = result
}

// Finalize derives the aggregate verdict. The flattened Errors and Warnings
// lists follow execution order; remediation steps are deduplicated while
// keeping first occurrence order.
func (b *ReportBuilder) Finalize() *PreflightReport {
	report := &PreflightReport{
		Tier1Results: b.results[Tier1],
		Tier2Results: b.results[Tier2],
		Tier3Results: b.results[Tier3],
		Tier4Results: b.results[Tier4],
		IsValid:      true,
		order:        b.order,
	}

	seenRemediation := make(map[string]struct{})
	for _, tier := range []Tier{Tier1, Tier2, Tier3, Tier4} {
		for _, name := range b.order[tier] {
			result := b.results[tier][name]
			line := fmt.Sprintf("%s: %s", result.CheckName, result.Message)

			switch result.Status {
			case StatusFailed:
				report.Errors = append(report.Errors, line)
				if tier == Tier1 || tier == Tier2 {
					report.IsValid = false
				}
			case StatusWarning:
				report.Warnings = append(report.Warnings, line)
				report.HasWarnings = true
			}

			if result.Remediation == "" {
				continue
			}
			if _, seen := seenRemediation[result.Remediation]; seen {
				continue
			}
			seenRemediation[result.Remediation] = struct{}{}
			report.RemediationSteps = append(report.RemediationSteps, result.Remediation)
		}
	}

	report.Duration = time.Since(b.started)
	if report.Duration <= 0 {
		report.Duration = time.Millisecond
	}
	return report
}
