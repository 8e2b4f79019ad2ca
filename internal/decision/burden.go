package decision

import "fmt"

// Complexity buckets for an indicator portfolio.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// MinimumViableMeasurement is the burden calculator's output. It is
// recomputed on demand and never persisted.
type MinimumViableMeasurement struct {
	TotalIndicators       int      `json:"totalIndicators"`
	TotalDecisions        int      `json:"totalDecisions"`
	Complexity            string   `json:"complexity"`
	RiskOfOverengineering int      `json:"riskOfOverengineering"`
	Warnings              []string `json:"warnings"`
}

// indicatorsPerDecisionCap is the density past which collection starts
// serving the portfolio instead of the decisions.
const indicatorsPerDecisionCap = 3

// CalculateBurden estimates the measurement burden of candidate
// indicators relative to the decisions they serve. Warnings are
// advisory, not errors; the caller decides whether to proceed.
func CalculateBurden(decisions []Question, indicators []string) MinimumViableMeasurement {
	total := len(indicators)
	m := MinimumViableMeasurement{
		TotalIndicators: total,
		TotalDecisions:  len(decisions),
		Warnings:        []string{},
	}

	switch {
	case total > 15:
		m.Complexity = ComplexityHigh
	case total > 8:
		m.Complexity = ComplexityMedium
	default:
		m.Complexity = ComplexityLow
	}

	m.RiskOfOverengineering = total * 6
	if m.RiskOfOverengineering > 100 {
		m.RiskOfOverengineering = 100
	}

	if m.RiskOfOverengineering > 70 {
		m.Warnings = append(m.Warnings,
			fmt.Sprintf("High risk of over-engineering: %d indicators is more than most organizations can sustain.", total))
	}
	if len(decisions) > 0 && total > len(decisions)*indicatorsPerDecisionCap {
		m.Warnings = append(m.Warnings,
			fmt.Sprintf("More than %d indicators per decision (%d indicators for %d decisions); trim to what the decisions actually need.",
				indicatorsPerDecisionCap, total, len(decisions)))
	}
	return m
}
