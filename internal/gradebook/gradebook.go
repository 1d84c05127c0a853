// Package gradebook converts raw scores into grade points and display
// grades. Two tables coexist on purpose: the ten-tier table feeds GPA
// computation, the five-level table feeds transcript display. They are
// never mixed; callers pick the one they need.
package gradebook

// Grade point cut-offs on the 4.0 scale. Lower bounds are inclusive,
// upper bounds exclusive; the exact values are load-bearing because GPA
// comparisons depend on them.
//
//	>=90 4.0   [85,90) 3.7   [82,85) 3.3   [78,82) 3.0   [75,78) 2.7
//	[72,75) 2.3   [68,72) 2.0   [64,68) 1.5   [60,64) 1.0   <60 0.0
func Point(score float64) float64 {
	switch {
	case score >= 90:
		return 4.0
	case score >= 85:
		return 3.7
	case score >= 82:
		return 3.3
	case score >= 78:
		return 3.0
	case score >= 75:
		return 2.7
	case score >= 72:
		return 2.3
	case score >= 68:
		return 2.0
	case score >= 64:
		return 1.5
	case score >= 60:
		return 1.0
	default:
		return 0.0
	}
}

// Letter returns the ten-tier letter grade aligned with Point.
func Letter(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 85:
		return "A-"
	case score >= 82:
		return "B+"
	case score >= 78:
		return "B"
	case score >= 75:
		return "B-"
	case score >= 72:
		return "C+"
	case score >= 68:
		return "C"
	case score >= 64:
		return "C-"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// Descriptive returns the five-level transcript label with cuts at
// 90/80/70/60. Distinct from the ten-tier table; used for display only.
func Descriptive(score float64) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 80:
		return "Good"
	case score >= 70:
		return "Fair"
	case score >= 60:
		return "Pass"
	default:
		return "Fail"
	}
}

// ValidScore reports whether the score is inside the accepted [0,100] range.
func ValidScore(score float64) bool {
	return score >= 0 && score <= 100
}
