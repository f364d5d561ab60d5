package grading

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	gradePattern    = regexp.MustCompile(`(?i)GRADE:\s*(\d+(?:\.\d+)?)`)
	feedbackPattern = regexp.MustCompile(`(?is)FEEDBACK:\s*(.+)`)
)

// ParseResponse extracts the grade and feedback from free-form model output.
// Text around the markers is ignored. A missing grade yields a nil Grade, not an error.
func ParseResponse(text string, maxPoints float64) Result {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}

	result := Result{RubricScores: []CriterionScore{}}

	if match := gradePattern.FindStringSubmatch(text); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			grade := clamp(value, 0, maxPoints)
			result.Grade = &grade
		}
	}

	if match := feedbackPattern.FindStringSubmatch(text); match != nil {
		result.Feedback = strings.TrimSpace(match[1])
	}

	return result
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
