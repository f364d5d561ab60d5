package grading

import "regexp"

var (
	numericGradePattern = regexp.MustCompile(`(?i)\bgrade\s*(\d{1,2})\b|\b(\d{1,2})(?:st|nd|rd|th)?\s*grade\b`)

	gradeLevelTerms = []struct {
		pattern *regexp.Regexp
		label   string
	}{
		{regexp.MustCompile(`(?i)elementary`), "Elementary"},
		{regexp.MustCompile(`(?i)middle\s*school`), "Middle School"},
		{regexp.MustCompile(`(?i)high\s*school`), "High School"},
		{regexp.MustCompile(`(?i)college|university`), "College"},
	}
)

// GradeLevel infers an informal grade-level label from the course fields.
// Section is searched first, then name, then description; the first match wins.
// The label is best effort and never authoritative.
func GradeLevel(course *Course) (string, bool) {
	if course == nil {
		return "", false
	}

	for _, field := range []string{course.Section, course.Name, course.Description} {
		if label, ok := gradeLevelFrom(field); ok {
			return label, true
		}
	}
	return "", false
}

func gradeLevelFrom(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	if match := numericGradePattern.FindStringSubmatch(text); match != nil {
		number := match[1]
		if number == "" {
			number = match[2]
		}
		return "Grade " + number, true
	}

	for _, term := range gradeLevelTerms {
		if term.pattern.MatchString(text) {
			return term.label, true
		}
	}
	return "", false
}
