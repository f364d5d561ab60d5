package grading

import (
	"fmt"
	"strconv"
	"strings"
)

// SystemInstruction is sent alongside the grading prompt to backends that accept one.
const SystemInstruction = "You are an experienced educator providing fair and constructive grading."

// BuildPrompt renders the grading prompt. ParseResponse depends on the format block at the end.
func BuildPrompt(submissionText string, assignment Assignment, rubric []RubricCriterion, course *Course, constructive bool) string {
	var b strings.Builder
	maxPoints := formatPoints(assignment.EffectiveMaxPoints())

	b.WriteString("You are an experienced educator grading a student assignment. Please provide a fair and accurate assessment.\n\n")

	gradeLevel, hasGradeLevel := GradeLevel(course)
	if hasGradeLevel {
		fmt.Fprintf(&b, "Grade Level: %s\n", gradeLevel)
	}

	courseName := "Unknown Course"
	if course != nil && strings.TrimSpace(course.Name) != "" {
		courseName = course.Name
	}
	fmt.Fprintf(&b, "Course: %s\n", courseName)
	if course != nil && course.Section != "" {
		fmt.Fprintf(&b, "Section: %s\n", course.Section)
	}

	description := assignment.Description
	if strings.TrimSpace(description) == "" {
		description = "No description provided"
	}
	fmt.Fprintf(&b, "Assignment Title: %s\n", assignment.Title)
	fmt.Fprintf(&b, "Assignment Description: %s\n", description)
	fmt.Fprintf(&b, "Maximum Points: %s\n\n", maxPoints)

	if len(rubric) > 0 {
		b.WriteString("Grading Rubric:\n")
		for i, criterion := range rubric {
			title := criterion.Title
			if title == "" {
				title = "Unnamed"
			}
			fmt.Fprintf(&b, "\nCriteria %d: %s\n", i+1, title)
			for _, level := range criterion.Levels {
				fmt.Fprintf(&b, "  - %s: %s points - %s\n", level.Title, formatPoints(level.Points), level.Description)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Student Submission:\n%s\n\n", submissionText)

	if constructive {
		b.WriteString("Please provide:\n")
		fmt.Fprintf(&b, "1. A numerical grade (0-%s)\n", maxPoints)
		b.WriteString("2. Constructive feedback that is:\n")
		if hasGradeLevel {
			fmt.Fprintf(&b, "   - Appropriate for %s students\n", gradeLevel)
		}
		b.WriteString("   - Specific and actionable\n")
		b.WriteString("   - Encouraging but honest\n")
		b.WriteString("   - Focused on both strengths and areas for improvement\n")
		b.WriteString("   - Uses language and concepts suitable for this grade level\n\n")
	} else {
		fmt.Fprintf(&b, "Please provide only a numerical grade (0-%s).\n\n", maxPoints)
	}

	b.WriteString("Format your response as:\n")
	b.WriteString("GRADE: [number]\n")
	if constructive {
		b.WriteString("FEEDBACK: [your detailed feedback here]\n")
	}

	return b.String()
}

func formatPoints(points float64) string {
	return strconv.FormatFloat(points, 'f', -1, 64)
}
