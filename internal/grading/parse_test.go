package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResponseGradeAndFeedback(t *testing.T) {
	result := ParseResponse("GRADE: 87\nFEEDBACK: Good job.", 100)
	require.NotNil(t, result.Grade)
	require.Equal(t, 87.0, *result.Grade)
	require.Equal(t, "Good job.", result.Feedback)
	require.NotNil(t, result.RubricScores)
	require.Empty(t, result.RubricScores)
}

func TestParseResponseToleratesCommentary(t *testing.T) {
	text := "Here is my assessment of the essay.\n\ngrade: 72.5 out of 100\nSome thoughts first.\nFeedback:\n  Strong thesis.\n  Work on citations.\n"
	result := ParseResponse(text, 100)
	require.NotNil(t, result.Grade)
	require.Equal(t, 72.5, *result.Grade)
	require.Equal(t, "Strong thesis.\n  Work on citations.", result.Feedback)
}

func TestParseResponseClampsToMaxPoints(t *testing.T) {
	result := ParseResponse("GRADE: 150", 100)
	require.NotNil(t, result.Grade)
	require.Equal(t, 100.0, *result.Grade)

	result = ParseResponse("GRADE: 12", 10)
	require.Equal(t, 10.0, *result.Grade)
}

func TestParseResponseDefaultsMaxPoints(t *testing.T) {
	result := ParseResponse("GRADE: 250", 0)
	require.Equal(t, DefaultMaxPoints, *result.Grade)
}

func TestParseResponseMissingMarkers(t *testing.T) {
	result := ParseResponse("I think this deserves a B.", 100)
	require.Nil(t, result.Grade)
	require.Equal(t, "", result.Feedback)

	result = ParseResponse("GRADE: 0", 100)
	require.NotNil(t, result.Grade)
	require.Equal(t, 0.0, *result.Grade)
	require.Equal(t, "", result.Feedback)
}

func TestParseResponseUsesFirstGrade(t *testing.T) {
	result := ParseResponse("GRADE: 40\nGRADE: 90", 100)
	require.Equal(t, 40.0, *result.Grade)
}

func TestParseResponseGradeWithinBounds(t *testing.T) {
	maxPoints := 25.0
	for _, text := range []string{"GRADE: 0", "GRADE: 3.75", "GRADE: 25", "GRADE: 26", "GRADE: 99999"} {
		result := ParseResponse(text, maxPoints)
		require.NotNil(t, result.Grade, text)
		require.GreaterOrEqual(t, *result.Grade, 0.0, text)
		require.LessOrEqual(t, *result.Grade, maxPoints, text)
	}
}
