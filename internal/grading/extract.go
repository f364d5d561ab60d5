package grading

import (
	"fmt"
	"strings"
)

// ExtractText returns the gradable text of a submission.
// Attachments become bracketed placeholder lines; otherwise the short answer is used verbatim.
func ExtractText(submission Submission) (string, error) {
	var builder strings.Builder

	if len(submission.Attachments) > 0 {
		for _, attachment := range submission.Attachments {
			switch attachment.Kind {
			case AttachmentFile:
				fmt.Fprintf(&builder, "[Attachment: %s]\n", attachment.Title)
			case AttachmentLink:
				fmt.Fprintf(&builder, "[Link: %s]\n", attachment.URL)
			case AttachmentVideo:
				fmt.Fprintf(&builder, "[Video: %s]\n", attachment.Title)
			}
		}
	} else {
		builder.WriteString(submission.ShortAnswer)
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", ErrEmptySubmission
	}
	return text, nil
}
