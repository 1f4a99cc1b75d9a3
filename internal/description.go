package internal

import (
	"fmt"
	"os"
	"strings"

	"github.com/civicarchive/councilcast/internal/meeting"
)

const (
	// TranscriptExcerptLength is the number of transcript characters
	// included in a video description.
	TranscriptExcerptLength = 4000
	TranscriptMarker        = "..."
)

// VideoTitle returns the title a meeting is published under.
func VideoTitle(metadata *meeting.Metadata, useMeetingTitle bool) string {
	if useMeetingTitle {
		return metadata.Title
	}

	return fmt.Sprintf("City Council Meeting %s", metadata.Date)
}

// VideoDescription renders the description for a meeting. When a
// transcript is present, the leading excerpt of it is appended.
func VideoDescription(metadata *meeting.Metadata, archiveName string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Meeting Date: %s at %s\n\n", metadata.Date, metadata.Time)
	fmt.Fprintf(&sb, "Automated upload from the %s archives.\n", archiveName)

	if metadata.TranscriptPath != nil {
		transcript, err := os.ReadFile(*metadata.TranscriptPath)
		if err != nil {
			return "", fmt.Errorf("failed to read transcript %s: %w", *metadata.TranscriptPath, err)
		}

		sb.WriteString("\nTRANSCRIPT (partial):\n")
		sb.WriteString(TranscriptExcerpt(string(transcript)))
	}

	return sb.String(), nil
}

// TranscriptExcerpt returns the first TranscriptExcerptLength characters
// of the transcript, followed by the marker. The marker is appended even
// when nothing was cut.
func TranscriptExcerpt(transcript string) string {
	runes := []rune(transcript)
	if len(runes) > TranscriptExcerptLength {
		runes = runes[:TranscriptExcerptLength]
	}

	return string(runes) + TranscriptMarker
}

// SplitKeywords turns a comma separated keyword list in to tags,
// dropping blank entries. Order is preserved.
func SplitKeywords(keywords string) []string {
	tags := make([]string, 0)
	for _, keyword := range strings.Split(keywords, ",") {
		if trimmed := strings.TrimSpace(keyword); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}

	return tags
}
