package internal_test

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/civicarchive/councilcast/internal"
	"github.com/civicarchive/councilcast/internal/meeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

func TestTranscriptExcerpt(t *testing.T) {
	long := strings.Repeat("a", 6000)
	excerpt := internal.TranscriptExcerpt(long)
	assert.Equal(t, strings.Repeat("a", 4000)+"...", excerpt)

	short := strings.Repeat("b", 500)
	assert.Equal(t, short+"...", internal.TranscriptExcerpt(short))

	assert.Equal(t, "...", internal.TranscriptExcerpt(""))
}

func TestTranscriptExcerptCountsCharactersNotBytes(t *testing.T) {
	long := strings.Repeat("é", 4500)
	excerpt := internal.TranscriptExcerpt(long)

	assert.True(t, utf8.ValidString(excerpt))
	assert.Equal(t, 4003, utf8.RuneCountInString(excerpt))
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Council,New Orleans,Meeting", []string{"Council", "New Orleans", "Meeting"}},
		{" Council , ,New Orleans,", []string{"Council", "New Orleans"}},
		{"", []string{}},
		{" , ", []string{}},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.expected, internal.SplitKeywords(test.input))
		})
	}
}

func TestVideoTitle(t *testing.T) {
	metadata := &meeting.Metadata{Title: "Regular Council Meeting", Date: "Tuesday, January 7, 2025"}

	assert.Equal(t, "Regular Council Meeting", internal.VideoTitle(metadata, true))
	assert.Equal(t, "City Council Meeting Tuesday, January 7, 2025", internal.VideoTitle(metadata, false))
}

func TestVideoDescription(t *testing.T) {
	dir := fs.NewDir(t, "description",
		fs.WithFile("video_meeting_transcription.txt", strings.Repeat("x", 4100)),
	)
	defer dir.Remove()

	metadata := &meeting.Metadata{Date: "Tuesday, January 7, 2025", Time: "10:00 AM"}
	description, err := internal.VideoDescription(metadata, "City of New Orleans")
	require.NoError(t, err)
	assert.Equal(t, "Meeting Date: Tuesday, January 7, 2025 at 10:00 AM\n\nAutomated upload from the City of New Orleans archives.\n", description)

	transcript := dir.Join("video_meeting_transcription.txt")
	metadata.TranscriptPath = &transcript
	description, err = internal.VideoDescription(metadata, "City of New Orleans")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(description, "\nTRANSCRIPT (partial):\n"+strings.Repeat("x", 4000)+"..."))

	missing := filepath.Join(dir.Path(), "missing.txt")
	metadata.TranscriptPath = &missing
	_, err = internal.VideoDescription(metadata, "City of New Orleans")
	assert.Error(t, err)
}
