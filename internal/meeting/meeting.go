package meeting

import "fmt"

type (
	// Record is a single row scraped from the meeting listing. The
	// URL fields are empty when the row did not link that artifact.
	Record struct {
		Title      string `json:"title"`
		Date       string `json:"date"`
		Time       string `json:"time"`
		VideoURL   string `json:"video,omitempty"`
		AgendaURL  string `json:"agenda,omitempty"`
		MinutesURL string `json:"minutes,omitempty"`
	}

	// Metadata is the result of downloading a meetings artifacts. A nil
	// path means the artifact was not available for this meeting.
	Metadata struct {
		Title          string  `json:"title"`
		Date           string  `json:"date"`
		Time           string  `json:"time"`
		VideoPath      *string `json:"video"`
		AgendaPath     *string `json:"agenda"`
		MinutesPath    *string `json:"minutes"`
		TranscriptPath *string `json:"transcript"`
	}
)

func (r Record) HasVideo() bool { return r.VideoURL != "" }

func (r Record) String() string {
	return fmt.Sprintf("Meeting{title=%q date=%q time=%q}", r.Title, r.Date, r.Time)
}

func newMetadata(record Record) *Metadata {
	return &Metadata{Title: record.Title, Date: record.Date, Time: record.Time}
}
