package granicus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/civicarchive/councilcast/internal/meeting"
	"github.com/civicarchive/councilcast/pkg/logger"
)

var log = logger.Get("Listing")

const (
	DefaultListingURL = "https://cityofno.granicus.com/ViewPublisher.php?view_id=42"
	UnknownTime       = "Unknown Time"

	rowSelector    = "tr.listingRow"
	columnSelector = "td.listItem"

	videoMarker   = ".mp4"
	agendaMarker  = "AgendaViewer.php"
	minutesMarker = "MinutesViewer.php"
)

var dateTimeMatcher = regexp.MustCompile(`(\w+,\s\w+\s\d{1,2},\s\d{4})\s*-\s*(\d{1,2}:\d{2}\s*[APMapm]{2})`)

// Fetcher retrieves the meeting listing page from a Granicus
// ViewPublisher endpoint and parses the meetings from it.
type Fetcher struct {
	client *http.Client
	url    string
}

func NewFetcher(client *http.Client, listingURL string) *Fetcher {
	if listingURL == "" {
		listingURL = DefaultListingURL
	}

	return &Fetcher{client: client, url: listingURL}
}

// FetchMeetings returns every meeting on the listing page which has a
// video, in page order. Rows without a video are skipped, so an index
// into the result selects the Nth meeting *with a video*.
func (fetcher *Fetcher) FetchMeetings(ctx context.Context) ([]meeting.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetcher.url, nil)
	if err != nil {
		return nil, &FetchError{URL: fetcher.url, Err: err}
	}

	log.Emit(logger.DEBUG, "GET %s\n", fetcher.url)
	resp, err := fetcher.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: fetcher.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: fetcher.url, StatusCode: resp.StatusCode}
	}

	records, err := ParseListing(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: fetcher.url, StatusCode: resp.StatusCode, Err: err}
	}

	log.Emit(logger.INFO, "Found %d meetings with video at %s\n", len(records), fetcher.url)
	return records, nil
}

// ParseListing extracts the meeting records from a listing document.
func ParseListing(body io.Reader) ([]meeting.Record, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("listing document could not be parsed: %w", err)
	}

	records := make([]meeting.Record, 0)
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		if record, ok := parseRow(row); ok {
			records = append(records, record)
		}
	})

	return records, nil
}

func parseRow(row *goquery.Selection) (meeting.Record, bool) {
	columns := row.Find(columnSelector)
	if columns.Length() < 2 {
		return meeting.Record{}, false
	}

	record := meeting.Record{Title: collapsedText(columns.Eq(0))}
	record.Date, record.Time = ParseDateTime(collapsedText(columns.Eq(1)))

	row.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := NormalizeLink(strings.TrimSpace(a.AttrOr("href", "")))
		switch {
		case strings.Contains(href, videoMarker):
			record.VideoURL = href
		case strings.Contains(href, agendaMarker):
			record.AgendaURL = href
		case strings.Contains(href, minutesMarker):
			record.MinutesURL = href
		}
	})

	if !record.HasVideo() {
		log.Emit(logger.VERBOSE, "Skipping listing row without video: %s\n", record)
		return meeting.Record{}, false
	}

	return record, true
}

// ParseDateTime splits listing text such as
// "Tuesday, January 7, 2025 - 10:00 AM" in to its date and time.
// Text which doesn't match is returned whole as the date, with
// UnknownTime as the time.
func ParseDateTime(raw string) (string, string) {
	if groups := dateTimeMatcher.FindStringSubmatch(raw); groups != nil {
		return groups[1], groups[2]
	}

	return raw, UnknownTime
}

// NormalizeLink turns protocol-relative links in to absolute https links.
func NormalizeLink(href string) string {
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}

	return href
}

// collapsedText mirrors a "strip" text extraction: the text of every
// descendant node, each trimmed, concatenated together.
func collapsedText(sel *goquery.Selection) string {
	var sb strings.Builder
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			sb.WriteString(strings.TrimSpace(node.Text()))
			return
		}

		sb.WriteString(collapsedText(node))
	})

	return sb.String()
}
