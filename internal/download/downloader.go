package download

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/civicarchive/councilcast/pkg/logger"
)

var log = logger.Get("Download")

const (
	// ChunkSize is the size of each write when streaming a binary
	// response body to disk.
	ChunkSize = 8192

	markupContentType = "text/html"
)

// Downloader fetches meeting artifacts to a local directory. Each
// artifact is attempted exactly once.
type Downloader struct {
	client *http.Client
	dir    string
}

func New(client *http.Client, dir string) *Downloader {
	return &Downloader{client: client, dir: dir}
}

// Download fetches the URL and stores it as '<kind>_<basename>' inside
// the download directory, overwriting any existing file. HTML responses
// (agenda and minutes viewers) are reduced to their visible text, anything
// else is streamed to disk unmodified.
func (downloader *Downloader) Download(ctx context.Context, rawURL string, kind string) (string, error) {
	dest, err := downloader.destination(rawURL, kind)
	if err != nil {
		return "", &DownloadError{URL: rawURL, Kind: kind, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &DownloadError{URL: rawURL, Kind: kind, Err: err}
	}

	resp, err := downloader.client.Do(req)
	if err != nil {
		return "", &DownloadError{URL: rawURL, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &DownloadError{URL: rawURL, Kind: kind, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(downloader.dir, 0o755); err != nil {
		return "", &DownloadError{URL: rawURL, Kind: kind, Err: err}
	}

	if strings.Contains(resp.Header.Get("Content-Type"), markupContentType) {
		if err := saveVisibleText(resp.Body, dest); err != nil {
			return "", &DownloadError{URL: rawURL, Kind: kind, StatusCode: resp.StatusCode, Err: err}
		}

		log.Emit(logger.SUCCESS, "%s saved as text: %s\n", capitalize(kind), dest)
		return dest, nil
	}

	written, err := streamToFile(resp.Body, dest)
	if err != nil {
		return "", &DownloadError{URL: rawURL, Kind: kind, StatusCode: resp.StatusCode, Err: err}
	}

	log.Emit(logger.SUCCESS, "%s downloaded: %s (%d bytes)\n", capitalize(kind), dest, written)
	return dest, nil
}

// Filename returns the local file name used for the artifact
// at the URL provided.
func Filename(rawURL string, kind string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("artifact URL is malformed: %w", err)
	}

	base := path.Base(parsed.Path)
	if base == "." || base == "/" {
		return "", errors.New("artifact URL has no file name")
	}

	return fmt.Sprintf("%s_%s", kind, base), nil
}

func (downloader *Downloader) destination(rawURL string, kind string) (string, error) {
	name, err := Filename(rawURL, kind)
	if err != nil {
		return "", err
	}

	return filepath.Join(downloader.dir, name), nil
}

// saveVisibleText strips script and style elements from the HTML
// document and writes the remaining text, one trimmed non-empty
// line at a time.
func saveVisibleText(body io.Reader, dest string) error {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return fmt.Errorf("markup could not be parsed: %w", err)
	}

	doc.Find("script, style").Remove()

	lines := make([]string, 0)
	for _, line := range strings.Split(doc.Text(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	return os.WriteFile(dest, []byte(strings.Join(lines, "\n")), 0o644)
}

// streamToFile copies the body to dest in ChunkSize pieces. A partial
// file is removed if the copy fails.
func streamToFile(body io.Reader, dest string) (int64, error) {
	handle, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}

	writer := bufio.NewWriterSize(handle, ChunkSize)
	written, err := io.CopyBuffer(writer, body, make([]byte, ChunkSize))
	if err == nil {
		err = writer.Flush()
	}
	if closeErr := handle.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(dest)
		return 0, err
	}

	return written, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
