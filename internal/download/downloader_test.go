package download_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/civicarchive/councilcast/internal/download"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agendaPage = `<html>
<head><title>Agenda</title><style>body { color: red; }</style></head>
<body>
  <script>var tracking = "ignore me";</script>
  <h1>  City Council  </h1>

  <p>Item 1: Call to order</p>
  <p>   </p>
  <p>Item 2: Budget</p>
</body>
</html>`

func newServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/AgendaViewer.php", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		_, _ = w.Write([]byte(agendaPage))
	})
	mux.HandleFunc("/clips/meeting.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write(bytes.Repeat([]byte{0x00, 0x01, 0x02, '<', 's'}, 10_000))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadMarkupSavesVisibleText(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()

	path, err := download.New(srv.Client(), dir).Download(context.Background(), srv.URL+"/AgendaViewer.php?view_id=42&clip_id=7", "agenda")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "agenda_AgendaViewer.php"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Agenda\nCity Council\nItem 1: Call to order\nItem 2: Budget", string(content))
	assert.NotContains(t, string(content), "tracking")
	assert.NotContains(t, string(content), "color")
}

func TestDownloadBinaryStreamsUnmodified(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()

	path, err := download.New(srv.Client(), dir).Download(context.Background(), srv.URL+"/clips/meeting.mp4", "video")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "video_meeting.mp4"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0x00, 0x01, 0x02, '<', 's'}, 10_000), content)
}

func TestDownloadOverwritesExistingFile(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()
	existing := filepath.Join(dir, "video_meeting.mp4")
	require.NoError(t, os.WriteFile(existing, []byte("old content which is definitely longer than nothing"), 0o644))

	_, err := download.New(srv.Client(), dir).Download(context.Background(), srv.URL+"/clips/meeting.mp4", "video")
	require.NoError(t, err)

	info, err := os.Stat(existing)
	require.NoError(t, err)
	assert.EqualValues(t, 50_000, info.Size())
}

func TestDownloadNonSuccessStatus(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()

	_, err := download.New(srv.Client(), dir).Download(context.Background(), srv.URL+"/missing.mp4", "video")

	var downloadErr *download.DownloadError
	require.True(t, errors.As(err, &downloadErr))
	assert.Equal(t, http.StatusNotFound, downloadErr.StatusCode)
	assert.Equal(t, "video", downloadErr.Kind)

	_, statErr := os.Stat(filepath.Join(dir, "video_missing.mp4"))
	assert.True(t, os.IsNotExist(statErr), "no file should be written for a failed download")
}

func TestFilename(t *testing.T) {
	name, err := download.Filename("https://host/MinutesViewer.php?clip_id=3", "minutes")
	require.NoError(t, err)
	assert.Equal(t, "minutes_MinutesViewer.php", name)

	_, err = download.Filename("https://host/", "video")
	assert.Error(t, err)
}
