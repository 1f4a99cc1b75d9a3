package meeting_test

import (
	"context"
	"errors"
	"testing"

	"github.com/civicarchive/councilcast/internal/meeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDownloader struct{ mock.Mock }

func (m *mockDownloader) Download(ctx context.Context, url string, kind string) (string, error) {
	args := m.Called(url, kind)
	return args.String(0), args.Error(1)
}

type mockTranscriber struct{ mock.Mock }

func (m *mockTranscriber) TranscribeToFile(ctx context.Context, mediaPath string) (string, error) {
	args := m.Called(mediaPath)
	return args.String(0), args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Save(metadata *meeting.Metadata) error {
	return m.Called(metadata).Error(0)
}

var fullRecord = meeting.Record{
	Title:      "Budget Committee",
	Date:       "Monday, March 3, 2025",
	Time:       "1:30 PM",
	VideoURL:   "https://archive.example/clip.mp4",
	AgendaURL:  "https://archive.example/AgendaViewer.php?clip_id=1",
	MinutesURL: "https://archive.example/MinutesViewer.php?clip_id=1",
}

func TestAssembleDownloadsEverythingAndPersists(t *testing.T) {
	downloader := new(mockDownloader)
	transcriber := new(mockTranscriber)
	store := new(mockStore)

	downloader.On("Download", fullRecord.VideoURL, meeting.KindVideo).Return("video_clip.mp4", nil).Once()
	downloader.On("Download", fullRecord.AgendaURL, meeting.KindAgenda).Return("agenda_AgendaViewer.php", nil).Once()
	downloader.On("Download", fullRecord.MinutesURL, meeting.KindMinutes).Return("minutes_MinutesViewer.php", nil).Once()
	transcriber.On("TranscribeToFile", "video_clip.mp4").Return("video_clip_transcription.txt", nil).Once()
	store.On("Save", mock.AnythingOfType("*meeting.Metadata")).Return(nil).Once()

	assembler := &meeting.Assembler{Downloader: downloader, Transcriber: transcriber, Store: store}
	metadata, err := assembler.Assemble(context.Background(), fullRecord, true)
	require.NoError(t, err)

	assert.Equal(t, fullRecord.Title, metadata.Title)
	assert.Equal(t, "video_clip.mp4", *metadata.VideoPath)
	assert.Equal(t, "agenda_AgendaViewer.php", *metadata.AgendaPath)
	assert.Equal(t, "minutes_MinutesViewer.php", *metadata.MinutesPath)
	assert.Equal(t, "video_clip_transcription.txt", *metadata.TranscriptPath)

	downloader.AssertExpectations(t)
	transcriber.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestAssembleSkipsTranscriptionWhenNotRequested(t *testing.T) {
	downloader := new(mockDownloader)
	transcriber := new(mockTranscriber)
	store := new(mockStore)

	record := meeting.Record{Title: "Video only", VideoURL: "https://archive.example/v.mp4"}
	downloader.On("Download", record.VideoURL, meeting.KindVideo).Return("video_v.mp4", nil)
	store.On("Save", mock.Anything).Return(nil)

	assembler := &meeting.Assembler{Downloader: downloader, Transcriber: transcriber, Store: store}
	metadata, err := assembler.Assemble(context.Background(), record, false)
	require.NoError(t, err)

	assert.Nil(t, metadata.TranscriptPath)
	assert.Nil(t, metadata.AgendaPath)
	assert.Nil(t, metadata.MinutesPath)
	transcriber.AssertNotCalled(t, "TranscribeToFile", mock.Anything)
}

func TestAssembleAbortsWithoutPersistingOnFailure(t *testing.T) {
	downloader := new(mockDownloader)
	transcriber := new(mockTranscriber)
	store := new(mockStore)

	downloadErr := errors.New("agenda unavailable")
	downloader.On("Download", fullRecord.VideoURL, meeting.KindVideo).Return("video_clip.mp4", nil)
	downloader.On("Download", fullRecord.AgendaURL, meeting.KindAgenda).Return("", downloadErr)

	assembler := &meeting.Assembler{Downloader: downloader, Transcriber: transcriber, Store: store}
	metadata, err := assembler.Assemble(context.Background(), fullRecord, false)

	assert.Nil(t, metadata)
	assert.ErrorIs(t, err, downloadErr)
	store.AssertNotCalled(t, "Save", mock.Anything)
	downloader.AssertNotCalled(t, "Download", fullRecord.MinutesURL, meeting.KindMinutes)
}

func TestAssemblePropagatesTranscriptionErrorUnmodified(t *testing.T) {
	downloader := new(mockDownloader)
	transcriber := new(mockTranscriber)
	store := new(mockStore)

	engineErr := errors.New("model exploded")
	downloader.On("Download", fullRecord.VideoURL, meeting.KindVideo).Return("video_clip.mp4", nil)
	transcriber.On("TranscribeToFile", "video_clip.mp4").Return("", engineErr)

	assembler := &meeting.Assembler{Downloader: downloader, Transcriber: transcriber, Store: store}
	_, err := assembler.Assemble(context.Background(), fullRecord, true)

	assert.Same(t, engineErr, err)
	store.AssertNotCalled(t, "Save", mock.Anything)
}

func TestAssemble_TranscriptionRequestedWithoutEngine(t *testing.T) {
	downloader := new(mockDownloader)
	store := new(mockStore)

	record := meeting.Record{Title: "Video only", VideoURL: "https://archive.example/v.mp4"}
	assembler := &meeting.Assembler{Downloader: downloader, Store: store}
	metadata, err := assembler.Assemble(context.Background(), record, true)

	assert.Nil(t, metadata)
	assert.ErrorIs(t, err, meeting.ErrNoTranscriber)
	downloader.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Save", mock.Anything)
}
