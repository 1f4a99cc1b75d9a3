package meeting

import (
	"context"
	"errors"

	"github.com/civicarchive/councilcast/pkg/logger"
)

var log = logger.Get("Assembler")

// ErrNoTranscriber is returned when a transcript is requested but no
// transcription engine could be configured.
var ErrNoTranscriber = errors.New("transcription requested but no transcription engine is configured")

const (
	KindVideo   = "video"
	KindAgenda  = "agenda"
	KindMinutes = "minutes"
)

type (
	Downloader interface {
		Download(ctx context.Context, url string, kind string) (string, error)
	}

	Transcriber interface {
		TranscribeToFile(ctx context.Context, mediaPath string) (string, error)
	}

	MetadataStore interface {
		Save(*Metadata) error
	}

	// Assembler downloads the artifacts for a single meeting record
	// and persists the resulting metadata. It performs no retries; the
	// first failure aborts the assembly and nothing is persisted.
	// Requesting a transcript without a Transcriber is a failure.
	Assembler struct {
		Downloader  Downloader
		Transcriber Transcriber
		Store       MetadataStore
	}
)

func (assembler *Assembler) Assemble(ctx context.Context, record Record, transcribe bool) (*Metadata, error) {
	if transcribe && record.HasVideo() && assembler.Transcriber == nil {
		return nil, ErrNoTranscriber
	}

	log.Emit(logger.NEW, "Downloading meeting: %s on %s at %s\n", record.Title, record.Date, record.Time)
	metadata := newMetadata(record)

	if record.HasVideo() {
		path, err := assembler.Downloader.Download(ctx, record.VideoURL, KindVideo)
		if err != nil {
			return nil, err
		}
		metadata.VideoPath = &path

		if transcribe {
			if assembler.Transcriber == nil {
				log.Warnf("Transcription requested but no transcription engine is configured\n")
			} else {
				transcriptPath, err := assembler.Transcriber.TranscribeToFile(ctx, path)
				if err != nil {
					return nil, err
				}
				metadata.TranscriptPath = &transcriptPath
			}
		}
	} else {
		log.Infof("No video found.\n")
	}

	if record.AgendaURL != "" {
		path, err := assembler.Downloader.Download(ctx, record.AgendaURL, KindAgenda)
		if err != nil {
			return nil, err
		}
		metadata.AgendaPath = &path
	} else {
		log.Infof("No agenda found.\n")
	}

	if record.MinutesURL != "" {
		path, err := assembler.Downloader.Download(ctx, record.MinutesURL, KindMinutes)
		if err != nil {
			return nil, err
		}
		metadata.MinutesPath = &path
	} else {
		log.Infof("No minutes found.\n")
	}

	if err := assembler.Store.Save(metadata); err != nil {
		return nil, err
	}

	log.Emit(logger.SUCCESS, "Metadata for %s saved\n", record)
	return metadata, nil
}
