package internal

import (
	"context"
	"fmt"

	"github.com/civicarchive/councilcast/internal/history"
	"github.com/civicarchive/councilcast/internal/http/youtube"
	"github.com/civicarchive/councilcast/internal/meeting"
	"github.com/civicarchive/councilcast/pkg/logger"
	"github.com/google/uuid"
)

var log = logger.Get("Pipeline")

type (
	MeetingFetcher interface {
		FetchMeetings(ctx context.Context) ([]meeting.Record, error)
	}

	MetadataAssembler interface {
		Assemble(ctx context.Context, record meeting.Record, transcribe bool) (*meeting.Metadata, error)
	}

	VideoUploader interface {
		Upload(ctx context.Context, req youtube.UploadRequest) (*youtube.UploadResult, error)
	}

	UploadRecorder interface {
		RecordUpload(upload *history.Upload) error
	}

	// RunOptions are the caller supplied options for processing a
	// single meeting.
	RunOptions struct {
		Index           int    `validate:"min=0"`
		PrivacyStatus   string `validate:"oneof=public private unlisted"`
		Transcribe      bool
		UseMeetingTitle bool
		Keywords        string
	}

	Outcome int

	// Result describes how a run ended. Runs which did not upload
	// anything still produce a Result; only failures produce an error.
	Result struct {
		RunID    uuid.UUID
		Outcome  Outcome
		Record   *meeting.Record
		Metadata *meeting.Metadata
		Upload   *youtube.UploadResult
		VideoID  string
	}

	// Pipeline scrapes, downloads and publishes a single meeting per
	// call to ProcessMeeting. History is optional.
	Pipeline struct {
		Fetcher     MeetingFetcher
		Assembler   MetadataAssembler
		Uploader    VideoUploader
		History     UploadRecorder
		ArchiveName string
		CategoryID  string
	}
)

const (
	OutcomeUploaded Outcome = iota
	OutcomeIndexOutOfRange
	OutcomeNoVideo
	OutcomeUploadExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUploaded:
		return "uploaded"
	case OutcomeIndexOutOfRange:
		return "index_out_of_range"
	case OutcomeNoVideo:
		return "no_video"
	case OutcomeUploadExhausted:
		return "upload_exhausted"
	default:
		return fmt.Sprintf("unknown[%d]", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Message is a human readable summary of the result.
func (result *Result) Message() string {
	switch result.Outcome {
	case OutcomeUploaded:
		return fmt.Sprintf("Video uploaded successfully! YouTube ID: %s", result.VideoID)
	case OutcomeIndexOutOfRange:
		return "Meeting index is out of range."
	case OutcomeNoVideo:
		return "No video metadata or video file. Aborting."
	case OutcomeUploadExhausted:
		return "Upload failed or was not completed."
	default:
		return result.Outcome.String()
	}
}

// Options converts the configured run defaults in to RunOptions.
func (defaults RunDefaults) Options() RunOptions {
	return RunOptions{
		Index:           defaults.Index,
		PrivacyStatus:   defaults.PrivacyStatus,
		Transcribe:      defaults.Transcribe,
		UseMeetingTitle: !defaults.PlaceholderTitle,
		Keywords:        defaults.Keywords,
	}
}

// ProcessMeeting runs the meeting at opts.Index through the whole
// pipeline: fetch the listing, download the artifacts, persist the
// metadata, upload the video and record the upload.
func (pipeline *Pipeline) ProcessMeeting(ctx context.Context, opts RunOptions) (*Result, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("run options are invalid: %w", err)
	}

	result := &Result{RunID: uuid.New()}
	log.Emit(logger.NEW, "Run %s started for meeting index %d\n", result.RunID, opts.Index)

	records, err := pipeline.Fetcher.FetchMeetings(ctx)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", result.RunID, err)
	}

	if opts.Index >= len(records) {
		log.Emit(logger.WARNING, "Run %s: index %d is out of range, only %d meetings with video found\n", result.RunID, opts.Index, len(records))
		result.Outcome = OutcomeIndexOutOfRange
		return result, nil
	}

	record := records[opts.Index]
	result.Record = &record

	metadata, err := pipeline.Assembler.Assemble(ctx, record, opts.Transcribe)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", result.RunID, err)
	}
	result.Metadata = metadata

	if err := metadata.UploadEligible(); err != nil {
		log.Emit(logger.WARNING, "Run %s: no video metadata or video file (%v), aborting\n", result.RunID, err)
		result.Outcome = OutcomeNoVideo
		return result, nil
	}

	req, err := pipeline.uploadRequest(metadata, opts)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", result.RunID, err)
	}

	log.Emit(logger.INFO, "Run %s: starting upload to YouTube...\n", result.RunID)
	upload, err := pipeline.Uploader.Upload(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", result.RunID, err)
	}
	result.Upload = upload

	if upload.Status == youtube.Exhausted {
		log.Emit(logger.ERROR, "Run %s: upload failed or was not completed after %d retries: %v\n", result.RunID, upload.Retries, upload.LastError)
		result.Outcome = OutcomeUploadExhausted
		return result, nil
	}

	result.Outcome = OutcomeUploaded
	result.VideoID = upload.VideoID
	log.Emit(logger.SUCCESS, "Run %s: video uploaded successfully! YouTube ID: %s\n", result.RunID, upload.VideoID)

	pipeline.recordUpload(result, req)
	return result, nil
}

func (pipeline *Pipeline) uploadRequest(metadata *meeting.Metadata, opts RunOptions) (youtube.UploadRequest, error) {
	description, err := VideoDescription(metadata, pipeline.ArchiveName)
	if err != nil {
		return youtube.UploadRequest{}, err
	}

	categoryID := pipeline.CategoryID
	if categoryID == "" {
		categoryID = youtube.DefaultCategoryID
	}

	return youtube.UploadRequest{
		FilePath:      *metadata.VideoPath,
		Title:         VideoTitle(metadata, opts.UseMeetingTitle),
		Description:   description,
		CategoryID:    categoryID,
		Tags:          SplitKeywords(opts.Keywords),
		PrivacyStatus: opts.PrivacyStatus,
	}, nil
}

func (pipeline *Pipeline) recordUpload(result *Result, req youtube.UploadRequest) {
	if pipeline.History == nil {
		return
	}

	upload := &history.Upload{
		RunID:         result.RunID,
		VideoID:       result.VideoID,
		Title:         result.Metadata.Title,
		MeetingDate:   result.Metadata.Date,
		MeetingTime:   result.Metadata.Time,
		PrivacyStatus: req.PrivacyStatus,
	}
	if err := pipeline.History.RecordUpload(upload); err != nil {
		log.Emit(logger.WARNING, "Run %s: upload %s could not be recorded in history: %v\n", result.RunID, result.VideoID, err)
	}
}
