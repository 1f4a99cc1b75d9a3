package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/civicarchive/councilcast/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/googleapi"
)

var log = logger.Get("Upload")

const DefaultEndpoint = "https://www.googleapis.com/upload/youtube/v3/videos"

type (
	// Authenticator supplies a HTTP client authorised for the
	// upload scope. See Credentials.
	Authenticator interface {
		Client(ctx context.Context) (*http.Client, error)
	}

	Config struct {
		Endpoint  string `yaml:"endpoint" toml:"endpoint" env:"UPLOAD_ENDPOINT" env-default:"https://www.googleapis.com/upload/youtube/v3/videos"`
		ChunkSize int64  `yaml:"chunk_size" toml:"chunk_size" env:"UPLOAD_CHUNK_SIZE" env-default:"0"`
	}

	UploadStatus int

	// UploadResult is returned for every upload which did not fail
	// permanently. An Exhausted result carries the last transient
	// error seen; it is a reported outcome, not an error.
	UploadResult struct {
		Status         UploadStatus
		VideoID        string
		Attempts       int
		Retries        int
		BytesConfirmed int64
		LastError      error
	}

	// Uploader publishes videos using the resumable upload protocol,
	// retrying transient failures according to its Policy.
	Uploader struct {
		auth      Authenticator
		policy    Policy
		endpoint  string
		chunkSize int64
	}
)

const (
	Succeeded UploadStatus = iota
	Exhausted
)

func NewUploader(auth Authenticator, policy Policy, config Config) *Uploader {
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Uploader{
		auth:      auth,
		policy:    policy,
		endpoint:  endpoint,
		chunkSize: normalizeChunkSize(config.ChunkSize),
	}
}

// Upload pushes the media file described by the request to YouTube.
//
// A nil error is returned for both a successful upload and for an
// upload which exhausted its retries; check UploadResult.Status. Errors
// are returned for invalid requests, missing media, authentication
// failures (*AuthError), non-retriable failures (*PermanentError) and
// context cancellation.
func (uploader *Uploader) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	media, size, err := openMedia(req.FilePath)
	if err != nil {
		return nil, err
	}
	defer media.Close()

	contentType := "video/*"
	if mt, err := mimetype.DetectFile(req.FilePath); err == nil && !mt.Is("application/octet-stream") {
		contentType = mt.String()
	}

	// AUTHENTICATING
	client, err := uploader.auth.Client(ctx)
	if err != nil {
		return nil, &AuthError{Err: err}
	}

	// INITIATING -> TRANSFERRING
	session := &uploadSession{
		client:      client,
		endpoint:    uploader.endpoint,
		chunkSize:   uploader.chunkSize,
		media:       media,
		size:        size,
		contentType: contentType,
		resource:    req.video(),
	}

	log.Emit(logger.NEW, "Uploading %s (%d bytes) as %q [%s]\n", req.FilePath, size, req.Title, req.PrivacyStatus)
	for {
		video, err := session.step(ctx)
		if err == nil {
			if video == nil {
				continue
			}

			if video.Id == "" {
				log.Emit(logger.ERROR, "The upload failed with an unexpected response: %#v\n", video)
				return nil, &PermanentError{Err: ErrMissingVideoID}
			}

			log.Emit(logger.SUCCESS, "Video id '%s' was successfully uploaded\n", video.Id)
			return session.result(Succeeded, video.Id), nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return nil, permanent
		}
		if !uploader.policy.IsRetriable(err) {
			return nil, &PermanentError{Err: err}
		}

		session.lastError = err
		session.retryCount++
		session.resync = session.uri != ""
		logRetriable(err)

		if session.retryCount > uploader.policy.MaxRetries {
			log.Emit(logger.ERROR, "No longer attempting to retry after %d retries\n", session.retryCount-1)
			return session.result(Exhausted, ""), nil
		}

		delay := uploader.policy.Backoff(session.retryCount)
		log.Emit(logger.WARNING, "Sleeping %.2f seconds and then retrying (retry %d/%d)...\n", delay.Seconds(), session.retryCount, uploader.policy.MaxRetries)
		if err := uploader.policy.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (session *uploadSession) result(status UploadStatus, videoID string) *UploadResult {
	retries := session.retryCount
	if status == Exhausted {
		retries--
	}

	return &UploadResult{
		Status:         status,
		VideoID:        videoID,
		Attempts:       session.attempts,
		Retries:        retries,
		BytesConfirmed: session.bytesConfirmed,
		LastError:      session.lastError,
	}
}

func (s UploadStatus) String() string {
	switch s {
	case Succeeded:
		return "SUCCEEDED"
	case Exhausted:
		return "EXHAUSTED"
	default:
		return fmt.Sprintf("UNKNOWN[%d]", s)
	}
}

func logRetriable(err error) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		log.Emit(logger.WARNING, "A retriable HTTP error %d occurred: %s\n", apiErr.Code, apiErr.Body)
		return
	}

	log.Emit(logger.WARNING, "A retriable error occurred: %v\n", err)
}

func openMedia(path string) (*os.File, int64, error) {
	media, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrEmptyMedia, err)
	}

	info, err := media.Stat()
	if err != nil {
		media.Close()
		return nil, 0, fmt.Errorf("%w: %w", ErrEmptyMedia, err)
	}
	if info.Size() == 0 {
		media.Close()
		return nil, 0, ErrEmptyMedia
	}

	return media, info.Size(), nil
}

// normalizeChunkSize rounds the requested chunk size up to a multiple
// of the minimum chunk size the API accepts. Zero or negative selects
// the library default.
func normalizeChunkSize(size int64) int64 {
	if size <= 0 {
		return googleapi.DefaultUploadChunkSize
	}

	unit := int64(googleapi.MinUploadChunkSize)
	if rem := size % unit; rem != 0 {
		size += unit - rem
	}

	return size
}
