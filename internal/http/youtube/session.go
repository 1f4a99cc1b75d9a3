package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/civicarchive/councilcast/pkg/logger"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

const (
	statusResumeIncomplete = 308
	uploadParts            = "snippet,status"
)

// uploadSession is the mutable state of a single resumable upload. It
// is owned by one Upload call and discarded when that call returns.
type uploadSession struct {
	client      *http.Client
	endpoint    string
	chunkSize   int64
	media       *os.File
	size        int64
	contentType string
	resource    *youtube.Video

	uri            string
	bytesConfirmed int64
	retryCount     int
	attempts       int
	lastError      error

	// resync is set after a failure; the next step asks the server how
	// many bytes it holds before sending anything else.
	resync bool
}

// step performs exactly one request against the upload API, choosing
// between initiating the session, resyncing the confirmed offset and
// sending the next chunk. The video is returned once the server
// reports the upload as complete.
func (session *uploadSession) step(ctx context.Context) (*youtube.Video, error) {
	if session.uri == "" {
		return nil, session.initiate(ctx)
	}

	if session.resync {
		return session.queryStatus(ctx)
	}

	return session.sendChunk(ctx)
}

func (session *uploadSession) initiate(ctx context.Context) error {
	body, err := json.Marshal(session.resource)
	if err != nil {
		return &PermanentError{Err: fmt.Errorf("failed to encode video resource: %w", err)}
	}

	params := url.Values{}
	params.Set("uploadType", "resumable")
	params.Set("part", uploadParts)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, session.endpoint+"?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(session.size, 10))
	req.Header.Set("X-Upload-Content-Type", session.contentType)

	session.attempts++
	resp, err := session.do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	if err := googleapi.CheckResponse(resp); err != nil {
		return err
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return &PermanentError{Err: fmt.Errorf("%w: session initiation returned no Location", ErrMalformedResponse)}
	}

	session.uri = location
	log.Emit(logger.DEBUG, "Resumable upload session opened for %d bytes\n", session.size)
	return nil
}

func (session *uploadSession) sendChunk(ctx context.Context) (*youtube.Video, error) {
	offset := session.bytesConfirmed
	length := min(session.chunkSize, session.size-offset)

	chunk := io.NewSectionReader(session.media, offset, length)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, session.uri, chunk)
	if err != nil {
		return nil, err
	}
	req.ContentLength = length
	req.Header.Set("Content-Type", session.contentType)
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, offset+length-1, session.size))

	session.attempts++
	log.Emit(logger.VERBOSE, "Sending bytes %d-%d of %d\n", offset, offset+length-1, session.size)
	resp, err := session.do(req)
	if err != nil {
		return nil, err
	}

	video, err := session.handleTransferResponse(resp)
	if err == nil && video == nil && session.bytesConfirmed <= offset {
		// A 308 which persisted none of the chunk counts as a retry.
		return nil, fmt.Errorf("%w: chunk at byte %d was not persisted", ErrMalformedResponse, offset)
	}

	return video, err
}

// queryStatus asks the server for the number of bytes it has
// persisted, so that a failed chunk resumes from the right offset.
func (session *uploadSession) queryStatus(ctx context.Context) (*youtube.Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, session.uri, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.ContentLength = 0
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", session.size))

	session.attempts++
	resp, err := session.do(req)
	if err != nil {
		return nil, err
	}

	video, err := session.handleTransferResponse(resp)
	if err == nil {
		session.resync = false
		log.Emit(logger.DEBUG, "Upload session resumed at byte %d of %d\n", session.bytesConfirmed, session.size)
	}

	return video, err
}

func (session *uploadSession) handleTransferResponse(resp *http.Response) (*youtube.Video, error) {
	defer drain(resp)

	if resp.StatusCode == statusResumeIncomplete {
		confirmed, err := parseRangeHeader(resp.Header.Get("Range"))
		if err != nil {
			return nil, err
		}

		session.bytesConfirmed = confirmed
		return nil, nil
	}

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, err
	}

	var video youtube.Video
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return nil, &PermanentError{Err: fmt.Errorf("%w: final response could not be decoded: %w", ErrMissingVideoID, err)}
	}

	session.bytesConfirmed = session.size
	return &video, nil
}

// do sends the request, mapping protocol level garbage from the
// server in to ErrMalformedResponse so it can be classified.
func (session *uploadSession) do(req *http.Request) (*http.Response, error) {
	resp, err := session.client.Do(req)
	if err != nil && strings.Contains(err.Error(), "malformed HTTP") {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return resp, err
}

// parseRangeHeader reads the number of persisted bytes from a
// 'Range: bytes=0-N' header. A missing header means nothing has
// been persisted yet.
func parseRangeHeader(header string) (int64, error) {
	if header == "" {
		return 0, nil
	}

	_, end, ok := strings.Cut(strings.TrimPrefix(header, "bytes="), "-")
	if !ok {
		return 0, fmt.Errorf("%w: unexpected Range header %q", ErrMalformedResponse, header)
	}

	last, err := strconv.ParseInt(end, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unexpected Range header %q", ErrMalformedResponse, header)
	}

	return last + 1, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
