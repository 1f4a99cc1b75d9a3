package download

import "fmt"

// DownloadError is returned when an artifact could not be fetched. It
// is never retried; the caller decides whether to abort.
type DownloadError struct {
	URL        string
	Kind       string
	StatusCode int
	Err        error
}

func (err *DownloadError) Error() string {
	if err.StatusCode != 0 && err.Err == nil {
		return fmt.Sprintf("%s download from %s failed with HTTP %d", err.Kind, err.URL, err.StatusCode)
	}

	return fmt.Sprintf("%s download from %s failed: %v", err.Kind, err.URL, err.Err)
}

func (err *DownloadError) Unwrap() error { return err.Err }
