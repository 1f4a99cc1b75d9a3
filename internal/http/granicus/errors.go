package granicus

import "fmt"

// FetchError is returned when the listing page could not be
// retrieved, or was retrieved with a non-success status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (err *FetchError) Error() string {
	if err.StatusCode != 0 && err.Err == nil {
		return fmt.Sprintf("meeting listing %s returned HTTP %d", err.URL, err.StatusCode)
	}

	return fmt.Sprintf("meeting listing %s could not be fetched: %v", err.URL, err.Err)
}

func (err *FetchError) Unwrap() error { return err.Err }
