package artifact

import "fmt"

// DownloadError reports an unreachable or failing release endpoint.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// EmptyArchiveError reports a reachable endpoint that served a zero-byte
// artifact, distinct from a connectivity failure: the network worked, the
// release is missing.
type EmptyArchiveError struct {
	URL string
}

func (e *EmptyArchiveError) Error() string {
	return fmt.Sprintf("downloaded artifact from %s is empty", e.URL)
}

// ExtractError reports an archive that could not be unpacked.
type ExtractError struct {
	Archive string
	Err     error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }
