package aptrepo

import "fmt"

// KeyFetchError reports a signing key that could not be fetched or parsed.
type KeyFetchError struct {
	URL string
	Err error
}

func (e *KeyFetchError) Error() string {
	return fmt.Sprintf("failed to fetch signing key from %s: %v", e.URL, e.Err)
}

func (e *KeyFetchError) Unwrap() error { return e.Err }

// KeyringError reports a keyring or sources file that could not be written.
type KeyringError struct {
	Path string
	Err  error
}

func (e *KeyringError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *KeyringError) Unwrap() error { return e.Err }
