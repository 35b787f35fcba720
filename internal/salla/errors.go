package salla

import (
	"errors"
	"fmt"
)

// ErrReauthRequired signals that the store's OAuth grant is no longer usable
// and the merchant must reinstall or reauthorize the app.
var ErrReauthRequired = errors.New("merchant reauthorization required")

// RemoteError carries the platform's rejection of an API call. The response
// body is retained verbatim for merchant-facing diagnostics.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("salla %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsRemoteError reports whether err is a RemoteError and returns it.
func IsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
