package upload

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrConfig marks errors caused by missing or invalid configuration.
	// They are raised before any file search or network activity.
	ErrConfig = errors.New("configuration error")

	// ErrTransport marks requests that could not complete: timeouts,
	// refused connections, DNS failures and the like.
	ErrTransport = errors.New("transport error")
)

// UploadError is returned when Nexus answered an upload request with a
// status outside the 2xx range.
type UploadError struct {
	Repository string
	File       string
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	msg := fmt.Sprintf("upload of %s to repository %s failed with status %d", e.File, e.Repository, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// configErrorf builds an error marked with ErrConfig.
func configErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfig)
}

// missingConfig reports a required setting that is absent, with a hint on
// the two places it can come from.
func missingConfig(envVar, tomlKey string) error {
	err := configErrorf("%s is not set", envVar)
	return errors.WithHintf(err, "export %s or set %s in the --config file", envVar, tomlKey)
}

// transportError marks err, as returned by http.Client.Do, as a transport
// failure. The *url.Error already names the method and URL.
func transportError(err error) error {
	return errors.Mark(err, ErrTransport)
}
