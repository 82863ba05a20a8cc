package olsdk

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	ErrAuthRequired    = errors.New("sdk: not logged in or session expired, run `olsync login`")
	ErrLoginFailed     = errors.New("sdk: login failed, check username and/or password")
	ErrProjectNotFound = errors.New("sdk: project not found")
	ErrNoServerURL     = errors.New("sdk: server url missing")
	ErrUploadRejected  = errors.New("sdk: server rejected upload")
)

// handleAPIError is a helper that handles the common error pattern around
// req calls: transport errors first, then non-2xx responses.
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return fmt.Errorf("%s: %w", operation, ErrAuthRequired)
	}

	if resp.IsErrorState() {
		return fmt.Errorf("api error: %s: %s", operation, resp.GetStatus())
	}

	return nil
}
