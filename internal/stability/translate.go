package stability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// errorBody is the JSON shape of Stability API error responses.
type errorBody struct {
	Name    string   `json:"name"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// remoteMessage extracts the human-readable detail from an error response
// body, falling back to the raw body when it is not the documented JSON.
func remoteMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if len(eb.Errors) > 0 {
			return strings.Join(eb.Errors, ", ")
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	return strings.TrimSpace(string(body))
}

// translateErrorResponse maps a well-formed HTTP error response to the error
// taxonomy. Credits are never charged by the API on any of these paths.
func translateErrorResponse(status int, body []byte) *Error {
	msg := remoteMessage(body)
	switch {
	case status == http.StatusBadRequest:
		return &Error{
			Kind:    KindInvalidInput,
			Status:  status,
			Message: "the API rejected the request: " + msg,
		}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{
			Kind:    KindMissingCredentials,
			Status:  status,
			Message: "the API rejected the key: " + msg,
		}
	case status == http.StatusNotFound:
		return &Error{
			Kind:    KindNotFound,
			Status:  status,
			Message: msg,
		}
	case status == http.StatusTooManyRequests:
		return &Error{
			Kind:      KindRateLimited,
			Status:    status,
			Retriable: true,
			Message:   "rate limited: the API allows 150 requests per 10 seconds, back off before retrying",
		}
	case status >= 500:
		return &Error{
			Kind:      KindServerError,
			Status:    status,
			Retriable: true,
			Message:   fmt.Sprintf("the API returned a server error (%d): %s", status, msg),
		}
	default:
		return &Error{
			Kind:    KindUnknown,
			Status:  status,
			Message: fmt.Sprintf("unexpected API response (%d): %s", status, msg),
		}
	}
}

// translateTransportError maps connection and timeout failures, which never
// reached the API, to a retriable network_timeout error.
func translateTransportError(err error) *Error {
	msg := "request failed: " + err.Error()
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		msg = "request timed out, the API may be experiencing high load"
	}
	return &Error{
		Kind:      KindNetworkTimeout,
		Retriable: true,
		Message:   msg,
		Cause:     err,
	}
}

// parseBalance parses the balance endpoint's JSON body.
func parseBalance(body []byte) (*BalanceResult, error) {
	var result BalanceResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &Error{
			Kind:    KindUnknown,
			Message: "cannot parse balance response: " + err.Error(),
			Cause:   err,
		}
	}
	return &result, nil
}

// writeGLB persists the model bytes at path, creating parent directories as
// needed and overwriting an existing file. The bytes go to a temporary file
// in the target directory first and are renamed into place, so a cancelled
// call never leaves a half-written GLB behind.
func writeGLB(path string, data []byte) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, &Error{
			Kind:    KindInvalidInput,
			Message: "cannot create output directory: " + err.Error(),
			Cause:   err,
		}
	}

	tmp, err := os.CreateTemp(dir, ".sf3d-*.glb")
	if err != nil {
		return 0, &Error{
			Kind:    KindInvalidInput,
			Message: "cannot write output file: " + err.Error(),
			Cause:   err,
		}
	}

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmp.Name(), path)
	}
	if werr != nil {
		os.Remove(tmp.Name())
		return 0, &Error{
			Kind:    KindInvalidInput,
			Message: "cannot write output file: " + werr.Error(),
			Cause:   werr,
		}
	}

	return len(data), nil
}
