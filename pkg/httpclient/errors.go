package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Jlymoure25/regaltyecommerce/pkg/errors"
)

// upstreamError matches the httputil error envelope.
type upstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// converts it into an error. Enveloped error bodies keep their code and message.
func ParseResponseError(resp *http.Response, source string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", source, resp.StatusCode, err)
	}

	var env upstreamError
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		return mapUpstreamError(resp.StatusCode, env.Error.Code, env.Error.Message, source)
	}

	return fmt.Errorf("%s returned status %d: %s", source, resp.StatusCode, string(body))
}

func mapUpstreamError(status int, code, message, source string) error {
	qualified := fmt.Sprintf("%s: %s", source, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(source, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.Unavailable(qualified, nil)
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", source, status, code, message)
	default:
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}
