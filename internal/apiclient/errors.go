package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/waabox/shopdeck/internal/domain"
)

// Transport-level codes carried by APIError.Code.
const (
	CodeTimeout = "timeout"
	CodeNetwork = "network"
)

// Fixed human-facing texts for transport failures.
const (
	TimeoutMessage        = "Request timed out"
	NetworkMessage        = "Network error"
	SessionExpiredMessage = "Session expired, please log in again"
)

// FieldError is one validation failure reported by the API.
type FieldError struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// ErrorMessage is the "message" member of an error body: either a plain
// string or an ordered list of field errors.
type ErrorMessage struct {
	Text   string
	Fields []FieldError
}

// UnmarshalJSON accepts a string, a list of {message, path} objects or a list of strings.
func (m *ErrorMessage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &m.Text)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for _, item := range raw {
			var fe FieldError
			if err := json.Unmarshal(item, &fe); err == nil {
				m.Fields = append(m.Fields, fe)
				continue
			}
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return fmt.Errorf("unsupported message item: %s", item)
			}
			m.Fields = append(m.Fields, FieldError{Message: s})
		}
		return nil
	default:
		return fmt.Errorf("unsupported message shape: %s", data)
	}
}

// APIError is the normalized shape of a failed call.
type APIError struct {
	StatusCode int          `json:"statusCode"`
	StatusText string       `json:"-"`
	Message    ErrorMessage `json:"message"`
	Code       string       `json:"-"`
	Err        error        `json:"-"`
}

// Text returns the message meant for the user.
func (e *APIError) Text() string {
	switch e.Code {
	case CodeTimeout:
		return TimeoutMessage
	case CodeNetwork:
		return NetworkMessage
	}
	if len(e.Message.Fields) > 0 {
		first := e.Message.Fields[0]
		if first.Path != "" {
			return first.Message + " | " + first.Path
		}
		return first.Message
	}
	if e.Message.Text != "" {
		return e.Message.Text
	}
	return fmt.Sprintf("Error %d: %s", e.StatusCode, e.StatusText)
}

func (e *APIError) Error() string {
	return e.Text()
}

// Unwrap exposes the matching domain sentinel and the transport cause.
func (e *APIError) Unwrap() []error {
	var errs []error
	switch {
	case e.Code == CodeTimeout:
		errs = append(errs, domain.ErrTimeout)
	case e.Code == CodeNetwork:
		errs = append(errs, domain.ErrNetwork)
	case e.StatusCode == http.StatusUnauthorized:
		errs = append(errs, domain.ErrUnauthorized)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AuthExpiredError is returned when the access credential could not be
// refreshed and the user has to log in again.
type AuthExpiredError struct {
	Err error
}

func (e *AuthExpiredError) Error() string {
	if e.Err == nil {
		return "session expired: re-authentication required"
	}
	return fmt.Sprintf("session expired: re-authentication required: %v", e.Err)
}

func (e *AuthExpiredError) Unwrap() error {
	return e.Err
}

// Is matches domain.ErrSessionExpired.
func (e *AuthExpiredError) Is(target error) bool {
	return target == domain.ErrSessionExpired
}

// ErrorText returns the text to show a user for any error returned by the client.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var expired *AuthExpiredError
	if errors.As(err, &expired) {
		return SessionExpiredMessage
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Text()
	}
	return err.Error()
}

// newStatusError builds an APIError from a non-2xx response.
// Bodies that are not JSON envelopes leave Message empty.
func newStatusError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{}
	if len(bytes.TrimSpace(body)) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	apiErr.StatusCode = resp.StatusCode
	apiErr.StatusText = statusText(resp)
	return apiErr
}

func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if text := strings.TrimPrefix(resp.Status, prefix); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// classifyTransport wraps a failure of http.Client.Do.
func classifyTransport(err error) *APIError {
	code := CodeNetwork
	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
		code = CodeTimeout
	}
	return &APIError{Code: code, Err: err}
}
