package client

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoImage means the server has no frame stored yet.
var ErrNoImage = errors.New("epaper: no image stored")

// APIError captures non-2xx responses other than 404 on fetch.
type APIError struct {
	StatusCode int
	// Code is the server's machine-readable error string, e.g. "size_mismatch".
	Code    string
	Message string
	// Expected and Actual are set for size mismatches.
	Expected int
	Actual   int
}

func (e *APIError) Error() string {
	b := strings.Builder{}
	b.WriteString("epaper: API error (status=")
	b.WriteString(strconv.Itoa(e.StatusCode))
	if e.Code != "" {
		b.WriteString(", code=")
		b.WriteString(e.Code)
	}
	b.WriteString(")")
	if m := strings.TrimSpace(e.Message); m != "" {
		b.WriteString(": ")
		b.WriteString(m)
	}
	return b.String()
}

// IsSizeMismatch reports whether err is a rejected upload of the wrong length.
func IsSizeMismatch(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == "size_mismatch"
}

func buildAPIError(status int, body []byte) error {
	ae := &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	var payload struct {
		Error    string `json:"error"`
		Message  string `json:"message"`
		Expected int    `json:"expected"`
		Actual   int    `json:"actual"`
	}
	if json.Unmarshal(body, &payload) == nil {
		ae.Code = payload.Error
		if payload.Message != "" {
			ae.Message = payload.Message
		}
		ae.Expected = payload.Expected
		ae.Actual = payload.Actual
	}
	if ae.Message == "" {
		ae.Message = http.StatusText(status)
	}
	return ae
}
