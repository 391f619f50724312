package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// Kind categorizes downstream failures for logs and metric labels.
type Kind string

const (
	KindTimeout   Kind = "timeout"    // context deadline or client timeout
	KindAuth      Kind = "auth"       // 401/403, bad or expired token
	KindNotFound  Kind = "not_found"  // 404
	KindRateLimit Kind = "rate_limit" // 429
	KindServer    Kind = "server"     // 5xx
	KindClient    Kind = "client"     // other 4xx, usually payload validation
	KindNetwork   Kind = "network"    // dial/reset/DNS
	KindDecode    Kind = "decode"     // response body was not what we expected
	KindUnknown   Kind = "unknown"
)

const maxBodyBytes = 64 << 10

// Error is returned when a downstream service answers with a non-2xx status.
type Error struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s API status %d: %s", e.Service, e.StatusCode, e.Body)
}

// FromResponse builds an *Error from resp, reading at most 64KiB of body.
// The caller still owns resp.Body.
func FromResponse(service string, resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return &Error{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// DecodeError marks a response body that could not be decoded.
type DecodeError struct {
	Service string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Service, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Body returns the remote response body carried by err, if any.
func Body(err error) (string, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Body != "" {
		return apiErr.Body, true
	}
	return "", false
}

// Classify inspects err and returns its Kind.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch code := apiErr.StatusCode; {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return KindAuth
		case code == http.StatusNotFound:
			return KindNotFound
		case code == http.StatusTooManyRequests:
			return KindRateLimit
		case code >= 500:
			return KindServer
		case code >= 400:
			return KindClient
		}
	}

	var decodeErr *DecodeError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &decodeErr) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindDecode
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}
	return KindUnknown
}
