// Package apierror collapses every way a ledger call can fail into one
// displayable shape.
//
// A portal action can die four structurally different deaths: the transport
// never got a response (CORS block, mixed content, unreachable server), the
// server answered with an error status and a structured body, the server
// answered with a plain-string or empty body, or something unexpected blew
// up in between. Call sites need exactly one {kind, message} pair out of all
// of them; classifying centrally keeps messaging consistent and stops
// server-provided diagnostics from being silently swallowed.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Kind is the machine-readable failure category.
type Kind uint8

const (
	// KindUnknown covers error shapes no other rule recognized.
	KindUnknown Kind = iota
	// KindNetworkOrCORS marks transport failures where no HTTP response
	// was received at all.
	KindNetworkOrCORS
	// KindServerReported marks HTTP error responses; the message carries
	// whatever diagnostic the server provided.
	KindServerReported
	// KindEmptyResponse marks a success response with a missing payload.
	KindEmptyResponse
	// KindMalformedPayload marks a payload that could not be decoded.
	KindMalformedPayload
	// KindUnrecognizedShape marks a payload in no supported encoding.
	KindUnrecognizedShape
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetworkOrCORS:
		return "network_or_cors"
	case KindServerReported:
		return "server_reported"
	case KindEmptyResponse:
		return "empty_response"
	case KindMalformedPayload:
		return "malformed_payload"
	case KindUnrecognizedShape:
		return "unrecognized_shape"
	default:
		return "unknown"
	}
}

// networkMessage is the fixed explanation shown for transport-level
// failures. It names the likely causes because none of them produce a
// server diagnostic the user could act on.
const networkMessage = "Network error: no response received. The request may have " +
	"been blocked (CORS), the page may mix HTTPS with an HTTP API " +
	"(mixed content), or the server is unreachable."

const genericFailure = "request failed"

// Error is the classified form of one failed call. It is immutable once
// produced; views consume it purely for display.
type Error struct {
	Kind       Kind
	Message    string
	HTTPStatus int // 0 when no HTTP response was received
	cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// ResponseError carries an HTTP error response into classification. The
// transport layer produces one for every non-2xx status; Body is the raw
// response body, possibly empty.
type ResponseError struct {
	Status     int
	StatusText string
	Body       []byte
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("http %d", e.Status)
}

// Classify derives the single user-facing message and machine kind for a
// failed call. Rules are evaluated top to bottom; fallback is the caller's
// generic message for error shapes nothing else recognizes.
func Classify(err error, fallback string) *Error {
	if fallback == "" {
		fallback = genericFailure
	}
	if err == nil {
		return &Error{Kind: KindUnknown, Message: fallback}
	}

	// Already classified: annotate and forward, never re-wrap.
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var resp *ResponseError
	if errors.As(err, &resp) {
		return &Error{
			Kind:       KindServerReported,
			Message:    serverMessage(resp),
			HTTPStatus: resp.Status,
			cause:      err,
		}
	}

	// A *url.Error with no ResponseError underneath means the request
	// never produced an HTTP response.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Kind: KindNetworkOrCORS, Message: networkMessage, cause: err}
	}

	if msg := err.Error(); msg != "" {
		return &Error{Kind: KindUnknown, Message: msg, cause: err}
	}
	return &Error{Kind: KindUnknown, Message: fallback, cause: err}
}

// FromNormalization maps a normalization failure onto the shared error
// shape so callers can distinguish "no data" from "could not understand
// response" without a second error vocabulary.
func FromNormalization(err error, kind Kind) *Error {
	return &Error{Kind: kind, Message: err.Error(), cause: err}
}

// serverMessage extracts the most specific diagnostic the response offers:
// a message/error/detail field of a structured body, then a plain-string
// body, then the status text, then a generic fallback. The HTTP status
// always prefixes the result.
func serverMessage(resp *ResponseError) string {
	body := strings.TrimSpace(string(resp.Body))

	if body != "" {
		var structured map[string]any
		if err := json.Unmarshal([]byte(body), &structured); err == nil {
			for _, field := range []string{"message", "error", "detail"} {
				if v, ok := structured[field]; ok {
					if s, ok := v.(string); ok && s != "" {
						return fmt.Sprintf("%d: %s", resp.Status, s)
					}
				}
			}
			// Structured body with no known field: show it verbatim
			// rather than discard a server diagnostic.
			return fmt.Sprintf("%d: %s", resp.Status, body)
		}

		var plain string
		if err := json.Unmarshal([]byte(body), &plain); err == nil && plain != "" {
			return fmt.Sprintf("%d: %s", resp.Status, plain)
		}
		return fmt.Sprintf("%d: %s", resp.Status, body)
	}

	text := resp.StatusText
	if text == "" {
		text = http.StatusText(resp.Status)
	}
	if text == "" {
		text = genericFailure
	}
	return fmt.Sprintf("%d: %s", resp.Status, text)
}
