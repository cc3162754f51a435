// Package normalize converts the ledger backend's inconsistent response
// encodings into one canonical payload shape.
//
// The backend is not uniform across endpoints: some return a bare JSON
// array, some nest the real payload under a wrapper key ("product",
// "shipment"), and some of those wrappers carry a JSON-encoded *string*
// instead of the structure itself. Callers declare which wrapper keys they
// accept, in preference order, and receive either a single record or an
// ordered list regardless of which encoding the endpoint chose. The most
// specific interpretation always wins over the most permissive fallback.
//
// Normalization failures are surfaced, never defaulted to an empty result,
// so callers can tell "no data" apart from "could not understand response".
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResponse reports a missing or null response body.
	ErrEmptyResponse = errors.New("empty response body")
	// ErrMalformedPayload reports a wrapper value that claimed to be JSON
	// but could not be parsed, even after substring rescue.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnrecognizedShape reports a body that matched none of the
	// supported encodings.
	ErrUnrecognizedShape = errors.New("unrecognized response shape")
)

// Record is one logical ledger record, field name to value.
type Record = map[string]any

// Payload is the canonical in-memory form the portal consumes: an ordered
// sequence of records, with List distinguishing a real sequence from a
// single record wrapped for uniform access.
type Payload struct {
	Records []Record
	List    bool
}

// First returns the first record, or nil for an empty payload.
func (p Payload) First() Record {
	if len(p.Records) == 0 {
		return nil
	}
	return p.Records[0]
}

// Normalize extracts the logical payload from a raw response body. Rules
// are applied in order, first match wins:
//
//  1. Missing or null body fails with ErrEmptyResponse.
//  2. A top-level array is returned as-is.
//  3. The first present wrapper key supplies the payload. String values
//     are parsed as JSON, with a balanced [...] substring rescue before
//     giving up with ErrMalformedPayload. Object and array values are used
//     directly.
//  4. A top-level object with no matching wrapper key is a single record.
//  5. Anything else fails with ErrUnrecognizedShape.
func Normalize(body []byte, wrapperKeys ...string) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Payload{}, ErrEmptyResponse
	}

	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		// Some endpoints return their payload as a bare JSON string.
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch v := raw.(type) {
	case []any:
		return listPayload(v)
	case map[string]any:
		for _, key := range wrapperKeys {
			inner, ok := v[key]
			if !ok {
				continue
			}
			return fromWrapper(key, inner)
		}
		// No wrapper matched: the object itself is the record.
		return Payload{Records: []Record{v}}, nil
	default:
		return Payload{}, fmt.Errorf("%w: %T", ErrUnrecognizedShape, raw)
	}
}

func fromWrapper(key string, inner any) (Payload, error) {
	switch w := inner.(type) {
	case nil:
		return Payload{}, fmt.Errorf("%w: wrapper %q is null", ErrEmptyResponse, key)
	case string:
		return parseEncoded(key, w)
	case []any:
		return listPayload(w)
	case map[string]any:
		return Payload{Records: []Record{w}}, nil
	default:
		return Payload{}, fmt.Errorf("%w: wrapper %q holds %T", ErrUnrecognizedShape, key, inner)
	}
}

// parseEncoded handles the endpoints that stringify their payload. Strict
// parse first; if that fails, rescue the first balanced [...] substring,
// which recovers bodies with stray prose around the JSON.
func parseEncoded(key, value string) (Payload, error) {
	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		sub, ok := balancedArray(value)
		if !ok {
			return Payload{}, fmt.Errorf("%w: wrapper %q: %v", ErrMalformedPayload, key, err)
		}
		if err := json.Unmarshal([]byte(sub), &parsed); err != nil {
			return Payload{}, fmt.Errorf("%w: wrapper %q: %v", ErrMalformedPayload, key, err)
		}
	}

	switch p := parsed.(type) {
	case []any:
		return listPayload(p)
	case map[string]any:
		return Payload{Records: []Record{p}}, nil
	default:
		return Payload{}, fmt.Errorf("%w: wrapper %q decodes to %T", ErrUnrecognizedShape, key, parsed)
	}
}

func listPayload(items []any) (Payload, error) {
	records := make([]Record, 0, len(items))
	for _, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			return Payload{}, fmt.Errorf("%w: sequence element is %T", ErrUnrecognizedShape, item)
		}
		records = append(records, rec)
	}
	return Payload{Records: records, List: true}, nil
}

// balancedArray returns the first [...] substring with balanced brackets,
// ignoring brackets inside JSON string literals.
func balancedArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
