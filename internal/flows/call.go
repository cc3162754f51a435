package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/chainportal/ledgerclient/apierror"
)

// maxBodyBytes bounds how much of a response is read into memory. Ledger
// payloads are small; anything larger is a misbehaving endpoint.
const maxBodyBytes = 4 << 20

// Deps captures what every call needs. Root builds this once at Build.
type Deps struct {
	HTTP *http.Client
}

// Request describes one outbound call. Token and headers are attached
// here so no call site hand-rolls authentication.
type Request struct {
	Method    string
	URL       string
	Body      any               // JSON-encoded when non-nil
	Token     string            // Authorization: Bearer attached when non-empty
	RequestID string            // X-Request-ID attached when non-empty
	Header    map[string]string // extra headers, applied last
}

// Result is the raw outcome of a successful (2xx) call.
type Result struct {
	Status int
	Body   []byte
}

// Do issues one request. Non-2xx statuses return an
// [apierror.ResponseError] carrying the status and raw body; transport
// failures return the *url.Error unchanged. Classification is the
// caller's job.
func Do(ctx context.Context, deps Deps, req Request) (Result, error) {
	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return Result{}, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	resp, err := deps.HTTP.Do(httpReq)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &apierror.ResponseError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       raw,
		}
	}

	return Result{Status: resp.StatusCode, Body: raw}, nil
}

// JoinPath appends segments to base, escaping each segment. Base keeps
// any deployment path prefix it was configured with.
func JoinPath(base string, segments ...string) string {
	out := base
	for _, seg := range segments {
		if len(out) > 0 && out[len(out)-1] != '/' {
			out += "/"
		}
		out += url.PathEscape(seg)
	}
	return out
}
