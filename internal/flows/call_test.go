package flows

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/chainportal/ledgerclient/apierror"
)

func TestDoAttachesHeaders(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := Do(context.Background(), Deps{HTTP: srv.Client()}, Request{
		Method:    http.MethodPost,
		URL:       srv.URL + "/x",
		Body:      map[string]string{"k": "v"},
		Token:     "tok-123",
		RequestID: "req-1",
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if h := got.Header.Get("Authorization"); h != "Bearer tok-123" {
		t.Errorf("Authorization = %q", h)
	}
	if h := got.Header.Get("X-Request-ID"); h != "req-1" {
		t.Errorf("X-Request-ID = %q", h)
	}
	if h := got.Header.Get("Content-Type"); h != "application/json" {
		t.Errorf("Content-Type = %q", h)
	}
}

func TestDoOmitsAuthorizationWithoutToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := Do(context.Background(), Deps{HTTP: srv.Client()}, Request{
		Method: http.MethodGet,
		URL:    srv.URL,
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if auth != "" {
		t.Fatalf("Authorization = %q, want unset", auth)
	}
}

func TestDoErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
	}))
	defer srv.Close()

	_, err := Do(context.Background(), Deps{HTTP: srv.Client()}, Request{
		Method: http.MethodGet,
		URL:    srv.URL,
	})

	var resp *apierror.ResponseError
	if !errors.As(err, &resp) {
		t.Fatalf("err = %v, want ResponseError", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("Status = %d", resp.Status)
	}
	if string(resp.Body) != `{"message":"not found"}` {
		t.Fatalf("Body = %q", resp.Body)
	}
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening

	_, err := Do(context.Background(), Deps{HTTP: &http.Client{}}, Request{
		Method: http.MethodGet,
		URL:    srv.URL,
	})

	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Fatalf("err = %v, want *url.Error", err)
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"http://x/assets", []string{"queryProduct", "P1"}, "http://x/assets/queryProduct/P1"},
		{"http://x/assets/", []string{"queryProduct", "P 1"}, "http://x/assets/queryProduct/P%201"},
		{"http://x", []string{"update", "a/b"}, "http://x/update/a%2Fb"},
	}
	for _, tt := range tests {
		if got := JoinPath(tt.base, tt.segments...); got != tt.want {
			t.Errorf("JoinPath(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}
