package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

type blockingSink struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSink) Emit(ctx context.Context, event AuditEvent) {
	s.entered <- struct{}{}
	<-s.release
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	d.Emit(ctx, AuditEvent{EventType: EventCall})
	<-sink.entered // dispatcher is now stuck in the sink

	d.Emit(ctx, AuditEvent{EventType: EventCall}) // fills the buffer
	d.Emit(ctx, AuditEvent{EventType: EventCall}) // dropped
	d.Emit(ctx, AuditEvent{EventType: EventCall}) // dropped

	if got := d.Dropped(); got != 2 {
		t.Fatalf("expected 2 dropped events, got %d", got)
	}

	close(sink.release)
	d.Close()
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d.Emit(ctx, AuditEvent{EventType: EventCall})
	}
	d.Close()

	for i := 0; i < 5; i++ {
		select {
		case <-sink.Events():
		case <-time.After(time.Second):
			t.Fatalf("event %d never reached the sink", i)
		}
	}
}

func TestDisabledDispatcherIsInert(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled config must not start a dispatcher")
	}

	// nil receiver must be safe on every method
	d.Emit(context.Background(), AuditEvent{EventType: EventCall})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now(),
		EventType: EventLogin,
		Username:  "amy",
		Success:   true,
	})

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode emitted line: %v", err)
	}
	if decoded.EventType != EventLogin || decoded.Username != "amy" || !decoded.Success {
		t.Fatalf("unexpected event %+v", decoded)
	}
}

func TestClientEmitsCallEvents(t *testing.T) {
	backend := newTestBackend(t)
	backend.handle("/supplychainapp/fabric/assets/queryProduct/p1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"id": "p1"})
	})

	sink := NewChannelSink(16)
	cfg := DefaultConfig()
	cfg.Endpoints.AuthBase = backend.srv.URL + "/authservice/auth"
	cfg.Endpoints.AccountBase = backend.srv.URL + "/api/auth"
	cfg.Endpoints.AssetBase = backend.srv.URL + "/supplychainapp/fabric/assets"

	client, err := New().WithConfig(cfg).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	defer client.Close()

	if _, err := client.QueryProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("QueryProduct: %v", err)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != EventCall || event.Action != "query_product" {
			t.Fatalf("unexpected event %+v", event)
		}
		if !event.Success || event.HTTPStatus != http.StatusOK || event.RequestID == "" {
			t.Fatalf("unexpected event fields %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("call event never reached the sink")
	}
}
