package ledgerclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chainportal/ledgerclient/apierror"
	"github.com/chainportal/ledgerclient/gate"
	"github.com/chainportal/ledgerclient/internal/flows"
	"github.com/chainportal/ledgerclient/normalize"
	"github.com/chainportal/ledgerclient/session"
	"github.com/chainportal/ledgerclient/token"
)

// Client is the portal's single path to the ledger backend. Every
// outbound call reads the session store, attaches the bearer token when
// one is present, and returns either a normalized payload or a classified
// error — call sites never see a raw HTTP failure.
//
// Methods are safe to call from multiple goroutines after Build, but each
// logical action admits one outstanding call at a time: a second trigger
// while the first is in flight returns [ErrActionInFlight] without
// touching the network.
type Client struct {
	config    Config
	deps      flows.Deps
	store     session.Store
	ownsStore bool
	audit     *auditDispatcher
	metrics   *Metrics

	inflightMu sync.Mutex
	inflight   map[string]bool

	closed atomic.Bool
}

// Logical action names. One in-flight call per name.
const (
	actionLogin          = "login"
	actionAdminLogin     = "admin_login"
	actionRegister       = "register"
	actionChangePassword = "change_password"
	actionCreateAdmin    = "create_admin_user"
	actionQueryProduct   = "query_product"
	actionQueryShipment  = "query_shipment"
	actionQueryLogs      = "query_logs"
	actionCreateProduct  = "create_product"
	actionUpdateProduct  = "update_product"
	actionRemoveProduct  = "remove_product"
	actionCreateShipment = "create_shipment"
	actionUpdateShipment = "update_shipment"
	actionPlaceOrder     = "place_order"
)

// SessionStore exposes the store so views can subscribe and gates can
// attach. The client remains the only writer.
func (c *Client) SessionStore() session.Store {
	return c.store
}

// Gate builds an access gate for one protected view, wired to this
// client's session store.
func (c *Client) Gate(req gate.Requirement) *gate.Gate {
	return gate.New(c.store, req)
}

// Session returns the current session snapshot.
func (c *Client) Session(ctx context.Context) session.Session {
	s, err := c.store.Get(ctx)
	if err != nil {
		// An unreadable store reads as signed out; the degraded mode is
		// already on the audit trail.
		return session.Session{}
	}
	return s
}

// MetricsSnapshot copies the in-process counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped reports telemetry events discarded under a full buffer.
func (c *Client) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// Close flushes telemetry and releases stores the client owns. Calls made
// after Close return ErrClientClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.audit.Close()
	if c.ownsStore {
		return c.store.Close()
	}
	return nil
}

// callSpec describes one orchestrated call.
type callSpec struct {
	action string
	method string
	url    string
	body   any
	header map[string]string

	// requireAuth fails fast with ErrAuthRequired when no token is
	// stored. Endpoints that accept unauthenticated calls leave it
	// unset: an absent token simply omits the Authorization header.
	requireAuth bool
	// adminOnly additionally demands the admin role tag, fail-closed.
	adminOnly bool

	// expectBody runs the response through normalization with
	// wrapperKeys. Ack-style endpoints leave it unset and ignore the
	// body.
	expectBody  bool
	wrapperKeys []string

	// fallback is the generic display message for error shapes nothing
	// recognizes.
	fallback string
}

// run executes one call end to end: busy admission, session read, header
// attachment, the network call, then normalization or classification.
// Errors are surfaced exactly once; there are no retries.
func (c *Client) run(ctx context.Context, spec callSpec) (normalize.Payload, error) {
	if c.closed.Load() {
		return normalize.Payload{}, ErrClientClosed
	}

	if !c.begin(spec.action) {
		c.metrics.Inc(MetricActionRejectedBusy)
		return normalize.Payload{}, fmt.Errorf("%s: %w", spec.action, ErrActionInFlight)
	}
	defer c.end(spec.action)

	sess := c.Session(ctx)
	if spec.requireAuth && !sess.Authenticated() {
		return normalize.Payload{}, ErrAuthRequired
	}
	if spec.adminOnly && !gate.AllowSection(sess, gate.RoleAdmin) {
		return normalize.Payload{}, ErrAdminRoleRequired
	}

	requestID := requestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if sess.Authenticated() && token.Expired(sess.Token, time.Now()) {
		// Still sent: the backend owns token validity and will answer
		// 401. The flag only explains the failure in telemetry.
		c.audit.Emit(ctx, AuditEvent{
			Timestamp: time.Now(),
			EventType: EventExpiredTokenSent,
			Action:    spec.action,
			RequestID: requestID,
			Username:  sess.Username,
		})
	}

	c.metrics.Inc(MetricCallIssued)
	start := time.Now()

	res, err := flows.Do(ctx, c.deps, flows.Request{
		Method:    spec.method,
		URL:       spec.url,
		Body:      spec.body,
		Token:     sess.Token,
		RequestID: requestID,
		Header:    spec.header,
	})

	duration := time.Since(start)
	c.metrics.Observe(duration)

	if err != nil {
		classified := apierror.Classify(err, spec.fallback)
		c.countFailure(classified.Kind)
		c.emitCall(ctx, spec, sess, requestID, classified.HTTPStatus, duration, classified)
		return normalize.Payload{}, classified
	}

	if !spec.expectBody {
		c.metrics.Inc(MetricCallSucceeded)
		c.emitCall(ctx, spec, sess, requestID, res.Status, duration, nil)
		return normalize.Payload{}, nil
	}

	payload, nerr := normalize.Normalize(res.Body, spec.wrapperKeys...)
	if nerr != nil {
		classified := apierror.FromNormalization(nerr, normalizationKind(nerr))
		c.metrics.Inc(MetricCallPayloadError)
		c.emitCall(ctx, spec, sess, requestID, res.Status, duration, classified)
		return normalize.Payload{}, classified
	}

	c.metrics.Inc(MetricCallSucceeded)
	c.emitCall(ctx, spec, sess, requestID, res.Status, duration, nil)
	return payload, nil
}

func (c *Client) begin(action string) bool {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	if c.inflight[action] {
		return false
	}
	c.inflight[action] = true
	return true
}

func (c *Client) end(action string) {
	c.inflightMu.Lock()
	delete(c.inflight, action)
	c.inflightMu.Unlock()
}

func (c *Client) countFailure(kind apierror.Kind) {
	switch kind {
	case apierror.KindNetworkOrCORS:
		c.metrics.Inc(MetricCallNetworkFailure)
	case apierror.KindServerReported:
		c.metrics.Inc(MetricCallServerError)
	case apierror.KindEmptyResponse, apierror.KindMalformedPayload, apierror.KindUnrecognizedShape:
		c.metrics.Inc(MetricCallPayloadError)
	default:
		c.metrics.Inc(MetricCallUnknownError)
	}
}

func (c *Client) emitCall(ctx context.Context, spec callSpec, sess session.Session, requestID string, status int, duration time.Duration, failure *apierror.Error) {
	event := AuditEvent{
		Timestamp:  time.Now(),
		EventType:  EventCall,
		Action:     spec.action,
		Endpoint:   spec.url,
		Method:     spec.method,
		RequestID:  requestID,
		Username:   sess.Username,
		HTTPStatus: status,
		Success:    failure == nil,
		Duration:   duration,
	}
	if failure != nil {
		event.ErrorKind = failure.Kind.String()
		event.Error = failure.Message
	}
	c.audit.Emit(ctx, event)
}

func normalizationKind(err error) apierror.Kind {
	switch {
	case errors.Is(err, normalize.ErrEmptyResponse):
		return apierror.KindEmptyResponse
	case errors.Is(err, normalize.ErrMalformedPayload):
		return apierror.KindMalformedPayload
	default:
		return apierror.KindUnrecognizedShape
	}
}

// decodeRecord maps a normalized record onto a typed struct through its
// JSON tags.
func decodeRecord(rec normalize.Record, v any) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("re-encode record: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
