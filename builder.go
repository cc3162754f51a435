package ledgerclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chainportal/ledgerclient/internal/flows"
	"github.com/chainportal/ledgerclient/session"
)

// Builder assembles a [Client]. Configure during initialization, call
// Build once, then treat the result as immutable.
type Builder struct {
	config     Config
	httpClient *http.Client
	redis      redis.UniversalClient
	store      session.Store
	sink       AuditSink

	built bool
}

// New returns a builder loaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithHTTPClient supplies the HTTP client used for every call. Without
// one, Build constructs a client with the configured timeout.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithRedis supplies the Redis client backing the persistent session
// store. When Redis is unreachable at Build, the client degrades to an
// in-memory session valid for this process only — the documented fallback,
// not an error.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore supplies a session store directly, overriding Redis
// wiring. The caller keeps ownership; Close will not close it.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithAuditSink supplies the sink receiving call telemetry.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	audit := newAuditDispatcher(cfg.Audit, b.sink)

	store := b.store
	ownsStore := false
	var degraded error
	if store == nil {
		ownsStore = true
		if b.redis != nil {
			rs, err := session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
			switch {
			case err == nil:
				store = rs
			case errors.Is(err, session.ErrRedisUnavailable):
				degraded = err
				store = session.NewMemoryStore()
			default:
				audit.Close()
				return nil, err
			}
		} else {
			store = session.NewMemoryStore()
		}
	}

	c := &Client{
		config:    cfg,
		deps:      flows.Deps{HTTP: httpClient},
		store:     store,
		ownsStore: ownsStore,
		audit:     audit,
		metrics:   NewMetrics(cfg.Metrics),
		inflight:  make(map[string]bool),
	}

	if degraded != nil {
		c.audit.Emit(context.Background(), AuditEvent{
			Timestamp: time.Now(),
			EventType: EventSessionDegraded,
			Success:   false,
			Error:     degraded.Error(),
		})
	}

	b.built = true
	return c, nil
}
