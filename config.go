package ledgerclient

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config groups client configuration. Instances are configured during
// initialization and treated as immutable after Build.
type Config struct {
	Endpoints EndpointsConfig
	HTTP      HTTPConfig
	Session   SessionConfig
	Assets    AssetsConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
ENDPOINTS CONFIG
====================================
*/

// EndpointsConfig names the backend bases. They are configuration, not
// constants: deployments have been observed serving login and account
// registration from different hosts and path prefixes.
type EndpointsConfig struct {
	// AuthBase serves login, change-password, and admin-user creation.
	AuthBase string
	// AccountBase serves registration and admin login. Historically a
	// separate port from AuthBase.
	AccountBase string
	// AssetBase serves every ledger asset query and mutation.
	AssetBase string
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig tunes the underlying HTTP client when none is supplied.
type HTTPConfig struct {
	Timeout time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes the persisted session store.
type SessionConfig struct {
	// RedisPrefix namespaces the session slots and their change channel.
	// Stores sharing a prefix observe each other's logins and logouts.
	RedisPrefix string
}

/*
====================================
ASSETS CONFIG
====================================
*/

// QuantityUpdateMode selects the semantic of a product quantity update.
// Backend variants disagree: some treat the submitted quantity as a delta
// added to current stock, others as the new absolute value. The mode is an
// explicit deployment choice, never guessed.
type QuantityUpdateMode uint8

const (
	// QuantityAdd submits the value as a delta added to current stock.
	QuantityAdd QuantityUpdateMode = iota
	// QuantitySet submits the value as the new absolute quantity.
	QuantitySet
)

// AssetsConfig tunes asset operations.
type AssetsConfig struct {
	QuantityUpdateMode QuantityUpdateMode

	// Wrapper keys accepted per endpoint family, in preference order.
	// Adding an endpoint with a new nesting is a configuration change,
	// not new branching logic. The log endpoint nests its records under
	// "product"; that is the backend's naming, not a typo.
	ProductWrapperKeys  []string
	ShipmentWrapperKeys []string
	LogWrapperKeys      []string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig tunes call telemetry dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is
	// full; dropped counts are observable via [Client.AuditDropped].
	DropIfFull bool
}

// MetricsConfig tunes the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration [Builder.Build] starts from:
// localhost endpoints, additive quantity updates, audit and metrics on.
func DefaultConfig() Config {
	return Config{
		Endpoints: EndpointsConfig{
			AuthBase:    "http://localhost:8080/authservice/auth",
			AccountBase: "http://localhost:8081/api/auth",
			AssetBase:   "http://localhost:8080/supplychainapp/fabric/assets",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "portal",
		},
		Assets: AssetsConfig{
			QuantityUpdateMode:  QuantityAdd,
			ProductWrapperKeys:  []string{"product"},
			ShipmentWrapperKeys: []string{"shipment"},
			LogWrapperKeys:      []string{"product"},
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 128,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Assets.ProductWrapperKeys = append([]string(nil), cfg.Assets.ProductWrapperKeys...)
	out.Assets.ShipmentWrapperKeys = append([]string(nil), cfg.Assets.ShipmentWrapperKeys...)
	out.Assets.LogWrapperKeys = append([]string(nil), cfg.Assets.LogWrapperKeys...)
	return out
}

// Validate checks the configuration for values Build must refuse.
func (c Config) Validate() error {
	for name, base := range map[string]string{
		"AuthBase":    c.Endpoints.AuthBase,
		"AccountBase": c.Endpoints.AccountBase,
		"AssetBase":   c.Endpoints.AssetBase,
	} {
		if strings.TrimSpace(base) == "" {
			return errors.New("endpoints: " + name + " must not be empty")
		}
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("endpoints: " + name + " must be an absolute URL")
		}
	}

	if c.HTTP.Timeout < 0 {
		return errors.New("http: timeout must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit: buffer size must not be negative")
	}
	if c.Assets.QuantityUpdateMode > QuantitySet {
		return errors.New("assets: invalid quantity update mode")
	}
	if len(c.Assets.ProductWrapperKeys) == 0 ||
		len(c.Assets.ShipmentWrapperKeys) == 0 ||
		len(c.Assets.LogWrapperKeys) == 0 {
		return errors.New("assets: wrapper key lists must not be empty")
	}
	return nil
}
