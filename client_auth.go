package ledgerclient

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/chainportal/ledgerclient/internal/flows"
	"github.com/chainportal/ledgerclient/session"
	"github.com/chainportal/ledgerclient/token"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type loginResponse struct {
	Token string   `json:"token"`
	Roles []string `json:"roles"`
}

// Login authenticates against the auth service and populates the session
// store: token, username, and the first returned role. Other contexts
// observing the store see the login immediately.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrInputRequired
	}

	payload, err := c.run(ctx, callSpec{
		action:     actionLogin,
		method:     http.MethodPost,
		url:        flows.JoinPath(c.config.Endpoints.AuthBase, "login"),
		body:       Credentials{Username: username, Password: password},
		expectBody: true,
		fallback:   "Invalid username or password",
	})
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		return LoginResult{}, err
	}

	return c.storeLogin(ctx, actionLogin, username, payload.First())
}

// AdminLogin authenticates against the account service and refuses to
// store a session unless the first returned role is the admin tag. A
// non-admin credential pair leaves the store untouched.
func (c *Client) AdminLogin(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrInputRequired
	}

	payload, err := c.run(ctx, callSpec{
		action:     actionAdminLogin,
		method:     http.MethodPost,
		url:        flows.JoinPath(c.config.Endpoints.AccountBase, "login"),
		body:       Credentials{Username: username, Password: password},
		expectBody: true,
		fallback:   "Invalid username or password",
	})
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		return LoginResult{}, err
	}

	var resp loginResponse
	if derr := decodeRecord(payload.First(), &resp); derr != nil || resp.Token == "" {
		c.metrics.Inc(MetricLoginFailure)
		return LoginResult{}, ErrMissingToken
	}
	if len(resp.Roles) == 0 || resp.Roles[0] != RoleAdmin {
		c.metrics.Inc(MetricLoginFailure)
		return LoginResult{}, ErrAdminRoleRequired
	}

	return c.storeLogin(ctx, actionAdminLogin, username, payload.First())
}

// storeLogin writes the session from a decoded login record. Role falls
// back to a role claim inside the token when the response carried none.
func (c *Client) storeLogin(ctx context.Context, action, username string, rec map[string]any) (LoginResult, error) {
	var resp loginResponse
	if err := decodeRecord(rec, &resp); err != nil || resp.Token == "" {
		c.metrics.Inc(MetricLoginFailure)
		return LoginResult{}, ErrMissingToken
	}

	role := ""
	if len(resp.Roles) > 0 {
		role = resp.Roles[0]
	} else if claims, err := token.Inspect(resp.Token); err == nil {
		role = claims.Role
	}

	// Storage unavailability degrades to the in-memory session; the
	// login itself succeeded.
	_ = c.store.Set(ctx, session.Session{
		Token:    resp.Token,
		Username: username,
		Role:     role,
	})

	c.metrics.Inc(MetricLoginSuccess)
	c.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now(),
		EventType: EventLogin,
		Action:    action,
		Username:  username,
		Success:   true,
	})

	return LoginResult{Token: resp.Token, Roles: resp.Roles, Role: role}, nil
}

// Logout clears every persisted session slot. Gates observing the store
// revoke their grants without a reload; an in-flight call is not
// cancelled, its eventual result is simply discarded by the view.
func (c *Client) Logout(ctx context.Context) error {
	sess := c.Session(ctx)
	if err := c.store.Clear(ctx); err != nil {
		return err
	}

	c.metrics.Inc(MetricLogout)
	c.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now(),
		EventType: EventLogout,
		Username:  sess.Username,
		Success:   true,
	})
	return nil
}

// Register creates an account. Field presence and email format are
// checked client-side before any network call; duplicate or invalid
// accounts come back as server-reported errors.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if input.Username == "" || input.Password == "" || input.Email == "" || input.FullName == "" {
		return ErrInputRequired
	}
	if !emailPattern.MatchString(input.Email) {
		return ErrInvalidEmail
	}

	_, err := c.run(ctx, callSpec{
		action:   actionRegister,
		method:   http.MethodPost,
		url:      flows.JoinPath(c.config.Endpoints.AccountBase, "register"),
		body:     input,
		fallback: "Registration failed",
	})
	return err
}

// ChangePassword updates the caller's password. Authentication is
// mandatory for this endpoint; the new password must be at least 8
// characters (checked client-side, the backend may demand more).
func (c *Client) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	input.Username = strings.TrimSpace(input.Username)
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return ErrInputRequired
	}
	if len(input.NewPassword) < 8 {
		return ErrPasswordTooShort
	}

	_, err := c.run(ctx, callSpec{
		action:      actionChangePassword,
		method:      http.MethodPost,
		url:         flows.JoinPath(c.config.Endpoints.AuthBase, "change-password"),
		body:        input,
		requireAuth: true,
		fallback:    "Failed to change password",
	})
	return err
}

// CreateAdminUser provisions another admin account. The current session
// must carry the admin tag; the check is fail-closed and the backend
// enforces it again.
func (c *Client) CreateAdminUser(ctx context.Context, input AdminUserInput) error {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" || input.Password == "" || input.Email == "" {
		return ErrInputRequired
	}
	if !emailPattern.MatchString(input.Email) {
		return ErrInvalidEmail
	}

	_, err := c.run(ctx, callSpec{
		action:      actionCreateAdmin,
		method:      http.MethodPost,
		url:         flows.JoinPath(c.config.Endpoints.AuthBase, "createAdminUser"),
		body:        input,
		requireAuth: true,
		adminOnly:   true,
		fallback:    "Failed to create admin user",
	})
	return err
}
