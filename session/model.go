package session

// Session is the identity snapshot shared by every portal view. The zero
// value means signed out. Role is meaningful only while Token is present.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Authenticated reports whether the session carries a token. Absence of a
// token is the single signed-out signal; an empty username or role on its
// own does not end a session.
func (s Session) Authenticated() bool {
	return s.Token != ""
}
