package domain

// Session is the authenticated-session signal consumed by checkout. The zero
// value is an anonymous visitor.
type Session struct {
	UserID string
	// Token is the raw bearer token, forwarded to a remote order service.
	Token string
}

func (s Session) Authenticated() bool {
	return s.UserID != ""
}
