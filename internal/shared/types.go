package shared

// shared types across the application
// 1st: acting identity passed explicitly into every library operation
// 2nd: auth claims structure for JWT authentication in HTTP API

// Identity is the acting user for an operation (user UUID).
type Identity string

// Anonymous is the sentinel identity for unauthenticated callers.
const Anonymous Identity = ""

// IsAnonymous reports whether no user is acting.
func (i Identity) IsAnonymous() bool {
	return i == Anonymous
}

// UserID returns the identity as a nullable user reference for new rows.
func (i Identity) UserID() *string {
	if i.IsAnonymous() {
		return nil
	}
	id := string(i)
	return &id
}

type AuthClaims struct {
	UserID   string `json:"user_id"`  // user identifier(UUID)
	UserName string `json:"username"` // username
}
