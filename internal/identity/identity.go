// Package identity defines the boundary to the external identity
// provider. The core consumes a stream of identity-changed events and
// verifies bearer tokens; it never performs sign-in or sign-out itself.
package identity

import "context"

// Identity is a verified external identity.
type Identity struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
}

// Event signals that the current identity changed. A nil Identity means
// signed out.
type Event struct {
	Identity *Identity
}

// SignedOut reports whether the event represents a sign-out.
func (e Event) SignedOut() bool {
	return e.Identity == nil
}

// Verifier checks a bearer token and returns the identity it proves.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}
