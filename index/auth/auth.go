// Package auth defines the authentication boundary of the index. The index
// itself never verifies credentials, it consumes resolved principals from a
// session authenticator and, on restricted downloads, from a fallback
// credential authenticator (typically basic auth).
package auth

import (
	"fmt"
	"net/http"
)

// Principal is an authenticated or anonymous caller identity with a set of
// group memberships.
type Principal struct {
	// Name identifies the principal in audit logs.
	Name string

	// Groups is the set of group identifiers the principal belongs to.
	Groups []string

	// Superuser principals bypass all permission checks.
	Superuser bool

	// Authenticated is false for the anonymous principal.
	Authenticated bool
}

// Anonymous is the principal attributed to unauthenticated callers.
var Anonymous = Principal{Name: "Anonymous"}

// InGroup reports whether the principal is a member of the named group.
func (p Principal) InGroup(group string) bool {
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// SessionAuthenticator resolves the principal already attached to a request,
// if any (e.g. a login session).
type SessionAuthenticator interface {
	// CurrentPrincipal returns the request principal and true, or false when
	// the request carries no session identity.
	CurrentPrincipal(r *http.Request) (Principal, bool)
}

// CredentialAuthenticator performs a secondary credential handshake. It is
// only consulted when no session principal exists and the requested package
// is access-restricted.
type CredentialAuthenticator interface {
	// AuthenticateCredentials returns the principal for credentials carried
	// on the request, or false when absent or invalid.
	AuthenticateCredentials(r *http.Request) (Principal, bool)
}

// Challenge carries the information needed to ask a client to authenticate.
type Challenge interface {
	error

	// SetHeaders prepares the request to conduct a challenge response by
	// adding an HTTP challenge header on the response message.
	SetHeaders(w http.ResponseWriter)
}

// NewBasicChallenge returns a Challenge for HTTP basic authentication against
// the given realm.
func NewBasicChallenge(realm string) Challenge {
	return basicChallenge{realm: realm}
}

type basicChallenge struct {
	realm string
}

func (c basicChallenge) SetHeaders(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", c.realm))
}

func (c basicChallenge) Error() string {
	return fmt.Sprintf("basic authentication challenge for realm %q", c.realm)
}
