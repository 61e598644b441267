// Package auth implements the default access.Authenticator used by
// cmd/decofd's 'change-ul handling (spec §4.6): a bcrypt-hashed password
// per access.Userlevel, checked against the plaintext password argument
// 'change-ul's handler already receives. DeCoF's own authentication
// model has no per-user login, session, or external identity provider
// concept -- clisrv_context::process_request's 'change-ul branch calls
// a single opaque userlevel_cb_(ctx, level, password) callback, which
// access.Authenticator already models exactly. This package supplies
// one concrete, useful implementation of that callback instead of
// leaving every deployment to write its own from scratch, grounded on
// cc-backend's local-password bcrypt check (its session/JWT/LDAP/OIDC
// machinery backs per-user login flows that are out of scope here, so
// none of it survives in this package).
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/decof-project/decofd/internal/access"
)

// LevelAuthenticator holds one bcrypt hash per userlevel that can be
// reached through it; a level without a hash, Readonly and Normal
// included, is never granted.
type LevelAuthenticator struct {
	hashes map[access.Userlevel][]byte
}

// NewLevelAuthenticator builds a LevelAuthenticator from a map of
// userlevel to its bcrypt hash (as produced by HashPassword), rejecting
// any hash that isn't well-formed bcrypt up front rather than failing
// lazily on the first login attempt.
func NewLevelAuthenticator(hashes map[access.Userlevel]string) (*LevelAuthenticator, error) {
	la := &LevelAuthenticator{hashes: make(map[access.Userlevel][]byte, len(hashes))}
	for level, hash := range hashes {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("auth: userlevel %d: %w", int(level), err)
		}
		la.hashes[level] = []byte(hash)
	}
	return la, nil
}

// HashPassword bcrypt-hashes a plaintext password at the default cost,
// for use by config tooling that provisions a LevelAuthenticator.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate is an access.Authenticator: it reports whether password
// unlocks requested, ignoring ctx (a level password is not tied to any
// one connection's identity). A userlevel with no configured hash
// always denies -- there is no way to escalate to a level the deployment
// never provisioned a password for.
func (la *LevelAuthenticator) Authenticate(ctx access.AuthContext, requested access.Userlevel, password string) bool {
	hash, ok := la.hashes[requested]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// AsCallback adapts la to the access.Authenticator function type clicmd
// and cmd/decofd wire into a Handler.
func (la *LevelAuthenticator) AsCallback() access.Authenticator {
	return la.Authenticate
}
