// Package access implements the userlevel ladder and gatekeeping rules
// of spec §4.6, generalizing cc-backend's internal/auth.Role ordinal
// ladder (RoleAnonymous < RoleApi < ... < RoleAdmin, "HasRole" style
// ordinal comparison) to decof's six-tier userlevel.
package access

// Userlevel is an ordinal access tier. Smaller values carry stronger
// rights: Internal < Service < Maintenance < Normal < Readonly <
// Forbidden, exactly the ladder of spec §4.6.
type Userlevel int

const (
	Internal Userlevel = iota
	Service
	Maintenance
	Normal
	Readonly
	Forbidden
)

var names = [...]string{"internal", "service", "maintenance", "normal", "readonly", "forbidden"}

func (u Userlevel) String() string {
	if u < Internal || u > Forbidden {
		return "invalid"
	}
	return names[u]
}

// Valid reports whether u is one of the six defined tiers.
func (u Userlevel) Valid() bool {
	return u >= Internal && u <= Forbidden
}

// LessEq reports whether u grants rights at least as strong as other,
// i.e. "u <= other" in the ladder's ordinal sense of spec §4.6.
func (u Userlevel) LessEq(other Userlevel) bool {
	return u <= other
}

// EffectiveRead promotes Readonly to Normal for the purpose of read
// access checks (spec §4.3: "Readonly is promoted to Normal for the
// purpose of reads"). Every other level passes through unchanged.
func (u Userlevel) EffectiveRead() Userlevel {
	if u == Readonly {
		return Normal
	}
	return u
}

// CanRead reports whether a client at userlevel u may read an object
// whose read-level is readLevel.
func CanRead(u, readLevel Userlevel) bool {
	return u.EffectiveRead().LessEq(readLevel)
}

// CanWrite reports whether a client at userlevel u may write/signal an
// object whose write-level is writeLevel. A Readonly context can never
// write, regardless of the object's write-level (spec §4.6).
func CanWrite(u, writeLevel Userlevel) bool {
	if u == Readonly {
		return false
	}
	return u.LessEq(writeLevel)
}

// ParseUserlevel converts an integer (as received over the wire via
// 'change-ul) to a Userlevel, failing if out of range (§7
// InvalidUserlevel).
func ParseUserlevel(n int) (Userlevel, bool) {
	u := Userlevel(n)
	return u, u.Valid()
}

// AuthContext is the minimal view of a client context an Authenticator
// needs: who is asking, and from where. internal/clientcontext.Context
// satisfies this structurally; access never imports clientcontext to
// avoid a dependency cycle (generalizes original_source's single
// "authenticator" collaborator referenced from
// include/decof/client_context/client_context.h).
type AuthContext interface {
	RemoteEndpoint() string
	Userlevel() Userlevel
}

// Authenticator is the process-wide callback registered once at startup
// that backs the change-ul meta-operation (spec §4.6). It receives the
// requesting context, the requested level, and an opaque password, and
// returns whether the change is accepted.
type Authenticator func(ctx AuthContext, requested Userlevel, password string) bool
