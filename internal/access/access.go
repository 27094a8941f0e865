// Package access decides, once per navigation, whether the current session
// may open a route.
package access

// Permission is what a route requires
type Permission int

const (
	ViewPublic Permission = iota
	Learn
	Administer
)

func (p Permission) String() string {
	switch p {
	case ViewPublic:
		return "view_public"
	case Learn:
		return "learn"
	case Administer:
		return "administer"
	}
	return "unknown"
}

// Decision is the outcome of a check
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectTopics
)

// Principal is the subset of the session the gate looks at
type Principal interface {
	IsAuthenticated() bool
	IsAdmin() bool
}

// Grants is the capability set of a principal
type Grants map[Permission]bool

// GrantsFor computes the capabilities of p. A nil principal is anonymous.
func GrantsFor(p Principal) Grants {
	g := Grants{ViewPublic: true}
	if p == nil || !p.IsAuthenticated() {
		return g
	}
	g[Learn] = true
	if p.IsAdmin() {
		g[Administer] = true
	}
	return g
}

// Decide maps a missing permission to the redirect the route should issue
func Decide(p Principal, perm Permission) Decision {
	g := GrantsFor(p)
	if g[perm] {
		return Allow
	}
	if !g[Learn] {
		return RedirectLogin
	}
	return RedirectTopics
}
