package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

var ErrInvalidScope = errors.New("invalid scope")

// Scope is a bitset of named permissions. Bits are append-only: persisted
// values stay meaningful only if an existing bit is never reassigned.
type Scope uint64

const (
	ScopeHackerRead Scope = 1 << iota
	ScopeHackerManage
	ScopeHackerAccept
	ScopeClubEventRefresh
	ScopeEmailSend
	ScopeEventCreate
	ScopeEventUpdate
	ScopeSponsorCreate
	ScopeSponsorRead
	ScopeTeamManage
	ScopeUserManage

	scopeSentinel
)

// ScopeNone grants nothing.
const ScopeNone Scope = 0

const scopeAll = scopeSentinel - 1

// Coarse roles are named unions of fine-grained scopes.
const (
	RoleHacker = ScopeHackerRead | ScopeSponsorRead
	RoleMod    = RoleHacker | ScopeHackerManage | ScopeHackerAccept | ScopeClubEventRefresh |
		ScopeEmailSend | ScopeEventCreate | ScopeEventUpdate | ScopeTeamManage
	RoleAdmin = scopeAll
)

var scopeNames = map[Scope]string{
	ScopeHackerRead:       "Hacker_Read",
	ScopeHackerManage:     "Hacker_Manage",
	ScopeHackerAccept:     "Hacker_Accept",
	ScopeClubEventRefresh: "ClubEvent_Refresh",
	ScopeEmailSend:        "Email_Send",
	ScopeEventCreate:      "Event_Create",
	ScopeEventUpdate:      "Event_Update",
	ScopeSponsorCreate:    "Sponsor_Create",
	ScopeSponsorRead:      "Sponsor_Read",
	ScopeTeamManage:       "Team_Manage",
	ScopeUserManage:       "User_Manage",
}

var roleNames = []struct {
	name  string
	scope Scope
}{
	{name: "HACKER", scope: RoleHacker},
	{name: "MOD", scope: RoleMod},
	{name: "ADMIN", scope: RoleAdmin},
}

var scopesByName = func() map[string]Scope {
	m := make(map[string]Scope, len(scopeNames)+len(roleNames))
	for s, name := range scopeNames {
		m[strings.ToLower(name)] = s
	}
	for _, r := range roleNames {
		m[strings.ToLower(r.name)] = r.scope
	}
	return m
}()

// ParseScope resolves a scope or role name. Matching is case-insensitive.
func ParseScope(name string) (Scope, error) {
	s, ok := scopesByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ScopeNone, fmt.Errorf("%w: %q", ErrInvalidScope, name)
	}
	return s, nil
}

// ParseScopes unions every name; one unknown name fails the whole set.
func ParseScopes(names []string) (Scope, error) {
	var out Scope
	for _, n := range names {
		s, err := ParseScope(n)
		if err != nil {
			return ScopeNone, err
		}
		out |= s
	}
	return out, nil
}

// MustScopes is for requirements known at route registration time.
func MustScopes(names ...string) Scope {
	s, err := ParseScopes(names)
	if err != nil {
		panic(err)
	}
	return s
}

// ScopeFromInt accepts a persisted integer and rejects bits with no name.
func ScopeFromInt(v int64) (Scope, error) {
	if v < 0 || Scope(v)&^scopeAll != 0 {
		return ScopeNone, fmt.Errorf("%w: unknown bits in %d", ErrInvalidScope, v)
	}
	return Scope(v), nil
}

// Value stores the bitset as a signed integer column.
func (s Scope) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *Scope) Scan(src any) error {
	var v int64
	switch t := src.(type) {
	case nil:
		*s = ScopeNone
		return nil
	case int64:
		v = t
	case []byte:
		if _, err := fmt.Sscan(string(t), &v); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidScope, t)
		}
	case string:
		if _, err := fmt.Sscan(t, &v); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidScope, t)
		}
	default:
		return fmt.Errorf("%w: unsupported column type %T", ErrInvalidScope, src)
	}
	parsed, err := ScopeFromInt(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Scope) Union(other Scope) Scope {
	return s | other
}

// Intersects reports whether s holds at least one of the required scopes.
func (s Scope) Intersects(required Scope) bool {
	return s&required != 0
}

// Contains reports whether s holds every scope in other.
func (s Scope) Contains(other Scope) bool {
	return s&other == other
}

func (s Scope) IsZero() bool {
	return s == ScopeNone
}

// Names lists the fine-grained scope names in bit order.
func (s Scope) Names() []string {
	out := make([]string, 0, bits.OnesCount64(uint64(s)))
	for bit := Scope(1); bit < scopeSentinel; bit <<= 1 {
		if s&bit != 0 {
			out = append(out, scopeNames[bit])
		}
	}
	return out
}

// Roles lists the coarse roles fully contained in s.
func (s Scope) Roles() []string {
	out := make([]string, 0, len(roleNames))
	for _, r := range roleNames {
		if s.Contains(r.scope) {
			out = append(out, r.name)
		}
	}
	return out
}

func (s Scope) String() string {
	names := s.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// AllScopeNames returns every known fine-grained scope name, sorted.
func AllScopeNames() []string {
	out := make([]string, 0, len(scopeNames))
	for _, n := range scopeNames {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
