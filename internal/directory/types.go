package directory

import (
	"errors"
	"fmt"
)

// Role is the access level of a credential.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ConfigError marks an inconsistency between the credential and directory
// tables. It is an operator-facing setup defect, not a user-facing auth
// failure.
type ConfigError struct {
	Table  string
	Line   int
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %s", e.Table, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Reason)
}

// Credential is one row of the login table. Password holds a bcrypt hash,
// never plaintext.
type Credential struct {
	Username   string
	Password   string
	Role       Role
	ClientName string
}

// Entry is one row of the booth directory. A row with an empty Location and
// Booth registers the client without any booths yet (newly onboarded).
type Entry struct {
	ClientName   string
	Location     string
	Booth        string
	BoothID      string
	MaxOccupancy int
}

// Placeholder reports whether the row only registers the client name.
func (e Entry) Placeholder() bool {
	return e.Location == "" && e.Booth == ""
}

// Scope is the set of directory entries a session may view. Admin scopes are
// a wildcard; client scopes name exactly one client.
type Scope struct {
	Role       Role
	ClientName string
}

// Admin reports whether the scope covers the whole directory.
func (s Scope) Admin() bool {
	return s.Role == RoleAdmin
}
