package activedirectory

import (
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

// userAccountControl bits, per MS-ADTS 2.2.16.
const (
	UACAccountDisable     = 0x0002
	UACDontExpirePassword = 0x10000
)

// Account status values derived from the UAC disable bit.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// ErrUserNotFound is returned by single-entry lookups when the directory
// holds no matching entry. Existence checks treat it as an expected
// outcome, not a failure.
var ErrUserNotFound = errors.New("user not found in directory")

// ValidationError rejects malformed input before any directory call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsNotFound reports whether err stems from a lookup that matched no entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject)
}

// NormalizedUser is the fixed-shape record extracted from a directory
// entry at the boundary. Downstream components never touch raw
// attribute bags.
type NormalizedUser struct {
	SAMAccountName    string
	DisplayName       string
	CN                string
	Surname           string
	GivenName         string
	UserPrincipalName string
	Mail              string
	TelephoneNumber   string
	Title             string
	Department        string
	Company           string
	Description       string

	// StreetAddress doubles as the employee-identifier surrogate.
	StreetAddress string

	DN     string
	Groups []string

	// Status is StatusActive or StatusInactive, from the UAC disable bit.
	Status string

	// UserAccountControl is the raw account-control bitmask.
	UserAccountControl int64

	// PwdLastSetRaw is the raw pwdLastSet attribute: a count of
	// 100-nanosecond intervals since 1601-01-01 UTC. "0" means the
	// password must be changed at next logon.
	PwdLastSetRaw string
}

// Enabled reports whether the account is not disabled.
func (u NormalizedUser) Enabled() bool {
	return u.Status == StatusActive
}

// NewUserRequest carries the attributes for the narrow account-creation
// operation this system exposes.
type NewUserRequest struct {
	DN                string
	SAMAccountName    string
	CN                string
	GivenName         string
	Surname           string
	DisplayName       string
	UserPrincipalName string
	Mail              string
	Department        string
	Title             string
}
