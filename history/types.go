// Package history maintains the append-only ledger of observed directory
// state and reconciles fresh snapshots against it.
package history

import (
	"strings"
	"time"

	"adwarden/activedirectory"

	"github.com/google/uuid"
)

// Ledger status values. The inactive spelling is part of the persisted
// contract and must not be normalized.
const (
	RecordActive   = "Active"
	RecordInactive = "inActive"
)

// stampLayout orders lexicographically the same way it orders temporally,
// which the latest-per-identity reduction relies on.
const stampLayout = "2006-01-02 15:04:05"

// Record is one row of the ledger: a point-in-time observation of an
// identity. Rows are immutable once written, except the in-place
// active-status flip performed on deactivation.
type Record struct {
	// ID is the surrogate row id. Zero until the store assigns one.
	// Ties on UpdateStamp are broken by the highest ID.
	ID int64

	// Identity is the login used as the grouping key. Joins against it
	// are case-insensitive.
	Identity string

	Status        string
	Department    string
	Groups        string
	StreetAddress string
	Email         string

	// UpdateStamp is the formatted observation time; the greatest stamp
	// per identity is authoritative.
	UpdateStamp string
}

// Plan is the staged outcome of reconciling a snapshot against the
// ledger. All of it commits in one transaction or none of it does.
type Plan struct {
	// Inserts are brand-new identities.
	Inserts []Record

	// Appends are new versions of changed identities; prior rows stay
	// untouched.
	Appends []Record

	// Deactivations are the latest rows of identities that left the
	// directory; their status flips in place.
	Deactivations []Record

	// Stamp is the observation time applied to every write in the plan.
	Stamp string
}

// Empty reports whether the plan stages no writes at all.
func (p Plan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Appends) == 0 && len(p.Deactivations) == 0
}

// SyncResult summarizes one reconciliation run.
type SyncResult struct {
	RunID       uuid.UUID `json:"run_id"`
	Processed   int       `json:"processed"`
	Inserted    int       `json:"inserted"`
	Updated     int       `json:"updated"`
	Inactivated int       `json:"inactivated"`
	Message     string    `json:"message"`
}

// FormatStamp renders an observation time in the ledger's stamp layout.
func FormatStamp(t time.Time) string {
	return t.Format(stampLayout)
}

// NewRecord projects a normalized user onto the ledger row shape.
func NewRecord(user activedirectory.NormalizedUser, stamp string) Record {
	status := RecordActive
	if !user.Enabled() {
		status = RecordInactive
	}
	return Record{
		Identity:      user.SAMAccountName,
		Status:        status,
		Department:    user.Department,
		Groups:        strings.Join(user.Groups, "; "),
		StreetAddress: user.StreetAddress,
		Email:         user.Mail,
		UpdateStamp:   stamp,
	}
}
