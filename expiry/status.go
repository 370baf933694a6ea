// Package expiry computes password-lifecycle state from normalized
// directory records and selects accounts for expiry notification.
package expiry

import (
	"math"
	"strconv"
	"time"

	"adwarden/activedirectory"
)

const (
	// 100ns ticks between 1601-01-01 and the Unix epoch.
	filetimeEpochOffset = 116444736000000000
	filetimeNever       = int64(9223372036854775807)
)

// PasswordStatus is the derived lifecycle state for one account. The
// three temporal fields are populated together or not at all: they stay
// nil when the password never expires or pwdLastSet holds no valid
// positive tick count.
type PasswordStatus struct {
	User         activedirectory.NormalizedUser
	NeverExpires bool
	LastSet      *time.Time
	ExpiresAt    *time.Time

	// DaysUntilExpiration is negative once the password has expired.
	DaysUntilExpiration *int

	// MaxAgeDays records the policy input used for the calculation.
	MaxAgeDays int
}

// ComputeStatus derives the password status for a user under the given
// maximum password age. A malformed pwdLastSet degrades to "no valid
// timestamp" rather than failing.
func ComputeStatus(user activedirectory.NormalizedUser, maxAgeDays int, now time.Time) PasswordStatus {
	status := PasswordStatus{
		User:         user,
		NeverExpires: user.UserAccountControl&activedirectory.UACDontExpirePassword != 0,
		MaxAgeDays:   maxAgeDays,
	}

	ticks, err := strconv.ParseInt(user.PwdLastSetRaw, 10, 64)
	if err != nil {
		ticks = 0
	}
	if status.NeverExpires || ticks <= 0 || ticks == filetimeNever {
		return status
	}

	lastSet := filetimeToLocal(ticks)
	expiresAt := lastSet.AddDate(0, 0, maxAgeDays)
	days := daysUntil(now, expiresAt)

	status.LastSet = &lastSet
	status.ExpiresAt = &expiresAt
	status.DaysUntilExpiration = &days
	return status
}

// ComputeStatuses runs ComputeStatus over a snapshot.
func ComputeStatuses(users []activedirectory.NormalizedUser, maxAgeDays int, now time.Time) []PasswordStatus {
	statuses := make([]PasswordStatus, len(users))
	for i, user := range users {
		statuses[i] = ComputeStatus(user, maxAgeDays, now)
	}
	return statuses
}

// filetimeToLocal converts a Windows FILETIME tick count to local time.
func filetimeToLocal(ticks int64) time.Time {
	nsSinceUnix := (ticks - filetimeEpochOffset) * 100
	return time.Unix(0, nsSinceUnix)
}

// daysUntil floors the whole-day distance from now to expiration.
// Floor, not truncation: an expiration 0.3 days in the past yields -1.
func daysUntil(now, expiresAt time.Time) int {
	return int(math.Floor(expiresAt.Sub(now).Hours() / 24))
}
