package history

import (
	"sort"
	"strings"
	"time"

	"adwarden/activedirectory"
)

// BuildPlan diffs a fresh snapshot against the latest ledger record per
// identity and stages the resulting writes. Pure: no I/O, no side
// effects. The latest map must already be reduced to one record per
// identity key (greatest update stamp).
//
// Insert/append detection over the full snapshot is staged before the
// anti-join runs, so a leaver decision always sees the complete fresh
// state.
func BuildPlan(fresh []activedirectory.NormalizedUser, latest map[string]Record, now time.Time) Plan {
	plan := Plan{Stamp: FormatStamp(now)}

	latestByKey := make(map[string]Record, len(latest))
	for _, record := range latest {
		latestByKey[strings.ToLower(record.Identity)] = record
	}

	seen := make(map[string]bool, len(fresh))
	for _, user := range fresh {
		key := strings.ToLower(user.SAMAccountName)
		if key == "" {
			continue
		}
		seen[key] = true

		incoming := NewRecord(user, plan.Stamp)
		previous, known := latestByKey[key]
		switch {
		case !known:
			plan.Inserts = append(plan.Inserts, incoming)
		case recordChanged(previous, incoming):
			plan.Appends = append(plan.Appends, incoming)
		}
	}

	// Anti-join: identities the directory no longer returns. Only rows
	// still marked Active flip, which keeps repeated runs idempotent.
	for key, record := range latestByKey {
		if !seen[key] && record.Status == RecordActive {
			plan.Deactivations = append(plan.Deactivations, record)
		}
	}
	sort.Slice(plan.Deactivations, func(i, j int) bool {
		return strings.ToLower(plan.Deactivations[i].Identity) < strings.ToLower(plan.Deactivations[j].Identity)
	})

	return plan
}

// recordChanged compares the observed fields that warrant a new ledger row.
func recordChanged(previous, incoming Record) bool {
	return previous.Status != incoming.Status ||
		previous.Department != incoming.Department ||
		previous.Groups != incoming.Groups ||
		previous.StreetAddress != incoming.StreetAddress ||
		previous.Email != incoming.Email
}
