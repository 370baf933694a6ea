// Package audit classifies directory accounts for audit reporting:
// exclusion by organizational unit and group, privilege labeling, and
// rendering the resulting rows.
package audit

import (
	"sort"
	"strings"

	"adwarden/activedirectory"
)

// ReportRow is one line of the audit report.
type ReportRow struct {
	SAMAccountName string `json:"sam_account_name"`
	Privileged     bool   `json:"privileged"`
	DisplayName    string `json:"display_name"`
	Enabled        bool   `json:"enabled"`
}

// Rules carries the policy inputs for classification.
type Rules struct {
	// ExcludedOUs drops any user whose DN contains one of these substrings.
	ExcludedOUs []string

	// ExcludedGroupDNs drops members of these groups. Full DNs; reduced
	// to short names before matching.
	ExcludedGroupDNs []string

	// PrivilegedGroupDNs mark members privileged, but only when
	// PrivilegedAccounts is empty.
	PrivilegedGroupDNs []string

	// PrivilegedAccounts, when non-empty, is the sole source of
	// privilege: group membership is not consulted.
	PrivilegedAccounts []string
}

// Classify filters a snapshot by the exclusion rules and labels the
// survivors. Output order is unspecified; SortRows establishes the
// presentation order.
func Classify(users []activedirectory.NormalizedUser, rules Rules) []ReportRow {
	excludedGroups := shortNameSet(rules.ExcludedGroupDNs)
	privilegedGroups := shortNameSet(rules.PrivilegedGroupDNs)

	privilegedAccounts := make(map[string]bool, len(rules.PrivilegedAccounts))
	for _, account := range rules.PrivilegedAccounts {
		privilegedAccounts[strings.ToLower(account)] = true
	}

	rows := make([]ReportRow, 0, len(users))
	for _, user := range users {
		if inExcludedOU(user.DN, rules.ExcludedOUs) {
			continue
		}
		if intersects(user.Groups, excludedGroups) {
			continue
		}

		privileged := false
		if len(privilegedAccounts) > 0 {
			privileged = privilegedAccounts[strings.ToLower(user.SAMAccountName)]
		} else {
			privileged = intersects(user.Groups, privilegedGroups)
		}

		rows = append(rows, ReportRow{
			SAMAccountName: user.SAMAccountName,
			Privileged:     privileged,
			DisplayName:    user.DisplayName,
			Enabled:        user.Enabled(),
		})
	}
	return rows
}

// SortRows orders rows for presentation: enabled first, then privileged
// first, then login ascending case-insensitive. The sort is stable.
func SortRows(rows []ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Enabled != b.Enabled {
			return a.Enabled
		}
		if a.Privileged != b.Privileged {
			return a.Privileged
		}
		return strings.ToLower(a.SAMAccountName) < strings.ToLower(b.SAMAccountName)
	})
}

func shortNameSet(groupDNs []string) map[string]bool {
	set := make(map[string]bool, len(groupDNs))
	for _, dn := range groupDNs {
		set[strings.ToLower(activedirectory.ShortGroupName(dn))] = true
	}
	return set
}

func intersects(groups []string, set map[string]bool) bool {
	for _, group := range groups {
		if set[strings.ToLower(group)] {
			return true
		}
	}
	return false
}

func inExcludedOU(dn string, excludedOUs []string) bool {
	for _, ou := range excludedOUs {
		if ou != "" && strings.Contains(dn, ou) {
			return true
		}
	}
	return false
}
