package audit

import (
	"testing"

	"adwarden/activedirectory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditUser(login, dn string, enabled bool, groups ...string) activedirectory.NormalizedUser {
	status := activedirectory.StatusActive
	if !enabled {
		status = activedirectory.StatusInactive
	}
	return activedirectory.NormalizedUser{
		SAMAccountName: login,
		DisplayName:    login + " Display",
		DN:             dn,
		Groups:         groups,
		Status:         status,
	}
}

func TestClassify_ExcludedOUSubstringDropsUser(t *testing.T) {
	users := []activedirectory.NormalizedUser{
		auditUser("svc1", "CN=svc1,OU=Service Accounts,DC=corp,DC=example", true),
		auditUser("jdoe", "CN=jdoe,OU=Staff,DC=corp,DC=example", true),
	}

	rows := Classify(users, Rules{ExcludedOUs: []string{"OU=Service Accounts"}})

	require.Len(t, rows, 1)
	assert.Equal(t, "jdoe", rows[0].SAMAccountName)
}

func TestClassify_ExcludedGroupDropsUser(t *testing.T) {
	users := []activedirectory.NormalizedUser{
		auditUser("contractor", "CN=contractor,OU=Staff,DC=corp,DC=example", true, "External Contractors"),
		auditUser("jdoe", "CN=jdoe,OU=Staff,DC=corp,DC=example", true, "Staff"),
	}

	rows := Classify(users, Rules{
		ExcludedGroupDNs: []string{"CN=External Contractors,OU=Groups,DC=corp,DC=example"},
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "jdoe", rows[0].SAMAccountName)
}

func TestClassify_GroupExclusionIsCaseInsensitive(t *testing.T) {
	users := []activedirectory.NormalizedUser{
		auditUser("contractor", "CN=contractor,OU=Staff,DC=corp", true, "external contractors"),
	}

	rows := Classify(users, Rules{
		ExcludedGroupDNs: []string{"CN=External Contractors,OU=Groups,DC=corp"},
	})

	assert.Empty(t, rows)
}

func TestClassify_ExplicitPrivilegedListTakesTotalPrecedence(t *testing.T) {
	users := []activedirectory.NormalizedUser{
		// In a privileged group but not in the explicit list: NOT privileged.
		auditUser("groupadmin", "CN=groupadmin,OU=Staff,DC=corp", true, "Domain Admins"),
		auditUser("listed", "CN=listed,OU=Staff,DC=corp", true),
	}

	rows := Classify(users, Rules{
		PrivilegedGroupDNs: []string{"CN=Domain Admins,CN=Users,DC=corp"},
		PrivilegedAccounts: []string{"Listed"},
	})

	require.Len(t, rows, 2)
	byLogin := map[string]ReportRow{}
	for _, row := range rows {
		byLogin[row.SAMAccountName] = row
	}
	assert.False(t, byLogin["groupadmin"].Privileged)
	assert.True(t, byLogin["listed"].Privileged)
}

func TestClassify_GroupPrivilegeWhenNoExplicitList(t *testing.T) {
	users := []activedirectory.NormalizedUser{
		auditUser("groupadmin", "CN=groupadmin,OU=Staff,DC=corp", true, "Domain Admins"),
		auditUser("jdoe", "CN=jdoe,OU=Staff,DC=corp", true, "Staff"),
	}

	rows := Classify(users, Rules{
		PrivilegedGroupDNs: []string{"CN=Domain Admins,CN=Users,DC=corp"},
	})

	require.Len(t, rows, 2)
	byLogin := map[string]ReportRow{}
	for _, row := range rows {
		byLogin[row.SAMAccountName] = row
	}
	assert.True(t, byLogin["groupadmin"].Privileged)
	assert.False(t, byLogin["jdoe"].Privileged)
}

func TestClassify_EnabledFlagFromStatus(t *testing.T) {
	users := []activedirectory.NormalizedUser{
		auditUser("enabled", "CN=enabled,OU=Staff,DC=corp", true),
		auditUser("disabled", "CN=disabled,OU=Staff,DC=corp", false),
	}

	rows := Classify(users, Rules{})

	require.Len(t, rows, 2)
	assert.True(t, rows[0].Enabled)
	assert.False(t, rows[1].Enabled)
}

func TestSortRows_ThreeKeyPrecedence(t *testing.T) {
	rows := []ReportRow{
		{SAMAccountName: "bob", Enabled: true, Privileged: false},
		{SAMAccountName: "alice", Enabled: true, Privileged: true},
		{SAMAccountName: "carol", Enabled: false, Privileged: true},
	}

	SortRows(rows)

	assert.Equal(t, "alice", rows[0].SAMAccountName)
	assert.Equal(t, "bob", rows[1].SAMAccountName)
	assert.Equal(t, "carol", rows[2].SAMAccountName)
}

func TestSortRows_LoginOrderIsCaseInsensitive(t *testing.T) {
	rows := []ReportRow{
		{SAMAccountName: "Zed", Enabled: true},
		{SAMAccountName: "adam", Enabled: true},
		{SAMAccountName: "Bea", Enabled: true},
	}

	SortRows(rows)

	assert.Equal(t, "adam", rows[0].SAMAccountName)
	assert.Equal(t, "Bea", rows[1].SAMAccountName)
	assert.Equal(t, "Zed", rows[2].SAMAccountName)
}
