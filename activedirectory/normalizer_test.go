package activedirectory

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEntry_FullRecord(t *testing.T) {
	entry := ldap.NewEntry("CN=John Doe,OU=Staff,DC=corp,DC=example", map[string][]string{
		"sAMAccountName":     {"jdoe"},
		"displayName":        {"John Doe"},
		"cn":                 {"John Doe"},
		"sn":                 {"Doe"},
		"givenName":          {"John"},
		"userPrincipalName":  {"jdoe@corp.example"},
		"mail":               {"john.doe@corp.example"},
		"telephoneNumber":    {"+1 555 0100"},
		"title":              {"Accountant"},
		"department":         {"Finance"},
		"company":            {"Corp"},
		"description":        {"Finance staff"},
		"streetAddress":      {"EMP-00042"},
		"memberOf":           {"CN=Accounting,OU=Groups,DC=corp,DC=example", "CN=VPN Users,OU=Groups,DC=corp,DC=example"},
		"userAccountControl": {"512"},
		"pwdLastSet":         {"133497804000000000"},
	})

	user := NormalizeEntry(entry)

	assert.Equal(t, "jdoe", user.SAMAccountName)
	assert.Equal(t, "John Doe", user.DisplayName)
	assert.Equal(t, "Doe", user.Surname)
	assert.Equal(t, "CN=John Doe,OU=Staff,DC=corp,DC=example", user.DN)
	assert.Equal(t, []string{"Accounting", "VPN Users"}, user.Groups)
	assert.Equal(t, StatusActive, user.Status)
	assert.True(t, user.Enabled())
	assert.Equal(t, int64(512), user.UserAccountControl)
	assert.Equal(t, "133497804000000000", user.PwdLastSetRaw)
	assert.Equal(t, "EMP-00042", user.StreetAddress)
}

func TestNormalizeEntry_MissingAttributesAreEmpty(t *testing.T) {
	entry := ldap.NewEntry("CN=Bare,DC=corp,DC=example", map[string][]string{
		"sAMAccountName": {"bare"},
	})

	user := NormalizeEntry(entry)

	assert.Equal(t, "bare", user.SAMAccountName)
	assert.Empty(t, user.DisplayName)
	assert.Empty(t, user.Mail)
	assert.Empty(t, user.Department)
	assert.Empty(t, user.Groups)
	assert.Empty(t, user.PwdLastSetRaw)
	// Missing userAccountControl degrades to 0, which reads as enabled.
	assert.Equal(t, int64(0), user.UserAccountControl)
	assert.Equal(t, StatusActive, user.Status)
}

func TestNormalizeEntry_DisabledBit(t *testing.T) {
	tests := []struct {
		name string
		uac  string
		want string
	}{
		{"normal account", "512", StatusActive},
		{"disabled account", "514", StatusInactive},
		{"disabled with never-expires", "66050", StatusInactive},
		{"never-expires only", "66048", StatusActive},
		{"malformed value", "junk", StatusActive},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			entry := ldap.NewEntry("CN=x,DC=corp", map[string][]string{
				"sAMAccountName":     {"x"},
				"userAccountControl": {test.uac},
			})
			assert.Equal(t, test.want, NormalizeEntry(entry).Status)
		})
	}
}

func TestShortGroupName(t *testing.T) {
	tests := []struct {
		groupDN string
		want    string
	}{
		{"CN=Accounting,OU=Groups,DC=corp,DC=example", "Accounting"},
		{"CN=Domain Admins,CN=Users,DC=corp", "Domain Admins"},
		{"OU=Branch,DC=corp", "Branch"},
		{"CN=Solo", "Solo"},
		{"plainname", "plainname"},
		{"", ""},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, ShortGroupName(test.groupDN), "input %q", test.groupDN)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "dn", Reason: "does not match distinguished-name pattern"}
	assert.Equal(t, "invalid dn: does not match distinguished-name pattern", err.Error())
}

func TestIsNotFound(t *testing.T) {
	require.True(t, IsNotFound(ErrUserNotFound))
	assert.False(t, IsNotFound(assert.AnError))
}
