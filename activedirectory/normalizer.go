package activedirectory

import (
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// userAttributes is the fixed attribute list requested for every user search.
var userAttributes = []string{
	"sAMAccountName",
	"displayName",
	"cn",
	"sn",
	"givenName",
	"userPrincipalName",
	"mail",
	"telephoneNumber",
	"title",
	"department",
	"company",
	"description",
	"streetAddress",
	"memberOf",
	"userAccountControl",
	"pwdLastSet",
}

// NormalizeEntry maps a raw directory entry into a NormalizedUser.
// Missing attributes yield empty strings; a malformed userAccountControl
// degrades to 0 rather than failing the record. Pure function of its input.
func NormalizeEntry(entry *ldap.Entry) NormalizedUser {
	uac, err := strconv.ParseInt(entry.GetAttributeValue("userAccountControl"), 10, 64)
	if err != nil {
		uac = 0
	}

	status := StatusActive
	if uac&UACAccountDisable != 0 {
		status = StatusInactive
	}

	memberOf := entry.GetAttributeValues("memberOf")
	groups := make([]string, 0, len(memberOf))
	for _, groupDN := range memberOf {
		groups = append(groups, ShortGroupName(groupDN))
	}

	return NormalizedUser{
		SAMAccountName:     entry.GetAttributeValue("sAMAccountName"),
		DisplayName:        entry.GetAttributeValue("displayName"),
		CN:                 entry.GetAttributeValue("cn"),
		Surname:            entry.GetAttributeValue("sn"),
		GivenName:          entry.GetAttributeValue("givenName"),
		UserPrincipalName:  entry.GetAttributeValue("userPrincipalName"),
		Mail:               entry.GetAttributeValue("mail"),
		TelephoneNumber:    entry.GetAttributeValue("telephoneNumber"),
		Title:              entry.GetAttributeValue("title"),
		Department:         entry.GetAttributeValue("department"),
		Company:            entry.GetAttributeValue("company"),
		Description:        entry.GetAttributeValue("description"),
		StreetAddress:      entry.GetAttributeValue("streetAddress"),
		DN:                 entry.DN,
		Groups:             groups,
		Status:             status,
		UserAccountControl: uac,
		PwdLastSetRaw:      entry.GetAttributeValue("pwdLastSet"),
	}
}

// ShortGroupName extracts the leading relative-name component of a group
// DN and strips its type prefix: "CN=Accounting,OU=Groups,DC=corp" yields
// "Accounting". A value with no DN structure is returned as-is.
func ShortGroupName(groupDN string) string {
	leading := groupDN
	if idx := strings.Index(groupDN, ","); idx >= 0 {
		leading = groupDN[:idx]
	}
	if idx := strings.Index(leading, "="); idx >= 0 {
		leading = leading[idx+1:]
	}
	return leading
}
