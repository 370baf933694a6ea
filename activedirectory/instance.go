package activedirectory

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"adwarden/activedirectory/ldaphelpers"

	"github.com/go-ldap/ldap/v3"
	"golang.org/x/sync/errgroup"
)

// batchLookupWorkers bounds the parallelism of multi-account detail
// resolution. The ldap.Conn multiplexes requests, so concurrent searches
// share one connection.
const batchLookupWorkers = 4

var dnPattern = regexp.MustCompile(`^[A-Za-z]+=[^,=]+(,[A-Za-z]+=[^,=]+)*$`)

type ActiveDirectoryInstance struct {
	BaseDn               string
	DomainControllerFQDN string
	PageSize             uint32

	// SearchTimeout is the server-side ceiling applied to every search.
	SearchTimeout time.Duration

	ldapConnection *ldap.Conn
}

func NewActiveDirectoryInstance(baseDn string, domainControllerFQDN string, pageSize uint32, searchTimeout time.Duration) *ActiveDirectoryInstance {
	return &ActiveDirectoryInstance{
		BaseDn:               baseDn,
		DomainControllerFQDN: domainControllerFQDN,
		PageSize:             pageSize,
		SearchTimeout:        searchTimeout,
	}
}

// Connect dials the domain controller and binds with the given credentials.
func (ad *ActiveDirectoryInstance) Connect(username, password string) error {
	bindString := fmt.Sprintf("ldap://%s:389", ad.DomainControllerFQDN)
	conn, err := ldap.DialURL(bindString)
	if err != nil {
		return fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	// TODO: LDAPS, IWA/GSSAPI, etc
	if err := conn.Bind(username, password); err != nil {
		conn.Close()
		return fmt.Errorf("failed to bind to LDAP server: %w", err)
	}
	conn.SetTimeout(ad.SearchTimeout)

	res, err := conn.WhoAmI(nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("WhoAmI failed: %w", err)
	}
	slog.Info("authenticated to directory", "url", bindString, "authzid", res.AuthzID)

	ad.ldapConnection = conn
	return nil
}

func (ad *ActiveDirectoryInstance) Close() {
	if ad.ldapConnection != nil {
		ad.ldapConnection.Close()
	}
}

// timeLimitSeconds converts the configured search timeout into the
// whole-second TimeLimit field of an LDAP search request.
func (ad *ActiveDirectoryInstance) timeLimitSeconds() int {
	secs := int(ad.SearchTimeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// FetchUsers runs a paged subtree search and normalizes every returned
// entry. Entries without a sAMAccountName are logged and skipped; a
// single bad entry never aborts the fetch.
func (ad *ActiveDirectoryInstance) FetchUsers(ctx context.Context, filter string) ([]NormalizedUser, error) {
	pageControl := ldap.NewControlPaging(ad.PageSize)
	pageRequest := ldap.NewSearchRequest(
		ad.BaseDn,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, ad.timeLimitSeconds(), false,
		filter,
		userAttributes,
		[]ldap.Control{pageControl},
	)

	var users []NormalizedUser
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("user fetch cancelled: %w", err)
		}

		searchResults, err := ad.ldapConnection.Search(pageRequest)
		if err != nil {
			return nil, fmt.Errorf("LDAP search failed: %w", err)
		}

		for _, entry := range searchResults.Entries {
			user := NormalizeEntry(entry)
			if user.SAMAccountName == "" {
				slog.Warn("skipping entry without sAMAccountName", "dn", entry.DN)
				continue
			}
			users = append(users, user)
		}

		paging := ldap.FindControl(searchResults.Controls, ldap.ControlTypePaging)
		if paging == nil {
			break
		}
		cookie := paging.(*ldap.ControlPaging).Cookie
		if len(cookie) == 0 {
			break
		}
		pageControl.SetCookie(cookie)
	}

	return users, nil
}

// FetchUserByAccountName looks up a single account. A missing entry is
// reported as ErrUserNotFound, which existence checks treat as an
// expected outcome.
func (ad *ActiveDirectoryInstance) FetchUserByAccountName(ctx context.Context, accountName string) (NormalizedUser, error) {
	if err := ctx.Err(); err != nil {
		return NormalizedUser{}, fmt.Errorf("lookup cancelled: %w", err)
	}

	filter := ldaphelpers.And(
		ldaphelpers.Eq("objectCategory", "person"),
		ldaphelpers.Eq("objectClass", "user"),
		ldaphelpers.Eq("sAMAccountName", ldap.EscapeFilter(accountName)),
	).String()

	request := ldap.NewSearchRequest(
		ad.BaseDn,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		1, ad.timeLimitSeconds(), false,
		filter,
		userAttributes,
		nil,
	)

	results, err := ad.ldapConnection.Search(request)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) && results != nil && len(results.Entries) > 0 {
			return NormalizeEntry(results.Entries[0]), nil
		}
		return NormalizedUser{}, fmt.Errorf("LDAP search for %s failed: %w", accountName, err)
	}
	if len(results.Entries) == 0 {
		return NormalizedUser{}, fmt.Errorf("account %s: %w", accountName, ErrUserNotFound)
	}

	return NormalizeEntry(results.Entries[0]), nil
}

// AccountExists probes for an account without treating absence as an error.
func (ad *ActiveDirectoryInstance) AccountExists(ctx context.Context, accountName string) (bool, error) {
	_, err := ad.FetchUserByAccountName(ctx, accountName)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FetchUsersByAccountNames resolves many accounts with bounded
// parallelism. A failed lookup is logged and skipped; result order
// follows the input order with failed entries omitted.
func (ad *ActiveDirectoryInstance) FetchUsersByAccountNames(ctx context.Context, accountNames []string) ([]NormalizedUser, error) {
	results := make([]*NormalizedUser, len(accountNames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchLookupWorkers)

	for i, name := range accountNames {
		i, name := i, name
		g.Go(func() error {
			user, err := ad.FetchUserByAccountName(gctx, name)
			if err != nil {
				slog.Warn("skipping account in batch lookup", "account", name, "error", err)
				return nil
			}
			results[i] = &user
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	users := make([]NormalizedUser, 0, len(accountNames))
	for _, u := range results {
		if u != nil {
			users = append(users, *u)
		}
	}
	return users, nil
}

// CreateUser adds a new account at the requested DN. The DN is validated
// before any directory call.
func (ad *ActiveDirectoryInstance) CreateUser(ctx context.Context, req NewUserRequest) error {
	if !dnPattern.MatchString(req.DN) {
		return &ValidationError{Field: "dn", Reason: "does not match distinguished-name pattern"}
	}
	if req.SAMAccountName == "" {
		return &ValidationError{Field: "sAMAccountName", Reason: "must not be empty"}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("create cancelled: %w", err)
	}

	add := ldap.NewAddRequest(req.DN, nil)
	add.Attribute("objectClass", []string{"top", "person", "organizationalPerson", "user"})
	add.Attribute("sAMAccountName", []string{req.SAMAccountName})
	for attr, value := range map[string]string{
		"cn":                req.CN,
		"givenName":         req.GivenName,
		"sn":                req.Surname,
		"displayName":       req.DisplayName,
		"userPrincipalName": req.UserPrincipalName,
		"mail":              req.Mail,
		"department":        req.Department,
		"title":             req.Title,
	} {
		if value != "" {
			add.Attribute(attr, []string{value})
		}
	}

	if err := ad.ldapConnection.Add(add); err != nil {
		return fmt.Errorf("failed to create account %s: %w", req.SAMAccountName, err)
	}
	slog.Info("created directory account", "account", req.SAMAccountName, "dn", req.DN)
	return nil
}

// UpdateUser replaces the given attributes on an existing account.
func (ad *ActiveDirectoryInstance) UpdateUser(ctx context.Context, accountName string, attributes map[string][]string) error {
	user, err := ad.FetchUserByAccountName(ctx, accountName)
	if err != nil {
		return err
	}

	modify := ldap.NewModifyRequest(user.DN, nil)
	for attr, values := range attributes {
		modify.Replace(attr, values)
	}
	if err := ad.ldapConnection.Modify(modify); err != nil {
		return fmt.Errorf("failed to update account %s: %w", accountName, err)
	}
	slog.Info("updated directory account", "account", accountName, "attributes", len(attributes))
	return nil
}
