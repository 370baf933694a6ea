package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"adwarden/activedirectory"
	"adwarden/activedirectory/ldaphelpers"
	"adwarden/audit"
	"adwarden/expiry"
	"adwarden/history"

	"github.com/go-chi/chi/v5"
)

// Response types for JSON serialization

type PasswordStatusResponse struct {
	Account             string `json:"account"`
	DisplayName         string `json:"display_name"`
	Enabled             bool   `json:"enabled"`
	NeverExpires        bool   `json:"never_expires"`
	LastSet             string `json:"last_set,omitempty"`
	ExpiresAt           string `json:"expires_at,omitempty"`
	DaysUntilExpiration *int   `json:"days_until_expiration,omitempty"`
	MaxAgeDays          int    `json:"max_age_days"`
}

type PasswordCheckResponse struct {
	Checked  int `json:"checked"`
	Selected int `json:"selected"`
	Notified int `json:"notified"`
}

type CreateUserRequest struct {
	DN                string `json:"dn"`
	SAMAccountName    string `json:"sam_account_name"`
	CN                string `json:"cn"`
	GivenName         string `json:"given_name"`
	Surname           string `json:"surname"`
	DisplayName       string `json:"display_name"`
	UserPrincipalName string `json:"user_principal_name"`
	Mail              string `json:"mail"`
	Department        string `json:"department"`
	Title             string `json:"title"`
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure maps the error taxonomy onto HTTP status codes.
func writeFailure(w http.ResponseWriter, err error) {
	var validationErr *activedirectory.ValidationError
	switch {
	case activedirectory.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func statusResponse(status expiry.PasswordStatus) PasswordStatusResponse {
	resp := PasswordStatusResponse{
		Account:             status.User.SAMAccountName,
		DisplayName:         status.User.DisplayName,
		Enabled:             status.User.Enabled(),
		NeverExpires:        status.NeverExpires,
		DaysUntilExpiration: status.DaysUntilExpiration,
		MaxAgeDays:          status.MaxAgeDays,
	}
	if status.LastSet != nil {
		resp.LastSet = status.LastSet.Format(time.RFC3339)
	}
	if status.ExpiresAt != nil {
		resp.ExpiresAt = status.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}

// Handlers

func (s *Server) handlePasswordStatus(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'account' is required")
		return
	}

	user, err := s.directory.FetchUserByAccountName(r.Context(), account)
	if err != nil {
		writeFailure(w, err)
		return
	}

	status := expiry.ComputeStatus(user, s.cfg.PasswordMaxAgeDays, time.Now())
	writeJSON(w, http.StatusOK, statusResponse(status))
}

func (s *Server) handlePasswordCheck(w http.ResponseWriter, r *http.Request) {
	accounts := s.cfg.AccountsToCheck

	// An optional request body overrides the configured account list.
	var body struct {
		Accounts []string `json:"accounts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && len(body.Accounts) > 0 {
		accounts = body.Accounts
	}
	if len(accounts) == 0 {
		writeError(w, http.StatusBadRequest, "no accounts configured or supplied")
		return
	}

	users, err := s.directory.FetchUsersByAccountNames(r.Context(), accounts)
	if err != nil {
		writeFailure(w, err)
		return
	}

	statuses := expiry.ComputeStatuses(users, s.cfg.PasswordMaxAgeDays, time.Now())
	notifications := expiry.SelectForNotification(statuses, s.cfg.NotifyThresholdDays, s.cfg.OverrideEmails)
	sent := expiry.SendNotifications(s.dispatcher, notifications)

	writeJSON(w, http.StatusOK, PasswordCheckResponse{
		Checked:  len(statuses),
		Selected: len(notifications),
		Notified: sent,
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := history.Sync(r.Context(), s.directory, s.store, s.userFilter(), time.Now())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAuditReport(w http.ResponseWriter, r *http.Request) {
	users, err := s.directory.FetchUsers(r.Context(), s.userFilter())
	if err != nil {
		writeFailure(w, err)
		return
	}

	rows := audit.Classify(users, audit.Rules{
		ExcludedOUs:        s.cfg.ExcludedOUs,
		ExcludedGroupDNs:   s.cfg.ExcludedGroupDNs,
		PrivilegedGroupDNs: s.cfg.PrivilegedGroupDNs,
		PrivilegedAccounts: s.cfg.PrivilegedAccounts,
	})

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-report.csv"`)
	if err := audit.WriteCSV(w, rows); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	records, err := s.store.RecordsForIdentity(r.Context(), account)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "no history for account "+account)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	err := s.directory.CreateUser(r.Context(), activedirectory.NewUserRequest{
		DN:                req.DN,
		SAMAccountName:    req.SAMAccountName,
		CN:                req.CN,
		GivenName:         req.GivenName,
		Surname:           req.Surname,
		DisplayName:       req.DisplayName,
		UserPrincipalName: req.UserPrincipalName,
		Mail:              req.Mail,
		Department:        req.Department,
		Title:             req.Title,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"created": req.SAMAccountName})
}

func (s *Server) userFilter() string {
	return ldaphelpers.AllUserObjects
}
