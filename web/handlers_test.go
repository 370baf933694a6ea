package web

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"adwarden/activedirectory"
	"adwarden/expiry"

	"github.com/stretchr/testify/assert"
)

func TestWriteFailure_ErrorTaxonomyMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("account jdoe: %w", activedirectory.ErrUserNotFound), 404},
		{"validation", &activedirectory.ValidationError{Field: "dn", Reason: "bad"}, 400},
		{"directory failure", errors.New("ldap unreachable"), 500},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeFailure(rec, test.err)
			assert.Equal(t, test.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestStatusResponse_OmitsUnsetTemporalFields(t *testing.T) {
	status := expiry.PasswordStatus{
		User: activedirectory.NormalizedUser{
			SAMAccountName: "svc",
			Status:         activedirectory.StatusActive,
		},
		NeverExpires: true,
		MaxAgeDays:   90,
	}

	resp := statusResponse(status)

	assert.Equal(t, "svc", resp.Account)
	assert.True(t, resp.NeverExpires)
	assert.Empty(t, resp.LastSet)
	assert.Empty(t, resp.ExpiresAt)
	assert.Nil(t, resp.DaysUntilExpiration)
}

func TestStatusResponse_FormatsTimestamps(t *testing.T) {
	lastSet := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	expiresAt := lastSet.AddDate(0, 0, 90)
	days := 12

	resp := statusResponse(expiry.PasswordStatus{
		User:                activedirectory.NormalizedUser{SAMAccountName: "jdoe", Status: activedirectory.StatusActive},
		LastSet:             &lastSet,
		ExpiresAt:           &expiresAt,
		DaysUntilExpiration: &days,
		MaxAgeDays:          90,
	})

	assert.Equal(t, "2024-01-15T09:00:00Z", resp.LastSet)
	assert.Equal(t, "2024-04-14T09:00:00Z", resp.ExpiresAt)
	assert.Equal(t, 12, *resp.DaysUntilExpiration)
	assert.True(t, resp.Enabled)
}
