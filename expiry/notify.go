package expiry

import (
	"fmt"
	"log/slog"
	"strings"
)

// Dispatcher delivers a single notification. Implementations live at the
// mail boundary; selection logic never sends directly.
type Dispatcher interface {
	Send(subject, htmlBody, to string) error
}

// Notification pairs a qualifying status with its resolved target address.
type Notification struct {
	Status  PasswordStatus
	Address string
}

// SelectForNotification picks the statuses whose days-until-expiration is
// present and at or below the threshold, resolving each target address in
// three tiers: override mapping, mail attribute, then userPrincipalName.
// Accounts with no resolvable address are dropped with a warning.
func SelectForNotification(statuses []PasswordStatus, thresholdDays int, overrides map[string]string) []Notification {
	lowered := make(map[string]string, len(overrides))
	for login, addr := range overrides {
		lowered[strings.ToLower(login)] = addr
	}

	var selected []Notification
	for _, status := range statuses {
		if status.DaysUntilExpiration == nil || *status.DaysUntilExpiration > thresholdDays {
			continue
		}

		address := lowered[strings.ToLower(status.User.SAMAccountName)]
		if address == "" {
			address = status.User.Mail
		}
		if address == "" {
			address = status.User.UserPrincipalName
		}
		if address == "" {
			slog.Warn("no notification address resolvable",
				"account", status.User.SAMAccountName,
				"days_remaining", *status.DaysUntilExpiration)
			continue
		}

		selected = append(selected, Notification{Status: status, Address: address})
	}
	return selected
}

// SendNotifications dispatches each notification, logging and skipping
// per-recipient failures. Returns the number of successful sends.
func SendNotifications(dispatcher Dispatcher, notifications []Notification) int {
	sent := 0
	for _, n := range notifications {
		subject, body := renderNotification(n.Status)
		if err := dispatcher.Send(subject, body, n.Address); err != nil {
			slog.Error("failed to send expiry notification",
				"account", n.Status.User.SAMAccountName,
				"address", n.Address,
				"error", err)
			continue
		}
		slog.Info("sent expiry notification",
			"account", n.Status.User.SAMAccountName,
			"address", n.Address,
			"days_remaining", *n.Status.DaysUntilExpiration)
		sent++
	}
	return sent
}

func renderNotification(status PasswordStatus) (subject string, htmlBody string) {
	days := *status.DaysUntilExpiration
	name := status.User.DisplayName
	if name == "" {
		name = status.User.SAMAccountName
	}

	switch {
	case days < 0:
		subject = fmt.Sprintf("Your password expired %d day(s) ago", -days)
	case days == 0:
		subject = "Your password expires today"
	default:
		subject = fmt.Sprintf("Your password expires in %d day(s)", days)
	}

	htmlBody = fmt.Sprintf(
		"<html><body><p>Hello %s,</p>"+
			"<p>The password for account <b>%s</b> expires on %s.</p>"+
			"<p>Please change it before then to avoid losing access.</p>"+
			"</body></html>",
		name,
		status.User.SAMAccountName,
		status.ExpiresAt.Format("Monday, 2 January 2006 15:04"),
	)
	return subject, htmlBody
}
