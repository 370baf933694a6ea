package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"adwarden/activedirectory"
	"adwarden/activedirectory/ldaphelpers"
	"adwarden/audit"
	"adwarden/config"
	"adwarden/expiry"
	"adwarden/history"
	"adwarden/mailer"
)

func main() {
	configPath := flag.String("config", "settings.env", "Path to env configuration file")
	runCheck := flag.Bool("check", false, "Run the password expiry check and send notifications")
	runSync := flag.Bool("sync", false, "Reconcile the directory against the history ledger")
	runAudit := flag.Bool("audit", false, "Generate the account audit report")
	auditOut := flag.String("audit-out", "", "Audit report output path (default stdout)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if !*runCheck && !*runSync && !*runAudit {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -check, -sync and/or -audit")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadEnvConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	adInstance := activedirectory.NewActiveDirectoryInstance(cfg.BaseDN, cfg.DcFQDN, cfg.PageSize, cfg.SearchTimeout)
	if err := adInstance.Connect(cfg.Username, cfg.Password); err != nil {
		slog.Error("directory connection failed", "error", err)
		os.Exit(1)
	}
	defer adInstance.Close()

	if *runCheck {
		if err := checkPasswords(ctx, adInstance, cfg); err != nil {
			slog.Error("password check failed", "error", err)
			os.Exit(1)
		}
	}

	if *runSync {
		if err := syncHistory(ctx, adInstance, cfg); err != nil {
			slog.Error("sync failed", "error", err)
			os.Exit(1)
		}
	}

	if *runAudit {
		if err := writeAuditReport(ctx, adInstance, cfg, *auditOut); err != nil {
			slog.Error("audit report failed", "error", err)
			os.Exit(1)
		}
	}
}

func checkPasswords(ctx context.Context, adInstance *activedirectory.ActiveDirectoryInstance, cfg config.Configuration) error {
	var users []activedirectory.NormalizedUser
	var err error

	if len(cfg.AccountsToCheck) > 0 {
		users, err = adInstance.FetchUsersByAccountNames(ctx, cfg.AccountsToCheck)
	} else {
		users, err = adInstance.FetchUsers(ctx, ldaphelpers.AllUserObjects)
	}
	if err != nil {
		return err
	}

	statuses := expiry.ComputeStatuses(users, cfg.PasswordMaxAgeDays, time.Now())
	notifications := expiry.SelectForNotification(statuses, cfg.NotifyThresholdDays, cfg.OverrideEmails)

	dispatcher := mailer.NewSMTPDispatcher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	sent := expiry.SendNotifications(dispatcher, notifications)

	slog.Info("password check complete",
		"checked", len(statuses),
		"selected", len(notifications),
		"notified", sent)
	return nil
}

func syncHistory(ctx context.Context, adInstance *activedirectory.ActiveDirectoryInstance, cfg config.Configuration) error {
	pool, err := history.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := history.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	result, err := history.Sync(ctx, adInstance, store, ldaphelpers.AllUserObjects, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(result.Message)
	return nil
}

func writeAuditReport(ctx context.Context, adInstance *activedirectory.ActiveDirectoryInstance, cfg config.Configuration, outPath string) error {
	users, err := adInstance.FetchUsers(ctx, ldaphelpers.AllUserObjects)
	if err != nil {
		return err
	}

	rows := audit.Classify(users, audit.Rules{
		ExcludedOUs:        cfg.ExcludedOUs,
		ExcludedGroupDNs:   cfg.ExcludedGroupDNs,
		PrivilegedGroupDNs: cfg.PrivilegedGroupDNs,
		PrivilegedAccounts: cfg.PrivilegedAccounts,
	})

	out := os.Stdout
	if outPath != "" {
		out, err = os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer out.Close()
	}

	if err := audit.WriteCSV(out, rows); err != nil {
		return err
	}
	if outPath != "" {
		slog.Info("audit report written", "path", outPath, "rows", len(rows))
	}
	return nil
}
