// Package config loads the immutable runtime configuration from an env
// file plus the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Configuration struct {
	BaseDN        string
	DcFQDN        string
	Username      string
	Password      string
	PageSize      uint32
	SearchTimeout time.Duration

	DatabaseDSN string

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	HTTPListenAddr string

	// Policy inputs. Passed as values into each operation; nothing reads
	// ambient state after load.
	AccountsToCheck     []string
	NotifyThresholdDays int
	PasswordMaxAgeDays  int
	OverrideEmails      map[string]string
	ExcludedOUs         []string
	ExcludedGroupDNs    []string
	PrivilegedGroupDNs  []string
	PrivilegedAccounts  []string
}

// LoadEnvConfig reads configName via godotenv, then resolves every value
// from the environment. Values already present in the process env win.
func LoadEnvConfig(configName string) (Configuration, error) {
	if err := godotenv.Load(configName); err != nil && !os.IsNotExist(err) {
		return Configuration{}, fmt.Errorf("error loading env file %s: %w", configName, err)
	}

	cfg := Configuration{
		BaseDN:         os.Getenv("LDAP_BASEDN"),
		DcFQDN:         os.Getenv("LDAP_DCFQDN"),
		Username:       os.Getenv("LDAP_USERNAME"),
		Password:       os.Getenv("LDAP_PASSWORD"),
		DatabaseDSN:    os.Getenv("DATABASE_DSN"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPFrom:       os.Getenv("SMTP_FROM"),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		HTTPListenAddr: envOrDefault("HTTP_LISTEN_ADDR", ":8080"),

		AccountsToCheck:    SplitList(os.Getenv("CHECK_ACCOUNTS")),
		OverrideEmails:     ParseMapping(os.Getenv("OVERRIDE_EMAILS")),
		ExcludedOUs:        SplitList(os.Getenv("EXCLUDED_OUS")),
		ExcludedGroupDNs:   SplitList(os.Getenv("EXCLUDED_GROUP_DNS")),
		PrivilegedGroupDNs: SplitList(os.Getenv("PRIVILEGED_GROUP_DNS")),
		PrivilegedAccounts: SplitList(os.Getenv("PRIVILEGED_ACCOUNTS")),
	}

	pageSize, err := envIntOrDefault("LDAP_PAGESIZE", 1000)
	if err != nil {
		return Configuration{}, err
	}
	cfg.PageSize = uint32(pageSize)

	timeoutSecs, err := envIntOrDefault("LDAP_SEARCH_TIMEOUT_SECONDS", 30)
	if err != nil {
		return Configuration{}, err
	}
	cfg.SearchTimeout = time.Duration(timeoutSecs) * time.Second

	if cfg.SMTPPort, err = envIntOrDefault("SMTP_PORT", 25); err != nil {
		return Configuration{}, err
	}
	if cfg.NotifyThresholdDays, err = envIntOrDefault("NOTIFY_THRESHOLD_DAYS", 14); err != nil {
		return Configuration{}, err
	}
	if cfg.PasswordMaxAgeDays, err = envIntOrDefault("PASSWORD_MAX_AGE_DAYS", 90); err != nil {
		return Configuration{}, err
	}

	if cfg.BaseDN == "" {
		return Configuration{}, fmt.Errorf("LDAP_BASEDN is required")
	}
	if cfg.DcFQDN == "" {
		return Configuration{}, fmt.Errorf("LDAP_DCFQDN is required")
	}

	return cfg, nil
}

// SplitList parses a semicolon-separated setting, trimming whitespace and
// dropping empty items.
func SplitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ParseMapping parses "login=addr" pairs separated by semicolons.
// Malformed pairs are ignored.
func ParseMapping(raw string) map[string]string {
	mapping := make(map[string]string)
	for _, pair := range SplitList(raw) {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if found && key != "" && value != "" {
			mapping[key] = value
		}
	}
	return mapping
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envIntOrDefault(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return value, nil
}
