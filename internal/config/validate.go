package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func Validate(cfg Config) error {
	var errs []string

	if cfg.App.KeepRuns < 1 {
		errs = append(errs, "app.keep_runs must be >= 1")
	}
	if cfg.Limits.RequestsPerSecond <= 0 {
		errs = append(errs, "limits.requests_per_second must be > 0")
	}
	if cfg.Limits.Burst < 1 {
		errs = append(errs, "limits.burst must be >= 1")
	}

	for i, b := range cfg.Sources.Boards {
		if strings.TrimSpace(b.URL) == "" {
			errs = append(errs, fmt.Sprintf("sources.boards[%d].url is required", i))
		}
	}

	if cfg.Sources.Alerts.Enabled {
		if cfg.Sources.Alerts.IMAPHost == "" {
			errs = append(errs, "sources.alerts.imap_host is required when alerts are enabled")
		}
		if cfg.Sources.Alerts.IMAPPort <= 0 || cfg.Sources.Alerts.IMAPPort > 65535 {
			errs = append(errs, "sources.alerts.imap_port must be 1..65535")
		}
		if cfg.Sources.Alerts.Username == "" {
			errs = append(errs, "sources.alerts.username is required when alerts are enabled")
		}
	}

	if cfg.Email.Enabled {
		if cfg.Email.SMTPHost == "" {
			errs = append(errs, "email.smtp_host is required when email is enabled")
		}
		if cfg.Email.SMTPPort <= 0 || cfg.Email.SMTPPort > 65535 {
			errs = append(errs, "email.smtp_port must be 1..65535")
		}
		if cfg.Email.From == "" {
			errs = append(errs, "email.from is required when email is enabled")
		}
		if len(cfg.Email.To) == 0 {
			errs = append(errs, "email.to must have at least 1 recipient when email is enabled")
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
