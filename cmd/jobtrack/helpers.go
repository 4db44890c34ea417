package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/conanology/job-tracker/internal/config"
	"github.com/conanology/job-tracker/internal/pipeline"
	"github.com/conanology/job-tracker/internal/report"
	"github.com/conanology/job-tracker/internal/scrape/alerts"
	"github.com/conanology/job-tracker/internal/scrape/board"
	"github.com/conanology/job-tracker/internal/scrape/remoteok"
	"github.com/conanology/job-tracker/internal/scrape/types"
	"github.com/conanology/job-tracker/internal/scrape/util"
	"github.com/conanology/job-tracker/internal/secrets"
)

func buildFetchers(cfg config.Config) ([]types.Fetcher, error) {
	limiter := util.NewHostLimiter(cfg.Limits.RequestsPerSecond, cfg.Limits.Burst)
	client := util.NewClient(time.Duration(cfg.Limits.HTTPTimeoutSeconds)*time.Second, limiter)

	var fetchers []types.Fetcher

	if cfg.Sources.RemoteOK.Enabled {
		if cfg.Sources.RemoteOK.URL == "" {
			return nil, fmt.Errorf("sources.remoteok.url is empty")
		}
		fetchers = append(fetchers, remoteok.New(cfg.Sources.RemoteOK.URL, client))
	}

	for _, b := range cfg.Sources.Boards {
		fetchers = append(fetchers, board.New(b.URL, client))
	}

	if cfg.Sources.Alerts.Enabled {
		a := cfg.Sources.Alerts
		account := secrets.IMAPAccount(a.Username, a.IMAPHost)
		pw, err := secrets.Get(account, "JOBTRACK_IMAP_PASSWORD")
		if err != nil {
			// credentials missing acts like any other source failure
			log.Printf("[alerts] skipped: %v", err)
		} else {
			fetchers = append(fetchers, alerts.New(alerts.Config{
				Addr:     fmt.Sprintf("%s:%d", a.IMAPHost, a.IMAPPort),
				Username: a.Username,
				Password: pw,
				Mailbox:  a.Mailbox,
				MaxMail:  a.MaxMail,
			}))
		}
	}

	return fetchers, nil
}

func buildNotifier(cfg config.Config) pipeline.Notifier {
	if !cfg.Email.Enabled {
		return nil
	}

	e := cfg.Email
	username := e.Username
	if username == "" {
		username = e.From
	}

	pw, err := secrets.Get(secrets.SMTPAccount(username, e.SMTPHost), "JOBTRACK_SMTP_PASSWORD")
	if err != nil {
		// some relays accept unauthenticated mail; let the send decide
		log.Printf("[email] no password available: %v", err)
		pw = ""
	}

	return report.NewNotifier(e.SMTPHost, e.SMTPPort, username, pw, e.From, e.To)
}

// storePassword reads a password from stdin and stores it under the account
// derived from the current config.
func storePassword(cfg config.Config, forSMTP bool) error {
	var account string
	if forSMTP {
		username := cfg.Email.Username
		if username == "" {
			username = cfg.Email.From
		}
		if cfg.Email.SMTPHost == "" || username == "" {
			return fmt.Errorf("configure email.smtp_host and email.from before storing the SMTP password")
		}
		account = secrets.SMTPAccount(username, cfg.Email.SMTPHost)
	} else {
		a := cfg.Sources.Alerts
		if a.IMAPHost == "" || a.Username == "" {
			return fmt.Errorf("configure sources.alerts before storing the mailbox password")
		}
		account = secrets.IMAPAccount(a.Username, a.IMAPHost)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if err := secrets.Set(account, strings.TrimSpace(line)); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	log.Printf("stored password for %s", account)
	return nil
}
