package alerts

import (
	"context"
	"fmt"
	"log"

	"github.com/conanology/job-tracker/internal/scrape/types"

	"github.com/emersion/go-imap/v2"
)

type Config struct {
	Addr     string // host:port
	Username string
	Password string
	Mailbox  string
	MaxMail  int
}

type Fetcher struct {
	cfg Config
}

func New(cfg Config) *Fetcher {
	return &Fetcher{cfg: cfg}
}

func (f *Fetcher) Name() string { return "alerts" }

// Fetch pulls unseen alert emails and parses their listings. The returned
// Finalize marks the consumed messages seen; the pipeline invokes it only
// after the snapshot commits, keeping the mailbox consistent with the
// all-or-nothing persistence model.
func (f *Fetcher) Fetch(ctx context.Context) (types.Result, error) {
	c, err := dialAndLogin(ctx, f.cfg.Addr, f.cfg.Username, f.cfg.Password)
	if err != nil {
		return types.Result{}, err
	}
	if err := selectMailbox(c, f.cfg.Mailbox); err != nil {
		logoutAndClose(c)
		return types.Result{}, err
	}

	msgs, err := fetchUnseen(ctx, c, f.cfg.MaxMail)
	if err != nil {
		logoutAndClose(c)
		return types.Result{}, err
	}

	var raws []types.RawListing
	var consumed []imap.UID
	for _, m := range msgs {
		if !IsAlertSender(m.From) {
			continue
		}
		parsed := ParseAlert(m.RawMessage)
		if len(parsed) == 0 {
			continue
		}
		log.Printf("[alerts] %d listings from %q (uid=%d)", len(parsed), m.Subject, m.UID)
		raws = append(raws, parsed...)
		consumed = append(consumed, m.UID)
	}

	finalize := func(context.Context) error {
		defer logoutAndClose(c)
		if err := markSeen(c, consumed); err != nil {
			return fmt.Errorf("alerts finalize: %w", err)
		}
		return nil
	}

	return types.Result{Source: f.Name(), Raw: raws, Finalize: finalize}, nil
}
