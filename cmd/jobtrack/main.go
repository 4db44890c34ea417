package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/conanology/job-tracker/internal/config"
	"github.com/conanology/job-tracker/internal/filter"
	"github.com/conanology/job-tracker/internal/pipeline"
	"github.com/conanology/job-tracker/internal/report"
	"github.com/conanology/job-tracker/internal/scheduler"
	"github.com/conanology/job-tracker/internal/snapshot"
)

// Exit codes: 0 success (including zero new listings), 1 extraction produced
// nothing, 2 CSV write failure, 3 lock/config/store failure. Email delivery
// failures never change the exit code.
const (
	exitOK         = 0
	exitExtraction = 1
	exitIO         = 2
	exitSetup      = 3
)

func main() {
	var (
		urlFlag   = flag.String("url", "", "Target job board URL (overrides configured sources)")
		output    = flag.String("output", "output/results.csv", "Output CSV path")
		keywords  = flag.String("keywords", "", "Comma-separated keywords to filter by")
		emailTo   = flag.String("email-to", "", "Alert recipient (overrides configured recipients)")
		dataDir   = flag.String("data-dir", "", "Data directory (default $JOBTRACK_DATA_DIR or .)")
		cfgPath   = flag.String("config", "", "Config file path (default <data-dir>/config.yml)")
		interval  = flag.Duration("interval", 0, "Re-run on this interval (0 = run once)")
		dryRun    = flag.Bool("dry-run", false, "Skip snapshot commit and email")
		setSMTPPW = flag.Bool("set-smtp-password", false, "Store the SMTP password in the OS keychain (read from stdin) and exit")
		setIMAPPW = flag.Bool("set-imap-password", false, "Store the alert mailbox password in the OS keychain (read from stdin) and exit")
	)
	flag.Parse()

	os.Exit(run(options{
		url:       *urlFlag,
		output:    *output,
		keywords:  *keywords,
		emailTo:   *emailTo,
		dataDir:   *dataDir,
		cfgPath:   *cfgPath,
		interval:  *interval,
		dryRun:    *dryRun,
		setSMTPPW: *setSMTPPW,
		setIMAPPW: *setIMAPPW,
	}))
}

type options struct {
	url      string
	output   string
	keywords string
	emailTo  string
	dataDir  string
	cfgPath  string
	interval time.Duration
	dryRun   bool

	setSMTPPW bool
	setIMAPPW bool
}

func run(opts options) int {
	urlFlag, output, keywords, emailTo := opts.url, opts.output, opts.keywords, opts.emailTo
	dataDir, cfgPath, interval, dryRun := opts.dataDir, opts.cfgPath, opts.interval, opts.dryRun

	if dataDir == "" {
		dataDir = os.Getenv("JOBTRACK_DATA_DIR")
	}
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Printf("data dir: %v", err)
		return exitSetup
	}

	config.LoadDotEnv(dataDir)

	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir)
		if err != nil {
			log.Printf("config bootstrap: %v", err)
			return exitSetup
		}
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("config load (%s): %v", cfgPath, err)
		return exitSetup
	}
	if err := config.Validate(cfg); err != nil {
		log.Printf("%v", err)
		return exitSetup
	}

	applyOverrides(&cfg, urlFlag, emailTo)

	if opts.setSMTPPW || opts.setIMAPPW {
		if err := storePassword(cfg, opts.setSMTPPW); err != nil {
			log.Printf("%v", err)
			return exitSetup
		}
		return exitOK
	}

	lock, err := snapshot.AcquireLock(dataDir)
	if err != nil {
		log.Printf("%v", err)
		return exitSetup
	}
	defer func() { _ = lock.Unlock() }()

	store, err := snapshot.Open(filepath.Join(dataDir, "jobtrack.db"))
	if err != nil {
		log.Printf("open store: %v", err)
		return exitSetup
	}
	defer store.Close()

	fetchers, err := buildFetchers(cfg)
	if err != nil {
		log.Printf("%v", err)
		return exitSetup
	}
	if len(fetchers) == 0 {
		log.Printf("no sources configured (pass --url or enable one in %s)", cfgPath)
		return exitSetup
	}

	p := &pipeline.Pipeline{
		Fetchers:      fetchers,
		Keywords:      filter.Merge(cfg.Filters.Keywords, keywords),
		Store:         store,
		CSVPath:       output,
		Notifier:      buildNotifier(cfg),
		DryRun:        dryRun,
		KeepRuns:      cfg.App.KeepRuns,
		SourceTimeout: time.Duration(cfg.Limits.SourceTimeoutSecs) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if interval > 0 {
		scheduler.Every(ctx, interval, "jobtrack", func(ctx context.Context) error {
			_, err := p.Run(ctx)
			return err
		})
		return exitOK
	}

	sum, err := p.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrNoSources):
		log.Printf("%v", err)
		return exitExtraction
	case errors.Is(err, report.ErrIO):
		log.Printf("%v", err)
		return exitIO
	case err != nil:
		log.Printf("%v", err)
		return exitSetup
	}

	fmt.Printf("Found %d listings (%d new). Saved to %s\n", sum.Total, sum.New, output)
	return exitOK
}

func applyOverrides(cfg *config.Config, urlFlag, emailTo string) {
	if urlFlag != "" {
		u := urlFlag
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			u = "https://" + u
		}
		// --url replaces the configured HTTP sources for this invocation
		cfg.Sources.Boards = nil
		if strings.Contains(u, "remoteok.com") {
			cfg.Sources.RemoteOK.Enabled = true
			cfg.Sources.RemoteOK.URL = u
		} else {
			cfg.Sources.RemoteOK.Enabled = false
			cfg.Sources.Boards = []config.Board{{Name: "cli", URL: u}}
		}
	}

	if emailTo != "" {
		cfg.Email.Enabled = true
		cfg.Email.To = []string{emailTo}
	}
}
