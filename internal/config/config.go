package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Board struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Config struct {
	App struct {
		DataDir  string `yaml:"data_dir"`
		KeepRuns int    `yaml:"keep_runs"`
	} `yaml:"app"`

	Sources struct {
		RemoteOK struct {
			Enabled bool   `yaml:"enabled"`
			URL     string `yaml:"url"`
		} `yaml:"remoteok"`

		Boards []Board `yaml:"boards"`

		Alerts struct {
			Enabled  bool   `yaml:"enabled"`
			IMAPHost string `yaml:"imap_host"`
			IMAPPort int    `yaml:"imap_port"`
			Username string `yaml:"username"`
			Mailbox  string `yaml:"mailbox"`
			MaxMail  int    `yaml:"max_mail"`
		} `yaml:"alerts"`
	} `yaml:"sources"`

	Filters struct {
		Keywords []string `yaml:"keywords"`
	} `yaml:"filters"`

	Email struct {
		Enabled  bool     `yaml:"enabled"`
		SMTPHost string   `yaml:"smtp_host"`
		SMTPPort int      `yaml:"smtp_port"`
		Username string   `yaml:"username"`
		From     string   `yaml:"from"`
		To       []string `yaml:"to"`
	} `yaml:"email"`

	Limits struct {
		HTTPTimeoutSeconds int     `yaml:"http_timeout_seconds"`
		RequestsPerSecond  float64 `yaml:"requests_per_second"`
		Burst              int     `yaml:"burst"`
		SourceTimeoutSecs  int     `yaml:"source_timeout_seconds"`
	} `yaml:"limits"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Default is the config written on first run.
func Default() Config {
	var cfg Config
	cfg.App.DataDir = "."
	cfg.App.KeepRuns = 10
	cfg.Sources.RemoteOK.Enabled = true
	cfg.Sources.RemoteOK.URL = "https://remoteok.com/remote-python-jobs"
	cfg.Sources.Alerts.IMAPPort = 993
	cfg.Sources.Alerts.Mailbox = "INBOX"
	cfg.Sources.Alerts.MaxMail = 50
	cfg.Email.SMTPPort = 587
	cfg.Limits.HTTPTimeoutSeconds = 20
	cfg.Limits.RequestsPerSecond = 1
	cfg.Limits.Burst = 1
	cfg.Limits.SourceTimeoutSecs = 120
	return cfg
}
