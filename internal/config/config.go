package config

import (
	"diningsync/lib/configutil"
	"diningsync/lib/dedup"
	"diningsync/lib/history"
	"diningsync/lib/notify"
	"diningsync/lib/serviceutil"
	"diningsync/lib/source"
	"diningsync/lib/upload"
	"diningsync/lib/upload/httpsink"
	"fmt"
	"time"
)

const (
	EnvSinkToken    = "DININGSYNC_SINK_TOKEN"
	EnvSmtpPassword = "DININGSYNC_SMTP_PASSWORD"
)

const (
	SourceCSV  = "csv"
	SourceHTTP = "http"
)

type PathsConfig struct {
	// Menu is the freshly scraped batch.
	Menu string `json:"menu"`
	// Queue holds the records dedup found to be new.
	Queue string `json:"queue"`
}

type SourceConfig struct {
	// "csv" or "http"
	Kind string                `json:"kind"`
	File string                `json:"file"`
	Http source.HTTPFeedConfig `json:"http"`
}

type DedupConfig struct {
	// "fail" or "skip"
	MalformedPolicy string `json:"malformed_policy"`
	// negative disables near match warnings
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

type RetryConfig struct {
	MaxAttempts       int `json:"max_attempts"`
	InitialIntervalMs int `json:"initial_interval_ms"`
	MaxIntervalMs     int `json:"max_interval_ms"`
}

type Config struct {
	Paths   PathsConfig     `json:"paths"`
	Source  SourceConfig    `json:"source"`
	Dedup   DedupConfig     `json:"dedup"`
	History history.Config  `json:"history"`
	Sink    httpsink.Config `json:"sink"`
	Retry   RetryConfig     `json:"retry"`
	Notify  notify.Config   `json:"notify"`
	// HttpDumpDir receives every HTTP exchange when running with --debug.
	HttpDumpDir string `json:"http_dump_dir"`
	// seconds between process stat samples during uploads
	PerfStatsInterval int `json:"perf_stats_interval"`
}

var Defaults = Config{
	Paths: PathsConfig{
		Menu:  "nc_state_dining_menu.csv",
		Queue: "to_upload.csv",
	},
	Source: SourceConfig{
		Kind: SourceCSV,
		File: "scraped_menu.csv",
	},
	Dedup: DedupConfig{
		MalformedPolicy:     string(dedup.PolicyFail),
		SimilarityThreshold: dedup.DefaultSimilarityThreshold,
	},
	History: history.Config{
		Driver: history.DriverFile,
		File:   "upload_history.json",
	},
	Sink: httpsink.Config{
		Mode:          httpsink.ModeJSON,
		RatePerMinute: 30,
	},
	Retry: RetryConfig{
		MaxAttempts:       3,
		InitialIntervalMs: 500,
		MaxIntervalMs:     10_000,
	},
	Notify: notify.Config{
		Smtp: notify.SmtpConfig{Port: 587},
	},
	HttpDumpDir:       ".http",
	PerfStatsInterval: 30,
}

// Load reads the config file (and its .local override) on top of the
// defaults and fills secrets left empty from the environment.
func Load(path string) (Config, error) {
	config, err := configutil.ReadWithDefaults(path, Defaults)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	config.Sink.Token = serviceutil.Secret(config.Sink.Token, EnvSinkToken)
	config.Notify.Smtp.Password = serviceutil.Secret(config.Notify.Smtp.Password, EnvSmtpPassword)

	switch config.Source.Kind {
	case SourceCSV, SourceHTTP:
	default:
		return Config{}, fmt.Errorf("unknown source kind '%s'", config.Source.Kind)
	}
	return config, nil
}

func (c Config) DedupFilter() (dedup.Filter, error) {
	policy, err := dedup.ParsePolicy(c.Dedup.MalformedPolicy)
	if err != nil {
		return dedup.Filter{}, err
	}
	return dedup.Filter{
		Policy:              policy,
		SimilarityThreshold: c.Dedup.SimilarityThreshold,
	}, nil
}

func (c Config) RetryPolicy() upload.RetryPolicy {
	return upload.RetryPolicy{
		MaxAttempts:     c.Retry.MaxAttempts,
		InitialInterval: time.Duration(c.Retry.InitialIntervalMs) * time.Millisecond,
		MaxInterval:     time.Duration(c.Retry.MaxIntervalMs) * time.Millisecond,
	}
}
