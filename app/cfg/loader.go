package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP configuration
	Port       string   `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	ProxyPath  string   `long:"proxy-path" env:"PROXY_PATH" default:"/image-proxy" description:"Route of the image relay endpoint"`
	ProxyAllow []string `long:"proxy-allow" env:"PROXY_ALLOW" env-delim:"," description:"Additional image hosts the relay accepts"`

	// Pipeline configuration
	SourcesFile    string `long:"sources-file" env:"SOURCES_FILE" description:"YAML file with feeds, publishers and category rules (embedded defaults when empty)"`
	RequestTimeout int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"15" description:"Outbound HTTP timeout in seconds"`
	Concurrency    int    `long:"concurrency" env:"CONCURRENCY" default:"8" description:"Number of articles normalized in parallel"`

	// Run statistics
	StatsDB string `long:"stats-db" env:"STATS_DB" description:"SQLite file for aggregation run statistics (disabled when empty)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"News Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Tirane)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %d", raw.RequestTimeout)
	}
	if raw.Concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be positive, got %d", raw.Concurrency)
	}

	cfg := &Cfg{
		Port:           raw.Port,
		ProxyPath:      raw.ProxyPath,
		ProxyAllow:     raw.ProxyAllow,
		SourcesFile:    raw.SourcesFile,
		RequestTimeout: time.Duration(raw.RequestTimeout) * time.Second,
		Concurrency:    raw.Concurrency,
		StatsDB:        raw.StatsDB,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
