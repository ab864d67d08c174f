package upload

import (
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
)

const (
	defaultTimeout         = 100
	defaultChecksumWorkers = 4

	componentsPath = "/service/rest/v1/components"
)

// NexusConfig holds the server address and the credentials shared by
// every upload request of a run.
type NexusConfig struct {
	HostURL string `toml:"host_url" env:"NEXUS_HOST_URL"`
	User    string `toml:"user" env:"NEXUS_USER"`
	Token   string `toml:"token" env:"NEXUS_TOKEN"`
}

// Check validates the server configuration.
func (nc *NexusConfig) Check() error {
	if nc.HostURL == "" {
		return missingConfig("NEXUS_HOST_URL", "nexus.host_url")
	}
	if nc.User == "" {
		return missingConfig("NEXUS_USER", "nexus.user")
	}
	if nc.Token == "" {
		return missingConfig("NEXUS_TOKEN", "nexus.token")
	}
	if _, err := nc.ComponentsURL(); err != nil {
		return err
	}
	return nil
}

// ComponentsURL returns the URL of the components upload endpoint.
func (nc *NexusConfig) ComponentsURL() (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(nc.HostURL, "/"))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "NEXUS_HOST_URL"), ErrConfig)
	}
	switch u.Scheme {
	case "http":
	case "https":
	default:
		return nil, configErrorf("NEXUS_HOST_URL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, configErrorf("NEXUS_HOST_URL: no host in %q", nc.HostURL)
	}
	u.Path += componentsPath
	u.RawPath = ""
	return u, nil
}

// LogConfig represents slog configuration options
type LogConfig struct {
	Level  string `toml:"level" env:"NEXUS_UPLOAD_LOG_LEVEL"`
	Format string `toml:"format" env:"NEXUS_UPLOAD_LOG_FORMAT"`
}

// Apply configures the global slog logger based on the configuration
func (logConfig *LogConfig) Apply() error {
	var level slog.Level
	switch strings.ToLower(logConfig.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return errors.New("invalid log level: " + logConfig.Level)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(logConfig.Format) {
	case "color", "":
		colored := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		handler = NewColorHandler(os.Stderr, colored, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "plain", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return errors.New("invalid log format: " + logConfig.Format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// Config is a struct to read TOML configurations.
//
// Use https://github.com/BurntSushi/toml as follows:
//
//	config := upload.NewConfig()
//	md, err := toml.DecodeFile("/path/to/config.toml", config)
//	if err != nil {
//	    ...
//	}
//	err = config.ApplyEnvironmentVariables()
type Config struct {
	Timeout         int         `toml:"timeout" env:"NEXUS_UPLOAD_TIMEOUT"`
	ChecksumWorkers int         `toml:"checksum_workers" env:"NEXUS_UPLOAD_CHECKSUM_WORKERS"`
	Nexus           NexusConfig `toml:"nexus"`
	Log             LogConfig   `toml:"log"`
	TLS             TLSConfig   `toml:"tls"`
}

// Check validates the configuration and returns the first problem found.
// Every error it returns is marked with ErrConfig.
func (c *Config) Check() error {
	if problems := c.Problems(); len(problems) > 0 {
		return problems[0]
	}
	return nil
}

// Problems returns every configuration problem, each marked with
// ErrConfig. It does not read the TLS certificate files.
func (c *Config) Problems() []error {
	var problems []error
	if err := c.Nexus.Check(); err != nil {
		problems = append(problems, err)
	}
	if c.Timeout <= 0 {
		problems = append(problems, configErrorf("timeout must be positive, got %d", c.Timeout))
	}
	if c.ChecksumWorkers <= 0 {
		problems = append(problems, configErrorf("checksum_workers must be positive, got %d", c.ChecksumWorkers))
	}
	if err := c.TLS.Validate(); err != nil {
		problems = append(problems, errors.Mark(errors.Wrap(err, "tls"), ErrConfig))
	}
	return problems
}

// NewConfig creates Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:         defaultTimeout,
		ChecksumWorkers: defaultChecksumWorkers,
	}
}
