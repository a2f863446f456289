// Package config provides configuration management for tvforge using Viper.
// It supports configuration from files, environment variables, and defaults.
//
// Keys are camelCase throughout; the same spelling works in YAML, in
// environment variables (TVFORGE_ prefix, dots become underscores, case
// insensitive) and in flag bindings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default tuning values.
const (
	defaultNameSimilarity        = 0.95
	defaultURLSimilarity         = 0.98
	defaultValidationTimeoutSec  = 45
	defaultValidationConcurrency = 15
	defaultValidationBatchSize   = 30
	defaultValidationCacheSize   = 1000
	defaultConversionTimeoutSec  = 20
	defaultConversionConcurrency = 10
	defaultChunkSize             = 15
	defaultMaxConcurrency        = 4
	defaultBackupRetention       = 5
	defaultFetchTimeout          = 180 * time.Second
	defaultEarlyTimeout          = 5 * time.Second
)

// Config is the immutable, typed projection of user options consumed by the
// pipeline. Construct it with Load; treat it as read-only afterwards.
type Config struct {
	// Source selection.
	ChannelsSource     string   `mapstructure:"channelsSource"`
	ChannelsFile       string   `mapstructure:"channelsFile"`
	PlaylistUrls       []string `mapstructure:"playlistUrls"`
	LocalPlaylistFiles []string `mapstructure:"localPlaylistFiles"`
	BaseDir            string   `mapstructure:"baseDir"`
	ProjectRoot        string   `mapstructure:"projectRoot"`

	// Artifact outputs.
	ValidatedCatalogPath  string `mapstructure:"validatedCatalogPath"`
	PlaylistOutputPath    string `mapstructure:"playlistOutputPath"`
	PerChannelPlaylistDir string `mapstructure:"perChannelPlaylistDir"`
	ArtworkDir            string `mapstructure:"artworkDir"`
	EnableBackup          bool   `mapstructure:"enableBackup"`
	BackupRetention       int    `mapstructure:"backupRetention"`

	// Ordering.
	PriorityChannels []string `mapstructure:"priorityChannels"`
	CategoryOrder    []string `mapstructure:"categoryOrder"`

	// Filter rules.
	BannedNames        []string `mapstructure:"bannedNames"`
	BannedNamePatterns []string `mapstructure:"bannedNamePatterns"`
	BannedUrls         []string `mapstructure:"bannedUrls"`
	BannedIps          []string `mapstructure:"bannedIps"`
	BannedIpRanges     []string `mapstructure:"bannedIpRanges"`
	AllowedChannels    []string `mapstructure:"allowedChannels"`
	AllowedIps         []string `mapstructure:"allowedIps"`

	// Filter exemptions.
	IgnoreNamesForFiltering []string `mapstructure:"ignoreNamesForFiltering"`
	IgnoreIpsForFiltering   []string `mapstructure:"ignoreIpsForFiltering"`
	IgnoreUrlsForFiltering  []string `mapstructure:"ignoreUrlsForFiltering"`
	IgnoreFiles             []string `mapstructure:"ignoreFiles"`

	// Content-class filters.
	FilterReligiousContent bool     `mapstructure:"filterReligiousContent"`
	FilterAdultContent     bool     `mapstructure:"filterAdultContent"`
	FilterPoliticalContent bool     `mapstructure:"filterPoliticalContent"`
	ReligiousKeywords      []string `mapstructure:"religiousKeywords"`
	AdultKeywords          []string `mapstructure:"adultKeywords"`
	PoliticalKeywords      []string `mapstructure:"politicalKeywords"`

	// Stream validation.
	EnableStreamValidation     bool     `mapstructure:"enableStreamValidation"`
	RemoveInvalidStreams       bool     `mapstructure:"removeInvalidStreams"`
	StreamValidationTimeoutSec int      `mapstructure:"streamValidationTimeoutSec"`
	ValidationConcurrency      int      `mapstructure:"validationConcurrency"`
	ValidationBatchSize        int      `mapstructure:"validationBatchSize"`
	ValidationRetries          int      `mapstructure:"validationRetries"`
	ValidationRetryDelay       Duration `mapstructure:"validationRetryDelay"`
	ValidationCacheSize        int      `mapstructure:"validationCacheSize"`
	ValidationCacheTtl         Duration `mapstructure:"validationCacheTtl"`
	EarlyValidation            bool     `mapstructure:"earlyValidation"`
	DeepValidation             bool     `mapstructure:"deepValidation"`

	// HTTPS to HTTP conversion.
	ConvertHttpsToHttp        bool `mapstructure:"convertHttpsToHttp"`
	ValidateHttpConversion    bool `mapstructure:"validateHttpConversion"`
	HttpConversionTimeoutSec  int  `mapstructure:"httpConversionTimeoutSec"`
	HttpConversionConcurrency int  `mapstructure:"httpConversionConcurrency"`

	// Deduplication.
	NameSimilarityThreshold float64 `mapstructure:"nameSimilarityThreshold"`
	UrlSimilarityThreshold  float64 `mapstructure:"urlSimilarityThreshold"`
	EnableHdUpgrade         bool    `mapstructure:"enableHdUpgrade"`
	PreserveSourcePriority  bool    `mapstructure:"preserveSourcePriority"`
	DedupStrategy           string  `mapstructure:"dedupStrategy"`
	DedupMetrics            bool    `mapstructure:"dedupMetrics"`

	// Enrichment.
	ChunkSize      int `mapstructure:"chunkSize"`
	MaxConcurrency int `mapstructure:"maxConcurrency"`

	// Ambient sections.
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// HTTPConfig tunes the shared outbound HTTP client.
type HTTPConfig struct {
	UserAgent            string   `mapstructure:"userAgent"`
	PlaylistFetchTimeout Duration `mapstructure:"playlistFetchTimeout"`
	MaxPlaylistBytes     ByteSize `mapstructure:"maxPlaylistBytes"`
	MaxRetries           int      `mapstructure:"maxRetries"`
	RetryBackoff         Duration `mapstructure:"retryBackoff"`
	BreakerThreshold     int      `mapstructure:"breakerThreshold"`
	BreakerCooldown      Duration `mapstructure:"breakerCooldown"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"addSource"`
	TimeFormat string `mapstructure:"timeFormat"`
}

// CacheConfig holds the persistent probe-cache configuration. An empty path
// disables persistence; verdicts then live only in memory for the run.
type CacheConfig struct {
	Path     string `mapstructure:"path"`
	LogLevel string `mapstructure:"logLevel"` // silent, error, warn, info
}

// ScheduleConfig holds watch-mode scheduling configuration.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration and are
// prefixed with TVFORGE_. Example: TVFORGE_PLAYLISTOUTPUTPATH=out.m3u,
// TVFORGE_LOGGING_LEVEL=debug.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tvforge")
		v.AddConfigPath("$HOME/.tvforge")
	}

	v.SetEnvPrefix("TVFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// FromViper unmarshals and validates a pre-populated Viper instance.
// Used by the CLI, which binds flags on top of Load's sources.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		// Comma-joined lists: "LATINA,TELE" and ["LATINA", "TELE"] are
		// both accepted for every []string option.
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults configures default values for all options. Call before
// reading a config file so file values override them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("channelsSource", "automatic")
	v.SetDefault("channelsFile", "")
	v.SetDefault("playlistUrls", []string{})
	v.SetDefault("localPlaylistFiles", []string{})
	v.SetDefault("baseDir", ".")
	v.SetDefault("projectRoot", ".")

	v.SetDefault("validatedCatalogPath", "data/tv.csv")
	v.SetDefault("playlistOutputPath", "data/channels.m3u")
	v.SetDefault("perChannelPlaylistDir", "")
	v.SetDefault("artworkDir", "data/artwork")
	v.SetDefault("enableBackup", false)
	v.SetDefault("backupRetention", defaultBackupRetention)

	v.SetDefault("priorityChannels", []string{})
	v.SetDefault("categoryOrder", []string{})

	v.SetDefault("bannedNames", []string{})
	v.SetDefault("bannedNamePatterns", []string{})
	v.SetDefault("bannedUrls", []string{})
	v.SetDefault("bannedIps", []string{})
	v.SetDefault("bannedIpRanges", []string{})
	v.SetDefault("allowedChannels", []string{})
	v.SetDefault("allowedIps", []string{})
	v.SetDefault("ignoreNamesForFiltering", []string{})
	v.SetDefault("ignoreIpsForFiltering", []string{})
	v.SetDefault("ignoreUrlsForFiltering", []string{})
	v.SetDefault("ignoreFiles", []string{})

	v.SetDefault("filterReligiousContent", false)
	v.SetDefault("filterAdultContent", false)
	v.SetDefault("filterPoliticalContent", false)
	v.SetDefault("religiousKeywords", []string{"church", "gospel", "worship", "faith", "islamic", "quran"})
	v.SetDefault("adultKeywords", []string{"adult", "xxx", "18+", "erotic", "porn"})
	v.SetDefault("politicalKeywords", []string{"politic", "parliament", "congress", "senate", "campaign"})

	v.SetDefault("enableStreamValidation", true)
	v.SetDefault("removeInvalidStreams", false)
	v.SetDefault("streamValidationTimeoutSec", defaultValidationTimeoutSec)
	v.SetDefault("validationConcurrency", defaultValidationConcurrency)
	v.SetDefault("validationBatchSize", defaultValidationBatchSize)
	v.SetDefault("validationRetries", 0)
	v.SetDefault("validationRetryDelay", "2s")
	v.SetDefault("validationCacheSize", defaultValidationCacheSize)
	v.SetDefault("validationCacheTtl", "3600s")
	v.SetDefault("earlyValidation", false)
	v.SetDefault("deepValidation", false)

	v.SetDefault("convertHttpsToHttp", false)
	v.SetDefault("validateHttpConversion", true)
	v.SetDefault("httpConversionTimeoutSec", defaultConversionTimeoutSec)
	v.SetDefault("httpConversionConcurrency", defaultConversionConcurrency)

	v.SetDefault("nameSimilarityThreshold", defaultNameSimilarity)
	v.SetDefault("urlSimilarityThreshold", defaultURLSimilarity)
	v.SetDefault("enableHdUpgrade", true)
	v.SetDefault("preserveSourcePriority", true)
	v.SetDefault("dedupStrategy", "first")
	v.SetDefault("dedupMetrics", true)

	v.SetDefault("chunkSize", defaultChunkSize)
	v.SetDefault("maxConcurrency", defaultMaxConcurrency)

	v.SetDefault("http.userAgent", "")
	v.SetDefault("http.playlistFetchTimeout", "180s")
	v.SetDefault("http.maxPlaylistBytes", "64MB")
	v.SetDefault("http.maxRetries", 2)
	v.SetDefault("http.retryBackoff", "500ms")
	v.SetDefault("http.breakerThreshold", 5)
	v.SetDefault("http.breakerCooldown", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.addSource", false)
	v.SetDefault("logging.timeFormat", time.RFC3339)

	v.SetDefault("cache.path", "")
	v.SetDefault("cache.logLevel", "warn")

	v.SetDefault("schedule.cron", "")
}

// Source kinds accepted for channelsSource. remote_m3u and remote_m3U are
// deprecated spellings kept for older configs.
var validSourceKinds = map[string]bool{
	"tabular":         true,
	"remote_playlist": true,
	"local_playlist":  true,
	"hybrid":          true,
	"automatic":       true,
	"csv":             true,
	"local_m3u":       true,
	"remote_m3u":      true,
	"remote_m3U":      true,
}

// HasInputs reports whether any channel input is configured. A run
// without inputs still succeeds, emitting headers-only artifacts.
func (c *Config) HasInputs() bool {
	return c.IsURLSource() ||
		c.ChannelsFile != "" ||
		len(c.PlaylistUrls) > 0 ||
		len(c.LocalPlaylistFiles) > 0
}

// IsURLSource reports whether channelsSource is a URL literal rather than a
// named kind.
func (c *Config) IsURLSource() bool {
	return strings.HasPrefix(c.ChannelsSource, "http://") ||
		strings.HasPrefix(c.ChannelsSource, "https://")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.IsURLSource() {
		if _, err := url.ParseRequestURI(c.ChannelsSource); err != nil {
			return fmt.Errorf("channelsSource: invalid URL: %w", err)
		}
	} else if !validSourceKinds[c.ChannelsSource] {
		return fmt.Errorf("channelsSource must be one of tabular, remote_playlist, local_playlist, hybrid, automatic, or a URL")
	}

	if c.ValidatedCatalogPath == "" {
		return fmt.Errorf("validatedCatalogPath is required")
	}
	if c.PlaylistOutputPath == "" {
		return fmt.Errorf("playlistOutputPath is required")
	}
	if c.BackupRetention < 0 {
		return fmt.Errorf("backupRetention must not be negative")
	}

	if c.NameSimilarityThreshold < 0 || c.NameSimilarityThreshold > 1 {
		return fmt.Errorf("nameSimilarityThreshold must be between 0 and 1")
	}
	if c.UrlSimilarityThreshold < 0 || c.UrlSimilarityThreshold > 1 {
		return fmt.Errorf("urlSimilarityThreshold must be between 0 and 1")
	}
	switch c.DedupStrategy {
	case "first", "prioritize_working":
	default:
		return fmt.Errorf("dedupStrategy must be one of: first, prioritize_working")
	}

	if c.StreamValidationTimeoutSec < 1 {
		return fmt.Errorf("streamValidationTimeoutSec must be at least 1")
	}
	if c.ValidationConcurrency < 1 {
		return fmt.Errorf("validationConcurrency must be at least 1")
	}
	if c.ValidationBatchSize < 1 {
		return fmt.Errorf("validationBatchSize must be at least 1")
	}
	if c.ValidationCacheSize < 1 {
		return fmt.Errorf("validationCacheSize must be at least 1")
	}
	if c.HttpConversionTimeoutSec < 1 {
		return fmt.Errorf("httpConversionTimeoutSec must be at least 1")
	}
	if c.HttpConversionConcurrency < 1 {
		return fmt.Errorf("httpConversionConcurrency must be at least 1")
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("chunkSize must be at least 1")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("maxConcurrency must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// ResolvePath resolves a configured path. Relative paths resolve against
// BaseDir, except paths under data/, which resolve against ProjectRoot.
// Absolute paths pass through untouched.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	if clean == "data" || strings.HasPrefix(clean, "data/") {
		return filepath.Join(c.ProjectRoot, p)
	}
	return filepath.Join(c.BaseDir, p)
}

// CatalogPath returns the resolved tabular catalog output path.
func (c *Config) CatalogPath() string {
	return c.ResolvePath(c.ValidatedCatalogPath)
}

// PlaylistPath returns the resolved playlist output path.
func (c *Config) PlaylistPath() string {
	return c.ResolvePath(c.PlaylistOutputPath)
}

// FragmentsDir returns the resolved per-channel fragment directory,
// defaulting to an m3u8 directory beside the playlist.
func (c *Config) FragmentsDir() string {
	if c.PerChannelPlaylistDir != "" {
		return c.ResolvePath(c.PerChannelPlaylistDir)
	}
	return filepath.Join(filepath.Dir(c.PlaylistPath()), "m3u8")
}

// ArtworkPath returns the resolved artwork root directory.
func (c *Config) ArtworkPath() string {
	return c.ResolvePath(c.ArtworkDir)
}

// StreamValidationTimeout returns the per-probe validation deadline.
func (c *Config) StreamValidationTimeout() time.Duration {
	return time.Duration(c.StreamValidationTimeoutSec) * time.Second
}

// EarlyValidationTimeout returns the fail-fast deadline used by the
// early-validation pass.
func (c *Config) EarlyValidationTimeout() time.Duration {
	return defaultEarlyTimeout
}

// HTTPConversionTimeout returns the per-probe conversion deadline.
func (c *Config) HTTPConversionTimeout() time.Duration {
	return time.Duration(c.HttpConversionTimeoutSec) * time.Second
}

// FetchTimeout returns the remote playlist fetch deadline.
func (c *Config) FetchTimeout() time.Duration {
	if c.HTTP.PlaylistFetchTimeout <= 0 {
		return defaultFetchTimeout
	}
	return c.HTTP.PlaylistFetchTimeout.Duration()
}
