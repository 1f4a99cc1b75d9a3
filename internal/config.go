package internal

import (
	"errors"
	"fmt"
	"os"

	"github.com/civicarchive/councilcast/internal/api"
	"github.com/civicarchive/councilcast/internal/database"
	"github.com/civicarchive/councilcast/internal/http/client"
	"github.com/civicarchive/councilcast/internal/http/youtube"
	"github.com/civicarchive/councilcast/internal/transcribe"
	"github.com/civicarchive/councilcast/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// Config is the struct used to contain the various user config
// supplied by file and/or environment variables.
type Config struct {
	LogLevel    string `yaml:"log_level" toml:"log_level" env:"COUNCILCAST_LOG_LEVEL" env-default:"info"`
	ListingURL  string `yaml:"listing_url" toml:"listing_url" env:"COUNCILCAST_LISTING_URL" env-default:"https://cityofno.granicus.com/ViewPublisher.php?view_id=42" validate:"required,url"`
	ArchiveName string `yaml:"archive_name" toml:"archive_name" env:"COUNCILCAST_ARCHIVE_NAME" env-default:"City of New Orleans"`
	WorkDir     string `yaml:"work_dir" toml:"work_dir" env:"COUNCILCAST_WORK_DIR" env-default:"~/.councilcast/work" validate:"required"`

	Run           RunDefaults             `yaml:"run" toml:"run" env-prefix:"COUNCILCAST_RUN_"`
	HTTP          client.Config           `yaml:"http" toml:"http" env-prefix:"COUNCILCAST_"`
	Transcription transcribe.Config       `yaml:"transcription" toml:"transcription" env-prefix:"COUNCILCAST_"`
	YouTube       YouTubeConfig           `yaml:"youtube" toml:"youtube" env-prefix:"COUNCILCAST_YOUTUBE_"`
	Database      database.DatabaseConfig `yaml:"database" toml:"database" env-prefix:"COUNCILCAST_"`
	API           api.RestConfig          `yaml:"api" toml:"api" env-prefix:"COUNCILCAST_"`
}

// RunDefaults are the options used for a run when the caller (CLI flag,
// cron query parameter) does not override them.
type RunDefaults struct {
	Index            int    `yaml:"index" toml:"index" env:"INDEX" env-default:"0" validate:"min=0"`
	PrivacyStatus    string `yaml:"privacy_status" toml:"privacy_status" env:"PRIVACY_STATUS" env-default:"unlisted" validate:"oneof=public private unlisted"`
	Transcribe       bool   `yaml:"transcribe" toml:"transcribe" env:"TRANSCRIBE" env-default:"false"`
	// PlaceholderTitle replaces the scraped meeting title with
	// "City Council Meeting <date>".
	PlaceholderTitle bool   `yaml:"placeholder_title" toml:"placeholder_title" env:"PLACEHOLDER_TITLE" env-default:"false"`
	Keywords         string `yaml:"keywords" toml:"keywords" env:"KEYWORDS" env-default:"Council,New Orleans"`
}

// YouTubeConfig locates the OAuth2 credential files and tunes the
// upload engine. Both paths are fixed files; nothing is searched for.
type YouTubeConfig struct {
	SecretsPath string         `yaml:"client_secrets" toml:"client_secrets" env:"CLIENT_SECRETS" env-default:"~/.councilcast/client_secrets.json" validate:"required"`
	TokenPath   string         `yaml:"token_cache" toml:"token_cache" env:"TOKEN_CACHE" env-default:"~/.councilcast/youtube_token.json" validate:"required"`
	Interactive bool           `yaml:"interactive" toml:"interactive" env:"INTERACTIVE" env-default:"false"`
	CategoryID  string         `yaml:"category_id" toml:"category_id" env:"CATEGORY_ID" env-default:"22" validate:"numeric"`
	// MaxRetries of 0 in a config file reads as unset and becomes 10;
	// only COUNCILCAST_YOUTUBE_MAX_RETRIES=0 disables retries.
	MaxRetries  int            `yaml:"max_retries" toml:"max_retries" env:"MAX_RETRIES" env-default:"10" validate:"min=0"`
	Upload      youtube.Config `yaml:"upload" toml:"upload"`
}

var validate = validator.New()

// LoadConfig reads the configuration file at the path provided (YAML or
// TOML, by extension) and overlays environment variables. An empty path
// reads configuration from the environment alone.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	if err := config.expandPaths(); err != nil {
		return nil, err
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration is invalid: %w", err)
	}

	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return nil, fmt.Errorf("configuration is invalid: %w", err)
	}

	return config, nil
}

// ApplyLogLevel sets the global minimum logging level to the one
// configured.
func (config *Config) ApplyLogLevel() {
	if level, err := logger.ParseLevel(config.LogLevel); err == nil {
		logger.SetMinLoggingLevel(level.Level())
	}
}

const redacted = "<redacted>"

// Redacted returns a copy of the config with credentials masked,
// suitable for logging.
func (config *Config) Redacted() Config {
	clone := *config
	for _, secret := range []*string{&clone.Transcription.APIKey, &clone.Database.Password, &clone.API.CronSecret} {
		if *secret != "" {
			*secret = redacted
		}
	}

	return clone
}

// EnsureWorkDir creates the work directory if it does not exist.
func (config *Config) EnsureWorkDir() error {
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("failed to create work directory %s: %w", config.WorkDir, err)
	}

	return nil
}

func (config *Config) expandPaths() error {
	var errs []error
	for _, path := range []*string{&config.WorkDir, &config.YouTube.SecretsPath, &config.YouTube.TokenPath, &config.Database.Path} {
		expanded, err := homedir.Expand(*path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to expand path %s: %w", *path, err))
			continue
		}
		*path = expanded
	}

	return errors.Join(errs...)
}
