// Package config provides run configuration for the tap
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/tap-reddit-ads/pkg/errors"
)

// DefaultConversionWindow is the number of trailing days treated as
// unsettled on the Reddit Ads platform. Report rows inside this window
// may still change, so the cursor never queries them as a final answer.
const DefaultConversionWindow = 14

// DateLayout is the wire format for all report dates and bookmarks.
const DateLayout = "2006-01-02"

// Config holds the run configuration consumed by the tap. The OAuth
// fields live in Credentials, which the token manager mutates in place
// as refreshes happen over the life of the run.
type Config struct {
	StartsAt         string `mapstructure:"starts_at" json:"starts_at"`
	AccountID        string `mapstructure:"account_id" json:"account_id"`
	RefreshToken     string `mapstructure:"refresh_token" json:"refresh_token"`
	ClientID         string `mapstructure:"client_id" json:"client_id"`
	ClientSecret     string `mapstructure:"client_secret" json:"client_secret"`
	UserAgent        string `mapstructure:"user_agent" json:"user_agent"`
	ConversionWindow int    `mapstructure:"conversion_window" json:"conversion_window,omitempty"`
	AccessToken      string `mapstructure:"access_token" json:"access_token,omitempty"`
}

// Credentials is the single mutable credential object for a run. It is
// owned by the orchestrator and handed to the token manager; nothing
// else writes to it.
type Credentials struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	RefreshToken string
	UserAgent    string

	AccessToken string
	ExpiresAt   time.Time
}

// Load reads a JSON config file and validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config file")
	}

	if cfg.ConversionWindow == 0 {
		cfg.ConversionWindow = DefaultConversionWindow
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the required keys and the start date format.
func (c *Config) Validate() error {
	required := map[string]string{
		"starts_at":     c.StartsAt,
		"account_id":    c.AccountID,
		"refresh_token": c.RefreshToken,
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"user_agent":    c.UserAgent,
	}
	for key, value := range required {
		if value == "" {
			return errors.Newf(errors.ErrorTypeConfig, "missing required config key %q", key)
		}
	}

	if _, err := time.Parse(DateLayout, c.StartsAt); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "starts_at must be a YYYY-MM-DD date")
	}

	if c.ConversionWindow < 0 {
		return errors.New(errors.ErrorTypeConfig, "conversion_window must not be negative")
	}

	return nil
}

// Credentials builds the run's credential store from the config.
func (c *Config) Credentials() *Credentials {
	return &Credentials{
		AccountID:    c.AccountID,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RefreshToken: c.RefreshToken,
		UserAgent:    c.UserAgent,
		AccessToken:  c.AccessToken,
	}
}
