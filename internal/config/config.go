package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application
type Config struct {
	APIToken  string
	SecretKey string
	DataDir   string
	Host      string
	Port      string

	// RefreshHour/RefreshMinute is the daily refresh wall-clock time in UTC+8.
	RefreshHour   int
	RefreshMinute int

	M3UCacheTTL time.Duration

	SMTP SMTPConfig
}

// SMTPConfig holds the settings for the outbound mail notifier.
// The notifier is optional; see Enabled.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != "" && len(s.To) > 0
}

// Load reads the environment via viper and returns a validated Config
func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("API_TOKEN", "hntv-secret-token-2025")
	viper.SetDefault("HNTV_SECRET_KEY", "6ca114a836ac7d73")
	viper.SetDefault("DATA_DIR", "./xml_data")
	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "5002")
	viper.SetDefault("REFRESH_AT", "02:30")
	viper.SetDefault("M3U_CACHE_TTL", "10m")
	viper.SetDefault("SMTP_PORT", 465)

	cfg := &Config{
		APIToken:  viper.GetString("API_TOKEN"),
		SecretKey: viper.GetString("HNTV_SECRET_KEY"),
		DataDir:   viper.GetString("DATA_DIR"),
		Host:      viper.GetString("HOST"),
		Port:      viper.GetString("PORT"),
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			Username: viper.GetString("SMTP_USERNAME"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
			To:       splitList(viper.GetString("SMTP_TO")),
		},
	}

	// Validate required fields
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("API_TOKEN is required")
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("HNTV_SECRET_KEY is required")
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("DATA_DIR is required")
	}

	hour, minute, err := ParseRefreshAt(viper.GetString("REFRESH_AT"))
	if err != nil {
		return nil, fmt.Errorf("REFRESH_AT: %w", err)
	}
	cfg.RefreshHour = hour
	cfg.RefreshMinute = minute

	ttl, err := time.ParseDuration(viper.GetString("M3U_CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("M3U_CACHE_TTL: %w", err)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	cfg.M3UCacheTTL = ttl

	return cfg, nil
}

// ParseRefreshAt parses a "HH:MM" wall-clock string.
func ParseRefreshAt(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
