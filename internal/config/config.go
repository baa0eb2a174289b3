package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Session  SessionConfig
	Display  DisplayConfig
	Sheets   SheetsConfig
	MongoDB  MongoDBConfig
	WhatsApp WhatsAppConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

// LogConfig selects the zap level.
type LogConfig struct {
	Level string
}

// SessionConfig tunes comparison sessions.
type SessionConfig struct {
	UndoWindow         time.Duration
	IdleTTL            time.Duration
	SweepSchedule      string
	MaxAttachmentBytes int64
}

// DisplayConfig controls collation and number formatting.
type DisplayConfig struct {
	Locale          string
	CurrencySymbol  string
	VolumeUnitLabel string
	LiterUnitLabel  string
}

// SheetsConfig enables the Google Sheets export sink when SpreadsheetID is set.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ExportRange     string
}

// MongoDBConfig enables the snapshot archive sink when URI is set.
type MongoDBConfig struct {
	URI        string
	DBName     string
	Collection string
}

// WhatsAppConfig enables the WhatsApp command surface and share sink when
// AccessToken is set.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	ShareTo       string
}

// Enabled reports whether the Sheets sink is configured.
func (c SheetsConfig) Enabled() bool { return c.SpreadsheetID != "" }

// Enabled reports whether the MongoDB sink is configured.
func (c MongoDBConfig) Enabled() bool { return c.URI != "" }

// Enabled reports whether the WhatsApp integration is configured.
func (c WhatsAppConfig) Enabled() bool { return c.AccessToken != "" }

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	undoWindow, err := getenvDuration("UNDO_WINDOW", 6*time.Second)
	if err != nil {
		return nil, err
	}
	idleTTL, err := getenvDuration("SESSION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	maxAttachment, err := getenvInt64("ATTACHMENT_MAX_BYTES", 5<<20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getenvWithDefault("APP_PORT", "8080"),
			CORSAllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			UndoWindow:         undoWindow,
			IdleTTL:            idleTTL,
			SweepSchedule:      getenvWithDefault("SESSION_SWEEP_SCHEDULE", "@every 5m"),
			MaxAttachmentBytes: maxAttachment,
		},
		Display: DisplayConfig{
			Locale:          getenvWithDefault("LOCALE", "th"),
			CurrencySymbol:  getenvWithDefault("CURRENCY_SYMBOL", "฿"),
			VolumeUnitLabel: getenvWithDefault("VOLUME_UNIT_LABEL", "ml"),
			LiterUnitLabel:  getenvWithDefault("LITER_UNIT_LABEL", "L"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
			ExportRange:     getenvWithDefault("GOOGLE_SHEET_EXPORT_RANGE", "Comparisons!A:H"),
		},
		MongoDB: MongoDBConfig{
			URI:        os.Getenv("MONGODB_URI"),
			DBName:     getenvWithDefault("MONGODB_DB_NAME", "pricecheck"),
			Collection: getenvWithDefault("MONGODB_EXPORT_COLLECTION", "exports"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ShareTo:       os.Getenv("WHATSAPP_SHARE_TO"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and that
// optional integrations are either fully configured or absent.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Session.UndoWindow <= 0:
		return errors.New("UNDO_WINDOW must be positive")
	case c.Session.IdleTTL <= 0:
		return errors.New("SESSION_IDLE_TTL must be positive")
	case c.Session.SweepSchedule == "":
		return errors.New("SESSION_SWEEP_SCHEDULE must be provided")
	case c.Session.MaxAttachmentBytes <= 0:
		return errors.New("ATTACHMENT_MAX_BYTES must be positive")
	}

	if _, err := language.Parse(c.Display.Locale); err != nil {
		return fmt.Errorf("LOCALE %q is not a valid language tag: %w", c.Display.Locale, err)
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_EXPORT_ID is set")
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	return nil
}

// Language returns the parsed display locale. Validate guarantees it parses.
func (c DisplayConfig) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und
	}
	return tag
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getenvInt64(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
