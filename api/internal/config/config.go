package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string

	OCRBackend      string
	OCRSpaceAPIKey  string
	OCRSpaceURL     string
	OCRLanguage     string
	VocabularyFile  string
	PromptFile      string
	TemplateBackend string

	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	OCRTimeout      time.Duration
	TemplateTimeout time.Duration
	DBTimeout       time.Duration

	CORSAllowOrigins []string

	TelegramBotToken string
	WebhookURL       string

	dsnErr error
}

type env func(string) string

func (e env) get(k, def string) string {
	if v := strings.TrimSpace(e(k)); v != "" {
		return v
	}
	return def
}

func (e env) duration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(e(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("env %s: invalid duration %q", k, v)
	}
	return d, nil
}

// FromEnv builds a Config from lookup. Keys for a backend are only required
// when that backend is selected.
func FromEnv(lookup func(string) string) (*Config, error) {
	e := env(lookup)
	cfg := &Config{
		Port: e.get("PORT", "8000"),

		OCRBackend:      strings.ToLower(e.get("OCR_BACKEND", "tesseract")),
		OCRSpaceAPIKey:  e.get("OCR_SPACE_API_KEY", ""),
		OCRSpaceURL:     e.get("OCR_SPACE_URL", "https://api.ocr.space/parse/image"),
		OCRLanguage:     e.get("OCR_LANGUAGE", "eng"),
		VocabularyFile:  e.get("VOCABULARY_FILE", ""),
		PromptFile:      e.get("PROMPT_FILE", ""),
		TemplateBackend: strings.ToLower(e.get("TEMPLATE_GENERATOR", "rules")),

		GeminiAPIKey: e.get("GEMINI_API_KEY", ""),
		GeminiModel:  e.get("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey: e.get("OPENAI_API_KEY", ""),
		OpenAIModel:  e.get("OPENAI_MODEL", "gpt-4o-mini"),

		TelegramBotToken: e.get("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       e.get("WEBHOOK_URL", ""),
	}

	var err error
	if cfg.OCRTimeout, err = e.duration("OCR_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.TemplateTimeout, err = e.duration("TEMPLATE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.DBTimeout, err = e.duration("DB_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(e.get("CORS_ALLOW_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, o)
		}
	}

	cfg.DatabaseURL, cfg.dsnErr = resolveDSN(e)

	switch cfg.OCRBackend {
	case "tesseract", "local":
	case "ocrspace", "ocr.space", "remote":
		if cfg.OCRSpaceAPIKey == "" {
			return nil, missing("OCR_SPACE_API_KEY")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, missing("GEMINI_API_KEY")
		}
	default:
		return nil, fmt.Errorf("env OCR_BACKEND: unknown backend %q", cfg.OCRBackend)
	}

	switch cfg.TemplateBackend {
	case "rules":
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, missing("GEMINI_API_KEY")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, missing("OPENAI_API_KEY")
		}
	default:
		return nil, fmt.Errorf("env TEMPLATE_GENERATOR: unknown generator %q", cfg.TemplateBackend)
	}
	return cfg, nil
}

// RequireDatabase reports whether a usable DSN was configured. Only the
// HTTP service needs one.
func (c *Config) RequireDatabase() error { return c.dsnErr }

// RequireBot reports whether the Telegram bot can start.
func (c *Config) RequireBot() error {
	if c.TelegramBotToken == "" {
		return missing("TELEGRAM_BOT_TOKEN")
	}
	return nil
}

// Load reads the process environment and exits on a configuration error.
func Load() *Config {
	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func missing(k string) error { return fmt.Errorf("missing required env %s", k) }

// resolveDSN prefers DATABASE_URL and otherwise assembles one from the
// POSTGRES_* / PG* parts.
func resolveDSN(e env) (string, error) {
	if v := e.get("DATABASE_URL", ""); v != "" {
		return v, nil
	}
	pass := e.get("POSTGRES_PASSWORD", "")
	if pass == "" {
		return "", fmt.Errorf("database DSN is empty: set DATABASE_URL or POSTGRES_PASSWORD and PGHOST")
	}
	host := e.get("PGHOST", "")
	if host == "" {
		return "", missing("PGHOST")
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(e.get("POSTGRES_USER", "templater"), pass),
		Host:     net.JoinHostPort(host, e.get("PGPORT", "5432")),
		Path:     "/" + e.get("POSTGRES_DB", "math_templates_db"),
		RawQuery: "sslmode=disable",
	}
	return u.String(), nil
}
