package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	Port    string
	BaseURL string

	DBDSN        string
	DBMaxRetries int

	JWTSecret string
	JWTTTL    time.Duration

	CORSAllowOrigins  []string
	AllowRegistration bool
	PrometheusEnabled bool

	// Optional integrations. Empty disables them.
	RabbitMQURL  string
	GeminiAPIKey string

	// DefaultDueDays is how far out a deferred sale falls due when the
	// operator did not pick a date.
	DefaultDueDays int
	// OverdueSweep is how often pending accounts past due are flagged
	// overdue. Zero disables the sweep.
	OverdueSweep time.Duration

	UploadDir         string
	SeedAdminPassword string
}

// Load reads .env (if present) and then the process environment.
// It reports whether a .env file was found so the caller can log it.
func Load() (Config, bool) {
	envFileFound := godotenv.Load() == nil

	cfg := Config{
		Env:     getenv("APP_ENV", "development"),
		Port:    getenv("PORT", "8080"),
		BaseURL: getenv("BASE_URL", ""),

		DBDSN:        getenv("DB_DSN", ""),
		DBMaxRetries: getint("DB_MAX_RETRIES", 5),

		JWTSecret: getenv("JWT_SECRET", ""),
		JWTTTL:    getduration("JWT_TTL", 24*time.Hour),

		CORSAllowOrigins:  splitCSV(getenv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		AllowRegistration: getbool("ALLOW_REGISTRATION", false),
		PrometheusEnabled: getbool("PROMETHEUS_ENABLED", false),

		RabbitMQURL:  getenv("RABBITMQ_URL", ""),
		GeminiAPIKey: getenv("GEMINI_API_KEY", ""),

		DefaultDueDays: getint("DEFAULT_DUE_DAYS", 30),
		OverdueSweep:   getduration("OVERDUE_SWEEP_INTERVAL", time.Hour),

		UploadDir:         getenv("UPLOAD_DIR", "./uploads"),
		SeedAdminPassword: getenv("SEED_ADMIN_PASSWORD", ""),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = "dev-only-secret-change-me"
	}
	return cfg, envFileFound
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) Validate() error {
	var errs []error
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.DefaultDueDays <= 0 {
		errs = append(errs, errors.New("DEFAULT_DUE_DAYS must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	n, err := strconv.Atoi(getenv(k, ""))
	if err != nil {
		return def
	}
	return n
}

func getbool(k string, def bool) bool {
	b, err := strconv.ParseBool(getenv(k, ""))
	if err != nil {
		return def
	}
	return b
}

func getduration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getenv(k, ""))
	if err != nil {
		return def
	}
	return d
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
