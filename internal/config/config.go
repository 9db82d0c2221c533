package config // package config loads application configuration from environment variables

import (
	"fmt"     // fmt formats the aggregated configuration error
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings joins the list of missing keys
)

// Supported values for DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string   // application environment (e.g. "dev", "prod")
	Port           string   // HTTP port to listen on
	DBDriver       string   // mysql or sqlite3
	DBUser         string   // database username (mysql)
	DBPass         string   // database password (optional)
	DBHost         string   // database host address (mysql)
	DBPort         string   // database port number (mysql)
	DBName         string   // database name (mysql)
	DBPath         string   // database file (sqlite3)
	JWTSecret      string   // secret used to sign JWTs
	AccessTTLMin   int      // access token time-to-live in minutes
	RefreshTTLDays int      // refresh token time-to-live in days
	BcryptCost     int      // bcrypt cost for password hashing
	LogLevel       string   // debug, info, warn, error
	LogFormat      string   // json or console
	CORSOrigins    []string // allowed CORS origins; empty means "*"

	// PaymentDeclineAboveCents makes the mock payment processor decline
	// charges above this amount. Zero disables declines.
	PaymentDeclineAboveCents int64
}

// Load reads configuration values from environment variables and returns a
// Config. Every missing or malformed required variable is reported in the
// returned error so a misconfigured deployment fails once with the full list.
func Load() (Config, error) {
	var l loader
	cfg := Config{
		Env:            l.must("APP_ENV"),
		Port:           l.must("APP_PORT"),
		DBDriver:       strings.ToLower(envStr("DB_DRIVER", DriverMySQL)),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		JWTSecret:      l.must("JWT_SECRET"),
		AccessTTLMin:   l.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: l.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     l.mustInt("BCRYPT_COST"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		LogFormat:      envStr("LOG_FORMAT", "json"),
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),

		PaymentDeclineAboveCents: int64(envInt("PAYMENT_DECLINE_ABOVE_CENTS", 0)),
	}

	switch cfg.DBDriver {
	case DriverMySQL:
		cfg.DBUser = l.must("DB_USER")
		cfg.DBHost = l.must("DB_HOST")
		cfg.DBPort = l.must("DB_PORT")
		cfg.DBName = l.must("DB_NAME")
	case DriverSQLite:
		cfg.DBPath = l.must("DB_PATH")
	default:
		l.fail(fmt.Sprintf("unsupported DB_DRIVER %q", cfg.DBDriver))
	}

	if err := l.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loader collects problems with required variables instead of exiting on
// the first one.
type loader struct{ problems []string }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty the key is recorded as missing.
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		l.fail("missing required env var: " + key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func (l *loader) mustInt(key string) int {
	s := l.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		l.fail(fmt.Sprintf("invalid int for %s: %q", key, s))
	}
	return n
}

func (l *loader) fail(msg string) { l.problems = append(l.problems, msg) }

func (l *loader) err() error {
	if len(l.problems) == 0 {
		return nil
	}
	return fmt.Errorf("config: %s", strings.Join(l.problems, "; "))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
