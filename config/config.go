package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"listing-harvester/models"
)

// Config holds all application configuration loaded from the environment,
// an optional YAML file and built-in defaults.
type Config struct {
	DBDriver   string
	SQLitePath string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	BaseURL        string
	Categories     []models.Category
	Transport      string
	UserAgent      string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	ChromeBin      string

	MaxConcurrency int
	ChunkSize      int
	RateLimitMs    int
	MaxRetries     int
	RetryStatuses  []int
	MaxPages       int
	PageDelayMinMs int
	PageDelayMaxMs int

	ExportDir   string
	LatestRuns  int
	LogLevel    string
	Debug       bool
	MetricsAddr string
	Schedule    string
}

// DefaultCategories are the four Vilnius catalog segments.
var DefaultCategories = []models.Category{
	{Name: "RENT_HOUSE", Path: "/namu-nuoma/vilniuje"},
	{Name: "SELL_HOUSE", Path: "/namai/vilniuje"},
	{Name: "RENT_FLAT", Path: "/butu-nuoma/vilniuje"},
	{Name: "SELL_FLAT", Path: "/butai/vilniuje"},
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	TransportHTTP    = "http"
	TransportBrowser = "browser"
)

// Load reads the .env file and the optional config file at path, and
// returns a populated Config. An empty path searches ./config.yaml.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %q: %w", v.ConfigFileUsed(), err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("sqlite_path", "./harvest.db")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("postgres_user", "scraper")
	v.SetDefault("postgres_password", "scraper123")
	v.SetDefault("postgres_db", "listings_db")
	v.SetDefault("postgres_sslmode", "disable")

	v.SetDefault("base_url", "https://m.aruodas.lt")
	v.SetDefault("transport", TransportHTTP)
	v.SetDefault("user_agent", "Mozilla/5.0 (X11; Linux x86_64; rv:139.0) Gecko/20100101 Firefox/139.0")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("max_body_bytes", 10*1024*1024)
	v.SetDefault("chrome_bin", "")

	v.SetDefault("max_concurrency", 6)
	v.SetDefault("chunk_size", 10)
	v.SetDefault("rate_limit_ms", 0)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_statuses", "")
	v.SetDefault("max_pages", 500)
	v.SetDefault("page_delay_min_ms", 1000)
	v.SetDefault("page_delay_max_ms", 2500)

	v.SetDefault("export_dir", "./result_data")
	v.SetDefault("latest_runs", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("debug", false)
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("schedule", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	statuses, err := parseStatuses(v.GetString("retry_statuses"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBDriver:   strings.ToLower(v.GetString("db_driver")),
		SQLitePath: v.GetString("sqlite_path"),

		PostgresHost:     v.GetString("postgres_host"),
		PostgresPort:     v.GetString("postgres_port"),
		PostgresUser:     v.GetString("postgres_user"),
		PostgresPassword: v.GetString("postgres_password"),
		PostgresDB:       v.GetString("postgres_db"),
		PostgresSSLMode:  v.GetString("postgres_sslmode"),

		BaseURL:        strings.TrimRight(v.GetString("base_url"), "/"),
		Transport:      strings.ToLower(v.GetString("transport")),
		UserAgent:      v.GetString("user_agent"),
		RequestTimeout: v.GetDuration("request_timeout"),
		MaxBodyBytes:   v.GetInt64("max_body_bytes"),
		ChromeBin:      v.GetString("chrome_bin"),

		MaxConcurrency: v.GetInt("max_concurrency"),
		ChunkSize:      v.GetInt("chunk_size"),
		RateLimitMs:    v.GetInt("rate_limit_ms"),
		MaxRetries:     v.GetInt("max_retries"),
		RetryStatuses:  statuses,
		MaxPages:       v.GetInt("max_pages"),
		PageDelayMinMs: v.GetInt("page_delay_min_ms"),
		PageDelayMaxMs: v.GetInt("page_delay_max_ms"),

		ExportDir:   v.GetString("export_dir"),
		LatestRuns:  v.GetInt("latest_runs"),
		LogLevel:    v.GetString("log_level"),
		Debug:       v.GetBool("debug"),
		MetricsAddr: v.GetString("metrics_addr"),
		Schedule:    v.GetString("schedule"),
	}

	if v.IsSet("categories") {
		if err := v.UnmarshalKey("categories", &cfg.Categories); err != nil {
			return nil, fmt.Errorf("config: decode categories: %w", err)
		}
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = append([]models.Category(nil), DefaultCategories...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.MaxConcurrency < 1:
		return fmt.Errorf("config: max_concurrency must be positive, got %d", c.MaxConcurrency)
	case c.ChunkSize < 1:
		return fmt.Errorf("config: chunk_size must be positive, got %d", c.ChunkSize)
	case c.MaxRetries < 1:
		return fmt.Errorf("config: max_retries must be positive, got %d", c.MaxRetries)
	case c.PageDelayMinMs < 0 || c.PageDelayMaxMs < c.PageDelayMinMs:
		return fmt.Errorf("config: invalid page delay range %d..%d ms", c.PageDelayMinMs, c.PageDelayMaxMs)
	case c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite:
		return fmt.Errorf("config: unsupported db_driver %q", c.DBDriver)
	case c.Transport != TransportHTTP && c.Transport != TransportBrowser:
		return fmt.Errorf("config: unsupported transport %q", c.Transport)
	}
	for _, cat := range c.Categories {
		if cat.Name == "" || cat.Path == "" {
			return fmt.Errorf("config: category needs both name and path: %+v", cat)
		}
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverSQLite {
		return c.SQLitePath
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// PageDelayRange returns the randomized inter-page delay bounds.
func (c *Config) PageDelayRange() (time.Duration, time.Duration) {
	return time.Duration(c.PageDelayMinMs) * time.Millisecond,
		time.Duration(c.PageDelayMaxMs) * time.Millisecond
}

// RateLimit returns the minimum interval between request starts.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMs) * time.Millisecond
}

func parseStatuses(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 100 || n > 599 {
			return nil, fmt.Errorf("config: invalid retry status %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
