package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRENDCAST_"

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Log         struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	RateLimit struct {
		RPS   float64 `yaml:"rps" default:"5"`
		Burst int     `yaml:"burst" default:"10"`
	} `yaml:"rate_limit"`
	Backend struct {
		Type string `yaml:"type" default:"csv" validate:"oneof=clickhouse postgres http csv"`
	} `yaml:"backend"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"trendcast"`
		Table            string        `yaml:"table" default:"daily_prices"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		InitSchema       bool          `yaml:"init_schema"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Postgres struct {
		DSN             string        `yaml:"dsn"`
		Table           string        `yaml:"table" default:"daily_prices"`
		MaxOpenConns    int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
		ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" default:"5m"`
		QueryTimeout    time.Duration `yaml:"query_timeout" default:"30s"`
	} `yaml:"postgres"`
	PricesHTTP struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout" default:"10s"`
		Retries int           `yaml:"retries" default:"3"`
	} `yaml:"prices_http"`
	CSV struct {
		Dir string `yaml:"dir" default:"data"`
	} `yaml:"csv"`
	Cache struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		TTL           time.Duration `yaml:"ttl" default:"6h"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"256"`
		Redis         struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"trendcast"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"trendcast.forecasts"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=gzip snappy lz4 zstd"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	Forecast struct {
		DefaultMethod    string        `yaml:"default_method" default:"linregression" validate:"oneof=linregression expsmoothing"`
		MaxHorizonMonths int           `yaml:"max_horizon_months" default:"24" validate:"gte=1,lte=120"`
		Folds            int           `yaml:"cv_folds" default:"5" validate:"gte=2"`
		Seed             *uint64       `yaml:"seed"`
		MaxEvaluations   int           `yaml:"smoothing_max_evaluations" default:"20000" validate:"gte=1"`
		Timeout          time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"forecast"`
	Scheduler struct {
		Enabled    bool          `yaml:"enabled"`
		WarmupCron string        `yaml:"warmup_cron" default:"0 6 * * *"`
		Timeout    time.Duration `yaml:"timeout" default:"5m"`
	} `yaml:"scheduler"`
	Instruments []Instrument `yaml:"instruments" validate:"dive"`
}

// Instrument maps a storage code to a display label.
type Instrument struct {
	Code  string `yaml:"code" validate:"required"`
	Label string `yaml:"label"`
}

var validate = validator.New()

// Load reads a YAML file, applies defaults and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads dotenv files (missing ones are skipped), then the YAML file, then
// applies TRENDCAST_* overrides before validating.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var c *Config
	if path == "" {
		c = &Config{}
		if err := defaults.Set(c); err != nil {
			return nil, fmt.Errorf("config defaults: %w", err)
		}
	} else {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if c, err = parse(b); err != nil {
			return nil, err
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = splitList(v)
		}
	}
	integer := func(key string, dst *int) error {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
		return nil
	}

	str("ENVIRONMENT", &c.Environment)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("BACKEND", &c.Backend.Type)
	str("CLICKHOUSE_HOST", &c.ClickHouse.Host)
	str("CLICKHOUSE_USER", &c.ClickHouse.User)
	str("CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)
	str("POSTGRES_DSN", &c.Postgres.DSN)
	str("PRICES_URL", &c.PricesHTTP.BaseURL)
	str("CSV_DIR", &c.CSV.Dir)
	str("REDIS_HOST", &c.Cache.Redis.Host)
	str("REDIS_PASSWORD", &c.Cache.Redis.Password)
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	str("WARMUP_CRON", &c.Scheduler.WarmupCron)
	list("KAFKA_BROKERS", &c.Kafka.Brokers)
	list("CORS_ORIGINS", &c.Server.CORSOrigins)

	for key, dst := range map[string]*int{
		"SERVER_PORT":        &c.Server.Port,
		"CLICKHOUSE_PORT":    &c.ClickHouse.Port,
		"REDIS_PORT":         &c.Cache.Redis.Port,
		"MAX_HORIZON_MONTHS": &c.Forecast.MaxHorizonMonths,
	} {
		if err := integer(key, dst); err != nil {
			return err
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "REDIS_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_ENABLED: %w", EnvPrefix, err)
		}
		c.Cache.Redis.Enabled = b
	}
	if v, ok := os.LookupEnv(EnvPrefix + "FORECAST_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sFORECAST_SEED: %w", EnvPrefix, err)
		}
		c.Forecast.Seed = &seed
	}
	return nil
}

// Validate checks struct rules and backend-specific requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	switch c.Backend.Type {
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for backend clickhouse")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for backend postgres")
		}
	case "http":
		if c.PricesHTTP.BaseURL == "" {
			return fmt.Errorf("prices_http.base_url is required for backend http")
		}
	}
	seen := make(map[string]bool, len(c.Instruments))
	for _, in := range c.Instruments {
		if seen[in.Code] {
			return fmt.Errorf("instruments: duplicate code %q", in.Code)
		}
		seen[in.Code] = true
	}
	return nil
}

// InstrumentLabel returns the configured display label, or the code itself.
func (c *Config) InstrumentLabel(code string) string {
	for _, in := range c.Instruments {
		if in.Code == code && in.Label != "" {
			return in.Label
		}
	}
	return code
}

// InstrumentCodes returns the configured codes in file order.
func (c *Config) InstrumentCodes() []string {
	out := make([]string, 0, len(c.Instruments))
	for _, in := range c.Instruments {
		out = append(out, in.Code)
	}
	return out
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
