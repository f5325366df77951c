package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

// Enabled reports whether a database is configured at all; without one the
// service runs with rate history switched off.
func (config *DbServer) Enabled() bool {
	return config.Host != ""
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type ExchangeRate struct {
	Base                   string  `mapstructure:"base"`
	Quote                  string  `mapstructure:"quote"`
	CacheTTLSeconds        int     `mapstructure:"cache_ttl_seconds"`
	MinRate                float64 `mapstructure:"min_rate"`
	MaxRate                float64 `mapstructure:"max_rate"`
	EmergencyRate          float64 `mapstructure:"emergency_rate"`
	ProviderTimeoutSeconds int     `mapstructure:"provider_timeout_seconds"`
	StaleWhileRefresh      bool    `mapstructure:"stale_while_refresh"`
	MinRefreshSeconds      int     `mapstructure:"min_refresh_interval_seconds"`
	YahooTicker            string  `mapstructure:"yahoo_ticker"`
	YahooInverseTicker     string  `mapstructure:"yahoo_inverse_ticker"`
	ExchangeRateAPIURL     string  `mapstructure:"exchange_rate_api_url"`
	FrankfurterURL         string  `mapstructure:"frankfurter_url"`
}

type Quotes struct {
	YahooBaseURL          string   `mapstructure:"yahoo_base_url"`
	MaxConcurrency        int      `mapstructure:"max_concurrency"`
	PerTaskTimeoutSeconds float64  `mapstructure:"per_task_timeout_seconds"`
	RoundDeadlineSeconds  float64  `mapstructure:"round_deadline_seconds"`
	MaxSymbols            int      `mapstructure:"max_symbols"`
	DomesticSuffixes      []string `mapstructure:"domestic_suffixes"`
	DomesticCurrency      string   `mapstructure:"domestic_currency"`
}

type Scheduler struct {
	RecordIntervalSeconds int `mapstructure:"record_interval_seconds"`
}

type AppConfig struct {
	HTTPServer   HTTPServer   `mapstructure:"http_server"`
	DbServer     DbServer     `mapstructure:"db_server"`
	HTTPClient   HTTPClient   `mapstructure:"http_client"`
	Logging      Logging      `mapstructure:"logging"`
	ExchangeRate ExchangeRate `mapstructure:"exchange_rate"`
	Quotes       Quotes       `mapstructure:"quotes"`
	Scheduler    Scheduler    `mapstructure:"scheduler"`
}

// Init loads configuration from an optional .env file, an optional YAML file at
// path and the environment, in increasing order of precedence.
func Init(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", "8080")
	v.SetDefault("db_server.port", "5432")
	v.SetDefault("db_server.max_conns", 10)
	v.SetDefault("http_client.timeout_seconds", 10)
	v.SetDefault("logging.level", "info")

	v.SetDefault("exchange_rate.base", "USD")
	v.SetDefault("exchange_rate.quote", "INR")
	v.SetDefault("exchange_rate.cache_ttl_seconds", 3600)
	v.SetDefault("exchange_rate.min_rate", 70.0)
	v.SetDefault("exchange_rate.max_rate", 100.0)
	v.SetDefault("exchange_rate.emergency_rate", 83.0)
	v.SetDefault("exchange_rate.provider_timeout_seconds", 5)
	v.SetDefault("exchange_rate.stale_while_refresh", false)
	v.SetDefault("exchange_rate.min_refresh_interval_seconds", 30)
	// yahoo tickers are derived from the pair when left empty
	v.SetDefault("exchange_rate.yahoo_ticker", "")
	v.SetDefault("exchange_rate.yahoo_inverse_ticker", "")
	v.SetDefault("exchange_rate.exchange_rate_api_url", "https://api.exchangerate-api.com/v4/latest")
	v.SetDefault("exchange_rate.frankfurter_url", "https://api.frankfurter.app")

	v.SetDefault("quotes.yahoo_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("quotes.max_concurrency", 10)
	v.SetDefault("quotes.per_task_timeout_seconds", 3)
	v.SetDefault("quotes.round_deadline_seconds", 8)
	v.SetDefault("quotes.max_symbols", 50)
	v.SetDefault("quotes.domestic_suffixes", []string{".NS", ".BO", ".BSE", ".NSE"})
	v.SetDefault("quotes.domestic_currency", "INR")

	v.SetDefault("scheduler.record_interval_seconds", 0)
}

func bindEnv(v *viper.Viper) {
	// http server / client
	_ = v.BindEnv("http_server.port", "HTTP_PORT")
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")

	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// exchange rate
	_ = v.BindEnv("exchange_rate.base", "FX_BASE")
	_ = v.BindEnv("exchange_rate.quote", "FX_QUOTE")
	_ = v.BindEnv("exchange_rate.cache_ttl_seconds", "FX_CACHE_TTL_SECONDS")
	_ = v.BindEnv("exchange_rate.min_rate", "FX_MIN_RATE")
	_ = v.BindEnv("exchange_rate.max_rate", "FX_MAX_RATE")
	_ = v.BindEnv("exchange_rate.emergency_rate", "FX_EMERGENCY_RATE")
	_ = v.BindEnv("exchange_rate.provider_timeout_seconds", "FX_PROVIDER_TIMEOUT_SECONDS")
	_ = v.BindEnv("exchange_rate.stale_while_refresh", "FX_STALE_WHILE_REFRESH")
	_ = v.BindEnv("exchange_rate.min_refresh_interval_seconds", "FX_MIN_REFRESH_INTERVAL_SECONDS")
	_ = v.BindEnv("exchange_rate.yahoo_ticker", "FX_YAHOO_TICKER")
	_ = v.BindEnv("exchange_rate.yahoo_inverse_ticker", "FX_YAHOO_INVERSE_TICKER")
	_ = v.BindEnv("exchange_rate.exchange_rate_api_url", "FX_EXCHANGE_RATE_API_URL")
	_ = v.BindEnv("exchange_rate.frankfurter_url", "FX_FRANKFURTER_URL")

	// quotes
	_ = v.BindEnv("quotes.yahoo_base_url", "QUOTES_YAHOO_BASE_URL")
	_ = v.BindEnv("quotes.max_concurrency", "QUOTES_MAX_CONCURRENCY")
	_ = v.BindEnv("quotes.per_task_timeout_seconds", "QUOTES_PER_TASK_TIMEOUT_SECONDS")
	_ = v.BindEnv("quotes.round_deadline_seconds", "QUOTES_ROUND_DEADLINE_SECONDS")
	_ = v.BindEnv("quotes.max_symbols", "QUOTES_MAX_SYMBOLS")
	_ = v.BindEnv("quotes.domestic_currency", "QUOTES_DOMESTIC_CURRENCY")

	_ = v.BindEnv("scheduler.record_interval_seconds", "SCHEDULER_RECORD_INTERVAL_SECONDS")
}

func (c *AppConfig) normalize() {
	c.ExchangeRate.Base = strings.ToUpper(strings.TrimSpace(c.ExchangeRate.Base))
	c.ExchangeRate.Quote = strings.ToUpper(strings.TrimSpace(c.ExchangeRate.Quote))
	c.Quotes.DomesticCurrency = strings.ToUpper(strings.TrimSpace(c.Quotes.DomesticCurrency))
	if strings.TrimSpace(c.ExchangeRate.YahooTicker) == "" {
		c.ExchangeRate.YahooTicker = c.ExchangeRate.Base + c.ExchangeRate.Quote + "=X"
	}
	if strings.TrimSpace(c.ExchangeRate.YahooInverseTicker) == "" {
		c.ExchangeRate.YahooInverseTicker = c.ExchangeRate.Quote + c.ExchangeRate.Base + "=X"
	}
	if c.Scheduler.RecordIntervalSeconds <= 0 {
		// ticks only keep the cache warm, so half the ttl bounds how long it stays expired
		c.Scheduler.RecordIntervalSeconds = max(c.ExchangeRate.CacheTTLSeconds/2, 1)
	}
}

func (c *AppConfig) Validate() error {
	fx := c.ExchangeRate
	var errs []error
	if c.HTTPServer.Port == "" {
		errs = append(errs, errors.New("http_server.port is required"))
	}
	if len(fx.Base) != 3 || len(fx.Quote) != 3 || fx.Base == fx.Quote {
		errs = append(errs, fmt.Errorf("exchange_rate pair %q/%q must be two different 3-letter codes", fx.Base, fx.Quote))
	}
	if fx.CacheTTLSeconds <= 0 {
		errs = append(errs, errors.New("exchange_rate.cache_ttl_seconds must be positive"))
	}
	if fx.MinRate <= 0 || fx.MinRate >= fx.MaxRate {
		errs = append(errs, fmt.Errorf("exchange_rate band [%v, %v] is invalid", fx.MinRate, fx.MaxRate))
	}
	if fx.EmergencyRate < fx.MinRate || fx.EmergencyRate > fx.MaxRate {
		errs = append(errs, fmt.Errorf("exchange_rate.emergency_rate %v is outside [%v, %v]", fx.EmergencyRate, fx.MinRate, fx.MaxRate))
	}
	if fx.ProviderTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("exchange_rate.provider_timeout_seconds must be positive"))
	}
	if fx.MinRefreshSeconds < 0 {
		errs = append(errs, errors.New("exchange_rate.min_refresh_interval_seconds must not be negative"))
	}
	q := c.Quotes
	if q.MaxConcurrency <= 0 {
		errs = append(errs, errors.New("quotes.max_concurrency must be positive"))
	}
	if q.PerTaskTimeoutSeconds <= 0 || q.RoundDeadlineSeconds <= 0 {
		errs = append(errs, errors.New("quotes timeouts must be positive"))
	}
	if q.MaxSymbols <= 0 {
		errs = append(errs, errors.New("quotes.max_symbols must be positive"))
	}
	if len(q.DomesticCurrency) != 3 {
		errs = append(errs, fmt.Errorf("quotes.domestic_currency %q must be a 3-letter code", q.DomesticCurrency))
	}
	return errors.Join(errs...)
}
