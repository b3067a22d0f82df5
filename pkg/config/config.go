package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type DB struct {
	Url              string        `envconfig:"URL"`
	MaxOpenConns     int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns     int           `envconfig:"MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime  time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
	OperationTimeout time.Duration `envconfig:"OPERATION_TIMEOUT" default:"10s"`
}

type Ledger struct {
	BaseCurrency string          `envconfig:"BASE_CURRENCY" default:"INR"`
	MaxAmount    decimal.Decimal `envconfig:"MAX_AMOUNT" default:"10000000"`
}

type Redis struct {
	URL          string        `envconfig:"URL"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"wallet:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

//revive:disable
type ExchangeRate struct {
	ApiKey      string        `envconfig:"API_KEY"`
	ApiUrl      string        `envconfig:"API_URL" default:"https://api.currencyapi.com/v3"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	CacheTTL    time.Duration `envconfig:"CACHE_TTL" default:"15m"`
	CachePrefix string        `envconfig:"CACHE_PREFIX" default:"exr:rate:"`
}

//revive:enable

type Kafka struct {
	Brokers       string        `envconfig:"BROKERS"`
	Topic         string        `envconfig:"TOPIC" default:"wallet.ledger.events"`
	RelayInterval time.Duration `envconfig:"RELAY_INTERVAL" default:"2s"`
	BatchSize     int           `envconfig:"BATCH_SIZE" default:"100"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[wallet]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env          string        `envconfig:"APP_ENV" default:"development"`
	Server       *Server       `envconfig:"SERVER"`
	Log          *Log          `envconfig:"LOG"`
	DB           *DB           `envconfig:"DATABASE"`
	Ledger       *Ledger       `envconfig:"LEDGER"`
	Redis        *Redis        `envconfig:"REDIS"`
	ExchangeRate *ExchangeRate `envconfig:"EXCHANGE_RATE"`
	Kafka        *Kafka        `envconfig:"KAFKA"`
	RateLimit    *RateLimit    `envconfig:"RATE_LIMIT"`
}
