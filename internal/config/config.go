package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `env:"ENV" env-required:"true"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info" env-description:"logging level, debug, info, etc."`
	HttpServer HttpServer
	Database   Database
	Discord    Discord
	Verify     Verify
	Reconcile  Reconcile
	Oracle     Oracle
	Limiter    Limiter
	Auth       AuthConfig
	Cache      Cache
}

type HttpServer struct {
	Port        string        `env:"HTTP_PORT" env-default:"8080"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Database struct {
	Net                string        `env:"DB_NET" env-default:"tcp"`
	Server             string        `env:"DB_SERVER" env-required:"true"`
	DBName             string        `env:"DB_NAME" env-required:"true"`
	User               string        `env:"DB_USER" env-required:"true"`
	Password           string        `env:"DB_PASSWORD" env-required:"true"`
	TimeZone           string        `env:"DB_TIMEZONE"`
	Timeout            time.Duration `env:"DB_TIMEOUT" env-default:"2s"`
	MaxIdleConnections int           `env:"DB_MAX_IDLE_CONNECTIONS" env-default:"40"`
	MaxOpenConnections int           `env:"DB_MAX_OPEN_CONNECTIONS" env-default:"40"`
}

// Discord ids are snowflakes; cleanenv parses them as int64 so a
// non-numeric value fails start-up instead of surfacing later.
type Discord struct {
	Token             string `env:"DISCORD_TOKEN" env-required:"true"`
	GuildID           int64  `env:"DISCORD_GUILD_ID" env-required:"true"`
	VerifyChannelID   int64  `env:"DISCORD_VERIFY_CHANNEL_ID" env-required:"true"`
	AnnounceChannelID int64  `env:"DISCORD_ANNOUNCE_CHANNEL_ID" env-required:"true"`
	CommandPrefix     string `env:"DISCORD_COMMAND_PREFIX" env-default:"!"`
}

type Verify struct {
	Attempts     int           `env:"VERIFY_ATTEMPTS" env-default:"10"`
	PollInterval time.Duration `env:"VERIFY_POLL_INTERVAL" env-default:"30s"`
}

type Reconcile struct {
	Interval time.Duration `env:"RECONCILE_INTERVAL" env-default:"6h"`
}

type Oracle struct {
	CodeforcesBaseURL string        `env:"ORACLE_CODEFORCES_BASE_URL" env-default:"https://codeforces.com"`
	CodechefBaseURL   string        `env:"ORACLE_CODECHEF_BASE_URL" env-default:"https://www.codechef.com"`
	Timeout           time.Duration `env:"ORACLE_TIMEOUT" env-default:"30s"`
	RPS               int           `env:"ORACLE_RPS" env-default:"2"`
	Burst             int           `env:"ORACLE_BURST" env-default:"4"`
	CacheTTL          time.Duration `env:"ORACLE_CACHE_TTL" env-default:"10m"`
}

type Limiter struct {
	RPS   int           `env:"LIMITER_RPS" env-default:"10"`
	Burst int           `env:"LIMITER_BURST" env-default:"20"`
	TTL   time.Duration `env:"LIMITER_TTL" env-default:"10m"`
}

type AuthConfig struct {
	SigningKey     string        `env:"ADMIN_JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL time.Duration `env:"ADMIN_JWT_ACCESS_TOKEN_TTL" env-default:"1h"`
}

type Cache struct {
	Redis struct {
		Address  string `env:"REDIS_ADDR" env-required:"true" env-description:"redis host:port single instance"`
		Password string `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize int    `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
}

func MustLoad() *Config {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}

	return &cfg
}
