package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// BootstrapAdminSecret, when set, seeds an "admin" client on startup so the
	// first deployment can mint tokens without a manual database insert.
	BootstrapAdminSecret string `env:"BOOTSTRAP_ADMIN_SECRET"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Reward   RewardConfig
	Quota    QuotaConfig
	Reset    ResetConfig
	Activity ActivityConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=coupon_service"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type RewardConfig struct {
	URL             string        `env:"REWARD_URL"`
	GameID          string        `env:"REWARD_GAME_ID"`
	EventID         string        `env:"REWARD_EVENT_ID"`
	Timeout         time.Duration `env:"REWARD_TIMEOUT, default=10s"`
	DefaultCampaign string        `env:"REWARD_DEFAULT_CAMPAIGN, default=daily"`
}

// QuotaConfig carries the entitlement policy: ceilings plus the priority and
// deny identity sets (comma-separated). Read once at startup, never mutated.
type QuotaConfig struct {
	NormalMax   int      `env:"QUOTA_NORMAL_MAX,   default=5"`
	PriorityMax int      `env:"QUOTA_PRIORITY_MAX, default=20"`
	PriorityIDs []string `env:"PRIORITY_IDS"`
	BannedIDs   []string `env:"BANNED_IDS"`
}

type ResetConfig struct {
	Hour     int    `env:"RESET_HOUR,     default=10"`
	Minute   int    `env:"RESET_MINUTE,   default=10"`
	Timezone string `env:"RESET_TIMEZONE, default=Europe/Istanbul"`
}

type ActivityConfig struct {
	Workers int `env:"ACTIVITY_WORKERS, default=4"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
