package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the Taskify server.
type Config struct {
	LogLevel    string
	HTTPPort    string
	MetricsAddr string

	PostgresDSN  string
	RedisAddr    string
	KafkaBrokers string

	JWTSecret        string
	TokenTTL         time.Duration
	AdminInviteToken string
	LoginRateLimit   int
	LoginRateWindow  time.Duration

	OverdueSchedule string
	OTelEndpoint    string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:    v.GetString("log_level"),
		HTTPPort:    v.GetString("http_port"),
		MetricsAddr: v.GetString("metrics_addr"),

		PostgresDSN:  v.GetString("postgres_dsn"),
		RedisAddr:    v.GetString("redis_addr"),
		KafkaBrokers: v.GetString("kafka_brokers"),

		JWTSecret:        v.GetString("jwt_secret"),
		TokenTTL:         v.GetDuration("token_ttl"),
		AdminInviteToken: v.GetString("admin_invite_token"),
		LoginRateLimit:   v.GetInt("login_rate_limit"),
		LoginRateWindow:  v.GetDuration("login_rate_window"),

		OverdueSchedule: v.GetString("overdue_schedule"),
		OTelEndpoint:    v.GetString("otel_endpoint"),
	}
}
