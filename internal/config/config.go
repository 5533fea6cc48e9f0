// Package config defines the global configuration structure for ContestHub.
// Configuration is loaded once at process initialization and is immutable
// thereafter. It follows 12-Factor principles by strictly separating code
// from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// Any missing required value or invalid format causes the application to fail
// immediately on startup.
package config

import (
	"time"

	"contesthub/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for ContestHub. It is populated
// once during process initialization and never modified. Sub-components
// receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"contesthub"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Providers     ProviderConfig
	Playlists     PlaylistConfig
	Email         EmailConfig
	Notify        NotifyConfig
	Jobs          JobConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration for the query API.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// RedisConfig holds cache store connection parameters. The cache is an
// optimization layer; a missing or unreachable Redis degrades reads to
// cache misses rather than failing requests.
type RedisConfig struct {
	Addr     string       `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password SecretString `envconfig:"REDIS_PASSWORD"`
	DB       int          `envconfig:"REDIS_DB" default:"0"`
	PoolSize int          `envconfig:"REDIS_POOL_SIZE" default:"20"`
}

// ProviderConfig holds the contest-list endpoints for each platform.
// Overridable for tests and for provider API migrations.
type ProviderConfig struct {
	CodeforcesURL string        `envconfig:"CODEFORCES_CONTESTS_URL" default:"https://codeforces.com/api/contest.list" validate:"required,url"`
	CodeChefURL   string        `envconfig:"CODECHEF_CONTESTS_URL" default:"https://www.codechef.com/api/list/contests/all" validate:"required,url"`
	LeetCodeURL   string        `envconfig:"LEETCODE_GRAPHQL_URL" default:"https://leetcode.com/graphql" validate:"required,url"`
	Timeout       time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"15s"`
}

// PlaylistConfig holds the solution-video playlist identifiers per platform
// and the playlist provider credentials.
type PlaylistConfig struct {
	APIKey  SecretString `envconfig:"YOUTUBE_API_KEY"`
	BaseURL string       `envconfig:"YOUTUBE_API_BASE_URL" default:"https://www.googleapis.com/youtube/v3" validate:"required,url"`

	Codeforces string `envconfig:"PLAYLIST_CODEFORCES" default:"PLcXpkI9A-RZLUfBSNp-YQBCOezZKbDSgB"`
	CodeChef   string `envconfig:"PLAYLIST_CODECHEF" default:"PLcXpkI9A-RZIZ6lsE0KCcLWeKNoG45fYr"`
	LeetCode   string `envconfig:"PLAYLIST_LEETCODE" default:"PLcXpkI9A-RZI6FhydNz3JBt_-p_i25Cbr"`
}

// ByPlatform returns the playlist ID for each platform that has one
// configured. Platforms with an empty playlist ID are skipped by the matcher.
func (p PlaylistConfig) ByPlatform() map[types.Platform]string {
	out := make(map[types.Platform]string, 3)
	if p.Codeforces != "" {
		out[types.PlatformCodeforces] = p.Codeforces
	}
	if p.CodeChef != "" {
		out[types.PlatformCodeChef] = p.CodeChef
	}
	if p.LeetCode != "" {
		out[types.PlatformLeetCode] = p.LeetCode
	}
	return out
}

// EmailConfig holds email delivery provider credentials.
type EmailConfig struct {
	SendGridAPIKey SecretString `envconfig:"SENDGRID_API_KEY"`
	FromAddress    string       `envconfig:"EMAIL_FROM_ADDRESS" default:"notifications@contesthub.dev"`
	FromName       string       `envconfig:"EMAIL_FROM_NAME" default:"ContestHub"`
	Enabled        bool         `envconfig:"EMAIL_ENABLED" default:"true"`
}

// NotifyConfig controls the notification window computation. The "tomorrow"
// window is anchored to midnight in this timezone so the daily job behaves
// identically regardless of host timezone.
type NotifyConfig struct {
	Timezone string `envconfig:"NOTIFY_TIMEZONE" default:"UTC" validate:"required"`
}

// JobConfig holds the fixed intervals of the scheduled jobs. Overlapping runs
// are tolerated; every job is idempotent.
type JobConfig struct {
	IngestInterval    time.Duration `envconfig:"JOB_INGEST_INTERVAL" default:"6h"`
	SweepInterval     time.Duration `envconfig:"JOB_SWEEP_INTERVAL" default:"1h"`
	NotifyInterval    time.Duration `envconfig:"JOB_NOTIFY_INTERVAL" default:"24h"`
	SolutionsInterval time.Duration `envconfig:"JOB_SOLUTIONS_INTERVAL" default:"24h"`
	RunOnStart        bool          `envconfig:"JOB_RUN_ON_START" default:"false"`
}

// ObservabilityConfig holds telemetry settings. Metrics emission is
// best-effort and can be disabled entirely for local development.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"ContestHub"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
	AWSRegion       string `envconfig:"AWS_REGION" default:"us-east-1"`
}
