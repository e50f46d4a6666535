package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/arklim/campus-records/internal/core/port"
)

const envPrefix = "RECORDS"

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Storage   StorageSettings   `mapstructure:"storage"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Auth      AuthSettings      `mapstructure:"auth"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	GRPC      GRPCSettings      `mapstructure:"grpc"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Argon2    Argon2Settings    `mapstructure:"argon2"`
	Records   RecordsSettings   `mapstructure:"records"`
	Bootstrap BootstrapSettings `mapstructure:"bootstrap"`
}

type AppSettings struct {
	Name           string   `mapstructure:"name"`
	Env            string   `mapstructure:"env"`
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageSettings selects the record store backend.
type StorageSettings struct {
	Driver string `mapstructure:"driver"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	MigrateOnStart    bool          `mapstructure:"migrate_on_start"`
}

// DSN renders the connection string understood by pgx.
func (p PostgresSettings) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	TLSEnabled      bool   `mapstructure:"tls_enabled"`
	SessionPrefix   string `mapstructure:"session_prefix"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures the record change producer. RequiredAcks is one
// of none, local or all.
type KafkaSettings struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	ClientID     string   `mapstructure:"client_id"`
	RecordTopic  string   `mapstructure:"record_topic"`
	RequiredAcks string   `mapstructure:"required_acks"`
}

// AuthSettings configures login sessions.
type AuthSettings struct {
	SessionSecret   string        `mapstructure:"session_secret"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	CookieName      string        `mapstructure:"cookie_name"`
	CookieSecure    bool          `mapstructure:"cookie_secure"`
	EnforceStrength bool          `mapstructure:"enforce_password_strength"`
}

// GRPCSettings configures the gRPC health listener.
type GRPCSettings struct {
	Enabled        bool          `mapstructure:"enabled"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	HealthInterval time.Duration `mapstructure:"health_interval"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
	Enabled      bool    `mapstructure:"enabled"`
}

// RateLimitSettings configures the sliding windows for login attempts and
// authenticated API calls. A zero PrincipalMaxRequests disables the latter.
type RateLimitSettings struct {
	WindowDuration       time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts     int           `mapstructure:"login_max_attempts"`
	PrincipalMaxRequests int           `mapstructure:"principal_max_requests"`
}

// Argon2Settings configures Argon2id password hashing parameters
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// Params converts the settings into hasher parameters.
func (a Argon2Settings) Params() port.Argon2Params {
	return port.Argon2Params{
		Memory:      a.Memory,
		Iterations:  a.Iterations,
		Parallelism: a.Parallelism,
		SaltLength:  a.SaltLength,
		KeyLength:   a.KeyLength,
	}
}

// RecordsSettings tunes record lifecycle behaviour.
type RecordsSettings struct {
	// CascadeOwnerDelete removes the owning principal together with a deleted
	// student or teacher record unless the request overrides it.
	CascadeOwnerDelete bool `mapstructure:"cascade_owner_delete"`
}

// BootstrapSettings describes the accounts seeded at start-up.
type BootstrapSettings struct {
	Enabled bool            `mapstructure:"enabled"`
	Teacher BootstrapRecord `mapstructure:"teacher"`
	Student BootstrapRecord `mapstructure:"student"`
}

// BootstrapRecord is one seeded principal and its owned record.
type BootstrapRecord struct {
	Identifier string `mapstructure:"identifier"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	Email      string `mapstructure:"email"`
	// UniqueKey is the roll number for students and the employee id for teachers.
	UniqueKey string `mapstructure:"unique_key"`
}

// Validate rejects combinations the service cannot start with.
func (c *AppConfig) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.Storage.Driver)
	}
	if len(c.Auth.SessionSecret) < 32 {
		return fmt.Errorf("auth.session_secret must be at least 32 bytes")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if c.RateLimit.LoginMaxAttempts <= 0 || c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("rate_limit window and login attempts must be positive")
	}
	if c.Kafka.Enabled && strings.TrimSpace(c.Kafka.RecordTopic) == "" {
		return fmt.Errorf("kafka.record_topic is required when kafka is enabled")
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.allowed_origins",
		"storage.driver",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"postgres.migrate_on_start",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.session_prefix",
		"redis.rate_limit_prefix",
		"kafka.enabled",
		"kafka.brokers",
		"kafka.client_id",
		"kafka.record_topic",
		"kafka.required_acks",
		"auth.session_secret",
		"auth.session_ttl",
		"auth.cookie_name",
		"auth.cookie_secure",
		"auth.enforce_password_strength",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"telemetry.enabled",
		"grpc.enabled",
		"grpc.host",
		"grpc.port",
		"grpc.health_interval",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.principal_max_requests",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
		"records.cascade_owner_delete",
		"bootstrap.enabled",
		"bootstrap.teacher.identifier",
		"bootstrap.teacher.password",
		"bootstrap.teacher.name",
		"bootstrap.teacher.email",
		"bootstrap.teacher.unique_key",
		"bootstrap.student.identifier",
		"bootstrap.student.password",
		"bootstrap.student.name",
		"bootstrap.student.email",
		"bootstrap.student.unique_key",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "campus-records")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("storage.driver", StorageDriverPostgres)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "records")
	v.SetDefault("postgres.password", "records_password")
	v.SetDefault("postgres.database", "records")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")
	v.SetDefault("postgres.migrate_on_start", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.session_prefix", "records:session")
	v.SetDefault("redis.rate_limit_prefix", "records:ratelimit")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.client_id", "campus-records")
	v.SetDefault("kafka.record_topic", "records.changes")
	v.SetDefault("kafka.required_acks", "local")

	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.session_ttl", "8h")
	v.SetDefault("auth.cookie_name", "records_session")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.enforce_password_strength", true)

	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "campus-records")
	v.SetDefault("telemetry.sampling_rate", 1.0)
	v.SetDefault("telemetry.enabled", false)

	v.SetDefault("grpc.enabled", false)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 9090)
	v.SetDefault("grpc.health_interval", "15s")

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)
	v.SetDefault("rate_limit.principal_max_requests", 300)

	v.SetDefault("argon2.memory", 65536) // 64 MB
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)

	v.SetDefault("records.cascade_owner_delete", true)

	v.SetDefault("bootstrap.enabled", true)
	v.SetDefault("bootstrap.teacher.identifier", "teacher")
	v.SetDefault("bootstrap.teacher.password", "teacher123")
	v.SetDefault("bootstrap.teacher.name", "Default Teacher")
	v.SetDefault("bootstrap.teacher.email", "teacher@campus.local")
	v.SetDefault("bootstrap.teacher.unique_key", "EMP-0001")
	v.SetDefault("bootstrap.student.identifier", "student")
	v.SetDefault("bootstrap.student.password", "student123")
	v.SetDefault("bootstrap.student.name", "Default Student")
	v.SetDefault("bootstrap.student.email", "student@campus.local")
	v.SetDefault("bootstrap.student.unique_key", "ROLL-0001")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envPrefix+"_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
