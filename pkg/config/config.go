package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App   AppConfig
	DB    DBConfig
	JWT   JWTConfig
	HTTP  HTTPConfig
	SDI   SDIConfig
	Kafka KafkaConfig
	Redis RedisConfig
	Store StoreConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string // trace, debug, info, warn, error
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL    string
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrateOnStart bool // aplica las migraciones embebidas al arrancar
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN connection string con URL encoding de la contraseña.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SDIConfig transmisión de facturas al SdI.
type SDIConfig struct {
	Env            string // dev (gateway simulado) | test | prod
	GatewayURL     string
	GatewayAPIKey  string
	GatewayTimeout time.Duration
	SubmitTimeout  time.Duration // presupuesto total de un envío (reintentos incluidos)
	WebhookKeyHash string        // bcrypt de la API key del webhook de notificaciones

	MaxResends                int
	AutoResend                bool
	DefaultTransmissionFormat string
	DefaultVATNature          string

	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	BackoffMaxElapsed time.Duration
	BackoffMaxRetries int

	SweepInterval time.Duration
	SweepBatch    int
}

// KafkaConfig broker de eventos. Sin brokers el publicador y el consumidor quedan desactivados.
type KafkaConfig struct {
	Brokers            []string
	StatusTopic        string
	NotificationsTopic string
	DeadLetterTopic    string
	GroupID            string
}

// Enabled indica si hay brokers configurados.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// RedisConfig lock distribuido por intento. Sin Addr se usa el lock en proceso.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// StoreConfig backend de persistencia: postgres | memory.
type StoreConfig struct {
	Driver string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, SDI_MAX_RESENDS, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "gym-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL:    getString(v, "DATABASE_URL", ""),
			Host:           getString(v, "DB_HOST", "localhost"),
			Port:           getInt(v, "DB_PORT", 5432),
			User:           getString(v, "DB_USER", "postgres"),
			Password:       getString(v, "DB_PASSWORD", ""),
			DBName:         getString(v, "DB_NAME", "gym"),
			SSLMode:        getString(v, "DB_SSLMODE", "disable"),
			MigrateOnStart: getBool(v, "DB_MIGRATE_ON_START", true),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "gym-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		SDI: SDIConfig{
			Env:                       strings.ToLower(getString(v, "SDI_ENV", "dev")),
			GatewayURL:                getString(v, "SDI_GATEWAY_URL", ""),
			GatewayAPIKey:             getString(v, "SDI_GATEWAY_API_KEY", ""),
			GatewayTimeout:            getDuration(v, "SDI_GATEWAY_TIMEOUT", 30*time.Second),
			SubmitTimeout:             getDuration(v, "SDI_SUBMIT_TIMEOUT", 3*time.Minute),
			WebhookKeyHash:            getString(v, "SDI_WEBHOOK_KEY_HASH", ""),
			MaxResends:                getInt(v, "SDI_MAX_RESENDS", 3),
			AutoResend:                getBool(v, "SDI_AUTO_RESEND", false),
			DefaultTransmissionFormat: getString(v, "SDI_DEFAULT_TRANSMISSION_FORMAT", "FPR12"),
			DefaultVATNature:          getString(v, "SDI_DEFAULT_VAT_NATURE", "N2.2"),
			BackoffInitial:            getDuration(v, "SDI_BACKOFF_INITIAL", 500*time.Millisecond),
			BackoffMax:                getDuration(v, "SDI_BACKOFF_MAX", 10*time.Second),
			BackoffMaxElapsed:         getDuration(v, "SDI_BACKOFF_MAX_ELAPSED", 2*time.Minute),
			BackoffMaxRetries:         getInt(v, "SDI_BACKOFF_MAX_RETRIES", 5),
			SweepInterval:             getDuration(v, "SDI_SWEEP_INTERVAL", time.Minute),
			SweepBatch:                getInt(v, "SDI_SWEEP_BATCH", 200),
		},
		Kafka: KafkaConfig{
			Brokers:            getList(v, "KAFKA_BROKERS"),
			StatusTopic:        getString(v, "KAFKA_STATUS_TOPIC", "einvoice.status-changed"),
			NotificationsTopic: getString(v, "KAFKA_NOTIFICATIONS_TOPIC", "sdi.notifications"),
			DeadLetterTopic:    getString(v, "KAFKA_DEAD_LETTER_TOPIC", "sdi.notifications.dlq"),
			GroupID:            getString(v, "KAFKA_GROUP_ID", "gym-api-einvoicing"),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", ""),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			LockTTL:  getDuration(v, "REDIS_LOCK_TTL", 30*time.Second),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getString(v, "STORE_DRIVER", "postgres")),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: STORE_DRIVER %q no soportado (postgres | memory)", c.Store.Driver)
	}
	switch c.SDI.Env {
	case "dev", "test", "prod":
	default:
		return fmt.Errorf("config: SDI_ENV %q no soportado (dev | test | prod)", c.SDI.Env)
	}
	if c.SDI.Env != "dev" && c.SDI.GatewayURL == "" {
		return fmt.Errorf("config: SDI_GATEWAY_URL es obligatorio con SDI_ENV=%s", c.SDI.Env)
	}
	if c.SDI.MaxResends < 1 {
		return fmt.Errorf("config: SDI_MAX_RESENDS debe ser >= 1")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

// getDuration acepta "30s", "2m" o un número de segundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

// getList lista separada por comas.
func getList(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v.GetString(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
