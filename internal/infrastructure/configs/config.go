package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/meetflow/chat-relay/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Relay       RelayConfig       `koanf:"relay"`
	Uploads     UploadsConfig     `koanf:"uploads"`
	Logger      LoggerConfig      `koanf:"logger"`
	Tracing     TracingConfig     `koanf:"tracing"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	AllowedHeaders []string      `koanf:"allowed_headers"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int           `koanf:"requestsPerTimeFrame"`
	TimeFrame            time.Duration `koanf:"timeFrame"`
}

type RelayConfig struct {
	// ClientBuffer is the per-connection outbound queue; deliveries to a
	// full queue are dropped rather than blocking the broadcast.
	ClientBuffer    int           `koanf:"client_buffer"`
	DispatchBuffer  int           `koanf:"dispatch_buffer"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	PollWait        time.Duration `koanf:"poll_wait"`
	PollSessionTTL  time.Duration `koanf:"poll_session_ttl"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

type UploadsConfig struct {
	Dir           string `koanf:"dir"`
	MaxImageBytes int64  `koanf:"max_image_bytes"`
	MaxVideoBytes int64  `koanf:"max_video_bytes"`
	MaxOtherBytes int64  `koanf:"max_other_bytes"`
}

type LoggerConfig struct {
	Level    string `koanf:"level"`
	Encoding string `koanf:"encoding"`
	FilePath string `koanf:"file_path"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Environment string `koanf:"environment"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load from YAML file if it exists
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// Only return error if file was explicitly provided but failed to load
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply defaults and environment variable overrides
	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	// HTTP defaults
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})
	setDefault(k, "http.allowed_headers", []string{"Content-Type", "Authorization", "X-User-Id", "X-User-Name"})

	// Rate limiter defaults
	setDefault(k, "rateLimiter.requestsPerTimeFrame", 50)
	setDefault(k, "rateLimiter.timeFrame", 5*time.Second)

	// Relay defaults
	setDefault(k, "relay.client_buffer", 64)
	setDefault(k, "relay.dispatch_buffer", 256)
	setDefault(k, "relay.write_timeout", 10*time.Second)
	setDefault(k, "relay.poll_wait", 25*time.Second)
	setDefault(k, "relay.poll_session_ttl", 2*time.Minute)
	setDefault(k, "relay.allowed_origins", []string{"*"})

	// Upload defaults, mirroring the meeting file router caps
	setDefault(k, "uploads.dir", "./uploads")
	setDefault(k, "uploads.max_image_bytes", int64(4<<20))
	setDefault(k, "uploads.max_video_bytes", int64(16<<20))
	setDefault(k, "uploads.max_other_bytes", int64(4<<20))

	// Logger defaults
	setDefault(k, "logger.level", "info")
	setDefault(k, "logger.encoding", "json")
	setDefault(k, "logger.file_path", "")

	// Tracing defaults
	setDefault(k, "tracing.enabled", false)
	setDefault(k, "tracing.endpoint", "http://jaeger:4318")
	setDefault(k, "tracing.environment", "development")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if requests := env.GetInt("RATE_LIMIT_REQUESTS_PER_TIMEFRAME", 0); requests > 0 {
		k.Set("rateLimiter.requestsPerTimeFrame", requests)
	}
	if frame := env.GetInt("RATE_LIMIT_TIMEFRAME_SECONDS", 0); frame > 0 {
		k.Set("rateLimiter.timeFrame", time.Duration(frame)*time.Second)
	}

	if buf := env.GetInt("RELAY_CLIENT_BUFFER", 0); buf > 0 {
		k.Set("relay.client_buffer", buf)
	}
	if buf := env.GetInt("RELAY_DISPATCH_BUFFER", 0); buf > 0 {
		k.Set("relay.dispatch_buffer", buf)
	}
	if wait := env.GetInt("RELAY_POLL_WAIT_SECONDS", 0); wait > 0 {
		k.Set("relay.poll_wait", time.Duration(wait)*time.Second)
	}

	if dir := env.GetString("UPLOADS_DIR", ""); dir != "" {
		k.Set("uploads.dir", dir)
	}

	if level := env.GetString("LOGGER_LEVEL", ""); level != "" {
		k.Set("logger.level", level)
	}
	if filePath := env.GetString("LOGGER_FILE_PATH", ""); filePath != "" {
		k.Set("logger.file_path", filePath)
	}

	if env.GetBool("TRACING_ENABLED", false) {
		k.Set("tracing.enabled", true)
	}
	if endpoint := env.GetString("TRACING_ENDPOINT", ""); endpoint != "" {
		k.Set("tracing.endpoint", endpoint)
	}
}

func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
