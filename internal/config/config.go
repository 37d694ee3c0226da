package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr      string
	TLSAddr         string
	WebDir          string
	CacheDBPath     string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	VisionBaseURL   string
	VisionModel     string
	VisionMaxTokens int
	VisionTimeout   time.Duration
	TTSBaseURL      string
	TTSModel        string
	TTSVoice        string
	TTSTimeout      time.Duration
	MaxImageBytes   int64
	FetchTimeout    time.Duration
	RateLimit       int
	RateLimitWindow time.Duration
	StatsInterval   time.Duration
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
}

func Load() *Config {
	cfg := &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", ":8080"),
		TLSAddr:         getEnv("TLS_ADDR", ""),
		WebDir:          getEnv("WEB_DIR", "web"),
		CacheDBPath:     getEnv("CACHE_DB_PATH", "image_analysis.db"),
		AnthropicAPIKey: mustGetEnv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    mustGetEnv("OPENAI_API_KEY"),
		VisionBaseURL:   getEnv("VISION_BASE_URL", "https://api.anthropic.com"),
		VisionModel:     getEnv("VISION_MODEL", "claude-3-sonnet-20240229"),
		VisionMaxTokens: getEnvInt("VISION_MAX_TOKENS", 300),
		VisionTimeout:   getEnvDuration("VISION_TIMEOUT", 60*time.Second),
		TTSBaseURL:      getEnv("TTS_BASE_URL", "https://api.openai.com"),
		TTSModel:        getEnv("TTS_MODEL", "tts-1"),
		TTSVoice:        getEnv("TTS_VOICE", "alloy"),
		TTSTimeout:      getEnvDuration("TTS_TIMEOUT", 30*time.Second),
		MaxImageBytes:   getEnvInt64("MAX_IMAGE_BYTES", 10<<20),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		RateLimit:       getEnvInt("RATE_LIMIT", 60),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		StatsInterval:   getEnvDuration("STATS_INTERVAL", 30*time.Minute),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Region:        getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKey:     getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	return cfg
}

// ArchiveEnabled reports whether the optional S3 image archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic("Missing required environment variable: " + key)
	}
	return value
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
