package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64

	// Uploads
	UploadFolder      string
	AllowedExtensions []string
	PolicyPath        string
	TerminologyPath   string
	DLPRulesPath      string

	// Database
	DatabaseURL      string
	DBMaxOpenConns   int
	DBMaxIdleConns   int
	DBConnectTimeout time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Kafka
	KafkaBrokers   []string
	KafkaGroupID   string
	ClaimsTopic    string
	ClaimsDLQTopic string

	// LLM
	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration
	LLMRetries   int

	// OCR
	OCRLanguage    string
	TessdataPrefix string

	// AWS
	DocumentBucket  string
	ReviewQueueName string

	// Reviewer auth
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTTTL      time.Duration

	RateLimitRPS   int
	RateLimitBurst int
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("PORT", "5000"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 60*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 5*time.Minute),
		MaxUploadBytes: int64(getIntEnv("MAX_UPLOAD_BYTES", 16*1024*1024)),

		UploadFolder:      getEnv("UPLOAD_FOLDER", "uploads"),
		AllowedExtensions: getListEnv("ALLOWED_EXTENSIONS", []string{"pdf", "jpg", "jpeg", "png", "gif", "bmp", "txt"}),
		PolicyPath:        getEnv("POLICY_PATH", "policy.json"),
		TerminologyPath:   getEnv("TERMINOLOGY_PATH", ""),
		DLPRulesPath:      getEnv("DLP_RULES_PATH", ""),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 1),
		DBConnectTimeout: getDuration("DB_CONNECT_TIMEOUT", 10*time.Second),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheTTL:      getDuration("CACHE_TTL", 15*time.Minute),

		KafkaBrokers:   getListEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:   getEnv("KAFKA_GROUP_ID", "claims-ledger"),
		ClaimsTopic:    getEnv("CLAIMS_TOPIC", "claims.adjudicated"),
		ClaimsDLQTopic: getEnv("CLAIMS_DLQ_TOPIC", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMTimeout:   getDuration("LLM_TIMEOUT", 60*time.Second),
		LLMRetries:   getIntEnv("LLM_RETRIES", 3),

		OCRLanguage:    getEnv("OCR_LANGUAGE", "eng"),
		TessdataPrefix: getEnv("TESSDATA_PREFIX", ""),

		DocumentBucket:  getEnv("DOCUMENT_BUCKET", ""),
		ReviewQueueName: getEnv("REVIEW_QUEUE_NAME", ""),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "claimwise"),
		JWTAudience: getEnv("JWT_AUDIENCE", "claims-api"),
		JWTTTL:      getDuration("JWT_TTL", 8*time.Hour),

		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 40),
	}
}

// ListenAddr is the address the HTTP service binds. Hosting platforms route
// traffic to 0.0.0.0:$PORT, so the host only changes when SERVER_HOST is set.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ServerHost, c.ServerPort)
}

func (c *Config) AllowedExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.AllowedExtensions))
	for _, ext := range c.AllowedExtensions {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	return set
}

// PostgresDSN returns DATABASE_URL with sslmode=require appended when the URL
// does not choose a mode itself.
func (c *Config) PostgresDSN() string {
	dsn := c.DatabaseURL
	if dsn == "" || strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + "sslmode=require"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
