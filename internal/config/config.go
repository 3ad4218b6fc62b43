package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // For cache TTL

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort         string        // Application port
	DBDriver        string        // Database driver: mysql or postgres
	DatabaseURL     string        // Full DSN, overrides the DB_* parts when set
	DBUser          string        // Database user
	DBPassword      string        // Database password
	DBHost          string        // Database host
	DBPort          string        // Database port
	DBName          string        // Database name
	JWTSecret       string        // JWT secret key
	RedisAddr       string        // Redis server address
	RedisPass       string        // Redis password
	RedisDB         int           // Redis database number
	CacheTTL        time.Duration // Lifetime of cached reads
	IsProd          bool          // Is production environment
	LogLevel        string        // Logrus level name
	DefaultCurrency string        // Currency applied when a request omits one
	CORSOrigins     []string      // Allowed browser origins
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:         getEnv("APP_PORT", "8080"),                    // Application port
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "mysql")), // Database driver
		DatabaseURL:     os.Getenv("DATABASE_URL"),                     // Full DSN
		DBUser:          os.Getenv("DB_USER"),                          // Database user
		DBPassword:      os.Getenv("DB_PASSWORD"),                      // Database password
		DBHost:          getEnv("DB_HOST", "localhost"),                // Database host
		DBPort:          os.Getenv("DB_PORT"),                          // Database port
		DBName:          os.Getenv("DB_NAME"),                          // Database name
		JWTSecret:       os.Getenv("JWT_SECRET"),                       // JWT secret key
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),        // Redis server address
		RedisPass:       os.Getenv("REDIS_PASS"),                       // Redis password
		RedisDB:         redisDB,                                       // Redis database number
		CacheTTL:        getDuration("CACHE_TTL", 60*time.Second),      // Cache lifetime
		IsProd:          os.Getenv("IS_PROD") == "true",                // Is production environment
		LogLevel:        getEnv("LOG_LEVEL", "info"),                   // Log level
		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "NGN")),
		CORSOrigins:     splitList(os.Getenv("CORS_ORIGINS")),
	}
}

// DSN builds the connection string for the configured driver
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL // Explicit DSN wins
	}
	if c.DBDriver == "postgres" || c.DBDriver == "postgresql" {
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return "host=" + c.DBHost + " user=" + c.DBUser + " password=" + c.DBPassword +
			" dbname=" + c.DBName + " port=" + port + " sslmode=disable TimeZone=UTC"
	}
	port := c.DBPort
	if port == "" {
		port = "3306"
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true"
}

// getEnv returns the variable or a fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration parses a Go duration string, falling back on error
func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// splitList parses a comma separated list, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
