package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	GitHub    GitHubConfig
	RateLimit RateLimitConfig
	Content   ContentConfig
	Cache     CacheConfig
}

type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type GitHubConfig struct {
	Owner    string
	Repo     string
	Token    string
	Strategy string // "rest" or "graphql"
	// ContributorCap bounds how many distinct identities a single history
	// fetch may accumulate before stopping, to protect API quota.
	ContributorCap int
}

type RateLimitConfig struct {
	RequestsPerWindow int
	WindowSeconds     int
	// StorePath points the window store at a SQLite file. Empty means the
	// in-memory store.
	StorePath string
}

type ContentConfig struct {
	Root      string
	Extension string
}

type CacheConfig struct {
	TTLSeconds int
}

var AppConfig *Config

// Load loads configuration from .env file and environment variables
func Load() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Mode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 15),
		},
		GitHub: GitHubConfig{
			Owner:          getEnv("GITHUB_OWNER", "Grenish"),
			Repo:           getEnv("GITHUB_REPO", "oss-wiki"),
			Token:          getEnv("GITHUB_TOKEN", ""),
			Strategy:       getEnv("GITHUB_FETCH_STRATEGY", "graphql"),
			ContributorCap: getEnvAsInt("GITHUB_CONTRIBUTOR_CAP", 100),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvAsInt("GITHUB_RATE_LIMIT_PER_MINUTE", 10),
			WindowSeconds:     getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			StorePath:         getEnv("RATE_LIMIT_DB_PATH", ""),
		},
		Content: ContentConfig{
			Root:      getEnv("CONTENT_ROOT", "content/docs"),
			Extension: getEnv("CONTENT_EXTENSION", ".mdx"),
		},
		Cache: CacheConfig{
			TTLSeconds: getEnvAsInt("CONTRIBUTOR_CACHE_TTL_SECONDS", 3600),
		},
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
