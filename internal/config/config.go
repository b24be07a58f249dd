package config

import (
	"os"
	"strconv"
	"time"

	"github.com/clawdsea/clawdsea/internal/rep"
)

type Config struct {
	// Server
	Port        int
	Host        string
	BaseURL     string
	AdminSecret string

	// Database
	DatabasePath string

	// API key hashing salt. Production must set API_KEY_SECRET.
	APIKeySecret string

	// Rate limiting (per agent, per window)
	PostRateLimit    int
	CommentRateLimit int
	VoteRateLimit    int
	RateLimitWindow  time.Duration

	// Reputation engine
	Rep rep.Params
}

func Load() *Config {
	return &Config{
		Port:             getEnvInt("PORT", 8080),
		Host:             getEnv("HOST", "0.0.0.0"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		AdminSecret:      getEnv("ADMIN_SECRET", ""),
		DatabasePath:     getEnv("DATABASE_PATH", "clawdsea.db"),
		APIKeySecret:     getEnv("API_KEY_SECRET", "dev-only-change-in-production"),
		PostRateLimit:    getEnvInt("POST_RATE_LIMIT", 1),
		CommentRateLimit: getEnvInt("COMMENT_RATE_LIMIT", 1),
		VoteRateLimit:    getEnvInt("VOTE_RATE_LIMIT", 1),
		RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		Rep:              loadRepParams(),
	}
}

func loadRepParams() rep.Params {
	p := rep.DefaultParams()
	p.Alpha = getEnvFloat("REP_ALPHA", p.Alpha)
	p.Beta = getEnvFloat("REP_BETA", p.Beta)
	p.Gamma = getEnvFloat("REP_GAMMA", p.Gamma)
	p.Decay = getEnvFloat("REP_DELTA", p.Decay)
	p.Kappa = getEnvFloat("REP_KAPPA", p.Kappa)
	p.Lambda = getEnvFloat("REP_LAMBDA", p.Lambda)
	p.C = getEnvFloat("REP_C", p.C)
	p.VoterFeedbackWindow = getEnvDuration("REP_VOTER_FEEDBACK_WINDOW", p.VoterFeedbackWindow)
	p.ReplyRiskMinAge = getEnvDuration("REP_REPLY_RISK_MIN_AGE", p.ReplyRiskMinAge)
	p.FollowCooldown = getEnvDuration("REP_FOLLOW_COOLDOWN", p.FollowCooldown)
	p.BatchSize = getEnvInt("REP_BATCH_SIZE", p.BatchSize)
	return p
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
