package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultJWTSecret はJWT_SECRET未設定時の開発用シークレット。
// 本番ではJWT_SECRETの明示設定を前提とし、起動時に警告ログを出す。
const DefaultJWTSecret = "dev-jwt-secret"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Mongo（未設定の場合はインメモリストアで起動する）
	MongoURI string
	MongoDB  string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// 起動時に自動作成するオペレーター用アカウント（任意）
	AuthUser string
	AuthPass string

	// Rate Limit（req/min/user）
	RateLimitGeneral int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// すべての項目にデフォルト値があり、環境変数なしでも起動できる
// （その場合はインメモリストア + 開発用シークレットになる）。
func Load() (*Config, error) {
	cfg := &Config{
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnvString("MONGO_DB", "jobs"),
		JWTSecret:         getEnvString("JWT_SECRET", DefaultJWTSecret),
		TokenTTL:          getEnvDuration("TOKEN_TTL", 24*time.Hour),
		AuthUser:          os.Getenv("AUTH_USER"),
		AuthPass:          os.Getenv("AUTH_PASS"),
		RateLimitGeneral:  getEnvInt("RATE_LIMIT_GENERAL", 120),
		ServerPort:        getEnvString("SERVER_PORT", "3000"),
		CORSAllowedOrigin: getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
	}

	return cfg, nil
}

// UseMemoryStore はインメモリストアで起動すべきかを返す。
func (c *Config) UseMemoryStore() bool {
	return c.MongoURI == ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
