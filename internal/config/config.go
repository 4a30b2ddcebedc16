package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of the API and the admin CLI.
type Config struct {
	Port             string
	GinMode          string
	DBDriver         string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSSLMode        string
	DBPath           string
	JWTSecret        []byte
	JWTTTL           time.Duration
	HeadOfficeBranch string
	CORSAllowOrigins []string
	LogFormat        string
	LogLevel         string
	EnablePprof      bool
}

const devJWTSecret = "default_super_secret_key" // Development fallback only

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "data/yayasan.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("HEAD_OFFICE_BRANCH", "Pusat")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173 http://127.0.0.1:5173")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENABLE_PPROF", false)

	v.AutomaticEnv()
	return v
}

// Load reads the optional dotenv file (CONFIG_FILE, default configs/.env)
// and then the environment. Environment variables win over the file.
func Load() (Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "configs/.env"
	}
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return Config{}, fmt.Errorf("config.godotenv(%s): %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config.os.Stat(%s): %w", path, err)
	}

	return fromViper(newViper())
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:             v.GetString("PORT"),
		GinMode:          v.GetString("GIN_MODE"),
		DBDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:           v.GetString("DB_HOST"),
		DBPort:           v.GetString("DB_PORT"),
		DBUser:           v.GetString("DB_USER"),
		DBPassword:       v.GetString("DB_PASSWORD"),
		DBName:           v.GetString("DB_NAME"),
		DBSSLMode:        v.GetString("DB_SSLMODE"),
		DBPath:           v.GetString("DB_PATH"),
		JWTTTL:           v.GetDuration("JWT_TTL"),
		HeadOfficeBranch: strings.TrimSpace(v.GetString("HEAD_OFFICE_BRANCH")),
		CORSAllowOrigins: strings.Fields(v.GetString("CORS_ALLOW_ORIGINS")),
		LogFormat:        v.GetString("LOG_FORMAT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		EnablePprof:      v.GetBool("ENABLE_PPROF"),
	}

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if cfg.GinMode == "release" {
			return Config{}, errors.New("JWT_SECRET environment variable is required in release mode")
		}
		secret = devJWTSecret
	}
	cfg.JWTSecret = []byte(secret)

	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 24 * time.Hour
	}

	return cfg, nil
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.DBPath
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}
