// Package config loads settings for the bunker front ends from an optional
// YAML file, with environment variables (including a .env file) taking
// precedence.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/studzonetools/bunker/internal/studzone"
)

type Config struct {
	PortalURL         string  `yaml:"portal_url"`
	Threshold         float64 `yaml:"threshold"`
	HTTPAddr          string  `yaml:"http_addr"`
	SessionTTLMinutes int     `yaml:"session_ttl_minutes"`
	JWTSecret         string  `yaml:"jwt_secret"`
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Load reads path if it exists, then applies BUNKER_* environment
// overrides. A missing file is fine; defaults cover everything except the
// JWT secret, which falls back to a random per-process value (sessions are
// in-memory anyway, so they do not outlive the process).
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		PortalURL:         studzone.DefaultBaseURL,
		Threshold:         75,
		HTTPAddr:          ":8080",
		SessionTTLMinutes: 45,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if v := os.Getenv("BUNKER_PORTAL_URL"); v != "" {
		cfg.PortalURL = v
	}
	if v := os.Getenv("BUNKER_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("BUNKER_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: BUNKER_THRESHOLD %q: %w", v, err)
		}
		cfg.Threshold = f
	}
	if v := os.Getenv("BUNKER_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if cfg.JWTSecret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return Config{}, fmt.Errorf("config: generate session secret: %w", err)
		}
		cfg.JWTSecret = hex.EncodeToString(buf)
	}
	return cfg, nil
}
