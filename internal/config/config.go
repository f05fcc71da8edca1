package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultTokenTTL      = 2 * time.Hour
	DefaultMaxAvatarSize = 5 << 20
)

type Config struct {
	Server struct {
		Host            string `json:"host"`
		Port            int    `json:"port"`
		ReadTimeoutSec  int    `json:"readTimeoutSec"`
		WriteTimeoutSec int    `json:"writeTimeoutSec"`
	} `json:"server"`
	Auth struct {
		JWTSecret  string `json:"jwtSecret"`
		ExpiresIn  string `json:"expiresIn"`
		BcryptCost int    `json:"bcryptCost"`
	} `json:"auth"`
	Database struct {
		Driver string `json:"driver"` // "postgres" or "sqlite"
		DSN    string `json:"dsn"`
	} `json:"database"`
	CORS struct {
		Origins []string `json:"origins"`
	} `json:"cors"`
	Log struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`
	Avatar struct {
		Endpoint      string `json:"endpoint"`
		Region        string `json:"region"`
		AccessKeyID   string `json:"accessKeyId"`
		SecretKey     string `json:"secretAccessKey"`
		Bucket        string `json:"bucket"`
		Folder        string `json:"folder"`
		PublicBaseURL string `json:"publicBaseUrl"`
		UsePathStyle  bool   `json:"usePathStyle"`
		MaxBytes      int64  `json:"maxBytes"`
	} `json:"avatar"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads the JSON config (optional), overlays .env and process
// environment, applies defaults and validates. The result is cached.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		// .env is optional
		_ = godotenv.Load()

		var c Config
		if path != "" {
			raw, err := os.ReadFile(path)
			switch {
			case err == nil:
				if err := json.Unmarshal(raw, &c); err != nil {
					cfgErr = fmt.Errorf("invalid config format: %w", err)
					return
				}
			case errors.Is(err, os.ErrNotExist):
				// environment only
			default:
				cfgErr = fmt.Errorf("failed to read config file: %w", err)
				return
			}
		}
		c.applyEnv(os.LookupEnv)
		c.applyDefaults()
		if err := c.Validate(); err != nil {
			cfgErr = err
			return
		}
		cfg = &c
	})
	return cfg, cfgErr
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("HOST", &c.Server.Host)
	if v, ok := lookup("PORT"); ok {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("JWT_EXPIRES_IN", &c.Auth.ExpiresIn)
	if v, ok := lookup("BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Auth.BcryptCost = n
		}
	}
	str("DB_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.DSN)
	if v, ok := lookup("CORS_ORIGIN"); ok && v != "" {
		c.CORS.Origins = splitList(v)
	}
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("S3_ENDPOINT", &c.Avatar.Endpoint)
	str("S3_REGION", &c.Avatar.Region)
	str("S3_ACCESS_KEY_ID", &c.Avatar.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &c.Avatar.SecretKey)
	str("S3_BUCKET", &c.Avatar.Bucket)
	str("AVATAR_FOLDER", &c.Avatar.Folder)
	str("AVATAR_PUBLIC_BASE_URL", &c.Avatar.PublicBaseURL)
	if v, ok := lookup("S3_USE_PATH_STYLE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Avatar.UsePathStyle = b
		}
	}
	if v, ok := lookup("AVATAR_MAX_BYTES"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Avatar.MaxBytes = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 15
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = 30
	}
	if c.Auth.ExpiresIn == "" {
		c.Auth.ExpiresIn = "2h"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if len(c.CORS.Origins) == 0 {
		c.CORS.Origins = []string{"http://localhost:3000"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Avatar.Region == "" {
		c.Avatar.Region = "us-east-1"
	}
	if c.Avatar.Folder == "" {
		c.Avatar.Folder = "avatars"
	}
	if c.Avatar.MaxBytes == 0 {
		c.Avatar.MaxBytes = DefaultMaxAvatarSize
	}
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("jwtSecret must be set in config or JWT_SECRET")
	}
	if _, err := parseTTL(c.Auth.ExpiresIn); err != nil {
		return fmt.Errorf("invalid token expiry %q: %w", c.Auth.ExpiresIn, err)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn must be set in config or DATABASE_URL")
	}
	return nil
}

// TokenTTL is the parsed token lifetime, falling back to DefaultTokenTTL.
func (c *Config) TokenTTL() time.Duration {
	d, err := parseTTL(c.Auth.ExpiresIn)
	if err != nil || d <= 0 {
		return DefaultTokenTTL
	}
	return d
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// parseTTL accepts Go durations ("90m", "2h"), day suffixes ("7d") and bare
// seconds ("3600").
func parseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
