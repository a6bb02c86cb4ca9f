package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const DefaultAPIBaseURL = "http://localhost:8000"

// Credential backends
const (
	CredentialBackendFile   = "file"
	CredentialBackendRedis  = "redis"
	CredentialBackendMemory = "memory"
)

type Config struct {
	Env          string
	Debug        bool
	AppName      string
	Build        string
	RollbarToken string

	API struct {
		BaseURL string
		Timeout time.Duration
	}

	Credential struct {
		Backend  string
		Path     string
		RedisURL string
		RedisKey string
	}
}

// NewConfig reads the console configuration from the environment.
// `.env` and `.env.<env>` files in the working directory are loaded first when present.
func NewConfig() (*Config, error) {
	env := strings.ToUpper(CleanString(os.Getenv("ENV"))) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if err := loadDotEnv(".env", ".env."+strings.ToLower(env)); err != nil {
		return nil, err
	}

	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env != "PROD")
	v.SetDefault("app_name", "Masomo")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("api_url", "")
	v.SetDefault("api_timeout", 30*time.Second)
	v.SetDefault("credential_backend", CredentialBackendFile)
	v.SetDefault("credential_path", defaultCredentialPath())
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("credential_redis_key", "masomo:console:token")
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		AppName:      v.GetString("app_name"),
		Build:        v.GetString("build"),
		RollbarToken: v.GetString("rollbar_token"),
	}
	conf.API.BaseURL = ResolveBaseURL(v.GetString("api_url"))
	conf.API.Timeout = v.GetDuration("api_timeout")
	conf.Credential.Backend = strings.ToLower(CleanString(v.GetString("credential_backend")))
	conf.Credential.Path = v.GetString("credential_path")
	conf.Credential.RedisURL = v.GetString("redis_url")
	conf.Credential.RedisKey = v.GetString("credential_redis_key")

	switch conf.Credential.Backend {
	case CredentialBackendFile, CredentialBackendRedis, CredentialBackendMemory:
	default:
		return nil, errors.Errorf("config: unknown credential backend %q", conf.Credential.Backend)
	}
	return conf, nil
}

// ResolveBaseURL returns the first non-empty entry of a comma-separated list of endpoints,
// or DefaultAPIBaseURL when there is none.
func ResolveBaseURL(raw string) string {
	for _, entry := range strings.Split(raw, ",") {
		if entry = CleanString(entry); entry != "" {
			return strings.TrimSuffix(entry, "/")
		}
	}
	return DefaultAPIBaseURL
}

func loadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return errors.Wrapf(err, "config.godotenv(%s)", path)
			}
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "config.os.Stat(%s)", path)
		}
	}
	return nil
}

func defaultCredentialPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "masomo", "credential.json")
}
