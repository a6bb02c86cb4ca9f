package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "unset", raw: "", want: DefaultAPIBaseURL},
		{name: "blank", raw: "   ", want: DefaultAPIBaseURL},
		{name: "only commas", raw: " , ,", want: DefaultAPIBaseURL},
		{name: "single", raw: "https://api.masomo.cd", want: "https://api.masomo.cd"},
		{name: "first of list", raw: "https://a.test, https://b.test", want: "https://a.test"},
		{name: "skips empty entries", raw: " ,https://b.test", want: "https://b.test"},
		{name: "trailing slash", raw: "https://a.test/", want: "https://a.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveBaseURL(tt.raw))
		})
	}
}

func TestNewConfig(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("API_URL", "https://one.test,https://two.test")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("CREDENTIAL_BACKEND", "Memory")

	conf, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "DEV", conf.Env)
	assert.True(t, conf.Debug)
	assert.Equal(t, "Masomo", conf.AppName)
	assert.Equal(t, "https://one.test", conf.API.BaseURL)
	assert.Equal(t, 5*time.Second, conf.API.Timeout)
	assert.Equal(t, CredentialBackendMemory, conf.Credential.Backend)
	assert.Equal(t, "masomo:console:token", conf.Credential.RedisKey)
}

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "PROD")
	t.Setenv("API_URL", "")
	t.Setenv("CREDENTIAL_BACKEND", "")
	t.Setenv("DEBUG", "")

	conf, err := NewConfig()
	require.NoError(t, err)

	assert.False(t, conf.Debug)
	assert.Equal(t, DefaultAPIBaseURL, conf.API.BaseURL)
	assert.Equal(t, 30*time.Second, conf.API.Timeout)
	assert.Equal(t, CredentialBackendFile, conf.Credential.Backend)
	assert.Equal(t, "credential.json", filepath.Base(conf.Credential.Path))
}

func TestNewConfig_UnknownBackend(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("CREDENTIAL_BACKEND", "cookie")

	_, err := NewConfig()
	assert.EqualError(t, err, `config: unknown credential backend "cookie"`)
}

func TestNewConfig_DotEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.qa"), []byte("API_URL=https://qa.masomo.test\n"), 0o600))
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	t.Setenv("ENV", "qa")
	t.Setenv("CREDENTIAL_BACKEND", "")
	// godotenv does not override variables that are already set
	require.NoError(t, os.Unsetenv("API_URL"))
	defer os.Unsetenv("API_URL")

	conf, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "QA", conf.Env)
	assert.Equal(t, "https://qa.masomo.test", conf.API.BaseURL)
}
