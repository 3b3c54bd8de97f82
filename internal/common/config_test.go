package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GEMINI_API_KEY", "INDEXBOARD_GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(name, "")
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.Clients.Gemini.Model)
	assert.Equal(t, 30*time.Second, cfg.Clients.Gemini.GetTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Snapshot.GetDelay())
	assert.Equal(t, "Asia/Kolkata", cfg.Display.Timezone)
	assert.Empty(t, cfg.Validate())
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("INDEXBOARD_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestConfig_PortEnvOverride_IgnoresGarbage(t *testing.T) {
	t.Setenv("INDEXBOARD_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestConfig_GeminiKeyPriority(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"gemini wins", map[string]string{"GEMINI_API_KEY": "a", "INDEXBOARD_GEMINI_API_KEY": "b", "GOOGLE_API_KEY": "c"}, "a"},
		{"prefixed second", map[string]string{"INDEXBOARD_GEMINI_API_KEY": "b", "GOOGLE_API_KEY": "c"}, "b"},
		{"google fallback", map[string]string{"GOOGLE_API_KEY": "c"}, "c"},
		{"none keeps config", map[string]string{}, "from-file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearKeyEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := NewDefaultConfig()
			cfg.Clients.Gemini.APIKey = "from-file"
			applyEnvOverrides(cfg)

			assert.Equal(t, tt.want, cfg.Clients.Gemini.APIKey)
		})
	}
}

func TestLoadConfig_FilesMergeInOrder(t *testing.T) {
	clearKeyEnv(t)
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
environment = "production"

[server]
port = 7000

[clients.gemini]
model = "gemini-1.5-flash"
timeout = "10s"
`), 0o644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte(`
[server]
port = 7001

[snapshot]
delay = "0s"
`), 0o644))

	cfg, err := LoadConfig(base, filepath.Join(dir, "missing.toml"), override)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "gemini-1.5-flash", cfg.Clients.Gemini.Model)
	assert.Equal(t, 10*time.Second, cfg.Clients.Gemini.GetTimeout())
	assert.Equal(t, time.Duration(0), cfg.Snapshot.GetDelay())
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestConfig_GetTimeout_FallsBackOnBadValues(t *testing.T) {
	for _, v := range []string{"", "soon", "-5s", "0s"} {
		c := GeminiConfig{Timeout: v}
		assert.Equal(t, 30*time.Second, c.GetTimeout(), "timeout %q", v)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.Port = 0
	cfg.Clients.Gemini.Model = " "
	cfg.Display.Timezone = "Mars/Olympus"

	issues := cfg.Validate()
	assert.Len(t, issues, 3)
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, 0, "")
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	ApplyFlagOverrides(cfg, 4000, "127.0.0.1")
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestDisplayConfig_Location(t *testing.T) {
	d := DisplayConfig{Timezone: "Asia/Kolkata"}
	assert.Equal(t, "Asia/Kolkata", d.Location().String())

	d.Timezone = "Nowhere/Special"
	assert.Equal(t, time.UTC, d.Location())
}
