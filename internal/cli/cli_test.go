package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/autocoding/internal/internalerr"
	"github.com/ppiankov/autocoding/internal/model"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	require.NoError(t, registerDefaults(v))
	return v
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report", "report"},
		{"case 12: final?", "case-12_-final_"},
		{`a/b\c`, "a_b_c"},
		{"", "document"},
		{"..", "document"},
		{strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}
}

func TestOutputName(t *testing.T) {
	used := make(map[string]int)
	assert.Equal(t, "report", outputName("/data/a/report.txt", used))
	assert.Equal(t, "report-2", outputName("/data/b/report.html", used))
	assert.Equal(t, "other", outputName("other", used))
	assert.Equal(t, "report-3", outputName("report", used))
}

func TestLoadConfig(t *testing.T) {
	t.Run("Should use defaults when nothing is configured", func(t *testing.T) {
		cfg, err := loadConfig(newViper(t))
		require.NoError(t, err)
		assert.Equal(t, model.DefaultConfig(), cfg)
	})

	t.Run("Should merge a config file over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
tagger:
  url: http://tagger.local:8080/tag
  timeout: 5s
cache:
  enabled: false
concurrency:
  workers: 8
rules:
  path: /etc/autocoding/rules.yaml
`), 0o644))

		v := newViper(t)
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := loadConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "http://tagger.local:8080/tag", cfg.Tagger.URL)
		assert.Equal(t, 5*time.Second, cfg.Tagger.Timeout)
		assert.False(t, cfg.Cache.Enabled)
		assert.Equal(t, 8, cfg.Concurrency.Workers)
		assert.Equal(t, "/etc/autocoding/rules.yaml", cfg.Rules.Path)

		// Untouched keys keep their defaults
		assert.Equal(t, model.DefaultConfig().Tagger.MaxRetries, cfg.Tagger.MaxRetries)
		assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	})

	t.Run("Should read AUTOCODING_ environment variables", func(t *testing.T) {
		t.Setenv("AUTOCODING_TAGGER_URL", "http://env:9000/tag")
		t.Setenv("AUTOCODING_CONCURRENCY_WORKERS", "9")

		v := newViper(t)
		v.SetEnvPrefix("AUTOCODING")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		cfg, err := loadConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "http://env:9000/tag", cfg.Tagger.URL)
		assert.Equal(t, 9, cfg.Concurrency.Workers)
	})

	t.Run("Should require a tagger URL", func(t *testing.T) {
		v := newViper(t)
		v.Set("tagger.url", "")

		_, err := loadConfig(v)
		require.Error(t, err)
		assert.True(t, internalerr.IsConfiguration(err))
		assert.Contains(t, err.Error(), "tagger.url")
	})
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# AutoCoding Configuration File")
	assert.Contains(t, string(data), "autocoding rules check")

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig().Tagger.URL, cfg.Tagger.URL)
	assert.Equal(t, model.DefaultConfig().Tagger.Timeout, cfg.Tagger.Timeout)

	err = writeDefaultConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCheckRules(t *testing.T) {
	t.Run("Should report the example rules as valid", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, checkRules(&out, filepath.Join("..", "..", "examples", "histopathology.yaml")))
		assert.Contains(t, out.String(), "✓ Rules valid")
		assert.Contains(t, out.String(), "histopathology")
		assert.Contains(t, out.String(), "Macroscopic, Microscopic, Diagnosis")
	})

	t.Run("Should reject an unknown solution", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("solution:\n  name: cytology\n"), 0o644))

		var out bytes.Buffer
		err := checkRules(&out, path)
		require.Error(t, err)
		assert.ErrorIs(t, err, internalerr.ErrUnknownSolution)
		assert.Empty(t, out.String())
	})

	t.Run("Should reject a bad pattern", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("preNegation:\n  - pattern: \"(no\"\n"), 0o644))

		err := checkRules(&bytes.Buffer{}, path)
		require.Error(t, err)
		assert.True(t, internalerr.IsConfiguration(err))
	})
}
