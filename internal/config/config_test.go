package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://0.0.0.0:5000/", cfg.APIURL)
	assert.Equal(t, "predict/", cfg.Endpoint)
	assert.Equal(t, 8000, cfg.UIPort)
	assert.Equal(t, "0.0.0.0:8000", cfg.UIAddr())
	assert.Equal(t, time.Second, cfg.Retry.InitialInterval)
	assert.Equal(t, 5*time.Minute, cfg.Retry.MaxElapsed)
	assert.Equal(t, "ModelPredictionResponse", cfg.OutputDefinition)
	assert.Equal(t, "http://0.0.0.0:5000/swagger.json", cfg.SchemaLocation())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inferform.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://models.local:5000/
ui_port: 9000
retry:
  max_elapsed: 30s
log:
  level: debug
`), 0o600))
	t.Setenv("INFERFORM_UI_PORT", "9100")
	t.Setenv("INFERFORM_RETRY_MAX_ELAPSED", "10s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://models.local:5000/", cfg.APIURL)
	assert.Equal(t, 9100, cfg.UIPort)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxElapsed)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FlagsOverride(t *testing.T) {
	chdir(t, t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-url", "", "")
	flags.Int("ui-port", 0, "")
	flags.Duration("retry-max-elapsed", 0, "")
	flags.Bool("unrelated", false, "")
	require.NoError(t, flags.Parse([]string{"--api-url=https://svc.example/", "--retry-max-elapsed=2s"}))

	loader := NewLoader()
	require.NoError(t, loader.BindFlags(flags))
	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://svc.example/", cfg.APIURL)
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxElapsed)
	assert.Equal(t, 8000, cfg.UIPort, "unchanged flags keep the default")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inferform.yaml"), []byte("ui_port: 9000\nendpoint: predict/\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"INFERFORM_UI_PORT=9200\nINFERFORM_RETRY_INITIAL_INTERVAL=250ms\nUNRELATED=1\n"), 0o600))
	t.Setenv("INFERFORM_MAX_ARTIFACTS", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.UIPort, "dotenv overrides the config file")
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialInterval)
	assert.Equal(t, 3, cfg.MaxArtifacts)
	assert.Equal(t, 5*time.Minute, cfg.Retry.MaxElapsed)
}

func TestLoad_ExplicitDotEnvMustExist(t *testing.T) {
	chdir(t, t.TempDir())

	loader := NewLoader()
	loader.SetDotEnv("missing.env")
	_, err := loader.Load("")
	require.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("INFERFORM_API_URL", "ftp://nope")
	_, err := Load("")
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSchemaLocation(t *testing.T) {
	cfg := Config{APIURL: "http://svc:5000", SchemaPath: "/swagger.json"}
	assert.Equal(t, "http://svc:5000/swagger.json", cfg.SchemaLocation())

	cfg.SchemaPath = "https://elsewhere/openapi.yaml"
	assert.Equal(t, "https://elsewhere/openapi.yaml", cfg.SchemaLocation())

	local := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(local, []byte("{}"), 0o600))
	cfg.SchemaPath = local
	assert.Equal(t, local, cfg.SchemaLocation())
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
