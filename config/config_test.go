package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate restores the key/value store after the test.
func isolate(t *testing.T) {
	t.Helper()
	require.NoError(t, Load())

	mu.RLock()
	saved := make(map[string]string, len(values))
	for k, v := range values {
		saved[k] = v
	}
	mu.RUnlock()

	t.Cleanup(func() {
		mu.Lock()
		values = saved
		mu.Unlock()
	})
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMergeOrder(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	jsonPath := write(t, dir, "app.json", `{"app_port": 9000, "thawani_api_key": "from-json", "nested": {"x": 1}}`)
	yamlPath := write(t, dir, "app.yaml", "APP_PORT: \"9100\"\nDATA_DRIVER: memory\n")
	envPath := write(t, dir, ".env", "THAWANI_API_KEY=from-dotenv\nJWT_SECRET=dotenv-secret\n")

	t.Setenv("JWT_SECRET", "from-process")
	t.Setenv("SOUQ_UNRELATED_NOISE", "ignored")

	require.NoError(t, load(jsonPath, yamlPath, envPath))

	assert.Equal(t, "9100", Get("APP_PORT", ""))
	assert.Equal(t, "memory", Get("DATA_DRIVER", ""))
	assert.Equal(t, "from-dotenv", Get("THAWANI_API_KEY", ""))
	assert.Equal(t, "from-process", Get("JWT_SECRET", ""))
	assert.Equal(t, "", Get("SOUQ_UNRELATED_NOISE", ""))
	assert.Equal(t, "", Get("NESTED", ""))
}

func TestLoadMissingFilesKeepsDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	require.NoError(t, load(filepath.Join(dir, "a.json"), filepath.Join(dir, "a.yaml"), filepath.Join(dir, ".env")))
	assert.Equal(t, defaultGatewayURL, Get("THAWANI_API_URL", ""))
	assert.Equal(t, "fallback", Get("NOT_A_KEY", "fallback"))
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	bad := write(t, dir, "app.json", `{nope`)

	assert.Error(t, load(bad, filepath.Join(dir, "a.yaml"), filepath.Join(dir, ".env")))
}

func TestFromEnvValidSettings(t *testing.T) {
	isolate(t)
	Set("DATA_DRIVER", "memory")
	Set("THAWANI_API_KEY", "sk_test")
	Set("THAWANI_PUBLISHABLE_KEY", "pk_test")
	Set("JWT_SECRET", "secret")
	Set("KAFKA_BROKERS", "k1:9092, k2:9092")

	s, err := FromEnv()
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, int64(1000), s.Gateway.MinorUnit)
	assert.Equal(t, "reference", s.Gateway.Lookup)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, s.Kafka.Brokers)
	assert.Equal(t, 4, s.Uploads.Workers)
}

func TestFromEnvCollectsParseErrors(t *testing.T) {
	isolate(t)
	Set("GATEWAY_TIMEOUT", "soon")
	Set("UPLOAD_WORKERS", "many")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GATEWAY_TIMEOUT")
	assert.Contains(t, err.Error(), "UPLOAD_WORKERS")
}

func TestValidateReportsEveryProblem(t *testing.T) {
	s := &Settings{
		App:     AppSettings{Port: "8080", DataDriver: "postgres"},
		SQL:     SQLSettings{Driver: "oracle", DSN: "x"},
		Gateway: GatewaySettings{Lookup: "guess"},
		Storage: StorageSettings{Disk: "s3"},
	}

	err := s.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"DATA_DRIVER must be mongo or memory",
		`DB_DRIVER "oracle" is not supported`,
		"THAWANI_API_KEY is required",
		"GATEWAY_LOOKUP must be reference or scan",
		"JWT_SECRET is required",
		"S3_BUCKET is required",
		"UPLOAD_WORKERS must be positive",
	} {
		assert.Contains(t, err.Error(), want)
	}
}
