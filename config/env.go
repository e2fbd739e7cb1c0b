package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAppPort     = "8080"
	defaultAppEnv      = "local"
	defaultDataDriver  = "mongo"
	defaultMongoURI    = "mongodb://localhost:27017"
	defaultMongoDB     = "souq"
	defaultSQLDriver   = "sqlite"
	defaultSQLiteDSN   = "souq.db"
	defaultGatewayURL  = "https://uatcheckout.thawani.om/api/v1"
	defaultCheckoutURL = "https://uatcheckout.thawani.om"
)

// Files read by Load, in merge order. Later sources win; the process
// environment is applied last.
var (
	JSONPath = "config/app.json"
	YAMLPath = "config/app.yaml"
	EnvPath  = ".env"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges defaults, config files, .env and the process environment into
// the key/value store. Only the first call does any work.
func Load() error {
	loadOnce.Do(func() {
		loadErr = load(JSONPath, YAMLPath, EnvPath)
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":                   defaultAppEnv,
		"APP_PORT":                  defaultAppPort,
		"DATA_DRIVER":               defaultDataDriver,
		"MONGO_URI":                 defaultMongoURI,
		"MONGO_DATABASE":            defaultMongoDB,
		"DB_DRIVER":                 defaultSQLDriver,
		"DATABASE_DSN":              defaultSQLiteDSN,
		"THAWANI_API_URL":           defaultGatewayURL,
		"THAWANI_CHECKOUT_URL":      defaultCheckoutURL,
		"CHECKOUT_SUCCESS_URL":      "http://localhost:5173/success",
		"CHECKOUT_CANCEL_URL":       "http://localhost:5173/cancel",
		"GATEWAY_LOOKUP":            "reference",
		"GATEWAY_PAGE_SIZE":         "10",
		"GATEWAY_TIMEOUT":           "15s",
		"GATEWAY_MINOR_UNIT_FACTOR": "1000",
		"JWT_TTL":                   "24h",
		"CORS_ORIGINS":              "*",
		"RATE_LIMIT":                "200",
		"CACHE_TTL":                 "5m",
		"STORAGE_DISK":              "local",
		"STORAGE_LOCAL_ROOT":        "storage",
		"STORAGE_URL":               "http://localhost:8080/storage",
		"S3_REGION":                 "us-east-1",
		"UPLOAD_WORKERS":            "4",
		"KAFKA_TOPIC":               "order-status-updated",
	}
}

func load(jsonPath, yamlPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(jsonPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := mergeYAMLConfig(yamlPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := mergeDotEnv(envPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	mergeProcessEnv(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()
	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeRaw(raw, out)
	return nil
}

func mergeYAMLConfig(path string, out map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeRaw(raw, out)
	return nil
}

// mergeRaw copies scalar entries; nested objects are ignored.
func mergeRaw(raw map[string]any, out map[string]string) {
	for key, val := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		switch v := val.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case bool, int, int64, float64:
			out[k] = fmt.Sprint(v)
		}
	}
}

func mergeDotEnv(path string, out map[string]string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		return err
	}
	for k, v := range env {
		if key := strings.ToUpper(strings.TrimSpace(k)); key != "" {
			out[key] = strings.TrimSpace(v)
		}
	}
	return nil
}

// mergeProcessEnv overrides only keys the store already knows about, plus
// keys with a service prefix (S3_, KAFKA_, SEED_ ...), so unrelated
// environment noise stays out.
func mergeProcessEnv(out map[string]string) {
	for _, kv := range os.Environ() {
		idx := strings.IndexByte(kv, '=')
		if idx <= 0 {
			continue
		}
		key, val := kv[:idx], kv[idx+1:]
		_, known := out[key]
		if known || knownPrefix(key) {
			out[key] = val
		}
	}
}

func knownPrefix(key string) bool {
	for _, p := range []string{"S3_", "KAFKA_", "REDIS_", "THAWANI_", "JWT_", "LOG_", "MAX_", "SEED_"} {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}
	return fallback
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a key in the loaded store. Intended for tests and CLI flags.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}

func AppEnv() string {
	return Get("APP_ENV", defaultAppEnv)
}

func AppPort() string {
	return Get("APP_PORT", defaultAppPort)
}

// IsProduction reports whether APP_ENV names a production deployment.
func IsProduction() bool {
	switch strings.ToLower(AppEnv()) {
	case "production", "prod":
		return true
	}
	return false
}
