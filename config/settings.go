package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Settings is the typed configuration built once at startup and handed to
// each component through its constructor.
type Settings struct {
	App      AppSettings
	Mongo    MongoSettings
	SQL      SQLSettings
	Redis    RedisSettings
	Gateway  GatewaySettings
	Auth     AuthSettings
	Storage  StorageSettings
	Kafka    KafkaSettings
	Uploads  UploadSettings
	LogMongo string // collection name; empty disables the Mongo log sink
}

type AppSettings struct {
	Env         string
	Port        string
	DataDriver  string // "mongo" | "memory"
	CORSOrigins []string
	RateLimit   int
}

type MongoSettings struct {
	URI      string
	Database string
}

type SQLSettings struct {
	Driver string // sqlite | postgres | mysql | sqlserver
	DSN    string
}

type RedisSettings struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// GatewaySettings configures the hosted checkout provider.
type GatewaySettings struct {
	BaseURL        string
	APIKey         string
	PublishableKey string
	CheckoutURL    string
	SuccessURL     string
	CancelURL      string
	Timeout        time.Duration
	Lookup         string // "reference" | "scan"
	PageSize       int
	MinorUnit      int64
}

type AuthSettings struct {
	Secret string
	TTL    time.Duration
}

type StorageSettings struct {
	Disk       string // "local" | "s3"
	LocalRoot  string
	LocalURL   string
	S3Bucket   string
	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string
	S3URL      string
}

type KafkaSettings struct {
	Brokers []string
	Topic   string
}

type UploadSettings struct {
	Workers int
}

// FromEnv loads the key/value store and maps it onto Settings. Parse errors
// are collected and returned together.
func FromEnv() (*Settings, error) {
	if err := Load(); err != nil {
		return nil, err
	}

	p := &parser{}
	s := &Settings{
		App: AppSettings{
			Env:         AppEnv(),
			Port:        AppPort(),
			DataDriver:  strings.ToLower(Get("DATA_DRIVER", defaultDataDriver)),
			CORSOrigins: splitList(Get("CORS_ORIGINS", "*")),
			RateLimit:   p.int("RATE_LIMIT"),
		},
		Mongo: MongoSettings{
			URI:      Get("MONGO_URI", defaultMongoURI),
			Database: Get("MONGO_DATABASE", defaultMongoDB),
		},
		SQL: SQLSettings{
			Driver: strings.ToLower(Get("DB_DRIVER", defaultSQLDriver)),
			DSN:    Get("DATABASE_DSN", defaultSQLiteDSN),
		},
		Redis: RedisSettings{
			Addr:     Get("REDIS_ADDR", ""),
			Password: Get("REDIS_PASSWORD", ""),
			TTL:      p.duration("CACHE_TTL"),
		},
		Gateway: GatewaySettings{
			BaseURL:        strings.TrimRight(Get("THAWANI_API_URL", defaultGatewayURL), "/"),
			APIKey:         Get("THAWANI_API_KEY", ""),
			PublishableKey: Get("THAWANI_PUBLISHABLE_KEY", ""),
			CheckoutURL:    strings.TrimRight(Get("THAWANI_CHECKOUT_URL", defaultCheckoutURL), "/"),
			SuccessURL:     Get("CHECKOUT_SUCCESS_URL", ""),
			CancelURL:      Get("CHECKOUT_CANCEL_URL", ""),
			Timeout:        p.duration("GATEWAY_TIMEOUT"),
			Lookup:         strings.ToLower(Get("GATEWAY_LOOKUP", "reference")),
			PageSize:       p.int("GATEWAY_PAGE_SIZE"),
			MinorUnit:      int64(p.int("GATEWAY_MINOR_UNIT_FACTOR")),
		},
		Auth: AuthSettings{
			Secret: Get("JWT_SECRET", ""),
			TTL:    p.duration("JWT_TTL"),
		},
		Storage: StorageSettings{
			Disk:       strings.ToLower(Get("STORAGE_DISK", "local")),
			LocalRoot:  Get("STORAGE_LOCAL_ROOT", "storage"),
			LocalURL:   strings.TrimRight(Get("STORAGE_URL", ""), "/"),
			S3Bucket:   Get("S3_BUCKET", ""),
			S3Region:   Get("S3_REGION", "us-east-1"),
			S3Key:      Get("S3_KEY", ""),
			S3Secret:   Get("S3_SECRET", ""),
			S3Endpoint: Get("S3_ENDPOINT", ""),
			S3URL:      strings.TrimRight(Get("S3_URL", ""), "/"),
		},
		Kafka: KafkaSettings{
			Brokers: splitList(Get("KAFKA_BROKERS", "")),
			Topic:   Get("KAFKA_TOPIC", "order-status-updated"),
		},
		Uploads:  UploadSettings{Workers: p.int("UPLOAD_WORKERS")},
		LogMongo: Get("LOG_MONGO_COLLECTION", ""),
	}

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	return s, nil
}

// Validate reports every missing or inconsistent setting at once so the
// process can refuse to start instead of failing on first use.
func (s *Settings) Validate() error {
	var errs []error
	need := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	need(s.App.Port != "", "APP_PORT is required")
	need(s.App.DataDriver == "mongo" || s.App.DataDriver == "memory",
		"DATA_DRIVER must be mongo or memory, got %q", s.App.DataDriver)
	if s.App.DataDriver == "mongo" {
		need(s.Mongo.URI != "", "MONGO_URI is required when DATA_DRIVER=mongo")
		need(s.Mongo.Database != "", "MONGO_DATABASE is required when DATA_DRIVER=mongo")
	}

	switch s.SQL.Driver {
	case "sqlite", "postgres", "mysql", "sqlserver":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", s.SQL.Driver))
	}
	need(s.SQL.DSN != "", "DATABASE_DSN is required")

	need(s.Gateway.BaseURL != "", "THAWANI_API_URL is required")
	need(s.Gateway.APIKey != "", "THAWANI_API_KEY is required")
	need(s.Gateway.PublishableKey != "", "THAWANI_PUBLISHABLE_KEY is required")
	need(s.Gateway.SuccessURL != "", "CHECKOUT_SUCCESS_URL is required")
	need(s.Gateway.CancelURL != "", "CHECKOUT_CANCEL_URL is required")
	need(s.Gateway.Lookup == "reference" || s.Gateway.Lookup == "scan",
		"GATEWAY_LOOKUP must be reference or scan, got %q", s.Gateway.Lookup)
	need(s.Gateway.PageSize > 0, "GATEWAY_PAGE_SIZE must be positive")
	need(s.Gateway.MinorUnit > 0, "GATEWAY_MINOR_UNIT_FACTOR must be positive")
	need(s.Gateway.Timeout > 0, "GATEWAY_TIMEOUT must be positive")

	need(s.Auth.Secret != "", "JWT_SECRET is required")
	need(s.Auth.TTL > 0, "JWT_TTL must be positive")

	switch s.Storage.Disk {
	case "local":
		need(s.Storage.LocalRoot != "", "STORAGE_LOCAL_ROOT is required for the local disk")
	case "s3":
		need(s.Storage.S3Bucket != "", "S3_BUCKET is required when STORAGE_DISK=s3")
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DISK %q is not supported", s.Storage.Disk))
	}

	need(s.Uploads.Workers > 0, "UPLOAD_WORKERS must be positive")
	return errors.Join(errs...)
}

type parser struct {
	errs []error
}

func (p *parser) int(key string) int {
	raw := Get(key, "")
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, raw))
	}
	return n
}

func (p *parser) duration(key string) time.Duration {
	raw := Get(key, "")
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, raw))
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
