package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func envBindings() []envBinding {
	return []envBinding{
		{"storage.driver", "EICR_STORAGE_DRIVER", oneOf("memory", "sqlite", "postgres")},
		{"storage.sqlite_path", "EICR_STORAGE_SQLITE_PATH", nil},
		{"storage.postgres_dsn", "EICR_STORAGE_POSTGRES_DSN", nil},
		{"archive.driver", "EICR_ARCHIVE_DRIVER", oneOf("fs", "memory", "s3")},
		{"archive.fs_root", "EICR_ARCHIVE_FS_ROOT", nil},
		{"archive.s3.bucket", "EICR_ARCHIVE_S3_BUCKET", nil},
		{"archive.s3.region", "EICR_ARCHIVE_S3_REGION", nil},
		{"archive.s3.endpoint", "EICR_ARCHIVE_S3_ENDPOINT", nil},
		{"archive.s3.path_style", "EICR_ARCHIVE_S3_PATH_STYLE", validateBool},
		{"archive.s3.prefix", "EICR_ARCHIVE_S3_PREFIX", nil},
		{"archive.s3.access_key_id", "EICR_ARCHIVE_S3_ACCESS_KEY_ID", nil},
		{"archive.s3.secret_access_key", "EICR_ARCHIVE_S3_SECRET_ACCESS_KEY", nil},
		{"session.debounce", "EICR_SESSION_DEBOUNCE", validatePositiveDuration},
		{"session.idle_ttl", "EICR_SESSION_IDLE_TTL", validatePositiveDuration},
		{"http.addr", "EICR_HTTP_ADDR", nil},
		{"http.shutdown_timeout", "EICR_HTTP_SHUTDOWN_TIMEOUT", validatePositiveDuration},
		{"log.level", "EICR_LOG_LEVEL", oneOf("debug", "info", "warn", "error")},
		{"log.format", "EICR_LOG_FORMAT", oneOf("json", "console")},
		{"events.kafka.brokers", "EICR_EVENTS_KAFKA_BROKERS", nil},
		{"events.kafka.topic", "EICR_EVENTS_KAFKA_TOPIC", nil},
		{"presets.file", "EICR_PRESETS_FILE", nil},
	}
}

// bindEnv binds every known variable and validates the ones that are set.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	var problems []string
	for _, b := range envBindings() {
		if err := v.BindEnv(b.ConfigKey, b.EnvVar); err != nil {
			problems = append(problems, fmt.Sprintf("bind %s: %v", b.EnvVar, err))
			continue
		}
		if b.Validate == nil {
			continue
		}
		if value := os.Getenv(b.EnvVar); value != "" {
			if err := b.Validate(value); err != nil {
				problems = append(problems, fmt.Sprintf("invalid %s value %q: %v", b.EnvVar, value, err))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func oneOf(allowed ...string) func(string) error {
	return func(value string) error {
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(value), a) {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}

func validateBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validatePositiveDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}
