package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks cross-field constraints and normalises driver names.
func (c *Config) Validate() error {
	var errs []error
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres":
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	c.Archive.Driver = strings.ToLower(strings.TrimSpace(c.Archive.Driver))
	switch c.Archive.Driver {
	case "fs", "memory":
	case "s3":
		if strings.TrimSpace(c.Archive.S3.Bucket) == "" {
			errs = append(errs, errors.New("archive.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown archive.driver %q", c.Archive.Driver))
	}
	if c.Session.Debounce <= 0 {
		errs = append(errs, errors.New("session.debounce must be positive"))
	}
	if c.Session.IdleTTL <= 0 {
		errs = append(errs, errors.New("session.idle_ttl must be positive"))
	}
	if c.Events.Kafka.Enabled() && strings.TrimSpace(c.Events.Kafka.Topic) == "" {
		errs = append(errs, errors.New("events.kafka.topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}
