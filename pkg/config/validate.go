package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msg := "configuration validation failed:\n"
	for _, err := range e {
		msg += fmt.Sprintf("  - %s\n", err.Error())
	}
	return msg
}

var validPlugins = map[string]bool{
	"ultimate-member": true,
	"ultimatemember":  true,
	"um":              true,
	"buddypress":      true,
	"bp":              true,
}

var validDrivers = map[string]bool{"mysql": true, "postgres": true, "sqlite": true}

var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	var errs ValidationErrors

	// Validate source configuration
	if !validDrivers[c.Source.Driver] {
		errs = append(errs, ValidationError{
			Field:   "source.driver",
			Message: "must be one of: mysql, postgres, sqlite",
		})
	}

	if c.Source.DSN == "" {
		errs = append(errs, ValidationError{
			Field:   "source.dsn",
			Message: "DSN is required (or set " + EnvSourceDSN + ")",
		})
	}

	if !tablePrefixPattern.MatchString(c.Source.TablePrefix) {
		errs = append(errs, ValidationError{Field: "source.table_prefix", Message: "may only contain letters, digits and underscores"})
	}

	// Validate target configuration
	if c.Target.Driver != "" && !validDrivers[c.Target.Driver] {
		errs = append(errs, ValidationError{
			Field:   "target.driver",
			Message: "must be one of: mysql, postgres, sqlite",
		})
	}

	if c.Target.TablePrefix == "" || !tablePrefixPattern.MatchString(c.Target.TablePrefix) {
		errs = append(errs, ValidationError{Field: "target.table_prefix", Message: "must be a non-empty identifier prefix"})
	} else if c.SameDatabase() && c.Target.TablePrefix == c.Source.TablePrefix {
		errs = append(errs, ValidationError{Field: "target.table_prefix", Message: "must differ from source.table_prefix when sharing a database"})
	}

	// Validate migration configuration
	if c.Migration.Plugin == "" {
		errs = append(errs, ValidationError{Field: "migration.plugin", Message: "plugin is required"})
	} else if !validPlugins[strings.ToLower(c.Migration.Plugin)] {
		errs = append(errs, ValidationError{
			Field:   "migration.plugin",
			Message: "must be one of: ultimate-member, buddypress",
		})
	}

	if c.Migration.BatchSize < 0 {
		errs = append(errs, ValidationError{Field: "migration.batch_size", Message: "cannot be negative"})
	}

	if c.Migration.BatchOffset < 0 {
		errs = append(errs, ValidationError{Field: "migration.batch_offset", Message: "cannot be negative"})
	}

	if c.Migration.LoginPath != "" && !strings.HasPrefix(c.Migration.LoginPath, "/") {
		errs = append(errs, ValidationError{Field: "migration.login_path", Message: "must be a site-relative path starting with /"})
	}

	// Validate media configuration
	switch c.Media.Backend {
	case "fs":
		if c.Migration.CopyPhotos && c.Media.Dir == "" {
			errs = append(errs, ValidationError{Field: "media.dir", Message: "directory is required for the fs backend"})
		}
	case "s3":
		if c.Media.S3.Bucket == "" {
			errs = append(errs, ValidationError{Field: "media.s3.bucket", Message: "bucket is required for the s3 backend"})
		}
	default:
		errs = append(errs, ValidationError{Field: "media.backend", Message: "must be one of: fs, s3"})
	}

	// Validate field type patterns
	for fieldType, patterns := range c.FieldTypes.Patterns {
		for i, pattern := range patterns {
			if _, err := regexp.Compile(pattern); err != nil {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("field_types.patterns.%s[%d]", fieldType, i),
					Message: fmt.Sprintf("invalid regex pattern: %v", err),
				})
			}
		}
	}

	// Validate concurrency configuration
	if c.Concurrency.Workers < 1 {
		errs = append(errs, ValidationError{Field: "concurrency.workers", Message: "must be at least 1"})
	}

	if c.Concurrency.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "concurrency.rate_limit", Message: "cannot be negative"})
	}

	if c.Concurrency.RetryAttempts < 0 {
		errs = append(errs, ValidationError{Field: "concurrency.retry_attempts", Message: "cannot be negative"})
	}

	// Validate output configuration
	validFormats := map[string]bool{"table": true, "json": true}
	if !validFormats[c.Output.Format] {
		errs = append(errs, ValidationError{
			Field:   "output.format",
			Message: "must be one of: table, json",
		})
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Output.LogLevel] {
		errs = append(errs, ValidationError{
			Field:   "output.log_level",
			Message: "must be one of: debug, info, warn, error",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
