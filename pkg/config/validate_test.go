package config

import (
	"errors"
	"testing"
)

// validConfig returns a minimal config that passes validation.
func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Source.DSN = "user:pass@tcp(localhost:3306)/wordpress"
	cfg.Migration.Plugin = "ultimate-member"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "valid config passes",
			modify:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name: "plugin alias passes",
			modify: func(cfg *Config) {
				cfg.Migration.Plugin = "BP"
			},
			wantErr: false,
		},
		{
			name: "missing DSN fails",
			modify: func(cfg *Config) {
				cfg.Source.DSN = ""
			},
			wantErr: true,
		},
		{
			name: "invalid driver fails",
			modify: func(cfg *Config) {
				cfg.Source.Driver = "oracle"
			},
			wantErr: true,
		},
		{
			name: "invalid table prefix fails",
			modify: func(cfg *Config) {
				cfg.Source.TablePrefix = "wp; DROP"
			},
			wantErr: true,
		},
		{
			name: "same prefix in shared database fails",
			modify: func(cfg *Config) {
				cfg.Target.TablePrefix = "wp_"
			},
			wantErr: true,
		},
		{
			name: "same prefix in separate database passes",
			modify: func(cfg *Config) {
				cfg.Target.DSN = "user:pass@tcp(localhost:3306)/target"
				cfg.Target.TablePrefix = "wp_"
			},
			wantErr: false,
		},
		{
			name: "missing plugin fails",
			modify: func(cfg *Config) {
				cfg.Migration.Plugin = ""
			},
			wantErr: true,
		},
		{
			name: "unknown plugin fails",
			modify: func(cfg *Config) {
				cfg.Migration.Plugin = "peepso"
			},
			wantErr: true,
		},
		{
			name: "negative batch size fails",
			modify: func(cfg *Config) {
				cfg.Migration.BatchSize = -1
			},
			wantErr: true,
		},
		{
			name: "unpaged batch size passes",
			modify: func(cfg *Config) {
				cfg.Migration.BatchSize = 0
			},
			wantErr: false,
		},
		{
			name: "absolute login path fails",
			modify: func(cfg *Config) {
				cfg.Migration.LoginPath = "https://evil.example/login"
			},
			wantErr: true,
		},
		{
			name: "s3 without bucket fails",
			modify: func(cfg *Config) {
				cfg.Media.Backend = "s3"
			},
			wantErr: true,
		},
		{
			name: "unknown media backend fails",
			modify: func(cfg *Config) {
				cfg.Media.Backend = "ftp"
			},
			wantErr: true,
		},
		{
			name: "invalid field type pattern fails",
			modify: func(cfg *Config) {
				cfg.FieldTypes.Patterns = map[string][]string{"date": {"(unclosed"}}
			},
			wantErr: true,
		},
		{
			name: "workers less than 1 fails",
			modify: func(cfg *Config) {
				cfg.Concurrency.Workers = 0
			},
			wantErr: true,
		},
		{
			name: "invalid format fails",
			modify: func(cfg *Config) {
				cfg.Output.Format = "xml"
			},
			wantErr: true,
		},
		{
			name: "invalid log level fails",
			modify: func(cfg *Config) {
				cfg.Output.LogLevel = "trace"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Source.DSN = ""
	cfg.Concurrency.Workers = 0
	cfg.Output.Format = "xml"

	err := cfg.Validate()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 3 {
		t.Errorf("expected 3 validation errors, got %d: %v", len(verrs), verrs)
	}
}
