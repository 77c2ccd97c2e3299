package config

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Credentials are the database connection fields of a credentials.yaml file.
type Credentials struct {
	Host     string `koanf:"RDS_HOST"`
	Port     int    `koanf:"RDS_PORT"`
	User     string `koanf:"RDS_USER"`
	Password string `koanf:"RDS_PASSWORD"`
	Database string `koanf:"RDS_DATABASE"`
}

// LoadCredentials reads a credentials YAML file. Keys are case sensitive.
func LoadCredentials(_ context.Context, path string) (*Credentials, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: credentials %s: %w", ErrLoadConfig, path, err)
	}
	var c Credentials
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: credentials %s: %w", ErrLoadConfig, path, err)
	}
	if c.Host == "" || c.User == "" || c.Database == "" {
		return nil, fmt.Errorf("%w: %s: RDS_HOST, RDS_USER and RDS_DATABASE are required", ErrCredentials, path)
	}
	return &c, nil
}

// ApplyCredentials overlays the non-empty credential fields on the db settings.
func (c *Config) ApplyCredentials(cr *Credentials) {
	if cr == nil {
		return
	}
	if cr.Host != "" {
		c.DBHost = cr.Host
	}
	if cr.Port != 0 {
		c.DBPort = cr.Port
	}
	if cr.User != "" {
		c.DBUser = cr.User
	}
	if cr.Password != "" {
		c.DBPassword = cr.Password
	}
	if cr.Database != "" {
		c.DBName = cr.Database
	}
}
