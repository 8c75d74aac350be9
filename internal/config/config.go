package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

type Config struct {
	LogLevel string      `toml:"log_level"`
	S3       S3Config    `toml:"s3"`
	Local    LocalConfig `toml:"local"`
}

// S3Config carries everything needed to build a store client. Nothing in it is
// read from the environment; the profile and static keys are handed to the SDK
// explicitly.
type S3Config struct {
	Backend         string `toml:"backend"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	UsePathStyle    bool   `toml:"use_path_style"`
	Profile         string `toml:"profile"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	SessionToken    string `toml:"session_token"`
	Checksum        bool   `toml:"checksum"`
}

type LocalConfig struct {
	Root string `toml:"root"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		S3: S3Config{
			Backend: BackendS3,
			Region:  "us-east-1",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = "info"
	}
	if strings.TrimSpace(c.S3.Backend) == "" {
		c.S3.Backend = BackendS3
	}
	if strings.TrimSpace(c.S3.Region) == "" {
		c.S3.Region = "us-east-1"
	}
}

func (c *Config) Normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.S3.Backend = strings.ToLower(strings.TrimSpace(c.S3.Backend))
	c.S3.Region = strings.TrimSpace(c.S3.Region)
	c.S3.Endpoint = strings.TrimRight(strings.TrimSpace(c.S3.Endpoint), "/")
	c.S3.Profile = strings.TrimSpace(c.S3.Profile)
	c.S3.AccessKeyID = strings.TrimSpace(c.S3.AccessKeyID)
	c.S3.SecretAccessKey = strings.TrimSpace(c.S3.SecretAccessKey)
	c.S3.SessionToken = strings.TrimSpace(c.S3.SessionToken)
	if root := strings.TrimSpace(c.Local.Root); root != "" {
		c.Local.Root = filepath.Clean(root)
	} else {
		c.Local.Root = ""
	}
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return errors.New("log_level must be trace, debug, info, warn, error, or disabled")
	}
	return c.S3.Validate()
}

func (c S3Config) Validate() error {
	switch c.Backend {
	case BackendS3, BackendLocal:
	default:
		return fmt.Errorf("s3 backend must be %q or %q", BackendS3, BackendLocal)
	}
	if c.Backend == BackendLocal {
		return nil
	}
	if c.Region == "" {
		return errors.New("s3 region is required")
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Host == "" {
			return fmt.Errorf("s3 endpoint %q must be a valid http(s) URL", c.Endpoint)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("s3 endpoint %q must use http or https", c.Endpoint)
		}
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.New("s3 access_key_id and secret_access_key must be set together")
	}
	if c.SessionToken != "" && c.AccessKeyID == "" {
		return errors.New("s3 session_token requires access_key_id and secret_access_key")
	}
	return nil
}

// HasStaticCredentials reports whether explicit keys should override the SDK
// credential chain.
func (c S3Config) HasStaticCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}
