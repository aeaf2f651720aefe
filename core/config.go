package core

import (
	"fmt"
	"strings"
)

type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

func (e Environment) Valid() bool {
	return e == EnvironmentSandbox || e == EnvironmentProduction
}

type AnalyticsConfig struct {
	DisableRemoteLogging bool `koanf:"disable_remote_logging" mapstructure:"disable_remote_logging"`
}

type Config struct {
	Environment    Environment     `koanf:"environment" mapstructure:"environment"`
	ProductName    string          `koanf:"product_name" mapstructure:"product_name"`
	ProductVersion string          `koanf:"product_version" mapstructure:"product_version"`
	Analytics      AnalyticsConfig `koanf:"analytics" mapstructure:"analytics"`
}

func DefaultConfig() Config {
	return Config{
		Environment:    EnvironmentSandbox,
		ProductName:    DefaultProductName,
		ProductVersion: DefaultProductVersion,
		Analytics:      AnalyticsConfig{},
	}
}

func (c Config) Validate() error {
	if !Environment(strings.ToLower(strings.TrimSpace(string(c.Environment)))).Valid() {
		return fmt.Errorf("core: environment must be sandbox or production, got %q", c.Environment)
	}
	if strings.TrimSpace(c.ProductName) == "" {
		return fmt.Errorf("core: product_name is required")
	}
	if strings.TrimSpace(c.ProductVersion) == "" {
		return fmt.Errorf("core: product_version is required")
	}
	return nil
}
