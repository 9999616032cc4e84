package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configFileEnvVar = "CONFIG_FILE"

type Config interface {
	EnvConfig
	ClientConfig
	TelemetryConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBackendURL() string
	GetStorageKind() StorageKind
	GetSessionDir() string
	GetSessionKey() string
	GetRedisAddr() string
}

type ClientConfig interface {
	GetRequestTimeout() time.Duration
	GetRefreshOperationName() string
	GetAuthFailureMessages() []string
	GetAuthFailureMarkers() []string
	GetAuthFailureCodes() []string
	GetSingleFlightRefresh() bool
	GetCacheEnabled() bool
}

type TelemetryConfig interface {
	GetMetricsEnabled() bool
	GetTracingEnabled() bool
}

type mainConfig struct {
	EnvVars
	Client
	Telemetry
}

// New builds the configuration from the environment, seeded by the YAML file
// named in CONFIG_FILE when present. A broken config file is reported and ignored.
func New() Config {
	path := os.Getenv(configFileEnvVar)
	if path == "" {
		return newMainConfig(nil)
	}
	c, err := NewFromFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
		return newMainConfig(nil)
	}
	return c
}

// NewFromFile loads a flat YAML document whose keys are the lower-cased names of
// the environment variables (e.g. backend_url, log_level). Environment variables
// still take precedence over file values.
func NewFromFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config NewFromFile] read: %w", err)
	}
	values := fileValues{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("[config NewFromFile] parse: %w", err)
	}
	return newMainConfig(values), nil
}

func newMainConfig(values fileValues) mainConfig {
	return mainConfig{
		EnvVars:   EnvVars{file: values},
		Client:    Client{file: values},
		Telemetry: Telemetry{file: values},
	}
}

// fileValues holds settings read from the optional config file.
type fileValues map[string]string

func (f fileValues) get(envVar, defaultValue string) string {
	if v, ok := f[strings.ToLower(envVar)]; ok && v != "" {
		defaultValue = v
	}
	return GetEnv(envVar, defaultValue)
}

func (f fileValues) getBool(envVar string, defaultValue bool) bool {
	switch strings.ToLower(f.get(envVar, fmt.Sprint(defaultValue))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func (f fileValues) getDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(f.get(envVar, defaultValue.String()))
	if err != nil {
		return defaultValue
	}
	return d
}
