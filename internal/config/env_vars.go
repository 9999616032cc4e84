package config

import (
	"os"
)

const (
	appNameVar     = "APP_NAME"
	envVar         = "ENV"
	logLevelVar    = "LOG_LEVEL"
	backendURLVar  = "BACKEND_URL"
	storageKindVar = "SESSION_STORAGE"
	sessionDirVar  = "SESSION_DIR"
	sessionKeyVar  = "SESSION_KEY"
	redisAddrVar   = "REDIS_ADDR"
)

// StorageKind selects the durable backend the session store persists to.
type StorageKind string

const (
	StorageFile   StorageKind = "file"
	StorageRedis  StorageKind = "redis"
	StorageMemory StorageKind = "memory"
)

type EnvVars struct {
	file fileValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.file.get(appNameVar, "Fin Client")
}

func (e EnvVars) GetEnv() string {
	return e.file.get(envVar, "DEV")
}

func (e EnvVars) GetLogLevel() string {
	return e.file.get(logLevelVar, "info")
}

// GetBackendURL returns the GraphQL endpoint every operation is posted to.
func (e EnvVars) GetBackendURL() string {
	return e.file.get(backendURLVar, "http://localhost:4000/graphql")
}

func (e EnvVars) GetStorageKind() StorageKind {
	switch kind := StorageKind(e.file.get(storageKindVar, string(StorageFile))); kind {
	case StorageFile, StorageRedis, StorageMemory:
		return kind
	}
	return StorageFile
}

func (e EnvVars) GetSessionDir() string {
	return e.file.get(sessionDirVar, defaultSessionDir())
}

// GetSessionKey is the single durable-storage key the session record lives under.
func (e EnvVars) GetSessionKey() string {
	return e.file.get(sessionKeyVar, "auth-storage")
}

func (e EnvVars) GetRedisAddr() string {
	return e.file.get(redisAddrVar, "localhost:6379")
}

func defaultSessionDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "finclient"
	}
	return "./data"
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
