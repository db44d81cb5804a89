package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv reads dotenv files and returns their variables as a nested map.
// The first underscore splits the group from the key, so
//
//	APP_NAME=demo
//	DB_HOST_NAME=localhost
//
// becomes {"app": {"name": "demo"}, "db": {"host_name": "localhost"}}.
// Variables without an underscore land at the top level.
//
// With no arguments ".env" is read, and its absence is not an error:
// production hosts usually configure through the real environment.
func LoadEnv(files ...string) (map[string]any, error) {
	optional := len(files) == 0
	if optional {
		files = []string{".env"}
	}

	vars, err := godotenv.Read(files...)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("config: read env %v: %w", files, err)
	}

	// Sorted so that a later nested key always replaces a scalar parent.
	repo := New(nil)
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		repo.Set(EnvPath(key), vars[key])
	}
	return repo.All(), nil
}

// EnvPath converts an environment variable name to a config path:
// "APP_DEBUG" → "app.debug".
func EnvPath(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	group, rest, found := strings.Cut(key, "_")
	if !found || group == "" || rest == "" {
		return key
	}
	return group + "." + rest
}

// Env returns a raw environment value, falling back to fallback when unset.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvInt returns an int environment value.
func EnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

// EnvBool returns a bool environment value.
func EnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
