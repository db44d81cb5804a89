// Package config holds the container's configuration tree and the loaders
// that produce its initial contents.
//
// Repository is the store itself: a nested map addressed with dot paths.
// LoadEnv (dotenv files) and LoadFile (YAML/JSON manifests) return plain
// maps that callers hand to config.New or container.WithConfig.
package config
