package container

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/config"
)

// ── Configuration ─────────────────────────────────────────────────────────────

// GetConfig returns the configuration value at a dot path, or fallback.
//
//	// Laravel: config('mail.driver', 'smtp')
//	driver := c.GetConfig("mail.driver", "smtp")
func (c *Container) GetConfig(path string, fallback any) any {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	return c.st.config.Get(path, fallback)
}

// SetConfig stores a configuration value, creating intermediate mappings.
func (c *Container) SetConfig(path string, value any) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	c.st.config.Set(path, value)
}

// HasConfig reports whether a configuration path holds a value.
func (c *Container) HasConfig(path string) bool {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	return c.st.config.Has(path)
}

// UnsetConfig removes a configuration value.
func (c *Container) UnsetConfig(path string) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	c.st.config.Unset(path)
}

// MergeConfig sets every top-level key of items.
func (c *Container) MergeConfig(items map[string]any) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	c.st.config.Merge(items)
}

// Config returns a snapshot of the configuration tree.
func (c *Container) Config() *config.Repository {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	return config.New(c.st.config.All())
}

// ── Array-style access ────────────────────────────────────────────────────────

// Get looks key up as a configuration path first, then as a service the
// container can resolve (bound, or a registered concrete class), and
// finally returns fallback.
//
//	name, _ := c.Get("app.name", "demo")
//	mailer, err := c.Get("mailer", nil)
func (c *Container) Get(key string, fallback any) (any, error) {
	c.st.mu.RLock()
	if c.st.config.Has(key) {
		v := c.st.config.Get(key, fallback)
		c.st.mu.RUnlock()
		return v, nil
	}
	canonical := c.st.aliases.canonicalize(key)
	resolvable := c.st.bound(canonical) || c.st.instantiable(canonical)
	c.st.mu.RUnlock()

	if !resolvable {
		return fallback, nil
	}
	return c.Make(key)
}

// Set routes value by kind: factories, *Class values and names of
// registered classes are bound; objects (structs or pointers to them) are
// registered as instances; anything else is stored as configuration.
//
//	c.Set("app.name", "demo")              // config
//	c.Set("mailer", &SmtpMailer{})          // instance
//	c.Set("clock", func(*Container) any {}) // binding
func (c *Container) Set(key string, value any) (*Container, error) {
	switch v := value.(type) {
	case *Class:
		return c, c.Bind(key, v, false)
	case string:
		if c.HasClass(v) {
			return c, c.Bind(key, v, false)
		}
	default:
		if _, err := toFactory(value); err == nil {
			return c, c.Bind(key, value, false)
		}
		if isObject(value) {
			return c, c.Instance(key, value)
		}
	}

	c.SetConfig(key, value)
	c.st.log.Debug("container: config set", zap.String("path", key))
	return c, nil
}

// Has reports whether key is a configuration path or a bound service.
func (c *Container) Has(key string) bool {
	return c.HasConfig(key) || c.Bound(key)
}

// Unset removes key from the configuration and forgets any service bound
// under it.
func (c *Container) Unset(key string) {
	c.UnsetConfig(key)
	c.Forget(key)
}
