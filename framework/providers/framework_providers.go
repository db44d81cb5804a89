package providers

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/config"
	"github.com/km-arc/go-container/framework/container"
	gohttp "github.com/km-arc/go-container/framework/http"
	"github.com/km-arc/go-container/framework/logging"
	"github.com/km-arc/go-container/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider layers the .env file and the manifest named by the
// "file" key under the configuration the container was created with.
// Values already set win; loaded values only fill the gaps.
//
// Bound abstracts:
//   - "config"  → *config.Repository (a snapshot per resolution)
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->singleton('config', fn() => new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	env, err := config.LoadEnv(p.EnvFiles...)
	if err != nil {
		return err
	}
	fill(app, env)

	if file, ok := app.GetConfig("file", nil).(string); ok && file != "" {
		manifest, err := config.LoadFile(file)
		if err != nil {
			return err
		}
		fill(app, manifest)
	}

	return app.Bind("config", func(*container.Container) any { return app.Config() }, false)
}

// fill sets every leaf of items the container does not already hold. A leaf
// under a path that already ends in a non-mapping value is skipped too, so
// loaded values never replace a scalar with a mapping.
func fill(app *container.Container, items map[string]any) {
	for path, v := range config.Flatten(items) {
		if !occupied(app, path) {
			app.SetConfig(path, v)
		}
	}
}

func occupied(app *container.Container, path string) bool {
	if app.HasConfig(path) {
		return true
	}
	segments := strings.Split(path, ".")
	for i := 1; i < len(segments); i++ {
		prefix := strings.Join(segments[:i], ".")
		if !app.HasConfig(prefix) {
			return false
		}
		if _, isMap := app.GetConfig(prefix, nil).(map[string]any); !isMap {
			return true
		}
	}
	return false
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the application logger, built from the
// app.env and log.level configuration keys.
//
// Bound abstracts:
//   - "log"  → *zap.Logger
//
// Laravel equivalent:
//
//	// Illuminate\Log\LogServiceProvider
//	$app->singleton('log', fn($app) => new LogManager($app));
type LoggingServiceProvider struct {
	container.BaseProvider
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	return app.Singleton("log", func(*container.Container) (any, error) {
		env := fmt.Sprint(app.GetConfig("app.env", "production"))
		level := fmt.Sprint(app.GetConfig("log.level", "info"))
		return logging.New(env, level)
	})
}

// Boot builds the logger so configuration mistakes surface at startup.
func (p *LoggingServiceProvider) Boot(app *container.Container) error {
	log, err := container.Resolve[*zap.Logger](app, "log")
	if err != nil {
		return err
	}
	log.Debug("providers: logger ready", zap.Any("level", app.GetConfig("log.level", "info")))
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router with the container
// inspector mounted under Prefix (the root when empty).
//
// Bound abstracts:
//   - "router"  → *routing.Router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
	Prefix string
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	return app.Singleton("router", func(c *container.Container) (any, error) {
		var log *zap.Logger
		if c.Bound("log") {
			l, err := container.Resolve[*zap.Logger](c, "log")
			if err != nil {
				return nil, err
			}
			log = l
		}

		r := routing.New(log)
		inspector := gohttp.NewInspector(app)
		if p.Prefix == "" {
			inspector.Routes(r)
		} else {
			r.Prefix(p.Prefix, inspector.Routes)
		}
		return r, nil
	})
}
