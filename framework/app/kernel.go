package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/providers"
	"github.com/km-arc/go-container/framework/routing"
)

// Application is the top-level application container.
// It embeds the IoC Container and ProviderRegistry so user code can
// call app.Bind(), app.Singleton(), app.Register() directly —
// exactly like $app in Laravel's bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
}

// Create builds the application from its initial configuration. A map is
// used as the configuration itself; any other non-nil value is stored under
// the "file" key and read as a YAML or JSON manifest. context is the type
// name prefix stripped when deriving aliases.
//
//	app, err := app.Create(map[string]any{"app": map[string]any{"name": "demo"}}, "github.com/acme/shop/")
//	app, err := app.Create("config/app.yaml", "")
func Create(initial any, context string, opts ...container.Option) (*Application, error) {
	var items map[string]any
	switch v := initial.(type) {
	case nil:
	case map[string]any:
		items = v
	default:
		items = map[string]any{"file": v}
	}

	base := []container.Option{container.WithConfig(items), container.WithContext(context)}
	c := container.New(append(base, opts...)...)

	a := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
	}

	// Register framework core providers (same order as Laravel)
	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{},
		&providers.LoggingServiceProvider{},
		&providers.RoutingServiceProvider{},
	} {
		if err := a.Register(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Logger resolves the application *zap.Logger, or a no-op logger when it
// cannot be built.
func (a *Application) Logger() *zap.Logger {
	log, err := container.Resolve[*zap.Logger](a.Container, "log")
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() (*routing.Router, error) {
	return container.Resolve[*routing.Router](a.Container, "router")
}

// Serve boots the application (if needed) and serves the router on addr
// until the server fails.
func (a *Application) Serve(addr string) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	router, err := a.Router()
	if err != nil {
		return fmt.Errorf("app: resolve router: %w", err)
	}

	a.Logger().Info("app: serving",
		zap.String("name", fmt.Sprint(a.GetConfig("app.name", "go-container"))),
		zap.String("addr", addr),
		zap.String("env", a.Environment()))

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("app: serve %s: %w", addr, err)
	}
	return nil
}

// Environment returns the app.env configuration value ("production" when unset).
func (a *Application) Environment() string {
	return fmt.Sprint(a.GetConfig("app.env", "production"))
}

func (a *Application) IsLocal() bool      { return a.Environment() == "local" }
func (a *Application) IsProduction() bool { return a.Environment() == "production" }
func (a *Application) IsTesting() bool    { return a.Environment() == "testing" }

// IsDebug reports app.debug, accepting booleans and their string forms.
func (a *Application) IsDebug() bool {
	switch v := a.GetConfig("app.debug", false).(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	}
	return false
}
