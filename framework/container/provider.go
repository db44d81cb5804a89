package container

import (
	"fmt"

	"go.uber.org/zap"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Register binds services into the container and must not resolve other
// bindings. Boot runs once every eager provider is registered, so resolving
// is safe there.
//
//	type MailServiceProvider struct{ container.BaseProvider }
//
//	func (p *MailServiceProvider) Register(app *container.Container) error {
//	    cls, err := container.Constructor(mail.NewSMTP, container.Arg("host"))
//	    if err != nil {
//	        return err
//	    }
//	    return app.Singleton("mailer", cls)
//	}
type ServiceProvider interface {
	Register(app *Container) error
	Boot(app *Container) error

	// Provides lists the abstracts a deferred provider registers.
	//
	//	// Laravel: public function provides(): array { return [Cache::class]; }
	Provides() []string

	// IsDeferred defers Register until one of Provides() is first resolved.
	//
	//	// Laravel: protected $defer = true;
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and
// IsDeferred. Embed it and implement Register.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders, including deferred
// ones. It mirrors Laravel's Application::registerConfiguredProviders and
// Application::bootProviders.
type ProviderRegistry struct {
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // abstract → provider
	loaded     map[ServiceProvider]bool   // deferred providers already registered
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		loaded:     make(map[ServiceProvider]bool),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider. Eager providers register immediately, and are
// booted at once when the registry has already booted.
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, abstract := range provider.Provides() {
			r.deferred[abstract] = provider
			if err := r.interceptDeferred(abstract, provider); err != nil {
				return err
			}
		}
		return nil
	}

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("container: register %T: %w", provider, err)
	}
	r.eager = append(r.eager, provider)
	r.app.st.log.Debug("container: provider registered", zap.String("provider", fmt.Sprintf("%T", provider)))

	if r.booted {
		return r.boot(provider)
	}
	return nil
}

// interceptDeferred binds a placeholder for abstract. Its first resolution
// registers the provider for real, which replaces the placeholder, and then
// resolves the abstract again from the fresh binding.
func (r *ProviderRegistry) interceptDeferred(abstract string, provider ServiceProvider) error {
	return r.app.Bind(abstract, func(c *Container, p Params) (any, error) {
		if r.loaded[provider] {
			return nil, &NotInstantiableError{
				Abstract: abstract,
				Reason:   fmt.Sprintf("deferred provider %T did not bind it", provider),
			}
		}
		if err := r.load(provider); err != nil {
			return nil, err
		}
		// Resolve on the root container: the placeholder is still on c's stack.
		return r.app.MakeWith(abstract, p)
	}, false)
}

func (r *ProviderRegistry) load(provider ServiceProvider) error {
	r.loaded[provider] = true
	for abs, p := range r.deferred {
		if p == provider {
			delete(r.deferred, abs)
		}
	}
	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("container: register deferred %T: %w", provider, err)
	}
	if r.booted {
		return r.boot(provider)
	}
	return nil
}

// Boot calls Boot on every eager provider. Later calls are no-ops.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.eager {
		if err := r.boot(provider); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProviderRegistry) boot(provider ServiceProvider) error {
	if err := provider.Boot(r.app); err != nil {
		return fmt.Errorf("container: boot %T: %w", provider, err)
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }

// Deferred reports whether abstract is still waiting on a deferred provider.
func (r *ProviderRegistry) Deferred(abstract string) bool {
	_, ok := r.deferred[abstract]
	return ok
}
