// Package container provides a Laravel-compatible IoC (Inversion of Control)
// container, a dot-path configuration store and a Service Provider system
// for Go.
//
// # Overview
//
// The container manages the instantiation and lifecycle of your application's
// dependencies. It supports transient bindings, singletons, pre-built instances,
// aliases, tags, contextual bindings, and extension (decoration).
//
// It mirrors the public API of Laravel's Illuminate\Container\Container as
// closely as Go's type system allows. Go cannot list a function's parameter
// names at runtime, so auto-wiring works from Class descriptors: register a
// class once and the container builds it, and everything it depends on, by
// name.
//
// # Container Lifecycle
//
//  1. Create: c := container.New(container.WithConfig(items))
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot()        — safe to resolve everything after this
//  4. Serve requests
//
// # Bindings
//
//	// Transient — new instance every Make()
//	// Laravel: $app->bind(Foo::class, fn($app) => new Foo)
//	c.Bind("Foo", func(c *container.Container) any { return &Foo{} }, false)
//
//	// Singleton — created once, reused
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache)
//	c.Singleton("cache", func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.NewRedis(cfg), nil
//	})
//
//	// Pre-built value
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
//
//	// Alias
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
//
// # Classes and auto-wiring
//
//	func NewNotifier(m Mailer, from string) *Notifier
//
//	cls := container.MustConstructor(NewNotifier, container.Arg("mailer"), container.Arg("from"))
//	c.RegisterClass(cls)
//	c.Bind(container.TypeKey((*Mailer)(nil)), container.TypeKey(&SmtpMailer{}), false)
//	n, err := c.MakeWith(cls.Name, container.Params{"from": "ops@example.com"})
//
// Parameters are filled from overrides first, then contextual bindings, then
// the container, then nil for optional parameters, then defaults.
//
// Binding a registered class also aliases it by its short name: with
// WithContext("github.com/acme/shop/") the class
// "github.com/acme/shop/billing.Invoicer" answers to "billing.invoicer".
//
// # Resolving
//
//	// Untyped
//	// Laravel: $app->make(Cache::class)
//	raw, err := c.Make("cache")
//
//	// Generic (preferred — no type assertion required)
//	cache, err := container.Resolve[*RedisCache](c, "cache")
//
// Each top-level Make tracks its own resolution stack. A factory that asks
// the container for something already being built gets a
// *CircularDependencyError instead of recursing forever.
//
// # Configuration
//
//	c.Set("mail.driver", "smtp")       // plain values go to the config store
//	c.Set("mailer", &SmtpMailer{})     // objects become instances
//	driver, _ := c.Get("mail.driver", "log")
//
// # Errors
//
// Every failure is a typed error that matches one sentinel:
//
//	if errors.Is(err, container.ErrCircularDependency) { ... }
//
//	var ue *container.UnresolvableDependencyError
//	if errors.As(err, &ue) { log.Print(ue.Param) }
package container
