package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-container/framework/config"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Params carries named constructor overrides into a resolution.
type Params map[string]any

// Factory builds a concrete value. c is bound to the in-flight resolution, so
// c.Make calls made from inside the factory take part in cycle detection.
// Do not keep c after the factory returns; capture the root container
// instead.
type Factory func(c *Container, params Params) (any, error)

// Extender decorates a freshly built (or cached) instance.
type Extender func(instance any, c *Container) any

// binding is how one canonical abstract gets produced: a factory, or the
// name of another abstract/class to build in its place.
type binding struct {
	factory  Factory
	concrete string
	shared   bool
}

// ── Container ─────────────────────────────────────────────────────────────────

// state is everything a container owns. Containers handed to factories share
// it and differ only in the resolution they belong to.
type state struct {
	mu sync.RWMutex

	// abstract → binding
	bindings map[string]*binding

	// abstract → shared instance
	instances map[string]any

	// alias → abstract
	aliases aliasTable

	// class name → constructor description
	classes map[string]*Class

	// abstract → extenders, applied in order
	extenders map[string][]Extender

	// tag → abstracts, in insertion order
	tags map[string][]string

	// contextual[concrete][abstract or "$param"] = factory
	contextual map[string]map[string]Factory

	reboundCallbacks map[string][]func(any)
	afterResolving   []func(string, any)

	config *config.Repository

	// prefix stripped from type names before deriving aliases
	context string

	log *zap.Logger
}

// Container is the IoC container — mirrors Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Make / MakeWith / Resolve (generic), with auto-wiring of registered classes
//   - Tags (group multiple abstractions under one tag)
//   - Extend (decorate resolved instances)
//   - Contextual binding (when A needs B, give it C)
//   - Rebound and after-resolving callbacks
//   - A dot-path configuration store (Get / Set / Has / Unset)
//
// All registry state is guarded by one RWMutex that is never held while user
// factories or constructors run. Each top-level Make tracks its own
// resolution stack, so concurrent resolutions never report each other's
// in-progress builds as cycles.
type Container struct {
	st  *state
	res *resolution
}

// Option configures a new Container.
type Option func(*state)

// WithConfig seeds the configuration store. The map is deep copied.
func WithConfig(items map[string]any) Option {
	return func(s *state) { s.config.Merge(items) }
}

// WithContext sets the type-name prefix stripped when deriving aliases.
//
//	container.New(container.WithContext("github.com/acme/shop/"))
func WithContext(prefix string) Option {
	return func(s *state) { s.context = prefix }
}

// WithLogger routes the container's debug logging to l.
func WithLogger(l *zap.Logger) Option {
	return func(s *state) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates an empty container.
func New(opts ...Option) *Container {
	st := &state{
		bindings:         make(map[string]*binding),
		instances:        make(map[string]any),
		aliases:          make(aliasTable),
		classes:          make(map[string]*Class),
		extenders:        make(map[string][]Extender),
		tags:             make(map[string][]string),
		contextual:       make(map[string]map[string]Factory),
		reboundCallbacks: make(map[string][]func(any)),
		config:           config.New(nil),
		log:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(st)
	}
	c := &Container{st: st}
	// Bind the container to itself — like Laravel's $app->instance('container', $app)
	st.instances["container"] = c
	return c
}

// within returns a handle on the same container that continues res.
func (c *Container) within(res *resolution) *Container {
	return &Container{st: c.st, res: res}
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger { return c.st.log }

// Context returns the alias derivation prefix.
func (c *Container) Context() string { return c.st.context }

// ── Classes ───────────────────────────────────────────────────────────────────

// RegisterClass makes classes known to the container so they can be built by
// name and auto-wired as dependencies.
func (c *Container) RegisterClass(classes ...*Class) error {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	for _, cls := range classes {
		if cls == nil || cls.Name == "" {
			return fmt.Errorf("%w: class without a name", ErrInvalidConcrete)
		}
		c.st.classes[cls.Name] = cls
	}
	return nil
}

// HasClass reports whether a class with this name is registered.
func (c *Container) HasClass(name string) bool {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	_, ok := c.st.classes[name]
	return ok
}

// Instantiable reports whether name is a registered, concrete class.
func (c *Container) Instantiable(name string) bool {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	return c.st.instantiable(name)
}

func (s *state) instantiable(name string) bool {
	cls, ok := s.classes[name]
	return ok && !cls.Abstract && cls.New != nil
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers how to build abstract. concrete may be:
//   - nil or "": build the class named abstract
//   - a string: resolve that abstract (or class) instead
//   - a *Class: register it and build it
//   - a Factory, func(*Container) any or func(*Container) (any, error)
//
// Shared bindings cache their first override-free result.
//
//	// Laravel: $app->bind(Mailer::class, SmtpMailer::class)
//	c.Bind(container.TypeKey((*Mailer)(nil)), container.TypeKey(&SmtpMailer{}), false)
func (c *Container) Bind(abstract string, concrete any, shared bool) error {
	b, cls, err := newBinding(abstract, concrete, shared)
	if err != nil {
		return err
	}

	c.st.mu.Lock()
	key := c.st.aliases.canonicalize(abstract)
	if b.factory == nil && b.concrete == abstract {
		b.concrete = key
	}
	buildable := c.st.instantiable(b.concrete)
	if cls != nil {
		buildable = !cls.Abstract && cls.New != nil
	}
	if b.factory == nil && buildable {
		if err := c.st.autoAlias(b.concrete, key); err != nil {
			c.st.mu.Unlock()
			return err
		}
	}
	// The class becomes known only once the binding is accepted
	if cls != nil {
		c.st.classes[cls.Name] = cls
	}

	// Drop the stale instance so it's rebuilt with the new binding
	_, wasResolved := c.st.instances[key]
	delete(c.st.instances, key)
	c.st.bindings[key] = b
	c.st.mu.Unlock()

	c.st.log.Debug("container: bound",
		zap.String("abstract", key),
		zap.String("concrete", b.concrete),
		zap.Bool("shared", shared))

	if wasResolved {
		c.rebound(key, nil)
	}
	return nil
}

// Singleton registers a shared binding.
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache($app))
//	c.Singleton("cache", func(c *container.Container) any { return cache.NewRedis() })
func (c *Container) Singleton(abstract string, concrete any) error {
	return c.Bind(abstract, concrete, true)
}

// Instance registers a pre-built value as a shared instance. With a nil
// instance the class named abstract is built and registered instead.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", cfg)
func (c *Container) Instance(abstract string, instance any) error {
	if instance == nil {
		return c.autoInstance(abstract)
	}

	c.st.mu.Lock()
	key := c.st.aliases.canonicalize(abstract)
	if isObject(instance) {
		if err := c.st.autoAlias(TypeKey(instance), key); err != nil {
			c.st.mu.Unlock()
			return err
		}
	}
	_, hadBinding := c.st.bindings[key]
	_, hadInstance := c.st.instances[key]
	c.st.instances[key] = instance
	c.st.bindings[key] = &binding{
		factory: func(*Container, Params) (any, error) { return instance, nil },
		shared:  true,
	}
	c.st.mu.Unlock()

	c.st.log.Debug("container: instance registered",
		zap.String("abstract", key),
		zap.String("type", describe(instance)))

	if hadBinding || hadInstance {
		c.rebound(key, instance)
	}
	return nil
}

// Instances registers every entry of instances. Values that are not objects
// (pointers or structs) are skipped.
func (c *Container) Instances(instances map[string]any) error {
	keys := make([]string, 0, len(instances))
	for k := range instances {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := instances[k]; isObject(v) {
			if err := c.Instance(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Container) autoInstance(abstract string) error {
	c.st.mu.RLock()
	ok := c.st.instantiable(c.st.aliases.canonicalize(abstract))
	c.st.mu.RUnlock()
	if !ok {
		return &InstantiationError{
			Abstract: abstract,
			Kind:     ErrAutoInstantiation,
			Err:      fmt.Errorf("no instantiable class named [%s]", abstract),
		}
	}

	obj, err := c.Make(abstract)
	if err != nil {
		return &InstantiationError{Abstract: abstract, Kind: ErrAutoInstantiation, Err: err}
	}
	return c.Instance(abstract, obj)
}

// Alias registers an alternative name for an abstract.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cacheManager", "cache")
func (c *Container) Alias(abstract, alias string) error {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	if err := c.st.aliases.define(abstract, alias); err != nil {
		return err
	}
	c.st.log.Debug("container: aliased", zap.String("alias", alias), zap.String("abstract", abstract))
	return nil
}

// autoAlias registers the derived short name of typeName for key.
// Must hold mu.Lock.
func (s *state) autoAlias(typeName, key string) error {
	alias := DeriveAlias(typeName, s.context)
	if alias == "" || alias == key || alias == typeName {
		return nil
	}
	return s.aliases.define(key, alias)
}

// Canonical returns the abstract an alias (chain) resolves to, or id itself.
func (c *Container) Canonical(id string) string {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	return c.st.aliases.canonicalize(id)
}

// IsAlias reports whether id is registered as an alias.
func (c *Container) IsAlias(id string) bool {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	_, ok := c.st.aliases[id]
	return ok
}

func newBinding(abstract string, concrete any, shared bool) (*binding, *Class, error) {
	b := &binding{shared: shared}
	var cls *Class
	switch v := concrete.(type) {
	case nil:
		b.concrete = abstract
	case string:
		b.concrete = v
		if v == "" {
			b.concrete = abstract
		}
	case *Class:
		if v == nil || v.Name == "" {
			return nil, nil, fmt.Errorf("%w: class without a name bound to [%s]", ErrInvalidConcrete, abstract)
		}
		cls, b.concrete = v, v.Name
	default:
		f, err := toFactory(concrete)
		if err != nil {
			return nil, nil, fmt.Errorf("%w for [%s]", err, abstract)
		}
		b.factory = f
	}
	return b, cls, nil
}

func toFactory(fn any) (Factory, error) {
	switch f := fn.(type) {
	case Factory:
		return f, nil
	case func(*Container, Params) (any, error):
		return f, nil
	case func(*Container) (any, error):
		return func(c *Container, _ Params) (any, error) { return f(c) }, nil
	case func(*Container) any:
		return func(c *Container, _ Params) (any, error) { return f(c), nil }, nil
	}
	return nil, fmt.Errorf("%w: unsupported concrete %T", ErrInvalidConcrete, fn)
}

// isObject reports whether v is a struct or a pointer to one: the values
// the container treats as service instances rather than configuration.
func isObject(v any) bool {
	if v == nil {
		return false
	}
	return deref(reflect.TypeOf(v)).Kind() == reflect.Struct
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the resolved instance of an abstract.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return logging.NewTimestampWrapper(instance.(*Logger))
//	})
func (c *Container) Extend(abstract string, fn Extender) {
	c.st.mu.Lock()
	key := c.st.aliases.canonicalize(abstract)
	c.st.extenders[key] = append(c.st.extenders[key], fn)

	// If already resolved as a shared instance, decorate it in place
	inst, ok := c.st.instances[key]
	c.st.mu.Unlock()
	if !ok {
		return
	}

	extended := fn(inst, c)
	c.st.mu.Lock()
	c.st.instances[key] = extended
	c.st.mu.Unlock()
	c.rebound(key, extended)
}

func (c *Container) applyExtenders(key string, instance any) any {
	c.st.mu.RLock()
	exts := c.st.extenders[key]
	c.st.mu.RUnlock()
	for _, ext := range exts {
		instance = ext(instance, c)
	}
	return instance
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag appends abstracts to a named group. Duplicates are kept.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag("reports", "CpuReport", "MemoryReport")
func (c *Container) Tag(tag string, abstracts ...string) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	c.st.tags[tag] = append(c.st.tags[tag], abstracts...)
}

// Tagged resolves, through Get, every abstract of a tag in insertion order.
// An unknown tag yields an empty slice.
//
//	// Laravel: $app->tagged('reports')
//	reports, err := c.Tagged("reports")
func (c *Container) Tagged(tag string) ([]any, error) {
	c.st.mu.RLock()
	abstracts := append([]string(nil), c.st.tags[tag]...)
	c.st.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		v, err := c.Get(abs, nil)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether an abstract has a binding or a shared instance.
//
//	// Laravel: $app->bound(UserRepository::class)
func (c *Container) Bound(abstract string) bool {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	return c.st.bound(c.st.aliases.canonicalize(abstract))
}

func (s *state) bound(key string) bool {
	_, hasBinding := s.bindings[key]
	_, hasInstance := s.instances[key]
	return hasBinding || hasInstance
}

// Resolved reports whether a shared instance is cached for the abstract.
//
//	// Laravel: $app->resolved(Cache::class)
func (c *Container) Resolved(abstract string) bool {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	_, ok := c.st.instances[c.st.aliases.canonicalize(abstract)]
	return ok
}

// Forget removes the binding and the cached instance of an abstract.
func (c *Container) Forget(abstract string) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	key := c.st.aliases.canonicalize(abstract)
	delete(c.st.bindings, key)
	delete(c.st.instances, key)
}

// ForgetInstance drops only the cached instance; the next Make rebuilds it.
//
//	// Laravel: $app->forgetInstance(Cache::class)
func (c *Container) ForgetInstance(abstract string) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	delete(c.st.instances, c.st.aliases.canonicalize(abstract))
}

// Flush resets bindings, instances, aliases, tags, contextual bindings,
// extenders, rebinding callbacks and configuration in one step. Registered
// classes survive.
func (c *Container) Flush() {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	c.st.bindings = make(map[string]*binding)
	c.st.instances = make(map[string]any)
	c.st.aliases = make(aliasTable)
	c.st.extenders = make(map[string][]Extender)
	c.st.tags = make(map[string][]string)
	c.st.contextual = make(map[string]map[string]Factory)
	c.st.reboundCallbacks = make(map[string][]func(any))
	c.st.config.Flush()
	c.st.log.Debug("container: flushed")
}

// Bindings returns the sorted abstracts that have a binding or an instance.
func (c *Container) Bindings() []string {
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	out := make([]string, 0, len(c.st.bindings)+len(c.st.instances))
	for k := range c.st.bindings {
		out = append(out, k)
	}
	for k := range c.st.instances {
		if _, already := c.st.bindings[k]; !already {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback fired with the new instance whenever a
// resolved abstract is re-bound.
//
//	// Laravel: $app->rebinding(UserRepository::class, fn($app, $repo) => ...)
func (c *Container) Rebinding(abstract string, cb func(any)) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	key := c.st.aliases.canonicalize(abstract)
	c.st.reboundCallbacks[key] = append(c.st.reboundCallbacks[key], cb)
}

// AfterResolving registers a callback fired after every build.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(abstract string, instance any)) {
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	c.st.afterResolving = append(c.st.afterResolving, cb)
}

// rebound fires rebinding callbacks for key, building the instance first
// when none is supplied.
func (c *Container) rebound(key string, instance any) {
	c.st.mu.RLock()
	cbs := c.st.reboundCallbacks[key]
	c.st.mu.RUnlock()
	if len(cbs) == 0 {
		return
	}

	if instance == nil {
		var err error
		if instance, err = c.Make(key); err != nil {
			c.st.log.Warn("container: rebound resolution failed", zap.String("abstract", key), zap.Error(err))
			return
		}
	}
	for _, cb := range cbs {
		cb(instance)
	}
}

func (c *Container) fireAfterResolving(abstract string, instance any) {
	c.st.mu.RLock()
	cbs := c.st.afterResolving
	c.st.mu.RUnlock()
	for _, cb := range cbs {
		cb(abstract, instance)
	}
}
