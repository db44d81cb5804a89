package container

import (
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/zap"
)

// resolution is the stack of canonical abstracts being built by one
// top-level Make call. It lives only as long as that call.
type resolution struct {
	stack []string
}

func (r *resolution) push(key string) { r.stack = append(r.stack, key) }
func (r *resolution) pop()            { r.stack = r.stack[:len(r.stack)-1] }

func (r *resolution) building(key string) bool { return slices.Contains(r.stack, key) }

// caller is the abstract whose build requested the current one, or "".
func (r *resolution) caller() string {
	if len(r.stack) == 0 {
		return ""
	}
	return r.stack[len(r.stack)-1]
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves an abstract from the container.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo, err := c.Make("UserRepository")
func (c *Container) Make(abstract string) (any, error) {
	return c.MakeWith(abstract, nil)
}

// MakeWith resolves an abstract, satisfying constructor parameters named in
// overrides with the given values. Results built with overrides are never
// cached.
//
//	// Laravel: $app->makeWith(ReportGenerator::class, ['format' => 'pdf'])
//	gen, err := c.MakeWith("ReportGenerator", container.Params{"format": "pdf"})
func (c *Container) MakeWith(abstract string, overrides Params) (any, error) {
	res := c.res
	if res == nil {
		res = &resolution{}
	}
	return c.resolve(res, abstract, overrides)
}

// MustMake is Make that panics on error.
func (c *Container) MustMake(abstract string) any {
	v, err := c.Make(abstract)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *Container) resolve(res *resolution, abstract string, overrides Params) (any, error) {
	c.st.mu.RLock()
	key := c.st.aliases.canonicalize(abstract)
	given := c.st.contextualFor(res.caller(), abstract, key)
	inst, cached := c.st.instances[key]
	b := c.st.bindings[key]
	c.st.mu.RUnlock()

	if given == nil && cached && len(overrides) == 0 {
		return inst, nil
	}
	if res.building(key) {
		return nil, &CircularDependencyError{Abstract: key, Path: append(slices.Clone(res.stack), key)}
	}

	res.push(key)
	defer res.pop()

	var (
		obj any
		err error
	)
	switch {
	case given != nil:
		obj, err = given(c.within(res), overrides)
	case b != nil && b.factory != nil:
		obj, err = b.factory(c.within(res), overrides)
	case b != nil && b.concrete != key:
		obj, err = c.resolve(res, b.concrete, overrides)
	default:
		obj, err = c.build(res, key, overrides)
	}
	if err != nil {
		return nil, err
	}

	obj = c.applyExtenders(key, obj)

	if given == nil && b != nil && b.shared && len(overrides) == 0 {
		c.st.mu.Lock()
		if existing, ok := c.st.instances[key]; ok {
			obj = existing
		} else {
			c.st.instances[key] = obj
		}
		c.st.mu.Unlock()
	}

	c.st.log.Debug("container: resolved", zap.String("abstract", key), zap.Int("depth", len(res.stack)))
	c.fireAfterResolving(key, obj)
	return obj, nil
}

// build instantiates a registered class, resolving its parameters in
// declaration order.
func (c *Container) build(res *resolution, name string, overrides Params) (any, error) {
	c.st.mu.RLock()
	cls, ok := c.st.classes[name]
	c.st.mu.RUnlock()

	switch {
	case !ok:
		return nil, &NotInstantiableError{Abstract: name, Reason: "no binding or class registered"}
	case cls.Abstract:
		return nil, &NotInstantiableError{Abstract: name, Reason: "abstract type has no binding"}
	case cls.New == nil:
		return nil, &NotInstantiableError{Abstract: name, Reason: "class has no constructor"}
	}

	args := make([]any, len(cls.Params))
	for i, p := range cls.Params {
		v, err := c.resolveParam(res, cls, p, overrides)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	obj, err := cls.New(args)
	if err != nil {
		return nil, &InstantiationError{Abstract: name, Err: err}
	}
	return obj, nil
}

// resolveParam applies the fallback order: override, contextual binding,
// container resolution, nil (nullable), default, failure.
func (c *Container) resolveParam(res *resolution, cls *Class, p Param, overrides Params) (any, error) {
	if v, ok := overrides[p.Name]; ok {
		return v, nil
	}

	if p.Type == "" {
		c.st.mu.RLock()
		given := c.st.contextualFor(cls.Name, "$"+p.Name, "")
		c.st.mu.RUnlock()
		switch {
		case given != nil:
			return given(c.within(res), nil)
		case p.HasDefault:
			return p.Default, nil
		}
		return nil, &UnresolvablePrimitiveError{Class: cls.Name, Param: p.Name}
	}

	c.st.mu.RLock()
	key := c.st.aliases.canonicalize(p.Type)
	resolvable := c.st.bound(key) || c.st.instantiable(key) ||
		c.st.contextualFor(cls.Name, p.Type, key) != nil
	c.st.mu.RUnlock()

	switch {
	case resolvable:
		return c.resolve(res, p.Type, nil)
	case p.Nullable:
		return nil, nil
	case p.HasDefault:
		return p.Default, nil
	}
	return nil, &UnresolvableDependencyError{Class: cls.Name, Param: p.Name, Type: p.Type}
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	// Instead of: v, err := c.Make("db"); db := v.(*sql.DB)
//	// Write:      db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, abstract string) (T, error) {
	var zero T
	instance, err := c.Make(abstract)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%s]: [%s] resolved to %T",
			reflect.TypeFor[T](), abstract, instance)
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error.
func MustResolve[T any](c *Container, abstract string) T {
	typed, err := Resolve[T](c, abstract)
	if err != nil {
		panic(err)
	}
	return typed
}
