package container

import (
	"errors"
	"strconv"
	"strings"
)

// Sentinel errors. Every typed error below matches exactly one of them
// through errors.Is, so callers can branch on the kind without errors.As.
var (
	ErrAliasConflict          = errors.New("container: alias conflict")
	ErrCircularDependency     = errors.New("container: circular dependency")
	ErrUnresolvableDependency = errors.New("container: unresolvable dependency")
	ErrUnresolvablePrimitive  = errors.New("container: unresolvable primitive")
	ErrNotInstantiable        = errors.New("container: target is not instantiable")
	ErrAutoInstantiation      = errors.New("container: auto-instantiation failed")
	ErrInvalidConcrete        = errors.New("container: invalid concrete")
)

// AliasConflictError is returned when an alias is redefined to point at a
// different canonical abstract, aliased to itself, or would close a cycle.
type AliasConflictError struct {
	Alias    string
	Existing string // current target, empty when the alias is new
	Target   string
}

func (e *AliasConflictError) Error() string {
	if e.Existing == "" {
		return "container: [" + e.Alias + "] cannot alias [" + e.Target + "]: alias would resolve to itself"
	}
	return "container: alias [" + e.Alias + "] already points to [" + e.Existing + "], cannot point it to [" + e.Target + "]"
}

func (e *AliasConflictError) Unwrap() error { return ErrAliasConflict }

// CircularDependencyError reports an abstract that re-entered resolution
// while it was still being built. Path lists the resolution stack, outermost
// first, ending with the repeated abstract.
type CircularDependencyError struct {
	Abstract string
	Path     []string
}

func (e *CircularDependencyError) Error() string {
	return "container: circular dependency detected while resolving [" + e.Abstract + "]: " +
		strings.Join(e.Path, " -> ")
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// UnresolvableDependencyError is returned when a class-typed parameter is not
// bound, not instantiable, not nullable and has no default.
type UnresolvableDependencyError struct {
	Class string
	Param string
	Type  string
}

func (e *UnresolvableDependencyError) Error() string {
	return "container: unresolvable dependency resolving [" + e.Param + "] of type [" + e.Type +
		"] in class [" + e.Class + "]"
}

func (e *UnresolvableDependencyError) Unwrap() error { return ErrUnresolvableDependency }

// UnresolvablePrimitiveError is returned when an untyped parameter has no
// override and no default.
type UnresolvablePrimitiveError struct {
	Class string
	Param string
}

func (e *UnresolvablePrimitiveError) Error() string {
	return "container: unresolvable primitive [" + e.Param + "] in class [" + e.Class + "]"
}

func (e *UnresolvablePrimitiveError) Unwrap() error { return ErrUnresolvablePrimitive }

// NotInstantiableError is returned when the build target has no factory and
// is unknown, abstract, or lacks a constructor.
type NotInstantiableError struct {
	Abstract string
	Reason   string
}

func (e *NotInstantiableError) Error() string {
	return "container: target [" + e.Abstract + "] is not instantiable: " + e.Reason
}

func (e *NotInstantiableError) Unwrap() error { return ErrNotInstantiable }

// InstantiationError wraps a failure while constructing a value: a
// constructor returning an error, arguments of the wrong Go type, or an
// Instance call that could not auto-instantiate its abstract.
type InstantiationError struct {
	Abstract string
	Kind     error // ErrAutoInstantiation or ErrNotInstantiable
	Err      error
}

func (e *InstantiationError) Error() string {
	msg := "container: cannot instantiate [" + e.Abstract + "]"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *InstantiationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// argTypeError reports an argument that the Go constructor cannot accept.
type argTypeError struct {
	index int
	param string
	want  string
	got   string
}

func (e argTypeError) Error() string {
	return "argument " + strconv.Itoa(e.index) + " [" + e.param + "]: cannot use " + e.got + " as " + e.want
}
