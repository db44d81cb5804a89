package container

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// Param describes one constructor parameter.
//
// Type names the service the parameter needs (usually a TypeKey). An empty
// Type marks a primitive: it can only be satisfied by an override, a
// contextual "$name" binding or its default.
type Param struct {
	Name       string
	Type       string
	Nullable   bool
	HasDefault bool
	Default    any
}

// Arg starts a parameter description by name.
//
//	container.Constructor(NewMailer, container.Arg("transport"), container.Arg("retries").WithDefault(3))
func Arg(name string) Param { return Param{Name: name} }

// Optional marks the parameter as accepting nil when its type cannot be
// resolved.
func (p Param) Optional() Param { p.Nullable = true; return p }

// WithDefault sets the value used when nothing else satisfies the parameter.
func (p Param) WithDefault(v any) Param { p.HasDefault = true; p.Default = v; return p }

// As overrides the inferred service type, e.g. to depend on a named binding
// instead of the Go type.
func (p Param) As(abstract string) Param { p.Type = abstract; return p }

// Class is the container's view of a buildable type: its name, its ordered
// constructor parameters and a function that invokes the constructor with
// positional arguments.
//
// Go has no runtime access to parameter names, so classes are described
// explicitly, by hand or with Constructor which infers the types.
type Class struct {
	Name     string
	Params   []Param
	Abstract bool
	New      func(args []any) (any, error)
}

// Interface returns an abstract class for the interface type T. Registering
// it lets the container report ErrNotInstantiable instead of "unknown" when
// T is requested without a binding.
func Interface[T any]() *Class {
	return &Class{Name: TypeKeyOf(reflect.TypeFor[T]()), Abstract: true}
}

var errorType = reflect.TypeFor[error]()

// Constructor describes a Go constructor function. The class is named after
// the first result's TypeKey; params supply names, nullability and defaults
// in declaration order, and any Type left empty is inferred from the Go
// parameter type.
//
//	func NewNotifier(m Mailer, from string) *Notifier
//
//	cls, err := container.Constructor(NewNotifier,
//	    container.Arg("mailer"),
//	    container.Arg("from").WithDefault("noreply@example.com"),
//	)
func Constructor(fn any, params ...Param) (*Class, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: constructor must be a function, got %s", ErrInvalidConcrete, ft)
	}
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic constructor %s", ErrInvalidConcrete, ft)
	}
	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("%w: constructor must return T or (T, error), got %s", ErrInvalidConcrete, ft)
	}
	if len(params) > ft.NumIn() {
		return nil, fmt.Errorf("%w: %d params described for %d arguments of %s",
			ErrInvalidConcrete, len(params), ft.NumIn(), ft)
	}

	out := make([]Param, ft.NumIn())
	in := make([]reflect.Type, ft.NumIn())
	for i := range out {
		in[i] = ft.In(i)
		if i < len(params) {
			out[i] = params[i]
		}
		if out[i].Name == "" {
			out[i].Name = "arg" + strconv.Itoa(i)
		}
		if out[i].Type == "" {
			out[i].Type = serviceType(in[i])
		}
	}

	name := TypeKeyOf(ft.Out(0))
	call := func(args []any) (any, error) {
		values := make([]reflect.Value, len(args))
		for i, arg := range args {
			v, err := argValue(arg, in[i])
			if err != nil {
				return nil, argTypeError{index: i, param: out[i].Name, want: in[i].String(), got: describe(arg)}
			}
			values[i] = v
		}
		results := fv.Call(values)
		if len(results) == 2 && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	}

	return &Class{Name: name, Params: out, New: call}, nil
}

// MustConstructor is Constructor that panics on an invalid function.
func MustConstructor(fn any, params ...Param) *Class {
	cls, err := Constructor(fn, params...)
	if err != nil {
		panic(err)
	}
	return cls
}

// serviceType returns the abstract a Go parameter type resolves to, or ""
// for primitives.
func serviceType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return ""
		}
		return TypeKeyOf(t)
	case reflect.Pointer, reflect.Struct:
		return TypeKeyOf(t)
	}
	return ""
}

func argValue(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, errors.New("nil")
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if numeric(v.Kind()) && numeric(t.Kind()) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, errors.New("type mismatch")
}

func numeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

func describe(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key. Pass a typed nil pointer to name an interface.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "example.com/app.UserRepository"
func TypeKey(v any) string {
	if v == nil {
		return ""
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	return TypeKeyOf(t)
}

// TypeKeyOf is TypeKey for a reflect.Type. Pointers are named after their
// element so *Mailer and Mailer share a key. Unnamed types yield "".
func TypeKeyOf(t reflect.Type) string {
	t = deref(t)
	if t.Name() == "" {
		return ""
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
