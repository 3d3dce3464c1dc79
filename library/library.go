// Package library adapts Go functions into keyword sources.
package library

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/ethereum-optimism/infra/op-keyword/arguments"
	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type handler struct {
	name      string
	spec      arguments.ArgumentSpec
	fns       []reflect.Value
	overloads []arguments.Signature
}

// Library is a keyword source backed by Go functions. A keyword is either a
// single function with declared argument names, or an overload set of functions
// that differ by arity.
type Library struct {
	name     string
	order    []string
	handlers map[string]*handler
}

var _ keyword.Source = (*Library)(nil)

// New creates an empty library
func New(name string) *Library {
	return &Library{
		name:     name,
		handlers: make(map[string]*handler),
	}
}

// Name returns the library name
func (l *Library) Name() string {
	return l.name
}

// KeywordNames returns the registered keyword names in registration order
func (l *Library) KeywordNames() []string {
	names := make([]string, 0, len(l.order))
	for _, k := range l.order {
		names = append(names, l.handlers[k].name)
	}
	return names
}

// Spec returns the argument spec of a keyword
func (l *Library) Spec(name string) (arguments.ArgumentSpec, bool) {
	h, ok := l.handlers[types.NormalizeName(name)]
	if !ok {
		return arguments.ArgumentSpec{}, false
	}
	return h.spec, true
}

// Register adds a keyword implemented by fn. names declares the parameter names
// after an optional leading context.Context, defaults the values of the trailing
// optional parameters and vararg the name of a variadic parameter.
func (l *Library) Register(name string, fn any, names []string, defaults []any, vararg string) error {
	spec, err := arguments.FromFunc(fn, names, defaults, vararg)
	if err != nil {
		return fmt.Errorf("keyword '%s': %w", name, err)
	}
	if err := checkResults(reflect.TypeOf(fn)); err != nil {
		return fmt.Errorf("keyword '%s': %w", name, err)
	}
	spec.Name = name
	return l.add(&handler{name: name, spec: spec, fns: []reflect.Value{reflect.ValueOf(fn)}})
}

// RegisterOverloads adds a keyword implemented by several functions. The call is
// dispatched to the first function whose arity accepts the argument count.
func (l *Library) RegisterOverloads(name string, fns ...any) error {
	h := &handler{name: name}
	for _, fn := range fns {
		sig, err := arguments.SignatureOf(fn)
		if err != nil {
			return fmt.Errorf("keyword '%s': %w", name, err)
		}
		if err := checkResults(reflect.TypeOf(fn)); err != nil {
			return fmt.Errorf("keyword '%s': %w", name, err)
		}
		h.fns = append(h.fns, reflect.ValueOf(fn))
		h.overloads = append(h.overloads, sig)
	}
	spec, err := arguments.FromOverloads(h.overloads...)
	if err != nil {
		return fmt.Errorf("keyword '%s': %w", name, err)
	}
	spec.Name = name
	h.spec = spec
	return l.add(h)
}

// MustRegister is like Register but panics on error
func (l *Library) MustRegister(name string, fn any, names []string, defaults []any, vararg string) *Library {
	if err := l.Register(name, fn, names, defaults, vararg); err != nil {
		panic(err)
	}
	return l
}

func (l *Library) add(h *handler) error {
	k := types.NormalizeName(h.name)
	if _, exists := l.handlers[k]; exists {
		return fmt.Errorf("keyword '%s' registered twice in library '%s'", h.name, l.name)
	}
	l.handlers[k] = h
	l.order = append(l.order, k)
	return nil
}

// Invoke runs a keyword. Named values are mapped onto the declared parameters,
// missing optional parameters get their defaults and string values are
// converted to the parameter types. A panicking keyword fails like one that
// returned an error.
func (l *Library) Invoke(ctx context.Context, name string, positional []any, named map[string]any) (result any, err error) {
	h, ok := l.handlers[types.NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("no keyword with name '%s' in library '%s'", name, l.name)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("keyword '%s' panicked: %v\n%s", h.name, r, debug.Stack())
			result = nil
		}
	}()

	fn, args, err := h.bind(positional, named)
	if err != nil {
		return nil, err
	}
	in, err := buildCall(ctx, fn, args)
	if err != nil {
		return nil, err
	}
	return splitResults(fn.Call(in))
}

func (h *handler) bind(positional []any, named map[string]any) (reflect.Value, []any, error) {
	if len(h.overloads) > 0 {
		if len(named) > 0 {
			return reflect.Value{}, nil, fmt.Errorf("keyword '%s' does not accept named arguments", h.name)
		}
		for i, sig := range h.overloads {
			if sig.Params == len(positional) || (sig.Variadic && len(positional) >= sig.Params-1) {
				return h.fns[i], positional, nil
			}
		}
		return reflect.Value{}, nil, &arguments.ArgumentCountError{
			Keyword: h.name, Min: h.spec.MinArgs, Max: h.spec.MaxArgs, Got: len(positional),
		}
	}

	spec := h.spec
	if len(positional) > len(spec.Names) && !spec.HasVararg() {
		return reflect.Value{}, nil, spec.CheckArity(len(positional))
	}
	slots := make([]any, len(spec.Names))
	filled := make([]bool, len(spec.Names))
	var varargs []any
	for i, value := range positional {
		if i < len(slots) {
			slots[i] = value
			filled[i] = true
			continue
		}
		varargs = append(varargs, value)
	}
	for argName, value := range named {
		idx := indexOf(spec.Names, argName)
		if idx < 0 {
			return reflect.Value{}, nil, fmt.Errorf("Keyword '%s' got an unexpected argument '%s'.", h.name, argName)
		}
		if filled[idx] {
			return reflect.Value{}, nil, fmt.Errorf("Keyword '%s' got multiple values for argument '%s'.", h.name, argName)
		}
		slots[idx] = value
		filled[idx] = true
	}
	mandatory := spec.MandatoryCount()
	for i := range slots {
		if filled[i] {
			continue
		}
		if i < mandatory {
			return reflect.Value{}, nil, fmt.Errorf("Keyword '%s' missing value for argument '%s'.", h.name, spec.Names[i])
		}
		slots[i] = spec.Defaults[i-mandatory]
	}
	return h.fns[0], append(slots, varargs...), nil
}

func buildCall(ctx context.Context, fn reflect.Value, args []any) ([]reflect.Value, error) {
	fnType := fn.Type()
	var in []reflect.Value
	offset := 0
	if fnType.NumIn() > 0 && fnType.In(0) == contextType {
		in = append(in, reflect.ValueOf(ctx))
		offset = 1
	}
	fixed := fnType.NumIn() - offset
	if fnType.IsVariadic() {
		fixed--
	}
	for i, arg := range args {
		var paramType reflect.Type
		if i < fixed {
			paramType = fnType.In(i + offset)
		} else {
			paramType = fnType.In(fnType.NumIn() - 1).Elem()
		}
		value, err := coerce(arg, paramType)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		in = append(in, value)
	}
	return in, nil
}

func checkResults(fnType reflect.Type) error {
	switch fnType.NumOut() {
	case 0:
		return nil
	case 1:
		return nil
	case 2:
		if fnType.Out(1) != errorType {
			return errors.New("second return value must be an error")
		}
		return nil
	default:
		return errors.New("keywords return at most a value and an error")
	}
}

func splitResults(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		if err := asError(out[1]); err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
