// Package arguments normalizes keyword signatures into a single ArgumentSpec
// and splits call-time values into positional and named arguments.
package arguments

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Unbounded is the MaxArgs of a spec that accepts any number of trailing arguments
const Unbounded = math.MaxInt

// UnknownVararg is the vararg name of a dynamic spec without introspection
const UnknownVararg = "<unknown>"

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// ArgumentSpec is the canonical description of what a keyword accepts.
// Defaults are aligned to the trailing len(Defaults) entries of Names.
type ArgumentSpec struct {
	Name     string
	Names    []string
	Defaults []any
	Vararg   string
	MinArgs  int
	MaxArgs  int
}

// Signature describes one overload of a keyword implemented by several host functions
type Signature struct {
	Params   int
	Variadic bool
}

func newSpec(names []string, defaults []any, vararg string) ArgumentSpec {
	spec := ArgumentSpec{
		Names:    names,
		Defaults: defaults,
		Vararg:   vararg,
		MinArgs:  len(names) - len(defaults),
		MaxArgs:  len(names),
	}
	if vararg != "" {
		spec.MaxArgs = Unbounded
	}
	return spec
}

// HasVararg reports whether the spec collects trailing positional arguments
func (s ArgumentSpec) HasVararg() bool {
	return s.Vararg != ""
}

// MandatoryCount returns the number of leading arguments without defaults
func (s ArgumentSpec) MandatoryCount() int {
	return len(s.Names) - len(s.Defaults)
}

// Accepts reports whether a call with n arguments is within the spec's arity
func (s ArgumentSpec) Accepts(n int) bool {
	return n >= s.MinArgs && n <= s.MaxArgs
}

// CheckArity returns an ArgumentCountError if a call with n arguments is out of range
func (s ArgumentSpec) CheckArity(n int) error {
	if s.Accepts(n) {
		return nil
	}
	return &ArgumentCountError{Keyword: s.Name, Min: s.MinArgs, Max: s.MaxArgs, Got: n}
}

func (s ArgumentSpec) String() string {
	parts := make([]string, 0, len(s.Names)+1)
	mandatory := s.MandatoryCount()
	for i, name := range s.Names {
		if i < mandatory {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", name, s.Defaults[i-mandatory]))
	}
	if s.HasVararg() {
		parts = append(parts, "*"+s.Vararg)
	}
	if len(parts) == 0 && s.MaxArgs > 0 {
		return fmt.Sprintf("[%s]", expectedCount(s.MinArgs, s.MaxArgs))
	}
	return "[" + strings.Join(parts, " | ") + "]"
}

// FromFunc builds a spec for a Go function whose parameters are named by names.
// Go does not keep parameter names at runtime so they are declared next to the function;
// reflection supplies the arity. A leading context.Context parameter is implicit and
// excluded, as is the receiver of a method value. A variadic function collects into
// vararg, which defaults to "args".
func FromFunc(fn any, names []string, defaults []any, vararg string) (ArgumentSpec, error) {
	fnType := reflect.TypeOf(fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return ArgumentSpec{}, specErrorf("expected a function, got %T", fn)
	}

	params := fnType.NumIn()
	if params > 0 && fnType.In(0) == contextType {
		params--
	}
	fixed := params
	if fnType.IsVariadic() {
		fixed--
		if vararg == "" {
			vararg = "args"
		}
	} else if vararg != "" {
		return ArgumentSpec{}, specErrorf("vararg '%s' declared for a non-variadic function", vararg)
	}

	if len(names) != fixed {
		return ArgumentSpec{}, specErrorf("%d argument names declared for a function taking %d arguments", len(names), fixed)
	}
	if len(defaults) > len(names) {
		return ArgumentSpec{}, specErrorf("%d defaults declared for %d arguments", len(defaults), len(names))
	}
	if err := checkUnique(names, vararg); err != nil {
		return ArgumentSpec{}, err
	}
	return newSpec(names, defaults, vararg), nil
}

// SignatureOf returns the overload signature of a Go function
func SignatureOf(fn any) (Signature, error) {
	fnType := reflect.TypeOf(fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return Signature{}, specErrorf("expected a function, got %T", fn)
	}
	params := fnType.NumIn()
	if params > 0 && fnType.In(0) == contextType {
		params--
	}
	return Signature{Params: params, Variadic: fnType.IsVariadic()}, nil
}

// FromOverloads builds a spec for a keyword implemented by several signatures.
// The result only bounds the argument count between the smallest and largest
// signature; it does not select an overload. Calls inside the band are accepted
// here and may still be rejected when dispatched.
func FromOverloads(sigs ...Signature) (ArgumentSpec, error) {
	if len(sigs) == 0 {
		return ArgumentSpec{}, specErrorf("no signatures given")
	}
	if len(sigs) == 1 {
		sig := sigs[0]
		spec := ArgumentSpec{Names: []string{}, MinArgs: sig.Params, MaxArgs: sig.Params}
		if sig.Variadic && sig.Params > 0 {
			spec.MinArgs = sig.Params - 1
			spec.MaxArgs = Unbounded
		}
		return spec, nil
	}

	min, max := sigs[0].Params, sigs[0].Params
	for _, sig := range sigs[1:] {
		if sig.Params < min {
			min = sig.Params
		}
		if sig.Params > max {
			max = sig.Params
		}
	}
	return ArgumentSpec{Names: []string{}, MinArgs: min, MaxArgs: max}, nil
}

// FromTokens builds a spec from a dynamic keyword's token list such as
// ["arg", "opt=default", "*rest"]. A nil list means the library offers no
// introspection and any call shape is accepted.
func FromTokens(tokens []string) (ArgumentSpec, error) {
	if tokens == nil {
		return newSpec([]string{}, nil, UnknownVararg), nil
	}

	names := []string{}
	var defaults []any
	vararg := ""
	for _, token := range tokens {
		if vararg != "" {
			return ArgumentSpec{}, specErrorf("vararg '*%s' must be the last argument", vararg)
		}
		if strings.HasPrefix(token, "*") {
			vararg = token[1:]
			if vararg == "" {
				return ArgumentSpec{}, specErrorf("vararg without a name")
			}
			continue
		}
		if name, def, ok := strings.Cut(token, "="); ok {
			names = append(names, name)
			defaults = append(defaults, def)
			continue
		}
		if len(defaults) > 0 {
			return ArgumentSpec{}, specErrorf("non-default argument '%s' after default arguments", token)
		}
		names = append(names, token)
	}
	if err := checkUnique(names, vararg); err != nil {
		return ArgumentSpec{}, err
	}
	return newSpec(names, defaults, vararg), nil
}

// FromUserKeyword builds a spec from user keyword argument declarations such as
// ["${arg}", "${opt}=default", "@{rest}"]. Names stay in their decorated form.
func FromUserKeyword(tokens []string) (ArgumentSpec, error) {
	names := []string{}
	var defaults []any
	vararg := ""
	for _, token := range tokens {
		if vararg != "" {
			return ArgumentSpec{}, specErrorf("list variable '%s' must be the last argument", vararg)
		}
		if isDecorated(token, '@') {
			vararg = token
			continue
		}
		name, def, hasDefault := strings.Cut(token, "=")
		if !isDecorated(name, '$') {
			return ArgumentSpec{}, specErrorf("invalid argument '%s'", token)
		}
		if hasDefault {
			names = append(names, name)
			defaults = append(defaults, def)
			continue
		}
		if len(defaults) > 0 {
			return ArgumentSpec{}, specErrorf("non-default argument '%s' after default arguments", token)
		}
		names = append(names, name)
	}
	if err := checkUnique(names, vararg); err != nil {
		return ArgumentSpec{}, err
	}
	return newSpec(names, defaults, vararg), nil
}

func isDecorated(name string, prefix byte) bool {
	return len(name) > 3 && name[0] == prefix && name[1] == '{' && name[len(name)-1] == '}'
}

func checkUnique(names []string, vararg string) error {
	seen := make(map[string]bool, len(names)+1)
	for _, name := range append(append([]string{}, names...), vararg) {
		if name == "" {
			continue
		}
		if seen[name] {
			return specErrorf("argument '%s' defined multiple times", name)
		}
		seen[name] = true
	}
	return nil
}
