// Package variables implements the scoped variable store shared by suites,
// tests and user keywords, and variable substitution in keyword data.
package variables

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ethereum-optimism/infra/op-keyword/arguments"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

type entry struct {
	name      string
	value     any
	delayed   bool
	resolving bool
}

// Variables is one variable scope. Reads fall through to the parent scope,
// writes always go to this scope. Variables are kept in insertion order and
// names are compared ignoring case, spaces and underscores.
type Variables struct {
	store  *orderedmap.OrderedMap[string, *entry]
	parent *Variables
}

// New returns an empty root scope
func New() *Variables {
	return &Variables{store: orderedmap.New[string, *entry]()}
}

// NewChild returns an empty scope that reads through to v
func (v *Variables) NewChild() *Variables {
	child := New()
	child.parent = v
	return child
}

// Parent returns the scope this scope reads through to, or nil
func (v *Variables) Parent() *Variables {
	return v.parent
}

// Copy returns a scope with a copy of v's own variables and the same parent
func (v *Variables) Copy() *Variables {
	c := New()
	c.parent = v.parent
	for pair := v.store.Oldest(); pair != nil; pair = pair.Next() {
		e := *pair.Value
		c.store.Set(pair.Key, &e)
	}
	return c
}

// Update copies the own variables of other into v, overwriting existing ones
func (v *Variables) Update(other *Variables) {
	for pair := other.store.Oldest(); pair != nil; pair = pair.Next() {
		e := *pair.Value
		v.store.Set(pair.Key, &e)
	}
}

// Len returns the number of variables in this scope, excluding parents
func (v *Variables) Len() int {
	return v.store.Len()
}

// Names returns the decorated names of this scope's own variables in insertion order
func (v *Variables) Names() []string {
	names := make([]string, 0, v.store.Len())
	for pair := v.store.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Value.name)
	}
	return names
}

// Set binds name to value in this scope. name may be decorated ("${x}", "@{x}")
// or plain.
func (v *Variables) Set(name string, value any) {
	v.store.Set(key(name), &entry{name: decorate(name), value: value})
}

// Delete removes name from this scope
func (v *Variables) Delete(name string) {
	v.store.Delete(key(name))
}

// Has reports whether name resolves in this scope or any parent
func (v *Variables) Has(name string) bool {
	_, _, ok := v.lookup(key(name))
	return ok
}

// Get returns the value of the decorated variable name. A list variable
// ("@{x}") must hold a list; the returned value is then a []any.
func (v *Variables) Get(name string) (any, error) {
	if !isVariable(name) {
		return nil, invalidName(name)
	}
	if name[0] == '%' {
		return env(name)
	}

	value, err := v.getScalar(name)
	if err != nil {
		return nil, err
	}
	if name[0] == '@' {
		list, ok := toList(value)
		if !ok {
			return nil, notList(name)
		}
		return list, nil
	}
	return value, nil
}

func (v *Variables) getScalar(name string) (any, error) {
	e, owner, ok := v.lookup(key(name))
	if !ok {
		if value, ok := builtinValue(name); ok {
			return value, nil
		}
		return nil, nonExisting(name)
	}
	if e.delayed {
		if err := owner.resolve(e); err != nil {
			return nil, err
		}
	}
	if unset, ok := e.value.(arguments.Unset); ok {
		return nil, unset.Err()
	}
	return e.value, nil
}

func (v *Variables) lookup(k string) (*entry, *Variables, bool) {
	for scope := v; scope != nil; scope = scope.parent {
		if e, ok := scope.store.Get(k); ok {
			return e, scope, true
		}
	}
	return nil, nil, false
}

// SetFromTable adds the variables of a suite variable table to this scope.
// Values may reference other variables; they are resolved on first read or by
// ResolveDelayed.
func (v *Variables) SetFromTable(table []types.Variable) error {
	for _, variable := range table {
		if !isVariable(variable.Name) || variable.Name[0] == '%' {
			return invalidName(variable.Name)
		}
		v.store.Set(key(variable.Name), &entry{name: variable.Name, value: variable.Value, delayed: true})
	}
	return nil
}

// ResolveDelayed resolves every variable added by SetFromTable. Variables that
// cannot be resolved are removed and reported in the returned error.
func (v *Variables) ResolveDelayed() error {
	var errs []error
	var failed []string
	for pair := v.store.Oldest(); pair != nil; pair = pair.Next() {
		if !pair.Value.delayed {
			continue
		}
		if err := v.resolve(pair.Value); err != nil {
			errs = append(errs, fmt.Errorf("resolving variable '%s' failed: %w", pair.Value.name, err))
			failed = append(failed, pair.Key)
		}
	}
	for _, k := range failed {
		v.store.Delete(k)
	}
	return errors.Join(errs...)
}

func (v *Variables) resolve(e *entry) error {
	if e.resolving {
		return &VariableError{Message: fmt.Sprintf("Recursive variable definition '%s'.", e.name)}
	}
	e.resolving = true
	defer func() { e.resolving = false }()

	var (
		value any
		err   error
	)
	if e.name[0] == '@' {
		list, ok := toList(e.value)
		if !ok {
			list = []any{e.value}
		}
		value, err = v.ReplaceList(list)
	} else {
		value, err = v.ReplaceScalar(e.value)
	}
	if err != nil {
		return err
	}
	e.value = value
	e.delayed = false
	return nil
}

// AsMap returns this scope's own variables keyed by decorated name
func (v *Variables) AsMap() map[string]any {
	out := make(map[string]any, v.store.Len())
	for pair := v.store.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Value.name] = pair.Value.value
	}
	return out
}

func isVariable(name string) bool {
	if len(name) < 3 || name[1] != '{' || name[len(name)-1] != '}' {
		return false
	}
	return strings.ContainsRune("$@%", rune(name[0]))
}

func base(name string) string {
	if isVariable(name) {
		return name[2 : len(name)-1]
	}
	return name
}

func key(name string) string {
	return types.NormalizeName(base(name))
}

func decorate(name string) string {
	if isVariable(name) {
		return name
	}
	return "${" + name + "}"
}

// builtinValue returns the value of variables that exist without being set:
// numbers, booleans, None, EMPTY and SPACE.
func builtinValue(name string) (any, bool) {
	b := base(name)
	switch types.NormalizeName(b) {
	case "true":
		return true, true
	case "false":
		return false, true
	case "none", "null":
		return nil, true
	case "empty":
		if name[0] == '@' {
			return []any{}, true
		}
		return "", true
	case "space":
		return " ", true
	}
	if i, err := strconv.ParseInt(b, 0, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(b, 64); err == nil {
		return f, true
	}
	return nil, false
}

// toList converts slices and arrays to []any
func toList(value any) ([]any, bool) {
	if list, ok := value.([]any); ok {
		return list, true
	}
	if _, ok := value.(string); ok {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}
