package library

import (
	"context"
	"fmt"

	"github.com/ethereum-optimism/infra/op-keyword/arguments"
	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

// DynamicLibrary is a library that reports its keywords and their argument
// tokens at runtime and runs keywords by name. KeywordArguments returns nil when
// the library cannot describe a keyword's arguments.
type DynamicLibrary interface {
	KeywordNames() []string
	KeywordArguments(name string) []string
	RunKeyword(ctx context.Context, name string, args []any, named map[string]any) (any, error)
}

// Dynamic adapts a DynamicLibrary into a keyword source. Argument specs are
// built once when the library is created.
type Dynamic struct {
	name  string
	lib   DynamicLibrary
	names []string
	specs map[string]arguments.ArgumentSpec
}

var _ keyword.Source = (*Dynamic)(nil)

// NewDynamic queries lib for its keywords and their arguments
func NewDynamic(name string, lib DynamicLibrary) (*Dynamic, error) {
	d := &Dynamic{
		name:  name,
		lib:   lib,
		specs: make(map[string]arguments.ArgumentSpec),
	}
	for _, kw := range lib.KeywordNames() {
		spec, err := arguments.FromTokens(lib.KeywordArguments(kw))
		if err != nil {
			return nil, fmt.Errorf("keyword '%s' in library '%s': %w", kw, name, err)
		}
		spec.Name = kw
		d.names = append(d.names, kw)
		d.specs[types.NormalizeName(kw)] = spec
	}
	return d, nil
}

func (d *Dynamic) Name() string {
	return d.name
}

func (d *Dynamic) KeywordNames() []string {
	return append([]string(nil), d.names...)
}

func (d *Dynamic) Spec(name string) (arguments.ArgumentSpec, bool) {
	spec, ok := d.specs[types.NormalizeName(name)]
	return spec, ok
}

// Invoke runs the keyword through the library using its reported name
func (d *Dynamic) Invoke(ctx context.Context, name string, positional []any, named map[string]any) (result any, err error) {
	spec, ok := d.Spec(name)
	if !ok {
		return nil, fmt.Errorf("no keyword with name '%s' in library '%s'", name, d.name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("keyword '%s' panicked: %v", spec.Name, r)
			result = nil
		}
	}()
	return d.lib.RunKeyword(ctx, spec.Name, positional, named)
}
