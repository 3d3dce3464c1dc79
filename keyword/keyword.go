// Package keyword defines the capability every keyword source provides to the
// runner and the taxonomy of keyword failures.
package keyword

import (
	"context"

	"github.com/ethereum-optimism/infra/op-keyword/arguments"
)

// Source is a set of keywords the runner can look up and invoke. Libraries
// written in Go, dynamic libraries and remote libraries all implement it.
type Source interface {
	// Name is the name the source was imported with
	Name() string
	// KeywordNames lists the keywords the source provides
	KeywordNames() []string
	// Spec returns the argument spec of a keyword, or false if the source has no such keyword
	Spec(name string) (arguments.ArgumentSpec, bool)
	// Invoke runs a keyword with already resolved arguments
	Invoke(ctx context.Context, name string, positional []any, named map[string]any) (any, error)
}
