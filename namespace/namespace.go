// Package namespace provides the per-suite view of keywords and variables.
package namespace

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ethereum-optimism/infra/op-keyword/arguments"
	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/types"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

// BuiltInName is the name of the library imported into every namespace
const BuiltInName = "BuiltIn"

const handlerCacheSize = 256

// ErrNoKeywordScope is returned when a user keyword scope is ended that was never started
var ErrNoKeywordScope = errors.New("no user keyword scope to end")

// UserKeyword is a keyword implemented in suite data
type UserKeyword struct {
	Model     types.UserKeywordModel
	Arguments arguments.UserKeywordArguments
	// Err is set when the keyword's argument declaration is invalid.
	// The keyword fails with it whenever it is used.
	Err error
}

// Handler is a resolved keyword ready to be run
type Handler struct {
	// Name is the full name of the keyword, e.g. "BuiltIn.Log"
	Name string
	// Library is the name of the source, empty for user keywords
	Library     string
	Source      keyword.Source
	UserKeyword *UserKeyword
	Spec        arguments.ArgumentSpec
}

// IsUserKeyword reports whether the handler runs a user keyword
func (h Handler) IsUserKeyword() bool {
	return h.UserKeyword != nil
}

// Namespace holds the keywords and variable scopes of one suite.
// Variable scopes nest as suite, test and user keyword scopes.
type Namespace struct {
	Suite     *types.SuiteResult
	Variables *variables.Variables
	// Test is the result of the running test, nil outside tests
	Test *types.TestResult

	test         *variables.Variables
	keywordScope *arraystack.Stack
	userKeywords map[string]*UserKeyword
	libraries    []keyword.Source
	cache        *lru.Cache[string, Handler]
}

// New creates the namespace of a suite. vars is the suite variable scope;
// libraries are searched in the given order.
func New(suite *types.SuiteResult, vars *variables.Variables, userKeywords []types.UserKeywordModel, libraries ...keyword.Source) *Namespace {
	cache, err := lru.New[string, Handler](handlerCacheSize)
	if err != nil {
		panic(err)
	}
	ns := &Namespace{
		Suite:        suite,
		Variables:    vars,
		keywordScope: arraystack.New(),
		userKeywords: make(map[string]*UserKeyword, len(userKeywords)),
		libraries:    libraries,
		cache:        cache,
	}
	for _, model := range userKeywords {
		uk := &UserKeyword{Model: model}
		spec, err := arguments.FromUserKeyword(model.Args)
		if err != nil {
			uk.Err = fmt.Errorf("Invalid arguments for keyword '%s': %w", model.Name, err)
		} else {
			spec.Name = model.Name
			uk.Arguments = arguments.NewUserKeywordArguments(spec)
		}
		ns.userKeywords[types.NormalizeName(model.Name)] = uk
	}
	return ns
}

// Libraries returns the imported keyword sources in search order
func (n *Namespace) Libraries() []keyword.Source {
	return append([]keyword.Source(nil), n.libraries...)
}

// Library returns the imported source with the given name
func (n *Namespace) Library(name string) (keyword.Source, bool) {
	for _, lib := range n.libraries {
		if types.NormalizeName(lib.Name()) == types.NormalizeName(name) {
			return lib, true
		}
	}
	return nil, false
}

// AddLibrary appends a keyword source to the search order
func (n *Namespace) AddLibrary(lib keyword.Source) {
	n.libraries = append(n.libraries, lib)
	n.cache.Purge()
}

// Current returns the innermost active variable scope
func (n *Namespace) Current() *variables.Variables {
	if top, ok := n.keywordScope.Peek(); ok {
		return top.(*variables.Variables)
	}
	if n.test != nil {
		return n.test
	}
	return n.Variables
}

// TestVariables returns the scope of the running test, or nil
func (n *Namespace) TestVariables() *variables.Variables {
	return n.test
}

// StartTest opens the variable scope of test
func (n *Namespace) StartTest(test *types.TestResult) {
	n.Test = test
	n.test = n.Variables.NewChild()
	n.keywordScope.Clear()
}

// EndTest discards the variable scope of the running test
func (n *Namespace) EndTest() {
	n.Test = nil
	n.test = nil
	n.keywordScope.Clear()
}

// StartUserKeyword opens a user keyword scope. It sees suite and test
// variables but not the local variables of the calling keyword.
func (n *Namespace) StartUserKeyword() *variables.Variables {
	parent := n.Variables
	if n.test != nil {
		parent = n.test
	}
	scope := parent.NewChild()
	n.keywordScope.Push(scope)
	return scope
}

// EndUserKeyword closes the innermost user keyword scope
func (n *Namespace) EndUserKeyword() error {
	if _, ok := n.keywordScope.Pop(); !ok {
		return ErrNoKeywordScope
	}
	return nil
}

// Handler finds the keyword called name. A "Library.Keyword" name selects the
// library explicitly. Otherwise the suite's own user keywords are searched
// before the libraries in import order.
func (n *Namespace) Handler(name string) (Handler, error) {
	key := types.NormalizeName(name)
	if h, ok := n.cache.Get(key); ok {
		return h, nil
	}
	h, err := n.findHandler(name)
	if err != nil {
		return Handler{}, err
	}
	n.cache.Add(key, h)
	return h, nil
}

func (n *Namespace) findHandler(name string) (Handler, error) {
	if name == "" {
		return Handler{}, keyword.Fail("Keyword name cannot be empty.")
	}
	if h, ok := n.fullNameHandler(name); ok {
		return h, nil
	}
	if uk, ok := n.userKeywords[types.NormalizeName(name)]; ok {
		h := Handler{Name: uk.Model.Name, UserKeyword: uk}
		if uk.Err == nil {
			h.Spec = uk.Arguments.Spec()
		}
		return h, nil
	}

	var found []Handler
	for _, lib := range n.libraries {
		if spec, ok := lib.Spec(name); ok {
			found = append(found, libraryHandler(lib, spec))
		}
	}
	switch len(found) {
	case 0:
		return Handler{}, keyword.Fail("No keyword with name '%s' found.", name)
	case 1:
		return found[0], nil
	}
	if h, ok := preferCustom(found); ok {
		return h, nil
	}
	names := make([]string, 0, len(found))
	for _, h := range found {
		names = append(names, "'"+h.Name+"'")
	}
	sort.Strings(names)
	return Handler{}, keyword.Fail("Multiple keywords with name '%s' found.\nGive the full name of the keyword you want to use.\nFound: %s",
		name, strings.Join(names, " and "))
}

func (n *Namespace) fullNameHandler(name string) (Handler, bool) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return Handler{}, false
	}
	lib, ok := n.Library(name[:idx])
	if !ok {
		return Handler{}, false
	}
	spec, ok := lib.Spec(name[idx+1:])
	if !ok {
		return Handler{}, false
	}
	return libraryHandler(lib, spec), true
}

// preferCustom resolves a conflict between BuiltIn and exactly one other library in favour of the other
func preferCustom(found []Handler) (Handler, bool) {
	if len(found) != 2 {
		return Handler{}, false
	}
	switch BuiltInName {
	case found[0].Library:
		return found[1], true
	case found[1].Library:
		return found[0], true
	}
	return Handler{}, false
}

func libraryHandler(lib keyword.Source, spec arguments.ArgumentSpec) Handler {
	return Handler{
		Name:    lib.Name() + "." + spec.Name,
		Library: lib.Name(),
		Source:  lib,
		Spec:    spec,
	}
}
