package types

import (
	"fmt"
	"strings"
)

// SuiteModel is the static description of a suite as loaded from a suite file.
// Suites may contain tests and nested suites.
type SuiteModel struct {
	Name      string             `yaml:"name"`
	Doc       string             `yaml:"doc,omitempty"`
	Metadata  map[string]string  `yaml:"metadata,omitempty"`
	Source    string             `yaml:"-"`
	Libraries []LibraryImport    `yaml:"libraries,omitempty"`
	Variables []Variable         `yaml:"variables,omitempty"`
	Setup     *KeywordCall       `yaml:"setup,omitempty"`
	Teardown  *KeywordCall       `yaml:"teardown,omitempty"`
	Tests     []TestModel        `yaml:"tests,omitempty"`
	Suites    []SuiteModel       `yaml:"suites,omitempty"`
	Keywords  []UserKeywordModel `yaml:"keywords,omitempty"`
}

// TestModel is the static description of a single test
type TestModel struct {
	Name     string        `yaml:"name"`
	Doc      string        `yaml:"doc,omitempty"`
	Tags     []string      `yaml:"tags,omitempty"`
	Setup    *KeywordCall  `yaml:"setup,omitempty"`
	Teardown *KeywordCall  `yaml:"teardown,omitempty"`
	Timeout  string        `yaml:"timeout,omitempty"`
	Keywords []KeywordCall `yaml:"keywords"`
}

// KeywordCall is a single keyword invocation in a test, user keyword, setup or teardown.
// Assign lists the variables the return value is assigned to (e.g. ["${result}"]).
type KeywordCall struct {
	Name   string   `yaml:"name"`
	Args   []any    `yaml:"args,omitempty"`
	Assign []string `yaml:"assign,omitempty"`
}

// String returns the call in a compact, human readable form
func (k KeywordCall) String() string {
	var b strings.Builder
	for _, a := range k.Assign {
		b.WriteString(a)
		b.WriteString(" = ")
	}
	b.WriteString(k.Name)
	for _, arg := range k.Args {
		b.WriteString(fmt.Sprintf("  %v", arg))
	}
	return b.String()
}

// UserKeywordModel is a keyword implemented in suite data out of other keywords.
// Args uses the variable syntax: "${name}", "${name}=default", "@{rest}".
type UserKeywordModel struct {
	Name     string        `yaml:"name"`
	Doc      string        `yaml:"doc,omitempty"`
	Args     []string      `yaml:"args,omitempty"`
	Keywords []KeywordCall `yaml:"keywords"`
	Return   []string      `yaml:"return,omitempty"`
	Teardown *KeywordCall  `yaml:"teardown,omitempty"`
}

// LibraryImport names a keyword library to make available in a suite.
// When Remote is set the library is served by a remote keyword server at that URL.
type LibraryImport struct {
	Name   string `yaml:"name"`
	Remote string `yaml:"remote,omitempty"`
}

// Variable is one entry in a suite's variable table, e.g. {name: "${HOST}", value: "localhost"}
type Variable struct {
	Name  string `yaml:"name" toml:"name"`
	Value any    `yaml:"value" toml:"value"`
}

// TestCount returns the number of tests in the suite and all of its nested suites
func (s *SuiteModel) TestCount() int {
	count := len(s.Tests)
	for i := range s.Suites {
		count += s.Suites[i].TestCount()
	}
	return count
}
