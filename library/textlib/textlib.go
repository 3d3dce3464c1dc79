// Package textlib provides the String keyword library
package textlib

import (
	"strings"

	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/library"
)

// Name is the name the library is imported with
const Name = "String"

// New returns the String library
func New() (*library.Library, error) {
	lib := library.New(Name)
	registrations := []struct {
		name     string
		fn       any
		names    []string
		defaults []any
		vararg   string
	}{
		{"Convert To Upper Case", strings.ToUpper, []string{"string"}, nil, ""},
		{"Convert To Lower Case", strings.ToLower, []string{"string"}, nil, ""},
		{"Strip String", strings.TrimSpace, []string{"string"}, nil, ""},
		{"Replace String", replaceString, []string{"string", "search_for", "replace_with", "count"}, []any{-1}, ""},
		{"Split String", splitString, []string{"string", "separator", "max_split"}, []any{nil, -1}, ""},
		{"Fetch From Left", fetchFromLeft, []string{"string", "marker"}, nil, ""},
		{"Fetch From Right", fetchFromRight, []string{"string", "marker"}, nil, ""},
		{"Should Start With", shouldStartWith, []string{"string", "prefix", "msg"}, []any{""}, ""},
	}
	for _, r := range registrations {
		if err := lib.Register(r.name, r.fn, r.names, r.defaults, r.vararg); err != nil {
			return nil, err
		}
	}
	if err := lib.RegisterOverloads("Get Substring", substringFrom, substring); err != nil {
		return nil, err
	}
	return lib, nil
}

func replaceString(s, search, replace string, count int) string {
	return strings.Replace(s, search, replace, count)
}

// splitString splits on whitespace when no separator is given. A negative
// max_split splits on every separator.
func splitString(s string, separator any, maxSplit int) []any {
	var parts []string
	sep, ok := separator.(string)
	switch {
	case !ok || sep == "":
		parts = strings.Fields(s)
		if maxSplit >= 0 && len(parts) > maxSplit+1 {
			rest := strings.Join(parts[maxSplit:], " ")
			parts = append(parts[:maxSplit], rest)
		}
	case maxSplit < 0:
		parts = strings.Split(s, sep)
	default:
		parts = strings.SplitN(s, sep, maxSplit+1)
	}
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

func fetchFromLeft(s, marker string) string {
	before, _, _ := strings.Cut(s, marker)
	return before
}

func fetchFromRight(s, marker string) string {
	idx := strings.LastIndex(s, marker)
	if idx < 0 {
		return s
	}
	return s[idx+len(marker):]
}

func shouldStartWith(s, prefix, msg string) error {
	if strings.HasPrefix(s, prefix) {
		return nil
	}
	if msg != "" {
		return keyword.Fail("%s", msg)
	}
	return keyword.Fail("'%s' does not start with '%s'", s, prefix)
}

func substringFrom(s string, start int) string {
	return substring(s, start, len(s))
}

// substring returns s[start:end]; negative indexes count from the end
func substring(s string, start, end int) string {
	n := len(s)
	clamp := func(i int) int {
		if i < 0 {
			i += n
		}
		return max(0, min(i, n))
	}
	start, end = clamp(start), clamp(end)
	if start >= end {
		return ""
	}
	return s[start:end]
}
