package variables

import (
	"fmt"
	"os"
	"strings"
)

const identifiers = "$@%"

type match struct {
	start      int
	end        int
	identifier byte
	body       string
	escaped    bool
}

// findVariable returns the first variable in s. An escaped match reports
// the position of the identifier with escaped set and no body.
func findVariable(s string) (match, bool) {
	for i := 0; i < len(s)-1; i++ {
		if strings.IndexByte(identifiers, s[i]) < 0 || s[i+1] != '{' {
			continue
		}
		if precedingBackslashes(s, i)%2 == 1 {
			return match{start: i, end: i + 1, identifier: s[i], escaped: true}, true
		}
		depth := 0
		for j := i + 2; j < len(s); j++ {
			switch s[j] {
			case '{':
				depth++
			case '}':
				if depth == 0 {
					return match{start: i, end: j, identifier: s[i], body: s[i+2 : j]}, true
				}
				depth--
			}
		}
		return match{}, false
	}
	return match{}, false
}

func precedingBackslashes(s string, i int) int {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n
}

// ReplaceString substitutes every variable in s with its string form.
// "\${x}" is kept as the literal "${x}".
func (v *Variables) ReplaceString(s string) (string, error) {
	var b strings.Builder
	for {
		m, ok := findVariable(s)
		if !ok {
			b.WriteString(s)
			return b.String(), nil
		}
		if m.escaped {
			b.WriteString(s[:m.start-1])
			b.WriteString(s[m.start : m.end+1])
			s = s[m.end+1:]
			continue
		}
		b.WriteString(s[:m.start])
		value, err := v.getMatch(m)
		if err != nil {
			return "", err
		}
		b.WriteString(Stringify(value))
		s = s[m.end+1:]
	}
}

// ReplaceScalar substitutes variables in value. A string that consists of a
// single variable is replaced by the variable's value as is; other strings are
// replaced by their string form. Lists and maps are replaced element wise.
func (v *Variables) ReplaceScalar(value any) (any, error) {
	switch val := value.(type) {
	case string:
		if m, ok := findVariable(val); ok && !m.escaped && m.start == 0 && m.end == len(val)-1 {
			return v.getMatch(m)
		}
		return v.ReplaceString(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			replaced, err := v.ReplaceScalar(item)
			if err != nil {
				return nil, err
			}
			out[i] = replaced
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			replaced, err := v.ReplaceScalar(item)
			if err != nil {
				return nil, err
			}
			out[k] = replaced
		}
		return out, nil
	default:
		return value, nil
	}
}

// ReplaceList substitutes variables in values. An item that is a single list
// variable ("@{x}") is expanded in place into the list's items.
func (v *Variables) ReplaceList(values []any) ([]any, error) {
	out := make([]any, 0, len(values))
	for _, item := range values {
		if s, ok := item.(string); ok {
			if m, ok := findVariable(s); ok && !m.escaped && m.identifier == '@' && m.start == 0 && m.end == len(s)-1 {
				list, err := v.getMatch(m)
				if err != nil {
					return nil, err
				}
				out = append(out, list.([]any)...)
				continue
			}
		}
		replaced, err := v.ReplaceScalar(item)
		if err != nil {
			return nil, err
		}
		out = append(out, replaced)
	}
	return out, nil
}

func (v *Variables) getMatch(m match) (any, error) {
	body := m.body
	if _, ok := findVariable(body); ok {
		resolved, err := v.ReplaceString(body)
		if err != nil {
			return nil, err
		}
		body = resolved
	}
	return v.Get(string(m.identifier) + "{" + body + "}")
}

func env(name string) (any, error) {
	envName, def, hasDefault := strings.Cut(base(name), "=")
	if value, ok := os.LookupEnv(envName); ok {
		return value, nil
	}
	if hasDefault {
		return def, nil
	}
	return nil, nonExistingEnv(name)
}

// Stringify returns the form a value takes when substituted into a string
func Stringify(value any) string {
	switch val := value.(type) {
	case nil:
		return "None"
	case string:
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// ContainsVariable reports whether s contains an unescaped variable
func ContainsVariable(s string) bool {
	for {
		m, ok := findVariable(s)
		if !ok {
			return false
		}
		if !m.escaped {
			return true
		}
		s = s[m.end+1:]
	}
}
