package arguments

import "strings"

// Style selects how named arguments are recognized
type Style int

const (
	// LibraryStyle matches "name=value" against the literal declared names
	LibraryStyle Style = iota
	// UserKeywordStyle matches "name=value" against decorated names such as "${name}"
	UserKeywordStyle
)

// Resolved holds a call split into positional and named values.
// Named keys are literal names for libraries and "${name}" for user keywords.
type Resolved struct {
	Positional []any
	Named      map[string]any
}

// Resolve checks the arity of values against spec and splits them into positional
// and named arguments. The mandatory prefix is always positional. The optional
// tail is scanned right to left and a string "name=value" is named only while no
// positional value has been seen, so named arguments never precede positional ones.
// A value of the form "name\=value" is an escaped positional value.
func Resolve(spec ArgumentSpec, values []any, style Style) (Resolved, error) {
	if err := spec.CheckArity(len(values)); err != nil {
		return Resolved{}, err
	}

	mandatory := spec.MandatoryCount()
	if mandatory > len(values) {
		mandatory = len(values)
	}
	positional := append([]any{}, values[:mandatory]...)
	named := make(map[string]any)

	optional := values[mandatory:]
	tail := make([]any, 0, len(optional))
	seenPositional := false
	for i := len(optional) - 1; i >= 0; i-- {
		value := optional[i]
		if !seenPositional {
			if name, v, ok := namedArgument(spec, value, style); ok {
				if _, dup := named[name]; dup {
					return Resolved{}, &DuplicateNamedArgumentError{Name: name}
				}
				named[name] = v
				continue
			}
		}
		seenPositional = true
		tail = append(tail, unescapePositional(spec, value, style))
	}
	for i := len(tail) - 1; i >= 0; i-- {
		positional = append(positional, tail[i])
	}
	return Resolved{Positional: positional, Named: named}, nil
}

func namedArgument(spec ArgumentSpec, value any, style Style) (string, string, bool) {
	s, ok := value.(string)
	if !ok {
		return "", "", false
	}
	name, v, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", false
	}
	key := argumentKey(name, style)
	if !isArgumentName(spec, key) {
		return "", "", false
	}
	return key, v, true
}

func unescapePositional(spec ArgumentSpec, value any, style Style) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	name, _, ok := strings.Cut(s, "=")
	if !ok || !strings.HasSuffix(name, `\`) {
		return value
	}
	if !isArgumentName(spec, argumentKey(strings.TrimSuffix(name, `\`), style)) {
		return value
	}
	return strings.ReplaceAll(s, `\=`, "=")
}

func argumentKey(name string, style Style) string {
	if style == UserKeywordStyle {
		return "${" + name + "}"
	}
	return name
}

func isArgumentName(spec ArgumentSpec, key string) bool {
	for _, name := range spec.Names {
		if name == key {
			return true
		}
	}
	return false
}
