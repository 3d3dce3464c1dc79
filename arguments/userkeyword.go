package arguments

// Scope is the part of a variable scope that user keyword arguments are bound into
type Scope interface {
	Set(name string, value any)
	ReplaceScalar(value any) (any, error)
}

// Unset marks a mandatory user keyword argument slot that no call value filled.
// It is stored in the variable scope as is; reading it yields a MissingArgumentError.
type Unset struct {
	Name string
}

// Err returns the error reported when the slot is read
func (u Unset) Err() error {
	return &MissingArgumentError{Name: u.Name}
}

// IsUnset reports whether value is an unfilled mandatory slot
func IsUnset(value any) bool {
	_, ok := value.(Unset)
	return ok
}

// UserKeywordArguments binds call values to the arguments of a user keyword
type UserKeywordArguments struct {
	spec ArgumentSpec
}

// NewUserKeywordArguments returns the binder for a spec built with FromUserKeyword
func NewUserKeywordArguments(spec ArgumentSpec) UserKeywordArguments {
	return UserKeywordArguments{spec: spec}
}

// Spec returns the underlying argument spec
func (u UserKeywordArguments) Spec() ArgumentSpec {
	return u.spec
}

// SetTo binds values into scope. Values beyond the declared names are collected
// into the list variable when there is one. Defaults are variable substituted in
// scope before any binding is made. Nothing is bound if an error is returned.
func (u UserKeywordArguments) SetTo(scope Scope, values []any) error {
	names := u.spec.Names
	mandatory := u.spec.MandatoryCount()

	template := make([]any, len(names))
	for i := 0; i < mandatory; i++ {
		template[i] = Unset{Name: names[i]}
	}
	for i, def := range u.spec.Defaults {
		value, err := scope.ReplaceScalar(def)
		if err != nil {
			return err
		}
		template[mandatory+i] = value
	}

	var varargs []any
	if u.spec.HasVararg() {
		varargs = []any{}
		if len(values) > len(names) {
			varargs = append(varargs, values[len(names):]...)
			values = values[:len(names)]
		}
	}

	resolved, err := Resolve(u.spec, values, UserKeywordStyle)
	if err != nil {
		return err
	}
	for name, value := range resolved.Named {
		template[indexOf(names, name)] = value
	}
	for i, value := range resolved.Positional {
		template[i] = value
	}

	for i, name := range names {
		scope.Set(name, template[i])
	}
	if u.spec.HasVararg() {
		scope.Set(u.spec.Vararg, varargs)
	}
	return nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
