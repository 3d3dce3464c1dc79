package variables

import "fmt"

// VariableError is returned when a variable cannot be resolved.
// When raised by a keyword call it is reported as an ordinary keyword failure.
type VariableError struct {
	Message string
}

func (e *VariableError) Error() string {
	return e.Message
}

func nonExisting(name string) *VariableError {
	return &VariableError{Message: fmt.Sprintf("Non-existing variable '%s'.", name)}
}

func nonExistingEnv(name string) *VariableError {
	return &VariableError{Message: fmt.Sprintf("Environment variable '%s' does not exist.", name)}
}

func notList(name string) *VariableError {
	return &VariableError{Message: fmt.Sprintf("Value of variable '%s' is not list or list-like.", name)}
}

func invalidName(name string) *VariableError {
	return &VariableError{Message: fmt.Sprintf("Invalid variable name '%s'.", name)}
}
