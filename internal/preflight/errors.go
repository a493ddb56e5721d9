package preflight

import "fmt"

// PrivilegeError means the process is not running as root. Every later
// stage mutates system state, so no partial execution is acceptable.
type PrivilegeError struct{}

func (e *PrivilegeError) Error() string {
	return "this tool must run as root (re-run with sudo)"
}

// InterpreterMissingError means the required interpreter binary was not found.
type InterpreterMissingError struct {
	Binary string
}

func (e *InterpreterMissingError) Error() string {
	return fmt.Sprintf("required interpreter %s not found", e.Binary)
}

// InterpreterVersionError means the interpreter is older than the minimum,
// or its version could not be parsed (treated as too old).
type InterpreterVersionError struct {
	Binary string
	Have   string
	Want   string
}

func (e *InterpreterVersionError) Error() string {
	return fmt.Sprintf("%s version %q does not satisfy minimum %s", e.Binary, e.Have, e.Want)
}
