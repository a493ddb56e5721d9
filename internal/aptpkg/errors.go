package aptpkg

import "fmt"

// InstallError reports a package that could not be installed.
type InstallError struct {
	Package string
	Err     error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("failed to install package %s: %v", e.Package, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// StateError reports a broken package database that could not be repaired.
type StateError struct {
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("package state could not be repaired: %v", e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }
