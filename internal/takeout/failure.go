// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package takeout

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrNotADirectory is returned when a located path exists but is not a folder.
var ErrNotADirectory = errors.New("not a directory")

// LocateError is a failure to locate one of the export folders.
// Recoverable failures degrade to an empty result instead of aborting the run.
type LocateError struct {
	Path        string
	Err         error
	Recoverable bool
}

func (e *LocateError) Error() string {
	return fmt.Sprintf("locate %s: %v", e.Path, e.Err)
}

func (e *LocateError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err may be degraded to an empty result.
func IsRecoverable(err error) bool {
	var le *LocateError
	return errors.As(err, &le) && le.Recoverable
}

// Category is the user-facing classification of a failure.
type Category int

const (
	Unknown Category = iota
	NotADirectory
	NotFound
)

func (c Category) String() string {
	switch c {
	case NotADirectory:
		return "not_a_directory"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Exit codes returned by the command. 1 is reserved for startup failures.
const (
	ExitOK            = 0
	ExitStartup       = 1
	ExitNotFound      = 2
	ExitNotADirectory = 3
	ExitUnknown       = 4
)

// ExitCode maps the category to a process exit code.
func (c Category) ExitCode() int {
	switch c {
	case NotADirectory:
		return ExitNotADirectory
	case NotFound:
		return ExitNotFound
	default:
		return ExitUnknown
	}
}

// Classify maps err to a Category. NotADirectory is checked before NotFound.
func Classify(err error) Category {
	switch {
	case errors.Is(err, ErrNotADirectory):
		return NotADirectory
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	default:
		return Unknown
	}
}

// Remediation returns the message shown to the user for err.
// The offending path is wrapped in backticks.
func Remediation(err error) string {
	switch Classify(err) {
	case NotADirectory:
		return fmt.Sprintf("`%s` was not a folder! Please check it before trying again.", failedPath(err))
	case NotFound:
		return fmt.Sprintf("Could not find `%s`! Please make sure that this folder exists.", failedPath(err))
	default:
		return fmt.Sprintf("%v\nAn unknown error occurred! If this is occurring repeatedly and you don't know why, please notify the developer.", err)
	}
}

func failedPath(err error) string {
	var le *LocateError
	if errors.As(err, &le) {
		return le.Path
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Path
	}
	return "the requested folder"
}
