// Package errors holds the sentinel errors shared by every enpkg package and
// small helpers to wrap them with context.
package errors

import (
	"errors"
	"fmt"
)

// Common error types.
var (
	// Parse errors.
	ErrInvalidFormat  = fmt.Errorf("invalid format")
	ErrInvalidVersion = fmt.Errorf("invalid version")
	ErrIncomparable   = fmt.Errorf("versions are not comparable")
	ErrInvalidOpcode  = fmt.Errorf("invalid opcode")
	ErrInvalidRecord  = fmt.Errorf("invalid package metadata")

	// Solver errors.
	ErrSolver         = fmt.Errorf("solver error")
	ErrUnsatisfiable  = fmt.Errorf("conflicting requirements")
	ErrCycle          = fmt.Errorf("dependency cycle")
	ErrNoPackageFound = fmt.Errorf("no package found")

	// Repository errors.
	ErrMissingPackage = fmt.Errorf("missing package")

	// Integrity errors.
	ErrEnstaller    = fmt.Errorf("enstaller error")
	ErrHashMismatch = fmt.Errorf("%w: checksum mismatch", ErrEnstaller)
	ErrDownload     = fmt.Errorf("download failed")

	// Transport errors.
	ErrAuthFailed       = fmt.Errorf("%w: authentication failed", ErrEnstaller)
	ErrUnexpectedStatus = fmt.Errorf("unexpected status code")
	ErrInvalidURL       = fmt.Errorf("invalid URL")

	// Transaction errors.
	ErrEnpkg          = fmt.Errorf("enpkg error")
	ErrNoSuchRevision = fmt.Errorf("no such revision")
	ErrActionFailed   = fmt.Errorf("action failed")
	ErrCanceled       = fmt.Errorf("canceled")

	// Config errors.
	ErrEmptyConfigPath      = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath    = fmt.Errorf("invalid config file path")
	ErrConfigParse          = fmt.Errorf("failed to parse config")
	ErrConfigValidation     = fmt.Errorf("invalid configuration")
	ErrConfigEncode         = fmt.Errorf("failed to encode config")
	ErrConfigDirectory      = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate     = fmt.Errorf("failed to create config file")
	ErrConfigFileExists     = fmt.Errorf("config file already exists")
	ErrConfigMarshal        = fmt.Errorf("failed to marshal config to YAML")
	ErrNoPrefixes           = fmt.Errorf("at least one prefix must be configured")
	ErrEmptyRepositoryName  = fmt.Errorf("repository name cannot be empty")
	ErrRepositoryURLEmpty   = fmt.Errorf("repository URL cannot be empty")
	ErrRepositoryExists     = fmt.Errorf("repository already exists")
	ErrHTTPTimeoutNegative  = fmt.Errorf("http_timeout cannot be negative")
	ErrMaxConcurrentInvalid = fmt.Errorf("max_concurrent must be at least 1")
	ErrInvalidOutputFormat  = fmt.Errorf("invalid output format")
	ErrInvalidLogLevel      = fmt.Errorf("invalid log level")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
)

// SolverError is raised for malformed requirement text and unsolvable
// requests. Msg is the exact user-facing message.
type SolverError struct {
	Msg string
	Err error
}

func (e *SolverError) Error() string { return e.Msg }

// Unwrap exposes both ErrSolver and the specific cause to errors.Is.
func (e *SolverError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSolver}
	}
	return []error{ErrSolver, e.Err}
}

// NewSolverError builds a SolverError matching kind with a formatted message.
func NewSolverError(kind error, format string, args ...interface{}) error {
	return &SolverError{Msg: fmt.Sprintf(format, args...), Err: kind}
}

// EnpkgError is raised by the facade for invalid user input such as an
// unknown revision.
type EnpkgError struct {
	Msg string
	Err error
}

func (e *EnpkgError) Error() string { return e.Msg }

func (e *EnpkgError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEnpkg}
	}
	return []error{ErrEnpkg, e.Err}
}

// NewEnpkgError builds an EnpkgError with a formatted message.
func NewEnpkgError(kind error, format string, args ...interface{}) error {
	return &EnpkgError{Msg: fmt.Sprintf(format, args...), Err: kind}
}

// MissingPackage returns the error used when a (name, version) lookup fails.
func MissingPackage(name, fullVersion string) error {
	return fmt.Errorf("%w: Package '%s-%s' not found", ErrMissingPackage, name, fullVersion)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrEmptyRepositoryNameWithIndex is a helper to create a wrapped error with the repository index.
func ErrEmptyRepositoryNameWithIndex(i int) error {
	return fmt.Errorf("repository %d: %w", i, ErrEmptyRepositoryName)
}

// ErrRepositoryURLEmptyWithName is a helper to create a wrapped error with the repository name.
func ErrRepositoryURLEmptyWithName(name string) error {
	return fmt.Errorf("repository '%s': %w", name, ErrRepositoryURLEmpty)
}

// ErrRepositoryExistsWithName is a helper to create a wrapped error with the repository name.
func ErrRepositoryExistsWithName(name string) error {
	return fmt.Errorf("repository '%s': %w", name, ErrRepositoryExists)
}

// ErrInvalidOutputFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidOutputFormat, format)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: error, warn, info, debug", ErrInvalidLogLevel, level)
}
