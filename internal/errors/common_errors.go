package errors

import (
	"fmt"
	"strings"
)

// Common error codes
const (
	// Configuration error codes
	CodeConfigUnreadable = "001"
	CodeConfigMissingKey = "002"
	CodeTemplateUnbound  = "003"
	CodeParamUnresolved  = "004"
	CodeUnknownKind      = "005"

	// Validation error codes
	CodeValidationInput = "001"

	// External command error codes
	CodeCommandLaunch       = "001"
	CodeCommandExit         = "002"
	CodeNotCompleteAfterRun = "003"

	// Graph error codes
	CodeCycle            = "001"
	CodeDependencyFailed = "001"
)

// NewConfigUnreadableError creates an error for a configuration file that cannot be read or parsed
func NewConfigUnreadableError(path string, originalErr error) *CatalogError {
	return NewConfigurationError(CodeConfigUnreadable,
		fmt.Sprintf("Cannot read configuration file '%s'", path),
		"Configuration load").
		WithContext("path", path).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Check that the file exists and is readable",
			"Pass a different file with --config",
			"The file must be a flat 'key: value' mapping",
		)
}

// NewMissingConfigKeyError creates an error for a required configuration key that is absent or empty
func NewMissingConfigKeyError(path, key string) *CatalogError {
	return NewConfigurationError(CodeConfigMissingKey,
		fmt.Sprintf("Required configuration key '%s' is missing", key),
		"Configuration load").
		WithContext("path", path).
		WithContext("key", key).
		WithTroubleshooting(
			fmt.Sprintf("Add '%s: <value>' to %s", key, path),
			"Required keys are root_folder, catalog_user and catalog_pass",
		)
}

// NewUnboundPlaceholderError creates an error for a command template placeholder without a value
func NewUnboundPlaceholderError(placeholder, template string) *CatalogError {
	return NewConfigurationError(CodeTemplateUnbound,
		fmt.Sprintf("Command template placeholder '{%s}' has no value", placeholder),
		"Command rendering").
		WithContext("placeholder", placeholder).
		WithContext("template", template)
}

// NewUnresolvedParameterError creates an error for a dependency that cannot be built
// from the parameters bound on its dependent task
func NewUnresolvedParameterError(task, dependencyKind, param string) *CatalogError {
	return NewConfigurationError(CodeParamUnresolved,
		fmt.Sprintf("Task %s cannot build its %s dependency: parameter '%s' is not set", task, dependencyKind, param),
		"Dependency resolution").
		WithContext("task", task).
		WithContext("dependency", dependencyKind).
		WithContext("parameter", param).
		WithTroubleshooting(
			fmt.Sprintf("Bind '%s' on %s", param, task),
		)
}

// NewUnknownKindError creates an error for a task kind that is not registered
func NewUnknownKindError(kind string, known []string) *CatalogError {
	return NewConfigurationError(CodeUnknownKind,
		fmt.Sprintf("Unknown task kind '%s'", kind),
		"Task construction").
		WithContext("kind", kind).
		WithTroubleshooting(
			fmt.Sprintf("Known kinds: %s", strings.Join(known, ", ")),
		)
}

// NewValidationFailedError creates an error for input validation failures
func NewValidationFailedError(field, value, reason, operation string) *CatalogError {
	return NewValidationError(CodeValidationInput,
		fmt.Sprintf("Invalid value for %s: '%s' (%s)", field, value, reason),
		operation).
		WithContext("field", field).
		WithContext("value", value)
}

// NewCommandLaunchError creates an error for a catalog command that could not be started
func NewCommandLaunchError(command string, originalErr error) *CatalogError {
	return NewExternalCommandError(CodeCommandLaunch,
		"Failed to launch catalog command",
		"Command execution").
		WithContext("command", command).
		WithOriginalError(originalErr).
		WithTroubleshooting(
			"Check that root_folder points at the catalog installation",
			"Verify bin/opencga.sh exists and is executable",
		)
}

// NewCommandExitError creates an error for a catalog command that exited non-zero
func NewCommandExitError(command string, exitCode int, stderr string, originalErr error) *CatalogError {
	err := NewExternalCommandError(CodeCommandExit,
		fmt.Sprintf("Catalog command exited with status %d", exitCode),
		"Command execution").
		WithContext("command", command).
		WithContext("exit_code", exitCode).
		WithOriginalError(originalErr)

	if stderr != "" {
		err = err.WithContext("stderr", stderr)
	}

	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "password") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "login"):
		err = err.WithTroubleshooting(
			"Check catalog_user and catalog_pass in the configuration file",
			"Verify the user can log in to the catalog",
		)
	case strings.Contains(lower, "already exists"):
		err = err.WithTroubleshooting(
			"The object exists but its info query returned nothing",
			"Check the alias and the project the object belongs to",
		)
	default:
		err = err.WithTroubleshooting(
			"Re-run with --debug to see the full command output",
			"Re-running is safe: completed tasks are skipped",
		)
	}

	return err
}

// NewNotCompleteAfterRunError creates an error for a task whose run succeeded
// but whose completion check still reports false
func NewNotCompleteAfterRunError(task string) *CatalogError {
	return NewExternalCommandError(CodeNotCompleteAfterRun,
		fmt.Sprintf("Task %s ran but the catalog does not report it as present", task),
		"Completion verification").
		WithContext("task", task)
}

// NewCyclicDependencyError creates an error for a dependency cycle
func NewCyclicDependencyError(path []string) *CatalogError {
	return NewCatalogError(ErrorCategoryCyclicDependency, CodeCycle,
		fmt.Sprintf("Dependency cycle detected: %s", strings.Join(path, " -> ")),
		"Dependency resolution").
		WithContext("cycle", path)
}

// NewDependencyFailedError creates an error for a task that did not run because
// one of its dependencies failed
func NewDependencyFailedError(task, dependency string, originalErr error) *CatalogError {
	return NewCatalogError(ErrorCategoryDependency, CodeDependencyFailed,
		fmt.Sprintf("Task %s not run: dependency %s failed", task, dependency),
		"Task scheduling").
		WithContext("task", task).
		WithContext("dependency", dependency).
		WithOriginalError(originalErr)
}

// IsFatal reports whether an error should stop the invocation with no retry advice
func IsFatal(err error) bool {
	if catErr, ok := AsCatalogError(err); ok {
		return catErr.Category == ErrorCategoryConfiguration ||
			catErr.Category == ErrorCategoryValidation ||
			catErr.Category == ErrorCategoryCyclicDependency
	}
	return false
}
