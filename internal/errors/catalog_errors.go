package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the category of error
type ErrorCategory string

const (
	// ErrorCategoryConfiguration represents missing or unusable configuration
	ErrorCategoryConfiguration ErrorCategory = "CONFIGURATION"
	// ErrorCategoryValidation represents invalid task parameters
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	// ErrorCategoryExternalCommand represents catalog CLI launch or exit failures
	ErrorCategoryExternalCommand ErrorCategory = "EXTERNAL_COMMAND"
	// ErrorCategoryCyclicDependency represents a cycle in the task graph
	ErrorCategoryCyclicDependency ErrorCategory = "CYCLIC_DEPENDENCY"
	// ErrorCategoryDependency represents a task skipped because an ancestor failed
	ErrorCategoryDependency ErrorCategory = "DEPENDENCY"
)

// Sentinels matched by CatalogError.Is, so callers can use errors.Is without
// caring about codes or messages.
var (
	ErrConfiguration    = stderrors.New("configuration error")
	ErrValidation       = stderrors.New("validation error")
	ErrExternalCommand  = stderrors.New("external command error")
	ErrCyclicDependency = stderrors.New("cyclic dependency")
	ErrDependencyFailed = stderrors.New("dependency failed")
)

var categorySentinels = map[ErrorCategory]error{
	ErrorCategoryConfiguration:    ErrConfiguration,
	ErrorCategoryValidation:       ErrValidation,
	ErrorCategoryExternalCommand:  ErrExternalCommand,
	ErrorCategoryCyclicDependency: ErrCyclicDependency,
	ErrorCategoryDependency:       ErrDependencyFailed,
}

// CatalogError represents a structured error with context and troubleshooting information
type CatalogError struct {
	Category        ErrorCategory
	Code            string
	Message         string
	Operation       string
	Context         map[string]interface{}
	Troubleshooting []string
	OriginalError   error
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s-%s: %s", e.Category, e.Code, e.Message))

	if e.Operation != "" {
		sb.WriteString(fmt.Sprintf(" (operation: %s)", e.Operation))
	}

	if e.OriginalError != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.OriginalError))
	}

	return sb.String()
}

// Unwrap returns the original error for error chain compatibility
func (e *CatalogError) Unwrap() error {
	return e.OriginalError
}

// Is reports whether target is the sentinel for this error's category
func (e *CatalogError) Is(target error) bool {
	sentinel, ok := categorySentinels[e.Category]
	return ok && sentinel == target
}

// SortedContextKeys returns the context keys in a stable order for display
func (e *CatalogError) SortedContextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewCatalogError creates a new error with the specified parameters
func NewCatalogError(category ErrorCategory, code, message, operation string) *CatalogError {
	return &CatalogError{
		Category:        category,
		Code:            code,
		Message:         message,
		Operation:       operation,
		Context:         make(map[string]interface{}),
		Troubleshooting: []string{},
	}
}

// WithContext adds context information to the error
func (e *CatalogError) WithContext(key string, value interface{}) *CatalogError {
	e.Context[key] = value
	return e
}

// WithTroubleshooting adds troubleshooting steps to the error
func (e *CatalogError) WithTroubleshooting(steps ...string) *CatalogError {
	e.Troubleshooting = append(e.Troubleshooting, steps...)
	return e
}

// WithOriginalError adds the original error to the catalog error
func (e *CatalogError) WithOriginalError(err error) *CatalogError {
	e.OriginalError = err
	return e
}

// AsCatalogError extracts a *CatalogError from anywhere in err's chain
func AsCatalogError(err error) (*CatalogError, bool) {
	var catErr *CatalogError
	if stderrors.As(err, &catErr) {
		return catErr, true
	}
	return nil, false
}

// Common error constructors

// NewConfigurationError creates a new configuration error
func NewConfigurationError(code, message, operation string) *CatalogError {
	return NewCatalogError(ErrorCategoryConfiguration, code, message, operation)
}

// NewValidationError creates a new validation error
func NewValidationError(code, message, operation string) *CatalogError {
	return NewCatalogError(ErrorCategoryValidation, code, message, operation)
}

// NewExternalCommandError creates a new external command error
func NewExternalCommandError(code, message, operation string) *CatalogError {
	return NewCatalogError(ErrorCategoryExternalCommand, code, message, operation)
}
