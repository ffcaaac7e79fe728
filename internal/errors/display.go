package errors

import (
	"fmt"
	"strings"
)

// DisplayErrorSummary provides a brief summary of the error for logs
func DisplayErrorSummary(err error) string {
	if catErr, ok := AsCatalogError(err); ok {
		return fmt.Sprintf("%s-%s: %s", catErr.Category, catErr.Code, catErr.Message)
	}

	errStr := err.Error()
	if len(errStr) > 100 {
		return errStr[:97] + "..."
	}
	return errStr
}

// FormatForCLI formats an error for command-line display with proper spacing
func FormatForCLI(err error) string {
	catErr, ok := AsCatalogError(err)
	if !ok {
		return fmt.Sprintf("\nError: %v\n", err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\nError [%s-%s]\n", catErr.Category, catErr.Code))
	if outer := err.Error(); outer != catErr.Error() {
		// Keep the wrapping context (e.g. which task failed) visible.
		sb.WriteString(fmt.Sprintf("  %s\n", strings.TrimSuffix(outer, ": "+catErr.Error())))
	}
	sb.WriteString(fmt.Sprintf("  %s\n", catErr.Message))

	if catErr.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nFailed Operation: %s\n", catErr.Operation))
	}

	if len(catErr.Context) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, key := range catErr.SortedContextKeys() {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", key, catErr.Context[key]))
		}
	}

	if len(catErr.Troubleshooting) > 0 {
		sb.WriteString("\nHow to resolve:\n")
		for i, step := range catErr.Troubleshooting {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	if catErr.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nTechnical details: %v\n", catErr.OriginalError))
	}

	return sb.String()
}

// IsUserError determines if an error is due to user input/configuration
func IsUserError(err error) bool {
	if catErr, ok := AsCatalogError(err); ok {
		return catErr.Category == ErrorCategoryValidation ||
			catErr.Category == ErrorCategoryConfiguration ||
			catErr.Category == ErrorCategoryCyclicDependency
	}
	return false
}

// GetErrorCode extracts the error code for reporting
func GetErrorCode(err error) string {
	if catErr, ok := AsCatalogError(err); ok {
		return fmt.Sprintf("%s-%s", catErr.Category, catErr.Code)
	}
	return "UNKNOWN"
}
