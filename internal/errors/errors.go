package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// HeaderNotFound indicates the input header does not exist or is not a file
	HeaderNotFound ErrorCode = "HEADER_NOT_FOUND"
	// ParseFailed indicates the provider could not produce a translation unit
	ParseFailed ErrorCode = "PARSE_FAILED"
	// SnapshotInvalid indicates a recorded AST snapshot is malformed
	SnapshotInvalid ErrorCode = "SNAPSHOT_INVALID"
	// UnsupportedFormat indicates an unknown output or input format
	UnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// CacheUnavailable indicates the extraction cache could not be opened
	CacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// ManifestInvalid indicates a batch manifest failed to load or validate
	ManifestInvalid ErrorCode = "MANIFEST_INVALID"
	// ProviderUnavailable indicates the requested provider is not built in
	ProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditFile suggests editing an input or config file
	EditFile FixActionType = "edit-file"
	// Rebuild suggests rebuilding the binary with different settings
	Rebuild FixActionType = "rebuild"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Path        string        `json:"path,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// MetaError is an extraction error with a stable code and suggested fixes
type MetaError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a MetaError with the default fixes for code
func New(code ErrorCode, message string, cause error) *MetaError {
	return &MetaError{
		Code:           code,
		Message:        message,
		SuggestedFixes: GetSuggestedFixes(code),
		cause:          cause,
	}
}

// Newf is New with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *MetaError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *MetaError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *MetaError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *MetaError) WithDetails(details interface{}) *MetaError {
	e.Details = details
	return e
}

// WithFixes replaces the suggested fixes
func (e *MetaError) WithFixes(fixes ...FixAction) *MetaError {
	e.SuggestedFixes = fixes
	return e
}

// As returns the first MetaError in err's chain.
func As(err error) (*MetaError, bool) {
	var me *MetaError
	ok := errors.As(err, &me)
	return me, ok
}

// CodeOf returns the code of the first MetaError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	if me, ok := As(err); ok {
		return me.Code
	}
	return InternalError
}

// Is reports whether err carries code.
func Is(err error, code ErrorCode) bool {
	me, ok := As(err)
	return ok && me.Code == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	HeaderNotFound: {
		{
			Type:        RunCommand,
			Command:     "ls -l ${header}",
			Safe:        true,
			Description: "Check the header path",
		},
	},
	SnapshotInvalid: {
		{
			Type:        RunCommand,
			Command:     "objcmeta dump-ast ${header} --format yaml",
			Safe:        true,
			Description: "Re-record the snapshot from a parsable header",
		},
	},
	UnsupportedFormat: {
		{
			Type:        RunCommand,
			Command:     "objcmeta extract --help",
			Safe:        true,
			Description: "List the supported output formats",
		},
	},
	CacheUnavailable: {
		{
			Type:        RunCommand,
			Command:     "objcmeta cache clear",
			Safe:        false,
			Description: "Remove the extraction cache",
		},
	},
	ManifestInvalid: {
		{
			Type:        EditFile,
			Path:        "headers.toml",
			Description: "Fix the batch manifest",
		},
	},
	ProviderUnavailable: {
		{
			Type:        Rebuild,
			Command:     "CGO_ENABLED=1 go build ./cmd/objcmeta",
			Description: "Build with cgo to enable the tree-sitter header provider",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
