package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// DatasetInvalid indicates the incident dataset could not be read or decoded
	DatasetInvalid ErrorCode = "DATASET_INVALID"
	// ScopeInvalid indicates a malformed learning scope key
	ScopeInvalid ErrorCode = "SCOPE_INVALID"
	// PatternFailed indicates a single insight pattern failed during evaluation
	PatternFailed ErrorCode = "PATTERN_FAILED"
	// StoreUnavailable indicates the learning store backend could not be reached
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// RecordCorrupt indicates a persisted learning record could not be decoded
	RecordCorrupt ErrorCode = "RECORD_CORRUPT"
	// ChartUnknown indicates a chart id with no pack definition
	ChartUnknown ErrorCode = "CHART_UNKNOWN"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	Key         string        `json:"key,omitempty"`
}

// RadarError represents a radar error with code, message, and suggestions
type RadarError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a RadarError with the default fixes for its code
func New(code ErrorCode, message string, cause error) *RadarError {
	return &RadarError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *RadarError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *RadarError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *RadarError) WithDetails(details interface{}) *RadarError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first RadarError in err's chain, or InternalError.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if re, ok := err.(*RadarError); ok {
			return re.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	DatasetInvalid: {
		{
			Type:        RunCommand,
			Command:     "radar kpis --data <issues.json>",
			Safe:        true,
			Description: "Point --data at an issues export produced by the ingestion tool",
		},
	},
	ScopeInvalid: {
		{
			Type:        RunCommand,
			Command:     "radar insights --scope ES/jira-1",
			Safe:        true,
			Description: "Use a country/source scope key",
		},
	},
	StoreUnavailable: {
		{
			Type:        EditConfig,
			Key:         "learning.backend",
			Description: "Switch the learning backend to file or memory",
		},
	},
	ChartUnknown: {
		{
			Type:        RunCommand,
			Command:     "radar charts",
			Safe:        true,
			Description: "List the charts that have insight packs",
		},
	},
	ConfigInvalid: {
		{
			Type:        EditConfig,
			Key:         ".radar/config.json",
			Description: "Fix the reported field or delete the file to use defaults",
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
