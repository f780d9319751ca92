package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := New(DatasetInvalid, "cannot decode issues.json", cause)

	if err.Code != DatasetInvalid {
		t.Errorf("Code = %v, want %v", err.Code, DatasetInvalid)
	}
	if len(err.SuggestedFixes) == 0 {
		t.Error("expected default suggested fixes for DatasetInvalid")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}
}

func TestRadarError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      StoreUnavailable,
			message:   "open learning db",
			cause:     errors.New("permission denied"),
			wantParts: []string{"STORE_UNAVAILABLE", "open learning db", "permission denied"},
		},
		{
			name:      "without cause",
			code:      ChartUnknown,
			message:   "no pack for chart 'pie'",
			wantParts: []string{"CHART_UNKNOWN", "no pack for chart 'pie'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, missing %q", got, part)
				}
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	inner := New(ScopeInvalid, "empty scope", nil)
	wrapped := fmt.Errorf("load record: %w", inner)

	if got := CodeOf(wrapped); got != ScopeInvalid {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, ScopeInvalid)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
	if got := CodeOf(nil); got != InternalError {
		t.Errorf("CodeOf(nil) = %v, want %v", got, InternalError)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(PatternFailed, "pattern panicked", nil).WithDetails(map[string]string{"pattern": "flow.pressure"})
	details, ok := err.Details.(map[string]string)
	if !ok || details["pattern"] != "flow.pressure" {
		t.Errorf("Details = %v, want pattern=flow.pressure", err.Details)
	}
}

func TestGetSuggestedFixes_Unknown(t *testing.T) {
	if fixes := GetSuggestedFixes(InternalError); fixes != nil {
		t.Errorf("expected no fixes for InternalError, got %v", fixes)
	}
}
