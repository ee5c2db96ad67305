package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New(CodeValidation, "invalid input"),
			want: "VALIDATION_ERROR: invalid input",
		},
		{
			name: "with wrapped error",
			err:  Wrap(CodeInternal, "something failed", errors.New("underlying")),
			want: "INTERNAL_ERROR: something failed: underlying",
		},
		{
			name: "data format",
			err:  DataFormatError("qrels.txt", 3, "missing separator"),
			want: "DATA_FORMAT_ERROR: qrels.txt:3: missing separator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeInternal, "wrapped", underlying)

	if unwrapped := err.Unwrap(); unwrapped != underlying {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, underlying)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should find the underlying error")
	}
}

func TestAppError_Fatal(t *testing.T) {
	tests := []struct {
		code  string
		fatal bool
	}{
		{CodeValidation, true},
		{CodeDataFormat, true},
		{CodeNotFound, true},
		{CodeInternal, true},
		{CodeTimeout, true},
		{CodeAnalyzerUnavailable, false},
		{CodeIndexBuild, false},
		{CodeSearch, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := New(tt.code, "test").Fatal(); got != tt.fatal {
				t.Errorf("Fatal() = %v, want %v", got, tt.fatal)
			}
		})
	}
}

func TestDataFormatError_Details(t *testing.T) {
	err := DataFormatError("query.txt", 12, "non-numeric ordinal")

	if err.Details["path"] != "query.txt" {
		t.Errorf("Details[path] = %s, want query.txt", err.Details["path"])
	}
	if err.Details["line"] != "12" {
		t.Errorf("Details[line] = %s, want 12", err.Details["line"])
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := New(CodeValidation, "invalid").
		WithDetails(map[string]string{"field": "name"})

	if err.Details["field"] != "name" {
		t.Errorf("Details[field] = %s, want name", err.Details["field"])
	}

	err = err.WithDetail("other", "value")
	if err.Details["other"] != "value" {
		t.Errorf("Details[other] = %s, want value", err.Details["other"])
	}
}

func TestIsHelpers_Wrapped(t *testing.T) {
	base := AnalyzerUnavailableError("Lancaster", "unknown stemmer")
	wrapped := fmt.Errorf("building analyzer: %w", base)

	if !IsAnalyzerUnavailable(wrapped) {
		t.Error("IsAnalyzerUnavailable() should see through fmt wrapping")
	}
	if IsIndexBuild(wrapped) {
		t.Error("IsIndexBuild() = true for an analyzer error")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Error("CodeOf() should be empty for a plain error")
	}
	if !IsDataFormat(DataFormatError("f", 1, "bad")) {
		t.Error("IsDataFormat() = false")
	}
	if !IsIndexBuild(IndexBuildError("open writer", errors.New("boom"))) {
		t.Error("IsIndexBuild() = false")
	}
	if !IsNotFound(NotFoundError("analyzer")) {
		t.Error("IsNotFound() = false")
	}
	if !IsValidation(ValidationError("bad")) {
		t.Error("IsValidation() = false")
	}
}

func TestTimeoutError(t *testing.T) {
	if got := TimeoutError("").Message; got != "operation timed out" {
		t.Errorf("Message = %q", got)
	}
	if got := TimeoutError("search").Message; got != "search timed out" {
		t.Errorf("Message = %q", got)
	}
	if got := ServiceUnavailableError("redis").Message; got != "redis is unavailable" {
		t.Errorf("Message = %q", got)
	}
}
