package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		category Category
		expected int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryConfiguration, 4},
		{CategoryProcessing, 5},
		{CategoryInternal, 5},
		{Category("unknown"), 1},
	}

	for _, tt := range tests {
		err := New(tt.category, CodeUnexpectedError, "test")
		if got := err.ExitCode(); got != tt.expected {
			t.Errorf("ExitCode(%s) = %d, expected %d", tt.category, got, tt.expected)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "file not found")
	if err.Error() != "file not found" {
		t.Errorf("Error() = %q", err.Error())
	}

	err = err.WithSuggestion("check the path")
	if !strings.Contains(err.Error(), "check the path") {
		t.Errorf("Expected suggestion in message, got %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("underlying")
	err := Wrap(cause, CategoryParse, CodeInvalidFormat, "parse failed")

	if err.Cause != cause {
		t.Error("Cause not preserved")
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is must see through the wrapper")
	}
	if len(err.StackTrace) == 0 {
		t.Error("Expected a stack trace")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, CategoryFile, CodeFileNotFound, "x"); err != nil {
		t.Errorf("Wrap(nil) = %v, expected nil", err)
	}
}

func TestFileErrorContext(t *testing.T) {
	err := FileError(CodeFileNotFound, "/tmp/missing.csv", nil)

	if err.Category != CategoryFile || err.Code != CodeFileNotFound {
		t.Errorf("Unexpected category/code: %s/%s", err.Category, err.Code)
	}
	if err.Context["path"] != "/tmp/missing.csv" {
		t.Errorf("Expected path in context, got %v", err.Context)
	}
	if err.Suggestion == "" {
		t.Error("Expected a suggestion")
	}
	if !strings.Contains(err.Message, "/tmp/missing.csv") {
		t.Errorf("Expected path in message, got %q", err.Message)
	}
}

func TestParseErrorCodes(t *testing.T) {
	for _, code := range []Code{CodeInvalidFormat, CodeEmptySheet, CodeEncodingError} {
		err := ParseError(code, "input.xlsx", nil)
		if err.Category != CategoryParse {
			t.Errorf("ParseError(%s) category = %s", code, err.Category)
		}
		if err.Code != code {
			t.Errorf("ParseError(%s) code = %s", code, err.Code)
		}
	}
}

func TestAsError(t *testing.T) {
	appErr := New(CategoryProcessing, CodeProcessingError, "boom")

	if got, ok := AsError(appErr); !ok || got != appErr {
		t.Error("AsError must return the application error directly")
	}

	wrapped := fmt.Errorf("outer: %w", appErr)
	if got, ok := AsError(wrapped); !ok || got != appErr {
		t.Error("AsError must unwrap to the application error")
	}

	if _, ok := AsError(stderrors.New("plain")); ok {
		t.Error("AsError must report absence for foreign errors")
	}
	if _, ok := AsError(nil); ok {
		t.Error("AsError(nil) must report absence")
	}
}

func TestWithContextChaining(t *testing.T) {
	err := New(CategoryFile, CodeFileCorrupted, "bad file").
		WithContext("path", "/a").
		WithContext("size", 42)

	if err.Context["path"] != "/a" || err.Context["size"] != 42 {
		t.Errorf("Context = %v", err.Context)
	}
}
