package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestServiceError_Error(t *testing.T) {
	err := &ServiceError{
		Code:    "TEST_ERROR",
		Message: "Test error message",
	}

	if err.Error() != "Test error message" {
		t.Errorf("Expected 'Test error message', got '%s'", err.Error())
	}
}

func TestNewServiceError(t *testing.T) {
	err := NewServiceError("ERROR_CODE", "Error message")

	if err.Code != "ERROR_CODE" {
		t.Errorf("Expected code 'ERROR_CODE', got '%s'", err.Code)
	}
	if err.Message != "Error message" {
		t.Errorf("Expected message 'Error message', got '%s'", err.Message)
	}
	if err.Details != nil {
		t.Errorf("Expected nil details, got %v", err.Details)
	}
}

func TestNewServiceErrorWithDetails(t *testing.T) {
	details := map[string]interface{}{
		"field":  "value",
		"reason": "validation failed",
	}

	err := NewServiceErrorWithDetails(CodeInvalidInput, "Validation failed", details)

	if err.Code != CodeInvalidInput {
		t.Errorf("Expected code '%s', got '%s'", CodeInvalidInput, err.Code)
	}
	if err.Details == nil {
		t.Fatal("Expected non-nil details")
	}
	if err.Details["field"] != "value" {
		t.Errorf("Expected field 'value', got '%v'", err.Details["field"])
	}
}

func TestNewInputError(t *testing.T) {
	err := NewInputError("metrics[%d].value: expected a number", 2)

	if err.Code != CodeInvalidInput {
		t.Errorf("Expected code '%s', got '%s'", CodeInvalidInput, err.Code)
	}
	if err.Message != "metrics[2].value: expected a number" {
		t.Errorf("Unexpected message '%s'", err.Message)
	}
	if !IsInputError(err) {
		t.Error("Expected IsInputError to be true")
	}
	if IsComputationError(err) {
		t.Error("Expected IsComputationError to be false")
	}
}

func TestNewComputationError_HidesCause(t *testing.T) {
	cause := errors.New("singular matrix at row 7")
	err := NewComputationError("prediction failed", cause)

	if err.Code != CodeComputationFailed {
		t.Errorf("Expected code '%s', got '%s'", CodeComputationFailed, err.Code)
	}
	if strings.Contains(err.Error(), "singular") {
		t.Errorf("Message should not leak the cause: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected cause to be reachable through Unwrap")
	}
	if !IsComputationError(err) {
		t.Error("Expected IsComputationError to be true")
	}
}

func TestIsInputError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("job 42: %w", NewInputError("bad"))

	if !IsInputError(wrapped) {
		t.Error("Expected wrapped input error to be detected")
	}
	if IsInputError(errors.New("plain")) {
		t.Error("Plain errors are not input errors")
	}
	if IsInputError(nil) {
		t.Error("nil is not an input error")
	}
}

func TestServiceError_JSON(t *testing.T) {
	err := NewComputationError("prediction failed", errors.New("internal"))

	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("Marshal failed: %v", marshalErr)
	}

	if strings.Contains(string(data), "internal") {
		t.Errorf("Cause leaked into JSON: %s", data)
	}
	if !strings.Contains(string(data), `"code":"COMPUTATION_FAILED"`) {
		t.Errorf("Expected code in JSON: %s", data)
	}
}

func TestServiceError_ImplementsError(t *testing.T) {
	var _ error = &ServiceError{}
}
