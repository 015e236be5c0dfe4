package core

import (
	"errors"
	"testing"
)

func TestHasCode(t *testing.T) {
	err := SchemaError("bad column %q", "metric")
	if !HasCode(err, CodeSchemaViolation) {
		t.Fatalf("expected %s, got %v", CodeSchemaViolation, err)
	}
	if HasCode(err, CodeInsufficientData) {
		t.Fatalf("code must not match a different constant")
	}
	if HasCode(errors.New("plain"), CodeSchemaViolation) {
		t.Fatalf("plain errors carry no code")
	}
	if HasCode(nil, CodeSchemaViolation) {
		t.Fatalf("nil carries no code")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := InsufficientDataError("only %d units", 1)
	wrapped := Wrap(inner, "loading dataset")
	if !HasCode(wrapped, CodeInsufficientData) {
		t.Fatalf("wrapping must preserve the inner code, got %v", wrapped)
	}
	if !errors.Is(wrapped, inner) {
		t.Fatalf("wrapped error must unwrap to the cause")
	}

	plain := Wrap(errors.New("connection refused"), "saving result")
	if !HasCode(plain, CodeStorageError) {
		t.Fatalf("uncoded causes default to %s, got %v", CodeStorageError, plain)
	}
	if Wrap(nil, "noop") != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
}

func TestErrorFormatting(t *testing.T) {
	err := Wrap(errors.New("boom"), "outer")
	if got := err.Error(); got != "outer: boom" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := SchemaError("plain").Error(); got != "plain" {
		t.Fatalf("unexpected message %q", got)
	}
}
