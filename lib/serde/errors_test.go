package serde

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("decode scene: %w", NewError(RetCDuplicateType, "A", nil))

	if !errors.Is(err, &Error{Code: RetCDuplicateType}) {
		t.Errorf("expected wrapped error to match code %s", RetCDuplicateType)
	}
	if !errors.Is(err, &Error{Code: RetCDuplicateType, Name: "A"}) {
		t.Errorf("expected wrapped error to match code and name")
	}
	if errors.Is(err, &Error{Code: RetCDuplicateType, Name: "B"}) {
		t.Errorf("expected name mismatch not to match")
	}
	if errors.Is(err, &Error{Code: RetCUnknownType}) {
		t.Errorf("expected code mismatch not to match")
	}
	if !IsCode(err, RetCDuplicateType) {
		t.Errorf("IsCode should find the wrapped error")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("bad payload")
	err := NewError(RetCValueDecode, "game::Health", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "game::Health") || !strings.Contains(err.Error(), "bad payload") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestTypeKeyString(t *testing.T) {
	if got := NameKey("A").String(); got != "A" {
		t.Errorf("NameKey string = %q", got)
	}
	if got := TagKey(42).String(); got != "#42" {
		t.Errorf("TagKey string = %q", got)
	}
}
