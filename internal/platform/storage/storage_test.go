package storage

import (
	"context"
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	if Wrap("op", nil) != nil {
		t.Fatal("expected nil for nil error")
	}

	err := Wrap("insert appointment", errors.New("connection refused"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if err.Error() != "insert appointment: storage unavailable: connection refused" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestWrap_ContextCanceled(t *testing.T) {
	err := Wrap("query", context.Canceled)
	if errors.Is(err, ErrUnavailable) {
		t.Error("context cancellation must not be reported as unavailable storage")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("expected context.Canceled to be preserved")
	}
}
