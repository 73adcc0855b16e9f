// Package storage holds the error kind shared by every repository
// implementation for transient infrastructure failures.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable marks a failure of the underlying store (connection refused,
// timeout, driver error). Operations failing with it are safe to retry.
var ErrUnavailable = errors.New("storage unavailable")

// Wrap tags err with ErrUnavailable. Context cancellation is passed through
// untouched so callers can tell a client abort from a broken store.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
