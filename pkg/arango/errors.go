package arango

import (
	"context"
	"errors"
	"fmt"
	"net"

	driver "github.com/arangodb/go-driver"
)

var (
	// ErrNotFound indicates a missing document, collection or database.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable indicates the backend could not be reached or refused
	// the request because it is overloaded or shutting down.
	ErrUnavailable = errors.New("database unavailable")
)

// IsNotFound reports whether err indicates a missing document or collection.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable reports whether err indicates an unreachable backend.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// classify maps raw driver and transport errors onto the package error kinds
// so callers can branch without importing the driver.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if driver.IsNotFoundGeneral(err) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if driver.IsArangoErrorWithCode(err, 503) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
