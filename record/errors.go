package record

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"syscall"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConnectivity = errors.New("persistence unreachable")
	ErrConflict     = errors.New("id assignment conflict")
)

// IsKnown reports whether err already carries one of the record error kinds.
func IsKnown(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrConnectivity) ||
		errors.Is(err, ErrConflict)
}

// IsConnectivity detects transport-level failures that are common to every
// driver. Store packages layer their driver-specific checks on top.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
