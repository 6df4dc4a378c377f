package service

import (
	"errors"

	"github.com/jasmnyeh/staircase-fairy/internal/catalog"
	"github.com/jasmnyeh/staircase-fairy/internal/geo"
)

// Domain-rule rejections. These are expected outcomes of the scan pipeline,
// not faults: they terminate the request with a user-facing message and are
// never retried.
var (
	ErrPermissionDenied = errors.New("location consent not granted")
	ErrOutOfRange       = errors.New("position outside geofence")
	ErrTooSoon          = errors.New("scan cooldown not elapsed")
	ErrMalformedPayload = errors.New("malformed scan payload")

	// Re-exported so callers can match the whole taxonomy in one place.
	ErrInvalidLocation     = catalog.ErrInvalidLocation
	ErrInvalidFloor        = catalog.ErrInvalidFloor
	ErrProviderUnavailable = geo.ErrProviderUnavailable
)

// IsRejection reports whether err is a domain-rule rejection rather than an
// infrastructure fault.
func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrOutOfRange),
		errors.Is(err, ErrTooSoon),
		errors.Is(err, ErrMalformedPayload),
		errors.Is(err, ErrInvalidLocation),
		errors.Is(err, ErrInvalidFloor):
		return true
	}
	return false
}
