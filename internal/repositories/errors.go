// Package repositories defines data-access interfaces, their GORM
// implementations, and the sentinel errors shared by every repository.
// Sentinels let the service and handler layers branch on the failure
// kind with errors.Is instead of matching message strings.
package repositories

import "errors"

// ErrNotFound is returned when no record with the requested id exists.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a uniqueness constraint is violated,
// such as registering an already-taken username. Handlers translate
// it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
