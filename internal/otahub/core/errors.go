package core

import (
	"errors"
	"fmt"
)

// Validation outcomes. They are deterministic results of bad input or state
// and are never retried.
var (
	ErrDuplicateVehicle     = errors.New("vehicle already exists")
	ErrVehicleNotFound      = errors.New("vehicle not found")
	ErrUpdateNotFound       = errors.New("ota update not found")
	ErrActiveUpdateConflict = errors.New("an ota update is already active for this vehicle")
	ErrVersionMismatch      = errors.New("version mismatch")
	ErrInvalidTransition    = errors.New("invalid ota update transition")
)

// ErrStorage marks an unexpected fault in the storage layer.
var ErrStorage = errors.New("storage failure")

// VersionMismatchError is returned when an assignment's from version does not
// match the vehicle's firmware. It matches ErrVersionMismatch.
type VersionMismatchError struct {
	VehicleID string
	Expected  string
	Actual    string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("version mismatch: vehicle %s is on %s, update expects %s", e.VehicleID, e.Actual, e.Expected)
}

func (e *VersionMismatchError) Is(target error) bool {
	return target == ErrVersionMismatch
}

// TransitionError describes a rejected lifecycle event. It matches
// ErrInvalidTransition.
type TransitionError struct {
	UpdateID int64
	Event    string
	Current  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("ota update %d: cannot %s from %s", e.UpdateID, e.Event, e.Current)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type storageError struct {
	err error
}

func (e *storageError) Error() string        { return "storage failure: " + e.err.Error() }
func (e *storageError) Unwrap() error        { return e.err }
func (e *storageError) Is(target error) bool { return target == ErrStorage }

// StorageFailure wraps err so that it matches ErrStorage. A nil err stays nil
// and errors already classified are returned as is.
func StorageFailure(err error) error {
	if err == nil || IsValidation(err) || errors.Is(err, ErrStorage) {
		return err
	}
	return &storageError{err: err}
}

// IsValidation reports whether err is one of the validation outcomes.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrDuplicateVehicle,
		ErrVehicleNotFound,
		ErrUpdateNotFound,
		ErrActiveUpdateConflict,
		ErrVersionMismatch,
		ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
