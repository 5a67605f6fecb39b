package preference

import "errors"

var (
	// ErrInsufficientData means the training corpus produced no usable
	// examples. A training cycle hitting this is a recoverable no-op; the
	// prior model artifact is left untouched.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrNoModel means no model artifact exists yet.
	ErrNoModel = errors.New("model not trained")

	// ErrIncompatibleModel means the persisted artifact was trained under a
	// different taxonomy or schema version and must not be used.
	ErrIncompatibleModel = errors.New("model incompatible with current taxonomy")
)
