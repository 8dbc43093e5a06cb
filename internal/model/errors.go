package model

import "errors"

var (
	// ErrResourceNotFound means the artifact is absent at the configured path.
	ErrResourceNotFound = errors.New("model artifact not found")
	// ErrResourceCorrupt means the artifact could not be decoded into a usable pipeline.
	ErrResourceCorrupt = errors.New("model artifact is corrupt")
	// ErrSchemaMismatch means a record does not match the schema the pipeline was fitted on.
	ErrSchemaMismatch = errors.New("record does not match trained schema")
	// ErrInvalidPrediction means the regressor produced a non-finite value.
	ErrInvalidPrediction = errors.New("model produced an invalid prediction")
)

// IsResourceError reports whether err is a terminal artifact failure.
func IsResourceError(err error) bool {
	return errors.Is(err, ErrResourceNotFound) || errors.Is(err, ErrResourceCorrupt)
}
