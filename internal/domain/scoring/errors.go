package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrModelNotLoaded means no model is active. Callers are expected to
	// fall back to similarity scoring rather than fail.
	ErrModelNotLoaded = errors.New("scoring model not loaded")

	// ErrReloadFailed means the new artifact failed validation; the
	// previously active model keeps serving.
	ErrReloadFailed = errors.New("model reload failed")

	// ErrInvalidArtifact marks a malformed or shape-inconsistent artifact.
	ErrInvalidArtifact = errors.New("invalid model artifact")

	// ErrInputShape marks a pair input that does not match the active model.
	ErrInputShape = errors.New("pair input shape mismatch")

	// ErrTrainingInProgress rejects a train request while one is running.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrTrainingUnavailable means no trainer is configured.
	ErrTrainingUnavailable = errors.New("training unavailable")
)
