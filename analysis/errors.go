package analysis

import "errors"

var (
	// ErrDecodeFailure indicates the supplied sample buffer is unusable
	// (nil, empty, or a non-positive sample rate). Fatal for the pass.
	ErrDecodeFailure = errors.New("decode failure: sample buffer unusable")

	// ErrFeatureExtraction indicates the extraction collaborator failed
	// for every frame of the pass. Individual frame failures are logged
	// and skipped; only total unavailability surfaces as an error.
	ErrFeatureExtraction = errors.New("feature extraction unavailable")

	// ErrNoCachedData indicates a re-analysis was requested before any
	// pass supplied samples to recompute from.
	ErrNoCachedData = errors.New("no cached analysis data")
)
