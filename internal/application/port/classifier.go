package port

import (
	"context"
	"errors"
	"time"
)

// ErrClassifierUnavailable is returned when the inference service cannot be
// reached or fails to produce a result.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// Classification is the raw model output for one image.
type Classification struct {
	ClassName  string
	Confidence float64
	Elapsed    time.Duration
}

// Classifier defines the interface for leaf image classification (Port).
// The implementation lives in the Infrastructure layer.
type Classifier interface {
	// Classify runs inference on a JPEG image. A label outside the model's
	// valid set comes back as the unrecognized sentinel with zero confidence.
	Classify(ctx context.Context, image []byte) (Classification, error)
}
