package inference

import (
	"context"
	"image"

	"go-skin-analyzer/internal/region"
)

// RawPrediction holds one region's raw model outputs as plain numeric
// vectors: length-4 classification logits and a regression vector of the
// region's target count. Local and remote engines both normalize to this
// shape so nothing downstream distinguishes provenance.
type RawPrediction struct {
	Classification []float64
	Regression     []float64
}

// Engine obtains per-region raw predictions for a validated face image.
// A region missing from the returned map means its inference failed or its
// model was never loaded; that is a partial result, not an error. A non-nil
// error means the whole batch failed (e.g. the remote server is unreachable).
type Engine interface {
	PredictAllRegions(ctx context.Context, img image.Image) (map[region.Name]RawPrediction, error)
	Close() error
}

// Model runs one region's two-head network on a preprocessed input tensor.
type Model interface {
	Forward(t Tensor) (cls []float64, reg []float64, err error)
	Close() error
}
