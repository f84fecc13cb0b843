// Package regression defines the predictor capability the forecasters train
// and query, and ships a gradient-boosted regression tree implementation.
package regression

import (
	"errors"
	"fmt"
)

// Predictor maps a feature vector to a predicted value. A Predictor is
// trained once and must not be mutated afterwards; Predict is safe for
// concurrent use after Train returns.
type Predictor interface {
	Train(features [][]float64, target []float64) error
	Predict(features []float64) float64
}

// Factory builds a fresh, untrained Predictor. Each series gets its own.
type Factory func() Predictor

var (
	ErrEmptyTrainingSet = errors.New("empty training set")
	ErrShapeMismatch    = errors.New("feature and target shapes differ")
)

func validateTrainingSet(features [][]float64, target []float64) (int, error) {
	if len(features) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(features) != len(target) {
		return 0, fmt.Errorf("%w: %d feature rows, %d targets", ErrShapeMismatch, len(features), len(target))
	}
	width := len(features[0])
	if width == 0 {
		return 0, fmt.Errorf("%w: zero-width feature rows", ErrShapeMismatch)
	}
	for i, row := range features {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return width, nil
}
