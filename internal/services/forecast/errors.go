package forecast

import (
	"errors"
	"fmt"

	"TrendCast/internal/domain/models"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrUnknownMethod    = errors.New("unknown forecast method")
	ErrInvalidHorizon   = errors.New("horizon must be at least one month")
	ErrUnsortedSeries   = errors.New("series dates must be strictly ascending")
	ErrInvalidPrice     = errors.New("series contains a non-numeric price")
)

// InsufficientDataError reports a horizon that needs more history than the series has.
type InsufficientDataError struct {
	Method    models.ForecastMethod
	Required  int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %s needs at least %d daily points, series has %d",
		ErrInsufficientData, e.Method, e.Required, e.Available)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// UnknownMethodError reports a method selector outside the recognised set.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownMethod, e.Method)
}

func (e *UnknownMethodError) Is(target error) bool { return target == ErrUnknownMethod }
