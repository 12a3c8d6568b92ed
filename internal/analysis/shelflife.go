package analysis

import (
	"math"

	"shelflife/domain/core"
	"shelflife/domain/stability"
)

// SolveShelfLife returns the time at which the fitted line reaches specLimit,
// t = (specLimit - intercept) / slope. The result is not clamped: a crossing at or
// before time zero is returned as-is with Expired set. Which side of the limit is
// failing is up to the caller.
func SolveShelfLife(fit stability.RegressionResult, specLimit float64) (stability.ShelfLifeEstimate, error) {
	if fit.Slope == 0 {
		return stability.ShelfLifeEstimate{}, core.NewUndefinedShelfLifeError("zero slope, the fitted line never crosses the limit")
	}

	months := (specLimit - fit.Intercept) / fit.Slope
	if math.IsInf(months, 0) || math.IsNaN(months) {
		return stability.ShelfLifeEstimate{}, core.NewUndefinedShelfLifeError("slope too small for a finite crossing")
	}

	return stability.ShelfLifeEstimate{
		Months:    months,
		SpecLimit: specLimit,
		Expired:   months <= 0,
	}, nil
}
