package analysis

import (
	"fmt"

	"shelflife/domain/core"
	"shelflife/domain/stability"
)

// FitLine computes the ordinary least-squares line value = slope*time + intercept
// from sums over the centred data (t - mean t, v - mean v). R² is 1 - SS_res/SS_tot.
// A series whose values are all identical is a flat line with R² of exactly 1.
func FitLine(times, values []float64) (stability.RegressionResult, error) {
	if len(times) != len(values) {
		return stability.RegressionResult{}, fmt.Errorf("time and value columns differ in length: %d vs %d", len(times), len(values))
	}

	n := len(times)
	distinct := stability.CountDistinct(times)
	if n < 2 || distinct < 2 {
		return stability.RegressionResult{}, core.NewInsufficientDataError(n, distinct)
	}

	if allEqual(values) {
		return stability.RegressionResult{
			Slope:     0,
			Intercept: values[0],
			RSquared:  1,
			Points:    n,
		}, nil
	}

	nf := float64(n)
	var sumT, sumV float64
	for i := range times {
		sumT += times[i]
		sumV += values[i]
	}
	meanT, meanV := sumT/nf, sumV/nf

	var sxx, sxy float64
	for i := range times {
		dt := times[i] - meanT
		sxx += dt * dt
		sxy += dt * (values[i] - meanV)
	}
	if sxx <= 0 {
		// Distinct times so close together that their variance rounds to zero
		return stability.RegressionResult{}, core.NewInsufficientDataError(n, distinct)
	}

	slope := sxy / sxx
	intercept := meanV - slope*meanT

	var ssTot, ssRes float64
	for i := range times {
		dev := values[i] - meanV
		ssTot += dev * dev
		res := values[i] - (slope*times[i] + intercept)
		ssRes += res * res
	}

	rSquared := 1.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}
	// Rounding can push a perfect or near-zero fit just outside [0, 1]
	if rSquared > 1 {
		rSquared = 1
	} else if rSquared < 0 {
		rSquared = 0
	}

	return stability.RegressionResult{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared,
		Points:    n,
	}, nil
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// FitGroup fits the group's time/value pairs
func FitGroup(group stability.AnalysisGroup) (stability.RegressionResult, error) {
	return FitLine(group.Times(), group.Values())
}
