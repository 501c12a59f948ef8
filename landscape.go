package main

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ==================== LOSS LANDSCAPE ====================

// LandscapePoint is the loss and K moments at one c.
type LandscapePoint struct {
	C     float64
	Loss  float64
	MeanK float64
	StdK  float64
}

// Landscape is the loss evaluated on an even grid over the optimizer bounds.
type Landscape struct {
	Points []LandscapePoint
	Best   LandscapePoint
}

// ScanLandscape evaluates the loss at cfg.LandscapePoints evenly spaced
// values of c in [cfg.Lower, cfg.Upper]. It returns nil when the scan is
// disabled.
func ScanLandscape(gammas []float64, base PhaseParams, cfg OptimizerConfig) *Landscape {
	if cfg.LandscapePoints < 2 {
		return nil
	}

	grid := floats.Span(make([]float64, cfg.LandscapePoints), cfg.Lower, cfg.Upper)
	land := &Landscape{
		Points: make([]LandscapePoint, 0, len(grid)),
		Best:   LandscapePoint{Loss: math.Inf(1)},
	}

	for _, c := range grid {
		pt := LandscapePoint{C: c, Loss: math.Inf(1), MeanK: math.NaN(), StdK: math.NaN()}
		if seq, err := BuildSequences(gammas, base.WithC(c)); err == nil {
			pt.MeanK, pt.StdK = stat.PopMeanStdDev(seq.Ratio, nil)
			pt.Loss = Loss(gammas, base.WithC(c), cfg.Target)
		}
		land.Points = append(land.Points, pt)
		if pt.Loss < land.Best.Loss {
			land.Best = pt
		}
	}

	return land
}

// BeatsOptimum reports whether the grid found a clearly lower loss than
// the bounded search, which then stopped in a local minimum.
func (l *Landscape) BeatsOptimum(result OptimizeResult) bool {
	if l == nil {
		return false
	}
	return l.Best.Loss < result.Fun-1e-6
}
