package main

import "math"

// ==================== PHASE TRANSFORM ====================

// PhaseParams parameterises the geometric phase transform.
type PhaseParams struct {
	C           float64 `json:"c" yaml:"c" mapstructure:"c"`
	ScaleFactor float64 `json:"scale_factor" yaml:"scale_factor" mapstructure:"scale_factor"`
	Reg         float64 `json:"reg" yaml:"reg" mapstructure:"reg"`
}

// DefaultPhaseParams returns c = 1, scale = 4/π, reg = 0.01.
func DefaultPhaseParams() PhaseParams {
	return PhaseParams{
		C:           1.0,
		ScaleFactor: 4 / math.Pi,
		Reg:         0.01,
	}
}

// WithC returns a copy of p with a different c.
func (p PhaseParams) WithC(c float64) PhaseParams {
	p.C = c
	return p
}

// PhaseTransform maps zero heights to the phase sequence
//
//	φ(n) = ((π/2 - arctan(c·γₙ) + reg) / n) · scale
//
// with n the 1-based rank. For finite γ and reg > 0 every φ(n) is nonzero.
func PhaseTransform(gammas []float64, p PhaseParams) []float64 {
	phi := make([]float64, len(gammas))
	for i, gamma := range gammas {
		theta := math.Atan(p.C * gamma)
		phi[i] = ((math.Pi/2 - theta + p.Reg) / float64(i+1)) * p.ScaleFactor
	}
	return phi
}
