package impact

import (
	"github.com/akmonengine/impact/constraint"
	"github.com/akmonengine/impact/epa"
	"github.com/akmonengine/impact/narrowphase"
	"github.com/akmonengine/impact/sat"
)

const DEFAULT_SOLVER_ITERATIONS = 10

// Settings groups the tunables of the collision pipeline. Numeric fields left at zero take
// their DefaultSettings value on every Step.
type Settings struct {
	// SolverIterations is the number of velocity passes per substep
	SolverIterations int

	EPAMaxIterations      int
	EPATolerance          float64
	EPASecondaryTolerance float64
	// EPAAcceptBorderline keeps EPA results whose final gap exceeds EPASecondaryTolerance
	EPAAcceptBorderline bool

	// Slop is the penetration left uncorrected, BaumgarteFactor the fraction of the rest
	// corrected per substep
	Slop            float64
	BaumgarteFactor float64

	SATParallelThreshold float64
	SATEpsilon           float64
}

func DefaultSettings() Settings {
	return Settings{
		SolverIterations:      DEFAULT_SOLVER_ITERATIONS,
		EPAMaxIterations:      epa.DefaultMaxIterations,
		EPATolerance:          epa.DefaultTolerance,
		EPASecondaryTolerance: epa.DefaultSecondaryTolerance,
		EPAAcceptBorderline:   false,
		Slop:                  constraint.DEFAULT_SLOP,
		BaumgarteFactor:       constraint.DEFAULT_BAUMGARTE,
		SATParallelThreshold:  sat.DefaultParallelThreshold,
		SATEpsilon:            sat.DefaultEpsilon,
	}
}

func (s Settings) withDefaults() Settings {
	defaults := DefaultSettings()
	if s.SolverIterations <= 0 {
		s.SolverIterations = defaults.SolverIterations
	}
	if s.EPAMaxIterations <= 0 {
		s.EPAMaxIterations = defaults.EPAMaxIterations
	}
	if s.EPATolerance <= 0 {
		s.EPATolerance = defaults.EPATolerance
	}
	if s.EPASecondaryTolerance <= 0 {
		s.EPASecondaryTolerance = defaults.EPASecondaryTolerance
	}
	if s.Slop <= 0 {
		s.Slop = defaults.Slop
	}
	if s.BaumgarteFactor <= 0 {
		s.BaumgarteFactor = defaults.BaumgarteFactor
	}
	if s.SATParallelThreshold <= 0 {
		s.SATParallelThreshold = defaults.SATParallelThreshold
	}
	if s.SATEpsilon <= 0 {
		s.SATEpsilon = defaults.SATEpsilon
	}
	return s
}

func (s Settings) narrowPhaseSettings() narrowphase.Settings {
	return narrowphase.Settings{
		EPA: epa.Options{
			MaxIterations:      s.EPAMaxIterations,
			Tolerance:          s.EPATolerance,
			SecondaryTolerance: s.EPASecondaryTolerance,
			AcceptBorderline:   s.EPAAcceptBorderline,
		},
		SAT: sat.Settings{
			ParallelThreshold: s.SATParallelThreshold,
			Epsilon:           s.SATEpsilon,
		},
	}
}

func (s Settings) constraintSettings() constraint.Settings {
	return constraint.Settings{
		Slop:            s.Slop,
		BaumgarteFactor: s.BaumgarteFactor,
	}
}
