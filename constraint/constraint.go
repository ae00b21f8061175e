package constraint

const (
	// DEFAULT_SLOP is the penetration tolerated before position correction kicks in
	DEFAULT_SLOP = 0.001
	// DEFAULT_BAUMGARTE is the fraction of the penetration (beyond slop) corrected per step
	DEFAULT_BAUMGARTE = 0.1

	// minTimestep disables the velocity bias for degenerate steps
	minTimestep = 1e-5
)

type Constraint interface {
	SolveVelocity()
}

type Settings struct {
	Slop            float64
	BaumgarteFactor float64
}

func DefaultSettings() Settings {
	return Settings{
		Slop:            DEFAULT_SLOP,
		BaumgarteFactor: DEFAULT_BAUMGARTE,
	}
}

// Solve runs the given number of sequential-impulse passes over the constraints.
// Each impulse is applied immediately, so later constraints see the updated velocities.
func Solve(constraints []Constraint, iterations int) {
	for i := 0; i < iterations; i++ {
		for _, c := range constraints {
			c.SolveVelocity()
		}
	}
}
