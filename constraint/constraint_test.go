package constraint

import (
	"testing"
)

type countingConstraint struct {
	calls int
}

func (c *countingConstraint) SolveVelocity() {
	c.calls++
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()
	if settings.Slop != 0.001 {
		t.Errorf("Slop = %v, want 0.001", settings.Slop)
	}
	if settings.BaumgarteFactor != 0.1 {
		t.Errorf("BaumgarteFactor = %v, want 0.1", settings.BaumgarteFactor)
	}
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
	}{
		{"no iteration", 0},
		{"single pass", 1},
		{"default iterations", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := &countingConstraint{}, &countingConstraint{}
			Solve([]Constraint{a, b}, tt.iterations)

			if a.calls != tt.iterations || b.calls != tt.iterations {
				t.Errorf("calls = %d, %d, want %d each", a.calls, b.calls, tt.iterations)
			}
		})
	}
}
