package impact

import (
	"log"

	"github.com/akmonengine/impact/constraint"
	"github.com/akmonengine/impact/manifold"
)

// Debugger receives the intermediate results of a step, for visualization or logging.
// Hooks are called from the stepping goroutine after the parallel narrow phase, never
// concurrently.
type Debugger interface {
	DebugManifold(pair Pair, m manifold.Manifold)
	DebugEPAFailure(pair Pair, err error)
	DebugConstraint(c *constraint.ContactConstraint)
}

// LogDebugger writes every hook to a logger
type LogDebugger struct {
	Logger *log.Logger
}

func NewLogDebugger(logger *log.Logger) *LogDebugger {
	if logger == nil {
		logger = log.Default()
	}
	return &LogDebugger{Logger: logger}
}

func (d *LogDebugger) DebugManifold(pair Pair, m manifold.Manifold) {
	d.Logger.Printf("manifold %d/%d: normal %v, %d points, depth %.4f", pair.A, pair.B, m.Normal, m.Count, m.MaxPenetration())
}

func (d *LogDebugger) DebugEPAFailure(pair Pair, err error) {
	d.Logger.Printf("penetration query failed for %d/%d: %v", pair.A, pair.B, err)
}

func (d *LogDebugger) DebugConstraint(c *constraint.ContactConstraint) {
	for _, p := range c.Points {
		d.Logger.Printf("constraint at %v: normal impulse %.4f, tangent impulse %.4f, bias %.4f", p.Position, p.NormalImpulse, p.TangentImpulse, p.Bias)
	}
}
