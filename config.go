package rigid2d

import (
	"math"

	"github.com/pkg/errors"
)

// Config carries every numeric tunable the solver and manifold generator
// read. A zero Config is not usable; start from DefaultConfig.
type Config struct {
	// LinearSlop is a small length used as a collision and constraint
	// tolerance. Numerically significant, visually insignificant.
	LinearSlop float64
	// AngularSlop is the rotational analog of LinearSlop.
	AngularSlop float64

	// MaxManifoldPoints bounds contact points per manifold. The block
	// solver assumes exactly two.
	MaxManifoldPoints int
	// MaxPolygonVertices bounds vertices accepted by a convex polygon.
	MaxPolygonVertices int
	// PolygonRadius is the skin thickness added around polygon and edge
	// shapes so narrow-phase queries never operate on exactly-touching
	// geometry.
	PolygonRadius float64

	// VelocityThreshold is the relative approach speed below which a
	// collision is treated as fully inelastic regardless of restitution.
	VelocityThreshold float64

	// MaxLinearCorrection caps per-iteration positional correction to
	// avoid overshoot on deep penetrations.
	MaxLinearCorrection float64
	// MaxAngularCorrection is the rotational analog of MaxLinearCorrection.
	MaxAngularCorrection float64

	// MaxTranslation and MaxRotation clamp per-step integration so a
	// numerical blowup in the velocity solver cannot teleport a body.
	MaxTranslation float64
	MaxRotation    float64

	// Baumgarte is the fraction of position error fed back into the
	// velocity solve each iteration.
	Baumgarte float64
	// TOIBaumgarte is the analogous factor used during TOI sub-stepping,
	// kept higher than Baumgarte because TOI sub-steps are much smaller.
	TOIBaumgarte float64

	// VelocityIterations and PositionIterations bound the main island
	// solve. TOIPositionIterations bounds the TOI sub-step solve.
	VelocityIterations    int
	PositionIterations    int
	TOIPositionIterations int

	// MaxTOIIterations bounds the outer conservative-advancement loop in
	// TimeOfImpact; MaxTOIRootIterCount bounds the inner secant/bisection
	// root search within a single outer iteration.
	MaxTOIIterations    int
	MaxTOIRootIterCount int

	// MaxSubSteps bounds how many TOI events a single island solve will
	// process before giving up and letting the remaining overlap persist
	// into the next step.
	MaxSubSteps int

	// HysteresisRelativeTol and HysteresisAbsoluteTol control how much
	// better a candidate reference face must separate the shapes than the
	// current one before the manifold generator switches its choice of
	// reference face between steps (separationB > relativeTol*separationA
	// + absoluteTol). Without this margin, a grazing contact whose two
	// candidate faces are nearly tied flickers between reference faces
	// frame to frame.
	HysteresisRelativeTol float64
	HysteresisAbsoluteTol float64

	// LinearSleepTolerance and AngularSleepTolerance are the speed
	// thresholds below which a body accumulates sleep time instead of
	// resetting it. TimeToSleep is how long a body must stay under both
	// thresholds before the island driver is allowed to put it to sleep.
	LinearSleepTolerance  float64
	AngularSleepTolerance float64
	TimeToSleep           float64
}

// DefaultConfig returns the tuning values this package was validated
// against; callers needing different tradeoffs should start here and
// override individual fields.
func DefaultConfig() Config {
	return Config{
		LinearSlop:  0.005,
		AngularSlop: 2.0 / 180.0 * math.Pi,

		MaxManifoldPoints:  2,
		MaxPolygonVertices: 8,
		PolygonRadius:      2.0 * 0.005,

		VelocityThreshold: 1.0,

		MaxLinearCorrection:  0.2,
		MaxAngularCorrection: 8.0 / 180.0 * math.Pi,

		MaxTranslation: 2.0,
		MaxRotation:    0.5 * math.Pi,

		Baumgarte:    0.2,
		TOIBaumgarte: 0.75,

		VelocityIterations:    8,
		PositionIterations:    3,
		TOIPositionIterations: 20,

		MaxTOIIterations:    20,
		MaxTOIRootIterCount: 50,

		MaxSubSteps: 8,

		HysteresisRelativeTol: 0.98,
		HysteresisAbsoluteTol: 0.001,

		LinearSleepTolerance:  0.01,
		AngularSleepTolerance: 2.0 / 180.0 * math.Pi,
		TimeToSleep:           0.5,
	}
}

// Validate reports the first tunable that cannot produce a sound solve.
func (c Config) Validate() error {
	switch {
	case c.LinearSlop <= 0:
		return errors.New("rigid2d: LinearSlop must be positive")
	case c.AngularSlop <= 0:
		return errors.New("rigid2d: AngularSlop must be positive")
	case c.MaxManifoldPoints != 2:
		return errors.New("rigid2d: MaxManifoldPoints must be 2, the block solver assumes exactly two contact points")
	case c.MaxPolygonVertices < 3:
		return errors.New("rigid2d: MaxPolygonVertices must be at least 3")
	case c.PolygonRadius < 0:
		return errors.New("rigid2d: PolygonRadius must not be negative")
	case c.VelocityThreshold < 0:
		return errors.New("rigid2d: VelocityThreshold must not be negative")
	case c.MaxLinearCorrection < 0 || c.MaxAngularCorrection < 0:
		return errors.New("rigid2d: MaxLinearCorrection and MaxAngularCorrection must not be negative")
	case c.Baumgarte <= 0 || c.Baumgarte > 1:
		return errors.New("rigid2d: Baumgarte must be in (0, 1]")
	case c.TOIBaumgarte <= 0 || c.TOIBaumgarte > 1:
		return errors.New("rigid2d: TOIBaumgarte must be in (0, 1]")
	case c.VelocityIterations < 1 || c.PositionIterations < 1:
		return errors.New("rigid2d: VelocityIterations and PositionIterations must be at least 1")
	case c.MaxTOIIterations < 1 || c.MaxTOIRootIterCount < 1:
		return errors.New("rigid2d: MaxTOIIterations and MaxTOIRootIterCount must be at least 1")
	case c.MaxSubSteps < 1:
		return errors.New("rigid2d: MaxSubSteps must be at least 1")
	}
	return nil
}
