package rigid2d

import (
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// TimeStep is the set of quantities that vary per call to SolveIsland,
// as opposed to Config's tunables which stay fixed across a simulation.
type TimeStep struct {
	Dt      float64
	InvDt   float64
	DtRatio float64

	VelocityIterations int
	PositionIterations int
	WarmStarting       bool
}

// ContactImpulse reports the impulses a contact ended a velocity solve
// with, for callers that want to drive audio/particle effects or gameplay
// logic from collision response strength.
type ContactImpulse struct {
	NormalImpulses, TangentImpulses [MaxManifoldPoints]float64
	Count                           int
}

// StepStats reports how long each phase of one island solve took, plus the
// diagnostics a caller needs to judge solve quality without instrumenting
// the solver itself: how many iterations actually ran, the largest impulse
// change any velocity iteration applied, how much penetration remained, and how
// often the solver had to fall back from its fast paths.
type StepStats struct {
	SolveInit     time.Duration
	SolveVelocity time.Duration
	SolvePosition time.Duration

	VelocityIterationsRun int
	PositionIterationsRun int

	// MaxIncrementalImpulse is the largest single per-iteration impulse
	// change solveVelocityConstraints applied, across every contact point
	// and every iteration — a cheap proxy for how far from equilibrium the
	// velocity solve started.
	MaxIncrementalImpulse float64
	// MinSeparation is the smallest per-point separation observed by the
	// last position-correction pass that ran. +Inf means the pass found no
	// valid (non-NaN, non-infinite) separation to measure.
	MinSeparation float64
	// BlockSolverFallbacks counts how many times a two-point contact's 2x2
	// LCP had no case satisfying the complementarity conditions, so the
	// block solver left that contact's impulses unchanged for the
	// iteration.
	BlockSolverFallbacks int
	// SkippedZeroMassPoints counts contact points whose effective normal
	// mass was non-positive (both bodies pinned against that normal) and
	// so were left with zero normal mass instead of solved.
	SkippedZeroMassPoints int
}

// Island is one connected component of touching bodies, gathered by
// whatever broad-phase/union-find the caller runs upstream of this
// package: the indices named in BodyIndices and the contacts in Contacts
// must all belong to that component.
type Island struct {
	BodyIndices []int
	Contacts    PairList
}

// SolveIsland advances every body named in island.BodyIndices by one step
// and resolves every contact in island.Contacts against it: integrate
// velocities, warm-start and solve the contact impulses, integrate
// positions, then run the position-correction pass. Bodies outside the
// island are untouched. onSolve, if non-nil, is called once per contact
// after the velocity solve with the impulses it ended on.
func SolveIsland(bodies BodyState, island Island, step TimeStep, gravity Vec2, cfg Config, allowSleep bool, onSolve func(c *ContactView, impulse ContactImpulse)) StepStats {
	var stats StepStats

	withArena(func(arena *StackAllocator) {
		n := len(island.BodyIndices)

		positions := arena.allocPositions(n)
		velocities := arena.allocVelocities(n)
		// No renumbering happens here: the contact solver indexes positions
		// and velocities by ContactView.BodyA/B directly, so those must
		// already be local indices into island.BodyIndices (the caller
		// assembling the island does that renumbering, as the broad-phase
		// that forms islands does the grouping of bodies in the first
		// place).
		h := step.Dt

		for i, bi := range island.BodyIndices {
			sweep := bodies.Sweep(bi)
			v, w := bodies.Velocity(bi)

			if bodies.Type(bi) == DynamicBody {
				v = AddVec2(v, ScaleVec2(h, AddVec2(ScaleVec2(bodies.GravityScale(bi), gravity), ScaleVec2(bodies.InvMass(bi), bodies.Force(bi)))))
				w += h * bodies.InvI(bi) * bodies.Torque(bi)

				v = ScaleVec2(1.0/(1.0+h*bodies.LinearDamping(bi)), v)
				w *= 1.0 / (1.0 + h*bodies.AngularDamping(bi))
			}

			positions[i] = Position{C: sweep.C, A: sweep.A}
			velocities[i] = Velocity{V: v, W: w}
		}

		contacts := make([]*ContactView, island.Contacts.Len())
		for i := 0; i < island.Contacts.Len(); i++ {
			contacts[i] = island.Contacts.At(i)
		}

		t0 := time.Now()
		solver := newContactSolver(contacts, positions, velocities, cfg, step.WarmStarting, step.DtRatio, arena)
		solver.setBodyProperties(islandBodyState{bodies, island.BodyIndices})
		solver.initializeVelocityConstraints()
		if step.WarmStarting {
			solver.warmStartVelocities()
		}
		stats.SolveInit = time.Now().Sub(t0)

		t0 = time.Now()
		for i := 0; i < step.VelocityIterations; i++ {
			solver.solveVelocityConstraints()
		}
		stats.VelocityIterationsRun = step.VelocityIterations
		solver.storeImpulses()
		stats.SolveVelocity = time.Now().Sub(t0)

		for i := range island.BodyIndices {
			c, a := positions[i].C, positions[i].A
			v, w := velocities[i].V, velocities[i].W

			translation := ScaleVec2(h, v)
			if DotVec2(translation, translation) > cfg.MaxTranslation*cfg.MaxTranslation {
				ratio := cfg.MaxTranslation / translation.Length()
				v = ScaleVec2(ratio, v)
			}

			rotation := h * w
			if rotation*rotation > cfg.MaxRotation*cfg.MaxRotation {
				ratio := cfg.MaxRotation / math.Abs(rotation)
				w *= ratio
			}

			c = AddVec2(c, ScaleVec2(h, v))
			a += h * w

			positions[i] = Position{C: c, A: a}
			velocities[i] = Velocity{V: v, W: w}
		}

		t0 = time.Now()
		positionSolved := false
		for i := 0; i < step.PositionIterations; i++ {
			stats.PositionIterationsRun = i + 1
			if solver.solvePositionConstraints() {
				positionSolved = true
				break
			}
		}
		stats.SolvePosition = time.Now().Sub(t0)

		for i, bi := range island.BodyIndices {
			sweep := bodies.Sweep(bi)
			sweep.C = positions[i].C
			sweep.A = positions[i].A
			bodies.SetSweep(bi, sweep)
			bodies.SetVelocity(bi, velocities[i].V, velocities[i].W)
		}

		reportImpulses(contacts, solver.velocityConstraints, onSolve)

		if allowSleep {
			applySleep(bodies, island.BodyIndices, h, positionSolved, cfg)
		}

		stats.MaxIncrementalImpulse = solver.maxIncrementalImpulse
		stats.MinSeparation = solver.minSeparation
		stats.BlockSolverFallbacks = solver.blockSolverFallbacks
		stats.SkippedZeroMassPoints = solver.skippedZeroMassPoints
	})

	return stats
}

// SolveTOIIsland runs the time-of-impact sub-step solve: position-only
// correction restricted to the two bodies that produced the TOI event,
// then a velocity re-solve with no warm starting (TOI impulses are not
// carried forward — see DynamicsB2Island.go's SolveTOI for why) and a
// final position integration for the whole island.
func SolveTOIIsland(bodies BodyState, island Island, subStep TimeStep, toiIndexA, toiIndexB int, cfg Config) {
	withArena(func(arena *StackAllocator) {
		n := len(island.BodyIndices)
		positions := arena.allocPositions(n)
		velocities := arena.allocVelocities(n)

		for i, bi := range island.BodyIndices {
			sweep := bodies.Sweep(bi)
			v, w := bodies.Velocity(bi)
			positions[i] = Position{C: sweep.C, A: sweep.A}
			velocities[i] = Velocity{V: v, W: w}
		}

		contacts := make([]*ContactView, island.Contacts.Len())
		for i := 0; i < island.Contacts.Len(); i++ {
			contacts[i] = island.Contacts.At(i)
		}

		solver := newContactSolver(contacts, positions, velocities, cfg, false, 0, arena)
		solver.setBodyProperties(islandBodyState{bodies, island.BodyIndices})

		for i := 0; i < subStep.PositionIterations; i++ {
			if solver.solveTOIPositionConstraints(toiIndexA, toiIndexB) {
				break
			}
		}

		sweepA := bodies.Sweep(island.BodyIndices[toiIndexA])
		sweepA.C0, sweepA.A0 = positions[toiIndexA].C, positions[toiIndexA].A
		bodies.SetSweep(island.BodyIndices[toiIndexA], sweepA)

		sweepB := bodies.Sweep(island.BodyIndices[toiIndexB])
		sweepB.C0, sweepB.A0 = positions[toiIndexB].C, positions[toiIndexB].A
		bodies.SetSweep(island.BodyIndices[toiIndexB], sweepB)

		solver.initializeVelocityConstraints()
		for i := 0; i < subStep.VelocityIterations; i++ {
			solver.solveVelocityConstraints()
		}

		h := subStep.Dt
		for i, bi := range island.BodyIndices {
			c, a := positions[i].C, positions[i].A
			v, w := velocities[i].V, velocities[i].W

			translation := ScaleVec2(h, v)
			if DotVec2(translation, translation) > cfg.MaxTranslation*cfg.MaxTranslation {
				ratio := cfg.MaxTranslation / translation.Length()
				v = ScaleVec2(ratio, v)
			}
			rotation := h * w
			if rotation*rotation > cfg.MaxRotation*cfg.MaxRotation {
				ratio := cfg.MaxRotation / math.Abs(rotation)
				w *= ratio
			}

			c = AddVec2(c, ScaleVec2(h, v))
			a += h * w

			sweep := bodies.Sweep(bi)
			sweep.C, sweep.A = c, a
			bodies.SetSweep(bi, sweep)
			bodies.SetVelocity(bi, v, w)
		}
	})
}

// ResolveTOIEvents repeatedly resolves the island's earliest outstanding
// time-of-impact event, calling next to find it, until next reports none
// remaining or cfg.MaxSubSteps sub-steps have run. MaxSubSteps bounds how
// many TOI events a single island solve will process before giving up and
// letting any remaining overlap persist into the next step — the caller
// drives TOI detection (broad-phase queries, TimeOfImpact calls against
// candidate pairs) and hands this loop the winning pair each round.
func ResolveTOIEvents(bodies BodyState, island Island, subStep TimeStep, cfg Config, next func() (indexA, indexB int, found bool)) int {
	resolved := 0
	for resolved < cfg.MaxSubSteps {
		indexA, indexB, found := next()
		if !found {
			break
		}
		SolveTOIIsland(bodies, island, subStep, indexA, indexB, cfg)
		resolved++
	}
	return resolved
}

// SolveIslandsParallel runs SolveIsland over every island concurrently.
// Islands never share a body (by construction — that's what makes them
// separate islands), so their position/velocity writes never race; the
// only shared state is whatever BodyState implementation the caller
// passes in, which must tolerate concurrent calls for disjoint indices.
func SolveIslandsParallel(bodies BodyState, islands []Island, step TimeStep, gravity Vec2, cfg Config, allowSleep bool, onSolve func(c *ContactView, impulse ContactImpulse)) ([]StepStats, error) {
	stats := make([]StepStats, len(islands))

	var g errgroup.Group
	for i := range islands {
		i := i
		g.Go(func() error {
			stats[i] = SolveIsland(bodies, islands[i], step, gravity, cfg, allowSleep, onSolve)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func reportImpulses(contacts []*ContactView, constraints []contactVelocityConstraint, onSolve func(c *ContactView, impulse ContactImpulse)) {
	if onSolve == nil {
		return
	}
	for i, c := range contacts {
		vc := constraints[i]
		impulse := ContactImpulse{Count: vc.PointCount}
		for j := 0; j < vc.PointCount; j++ {
			impulse.NormalImpulses[j] = vc.Points[j].NormalImpulse
			impulse.TangentImpulses[j] = vc.Points[j].TangentImpulse
		}
		onSolve(c, impulse)
	}
}

func applySleep(bodies BodyState, indices []int, h float64, positionSolved bool, cfg Config) {
	minSleepTime := maxFloat
	linTolSqr := cfg.LinearSleepTolerance * cfg.LinearSleepTolerance
	angTolSqr := cfg.AngularSleepTolerance * cfg.AngularSleepTolerance

	for _, bi := range indices {
		if bodies.Type(bi) == StaticBody {
			continue
		}

		v, w := bodies.Velocity(bi)
		if !bodies.AutoSleepEnabled(bi) || w*w > angTolSqr || DotVec2(v, v) > linTolSqr {
			bodies.SetSleepTime(bi, 0.0)
			minSleepTime = 0.0
		} else {
			bodies.SetSleepTime(bi, bodies.SleepTime(bi)+h)
			minSleepTime = math.Min(minSleepTime, bodies.SleepTime(bi))
		}
	}

	if minSleepTime >= cfg.TimeToSleep && positionSolved {
		for _, bi := range indices {
			bodies.SetAwake(bi, false)
		}
	}
}

// islandBodyState adapts a whole-world BodyState to the local 0..n-1
// indexing the contact solver expects, since ContactView.BodyA/B are
// caller-assigned island-local indices rather than BodyState's own.
type islandBodyState struct {
	bodies  BodyState
	indices []int
}

func (s islandBodyState) Count() int                    { return len(s.indices) }
func (s islandBodyState) InvMass(i int) float64          { return s.bodies.InvMass(s.indices[i]) }
func (s islandBodyState) InvI(i int) float64             { return s.bodies.InvI(s.indices[i]) }
func (s islandBodyState) LocalCenter(i int) Vec2         { return s.bodies.LocalCenter(s.indices[i]) }
func (s islandBodyState) Sweep(i int) Sweep              { return s.bodies.Sweep(s.indices[i]) }
func (s islandBodyState) SetSweep(i int, sw Sweep)       { s.bodies.SetSweep(s.indices[i], sw) }
func (s islandBodyState) Velocity(i int) (Vec2, float64) { return s.bodies.Velocity(s.indices[i]) }
func (s islandBodyState) SetVelocity(i int, v Vec2, w float64) {
	s.bodies.SetVelocity(s.indices[i], v, w)
}
func (s islandBodyState) Type(i int) BodyMotionType    { return s.bodies.Type(s.indices[i]) }
func (s islandBodyState) Force(i int) Vec2             { return s.bodies.Force(s.indices[i]) }
func (s islandBodyState) Torque(i int) float64         { return s.bodies.Torque(s.indices[i]) }
func (s islandBodyState) GravityScale(i int) float64   { return s.bodies.GravityScale(s.indices[i]) }
func (s islandBodyState) LinearDamping(i int) float64  { return s.bodies.LinearDamping(s.indices[i]) }
func (s islandBodyState) AngularDamping(i int) float64 { return s.bodies.AngularDamping(s.indices[i]) }
func (s islandBodyState) AutoSleepEnabled(i int) bool  { return s.bodies.AutoSleepEnabled(s.indices[i]) }
func (s islandBodyState) SleepTime(i int) float64      { return s.bodies.SleepTime(s.indices[i]) }
func (s islandBodyState) SetSleepTime(i int, t float64) {
	s.bodies.SetSleepTime(s.indices[i], t)
}
func (s islandBodyState) SetAwake(i int, awake bool) { s.bodies.SetAwake(s.indices[i], awake) }

