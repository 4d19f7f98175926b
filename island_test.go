package rigid2d

import (
	"fmt"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restingCircleOnGroundManifold builds a polygon-face/circle manifold for a
// circle of radius 0.5 resting exactly on a ground face through the origin
// with an upward normal, matching what collidePolygonAndCircle would
// produce for that configuration.
func restingCircleOnGroundManifold() *Manifold {
	m := &Manifold{
		Type:        ManifoldFaceA,
		LocalNormal: Vec2{0, 1},
		LocalPoint:  Vec2{0, 0},
		PointCount:  1,
	}
	m.Points[0].LocalPoint = Vec2{0, 0}
	return m
}

func restingContactView(bodyA, bodyB int) *ContactView {
	return &ContactView{
		BodyA:       bodyA,
		BodyB:       bodyB,
		Manifold:    restingCircleOnGroundManifold(),
		RadiusA:     0,
		RadiusB:     0.5,
		Friction:    0,
		Restitution: 0,
	}
}

func TestSolveIslandCancelsNormalVelocityOnRestingContact(t *testing.T) {
	cfg := DefaultConfig()
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.5})

	bodies := newFakeBodyState(ground, circle)
	island := Island{
		BodyIndices: []int{0, 1},
		Contacts:    NewPairList([]*ContactView{restingContactView(0, 1)}),
	}

	step := TimeStep{Dt: 1.0 / 60.0, InvDt: 60.0, DtRatio: 1.0, VelocityIterations: 8, PositionIterations: 3, WarmStarting: true}
	SolveIsland(bodies, island, step, Vec2{0, -10}, cfg, true, nil)

	v, w := bodies.Velocity(1)
	assert.InDelta(t, 0.0, v.Y, 1e-9)
	assert.InDelta(t, 0.0, w, 1e-9)

	sweep := bodies.Sweep(1)
	assert.InDelta(t, 0.5, sweep.C.Y, 1e-6)
}

func TestSolveIslandGroundNeverMoves(t *testing.T) {
	cfg := DefaultConfig()
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.5})

	bodies := newFakeBodyState(ground, circle)
	island := Island{
		BodyIndices: []int{0, 1},
		Contacts:    NewPairList([]*ContactView{restingContactView(0, 1)}),
	}
	step := TimeStep{Dt: 1.0 / 60.0, InvDt: 60.0, DtRatio: 1.0, VelocityIterations: 8, PositionIterations: 3, WarmStarting: true}
	SolveIsland(bodies, island, step, Vec2{0, -10}, cfg, true, nil)

	sweep := bodies.Sweep(0)
	assert.Equal(t, Vec2{0, 0}, sweep.C)
}

func TestSolveIslandReportsImpulsesThroughOnSolve(t *testing.T) {
	cfg := DefaultConfig()
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.5})
	bodies := newFakeBodyState(ground, circle)

	contact := restingContactView(0, 1)
	island := Island{BodyIndices: []int{0, 1}, Contacts: NewPairList([]*ContactView{contact})}
	step := TimeStep{Dt: 1.0 / 60.0, InvDt: 60.0, DtRatio: 1.0, VelocityIterations: 8, PositionIterations: 3, WarmStarting: true}

	var reported *ContactImpulse
	SolveIsland(bodies, island, step, Vec2{0, -10}, cfg, true, func(c *ContactView, impulse ContactImpulse) {
		reported = &impulse
	})

	require.NotNil(t, reported)
	require.Equal(t, 1, reported.Count)
	assert.Greater(t, reported.NormalImpulses[0], 0.0)
}

// dumpBodies formats the settled state of every listed body, the way a
// scripted scene's per-frame report would, so two solve paths' outcomes can
// be compared with a unified diff instead of a field-by-field walk.
func dumpBodies(bodies *fakeBodyState, indices []int) string {
	out := ""
	for _, i := range indices {
		b := bodies.bodies[i]
		out += fmt.Sprintf("%d: pos=(%.9f, %.9f) vel=(%.9f, %.9f) w=%.9f\n", i, b.sweep.C.X, b.sweep.C.Y, b.v.X, b.v.Y, b.w)
	}
	return out
}

func buildTwoIslandWorld() (*fakeBodyState, []Island) {
	bodies := newFakeBodyState(
		staticFakeBody(Vec2{0, 0}),
		dynamicFakeBody(1.0, 0, Vec2{0, 0.5}),
		staticFakeBody(Vec2{10, 0}),
		dynamicFakeBody(1.0, 0, Vec2{10, 0.5}),
	)
	// ContactView.BodyA/BodyB are island-local indices into BodyIndices, not
	// real BodyState indices, so both islands use the same local pair (0, 1)
	// even though island two's bodies sit at real indices 2 and 3.
	islands := []Island{
		{BodyIndices: []int{0, 1}, Contacts: NewPairList([]*ContactView{restingContactView(0, 1)})},
		{BodyIndices: []int{2, 3}, Contacts: NewPairList([]*ContactView{restingContactView(0, 1)})},
	}
	return bodies, islands
}

func TestSolveIslandsParallelMatchesSequential(t *testing.T) {
	cfg := DefaultConfig()
	step := TimeStep{Dt: 1.0 / 60.0, InvDt: 60.0, DtRatio: 1.0, VelocityIterations: 8, PositionIterations: 3, WarmStarting: true}
	gravity := Vec2{0, -10}

	seqBodies, seqIslands := buildTwoIslandWorld()
	for _, isl := range seqIslands {
		SolveIsland(seqBodies, isl, step, gravity, cfg, true, nil)
	}
	sequential := dumpBodies(seqBodies, []int{0, 1, 2, 3})

	parBodies, parIslands := buildTwoIslandWorld()
	_, err := SolveIslandsParallel(parBodies, parIslands, step, gravity, cfg, true, nil)
	require.NoError(t, err)
	parallel := dumpBodies(parBodies, []int{0, 1, 2, 3})

	if sequential != parallel {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(sequential),
			B:        difflib.SplitLines(parallel),
			FromFile: "Sequential",
			ToFile:   "Parallel",
			Context:  0,
		}
		text, _ := difflib.GetUnifiedDiffString(diff)
		t.Fatalf("SolveIslandsParallel diverged from sequential SolveIsland:\n%s", text)
	}
}

func TestSolveIslandStatsReportConvergedSolve(t *testing.T) {
	cfg := DefaultConfig()
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.5})
	bodies := newFakeBodyState(ground, circle)

	island := Island{
		BodyIndices: []int{0, 1},
		Contacts:    NewPairList([]*ContactView{restingContactView(0, 1)}),
	}
	step := TimeStep{Dt: 1.0 / 60.0, InvDt: 60.0, DtRatio: 1.0, VelocityIterations: 8, PositionIterations: 3, WarmStarting: true}

	stats := SolveIsland(bodies, island, step, Vec2{0, -10}, cfg, true, nil)

	assert.Equal(t, 8, stats.VelocityIterationsRun)
	assert.GreaterOrEqual(t, stats.PositionIterationsRun, 1)
	assert.Greater(t, stats.MaxIncrementalImpulse, 0.0)
	assert.Less(t, stats.MinSeparation, maxFloat)
	assert.Equal(t, 0, stats.SkippedZeroMassPoints)
}

func TestSolveTOIIslandRestrictsCorrectionToTOIBodies(t *testing.T) {
	cfg := DefaultConfig()
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.4})
	bodies := newFakeBodyState(ground, circle)

	island := Island{
		BodyIndices: []int{0, 1},
		Contacts:    NewPairList([]*ContactView{restingContactView(0, 1)}),
	}
	subStep := TimeStep{Dt: 1.0 / 600.0, InvDt: 600.0, VelocityIterations: 4, PositionIterations: 10}

	SolveTOIIsland(bodies, island, subStep, 0, 1, cfg)

	sweep := bodies.Sweep(1)
	assert.GreaterOrEqual(t, sweep.C.Y, 0.4)

	groundSweep := bodies.Sweep(0)
	assert.Equal(t, Vec2{0, 0}, groundSweep.C)
}

func TestResolveTOIEventsStopsAtMaxSubSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSubSteps = 2

	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.4})
	bodies := newFakeBodyState(ground, circle)

	island := Island{
		BodyIndices: []int{0, 1},
		Contacts:    NewPairList([]*ContactView{restingContactView(0, 1)}),
	}
	subStep := TimeStep{Dt: 1.0 / 600.0, InvDt: 600.0, VelocityIterations: 4, PositionIterations: 10}

	offered := 0
	next := func() (int, int, bool) {
		offered++
		return 0, 1, true
	}

	resolved := ResolveTOIEvents(bodies, island, subStep, cfg, next)

	assert.Equal(t, cfg.MaxSubSteps, resolved)
	assert.Equal(t, cfg.MaxSubSteps, offered)
}

func TestResolveTOIEventsStopsWhenNextFindsNoEvent(t *testing.T) {
	cfg := DefaultConfig()
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.4})
	bodies := newFakeBodyState(ground, circle)

	island := Island{
		BodyIndices: []int{0, 1},
		Contacts:    NewPairList([]*ContactView{restingContactView(0, 1)}),
	}
	subStep := TimeStep{Dt: 1.0 / 600.0, InvDt: 600.0, VelocityIterations: 4, PositionIterations: 10}

	next := func() (int, int, bool) { return 0, 0, false }

	resolved := ResolveTOIEvents(bodies, island, subStep, cfg, next)
	assert.Equal(t, 0, resolved)
}
