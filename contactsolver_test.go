package rigid2d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPointManifold(ny float64, p0, p1 Vec2) *Manifold {
	m := &Manifold{
		Type:        ManifoldFaceA,
		LocalNormal: Vec2{0, ny},
		LocalPoint:  Vec2{0, 0},
		PointCount:  2,
	}
	m.Points[0].LocalPoint = p0
	m.Points[1].LocalPoint = p1
	return m
}

func buildSolver(bodies *fakeBodyState, contacts []*ContactView, warmStart bool) (*contactSolver, []Position, []Velocity) {
	n := bodies.Count()
	positions := make([]Position, n)
	velocities := make([]Velocity, n)
	for i := 0; i < n; i++ {
		sw := bodies.Sweep(i)
		v, w := bodies.Velocity(i)
		positions[i] = Position{C: sw.C, A: sw.A}
		velocities[i] = Velocity{V: v, W: w}
	}
	s := newContactSolver(contacts, positions, velocities, DefaultConfig(), warmStart, 1.0, &StackAllocator{})
	s.setBodyProperties(bodies)
	return s, positions, velocities
}

func TestContactSolverSingleContactCancelsApproachVelocity(t *testing.T) {
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.5})
	circle.v = Vec2{0, -2.0}
	bodies := newFakeBodyState(ground, circle)

	contact := restingContactView(0, 1)
	s, _, _ := buildSolver(bodies, []*ContactView{contact}, false)

	s.initializeVelocityConstraints()
	for i := 0; i < 8; i++ {
		s.solveVelocityConstraints()
	}

	v := s.velocities[1]
	assert.InDelta(t, 0.0, v.V.Y, 1e-9)
}

func TestContactSolverWarmStartAppliesStoredImpulse(t *testing.T) {
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.5})
	bodies := newFakeBodyState(ground, circle)

	contact := restingContactView(0, 1)
	contact.Manifold.Points[0].NormalImpulse = 1.0

	s, _, _ := buildSolver(bodies, []*ContactView{contact}, true)
	s.initializeVelocityConstraints()
	s.warmStartVelocities()

	v := s.velocities[1]
	assert.InDelta(t, 1.0, v.V.Y, 1e-9)

	vA := s.velocities[0]
	assert.Equal(t, Vec2{0, 0}, vA.V)
}

func TestContactSolverStoreImpulsesRoundTripsToManifold(t *testing.T) {
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.5})
	circle.v = Vec2{0, -3.0}
	bodies := newFakeBodyState(ground, circle)

	contact := restingContactView(0, 1)
	s, _, _ := buildSolver(bodies, []*ContactView{contact}, false)
	s.initializeVelocityConstraints()
	for i := 0; i < 8; i++ {
		s.solveVelocityConstraints()
	}
	s.storeImpulses()

	assert.Greater(t, contact.Manifold.Points[0].NormalImpulse, 0.0)
}

func TestContactSolverBlockSolveBothPointsNonNegative(t *testing.T) {
	ground := staticFakeBody(Vec2{0, 0})
	box := dynamicFakeBody(1.0, 1.0, Vec2{0, 1})
	box.v = Vec2{0, -1.5}
	bodies := newFakeBodyState(ground, box)

	contact := &ContactView{
		BodyA:    0,
		BodyB:    1,
		Manifold: twoPointManifold(1, Vec2{-1, -0.5}, Vec2{1, -0.5}),
		RadiusA:  0,
		RadiusB:  0,
	}

	s, _, _ := buildSolver(bodies, []*ContactView{contact}, false)
	s.initializeVelocityConstraints()
	for i := 0; i < 8; i++ {
		s.solveVelocityConstraints()
	}

	vc := s.velocityConstraints[0]
	assert.GreaterOrEqual(t, vc.Points[0].NormalImpulse, 0.0)
	assert.GreaterOrEqual(t, vc.Points[1].NormalImpulse, 0.0)

	v := s.velocities[1]
	assert.GreaterOrEqual(t, v.V.Y, -1e-6)
}

func TestContactSolverPositionConstraintsConvergeOnOverlap(t *testing.T) {
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.3})
	bodies := newFakeBodyState(ground, circle)

	contact := restingContactView(0, 1)
	s, _, _ := buildSolver(bodies, []*ContactView{contact}, false)

	solved := false
	for i := 0; i < 20; i++ {
		if s.solvePositionConstraints() {
			solved = true
			break
		}
	}

	require.True(t, solved)
	assert.Greater(t, s.positions[1].C.Y, 0.3)
}

func TestContactSolverTOIPositionConstraintsLeavesNonTOIBodiesFixed(t *testing.T) {
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.3})
	bodies := newFakeBodyState(ground, circle)

	contact := restingContactView(0, 1)
	s, _, _ := buildSolver(bodies, []*ContactView{contact}, false)

	for i := 0; i < 20; i++ {
		if s.solveTOIPositionConstraints(0, 1) {
			break
		}
	}

	assert.Equal(t, Vec2{0, 0}, s.positions[0].C)
	assert.Greater(t, s.positions[1].C.Y, 0.3)
}

func TestContactSolverPositionConstraintsSkipsInvalidSeparation(t *testing.T) {
	ground := staticFakeBody(Vec2{0, 0})
	circle := dynamicFakeBody(1.0, 0, Vec2{0, 0.3})
	bodies := newFakeBodyState(ground, circle)

	contact := restingContactView(0, 1)
	contact.Manifold.Points[0].LocalPoint = Vec2{math.NaN(), 0}
	s, _, _ := buildSolver(bodies, []*ContactView{contact}, false)

	solved := s.solvePositionConstraints()

	assert.True(t, solved)
	assert.True(t, math.IsInf(s.minSeparation, 1))
	assert.Equal(t, Vec2{0, 0.3}, s.positions[1].C)
}
