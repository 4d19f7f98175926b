package rigid2d

import "math"

// MixFriction combines two surfaces' friction coefficients the way this
// package's contact solver expects: either surface can drive the pair's
// effective friction toward zero, the way anything slides on ice.
func MixFriction(frictionA, frictionB float64) float64 {
	return math.Sqrt(frictionA * frictionB)
}

// MixRestitution combines two surfaces' restitution coefficients by taking
// the larger, so a bouncy surface stays bouncy against an inelastic one.
func MixRestitution(restitutionA, restitutionB float64) float64 {
	if restitutionA > restitutionB {
		return restitutionA
	}
	return restitutionB
}

// Shape is what UpdateManifold needs from a convex shape: a proxy for the
// distance query and TOI search, and an AABB for whatever broad-phase the
// caller runs upstream of this package.
type Shape interface {
	Proxy() *DistanceProxy
	ComputeAABB(xf Transform) AABB
}

// BodyMotionType classifies how a body participates in a step: a static
// body never moves, a kinematic body moves only by its prescribed
// velocity, and a dynamic body is fully driven by forces and contacts.
type BodyMotionType int

const (
	StaticBody BodyMotionType = iota
	KinematicBody
	DynamicBody
)

// BodyState is the body-state provider: the core reads and writes a body's
// motion state by index, but never owns bodies, never creates or destroys
// them, and never sees anything about a body beyond what solving needs.
type BodyState interface {
	Count() int
	Type(i int) BodyMotionType
	InvMass(i int) float64
	InvI(i int) float64
	LocalCenter(i int) Vec2
	Sweep(i int) Sweep
	SetSweep(i int, s Sweep)
	Velocity(i int) (v Vec2, w float64)
	SetVelocity(i int, v Vec2, w float64)

	// Force, Torque, GravityScale, LinearDamping and AngularDamping feed
	// the velocity integration a dynamic body gets at the start of a step.
	Force(i int) Vec2
	Torque(i int) float64
	GravityScale(i int) float64
	LinearDamping(i int) float64
	AngularDamping(i int) float64

	// AutoSleepEnabled, SleepTime, SetSleepTime and SetAwake let the
	// island driver retire bodies that have stayed at rest; a BodyState
	// that never wants sleeping can make AutoSleepEnabled always false.
	AutoSleepEnabled(i int) bool
	SleepTime(i int) float64
	SetSleepTime(i int, t float64)
	SetAwake(i int, awake bool)
}

// ContactView is everything the velocity/position solver needs to know
// about one contact: which two bodies it joins, the manifold narrow-phase
// produced for them, their combined surface properties, and the skin
// radii needed to recover a target separation from a manifold point.
type ContactView struct {
	BodyA, BodyB         int
	Manifold             *Manifold
	RadiusA, RadiusB     float64
	Friction             float64
	Restitution          float64
	TangentSpeed         float64
}

// PairList is the pair-list provider: the set of contacts touching an
// island, in whatever order the caller's broad-phase or contact manager
// discovered them. The core never mutates this list's membership — only
// the manifolds and impulses it points to.
type PairList interface {
	Len() int
	At(i int) *ContactView
}

// slicePairList adapts a plain slice to PairList for callers that already
// have their contacts in a slice.
type slicePairList []*ContactView

func (s slicePairList) Len() int              { return len(s) }
func (s slicePairList) At(i int) *ContactView { return s[i] }

// NewPairList wraps a slice of contacts as a PairList.
func NewPairList(contacts []*ContactView) PairList {
	return slicePairList(contacts)
}

// flipManifold swaps the manifold's notion of which shape is "A" and which
// is "B". For face manifolds, Manifold.LocalPoint/LocalNormal are defined
// relative to whichever shape ManifoldType names (A for ManifoldFaceA, B for
// ManifoldFaceB) and Points[].LocalPoint relative to the other shape, so
// swapping the face owner is enough. A ManifoldCircles manifold always keeps
// A's point in LocalPoint and B's in Points[0].LocalPoint, so those two are
// exchanged. Every point's feature indices are swapped in all cases.
func flipManifold(m *Manifold) {
	switch m.Type {
	case ManifoldFaceA:
		m.Type = ManifoldFaceB
	case ManifoldFaceB:
		m.Type = ManifoldFaceA
	case ManifoldCircles:
		m.LocalPoint, m.Points[0].LocalPoint = m.Points[0].LocalPoint, m.LocalPoint
	}
	for i := 0; i < m.PointCount; i++ {
		id := &m.Points[i].ID
		id.IndexA, id.IndexB = id.IndexB, id.IndexA
		id.TypeA, id.TypeB = id.TypeB, id.TypeA
	}
}

// UpdateManifold computes the contact manifold between two convex shapes
// at the given transforms, dispatching on their concrete kinds. Chain
// shapes are not accepted directly — a caller drives a chain's per-edge
// UpdateManifold calls itself via ChainShape.EdgeAt; a whole chain never
// becomes a single proxy.
func UpdateManifold(manifold *Manifold, shapeA Shape, xfA Transform, shapeB Shape, xfB Transform, cfg Config) {
	manifold.PointCount = 0

	switch a := shapeA.(type) {
	case *CircleShape:
		switch b := shapeB.(type) {
		case *CircleShape:
			collideCircles(manifold, a, xfA, b, xfB)
		case *PolygonShape:
			collidePolygonAndCircle(manifold, b, xfB, a, xfA)
			flipManifold(manifold)
		case *EdgeShape:
			collideEdgeAndCircle(manifold, b, xfB, a, xfA)
			flipManifold(manifold)
		}

	case *PolygonShape:
		switch b := shapeB.(type) {
		case *CircleShape:
			collidePolygonAndCircle(manifold, a, xfA, b, xfB)
		case *PolygonShape:
			collidePolygons(manifold, a, xfA, b, xfB, cfg)
		case *EdgeShape:
			collideEdgeAndPolygon(manifold, b, xfB, a, xfA, cfg)
			flipManifold(manifold)
		}

	case *EdgeShape:
		switch b := shapeB.(type) {
		case *CircleShape:
			collideEdgeAndCircle(manifold, a, xfA, b, xfB)
		case *PolygonShape:
			collideEdgeAndPolygon(manifold, a, xfA, b, xfB, cfg)
		case *EdgeShape:
			// Two open curves meeting edge-on have no well-defined face;
			// this engine only ever pairs an edge/chain against a circle
			// or polygon.
		}
	}
}
