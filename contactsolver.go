package rigid2d

import (
	"math"

	"go.uber.org/zap"
)

// blockSolve controls whether two-point contact patches are solved jointly
// as a 2x2 LCP. Left on by default. A contact patch with an ill-conditioned
// effective mass matrix has its velocity constraint cut to its first point:
// the second point is not warm-started, solved or stored back in the
// velocity pass, and only the position pass still corrects it.
var blockSolve = true

type velocityConstraintPoint struct {
	RA, RB         Vec2
	NormalImpulse  float64
	TangentImpulse float64
	NormalMass     float64
	TangentMass    float64
	VelocityBias   float64
}

// contactVelocityConstraint is the per-contact working state for the
// sequential-impulse velocity solve: masses, friction/restitution, and the
// accumulated impulses being iterated.
type contactVelocityConstraint struct {
	Points             [MaxManifoldPoints]velocityConstraintPoint
	Normal             Vec2
	NormalMass         Mat22
	K                  Mat22
	IndexA, IndexB     int
	InvMassA, InvMassB float64
	InvIA, InvIB       float64
	Friction           float64
	Restitution        float64
	TangentSpeed       float64
	PointCount         int
	ContactIndex       int
}

// contactPositionConstraint is the per-contact working state for the
// sequential position solve, which corrects drift directly on the position
// buffer rather than through velocity.
type contactPositionConstraint struct {
	LocalPoints                [MaxManifoldPoints]Vec2
	LocalNormal, LocalPoint    Vec2
	IndexA, IndexB             int
	InvMassA, InvMassB         float64
	LocalCenterA, LocalCenterB Vec2
	InvIA, InvIB               float64
	Type                       ManifoldType
	RadiusA, RadiusB           float64
	PointCount                 int
}

// Position and Velocity are the per-body buffers the island solver reads
// and writes in place during a step; they are decoupled from BodyState so
// the solver can work on a contiguous scratch array instead of calling
// through the interface on every inner-loop iteration.
type Position struct {
	C Vec2
	A float64
}

type Velocity struct {
	V Vec2
	W float64
}

// contactSolver runs the velocity and position passes of a sequential
// impulse solve over a fixed set of contacts and a shared position/velocity
// buffer, exactly the role the teacher's per-island solver plays, minus any
// dependency on a Body/Fixture object graph.
type contactSolver struct {
	cfg                 Config
	positions           []Position
	velocities          []Velocity
	positionConstraints []contactPositionConstraint
	velocityConstraints []contactVelocityConstraint
	contacts            []*ContactView
	warmStart           bool
	dtRatio             float64

	// Diagnostics accumulated across initializeVelocityConstraints,
	// solveVelocityConstraints/solveBlock, and solvePositionConstraints;
	// SolveIsland copies these into StepStats once a step finishes.
	maxIncrementalImpulse float64
	blockSolverFallbacks  int
	skippedZeroMassPoints int
	minSeparation         float64
}

func newContactSolver(contacts []*ContactView, positions []Position, velocities []Velocity, cfg Config, warmStart bool, dtRatio float64, arena *StackAllocator) *contactSolver {
	s := &contactSolver{
		cfg:                 cfg,
		positions:           positions,
		velocities:          velocities,
		contacts:            contacts,
		warmStart:           warmStart,
		dtRatio:             dtRatio,
		positionConstraints: arena.allocPositionConstraints(len(contacts)),
		velocityConstraints: arena.allocVelocityConstraints(len(contacts)),
		minSeparation:       math.Inf(1),
	}

	for i, c := range contacts {
		manifold := c.Manifold
		pointCount := manifold.PointCount

		vc := &s.velocityConstraints[i]
		vc.Friction = c.Friction
		vc.Restitution = c.Restitution
		vc.TangentSpeed = c.TangentSpeed
		vc.IndexA = c.BodyA
		vc.IndexB = c.BodyB
		vc.ContactIndex = i
		vc.PointCount = pointCount

		pc := &s.positionConstraints[i]
		pc.IndexA = c.BodyA
		pc.IndexB = c.BodyB
		pc.LocalNormal = manifold.LocalNormal
		pc.LocalPoint = manifold.LocalPoint
		pc.PointCount = pointCount
		pc.RadiusA = c.RadiusA
		pc.RadiusB = c.RadiusB
		pc.Type = manifold.Type

		for j := 0; j < pointCount; j++ {
			cp := &manifold.Points[j]
			vcp := &vc.Points[j]
			if warmStart {
				vcp.NormalImpulse = dtRatio * cp.NormalImpulse
				vcp.TangentImpulse = dtRatio * cp.TangentImpulse
			}
			pc.LocalPoints[j] = cp.LocalPoint
		}
	}

	return s
}

// setBodyProperties fills in the mass/inertia/center data the constraint
// setup needs, from whatever BodyState the caller is driving; split out of
// newContactSolver so body properties and the per-point geometry (computed
// once per step by initializeVelocityConstraints) stay separate.
func (s *contactSolver) setBodyProperties(bodies BodyState) {
	for i := range s.contacts {
		vc := &s.velocityConstraints[i]
		pc := &s.positionConstraints[i]

		vc.InvMassA = bodies.InvMass(vc.IndexA)
		vc.InvMassB = bodies.InvMass(vc.IndexB)
		vc.InvIA = bodies.InvI(vc.IndexA)
		vc.InvIB = bodies.InvI(vc.IndexB)

		pc.InvMassA = vc.InvMassA
		pc.InvMassB = vc.InvMassB
		pc.InvIA = vc.InvIA
		pc.InvIB = vc.InvIB
		pc.LocalCenterA = bodies.LocalCenter(vc.IndexA)
		pc.LocalCenterB = bodies.LocalCenter(vc.IndexB)
	}
}

// initializeVelocityConstraints computes every position-dependent quantity
// (contact arms, effective masses, restitution bias) from the current
// position/velocity buffers. Called once per step, before any iteration.
func (s *contactSolver) initializeVelocityConstraints() {
	for i, c := range s.contacts {
		vc := &s.velocityConstraints[i]
		pc := &s.positionConstraints[i]

		indexA, indexB := vc.IndexA, vc.IndexB
		mA, mB := vc.InvMassA, vc.InvMassB
		iA, iB := vc.InvIA, vc.InvIB

		cA, aA := s.positions[indexA].C, s.positions[indexA].A
		vA, wA := s.velocities[indexA].V, s.velocities[indexA].W
		cB, aB := s.positions[indexB].C, s.positions[indexB].A
		vB, wB := s.velocities[indexB].V, s.velocities[indexB].W

		xfA := Transform{Q: NewUnitVec2(aA)}
		xfA.P = SubVec2(cA, RotVec2(xfA.Q, pc.LocalCenterA))
		xfB := Transform{Q: NewUnitVec2(aB)}
		xfB.P = SubVec2(cB, RotVec2(xfB.Q, pc.LocalCenterB))

		var wm WorldManifold
		InitializeWorldManifold(&wm, c.Manifold, xfA, c.RadiusA, xfB, c.RadiusB)
		vc.Normal = wm.Normal

		for j := 0; j < vc.PointCount; j++ {
			vcp := &vc.Points[j]

			vcp.RA = SubVec2(wm.Points[j], cA)
			vcp.RB = SubVec2(wm.Points[j], cB)

			rnA := CrossVec2(vcp.RA, vc.Normal)
			rnB := CrossVec2(vcp.RB, vc.Normal)
			kNormal := mA + mB + iA*rnA*rnA + iB*rnB*rnB
			if kNormal > 0.0 {
				vcp.NormalMass = 1.0 / kNormal
			} else {
				s.skippedZeroMassPoints++
				debugLog("contact_solver: zero-mass contact point skipped", zap.Int("contact", vc.ContactIndex), zap.Int("point", j))
			}

			tangent := CrossScalarVec2(1.0, vc.Normal)
			rtA := CrossVec2(vcp.RA, tangent)
			rtB := CrossVec2(vcp.RB, tangent)
			kTangent := mA + mB + iA*rtA*rtA + iB*rtB*rtB
			if kTangent > 0.0 {
				vcp.TangentMass = 1.0 / kTangent
			}

			vcp.VelocityBias = 0.0
			vRel := DotVec2(vc.Normal, SubVec2(SubVec2(AddVec2(vB, CrossScalarVec2(wB, vcp.RB)), vA), CrossScalarVec2(wA, vcp.RA)))
			if vRel < -s.cfg.VelocityThreshold {
				vcp.VelocityBias = -vc.Restitution * vRel
			}
		}

		if vc.PointCount == 2 && blockSolve {
			vcp1, vcp2 := &vc.Points[0], &vc.Points[1]

			rn1A := CrossVec2(vcp1.RA, vc.Normal)
			rn1B := CrossVec2(vcp1.RB, vc.Normal)
			rn2A := CrossVec2(vcp2.RA, vc.Normal)
			rn2B := CrossVec2(vcp2.RB, vc.Normal)

			k11 := mA + mB + iA*rn1A*rn1A + iB*rn1B*rn1B
			k22 := mA + mB + iA*rn2A*rn2A + iB*rn2B*rn2B
			k12 := mA + mB + iA*rn1A*rn2A + iB*rn1B*rn2B

			const maxConditionNumber = 1000.0
			if k11*k11 < maxConditionNumber*(k11*k22-k12*k12) {
				vc.K = Mat22{Ex: Vec2{k11, k12}, Ey: Vec2{k12, k22}}
				det := vc.K.Det()
				if det != 0 {
					det = 1.0 / det
				}
				vc.NormalMass = Mat22{
					Ex: Vec2{det * k22, -det * k12},
					Ey: Vec2{-det * k12, det * k11},
				}
			} else {
				vc.PointCount = 1
			}
		}
	}
}

func (s *contactSolver) warmStartVelocities() {
	for i := range s.contacts {
		vc := &s.velocityConstraints[i]
		indexA, indexB := vc.IndexA, vc.IndexB
		mA, iA, mB, iB := vc.InvMassA, vc.InvIA, vc.InvMassB, vc.InvIB

		vA, wA := s.velocities[indexA].V, s.velocities[indexA].W
		vB, wB := s.velocities[indexB].V, s.velocities[indexB].W

		normal := vc.Normal
		tangent := CrossScalarVec2(1.0, normal)

		for j := 0; j < vc.PointCount; j++ {
			vcp := &vc.Points[j]
			P := AddVec2(ScaleVec2(vcp.NormalImpulse, normal), ScaleVec2(vcp.TangentImpulse, tangent))
			wA -= iA * CrossVec2(vcp.RA, P)
			vA = SubVec2(vA, ScaleVec2(mA, P))
			wB += iB * CrossVec2(vcp.RB, P)
			vB = AddVec2(vB, ScaleVec2(mB, P))
		}

		s.velocities[indexA] = Velocity{V: vA, W: wA}
		s.velocities[indexB] = Velocity{V: vB, W: wB}
	}
}

// solveVelocityConstraints runs one sequential-impulse pass: friction
// first, then normal impulses, using the 2x2 block solve when a contact has
// two points and the effective mass matrix was well-conditioned.
func (s *contactSolver) solveVelocityConstraints() {
	for i := range s.contacts {
		vc := &s.velocityConstraints[i]
		indexA, indexB := vc.IndexA, vc.IndexB
		mA, iA, mB, iB := vc.InvMassA, vc.InvIA, vc.InvMassB, vc.InvIB
		pointCount := vc.PointCount

		vA, wA := s.velocities[indexA].V, s.velocities[indexA].W
		vB, wB := s.velocities[indexB].V, s.velocities[indexB].W

		normal := vc.Normal
		tangent := CrossScalarVec2(1.0, normal)
		friction := vc.Friction

		for j := 0; j < pointCount; j++ {
			vcp := &vc.Points[j]
			dv := SubVec2(AddVec2(vB, CrossScalarVec2(wB, vcp.RB)), AddVec2(vA, CrossScalarVec2(wA, vcp.RA)))

			vt := DotVec2(dv, tangent) - vc.TangentSpeed
			lambda := vcp.TangentMass * (-vt)

			maxFriction := friction * vcp.NormalImpulse
			newImpulse := Clamp(vcp.TangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = newImpulse - vcp.TangentImpulse
			vcp.TangentImpulse = newImpulse
			s.maxIncrementalImpulse = math.Max(s.maxIncrementalImpulse, math.Abs(lambda))

			P := ScaleVec2(lambda, tangent)
			vA = SubVec2(vA, ScaleVec2(mA, P))
			wA -= iA * CrossVec2(vcp.RA, P)
			vB = AddVec2(vB, ScaleVec2(mB, P))
			wB += iB * CrossVec2(vcp.RB, P)
		}

		if pointCount == 1 || !blockSolve {
			for j := 0; j < pointCount; j++ {
				vcp := &vc.Points[j]
				dv := SubVec2(AddVec2(vB, CrossScalarVec2(wB, vcp.RB)), AddVec2(vA, CrossScalarVec2(wA, vcp.RA)))

				vn := DotVec2(dv, normal)
				lambda := -vcp.NormalMass * (vn - vcp.VelocityBias)

				newImpulse := math.Max(vcp.NormalImpulse+lambda, 0.0)
				lambda = newImpulse - vcp.NormalImpulse
				vcp.NormalImpulse = newImpulse
				s.maxIncrementalImpulse = math.Max(s.maxIncrementalImpulse, math.Abs(lambda))

				P := ScaleVec2(lambda, normal)
				vA = SubVec2(vA, ScaleVec2(mA, P))
				wA -= iA * CrossVec2(vcp.RA, P)
				vB = AddVec2(vB, ScaleVec2(mB, P))
				wB += iB * CrossVec2(vcp.RB, P)
			}
		} else {
			s.solveBlock(vc, &vA, &wA, &vB, &wB, mA, iA, mB, iB, normal)
		}

		s.velocities[indexA] = Velocity{V: vA, W: wA}
		s.velocities[indexB] = Velocity{V: vB, W: wB}
	}
}

// solveBlock solves the two-point normal-impulse LCP by total enumeration
// over the four complementarity cases (Murty), accepting the first case
// whose impulses and resulting normal velocities are both non-negative.
func (s *contactSolver) solveBlock(vc *contactVelocityConstraint, vA *Vec2, wA *float64, vB *Vec2, wB *float64, mA, iA, mB, iB float64, normal Vec2) {
	cp1, cp2 := &vc.Points[0], &vc.Points[1]

	a := Vec2{cp1.NormalImpulse, cp2.NormalImpulse}

	dv1 := SubVec2(AddVec2(*vB, CrossScalarVec2(*wB, cp1.RB)), AddVec2(*vA, CrossScalarVec2(*wA, cp1.RA)))
	dv2 := SubVec2(AddVec2(*vB, CrossScalarVec2(*wB, cp2.RB)), AddVec2(*vA, CrossScalarVec2(*wA, cp2.RA)))

	vn1 := DotVec2(dv1, normal)
	vn2 := DotVec2(dv2, normal)

	b := Vec2{vn1 - cp1.VelocityBias, vn2 - cp2.VelocityBias}
	b = SubVec2(b, Vec2{
		vc.K.Ex.X*a.X + vc.K.Ey.X*a.Y,
		vc.K.Ex.Y*a.X + vc.K.Ey.Y*a.Y,
	})

	apply := func(x Vec2) {
		d := SubVec2(x, a)
		s.maxIncrementalImpulse = math.Max(s.maxIncrementalImpulse, math.Max(math.Abs(d.X), math.Abs(d.Y)))
		P1 := ScaleVec2(d.X, normal)
		P2 := ScaleVec2(d.Y, normal)
		*vA = SubVec2(*vA, ScaleVec2(mA, AddVec2(P1, P2)))
		*wA -= iA * (CrossVec2(cp1.RA, P1) + CrossVec2(cp2.RA, P2))
		*vB = AddVec2(*vB, ScaleVec2(mB, AddVec2(P1, P2)))
		*wB += iB * (CrossVec2(cp1.RB, P1) + CrossVec2(cp2.RB, P2))
		cp1.NormalImpulse = x.X
		cp2.NormalImpulse = x.Y
	}

	// Case 1: vn1 = 0, vn2 = 0.
	x := Vec2{
		-(vc.NormalMass.Ex.X*b.X + vc.NormalMass.Ey.X*b.Y),
		-(vc.NormalMass.Ex.Y*b.X + vc.NormalMass.Ey.Y*b.Y),
	}
	if x.X >= 0.0 && x.Y >= 0.0 {
		apply(x)
		return
	}

	// Case 2: vn1 = 0, x2 = 0.
	x = Vec2{-cp1.NormalMass * b.X, 0.0}
	vn2 = vc.K.Ex.Y*x.X + b.Y
	if x.X >= 0.0 && vn2 >= 0.0 {
		apply(x)
		return
	}

	// Case 3: vn2 = 0, x1 = 0.
	x = Vec2{0.0, -cp2.NormalMass * b.Y}
	vn1 = vc.K.Ey.X*x.Y + b.X
	if x.Y >= 0.0 && vn1 >= 0.0 {
		apply(x)
		return
	}

	// Case 4: x1 = 0, x2 = 0.
	x = Vec2{0.0, 0.0}
	vn1, vn2 = b.X, b.Y
	if vn1 >= 0.0 && vn2 >= 0.0 {
		apply(x)
		return
	}

	// No case satisfies the complementarity conditions; leave impulses as
	// they were. Observed occasionally with degenerate contact patches and
	// does not visibly affect stability.
	s.blockSolverFallbacks++
	debugLog("contact_solver: block LCP fallback, no case satisfied complementarity", zap.Int("contact", vc.ContactIndex))
}

// storeImpulses copies the solved impulses back into each contact's
// manifold so the next step's UpdateManifold can warm-start from them via
// TransferImpulses.
func (s *contactSolver) storeImpulses() {
	for i, c := range s.contacts {
		vc := &s.velocityConstraints[i]
		for j := 0; j < vc.PointCount; j++ {
			c.Manifold.Points[j].NormalImpulse = vc.Points[j].NormalImpulse
			c.Manifold.Points[j].TangentImpulse = vc.Points[j].TangentImpulse
		}
	}
}

type positionSolverManifold struct {
	Normal     Vec2
	Point      Vec2
	Separation float64
}

func initializePositionSolverManifold(pc *contactPositionConstraint, xfA, xfB Transform, index int) positionSolverManifold {
	var psm positionSolverManifold

	switch pc.Type {
	case ManifoldCircles:
		pointA := MulTransform(xfA, pc.LocalPoint)
		pointB := MulTransform(xfB, pc.LocalPoints[0])
		normal, _ := SubVec2(pointB, pointA).Normalized()
		psm.Normal = normal
		psm.Point = ScaleVec2(0.5, AddVec2(pointA, pointB))
		psm.Separation = DotVec2(SubVec2(pointB, pointA), normal) - pc.RadiusA - pc.RadiusB

	case ManifoldFaceA:
		psm.Normal = RotVec2(xfA.Q, pc.LocalNormal)
		planePoint := MulTransform(xfA, pc.LocalPoint)
		clipPoint := MulTransform(xfB, pc.LocalPoints[index])
		psm.Separation = DotVec2(SubVec2(clipPoint, planePoint), psm.Normal) - pc.RadiusA - pc.RadiusB
		psm.Point = clipPoint

	case ManifoldFaceB:
		psm.Normal = RotVec2(xfB.Q, pc.LocalNormal)
		planePoint := MulTransform(xfB, pc.LocalPoint)
		clipPoint := MulTransform(xfA, pc.LocalPoints[index])
		psm.Separation = DotVec2(SubVec2(clipPoint, planePoint), psm.Normal) - pc.RadiusA - pc.RadiusB
		psm.Point = clipPoint
		psm.Normal = psm.Normal.Neg()
	}

	return psm
}

// solvePositionConstraints runs one Baumgarte position-correction pass over
// every contact and reports whether the smallest separation it saw is at
// least -3*LinearSlop, the island solver's stopping criterion.
func (s *contactSolver) solvePositionConstraints() bool {
	minSeparation := math.Inf(1)

	for i := range s.contacts {
		pc := &s.positionConstraints[i]
		indexA, indexB := pc.IndexA, pc.IndexB
		mA, iA := pc.InvMassA, pc.InvIA
		mB, iB := pc.InvMassB, pc.InvIB

		cA, aA := s.positions[indexA].C, s.positions[indexA].A
		cB, aB := s.positions[indexB].C, s.positions[indexB].A

		for j := 0; j < pc.PointCount; j++ {
			xfA := Transform{Q: NewUnitVec2(aA)}
			xfA.P = SubVec2(cA, RotVec2(xfA.Q, pc.LocalCenterA))
			xfB := Transform{Q: NewUnitVec2(aB)}
			xfB.P = SubVec2(cB, RotVec2(xfB.Q, pc.LocalCenterB))

			psm := initializePositionSolverManifold(pc, xfA, xfB, j)
			normal := psm.Normal
			point := psm.Point
			separation := psm.Separation

			if !IsValidFloat(separation) {
				debugLog("contact_solver: invalid separation, point skipped", zap.Int("contact", i), zap.Int("point", j))
				continue
			}

			rA := SubVec2(point, cA)
			rB := SubVec2(point, cB)

			minSeparation = math.Min(minSeparation, separation)

			C := Clamp(s.cfg.Baumgarte*(separation+s.cfg.LinearSlop), -s.cfg.MaxLinearCorrection, 0.0)

			rnA := CrossVec2(rA, normal)
			rnB := CrossVec2(rB, normal)
			K := mA + mB + iA*rnA*rnA + iB*rnB*rnB

			impulse := 0.0
			if K > 0.0 {
				impulse = -C / K
			}

			P := ScaleVec2(impulse, normal)
			cA = SubVec2(cA, ScaleVec2(mA, P))
			aA -= iA * CrossVec2(rA, P)
			cB = AddVec2(cB, ScaleVec2(mB, P))
			aB += iB * CrossVec2(rB, P)
		}

		s.positions[indexA] = Position{C: cA, A: aA}
		s.positions[indexB] = Position{C: cB, A: aB}
	}

	s.minSeparation = minSeparation
	return minSeparation >= -3.0*s.cfg.LinearSlop
}

// solveTOIPositionConstraints is solvePositionConstraints restricted to
// the two bodies actually advanced by a time-of-impact event — every other
// body in the island is treated as immovable for this sub-step.
func (s *contactSolver) solveTOIPositionConstraints(toiIndexA, toiIndexB int) bool {
	minSeparation := math.Inf(1)

	for i := range s.contacts {
		pc := &s.positionConstraints[i]
		indexA, indexB := pc.IndexA, pc.IndexB

		mA, iA := 0.0, 0.0
		if indexA == toiIndexA || indexA == toiIndexB {
			mA, iA = pc.InvMassA, pc.InvIA
		}
		mB, iB := 0.0, 0.0
		if indexB == toiIndexA || indexB == toiIndexB {
			mB, iB = pc.InvMassB, pc.InvIB
		}

		cA, aA := s.positions[indexA].C, s.positions[indexA].A
		cB, aB := s.positions[indexB].C, s.positions[indexB].A

		for j := 0; j < pc.PointCount; j++ {
			xfA := Transform{Q: NewUnitVec2(aA)}
			xfA.P = SubVec2(cA, RotVec2(xfA.Q, pc.LocalCenterA))
			xfB := Transform{Q: NewUnitVec2(aB)}
			xfB.P = SubVec2(cB, RotVec2(xfB.Q, pc.LocalCenterB))

			psm := initializePositionSolverManifold(pc, xfA, xfB, j)
			normal := psm.Normal
			point := psm.Point
			separation := psm.Separation

			if !IsValidFloat(separation) {
				debugLog("contact_solver: invalid TOI separation, point skipped", zap.Int("contact", i), zap.Int("point", j))
				continue
			}

			rA := SubVec2(point, cA)
			rB := SubVec2(point, cB)

			minSeparation = math.Min(minSeparation, separation)

			C := Clamp(s.cfg.TOIBaumgarte*(separation+s.cfg.LinearSlop), -s.cfg.MaxLinearCorrection, 0.0)

			rnA := CrossVec2(rA, normal)
			rnB := CrossVec2(rB, normal)
			K := mA + mB + iA*rnA*rnA + iB*rnB*rnB

			impulse := 0.0
			if K > 0.0 {
				impulse = -C / K
			}

			P := ScaleVec2(impulse, normal)
			cA = SubVec2(cA, ScaleVec2(mA, P))
			aA -= iA * CrossVec2(rA, P)
			cB = AddVec2(cB, ScaleVec2(mB, P))
			aB += iB * CrossVec2(rB, P)
		}

		s.positions[indexA] = Position{C: cA, A: aA}
		s.positions[indexB] = Position{C: cB, A: aB}
	}

	s.minSeparation = minSeparation
	return minSeparation >= -1.5*s.cfg.LinearSlop
}
