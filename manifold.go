package rigid2d

import "math"

// MaxManifoldPoints is the fixed size of a Manifold's point array; the
// block velocity solver assumes exactly this many.
const MaxManifoldPoints = 2

const nullFeature uint8 = math.MaxUint8

// FeatureType distinguishes a vertex feature from a face feature within a
// ContactFeature.
type FeatureType uint8

const (
	FeatureVertex FeatureType = 0
	FeatureFace   FeatureType = 1
)

// ContactFeature names the geometric features on each shape that produced a
// contact point, so the same physical contact can be recognized across
// frames even as its numeric position drifts.
type ContactFeature struct {
	IndexA, IndexB uint8
	TypeA, TypeB   FeatureType
}

// ContactID packs a ContactFeature for cheap equality comparison.
type ContactID ContactFeature

// Key packs the four feature fields into a single comparable value.
func (c ContactID) Key() uint32 {
	return uint32(c.IndexA) | uint32(c.IndexB)<<8 | uint32(c.TypeA)<<16 | uint32(c.TypeB)<<24
}

// ManifoldType selects how a Manifold's LocalPoint/LocalNormal fields and
// its points' LocalPoint fields should be interpreted.
type ManifoldType uint8

const (
	ManifoldCircles ManifoldType = 0
	ManifoldFaceA   ManifoldType = 1
	ManifoldFaceB   ManifoldType = 2
)

// ManifoldPoint is one contact point belonging to a Manifold. Impulses are
// carried here purely for warm-starting across frames (§4.G); they are not
// a reliable measurement of contact force, especially for fast collisions.
type ManifoldPoint struct {
	LocalPoint     Vec2
	NormalImpulse  float64
	TangentImpulse float64
	ID             ContactID
}

// Manifold describes the contact between two convex shapes: either a single
// circle-circle point, or up to MaxManifoldPoints clipped points along a
// reference face on one of the two shapes. LocalPoint/LocalNormal are
// expressed in the frame of shape A for ManifoldFaceA and of shape B for
// ManifoldFaceB; storing contacts this way lets position correction account
// for motion between frames, which matters for continuous physics.
type Manifold struct {
	Points      [MaxManifoldPoints]ManifoldPoint
	LocalNormal Vec2
	LocalPoint  Vec2
	Type        ManifoldType
	PointCount  int
}

// WorldManifold is the world-space rendering of a Manifold: a shared normal
// plus, per point, the midpoint between the two shapes' surfaces and the
// signed separation (negative means overlap).
type WorldManifold struct {
	Normal      Vec2
	Points      [MaxManifoldPoints]Vec2
	Separations [MaxManifoldPoints]float64
}

// InitializeWorldManifold fills wm from a manifold and the two shapes'
// current transforms and skin radii.
func InitializeWorldManifold(wm *WorldManifold, m *Manifold, xfA Transform, radiusA float64, xfB Transform, radiusB float64) {
	if m.PointCount == 0 {
		return
	}

	switch m.Type {
	case ManifoldCircles:
		wm.Normal = Vec2{1, 0}
		pointA := MulTransform(xfA, m.LocalPoint)
		pointB := MulTransform(xfB, m.Points[0].LocalPoint)
		if SubVec2(pointB, pointA).LengthSquared() > Epsilon*Epsilon {
			wm.Normal, _ = SubVec2(pointB, pointA).Normalized()
		}

		cA := AddVec2(pointA, ScaleVec2(radiusA, wm.Normal))
		cB := SubVec2(pointB, ScaleVec2(radiusB, wm.Normal))
		wm.Points[0] = ScaleVec2(0.5, AddVec2(cA, cB))
		wm.Separations[0] = DotVec2(SubVec2(cB, cA), wm.Normal)

	case ManifoldFaceA:
		wm.Normal = RotVec2(xfA.Q, m.LocalNormal)
		planePoint := MulTransform(xfA, m.LocalPoint)

		for i := 0; i < m.PointCount; i++ {
			clipPoint := MulTransform(xfB, m.Points[i].LocalPoint)
			cA := AddVec2(clipPoint, ScaleVec2(radiusA-DotVec2(SubVec2(clipPoint, planePoint), wm.Normal), wm.Normal))
			cB := SubVec2(clipPoint, ScaleVec2(radiusB, wm.Normal))
			wm.Points[i] = ScaleVec2(0.5, AddVec2(cA, cB))
			wm.Separations[i] = DotVec2(SubVec2(cB, cA), wm.Normal)
		}

	case ManifoldFaceB:
		wm.Normal = RotVec2(xfB.Q, m.LocalNormal)
		planePoint := MulTransform(xfB, m.LocalPoint)

		for i := 0; i < m.PointCount; i++ {
			clipPoint := MulTransform(xfA, m.Points[i].LocalPoint)
			cB := AddVec2(clipPoint, ScaleVec2(radiusB-DotVec2(SubVec2(clipPoint, planePoint), wm.Normal), wm.Normal))
			cA := SubVec2(clipPoint, ScaleVec2(radiusA, wm.Normal))
			wm.Points[i] = ScaleVec2(0.5, AddVec2(cA, cB))
			wm.Separations[i] = DotVec2(SubVec2(cA, cB), wm.Normal)
		}

		// Keep the normal pointing from A to B regardless of which shape
		// owns the reference face.
		wm.Normal = wm.Normal.Neg()
	}
}

// PointState classifies a manifold point's lifecycle between two successive
// manifolds for the same shape pair.
type PointState uint8

const (
	PointNull    PointState = 0
	PointAdd     PointState = 1
	PointPersist PointState = 2
	PointRemove  PointState = 3
)

// GetPointStates classifies every point of manifold1 (the previous frame)
// and manifold2 (the current frame) by ContactFeature-ID match, so a caller
// can drive begin/persist/end-of-touch notifications independently of the
// impulse warm-start handled by TransferImpulses.
func GetPointStates(manifold1, manifold2 *Manifold) (state1, state2 [MaxManifoldPoints]PointState) {
	for i := 0; i < manifold1.PointCount; i++ {
		id := manifold1.Points[i].ID
		state1[i] = PointRemove
		for j := 0; j < manifold2.PointCount; j++ {
			if manifold2.Points[j].ID.Key() == id.Key() {
				state1[i] = PointPersist
				break
			}
		}
	}

	for i := 0; i < manifold2.PointCount; i++ {
		id := manifold2.Points[i].ID
		state2[i] = PointAdd
		for j := 0; j < manifold1.PointCount; j++ {
			if manifold1.Points[j].ID.Key() == id.Key() {
				state2[i] = PointPersist
				break
			}
		}
	}

	return state1, state2
}

// TransferImpulses carries normal/tangent impulses from an old manifold to
// the matching points (by ContactFeature key) of a freshly computed
// manifold, and zeroes impulses for points that have no match. This is the
// whole of the contact-feature warm-start cache (§4.G): the impulses
// themselves already live on the new manifold's points, this just seeds
// them from history before the velocity solver runs.
func TransferImpulses(old, fresh *Manifold) {
	for i := 0; i < fresh.PointCount; i++ {
		mp2 := &fresh.Points[i]
		mp2.NormalImpulse = 0.0
		mp2.TangentImpulse = 0.0

		for j := 0; j < old.PointCount; j++ {
			mp1 := &old.Points[j]
			if mp1.ID.Key() == mp2.ID.Key() {
				mp2.NormalImpulse = mp1.NormalImpulse
				mp2.TangentImpulse = mp1.TangentImpulse
				break
			}
		}
	}
}

// TestOverlap reports whether two proxies are touching or overlapping to
// within a few epsilons, using Distance with radii applied.
func TestOverlap(proxyA Proxy, proxyB Proxy, xfA, xfB Transform) bool {
	var cache SimplexCache
	out := Distance(&cache, DistanceInput{
		ProxyA: proxyA, ProxyB: proxyB,
		TransformA: xfA, TransformB: xfB,
		UseRadii: true,
	})
	return out.Distance < 10.0*Epsilon
}
