package rigid2d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateManifoldCircleCircleTouching(t *testing.T) {
	a := &CircleShape{Radius: 1}
	b := &CircleShape{Radius: 1}

	var m Manifold
	UpdateManifold(&m, a, IdentityTransform(), b, Transform{P: Vec2{1.5, 0}, Q: Identity()}, DefaultConfig())

	require.Equal(t, 1, m.PointCount)
	assert.Equal(t, ManifoldCircles, m.Type)
}

func TestUpdateManifoldCircleCircleSeparatedHasNoPoints(t *testing.T) {
	a := &CircleShape{Radius: 1}
	b := &CircleShape{Radius: 1}

	var m Manifold
	UpdateManifold(&m, a, IdentityTransform(), b, Transform{P: Vec2{5, 0}, Q: Identity()}, DefaultConfig())
	assert.Equal(t, 0, m.PointCount)
}

func TestUpdateManifoldPolygonCircleFlipsConsistentlyWithCirclePolygon(t *testing.T) {
	cfg := DefaultConfig()
	box := NewBoxPolygon(1, 1, cfg)
	circle := &CircleShape{Radius: 0.5}
	xfBox := IdentityTransform()
	xfCircle := Transform{P: Vec2{1.3, 0}, Q: Identity()}

	var direct Manifold
	UpdateManifold(&direct, box, xfBox, circle, xfCircle, cfg)
	require.Equal(t, 1, direct.PointCount)
	require.Equal(t, ManifoldFaceA, direct.Type)

	var flipped Manifold
	UpdateManifold(&flipped, circle, xfCircle, box, xfBox, cfg)
	require.Equal(t, 1, flipped.PointCount)
	assert.Equal(t, ManifoldFaceB, flipped.Type)
	assert.Equal(t, direct.LocalNormal, flipped.LocalNormal)
	assert.Equal(t, direct.LocalPoint, flipped.LocalPoint)
}

func TestUpdateManifoldPolygonPolygonOverlap(t *testing.T) {
	cfg := DefaultConfig()
	boxA := NewBoxPolygon(1, 1, cfg)
	boxB := NewBoxPolygon(1, 1, cfg)

	var m Manifold
	UpdateManifold(&m, boxA, IdentityTransform(), boxB, Transform{P: Vec2{1.5, 0}, Q: Identity()}, cfg)

	require.Greater(t, m.PointCount, 0)
	assert.Contains(t, []ManifoldType{ManifoldFaceA, ManifoldFaceB}, m.Type)
}

func TestWorldManifoldSeparationMatchesCircleGap(t *testing.T) {
	a := &CircleShape{Radius: 1}
	b := &CircleShape{Radius: 1}
	xfA := IdentityTransform()
	xfB := Transform{P: Vec2{1.5, 0}, Q: Identity()}

	var m Manifold
	UpdateManifold(&m, a, xfA, b, xfB, DefaultConfig())
	require.Equal(t, 1, m.PointCount)

	var wm WorldManifold
	InitializeWorldManifold(&wm, &m, xfA, a.Radius, xfB, b.Radius)
	assert.InDelta(t, -0.5, wm.Separations[0], 1e-9)
}

func TestTransferImpulsesMatchesByFeatureID(t *testing.T) {
	old := &Manifold{PointCount: 1}
	old.Points[0].ID = ContactID{IndexA: 2, IndexB: 0, TypeA: FeatureFace, TypeB: FeatureVertex}
	old.Points[0].NormalImpulse = 3.5
	old.Points[0].TangentImpulse = -1.2

	fresh := &Manifold{PointCount: 1}
	fresh.Points[0].ID = old.Points[0].ID

	TransferImpulses(old, fresh)
	assert.Equal(t, 3.5, fresh.Points[0].NormalImpulse)
	assert.Equal(t, -1.2, fresh.Points[0].TangentImpulse)
}

func TestTransferImpulsesZeroesUnmatchedPoint(t *testing.T) {
	old := &Manifold{PointCount: 1}
	old.Points[0].ID = ContactID{IndexA: 9}
	old.Points[0].NormalImpulse = 7

	fresh := &Manifold{PointCount: 1}
	fresh.Points[0].ID = ContactID{IndexA: 1}

	TransferImpulses(old, fresh)
	assert.Zero(t, fresh.Points[0].NormalImpulse)
}

func TestGetPointStatesClassifiesAddPersistRemove(t *testing.T) {
	m1 := &Manifold{PointCount: 1}
	m1.Points[0].ID = ContactID{IndexA: 1}

	m2 := &Manifold{PointCount: 1}
	m2.Points[0].ID = ContactID{IndexA: 1}

	s1, s2 := GetPointStates(m1, m2)
	assert.Equal(t, PointPersist, s1[0])
	assert.Equal(t, PointPersist, s2[0])

	m3 := &Manifold{PointCount: 1}
	m3.Points[0].ID = ContactID{IndexA: 2}
	s1b, s2b := GetPointStates(m1, m3)
	assert.Equal(t, PointRemove, s1b[0])
	assert.Equal(t, PointAdd, s2b[0])
}

func TestMixFrictionAndRestitution(t *testing.T) {
	assert.InDelta(t, 0.6, MixFriction(0.9, 0.4), 1e-9)
	assert.Equal(t, 0.8, MixRestitution(0.8, 0.3))
}

func TestTestOverlapReportsTrueForTouchingCircles(t *testing.T) {
	a := &DistanceProxy{}
	a.SetVertices([]Vec2{{0, 0}}, 1.0)
	b := &DistanceProxy{}
	b.SetVertices([]Vec2{{0, 0}}, 1.0)

	overlap := TestOverlap(a, b, IdentityTransform(), Transform{P: Vec2{1.9, 0}, Q: Identity()})
	assert.True(t, overlap)
}
