package rigid2d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec2Normalized(t *testing.T) {
	v, length := Vec2{3, 4}.Normalized()
	require.InDelta(t, 5.0, length, 1e-12)
	assert.InDelta(t, 0.6, v.X, 1e-12)
	assert.InDelta(t, 0.8, v.Y, 1e-12)

	zero, zeroLength := Vec2{}.Normalized()
	assert.Equal(t, Vec2{}, zero)
	assert.Zero(t, zeroLength)
}

func TestRotVec2RoundTrip(t *testing.T) {
	q := NewUnitVec2(0.37)
	v := Vec2{2, -5}
	assert.InDelta(t, v.X, RotTVec2(q, RotVec2(q, v)).X, 1e-9)
	assert.InDelta(t, v.Y, RotTVec2(q, RotVec2(q, v)).Y, 1e-9)
}

func TestTransformRoundTrip(t *testing.T) {
	xf := Transform{P: Vec2{1, 2}, Q: NewUnitVec2(0.9)}
	v := Vec2{5, -3}
	assert.InDelta(t, v.X, MulTTransform(xf, MulTransform(xf, v)).X, 1e-9)
	assert.InDelta(t, v.Y, MulTTransform(xf, MulTransform(xf, v)).Y, 1e-9)
}

func TestMulTransformsComposesLikeApplyingInOrder(t *testing.T) {
	a := Transform{P: Vec2{1, 0}, Q: NewUnitVec2(0.2)}
	b := Transform{P: Vec2{0, 1}, Q: NewUnitVec2(-0.4)}
	v := Vec2{3, 4}

	composed := MulTransform(MulTransforms(a, b), v)
	sequential := MulTransform(a, MulTransform(b, v))
	assert.InDelta(t, sequential.X, composed.X, 1e-9)
	assert.InDelta(t, sequential.Y, composed.Y, 1e-9)
}

func TestMat22SolveInvertsMultiply(t *testing.T) {
	m := Mat22{Ex: Vec2{2, 1}, Ey: Vec2{1, 3}}
	x := Vec2{5, -2}
	b := Vec2{
		m.Ex.X*x.X + m.Ey.X*x.Y,
		m.Ex.Y*x.X + m.Ey.Y*x.Y,
	}
	got := m.Solve(b)
	assert.InDelta(t, x.X, got.X, 1e-9)
	assert.InDelta(t, x.Y, got.Y, 1e-9)
}

func TestSweepGetTransformInterpolatesLinearly(t *testing.T) {
	s := Sweep{C0: Vec2{0, 0}, C: Vec2{10, 0}, A0: 0, A: math.Pi / 2}
	mid := s.GetTransform(0.5)
	assert.InDelta(t, math.Pi/4, mid.Q.Angle(), 1e-9)
}

func TestSweepAdvanceIsNoopBelowAlpha0(t *testing.T) {
	s := Sweep{C0: Vec2{0, 0}, C: Vec2{4, 0}, Alpha0: 0.5}
	before := s
	s.Advance(0.3)
	assert.Equal(t, before, s)
}

func TestAABBOverlapAndContains(t *testing.T) {
	a := AABB{Lower: Vec2{0, 0}, Upper: Vec2{2, 2}}
	b := AABB{Lower: Vec2{1, 1}, Upper: Vec2{3, 3}}
	assert.True(t, OverlapAABB(a, b))

	outside := AABB{Lower: Vec2{10, 10}, Upper: Vec2{12, 12}}
	assert.False(t, OverlapAABB(a, outside))

	big := AABB{Lower: Vec2{-1, -1}, Upper: Vec2{5, 5}}
	assert.True(t, big.Contains(a))
	assert.False(t, a.Contains(big))
}

func TestRayCastAABBHitsFrontFace(t *testing.T) {
	box := AABB{Lower: Vec2{-1, -1}, Upper: Vec2{1, 1}}
	out, hit := RayCastAABB(box, RayCastInput{P1: Vec2{-5, 0}, P2: Vec2{5, 0}, MaxFraction: 1.0})
	require.True(t, hit)
	assert.InDelta(t, -1.0, out.Normal.X, 1e-9)
	assert.InDelta(t, 0.4, out.Fraction, 1e-9)
}

func TestRayCastAABBMisses(t *testing.T) {
	box := AABB{Lower: Vec2{-1, -1}, Upper: Vec2{1, 1}}
	_, hit := RayCastAABB(box, RayCastInput{P1: Vec2{-5, 5}, P2: Vec2{5, 5}, MaxFraction: 1.0})
	assert.False(t, hit)
}
