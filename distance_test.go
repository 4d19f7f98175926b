package rigid2d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxProxy(hx, hy float64) *DistanceProxy {
	p := &DistanceProxy{}
	p.SetVertices([]Vec2{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}}, 0)
	return p
}

func TestDistanceSeparatedBoxes(t *testing.T) {
	a := boxProxy(1, 1)
	b := boxProxy(1, 1)

	cache := &SimplexCache{}
	out := Distance(cache, DistanceInput{
		ProxyA:     a,
		ProxyB:     b,
		TransformA: IdentityTransform(),
		TransformB: Transform{P: Vec2{5, 0}, Q: Identity()},
	})
	assert.InDelta(t, 3.0, out.Distance, 1e-9)
}

func TestDistanceTouchingBoxes(t *testing.T) {
	a := boxProxy(1, 1)
	b := boxProxy(1, 1)

	cache := &SimplexCache{}
	out := Distance(cache, DistanceInput{
		ProxyA:     a,
		ProxyB:     b,
		TransformA: IdentityTransform(),
		TransformB: Transform{P: Vec2{2, 0}, Q: Identity()},
	})
	assert.InDelta(t, 0.0, out.Distance, 1e-6)
}

func TestDistanceOverlappingBoxesIsZero(t *testing.T) {
	a := boxProxy(1, 1)
	b := boxProxy(1, 1)

	cache := &SimplexCache{}
	out := Distance(cache, DistanceInput{
		ProxyA:     a,
		ProxyB:     b,
		TransformA: IdentityTransform(),
		TransformB: Transform{P: Vec2{0.5, 0}, Q: Identity()},
	})
	assert.InDelta(t, 0.0, out.Distance, 1e-9)
}

func TestDistanceUseRadiiShrinksSeparation(t *testing.T) {
	a := &DistanceProxy{}
	a.SetVertices([]Vec2{{0, 0}}, 0.5)
	b := &DistanceProxy{}
	b.SetVertices([]Vec2{{0, 0}}, 0.5)

	cache := &SimplexCache{}
	out := Distance(cache, DistanceInput{
		ProxyA:     a,
		ProxyB:     b,
		TransformA: IdentityTransform(),
		TransformB: Transform{P: Vec2{3, 0}, Q: Identity()},
		UseRadii:   true,
	})
	assert.InDelta(t, 2.0, out.Distance, 1e-6)
}

func TestDistanceCacheWarmStartsToSameAnswer(t *testing.T) {
	a := boxProxy(1, 1)
	b := boxProxy(1, 1)

	cache := &SimplexCache{}
	xfB := Transform{P: Vec2{5, 0}, Q: Identity()}
	first := Distance(cache, DistanceInput{ProxyA: a, ProxyB: b, TransformA: IdentityTransform(), TransformB: xfB})

	second := Distance(cache, DistanceInput{ProxyA: a, ProxyB: b, TransformA: IdentityTransform(), TransformB: xfB})
	require.InDelta(t, first.Distance, second.Distance, 1e-12)
}

func TestSupportIndexPicksFarthestVertex(t *testing.T) {
	p := boxProxy(1, 1)
	idx := p.SupportIndex(Vec2{1, 0})
	assert.Contains(t, []int{1, 2}, idx)
	assert.InDelta(t, 1.0, p.Vertex(idx).X, 1e-12)
}
