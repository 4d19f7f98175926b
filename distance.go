package rigid2d

// SimplexCache warm-starts Distance across frames: a caller keeps one per
// shape pair and passes the same value back in on the next call so GJK can
// resume near its previous answer instead of searching from scratch. The
// zero value is a valid empty cache.
type SimplexCache struct {
	Metric float64
	Count  int
	IndexA [3]int
	IndexB [3]int
}

// DistanceInput is the input to Distance.
type DistanceInput struct {
	ProxyA, ProxyB         Proxy
	TransformA, TransformB Transform
	// UseRadii, when true, shrinks the reported distance by both proxies'
	// radii and moves the witness points to the outer (or, if the shapes
	// overlap once radii are considered, averaged) surface.
	UseRadii bool
}

// DistanceOutput is the result of a Distance call.
type DistanceOutput struct {
	PointA, PointB Vec2
	Distance       float64
	Iterations     int
}

type simplexVertex struct {
	wA, wB, w Vec2
	a         float64
	indexA    int
	indexB    int
}

type simplex struct {
	v     [3]simplexVertex
	count int
}

func (s *simplex) readCache(cache *SimplexCache, proxyA Proxy, xfA Transform, proxyB Proxy, xfB Transform) {
	s.count = cache.Count
	for i := 0; i < s.count; i++ {
		v := &s.v[i]
		v.indexA = cache.IndexA[i]
		v.indexB = cache.IndexB[i]
		wALocal := proxyA.Vertex(v.indexA)
		wBLocal := proxyB.Vertex(v.indexB)
		v.wA = MulTransform(xfA, wALocal)
		v.wB = MulTransform(xfB, wBLocal)
		v.w = SubVec2(v.wB, v.wA)
		v.a = 0.0
	}

	if s.count > 1 {
		metric1 := cache.Metric
		metric2 := s.metric()
		if metric2 < 0.5*metric1 || 2.0*metric1 < metric2 || metric2 < Epsilon {
			s.count = 0
		}
	}

	if s.count == 0 {
		v := &s.v[0]
		v.indexA, v.indexB = 0, 0
		wALocal := proxyA.Vertex(0)
		wBLocal := proxyB.Vertex(0)
		v.wA = MulTransform(xfA, wALocal)
		v.wB = MulTransform(xfB, wBLocal)
		v.w = SubVec2(v.wB, v.wA)
		v.a = 1.0
		s.count = 1
	}
}

func (s *simplex) writeCache(cache *SimplexCache) {
	cache.Metric = s.metric()
	cache.Count = s.count
	for i := 0; i < s.count; i++ {
		cache.IndexA[i] = s.v[i].indexA
		cache.IndexB[i] = s.v[i].indexB
	}
}

func (s *simplex) searchDirection() Vec2 {
	switch s.count {
	case 1:
		return s.v[0].w.Neg()
	case 2:
		e12 := SubVec2(s.v[1].w, s.v[0].w)
		sgn := CrossVec2(e12, s.v[0].w.Neg())
		if sgn > 0.0 {
			return CrossScalarVec2(1.0, e12)
		}
		return Vec2{e12.Y, -e12.X}
	default:
		return Vec2{}
	}
}

func (s *simplex) witnessPoints() (pA, pB Vec2) {
	switch s.count {
	case 1:
		return s.v[0].wA, s.v[0].wB
	case 2:
		pA = AddVec2(ScaleVec2(s.v[0].a, s.v[0].wA), ScaleVec2(s.v[1].a, s.v[1].wA))
		pB = AddVec2(ScaleVec2(s.v[0].a, s.v[0].wB), ScaleVec2(s.v[1].a, s.v[1].wB))
		return
	case 3:
		pA = AddVec2(AddVec2(ScaleVec2(s.v[0].a, s.v[0].wA), ScaleVec2(s.v[1].a, s.v[1].wA)), ScaleVec2(s.v[2].a, s.v[2].wA))
		pB = pA
		return
	default:
		return Vec2{}, Vec2{}
	}
}

func (s *simplex) metric() float64 {
	switch s.count {
	case 1:
		return 0.0
	case 2:
		return SubVec2(s.v[0].w, s.v[1].w).Length()
	case 3:
		return CrossVec2(SubVec2(s.v[1].w, s.v[0].w), SubVec2(s.v[2].w, s.v[0].w))
	default:
		return 0.0
	}
}

// solve2 finds barycentric coordinates for the closest point on segment
// v[0]-v[1] to the origin, collapsing to a single vertex if the closest
// point is an endpoint.
func (s *simplex) solve2() {
	w1 := s.v[0].w
	w2 := s.v[1].w
	e12 := SubVec2(w2, w1)

	d12_2 := -DotVec2(w1, e12)
	if d12_2 <= 0.0 {
		s.v[0].a = 1.0
		s.count = 1
		return
	}

	d12_1 := DotVec2(w2, e12)
	if d12_1 <= 0.0 {
		s.v[1].a = 1.0
		s.count = 1
		s.v[0] = s.v[1]
		return
	}

	invD12 := 1.0 / (d12_1 + d12_2)
	s.v[0].a = d12_1 * invD12
	s.v[1].a = d12_2 * invD12
	s.count = 2
}

// solve3 finds barycentric coordinates for the closest point on triangle
// v[0]-v[1]-v[2] to the origin, collapsing to an edge or vertex region when
// the origin's projection lands outside the triangle.
func (s *simplex) solve3() {
	w1, w2, w3 := s.v[0].w, s.v[1].w, s.v[2].w

	e12 := SubVec2(w2, w1)
	w1e12 := DotVec2(w1, e12)
	w2e12 := DotVec2(w2, e12)
	d12_1 := w2e12
	d12_2 := -w1e12

	e13 := SubVec2(w3, w1)
	w1e13 := DotVec2(w1, e13)
	w3e13 := DotVec2(w3, e13)
	d13_1 := w3e13
	d13_2 := -w1e13

	e23 := SubVec2(w3, w2)
	w2e23 := DotVec2(w2, e23)
	w3e23 := DotVec2(w3, e23)
	d23_1 := w3e23
	d23_2 := -w2e23

	n123 := CrossVec2(e12, e13)
	d123_1 := n123 * CrossVec2(w2, w3)
	d123_2 := n123 * CrossVec2(w3, w1)
	d123_3 := n123 * CrossVec2(w1, w2)

	if d12_2 <= 0.0 && d13_2 <= 0.0 {
		s.v[0].a = 1.0
		s.count = 1
		return
	}

	if d12_1 > 0.0 && d12_2 > 0.0 && d123_3 <= 0.0 {
		invD12 := 1.0 / (d12_1 + d12_2)
		s.v[0].a = d12_1 * invD12
		s.v[1].a = d12_2 * invD12
		s.count = 2
		return
	}

	if d13_1 > 0.0 && d13_2 > 0.0 && d123_2 <= 0.0 {
		invD13 := 1.0 / (d13_1 + d13_2)
		s.v[0].a = d13_1 * invD13
		s.v[2].a = d13_2 * invD13
		s.count = 2
		s.v[1] = s.v[2]
		return
	}

	if d12_1 <= 0.0 && d23_2 <= 0.0 {
		s.v[1].a = 1.0
		s.count = 1
		s.v[0] = s.v[1]
		return
	}

	if d13_1 <= 0.0 && d23_1 <= 0.0 {
		s.v[2].a = 1.0
		s.count = 1
		s.v[0] = s.v[2]
		return
	}

	if d23_1 > 0.0 && d23_2 > 0.0 && d123_1 <= 0.0 {
		invD23 := 1.0 / (d23_1 + d23_2)
		s.v[1].a = d23_1 * invD23
		s.v[2].a = d23_2 * invD23
		s.count = 2
		s.v[0] = s.v[2]
		return
	}

	invD123 := 1.0 / (d123_1 + d123_2 + d123_3)
	s.v[0].a = d123_1 * invD123
	s.v[1].a = d123_2 * invD123
	s.v[2].a = d123_3 * invD123
	s.count = 3
}

const gjkMaxIterations = 20

// Distance computes the closest points between two transformed convex
// proxies using GJK with Voronoi-region simplex reduction, warm-started from
// cache. cache is read on entry and overwritten on exit; pass a zero
// SimplexCache for a cold start.
func Distance(cache *SimplexCache, input DistanceInput) DistanceOutput {
	proxyA := input.ProxyA
	proxyB := input.ProxyB
	xfA := input.TransformA
	xfB := input.TransformB

	var s simplex
	s.readCache(cache, proxyA, xfA, proxyB, xfB)

	var saveA, saveB [3]int
	iter := 0
	for iter < gjkMaxIterations {
		saveCount := s.count
		for i := 0; i < saveCount; i++ {
			saveA[i] = s.v[i].indexA
			saveB[i] = s.v[i].indexB
		}

		switch s.count {
		case 2:
			s.solve2()
		case 3:
			s.solve3()
		}

		if s.count == 3 {
			break
		}

		d := s.searchDirection()
		if d.LengthSquared() < Epsilon*Epsilon {
			break
		}

		vertex := &s.v[s.count]
		vertex.indexA = proxyA.SupportIndex(RotTVec2(xfA.Q, d.Neg()))
		vertex.wA = MulTransform(xfA, proxyA.Vertex(vertex.indexA))
		vertex.indexB = proxyB.SupportIndex(RotTVec2(xfB.Q, d))
		vertex.wB = MulTransform(xfB, proxyB.Vertex(vertex.indexB))
		vertex.w = SubVec2(vertex.wB, vertex.wA)

		iter++

		duplicate := false
		for i := 0; i < saveCount; i++ {
			if vertex.indexA == saveA[i] && vertex.indexB == saveB[i] {
				duplicate = true
				break
			}
		}
		if duplicate {
			break
		}

		s.count++
	}

	var out DistanceOutput
	out.PointA, out.PointB = s.witnessPoints()
	out.Distance = SubVec2(out.PointA, out.PointB).Length()
	out.Iterations = iter

	s.writeCache(cache)

	if input.UseRadii {
		rA := proxyA.Radius()
		rB := proxyB.Radius()

		if out.Distance > rA+rB && out.Distance > Epsilon {
			out.Distance -= rA + rB
			normal, _ := SubVec2(out.PointB, out.PointA).Normalized()
			out.PointA = AddVec2(out.PointA, ScaleVec2(rA, normal))
			out.PointB = SubVec2(out.PointB, ScaleVec2(rB, normal))
		} else {
			mid := ScaleVec2(0.5, AddVec2(out.PointA, out.PointB))
			out.PointA = mid
			out.PointB = mid
			out.Distance = 0.0
		}
	}

	return out
}
