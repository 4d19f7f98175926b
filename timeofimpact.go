package rigid2d

import (
	"math"

	"go.uber.org/zap"
)

// TOIState is the outcome of a TimeOfImpact search.
type TOIState int

const (
	TOIUnknown TOIState = iota
	TOIFailed
	TOIOverlapped
	TOITouching
	TOISeparated
)

// TOIInput describes a continuous-collision query between two proxies
// following their sweeps over the fractional interval [0, TMax].
type TOIInput struct {
	ProxyA, ProxyB Proxy
	SweepA, SweepB Sweep
	TMax           float64
}

// TOIOutput is the result of a TimeOfImpact search: the sweep fraction T
// and what happened at it.
type TOIOutput struct {
	State TOIState
	T     float64
}

type separationFnType int

const (
	sepPoints separationFnType = iota
	sepFaceA
	sepFaceB
)

// separationFunction evaluates the separation along a fixed local axis as
// the two proxies move along their sweeps, letting TimeOfImpact search for
// the root of separation(t) - target without rerunning GJK at every trial t.
type separationFunction struct {
	proxyA, proxyB Proxy
	sweepA, sweepB Sweep
	kind           separationFnType
	localPoint     Vec2
	axis           Vec2
}

func (f *separationFunction) initialize(cache *SimplexCache, proxyA Proxy, sweepA Sweep, proxyB Proxy, sweepB Sweep, t1 float64) float64 {
	f.proxyA = proxyA
	f.proxyB = proxyB
	count := cache.Count

	f.sweepA = sweepA
	f.sweepB = sweepB

	xfA := sweepA.GetTransform(t1)
	xfB := sweepB.GetTransform(t1)

	if count == 1 {
		f.kind = sepPoints
		localPointA := proxyA.Vertex(cache.IndexA[0])
		localPointB := proxyB.Vertex(cache.IndexB[0])
		pointA := MulTransform(xfA, localPointA)
		pointB := MulTransform(xfB, localPointB)
		axis, s := SubVec2(pointB, pointA).Normalized()
		f.axis = axis
		return s
	}

	if cache.IndexA[0] == cache.IndexA[1] {
		f.kind = sepFaceB
		localPointB1 := proxyB.Vertex(cache.IndexB[0])
		localPointB2 := proxyB.Vertex(cache.IndexB[1])

		axis := CrossScalarVec2(1.0, SubVec2(localPointB2, localPointB1))
		axis, _ = axis.Normalized()
		f.axis = axis
		normal := RotVec2(xfB.Q, f.axis)

		f.localPoint = ScaleVec2(0.5, AddVec2(localPointB1, localPointB2))
		pointB := MulTransform(xfB, f.localPoint)

		localPointA := proxyA.Vertex(cache.IndexA[0])
		pointA := MulTransform(xfA, localPointA)

		s := DotVec2(SubVec2(pointA, pointB), normal)
		if s < 0.0 {
			f.axis = f.axis.Neg()
			s = -s
		}
		return s
	}

	f.kind = sepFaceA
	localPointA1 := proxyA.Vertex(cache.IndexA[0])
	localPointA2 := proxyA.Vertex(cache.IndexA[1])

	axis := CrossScalarVec2(1.0, SubVec2(localPointA2, localPointA1))
	axis, _ = axis.Normalized()
	f.axis = axis
	normal := RotVec2(xfA.Q, f.axis)

	f.localPoint = ScaleVec2(0.5, AddVec2(localPointA1, localPointA2))
	pointA := MulTransform(xfA, f.localPoint)

	localPointB := proxyB.Vertex(cache.IndexB[0])
	pointB := MulTransform(xfB, localPointB)

	s := DotVec2(SubVec2(pointB, pointA), normal)
	if s < 0.0 {
		f.axis = f.axis.Neg()
		s = -s
	}
	return s
}

func (f *separationFunction) findMinSeparation(t float64) (separation float64, indexA, indexB int) {
	xfA := f.sweepA.GetTransform(t)
	xfB := f.sweepB.GetTransform(t)

	switch f.kind {
	case sepPoints:
		axisA := RotTVec2(xfA.Q, f.axis)
		axisB := RotTVec2(xfB.Q, f.axis.Neg())

		indexA = f.proxyA.SupportIndex(axisA)
		indexB = f.proxyB.SupportIndex(axisB)

		pointA := MulTransform(xfA, f.proxyA.Vertex(indexA))
		pointB := MulTransform(xfB, f.proxyB.Vertex(indexB))
		return DotVec2(SubVec2(pointB, pointA), f.axis), indexA, indexB

	case sepFaceA:
		normal := RotVec2(xfA.Q, f.axis)
		pointA := MulTransform(xfA, f.localPoint)

		axisB := RotTVec2(xfB.Q, normal.Neg())
		indexA = -1
		indexB = f.proxyB.SupportIndex(axisB)

		pointB := MulTransform(xfB, f.proxyB.Vertex(indexB))
		return DotVec2(SubVec2(pointB, pointA), normal), indexA, indexB

	case sepFaceB:
		normal := RotVec2(xfB.Q, f.axis)
		pointB := MulTransform(xfB, f.localPoint)

		axisA := RotTVec2(xfA.Q, normal.Neg())
		indexB = -1
		indexA = f.proxyA.SupportIndex(axisA)

		pointA := MulTransform(xfA, f.proxyA.Vertex(indexA))
		return DotVec2(SubVec2(pointA, pointB), normal), indexA, indexB
	}
	return 0, -1, -1
}

func (f *separationFunction) evaluate(indexA, indexB int, t float64) float64 {
	xfA := f.sweepA.GetTransform(t)
	xfB := f.sweepB.GetTransform(t)

	switch f.kind {
	case sepPoints:
		pointA := MulTransform(xfA, f.proxyA.Vertex(indexA))
		pointB := MulTransform(xfB, f.proxyB.Vertex(indexB))
		return DotVec2(SubVec2(pointB, pointA), f.axis)

	case sepFaceA:
		normal := RotVec2(xfA.Q, f.axis)
		pointA := MulTransform(xfA, f.localPoint)
		pointB := MulTransform(xfB, f.proxyB.Vertex(indexB))
		return DotVec2(SubVec2(pointB, pointA), normal)

	case sepFaceB:
		normal := RotVec2(xfB.Q, f.axis)
		pointB := MulTransform(xfB, f.localPoint)
		pointA := MulTransform(xfA, f.proxyA.Vertex(indexA))
		return DotVec2(SubVec2(pointA, pointB), normal)
	}
	return 0
}

// TimeOfImpact computes the largest fraction of [0, input.TMax] over which
// the two proxies' swept motion is known not to penetrate, using
// conservative advancement along a sequence of local separating axes. The
// caller recovers the contact point and normal at the result by running
// UpdateManifold at the returned transforms — this only bounds the time.
func TimeOfImpact(input TOIInput, cfg Config) TOIOutput {
	output := TOIOutput{State: TOIUnknown, T: input.TMax}

	proxyA := input.ProxyA
	proxyB := input.ProxyB

	sweepA := input.SweepA
	sweepB := input.SweepB
	sweepA.Normalize()
	sweepB.Normalize()

	tMax := input.TMax

	totalRadius := proxyA.Radius() + proxyB.Radius()
	target := math.Max(cfg.LinearSlop, totalRadius-3.0*cfg.LinearSlop)
	tolerance := 0.25 * cfg.LinearSlop

	t1 := 0.0
	cache := &SimplexCache{}

	distanceInput := DistanceInput{
		ProxyA:   proxyA,
		ProxyB:   proxyB,
		UseRadii: false,
	}

	for iter := 0; ; iter++ {
		xfA := sweepA.GetTransform(t1)
		xfB := sweepB.GetTransform(t1)

		distanceInput.TransformA = xfA
		distanceInput.TransformB = xfB
		distanceOutput := Distance(cache, distanceInput)

		if distanceOutput.Distance <= Epsilon {
			output.State = TOIOverlapped
			output.T = 0.0
			break
		}

		if distanceOutput.Distance < target+tolerance {
			output.State = TOITouching
			output.T = t1
			break
		}

		var fcn separationFunction
		fcn.initialize(cache, proxyA, sweepA, proxyB, sweepB, t1)

		done := false
		t2 := tMax
		for pushBackIter := 0; pushBackIter < cfg.MaxPolygonVertices; pushBackIter++ {
			s2, indexA, indexB := fcn.findMinSeparation(t2)

			if s2 > target+tolerance {
				output.State = TOISeparated
				output.T = tMax
				done = true
				break
			}

			if s2 > target-tolerance {
				t1 = t2
				break
			}

			s1 := fcn.evaluate(indexA, indexB, t1)

			if s1 < target-tolerance {
				debugLog("time_of_impact: search failed, separation regressed below target", zap.Float64("s1", s1), zap.Float64("target", target))
				output.State = TOIFailed
				output.T = t1
				done = true
				break
			}

			if s1 <= target+tolerance {
				output.State = TOITouching
				output.T = t1
				done = true
				break
			}

			a1, a2 := t1, t2
			for rootIterCount := 0; ; {
				var t float64
				if rootIterCount&1 != 0 {
					t = a1 + (target-s1)*(a2-a1)/(s2-s1)
				} else {
					t = 0.5 * (a1 + a2)
				}
				rootIterCount++

				s := fcn.evaluate(indexA, indexB, t)

				if math.Abs(s-target) < tolerance {
					t2 = t
					break
				}

				if s > target {
					a1, s1 = t, s
				} else {
					a2, s2 = t, s
				}

				if rootIterCount == cfg.MaxTOIRootIterCount {
					break
				}
			}
		}

		if done {
			break
		}

		if iter+1 == cfg.MaxTOIIterations {
			debugLog("time_of_impact: search failed, hit MaxTOIIterations", zap.Int("maxIterations", cfg.MaxTOIIterations))
			output.State = TOIFailed
			output.T = t1
			break
		}
	}

	return output
}
