package rigid2d

import "math"

// collideEdgeAndCircle accounts for edge connectivity: a circle resting
// near an edge's endpoint only generates a contact if the adjacent edge (if
// any) doesn't already claim that region, so a chain's interior vertices
// never double-count a single circle touching the seam between two edges.
func collideEdgeAndCircle(manifold *Manifold, edgeA *EdgeShape, xfA Transform, circleB *CircleShape, xfB Transform) {
	manifold.PointCount = 0

	q := MulTTransform(xfA, MulTransform(xfB, circleB.P))

	a := edgeA.V1
	b := edgeA.V2
	e := SubVec2(b, a)

	u := DotVec2(e, SubVec2(b, q))
	v := DotVec2(e, SubVec2(q, a))

	radius := edgeA.Radius + circleB.Radius

	var typeA FeatureType
	var indexA uint8

	if v <= 0.0 {
		p := a
		d := SubVec2(q, p)
		if DotVec2(d, d) > radius*radius {
			return
		}
		if edgeA.HasVertex0 {
			a1 := edgeA.V0
			b1 := a
			e1 := SubVec2(b1, a1)
			u1 := DotVec2(e1, SubVec2(b1, q))
			if u1 > 0.0 {
				return
			}
		}
		indexA, typeA = 0, FeatureVertex
		manifold.PointCount = 1
		manifold.Type = ManifoldCircles
		manifold.LocalNormal = Vec2{}
		manifold.LocalPoint = p
		manifold.Points[0].ID = ContactID{IndexA: indexA, TypeA: typeA}
		manifold.Points[0].LocalPoint = circleB.P
		return
	}

	if u <= 0.0 {
		p := b
		d := SubVec2(q, p)
		if DotVec2(d, d) > radius*radius {
			return
		}
		if edgeA.HasVertex3 {
			b2 := edgeA.V3
			a2 := b
			e2 := SubVec2(b2, a2)
			v2 := DotVec2(e2, SubVec2(q, a2))
			if v2 > 0.0 {
				return
			}
		}
		indexA, typeA = 1, FeatureVertex
		manifold.PointCount = 1
		manifold.Type = ManifoldCircles
		manifold.LocalNormal = Vec2{}
		manifold.LocalPoint = p
		manifold.Points[0].ID = ContactID{IndexA: indexA, TypeA: typeA}
		manifold.Points[0].LocalPoint = circleB.P
		return
	}

	den := DotVec2(e, e)
	p := ScaleVec2(1.0/den, AddVec2(ScaleVec2(u, a), ScaleVec2(v, b)))
	d := SubVec2(q, p)
	if DotVec2(d, d) > radius*radius {
		return
	}

	n := Vec2{-e.Y, e.X}
	if DotVec2(n, SubVec2(q, a)) < 0.0 {
		n = n.Neg()
	}
	n, _ = n.Normalized()

	manifold.PointCount = 1
	manifold.Type = ManifoldFaceA
	manifold.LocalNormal = n
	manifold.LocalPoint = a
	manifold.Points[0].ID = ContactID{IndexA: 0, TypeA: FeatureFace}
	manifold.Points[0].LocalPoint = circleB.P
}

type epAxisType uint8

const (
	epAxisUnknown epAxisType = 0
	epAxisEdgeA   epAxisType = 1
	epAxisEdgeB   epAxisType = 2
)

type epAxis struct {
	kind       epAxisType
	index      int
	separation float64
}

type tempPolygon struct {
	vertices [MaxPolygonVertices]Vec2
	normals  [MaxPolygonVertices]Vec2
	count    int
}

type referenceFace struct {
	i1, i2      int
	v1, v2      Vec2
	normal      Vec2
	sideNormal1 Vec2
	sideOffset1 float64
	sideNormal2 Vec2
	sideOffset2 float64
}

// epCollider collides an edge against a polygon while taking the edge's
// neighbors into account, so a polygon resting against the seam between
// two chain edges doesn't get a spurious contact from the "back" of the
// joint. The algorithm: classify the edge's own endpoints and the
// polygon's centroid as front- or back-facing, narrow the acceptable
// separating-axis range to the span between the edge and its neighbors,
// pick the better of the edge axis and the best polygon axis within that
// range (with hysteresis against flicker), then clip as in polygon-polygon.
type epCollider struct {
	polygonB tempPolygon

	xf                      Transform
	centroidB               Vec2
	v0, v1, v2, v3          Vec2
	normal0, normal1, normal2 Vec2
	normal                 Vec2
	lowerLimit, upperLimit  Vec2
	radius                  float64
	front                   bool
	angularSlop             float64
}

func (c *epCollider) collide(manifold *Manifold, edgeA *EdgeShape, xfA Transform, polygonB *PolygonShape, xfB Transform, cfg Config) {
	c.xf = MulTTransforms(xfA, xfB)
	c.centroidB = MulTransform(c.xf, polygonB.Centroid)
	c.angularSlop = cfg.AngularSlop

	c.v0 = edgeA.V0
	c.v1 = edgeA.V1
	c.v2 = edgeA.V2
	c.v3 = edgeA.V3

	hasVertex0 := edgeA.HasVertex0
	hasVertex3 := edgeA.HasVertex3

	edge1, _ := SubVec2(c.v2, c.v1).Normalized()
	c.normal1 = Vec2{edge1.Y, -edge1.X}
	offset1 := DotVec2(c.normal1, SubVec2(c.centroidB, c.v1))
	offset0, offset2 := 0.0, 0.0
	convex1, convex2 := false, false

	if hasVertex0 {
		edge0, _ := SubVec2(c.v1, c.v0).Normalized()
		c.normal0 = Vec2{edge0.Y, -edge0.X}
		convex1 = CrossVec2(edge0, edge1) >= 0.0
		offset0 = DotVec2(c.normal0, SubVec2(c.centroidB, c.v0))
	}

	if hasVertex3 {
		edge2, _ := SubVec2(c.v3, c.v2).Normalized()
		c.normal2 = Vec2{edge2.Y, -edge2.X}
		convex2 = CrossVec2(edge1, edge2) > 0.0
		offset2 = DotVec2(c.normal2, SubVec2(c.centroidB, c.v2))
	}

	switch {
	case hasVertex0 && hasVertex3:
		switch {
		case convex1 && convex2:
			c.front = offset0 >= 0.0 || offset1 >= 0.0 || offset2 >= 0.0
			if c.front {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1, c.normal0, c.normal2
			} else {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1.Neg(), c.normal1.Neg(), c.normal1.Neg()
			}
		case convex1:
			c.front = offset0 >= 0.0 || (offset1 >= 0.0 && offset2 >= 0.0)
			if c.front {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1, c.normal0, c.normal1
			} else {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1.Neg(), c.normal2.Neg(), c.normal1.Neg()
			}
		case convex2:
			c.front = offset2 >= 0.0 || (offset0 >= 0.0 && offset1 >= 0.0)
			if c.front {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1, c.normal1, c.normal2
			} else {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1.Neg(), c.normal1.Neg(), c.normal0.Neg()
			}
		default:
			c.front = offset0 >= 0.0 && offset1 >= 0.0 && offset2 >= 0.0
			if c.front {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1, c.normal1, c.normal1
			} else {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1.Neg(), c.normal2.Neg(), c.normal0.Neg()
			}
		}

	case hasVertex0:
		if convex1 {
			c.front = offset0 >= 0.0 || offset1 >= 0.0
			if c.front {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1, c.normal0, c.normal1.Neg()
			} else {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1.Neg(), c.normal1, c.normal1.Neg()
			}
		} else {
			c.front = offset0 >= 0.0 && offset1 >= 0.0
			if c.front {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1, c.normal1, c.normal1.Neg()
			} else {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1.Neg(), c.normal1, c.normal0.Neg()
			}
		}

	case hasVertex3:
		if convex2 {
			c.front = offset1 >= 0.0 || offset2 >= 0.0
			if c.front {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1, c.normal1.Neg(), c.normal2
			} else {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1.Neg(), c.normal1.Neg(), c.normal1
			}
		} else {
			c.front = offset1 >= 0.0 && offset2 >= 0.0
			if c.front {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1, c.normal1.Neg(), c.normal1
			} else {
				c.normal, c.lowerLimit, c.upperLimit = c.normal1.Neg(), c.normal2.Neg(), c.normal1
			}
		}

	default:
		c.front = offset1 >= 0.0
		if c.front {
			c.normal, c.lowerLimit, c.upperLimit = c.normal1, c.normal1.Neg(), c.normal1.Neg()
		} else {
			c.normal, c.lowerLimit, c.upperLimit = c.normal1.Neg(), c.normal1, c.normal1
		}
	}

	c.polygonB.count = polygonB.Count
	for i := 0; i < polygonB.Count; i++ {
		c.polygonB.vertices[i] = MulTransform(c.xf, polygonB.Vertices[i])
		c.polygonB.normals[i] = RotVec2(c.xf.Q, polygonB.Normals[i])
	}

	c.radius = polygonB.Radius + edgeA.Radius

	manifold.PointCount = 0

	edgeAxis := c.computeEdgeSeparation()
	if edgeAxis.kind == epAxisUnknown {
		return
	}
	if edgeAxis.separation > c.radius {
		return
	}

	polygonAxis := c.computePolygonSeparation()
	if polygonAxis.kind != epAxisUnknown && polygonAxis.separation > c.radius {
		return
	}

	var primaryAxis epAxis
	switch {
	case polygonAxis.kind == epAxisUnknown:
		primaryAxis = edgeAxis
	case polygonAxis.separation > cfg.HysteresisRelativeTol*edgeAxis.separation+cfg.HysteresisAbsoluteTol:
		primaryAxis = polygonAxis
	default:
		primaryAxis = edgeAxis
	}

	withArena(func(arena *StackAllocator) {
		ie := arena.allocClipVertices(2)
		var rf referenceFace

		if primaryAxis.kind == epAxisEdgeA {
			manifold.Type = ManifoldFaceA

			bestIndex := 0
			bestValue := DotVec2(c.normal, c.polygonB.normals[0])
			for i := 1; i < c.polygonB.count; i++ {
				value := DotVec2(c.normal, c.polygonB.normals[i])
				if value < bestValue {
					bestValue = value
					bestIndex = i
				}
			}

			i1 := bestIndex
			i2 := 0
			if i1+1 < c.polygonB.count {
				i2 = i1 + 1
			}

			ie[0] = clipVertex{V: c.polygonB.vertices[i1], ID: ContactID{IndexA: 0, IndexB: uint8(i1), TypeA: FeatureFace, TypeB: FeatureVertex}}
			ie[1] = clipVertex{V: c.polygonB.vertices[i2], ID: ContactID{IndexA: 0, IndexB: uint8(i2), TypeA: FeatureFace, TypeB: FeatureVertex}}

			if c.front {
				rf = referenceFace{i1: 0, i2: 1, v1: c.v1, v2: c.v2, normal: c.normal1}
			} else {
				rf = referenceFace{i1: 1, i2: 0, v1: c.v2, v2: c.v1, normal: c.normal1.Neg()}
			}
		} else {
			manifold.Type = ManifoldFaceB

			ie[0] = clipVertex{V: c.v1, ID: ContactID{IndexA: 0, IndexB: uint8(primaryAxis.index), TypeA: FeatureVertex, TypeB: FeatureFace}}
			ie[1] = clipVertex{V: c.v2, ID: ContactID{IndexA: 0, IndexB: uint8(primaryAxis.index), TypeA: FeatureVertex, TypeB: FeatureFace}}

			rf.i1 = primaryAxis.index
			if rf.i1+1 < c.polygonB.count {
				rf.i2 = rf.i1 + 1
			} else {
				rf.i2 = 0
			}
			rf.v1 = c.polygonB.vertices[rf.i1]
			rf.v2 = c.polygonB.vertices[rf.i2]
			rf.normal = c.polygonB.normals[rf.i1]
		}

		rf.sideNormal1 = Vec2{rf.normal.Y, -rf.normal.X}
		rf.sideNormal2 = rf.sideNormal1.Neg()
		rf.sideOffset1 = DotVec2(rf.sideNormal1, rf.v1)
		rf.sideOffset2 = DotVec2(rf.sideNormal2, rf.v2)

		clipPoints1 := arena.allocClipVertices(2)
		clipPoints2 := arena.allocClipVertices(2)

		if clipSegmentToLine(clipPoints1, ie, rf.sideNormal1, rf.sideOffset1, rf.i1) < MaxManifoldPoints {
			return
		}
		if clipSegmentToLine(clipPoints2, clipPoints1, rf.sideNormal2, rf.sideOffset2, rf.i2) < MaxManifoldPoints {
			return
		}

		if primaryAxis.kind == epAxisEdgeA {
			manifold.LocalNormal = rf.normal
			manifold.LocalPoint = rf.v1
		} else {
			manifold.LocalNormal = polygonB.Normals[rf.i1]
			manifold.LocalPoint = polygonB.Vertices[rf.i1]
		}

		pointCount := 0
		for i := 0; i < MaxManifoldPoints; i++ {
			separation := DotVec2(rf.normal, SubVec2(clipPoints2[i].V, rf.v1))
			if separation <= c.radius {
				cp := &manifold.Points[pointCount]
				if primaryAxis.kind == epAxisEdgeA {
					cp.LocalPoint = MulTTransform(c.xf, clipPoints2[i].V)
					cp.ID = clipPoints2[i].ID
				} else {
					cp.LocalPoint = clipPoints2[i].V
					cp.ID.TypeA, cp.ID.TypeB = clipPoints2[i].ID.TypeB, clipPoints2[i].ID.TypeA
					cp.ID.IndexA, cp.ID.IndexB = clipPoints2[i].ID.IndexB, clipPoints2[i].ID.IndexA
				}
				pointCount++
			}
		}

		manifold.PointCount = pointCount
	})
}

func (c *epCollider) computeEdgeSeparation() epAxis {
	axis := epAxis{kind: epAxisEdgeA, separation: maxFloat}
	if c.front {
		axis.index = 0
	} else {
		axis.index = 1
	}

	for i := 0; i < c.polygonB.count; i++ {
		s := DotVec2(c.normal, SubVec2(c.polygonB.vertices[i], c.v1))
		if s < axis.separation {
			axis.separation = s
		}
	}
	return axis
}

func (c *epCollider) computePolygonSeparation() epAxis {
	axis := epAxis{kind: epAxisUnknown, index: -1, separation: -maxFloat}
	angularSlop := c.angularSlop

	perp := Vec2{-c.normal.Y, c.normal.X}

	for i := 0; i < c.polygonB.count; i++ {
		n := c.polygonB.normals[i].Neg()

		s1 := DotVec2(n, SubVec2(c.polygonB.vertices[i], c.v1))
		s2 := DotVec2(n, SubVec2(c.polygonB.vertices[i], c.v2))
		s := math.Min(s1, s2)

		if s > c.radius {
			return epAxis{kind: epAxisEdgeB, index: i, separation: s}
		}

		if DotVec2(n, perp) >= 0.0 {
			if DotVec2(SubVec2(n, c.upperLimit), c.normal) < -angularSlop {
				continue
			}
		} else {
			if DotVec2(SubVec2(n, c.lowerLimit), c.normal) < -angularSlop {
				continue
			}
		}

		if s > axis.separation {
			axis = epAxis{kind: epAxisEdgeB, index: i, separation: s}
		}
	}

	return axis
}

// collideEdgeAndPolygon is the edge/chain-versus-polygon manifold generator
// named in the component overview's "edge/chain–X" category.
func collideEdgeAndPolygon(manifold *Manifold, edgeA *EdgeShape, xfA Transform, polygonB *PolygonShape, xfB Transform, cfg Config) {
	var c epCollider
	c.collide(manifold, edgeA, xfA, polygonB, xfB, cfg)
}
