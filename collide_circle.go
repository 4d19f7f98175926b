package rigid2d

// collideCircles handles the simplest manifold case: two discs, at most one
// contact point, normal computed straight from the centers.
func collideCircles(manifold *Manifold, circleA *CircleShape, xfA Transform, circleB *CircleShape, xfB Transform) {
	manifold.PointCount = 0

	pA := MulTransform(xfA, circleA.P)
	pB := MulTransform(xfB, circleB.P)

	d := SubVec2(pB, pA)
	distSqr := DotVec2(d, d)
	radius := circleA.Radius + circleB.Radius
	if distSqr > radius*radius {
		return
	}

	manifold.Type = ManifoldCircles
	manifold.LocalPoint = circleA.P
	manifold.LocalNormal = Vec2{}
	manifold.PointCount = 1
	manifold.Points[0].LocalPoint = circleB.P
	manifold.Points[0].ID = ContactID{}
}

// collidePolygonAndCircle finds the polygon face (or vertex) nearest the
// circle's center and builds a single contact point against it, handling
// the three regions separately: inside the polygon, nearest a face, and
// nearest a vertex (when the circle's projection falls outside the face's
// span).
func collidePolygonAndCircle(manifold *Manifold, polygonA *PolygonShape, xfA Transform, circleB *CircleShape, xfB Transform) {
	manifold.PointCount = 0

	c := MulTransform(xfB, circleB.P)
	cLocal := MulTTransform(xfA, c)

	normalIndex := 0
	separation := -maxFloat
	radius := polygonA.Radius + circleB.Radius
	vertexCount := polygonA.Count
	vertices := polygonA.Vertices
	normals := polygonA.Normals

	for i := 0; i < vertexCount; i++ {
		s := DotVec2(normals[i], SubVec2(cLocal, vertices[i]))
		if s > radius {
			return
		}
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	vertIndex1 := normalIndex
	vertIndex2 := 0
	if vertIndex1+1 < vertexCount {
		vertIndex2 = vertIndex1 + 1
	}
	v1 := vertices[vertIndex1]
	v2 := vertices[vertIndex2]

	if separation < Epsilon {
		manifold.PointCount = 1
		manifold.Type = ManifoldFaceA
		manifold.LocalNormal = normals[normalIndex]
		manifold.LocalPoint = ScaleVec2(0.5, AddVec2(v1, v2))
		manifold.Points[0].LocalPoint = circleB.P
		manifold.Points[0].ID = ContactID{}
		return
	}

	u1 := DotVec2(SubVec2(cLocal, v1), SubVec2(v2, v1))
	u2 := DotVec2(SubVec2(cLocal, v2), SubVec2(v1, v2))

	switch {
	case u1 <= 0.0:
		if SubVec2(cLocal, v1).LengthSquared() > radius*radius {
			return
		}
		manifold.PointCount = 1
		manifold.Type = ManifoldFaceA
		manifold.LocalNormal, _ = SubVec2(cLocal, v1).Normalized()
		manifold.LocalPoint = v1

	case u2 <= 0.0:
		if SubVec2(cLocal, v2).LengthSquared() > radius*radius {
			return
		}
		manifold.PointCount = 1
		manifold.Type = ManifoldFaceA
		manifold.LocalNormal, _ = SubVec2(cLocal, v2).Normalized()
		manifold.LocalPoint = v2

	default:
		faceCenter := ScaleVec2(0.5, AddVec2(v1, v2))
		s := DotVec2(SubVec2(cLocal, faceCenter), normals[vertIndex1])
		if s > radius {
			return
		}
		manifold.PointCount = 1
		manifold.Type = ManifoldFaceA
		manifold.LocalNormal = normals[vertIndex1]
		manifold.LocalPoint = faceCenter
	}

	manifold.Points[0].LocalPoint = circleB.P
	manifold.Points[0].ID = ContactID{}
}
