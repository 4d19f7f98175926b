package rigid2d

// findMaxSeparation returns the greatest separation achieved by any face
// normal of poly1 against poly2's vertices, and the index of the edge that
// achieved it — the separating-axis test's per-polygon half.
func findMaxSeparation(poly1 *PolygonShape, xf1 Transform, poly2 *PolygonShape, xf2 Transform) (separation float64, edgeIndex int) {
	count1 := poly1.Count
	count2 := poly2.Count
	n1s := poly1.Normals
	v1s := poly1.Vertices
	v2s := poly2.Vertices

	xf := MulTTransforms(xf2, xf1)

	bestIndex := 0
	maxSeparation := -maxFloat
	for i := 0; i < count1; i++ {
		n := RotVec2(xf.Q, n1s[i])
		v1 := MulTransform(xf, v1s[i])

		si := maxFloat
		for j := 0; j < count2; j++ {
			sij := DotVec2(n, SubVec2(v2s[j], v1))
			if sij < si {
				si = sij
			}
		}

		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}

	return maxSeparation, bestIndex
}

// findIncidentEdge locates the edge of poly2 most anti-parallel to the
// reference edge edge1 of poly1, and returns it as two clip vertices tagged
// with the features that produced them.
func findIncidentEdge(c []clipVertex, poly1 *PolygonShape, xf1 Transform, edge1 int, poly2 *PolygonShape, xf2 Transform) {
	normals1 := poly1.Normals
	count2 := poly2.Count
	vertices2 := poly2.Vertices
	normals2 := poly2.Normals

	normal1 := RotTVec2(xf2.Q, RotVec2(xf1.Q, normals1[edge1]))

	index := 0
	minDot := maxFloat
	for i := 0; i < count2; i++ {
		dot := DotVec2(normal1, normals2[i])
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	i1 := index
	i2 := 0
	if i1+1 < count2 {
		i2 = i1 + 1
	}

	c[0].V = MulTransform(xf2, vertices2[i1])
	c[0].ID.IndexA = uint8(edge1)
	c[0].ID.IndexB = uint8(i1)
	c[0].ID.TypeA = FeatureFace
	c[0].ID.TypeB = FeatureVertex

	c[1].V = MulTransform(xf2, vertices2[i2])
	c[1].ID.IndexA = uint8(edge1)
	c[1].ID.IndexB = uint8(i2)
	c[1].ID.TypeA = FeatureFace
	c[1].ID.TypeB = FeatureVertex
}

// collidePolygons runs the separating-axis test on both polygons, picks
// whichever face separates better (with hysteresis so a near-tie doesn't
// flip the reference face every step), clips the incident polygon's
// nearest edge against that face's side planes, and keeps the clipped
// points that are still within totalRadius of the face.
func collidePolygons(manifold *Manifold, polyA *PolygonShape, xfA Transform, polyB *PolygonShape, xfB Transform, cfg Config) {
	manifold.PointCount = 0
	totalRadius := polyA.Radius + polyB.Radius

	separationA, edgeA := findMaxSeparation(polyA, xfA, polyB, xfB)
	if separationA > totalRadius {
		return
	}

	separationB, edgeB := findMaxSeparation(polyB, xfB, polyA, xfA)
	if separationB > totalRadius {
		return
	}

	var poly1, poly2 *PolygonShape
	var xf1, xf2 Transform
	var edge1 int
	var flip bool

	if separationB > cfg.HysteresisRelativeTol*separationA+cfg.HysteresisAbsoluteTol {
		poly1, poly2 = polyB, polyA
		xf1, xf2 = xfB, xfA
		edge1 = edgeB
		manifold.Type = ManifoldFaceB
		flip = true
	} else {
		poly1, poly2 = polyA, polyB
		xf1, xf2 = xfA, xfB
		edge1 = edgeA
		manifold.Type = ManifoldFaceA
		flip = false
	}

	withArena(func(arena *StackAllocator) {
		incidentEdge := arena.allocClipVertices(2)
		findIncidentEdge(incidentEdge, poly1, xf1, edge1, poly2, xf2)

		count1 := poly1.Count
		vertices1 := poly1.Vertices

		iv1 := edge1
		iv2 := 0
		if edge1+1 < count1 {
			iv2 = edge1 + 1
		}

		v11 := vertices1[iv1]
		v12 := vertices1[iv2]

		localTangent, _ := SubVec2(v12, v11).Normalized()
		localNormal := Vec2{localTangent.Y, -localTangent.X}
		planePoint := ScaleVec2(0.5, AddVec2(v11, v12))

		tangent := RotVec2(xf1.Q, localTangent)
		normal := Vec2{tangent.Y, -tangent.X}

		v11 = MulTransform(xf1, v11)
		v12 = MulTransform(xf1, v12)

		frontOffset := DotVec2(normal, v11)
		sideOffset1 := -DotVec2(tangent, v11) + totalRadius
		sideOffset2 := DotVec2(tangent, v12) + totalRadius

		clipPoints1 := arena.allocClipVertices(2)
		clipPoints2 := arena.allocClipVertices(2)

		if clipSegmentToLine(clipPoints1, incidentEdge, tangent.Neg(), sideOffset1, iv1) < 2 {
			return
		}
		if clipSegmentToLine(clipPoints2, clipPoints1, tangent, sideOffset2, iv2) < 2 {
			return
		}

		manifold.LocalNormal = localNormal
		manifold.LocalPoint = planePoint

		pointCount := 0
		for i := 0; i < MaxManifoldPoints; i++ {
			separation := DotVec2(normal, clipPoints2[i].V) - frontOffset
			if separation <= totalRadius {
				cp := &manifold.Points[pointCount]
				cp.LocalPoint = MulTTransform(xf2, clipPoints2[i].V)
				cp.ID = clipPoints2[i].ID
				if flip {
					cp.ID.IndexA, cp.ID.IndexB = clipPoints2[i].ID.IndexB, clipPoints2[i].ID.IndexA
					cp.ID.TypeA, cp.ID.TypeB = clipPoints2[i].ID.TypeB, clipPoints2[i].ID.TypeA
				}
				pointCount++
			}
		}

		manifold.PointCount = pointCount
	})
}
