package rigid2d

// clipVertex is a vertex produced while clipping one polygon edge against
// another, carrying the contact feature that will identify it across
// frames if it survives into the final manifold.
type clipVertex struct {
	V  Vec2
	ID ContactID
}

// clipSegmentToLine clips the two-point segment vIn against the half-plane
// normal·x <= offset (Sutherland-Hodgman for a single edge), tagging any
// newly created intersection point with vertexIndexA as the feature on the
// clipping shape. Returns the number of points written to vOut (0, 1, or 2).
func clipSegmentToLine(vOut, vIn []clipVertex, normal Vec2, offset float64, vertexIndexA int) int {
	numOut := 0

	distance0 := DotVec2(normal, vIn[0].V) - offset
	distance1 := DotVec2(normal, vIn[1].V) - offset

	if distance0 <= 0.0 {
		vOut[numOut] = vIn[0]
		numOut++
	}
	if distance1 <= 0.0 {
		vOut[numOut] = vIn[1]
		numOut++
	}

	if distance0*distance1 < 0.0 {
		interp := distance0 / (distance0 - distance1)
		vOut[numOut].V = AddVec2(vIn[0].V, ScaleVec2(interp, SubVec2(vIn[1].V, vIn[0].V)))
		vOut[numOut].ID.IndexA = uint8(vertexIndexA)
		vOut[numOut].ID.IndexB = vIn[0].ID.IndexB
		vOut[numOut].ID.TypeA = FeatureVertex
		vOut[numOut].ID.TypeB = FeatureFace
		numOut++
	}

	return numOut
}
