package rigid2d

import "math"

// MaxPolygonVertices bounds how many vertices PolygonShape can store; it is
// a compile-time array size, while Config.MaxPolygonVertices is the
// runtime-checked limit a caller may tighten below it.
const MaxPolygonVertices = 8

// MassData is the mass, centroid, and rotational inertia (about the local
// origin) of a shape at unit or given density.
type MassData struct {
	Mass   float64
	Center Vec2
	I      float64
}

// CircleShape is a disc of the given radius centered at P in its own local
// frame.
type CircleShape struct {
	P      Vec2
	Radius float64
}

func (s *CircleShape) Proxy() *DistanceProxy {
	p := &DistanceProxy{}
	p.buffer[0] = s.P
	p.vertices = p.buffer[:1]
	p.radius = s.Radius
	return p
}

func (s *CircleShape) TestPoint(xf Transform, p Vec2) bool {
	center := AddVec2(xf.P, RotVec2(xf.Q, s.P))
	d := SubVec2(p, center)
	return DotVec2(d, d) <= s.Radius*s.Radius
}

func (s *CircleShape) RayCast(input RayCastInput, xf Transform) (RayCastOutput, bool) {
	position := AddVec2(xf.P, RotVec2(xf.Q, s.P))
	d := SubVec2(input.P1, position)
	b := DotVec2(d, d) - s.Radius*s.Radius

	r := SubVec2(input.P2, input.P1)
	c := DotVec2(d, r)
	rr := DotVec2(r, r)
	sigma := c*c - rr*b

	if sigma < 0.0 || rr < Epsilon {
		return RayCastOutput{}, false
	}

	a := -(c + math.Sqrt(sigma))
	if 0.0 <= a && a <= input.MaxFraction*rr {
		a /= rr
		normal, _ := AddVec2(d, ScaleVec2(a, r)).Normalized()
		return RayCastOutput{Fraction: a, Normal: normal}, true
	}
	return RayCastOutput{}, false
}

func (s *CircleShape) ComputeAABB(xf Transform) AABB {
	p := AddVec2(xf.P, RotVec2(xf.Q, s.P))
	return AABB{
		Lower: Vec2{p.X - s.Radius, p.Y - s.Radius},
		Upper: Vec2{p.X + s.Radius, p.Y + s.Radius},
	}
}

func (s *CircleShape) ComputeMass(density float64) MassData {
	mass := density * math.Pi * s.Radius * s.Radius
	return MassData{
		Mass:   mass,
		Center: s.P,
		I:      mass * (0.5*s.Radius*s.Radius + DotVec2(s.P, s.P)),
	}
}

// PolygonShape is a convex polygon wound counterclockwise, with vertices
// and face normals kept parallel. Radius adds a constant skin offset
// (Config.PolygonRadius) outward from the stored vertices.
type PolygonShape struct {
	Centroid Vec2
	Vertices [MaxPolygonVertices]Vec2
	Normals  [MaxPolygonVertices]Vec2
	Count    int
	Radius   float64
}

// NewBoxPolygon returns an axis-aligned box polygon with half-widths hx, hy
// centered at the origin.
func NewBoxPolygon(hx, hy float64, cfg Config) *PolygonShape {
	p := &PolygonShape{Count: 4, Radius: cfg.PolygonRadius}
	p.Vertices[0] = Vec2{-hx, -hy}
	p.Vertices[1] = Vec2{hx, -hy}
	p.Vertices[2] = Vec2{hx, hy}
	p.Vertices[3] = Vec2{-hx, hy}
	p.Normals[0] = Vec2{0, -1}
	p.Normals[1] = Vec2{1, 0}
	p.Normals[2] = Vec2{0, 1}
	p.Normals[3] = Vec2{-1, 0}
	return p
}

// ComputePolygonCentroid returns the area-weighted centroid of a closed
// vertex loop with at least 3 points.
func ComputePolygonCentroid(vs []Vec2) Vec2 {
	count := len(vs)
	c := Vec2{}
	area := 0.0

	pRef := Vec2{}
	for _, v := range vs {
		pRef = AddVec2(pRef, v)
	}
	pRef = ScaleVec2(1.0/float64(count), pRef)

	const inv3 = 1.0 / 3.0
	for i := 0; i < count; i++ {
		p1 := pRef
		p2 := vs[i]
		p3 := vs[0]
		if i+1 < count {
			p3 = vs[i+1]
		}

		e1 := SubVec2(p2, p1)
		e2 := SubVec2(p3, p1)
		d := CrossVec2(e1, e2)

		triArea := 0.5 * d
		area += triArea
		c = AddVec2(c, ScaleVec2(triArea*inv3, AddVec2(AddVec2(p1, p2), p3)))
	}

	if area <= Epsilon {
		return pRef
	}
	return ScaleVec2(1.0/area, c)
}

// SetVertices welds near-duplicate input vertices, wraps the gift
// wrapping algorithm to extract their convex hull, derives outward face
// normals, and computes the centroid — the same pipeline an upstream caller
// would run once when constructing a fixture from arbitrary point data.
func (p *PolygonShape) SetVertices(vertices []Vec2, cfg Config) {
	n := len(vertices)
	if n > cfg.MaxPolygonVertices {
		n = cfg.MaxPolygonVertices
	}
	if n < 3 {
		*p = *NewBoxPolygon(1.0, 1.0, cfg)
		return
	}

	weldTol := 0.5 * cfg.LinearSlop
	ps := make([]Vec2, 0, n)
	for i := 0; i < n; i++ {
		v := vertices[i]
		unique := true
		for _, existing := range ps {
			if SubVec2(v, existing).LengthSquared() < weldTol*weldTol {
				unique = false
				break
			}
		}
		if unique {
			ps = append(ps, v)
		}
	}

	n = len(ps)
	if n < 3 {
		*p = *NewBoxPolygon(1.0, 1.0, cfg)
		return
	}

	// Gift-wrap the welded points into a convex hull.
	i0 := 0
	x0 := ps[0].X
	for i := 1; i < n; i++ {
		x := ps[i].X
		if x > x0 || (x == x0 && ps[i].Y < ps[i0].Y) {
			i0 = i
			x0 = x
		}
	}

	hull := make([]int, 0, cfg.MaxPolygonVertices)
	ih := i0
	for {
		hull = append(hull, ih)

		ie := 0
		for j := 1; j < n; j++ {
			if ie == ih {
				ie = j
				continue
			}
			r := SubVec2(ps[ie], ps[hull[len(hull)-1]])
			v := SubVec2(ps[j], ps[hull[len(hull)-1]])
			c := CrossVec2(r, v)
			if c < 0.0 {
				ie = j
			}
			if c == 0.0 && v.LengthSquared() > r.LengthSquared() {
				ie = j
			}
		}

		ih = ie
		if ie == i0 {
			break
		}
		if len(hull) >= cfg.MaxPolygonVertices {
			break
		}
	}

	m := len(hull)
	if m < 3 {
		*p = *NewBoxPolygon(1.0, 1.0, cfg)
		return
	}

	p.Count = m
	p.Radius = cfg.PolygonRadius
	for i := 0; i < m; i++ {
		p.Vertices[i] = ps[hull[i]]
	}
	for i := 0; i < m; i++ {
		i2 := 0
		if i+1 < m {
			i2 = i + 1
		}
		edge := SubVec2(p.Vertices[i2], p.Vertices[i])
		n, _ := Vec2{edge.Y, -edge.X}.Normalized()
		p.Normals[i] = n
	}
	p.Centroid = ComputePolygonCentroid(p.Vertices[:m])
}

func (p *PolygonShape) Proxy() *DistanceProxy {
	dp := &DistanceProxy{}
	dp.SetVertices(p.Vertices[:p.Count], p.Radius)
	return dp
}

func (p *PolygonShape) TestPoint(xf Transform, point Vec2) bool {
	pLocal := RotTVec2(xf.Q, SubVec2(point, xf.P))
	for i := 0; i < p.Count; i++ {
		if DotVec2(p.Normals[i], SubVec2(pLocal, p.Vertices[i])) > 0.0 {
			return false
		}
	}
	return true
}

func (p *PolygonShape) ComputeAABB(xf Transform) AABB {
	lower := MulTransform(xf, p.Vertices[0])
	upper := lower
	for i := 1; i < p.Count; i++ {
		v := MulTransform(xf, p.Vertices[i])
		lower = MinVec2(lower, v)
		upper = MaxVec2(upper, v)
	}
	r := Vec2{p.Radius, p.Radius}
	return AABB{Lower: SubVec2(lower, r), Upper: AddVec2(upper, r)}
}

func (p *PolygonShape) ComputeMass(density float64) MassData {
	center := Vec2{}
	area := 0.0
	I := 0.0

	s := Vec2{}
	for i := 0; i < p.Count; i++ {
		s = AddVec2(s, p.Vertices[i])
	}
	s = ScaleVec2(1.0/float64(p.Count), s)

	const k3 = 1.0 / 3.0
	for i := 0; i < p.Count; i++ {
		e1 := SubVec2(p.Vertices[i], s)
		e2 := SubVec2(p.Vertices[0], s)
		if i+1 < p.Count {
			e2 = SubVec2(p.Vertices[i+1], s)
		}

		d := CrossVec2(e1, e2)
		triArea := 0.5 * d
		area += triArea
		center = AddVec2(center, ScaleVec2(triArea*k3, AddVec2(e1, e2)))

		intx2 := e1.X*e1.X + e2.X*e1.X + e2.X*e2.X
		inty2 := e1.Y*e1.Y + e2.Y*e1.Y + e2.Y*e2.Y
		I += (0.25 * k3 * d) * (intx2 + inty2)
	}

	mass := density * area
	if area > Epsilon {
		center = ScaleVec2(1.0/area, center)
	}

	md := MassData{Mass: mass}
	md.Center = AddVec2(center, s)
	md.I = density*I + mass*(DotVec2(md.Center, md.Center)-DotVec2(center, center))
	return md
}

// Validate reports whether the polygon is convex and wound consistently:
// every vertex must lie on the negative side of every other edge's line.
func (p *PolygonShape) Validate() bool {
	for i := 0; i < p.Count; i++ {
		i2 := 0
		if i < p.Count-1 {
			i2 = i + 1
		}
		v := p.Vertices[i]
		e := SubVec2(p.Vertices[i2], v)

		for j := 0; j < p.Count; j++ {
			if j == i || j == i2 {
				continue
			}
			if CrossVec2(e, SubVec2(p.Vertices[j], v)) < 0.0 {
				return false
			}
		}
	}
	return true
}

// EdgeShape is a single line segment, optionally aware of the vertices
// immediately before V1 and after V2 on its parent chain so manifold
// generation can suppress spurious contacts at a concave joint between two
// consecutive edges (see collideEdgeAndPolygon).
type EdgeShape struct {
	V0, V1, V2, V3         Vec2
	HasVertex0, HasVertex3 bool
	Radius                 float64
}

func (e *EdgeShape) Proxy() *DistanceProxy {
	p := &DistanceProxy{}
	p.SetEdge(e.V1, e.V2, e.Radius)
	return p
}

func (e *EdgeShape) ComputeAABB(xf Transform) AABB {
	v1 := MulTransform(xf, e.V1)
	v2 := MulTransform(xf, e.V2)
	lower := MinVec2(v1, v2)
	upper := MaxVec2(v1, v2)
	r := Vec2{e.Radius, e.Radius}
	return AABB{Lower: SubVec2(lower, r), Upper: AddVec2(upper, r)}
}

// ChainShape is an open or closed sequence of edges sharing ghost-vertex
// continuation hints with their neighbors, so a body built from many edges
// collides as one smooth boundary instead of generating spurious contacts
// at each internal vertex.
type ChainShape struct {
	Vertices []Vec2
	Loop     bool
	Radius   float64
}

// EdgeAt returns the EdgeShape for the i-th segment of the chain, with
// ghost vertices populated from its neighbors. At the ends of an open chain
// there is no neighbor, so HasVertex0 (first segment) or HasVertex3 (last
// segment) stays false and that ghost vertex is left zero.
func (c *ChainShape) EdgeAt(i int) EdgeShape {
	n := len(c.Vertices)
	e := EdgeShape{
		V1:     c.Vertices[i],
		V2:     c.Vertices[(i+1)%n],
		Radius: c.Radius,
	}

	if c.Loop {
		e.HasVertex0 = true
		e.V0 = c.Vertices[(i-1+n)%n]
		e.HasVertex3 = true
		e.V3 = c.Vertices[(i+2)%n]
	} else {
		if i > 0 {
			e.HasVertex0 = true
			e.V0 = c.Vertices[i-1]
		}
		if i+2 < n {
			e.HasVertex3 = true
			e.V3 = c.Vertices[i+2]
		}
	}
	return e
}

// EdgeCount is the number of segments the chain collides as.
func (c *ChainShape) EdgeCount() int {
	if len(c.Vertices) == 0 {
		return 0
	}
	if c.Loop {
		return len(c.Vertices)
	}
	return len(c.Vertices) - 1
}
