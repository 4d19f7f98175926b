package rigid2d

// Proxy is the minimal convex-shape view the distance query, manifold
// generator, and TOI search need: a small vertex list plus a skin radius.
// A caller's shape type satisfies this directly, or produces one via its own
// DistanceProxy field — the core never reaches back into the caller's shape.
type Proxy interface {
	VertexCount() int
	Vertex(i int) Vec2
	SupportIndex(d Vec2) int
	Radius() float64
}

// DistanceProxy is a concrete, self-contained Proxy: a small vertex buffer
// and a radius. Shape adapters in this package build one of these to hand
// to Distance, UpdateManifold, and TimeOfImpact.
type DistanceProxy struct {
	buffer   [2]Vec2
	vertices []Vec2
	radius   float64
}

func (p *DistanceProxy) VertexCount() int { return len(p.vertices) }
func (p *DistanceProxy) Vertex(i int) Vec2 { return p.vertices[i] }
func (p *DistanceProxy) Radius() float64  { return p.radius }

// SetVertices points the proxy directly at the given slice without copying;
// callers must not mutate it while the proxy is in use.
func (p *DistanceProxy) SetVertices(vertices []Vec2, radius float64) {
	p.vertices = vertices
	p.radius = radius
}

// SetEdge configures the proxy as a single two-vertex edge, using the
// proxy's own small buffer so no allocation is needed — the common case for
// edge and chain shapes.
func (p *DistanceProxy) SetEdge(v1, v2 Vec2, radius float64) {
	p.buffer[0] = v1
	p.buffer[1] = v2
	p.vertices = p.buffer[:]
	p.radius = radius
}

// SupportIndex returns the index of p's vertex farthest along d, the GJK
// and TOI search's support mapping.
func (p *DistanceProxy) SupportIndex(d Vec2) int {
	best := 0
	bestValue := DotVec2(p.vertices[0], d)
	for i := 1; i < len(p.vertices); i++ {
		v := DotVec2(p.vertices[i], d)
		if v > bestValue {
			best = i
			bestValue = v
		}
	}
	return best
}
