package rigid2d

import "sync"

// StackAllocator is a bump-allocated scratch arena: a small set of backing
// slices, one per buffer kind, that grow on demand and are otherwise reused
// across calls instead of going back to the Go heap every step. Borrow a
// slice with one of the alloc methods, and undo every borrow made since a
// given mark with Leave — the LIFO discipline SolveIsland, SolveTOIIsland,
// and the polygon/edge clip routines all follow: mark on entry, Leave on
// every exit path, so the arena's high-water mark is back where it started
// once a call returns.
type StackAllocator struct {
	positions           []Position
	velocities          []Velocity
	velocityConstraints []contactVelocityConstraint
	positionConstraints []contactPositionConstraint
	clipVertices        []clipVertex
}

// stackMark is a saved depth into each of an arena's backing slices.
type stackMark struct {
	positions, velocities                 int
	velocityConstraints, positionConstraints int
	clipVertices                          int
}

func (a *StackAllocator) mark() stackMark {
	return stackMark{
		positions:           len(a.positions),
		velocities:          len(a.velocities),
		velocityConstraints: len(a.velocityConstraints),
		positionConstraints: len(a.positionConstraints),
		clipVertices:        len(a.clipVertices),
	}
}

// Leave rewinds the arena to a depth an earlier mark() observed. Allocations
// made since stay in the backing arrays (still reachable through their
// returned slices if a caller kept one past Leave, which no code in this
// package does) but are no longer considered live by the arena itself.
func (a *StackAllocator) Leave(m stackMark) {
	a.positions = a.positions[:m.positions]
	a.velocities = a.velocities[:m.velocities]
	a.velocityConstraints = a.velocityConstraints[:m.velocityConstraints]
	a.positionConstraints = a.positionConstraints[:m.positionConstraints]
	a.clipVertices = a.clipVertices[:m.clipVertices]
}

func (a *StackAllocator) allocPositions(n int) []Position {
	start := len(a.positions)
	a.positions = append(a.positions, make([]Position, n)...)
	return a.positions[start : start+n]
}

func (a *StackAllocator) allocVelocities(n int) []Velocity {
	start := len(a.velocities)
	a.velocities = append(a.velocities, make([]Velocity, n)...)
	return a.velocities[start : start+n]
}

func (a *StackAllocator) allocVelocityConstraints(n int) []contactVelocityConstraint {
	start := len(a.velocityConstraints)
	a.velocityConstraints = append(a.velocityConstraints, make([]contactVelocityConstraint, n)...)
	return a.velocityConstraints[start : start+n]
}

func (a *StackAllocator) allocPositionConstraints(n int) []contactPositionConstraint {
	start := len(a.positionConstraints)
	a.positionConstraints = append(a.positionConstraints, make([]contactPositionConstraint, n)...)
	return a.positionConstraints[start : start+n]
}

func (a *StackAllocator) allocClipVertices(n int) []clipVertex {
	start := len(a.clipVertices)
	a.clipVertices = append(a.clipVertices, make([]clipVertex, n)...)
	return a.clipVertices[start : start+n]
}

// arenaPool hands out one StackAllocator per concurrent caller — islands in
// SolveIslandsParallel run on different goroutines and must not share a
// backing array — and reclaims them once a call's Leave/Put pair runs, so
// steady-state stepping reuses the same handful of backing arrays instead
// of allocating fresh ones every step.
var arenaPool = sync.Pool{New: func() any { return &StackAllocator{} }}

// withArena borrows an arena for the duration of fn, handing fn a fresh
// mark to Leave before returning it to the pool. Every package entry point
// that needs per-step scratch space (SolveIsland, SolveTOIIsland, the
// polygon/edge manifold routines) goes through this instead of calling
// make() directly.
func withArena(fn func(arena *StackAllocator)) {
	arena := arenaPool.Get().(*StackAllocator)
	m := arena.mark()
	defer func() {
		arena.Leave(m)
		arenaPool.Put(arena)
	}()
	fn(arena)
}
