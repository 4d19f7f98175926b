package rigid2d

import "math"

// Epsilon is the float32 machine epsilon (2^-23), used as a small absolute
// cutoff, e.g. for zero-length vectors in normalization.
const Epsilon = 1.192092896e-07

const maxFloat = math.MaxFloat64

// IsValidFloat reports whether x is neither NaN nor infinite.
func IsValidFloat(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Vec2 is a 2D column vector.
type Vec2 struct {
	X, Y float64
}

func NewVec2(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

// NaNVec2 returns a vector whose components are both NaN, a sentinel for a
// vector that has not been computed.
func NaNVec2() Vec2 { return Vec2{X: math.NaN(), Y: math.NaN()} }

func (v Vec2) IsValid() bool { return IsValidFloat(v.X) && IsValidFloat(v.Y) }

func (v Vec2) Neg() Vec2           { return Vec2{-v.X, -v.Y} }
func (v Vec2) Length() float64     { return math.Hypot(v.X, v.Y) }
func (v Vec2) LengthSquared() float64 { return v.X*v.X + v.Y*v.Y }

// Skew returns the vector such that Dot(Skew(v), w) == Cross(v, w).
func (v Vec2) Skew() Vec2 { return Vec2{-v.Y, v.X} }

// Normalized returns v scaled to unit length and the original length. A
// vector shorter than Epsilon normalizes to the zero vector with length 0.
func (v Vec2) Normalized() (Vec2, float64) {
	length := v.Length()
	if length < Epsilon {
		return Vec2{}, 0.0
	}
	inv := 1.0 / length
	return Vec2{v.X * inv, v.Y * inv}, length
}

func AddVec2(a, b Vec2) Vec2       { return Vec2{a.X + b.X, a.Y + b.Y} }
func SubVec2(a, b Vec2) Vec2       { return Vec2{a.X - b.X, a.Y - b.Y} }
func ScaleVec2(s float64, a Vec2) Vec2 { return Vec2{s * a.X, s * a.Y} }
func DotVec2(a, b Vec2) float64    { return a.X*b.X + a.Y*b.Y }
func CrossVec2(a, b Vec2) float64  { return a.X*b.Y - a.Y*b.X }

// CrossScalarVec2 rotates a by +90 degrees and scales it by s, matching the
// convention cross(s, a) for a scalar s treated as the z-component.
func CrossScalarVec2(s float64, a Vec2) Vec2 { return Vec2{-s * a.Y, s * a.X} }

func MinVec2(a, b Vec2) Vec2 { return Vec2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)} }
func MaxVec2(a, b Vec2) Vec2 { return Vec2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)} }

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func ClampVec2(v, lo, hi Vec2) Vec2 {
	return Vec2{Clamp(v.X, lo.X, hi.X), Clamp(v.Y, lo.Y, hi.Y)}
}

// UnitVec2 is a rotation represented as a (cos, sin) pair, avoiding the
// wraparound and drift issues of storing a bare angle. The zero value is the
// invalid rotation; every valid UnitVec2 has unit length.
type UnitVec2 struct {
	C, S float64
}

// Identity is the zero-rotation unit vector.
func Identity() UnitVec2 { return UnitVec2{C: 1, S: 0} }

func NewUnitVec2(angle float64) UnitVec2 {
	return UnitVec2{C: math.Cos(angle), S: math.Sin(angle)}
}

func (q UnitVec2) IsValid() bool { return q.C != 0 || q.S != 0 }

func (q UnitVec2) Angle() float64 { return math.Atan2(q.S, q.C) }

func (q UnitVec2) XAxis() Vec2 { return Vec2{q.C, q.S} }
func (q UnitVec2) YAxis() Vec2 { return Vec2{-q.S, q.C} }

// MulRot composes two rotations: MulRot(a,b) rotates by b then by a.
func MulRot(a, b UnitVec2) UnitVec2 {
	return UnitVec2{C: a.C*b.C - a.S*b.S, S: a.S*b.C + a.C*b.S}
}

// MulTRot composes the inverse of a with b: a^T * b.
func MulTRot(a, b UnitVec2) UnitVec2 {
	return UnitVec2{C: a.C*b.C + a.S*b.S, S: a.C*b.S - a.S*b.C}
}

func RotVec2(q UnitVec2, v Vec2) Vec2 {
	return Vec2{q.C*v.X - q.S*v.Y, q.S*v.X + q.C*v.Y}
}

func RotTVec2(q UnitVec2, v Vec2) Vec2 {
	return Vec2{q.C*v.X + q.S*v.Y, -q.S*v.X + q.C*v.Y}
}

// Transform is a rigid-body placement: rotate by Q then translate by P.
type Transform struct {
	P Vec2
	Q UnitVec2
}

func IdentityTransform() Transform { return Transform{Q: Identity()} }

func MulTransform(t Transform, v Vec2) Vec2 {
	return AddVec2(RotVec2(t.Q, v), t.P)
}

func MulTTransform(t Transform, v Vec2) Vec2 {
	return RotTVec2(t.Q, SubVec2(v, t.P))
}

// MulTransforms composes two transforms: apply b, then a.
func MulTransforms(a, b Transform) Transform {
	return Transform{
		Q: MulRot(a.Q, b.Q),
		P: AddVec2(RotVec2(a.Q, b.P), a.P),
	}
}

// MulTTransforms computes a^-1 * b.
func MulTTransforms(a, b Transform) Transform {
	return Transform{
		Q: MulTRot(a.Q, b.Q),
		P: RotTVec2(a.Q, SubVec2(b.P, a.P)),
	}
}

// Mat22 is a 2x2 matrix stored by column.
type Mat22 struct {
	Ex, Ey Vec2
}

func NewMat22(a, b, c, d float64) Mat22 {
	return Mat22{Ex: Vec2{a, c}, Ey: Vec2{b, d}}
}

func (m Mat22) Det() float64 { return m.Ex.X*m.Ey.Y - m.Ey.X*m.Ex.Y }

// Solve returns x such that m*x == b, or the zero vector if m is singular.
func (m Mat22) Solve(b Vec2) Vec2 {
	a11, a12, a21, a22 := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a11*a22 - a12*a21
	if det != 0.0 {
		det = 1.0 / det
	}
	return Vec2{det * (a22*b.X - a12*b.Y), det * (a11*b.Y - a21*b.X)}
}

// Sweep describes the motion of a body's center of mass over a step, used by
// time-of-impact search to interpolate a transform at an arbitrary fraction.
type Sweep struct {
	LocalCenter Vec2
	C0, C       Vec2
	A0, A       float64
	// Alpha0 is the fraction of the step already consumed by a previous TOI
	// event; GetTransform only interpolates over [Alpha0, 1].
	Alpha0 float64
}

// GetTransform returns the world transform of the body's origin at sweep
// fraction beta in [0, 1].
func (s Sweep) GetTransform(beta float64) Transform {
	c := AddVec2(ScaleVec2(1.0-beta, s.C0), ScaleVec2(beta, s.C))
	a := (1.0-beta)*s.A0 + beta*s.A
	q := NewUnitVec2(a)
	t := Transform{Q: q}
	t.P = SubVec2(c, RotVec2(q, s.LocalCenter))
	return t
}

// Advance moves the starting point of the sweep to the given fraction of the
// current step, used after a TOI event clips the remainder of the step.
func (s *Sweep) Advance(alpha float64) {
	if s.Alpha0 >= alpha {
		return
	}
	beta := (alpha - s.Alpha0) / (1.0 - s.Alpha0)
	s.C0 = AddVec2(ScaleVec2(1.0-beta, s.C0), ScaleVec2(beta, s.C))
	s.A0 = (1.0-beta)*s.A0 + beta*s.A
	s.Alpha0 = alpha
}

// Normalize shifts A0 and A by the same whole number of turns so that A0
// lies in [0, 2*pi); the difference A - A0, and so the interpolated
// rotation, is unchanged.
func (s *Sweep) Normalize() {
	twoPi := 2.0 * math.Pi
	d := twoPi * math.Floor(s.A0/twoPi)
	s.A0 -= d
	s.A -= d
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Lower, Upper Vec2
}

func (b AABB) IsValid() bool {
	d := SubVec2(b.Upper, b.Lower)
	return d.X >= 0 && d.Y >= 0 && b.Lower.IsValid() && b.Upper.IsValid()
}

func (b AABB) Center() Vec2 { return ScaleVec2(0.5, AddVec2(b.Lower, b.Upper)) }
func (b AABB) Extents() Vec2 { return ScaleVec2(0.5, SubVec2(b.Upper, b.Lower)) }
func (b AABB) Perimeter() float64 {
	wx := b.Upper.X - b.Lower.X
	wy := b.Upper.Y - b.Lower.Y
	return 2.0 * (wx + wy)
}

func CombineAABB(a, b AABB) AABB {
	return AABB{Lower: MinVec2(a.Lower, b.Lower), Upper: MaxVec2(a.Upper, b.Upper)}
}

func (a AABB) Contains(b AABB) bool {
	return a.Lower.X <= b.Lower.X && a.Lower.Y <= b.Lower.Y &&
		b.Upper.X <= a.Upper.X && b.Upper.Y <= a.Upper.Y
}

func OverlapAABB(a, b AABB) bool {
	d1 := SubVec2(b.Lower, a.Upper)
	d2 := SubVec2(a.Lower, b.Upper)
	if d1.X > 0.0 || d1.Y > 0.0 {
		return false
	}
	if d2.X > 0.0 || d2.Y > 0.0 {
		return false
	}
	return true
}

// RayCastInput describes a segment query from P1 to P2, truncated to
// MaxFraction of the segment length.
type RayCastInput struct {
	P1, P2      Vec2
	MaxFraction float64
}

// RayCastOutput is the result of a successful ray cast: the surface normal
// and the fraction along the input segment where the hit occurred.
type RayCastOutput struct {
	Normal   Vec2
	Fraction float64
}

// RayCastAABB implements the slab method against a single AABB.
func RayCastAABB(b AABB, input RayCastInput) (RayCastOutput, bool) {
	tmin := -math.MaxFloat64
	tmax := math.MaxFloat64

	p := input.P1
	d := SubVec2(input.P2, input.P1)
	absD := Vec2{math.Abs(d.X), math.Abs(d.Y)}

	var normal Vec2
	for i := 0; i < 2; i++ {
		var pi, di, absDi, lower, upper float64
		if i == 0 {
			pi, di, absDi, lower, upper = p.X, d.X, absD.X, b.Lower.X, b.Upper.X
		} else {
			pi, di, absDi, lower, upper = p.Y, d.Y, absD.Y, b.Lower.Y, b.Upper.Y
		}

		if absDi < Epsilon {
			if pi < lower || upper < pi {
				return RayCastOutput{}, false
			}
			continue
		}

		inv := 1.0 / di
		t1 := (lower - pi) * inv
		t2 := (upper - pi) * inv
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1.0
		}
		if t1 > tmin {
			if i == 0 {
				normal = Vec2{s, 0}
			} else {
				normal = Vec2{0, s}
			}
			tmin = t1
		}
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return RayCastOutput{}, false
		}
	}

	if tmin < 0.0 || input.MaxFraction < tmin {
		return RayCastOutput{}, false
	}

	return RayCastOutput{Normal: normal, Fraction: tmin}, true
}
