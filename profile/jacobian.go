package profile

import "math"

// Jacobian is a 2x2 linear map in row-major order:
//
//	| a  b |
//	| c  d |
//
// mapping (u, v) to (a*u + b*v, c*u + d*v).
type Jacobian struct {
	A, B float64
	C, D float64
}

// Offset is a translation in world coordinates.
type Offset struct {
	X, Y float64
}

// Add returns o + p.
func (o Offset) Add(p Offset) Offset { return Offset{o.X + p.X, o.Y + p.Y} }

// IsZero reports whether o is the null translation.
func (o Offset) IsZero() bool { return o.X == 0 && o.Y == 0 }

// Norm returns the length of o.
func (o Offset) Norm() float64 { return math.Hypot(o.X, o.Y) }

// IdentityJacobian returns the identity map.
func IdentityJacobian() Jacobian {
	return Jacobian{A: 1, D: 1}
}

// Scaling returns a uniform scale by s.
func Scaling(s float64) Jacobian {
	return Jacobian{A: s, D: s}
}

// Stretch scales x by sx and y by sy.
func Stretch(sx, sy float64) Jacobian {
	return Jacobian{A: sx, D: sy}
}

// Rotation rotates counterclockwise by theta radians.
func Rotation(theta float64) Jacobian {
	sin, cos := math.Sincos(theta)
	return Jacobian{
		A: cos, B: -sin,
		C: sin, D: cos,
	}
}

// ShearJacobian returns the area-preserving reduced shear (g1, g2). It
// reports false for |g| >= 1.
func ShearJacobian(g1, g2 float64) (Jacobian, bool) {
	gsq := g1*g1 + g2*g2
	if gsq >= 1 {
		return Jacobian{}, false
	}
	f := 1 / math.Sqrt(1-gsq)
	return Jacobian{
		A: f * (1 + g1), B: f * g2,
		C: f * g2, D: f * (1 - g1),
	}, true
}

// Multiply returns j*o, the map that applies o first.
func (j Jacobian) Multiply(o Jacobian) Jacobian {
	return Jacobian{
		A: j.A*o.A + j.B*o.C,
		B: j.A*o.B + j.B*o.D,
		C: j.C*o.A + j.D*o.C,
		D: j.C*o.B + j.D*o.D,
	}
}

// Apply maps (u, v).
func (j Jacobian) Apply(u, v float64) (float64, float64) {
	return j.A*u + j.B*v, j.C*u + j.D*v
}

// ApplyOffset maps an offset.
func (j Jacobian) ApplyOffset(o Offset) Offset {
	x, y := j.Apply(o.X, o.Y)
	return Offset{x, y}
}

// ApplyTranspose maps (u, v) by the transpose of j.
func (j Jacobian) ApplyTranspose(u, v float64) (float64, float64) {
	return j.A*u + j.C*v, j.B*u + j.D*v
}

// Det returns the determinant.
func (j Jacobian) Det() float64 {
	return j.A*j.D - j.B*j.C
}

// Invert returns the inverse map. It reports false for singular matrices.
func (j Jacobian) Invert() (Jacobian, bool) {
	det := j.Det()
	if math.Abs(det) < 1e-300 {
		return Jacobian{}, false
	}
	inv := 1 / det
	return Jacobian{
		A: j.D * inv, B: -j.B * inv,
		C: -j.C * inv, D: j.A * inv,
	}, true
}

// SingularValues returns the largest and smallest singular values.
func (j Jacobian) SingularValues() (hi, lo float64) {
	// Eigenvalues of J^T J.
	p := j.A*j.A + j.C*j.C
	q := j.A*j.B + j.C*j.D
	r := j.B*j.B + j.D*j.D
	mean := 0.5 * (p + r)
	dev := math.Sqrt(0.25*(p-r)*(p-r) + q*q)
	hi = math.Sqrt(mean + dev)
	lo = math.Sqrt(math.Max(mean-dev, 0))
	return hi, lo
}

// IsIdentity reports whether j is the identity map.
func (j Jacobian) IsIdentity() bool {
	return j.A == 1 && j.B == 0 && j.C == 0 && j.D == 1
}
