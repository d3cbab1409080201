package chromatic

import (
	"fmt"
	"math"

	"github.com/gogpu/chromatic/profile"
	"github.com/gogpu/chromatic/spectral"
)

var (
	identityJac   = spectral.Constant(profile.IdentityJacobian())
	zeroOffset    = spectral.Constant(profile.Offset{})
	unitFluxRatio = spectral.Constant(1.0)
)

// TransformJacobian applies the linear map jac to n.
func (n *Node) TransformJacobian(jac spectral.WaveFunc[profile.Jacobian]) (*Node, error) {
	return Transform(n, jac, zeroOffset, unitFluxRatio)
}

// Expand scales the linear size of n by scale, keeping the surface
// brightness, so the flux grows by scale^2.
func (n *Node) Expand(scale spectral.WaveFunc[float64]) (*Node, error) {
	return n.TransformJacobian(spectral.Map(scale, profile.Scaling))
}

// Dilate scales the linear size of n by scale, keeping the flux.
func (n *Node) Dilate(scale spectral.WaveFunc[float64]) (*Node, error) {
	ratio := spectral.Map(scale, func(s float64) float64 { return 1 / (s * s) })
	return Transform(n, spectral.Map(scale, profile.Scaling), zeroOffset, ratio)
}

// Magnify applies a lensing magnification mu: linear size grows by sqrt(mu)
// and flux by mu.
func (n *Node) Magnify(mu spectral.WaveFunc[float64]) (*Node, error) {
	return n.Expand(spectral.Sqrt(mu))
}

// Shear applies a reduced shear (g1, g2) that preserves area.
func (n *Node) Shear(g1, g2 float64) (*Node, error) {
	jac, ok := profile.ShearJacobian(g1, g2)
	if !ok {
		return nil, fmt.Errorf("%w: shear (%g, %g) has |g| >= 1", profile.ErrInvalidParameter, g1, g2)
	}
	return n.TransformJacobian(spectral.Constant(jac))
}

// Lens applies a weak-lensing shear (g1, g2) and magnification mu.
func (n *Node) Lens(g1, g2, mu float64) (*Node, error) {
	jac, ok := profile.ShearJacobian(g1, g2)
	if !ok {
		return nil, fmt.Errorf("%w: shear (%g, %g) has |g| >= 1", profile.ErrInvalidParameter, g1, g2)
	}
	if !(mu > 0) {
		return nil, fmt.Errorf("%w: magnification %g", profile.ErrInvalidParameter, mu)
	}
	return n.TransformJacobian(spectral.Constant(profile.Scaling(math.Sqrt(mu)).Multiply(jac)))
}

// Rotate rotates n counterclockwise by theta radians.
func (n *Node) Rotate(theta spectral.WaveFunc[float64]) (*Node, error) {
	return n.TransformJacobian(spectral.Map(theta, profile.Rotation))
}

// Shift translates n by offset.
func (n *Node) Shift(offset spectral.WaveFunc[profile.Offset]) (*Node, error) {
	return Transform(n, identityJac, offset, unitFluxRatio)
}

// WithScaledFlux multiplies the flux of n by ratio. Inseparable sums are
// scaled term by term so they can still be drawn one term at a time; a
// separable sum is scaled as a whole and stays separable.
func (n *Node) WithScaledFlux(ratio spectral.WaveFunc[float64]) (*Node, error) {
	if spectral.IsOne(ratio) {
		return n, nil
	}
	if n.kind == KindSum && !n.separable {
		terms := make([]*Node, len(n.children))
		for i, c := range n.children {
			t, err := c.WithScaledFlux(ratio)
			if err != nil {
				return nil, err
			}
			terms[i] = t
		}
		return Add(terms...)
	}
	return Transform(n, identityJac, zeroOffset, ratio)
}

// WithSED multiplies a dimensionless node by sed, making it drawable. It
// fails with ErrInvalidComposition when n already has an SED.
func (n *Node) WithSED(sed *spectral.SED) (*Node, error) {
	if sed == nil {
		return nil, fmt.Errorf("%w: nil SED", ErrInvalidComposition)
	}
	return newTransform(n, &transform{
		jac:    identityJac,
		offset: zeroOffset,
		ratio:  unitFluxRatio,
		sed:    sed,
	})
}
