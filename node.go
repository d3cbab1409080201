package chromatic

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gogpu/chromatic/image"
	"github.com/gogpu/chromatic/profile"
	"github.com/gogpu/chromatic/spectral"
)

// Kind identifies the variant of a Node.
type Kind uint8

const (
	// KindLeaf is a monochromatic profile times a normalization.
	KindLeaf Kind = iota

	// KindSum is the sum of its children.
	KindSum

	// KindConvolution is the convolution of its children.
	KindConvolution

	// KindTransform is an affine transformation of its only child, with
	// Jacobian, offset and flux ratio that may depend on wavelength.
	KindTransform

	// KindDeconvolution is the deconvolution by its only child.
	KindDeconvolution

	// KindAutoConvolution is its only child convolved with itself.
	KindAutoConvolution

	// KindAutoCorrelation is its only child correlated with itself.
	KindAutoCorrelation

	// KindFourierSqrt is the profile whose autoconvolution is its child.
	KindFourierSqrt

	// KindInterpolated answers evaluations from images precomputed on a
	// wavelength grid.
	KindInterpolated
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "Leaf"
	case KindSum:
		return "Sum"
	case KindConvolution:
		return "Convolution"
	case KindTransform:
		return "Transform"
	case KindDeconvolution:
		return "Deconvolution"
	case KindAutoConvolution:
		return "AutoConvolution"
	case KindAutoCorrelation:
		return "AutoCorrelation"
	case KindFourierSqrt:
		return "FourierSqrt"
	case KindInterpolated:
		return "Interpolated"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

var lastNodeID atomic.Uint64

// Node is a chromatic profile: an immutable expression tree over
// monochromatic profiles.
//
// Every node carries a Normalization, the union of the wavelength knots of
// its subtree and a separability flag. Nodes are built by New, Achromatic and
// the composition functions and are never modified afterwards, so they are
// safe for concurrent use.
type Node struct {
	kind         Kind
	separable    bool
	interpolated bool
	waves        []float64
	norm         Normalization
	key          string

	prof     profile.Profile
	children []*Node
	xf       *transform
	grid     *interpGrid
}

// transform holds the wavelength-dependent parameters of a KindTransform
// node. A non-nil sed multiplies the flux ratio.
type transform struct {
	jac    spectral.WaveFunc[profile.Jacobian]
	offset spectral.WaveFunc[profile.Offset]
	ratio  spectral.WaveFunc[float64]
	sed    *spectral.SED
}

func (t *transform) chromaticGeometry() bool {
	return t.jac.Chromatic() || t.offset.Chromatic()
}

// fluxAt returns the flux ratio at wave, SED included.
func (t *transform) fluxAt(wave float64) float64 {
	r := t.ratio.At(wave)
	if t.sed != nil {
		r *= t.sed.Evaluate(wave)
	}
	return r
}

func (t *transform) apply(p profile.Profile, wave float64) (profile.Profile, error) {
	return profile.Transform(p, t.jac.At(wave), t.offset.At(wave), t.fluxAt(wave))
}

// then returns the transform that applies t first and o second.
func (t *transform) then(o *transform) *transform {
	jac := spectral.Map2(o.jac, t.jac, profile.Jacobian.Multiply)
	var offset spectral.WaveFunc[profile.Offset]
	if o.jac.Chromatic() || t.offset.Chromatic() || o.offset.Chromatic() {
		offset = spectral.Varying(func(w float64) profile.Offset {
			return o.jac.At(w).ApplyOffset(t.offset.At(w)).Add(o.offset.At(w))
		})
	} else {
		offset = spectral.Constant(o.jac.Value().ApplyOffset(t.offset.Value()).Add(o.offset.Value()))
	}
	return &transform{
		jac:    jac,
		offset: offset,
		ratio:  spectral.Product(t.ratio, o.ratio),
	}
}

func (t *transform) key() string {
	var b strings.Builder
	b.WriteString(t.jac.Key())
	b.WriteByte(';')
	b.WriteString(t.offset.Key())
	b.WriteByte(';')
	b.WriteString(t.ratio.Key())
	if t.sed != nil {
		b.WriteString(";sed#")
		b.WriteString(strconv.FormatUint(t.sed.ID(), 10))
	}
	return b.String()
}

// interpGrid is the payload of a KindInterpolated node.
type interpGrid struct {
	original *Node
	waves    []float64
	images   []*image.Image
	stepK    []float64
	maxK     []float64
}

// New returns a leaf whose surface brightness at wavelength w is
// p scaled by sed(w). A nil sed is the same as Achromatic(p).
func New(p profile.Profile, sed *spectral.SED) *Node {
	if sed == nil {
		return Achromatic(p)
	}
	return newLeaf(p, Spectral(sed))
}

// Achromatic returns a leaf for a wavelength-independent profile. A profile
// of unit flux gets a dimensionless normalization and can be convolved with
// SED-bearing nodes. Any other flux is moved into a constant SED so the node
// can be drawn on its own.
func Achromatic(p profile.Profile) *Node {
	f := p.Flux()
	if f == 1 {
		return newLeaf(p, Scalar(spectral.Constant(1.0)))
	}
	if f != 0 {
		p = profile.WithFlux(p, 1)
	}
	return newLeaf(p, Spectral(spectral.ConstantSED(f)))
}

func newLeaf(p profile.Profile, norm Normalization) *Node {
	return &Node{
		kind:      KindLeaf,
		separable: true,
		waves:     norm.WaveList(),
		norm:      norm,
		key:       "leaf#" + strconv.FormatUint(lastNodeID.Add(1), 10),
		prof:      p,
	}
}

// Add returns the sum of nodes. Nested sums are flattened.
//
// Separable summands are grouped by the identity of their normalization.
// The sum is separable only when every summand is separable and they all
// share one normalization object; numerically equal but distinct SEDs are
// not merged. Mixing SED-bearing and dimensionless summands fails with
// ErrInvalidComposition.
func Add(nodes ...*Node) (*Node, error) {
	flat, err := flatten(KindSum, nodes)
	if err != nil {
		return nil, err
	}
	if len(flat) == 1 {
		return flat[0], nil
	}
	withSED := 0
	for _, c := range flat {
		if c.norm.HasSED() {
			withSED++
		}
	}
	if withSED != 0 && withSED != len(flat) {
		return nil, fmt.Errorf("%w: sum mixes SED-bearing and dimensionless terms", ErrInvalidComposition)
	}

	var groups [][]*Node
	index := make(map[string]int)
	for _, c := range flat {
		if c.separable {
			k := c.norm.Key()
			if i, ok := index[k]; ok {
				groups[i] = append(groups[i], c)
				continue
			}
			index[k] = len(groups)
		}
		groups = append(groups, []*Node{c})
	}
	if len(groups) == 1 {
		return newSum(flat, flat[0].norm, true), nil
	}

	terms := make([]*Node, len(groups))
	for i, g := range groups {
		if len(g) == 1 {
			terms[i] = g[0]
		} else {
			terms[i] = newSum(g, g[0].norm, true)
		}
	}
	return newSum(terms, sumNormalization(terms), false), nil
}

// Sub returns a - b.
func Sub(a, b *Node) (*Node, error) {
	neg, err := b.WithScaledFlux(spectral.Constant(-1.0))
	if err != nil {
		return nil, err
	}
	return Add(a, neg)
}

func newSum(terms []*Node, norm Normalization, separable bool) *Node {
	n := &Node{
		kind:      KindSum,
		separable: separable,
		norm:      norm,
		children:  terms,
	}
	n.inherit()
	return n
}

// sumNormalization adds the distinct normalizations of terms.
func sumNormalization(terms []*Node) Normalization {
	seen := make(map[string]bool)
	var total Normalization
	first := true
	for _, t := range terms {
		k := t.norm.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		switch {
		case first:
			total = t.norm
			first = false
		case total.HasSED():
			total = Spectral(total.sed.Add(t.norm.sed))
		default:
			total = Scalar(spectral.Sum(total.scalar, t.norm.scalar))
		}
	}
	return total
}

// Convolve returns the convolution of nodes. Nested convolutions are
// flattened. At most one factor may carry an SED. The result is separable
// when every factor is.
func Convolve(nodes ...*Node) (*Node, error) {
	flat, err := flatten(KindConvolution, nodes)
	if err != nil {
		return nil, err
	}
	if len(flat) == 1 {
		return flat[0], nil
	}
	var nSED, nInsep, nInterp int
	separable := true
	norm := Scalar(spectral.Constant(1.0))
	for _, c := range flat {
		if c.norm.HasSED() {
			nSED++
		}
		if !c.separable {
			separable = false
			nInsep++
		}
		if c.interpolated {
			nInterp++
		}
		norm = norm.times(c.norm)
	}
	if nSED > 1 {
		return nil, fmt.Errorf("%w: convolution of %d SED-bearing factors", ErrInvalidComposition, nSED)
	}
	if nInsep > 1 && nInterp > 0 {
		Logger().Warn("chromatic: interpolation is not used when convolving several inseparable factors",
			"inseparable", nInsep, "interpolated", nInterp)
	}
	n := &Node{
		kind:      KindConvolution,
		separable: separable,
		norm:      norm,
		children:  flat,
	}
	n.inherit()
	return n, nil
}

func flatten(kind Kind, nodes []*Node) ([]*Node, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: empty %s", ErrInvalidComposition, kind)
	}
	var out []*Node
	for _, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("%w: nil node in %s", ErrInvalidComposition, kind)
		}
		if n.kind == kind {
			sub, _ := flatten(kind, n.children)
			out = append(out, sub...)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Transform applies a wavelength-dependent affine map to n: the surface
// brightness becomes ratio(w) * f(J(w)^-1 (x - offset(w))).
//
// The result is separable only if n is and none of jac, offset or ratio
// depends on wavelength. Transforms of transforms are composed. A transform
// with chromatic geometry over an interpolated node deinterpolates it first.
func Transform(n *Node, jac spectral.WaveFunc[profile.Jacobian], offset spectral.WaveFunc[profile.Offset], ratio spectral.WaveFunc[float64]) (*Node, error) {
	return newTransform(n, &transform{jac: jac, offset: offset, ratio: ratio})
}

func newTransform(n *Node, t *transform) (*Node, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil node in Transform", ErrInvalidComposition)
	}
	if !t.jac.Chromatic() {
		if _, ok := t.jac.Value().Invert(); !ok {
			return nil, fmt.Errorf("%w: %+v", profile.ErrSingularTransform, t.jac.Value())
		}
	}
	if t.sed != nil && n.norm.HasSED() {
		return nil, fmt.Errorf("%w: SED flux ratio on a node that already has an SED", ErrInvalidComposition)
	}
	if n.interpolated && t.chromaticGeometry() {
		Logger().Warn("chromatic: deinterpolating for a wavelength-dependent transform", "node", n.key)
		n = n.Deinterpolated()
	}
	if n.kind == KindTransform {
		// At most one of the two carries an SED; the merged transform keeps it.
		sed := n.xf.sed
		if sed == nil {
			sed = t.sed
		}
		t = n.xf.then(t)
		t.sed = sed
		n = n.children[0]
	}

	var norm Normalization
	separable := n.separable && !t.chromaticGeometry() && !t.ratio.Chromatic()
	if t.sed != nil {
		norm = Spectral(t.sed).scaled(n.norm.scalar).scaled(t.ratio)
	} else {
		norm = n.norm.scaled(t.ratio)
	}
	out := &Node{
		kind:      KindTransform,
		separable: separable,
		norm:      norm,
		children:  []*Node{n},
		xf:        t,
	}
	out.inherit()
	return out, nil
}

// Deconvolve returns the deconvolution by n, which must not carry an SED.
func Deconvolve(n *Node) (*Node, error) {
	return newUnary(KindDeconvolution, n, spectral.Reciprocal)
}

// AutoConvolve returns n convolved with itself. n must not carry an SED.
func AutoConvolve(n *Node) (*Node, error) {
	return newUnary(KindAutoConvolution, n, spectral.Square)
}

// AutoCorrelate returns n correlated with itself. n must not carry an SED.
func AutoCorrelate(n *Node) (*Node, error) {
	return newUnary(KindAutoCorrelation, n, spectral.Square)
}

// FourierSqrt returns the profile whose autoconvolution is n. n must not
// carry an SED.
func FourierSqrt(n *Node) (*Node, error) {
	return newUnary(KindFourierSqrt, n, spectral.Sqrt)
}

func newUnary(kind Kind, n *Node, g func(spectral.WaveFunc[float64]) spectral.WaveFunc[float64]) (*Node, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil node in %s", ErrInvalidComposition, kind)
	}
	if n.norm.HasSED() {
		return nil, fmt.Errorf("%w: %s of a node with an SED", ErrInvalidComposition, kind)
	}
	out := &Node{
		kind:      kind,
		separable: n.separable,
		norm:      n.norm.mapScalar(g),
		children:  []*Node{n},
	}
	out.inherit()
	return out, nil
}

// inherit fills the knots, interpolation flag and key of a composite node
// from its children.
func (n *Node) inherit() {
	lists := make([][]float64, 0, len(n.children)+1)
	n.interpolated = false
	for _, c := range n.children {
		lists = append(lists, c.waves)
		n.interpolated = n.interpolated || c.interpolated
	}
	if n.xf != nil && n.xf.sed != nil {
		lists = append(lists, n.xf.sed.WaveList())
	}
	n.waves = spectral.MergeKnots(lists...)
	n.key = n.structuralKey()
}

func (n *Node) structuralKey() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(n.kind.String()))
	b.WriteByte('(')
	for i, c := range n.children {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(c.key)
	}
	if n.xf != nil {
		b.WriteByte('|')
		b.WriteString(n.xf.key())
	}
	b.WriteByte(')')
	return b.String()
}

// Deinterpolated returns n with every interpolated subtree replaced by the
// node it was built from.
func (n *Node) Deinterpolated() *Node {
	if !n.interpolated {
		return n
	}
	if n.kind == KindInterpolated {
		return n.grid.original
	}
	c := *n
	c.children = make([]*Node, len(n.children))
	for i, ch := range n.children {
		c.children[i] = ch.Deinterpolated()
	}
	c.inherit()
	return &c
}

// Kind returns the variant of n.
func (n *Node) Kind() Kind { return n.kind }

// Separable reports whether n factors into a fixed spatial profile times a
// function of wavelength.
func (n *Node) Separable() bool { return n.separable }

// Interpolated reports whether n or any descendant is interpolated.
func (n *Node) Interpolated() bool { return n.interpolated }

// WaveList returns the sorted wavelength knots of n. The slice must not be
// modified.
func (n *Node) WaveList() []float64 { return n.waves }

// Normalization returns the flux normalization of n.
func (n *Node) Normalization() Normalization { return n.norm }

// SED returns the SED of n, or nil if n is dimensionless.
func (n *Node) SED() *spectral.SED { return n.norm.sed }

// Children returns the operands of a composite node.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Profile returns the monochromatic profile of a leaf, or nil.
func (n *Node) Profile() profile.Profile { return n.prof }

// Key returns the structural identity of n, used for caching.
func (n *Node) Key() string { return n.key }

func (n *Node) String() string {
	switch n.kind {
	case KindLeaf:
		return fmt.Sprintf("Chromatic(%s, %s)", n.prof, n.norm)
	case KindTransform:
		s := fmt.Sprintf("Transform(%s, jac=%s, offset=%s, ratio=%s", n.children[0], n.xf.jac.Key(), n.xf.offset.Key(), n.xf.ratio.Key())
		if n.xf.sed != nil {
			s += ", sed=" + n.xf.sed.String()
		}
		return s + ")"
	case KindInterpolated:
		return fmt.Sprintf("Interpolated(%s, %d waves in [%g, %g])", n.grid.original,
			len(n.grid.waves), n.grid.waves[0], n.grid.waves[len(n.grid.waves)-1])
	}
	parts := make([]string, len(n.children))
	for i, c := range n.children {
		parts[i] = c.String()
	}
	return n.kind.String() + "(" + strings.Join(parts, ", ") + ")"
}
