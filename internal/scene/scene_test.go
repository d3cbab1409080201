package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/chromatic"
)

const galaxyScene = `
seds:
  disk: {type: powerlaw, wave0: 500, index: 1, blue: 300, red: 1100}
  bulge:
    type: tabulated
    waves: [400, 500, 600, 700]
    values: [2, 1.5, 1, 0.5]
    flux: 100
bandpass: {type: tophat, blue: 500, red: 600}
objects:
  disk:
    type: exponential
    scale_radius: 0.5
    sed: disk
    transform:
      shear: [0.1, 0]
  bulge: {type: gaussian, sigma: 0.3, sed: bulge}
  psf:
    type: atmosphere
    sigma: 0.4
    zenith_angle: 30
draw:
  convolve:
    - add:
        - ref: disk
        - ref: bulge
    - ref: psf
`

func TestParseAndBuild(t *testing.T) {
	s, err := Parse([]byte(galaxyScene))
	require.NoError(t, err)
	assert.Len(t, s.SEDs, 2)
	assert.Len(t, s.Objects, 3)

	b, err := s.Build()
	require.NoError(t, err)
	require.NotNil(t, b.Node)
	assert.Equal(t, chromatic.KindConvolution, b.Node.Kind())
	assert.False(t, b.Node.Separable())
	assert.Equal(t, 550.0, b.Bandpass.EffectiveWavelength())

	flux, err := b.SEDs["bulge"].CalculateFlux(b.Bandpass)
	require.NoError(t, err)
	assert.InDelta(t, 100, flux, 1e-9)

	kids := b.Node.Children()
	require.Len(t, kids, 2)
	assert.Equal(t, chromatic.KindSum, kids[0].Kind())
}

func TestBuildTransformsAndOperators(t *testing.T) {
	const doc = `
seds:
  flat: {type: constant, value: 2}
bandpass:
  type: tabulated
  waves: [500, 550, 600]
  values: [0.5, 1, 0.5]
objects:
  psf: {type: airy, lam_over_diam: 0.1, lam: 500}
draw:
  deconvolve:
    ref: psf
    transform:
      dilate: {reference: 500, index: 0.5}
  sed: flat
  transform:
    shift: [0.5, 0]
    scale_flux: {value: 2}
`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	b, err := s.Build()
	require.NoError(t, err)

	n := b.Node
	assert.Equal(t, chromatic.KindTransform, n.Kind())
	require.NotNil(t, n.SED())
	p, err := n.EvaluateAtWavelength(550)
	require.NoError(t, err)
	x, _ := p.Centroid()
	assert.InDelta(t, 0.5, x, 1e-12)
}

func TestBuildInterpolated(t *testing.T) {
	const doc = `
seds:
  flat: {type: constant, value: 1}
bandpass: {type: tophat, blue: 500, red: 600}
objects:
  psf: {type: airy, lam_over_diam: 0.2, lam: 500}
  gal: {type: gaussian, sigma: 0.5, sed: flat}
draw:
  convolve:
    - ref: gal
    - ref: psf
      interpolate:
        waves: [500, 550, 600]
        oversample: 1.5
`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)
	b, err := s.Build()
	require.NoError(t, err)

	kids := b.Node.Children()
	require.Len(t, kids, 2)
	psf := kids[1]
	if psf.Kind() != chromatic.KindInterpolated {
		psf = kids[0]
	}
	assert.Equal(t, chromatic.KindInterpolated, psf.Kind())
	assert.Equal(t, []float64{500, 550, 600}, psf.Grid())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing draw",
			doc:  "bandpass: {type: tophat, blue: 500, red: 600}\n",
			want: "no draw expression",
		},
		{
			name: "unknown ref",
			doc:  "draw: {ref: nope}\n",
			want: `unknown object "nope"`,
		},
		{
			name: "two operations",
			doc: `
objects:
  a: {type: gaussian, sigma: 1}
draw:
  ref: a
  sqrt: {ref: a}
`,
			want: "want exactly one operation, got 2",
		},
		{
			name: "unknown sed on object",
			doc: `
objects:
  a: {type: gaussian, sigma: 1, sed: missing}
draw: {ref: a}
`,
			want: `unknown sed "missing"`,
		},
		{
			name: "nested error path",
			doc: `
objects:
  a: {type: gaussian, sigma: 1}
draw:
  add:
    - ref: a
    - convolve: [{ref: a}, {ref: b}]
`,
			want: "draw.add[1].convolve[1]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.ErrorIs(t, err, ErrInvalidScene)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("draw: {ref: a}\nobjects: {a: {type: gaussian, sigma: 1, radius: 2}}\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidScene)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bandpass type", "bandpass: {type: gaussian, blue: 1, red: 2}\nobjects: {a: {type: gaussian, sigma: 1}}\ndraw: {ref: a}\n"},
		{"sed type", "seds: {s: {type: blackbody}}\nbandpass: {blue: 500, red: 600}\nobjects: {a: {type: gaussian, sigma: 1}}\ndraw: {ref: a}\n"},
		{"object type", "bandpass: {blue: 500, red: 600}\nobjects: {a: {type: sersic}}\ndraw: {ref: a}\n"},
		{"shear arity", "bandpass: {blue: 500, red: 600}\nobjects: {a: {type: gaussian, sigma: 1, transform: {shear: [0.1]}}}\ndraw: {ref: a}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			_, err = s.Build()
			require.ErrorIs(t, err, ErrInvalidScene)
		})
	}

	s, err := Parse([]byte("bandpass: {blue: 500, red: 600}\nobjects: {a: {type: gaussian, sigma: -1}}\ndraw: {ref: a}\n"))
	require.NoError(t, err)
	_, err = s.Build()
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), `object "a"`), err.Error())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(galaxyScene), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, s.Draw)
	assert.Len(t, s.Draw.Convolve, 2)

	out, err := s.Marshal()
	require.NoError(t, err)
	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, s.Objects, again.Objects)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
