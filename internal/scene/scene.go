// Package scene reads YAML scene descriptions and builds the chromatic node
// tree and bandpass they describe.
//
// A scene names its SEDs and objects once and refers to them by name from the
// draw expression:
//
//	seds:
//	  disk: {type: powerlaw, wave0: 500, index: 1, blue: 300, red: 1100}
//	bandpass: {type: tophat, blue: 500, red: 600, throughput: 1}
//	objects:
//	  gal: {type: exponential, scale_radius: 0.5, sed: disk}
//	  psf: {type: airy, lam_over_diam: 0.1, lam: 500}
//	draw:
//	  convolve:
//	    - ref: gal
//	    - ref: psf
package scene

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// ErrInvalidScene is returned for scenes that decode but do not describe a
// drawable node.
var ErrInvalidScene = errors.New("scene: invalid scene")

// Scene is the decoded form of a scene file.
type Scene struct {
	SEDs     map[string]SEDSpec    `yaml:"seds"`
	Bandpass BandpassSpec          `yaml:"bandpass"`
	Objects  map[string]ObjectSpec `yaml:"objects"`
	Draw     *Expr                 `yaml:"draw"`
}

// SEDSpec describes a spectral energy distribution.
type SEDSpec struct {
	// Type is one of constant, powerlaw or tabulated.
	Type string `yaml:"type"`

	Value float64 `yaml:"value,omitempty"`

	Wave0 float64 `yaml:"wave0,omitempty"`
	Index float64 `yaml:"index,omitempty"`
	Blue  float64 `yaml:"blue,omitempty"`
	Red   float64 `yaml:"red,omitempty"`

	Waves  []float64 `yaml:"waves,omitempty"`
	Values []float64 `yaml:"values,omitempty"`

	// Flux, when set, renormalizes the SED to this photon flux through the
	// scene bandpass.
	Flux *float64 `yaml:"flux,omitempty"`
}

// BandpassSpec describes the filter.
type BandpassSpec struct {
	// Type is tophat or tabulated.
	Type       string    `yaml:"type"`
	Blue       float64   `yaml:"blue,omitempty"`
	Red        float64   `yaml:"red,omitempty"`
	Throughput float64   `yaml:"throughput,omitempty"`
	Waves      []float64 `yaml:"waves,omitempty"`
	Values     []float64 `yaml:"values,omitempty"`
}

// ObjectSpec describes a named leaf or PSF.
type ObjectSpec struct {
	// Type is gaussian, exponential, airy or atmosphere.
	Type string `yaml:"type"`

	Flux        *float64 `yaml:"flux,omitempty"`
	Sigma       float64  `yaml:"sigma,omitempty"`
	ScaleRadius float64  `yaml:"scale_radius,omitempty"`
	LamOverDiam float64  `yaml:"lam_over_diam,omitempty"`
	Lam         float64  `yaml:"lam,omitempty"`

	// Atmosphere parameters. Angles are in degrees; unset values take the
	// library defaults.
	BaseWavelength   float64  `yaml:"base_wavelength,omitempty"`
	Alpha            *float64 `yaml:"alpha,omitempty"`
	ZenithAngle      float64  `yaml:"zenith_angle,omitempty"`
	ParallacticAngle float64  `yaml:"parallactic_angle,omitempty"`

	SED       string         `yaml:"sed,omitempty"`
	Transform *TransformSpec `yaml:"transform,omitempty"`
}

// Chromatic is a scalar that may vary with wavelength as
// value * (w/reference)^index. Without a reference it is constant.
type Chromatic struct {
	Value     *float64 `yaml:"value,omitempty"`
	Reference float64  `yaml:"reference,omitempty"`
	Index     float64  `yaml:"index,omitempty"`
}

// TransformSpec lists the transformations applied to an object or
// expression, in the order dilate, expand, shear, rotate, shift, scale_flux.
type TransformSpec struct {
	Dilate    *Chromatic `yaml:"dilate,omitempty"`
	Expand    *Chromatic `yaml:"expand,omitempty"`
	Shear     []float64  `yaml:"shear,omitempty"`
	Rotate    float64    `yaml:"rotate,omitempty"`
	Shift     []float64  `yaml:"shift,omitempty"`
	ScaleFlux *Chromatic `yaml:"scale_flux,omitempty"`
}

// InterpolateSpec asks for the expression to be precomputed on a grid.
type InterpolateSpec struct {
	Waves      []float64 `yaml:"waves"`
	Oversample float64   `yaml:"oversample,omitempty"`
}

// Expr is one node of the draw expression. Exactly one of Ref, Add,
// Convolve, Deconvolve, AutoConvolve, AutoCorrelate and Sqrt is set;
// Transform, SED and Interpolate apply to its result in that order.
type Expr struct {
	Ref           string   `yaml:"ref,omitempty"`
	Add           []*Expr  `yaml:"add,omitempty"`
	Convolve      []*Expr  `yaml:"convolve,omitempty"`
	Deconvolve    *Expr    `yaml:"deconvolve,omitempty"`
	AutoConvolve  *Expr    `yaml:"autoconvolve,omitempty"`
	AutoCorrelate *Expr    `yaml:"autocorrelate,omitempty"`
	Sqrt          *Expr    `yaml:"sqrt,omitempty"`

	Transform   *TransformSpec   `yaml:"transform,omitempty"`
	SED         string           `yaml:"sed,omitempty"`
	Interpolate *InterpolateSpec `yaml:"interpolate,omitempty"`
}

// Load reads a scene file.
func Load(path string) (*Scene, error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open scene directory: %w", err)
	}
	defer func() {
		_ = root.Close()
	}()

	f, err := root.Open(filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open scene: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Decode(f)
}

// Decode reads a scene from r. Unknown fields are rejected.
func Decode(r io.Reader) (*Scene, error) {
	var s Scene
	if err := yaml.NewDecoder(r, yaml.Strict()).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode scene YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Parse decodes a scene from memory.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.UnmarshalWithOptions(data, &s, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to decode scene YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Marshal encodes the scene back to YAML.
func (s *Scene) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate checks references and the shape of the draw expression. Numeric
// parameters are checked when the scene is built.
func (s *Scene) Validate() error {
	if s.Draw == nil {
		return fmt.Errorf("%w: no draw expression", ErrInvalidScene)
	}
	for name, o := range s.Objects {
		if o.SED != "" {
			if _, ok := s.SEDs[o.SED]; !ok {
				return fmt.Errorf("%w: object %q uses unknown sed %q", ErrInvalidScene, name, o.SED)
			}
		}
	}
	return s.validateExpr(s.Draw, "draw")
}

func (s *Scene) validateExpr(e *Expr, path string) error {
	if e == nil {
		return fmt.Errorf("%w: %s: empty expression", ErrInvalidScene, path)
	}
	ops := 0
	for _, set := range []bool{
		e.Ref != "", e.Add != nil, e.Convolve != nil, e.Deconvolve != nil,
		e.AutoConvolve != nil, e.AutoCorrelate != nil, e.Sqrt != nil,
	} {
		if set {
			ops++
		}
	}
	if ops != 1 {
		return fmt.Errorf("%w: %s: want exactly one operation, got %d", ErrInvalidScene, path, ops)
	}
	if e.Ref != "" {
		if _, ok := s.Objects[e.Ref]; !ok {
			return fmt.Errorf("%w: %s: unknown object %q", ErrInvalidScene, path, e.Ref)
		}
	}
	if e.SED != "" {
		if _, ok := s.SEDs[e.SED]; !ok {
			return fmt.Errorf("%w: %s: unknown sed %q", ErrInvalidScene, path, e.SED)
		}
	}
	for i, c := range e.Add {
		if err := s.validateExpr(c, fmt.Sprintf("%s.add[%d]", path, i)); err != nil {
			return err
		}
	}
	for i, c := range e.Convolve {
		if err := s.validateExpr(c, fmt.Sprintf("%s.convolve[%d]", path, i)); err != nil {
			return err
		}
	}
	for name, c := range map[string]*Expr{
		"deconvolve":    e.Deconvolve,
		"autoconvolve":  e.AutoConvolve,
		"autocorrelate": e.AutoCorrelate,
		"sqrt":          e.Sqrt,
	} {
		if c == nil {
			continue
		}
		if err := s.validateExpr(c, path+"."+name); err != nil {
			return err
		}
	}
	return nil
}
