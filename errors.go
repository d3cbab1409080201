package chromatic

import (
	"errors"

	"github.com/gogpu/chromatic/integ"
)

// Errors returned by node construction, evaluation and drawing. Details are
// attached by wrapping; test with errors.Is.
var (
	// ErrMissingSED is returned when drawing or integrating the flux of a
	// node that has no spectral energy distribution.
	ErrMissingSED = errors.New("chromatic: node has no SED")

	// ErrInvalidComposition is returned for algebraically undefined
	// combinations, such as convolving two SED-bearing nodes.
	ErrInvalidComposition = errors.New("chromatic: invalid composition")

	// ErrOutOfRange is returned when a wavelength lies outside the grid of an
	// interpolated node.
	ErrOutOfRange = errors.New("chromatic: wavelength outside interpolation grid")

	// ErrNoFiducialWavelength is returned when no candidate wavelength gives
	// a profile with nonzero flux.
	ErrNoFiducialWavelength = errors.New("chromatic: no wavelength with nonzero flux")

	// ErrUnknownQuadratureRule is returned for an unrecognized integration
	// rule name.
	ErrUnknownQuadratureRule = integ.ErrUnknownRule

	// ErrInvalidCacheSize is returned when resizing a cache below one entry.
	ErrInvalidCacheSize = errors.New("chromatic: cache size must be positive")
)
