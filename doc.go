// Package chromatic renders wavelength-dependent light profiles through a
// filter bandpass.
//
// # Overview
//
// A chromatic profile is an expression tree (Node) over monochromatic
// profiles from package profile. Leaves attach a spectral energy
// distribution (spectral.SED) or a dimensionless normalization to a profile;
// interior nodes add, convolve, deconvolve, autoconvolve, autocorrelate,
// take the Fourier square root of, or apply wavelength-dependent affine
// transformations to their children.
//
// Drawing integrates the profile times the bandpass throughput over
// wavelength. The engine avoids rendering once per wavelength wherever the
// algebra allows it:
//   - Separable nodes, a fixed spatial profile times a function of
//     wavelength, are rendered once and scaled by a spectral integral.
//   - Convolutions of sums are distributed into sums of convolutions.
//   - In a convolution, only the inseparable factors are integrated over
//     wavelength; the result is convolved with the separable factors once.
//   - Interpolate precomputes images on a wavelength grid so that later
//     integrations only blend stored images.
//
// # Quick Start
//
//	sed := spectral.PowerLawSED(500, 1, 300, 1100)
//	bp, _ := spectral.TopHat(500, 600, 1)
//	disk, _ := profile.NewExponential(0.5, 1)
//	gal := chromatic.New(disk, sed)
//
//	psf, _ := chromatic.Airy(0.1, 500)
//	obj, _ := chromatic.Convolve(gal, psf)
//	img, err := obj.DrawImage(bp, chromatic.WithScale(0.05))
//
// # Units
//
// Wavelengths are in nanometers. Profile coordinates are in arbitrary
// angular units, arcseconds where refraction is involved. Drawn pixel
// values are photons per pixel.
//
// # Caching
//
// Each Engine keeps two bounded LRU caches, one of spectral integrals and one
// of effective profiles. Node.DrawImage uses the process-wide Default engine.
package chromatic

// Version is the library version reported by chromdraw.
const Version = "0.1.0"
