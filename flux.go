package chromatic

import (
	"errors"

	"github.com/gogpu/chromatic/spectral"
)

// CalculateFlux returns the photon flux of n through bp.
func (n *Node) CalculateFlux(bp *spectral.Bandpass) (float64, error) {
	if !n.norm.HasSED() {
		return 0, ErrMissingSED
	}
	blue, red := bp.BlueLimit(), bp.RedLimit()
	knots := spectral.ClipKnots(spectral.MergeKnots(n.waves, bp.WaveList()), blue, red)

	if n.separable {
		fid, w0, err := fiducial(n, bp)
		if errors.Is(err, ErrNoFiducialWavelength) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		mult, err := spectral.Integrate(func(w float64) float64 {
			return n.norm.At(w) * bp.Evaluate(w)
		}, knots, blue, red)
		if err != nil {
			return 0, err
		}
		return fid.Flux() / n.norm.At(w0) * mult, nil
	}

	var evalErr error
	flux, err := spectral.Integrate(func(w float64) float64 {
		t := bp.Evaluate(w)
		if t == 0 || evalErr != nil {
			return 0
		}
		p, err := n.EvaluateAtWavelength(w)
		if err != nil {
			evalErr = err
			return 0
		}
		return p.Flux() * t
	}, knots, blue, red)
	if evalErr != nil {
		return 0, evalErr
	}
	return flux, err
}

// Centroid returns the flux-weighted centroid of n integrated through bp.
func (n *Node) Centroid(bp *spectral.Bandpass) (x, y float64, err error) {
	if !n.norm.HasSED() {
		return 0, 0, ErrMissingSED
	}
	if n.separable {
		fid, _, err := fiducial(n, bp)
		if err != nil {
			return 0, 0, err
		}
		x, y = fid.Centroid()
		return x, y, nil
	}

	blue, red := bp.BlueLimit(), bp.RedLimit()
	knots := spectral.ClipKnots(spectral.MergeKnots(n.waves, bp.WaveList()), blue, red)
	var evalErr error
	moment := func(which int) (float64, error) {
		return spectral.Integrate(func(w float64) float64 {
			t := bp.Evaluate(w)
			if t == 0 || evalErr != nil {
				return 0
			}
			p, err := n.EvaluateAtWavelength(w)
			if err != nil {
				evalErr = err
				return 0
			}
			v := p.Flux() * t
			cx, cy := p.Centroid()
			switch which {
			case 1:
				v *= cx
			case 2:
				v *= cy
			}
			return v
		}, knots, blue, red)
	}
	var m [3]float64
	for i := range m {
		if m[i], err = moment(i); err != nil {
			return 0, 0, err
		}
		if evalErr != nil {
			return 0, 0, evalErr
		}
	}
	if m[0] == 0 {
		return 0, 0, ErrNoFiducialWavelength
	}
	return m[1] / m[0], m[2] / m[0], nil
}
