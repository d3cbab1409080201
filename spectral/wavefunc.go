// Package spectral holds the wavelength-domain collaborators of chromatic
// rendering: wavelength functions, spectral energy distributions and
// bandpasses. Wavelengths are in nanometers throughout.
package spectral

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

var lastID atomic.Uint64

// nextID returns a process-unique identity. Identities are never reused, so
// they are safe to use in cache keys for the lifetime of the process.
func nextID() uint64 {
	return lastID.Add(1)
}

// WaveFunc is a value that is either constant or a function of wavelength.
//
// The zero value is the constant zero value of T. A WaveFunc is immutable and
// safe for concurrent use provided the wrapped function is.
type WaveFunc[T any] struct {
	fn  func(wave float64) T
	val T
	id  uint64
}

// Constant returns a wavelength-independent WaveFunc.
func Constant[T any](v T) WaveFunc[T] {
	return WaveFunc[T]{val: v}
}

// Varying wraps fn. Every call to Varying creates a new identity, even for
// the same fn.
func Varying[T any](fn func(wave float64) T) WaveFunc[T] {
	if fn == nil {
		var zero T
		return Constant(zero)
	}
	return WaveFunc[T]{fn: fn, id: nextID()}
}

// At evaluates the function at wave.
func (f WaveFunc[T]) At(wave float64) T {
	if f.fn == nil {
		return f.val
	}
	return f.fn(wave)
}

// Chromatic reports whether the value depends on wavelength.
func (f WaveFunc[T]) Chromatic() bool {
	return f.fn != nil
}

// Value returns the constant value. It is meaningless for chromatic functions.
func (f WaveFunc[T]) Value() T {
	return f.val
}

// Key returns a stable cache key: constants are keyed by value, varying
// functions by identity.
func (f WaveFunc[T]) Key() string {
	if f.fn != nil {
		return "fn#" + strconv.FormatUint(f.id, 10)
	}
	return fmt.Sprintf("%v", f.val)
}

// Map applies g to the value of f. The result is constant when f is.
func Map[T, U any](f WaveFunc[T], g func(T) U) WaveFunc[U] {
	if !f.Chromatic() {
		return Constant(g(f.val))
	}
	return Varying(func(w float64) U { return g(f.fn(w)) })
}

// Map2 combines a and b with g. The result is constant when both are.
func Map2[A, B, C any](a WaveFunc[A], b WaveFunc[B], g func(A, B) C) WaveFunc[C] {
	if !a.Chromatic() && !b.Chromatic() {
		return Constant(g(a.val, b.val))
	}
	return Varying(func(w float64) C { return g(a.At(w), b.At(w)) })
}

// Product returns a*b.
func Product(a, b WaveFunc[float64]) WaveFunc[float64] {
	if !a.Chromatic() && !b.Chromatic() {
		return Constant(a.val * b.val)
	}
	return Varying(func(w float64) float64 { return a.At(w) * b.At(w) })
}

// Sum returns a+b.
func Sum(a, b WaveFunc[float64]) WaveFunc[float64] {
	if !a.Chromatic() && !b.Chromatic() {
		return Constant(a.val + b.val)
	}
	return Varying(func(w float64) float64 { return a.At(w) + b.At(w) })
}

// Reciprocal returns 1/f.
func Reciprocal(f WaveFunc[float64]) WaveFunc[float64] {
	return Map(f, func(v float64) float64 { return 1 / v })
}

// Square returns f*f.
func Square(f WaveFunc[float64]) WaveFunc[float64] {
	return Map(f, func(v float64) float64 { return v * v })
}

// Sqrt returns the square root of f.
func Sqrt(f WaveFunc[float64]) WaveFunc[float64] {
	return Map(f, math.Sqrt)
}

// IsOne reports whether f is the constant 1.
func IsOne(f WaveFunc[float64]) bool {
	return !f.Chromatic() && f.val == 1
}
