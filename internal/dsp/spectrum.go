// Package dsp holds the studio's own frequency-domain code. The real FFT for
// the audio path lives in the DSP backend; what is computed here exists only
// to keep the plots alive when backend data is unavailable.
package dsp

import (
	"fmt"
	"math"
)

// Spectrum is a single-sided magnitude spectrum.
type Spectrum struct {
	Frequencies []float64 // Hz, strictly ascending
	Magnitudes  []float64 // non-negative, same length as Frequencies
	SampleRate  int
	FFTSize     int
}

// Clone returns a deep copy, so callers that normalize in place (the
// renderer) never touch the stored spectra.
func (s *Spectrum) Clone() *Spectrum {
	if s == nil {
		return nil
	}
	out := &Spectrum{
		Frequencies: make([]float64, len(s.Frequencies)),
		Magnitudes:  make([]float64, len(s.Magnitudes)),
		SampleRate:  s.SampleRate,
		FFTSize:     s.FFTSize,
	}
	copy(out.Frequencies, s.Frequencies)
	copy(out.Magnitudes, s.Magnitudes)
	return out
}

// BufferLength returns the number of usable bins (fftSize/2).
func (s *Spectrum) BufferLength() int {
	return s.FFTSize / 2
}

// IsZero reports whether every magnitude is zero (degenerate data the
// renderer must skip rather than normalize).
func (s *Spectrum) IsZero() bool {
	for _, m := range s.Magnitudes {
		if m != 0 {
			return false
		}
	}
	return true
}

// Analyze computes an approximate magnitude spectrum of the buffer with a
// direct DFT over a window of fftSize samples taken from the exact middle.
// O(fftSize^2); acceptable only because it runs once per buffer change on a
// window of at most a few thousand samples. Not a substitute for the
// backend's FFT.
func Analyze(samples []float64, sampleRate, fftSize int) (*Spectrum, error) {
	if fftSize <= 0 {
		return nil, fmt.Errorf("fft size must be positive, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to analyze")
	}

	start := 0
	if len(samples) > fftSize {
		start = (len(samples) - fftSize) / 2
	}
	avail := len(samples) - start
	if avail > fftSize {
		avail = fftSize
	}
	window := samples[start : start+avail]

	bins := fftSize / 2
	s := &Spectrum{
		Frequencies: make([]float64, bins),
		Magnitudes:  make([]float64, bins),
		SampleRate:  sampleRate,
		FFTSize:     fftSize,
	}

	for k := 0; k < bins; k++ {
		var re, im float64
		for n, x := range window {
			angle := -2 * math.Pi * float64(k) * float64(n) / float64(fftSize)
			re += x * math.Cos(angle)
			im += x * math.Sin(angle)
		}
		s.Magnitudes[k] = math.Sqrt(re*re+im*im) / float64(fftSize)
		s.Frequencies[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}

	return s, nil
}

// FromCoefficients builds a spectrum from backend-supplied real/imaginary
// coefficient arrays.
func FromCoefficients(re, im []float64, sampleRate, fftSize int) (*Spectrum, error) {
	if len(re) != len(im) {
		return nil, fmt.Errorf("coefficient length mismatch: %d real vs %d imag", len(re), len(im))
	}
	if len(re) == 0 {
		return nil, fmt.Errorf("empty coefficient arrays")
	}
	if sampleRate <= 0 || fftSize <= 0 {
		return nil, fmt.Errorf("invalid shape: sampleRate=%d fftSize=%d", sampleRate, fftSize)
	}

	bins := len(re)
	if half := fftSize / 2; bins > half && half > 0 {
		bins = half // backend may send the full mirror; only the first half is meaningful
	}

	s := &Spectrum{
		Frequencies: make([]float64, bins),
		Magnitudes:  make([]float64, bins),
		SampleRate:  sampleRate,
		FFTSize:     fftSize,
	}
	for k := 0; k < bins; k++ {
		s.Magnitudes[k] = math.Sqrt(re[k]*re[k] + im[k]*im[k])
		s.Frequencies[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}
	return s, nil
}

// NormalizePair scales one or two spectra by their shared maximum so overlaid
// curves share a vertical scale, clamping to [0, 1]. Returns false when the
// combined data is all zero, in which case nothing is modified.
func NormalizePair(a, b *Spectrum) bool {
	var max float64
	for _, s := range []*Spectrum{a, b} {
		if s == nil {
			continue
		}
		for _, m := range s.Magnitudes {
			if m > max {
				max = m
			}
		}
	}
	if max == 0 {
		return false
	}

	for _, s := range []*Spectrum{a, b} {
		if s == nil {
			continue
		}
		for i, m := range s.Magnitudes {
			v := m / max
			if v > 1 {
				v = 1
			}
			s.Magnitudes[i] = v
		}
	}
	return true
}
