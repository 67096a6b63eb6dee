package dsp

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// STFT computes a short-time Fourier transform for the spectrogram view:
// Hann-windowed frames of windowSize samples every hop samples, each reduced
// to single-sided magnitudes. Rows are time, columns are frequency bins.
func STFT(samples []float64, windowSize, hop int) ([][]float64, error) {
	if windowSize <= 0 || hop <= 0 {
		return nil, fmt.Errorf("invalid stft shape: window=%d hop=%d", windowSize, hop)
	}
	if len(samples) < windowSize {
		return nil, fmt.Errorf("need at least %d samples, got %d", windowSize, len(samples))
	}

	fft := fourier.NewFFT(windowSize)
	numFrames := 1 + (len(samples)-windowSize)/hop
	frames := make([][]float64, numFrames)

	buf := make([]float64, windowSize)
	for i := 0; i < numFrames; i++ {
		copy(buf, samples[i*hop:i*hop+windowSize])
		window.Hann(buf)

		coeffs := fft.Coefficients(nil, buf)
		mags := make([]float64, len(coeffs))
		for k, c := range coeffs {
			mags[k] = cmplx.Abs(c) / float64(windowSize)
		}
		frames[i] = mags
	}

	return frames, nil
}
