package render

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/wavescope/wavescope/internal/dsp"
)

func TestAudiogramEdges(t *testing.T) {
	x, ok := AudiogramX(125)
	if !ok || x != 0 {
		t.Errorf("AudiogramX(125) = (%v, %v), want (0, true)", x, ok)
	}
	x, ok = AudiogramX(8000)
	if !ok || math.Abs(x-1) > 1e-12 {
		t.Errorf("AudiogramX(8000) = (%v, %v), want (1, true)", x, ok)
	}
}

func TestAudiogramExcludesOutOfBand(t *testing.T) {
	for _, f := range []float64{0, 50, 124.9, 8000.1, 24000} {
		if _, ok := AudiogramX(f); ok {
			t.Errorf("AudiogramX(%v) accepted out-of-band frequency", f)
		}
	}
}

func TestAudiogramMonotonic(t *testing.T) {
	prev := -1.0
	for f := 125.0; f <= 8000; f *= 1.1 {
		x, ok := AudiogramX(f)
		if !ok {
			t.Fatalf("AudiogramX(%v) rejected in-band frequency", f)
		}
		if x <= prev {
			t.Fatalf("AudiogramX not strictly increasing at %v Hz", f)
		}
		prev = x
	}
}

func TestAudiogramMidpointIsGeometricMean(t *testing.T) {
	// 1000 Hz = sqrt(125*8000) sits at the center of the log axis.
	x, ok := AudiogramX(1000)
	if !ok {
		t.Fatal("1000 Hz rejected")
	}
	if math.Abs(x-0.5) > 1e-9 {
		t.Errorf("AudiogramX(1000) = %v, want 0.5", x)
	}
}

func spectrum(mags []float64, sampleRate, fftSize int) *dsp.Spectrum {
	freqs := make([]float64, len(mags))
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}
	return &dsp.Spectrum{Frequencies: freqs, Magnitudes: mags, SampleRate: sampleRate, FFTSize: fftSize}
}

func TestPlotSpectraNoData(t *testing.T) {
	img := PlotSpectra(nil, nil, ScaleLinear, 320, 160)
	if img == nil {
		t.Fatal("placeholder image expected, got nil")
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 160 {
		t.Errorf("bounds = %v, want 320x160", img.Bounds())
	}
}

func TestPlotSpectraAllZeroSkipsTraces(t *testing.T) {
	in := spectrum([]float64{0, 0, 0, 0}, 8000, 8)
	img := PlotSpectra(in, nil, ScaleLinear, 320, 160)
	// Only background and axes may be painted; no trace color anywhere.
	for x := 0; x < 320; x++ {
		for y := 0; y < 160; y++ {
			if img.RGBAAt(x, y) == inputColor {
				t.Fatal("trace drawn for all-zero data")
			}
		}
	}
}

func TestPlotSpectraDrawsInput(t *testing.T) {
	mags := make([]float64, 64)
	for i := range mags {
		mags[i] = float64(i%7) + 1
	}
	img := PlotSpectra(spectrum(mags, 44100, 128), nil, ScaleLinear, 320, 160)
	if !containsColor(img, inputColor) {
		t.Error("input trace missing from linear plot")
	}
}

func TestPlotSpectraOverlaysOutput(t *testing.T) {
	in := spectrum([]float64{1, 2, 3, 4}, 44100, 8)
	out := spectrum([]float64{4, 3, 2, 1}, 44100, 8)
	img := PlotSpectra(in, out, ScaleLinear, 320, 160)
	if !containsColor(img, outputColor) {
		t.Error("output trace missing from overlay plot")
	}
}

func TestPlotSpectraAudiogram(t *testing.T) {
	// 1024-bin spectrum at 44.1kHz: plenty of bins inside 125-8000 Hz.
	mags := make([]float64, 1024)
	for i := range mags {
		mags[i] = 1
	}
	img := PlotSpectra(spectrum(mags, 44100, 2048), nil, ScaleAudiogram, 320, 160)
	if !containsColor(img, inputColor) {
		t.Error("audiogram trace missing")
	}
}

func containsColor(img *image.RGBA, c color.RGBA) bool {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if img.RGBAAt(x, y) == c {
				return true
			}
		}
	}
	return false
}

func TestSpectrogramShapeAndErrors(t *testing.T) {
	if _, err := Spectrogram(nil, 100, 50); err == nil {
		t.Error("accepted empty frames")
	}
	zero := [][]float64{{0, 0}, {0, 0}}
	if _, err := Spectrogram(zero, 100, 50); err == nil {
		t.Error("accepted all-zero frames")
	}

	frames := [][]float64{{0, 1, 0.5}, {0.2, 0.8, 0.1}}
	img, err := Spectrogram(frames, 64, 32)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("bounds = %v, want 64x32", img.Bounds())
	}
}

func TestEncodePNG(t *testing.T) {
	img := PlotSpectra(nil, nil, ScaleLinear, 64, 32)
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("output does not look like a PNG")
	}
}
