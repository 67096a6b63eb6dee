// Package render draws frequency-domain views as PNG-encodable images.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/wavescope/wavescope/internal/dsp"
)

// ScaleType selects the frequency-axis mapping.
type ScaleType string

const (
	// ScaleLinear maps bin index linearly across the plot width.
	ScaleLinear ScaleType = "linear"
	// ScaleAudiogram maps frequency logarithmically over the audiometric
	// band 125 Hz - 8 kHz, the layout of clinical hearing-test charts.
	ScaleAudiogram ScaleType = "audiogram"
)

// Audiogram axis bounds in Hz.
const (
	AudiogramLow  = 125.0
	AudiogramHigh = 8000.0
)

var (
	bgColor     = color.RGBA{16, 18, 24, 255}
	axisColor   = color.RGBA{70, 75, 90, 255}
	inputColor  = color.RGBA{86, 156, 255, 255}
	outputColor = color.RGBA{255, 138, 76, 255}
	textColor   = color.RGBA{170, 175, 190, 255}
)

// margin around the plot area, in pixels.
const margin = 24

// PlotSpectra renders the input spectrum, optionally overlaid with the
// output spectrum on a shared vertical scale. Both spectra are normalized
// in place. With no input data a placeholder image is returned; with
// all-zero magnitudes the traces are skipped and only the axes drawn.
func PlotSpectra(input, output *dsp.Spectrum, scale ScaleType, w, h int) *image.RGBA {
	img := newCanvas(w, h)

	if input == nil || len(input.Magnitudes) == 0 {
		drawLabel(img, w/2-80, h/2, "upload an audio file to see its spectrum")
		return img
	}

	drawAxes(img, w, h)

	if !dsp.NormalizePair(input, output) {
		log.Printf("render: all-zero magnitude data, skipping traces")
		return img
	}

	drawTrace(img, input, scale, w, h, inputColor)
	if output != nil && len(output.Magnitudes) > 0 {
		drawTrace(img, output, scale, w, h, outputColor)
	}

	return img
}

// AudiogramX maps a frequency to a horizontal position in [0, 1].
// Frequencies outside the audiometric band report ok=false and must be
// dropped from the trace, not clamped to an edge.
func AudiogramX(freq float64) (x float64, ok bool) {
	if freq < AudiogramLow || freq > AudiogramHigh {
		return 0, false
	}
	return math.Log10(freq/AudiogramLow) / math.Log10(AudiogramHigh/AudiogramLow), true
}

func newCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{bgColor}, image.Point{}, draw.Src)
	return img
}

func drawAxes(img *image.RGBA, w, h int) {
	for x := margin; x < w-margin; x++ {
		img.SetRGBA(x, h-margin, axisColor)
	}
	for y := margin; y <= h-margin; y++ {
		img.SetRGBA(margin, y, axisColor)
	}
}

// drawTrace plots one spectrum as a connected polyline.
func drawTrace(img *image.RGBA, s *dsp.Spectrum, scale ScaleType, w, h int, c color.RGBA) {
	plotW := w - 2*margin
	plotH := h - 2*margin

	prevX, prevY := -1, -1
	for k, mag := range s.Magnitudes {
		var fx float64
		switch scale {
		case ScaleAudiogram:
			x, ok := AudiogramX(s.Frequencies[k])
			if !ok {
				prevX, prevY = -1, -1
				continue
			}
			fx = x
		default:
			if len(s.Magnitudes) > 1 {
				fx = float64(k) / float64(len(s.Magnitudes)-1)
			}
		}

		if mag < 0 {
			mag = 0
		}
		if mag > 1 {
			mag = 1
		}

		px := margin + int(fx*float64(plotW-1))
		py := h - margin - int(mag*float64(plotH-1))
		if prevX >= 0 {
			drawLine(img, prevX, prevY, px, py, c)
		} else {
			img.SetRGBA(px, py, c)
		}
		prevX, prevY = px, py
	}
}

// drawLine rasterizes a segment with the integer Bresenham walk.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawLabel(img *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{textColor},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
