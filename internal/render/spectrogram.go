package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Spectrogram renders STFT magnitude frames as a heatmap: time left to
// right, frequency bottom to top, brightness proportional to magnitude
// relative to the global maximum.
func Spectrogram(frames [][]float64, w, h int) (*image.RGBA, error) {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return nil, fmt.Errorf("no spectrogram frames")
	}

	var max float64
	for _, frame := range frames {
		for _, m := range frame {
			if m > max {
				max = m
			}
		}
	}
	if max == 0 {
		return nil, fmt.Errorf("all-zero spectrogram data")
	}

	bins := len(frames[0])
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		frame := frames[x*len(frames)/w]
		for y := 0; y < h; y++ {
			bin := (h - 1 - y) * bins / h
			v := frame[bin] / max
			img.SetRGBA(x, y, heatColor(v))
		}
	}
	return img, nil
}

// heatColor maps a normalized magnitude to a dark-blue-to-amber ramp.
func heatColor(v float64) color.RGBA {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return color.RGBA{
		R: uint8(20 + 235*v),
		G: uint8(22 + 160*v),
		B: uint8(40 + 60*(1-v)),
		A: 255,
	}
}

// EncodePNG renders an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
