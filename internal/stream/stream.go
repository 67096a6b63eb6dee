// Package stream delivers the studio's monitor mix to listeners over HTTP
// (chunked MP3) and WebRTC (Opus).
package stream

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
)
