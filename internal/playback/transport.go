// Package playback holds the shared transport state that keeps the paired
// input/output views showing the same position.
package playback

import (
	"sync"
	"time"
)

// State is a snapshot of the transport.
type State struct {
	Playing bool    `json:"isPlaying"`
	Paused  bool    `json:"isPaused"`
	Time    float64 `json:"time"` // seconds
	Speed   float64 `json:"speed"`
	Zoom    float64 `json:"zoom"`
	Pan     float64 `json:"pan"`
}

// Transport is the single owner of playback position and view parameters.
// Both the input and output views read the same transport, so they can
// never drift apart.
type Transport struct {
	mu       sync.Mutex
	playing  bool
	paused   bool
	position time.Duration
	length   time.Duration
	speed    float64
	zoom     float64
	pan      float64
}

// NewTransport creates a stopped transport at unit speed and zoom.
func NewTransport() *Transport {
	return &Transport{speed: 1, zoom: 1}
}

// Snapshot returns the current state.
func (t *Transport) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		Playing: t.playing,
		Paused:  t.paused,
		Time:    t.position.Seconds(),
		Speed:   t.speed,
		Zoom:    t.zoom,
		Pan:     t.pan,
	}
}

// SetLength sets the playable length (on buffer change) and clamps the
// position into it.
func (t *Transport) SetLength(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.length = d
	if t.position > d {
		t.position = d
	}
}

// Play starts or resumes playback.
func (t *Transport) Play() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = true
	t.paused = false
}

// Pause freezes the position without losing it.
func (t *Transport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.playing {
		t.playing = false
		t.paused = true
	}
}

// Stop halts playback and rewinds.
func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	t.paused = false
	t.position = 0
}

// Seek jumps to an absolute position, clamped to [0, length].
func (t *Transport) Seek(pos time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if t.length > 0 && pos > t.length {
		pos = t.length
	}
	t.position = pos
}

// Position returns the current playhead.
func (t *Transport) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

// Playing reports whether the playhead should advance.
func (t *Transport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// Advance moves the playhead by a wall-clock step scaled by speed,
// stopping at the end. Returns false once the end is reached.
func (t *Transport) Advance(step time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.playing {
		return true
	}
	t.position += time.Duration(float64(step) * t.speed)
	if t.length > 0 && t.position >= t.length {
		t.position = t.length
		t.playing = false
		return false
	}
	return true
}

// SetSpeed sets the playback rate, clamped to [0.25, 4].
func (t *Transport) SetSpeed(s float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s < 0.25 {
		s = 0.25
	}
	if s > 4 {
		s = 4
	}
	t.speed = s
}

// SetZoom sets the waveform zoom factor, minimum 1.
func (t *Transport) SetZoom(z float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if z < 1 {
		z = 1
	}
	t.zoom = z
}

// SetPan sets the view offset in [0, 1].
func (t *Transport) SetPan(p float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	t.pan = p
}

// Speed returns the playback rate.
func (t *Transport) Speed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.speed
}
