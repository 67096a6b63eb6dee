package stream

import (
	"context"
	"sync"
	"time"

	"github.com/wavescope/wavescope/internal/audio"
	"github.com/wavescope/wavescope/internal/playback"
)

// Player turns the studio's active buffer into a steady cadence of 20ms PCM
// frames, following the shared transport for position, pause, and seek.
// When the transport is stopped it emits silence so listeners stay
// connected.
type Player struct {
	transport *playback.Transport

	mu     sync.RWMutex
	frames []int16 // active buffer, interleaved stereo at SampleRate

	frameCh chan []int16
}

// NewPlayer creates a player bound to the shared transport.
func NewPlayer(t *playback.Transport) *Player {
	return &Player{
		transport: t,
		frameCh:   make(chan []int16, 100),
	}
}

// Frames returns the channel of outgoing PCM frames.
func (p *Player) Frames() <-chan []int16 {
	return p.frameCh
}

// SetBuffer swaps the monitored buffer (nil clears it) and updates the
// transport length. The buffer is resampled once, here, not per frame.
func (p *Player) SetBuffer(b *audio.Buffer) {
	var frames []int16
	var length time.Duration
	if b != nil {
		frames = audio.Interleave16(b, SampleRate, Channels)
		length = b.Duration()
	}

	p.mu.Lock()
	p.frames = frames
	p.mu.Unlock()

	p.transport.SetLength(length)
}

// Run emits frames at real-time rate until ctx is cancelled.
func (p *Player) Run(ctx context.Context) {
	defer close(p.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	silence := make([]int16, FrameSamples)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame := silence
		if p.transport.Playing() {
			if f := p.frameAt(p.transport.Position()); f != nil {
				frame = f
			}
			p.transport.Advance(FrameDuration)
		}

		select {
		case p.frameCh <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// frameAt slices the 20ms frame covering the given position, zero-padding
// the final partial frame.
func (p *Player) frameAt(pos time.Duration) []int16 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.frames) == 0 {
		return nil
	}

	idx := int(pos / FrameDuration)
	start := idx * FrameSamples
	if start >= len(p.frames) {
		return nil
	}
	end := start + FrameSamples
	if end <= len(p.frames) {
		return p.frames[start:end]
	}

	frame := make([]int16, FrameSamples)
	copy(frame, p.frames[start:])
	return frame
}
