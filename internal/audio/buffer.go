package audio

import (
	"fmt"
	"time"
)

// Buffer is a decoded audio asset: one float64 slice per channel, all equal
// length, samples nominally in [-1, 1]. Buffers are treated as immutable once
// decoded; processing stages allocate new buffers instead of mutating inputs.
type Buffer struct {
	SampleRate int
	Channels   [][]float64
}

// New allocates a silent buffer with the given shape.
func New(sampleRate, channels, frames int) *Buffer {
	ch := make([][]float64, channels)
	for i := range ch {
		ch[i] = make([]float64, frames)
	}
	return &Buffer{SampleRate: sampleRate, Channels: ch}
}

// Validate checks the structural invariants of the buffer.
func (b *Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", b.SampleRate)
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("buffer has no channels")
	}
	n := len(b.Channels[0])
	for i, ch := range b.Channels {
		if len(ch) != n {
			return fmt.Errorf("channel %d length %d, want %d", i, len(ch), n)
		}
	}
	return nil
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// NumFrames returns the per-channel sample count.
func (b *Buffer) NumFrames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playable length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.NumFrames()) / float64(b.SampleRate) * float64(time.Second))
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{SampleRate: b.SampleRate, Channels: make([][]float64, len(b.Channels))}
	for i, ch := range b.Channels {
		out.Channels[i] = make([]float64, len(ch))
		copy(out.Channels[i], ch)
	}
	return out
}

// Mono returns a single channel: channel 0 as-is for mono sources, the
// per-frame channel average otherwise. Analysis runs on this view.
func (b *Buffer) Mono() []float64 {
	if len(b.Channels) == 0 {
		return nil
	}
	if len(b.Channels) == 1 {
		return b.Channels[0]
	}
	n := b.NumFrames()
	mono := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for _, ch := range b.Channels {
			sum += ch[i]
		}
		mono[i] = sum / float64(len(b.Channels))
	}
	return mono
}
