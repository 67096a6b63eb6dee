package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Interleave16 converts the buffer to interleaved int16 at the target rate
// and channel count, linearly interpolating between source frames. Samples
// outside [-1, 1] are clipped here, at the edge of the float pipeline.
func Interleave16(b *Buffer, targetRate, targetChannels int) []int16 {
	if b == nil || b.NumFrames() == 0 || targetRate <= 0 || targetChannels <= 0 {
		return nil
	}

	srcFrames := b.NumFrames()
	ratio := float64(b.SampleRate) / float64(targetRate)
	dstFrames := int(float64(srcFrames) / ratio)
	if dstFrames == 0 {
		return nil
	}

	out := make([]int16, dstFrames*targetChannels)
	for i := 0; i < dstFrames; i++ {
		pos := float64(i) * ratio
		i0 := int(pos)
		i1 := i0 + 1
		if i1 >= srcFrames {
			i1 = srcFrames - 1
		}
		frac := pos - float64(i0)

		for c := 0; c < targetChannels; c++ {
			src := b.Channels[c%len(b.Channels)]
			v := src[i0]*(1-frac) + src[i1]*frac
			out[i*targetChannels+c] = clip16(v * 32767)
		}
	}
	return out
}

func clip16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// EncodeWAV writes the buffer as a 16-bit PCM WAV file.
func EncodeWAV(b *Buffer, w io.WriteSeeker) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}

	channels := b.NumChannels()
	frames := b.NumFrames()
	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			data[i*channels+c] = int(clip16(b.Channels[c][i] * 32767))
		}
	}

	enc := wav.NewEncoder(w, b.SampleRate, 16, channels, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: channels, SampleRate: b.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return enc.Close()
}

// EncodeWAVBytes renders the buffer to an in-memory WAV payload.
func EncodeWAVBytes(b *Buffer) ([]byte, error) {
	var ws writeSeekBuffer
	if err := EncodeWAV(b, &ws); err != nil {
		return nil, err
	}
	return ws.buf.Bytes(), nil
}

// writeSeekBuffer is the minimal in-memory io.WriteSeeker the wav encoder
// needs to backfill chunk sizes.
type writeSeekBuffer struct {
	buf bytes.Buffer
	pos int
}

func (w *writeSeekBuffer) Write(p []byte) (int, error) {
	if w.pos < w.buf.Len() {
		n := copy(w.buf.Bytes()[w.pos:], p)
		if n < len(p) {
			w.buf.Write(p[n:])
		}
	} else {
		w.buf.Write(p)
	}
	w.pos += len(p)
	return len(p), nil
}

func (w *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int
	switch whence {
	case io.SeekStart:
		abs = int(offset)
	case io.SeekCurrent:
		abs = w.pos + int(offset)
	case io.SeekEnd:
		abs = w.buf.Len() + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative seek position")
	}
	w.pos = abs
	return int64(abs), nil
}
