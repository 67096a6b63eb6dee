package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// fallbackRate is what ffmpeg-decoded (non-WAV) uploads are resampled to.
const fallbackRate = 44100

// DecodeWAV parses a RIFF/WAVE payload into a Buffer, splitting interleaved
// PCM into per-channel float slices scaled to [-1, 1].
func DecodeWAV(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("decode wav: not a valid RIFF/WAVE file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("decode wav: missing format chunk")
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int(1) << (bitDepth - 1))

	out := New(buf.Format.SampleRate, channels, frames)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out.Channels[c][i] = float64(buf.Data[i*channels+c]) / scale
		}
	}
	return out, nil
}

// Decode turns an uploaded file into a Buffer. WAV payloads are parsed
// directly; everything else is shelled through ffmpeg to interleaved s16le
// stereo at 44.1kHz, matching whatever codecs the local ffmpeg build carries.
func Decode(name string, data []byte) (*Buffer, error) {
	if isWav(name, data) {
		return DecodeWAV(data)
	}
	return decodeFFmpeg(data)
}

func isWav(name string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(name), ".wav") {
		return true
	}
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// decodeFFmpeg pipes the payload through ffmpeg to raw PCM.
func decodeFFmpeg(data []byte) (*Buffer, error) {
	cmd := exec.Command("ffmpeg",
		"-i", "pipe:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(fallbackRate),
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	// Ensure even byte count for int16 alignment
	if len(out)%2 != 0 {
		out = out[:len(out)-1]
	}

	const channels = 2
	frames := len(out) / 2 / channels
	buf := New(fallbackRate, channels, frames)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			s := int16(binary.LittleEndian.Uint16(out[(i*channels+c)*2:]))
			buf.Channels[c][i] = float64(s) / 32768.0
		}
	}
	return buf, nil
}

// FetchURL downloads a remote audio resource and decodes it.
func FetchURL(ctx context.Context, url string) (*Buffer, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return Decode(filepath.Base(url), data)
}
