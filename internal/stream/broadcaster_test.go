package stream

import (
	"context"
	"testing"
	"time"

	"github.com/wavescope/wavescope/internal/audio"
	"github.com/wavescope/wavescope/internal/playback"
)

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster()
	l1 := b.Subscribe()
	l2 := b.Subscribe()
	defer b.Unsubscribe(l1)
	defer b.Unsubscribe(l2)

	if b.ListenerCount() != 2 {
		t.Fatalf("ListenerCount = %d, want 2", b.ListenerCount())
	}

	source := make(chan []int16, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx, source)

	frame := []int16{1, 2, 3}
	source <- frame

	for i, l := range []*Listener{l1, l2} {
		select {
		case got := <-l.C:
			if len(got) != 3 || got[0] != 1 {
				t.Errorf("listener %d got %v, want %v", i, got, frame)
			}
		case <-time.After(time.Second):
			t.Fatalf("listener %d never received the frame", i)
		}
	}
}

func TestBroadcasterDropsForSlowListener(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()
	defer b.Unsubscribe(l)

	source := make(chan []int16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx, source)

	// Overfill the listener's buffer; Run must never block.
	for i := 0; i < 200; i++ {
		select {
		case source <- []int16{int16(i)}:
		case <-time.After(time.Second):
			t.Fatal("broadcast blocked on a slow listener")
		}
	}
}

func TestBroadcasterUnsubscribeClosesDone(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()
	b.Unsubscribe(l)

	select {
	case <-l.done:
	default:
		t.Error("done channel not closed on unsubscribe")
	}
	if b.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d after unsubscribe, want 0", b.ListenerCount())
	}
}

func TestPlayerEmitsSilenceWhileStopped(t *testing.T) {
	tr := playback.NewTransport()
	p := NewPlayer(tr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case frame := <-p.Frames():
		if len(frame) != FrameSamples {
			t.Fatalf("frame size = %d, want %d", len(frame), FrameSamples)
		}
		for _, s := range frame {
			if s != 0 {
				t.Fatal("stopped player emitted non-silence")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("no frame emitted")
	}
}

func TestPlayerEmitsBufferWhilePlaying(t *testing.T) {
	tr := playback.NewTransport()
	p := NewPlayer(tr)

	// Half a second of a loud constant signal at the stream rate.
	buf := audio.New(SampleRate, Channels, SampleRate/2)
	for c := range buf.Channels {
		for i := range buf.Channels[c] {
			buf.Channels[c][i] = 0.5
		}
	}
	p.SetBuffer(buf)
	tr.Play()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case frame := <-p.Frames():
			if frame[0] != 0 {
				return // audio flowing
			}
		case <-deadline:
			t.Fatal("player never emitted buffer audio")
		}
	}
}

func TestPlayerSetBufferUpdatesTransportLength(t *testing.T) {
	tr := playback.NewTransport()
	p := NewPlayer(tr)

	buf := audio.New(SampleRate, 1, SampleRate) // one second
	p.SetBuffer(buf)

	tr.Seek(time.Hour)
	if got := tr.Position(); got != time.Second {
		t.Errorf("seek clamped to %v, want 1s buffer length", got)
	}
}

func TestPlayerFrameAtZeroPadsTail(t *testing.T) {
	tr := playback.NewTransport()
	p := NewPlayer(tr)

	// One and a half frames of audio.
	buf := audio.New(SampleRate, Channels, FrameSize+FrameSize/2)
	for c := range buf.Channels {
		for i := range buf.Channels[c] {
			buf.Channels[c][i] = 1
		}
	}
	p.SetBuffer(buf)

	frame := p.frameAt(FrameDuration)
	if frame == nil {
		t.Fatal("tail frame missing")
	}
	if len(frame) != FrameSamples {
		t.Fatalf("tail frame size = %d, want %d", len(frame), FrameSamples)
	}
	if frame[0] == 0 {
		t.Error("tail frame head should carry audio")
	}
	if frame[len(frame)-1] != 0 {
		t.Error("tail frame end should be zero-padded")
	}
}
