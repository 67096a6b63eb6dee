package playback

import (
	"testing"
	"time"
)

func TestTransportInitialState(t *testing.T) {
	tr := NewTransport()
	s := tr.Snapshot()
	if s.Playing || s.Paused {
		t.Error("new transport should be stopped")
	}
	if s.Speed != 1 || s.Zoom != 1 {
		t.Errorf("speed/zoom = %v/%v, want 1/1", s.Speed, s.Zoom)
	}
}

func TestPlayPauseKeepsPosition(t *testing.T) {
	tr := NewTransport()
	tr.SetLength(10 * time.Second)
	tr.Play()
	tr.Seek(3 * time.Second)
	tr.Pause()

	s := tr.Snapshot()
	if s.Playing {
		t.Error("paused transport still playing")
	}
	if !s.Paused {
		t.Error("pause flag not set")
	}
	if s.Time != 3 {
		t.Errorf("position = %v, want 3s", s.Time)
	}
}

func TestStopRewinds(t *testing.T) {
	tr := NewTransport()
	tr.SetLength(10 * time.Second)
	tr.Play()
	tr.Seek(5 * time.Second)
	tr.Stop()
	if got := tr.Position(); got != 0 {
		t.Errorf("position after stop = %v, want 0", got)
	}
}

func TestSeekClamps(t *testing.T) {
	tr := NewTransport()
	tr.SetLength(4 * time.Second)

	tr.Seek(-time.Second)
	if tr.Position() != 0 {
		t.Errorf("negative seek = %v, want 0", tr.Position())
	}
	tr.Seek(time.Minute)
	if tr.Position() != 4*time.Second {
		t.Errorf("overshoot seek = %v, want 4s", tr.Position())
	}
}

func TestAdvanceScalesBySpeed(t *testing.T) {
	tr := NewTransport()
	tr.SetLength(time.Minute)
	tr.SetSpeed(2)
	tr.Play()

	tr.Advance(time.Second)
	if tr.Position() != 2*time.Second {
		t.Errorf("position = %v, want 2s at double speed", tr.Position())
	}
}

func TestAdvanceStopsAtEnd(t *testing.T) {
	tr := NewTransport()
	tr.SetLength(time.Second)
	tr.Play()

	if tr.Advance(2 * time.Second) {
		t.Error("Advance past end should report false")
	}
	if tr.Playing() {
		t.Error("transport still playing past end")
	}
	if tr.Position() != time.Second {
		t.Errorf("position = %v, want clamped to length", tr.Position())
	}
}

func TestAdvanceWhileStoppedIsNoop(t *testing.T) {
	tr := NewTransport()
	tr.SetLength(time.Minute)
	tr.Advance(time.Second)
	if tr.Position() != 0 {
		t.Error("stopped transport advanced")
	}
}

func TestSpeedZoomPanClamps(t *testing.T) {
	tr := NewTransport()

	tr.SetSpeed(100)
	if tr.Speed() != 4 {
		t.Errorf("speed = %v, want clamped 4", tr.Speed())
	}
	tr.SetSpeed(0)
	if tr.Speed() != 0.25 {
		t.Errorf("speed = %v, want clamped 0.25", tr.Speed())
	}

	tr.SetZoom(0.1)
	tr.SetPan(2)
	s := tr.Snapshot()
	if s.Zoom != 1 {
		t.Errorf("zoom = %v, want clamped 1", s.Zoom)
	}
	if s.Pan != 1 {
		t.Errorf("pan = %v, want clamped 1", s.Pan)
	}
}

func TestSetLengthClampsPosition(t *testing.T) {
	tr := NewTransport()
	tr.SetLength(10 * time.Second)
	tr.Seek(8 * time.Second)
	tr.SetLength(5 * time.Second)
	if tr.Position() != 5*time.Second {
		t.Errorf("position = %v, want clamped to new length", tr.Position())
	}
}
