package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wavescope/wavescope/internal/eq"
)

func TestUploadAndProcessFFT(t *testing.T) {
	var gotBands []eq.Band
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/fft" {
			t.Errorf("path = %s, want /api/fft", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file part missing: %v", err)
		}
		file.Close()
		if err := json.Unmarshal([]byte(r.FormValue("bands")), &gotBands); err != nil {
			t.Fatalf("bands field: %v", err)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q, want bearer token", auth)
		}

		json.NewEncoder(w).Encode(ProcessResult{
			FFTReal:    []float64{1, 2},
			FFTImag:    []float64{0, 0},
			SampleRate: 44100,
			FFTSize:    2048,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	bands := []eq.Band{{Low: 0, High: 5000, Gain: 1.5}}
	res, err := c.UploadAndProcessFFT(context.Background(), []byte("audio"), "clip.wav", bands)
	if err != nil {
		t.Fatal(err)
	}
	if res.SampleRate != 44100 || res.FFTSize != 2048 {
		t.Errorf("result shape = %d/%d, want 44100/2048", res.SampleRate, res.FFTSize)
	}
	if len(gotBands) != 1 || gotBands[0].Gain != 1.5 {
		t.Errorf("backend saw bands %+v, want the submitted list", gotBands)
	}
	if res.OutputAudioURL != "" {
		t.Error("absent output URL should decode as empty, not error")
	}
}

func TestProcessRejectsMismatchedCoefficients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ProcessResult{
			FFTReal: []float64{1, 2, 3},
			FFTImag: []float64{1},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.UpdateEqualizerGains(context.Background(), []byte("x"), "x.wav", nil); err == nil {
		t.Error("accepted mismatched coefficient arrays")
	}
}

func TestProcessSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "decode failure", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.UploadAndProcessFFT(context.Background(), []byte("x"), "x.wav", nil)
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
}

func TestSeparateInstrumentsPollsUntilDone(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/separate/instruments":
			w.WriteHeader(http.StatusAccepted)
		case r.URL.Path == "/api/separate/status/sess-1":
			n := polls.Add(1)
			status := separationStatus{Progress: float64(n) * 0.5}
			if n >= 2 {
				status.Done = true
				status.Progress = 1
				status.Files = map[string]string{"drums": "drums.wav", "vocals": "vocals.wav"}
			}
			json.NewEncoder(w).Encode(status)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var progress []float64
	c := NewClient(srv.URL, "")
	res, err := c.SeparateInstruments(context.Background(), []byte("audio"), "clip.wav", nil, "sess-1",
		5*time.Millisecond, func(p float64) { progress = append(progress, p) })
	if err != nil {
		t.Fatal(err)
	}
	if res.Files["drums"] != "drums.wav" {
		t.Errorf("files = %v, want drums stem", res.Files)
	}
	if len(progress) < 2 {
		t.Fatalf("progress reported %d times, want at least 2", len(progress))
	}
	if progress[len(progress)-1] != 1 {
		t.Errorf("final progress = %v, want 1", progress[len(progress)-1])
	}
}

func TestSeparateReportsBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/separate/voices" {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		json.NewEncoder(w).Encode(separationStatus{Error: "model crashed"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.SeparateVoices(context.Background(), []byte("audio"), "clip.wav", nil, "sess-2",
		5*time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected error when backend reports failure")
	}
}

func TestSeparateHonorsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/separate/instruments" {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		json.NewEncoder(w).Encode(separationStatus{Progress: 0.1}) // never done
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, "")
	_, err := c.SeparateInstruments(ctx, []byte("audio"), "clip.wav", nil, "sess-3",
		5*time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestStemURL(t *testing.T) {
	c := NewClient("http://dsp:5000/", "")
	want := "http://dsp:5000/api/separate/download/vocals.wav"
	if got := c.StemURL("vocals.wav"); got != want {
		t.Errorf("StemURL = %q, want %q", got, want)
	}
}
