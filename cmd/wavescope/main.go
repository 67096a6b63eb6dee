package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/wavescope/wavescope/internal/config"
	"github.com/wavescope/wavescope/internal/dsp"
	"github.com/wavescope/wavescope/internal/eq"
	"github.com/wavescope/wavescope/internal/gateway"
	"github.com/wavescope/wavescope/internal/playback"
	"github.com/wavescope/wavescope/internal/render"
	"github.com/wavescope/wavescope/internal/separation"
	"github.com/wavescope/wavescope/internal/stream"
	"github.com/wavescope/wavescope/internal/studio"
)

const maxUploadBytes = 64 << 20 // uploads above 64 MiB are refused

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DSP backend client
	client := gateway.NewClient(cfg.DSPAPIURL, cfg.DSPAPIKey)

	log.Println("wavescope starting up...")

	healthCtx, healthCancel := context.WithTimeout(ctx, 5*time.Minute)
	defer healthCancel()
	if err := client.WaitForHealthy(healthCtx); err != nil {
		log.Fatalf("DSP backend not available: %v", err)
	}

	// Playback transport, shared by the views and the monitor stream
	transport := playback.NewTransport()

	// Monitor stream: PCM frames fanned out to MP3/WebRTC listeners
	player := stream.NewPlayer(transport)
	go player.Run(ctx)

	broadcaster := stream.NewBroadcaster()
	go broadcaster.Run(ctx, player.Frames())

	// Separation workflow
	workflow := separation.NewWorkflow(client, cfg.PollInterval, nil)

	st, err := studio.New(client, studio.Options{
		Store:         eq.NewStore(cfg.BandsFile),
		DebounceDelay: cfg.DebounceDelay,
		FFTSize:       cfg.FFTSize,
		Monitor:       player,
		Separation:    workflow,
		Transport:     transport,
	})
	if err != nil {
		log.Fatalf("studio init: %v", err)
	}
	defer st.Close()

	webrtcHandler := stream.NewWebRTCHandler(broadcaster)

	mux := http.NewServeMux()

	// Audio monitor streams
	mux.Handle("/stream", stream.NewHTTPHandler(broadcaster))
	mux.Handle("/offer", webrtcHandler)

	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "invalid multipart upload", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			http.Error(w, "read upload failed", http.StatusBadRequest)
			return
		}
		if len(data) > maxUploadBytes {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}

		if err := st.LoadFile(r.Context(), header.Filename, data); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// Keep a copy on disk so the last upload survives a restart.
		if err := os.MkdirAll(cfg.DataDir, 0o755); err == nil {
			name := filepath.Join(cfg.DataDir, filepath.Base(header.Filename))
			if err := os.WriteFile(name, data, 0o644); err != nil {
				log.Printf("upload cache write failed: %v", err)
			}
		}

		writeJSON(w, st.Status())
	})

	mux.HandleFunc("/api/spectrum.png", func(w http.ResponseWriter, r *http.Request) {
		scale := render.ScaleLinear
		if r.URL.Query().Get("scale") == string(render.ScaleAudiogram) {
			scale = render.ScaleAudiogram
		}
		width, height := plotSize(r, 900, 360)

		input, output := st.Spectra()
		img := render.PlotSpectra(input, output, scale, width, height)
		png, err := render.EncodePNG(img)
		if err != nil {
			http.Error(w, "encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		w.Write(png)
	})

	mux.HandleFunc("/api/spectrogram.png", func(w http.ResponseWriter, r *http.Request) {
		src := studio.SourceInput
		if r.URL.Query().Get("which") == string(studio.SourceOutput) {
			src = studio.SourceOutput
		}
		width, height := plotSize(r, 900, 360)

		samples, _, err := st.Samples(src)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		frames, err := dsp.STFT(samples, cfg.FFTSize, cfg.FFTSize/2)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		img, err := render.Spectrogram(frames, width, height)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		png, err := render.EncodePNG(img)
		if err != nil {
			http.Error(w, "encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		w.Write(png)
	})

	mux.HandleFunc("/api/bands", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]any{
				"mode":  st.Equalizer().Mode(),
				"state": st.Equalizer().State(),
				"bands": st.Equalizer().Bands(),
			})
		case http.MethodPut:
			var bands []eq.Band
			if err := json.NewDecoder(r.Body).Decode(&bands); err != nil || len(bands) == 0 {
				http.Error(w, "invalid band list", http.StatusBadRequest)
				return
			}
			if err := st.Equalizer().SetBands(bands); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, map[string]any{"ok": true, "bands": st.Equalizer().Bands()})
		default:
			http.Error(w, "GET or PUT required", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/bands/gain", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Band int     `json:"band"`
			Gain float64 `json:"gain"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := st.Equalizer().SetGain(req.Band, req.Gain); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "bands": st.Equalizer().Bands()})
	})

	mux.HandleFunc("/api/bands/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := st.Equalizer().Reset(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "bands": st.Equalizer().Bands()})
	})

	mux.HandleFunc("/api/mode", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Mode string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		mode, err := eq.ParseMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := st.Equalizer().SetMode(mode); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "mode": mode, "bands": st.Equalizer().Bands()})
	})

	mux.HandleFunc("/api/monitor", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Source string `json:"source"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := st.SetMonitorSource(studio.Source(req.Source)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "source": req.Source})
	})

	mux.HandleFunc("/api/separate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Kind string `json:"kind"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		kind := separation.Kind(req.Kind)
		if kind != separation.KindInstruments && kind != separation.KindVoices {
			http.Error(w, "kind must be instruments or voices", http.StatusBadRequest)
			return
		}
		// Detached from the request: separation outlives the HTTP call and
		// is observed via /api/separation.
		if err := st.Separate(ctx, kind); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(workflow.Status())
	})

	mux.HandleFunc("/api/separation", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, workflow.Status())
	})

	mux.HandleFunc("/api/stems/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/stems/")
		if id == "" {
			http.Error(w, "stem id required", http.StatusBadRequest)
			return
		}
		var req struct {
			Gain  *float64 `json:"gain"`
			Muted *bool    `json:"muted"`
			Solo  *bool    `json:"solo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		gain := -1.0 // negative means keep the current gain
		if req.Gain != nil {
			gain = *req.Gain
		}
		if err := st.UpdateStem(id, gain, req.Muted, req.Solo); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, workflow.Status())
	})

	mux.HandleFunc("/api/transport", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Action string   `json:"action"` // play | pause | stop | seek
			Time   *float64 `json:"time"`   // seconds, for seek
			Speed  *float64 `json:"speed"`
			Zoom   *float64 `json:"zoom"`
			Pan    *float64 `json:"pan"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		switch req.Action {
		case "play":
			transport.Play()
		case "pause":
			transport.Pause()
		case "stop":
			transport.Stop()
		case "seek":
			if req.Time == nil {
				http.Error(w, "seek needs a time", http.StatusBadRequest)
				return
			}
			transport.Seek(time.Duration(*req.Time * float64(time.Second)))
		case "":
			// view-only adjustment below
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
			return
		}

		if req.Speed != nil {
			transport.SetSpeed(*req.Speed)
		}
		if req.Zoom != nil {
			transport.SetZoom(*req.Zoom)
		}
		if req.Pan != nil {
			transport.SetPan(*req.Pan)
		}
		writeJSON(w, transport.Snapshot())
	})

	mux.HandleFunc("/api/output.wav", func(w http.ResponseWriter, r *http.Request) {
		data, err := st.OutputWAV()
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("Content-Disposition", `attachment; filename="wavescope-output.wav"`)
		w.Write(data)
	})

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		status := st.Status()
		writeJSON(w, map[string]any{
			"studio":           status,
			"http_listeners":   broadcaster.ListenerCount(),
			"webrtc_listeners": webrtcHandler.PeerCount(),
		})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("wavescope live on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(v)
}

// plotSize reads optional w/h query parameters with clamped defaults.
func plotSize(r *http.Request, defW, defH int) (int, int) {
	w, h := defW, defH
	if v := r.URL.Query().Get("w"); v != "" {
		fmt.Sscanf(v, "%d", &w)
	}
	if v := r.URL.Query().Get("h"); v != "" {
		fmt.Sscanf(v, "%d", &h)
	}
	if w < 100 {
		w = 100
	}
	if w > 4000 {
		w = 4000
	}
	if h < 100 {
		h = 100
	}
	if h > 2000 {
		h = 2000
	}
	return w, h
}
