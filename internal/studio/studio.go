// Package studio is the single owner of application state: the loaded
// audio, its spectra, the equalizer, the separation workflow, and the
// playback transport. Every mutation flows through a Studio method; the
// HTTP layer and background goroutines never touch the fields directly.
package studio

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wavescope/wavescope/internal/audio"
	"github.com/wavescope/wavescope/internal/dsp"
	"github.com/wavescope/wavescope/internal/eq"
	"github.com/wavescope/wavescope/internal/gateway"
	"github.com/wavescope/wavescope/internal/playback"
	"github.com/wavescope/wavescope/internal/separation"
)

// Processor is the slice of the gateway the studio needs for FFT and
// re-equalization; narrowed for testability.
type Processor interface {
	UploadAndProcessFFT(ctx context.Context, file []byte, name string, bands []eq.Band) (*gateway.ProcessResult, error)
	UpdateEqualizerGains(ctx context.Context, file []byte, name string, bands []eq.Band) (*gateway.ProcessResult, error)
}

// Monitor receives the buffer the listener should hear. Implemented by
// stream.Player; nil disables monitoring.
type Monitor interface {
	SetBuffer(*audio.Buffer)
}

// Source selects which buffer the monitor plays.
type Source string

const (
	SourceInput  Source = "input"
	SourceOutput Source = "output"
)

// Options configures a Studio.
type Options struct {
	Store          *eq.Store
	DebounceDelay  time.Duration
	FFTSize        int
	RequestTimeout time.Duration        // per backend call from the debounce path
	Fetch          separation.FetchFunc // nil -> audio.FetchURL
	Monitor        Monitor              // nil -> no monitor stream
	Separation     *separation.Workflow // required for separation endpoints
	Transport      *playback.Transport  // required
}

// Studio holds all mutable state behind one mutex. There is one logical
// writer: handler goroutines serialize through these methods.
type Studio struct {
	proc      Processor
	fetch     separation.FetchFunc
	monitor   Monitor
	sep       *separation.Workflow
	transport *playback.Transport
	eqc       *eq.Controller

	fftSize    int
	reqTimeout time.Duration

	mu            sync.Mutex
	fileName      string
	fileBytes     []byte
	input         *audio.Buffer
	output        *audio.Buffer
	inputSpec     *dsp.Spectrum
	outputSpec    *dsp.Spectrum
	specSource    string // "backend" or "local"
	monitorSource Source
	loadingAudio  bool
	processingEQ  bool
}

// New wires a studio. The equalizer controller is created here so its
// debounced apply path lands back in the studio.
func New(proc Processor, opts Options) (*Studio, error) {
	s := &Studio{
		proc:          proc,
		fetch:         opts.Fetch,
		monitor:       opts.Monitor,
		sep:           opts.Separation,
		transport:     opts.Transport,
		fftSize:       opts.FFTSize,
		reqTimeout:    opts.RequestTimeout,
		monitorSource: SourceOutput,
	}
	if s.fetch == nil {
		s.fetch = audio.FetchURL
	}
	if s.fftSize <= 0 {
		s.fftSize = 2048
	}
	if s.reqTimeout <= 0 {
		s.reqTimeout = 2 * time.Minute
	}

	ctrl, err := eq.NewController(opts.Store, opts.DebounceDelay, s.applyBands)
	if err != nil {
		return nil, err
	}
	s.eqc = ctrl
	return s, nil
}

// Equalizer exposes the band controller for the HTTP layer.
func (s *Studio) Equalizer() *eq.Controller {
	return s.eqc
}

// Separation exposes the workflow for the HTTP layer.
func (s *Studio) Separation() *separation.Workflow {
	return s.sep
}

// Transport exposes the shared playback transport.
func (s *Studio) Transport() *playback.Transport {
	return s.transport
}

// Close tears down the debounce timer.
func (s *Studio) Close() {
	s.eqc.Close()
}

// LoadFile decodes an upload, resets equalizer and separation state, and
// requests the initial spectrum from the backend. A decode failure aborts
// the upload with no state change. A backend failure does not lose the
// file: the spectrum falls back to the local visualization DFT.
func (s *Studio) LoadFile(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	if s.loadingAudio {
		s.mu.Unlock()
		return fmt.Errorf("another upload is still loading")
	}
	s.loadingAudio = true
	s.mu.Unlock()
	defer s.setLoading(false)

	buf, err := audio.Decode(name, data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	// A new file always starts from unity gains and factory bands.
	if err := s.eqc.ResetForUpload(); err != nil {
		return err
	}
	if s.sep != nil {
		s.sep.Reset()
	}

	var inputSpec *dsp.Spectrum
	source := "backend"
	res, err := s.proc.UploadAndProcessFFT(ctx, data, name, nil)
	if err == nil && len(res.FFTReal) > 0 {
		inputSpec, err = dsp.FromCoefficients(res.FFTReal, res.FFTImag, res.SampleRate, res.FFTSize)
	}
	if err != nil || inputSpec == nil {
		if err != nil {
			log.Printf("studio: backend FFT unavailable (%v), using local approximation", err)
		}
		inputSpec, err = dsp.Analyze(buf.Mono(), buf.SampleRate, s.fftSize)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", name, err)
		}
		source = "local"
	}

	s.mu.Lock()
	s.fileName = name
	s.fileBytes = data
	s.input = buf
	s.output = buf // flat equalizer: output equals input
	s.inputSpec = inputSpec
	s.outputSpec = nil
	s.specSource = source
	s.mu.Unlock()

	s.transport.Stop()
	s.refreshMonitor()

	log.Printf("studio: loaded %s (%d ch, %d Hz, %s, spectrum: %s)",
		name, buf.NumChannels(), buf.SampleRate, buf.Duration().Round(time.Millisecond), source)
	return nil
}

// applyBands is the equalizer controller's debounced apply path: one
// backend call carrying the settled band list.
func (s *Studio) applyBands(bands []eq.Band) error {
	s.mu.Lock()
	if len(s.fileBytes) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no audio file loaded")
	}
	file, name := s.fileBytes, s.fileName
	s.processingEQ = true
	s.mu.Unlock()
	defer s.setProcessing(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.reqTimeout)
	defer cancel()

	res, err := s.proc.UpdateEqualizerGains(ctx, file, name, bands)
	if err != nil {
		// Previously displayed audio and spectra stay as they were.
		return err
	}

	var output *audio.Buffer
	if res.OutputAudioURL == "" {
		// No gain differs from unity: output resets to the input rather
		// than going stale.
		s.mu.Lock()
		output = s.input
		s.mu.Unlock()
	} else {
		output, err = s.fetch(ctx, res.OutputAudioURL)
		if err != nil {
			return fmt.Errorf("fetch processed audio: %w", err)
		}
	}

	inputSpec, outputSpec, err := spectraFromResult(res)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.output = output
	if inputSpec != nil {
		s.inputSpec = inputSpec
	}
	s.outputSpec = outputSpec
	s.specSource = "backend"
	s.mu.Unlock()

	s.refreshMonitor()
	return nil
}

// spectraFromResult decodes the original/processed coefficient pairs.
func spectraFromResult(res *gateway.ProcessResult) (input, output *dsp.Spectrum, err error) {
	if len(res.OriginalFFTReal) > 0 {
		input, err = dsp.FromCoefficients(res.OriginalFFTReal, res.OriginalFFTImag, res.SampleRate, res.FFTSize)
		if err != nil {
			return nil, nil, fmt.Errorf("original spectrum: %w", err)
		}
	}
	if len(res.FFTReal) > 0 {
		output, err = dsp.FromCoefficients(res.FFTReal, res.FFTImag, res.SampleRate, res.FFTSize)
		if err != nil {
			return nil, nil, fmt.Errorf("processed spectrum: %w", err)
		}
	}
	return input, output, nil
}

// Separate launches a separation run in the background. Progress and
// completion are observed via Separation().Status().
func (s *Studio) Separate(ctx context.Context, kind separation.Kind) error {
	if s.sep == nil {
		return fmt.Errorf("separation not configured")
	}

	s.mu.Lock()
	if len(s.fileBytes) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no audio file loaded")
	}
	file, name := s.fileBytes, s.fileName
	s.mu.Unlock()

	gains := s.eqc.Bands()

	go func() {
		if err := s.sep.Run(ctx, kind, file, name, gains); err != nil {
			log.Printf("studio: separation failed: %v", err)
			return
		}
		if out := s.sep.Output(); out != nil {
			s.setOutput(out)
		}
	}()
	return nil
}

// UpdateStem adjusts one separated stem and swaps the remixed output in.
func (s *Studio) UpdateStem(id string, gain float64, muted, solo *bool) error {
	if s.sep == nil {
		return fmt.Errorf("separation not configured")
	}
	out, err := s.sep.UpdateTrack(id, gain, muted, solo)
	if err != nil {
		return err
	}
	s.setOutput(out)
	return nil
}

// SetMonitorSource switches the monitor between the input and output
// buffers.
func (s *Studio) SetMonitorSource(src Source) error {
	if src != SourceInput && src != SourceOutput {
		return fmt.Errorf("unknown monitor source %q", src)
	}
	s.mu.Lock()
	s.monitorSource = src
	s.mu.Unlock()
	s.refreshMonitor()
	return nil
}

// Spectra returns deep copies of the stored spectra for rendering.
func (s *Studio) Spectra() (input, output *dsp.Spectrum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputSpec.Clone(), s.outputSpec.Clone()
}

// Samples returns the mono samples and sample rate of the chosen buffer
// for spectrogram rendering.
func (s *Studio) Samples(src Source) ([]float64, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf *audio.Buffer
	switch src {
	case SourceInput:
		buf = s.input
	case SourceOutput:
		buf = s.output
	default:
		return nil, 0, fmt.Errorf("unknown source %q", src)
	}
	if buf == nil {
		return nil, 0, fmt.Errorf("no %s audio loaded", src)
	}
	return buf.Mono(), buf.SampleRate, nil
}

// OutputWAV encodes the current output buffer for download.
func (s *Studio) OutputWAV() ([]byte, error) {
	s.mu.Lock()
	out := s.output
	s.mu.Unlock()
	if out == nil {
		return nil, fmt.Errorf("no output audio")
	}
	return audio.EncodeWAVBytes(out)
}

// Status is the top-level snapshot for the API.
type Status struct {
	FileName              string            `json:"fileName,omitempty"`
	Loaded                bool              `json:"loaded"`
	SampleRate            int               `json:"sampleRate,omitempty"`
	Channels              int               `json:"channels,omitempty"`
	DurationSeconds       float64           `json:"duration,omitempty"`
	SpectrumSource        string            `json:"spectrumSource,omitempty"`
	IsLoadingAudio        bool              `json:"isLoadingAudio"`
	IsProcessingEqualizer bool              `json:"isProcessingEqualizer"`
	MonitorSource         Source            `json:"monitorSource"`
	EqualizerMode         eq.Mode           `json:"equalizerMode"`
	EqualizerState        eq.State          `json:"equalizerState"`
	Bands                 []eq.Band         `json:"bands"`
	Playback              playback.State    `json:"playback"`
	Separation            separation.Status `json:"separation"`
}

// Status assembles a consistent snapshot.
func (s *Studio) Status() Status {
	s.mu.Lock()
	st := Status{
		FileName:              s.fileName,
		Loaded:                s.input != nil,
		SpectrumSource:        s.specSource,
		IsLoadingAudio:        s.loadingAudio,
		IsProcessingEqualizer: s.processingEQ,
		MonitorSource:         s.monitorSource,
	}
	if s.input != nil {
		st.SampleRate = s.input.SampleRate
		st.Channels = s.input.NumChannels()
		st.DurationSeconds = s.input.Duration().Seconds()
	}
	s.mu.Unlock()

	st.EqualizerMode = s.eqc.Mode()
	st.EqualizerState = s.eqc.State()
	st.Bands = s.eqc.Bands()
	st.Playback = s.transport.Snapshot()
	if s.sep != nil {
		st.Separation = s.sep.Status()
	}
	return st
}

func (s *Studio) setOutput(out *audio.Buffer) {
	s.mu.Lock()
	s.output = out
	s.mu.Unlock()
	s.refreshMonitor()
}

// refreshMonitor hands the active buffer to the monitor stream.
func (s *Studio) refreshMonitor() {
	if s.monitor == nil {
		return
	}
	s.mu.Lock()
	buf := s.output
	if s.monitorSource == SourceInput {
		buf = s.input
	}
	s.mu.Unlock()
	s.monitor.SetBuffer(buf)
}

func (s *Studio) setLoading(v bool) {
	s.mu.Lock()
	s.loadingAudio = v
	s.mu.Unlock()
}

func (s *Studio) setProcessing(v bool) {
	s.mu.Lock()
	s.processingEQ = v
	s.mu.Unlock()
}
