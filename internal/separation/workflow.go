// Package separation orchestrates AI stem separation: submitting the job,
// tracking progress, loading the resulting stems, and mixing them back into
// a single output buffer.
package separation

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wavescope/wavescope/internal/audio"
	"github.com/wavescope/wavescope/internal/eq"
	"github.com/wavescope/wavescope/internal/gateway"
)

// Stage is the workflow's UI-visible position.
type Stage string

const (
	StageInitial    Stage = "initial"
	StageSeparating Stage = "separating"
	StageSeparated  Stage = "separated"
)

// Kind selects the separation model.
type Kind string

const (
	KindInstruments Kind = "instruments"
	KindVoices      Kind = "voices"
)

// stemOrder fixes the display order of instrument stems; anything the
// backend adds beyond these sorts alphabetically after them.
var stemOrder = []string{"drums", "bass", "vocals", "guitar", "piano", "other"}

// Backend is the slice of the gateway the workflow needs; narrowed for
// testability.
type Backend interface {
	SeparateInstruments(ctx context.Context, file []byte, name string, gains []eq.Band, sessionID string, interval time.Duration, onProgress gateway.ProgressFunc) (*gateway.SeparationResult, error)
	SeparateVoices(ctx context.Context, file []byte, name string, gains []eq.Band, sessionID string, interval time.Duration, onProgress gateway.ProgressFunc) (*gateway.SeparationResult, error)
	StemURL(filename string) string
}

// FetchFunc loads a stem URL into a decoded buffer.
type FetchFunc func(ctx context.Context, url string) (*audio.Buffer, error)

// Status is a snapshot of the workflow for the API.
type Status struct {
	Stage    Stage   `json:"stage"`
	Progress float64 `json:"progress"` // 0..100
	Error    string  `json:"error,omitempty"`
	Stems    []Stem  `json:"stems,omitempty"`
}

// Stem is the control-surface view of a track.
type Stem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Gain  float64 `json:"gain"`
	Muted bool    `json:"muted"`
	Solo  bool    `json:"solo"`
}

// Workflow drives the three-stage separation UI. One separation runs at a
// time; a failed attempt is discarded whole and the stage drops back to
// initial.
type Workflow struct {
	backend  Backend
	fetch    FetchFunc
	interval time.Duration

	mu       sync.Mutex
	stage    Stage
	progress float64
	tracks   []*Track
	lastErr  error
}

// NewWorkflow creates an idle workflow. fetch may be nil, in which case
// stems are fetched with audio.FetchURL.
func NewWorkflow(backend Backend, interval time.Duration, fetch FetchFunc) *Workflow {
	if fetch == nil {
		fetch = audio.FetchURL
	}
	return &Workflow{
		backend:  backend,
		fetch:    fetch,
		interval: interval,
		stage:    StageInitial,
	}
}

// Stage returns the current stage.
func (w *Workflow) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// Status returns a snapshot for the API.
func (w *Workflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Status{Stage: w.stage, Progress: w.progress}
	if w.lastErr != nil {
		s.Error = w.lastErr.Error()
	}
	for _, t := range w.tracks {
		s.Stems = append(s.Stems, Stem{ID: t.ID, Name: t.Name, Gain: t.Gain, Muted: t.Muted, Solo: t.Solo})
	}
	return s
}

// Run performs a full separation of the uploaded file. Blocks until the
// stems are loaded or the attempt fails.
func (w *Workflow) Run(ctx context.Context, kind Kind, file []byte, name string, gains []eq.Band) error {
	if len(file) == 0 {
		return fmt.Errorf("no uploaded file to separate")
	}

	w.mu.Lock()
	if w.stage == StageSeparating {
		w.mu.Unlock()
		return fmt.Errorf("separation already in progress")
	}
	w.stage = StageSeparating
	w.progress = 0
	w.lastErr = nil
	w.mu.Unlock()

	sessionID := uuid.NewString()
	onProgress := func(p float64) {
		w.mu.Lock()
		w.progress = p * 100
		w.mu.Unlock()
	}

	var result *gateway.SeparationResult
	var err error
	switch kind {
	case KindInstruments:
		result, err = w.backend.SeparateInstruments(ctx, file, name, gains, sessionID, w.interval, onProgress)
	case KindVoices:
		result, err = w.backend.SeparateVoices(ctx, file, name, gains, sessionID, w.interval, onProgress)
	default:
		err = fmt.Errorf("unknown separation kind %q", kind)
	}
	if err != nil {
		w.fail(err)
		return err
	}

	tracks, err := w.loadStems(ctx, result)
	if err != nil {
		// No partial results: the whole attempt is discarded.
		w.fail(err)
		return err
	}
	if len(tracks) == 0 {
		err = fmt.Errorf("backend returned no stems")
		w.fail(err)
		return err
	}

	w.mu.Lock()
	w.tracks = tracks
	w.stage = StageSeparated
	w.progress = 100
	w.mu.Unlock()

	log.Printf("separation: %d stems ready (session %s)", len(tracks), sessionID)
	return nil
}

func (w *Workflow) fail(err error) {
	w.mu.Lock()
	w.stage = StageInitial
	w.progress = 0
	w.tracks = nil
	w.lastErr = err
	w.mu.Unlock()
}

// loadStems fetches every stem file into a decoded buffer.
func (w *Workflow) loadStems(ctx context.Context, result *gateway.SeparationResult) ([]*Track, error) {
	type stemFile struct{ name, file string }
	var files []stemFile

	if len(result.Files) > 0 {
		names := make([]string, 0, len(result.Files))
		for name := range result.Files {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return stemRank(names[i]) < stemRank(names[j]) })
		for _, name := range names {
			files = append(files, stemFile{name, result.Files[name]})
		}
	} else {
		for i, f := range result.FileList {
			files = append(files, stemFile{fmt.Sprintf("voice %d", i+1), f})
		}
	}

	tracks := make([]*Track, 0, len(files))
	for _, sf := range files {
		buf, err := w.fetch(ctx, w.backend.StemURL(sf.file))
		if err != nil {
			return nil, fmt.Errorf("load stem %s: %w", sf.name, err)
		}
		tracks = append(tracks, &Track{
			ID:     sf.file,
			Name:   sf.name,
			Buffer: buf,
			Gain:   1,
		})
	}
	return tracks, nil
}

func stemRank(name string) string {
	for i, s := range stemOrder {
		if s == name {
			return fmt.Sprintf("%02d", i)
		}
	}
	return "99" + name
}

// UpdateTrack mutates one stem's controls and returns the remixed output.
// gain < 0 leaves the gain unchanged.
func (w *Workflow) UpdateTrack(id string, gain float64, muted, solo *bool) (*audio.Buffer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stage != StageSeparated {
		return nil, fmt.Errorf("no separated stems to update")
	}

	found := false
	for _, t := range w.tracks {
		if t.ID != id {
			continue
		}
		found = true
		if gain >= 0 {
			t.Gain = gain
		}
		if muted != nil {
			t.Muted = *muted
		}
		if solo != nil {
			t.Solo = *solo
		}
	}
	if !found {
		return nil, fmt.Errorf("unknown stem %q", id)
	}

	return Mix(w.tracks), nil
}

// Output mixes the current stems without mutating anything.
func (w *Workflow) Output() *audio.Buffer {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stage != StageSeparated {
		return nil
	}
	return Mix(w.tracks)
}

// Reset drops any separated stems and returns to the initial stage.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stage = StageInitial
	w.progress = 0
	w.tracks = nil
	w.lastErr = nil
}
