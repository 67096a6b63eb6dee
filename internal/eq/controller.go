package eq

import (
	"log"
	"sync"
	"time"
)

// State is the controller's position in the apply cycle.
type State string

const (
	StateIdle            State = "idle"
	StatePendingDebounce State = "pending"
	StateApplying        State = "applying"
)

// ApplyFunc receives the settled band list and pushes it to the backend.
// It runs off the caller's goroutine; errors are surfaced via LastError.
type ApplyFunc func(bands []Band) error

// Controller owns the slider state and debounces rapid movement: every
// change restarts a single-slot timer, and only when the quiet period
// elapses is the band list -- read from the state current at that moment,
// not captured when the burst began -- handed to ApplyFunc.
type Controller struct {
	store *Store
	delay time.Duration
	apply ApplyFunc

	mu       sync.Mutex
	mode     Mode
	bands    []Band
	timer    *time.Timer
	state    State
	inFlight bool
	lastErr  error
	closed   bool
}

// NewController builds a controller in generic mode with the persisted
// band list.
func NewController(store *Store, delay time.Duration, apply ApplyFunc) (*Controller, error) {
	bands, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Controller{
		store: store,
		delay: delay,
		apply: apply,
		mode:  ModeGeneric,
		bands: bands,
		state: StateIdle,
	}, nil
}

// Mode returns the active band layout mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// State returns the current apply-cycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the most recent apply failure, cleared by the next
// successful apply.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Bands returns a snapshot of the current band list.
func (c *Controller) Bands() []Band {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() []Band {
	out := make([]Band, len(c.bands))
	copy(out, c.bands)
	return out
}

// SetMode switches the band layout. Non-generic modes load their fixed
// table at unity gain; generic mode reloads the persisted list. A pending
// debounce is cancelled since it referenced the old layout.
func (c *Controller) SetMode(m Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m == ModeGeneric {
		bands, err := c.store.Load()
		if err != nil {
			return err
		}
		c.bands = bands
	} else {
		c.bands = PresetBands(m)
	}
	c.mode = m
	c.cancelTimerLocked()
	c.state = StateIdle
	return nil
}

// SetGain clamps and applies a slider value to band i, updates display
// state immediately, and restarts the debounce window.
func (c *Controller) SetGain(i int, gain float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.bands) {
		return errOutOfRange(i, len(c.bands))
	}
	c.bands[i].Gain = ClampGain(gain)

	if c.mode == ModeGeneric {
		if err := c.store.Save(c.bands); err != nil {
			return err
		}
	}

	c.restartDebounceLocked()
	return nil
}

// SetBands replaces the generic band layout wholesale (user-defined
// arbitrary bands), persists it, and restarts the debounce window.
func (c *Controller) SetBands(bands []Band) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeGeneric {
		return errNotGeneric(c.mode)
	}
	for i := range bands {
		bands[i].Gain = ClampGain(bands[i].Gain)
		if err := bands[i].Validate(); err != nil {
			return err
		}
	}
	c.bands = make([]Band, len(bands))
	copy(c.bands, bands)

	if err := c.store.Save(c.bands); err != nil {
		return err
	}
	c.restartDebounceLocked()
	return nil
}

// Reset restores the layout to its factory state (generic defaults or the
// preset table at unity gain), rewrites persistence, and schedules an apply
// so the backend returns to the flat response.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeGeneric {
		bands, err := c.store.Reset()
		if err != nil {
			return err
		}
		c.bands = bands
	} else {
		c.bands = PresetBands(c.mode)
	}

	c.restartDebounceLocked()
	return nil
}

// ResetForUpload clears all gains to unity for a freshly uploaded file.
// Generic bands return to the factory layout and persistence is rewritten.
// No apply is scheduled; the upload flow runs its own initial FFT request.
func (c *Controller) ResetForUpload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelTimerLocked()
	c.state = StateIdle

	if c.mode == ModeGeneric {
		bands, err := c.store.Reset()
		if err != nil {
			return err
		}
		c.bands = bands
		return nil
	}
	c.bands = PresetBands(c.mode)
	return nil
}

// Close cancels any pending debounce so no apply fires against torn-down
// state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancelTimerLocked()
	c.state = StateIdle
}

// restartDebounceLocked cancels the pending timer, if any, and arms a new
// one. Last write wins.
func (c *Controller) restartDebounceLocked() {
	if c.closed {
		return
	}
	c.cancelTimerLocked()
	c.state = StatePendingDebounce
	c.timer = time.AfterFunc(c.delay, c.fire)
}

func (c *Controller) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// fire runs on timer expiry: one backend call with the gains current now.
func (c *Controller) fire() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.inFlight {
		// An apply is already talking to the backend; this window is
		// dropped, not queued.
		c.state = StateIdle
		c.mu.Unlock()
		log.Printf("eq: apply already in flight, dropping debounced request")
		return
	}
	c.inFlight = true
	c.state = StateApplying
	bands := c.snapshotLocked()
	apply := c.apply
	c.mu.Unlock()

	var err error
	if apply != nil {
		err = apply(bands)
	}

	c.mu.Lock()
	c.inFlight = false
	if c.state == StateApplying {
		c.state = StateIdle
	}
	c.lastErr = err
	c.mu.Unlock()

	if err != nil {
		log.Printf("eq: apply failed: %v", err)
	}
}
