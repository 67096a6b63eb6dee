package separation

import "github.com/wavescope/wavescope/internal/audio"

// Track is one isolated stem with its playback controls. Gain, Muted and
// Solo are the only fields mutated after creation.
type Track struct {
	ID     string
	Name   string
	Buffer *audio.Buffer
	Gain   float64
	Muted  bool
	Solo   bool
}

// audible reports whether the track contributes to the mix: muted tracks
// never do, and when any track is soloed only the soloed ones do.
func (t *Track) audible(anySolo bool) bool {
	if t.Muted || t.Buffer == nil {
		return false
	}
	return !anySolo || t.Solo
}

// Mix sums the audible stems sample by sample into a freshly allocated
// buffer shaped like the first audible stem. Gains multiply per stem; no
// clipping or limiting is applied, so the result may exceed +/-1. When
// nothing is audible the result is silence shaped like the first stem --
// a stale previous mix would misreport the control state.
func Mix(tracks []*Track) *audio.Buffer {
	if len(tracks) == 0 {
		return nil
	}

	anySolo := false
	for _, t := range tracks {
		if t.Solo {
			anySolo = true
			break
		}
	}

	var shape *audio.Buffer
	for _, t := range tracks {
		if t.audible(anySolo) {
			shape = t.Buffer
			break
		}
	}
	if shape == nil {
		// All muted: silent output shaped like the first stem.
		for _, t := range tracks {
			if t.Buffer != nil {
				shape = t.Buffer
				break
			}
		}
		if shape == nil {
			return nil
		}
		return audio.New(shape.SampleRate, shape.NumChannels(), shape.NumFrames())
	}

	out := audio.New(shape.SampleRate, shape.NumChannels(), shape.NumFrames())
	for _, t := range tracks {
		if !t.audible(anySolo) {
			continue
		}
		for c := range out.Channels {
			src := t.Buffer.Channels[c%t.Buffer.NumChannels()]
			n := len(src)
			if n > len(out.Channels[c]) {
				n = len(out.Channels[c])
			}
			for i := 0; i < n; i++ {
				out.Channels[c][i] += src[i] * t.Gain
			}
		}
	}
	return out
}
