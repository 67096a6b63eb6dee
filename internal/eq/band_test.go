package eq

import "testing"

func TestDefaultBands(t *testing.T) {
	bands := DefaultBands()
	want := []Band{
		{0, 5000, 1},
		{5000, 10000, 1},
		{10000, 15000, 1},
		{15000, 24000, 1},
	}
	if len(bands) != len(want) {
		t.Fatalf("got %d default bands, want %d", len(bands), len(want))
	}
	for i, b := range want {
		if bands[i] != b {
			t.Errorf("default band %d = %+v, want %+v", i, bands[i], b)
		}
	}
}

func TestClampGain(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.5, 0.5},
		{2, 2},
		{3.7, 2},
	}
	for _, tt := range tests {
		if got := ClampGain(tt.in); got != tt.want {
			t.Errorf("ClampGain(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBandValidate(t *testing.T) {
	valid := Band{Low: 100, High: 200, Gain: 1}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid band rejected: %v", err)
	}

	for _, b := range []Band{
		{Low: 200, High: 100, Gain: 1}, // inverted
		{Low: 100, High: 100, Gain: 1}, // empty interval
		{Low: -1, High: 100, Gain: 1},  // negative low
		{Low: 0, High: 100, Gain: -1},  // negative gain
	} {
		if err := b.Validate(); err == nil {
			t.Errorf("invalid band %+v accepted", b)
		}
	}
}

func TestPresetBandsCoverSpectrumContiguously(t *testing.T) {
	for _, mode := range []Mode{ModeMusic, ModeAnimal, ModeHuman} {
		bands := PresetBands(mode)
		if len(bands) == 0 {
			t.Fatalf("mode %s has no bands", mode)
		}
		if bands[0].Low != 0 {
			t.Errorf("mode %s starts at %g, want 0", mode, bands[0].Low)
		}
		if bands[len(bands)-1].High != 24000 {
			t.Errorf("mode %s ends at %g, want 24000", mode, bands[len(bands)-1].High)
		}
		for i, b := range bands {
			if err := b.Validate(); err != nil {
				t.Errorf("mode %s band %d: %v", mode, i, err)
			}
			if b.Gain != 1 {
				t.Errorf("mode %s band %d gain = %g, want unity", mode, i, b.Gain)
			}
			if i > 0 && bands[i-1].High != b.Low {
				t.Errorf("mode %s: gap between band %d and %d", mode, i-1, i)
			}
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"generic", "music", "animal", "human"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q) rejected valid mode: %v", s, err)
		}
	}
	if _, err := ParseMode("dubstep"); err == nil {
		t.Error("ParseMode accepted unknown mode")
	}
}
