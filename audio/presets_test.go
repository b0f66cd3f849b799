package audio

import "testing"

func TestLoadPresets(t *testing.T) {
	for _, name := range PresetNames() {
		s := NewSample(name, nil)
		if err := LoadPreset(name, s); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestLoadPreset(t *testing.T) {
	s := NewSample("x", nil)
	if err := LoadPreset("wobble", s); err != nil {
		t.Fatal(err)
	}
	if want, got := FilterLowpass, s.Filter.Type; want != got {
		t.Errorf("want filter %v, got %v", want, got)
	}
	slot, _ := s.ModMatrix.Slot(0)
	if !slot.Enabled || slot.Source != SourceLFO1 || slot.Destination != DestFilterCutoff || slot.Amount != 3 {
		t.Errorf("unexpected mod slot: %+v", slot)
	}
	if v, err := s.Get("lfo1.sync_beats"); err != nil || v != "0.5" {
		t.Errorf("want sync beats 0.5, got %v (%v)", v, err)
	}
	if err := LoadPreset("nope", s); err == nil {
		t.Errorf("expected error for unknown preset")
	}
}
