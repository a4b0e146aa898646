package cw

import "testing"

func TestNewTiming(t *testing.T) {
	tests := []struct {
		wpm      int
		wantWPM  int
		wantDot  int64
		wantDash int64
		wantWord int64
	}{
		{wpm: 13, wantWPM: 13, wantDot: 92, wantDash: 276, wantWord: 644},
		{wpm: 20, wantWPM: 20, wantDot: 60, wantDash: 180, wantWord: 420},
		{wpm: 1, wantWPM: 1, wantDot: 1200, wantDash: 3600, wantWord: 8400},
		{wpm: 0, wantWPM: 1, wantDot: 1200, wantDash: 3600, wantWord: 8400},
		{wpm: -7, wantWPM: 1, wantDot: 1200, wantDash: 3600, wantWord: 8400},
	}

	for _, tt := range tests {
		got := NewTiming(tt.wpm)
		if got.WPM != tt.wantWPM {
			t.Errorf("NewTiming(%d).WPM = %d, want %d", tt.wpm, got.WPM, tt.wantWPM)
		}
		if got.DotMs != tt.wantDot {
			t.Errorf("NewTiming(%d).DotMs = %d, want %d", tt.wpm, got.DotMs, tt.wantDot)
		}
		if got.DashMs != tt.wantDash {
			t.Errorf("NewTiming(%d).DashMs = %d, want %d", tt.wpm, got.DashMs, tt.wantDash)
		}
		if got.WordMs != tt.wantWord {
			t.Errorf("NewTiming(%d).WordMs = %d, want %d", tt.wpm, got.WordMs, tt.wantWord)
		}
	}
}

func TestTiming_SetSpeedRecomputes(t *testing.T) {
	timing := NewTiming(DefaultWPM)
	timing.SetSpeed(30)

	if timing.DotMs != 40 {
		t.Errorf("DotMs = %d, want 40", timing.DotMs)
	}
	if timing.DashMs != 3*timing.DotMs {
		t.Errorf("DashMs = %d, want 3*DotMs", timing.DashMs)
	}
	if timing.WordMs != 7*timing.DotMs {
		t.Errorf("WordMs = %d, want 7*DotMs", timing.WordMs)
	}
}
