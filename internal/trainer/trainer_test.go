package trainer

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

func TestParseCharSet(t *testing.T) {
	tests := []struct {
		in      string
		want    CharSet
		wantErr bool
	}{
		{"letters", Letters, false},
		{" Koch ", Koch, false},
		{"ALL", All, false},
		{"numbers", Numbers, false},
		{"punctuation", Punctuation, false},
		{"greek", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCharSet(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCharSet) {
					t.Errorf("ParseCharSet(%q) error = %v, want ErrUnknownCharSet", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseCharSet(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestCharacters(t *testing.T) {
	tests := []struct {
		cs          CharSet
		count, skip int
		want        string
	}{
		{Numbers, 0, 0, "0123456789"},
		{Letters, 0, 0, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"},
		{Punctuation, 0, 0, ",./?"},
		{All, 0, 0, AlphaOrder},
		{Koch, 5, 0, "KMRSU"},
		{Koch, 7, 3, "SUAP"},
		{Koch, 40, 0, KochOrder},
	}

	for _, tt := range tests {
		t.Run(string(tt.cs), func(t *testing.T) {
			got, err := Characters(tt.cs, tt.count, tt.skip)
			if err != nil {
				t.Fatalf("Characters() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Characters() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestCharacters_Errors(t *testing.T) {
	tests := []struct {
		name        string
		cs          CharSet
		count, skip int
		wantErr     error
	}{
		{"unknown", "cyrillic", 0, 0, ErrUnknownCharSet},
		{"koch count too small", Koch, 1, 0, ErrKochCount},
		{"koch count too large", Koch, 41, 0, ErrKochCount},
		{"koch skip equals count", Koch, 5, 5, ErrKochSkip},
		{"koch skip negative", Koch, 5, -1, ErrKochSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Characters(tt.cs, tt.count, tt.skip); !errors.Is(err, tt.wantErr) {
				t.Errorf("Characters() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func newTestTrainer(t *testing.T, chars string, size int) *Trainer {
	t.Helper()
	tr, err := New([]rune(chars), size, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tr
}

func TestNew_Errors(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	if _, err := New([]rune("AB"), 0, rng); !errors.Is(err, ErrGroupSize) {
		t.Errorf("size 0 error = %v, want ErrGroupSize", err)
	}
	if _, err := New([]rune("AB"), MaxGroupSize+1, rng); !errors.Is(err, ErrGroupSize) {
		t.Errorf("size 17 error = %v, want ErrGroupSize", err)
	}
	if _, err := New(nil, 5, rng); err == nil {
		t.Error("empty character set accepted")
	}
}

func TestTrainer_GroupsUseCharacterSet(t *testing.T) {
	tr := newTestTrainer(t, "KMRSU", 5)
	for range 50 {
		g := tr.Next()
		if len(g) != 5 {
			t.Fatalf("group %q has length %d, want 5", g, len(g))
		}
		for _, r := range g {
			if !strings.ContainsRune("KMRSU", r) {
				t.Fatalf("group %q contains %q outside the set", g, r)
			}
		}
	}
}

func TestTrainer_SeedIsDeterministic(t *testing.T) {
	a := newTestTrainer(t, AlphaOrder, 5)
	b := newTestTrainer(t, AlphaOrder, 5)
	for range 10 {
		if ga, gb := a.Next(), b.Next(); ga != gb {
			t.Fatalf("same seed produced %q and %q", ga, gb)
		}
	}
}

func TestTrainer_CorrectCopy(t *testing.T) {
	tr := newTestTrainer(t, "AB", 3)
	group := tr.Next()

	var v Verdict
	for i, r := range group {
		v = tr.Check(r)
		// Word spaces between characters are ignored
		if i == 0 {
			if tr.Check(' ') != Pending {
				t.Error("space changed the verdict")
			}
		}
	}
	if v != Correct {
		t.Errorf("verdict = %v, want correct", v)
	}
	if sent, correct := tr.Score(); sent != 1 || correct != 1 {
		t.Errorf("Score() = %d, %d; want 1, 1", sent, correct)
	}
}

func TestTrainer_WrongCopyRepeatsGroup(t *testing.T) {
	tr := newTestTrainer(t, "ABCDEFGH", 4)
	group := tr.Next()

	wrong := 'Z'
	if v := tr.Check(wrong); v != Wrong {
		t.Fatalf("verdict = %v, want wrong", v)
	}
	// The group is over after the first mismatch
	if v := tr.Check(rune(group[1])); v != Pending {
		t.Errorf("verdict after failure = %v, want pending", v)
	}

	if again := tr.Next(); again != group {
		t.Errorf("Next() after wrong copy = %q, want repeat of %q", again, group)
	}
	for _, r := range group {
		tr.Check(r)
	}
	if sent, correct := tr.Score(); sent != 2 || correct != 1 {
		t.Errorf("Score() = %d, %d; want 2, 1", sent, correct)
	}
}

func TestTrainer_CheckBeforeNext(t *testing.T) {
	tr := newTestTrainer(t, "AB", 2)
	if v := tr.Check('A'); v != Pending {
		t.Errorf("Check before Next = %v, want pending", v)
	}
}

func TestVerdict_String(t *testing.T) {
	tests := []struct {
		v    Verdict
		want string
	}{
		{Pending, "pending"},
		{Correct, "correct"},
		{Wrong, "wrong"},
		{Verdict(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}
