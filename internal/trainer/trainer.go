package trainer

import (
	"errors"
	"math/rand/v2"
)

// ErrGroupSize indicates a group size outside 1-16
var ErrGroupSize = errors.New("group size must be between 1 and 16")

// MaxGroupSize bounds the characters sent per group
const MaxGroupSize = 16

// Verdict is the outcome of feeding one copied character
type Verdict int

const (
	// Pending means the group is not complete yet
	Pending Verdict = iota
	// Correct means the whole group was copied
	Correct
	// Wrong means a character did not match; the group will be repeated
	Wrong
)

func (v Verdict) String() string {
	switch v {
	case Pending:
		return "pending"
	case Correct:
		return "correct"
	case Wrong:
		return "wrong"
	default:
		return "unknown"
	}
}

// Trainer deals random groups and checks the copy, repeating a group until
// it is copied correctly.
type Trainer struct {
	chars []rune
	size  int
	rng   *rand.Rand

	group  []rune
	pos    int
	repeat bool

	sent, correct int
}

// New returns a Trainer drawing groups of size characters from chars
func New(chars []rune, size int, rng *rand.Rand) (*Trainer, error) {
	if size < 1 || size > MaxGroupSize {
		return nil, ErrGroupSize
	}
	if len(chars) == 0 {
		return nil, ErrUnknownCharSet
	}
	return &Trainer{chars: chars, size: size, rng: rng}, nil
}

// Next returns the group to send: a fresh random group, or the previous one
// again if it was copied wrong.
func (t *Trainer) Next() string {
	if !t.repeat || t.group == nil {
		t.group = make([]rune, t.size)
		for i := range t.group {
			t.group[i] = t.chars[t.rng.IntN(len(t.chars))]
		}
	}
	t.pos = 0
	t.repeat = false
	t.sent++
	return string(t.group)
}

// Check feeds one copied character. Word spaces are skipped. The first
// mismatch fails the group.
func (t *Trainer) Check(r rune) Verdict {
	if r == ' ' || t.group == nil || t.pos >= len(t.group) {
		return Pending
	}
	if r != t.group[t.pos] {
		t.pos = len(t.group)
		t.repeat = true
		return Wrong
	}
	t.pos++
	if t.pos == len(t.group) {
		t.correct++
		return Correct
	}
	return Pending
}

// Score returns the number of groups sent and copied correctly
func (t *Trainer) Score() (sent, correct int) {
	return t.sent, t.correct
}
