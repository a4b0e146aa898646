// Package cw implements the Morse code engine: the dichotomic code table,
// the timing parameters and the polled decoder and encoder state machines.
package cw

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Dichotomic table layout.
// The table is a complete binary tree stored by in-order position. The root
// sits at index TreeTop; the dot child of a node is below it, the dash child
// above it, each at a distance that halves on every level.
const (
	// TreeTop is the table index of the root node
	TreeTop = 63
	// TableLength is the number of slots in the table (always odd)
	TableLength = 2*TreeTop + 1
	// TreeLevels is the tree depth, log2(TreeTop+1)
	TreeLevels = 6
	// RootStep is the cursor step at the root, (TreeTop+1)/2
	RootStep = (TreeTop + 1) / 2
)

// Special symbols
const (
	// Unassigned marks a table slot with no character
	Unassigned = '*'
	// ErrorMarker is emitted by the decoder for malformed sequences
	ErrorMarker = '#'
	// WordSpace is the character at the root; encoding it sends a word gap
	WordSpace = ' '
	// NoChar is returned by Decoder.Read when the mailbox is empty
	NoChar rune = 0
)

// ITU alphabet with punctuation, without non-English extensions.
// '!' appears twice: -.-.-- (KW) and ---. (MN); encoding uses the first.
const morseTable = "*5*H*4*S***V*3*I***F***U?*_**2*E***L\"**R*+.****A***P@**W***J'1* *6-B*=*D*/" +
	"*X***N***C;*!K*()Y***T*7*Z**,G***Q***M:8*!***O*9***0*"

var (
	// ErrUnknownCharacter indicates the character is not in the code table
	ErrUnknownCharacter = errors.New("character not in morse table")
)

// positions maps each assigned character to its 1-based table position.
var positions = buildPositions()

func buildPositions() map[rune]int {
	m := make(map[rune]int, TableLength)
	for i, r := range morseTable {
		if r == Unassigned {
			continue
		}
		if _, ok := m[r]; !ok {
			m[r] = i + 1
		}
	}
	return m
}

// Symbol is one element of a character's signal plan.
type Symbol uint8

const (
	// Dot is a short mark
	Dot Symbol = iota + 1
	// Dash is a long mark
	Dash
	// WordGap is the lone symbol sent for the word-space character
	WordGap
)

func (s Symbol) String() string {
	switch s {
	case Dot:
		return "."
	case Dash:
		return "-"
	case WordGap:
		return " "
	default:
		return "?"
	}
}

// SymbolAt returns the character stored at a table index, or Unassigned.
func SymbolAt(index int) rune {
	if index < 0 || index >= TableLength {
		return Unassigned
	}
	return rune(morseTable[index])
}

// PositionOf returns the 1-based table position of r.
// The placeholder and characters absent from the table report false.
func PositionOf(r rune) (int, bool) {
	pos, ok := positions[r]
	return pos, ok
}

// LevelOf returns the depth of a 1-based position, 0 being the root.
// A node at depth d has exactly TreeLevels-d trailing zero bits.
func LevelOf(position int) int {
	if position <= 0 {
		return 0
	}
	tz := bits.TrailingZeros(uint(position))
	if tz >= TreeLevels {
		return 0
	}
	return TreeLevels - tz
}

// isDotChild reports whether the node at position, which lives on the tree row
// with row trailing zeros, hangs below its parent (the dot side).
// Nodes on that row sit at odd multiples of 2^row; the dot child of a parent
// is the one whose position plus 2^row lands on an odd multiple of 2^(row+1).
func isDotChild(position, row int) bool {
	return ((position+(1<<row))>>(row+1))&1 == 1
}

// parentOf returns the position of the parent of a node on the given row.
func parentOf(position, row int) int {
	if isDotChild(position, row) {
		return position + (1 << row)
	}
	return position - (1 << row)
}

// Plan returns the symbols to send for r (case-folded by the caller).
// The path is recovered by walking from the node up to the root, so it is
// written back to front.
func Plan(r rune) ([]Symbol, error) {
	pos, ok := PositionOf(r)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharacter, r)
	}

	n := LevelOf(pos)
	if n == 0 {
		return []Symbol{WordGap}, nil
	}

	plan := make([]Symbol, n)
	for row, i := TreeLevels-n, n-1; row < TreeLevels; row, i = row+1, i-1 {
		if isDotChild(pos, row) {
			plan[i] = Dot
		} else {
			plan[i] = Dash
		}
		pos = parentOf(pos, row)
	}
	return plan, nil
}

// Pattern renders the plan for r as dots and dashes.
func Pattern(r rune) (string, error) {
	plan, err := Plan(r)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range plan {
		b.WriteString(s.String())
	}
	return b.String(), nil
}

// Alphabet returns every assigned character in table order.
// Duplicates are listed once.
func Alphabet() []rune {
	out := make([]rune, 0, len(positions))
	for i, r := range morseTable {
		if r == Unassigned {
			continue
		}
		if positions[r] == i+1 {
			out = append(out, r)
		}
	}
	return out
}
