// Package trainer generates random code groups for copy practice and
// checks the trainee's keyed reply.
package trainer

import (
	"errors"
	"fmt"
	"strings"
)

// Character orders used to build sets
const (
	// AlphaOrder holds the trainable characters: digits, letters, punctuation
	AlphaOrder = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ,./?"
	// KochOrder introduces characters one at a time, most distinct first
	KochOrder = "KMRSUAPTLOWI.NJEF0YV,G5/Q9ZH38B?427C1D6X"
)

// CharSet names a group of characters to practice
type CharSet string

const (
	Letters     CharSet = "letters"
	Numbers     CharSet = "numbers"
	Punctuation CharSet = "punctuation"
	All         CharSet = "all"
	Koch        CharSet = "koch"
)

var (
	ErrUnknownCharSet = errors.New("unknown character set")
	ErrKochCount      = errors.New("koch count out of range")
	ErrKochSkip       = errors.New("koch skip must be less than koch count")
)

// ParseCharSet converts a config value to a CharSet
func ParseCharSet(s string) (CharSet, error) {
	cs := CharSet(strings.ToLower(strings.TrimSpace(s)))
	switch cs {
	case Letters, Numbers, Punctuation, All, Koch:
		return cs, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCharSet, s)
}

// Characters returns the characters of cs. kochCount and kochSkip select
// KochOrder[kochSkip:kochCount] for the Koch set and are ignored otherwise.
func Characters(cs CharSet, kochCount, kochSkip int) ([]rune, error) {
	switch cs {
	case Numbers:
		return []rune(AlphaOrder[0:10]), nil
	case Letters:
		return []rune(AlphaOrder[10:36]), nil
	case Punctuation:
		return []rune(AlphaOrder[36:]), nil
	case All:
		return []rune(AlphaOrder), nil
	case Koch:
		if kochCount < 2 || kochCount > len(KochOrder) {
			return nil, fmt.Errorf("%w: %d (want 2-%d)", ErrKochCount, kochCount, len(KochOrder))
		}
		if kochSkip < 0 || kochSkip >= kochCount {
			return nil, fmt.Errorf("%w: skip %d, count %d", ErrKochSkip, kochSkip, kochCount)
		}
		return []rune(KochOrder[kochSkip:kochCount]), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCharSet, cs)
}
