// Package sequence recognizes a fixed ordered key sequence in a stream of
// key-press symbols.
package sequence

import (
	"errors"
	"strings"
)

// ErrEmptyTarget is returned when a recognizer is created without a target sequence
var ErrEmptyTarget = errors.New("empty target sequence")

// Result is the outcome of consuming one symbol.
type Result int

const (
	// NoMatch means the symbol broke the sequence and progress restarted
	NoMatch Result = iota
	// Partial means the symbol extended a prefix of the target
	Partial
	// Complete means the symbol finished the whole target sequence
	Complete
)

// String returns the result name for logs.
func (r Result) String() string {
	switch r {
	case NoMatch:
		return "NoMatch"
	case Partial:
		return "Partial"
	case Complete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Recognizer tracks progress through one fixed target sequence. Memory use
// is the target plus a single index no matter how long the input stream is.
// Not safe for concurrent use; the controller feeds it from one goroutine.
type Recognizer struct {
	target []string
	idx    int
}

// New creates a recognizer for the given target symbols. Symbols are
// normalized to upper case, the same normalization Consume applies.
func New(target []string) (*Recognizer, error) {
	if len(target) == 0 {
		return nil, ErrEmptyTarget
	}
	normalized := make([]string, len(target))
	for i, sym := range target {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			return nil, ErrEmptyTarget
		}
		normalized[i] = sym
	}
	return &Recognizer{target: normalized}, nil
}

// Consume advances the recognizer by one key-press symbol.
//
// A mismatch is a hard reset: progress restarts from zero and the mismatched
// symbol gets exactly one fresh chance against the first position. There is
// no re-scan for overlapping prefixes further into the target; a target like
// A B A B C fed A B A B A B C resets on the fifth symbol instead of
// recognizing the suffix. That matches the observed behavior this recognizer
// guards, so it stays.
func (r *Recognizer) Consume(symbol string) Result {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if symbol == r.target[r.idx] {
		return r.advance()
	}

	r.idx = 0
	if symbol == r.target[0] {
		return r.advance()
	}
	return NoMatch
}

func (r *Recognizer) advance() Result {
	if r.idx == len(r.target)-1 {
		// Ready to recognize the sequence again without recreating.
		r.idx = 0
		return Complete
	}
	r.idx++
	return Partial
}

// Reset discards any partial progress.
func (r *Recognizer) Reset() {
	r.idx = 0
}

// Progress reports how many leading symbols have matched and the target length.
func (r *Recognizer) Progress() (matched, length int) {
	return r.idx, len(r.target)
}
