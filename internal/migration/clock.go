package migration

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MaxSequence is the largest sequence that still renders as 14 digits
const MaxSequence Sequence = 99999999999999

// ErrSequenceOverflow is returned when a sequence would exceed MaxSequence
var ErrSequenceOverflow = errors.New("sequence exceeds 14 digits")

// Sequence is the ordering key of a unit. Rendered zero padded so that
// lexical order of artifact names matches numeric order.
type Sequence uint64

// String formats the sequence as 14 digits, the width of YYYYMMDDHHMMSS
func (s Sequence) String() string {
	return fmt.Sprintf("%014d", uint64(s))
}

// ParseSequence parses a decimal sequence identifier
func ParseSequence(s string) (Sequence, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sequence %q: %w", s, err)
	}
	if Sequence(n) > MaxSequence {
		return 0, fmt.Errorf("%w: %s", ErrSequenceOverflow, s)
	}
	return Sequence(n), nil
}

// SequenceFromTime returns the YYYYMMDDHHMMSS reading of t as a sequence
func SequenceFromTime(t time.Time) Sequence {
	n, _ := strconv.ParseUint(t.Format("20060102150405"), 10, 64)
	return Sequence(n)
}

// Clock is a logical clock handing out strictly increasing sequences.
// It is not safe for concurrent use.
type Clock struct {
	next Sequence
}

// NewClock returns a clock whose first tick is start
func NewClock(start Sequence) *Clock {
	return &Clock{next: start}
}

// Next returns the current tick and advances the clock by one. The clock
// stops at MaxSequence.
func (c *Clock) Next() (Sequence, error) {
	if c.next > MaxSequence {
		return 0, fmt.Errorf("%w: next tick is %d", ErrSequenceOverflow, uint64(c.next))
	}
	s := c.next
	c.next++
	return s, nil
}

// Peek returns the tick Next would return
func (c *Clock) Peek() Sequence {
	return c.next
}
