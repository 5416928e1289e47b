package clock

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// Stream reads a forcing series of whitespace separated (time, value) pairs.
// Times are relative to steady state. Records are read only as the
// simulation reaches them; between records the value is interpolated
// linearly and once the series is exhausted the last value is held.
type Stream struct {
	scanner *bufio.Scanner
	closer  io.Closer

	lowerT, upperT float64
	lower, upper   float64
	started        bool
	exhausted      bool
	err            error
}

// NewStream opens the series at path. A missing file yields ErrNoStream and
// callers fall back to the constant value.
func NewStream(path string, base float64) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoStream, err)
	}
	s := NewStreamReader(f, base)
	s.closer = f
	return s, nil
}

// NewStreamReader streams from r. base is the value before the first record.
func NewStreamReader(r io.Reader, base float64) *Stream {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &Stream{
		scanner: sc,
		upperT:  math.Inf(-1),
		lower:   base,
		upper:   base,
	}
}

func (s *Stream) next() (float64, bool) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			s.err = err
		}
		return 0, false
	}
	v, err := strconv.ParseFloat(s.scanner.Text(), 64)
	if err != nil {
		s.err = fmt.Errorf("%w: %q", ErrMalformedStream, s.scanner.Text())
		return 0, false
	}
	return v, true
}

// At returns the value at time t given the steady state time delay.
func (s *Stream) At(t, delay float64) float64 {
	for !s.exhausted && t >= s.upperT {
		tm, ok := s.next()
		if !ok {
			s.exhausted = true
			break
		}
		v, ok := s.next()
		if !ok {
			s.exhausted = true
			break
		}
		if s.started {
			s.lowerT = s.upperT
		} else {
			s.lowerT = delay
			s.started = true
		}
		s.lower = s.upper
		s.upperT = tm + delay
		s.upper = v
	}
	if s.exhausted || s.upperT == s.lowerT {
		return s.upper
	}
	return (s.upper-s.lower)*(t-s.lowerT)/(s.upperT-s.lowerT) + s.lower
}

// Err returns the first read or parse error met, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying file. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}
