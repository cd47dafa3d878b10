// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea0183

import (
	"bytes"
	"iter"
	"strings"
)

// DefaultMaxSentenceBytes bounds the carry-over buffer. NMEA-0183 limits a
// sentence to 82 characters, u-blox TXT/PUBX lines run a bit longer.
const DefaultMaxSentenceBytes = 1024

// Framer splits an arbitrary byte stream into candidate sentences. It keeps
// a carry-over buffer between writes, so a sentence split across two reads
// is still recognised. It is not safe for concurrent use.
type Framer struct {
	buf      []byte
	tail     int // bytes after the last terminator in buf
	max      int
	skipping bool // dropping the rest of an overlong line until the next '\n'

	// Overflows counts fragments discarded for exceeding the size bound.
	Overflows uint64
	// Noise counts terminated lines that did not contain a '$'.
	Noise uint64
}

// NewFramer returns a framer bounded to maxSentence bytes per fragment.
func NewFramer(maxSentence int) *Framer {
	if maxSentence <= 0 {
		maxSentence = DefaultMaxSentenceBytes
	}
	return &Framer{max: maxSentence, buf: make([]byte, 0, maxSentence)}
}

// Write appends a chunk read from the stream. It never fails.
func (f *Framer) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		seg := p
		terminated := false
		if i := bytes.IndexByte(p, '\n'); i >= 0 {
			seg, p = p[:i+1], p[i+1:]
			terminated = true
		} else {
			p = nil
		}

		if f.skipping {
			f.skipping = !terminated
			continue
		}

		body := len(seg)
		if terminated {
			body--
		}
		if f.tail+body > f.max {
			f.buf = f.buf[:len(f.buf)-f.tail]
			f.tail = 0
			f.Overflows++
			f.skipping = !terminated
			continue
		}

		f.buf = append(f.buf, seg...)
		if terminated {
			f.tail = 0
		} else {
			f.tail += len(seg)
		}
	}
	return n, nil
}

// Next returns the next complete candidate sentence, if one is buffered.
func (f *Framer) Next() (string, bool) {
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			return "", false
		}
		line := string(f.buf[:i])
		f.buf = f.buf[:copy(f.buf, f.buf[i+1:])]

		start := strings.IndexByte(line, '$')
		if start < 0 {
			if strings.TrimSpace(line) != "" {
				f.Noise++
			}
			continue
		}
		line = strings.TrimSpace(line[start:])
		return line, true
	}
}

// Sentences yields every complete sentence currently buffered. The sequence
// ends when the buffer holds no terminator; write more and range again.
func (f *Framer) Sentences() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			s, ok := f.Next()
			if !ok || !yield(s) {
				return
			}
		}
	}
}

// Flush discards any unterminated fragment.
func (f *Framer) Flush() {
	f.buf = f.buf[:len(f.buf)-f.tail]
	f.tail = 0
	f.skipping = false
}

// Buffered reports the number of bytes held by the framer.
func (f *Framer) Buffered() int {
	return len(f.buf)
}
