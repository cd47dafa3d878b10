package device

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

type fakeStream struct {
	bytes.Buffer
	closes   int
	writeErr error
	writes   []time.Time
}

func (f *fakeStream) Write(p []byte) (int, error) {
	f.writes = append(f.writes, time.Now())
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.Buffer.Write(p)
}

func (f *fakeStream) Close() error {
	f.closes++
	return nil
}

func TestSendCommands_WritesInOrder(t *testing.T) {
	s := &fakeStream{}
	p := NewPort("test", s)
	if err := p.SendCommands([]byte{1, 2}, []byte{3}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !bytes.Equal(s.Bytes(), []byte{1, 2, 3}) {
		t.Fatalf("unexpected bytes % X", s.Bytes())
	}
	if len(s.writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(s.writes))
	}
	// Leave slack for the limiter's own rounding.
	if gap := s.writes[1].Sub(s.writes[0]); gap < CommandInterval/2 {
		t.Fatalf("expected commands to be paced, gap was %v", gap)
	}
}

func TestSendCommands_WriteError(t *testing.T) {
	p := NewPort("test", &fakeStream{writeErr: errors.New("unplugged")})
	if err := p.SendCommands([]byte{1}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestClose_Once(t *testing.T) {
	s := &fakeStream{}
	p := NewPort("test", s)
	p.Close()
	p.Close()
	if s.closes != 1 {
		t.Fatalf("expected one close, got %d", s.closes)
	}
}

func TestOpen_RequiresName(t *testing.T) {
	if _, err := Open("", 9600); err == nil {
		t.Fatalf("expected error")
	}
}
