package ubx

import (
	"bytes"
	"testing"
	"time"
)

func TestRateCommand_100ms(t *testing.T) {
	want := []byte{0xB5, 0x62, 0x06, 0x08, 0x06, 0x00, 0x64, 0x00, 0x01, 0x00, 0x01, 0x00, 0x7A, 0x12}
	got, err := RateCommand(100 * time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("expected % X, got % X", want, got)
	}
	if !Verify(got) {
		t.Fatalf("expected frame to verify")
	}
}

func TestRateCommand_1Hz(t *testing.T) {
	got, err := RateCommand(time.Second)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got[6] != 0xE8 || got[7] != 0x03 {
		t.Fatalf("expected 1000ms little-endian, got % X", got[6:8])
	}
	if !Verify(got) {
		t.Fatalf("expected frame to verify")
	}
}

func TestRateCommand_OutOfRange(t *testing.T) {
	for _, d := range []time.Duration{0, 10 * time.Millisecond, 70 * time.Second} {
		if _, err := RateCommand(d); err == nil {
			t.Fatalf("%v: expected error", d)
		}
	}
}

func TestEncode_EmptyPayload(t *testing.T) {
	// CFG-RATE poll
	got := Encode(ClassCFG, IDRate, nil)
	want := []byte{0xB5, 0x62, 0x06, 0x08, 0x00, 0x00, 0x0E, 0x30}
	if !bytes.Equal(got, want) {
		t.Fatalf("expected % X, got % X", want, got)
	}
}

func TestVerify_Corrupt(t *testing.T) {
	frame, _ := RateCommand(200 * time.Millisecond)
	frame[7] ^= 0xFF
	if Verify(frame) {
		t.Fatalf("expected corrupted frame to fail")
	}
	if Verify(frame[:5]) {
		t.Fatalf("expected short frame to fail")
	}
}
