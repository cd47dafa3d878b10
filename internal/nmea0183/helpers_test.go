package nmea0183

import (
	"fmt"
	"math"
	"testing"

	"github.com/relabs-tech/gps_bridge/internal/gps"
)

// nmeaLine frames a payload with its XOR checksum.
func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

func decodeLine(t *testing.T, line string) gps.Record {
	t.Helper()
	s, err := Validate(line)
	if err != nil {
		t.Fatalf("validate %q: %v", line, err)
	}
	rec, err := Decode(s)
	if err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return rec
}

func approx(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: expected value, got nil", name)
	}
	if math.Abs(*got-want) > 1e-6 {
		t.Fatalf("%s: expected %v, got %v", name, want, *got)
	}
}
