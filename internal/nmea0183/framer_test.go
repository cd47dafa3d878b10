package nmea0183

import (
	"slices"
	"strings"
	"testing"
)

func collect(f *Framer) []string {
	return slices.Collect(f.Sentences())
}

func TestFramer_SplitAcrossWrites(t *testing.T) {
	f := NewFramer(0)
	f.Write([]byte("$GPGGA,1234"))
	if got := collect(f); len(got) != 0 {
		t.Fatalf("expected nothing before terminator, got %q", got)
	}
	f.Write([]byte("56*00\r\n$GPRMC,1"))
	got := collect(f)
	if len(got) != 1 || got[0] != "$GPGGA,123456*00" {
		t.Fatalf("unexpected sentences %q", got)
	}
	if f.Buffered() != len("$GPRMC,1") {
		t.Fatalf("expected partial fragment to stay buffered, have %d bytes", f.Buffered())
	}
}

func TestFramer_ByteAtATimeMatchesSingleWrite(t *testing.T) {
	stream := "garbage\n$GPGGA,1*00\r\n\r\nxx$GPRMC,2*00\n$GPVTG,3*00\r\n" +
		strings.Repeat("Z", 40) + "\n$GPTXT,4"

	whole := NewFramer(32)
	whole.Write([]byte(stream))
	want := collect(whole)

	bytewise := NewFramer(32)
	var got []string
	for i := 0; i < len(stream); i++ {
		bytewise.Write([]byte{stream[i]})
		got = append(got, collect(bytewise)...)
	}

	if !slices.Equal(got, want) {
		t.Fatalf("byte-at-a-time %q, single write %q", got, want)
	}
	if bytewise.Overflows != whole.Overflows || bytewise.Noise != whole.Noise {
		t.Fatalf("counters differ: bytewise %d/%d whole %d/%d",
			bytewise.Overflows, bytewise.Noise, whole.Overflows, whole.Noise)
	}
	wantSentences := []string{"$GPGGA,1*00", "$GPRMC,2*00", "$GPVTG,3*00"}
	if !slices.Equal(want, wantSentences) {
		t.Fatalf("expected %q, got %q", wantSentences, want)
	}
}

func TestFramer_OverlongLineIsSkipped(t *testing.T) {
	f := NewFramer(16)
	f.Write([]byte("$GPGGA," + strings.Repeat("9", 30)))
	f.Write([]byte(strings.Repeat("9", 10) + "*00\n$GPRMC,1*00\n"))

	got := collect(f)
	if len(got) != 1 || got[0] != "$GPRMC,1*00" {
		t.Fatalf("expected only the sentence after the overflow, got %q", got)
	}
	if f.Overflows != 1 {
		t.Fatalf("expected 1 overflow, got %d", f.Overflows)
	}
	if f.Buffered() != 0 {
		t.Fatalf("expected empty buffer, got %d bytes", f.Buffered())
	}
}

func TestFramer_NoiseCounted(t *testing.T) {
	f := NewFramer(0)
	f.Write([]byte("hello\r\n\r\n$GPGLL,1*00\n"))
	got := collect(f)
	if len(got) != 1 {
		t.Fatalf("expected 1 sentence, got %q", got)
	}
	if f.Noise != 1 {
		t.Fatalf("expected 1 noise line, got %d", f.Noise)
	}
}

func TestFramer_Flush(t *testing.T) {
	f := NewFramer(0)
	f.Write([]byte("$GPGGA,1*00\n$GPRMC,partial"))
	f.Flush()
	f.Write([]byte("$GPVTG,1*00\n"))
	got := collect(f)
	want := []string{"$GPGGA,1*00", "$GPVTG,1*00"}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFramer_StopEarly(t *testing.T) {
	f := NewFramer(0)
	f.Write([]byte("$A,1\n$B,2\n"))
	for s := range f.Sentences() {
		if s != "$A,1" {
			t.Fatalf("unexpected first sentence %q", s)
		}
		break
	}
	s, ok := f.Next()
	if !ok || s != "$B,2" {
		t.Fatalf("expected second sentence to remain, got %q %v", s, ok)
	}
}
