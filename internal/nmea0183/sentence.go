package nmea0183

import (
	"errors"
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

const (
	sentenceStart = "$"
	checksumSep   = "*"
	fieldSep      = ","
)

var (
	// ErrMalformed is returned for candidates that are not NMEA sentences at all.
	ErrMalformed = errors.New("nmea: malformed sentence")
	// ErrChecksumMismatch is returned when the trailing checksum disagrees with the body.
	ErrChecksumMismatch = errors.New("nmea: checksum mismatch")
)

// FieldError reports a sentence dropped because one of its fields could not be parsed.
type FieldError struct {
	Kind  Kind
	Field int // index into Sentence.Fields, -1 for a field count problem
	Err   error
}

func (e *FieldError) Error() string {
	if e.Field < 0 {
		return fmt.Sprintf("nmea: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("nmea: %s field %d: %v", e.Kind, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Sentence is a validated NMEA sentence split into its comma-delimited fields.
type Sentence struct {
	Raw     string
	Talker  string   // "GP", "GN", ...
	Type    string   // "GGA", "RMC", ...
	Kind    Kind
	Fields  []string // Fields[0] is the address field, e.g. "GPGGA"
	Checked bool     // false when the sentence carried no checksum
}

// Validate checks a framed candidate. A sentence without a checksum field is
// accepted as unverifiable; one with a wrong checksum is rejected.
func Validate(candidate string) (Sentence, error) {
	raw := strings.TrimSpace(candidate)
	if !strings.HasPrefix(raw, sentenceStart) {
		return Sentence{}, fmt.Errorf("%w: missing '$'", ErrMalformed)
	}

	body := raw[1:]
	checked := false
	if star := strings.LastIndex(raw, checksumSep); star != -1 {
		body = raw[1:star]
		want := strings.TrimSpace(raw[star+1:])
		if len(want) != 2 {
			return Sentence{}, fmt.Errorf("%w: checksum %q", ErrMalformed, want)
		}
		if got := nmea.Checksum(body); !strings.EqualFold(got, want) {
			return Sentence{}, fmt.Errorf("%w: got %s want %s", ErrChecksumMismatch, got, strings.ToUpper(want))
		}
		checked = true
	}

	fields := strings.Split(body, fieldSep)
	addr := fields[0]
	if len(addr) < 5 {
		return Sentence{}, fmt.Errorf("%w: address %q", ErrMalformed, addr)
	}

	s := Sentence{
		Raw:     raw,
		Fields:  fields,
		Checked: checked,
		Kind:    KindOf(addr),
	}
	if addr[0] != 'P' {
		s.Talker = addr[:2]
		s.Type = addr[2:]
	} else {
		// Proprietary: "P" + manufacturer, no talker.
		s.Type = addr
	}
	return s, nil
}
