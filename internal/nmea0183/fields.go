package nmea0183

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relabs-tech/gps_bridge/internal/gps"
)

// fields reads typed values out of a sentence. The first failure sticks;
// later calls return zero values so parsers can read straight through and
// check err once at the end.
type fields struct {
	s   Sentence
	err error
}

func newFields(s Sentence, minCount int) *fields {
	f := &fields{s: s}
	if len(s.Fields) < minCount {
		f.err = &FieldError{
			Kind:  s.Kind,
			Field: -1,
			Err:   fmt.Errorf("want at least %d fields, got %d", minCount, len(s.Fields)),
		}
	}
	return f
}

func (f *fields) fail(i int, err error) {
	if f.err == nil {
		f.err = &FieldError{Kind: f.s.Kind, Field: i, Err: err}
	}
}

func (f *fields) count() int {
	return len(f.s.Fields)
}

func (f *fields) str(i int) string {
	if f.err != nil || i >= len(f.s.Fields) {
		return ""
	}
	return strings.TrimSpace(f.s.Fields[i])
}

func (f *fields) float(i int) *float64 {
	v := f.str(i)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f.fail(i, fmt.Errorf("invalid number %q", v))
		return nil
	}
	return &n
}

func (f *fields) integer(i int) *int {
	v := f.str(i)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f.fail(i, fmt.Errorf("invalid integer %q", v))
		return nil
	}
	return &n
}

// integerOr returns def for an empty field.
func (f *fields) integerOr(i int, def int) int {
	if p := f.integer(i); p != nil {
		return *p
	}
	return def
}

// coord reads a coordinate at i and its hemisphere letter at i+1. Both empty
// means "not reported"; only one of them empty is an error.
func (f *fields) coord(i int) *float64 {
	v, hemi := f.str(i), f.str(i+1)
	if v == "" && hemi == "" {
		return nil
	}
	c, err := gps.ParseCoordinate(v, hemi)
	if err != nil {
		f.fail(i, err)
		return nil
	}
	return &c
}

func (f *fields) time(i int) *gps.TimeOfDay {
	v := f.str(i)
	if v == "" {
		return nil
	}
	t, err := gps.ParseTimeOfDay(v)
	if err != nil {
		f.fail(i, err)
		return nil
	}
	return &t
}

func (f *fields) date(i int) *gps.Date {
	v := f.str(i)
	if v == "" {
		return nil
	}
	d, err := gps.ParseDate(v)
	if err != nil {
		f.fail(i, err)
		return nil
	}
	return &d
}

// status reads an A/V validity flag.
func (f *fields) status(i int) bool {
	switch v := f.str(i); v {
	case "A":
		return true
	case "V":
		return false
	default:
		if f.err == nil {
			f.fail(i, fmt.Errorf("invalid status %q", v))
		}
		return false
	}
}
