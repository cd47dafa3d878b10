package gps

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is anything a decoded NMEA sentence turns into.
type Record interface {
	record()
}

// FixQuality is the GGA fix quality indicator.
type FixQuality int

const (
	FixInvalid FixQuality = 0
	FixGPS     FixQuality = 1
	FixDGPS    FixQuality = 2
)

func (q FixQuality) String() string {
	switch q {
	case FixInvalid:
		return "invalid"
	case FixGPS:
		return "GPS"
	case FixDGPS:
		return "DGPS"
	default:
		// RTK, estimated, manual etc. are passed through numerically.
		return "code(" + strconv.Itoa(int(q)) + ")"
	}
}

// TimeOfDay is a UTC time as reported by the receiver.
type TimeOfDay struct {
	Hour, Minute, Second int
	Millisecond          int
}

// String formats the time as HH:MM:SS, dropping the fractional part.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Date is a UTC calendar date as reported by RMC.
type Date struct {
	Day, Month, Year int // Year is four digits
}

// String formats the date as dd.mm.YYYY.
func (d Date) String() string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, d.Month, d.Year)
}

// Fix is a partial position/velocity fix produced by GGA, RMC, VTG or GLL.
// Fields a sentence does not carry (or carries empty) stay nil; zero is a
// legitimate value for every one of them.
type Fix struct {
	Sentence string `json:"sentence"` // "GGA", "RMC", "VTG" or "GLL"

	Time *TimeOfDay `json:"time,omitempty"`
	Date *Date      `json:"date,omitempty"`

	Latitude  *float64 `json:"lat,omitempty"` // decimal degrees, south negative
	Longitude *float64 `json:"lon,omitempty"` // decimal degrees, west negative
	AltitudeM *float64 `json:"alt_m,omitempty"`

	CourseDeg  *float64 `json:"course_deg,omitempty"`
	SpeedKnots *float64 `json:"speed_knots,omitempty"`
	SpeedKPH   *float64 `json:"speed_kph,omitempty"` // only when the sentence reports it

	Quality    *FixQuality `json:"quality,omitempty"`
	Satellites *int        `json:"satellites,omitempty"`
	HDOP       *float64    `json:"hdop,omitempty"`

	// Valid is false for RMC/GLL sentences flagged "V" (void).
	Valid bool `json:"valid"`
}

func (*Fix) record() {}

// FixType is the GSA solution dimensionality.
type FixType int

const (
	FixNone FixType = 1
	Fix2D   FixType = 2
	Fix3D   FixType = 3
)

func (t FixType) String() string {
	switch t {
	case FixNone:
		return "Not Available"
	case Fix2D:
		return "2D"
	case Fix3D:
		return "3D"
	default:
		return "Unknown"
	}
}

// ActiveSatellites is the content of one GSA sentence.
type ActiveSatellites struct {
	Mode    string   `json:"mode"` // "A" automatic, "M" manual
	FixType FixType  `json:"fix_type"`
	PRNs    []int    `json:"prns"`
	PDOP    *float64 `json:"pdop,omitempty"`
	HDOP    *float64 `json:"hdop,omitempty"`
	VDOP    *float64 `json:"vdop,omitempty"`
}

func (*ActiveSatellites) record() {}

// Text is a TXT sentence.
type Text struct {
	Type    int    `json:"type"` // 00 error, 01 warning, 02 notice, 07 user
	Message string `json:"message"`
}

func (*Text) record() {}

// Text keys the receiver announces as "KEY=value" messages.
const (
	TextAntennaStatus = "ANTSTATUS"
	TextPowerFlags    = "PF"
	TextGNSSConfig    = "GNSS OTP"
)

// Setting splits a "KEY=value" announcement for one of the known keys.
func (t *Text) Setting() (key, value string, ok bool) {
	for _, k := range [...]string{TextAntennaStatus, TextPowerFlags, TextGNSSConfig} {
		if v, found := strings.CutPrefix(t.Message, k+"="); found {
			return k, strings.TrimSpace(v), true
		}
	}
	return "", "", false
}
