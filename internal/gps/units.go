package gps

import (
	"fmt"
	"strconv"
	"strings"
)

// KPHPerKnot is the exact number of km/h in one knot.
const KPHPerKnot = 1.852

// KnotsToKPH converts a speed in knots to km/h.
func KnotsToKPH(knots float64) float64 {
	return knots * KPHPerKnot
}

// KPHToKnots converts a speed in km/h to knots.
func KPHToKnots(kph float64) float64 {
	return kph / KPHPerKnot
}

// ApplyHemisphere signs a non-negative coordinate magnitude: S and W negate.
func ApplyHemisphere(magnitude float64, hemi string) (float64, error) {
	switch strings.ToUpper(strings.TrimSpace(hemi)) {
	case "N", "E":
		return magnitude, nil
	case "S", "W":
		return -magnitude, nil
	default:
		return 0, fmt.Errorf("invalid hemisphere %q", hemi)
	}
}

// ParseDegreesMinutes converts NMEA ddmm.mmmm / dddmm.mmmm to decimal degrees.
// The last two digits of the integer part are whole minutes.
func ParseDegreesMinutes(v string) (float64, error) {
	v = strings.TrimSpace(v)
	intPart := v
	if dot := strings.IndexByte(v, '.'); dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return 0, fmt.Errorf("coordinate %q too short", v)
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil || deg < 0 {
		return 0, fmt.Errorf("coordinate %q: bad degrees", v)
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil || mins < 0 || mins >= 60 {
		return 0, fmt.Errorf("coordinate %q: bad minutes", v)
	}
	return float64(deg) + mins/60.0, nil
}

// ParseCoordinate parses an NMEA coordinate and its hemisphere letter.
func ParseCoordinate(v, hemi string) (float64, error) {
	mag, err := ParseDegreesMinutes(v)
	if err != nil {
		return 0, err
	}
	return ApplyHemisphere(mag, hemi)
}

// ParseTimeOfDay parses hhmmss[.sss].
func ParseTimeOfDay(v string) (TimeOfDay, error) {
	v = strings.TrimSpace(v)
	if len(v) < 6 {
		return TimeOfDay{}, fmt.Errorf("time %q too short", v)
	}
	h, err1 := strconv.Atoi(v[0:2])
	m, err2 := strconv.Atoi(v[2:4])
	s, err3 := strconv.Atoi(v[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return TimeOfDay{}, fmt.Errorf("time %q not numeric", v)
	}
	// 60 is allowed for leap seconds.
	if h > 23 || m > 59 || s > 60 || h < 0 || m < 0 || s < 0 {
		return TimeOfDay{}, fmt.Errorf("time %q out of range", v)
	}

	t := TimeOfDay{Hour: h, Minute: m, Second: s}
	if len(v) > 6 {
		if v[6] != '.' {
			return TimeOfDay{}, fmt.Errorf("time %q: bad fraction", v)
		}
		frac, err := strconv.ParseFloat("0"+v[6:], 64)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("time %q: bad fraction", v)
		}
		t.Millisecond = int(frac*1000 + 0.5)
		if t.Millisecond > 999 {
			t.Millisecond = 999
		}
	}
	return t, nil
}

// ParseDate parses ddmmyy. Two digit years are taken to be 20yy.
func ParseDate(v string) (Date, error) {
	v = strings.TrimSpace(v)
	if len(v) != 6 {
		return Date{}, fmt.Errorf("date %q: want ddmmyy", v)
	}
	d, err1 := strconv.Atoi(v[0:2])
	m, err2 := strconv.Atoi(v[2:4])
	y, err3 := strconv.Atoi(v[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return Date{}, fmt.Errorf("date %q not numeric", v)
	}
	if d < 1 || d > 31 || m < 1 || m > 12 || y < 0 {
		return Date{}, fmt.Errorf("date %q out of range", v)
	}
	return Date{Day: d, Month: m, Year: 2000 + y}, nil
}
