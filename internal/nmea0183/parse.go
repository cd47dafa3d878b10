package nmea0183

import (
	"fmt"
	"strings"

	"github.com/relabs-tech/gps_bridge/internal/gps"
)

// GGA: Global Positioning System Fix Data
//
//	1: time (hhmmss.sss)
//	2,3: latitude, N/S
//	4,5: longitude, E/W
//	6: fix quality (0 invalid, 1 GPS, 2 DGPS, ...)
//	7: satellites used
//	8: HDOP
//	9: altitude (meters), 10: unit
func parseGGA(s Sentence) (gps.Record, error) {
	f := newFields(s, 10)
	fix := &gps.Fix{
		Sentence:   s.Type,
		Time:       f.time(1),
		Latitude:   f.coord(2),
		Longitude:  f.coord(4),
		Satellites: f.integer(7),
		HDOP:       f.float(8),
		AltitudeM:  f.float(9),
		Valid:      true,
	}
	if q := f.integer(6); q != nil {
		if *q < 0 || *q > 9 {
			f.fail(6, fmt.Errorf("fix quality %d out of range", *q))
		}
		quality := gps.FixQuality(*q)
		fix.Quality = &quality
		fix.Valid = quality != gps.FixInvalid
	}
	if f.err != nil {
		return nil, f.err
	}
	return fix, nil
}

// RMC: Recommended Minimum Specific GNSS Data
//
//	1: time
//	2: status (A valid, V void)
//	3,4: latitude, N/S
//	5,6: longitude, E/W
//	7: speed over ground (knots)
//	8: course over ground (degrees true)
//	9: date (ddmmyy)
//
// A void fix is still parsed; Valid tells consumers not to trust it.
func parseRMC(s Sentence) (gps.Record, error) {
	f := newFields(s, 10)
	fix := &gps.Fix{
		Sentence:   s.Type,
		Time:       f.time(1),
		Valid:      f.status(2),
		Latitude:   f.coord(3),
		Longitude:  f.coord(5),
		SpeedKnots: f.float(7),
		CourseDeg:  f.float(8),
		Date:       f.date(9),
	}
	if f.err != nil {
		return nil, f.err
	}
	return fix, nil
}

// VTG: Course Over Ground and Ground Speed
//
//	1: course (degrees true), 2: T
//	3: course (degrees magnetic), 4: M
//	5: speed (knots), 6: N
//	7: speed (km/h), 8: K
func parseVTG(s Sentence) (gps.Record, error) {
	f := newFields(s, 9)
	fix := &gps.Fix{
		Sentence:   s.Type,
		CourseDeg:  f.float(1),
		SpeedKnots: f.float(5),
		SpeedKPH:   f.float(7),
		Valid:      true,
	}
	if f.err != nil {
		return nil, f.err
	}
	return fix, nil
}

// GLL: Geographic Position
//
//	1,2: latitude, N/S
//	3,4: longitude, E/W
//	5: time
//	6: status (A valid, V void)
func parseGLL(s Sentence) (gps.Record, error) {
	f := newFields(s, 7)
	fix := &gps.Fix{
		Sentence:  s.Type,
		Latitude:  f.coord(1),
		Longitude: f.coord(3),
		Time:      f.time(5),
		Valid:     f.status(6),
	}
	if f.err != nil {
		return nil, f.err
	}
	return fix, nil
}

// GSA: GNSS DOP and Active Satellites
//
//	1: mode (A automatic, M manual)
//	2: fix type (1 none, 2 2D, 3 3D)
//	3-14: PRNs used in the solution
//	15: PDOP, 16: HDOP, 17: VDOP
func parseGSA(s Sentence) (gps.Record, error) {
	f := newFields(s, 18)
	act := &gps.ActiveSatellites{
		Mode: f.str(1),
		PDOP: f.float(15),
		HDOP: f.float(16),
		VDOP: f.float(17),
	}

	switch ft := f.integerOr(2, int(gps.FixNone)); ft {
	case int(gps.FixNone), int(gps.Fix2D), int(gps.Fix3D):
		act.FixType = gps.FixType(ft)
	default:
		f.fail(2, fmt.Errorf("fix type %d out of range", ft))
	}

	for i := 3; i <= 14; i++ {
		if prn := f.integer(i); prn != nil {
			act.PRNs = append(act.PRNs, *prn)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return act, nil
}

// GSV: GNSS Satellites in View
//
//	1: number of sentences in the cycle
//	2: sequence number of this sentence
//	3: satellites in view
//	4-7, 8-11, ...: PRN, elevation, azimuth, SNR (up to four groups)
//
// NMEA 4.10 receivers append a signal ID, which the group count ignores.
func parseGSV(s Sentence) (gps.Record, error) {
	f := newFields(s, 4)
	total := f.integerOr(1, 0)
	seq := f.integerOr(2, 0)
	b := &gps.SatelliteBatch{
		Talker:   s.Talker,
		Total:    total,
		Sequence: seq,
		InView:   f.integerOr(3, 0),
	}
	if f.err == nil && (total < 1 || seq < 1 || seq > total) {
		f.fail(2, fmt.Errorf("sentence %d of %d", seq, total))
	}

	constellation := gps.ConstellationOf(s.Talker)
	groups := (f.count() - 4) / 4
	if groups > 4 {
		groups = 4
	}
	for g := 0; g < groups; g++ {
		i := 4 + g*4
		prn := f.integer(i)
		if prn == nil {
			continue
		}
		b.Satellites = append(b.Satellites, gps.Satellite{
			PRN:           *prn,
			Constellation: constellation,
			Elevation:     f.integerOr(i+1, 0),
			Azimuth:       f.integerOr(i+2, 0),
			SNR:           f.integerOr(i+3, 0),
		})
	}
	if f.err != nil {
		return nil, f.err
	}
	return b, nil
}

// txtNoise is receiver chatter that is not worth publishing.
const txtNoise = "txbuf alloc"

// TXT: Text Transmission
//
//	1: total sentences, 2: sentence number
//	3: text identifier (00 error, 01 warning, 02 notice, 07 user)
//	4: free text, which may itself contain commas
func parseTXT(s Sentence) (gps.Record, error) {
	f := newFields(s, 5)
	t := &gps.Text{Type: f.integerOr(3, 0)}
	if f.err != nil {
		return nil, f.err
	}
	t.Message = strings.TrimSpace(strings.Join(s.Fields[4:], fieldSep))
	if strings.Contains(t.Message, txtNoise) {
		return nil, nil
	}
	return t, nil
}
