package gps

import "fmt"

// Constellation is the GNSS a satellite belongs to, derived from the GSV talker.
type Constellation int

const (
	ConstellationUnknown Constellation = iota
	ConstellationGPS
	ConstellationGLONASS
	ConstellationGalileo
	ConstellationBeiDou
)

// ConstellationOf maps an NMEA talker ID to a constellation.
func ConstellationOf(talker string) Constellation {
	switch talker {
	case "GP":
		return ConstellationGPS
	case "GL":
		return ConstellationGLONASS
	case "GA":
		return ConstellationGalileo
	case "GB", "BD":
		return ConstellationBeiDou
	default:
		return ConstellationUnknown
	}
}

func (c Constellation) String() string {
	switch c {
	case ConstellationGPS:
		return "GPS"
	case ConstellationGLONASS:
		return "GLONASS"
	case ConstellationGalileo:
		return "Galileo"
	case ConstellationBeiDou:
		return "BeiDou"
	default:
		return "Unknown"
	}
}

// Satellite is one entry of a GSV sentence.
type Satellite struct {
	PRN           int           `json:"prn"`
	Constellation Constellation `json:"constellation"`
	Elevation     int           `json:"elevation"` // degrees
	Azimuth       int           `json:"azimuth"`   // degrees
	SNR           int           `json:"snr"`       // dB-Hz, 0 when not tracked
}

// InView reports whether the receiver is actually tracking the satellite.
func (s Satellite) InView() bool {
	return s.SNR > 0
}

// Descriptor is the human readable per-satellite line published for each PRN.
func (s Satellite) Descriptor() string {
	return fmt.Sprintf("PRN: %d, Type: %s, Elevation: %d, Azimuth: %d, SNR: %d, In View: %t",
		s.PRN, s.Constellation, s.Elevation, s.Azimuth, s.SNR, s.InView())
}

// SatelliteBatch is a single GSV sentence: one slice of a multi-sentence cycle.
type SatelliteBatch struct {
	Talker     string
	Sequence   int // 1-based sentence number within the cycle
	Total      int // number of sentences in the cycle
	InView     int // total satellites in view
	Satellites []Satellite
}

func (*SatelliteBatch) record() {}

// SatelliteView is a completed GSV cycle for one constellation.
type SatelliteView struct {
	Constellation Constellation `json:"constellation"`
	InView        int           `json:"in_view"`
	Satellites    []Satellite   `json:"satellites"`

	// Latest values announced by the receiver in TXT sentences, if any.
	AntennaStatus string `json:"antenna_status,omitempty"`
	GNSSConfig    string `json:"gnss_config,omitempty"`
}
