package nmea0183

import (
	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/gps_bridge/internal/gps"
)

// Kind is the closed set of sentence types the bridge understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindGGA
	KindRMC
	KindVTG
	KindGSA
	KindGLL
	KindGSV
	KindTXT
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindGGA:     nmea.TypeGGA,
	KindRMC:     nmea.TypeRMC,
	KindVTG:     nmea.TypeVTG,
	KindGSA:     nmea.TypeGSA,
	KindGLL:     nmea.TypeGLL,
	KindGSV:     nmea.TypeGSV,
	KindTXT:     nmea.TypeTXT,
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Kinds lists every known kind, in declaration order.
func Kinds() []Kind {
	return []Kind{KindUnknown, KindGGA, KindRMC, KindVTG, KindGSA, KindGLL, KindGSV, KindTXT}
}

// KindOf maps the 5-character address field (talker + type) to a Kind.
// Proprietary and future sentence types map to KindUnknown.
func KindOf(address string) Kind {
	if len(address) != 5 || address[0] == 'P' {
		return KindUnknown
	}
	switch address[2:] {
	case nmea.TypeGGA:
		return KindGGA
	case nmea.TypeRMC:
		return KindRMC
	case nmea.TypeVTG:
		return KindVTG
	case nmea.TypeGSA:
		return KindGSA
	case nmea.TypeGLL:
		return KindGLL
	case nmea.TypeGSV:
		return KindGSV
	case nmea.TypeTXT:
		return KindTXT
	default:
		return KindUnknown
	}
}

// Decode routes a validated sentence to its parser. Unknown kinds yield a
// nil record and a nil error: they are ignored, not failures.
func Decode(s Sentence) (gps.Record, error) {
	switch s.Kind {
	case KindGGA:
		return parseGGA(s)
	case KindRMC:
		return parseRMC(s)
	case KindVTG:
		return parseVTG(s)
	case KindGSA:
		return parseGSA(s)
	case KindGLL:
		return parseGLL(s)
	case KindGSV:
		return parseGSV(s)
	case KindTXT:
		return parseTXT(s)
	default:
		return nil, nil
	}
}
