package nmea0183

import (
	"github.com/relabs-tech/gps_bridge/internal/gps"
)

// CycleState is where a talker's GSV cycle stands. A cycle is complete only
// for the duration of the Add call that returns its view; it then starts
// over as empty.
type CycleState int

const (
	CycleEmpty CycleState = iota
	CycleAccumulating
)

func (s CycleState) String() string {
	if s == CycleAccumulating {
		return "accumulating"
	}
	return "empty"
}

type cycle struct {
	state  CycleState
	total  int
	next   int
	inView int
	sats   []gps.Satellite
}

func (c *cycle) reset(state CycleState) {
	c.state = state
	c.total, c.next, c.inView = 0, 0, 0
	c.sats = c.sats[:0]
}

// merge adds a satellite, replacing an earlier entry with the same PRN.
func (c *cycle) merge(s gps.Satellite) {
	for i := range c.sats {
		if c.sats[i].PRN == s.PRN {
			c.sats[i] = s
			return
		}
	}
	c.sats = append(c.sats, s)
}

// Aggregator reassembles multi-sentence GSV cycles, one per talker, so that
// interleaved GP/GL/GA/GB cycles stay apart. It also remembers the antenna
// status and GNSS configuration last announced in TXT sentences and stamps
// them onto every completed view. Not safe for concurrent use.
type Aggregator struct {
	cycles map[string]*cycle

	antennaStatus string
	gnssConfig    string

	// Completed counts views handed back to the caller.
	Completed uint64
	// Discarded counts partial cycles abandoned by a restart or an
	// inconsistent sentence.
	Discarded uint64
	// Dropped counts sentences that did not fit any open cycle.
	Dropped uint64
}

func NewAggregator() *Aggregator {
	return &Aggregator{cycles: make(map[string]*cycle)}
}

// State reports the cycle state for a talker.
func (a *Aggregator) State(talker string) CycleState {
	if c, ok := a.cycles[talker]; ok {
		return c.state
	}
	return CycleEmpty
}

// Add feeds one GSV sentence. It returns the finished view when b closes a
// cycle.
func (a *Aggregator) Add(b *gps.SatelliteBatch) (*gps.SatelliteView, bool) {
	c, ok := a.cycles[b.Talker]
	if !ok {
		c = &cycle{}
		a.cycles[b.Talker] = c
	}

	switch {
	case b.Sequence == 1:
		if c.state == CycleAccumulating {
			a.Discarded++
		}
		c.reset(CycleAccumulating)
		c.total = b.Total
		c.next = 1
	case c.state != CycleAccumulating || b.Sequence != c.next || b.Total != c.total:
		if c.state == CycleAccumulating {
			a.Discarded++
		}
		c.reset(CycleEmpty)
		a.Dropped++
		return nil, false
	}

	for _, s := range b.Satellites {
		c.merge(s)
	}
	c.inView = b.InView
	if b.Sequence < b.Total {
		c.next++
		return nil, false
	}

	view := &gps.SatelliteView{
		Constellation: gps.ConstellationOf(b.Talker),
		InView:        c.inView,
		Satellites:    append([]gps.Satellite(nil), c.sats...),
		AntennaStatus: a.antennaStatus,
		GNSSConfig:    a.gnssConfig,
	}
	c.reset(CycleEmpty)
	a.Completed++
	return view, true
}

// Note records receiver announcements carried by TXT sentences.
func (a *Aggregator) Note(t *gps.Text) {
	key, value, ok := t.Setting()
	if !ok {
		return
	}
	switch key {
	case gps.TextAntennaStatus:
		a.antennaStatus = value
	case gps.TextGNSSConfig:
		a.gnssConfig = value
	}
}
