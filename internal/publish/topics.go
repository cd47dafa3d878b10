// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"strconv"

	"github.com/relabs-tech/gps_bridge/internal/gps"
)

// Topic suffixes, relative to the configured base topic.
const (
	TopicCourse       = "CRS"
	TopicTime         = "TME"
	TopicDate         = "DTE"
	TopicLatitude     = "LAT"
	TopicLongitude    = "LNG"
	TopicSpeed        = "SPD" // km/h
	TopicSpeedKnots   = "SPD_KTS"
	TopicSpeedKPH     = "SPD_KPH"
	TopicAltitude     = "ALT"
	TopicQuality      = "QTY"
	TopicText         = "TXT"
	TopicGLLTime      = "GLL_TME"
	TopicGLLLatitude  = "GLL_LAT"
	TopicGLLLongitude = "GLL_LNG"

	TopicSatInView        = "SAT/GLOBAL/NUM"
	TopicSatUsed          = "SAT/GLOBAL/USED"
	TopicSatHDOP          = "SAT/GLOBAL/HDOP"
	TopicSatPDOP          = "SAT/GLOBAL/PDOP"
	TopicSatVDOP          = "SAT/GLOBAL/VDOP"
	TopicAntennaStatus    = "SAT/GLOBAL/ANTSTATUS"
	TopicPowerFlags       = "SAT/GLOBAL/PF"
	TopicGNSSConfig       = "SAT/GLOBAL/GNSS_OTP"
	topicVehiclesPrefix   = "SAT/VEHICLES/"
	topicVehicleFixSuffix = "/FIX_TYPE"
)

// TopicVehicle is the per-satellite descriptor topic.
func TopicVehicle(prn int) string {
	return topicVehiclesPrefix + strconv.Itoa(prn)
}

// TopicVehicleFixType is the per-satellite GSA fix type topic.
func TopicVehicleFixType(prn int) string {
	return TopicVehicle(prn) + topicVehicleFixSuffix
}

var textTopics = map[string]string{
	gps.TextAntennaStatus: TopicAntennaStatus,
	gps.TextPowerFlags:    TopicPowerFlags,
	gps.TextGNSSConfig:    TopicGNSSConfig,
}

// Pair is one message to publish: a topic suffix and its payload.
type Pair struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

type pairs []Pair

func (p *pairs) str(topic, v string) {
	*p = append(*p, Pair{Topic: topic, Payload: v})
}

func (p *pairs) float(topic string, v *float64) {
	if v != nil {
		p.str(topic, formatFloat(*v))
	}
}

func (p *pairs) integer(topic string, v int) {
	p.str(topic, strconv.Itoa(v))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MapFix converts a GGA, RMC, VTG or GLL fix. Position and motion from a
// void RMC or GLL are left out; time and date are always kept.
func MapFix(f *gps.Fix) []Pair {
	var p pairs
	if f.Sentence == "GLL" {
		if f.Time != nil {
			p.str(TopicGLLTime, f.Time.String())
		}
		if f.Valid {
			p.float(TopicGLLLatitude, f.Latitude)
			p.float(TopicGLLLongitude, f.Longitude)
		}
		return p
	}

	trusted := f.Valid || f.Sentence != "RMC"
	if trusted {
		p.float(TopicCourse, f.CourseDeg)
	}
	if f.Time != nil {
		p.str(TopicTime, f.Time.String())
	}
	if f.Date != nil {
		p.str(TopicDate, f.Date.String())
	}
	if trusted {
		p.float(TopicLatitude, f.Latitude)
		p.float(TopicLongitude, f.Longitude)

		kph := f.SpeedKPH
		if kph == nil && f.SpeedKnots != nil {
			v := gps.KnotsToKPH(*f.SpeedKnots)
			kph = &v
		}
		p.float(TopicSpeed, kph)
		p.float(TopicSpeedKnots, f.SpeedKnots)
		p.float(TopicSpeedKPH, kph)
	}
	p.float(TopicAltitude, f.AltitudeM)
	if f.Quality != nil {
		p.integer(TopicQuality, int(*f.Quality))
	}
	if f.Satellites != nil {
		p.integer(TopicSatUsed, *f.Satellites)
	}
	p.float(TopicSatHDOP, f.HDOP)
	return p
}

// MapSatelliteView converts a completed GSV cycle: the in-view total and a
// descriptor per satellite.
func MapSatelliteView(v *gps.SatelliteView) []Pair {
	p := make(pairs, 0, len(v.Satellites)+1)
	p.integer(TopicSatInView, v.InView)
	for _, s := range v.Satellites {
		p.str(TopicVehicle(s.PRN), s.Descriptor())
	}
	return p
}

// MapActiveSatellites converts a GSA sentence.
func MapActiveSatellites(a *gps.ActiveSatellites) []Pair {
	p := make(pairs, 0, len(a.PRNs)+2)
	fixType := a.FixType.String()
	for _, prn := range a.PRNs {
		p.str(TopicVehicleFixType(prn), fixType)
	}
	p.float(TopicSatPDOP, a.PDOP)
	p.float(TopicSatVDOP, a.VDOP)
	return p
}

// MapText converts a TXT sentence, adding a SAT/GLOBAL entry for known
// KEY=value announcements.
func MapText(t *gps.Text) []Pair {
	var p pairs
	if t.Message == "" {
		return nil
	}
	p.str(TopicText, t.Message)
	if key, value, ok := t.Setting(); ok && value != "" {
		p.str(textTopics[key], value)
	}
	return p
}

// MapRecord dispatches on the record type. GSV batches map to nothing;
// they only publish once aggregated into a view.
func MapRecord(r gps.Record) []Pair {
	switch r := r.(type) {
	case *gps.Fix:
		return MapFix(r)
	case *gps.ActiveSatellites:
		return MapActiveSatellites(r)
	case *gps.Text:
		return MapText(r)
	default:
		return nil
	}
}
