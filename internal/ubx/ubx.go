// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ubx builds u-blox binary protocol frames.
package ubx

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	Sync1 = 0xB5
	Sync2 = 0x62

	ClassCFG = 0x06
	IDRate   = 0x08

	headerLen = 6 // sync1 sync2 class id len(2)
)

// Time references for CFG-RATE.
const (
	TimeRefUTC uint16 = 0
	TimeRefGPS uint16 = 1
)

// Measurement period limits accepted by u-blox 6/7/8 receivers.
const (
	MinMeasurement = 25 * time.Millisecond
	MaxMeasurement = 65535 * time.Millisecond
)

// Checksum is the 8-bit Fletcher checksum over class, id, length and payload.
func Checksum(data []byte) (ckA, ckB byte) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// Encode frames a payload as sync, class, id, little-endian length, payload
// and checksum.
func Encode(class, id byte, payload []byte) []byte {
	buf := make([]byte, 0, headerLen+len(payload)+2)
	buf = append(buf, Sync1, Sync2, class, id)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	ckA, ckB := Checksum(buf[2:])
	return append(buf, ckA, ckB)
}

// Verify reports whether frame is a complete UBX frame with a valid checksum.
func Verify(frame []byte) bool {
	if len(frame) < headerLen+2 || frame[0] != Sync1 || frame[1] != Sync2 {
		return false
	}
	n := int(binary.LittleEndian.Uint16(frame[4:6]))
	if len(frame) != headerLen+n+2 {
		return false
	}
	ckA, ckB := Checksum(frame[2 : headerLen+n])
	return frame[headerLen+n] == ckA && frame[headerLen+n+1] == ckB
}

// RateCommand builds CFG-RATE setting the navigation measurement period,
// one navigation solution per measurement, aligned to GPS time. 100ms
// yields B5 62 06 08 06 00 64 00 01 00 01 00 7A 12.
func RateCommand(measurement time.Duration) ([]byte, error) {
	if measurement < MinMeasurement || measurement > MaxMeasurement {
		return nil, fmt.Errorf("ubx: measurement period %v outside [%v, %v]", measurement, MinMeasurement, MaxMeasurement)
	}
	payload := make([]byte, 0, 6)
	payload = binary.LittleEndian.AppendUint16(payload, uint16(measurement/time.Millisecond))
	payload = binary.LittleEndian.AppendUint16(payload, 1) // navRate
	payload = binary.LittleEndian.AppendUint16(payload, TimeRefGPS)
	return Encode(ClassCFG, IDRate, payload), nil
}
