// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package device owns the serial link to the GPS receiver.
package device

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/ratelimit"
)

// CommandInterval spaces configuration frames so the receiver's input
// buffer is never flooded.
const CommandInterval = 250 * time.Millisecond

// Port is an open receiver link. Reads come from the embedded stream;
// writes are reserved for configuration commands.
type Port struct {
	io.ReadWriteCloser

	name    string
	limiter ratelimit.Limiter

	closeOnce sync.Once
	closeErr  error
}

// Open opens the serial device at 8N1. Reads block until at least one byte
// arrives; Close unblocks them.
func Open(name string, baud uint) (*Port, error) {
	if name == "" {
		return nil, fmt.Errorf("device: no serial port configured")
	}
	opts := serial.OpenOptions{
		PortName:        name,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}
	rwc, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("device: open %s: %w", name, err)
	}
	log.Printf("device: serial port opened on %s at %d baud", name, baud)
	return NewPort(name, rwc), nil
}

// NewPort wraps an already open stream, e.g. a pty or a test pipe.
func NewPort(name string, rwc io.ReadWriteCloser) *Port {
	return &Port{
		ReadWriteCloser: rwc,
		name:            name,
		limiter:         ratelimit.New(1, ratelimit.Per(CommandInterval)),
	}
}

func (p *Port) Name() string { return p.name }

// SendCommands writes each frame in order, paced by CommandInterval. The
// receiver's acknowledgement is not read back.
func (p *Port) SendCommands(frames ...[]byte) error {
	for i, f := range frames {
		p.limiter.Take()
		if _, err := p.Write(f); err != nil {
			return fmt.Errorf("device: write command %d to %s: %w", i, p.name, err)
		}
	}
	return nil
}

// Close is safe to call more than once.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.ReadWriteCloser.Close()
	})
	return p.closeErr
}
