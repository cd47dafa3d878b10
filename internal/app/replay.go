// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gps_bridge/internal/bridge"
	"github.com/relabs-tech/gps_bridge/internal/config"
	"github.com/relabs-tech/gps_bridge/internal/metrics"
)

var lineEnd = []byte("\r\n")

// RunReplay publishes a recorded NMEA log as if it came from the receiver,
// one line per interval. With loop set the log starts over at end of file.
func RunReplay(path string, interval time.Duration, loop bool) error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("config not loaded")
	}
	if interval <= 0 {
		return fmt.Errorf("replay interval must be positive, got %v", interval)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	sink, closeOutputs, err := startOutputs(cfg, m)
	if err != nil {
		return err
	}
	defer closeOutputs()

	p := newPipeline(cfg, sink, m)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("replay: feeding %s every %v", path, interval)
	for {
		n, err := replayFile(ctx, path, p, ticker.C)
		if err != nil {
			return err
		}
		if !loop || n == 0 || ctx.Err() != nil {
			break
		}
	}

	s := p.Stats()
	log.Printf("replay: done after %d sentences, %d published", s.Sentences, s.Published)
	return nil
}

func replayFile(ctx context.Context, path string, p *bridge.Pipeline, tick <-chan time.Time) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("replay: %w", err)
	}
	defer f.Close()
	return replay(ctx, f, p, tick)
}

// replay feeds r into p one non-blank line per tick and returns how many
// lines it fed.
func replay(ctx context.Context, r io.Reader, p *bridge.Pipeline, tick <-chan time.Time) (int, error) {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return n, nil
		case <-tick:
		}
		p.Feed(line)
		p.Feed(lineEnd)
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("replay: read: %w", err)
	}
	return n, nil
}
