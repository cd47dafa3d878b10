// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bridge runs the GPS read loop: frame, validate, decode, aggregate
// and publish, in wire order on a single goroutine.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/relabs-tech/gps_bridge/internal/gps"
	"github.com/relabs-tech/gps_bridge/internal/metrics"
	"github.com/relabs-tech/gps_bridge/internal/nmea0183"
	"github.com/relabs-tech/gps_bridge/internal/publish"
)

const readBufferSize = 512

type Options struct {
	BaseTopic        string
	QoS              byte
	MaxSentenceBytes int
	ReadErrorLimit   int           // consecutive failed reads tolerated, <=0 means 1
	StatsInterval    time.Duration // 0 disables the periodic summary
}

// Stats is a point-in-time copy of the pipeline counters.
type Stats struct {
	Bytes          uint64
	Sentences      uint64
	Published      uint64
	ChecksumErrors uint64
	ParseErrors    uint64
	PublishErrors  uint64
}

type counters struct {
	bytes, sentences, published                atomic.Uint64
	checksumErrors, parseErrors, publishErrors atomic.Uint64
}

// Pipeline is not safe for concurrent Feed calls; Stats may be read from
// any goroutine.
type Pipeline struct {
	opts    Options
	sink    publish.Sink
	metrics *metrics.Metrics

	framer *nmea0183.Framer
	agg    *nmea0183.Aggregator

	// last framer/aggregator counter values pushed to Prometheus
	seenOverflows, seenNoise     uint64
	seenCompleted, seenDiscarded uint64

	c counters
}

func New(sink publish.Sink, m *metrics.Metrics, opts Options) *Pipeline {
	if opts.ReadErrorLimit <= 0 {
		opts.ReadErrorLimit = 1
	}
	return &Pipeline{
		opts:    opts,
		sink:    sink,
		metrics: m,
		framer:  nmea0183.NewFramer(opts.MaxSentenceBytes),
		agg:     nmea0183.NewAggregator(),
	}
}

// Run reads r until ctx is cancelled or the stream fails. io.EOF fails
// immediately; other read errors fail after ReadErrorLimit in a row.
// Cancelling ctx does not interrupt a blocked Read: close the stream too.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) error {
	if p.opts.StatsInterval > 0 {
		go p.logStats(ctx)
	}

	buf := make([]byte, readBufferSize)
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := r.Read(buf)
		if n > 0 {
			failures = 0
			p.Feed(buf[:n])
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		p.metrics.ReadErrors.Inc()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("gps: read: %w", err)
		}
		failures++
		if failures >= p.opts.ReadErrorLimit {
			return fmt.Errorf("gps: read: %d consecutive failures: %w", failures, err)
		}
		log.Printf("gps: read error (%d/%d): %v", failures, p.opts.ReadErrorLimit, err)
	}
}

// Feed processes one chunk of the byte stream.
func (p *Pipeline) Feed(chunk []byte) {
	p.c.bytes.Add(uint64(len(chunk)))
	p.metrics.BytesRead.Add(float64(len(chunk)))

	p.framer.Write(chunk)
	for line := range p.framer.Sentences() {
		p.HandleSentence(line)
	}
	p.syncFramer()
}

// HandleSentence runs one framed candidate through validation, decoding and
// publishing. Every failure is logged and counted; none stops the pipeline.
func (p *Pipeline) HandleSentence(line string) {
	s, err := nmea0183.Validate(line)
	if err != nil {
		if errors.Is(err, nmea0183.ErrChecksumMismatch) {
			p.c.checksumErrors.Add(1)
			p.metrics.ChecksumMismatches.Inc()
		} else {
			p.metrics.Malformed.Inc()
		}
		log.Printf("gps: dropped %q: %v", line, err)
		return
	}
	p.c.sentences.Add(1)
	p.metrics.Sentences.WithLabelValues(s.Kind.String()).Inc()

	rec, err := nmea0183.Decode(s)
	if err != nil {
		p.c.parseErrors.Add(1)
		p.metrics.ParseFailures.WithLabelValues(s.Kind.String()).Inc()
		log.Printf("gps: dropped %q: %v", line, err)
		return
	}
	if rec == nil {
		return
	}

	var pairs []publish.Pair
	switch r := rec.(type) {
	case *gps.SatelliteBatch:
		view, done := p.agg.Add(r)
		p.syncAggregator()
		if !done {
			return
		}
		pairs = publish.MapSatelliteView(view)
	case *gps.Text:
		p.agg.Note(r)
		pairs = publish.MapText(r)
	default:
		pairs = publish.MapRecord(rec)
	}
	p.emit(pairs)
}

func (p *Pipeline) emit(pairs []publish.Pair) {
	for _, pr := range pairs {
		topic := p.opts.BaseTopic + pr.Topic
		if err := p.sink.Publish(topic, pr.Payload, p.opts.QoS); err != nil {
			p.c.publishErrors.Add(1)
			log.Printf("gps: publish %s: %v", topic, err)
			continue
		}
		p.c.published.Add(1)
	}
}

func (p *Pipeline) syncFramer() {
	if d := p.framer.Overflows - p.seenOverflows; d > 0 {
		p.metrics.FramerOverflows.Add(float64(d))
		log.Printf("gps: discarded %d overlong fragment(s)", d)
	}
	if d := p.framer.Noise - p.seenNoise; d > 0 {
		p.metrics.FramerNoise.Add(float64(d))
	}
	p.seenOverflows, p.seenNoise = p.framer.Overflows, p.framer.Noise
}

func (p *Pipeline) syncAggregator() {
	if d := p.agg.Completed - p.seenCompleted; d > 0 {
		p.metrics.CyclesCompleted.Add(float64(d))
	}
	if d := p.agg.Discarded - p.seenDiscarded; d > 0 {
		p.metrics.CyclesDiscarded.Add(float64(d))
	}
	p.seenCompleted, p.seenDiscarded = p.agg.Completed, p.agg.Discarded
}

func (p *Pipeline) Stats() Stats {
	return Stats{
		Bytes:          p.c.bytes.Load(),
		Sentences:      p.c.sentences.Load(),
		Published:      p.c.published.Load(),
		ChecksumErrors: p.c.checksumErrors.Load(),
		ParseErrors:    p.c.parseErrors.Load(),
		PublishErrors:  p.c.publishErrors.Load(),
	}
}

func (p *Pipeline) logStats(ctx context.Context) {
	t := time.NewTicker(p.opts.StatsInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s := p.Stats()
			log.Printf("gps: %s read, %s sentences, %s published, %s checksum errors, %s parse errors, %s publish errors",
				humanize.Bytes(s.Bytes),
				humanize.Comma(int64(s.Sentences)),
				humanize.Comma(int64(s.Published)),
				humanize.Comma(int64(s.ChecksumErrors)),
				humanize.Comma(int64(s.ParseErrors)),
				humanize.Comma(int64(s.PublishErrors)),
			)
		}
	}
}
