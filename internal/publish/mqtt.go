// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/tevino/abool/v2"

	"github.com/relabs-tech/gps_bridge/internal/metrics"
)

// Connect dials the broker. Paho keeps reconnecting on its own afterwards.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			log.Printf("mqtt: connected to %s as %s", broker, clientID)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// Options tunes an MQTTPublisher.
type Options struct {
	Retained    bool
	OnlyChanges bool // skip a publish when the topic already carries the payload
	QueueSize   int
	Timeout     time.Duration // per-message wait for the broker, 0 means 5s
}

type message struct {
	topic   string
	payload string
	qos     byte
}

// MQTTPublisher is a Sink backed by a paho client. Publish never waits on
// the network: messages go through a bounded queue drained by one worker,
// and are dropped when the queue is full.
type MQTTPublisher struct {
	client  mqtt.Client
	opts    Options
	metrics *metrics.Metrics

	mu     sync.RWMutex // guards sends on queue against Close
	queue  chan message
	closed *abool.AtomicBool
	done   chan struct{}

	last cmap.ConcurrentMap[string, string]
}

func NewMQTTPublisher(client mqtt.Client, opts Options, m *metrics.Metrics) *MQTTPublisher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	p := &MQTTPublisher{
		client:  client,
		opts:    opts,
		metrics: m,
		queue:   make(chan message, opts.QueueSize),
		closed:  abool.New(),
		done:    make(chan struct{}),
		last:    cmap.New[string](),
	}
	go p.run()
	return p
}

func (p *MQTTPublisher) Publish(topic, payload string, qos byte) error {
	if err := checkMessage(topic, payload, qos); err != nil {
		return err
	}
	if p.opts.OnlyChanges {
		if prev, ok := p.last.Get(topic); ok && prev == payload {
			p.metrics.PublishSkipped.Inc()
			return nil
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.IsSet() {
		return ErrClosed
	}
	p.last.Set(topic, payload)
	select {
	case p.queue <- message{topic: topic, payload: payload, qos: qos}:
		return nil
	default:
		p.last.Remove(topic)
		p.metrics.PublishDropped.Inc()
		return fmt.Errorf("%w: %s", ErrQueueFull, topic)
	}
}

func (p *MQTTPublisher) run() {
	defer close(p.done)
	for m := range p.queue {
		token := p.client.Publish(m.topic, m.qos, p.opts.Retained, m.payload)
		var err error
		if !token.WaitTimeout(p.opts.Timeout) {
			err = fmt.Errorf("timed out after %v", p.opts.Timeout)
		} else {
			err = token.Error()
		}
		if err != nil {
			log.Printf("mqtt: publish %s: %v", m.topic, err)
			// Forget the value so the next identical reading is retried.
			p.last.Remove(m.topic)
			p.metrics.PublishFailures.Inc()
			continue
		}
		p.metrics.Published.Inc()
	}
}

// Latest returns the last value accepted for every topic.
func (p *MQTTPublisher) Latest() map[string]string {
	return p.last.Items()
}

// Close stops accepting messages and waits for the queue to drain.
func (p *MQTTPublisher) Close() {
	p.mu.Lock()
	if p.closed.SetToIf(false, true) {
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
}
