package publish

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueFull is returned when a message is dropped to keep the reader moving.
	ErrQueueFull = errors.New("publish: queue full")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("publish: closed")
)

// Sink receives fully qualified topic/payload pairs. Implementations must
// not block the caller for long: the GPS read loop calls Publish inline.
type Sink interface {
	Publish(topic, payload string, qos byte) error
}

// Fanout publishes to every sink in order and joins their errors.
type Fanout []Sink

func (f Fanout) Publish(topic, payload string, qos byte) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(topic, payload, qos); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkMessage(topic, payload string, qos byte) error {
	if topic == "" {
		return fmt.Errorf("publish: empty topic")
	}
	if payload == "" {
		return fmt.Errorf("publish: empty payload for %s", topic)
	}
	if qos > 2 {
		return fmt.Errorf("publish: invalid qos %d for %s", qos, topic)
	}
	return nil
}
