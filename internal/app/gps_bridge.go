package app

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gps_bridge/internal/bridge"
	"github.com/relabs-tech/gps_bridge/internal/config"
	"github.com/relabs-tech/gps_bridge/internal/device"
	"github.com/relabs-tech/gps_bridge/internal/metrics"
	"github.com/relabs-tech/gps_bridge/internal/publish"
	"github.com/relabs-tech/gps_bridge/internal/ubx"
)

// RunGPSBridge opens the GPS serial port, optionally switches the receiver
// to the configured update rate, and publishes every decoded NMEA value to
// MQTT under the configured base topic until interrupted.
func RunGPSBridge() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("config not loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	sink, closeOutputs, err := startOutputs(cfg, m)
	if err != nil {
		return err
	}
	defer closeOutputs()

	// ---- 2) Open GPS serial port ----
	port, err := device.Open(cfg.GPSSerialPort, uint(cfg.GPSBaudRate))
	if err != nil {
		return err
	}
	defer port.Close()

	if cfg.GPSHighFrequency {
		frame, err := ubx.RateCommand(cfg.RateInterval())
		if err != nil {
			return err
		}
		// Not acknowledged: a receiver that ignores it keeps its old rate.
		if err := port.SendCommands(frame); err != nil {
			return err
		}
		log.Printf("gps: requested %v update period (% X)", cfg.RateInterval(), frame)
	}

	// ---- 3) Read loop ----
	p := newPipeline(cfg, sink, m)

	// Closing the port is the only way to unblock a pending read.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	err = p.Run(ctx, port)
	s := p.Stats()
	log.Printf("gps: shutting down after %d sentences, %d published", s.Sentences, s.Published)
	return err
}

func newPipeline(cfg *config.Config, sink publish.Sink, m *metrics.Metrics) *bridge.Pipeline {
	return bridge.New(sink, m, bridge.Options{
		BaseTopic:        cfg.MQTTBaseTopic,
		QoS:              cfg.MQTTQoS,
		MaxSentenceBytes: cfg.GPSMaxSentenceBytes,
		ReadErrorLimit:   cfg.GPSReadErrorLimit,
		StatsInterval:    cfg.StatsInterval(),
	})
}

// startOutputs connects the MQTT publisher and, when a port is configured,
// the monitor server. The returned func drains and disconnects both.
func startOutputs(cfg *config.Config, m *metrics.Metrics) (publish.Sink, func(), error) {
	// ---- 1) Connect to MQTT broker ----
	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("gps: connected to MQTT broker at %s", cfg.MQTTBroker)

	pub := publish.NewMQTTPublisher(client, publish.Options{
		Retained:    cfg.MQTTRetained,
		OnlyChanges: cfg.MQTTPublishOnlyChanges,
		QueueSize:   cfg.MQTTQueueSize,
	}, m)
	closers := []func(){
		func() { client.Disconnect(250) },
		pub.Close,
	}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.WebServerPort <= 0 {
		return pub, closeAll, nil
	}

	mon := NewMonitor(m, pub.Latest)
	srv := serveMonitor(mon, cfg.WebServerPort)
	closers = append(closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	return publish.Fanout{pub, mon}, closeAll, nil
}
