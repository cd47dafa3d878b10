package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gps_bridge/internal/config"
	"github.com/relabs-tech/gps_bridge/internal/publish"
)

// formatConsoleLine renders one received message, with the base topic
// stripped for readability.
func formatConsoleLine(base, topic string, payload []byte) string {
	return fmt.Sprintf("[GPS ] %-28s %s", strings.TrimPrefix(topic, base), payload)
}

// RunConsoleMQTT prints every message published under the base topic.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("config not loaded")
	}

	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	filter := cfg.MQTTBaseTopic + "#"
	token := client.Subscribe(filter, cfg.MQTTQoS, func(_ mqtt.Client, msg mqtt.Message) {
		fmt.Println(formatConsoleLine(cfg.MQTTBaseTopic, msg.Topic(), msg.Payload()))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", filter)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
