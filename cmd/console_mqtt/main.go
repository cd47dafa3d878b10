package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gps_bridge/internal/app"
	"github.com/relabs-tech/gps_bridge/internal/config"
)

func main() {
	configPath := flag.String("config", "gps_bridge_config.txt", "KEY=VALUE or YAML configuration file")
	flag.Parse()

	log.Println("starting gps-bridge console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
