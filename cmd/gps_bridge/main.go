// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

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

	log.Println("starting gps-bridge (NMEA → MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunGPSBridge(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
