// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"time"

	"github.com/relabs-tech/gps_bridge/internal/app"
	"github.com/relabs-tech/gps_bridge/internal/config"
)

func main() {
	configPath := flag.String("config", "gps_bridge_config.txt", "KEY=VALUE or YAML configuration file")
	file := flag.String("file", "", "recorded NMEA log to replay")
	interval := flag.Duration("interval", 100*time.Millisecond, "delay between replayed lines")
	loop := flag.Bool("loop", false, "start over at end of file")
	flag.Parse()

	if *file == "" {
		log.Fatalf("fatal: -file is required")
	}

	log.Println("starting gps-bridge (replay)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunReplay(*file, *interval, *loop); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
