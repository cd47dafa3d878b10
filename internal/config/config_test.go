package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrContains(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("error=%q want it to contain %q", err.Error(), want)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "gps_bridge_config.txt", "# minimal\nGPS_SERIAL_PORT=/dev/ttyACM0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" || cfg.MQTTBaseTopic != "/GOLF86/GPS/" {
		t.Fatalf("unexpected MQTT defaults %+v", cfg)
	}
	if cfg.GPSBaudRate != 9600 || cfg.GPSHighFrequency || cfg.RateInterval() != 100*time.Millisecond {
		t.Fatalf("unexpected GPS defaults %+v", cfg)
	}
	if !cfg.MQTTRetained || !cfg.MQTTPublishOnlyChanges || cfg.MQTTQoS != 0 {
		t.Fatalf("unexpected publish defaults %+v", cfg)
	}
	if cfg.StatsInterval() != time.Minute || cfg.WebServerPort != 0 {
		t.Fatalf("unexpected misc defaults %+v", cfg)
	}
}

func TestLoad_KeyValue(t *testing.T) {
	path := writeTempConfig(t, "cfg.txt", `
MQTT_BROKER = tcp://broker:1883
MQTT_BASE_TOPIC=/CAR/GPS
MQTT_QOS=1
MQTT_RETAINED=false
MQTT_PUBLISH_ONLY_CHANGES=0
GPS_SERIAL_PORT=/dev/serial0
GPS_BAUD_RATE=38400
GPS_HIGH_FREQUENCY=true
GPS_RATE_MS=200
WEB_SERVER_PORT=8080
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MQTTBroker != "tcp://broker:1883" {
		t.Fatalf("broker=%q", cfg.MQTTBroker)
	}
	if cfg.MQTTBaseTopic != "/CAR/GPS/" {
		t.Fatalf("expected trailing slash to be added, got %q", cfg.MQTTBaseTopic)
	}
	if cfg.MQTTQoS != 1 || cfg.MQTTRetained || cfg.MQTTPublishOnlyChanges {
		t.Fatalf("unexpected publish settings %+v", cfg)
	}
	if cfg.GPSBaudRate != 38400 || !cfg.GPSHighFrequency || cfg.RateInterval() != 200*time.Millisecond {
		t.Fatalf("unexpected GPS settings %+v", cfg)
	}
	if cfg.WebServerPort != 8080 {
		t.Fatalf("web port=%d", cfg.WebServerPort)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeTempConfig(t, "cfg.yaml", `
mqtt:
  broker: tcp://10.0.0.2:1883
  qos: 2
  retained: false
gps:
  serial_port: /dev/ttyUSB0
  baud_rate: 115200
  high_frequency: true
web:
  port: 9090
stats_log_interval: 0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MQTTBroker != "tcp://10.0.0.2:1883" || cfg.MQTTQoS != 2 || cfg.MQTTRetained {
		t.Fatalf("unexpected mqtt section %+v", cfg)
	}
	if cfg.GPSSerialPort != "/dev/ttyUSB0" || cfg.GPSBaudRate != 115200 || !cfg.GPSHighFrequency {
		t.Fatalf("unexpected gps section %+v", cfg)
	}
	if cfg.WebServerPort != 9090 || cfg.StatsLogInterval != 0 {
		t.Fatalf("unexpected misc %+v", cfg)
	}
	if cfg.MQTTClientIDGPS != "gps-bridge" {
		t.Fatalf("expected defaults to survive YAML, got %q", cfg.MQTTClientIDGPS)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name     string
		file     string
		contents string
		want     string
	}{
		{"missing port", "a.txt", "MQTT_QOS=1\n", "GPS_SERIAL_PORT is required"},
		{"bad line", "a.txt", "GPS_SERIAL_PORT\n", "invalid config line 1"},
		{"unknown key", "a.txt", "GPS_SERIAL_PORT=x\nIMU_LEFT=1\n", `config line 2: unknown config key: "IMU_LEFT"`},
		{"qos range", "a.txt", "GPS_SERIAL_PORT=x\nMQTT_QOS=3\n", "MQTT_QOS must be 0-2"},
		{"bad bool", "a.txt", "GPS_SERIAL_PORT=x\nMQTT_RETAINED=maybe\n", "invalid MQTT_RETAINED"},
		{"bad int", "a.txt", "GPS_SERIAL_PORT=x\nGPS_BAUD_RATE=fast\n", "invalid GPS_BAUD_RATE"},
		{"rate range", "a.txt", "GPS_SERIAL_PORT=x\nGPS_HIGH_FREQUENCY=true\nGPS_RATE_MS=10\n", "GPS_RATE_MS must be 25-65535"},
		{"sentence bound", "a.txt", "GPS_SERIAL_PORT=x\nGPS_MAX_SENTENCE_BYTES=40\n", "GPS_MAX_SENTENCE_BYTES must be at least 82"},
		{"yaml unknown", "a.yml", "gps:\n  serial_port: x\n  parity: none\n", `unknown config key: "gps.parity"`},
		{"yaml list", "a.yaml", "gps:\n  serial_port: [a, b]\n", "lists are not supported"},
		{"yaml syntax", "a.yaml", "gps: [\n", "parse yaml"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, c.file, c.contents))
			requireErrContains(t, err, c.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	requireErrContains(t, err, "failed to open config file")
}

func TestInitGlobal(t *testing.T) {
	path := writeTempConfig(t, "cfg.txt", "GPS_SERIAL_PORT=/dev/ttyS0\n")
	if err := InitGlobal(path); err != nil {
		t.Fatalf("InitGlobal() error: %v", err)
	}
	if cfg := Get(); cfg == nil || cfg.GPSSerialPort != "/dev/ttyS0" {
		t.Fatalf("unexpected global config %+v", cfg)
	}
	// Second call is ignored.
	if err := InitGlobal(filepath.Join(t.TempDir(), "missing.txt")); err != nil {
		t.Fatalf("second InitGlobal() error: %v", err)
	}
	if Get().GPSSerialPort != "/dev/ttyS0" {
		t.Fatalf("global config was replaced")
	}
}
