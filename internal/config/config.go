package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker             string
	MQTTClientIDGPS        string
	MQTTClientIDConsole    string
	MQTTClientIDWeb        string
	MQTTBaseTopic          string // always ends in "/"
	MQTTQoS                byte
	MQTTRetained           bool
	MQTTPublishOnlyChanges bool
	MQTTQueueSize          int

	// GPS
	GPSSerialPort       string
	GPSBaudRate         int
	GPSHighFrequency    bool // send UBX CFG-RATE at startup
	GPSRateMS           int  // measurement period used when GPSHighFrequency is set
	GPSMaxSentenceBytes int
	GPSReadErrorLimit   int // consecutive read errors before giving up

	// Web Server (0 disables it)
	WebServerPort int

	// Timing
	StatsLogInterval int // seconds, 0 disables the periodic summary
}

// Defaults returns a Config with every optional value filled in.
func Defaults() *Config {
	return &Config{
		MQTTBroker:             "tcp://localhost:1883",
		MQTTClientIDGPS:        "gps-bridge",
		MQTTClientIDConsole:    "gps-bridge-console",
		MQTTClientIDWeb:        "gps-bridge-web",
		MQTTBaseTopic:          "/GOLF86/GPS/",
		MQTTQoS:                0,
		MQTTRetained:           true,
		MQTTPublishOnlyChanges: true,
		MQTTQueueSize:          256,
		GPSBaudRate:            9600,
		GPSRateMS:              100,
		GPSMaxSentenceBytes:    1024,
		GPSReadErrorLimit:      3,
		StatsLogInterval:       60,
	}
}

// RateInterval is the measurement period requested from the receiver.
func (c *Config) RateInterval() time.Duration {
	return time.Duration(c.GPSRateMS) * time.Millisecond
}

func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsLogInterval) * time.Second
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads a KEY=VALUE file, or a YAML file when the name ends in .yaml
// or .yml, on top of Defaults.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = cfg.loadYAML(data)
	default:
		err = cfg.loadKeyValue(data)
	}
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(cfg.MQTTBaseTopic, "/") {
		cfg.MQTTBaseTopic += "/"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadKeyValue(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}
		if err := c.setValue(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// yamlKeys maps dotted YAML paths onto the KEY=VALUE names.
var yamlKeys = map[string]string{
	"mqtt.broker":               "MQTT_BROKER",
	"mqtt.client_id_gps":        "MQTT_CLIENT_ID_GPS",
	"mqtt.client_id_console":    "MQTT_CLIENT_ID_CONSOLE",
	"mqtt.client_id_web":        "MQTT_CLIENT_ID_WEB",
	"mqtt.base_topic":           "MQTT_BASE_TOPIC",
	"mqtt.qos":                  "MQTT_QOS",
	"mqtt.retained":             "MQTT_RETAINED",
	"mqtt.publish_only_changes": "MQTT_PUBLISH_ONLY_CHANGES",
	"mqtt.queue_size":           "MQTT_QUEUE_SIZE",
	"gps.serial_port":           "GPS_SERIAL_PORT",
	"gps.baud_rate":             "GPS_BAUD_RATE",
	"gps.high_frequency":        "GPS_HIGH_FREQUENCY",
	"gps.rate_ms":               "GPS_RATE_MS",
	"gps.max_sentence_bytes":    "GPS_MAX_SENTENCE_BYTES",
	"gps.read_error_limit":      "GPS_READ_ERROR_LIMIT",
	"web.port":                  "WEB_SERVER_PORT",
	"stats_log_interval":        "STATS_LOG_INTERVAL",
}

func (c *Config) loadYAML(data []byte) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	flat := make(map[string]string)
	if err := flatten("", doc, flat); err != nil {
		return err
	}

	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		key, ok := yamlKeys[p]
		if !ok {
			return fmt.Errorf("unknown config key: %q", p)
		}
		if err := c.setValue(key, flat[p]); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func flatten(prefix string, node map[string]interface{}, out map[string]string) error {
	for k, v := range node {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]interface{}:
			if err := flatten(path, v, out); err != nil {
				return err
			}
		case []interface{}:
			return fmt.Errorf("%s: lists are not supported", path)
		case nil:
			out[path] = ""
		default:
			out[path] = fmt.Sprint(v)
		}
	}
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_BASE_TOPIC":
		c.MQTTBaseTopic = value
	case "MQTT_QOS":
		qos, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MQTT_QOS %q: %w", value, err)
		}
		if qos < 0 || qos > 2 {
			return fmt.Errorf("MQTT_QOS must be 0-2, got %d", qos)
		}
		c.MQTTQoS = byte(qos)
	case "MQTT_RETAINED":
		return parseBool(key, value, &c.MQTTRetained)
	case "MQTT_PUBLISH_ONLY_CHANGES":
		return parseBool(key, value, &c.MQTTPublishOnlyChanges)
	case "MQTT_QUEUE_SIZE":
		return parseInt(key, value, &c.MQTTQueueSize)

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		return parseInt(key, value, &c.GPSBaudRate)
	case "GPS_HIGH_FREQUENCY":
		return parseBool(key, value, &c.GPSHighFrequency)
	case "GPS_RATE_MS":
		return parseInt(key, value, &c.GPSRateMS)
	case "GPS_MAX_SENTENCE_BYTES":
		return parseInt(key, value, &c.GPSMaxSentenceBytes)
	case "GPS_READ_ERROR_LIMIT":
		return parseInt(key, value, &c.GPSReadErrorLimit)

	// Web Server
	case "WEB_SERVER_PORT":
		return parseInt(key, value, &c.WebServerPort)

	// Timing
	case "STATS_LOG_INTERVAL":
		return parseInt(key, value, &c.StatsLogInterval)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func parseInt(key, value string, dst *int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = n
	return nil
}

func parseBool(key, value string, dst *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = b
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.MQTTBaseTopic == "/" {
		return fmt.Errorf("MQTT_BASE_TOPIC is required")
	}
	if c.MQTTQueueSize <= 0 {
		return fmt.Errorf("MQTT_QUEUE_SIZE must be positive, got %d", c.MQTTQueueSize)
	}
	if c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required")
	}
	if c.GPSBaudRate <= 0 {
		return fmt.Errorf("GPS_BAUD_RATE is required")
	}
	if c.GPSHighFrequency && (c.GPSRateMS < 25 || c.GPSRateMS > 65535) {
		return fmt.Errorf("GPS_RATE_MS must be 25-65535, got %d", c.GPSRateMS)
	}
	// NMEA-0183 allows 82 characters per sentence.
	if c.GPSMaxSentenceBytes < 82 {
		return fmt.Errorf("GPS_MAX_SENTENCE_BYTES must be at least 82, got %d", c.GPSMaxSentenceBytes)
	}
	if c.GPSReadErrorLimit < 1 {
		return fmt.Errorf("GPS_READ_ERROR_LIMIT must be at least 1, got %d", c.GPSReadErrorLimit)
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", c.WebServerPort)
	}
	if c.StatsLogInterval < 0 {
		return fmt.Errorf("STATS_LOG_INTERVAL must not be negative, got %d", c.StatsLogInterval)
	}
	return nil
}

// InitGlobal loads the configuration once for the whole process. Later
// calls are no-ops.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
