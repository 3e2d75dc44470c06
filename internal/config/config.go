// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Radio (SX127x)
	RadioSPIDevice       string
	RadioResetPin        string
	RadioDIO0Pin         string
	RadioFrequencyHz     uint32
	RadioTxPowerDBm      int
	RadioSpreadingFactor int
	RadioBandwidthKHz    int
	RadioCodingRate      int
	RadioSyncWord        byte
	RadioPreambleLength  int

	// GNSS receiver (tracker node)
	GPSSerialPort string
	GPSBaudRate   int

	// Timing
	SendPeriodSeconds int // seconds between transmissions, must stay under 60
	LoopInterval      int // milliseconds between control-loop ticks

	// MQTT (base node fan-out)
	MQTTBroker          string
	MQTTClientIDBase    string
	MQTTClientIDConsole string
	TopicPosition       string

	// Display (base node)
	DisplayEnabled        bool
	DisplayUpdateInterval int // milliseconds

	// Web Server (base node)
	WebServerPort int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access across goroutines.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Radio
	case "RADIO_SPI_DEVICE":
		c.RadioSPIDevice = value
	case "RADIO_RESET_PIN":
		c.RadioResetPin = value
	case "RADIO_DIO0_PIN":
		c.RadioDIO0Pin = value
	case "RADIO_FREQUENCY_HZ":
		freq, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid RADIO_FREQUENCY_HZ %q: %w", value, err)
		}
		c.RadioFrequencyHz = uint32(freq)
	case "RADIO_TX_POWER_DBM":
		power, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RADIO_TX_POWER_DBM %q: %w", value, err)
		}
		if power < 2 || power > 17 {
			return fmt.Errorf("RADIO_TX_POWER_DBM must be 2-17 (PA_BOOST), got %d", power)
		}
		c.RadioTxPowerDBm = power
	case "RADIO_SPREADING_FACTOR":
		sf, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RADIO_SPREADING_FACTOR %q: %w", value, err)
		}
		if sf < 6 || sf > 12 {
			return fmt.Errorf("RADIO_SPREADING_FACTOR must be 6-12, got %d", sf)
		}
		c.RadioSpreadingFactor = sf
	case "RADIO_BANDWIDTH_KHZ":
		bw, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RADIO_BANDWIDTH_KHZ %q: %w", value, err)
		}
		if bw != 125 && bw != 250 && bw != 500 {
			return fmt.Errorf("RADIO_BANDWIDTH_KHZ must be 125, 250 or 500, got %d", bw)
		}
		c.RadioBandwidthKHz = bw
	case "RADIO_CODING_RATE":
		cr, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RADIO_CODING_RATE %q: %w", value, err)
		}
		if cr < 5 || cr > 8 {
			return fmt.Errorf("RADIO_CODING_RATE must be 5-8 (4/5..4/8), got %d", cr)
		}
		c.RadioCodingRate = cr
	case "RADIO_SYNC_WORD":
		sw, err := strconv.ParseUint(value, 0, 8)
		if err != nil {
			return fmt.Errorf("invalid RADIO_SYNC_WORD %q: %w", value, err)
		}
		c.RadioSyncWord = byte(sw)
	case "RADIO_PREAMBLE_LENGTH":
		pl, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RADIO_PREAMBLE_LENGTH %q: %w", value, err)
		}
		if pl < 6 || pl > 65535 {
			return fmt.Errorf("RADIO_PREAMBLE_LENGTH must be 6-65535, got %d", pl)
		}
		c.RadioPreambleLength = pl

	// GNSS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Timing
	case "SEND_PERIOD_SECONDS":
		period, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SEND_PERIOD_SECONDS %q: %w", value, err)
		}
		// the seconds-modulo scheduler never observes minutes/hours
		if period < 1 || period > 59 {
			return fmt.Errorf("SEND_PERIOD_SECONDS must be 1-59, got %d", period)
		}
		c.SendPeriodSeconds = period
	case "LOOP_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LOOP_INTERVAL %q: %w", value, err)
		}
		c.LoopInterval = interval

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_BASE":
		c.MQTTClientIDBase = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "TOPIC_POSITION":
		c.TopicPosition = value

	// Display
	case "DISPLAY_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = enabled
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.RadioSPIDevice == "" {
		return fmt.Errorf("RADIO_SPI_DEVICE is required")
	}
	if c.RadioResetPin == "" {
		return fmt.Errorf("RADIO_RESET_PIN is required")
	}
	if c.RadioDIO0Pin == "" {
		return fmt.Errorf("RADIO_DIO0_PIN is required")
	}
	if c.RadioFrequencyHz == 0 {
		return fmt.Errorf("RADIO_FREQUENCY_HZ is required")
	}
	if c.SendPeriodSeconds == 0 {
		return fmt.Errorf("SEND_PERIOD_SECONDS is required")
	}
	if c.LoopInterval == 0 {
		return fmt.Errorf("LOOP_INTERVAL is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
