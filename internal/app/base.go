// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/pet_tracker/internal/config"
	"github.com/relabs-tech/pet_tracker/internal/radio"
	"github.com/relabs-tech/pet_tracker/internal/radio/sx127x"
)

// Position is the JSON shape published to MQTT and served by the web API:
// the cached sample plus the radio metrics of the frame that carried it.
type Position struct {
	Time uint32  `json:"time"` // HHMMSS
	Lat  float64 `json:"lat"`  // decimal degrees
	Lon  float64 `json:"lon"`  // decimal degrees
	RSSI float64 `json:"rssi"` // dBm
	SNR  float64 `json:"snr"`  // dB
}

func formatHHMMSS(v uint32) string {
	return fmt.Sprintf("%02d:%02d:%02d", v/10000, v/100%100, v%100)
}

// RunBase is the receiver node: LoRa frames in, last-known-good position out
// to the display, the web UI and MQTT. The control loop owns the radio and
// the cache; the consumers only ever read the cache.
func RunBase() error {
	cfg := config.Get()

	drv, err := sx127x.New(radioConfig(cfg))
	if err != nil {
		return fmt.Errorf("base: radio init: %w", err)
	}
	defer drv.Close()

	cache := &radio.Cache{}
	rx := radio.NewRxSession(drv, cache)
	if err := rx.Begin(); err != nil {
		return fmt.Errorf("base: %w", err)
	}
	log.Println("base: listening")

	// MQTT fan-out, optional
	var client mqtt.Client
	if cfg.MQTTBroker != "" {
		opts := mqtt.NewClientOptions().
			AddBroker(cfg.MQTTBroker).
			SetClientID(cfg.MQTTClientIDBase)

		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return fmt.Errorf("base: MQTT connect: %w", token.Error())
		}
		defer client.Disconnect(250)
		log.Printf("base: connected to MQTT broker at %s", cfg.MQTTBroker)
	}

	// Status display, optional: not having one is no reason to stop receiving
	if cfg.DisplayEnabled {
		go func() {
			if err := RunDisplay(cache); err != nil {
				log.Printf("base: display unavailable: %v", err)
			}
		}()
	}

	// Web UI, optional
	if cfg.WebServerPort != 0 {
		go func() {
			if err := RunWeb(cache); err != nil {
				log.Printf("base: web server: %v", err)
			}
		}()
	}

	ticker := time.NewTicker(time.Duration(cfg.LoopInterval) * time.Millisecond)
	defer ticker.Stop()

	var lastSeen uint32
	for range ticker.C {
		rx.Tick()

		sample, rssi, snr, ok := cache.Latest()
		if !ok || sample.HHMMSS == lastSeen {
			continue
		}
		lastSeen = sample.HHMMSS

		log.Printf("base: RX %s lat=%.6f lon=%.6f rssi=%.1f dBm snr=%.2f dB",
			formatHHMMSS(sample.HHMMSS), sample.Lat, sample.Lon, rssi, snr)

		if client == nil {
			continue
		}
		payload, err := json.Marshal(Position{
			Time: sample.HHMMSS,
			Lat:  sample.Lat,
			Lon:  sample.Lon,
			RSSI: rssi,
			SNR:  snr,
		})
		if err != nil {
			log.Printf("base: position marshal error: %v", err)
			continue
		}
		token := client.Publish(cfg.TopicPosition, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("base: publish error: %v", token.Error())
		}
	}

	return nil
}
