// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/pet_tracker/internal/config"
	"github.com/relabs-tech/pet_tracker/internal/gnss"
	"github.com/relabs-tech/pet_tracker/internal/radio"
	"github.com/relabs-tech/pet_tracker/internal/radio/sx127x"
	"github.com/relabs-tech/pet_tracker/internal/schedule"
)

// radioConfig maps the flat config keys onto the SX127x link profile.
func radioConfig(cfg *config.Config) sx127x.Config {
	return sx127x.Config{
		SPIDevice:       cfg.RadioSPIDevice,
		ResetPin:        cfg.RadioResetPin,
		DIO0Pin:         cfg.RadioDIO0Pin,
		FrequencyHz:     cfg.RadioFrequencyHz,
		TxPowerDBm:      cfg.RadioTxPowerDBm,
		SpreadingFactor: cfg.RadioSpreadingFactor,
		BandwidthKHz:    cfg.RadioBandwidthKHz,
		CodingRate:      cfg.RadioCodingRate,
		SyncWord:        cfg.RadioSyncWord,
		PreambleLength:  cfg.RadioPreambleLength,
	}
}

// RunTracker is the transmitter node: GNSS fix in, periodic LoRa frame out.
// Single control loop; the only preemption is the driver's completion
// callback, which does nothing but raise the session's done flag.
func RunTracker() error {
	cfg := config.Get()

	if cfg.GPSSerialPort == "" || cfg.GPSBaudRate == 0 {
		return fmt.Errorf("tracker: GPS_SERIAL_PORT and GPS_BAUD_RATE are required")
	}

	src, err := gnss.OpenSerialSource(cfg.GPSSerialPort, uint(cfg.GPSBaudRate))
	if err != nil {
		return fmt.Errorf("tracker: GNSS source: %w", err)
	}
	defer src.Close()

	drv, err := sx127x.New(radioConfig(cfg))
	if err != nil {
		return fmt.Errorf("tracker: radio init: %w", err)
	}
	defer drv.Close()

	tx := radio.NewTxSession(drv)
	sched := schedule.NewSender(uint32(cfg.SendPeriodSeconds))

	log.Printf("tracker: sending every %d s, control loop at %d ms", cfg.SendPeriodSeconds, cfg.LoopInterval)

	ticker := time.NewTicker(time.Duration(cfg.LoopInterval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		// 1) Close out the previous transmission once its interrupt fired
		if tx.InFlight() && tx.Done() {
			if tx.LastStatus() == radio.StatusOK {
				log.Println("tracker: TX complete")
			} else {
				log.Printf("tracker: TX failed: %s", tx.LastStatus())
			}
			tx.Finish()
		}

		// 2) Decide whether this tick transmits a fresh fix
		if !src.HasFix() {
			continue
		}
		sample := src.Sample()
		if tx.InFlight() || !sched.Due(sample) {
			continue
		}

		var payload [gnss.PayloadLen]byte
		if _, err := gnss.EncodePayload(sample, payload[:]); err != nil {
			log.Printf("tracker: encode error: %v", err)
			continue
		}

		if tx.Start(payload[:]) {
			sched.MarkStarted(sample.HHMMSS)
			log.Printf("tracker: TX started, payload % X", payload)
		} else {
			log.Printf("tracker: TX rejected: %s", tx.LastStatus())
		}
	}

	return nil
}
