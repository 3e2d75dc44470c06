// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package radio

import (
	"sync"

	"github.com/relabs-tech/pet_tracker/internal/gnss"
)

// Cache holds the last successfully decoded position together with the radio
// metrics of the frame that carried it. It is never cleared once set: a
// garbled frame must not blank out a previously good position. Written only
// by the RxSession; display, web and MQTT consumers read it from their own
// goroutines, hence the RWMutex.
type Cache struct {
	mu     sync.RWMutex
	sample gnss.Sample
	rssi   float64
	snr    float64
	have   bool
}

// Store replaces the cached position and its signal metrics.
func (c *Cache) Store(sample gnss.Sample, rssi, snr float64) {
	c.mu.Lock()
	c.sample = sample
	c.rssi = rssi
	c.snr = snr
	c.have = true
	c.mu.Unlock()
}

// Latest returns the cached position, its RSSI (dBm) and SNR (dB), and
// whether anything has been received yet.
func (c *Cache) Latest() (sample gnss.Sample, rssi, snr float64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sample, c.rssi, c.snr, c.have
}
