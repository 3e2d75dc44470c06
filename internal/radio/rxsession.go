// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package radio

import (
	"fmt"
	"sync/atomic"

	"github.com/relabs-tech/pet_tracker/internal/gnss"
)

// maxRead caps how many bytes one Tick will pull from the transceiver, in
// case the driver reports a bogus frame length.
const maxRead = 64

// RxSession keeps one transceiver in continuous listening mode and drains
// received frames into the cache, one frame per Tick.
//
// The pending flag is the only state shared with the driver's frame-ready
// callback: the callback sets it, Tick clears it. The buffer, the metrics and
// the cache are touched from the control loop only.
type RxSession struct {
	drv     Driver
	cache   *Cache
	pending atomic.Bool
	buf     [maxRead]byte
	rssi    float64
	snr     float64
}

func NewRxSession(drv Driver, cache *Cache) *RxSession {
	return &RxSession{drv: drv, cache: cache}
}

// Begin registers the frame-ready callback and arms continuous listening.
func (s *RxSession) Begin() error {
	s.drv.OnFrameReady(func() { s.pending.Store(true) })
	if st := s.drv.BeginListen(); st != StatusOK {
		return fmt.Errorf("radio: begin listen: %s", st)
	}
	return nil
}

// Tick must be called once per control-loop iteration. It is a no-op while no
// frame is pending. When one is, Tick reads it, records signal metrics on a
// clean read, updates the cache only for a well-formed position payload, and
// unconditionally re-arms listening so a dropped or garbled frame never
// stalls reception. Malformed frames are dropped silently: the cache keeps
// its last-known-good contents.
func (s *RxSession) Tick() {
	if !s.pending.Load() {
		return
	}
	// Clear before reading so a frame arriving mid-drain re-signals.
	s.pending.Store(false)

	n := s.drv.ReceivedLength()
	if n <= 0 {
		n = maxRead
	}
	if n > maxRead {
		n = maxRead
	}

	if st := s.drv.ReadReceived(s.buf[:n]); st == StatusOK {
		s.rssi = s.drv.SignalStrength()
		s.snr = s.drv.SignalToNoise()

		if n == gnss.PayloadLen && s.buf[0] == gnss.MarkerFix {
			if sample, err := gnss.DecodePayload(s.buf[:n]); err == nil {
				s.cache.Store(sample, s.rssi, s.snr)
			}
		}
		// Other lengths and markers are ignored without touching the cache.
	}

	s.drv.BeginListen()
}

// Metrics returns the RSSI (dBm) and SNR (dB) recorded on the most recent
// clean read, valid or not. Diagnostic use only.
func (s *RxSession) Metrics() (rssi, snr float64) {
	return s.rssi, s.snr
}
