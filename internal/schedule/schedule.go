// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package schedule decides when the tracker node transmits a fix.
package schedule

import "github.com/relabs-tech/pet_tracker/internal/gnss"

// Sender implements the periodic-send policy: fire when the seconds-within-
// minute component of the fix time is an exact multiple of the period, and
// never twice for the same HHMMSS.
//
// LIMITATION: the modulo test never observes the minutes/hours fields, so it
// is only correct for periods under 60 seconds. A period of a minute or more
// needs a monotonic elapsed-time scheduler instead.
type Sender struct {
	period   uint32
	lastSent uint32
}

// NewSender returns a Sender firing every periodSeconds (1..59).
func NewSender(periodSeconds uint32) *Sender {
	return &Sender{period: periodSeconds}
}

// Due reports whether the sample should be transmitted now. The caller is
// responsible for the remaining precondition: no transmission in flight.
func (s *Sender) Due(sample gnss.Sample) bool {
	if !sample.Valid {
		return false
	}
	// avoid a double send within the same second across idle loop ticks
	if sample.HHMMSS == s.lastSent {
		return false
	}
	ss := sample.HHMMSS % 100 // seconds within the minute
	return ss%s.period == 0
}

// MarkStarted records the dedupe key after the driver accepted the send.
// Not called on rejection, so the next tick may retry the same fix.
func (s *Sender) MarkStarted(hhmmss uint32) {
	s.lastSent = hhmmss
}
