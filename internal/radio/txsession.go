// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package radio

import "sync/atomic"

// TxSession drives one transceiver through asynchronous sends. At most one
// transmission is in flight at a time; a Start while in flight is rejected,
// never queued.
//
// The done flag is the only state shared with the driver's completion
// callback: the callback sets it, the owning control loop clears it (through
// Start) and observes it. Everything else is touched by the control loop only.
type TxSession struct {
	drv      Driver
	done     atomic.Bool
	inFlight bool
	last     Status
}

// NewTxSession wires the session's completion flag to the driver.
func NewTxSession(drv Driver) *TxSession {
	s := &TxSession{drv: drv}
	drv.OnSendDone(func() { s.done.Store(true) })
	return s
}

// Start begins an asynchronous transmission and reports whether the driver
// accepted it. The specific rejection reason is available via LastStatus.
func (s *TxSession) Start(payload []byte) bool {
	if len(payload) == 0 || len(payload) > MaxPayload {
		s.last = StatusInvalidLength
		return false
	}
	if s.inFlight {
		s.last = StatusBusy
		return false
	}

	s.done.Store(false)
	s.last = s.drv.BeginSend(payload)
	if s.last != StatusOK {
		return false
	}
	s.inFlight = true
	return true
}

// Done reports whether the completion callback has fired for the current send.
func (s *TxSession) Done() bool {
	return s.done.Load()
}

// InFlight reports whether a transmission has been accepted but not yet
// closed out with Finish.
func (s *TxSession) InFlight() bool {
	return s.inFlight
}

// LastStatus returns the most recent status code from the driver or from a
// Start rejection.
func (s *TxSession) LastStatus() Status {
	return s.last
}

// Finish closes out the in-flight transmission, on normal completion as well
// as on abort or mode change, and returns the session to idle.
func (s *TxSession) Finish() {
	s.drv.FinishSend()
	s.done.Store(true)
	s.inFlight = false
}
