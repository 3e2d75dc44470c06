// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package radio

// Status is the transceiver's immediate answer to a driver request. It is a
// plain code rather than a Go error because the sessions keep the most recent
// one around for diagnostics (LastStatus) regardless of success.
type Status int

const (
	// StatusOK means the request was accepted or completed.
	StatusOK Status = iota
	// StatusInvalidLength rejects an empty or oversized payload.
	StatusInvalidLength
	// StatusBusy rejects a request while another operation is in flight.
	StatusBusy
	// StatusFault is any failure reported by the transceiver hardware.
	StatusFault
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidLength:
		return "invalid length"
	case StatusBusy:
		return "busy"
	case StatusFault:
		return "driver fault"
	default:
		return "unknown status"
	}
}

// MaxPayload is the largest payload the transceiver accepts in one frame.
const MaxPayload = 256

// Driver is the interface the sessions drive a LoRa transceiver through.
// A node owns exactly one Driver and runs either a TxSession or an RxSession
// on it; the hardware cannot transmit and listen at the same time, so the
// owning session arbitrates all mode switches.
//
// The OnSendDone and OnFrameReady callbacks are the interrupt analogue: the
// driver invokes them from its own context (a GPIO edge goroutine on real
// hardware) and they must do nothing beyond setting a flag.
type Driver interface {
	// BeginSend starts an asynchronous transmission of payload. The returned
	// status only reports acceptance; completion is signalled via OnSendDone.
	BeginSend(payload []byte) Status
	// FinishSend finalizes or aborts the current transmission and returns the
	// transceiver to standby. Safe to call when nothing is in flight.
	FinishSend()

	// BeginListen arms continuous receive mode. Frames are announced via the
	// OnFrameReady callback and stay buffered until ReadReceived.
	BeginListen() Status
	// ReceivedLength reports the size of the pending frame, or 0 if the
	// transceiver cannot tell.
	ReceivedLength() int
	// ReadReceived copies the pending frame into buf (len(buf) bytes at most).
	ReadReceived(buf []byte) Status

	// SignalStrength returns the RSSI of the last received frame in dBm.
	SignalStrength() float64
	// SignalToNoise returns the SNR of the last received frame in dB.
	SignalToNoise() float64

	// OnSendDone registers the transmission-complete callback.
	OnSendDone(fn func())
	// OnFrameReady registers the frame-received callback.
	OnFrameReady(fn func())
}
