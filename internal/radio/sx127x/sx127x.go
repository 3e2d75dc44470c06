// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sx127x drives a Semtech SX127x LoRa transceiver over SPI and
// implements the radio.Driver interface: asynchronous FIFO-based transmit
// with TxDone on DIO0, continuous receive with RxDone on DIO0, and per-packet
// RSSI/SNR readout.
package sx127x

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/pet_tracker/internal/radio"
)

// Config describes the wiring and the LoRa link profile. The defaults in the
// shipped config file match the original 868 MHz deployment: BW 125 kHz,
// SF 9, CR 4/7, private sync word 0x12, 14 dBm, 8-symbol preamble.
type Config struct {
	SPIDevice string // e.g. "/dev/spidev0.0"
	ResetPin  string // e.g. "GPIO22"
	DIO0Pin   string // e.g. "GPIO25"

	FrequencyHz     uint32
	TxPowerDBm      int  // 2..17, PA_BOOST output
	SpreadingFactor int  // 6..12
	BandwidthKHz    int  // 125, 250 or 500
	CodingRate      int  // denominator, 5..8 (4/5..4/8)
	SyncWord        byte // 0x12 private, 0x34 public
	PreambleLength  int
}

// Radio is a radio.Driver backed by real SX127x hardware. All SPI access
// happens on the owning control loop; the DIO0 watcher goroutine only invokes
// the registered callbacks.
type Radio struct {
	port spi.PortCloser
	conn spi.Conn
	rst  gpio.PinIO
	dio0 gpio.PinIO

	cbMu       sync.Mutex
	sendDone   func()
	frameReady func()

	mode   byte // last opmode written, for DIO0 demux and busy detection
	closed atomic.Bool
}

// New initializes the transceiver and starts the DIO0 watcher.
func New(cfg Config) (*Radio, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("sx127x: periph host init: %w", err)
	}

	port, err := spireg.Open(cfg.SPIDevice)
	if err != nil {
		return nil, fmt.Errorf("sx127x: SPI open (%s): %w", cfg.SPIDevice, err)
	}
	conn, err := port.Connect(8*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("sx127x: SPI connect: %w", err)
	}

	rst := gpioreg.ByName(cfg.ResetPin)
	if rst == nil {
		port.Close()
		return nil, fmt.Errorf("sx127x: reset pin %q not found", cfg.ResetPin)
	}
	dio0 := gpioreg.ByName(cfg.DIO0Pin)
	if dio0 == nil {
		port.Close()
		return nil, fmt.Errorf("sx127x: DIO0 pin %q not found", cfg.DIO0Pin)
	}

	d := &Radio{port: port, conn: conn, rst: rst, dio0: dio0}

	if err := d.reset(); err != nil {
		port.Close()
		return nil, err
	}
	if v, err := d.readReg(regVersion); err != nil {
		port.Close()
		return nil, fmt.Errorf("sx127x: version read: %w", err)
	} else if v != chipVersion {
		port.Close()
		return nil, fmt.Errorf("sx127x: unexpected chip version 0x%02X", v)
	}

	if err := d.configure(cfg); err != nil {
		port.Close()
		return nil, err
	}

	if err := dio0.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		port.Close()
		return nil, fmt.Errorf("sx127x: DIO0 edge setup: %w", err)
	}
	go d.watchDIO0()

	log.Printf("sx127x: initialized at %d Hz, SF%d BW%dkHz CR4/%d sync 0x%02X power %d dBm",
		cfg.FrequencyHz, cfg.SpreadingFactor, cfg.BandwidthKHz, cfg.CodingRate, cfg.SyncWord, cfg.TxPowerDBm)
	return d, nil
}

func (d *Radio) reset() error {
	if err := d.rst.Out(gpio.Low); err != nil {
		return fmt.Errorf("sx127x: reset pin: %w", err)
	}
	time.Sleep(time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("sx127x: reset pin: %w", err)
	}
	time.Sleep(5 * time.Millisecond)
	return nil
}

func (d *Radio) configure(cfg Config) error {
	// LoRa mode is only writable while the chip sleeps.
	if err := d.writeReg(regOpMode, opModeLongRange|opModeSleep); err != nil {
		return fmt.Errorf("sx127x: enter LoRa sleep: %w", err)
	}
	time.Sleep(time.Millisecond)

	// carrier frequency: Frf = freq * 2^19 / 32 MHz
	frf := uint32(uint64(cfg.FrequencyHz) << 19 / 32_000_000)
	regs := []struct {
		addr  byte
		value byte
	}{
		{regFrfMsb, byte(frf >> 16)},
		{regFrfMid, byte(frf >> 8)},
		{regFrfLsb, byte(frf)},
		{regPaConfig, paConfig(cfg.TxPowerDBm)},
		{regPaDac, 0x84}, // default PA DAC, +17 dBm max
		{regLna, 0x23},   // max LNA gain, HF boost
		{regModemConfig1, modemConfig1(cfg.BandwidthKHz, cfg.CodingRate)},
		{regModemConfig2, byte(cfg.SpreadingFactor)<<4 | 0x04}, // CRC on
		{regModemConfig3, modemConfig3(cfg.SpreadingFactor, cfg.BandwidthKHz)},
		{regPreambleMsb, byte(cfg.PreambleLength >> 8)},
		{regPreambleLsb, byte(cfg.PreambleLength)},
		{regSyncWord, cfg.SyncWord},
		{regMaxPayloadLength, 0xFF},
		{regFifoTxBaseAddr, 0x00},
		{regFifoRxBaseAddr, 0x00},
	}
	for _, r := range regs {
		if err := d.writeReg(r.addr, r.value); err != nil {
			return fmt.Errorf("sx127x: write reg 0x%02X: %w", r.addr, err)
		}
	}

	return d.setMode(opModeStandby)
}

func paConfig(powerDBm int) byte {
	if powerDBm < 2 {
		powerDBm = 2
	}
	if powerDBm > 17 {
		powerDBm = 17
	}
	return 0x80 | byte(powerDBm-2) // PA_BOOST
}

func modemConfig1(bwKHz, codingRate int) byte {
	var bw byte
	switch bwKHz {
	case 250:
		bw = 0x08
	case 500:
		bw = 0x09
	default:
		bw = 0x07 // 125 kHz
	}
	return bw<<4 | byte(codingRate-4)<<1
}

func modemConfig3(sf, bwKHz int) byte {
	v := byte(0x04) // AGC auto
	// low data rate optimization for symbol times over 16 ms
	if sf >= 11 && bwKHz <= 125 {
		v |= 0x08
	}
	return v
}

// watchDIO0 is the interrupt analogue: it waits for rising edges on DIO0 and
// invokes the callback matching the current mode. No SPI access and no
// decoding happen here.
func (d *Radio) watchDIO0() {
	for {
		if !d.dio0.WaitForEdge(-1) {
			if d.closed.Load() {
				return
			}
			continue
		}

		d.cbMu.Lock()
		var fn func()
		switch d.mode {
		case opModeTx:
			fn = d.sendDone
		case opModeRxCont:
			fn = d.frameReady
		}
		d.cbMu.Unlock()

		if fn != nil {
			fn()
		}
	}
}

// BeginSend loads the FIFO and starts an asynchronous transmission.
// Completion is signalled via the OnSendDone callback when DIO0 fires.
func (d *Radio) BeginSend(payload []byte) radio.Status {
	if len(payload) == 0 || len(payload) > 0xFF {
		return radio.StatusInvalidLength
	}
	if d.mode == opModeTx {
		return radio.StatusBusy
	}

	if err := d.setMode(opModeStandby); err != nil {
		return radio.StatusFault
	}
	if err := d.writeReg(regDioMapping1, dio0TxDone); err != nil {
		return radio.StatusFault
	}
	if err := d.writeReg(regIrqFlags, 0xFF); err != nil {
		return radio.StatusFault
	}
	if err := d.writeReg(regFifoAddrPtr, 0x00); err != nil {
		return radio.StatusFault
	}
	if err := d.writeBurst(regFifo, payload); err != nil {
		return radio.StatusFault
	}
	if err := d.writeReg(regPayloadLength, byte(len(payload))); err != nil {
		return radio.StatusFault
	}
	if err := d.setMode(opModeTx); err != nil {
		return radio.StatusFault
	}
	return radio.StatusOK
}

// FinishSend returns the chip to standby and clears the TX interrupt.
func (d *Radio) FinishSend() {
	if err := d.setMode(opModeStandby); err != nil {
		log.Printf("sx127x: finish send: %v", err)
		return
	}
	if err := d.writeReg(regIrqFlags, irqTxDone); err != nil {
		log.Printf("sx127x: finish send: %v", err)
	}
}

// BeginListen arms continuous receive mode with RxDone routed to DIO0.
func (d *Radio) BeginListen() radio.Status {
	if err := d.setMode(opModeStandby); err != nil {
		return radio.StatusFault
	}
	if err := d.writeReg(regDioMapping1, dio0RxDone); err != nil {
		return radio.StatusFault
	}
	if err := d.writeReg(regIrqFlags, 0xFF); err != nil {
		return radio.StatusFault
	}
	if err := d.writeReg(regFifoAddrPtr, 0x00); err != nil {
		return radio.StatusFault
	}
	if err := d.setMode(opModeRxCont); err != nil {
		return radio.StatusFault
	}
	return radio.StatusOK
}

// ReceivedLength reports the size of the last received frame, or 0 on error.
func (d *Radio) ReceivedLength() int {
	n, err := d.readReg(regRxNbBytes)
	if err != nil {
		return 0
	}
	return int(n)
}

// ReadReceived copies the pending frame out of the FIFO. A frame whose CRC
// check failed is reported as a fault so the session drops it.
func (d *Radio) ReadReceived(buf []byte) radio.Status {
	flags, err := d.readReg(regIrqFlags)
	if err != nil {
		return radio.StatusFault
	}
	if flags&irqPayloadCrcError != 0 {
		d.writeReg(regIrqFlags, irqPayloadCrcError|irqRxDone)
		return radio.StatusFault
	}

	cur, err := d.readReg(regFifoRxCurrentAddr)
	if err != nil {
		return radio.StatusFault
	}
	if err := d.writeReg(regFifoAddrPtr, cur); err != nil {
		return radio.StatusFault
	}
	if err := d.readBurst(regFifo, buf); err != nil {
		return radio.StatusFault
	}
	if err := d.writeReg(regIrqFlags, irqRxDone); err != nil {
		return radio.StatusFault
	}
	return radio.StatusOK
}

// SignalStrength returns the packet RSSI in dBm (HF port calibration).
func (d *Radio) SignalStrength() float64 {
	v, err := d.readReg(regPktRssiValue)
	if err != nil {
		return 0
	}
	return float64(rssiOffsetHF + int(v))
}

// SignalToNoise returns the packet SNR in dB (quarter-dB register steps).
func (d *Radio) SignalToNoise() float64 {
	v, err := d.readReg(regPktSnrValue)
	if err != nil {
		return 0
	}
	return float64(int8(v)) / 4.0
}

func (d *Radio) OnSendDone(fn func()) {
	d.cbMu.Lock()
	d.sendDone = fn
	d.cbMu.Unlock()
}

func (d *Radio) OnFrameReady(fn func()) {
	d.cbMu.Lock()
	d.frameReady = fn
	d.cbMu.Unlock()
}

// Close puts the chip to sleep and releases the SPI port and GPIO watcher.
func (d *Radio) Close() error {
	d.closed.Store(true)
	if err := d.setMode(opModeSleep); err != nil {
		log.Printf("sx127x: sleep on close: %v", err)
	}
	if err := d.dio0.Halt(); err != nil {
		log.Printf("sx127x: DIO0 halt: %v", err)
	}
	return d.port.Close()
}

func (d *Radio) setMode(mode byte) error {
	if err := d.writeReg(regOpMode, opModeLongRange|mode); err != nil {
		return fmt.Errorf("sx127x: set mode 0x%02X: %w", mode, err)
	}
	d.cbMu.Lock()
	d.mode = mode
	d.cbMu.Unlock()
	return nil
}

func (d *Radio) readReg(addr byte) (byte, error) {
	w := []byte{addr &^ 0x80, 0x00}
	r := make([]byte, len(w))
	if err := d.conn.Tx(w, r); err != nil {
		return 0, err
	}
	return r[1], nil
}

func (d *Radio) writeReg(addr, value byte) error {
	w := []byte{addr | 0x80, value}
	return d.conn.Tx(w, make([]byte, len(w)))
}

func (d *Radio) readBurst(addr byte, buf []byte) error {
	w := make([]byte, len(buf)+1)
	w[0] = addr &^ 0x80
	r := make([]byte, len(w))
	if err := d.conn.Tx(w, r); err != nil {
		return err
	}
	copy(buf, r[1:])
	return nil
}

func (d *Radio) writeBurst(addr byte, data []byte) error {
	w := make([]byte, len(data)+1)
	w[0] = addr | 0x80
	copy(w[1:], data)
	return d.conn.Tx(w, make([]byte, len(w)))
}
